package server

func (s *Server) initRoutes() {
	// OIDC discovery
	s.RegisterRouteHandler("GET "+RouteWellKnownOpenIDConfig, ChainMiddleware(s.WellKnownOpenIDConfig(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteWellKnownJWKS, ChainMiddleware(s.JWKS(), s.APIMiddleware()...))

	// Passport endpoints
	s.RegisterRouteHandler("GET "+RouteAuthorize, ChainMiddleware(s.Authorize(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteToken, ChainMiddleware(s.Token(), s.APIMiddleware(s.NoStoreMiddleware)...))

	// Protected endpoints (require a valid access token)
	s.RegisterRouteHandler("GET "+RouteRevalidation, ChainMiddleware(s.Revalidate(), s.APIMiddleware(s.NoStoreMiddleware, s.RequireBearer)...))
	s.RegisterRouteHandler("POST "+RouteLogout, ChainMiddleware(s.Logout(), s.APIMiddleware(s.RequireBearer)...))
}
