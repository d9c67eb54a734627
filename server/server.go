package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-auth-session/clients"
	"github.com/jrsteele09/go-auth-session/internal/config"
	"github.com/jrsteele09/go-auth-session/token"
	"github.com/jrsteele09/go-auth-session/token/refresh"
	"github.com/jrsteele09/go-auth-session/users"
	"github.com/rs/zerolog/log"
)

// Repos holds the stores the provider reads and writes.
type Repos struct {
	Users         users.UserRepo
	Clients       clients.Repo
	RefreshTokens refresh.Repo
}

// Server is a small OpenID provider speaking the Passport endpoints: the
// password and refresh grants, conditional identity revalidation, logout,
// discovery, and JWKS.
type Server struct {
	env    string // Environment (e.g., "DEV", "PROD")
	mux    *http.ServeMux
	routes []string
	config config.Config
	repos  Repos
	issuer *token.Issuer
}

func New(config config.Config, repos Repos) (*Server, error) {
	signer, err := token.NewSigner(config)
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create token signer: %w", err)
	}

	s := &Server{
		mux:    http.NewServeMux(),
		config: config,
		repos:  repos,
		issuer: token.NewIssuer(
			signer,
			config,
			refresh.NewManager(repos.RefreshTokens, config),
			token.NewRevocations(),
		),
	}
	s.env = config.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Issuer returns the issuer identifier, which is also the base URL of every
// endpoint.
func (s *Server) Issuer() string {
	return strings.TrimSuffix(s.config.GetBaseURL(), "/")
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

// methodLabel pads the method and colours it for the console.
func methodLabel(method string) string {
	colour, ok := methodColors[method]
	if !ok {
		colour = Gray
	}
	return colour + fmt.Sprintf(" %-7s", method) + ResetColor
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", methodLabel(method), path)
}

func logError(method, path, msg string) {
	log.Error().Msgf("[%-19s] %s %s", methodLabel(method), path, Red+msg+ResetColor)
}
