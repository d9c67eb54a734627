package openid

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-auth-session/oauthmodel"
	"github.com/jrsteele09/go-auth-session/storage"
	"github.com/jrsteele09/go-auth-session/transport"
	"github.com/rs/zerolog/log"
)

// checkChangeUser asks the revalidation endpoint whether the identity changed
// since the entity tag we hold. A change replaces the id token and the user.
// Not modified keeps everything. Failures are logged and never end the
// session; without a user the stored id token is used as is.
func (s *Scheme) checkChangeUser(ctx context.Context) error {
	if s.opts.RevalidationEndpoint != "" {
		changed, err := s.revalidate(ctx)
		if err != nil {
			log.Warn().Err(err).
				Str("strategy", s.opts.Name).
				Int("status", transport.StatusCode(err)).
				Msg("Identity revalidation failed")
		}
		if changed {
			return s.updateUser(ctx)
		}
	}

	if s.auth.User() == nil {
		return s.updateUser(ctx)
	}
	return nil
}

// revalidate bypasses the orchestrator's request so a soft failure is never
// broadcast to the error listeners.
func (s *Scheme) revalidate(ctx context.Context) (changed bool, err error) {
	header := http.Header{}
	if etag := s.entityTag(); etag != "" {
		header.Set("If-None-Match", etag)
	}

	resp, err := s.transport.Do(ctx, s.opts.RevalidationEndpoint, transport.Request{
		Method: http.MethodGet,
		Header: header,
	})
	if err != nil {
		return false, err
	}
	if resp.NotModified() {
		return false, nil
	}

	var body oauthmodel.RevalidationResponse
	if err := resp.Decode(&body); err != nil {
		return false, fmt.Errorf("[Scheme revalidate] failed to decode response: %w", err)
	}
	if body.IDToken == "" {
		return false, fmt.Errorf("[Scheme revalidate] %w", ErrMissingIDToken)
	}

	expires := storage.CookieOptions{}
	if body.ExpiresIn > 0 {
		expires.Expires = NowTimeFunc().Add(body.ExpiresIn.Duration())
	}
	s.auth.SetIDToken(s.opts.Name, body.IDToken, expires)
	s.setEntityTag(resp.Header.Get("ETag"))

	return true, nil
}

// The entity tag lives in the private namespace so it is cleared by reset and
// never reaches the host's state.
func (s *Scheme) entityTagKey() string {
	return storage.PrivatePrefix + "etag." + s.opts.Name
}

func (s *Scheme) entityTag() string {
	etag, _ := s.auth.Storage().GetState(s.entityTagKey()).(string)
	return etag
}

func (s *Scheme) setEntityTag(etag string) {
	if etag == "" {
		s.auth.Storage().RemoveState(s.entityTagKey())
		return
	}
	s.auth.Storage().SetState(s.entityTagKey(), etag)
}
