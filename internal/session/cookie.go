package session

import (
	"context"
	"net/http"
	"time"
)

type CookieConfig struct {
	Name   string
	Domain string
	// Insecure drops the Secure attribute. Only meant for plain http local development.
	Insecure bool
}

type cookieStore struct {
	cfg     CookieConfig
	w       http.ResponseWriter
	r       *http.Request
	value   string
	present bool
}

// NewCookieStore binds a store to a single request. Writes become Set-Cookie headers
// on w and later reads in the same request see them.
func NewCookieStore(w http.ResponseWriter, r *http.Request, cfg CookieConfig) Store {
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	s := &cookieStore{cfg: cfg, w: w, r: r}
	if c, err := r.Cookie(cfg.Name); err == nil && c.Value != "" {
		s.value = c.Value
		s.present = true
	}
	return s
}

func (s *cookieStore) Get(_ context.Context) (string, bool) {
	return s.value, s.present
}

func (s *cookieStore) Set(_ context.Context, token string) error {
	http.SetCookie(s.w, &http.Cookie{
		Name:     s.cfg.Name,
		Value:    token,
		Path:     "/",
		Domain:   s.cfg.Domain,
		Secure:   !s.cfg.Insecure,
		SameSite: http.SameSiteStrictMode,
	})
	s.value = token
	s.present = token != ""
	return nil
}

func (s *cookieStore) Clear(_ context.Context, name string, opts ClearOptions) error {
	if name == "" {
		name = s.cfg.Name
	}
	path := opts.Path
	if path == "" {
		path = "/"
	}
	http.SetCookie(s.w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Domain:   opts.Domain,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Secure:   !s.cfg.Insecure,
		SameSite: http.SameSiteStrictMode,
	})
	if name == s.cfg.Name {
		s.value = ""
		s.present = false
	}
	return nil
}
