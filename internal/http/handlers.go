package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"ccpp/internal/core"
	"ccpp/internal/log"
	"ccpp/internal/session"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).String(),
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if err := s.svc.Ready(ctx); err != nil {
		s.logger.WarnContext(ctx, "Readiness check failed", log.FieldError, err)
		checks["data"] = "failed: " + err.Error()
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["data"] = "ok"
	}

	writeJSON(w, httpStatus, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

type loginPage struct {
	Username string
	Error    string
}

// handleIndex shows the dashboard for a valid session and the login form
// otherwise.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionFromRequest(r)
	if err != nil {
		if !isSessionGone(err) {
			s.fail(w, r, err, true)
			return
		}
		s.clearSessionCookie(w)
		s.render(w, r, http.StatusOK, "login.html", loginPage{})
		return
	}
	s.handleDashboard(w, r, sess)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.render(w, r, http.StatusBadRequest, "login.html", loginPage{Error: "Formato de solicitud no válido"})
		return
	}
	username := p.Get("username")
	password := p.GetRaw("password")
	clientIP := s.detector.ExtractClientIP(r)

	if username == "" || password == "" {
		s.structured.LogLogin(ctx, username, clientIP, false, core.ErrAuthentication)
		s.render(w, r, http.StatusUnauthorized, "login.html",
			loginPage{Username: username, Error: "Introduce usuario y contraseña"})
		return
	}

	sess, err := s.svc.Login(ctx, username, password)
	if err != nil {
		s.structured.LogLogin(ctx, username, clientIP, false, err)
		status, msg := errorStatus(err)
		if status >= http.StatusInternalServerError {
			s.logger.ErrorContext(ctx, "Login could not complete", log.FieldError, err)
		}
		s.render(w, r, status, "login.html", loginPage{Username: username, Error: msg})
		return
	}

	s.structured.LogLogin(ctx, username, clientIP, true, nil)
	s.setSessionCookie(w, sess)
	if isHTMX(r) {
		NewHTMXResponse().Redirect("/").Write(w)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	if c, err := r.Cookie(s.opts.CookieName); err == nil && c.Value != "" {
		if err := s.svc.Logout(ctx, c.Value); err != nil {
			s.logger.ErrorContext(ctx, "Logout failed", log.FieldError, err)
		}
	}
	s.clearSessionCookie(w)
	if isHTMX(r) {
		NewHTMXResponse().Redirect("/").Write(w)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// sessionHandler is a handler that runs with a resolved session.
type sessionHandler func(w http.ResponseWriter, r *http.Request, sess core.Session)

// requireSession resolves the session cookie and rejects requests without
// a live session.
func (s *Server) requireSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.sessionFromRequest(r)
		if err != nil {
			if !isSessionGone(err) {
				s.fail(w, r, err, false)
				return
			}
			s.clearSessionCookie(w)
			if isHTMX(r) {
				UnauthorizedError("La sesión ha caducado").Write(w)
				return
			}
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		logger := log.FromContext(r.Context()).With(
			log.NewFields().WithSession(sess.ID, sess.Identity, sess.IsAdmin).ToSlice()...)
		next(w, r.WithContext(log.WithLogger(r.Context(), logger)), sess)
	}
}

func (s *Server) sessionFromRequest(r *http.Request) (core.Session, error) {
	c, err := r.Cookie(s.opts.CookieName)
	if err != nil || c.Value == "" {
		return core.Session{}, session.ErrNotFound
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()
	return s.svc.Session(ctx, c.Value)
}

func isSessionGone(err error) bool {
	return errors.Is(err, session.ErrNotFound) || errors.Is(err, core.ErrSessionExpired)
}

func (s *Server) setSessionCookie(w http.ResponseWriter, sess core.Session) {
	maxAge := int(s.opts.SessionTTL / time.Second)
	if !sess.ExpiresAt.IsZero() {
		maxAge = int(time.Until(sess.ExpiresAt) / time.Second)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

type errorPage struct {
	Status  int
	Message string
}

// fail logs err and answers with the mapped status: a fragment for htmx,
// the error page when page is set, plain text otherwise.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, page bool) {
	status, msg := errorStatus(err)
	logger := log.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", log.FieldError, err, log.FieldPath, r.URL.Path)
	} else {
		logger.WarnContext(r.Context(), "Request rejected", log.FieldError, err, log.FieldPath, r.URL.Path)
	}
	switch {
	case isHTMX(r):
		ErrorResponse(status, msg).Write(w)
	case page:
		s.render(w, r, status, "error.html", errorPage{Status: status, Message: msg})
	default:
		http.Error(w, msg, status)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// detached keeps request values but not the request deadline, for work that
// must finish after the client goes away.
func detached(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
