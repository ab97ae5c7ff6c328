package http

import (
	"context"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ccpp/internal/core"
	"ccpp/internal/log"
	"ccpp/internal/middleware/security"
	"ccpp/internal/middleware/trace"
	"ccpp/internal/report"
	"ccpp/internal/services"
	appweb "ccpp/web"
)

// Dashboard is the service the handlers drive.
type Dashboard interface {
	Login(ctx context.Context, username, password string) (core.Session, error)
	Logout(ctx context.Context, sessionID string) error
	Session(ctx context.Context, sessionID string) (core.Session, error)
	Dashboard(ctx context.Context, sess core.Session, f report.Filters) (services.Dashboard, error)
	ClientDetail(ctx context.Context, sess core.Session, f report.Filters, cups []string) (services.ClientView, bool, error)
	CommissionSelection(ctx context.Context, sess core.Session, f report.Filters, cups, months []string) (core.Money, error)
	Export(ctx context.Context, sess core.Session, f report.Filters, w io.Writer) (int, error)
	Reload(ctx context.Context, source, trigger string)
	Ready(ctx context.Context) error
}

// Options tunes the server. Zero values select the defaults.
type Options struct {
	Logger         *log.Logger
	CookieName     string
	CookieSecure   bool
	SessionTTL     time.Duration
	RequestTimeout time.Duration
	Headers        *security.HeadersConfig
}

const (
	defaultCookieName     = "ccpp_session"
	defaultSessionTTL     = 12 * time.Hour
	defaultRequestTimeout = 7 * time.Second
	staticMaxAge          = 3600
)

type Server struct {
	http.Server
	svc        Dashboard
	templates  *template.Template
	logger     *log.Logger
	structured *log.StructuredLogger
	detector   *security.Detector
	opts       Options
	startedAt  time.Time
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, svc Dashboard, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.CookieName == "" {
		opts.CookieName = defaultCookieName
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = defaultSessionTTL
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	headers := security.DefaultHeadersConfig()
	if opts.Headers != nil {
		headers = *opts.Headers
	}

	logger := opts.Logger.WithComponent(log.ComponentHTTP)
	mux := http.NewServeMux()
	s := &Server{
		svc:        svc,
		logger:     logger,
		structured: log.NewStructuredLogger(logger),
		detector:   security.NewDetector(opts.Logger),
		opts:       opts,
		startedAt:  time.Now(),
	}

	// Parse embedded templates at startup.
	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Error("Failed parsing templates", log.FieldError, err)
	} else {
		s.templates = t
	}

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(staticMaxAge)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)
	mux.HandleFunc("GET /ui/client-detail", s.requireSession(s.handleClientDetail))
	mux.HandleFunc("GET /ui/commission", s.requireSession(s.handleCommission))
	mux.HandleFunc("GET /api/charts/months", s.requireSession(s.handleMonthsChart))
	mux.HandleFunc("GET /api/charts/companies", s.requireSession(s.handleCompaniesChart))
	mux.HandleFunc("GET /export.csv", s.requireSession(s.handleExport))
	mux.HandleFunc("POST /admin/reload", s.requireSession(s.handleReload))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	route := func(r *http.Request) string {
		if _, pattern := mux.Handler(r); pattern != "" {
			return pattern
		}
		return "unmatched"
	}
	tracer := trace.NewMiddleware(opts.Logger.WithComponent(log.ComponentTrace), s.detector.ExtractClientIP, route)
	headersMW := security.NewHeadersMiddleware(headers)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           tracer.Middleware(s.detector.Middleware(headersMW.Middleware(mux))),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

var templateFuncs = template.FuncMap{
	"euros": formatEuros,
	"join":  strings.Join,
	"contains": func(list []string, v string) bool {
		for _, item := range list {
			if item == v {
				return true
			}
		}
		return false
	},
}

// render executes a named template, logging and answering 500 on failure.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	var buf strings.Builder
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.structured.LogError(r.Context(), "Template execution failed", err, log.ComponentTemplate, log.OpRender,
			log.NewFields().WithRequestID(trace.GetRequestID(r.Context())))
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, buf.String())
}

// requestContext bounds a handler's blocking work.
func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.opts.RequestTimeout)
}
