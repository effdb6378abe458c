package http

import (
	"context"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"kharcha/internal/core"
	"kharcha/internal/format"
	"kharcha/internal/ledger"
	"kharcha/internal/log"
	"kharcha/internal/middleware/ratelimit"
	"kharcha/internal/middleware/security"
	"kharcha/internal/middleware/trace"
	appweb "kharcha/web"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	writeTimeout      = 15 * time.Second
	idleTimeout       = 60 * time.Second
	staticMaxAge      = 3600
)

// Ledger is the subset of ledger.Store the server drives.
type Ledger interface {
	Add(ctx context.Context, title, amount, category string) (core.Expense, error)
	ScheduleRemove(id string) *ledger.PendingRemoval
	Pending(id string) bool
	List() []core.Expense
	Subscribe(l ledger.Listener) (unsubscribe func())
}

var _ Ledger = (*ledger.Store)(nil)

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type Server struct {
	http.Server

	ledger      Ledger
	templateFS  fs.FS
	templates   *template.Template
	templateErr error
	hub         *Hub
	loc         *time.Location
	logger      *log.Logger
	startedAt   time.Time
	checks      map[string]ReadinessCheck
	proxies     []string

	rateLimiter *ratelimit.Limiter
	detector    *security.Detector
	tracer      *trace.Middleware

	unsubscribe  func()
	shutdownOnce sync.Once
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and handler logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLocation sets the time zone timestamps are rendered in.
func WithLocation(loc *time.Location) Option {
	return func(s *Server) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithRateLimit limits POST requests per client IP per minute.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) {
		cfg := ratelimit.DefaultConfig()
		cfg.RequestsPerMinute = perMinute
		s.rateLimiter.Stop()
		s.rateLimiter = ratelimit.NewLimiter(cfg)
	}
}

// WithTrustedProxies trusts X-Forwarded-For and X-Real-IP from peers inside
// the given CIDR ranges, in addition to loopback.
func WithTrustedProxies(cidrs ...string) Option {
	return func(s *Server) {
		s.proxies = append(s.proxies, cidrs...)
	}
}

// WithReadinessCheck adds a named dependency check to /readyz.
func WithReadinessCheck(name string, check ReadinessCheck) Option {
	return func(s *Server) {
		s.checks[name] = check
	}
}

// WithTemplates replaces the embedded templates.
func WithTemplates(fsys fs.FS) Option {
	return func(s *Server) {
		s.templateFS = fsys
	}
}

// NewServer configures routes and templates, returning a ready-to-run
// http.Server. The server subscribes to ledger changes for its websocket
// feed until Shutdown.
func NewServer(addr string, l Ledger, opts ...Option) *Server {
	s := &Server{
		ledger:      l,
		loc:         time.UTC,
		logger:      log.Default(),
		startedAt:   time.Now(),
		checks:      make(map[string]ReadinessCheck),
		rateLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector:    security.NewDetector(),
		templateFS:  appweb.Templates,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentHTTP)
	for _, cidr := range s.proxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			s.logger.Warn("Ignoring trusted proxy",
				log.FieldError, err.Error(),
				log.FieldErrorType, log.ErrorTypeConfiguration)
		}
	}
	s.templates, s.templateErr = parseTemplates(s.templateFS, s.loc)
	if s.templateErr != nil {
		s.logger.Error("Template parsing failed",
			log.FieldError, s.templateErr.Error(),
			log.FieldErrorType, log.ErrorTypeConfiguration)
	}

	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP)
	s.hub = NewHub(s.logger)
	s.unsubscribe = l.Subscribe(s.hub.HandleEvent)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /expenses", s.handleCreateExpense)
	mux.HandleFunc("POST /expenses/delete", s.handleDeleteExpense)
	mux.HandleFunc("GET /api/expenses", s.handleAPIExpenses)
	mux.HandleFunc("GET /ws", s.hub.ServeWS)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	static, err := fs.Sub(appweb.Static, "static")
	if err == nil {
		mux.Handle("GET /static/", security.StaticAssetMiddleware(staticMaxAge)(
			http.StripPrefix("/static/", http.FileServerFS(static))))
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
	return s
}

// middleware wraps next with logging, tracing, security headers,
// suspicious-request detection and POST rate limiting, outermost first.
func (s *Server) middleware(next http.Handler) http.Handler {
	h := s.rateLimiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited)(next)
	h = s.detector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = log.ComponentMiddleware(log.ComponentHTTP)(h)
	h = log.RequestIDMiddleware(func(r *http.Request) string {
		return trace.GetRequestID(r.Context())
	})(h)
	h = s.tracer.Middleware(h)
	return log.Middleware(s.logger)(h)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldPath, r.URL.Path)
	http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
}

// Shutdown gracefully shuts down the server, the websocket feed and the
// rate limiter cleanup goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.unsubscribe()
		s.hub.Close()
		s.rateLimiter.Stop()

		if err := s.Server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			shutdownErr = err
		}
	})

	return shutdownErr
}

func parseTemplates(fsys fs.FS, loc *time.Location) (*template.Template, error) {
	funcs := template.FuncMap{
		"rupees": format.FormatRupees,
		"amount": format.FormatAmount,
		"glyph":  format.CategoryGlyph,
		"when": func(t time.Time) string {
			return format.FormatTimestamp(t.In(loc))
		},
		"iso": func(t time.Time) string {
			return t.UTC().Format(time.RFC3339)
		},
	}
	return template.New("").Funcs(funcs).ParseFS(fsys, "templates/*.html")
}
