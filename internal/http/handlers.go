package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"kharcha/internal/aggregate"
	"kharcha/internal/core"
	"kharcha/internal/log"
)

const readyTimeout = 5 * time.Second

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string)

	if s.templateErr != nil {
		checks["templates"] = "failed: " + s.templateErr.Error()
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := s.checks[name](ctx); err != nil {
			checks[name] = "failed: " + err.Error()
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	writeJSON(w, r, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides request, security and ledger metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	traceMetrics := s.tracer.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	securityMetrics := s.detector.GetMetrics()
	records := s.ledger.List()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}
	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_requests_in_flight", "gauge", "Requests currently being served", traceMetrics.InFlight)
	metric("http_server_errors_total", "counter", "Responses with a 5xx status", traceMetrics.ServerErrors)
	metric("http_response_time_avg_seconds", "gauge", "Average response time", traceMetrics.AverageResponseTime.Seconds())
	metric("rate_limit_hits_total", "counter", "Total rate limit hits", rateLimitMetrics.TotalHits)
	metric("active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", rateLimitMetrics.ClientCount)
	metric("suspicious_requests_total", "counter", "Total suspicious requests detected", securityMetrics.SuspiciousRequests)
	metric("websocket_clients", "gauge", "Connected change feed clients", s.hub.Clients())
	metric("ledger_expenses", "gauge", "Expenses currently in the ledger", aggregate.Count(records))
	metric("ledger_total", "gauge", "Sum of all expense amounts", aggregate.Total(records).StringFixed(2))
	metric("uptime_seconds", "gauge", "Application uptime in seconds", fmt.Sprintf("%.0f", time.Since(s.startedAt).Seconds()))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderIndex(w, r, http.StatusOK, s.buildPage(normalizeFilter(r.URL.Query().Get("category"))))
}

func (s *Server) renderIndex(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	logger := log.FromContext(r.Context())
	if s.templateErr != nil {
		logger.ErrorContext(r.Context(), "Templates not loaded",
			log.FieldPath, r.URL.Path,
			log.FieldOperation, log.OpRender,
			log.FieldErrorType, log.ErrorTypeConfiguration)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		log.NewStructuredLogger(logger).LogError(r.Context(), "Index template execution failed", err,
			log.ComponentHTTP, log.OpRender, nil)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		logger.WarnContext(r.Context(), "Parse form error", log.FieldError, err.Error())
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}

	form := formValues{
		Title:    sanitizeInput(r.PostForm.Get("title")),
		Amount:   strings.TrimSpace(r.PostForm.Get("amount")),
		Category: sanitizeInput(r.PostForm.Get("category")),
	}
	filter := normalizeFilter(r.PostForm.Get("filter"))

	exp, err := s.ledger.Add(r.Context(), form.Title, form.Amount, form.Category)
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		logger.InfoContext(r.Context(), "Expense rejected",
			log.FieldOperation, log.OpAdd,
			"field", verr.Field,
			log.FieldError, verr.Error(),
			log.FieldErrorType, log.ErrorTypeValidation)
		if wantsJSON(r) {
			writeJSON(w, r, http.StatusUnprocessableEntity, map[string]string{
				"field": verr.Field,
				"error": verr.Error(),
			})
			return
		}
		page := s.buildPage(filter)
		page.Error = verr.Error()
		page.Form = form
		s.renderIndex(w, r, http.StatusUnprocessableEntity, page)
		return
	}
	if err != nil {
		log.NewStructuredLogger(logger).LogError(r.Context(), "Failed to add expense", err,
			log.ComponentLedger, log.OpAdd,
			log.NewFields().WithErrorType(log.ErrorTypeStorage))
		http.Error(w, "failed to save expense", http.StatusInternalServerError)
		return
	}

	log.NewStructuredLogger(logger).LogExpenseAdded(r.Context(),
		exp.ID, exp.Title, exp.Amount.String(), string(exp.Category))

	if wantsJSON(r) {
		writeJSON(w, r, http.StatusCreated, s.buildAPI(filter))
		return
	}

	target := "/"
	if filter != aggregate.All {
		target += "?category=" + url.QueryEscape(filter)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// handleDeleteExpense schedules the delayed removal and answers immediately.
// Repeated requests for the same id join the pending removal.
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}
	id := sanitizeInput(r.PostForm.Get("id"))
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	p := s.ledger.ScheduleRemove(id)
	log.FromContext(r.Context()).InfoContext(r.Context(), "Expense removal scheduled",
		log.FieldExpenseID, p.ID(),
		log.FieldOperation, log.OpSchedule)

	writeJSON(w, r, http.StatusAccepted, map[string]string{
		"id":     p.ID(),
		"status": "pending",
	})
}

func (s *Server) handleAPIExpenses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.buildAPI(normalizeFilter(r.URL.Query().Get("category"))))
}
