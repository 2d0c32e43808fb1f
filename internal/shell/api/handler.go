// Package api provides HTTP handlers for the sponsors API.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/artpar/sponsors/internal/core/domain"
	"github.com/artpar/sponsors/internal/core/validation"
	apimiddleware "github.com/artpar/sponsors/internal/shell/api/middleware"
	"github.com/artpar/sponsors/internal/shell/api/openapi"
	"github.com/artpar/sponsors/internal/shell/sponsors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Pinger reports backend readiness. store.Store implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// =============================================================================
// Handler
// =============================================================================

// Handler provides HTTP handlers for the API.
type Handler struct {
	service *sponsors.Service
	pinger  Pinger
	openapi *openapi.Generator
	limiter *apimiddleware.RateLimiter
	logger  *slog.Logger
}

// NewHandler creates a new API handler.
// spec and limiter may be nil to disable /openapi.json and rate limiting.
func NewHandler(svc *sponsors.Service, p Pinger, spec *openapi.Generator, limiter *apimiddleware.RateLimiter, l *slog.Logger) *Handler {
	if l == nil {
		l = slog.Default()
	}
	return &Handler{
		service: svc,
		pinger:  p,
		openapi: spec,
		limiter: limiter,
		logger:  l.With("component", "api"),
	}
}

// Routes returns the router with all routes configured.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.jsonContentType)
	r.Use(h.requestIDHeader)

	// Health endpoints
	r.Get("/health", h.handleHealth)
	r.Get("/ready", h.handleReady)

	if h.openapi != nil {
		r.Get("/openapi.json", h.openapi.Handler())
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		if h.limiter != nil {
			r.Use(h.limiter.Handler)
		}

		r.Route("/sponsors", func(r chi.Router) {
			r.Post("/", h.handleCreateSponsor)
			r.Get("/", h.handleListSponsors)
			r.Get("/name/{name}", h.handleGetSponsor)
			r.Put("/name/{name}", h.handleUpdateSponsor)
			r.Delete("/name/{name}", h.handleDeleteSponsor)
			r.Get("/duration/{duration}", h.handleListByDuration)
			r.Get("/class/{class}", h.handleListByClass)
		})
	})

	return r
}

// =============================================================================
// Middleware
// =============================================================================

// jsonContentType sets Content-Type header to application/json.
func (h *Handler) jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// requestIDHeader copies the request ID to the response header.
func (h *Handler) requestIDHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			w.Header().Set("X-Request-ID", reqID)
		}
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Health Handlers
// =============================================================================

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)

	if err := h.pinger.Ping(r.Context()); err != nil {
		h.logger.Warn("readiness check failed", "error", err)
		checks["store"] = "failed"
		h.writeJSON(w, http.StatusServiceUnavailable, ReadyResponse{
			Status: "not_ready",
			Checks: checks,
		})
		return
	}
	checks["store"] = "ok"

	h.writeJSON(w, http.StatusOK, ReadyResponse{
		Status: "ready",
		Checks: checks,
	})
}

// =============================================================================
// Sponsor Handlers
// =============================================================================

func (h *Handler) handleCreateSponsor(w http.ResponseWriter, r *http.Request) {
	var req SponsorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	sponsor, err := h.service.Create(r.Context(), validation.CreateFields{
		Name:         req.Name,
		CoopDuration: req.CoopDuration,
		ImageURL:     req.ImageURL,
		WebsiteURL:   req.WebsiteURL,
		SponsorClass: req.SponsorClass,
	})
	if err != nil {
		h.writeServiceError(w, "failed to create sponsor", err)
		return
	}

	h.writeJSON(w, http.StatusCreated, SponsorEnvelope{
		Message: "sponsor created",
		Sponsor: sponsorToResponse(sponsor),
	})
}

func (h *Handler) handleListSponsors(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.FindAll(r.Context())
	if err != nil {
		h.writeServiceError(w, "failed to list sponsors", err)
		return
	}

	h.writeJSON(w, http.StatusOK, SponsorListEnvelope{
		Message:  "sponsors found",
		Sponsors: sponsorsToResponse(list),
	})
}

func (h *Handler) handleGetSponsor(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")

	sponsor, found, err := h.service.FindByName(r.Context(), name)
	if err != nil {
		h.writeServiceError(w, "failed to find sponsor", err)
		return
	}
	if !found {
		h.writeError(w, http.StatusNotFound, "sponsor not found with name: "+name, "not_found")
		return
	}

	h.writeJSON(w, http.StatusOK, SponsorEnvelope{
		Message: "sponsor found with name: " + name,
		Sponsor: sponsorToResponse(sponsor),
	})
}

func (h *Handler) handleUpdateSponsor(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")

	var req SponsorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	modified, err := h.service.Update(r.Context(), name, validation.UpdateFields{
		CoopDuration: req.CoopDuration,
		ImageURL:     req.ImageURL,
		WebsiteURL:   req.WebsiteURL,
		SponsorClass: req.SponsorClass,
	})
	if err != nil {
		h.writeServiceError(w, "failed to update sponsor", err)
		return
	}

	sponsor, found, err := h.service.FindByName(r.Context(), name)
	if err != nil {
		h.writeServiceError(w, "failed to load updated sponsor", err)
		return
	}
	if !found {
		// Deleted concurrently after the update
		h.writeError(w, http.StatusNotFound, "sponsor not found with name: "+name, "not_found")
		return
	}

	message := "sponsor updated with name: " + name
	if !modified {
		message = "sponsor unchanged with name: " + name
	}
	h.writeJSON(w, http.StatusOK, SponsorEnvelope{
		Message: message,
		Sponsor: sponsorToResponse(sponsor),
	})
}

func (h *Handler) handleDeleteSponsor(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")

	deleted, err := h.service.Delete(r.Context(), name)
	if err != nil {
		h.writeServiceError(w, "failed to delete sponsor", err)
		return
	}
	if !deleted {
		h.writeError(w, http.StatusNotFound, "sponsor not found with name: "+name, "not_found")
		return
	}

	h.writeJSON(w, http.StatusOK, MessageResponse{Message: "sponsor deleted with name: " + name})
}

func (h *Handler) handleListByDuration(w http.ResponseWriter, r *http.Request) {
	duration := pathParam(r, "duration")

	list, err := h.service.FindByDuration(r.Context(), duration)
	if err != nil {
		h.writeServiceError(w, "failed to find sponsors", err)
		return
	}
	h.writeList(w, list, "coop duration", duration)
}

func (h *Handler) handleListByClass(w http.ResponseWriter, r *http.Request) {
	class := pathParam(r, "class")

	list, err := h.service.FindByClass(r.Context(), class)
	if err != nil {
		h.writeServiceError(w, "failed to find sponsors", err)
		return
	}
	h.writeList(w, list, "sponsor class", class)
}

// =============================================================================
// Helpers
// =============================================================================

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode JSON", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message, code string) {
	h.writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// writeList answers a filtered lookup; no matches is a 404.
func (h *Handler) writeList(w http.ResponseWriter, list []domain.Sponsor, label, value string) {
	if len(list) == 0 {
		h.writeError(w, http.StatusNotFound, "sponsors not found with "+label+": "+value, "not_found")
		return
	}
	h.writeJSON(w, http.StatusOK, SponsorListEnvelope{
		Message:  "sponsors found with " + label + ": " + value,
		Sponsors: sponsorsToResponse(list),
	})
}

// writeServiceError maps validation failures to 4xx and everything else to 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, msg string, err error) {
	sErr, ok := domain.AsSponsorError(err)
	if !ok {
		h.logger.Error(msg, "error", err)
		h.writeError(w, http.StatusInternalServerError, msg, "internal_error")
		return
	}

	status, code := errorStatus(sErr.Kind)
	h.writeError(w, status, sErr.Message, code)
}

// errorStatus returns the HTTP status and error code for a validation failure.
func errorStatus(kind domain.ErrorKind) (int, string) {
	switch kind {
	case domain.KindMissingField:
		return http.StatusBadRequest, "validation_error"
	case domain.KindInvalidEnumValue:
		return http.StatusBadRequest, "invalid_value"
	case domain.KindDuplicateKey:
		return http.StatusBadRequest, "duplicate"
	case domain.KindNotFound:
		return http.StatusNotFound, "not_found"
	case domain.KindURLUnreachable:
		return http.StatusBadRequest, "url_unreachable"
	case domain.KindURLFormat:
		return http.StatusBadRequest, "url_format"
	case domain.KindNoOpUpdate:
		return http.StatusBadRequest, "no_changes"
	default:
		return http.StatusBadRequest, "validation_error"
	}
}

// pathParam returns a decoded URL parameter.
func pathParam(r *http.Request, key string) string {
	value := chi.URLParam(r, key)
	// chi matches on RawPath when it is set, leaving escapes in place
	if r.URL.RawPath != "" {
		if decoded, err := url.PathUnescape(value); err == nil {
			return decoded
		}
	}
	return value
}

func sponsorToResponse(s *domain.Sponsor) SponsorResponse {
	return SponsorResponse{
		ID:           s.ID,
		Name:         s.Name,
		CoopDuration: string(s.CoopDuration),
		ImageURL:     s.ImageURL,
		WebsiteURL:   s.WebsiteURL,
		SponsorClass: string(s.Class),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func sponsorsToResponse(list []domain.Sponsor) []SponsorResponse {
	resp := make([]SponsorResponse, 0, len(list))
	for i := range list {
		resp = append(resp, sponsorToResponse(&list[i]))
	}
	return resp
}
