package api

import (
	"log/slog"
	"net/http"

	"github.com/artpar/sponsors/internal/core/domain"
	apimiddleware "github.com/artpar/sponsors/internal/shell/api/middleware"
	"github.com/artpar/sponsors/internal/shell/api/openapi"
	"github.com/artpar/sponsors/internal/shell/sponsors"
)

// =============================================================================
// API Setup
// =============================================================================

// APIConfig holds configuration for the API setup.
type APIConfig struct {
	Service *sponsors.Service
	Pinger  Pinger
	Logger  *slog.Logger

	// Version is reported in the OpenAPI document.
	Version string

	// ServerURL is advertised in the OpenAPI document. Optional.
	ServerURL string

	// RateLimiter throttles /api/v1 per client. Nil disables rate limiting.
	RateLimiter *apimiddleware.RateLimiter
}

// SetupAPI creates the complete API router.
// Returns an http.Handler that can be used as the server's main handler.
func SetupAPI(cfg APIConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	spec := NewOpenAPIGenerator(cfg.Version, cfg.ServerURL)
	return NewHandler(cfg.Service, cfg.Pinger, spec, cfg.RateLimiter, cfg.Logger).Routes()
}

// =============================================================================
// OpenAPI
// =============================================================================

// NewOpenAPIGenerator describes the sponsor routes.
func NewOpenAPIGenerator(version, serverURL string) *openapi.Generator {
	opts := []openapi.Option{}
	if version != "" {
		opts = append(opts, openapi.WithVersion(version))
	}
	if serverURL != "" {
		opts = append(opts, openapi.WithServer(serverURL))
	}
	g := openapi.NewGenerator(opts...)

	g.RegisterModel("SponsorRequest", SponsorRequest{})
	g.RegisterModel("Sponsor", SponsorResponse{})
	g.RegisterModel("SponsorEnvelope", SponsorEnvelope{})
	g.RegisterModel("SponsorListEnvelope", SponsorListEnvelope{})
	g.RegisterModel("Message", MessageResponse{})
	g.RegisterModel("Error", ErrorResponse{})

	durations := make([]string, 0, len(domain.CoopDurations()))
	for _, d := range domain.CoopDurations() {
		durations = append(durations, string(d))
	}
	classes := make([]string, 0, len(domain.SponsorClasses()))
	for _, c := range domain.SponsorClasses() {
		classes = append(classes, string(c))
	}
	g.RegisterEnum("coop_duration", durations)
	g.RegisterEnum("sponsor_class", classes)

	const (
		base = "/api/v1/sponsors"
		tag  = "Sponsors"
	)
	nameParam := []openapi.Param{{Name: "name"}}

	g.RegisterRoute(openapi.Route{
		Method: http.MethodPost, Path: base, OperationID: "createSponsor",
		Summary: "Create a sponsor", Tag: tag, Request: "SponsorRequest",
		Responses: map[int]string{
			http.StatusCreated:             "SponsorEnvelope",
			http.StatusBadRequest:          "Error",
			http.StatusInternalServerError: "Error",
		},
	})
	g.RegisterRoute(openapi.Route{
		Method: http.MethodGet, Path: base, OperationID: "listSponsors",
		Summary: "List all sponsors", Tag: tag,
		Responses: map[int]string{
			http.StatusOK:                  "SponsorListEnvelope",
			http.StatusInternalServerError: "Error",
		},
	})
	g.RegisterRoute(openapi.Route{
		Method: http.MethodGet, Path: base + "/name/{name}", OperationID: "getSponsorByName",
		Summary: "Get a sponsor by name", Tag: tag, Params: nameParam,
		Responses: map[int]string{
			http.StatusOK:       "SponsorEnvelope",
			http.StatusNotFound: "Error",
		},
	})
	g.RegisterRoute(openapi.Route{
		Method: http.MethodPut, Path: base + "/name/{name}", OperationID: "updateSponsor",
		Summary: "Update a sponsor", Tag: tag, Params: nameParam, Request: "SponsorRequest",
		Responses: map[int]string{
			http.StatusOK:         "SponsorEnvelope",
			http.StatusBadRequest: "Error",
			http.StatusNotFound:   "Error",
		},
	})
	g.RegisterRoute(openapi.Route{
		Method: http.MethodDelete, Path: base + "/name/{name}", OperationID: "deleteSponsor",
		Summary: "Delete a sponsor", Tag: tag, Params: nameParam,
		Responses: map[int]string{
			http.StatusOK:       "Message",
			http.StatusNotFound: "Error",
		},
	})
	g.RegisterRoute(openapi.Route{
		Method: http.MethodGet, Path: base + "/duration/{duration}", OperationID: "listSponsorsByDuration",
		Summary: "List sponsors by co-op duration", Tag: tag,
		Params: []openapi.Param{{Name: "duration", Enum: durations}},
		Responses: map[int]string{
			http.StatusOK:         "SponsorListEnvelope",
			http.StatusBadRequest: "Error",
			http.StatusNotFound:   "Error",
		},
	})
	g.RegisterRoute(openapi.Route{
		Method: http.MethodGet, Path: base + "/class/{class}", OperationID: "listSponsorsByClass",
		Summary: "List sponsors by class", Tag: tag,
		Params: []openapi.Param{{Name: "class", Enum: classes}},
		Responses: map[int]string{
			http.StatusOK:         "SponsorListEnvelope",
			http.StatusBadRequest: "Error",
			http.StatusNotFound:   "Error",
		},
	})

	return g
}
