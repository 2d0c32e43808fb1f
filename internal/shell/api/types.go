package api

import "time"

// =============================================================================
// Request Types
// =============================================================================

// SponsorRequest is the request body for creating or updating a sponsor.
// On update, sponsor_name is ignored and empty fields are left unchanged.
type SponsorRequest struct {
	Name         string `json:"sponsor_name"`
	CoopDuration string `json:"coop_duration"`
	ImageURL     string `json:"sponsor_image_url"`
	WebsiteURL   string `json:"sponsor_website_url"`
	SponsorClass string `json:"sponsor_class"`
}

// =============================================================================
// Response Types
// =============================================================================

// SponsorResponse is the sponsor representation returned by the API.
type SponsorResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"sponsor_name"`
	CoopDuration string    `json:"coop_duration"`
	ImageURL     string    `json:"sponsor_image_url"`
	WebsiteURL   string    `json:"sponsor_website_url"`
	SponsorClass string    `json:"sponsor_class"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SponsorEnvelope wraps a single sponsor with a message.
type SponsorEnvelope struct {
	Message string          `json:"message"`
	Sponsor SponsorResponse `json:"sponsor"`
}

// SponsorListEnvelope wraps a list of sponsors with a message.
type SponsorListEnvelope struct {
	Message  string            `json:"message"`
	Sponsors []SponsorResponse `json:"sponsors"`
}

// MessageResponse carries only a message.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the error response format.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse is the readiness check response.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
