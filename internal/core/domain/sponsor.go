// Package domain contains the core domain types and validation logic.
// This is part of the Functional Core - all functions are pure with no I/O.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Co-op Duration
// =============================================================================

// CoopDuration is the sponsorship term length.
type CoopDuration string

const (
	CoopDurationQuarterYear CoopDuration = "QUARTER_YEAR"
	CoopDurationFullYear    CoopDuration = "FULL_YEAR"
)

// CoopDurations returns every valid co-op duration.
func CoopDurations() []CoopDuration {
	return []CoopDuration{CoopDurationQuarterYear, CoopDurationFullYear}
}

// IsValid checks if the co-op duration is a known value.
func (d CoopDuration) IsValid() bool {
	switch d {
	case CoopDurationQuarterYear, CoopDurationFullYear:
		return true
	default:
		return false
	}
}

// ParseCoopDuration parses a co-op duration. Matching is exact and case-sensitive.
func ParseCoopDuration(raw string) (CoopDuration, error) {
	d := CoopDuration(raw)
	if !d.IsValid() {
		return "", NewInvalidValueError(FieldCoopDuration)
	}
	return d, nil
}

// =============================================================================
// Sponsor Class
// =============================================================================

// SponsorClass is the sponsorship tier.
type SponsorClass string

const (
	SponsorClassPlatinum SponsorClass = "PLATINUM"
	SponsorClassGold     SponsorClass = "GOLD"
	SponsorClassSilver   SponsorClass = "SILVER"
)

// SponsorClasses returns every valid sponsor class.
func SponsorClasses() []SponsorClass {
	return []SponsorClass{SponsorClassPlatinum, SponsorClassGold, SponsorClassSilver}
}

// IsValid checks if the sponsor class is a known value.
func (c SponsorClass) IsValid() bool {
	switch c {
	case SponsorClassPlatinum, SponsorClassGold, SponsorClassSilver:
		return true
	default:
		return false
	}
}

// ParseSponsorClass parses a sponsor class. Matching is exact and case-sensitive.
func ParseSponsorClass(raw string) (SponsorClass, error) {
	c := SponsorClass(raw)
	if !c.IsValid() {
		return "", NewInvalidValueError(FieldSponsorClass)
	}
	return c, nil
}

// =============================================================================
// Sponsor
// =============================================================================

// Sponsor is an entry in the sponsor directory. Name is the natural key.
type Sponsor struct {
	ID           string       `json:"id"`
	Name         string       `json:"sponsor_name"`
	CoopDuration CoopDuration `json:"coop_duration"`
	ImageURL     string       `json:"sponsor_image_url"`
	WebsiteURL   string       `json:"sponsor_website_url"`
	Class        SponsorClass `json:"sponsor_class"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// NewSponsor builds a sponsor from already validated values.
func NewSponsor(name string, duration CoopDuration, imageURL, websiteURL string, class SponsorClass) *Sponsor {
	now := time.Now().UTC()
	return &Sponsor{
		ID:           "spn_" + uuid.New().String()[:8],
		Name:         name,
		CoopDuration: duration,
		ImageURL:     imageURL,
		WebsiteURL:   websiteURL,
		Class:        class,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Apply copies the set fields of a patch onto the sponsor.
func (s *Sponsor) Apply(p SponsorPatch) {
	if p.CoopDuration != nil {
		s.CoopDuration = *p.CoopDuration
	}
	if p.ImageURL != nil {
		s.ImageURL = *p.ImageURL
	}
	if p.WebsiteURL != nil {
		s.WebsiteURL = *p.WebsiteURL
	}
	if p.Class != nil {
		s.Class = *p.Class
	}
}

// SponsorPatch is a partial update. Nil fields are left unchanged.
type SponsorPatch struct {
	CoopDuration *CoopDuration
	ImageURL     *string
	WebsiteURL   *string
	Class        *SponsorClass
}

// IsEmpty reports whether the patch changes nothing.
func (p SponsorPatch) IsEmpty() bool {
	return p.CoopDuration == nil && p.ImageURL == nil && p.WebsiteURL == nil && p.Class == nil
}

// Differs reports whether applying the patch to s would change any value.
func (p SponsorPatch) Differs(s Sponsor) bool {
	if p.CoopDuration != nil && *p.CoopDuration != s.CoopDuration {
		return true
	}
	if p.ImageURL != nil && *p.ImageURL != s.ImageURL {
		return true
	}
	if p.WebsiteURL != nil && *p.WebsiteURL != s.WebsiteURL {
		return true
	}
	if p.Class != nil && *p.Class != s.Class {
		return true
	}
	return false
}

// =============================================================================
// URL Normalization
// =============================================================================

// NormalizeURL prepends https:// when the URL carries no http or https scheme.
func NormalizeURL(raw string) string {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return "https://" + raw
}
