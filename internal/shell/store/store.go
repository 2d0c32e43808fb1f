package store

import (
	"context"

	"github.com/artpar/sponsors/internal/core/domain"
)

// =============================================================================
// Store Interface
// =============================================================================

// Store defines the persistence interface for sponsors.
// Sponsors are keyed by name; every write touches exactly one document.
type Store interface {
	// CreateSponsor inserts a new sponsor. Returns ErrDuplicateName if the name is taken.
	CreateSponsor(ctx context.Context, sponsor *domain.Sponsor) error

	// GetSponsorByName returns the sponsor with the exact name, or ErrNotFound.
	GetSponsorByName(ctx context.Context, name string) (*domain.Sponsor, error)

	// Listing operations return an empty slice when nothing matches.
	ListSponsors(ctx context.Context) ([]domain.Sponsor, error)
	ListSponsorsByClass(ctx context.Context, class domain.SponsorClass) ([]domain.Sponsor, error)
	ListSponsorsByDuration(ctx context.Context, duration domain.CoopDuration) ([]domain.Sponsor, error)

	// UpdateSponsor applies a partial update. Returns true only if a stored value changed.
	UpdateSponsor(ctx context.Context, name string, patch domain.SponsorPatch) (bool, error)

	// DeleteSponsorByName removes the sponsor. Returns false if it did not exist.
	DeleteSponsorByName(ctx context.Context, name string) (bool, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}
