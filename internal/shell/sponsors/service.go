// Package sponsors provides the sponsor workflow service.
// This is part of the Imperative Shell - it runs the pure validation rules
// against the store and the URL prober before anything is written.
package sponsors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/artpar/sponsors/internal/core/domain"
	"github.com/artpar/sponsors/internal/core/seed"
	"github.com/artpar/sponsors/internal/core/validation"
	"github.com/artpar/sponsors/internal/shell/probe"
	"github.com/artpar/sponsors/internal/shell/store"
)

// =============================================================================
// Service
// =============================================================================

// Service validates and normalizes sponsor requests and persists the result.
// Validation failures are returned as *domain.SponsorError; store failures are
// returned wrapped and are not SponsorErrors.
type Service struct {
	store  store.Store
	prober probe.Prober
	logger *slog.Logger
}

// NewService creates a new sponsor service.
func NewService(s store.Store, prober probe.Prober, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  s,
		prober: prober,
		logger: logger.With("component", "sponsors"),
	}
}

// =============================================================================
// Create
// =============================================================================

// Create validates a new sponsor and stores it with normalized URLs.
//
// Checks run in order and the first failure is returned:
// required fields, duplicate name, image URL probe, website URL probe,
// co-op duration, sponsor class.
func (s *Service) Create(ctx context.Context, in validation.CreateFields) (*domain.Sponsor, error) {
	if err := validation.ValidateCreateSponsorFields(in); err != nil {
		return nil, s.reject("create", in.Name, err)
	}

	_, err := s.store.GetSponsorByName(ctx, in.Name)
	switch {
	case err == nil:
		return nil, s.reject("create", in.Name, domain.NewDuplicateNameError(nil))
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("checking sponsor name: %w", err)
	}

	imageURL, err := s.probeURL(ctx, domain.FieldImageURL, in.ImageURL)
	if err != nil {
		return nil, s.reject("create", in.Name, err)
	}

	websiteURL, err := s.probeURL(ctx, domain.FieldWebsiteURL, in.WebsiteURL)
	if err != nil {
		return nil, s.reject("create", in.Name, err)
	}

	duration, err := domain.ParseCoopDuration(in.CoopDuration)
	if err != nil {
		return nil, s.reject("create", in.Name, err)
	}

	class, err := domain.ParseSponsorClass(in.SponsorClass)
	if err != nil {
		return nil, s.reject("create", in.Name, err)
	}

	sponsor := domain.NewSponsor(in.Name, duration, imageURL, websiteURL, class)
	if err := s.store.CreateSponsor(ctx, sponsor); err != nil {
		// Lost a race with a concurrent create of the same name
		if errors.Is(err, store.ErrDuplicateName) {
			return nil, s.reject("create", in.Name, domain.NewDuplicateNameError(err))
		}
		return nil, fmt.Errorf("creating sponsor: %w", err)
	}

	s.logger.Info("sponsor created",
		"id", sponsor.ID,
		"name", sponsor.Name,
		"class", sponsor.Class,
		"coop_duration", sponsor.CoopDuration,
	)
	return sponsor, nil
}

// =============================================================================
// Update
// =============================================================================

// Update applies a partial update to an existing sponsor.
// Empty fields are left unchanged. It returns true only if a stored value changed.
//
// Checks run in order: name, existence, something to change, co-op duration,
// sponsor class, image URL probe, website URL probe.
func (s *Service) Update(ctx context.Context, name string, in validation.UpdateFields) (bool, error) {
	if err := validation.ValidateName(name); err != nil {
		return false, s.reject("update", name, err)
	}

	if _, err := s.store.GetSponsorByName(ctx, name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, s.reject("update", name, domain.NewSponsorNotFoundError(err))
		}
		return false, fmt.Errorf("loading sponsor: %w", err)
	}

	if !validation.HasUpdateFields(in) {
		return false, s.reject("update", name, domain.NewNoOpUpdateError())
	}

	duration := validation.ResolveCoopDuration(in.CoopDuration)
	class := validation.ResolveSponsorClass(in.SponsorClass)
	if err := validation.FirstInvalid(duration.Err, class.Err); err != nil {
		return false, s.reject("update", name, err)
	}

	// Probes run one at a time so a bad image URL skips the website probe
	imageURL := s.resolveURL(ctx, domain.FieldImageURL, in.ImageURL)
	if imageURL.State == validation.Invalid {
		return false, s.reject("update", name, imageURL.Err)
	}
	websiteURL := s.resolveURL(ctx, domain.FieldWebsiteURL, in.WebsiteURL)

	patch, err := validation.BuildPatch(duration, class, imageURL, websiteURL)
	if err != nil {
		return false, s.reject("update", name, err)
	}

	modified, err := s.store.UpdateSponsor(ctx, name, patch)
	if err != nil {
		return false, fmt.Errorf("updating sponsor: %w", err)
	}

	s.logger.Info("sponsor updated", "name", name, "modified", modified)
	return modified, nil
}

// =============================================================================
// Lookups
// =============================================================================

// FindByName returns the sponsor with the exact name. found is false when
// no such sponsor exists.
func (s *Service) FindByName(ctx context.Context, name string) (*domain.Sponsor, bool, error) {
	if err := validation.ValidateName(name); err != nil {
		return nil, false, s.reject("find", name, err)
	}

	sponsor, err := s.store.GetSponsorByName(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("finding sponsor: %w", err)
	}
	return sponsor, true, nil
}

// FindAll returns every sponsor ordered by name.
func (s *Service) FindAll(ctx context.Context) ([]domain.Sponsor, error) {
	sponsors, err := s.store.ListSponsors(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sponsors: %w", err)
	}
	return sponsors, nil
}

// FindByClass returns the sponsors of one class.
// An unknown class fails without touching the store.
func (s *Service) FindByClass(ctx context.Context, raw string) ([]domain.Sponsor, error) {
	class, err := domain.ParseSponsorClass(raw)
	if err != nil {
		return nil, s.reject("find_by_class", raw, err)
	}

	sponsors, err := s.store.ListSponsorsByClass(ctx, class)
	if err != nil {
		return nil, fmt.Errorf("listing sponsors by class: %w", err)
	}
	return sponsors, nil
}

// FindByDuration returns the sponsors with one co-op duration.
// An unknown duration fails without touching the store.
func (s *Service) FindByDuration(ctx context.Context, raw string) ([]domain.Sponsor, error) {
	duration, err := domain.ParseCoopDuration(raw)
	if err != nil {
		return nil, s.reject("find_by_duration", raw, err)
	}

	sponsors, err := s.store.ListSponsorsByDuration(ctx, duration)
	if err != nil {
		return nil, fmt.Errorf("listing sponsors by duration: %w", err)
	}
	return sponsors, nil
}

// =============================================================================
// Delete
// =============================================================================

// Delete removes a sponsor by name. It returns false when nothing was removed.
func (s *Service) Delete(ctx context.Context, name string) (bool, error) {
	if err := validation.ValidateName(name); err != nil {
		return false, s.reject("delete", name, err)
	}

	deleted, err := s.store.DeleteSponsorByName(ctx, name)
	if err != nil {
		return false, fmt.Errorf("deleting sponsor: %w", err)
	}

	if deleted {
		s.logger.Info("sponsor deleted", "name", name)
	}
	return deleted, nil
}

// =============================================================================
// Seeding
// =============================================================================

// SeedRejection records a seed entry that failed validation.
type SeedRejection struct {
	Name string
	Err  error
}

// SeedReport summarizes a seeding run.
type SeedReport struct {
	Created  []string
	Skipped  []string // already present
	Rejected []SeedRejection
}

// Seed creates each entry through the regular create workflow.
// Existing names are skipped and invalid entries are reported; only store
// failures abort the run.
func (s *Service) Seed(ctx context.Context, entries []seed.Entry) (SeedReport, error) {
	var report SeedReport

	for _, entry := range entries {
		_, err := s.Create(ctx, entry.Fields())
		if err == nil {
			report.Created = append(report.Created, entry.Name)
			continue
		}

		if errors.Is(err, domain.ErrDuplicateKey) {
			report.Skipped = append(report.Skipped, entry.Name)
			continue
		}
		if _, ok := domain.AsSponsorError(err); ok {
			s.logger.Warn("seed entry rejected", "name", entry.Name, "error", err)
			report.Rejected = append(report.Rejected, SeedRejection{Name: entry.Name, Err: err})
			continue
		}
		return report, fmt.Errorf("seeding %q: %w", entry.Name, err)
	}

	s.logger.Info("seeding complete",
		"created", len(report.Created),
		"skipped", len(report.Skipped),
		"rejected", len(report.Rejected),
	)
	return report, nil
}

// =============================================================================
// Helpers
// =============================================================================

// probeURL checks a URL and returns its normalized form.
func (s *Service) probeURL(ctx context.Context, field domain.Field, raw string) (string, error) {
	result, err := s.prober.Probe(ctx, raw)
	if err != nil {
		return "", domain.NewURLFormatError(field, err)
	}
	if !result.Reachable {
		return "", domain.NewURLUnreachableError(field)
	}
	return result.URL, nil
}

// resolveURL resolves an optional URL input for update.
func (s *Service) resolveURL(ctx context.Context, field domain.Field, raw string) validation.Change[string] {
	if raw == "" {
		return validation.Keep[string]()
	}
	normalized, err := s.probeURL(ctx, field, raw)
	if err != nil {
		return validation.Reject[string](err)
	}
	return validation.Set(normalized)
}

// reject logs a validation failure and returns it unchanged.
func (s *Service) reject(op, name string, err error) error {
	attrs := []any{"op", op, "name", name, "error", err}
	if sErr, ok := domain.AsSponsorError(err); ok {
		attrs = append(attrs, "kind", sErr.Kind.String(), "field", string(sErr.Field))
	}
	s.logger.Debug("sponsor request rejected", attrs...)
	return err
}
