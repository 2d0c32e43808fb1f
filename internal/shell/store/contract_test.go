package store

import (
	"context"
	"testing"

	"github.com/artpar/sponsors/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Shared Store Behaviour
// =============================================================================

// runStoreTests exercises the Store contract against any backend.
func runStoreTests(t *testing.T, setup func(t *testing.T) Store) {
	t.Run("CreateAndGet", func(t *testing.T) {
		store := setup(t)
		ctx := context.Background()

		sponsor := newTestSponsor("Acme", domain.CoopDurationFullYear, domain.SponsorClassGold)
		require.NoError(t, store.CreateSponsor(ctx, sponsor))

		got, err := store.GetSponsorByName(ctx, "Acme")
		require.NoError(t, err)
		assert.Equal(t, sponsor.ID, got.ID)
		assert.Equal(t, "Acme", got.Name)
		assert.Equal(t, domain.CoopDurationFullYear, got.CoopDuration)
		assert.Equal(t, domain.SponsorClassGold, got.Class)
		assert.Equal(t, sponsor.ImageURL, got.ImageURL)
		assert.Equal(t, sponsor.WebsiteURL, got.WebsiteURL)
		assert.False(t, got.CreatedAt.IsZero())
	})

	t.Run("CreateDuplicateName", func(t *testing.T) {
		store := setup(t)
		ctx := context.Background()

		require.NoError(t, store.CreateSponsor(ctx, newTestSponsor("Acme", domain.CoopDurationFullYear, domain.SponsorClassGold)))

		err := store.CreateSponsor(ctx, newTestSponsor("Acme", domain.CoopDurationQuarterYear, domain.SponsorClassSilver))
		assert.ErrorIs(t, err, ErrDuplicateName)

		got, err := store.GetSponsorByName(ctx, "Acme")
		require.NoError(t, err)
		assert.Equal(t, domain.SponsorClassGold, got.Class, "first record is untouched")
	})

	t.Run("NamesAreCaseSensitive", func(t *testing.T) {
		store := setup(t)
		ctx := context.Background()

		require.NoError(t, store.CreateSponsor(ctx, newTestSponsor("Acme", domain.CoopDurationFullYear, domain.SponsorClassGold)))
		require.NoError(t, store.CreateSponsor(ctx, newTestSponsor("acme", domain.CoopDurationFullYear, domain.SponsorClassGold)))

		_, err := store.GetSponsorByName(ctx, "ACME")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("GetNotFound", func(t *testing.T) {
		store := setup(t)

		_, err := store.GetSponsorByName(context.Background(), "nobody")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("ListFilters", func(t *testing.T) {
		store := setup(t)
		ctx := context.Background()

		require.NoError(t, store.CreateSponsor(ctx, newTestSponsor("Beta", domain.CoopDurationFullYear, domain.SponsorClassGold)))
		require.NoError(t, store.CreateSponsor(ctx, newTestSponsor("Alpha", domain.CoopDurationQuarterYear, domain.SponsorClassGold)))
		require.NoError(t, store.CreateSponsor(ctx, newTestSponsor("Gamma", domain.CoopDurationFullYear, domain.SponsorClassPlatinum)))

		all, err := store.ListSponsors(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, sponsorNames(all))

		gold, err := store.ListSponsorsByClass(ctx, domain.SponsorClassGold)
		require.NoError(t, err)
		assert.Equal(t, []string{"Alpha", "Beta"}, sponsorNames(gold))

		fullYear, err := store.ListSponsorsByDuration(ctx, domain.CoopDurationFullYear)
		require.NoError(t, err)
		assert.Equal(t, []string{"Beta", "Gamma"}, sponsorNames(fullYear))

		silver, err := store.ListSponsorsByClass(ctx, domain.SponsorClassSilver)
		require.NoError(t, err)
		assert.NotNil(t, silver)
		assert.Empty(t, silver)
	})

	t.Run("UpdateModifies", func(t *testing.T) {
		store := setup(t)
		ctx := context.Background()

		require.NoError(t, store.CreateSponsor(ctx, newTestSponsor("Acme", domain.CoopDurationFullYear, domain.SponsorClassGold)))

		class := domain.SponsorClassPlatinum
		website := "https://new.acme.test"
		modified, err := store.UpdateSponsor(ctx, "Acme", domain.SponsorPatch{Class: &class, WebsiteURL: &website})
		require.NoError(t, err)
		assert.True(t, modified)

		got, err := store.GetSponsorByName(ctx, "Acme")
		require.NoError(t, err)
		assert.Equal(t, domain.SponsorClassPlatinum, got.Class)
		assert.Equal(t, "https://new.acme.test", got.WebsiteURL)
		assert.Equal(t, domain.CoopDurationFullYear, got.CoopDuration, "unset fields are kept")
		assert.Equal(t, "https://acme.test/logo.png", got.ImageURL)

		platinum, err := store.ListSponsorsByClass(ctx, domain.SponsorClassPlatinum)
		require.NoError(t, err)
		assert.Equal(t, []string{"Acme"}, sponsorNames(platinum))

		gold, err := store.ListSponsorsByClass(ctx, domain.SponsorClassGold)
		require.NoError(t, err)
		assert.Empty(t, gold)
	})

	t.Run("UpdateSameValuesIsNotModified", func(t *testing.T) {
		store := setup(t)
		ctx := context.Background()

		require.NoError(t, store.CreateSponsor(ctx, newTestSponsor("Acme", domain.CoopDurationFullYear, domain.SponsorClassGold)))

		class := domain.SponsorClassGold
		modified, err := store.UpdateSponsor(ctx, "Acme", domain.SponsorPatch{Class: &class})
		require.NoError(t, err)
		assert.False(t, modified)
	})

	t.Run("UpdateMissingIsNotModified", func(t *testing.T) {
		store := setup(t)

		class := domain.SponsorClassGold
		modified, err := store.UpdateSponsor(context.Background(), "nobody", domain.SponsorPatch{Class: &class})
		require.NoError(t, err)
		assert.False(t, modified)
	})

	t.Run("UpdateEmptyPatch", func(t *testing.T) {
		store := setup(t)
		ctx := context.Background()

		require.NoError(t, store.CreateSponsor(ctx, newTestSponsor("Acme", domain.CoopDurationFullYear, domain.SponsorClassGold)))

		modified, err := store.UpdateSponsor(ctx, "Acme", domain.SponsorPatch{})
		require.NoError(t, err)
		assert.False(t, modified)
	})

	t.Run("Delete", func(t *testing.T) {
		store := setup(t)
		ctx := context.Background()

		require.NoError(t, store.CreateSponsor(ctx, newTestSponsor("Acme", domain.CoopDurationFullYear, domain.SponsorClassGold)))

		deleted, err := store.DeleteSponsorByName(ctx, "Acme")
		require.NoError(t, err)
		assert.True(t, deleted)

		_, err = store.GetSponsorByName(ctx, "Acme")
		assert.ErrorIs(t, err, ErrNotFound)

		deleted, err = store.DeleteSponsorByName(ctx, "Acme")
		require.NoError(t, err)
		assert.False(t, deleted)

		// Name can be reused after delete
		require.NoError(t, store.CreateSponsor(ctx, newTestSponsor("Acme", domain.CoopDurationQuarterYear, domain.SponsorClassSilver)))
	})

	t.Run("Ping", func(t *testing.T) {
		store := setup(t)
		assert.NoError(t, store.Ping(context.Background()))
	})
}

// =============================================================================
// Test Helpers
// =============================================================================

func newTestSponsor(name string, duration domain.CoopDuration, class domain.SponsorClass) *domain.Sponsor {
	return domain.NewSponsor(name, duration, "https://acme.test/logo.png", "https://acme.test", class)
}

func sponsorNames(sponsors []domain.Sponsor) []string {
	names := make([]string, 0, len(sponsors))
	for _, s := range sponsors {
		names = append(names, s.Name)
	}
	return names
}
