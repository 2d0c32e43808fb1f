package sponsors

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/artpar/sponsors/internal/core/domain"
	"github.com/artpar/sponsors/internal/core/seed"
	"github.com/artpar/sponsors/internal/core/validation"
	"github.com/artpar/sponsors/internal/shell/probe"
	"github.com/artpar/sponsors/internal/shell/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Helpers
// =============================================================================

// recordingStore wraps a real SQLite store and records which methods are called.
type recordingStore struct {
	store.Store

	mu    sync.Mutex
	calls []string

	createErr error
	getErr    error
	updateErr error
}

func (r *recordingStore) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
}

func (r *recordingStore) called(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (r *recordingStore) writes() int {
	return r.called("CreateSponsor") + r.called("UpdateSponsor") + r.called("DeleteSponsorByName")
}

func (r *recordingStore) reads() int {
	return r.called("GetSponsorByName") + r.called("ListSponsors") +
		r.called("ListSponsorsByClass") + r.called("ListSponsorsByDuration")
}

func (r *recordingStore) CreateSponsor(ctx context.Context, s *domain.Sponsor) error {
	r.record("CreateSponsor")
	if r.createErr != nil {
		return r.createErr
	}
	return r.Store.CreateSponsor(ctx, s)
}

func (r *recordingStore) GetSponsorByName(ctx context.Context, name string) (*domain.Sponsor, error) {
	r.record("GetSponsorByName")
	if r.getErr != nil {
		return nil, r.getErr
	}
	return r.Store.GetSponsorByName(ctx, name)
}

func (r *recordingStore) ListSponsors(ctx context.Context) ([]domain.Sponsor, error) {
	r.record("ListSponsors")
	return r.Store.ListSponsors(ctx)
}

func (r *recordingStore) ListSponsorsByClass(ctx context.Context, c domain.SponsorClass) ([]domain.Sponsor, error) {
	r.record("ListSponsorsByClass")
	return r.Store.ListSponsorsByClass(ctx, c)
}

func (r *recordingStore) ListSponsorsByDuration(ctx context.Context, d domain.CoopDuration) ([]domain.Sponsor, error) {
	r.record("ListSponsorsByDuration")
	return r.Store.ListSponsorsByDuration(ctx, d)
}

func (r *recordingStore) UpdateSponsor(ctx context.Context, name string, p domain.SponsorPatch) (bool, error) {
	r.record("UpdateSponsor")
	if r.updateErr != nil {
		return false, r.updateErr
	}
	return r.Store.UpdateSponsor(ctx, name, p)
}

func (r *recordingStore) DeleteSponsorByName(ctx context.Context, name string) (bool, error) {
	r.record("DeleteSponsorByName")
	return r.Store.DeleteSponsorByName(ctx, name)
}

// fakeProber normalizes URLs and reports them reachable unless told otherwise.
type fakeProber struct {
	mu          sync.Mutex
	probed      []string
	unreachable map[string]bool
	failing     map[string]error
}

func newFakeProber() *fakeProber {
	return &fakeProber{
		unreachable: map[string]bool{},
		failing:     map[string]error{},
	}
}

func (f *fakeProber) Probe(_ context.Context, rawURL string) (probe.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probed = append(f.probed, rawURL)

	normalized := domain.NormalizeURL(rawURL)
	if err, ok := f.failing[rawURL]; ok {
		return probe.Result{URL: normalized}, err
	}
	return probe.Result{Reachable: !f.unreachable[rawURL], URL: normalized}, nil
}

func (f *fakeProber) probedURLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.probed...)
}

func setupService(t *testing.T) (*Service, *recordingStore, *fakeProber) {
	t.Helper()
	sqlite, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	rec := &recordingStore{Store: sqlite}
	prober := newFakeProber()
	return NewService(rec, prober, nil), rec, prober
}

func acmeFields() validation.CreateFields {
	return validation.CreateFields{
		Name:         "Acme",
		CoopDuration: "FULL_YEAR",
		ImageURL:     "acme.test/logo.png",
		WebsiteURL:   "acme.test",
		SponsorClass: "GOLD",
	}
}

func createAcme(t *testing.T, svc *Service) *domain.Sponsor {
	t.Helper()
	sponsor, err := svc.Create(context.Background(), acmeFields())
	require.NoError(t, err)
	return sponsor
}

// =============================================================================
// Create Tests
// =============================================================================

func TestCreate_NormalizesURLs(t *testing.T) {
	svc, _, _ := setupService(t)

	sponsor := createAcme(t, svc)

	assert.Equal(t, "https://acme.test/logo.png", sponsor.ImageURL)
	assert.Equal(t, "https://acme.test", sponsor.WebsiteURL)
	assert.Equal(t, domain.CoopDurationFullYear, sponsor.CoopDuration)
	assert.Equal(t, domain.SponsorClassGold, sponsor.Class)
}

func TestCreate_KeepsExplicitHTTPScheme(t *testing.T) {
	svc, _, _ := setupService(t)

	in := acmeFields()
	in.WebsiteURL = "http://acme.test"
	sponsor, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "http://acme.test", sponsor.WebsiteURL)
}

func TestCreate_RoundTrip(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	createAcme(t, svc)

	got, found, err := svc.FindByName(ctx, "Acme")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "https://acme.test/logo.png", got.ImageURL)
	assert.Equal(t, "https://acme.test", got.WebsiteURL)
	assert.Equal(t, domain.SponsorClassGold, got.Class)
	assert.Equal(t, domain.CoopDurationFullYear, got.CoopDuration)
}

func TestCreate_MissingFieldFailsBeforeAnyIO(t *testing.T) {
	svc, rec, prober := setupService(t)

	in := acmeFields()
	in.WebsiteURL = ""
	_, err := svc.Create(context.Background(), in)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingField)
	assert.Equal(t, "sponsor website url cannot be empty", err.Error())
	assert.Zero(t, rec.reads())
	assert.Zero(t, rec.writes())
	assert.Empty(t, prober.probedURLs())
}

func TestCreate_DuplicateNameLeavesFirstIntact(t *testing.T) {
	svc, rec, prober := setupService(t)
	ctx := context.Background()

	createAcme(t, svc)
	probesBefore := len(prober.probedURLs())

	in := acmeFields()
	in.SponsorClass = "SILVER"
	_, err := svc.Create(ctx, in)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDuplicateKey)
	assert.Equal(t, "sponsor name already exists", err.Error())
	assert.Equal(t, 1, rec.called("CreateSponsor"))
	assert.Len(t, prober.probedURLs(), probesBefore, "duplicate check precedes probing")

	got, _, err := svc.FindByName(ctx, "Acme")
	require.NoError(t, err)
	assert.Equal(t, domain.SponsorClassGold, got.Class)
}

func TestCreate_StoreDuplicateRaceIsDuplicateKey(t *testing.T) {
	svc, rec, _ := setupService(t)
	rec.createErr = store.NewStoreError("CreateSponsor", "sponsor", "Acme", "taken", store.ErrDuplicateName)

	_, err := svc.Create(context.Background(), acmeFields())

	assert.ErrorIs(t, err, domain.ErrDuplicateKey)
	assert.ErrorIs(t, err, store.ErrDuplicateName)
}

func TestCreate_ImageUnreachable(t *testing.T) {
	svc, rec, prober := setupService(t)
	prober.unreachable["acme.test/logo.png"] = true

	_, err := svc.Create(context.Background(), acmeFields())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrURLUnreachable)
	assert.Equal(t, "sponsor image url connection failed", err.Error())
	assert.Zero(t, rec.writes())
	assert.Equal(t, []string{"acme.test/logo.png"}, prober.probedURLs(), "website is not probed")
}

func TestCreate_WebsiteProbeErrorIsFormatError(t *testing.T) {
	svc, rec, prober := setupService(t)
	refused := errors.New("dial tcp 127.0.0.1:1: connect: connection refused")
	prober.failing["acme.test"] = refused

	_, err := svc.Create(context.Background(), acmeFields())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrURLFormat)
	assert.ErrorIs(t, err, refused)
	assert.Equal(t, "sponsor website url format error", err.Error())
	assert.Zero(t, rec.writes())
}

func TestCreate_InvalidEnumsAreCheckedAfterProbes(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*validation.CreateFields)
		wantField domain.Field
	}{
		{"duration", func(f *validation.CreateFields) { f.CoopDuration = "HALF_YEAR" }, domain.FieldCoopDuration},
		{"class", func(f *validation.CreateFields) { f.SponsorClass = "BRONZE" }, domain.FieldSponsorClass},
		{"both reports duration", func(f *validation.CreateFields) {
			f.CoopDuration = "HALF_YEAR"
			f.SponsorClass = "BRONZE"
		}, domain.FieldCoopDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, rec, prober := setupService(t)
			in := acmeFields()
			tt.mutate(&in)

			_, err := svc.Create(context.Background(), in)

			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidEnumValue)
			sErr, ok := domain.AsSponsorError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantField, sErr.Field)
			assert.Len(t, prober.probedURLs(), 2)
			assert.Zero(t, rec.writes())
		})
	}
}

func TestCreate_StoreFailureIsNotSponsorError(t *testing.T) {
	svc, rec, _ := setupService(t)
	rec.getErr = errors.New("disk on fire")

	_, err := svc.Create(context.Background(), acmeFields())

	require.Error(t, err)
	_, ok := domain.AsSponsorError(err)
	assert.False(t, ok)
	assert.ErrorIs(t, err, rec.getErr)
}

// =============================================================================
// Update Tests
// =============================================================================

func TestUpdate_ModifiesFields(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()
	createAcme(t, svc)

	modified, err := svc.Update(ctx, "Acme", validation.UpdateFields{
		SponsorClass: "PLATINUM",
		WebsiteURL:   "www.acme.test",
	})
	require.NoError(t, err)
	assert.True(t, modified)

	got, _, err := svc.FindByName(ctx, "Acme")
	require.NoError(t, err)
	assert.Equal(t, domain.SponsorClassPlatinum, got.Class)
	assert.Equal(t, "https://www.acme.test", got.WebsiteURL)
	assert.Equal(t, domain.CoopDurationFullYear, got.CoopDuration)
	assert.Equal(t, "https://acme.test/logo.png", got.ImageURL)
}

func TestUpdate_SameValuesReportsNotModified(t *testing.T) {
	svc, rec, _ := setupService(t)
	createAcme(t, svc)

	modified, err := svc.Update(context.Background(), "Acme", validation.UpdateFields{SponsorClass: "GOLD"})

	require.NoError(t, err)
	assert.False(t, modified)
	assert.Equal(t, 1, rec.called("UpdateSponsor"))
}

func TestUpdate_EmptyName(t *testing.T) {
	svc, rec, _ := setupService(t)

	_, err := svc.Update(context.Background(), "", validation.UpdateFields{SponsorClass: "GOLD"})

	assert.ErrorIs(t, err, domain.ErrMissingField)
	assert.Zero(t, rec.reads())
}

func TestUpdate_MissingSponsor(t *testing.T) {
	svc, rec, _ := setupService(t)

	_, err := svc.Update(context.Background(), "Nobody", validation.UpdateFields{SponsorClass: "GOLD"})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "sponsor does not exist", err.Error())
	assert.Zero(t, rec.writes())
}

func TestUpdate_NothingToChangePerformsNoWrite(t *testing.T) {
	svc, rec, prober := setupService(t)
	createAcme(t, svc)
	writes := rec.writes()
	probes := len(prober.probedURLs())

	_, err := svc.Update(context.Background(), "Acme", validation.UpdateFields{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoOpUpdate)
	assert.Equal(t, "nothing to be changed", err.Error())
	assert.Equal(t, writes, rec.writes())
	assert.Len(t, prober.probedURLs(), probes)
}

func TestUpdate_InvalidDurationFailsBeforeWrite(t *testing.T) {
	svc, rec, prober := setupService(t)
	createAcme(t, svc)
	probes := len(prober.probedURLs())

	_, err := svc.Update(context.Background(), "Acme", validation.UpdateFields{
		CoopDuration: "HALF_YEAR",
		ImageURL:     "new.acme.test/logo.png",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidEnumValue)
	assert.Equal(t, "coop duration is not valid", err.Error())
	assert.Zero(t, rec.called("UpdateSponsor"))
	assert.Len(t, prober.probedURLs(), probes, "enums are checked before probing")
}

func TestUpdate_InvalidClass(t *testing.T) {
	svc, rec, _ := setupService(t)
	createAcme(t, svc)

	_, err := svc.Update(context.Background(), "Acme", validation.UpdateFields{SponsorClass: "BRONZE"})

	assert.ErrorIs(t, err, domain.ErrInvalidEnumValue)
	assert.Zero(t, rec.called("UpdateSponsor"))
}

func TestUpdate_ImageNotFoundIsUnreachable(t *testing.T) {
	svc, rec, prober := setupService(t)
	createAcme(t, svc)
	prober.unreachable["acme.test/missing.png"] = true

	_, err := svc.Update(context.Background(), "Acme", validation.UpdateFields{
		ImageURL:   "acme.test/missing.png",
		WebsiteURL: "other.acme.test",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrURLUnreachable)
	assert.Zero(t, rec.called("UpdateSponsor"))
	assert.NotContains(t, prober.probedURLs(), "other.acme.test")
}

func TestUpdate_WebsiteRefusedIsFormatError(t *testing.T) {
	svc, rec, prober := setupService(t)
	createAcme(t, svc)
	prober.failing["down.acme.test"] = errors.New("connection refused")

	_, err := svc.Update(context.Background(), "Acme", validation.UpdateFields{WebsiteURL: "down.acme.test"})

	assert.ErrorIs(t, err, domain.ErrURLFormat)
	assert.Zero(t, rec.called("UpdateSponsor"))
}

func TestUpdate_StoreFailure(t *testing.T) {
	svc, rec, _ := setupService(t)
	createAcme(t, svc)
	rec.updateErr = errors.New("write failed")

	_, err := svc.Update(context.Background(), "Acme", validation.UpdateFields{SponsorClass: "SILVER"})

	assert.ErrorIs(t, err, rec.updateErr)
	_, ok := domain.AsSponsorError(err)
	assert.False(t, ok)
}

// =============================================================================
// Lookup Tests
// =============================================================================

func TestFindByName(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()
	createAcme(t, svc)

	_, found, err := svc.FindByName(ctx, "Nobody")
	require.NoError(t, err)
	assert.False(t, found)

	_, _, err = svc.FindByName(ctx, "")
	assert.ErrorIs(t, err, domain.ErrMissingField)
}

func TestFindByClass_InvalidNeverTouchesStore(t *testing.T) {
	svc, rec, _ := setupService(t)

	_, err := svc.FindByClass(context.Background(), "BRONZE")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidEnumValue)
	assert.Equal(t, "sponsor class is not valid", err.Error())
	assert.Zero(t, rec.reads())
}

func TestFindByDuration_InvalidNeverTouchesStore(t *testing.T) {
	svc, rec, _ := setupService(t)

	_, err := svc.FindByDuration(context.Background(), "HALF_YEAR")

	assert.ErrorIs(t, err, domain.ErrInvalidEnumValue)
	assert.Zero(t, rec.reads())
}

func TestFindFilters(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()
	createAcme(t, svc)

	in := acmeFields()
	in.Name = "Bolt"
	in.CoopDuration = "QUARTER_YEAR"
	_, err := svc.Create(ctx, in)
	require.NoError(t, err)

	gold, err := svc.FindByClass(ctx, "GOLD")
	require.NoError(t, err)
	assert.Len(t, gold, 2)

	silver, err := svc.FindByClass(ctx, "SILVER")
	require.NoError(t, err)
	assert.Empty(t, silver)

	quarter, err := svc.FindByDuration(ctx, "QUARTER_YEAR")
	require.NoError(t, err)
	require.Len(t, quarter, 1)
	assert.Equal(t, "Bolt", quarter[0].Name)

	all, err := svc.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

// =============================================================================
// Delete Tests
// =============================================================================

func TestDelete(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()
	createAcme(t, svc)

	deleted, err := svc.Delete(ctx, "Acme")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = svc.Delete(ctx, "Acme")
	require.NoError(t, err)
	assert.False(t, deleted, "deleting a missing name is not an error")

	_, err = svc.Delete(ctx, "")
	assert.ErrorIs(t, err, domain.ErrMissingField)
}

// =============================================================================
// Seed Tests
// =============================================================================

func TestSeed(t *testing.T) {
	svc, _, prober := setupService(t)
	ctx := context.Background()
	createAcme(t, svc)
	prober.unreachable["gone.test"] = true

	entries := []seed.Entry{
		{Name: "Acme", CoopDuration: "FULL_YEAR", ImageURL: "acme.test/logo.png", WebsiteURL: "acme.test", SponsorClass: "GOLD"},
		{Name: "Bolt", CoopDuration: "QUARTER_YEAR", ImageURL: "bolt.test/logo.png", WebsiteURL: "bolt.test", SponsorClass: "SILVER"},
		{Name: "Gone", CoopDuration: "FULL_YEAR", ImageURL: "gone.test", WebsiteURL: "gone.test", SponsorClass: "GOLD"},
	}

	report, err := svc.Seed(ctx, entries)
	require.NoError(t, err)

	assert.Equal(t, []string{"Bolt"}, report.Created)
	assert.Equal(t, []string{"Acme"}, report.Skipped)
	require.Len(t, report.Rejected, 1)
	assert.Equal(t, "Gone", report.Rejected[0].Name)
	assert.ErrorIs(t, report.Rejected[0].Err, domain.ErrURLUnreachable)
}

func TestSeed_StoreFailureAborts(t *testing.T) {
	svc, rec, _ := setupService(t)
	rec.getErr = errors.New("disk on fire")

	_, err := svc.Seed(context.Background(), []seed.Entry{
		{Name: "Acme", CoopDuration: "FULL_YEAR", ImageURL: "a.test", WebsiteURL: "a.test", SponsorClass: "GOLD"},
	})

	assert.ErrorIs(t, err, rec.getErr)
}
