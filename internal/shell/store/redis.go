package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/artpar/sponsors/internal/core/domain"
	"github.com/redis/go-redis/v9"
)

// maxTxRetries bounds optimistic-lock retries for WATCH transactions.
const maxTxRetries = 5

// =============================================================================
// RedisStore
// =============================================================================

// RedisStore implements Store on Redis hashes.
//
// Layout (prefix defaults to "sponsors"):
//
//	<prefix>:sponsor:<name>      hash with the sponsor document
//	<prefix>:names               set of all sponsor names
//	<prefix>:class:<CLASS>       set of names per sponsor class
//	<prefix>:duration:<DURATION> set of names per co-op duration
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix sets the key namespace.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if p := strings.Trim(prefix, ":"); p != "" {
			s.prefix = p
		}
	}
}

// NewRedisStore creates a store on an existing client and checks connectivity.
func NewRedisStore(ctx context.Context, rdb *redis.Client, opts ...RedisOption) (*RedisStore, error) {
	s := &RedisStore{
		rdb:    rdb,
		prefix: "sponsors",
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.Ping(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *RedisStore) sponsorKey(name string) string {
	return s.prefix + ":sponsor:" + name
}

func (s *RedisStore) namesKey() string {
	return s.prefix + ":names"
}

func (s *RedisStore) classKey(class domain.SponsorClass) string {
	return s.prefix + ":class:" + string(class)
}

func (s *RedisStore) durationKey(duration domain.CoopDuration) string {
	return s.prefix + ":duration:" + string(duration)
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return NewStoreError("Ping", "", "", err.Error(), ErrConnectionFailed)
	}
	return nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// =============================================================================
// Sponsor Operations
// =============================================================================

// CreateSponsor writes the document, the name and both index entries in one
// MULTI. The sponsor hash decides uniqueness, so a name left in the names set
// without a document does not block a new create.
func (s *RedisStore) CreateSponsor(ctx context.Context, sponsor *domain.Sponsor) error {
	key := s.sponsorKey(sponsor.Name)

	txf := func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if exists > 0 {
			return ErrDuplicateName
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, sponsorToHash(sponsor))
			pipe.SAdd(ctx, s.namesKey(), sponsor.Name)
			pipe.SAdd(ctx, s.classKey(sponsor.Class), sponsor.Name)
			pipe.SAdd(ctx, s.durationKey(sponsor.CoopDuration), sponsor.Name)
			return nil
		})
		return err
	}

	if err := s.watch(ctx, txf, key); err != nil {
		if errors.Is(err, ErrDuplicateName) {
			return NewStoreError("CreateSponsor", "sponsor", sponsor.Name, "sponsor with this name already exists", ErrDuplicateName)
		}
		return NewStoreError("CreateSponsor", "sponsor", sponsor.Name, err.Error(), err)
	}
	return nil
}

func (s *RedisStore) GetSponsorByName(ctx context.Context, name string) (*domain.Sponsor, error) {
	fields, err := s.rdb.HGetAll(ctx, s.sponsorKey(name)).Result()
	if err != nil {
		return nil, NewStoreError("GetSponsorByName", "sponsor", name, err.Error(), err)
	}
	if len(fields) == 0 {
		return nil, NewStoreError("GetSponsorByName", "sponsor", name, "sponsor not found", ErrNotFound)
	}
	return hashToSponsor(fields)
}

func (s *RedisStore) ListSponsors(ctx context.Context) ([]domain.Sponsor, error) {
	return s.listByIndex(ctx, "ListSponsors", s.namesKey())
}

func (s *RedisStore) ListSponsorsByClass(ctx context.Context, class domain.SponsorClass) ([]domain.Sponsor, error) {
	return s.listByIndex(ctx, "ListSponsorsByClass", s.classKey(class))
}

func (s *RedisStore) ListSponsorsByDuration(ctx context.Context, duration domain.CoopDuration) ([]domain.Sponsor, error) {
	return s.listByIndex(ctx, "ListSponsorsByDuration", s.durationKey(duration))
}

// listByIndex loads every sponsor named in an index set, ordered by name.
func (s *RedisStore) listByIndex(ctx context.Context, op, indexKey string) ([]domain.Sponsor, error) {
	names, err := s.rdb.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, NewStoreError(op, "sponsor", "", err.Error(), err)
	}
	sort.Strings(names)

	sponsors := make([]domain.Sponsor, 0, len(names))
	if len(names) == 0 {
		return sponsors, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(names))
	_, err = s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, name := range names {
			cmds[i] = pipe.HGetAll(ctx, s.sponsorKey(name))
		}
		return nil
	})
	if err != nil {
		return nil, NewStoreError(op, "sponsor", "", err.Error(), err)
	}

	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			// Deleted between SMEMBERS and HGETALL
			continue
		}
		sponsor, err := hashToSponsor(fields)
		if err != nil {
			return nil, err
		}
		sponsors = append(sponsors, *sponsor)
	}

	return sponsors, nil
}

func (s *RedisStore) UpdateSponsor(ctx context.Context, name string, patch domain.SponsorPatch) (bool, error) {
	if patch.IsEmpty() {
		return false, nil
	}

	key := s.sponsorKey(name)
	modified := false

	txf := func(tx *redis.Tx) error {
		modified = false

		fields, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		if len(fields) == 0 {
			return nil
		}
		current, err := hashToSponsor(fields)
		if err != nil {
			return err
		}
		if !patch.Differs(*current) {
			return nil
		}

		updated := *current
		updated.Apply(patch)
		updated.UpdatedAt = time.Now().UTC()

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, sponsorToHash(&updated))
			if updated.Class != current.Class {
				pipe.SRem(ctx, s.classKey(current.Class), name)
				pipe.SAdd(ctx, s.classKey(updated.Class), name)
			}
			if updated.CoopDuration != current.CoopDuration {
				pipe.SRem(ctx, s.durationKey(current.CoopDuration), name)
				pipe.SAdd(ctx, s.durationKey(updated.CoopDuration), name)
			}
			return nil
		})
		if err != nil {
			return err
		}
		modified = true
		return nil
	}

	if err := s.watch(ctx, txf, key); err != nil {
		return false, NewStoreError("UpdateSponsor", "sponsor", name, err.Error(), err)
	}
	return modified, nil
}

func (s *RedisStore) DeleteSponsorByName(ctx context.Context, name string) (bool, error) {
	key := s.sponsorKey(name)
	deleted := false

	txf := func(tx *redis.Tx) error {
		deleted = false

		fields, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		if len(fields) == 0 {
			// Drop a name whose document never got written
			return tx.SRem(ctx, s.namesKey(), name).Err()
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.SRem(ctx, s.namesKey(), name)
			pipe.SRem(ctx, s.classKey(domain.SponsorClass(fields["sponsor_class"])), name)
			pipe.SRem(ctx, s.durationKey(domain.CoopDuration(fields["coop_duration"])), name)
			return nil
		})
		if err != nil {
			return err
		}
		deleted = true
		return nil
	}

	if err := s.watch(ctx, txf, key); err != nil {
		return false, NewStoreError("DeleteSponsorByName", "sponsor", name, err.Error(), err)
	}
	return deleted, nil
}

// watch runs txf under WATCH, retrying when another client wins the race.
func (s *RedisStore) watch(ctx context.Context, txf func(*redis.Tx) error, keys ...string) error {
	var err error
	for i := 0; i < maxTxRetries; i++ {
		err = s.rdb.Watch(ctx, txf, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return err
}

// =============================================================================
// Hash Conversion
// =============================================================================

func sponsorToHash(sponsor *domain.Sponsor) map[string]any {
	return map[string]any{
		"id":            sponsor.ID,
		"name":          sponsor.Name,
		"coop_duration": string(sponsor.CoopDuration),
		"image_url":     sponsor.ImageURL,
		"website_url":   sponsor.WebsiteURL,
		"sponsor_class": string(sponsor.Class),
		"created_at":    sponsor.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":    sponsor.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func hashToSponsor(fields map[string]string) (*domain.Sponsor, error) {
	name := fields["name"]
	duration, err := domain.ParseCoopDuration(fields["coop_duration"])
	if err != nil {
		return nil, NewStoreError("hashToSponsor", "sponsor", name, "failed to parse coop duration", ErrInvalidData)
	}
	class, err := domain.ParseSponsorClass(fields["sponsor_class"])
	if err != nil {
		return nil, NewStoreError("hashToSponsor", "sponsor", name, "failed to parse sponsor class", ErrInvalidData)
	}

	createdAt, _ := time.Parse(time.RFC3339Nano, fields["created_at"])
	updatedAt, _ := time.Parse(time.RFC3339Nano, fields["updated_at"])

	return &domain.Sponsor{
		ID:           fields["id"],
		Name:         name,
		CoopDuration: duration,
		ImageURL:     fields["image_url"],
		WebsiteURL:   fields["website_url"],
		Class:        class,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}
