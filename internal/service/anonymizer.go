package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Strob0t/RentMatch/internal/domain"
	"github.com/Strob0t/RentMatch/internal/domain/marketplace"
	"github.com/Strob0t/RentMatch/internal/domain/renter"
	"github.com/Strob0t/RentMatch/internal/logger"
	"github.com/Strob0t/RentMatch/internal/port/cache"
	"github.com/Strob0t/RentMatch/internal/port/database"
)

const (
	anonKeyPrefix   = "anon:"
	renterKeyPrefix = "anon-seq:"

	allocTimeout = 5 * time.Second
)

// Anonymizer maps renters to stable anonymous ids and projects profiles to
// the anonymized view. The mapping is allocated once in the store and never
// changes, so cached entries never go stale.
type Anonymizer struct {
	store database.Store
	cache cache.Cache
	ttl   time.Duration
	group singleflight.Group
}

// NewAnonymizer creates an Anonymizer. c may be nil.
func NewAnonymizer(store database.Store, c cache.Cache, ttl time.Duration) *Anonymizer {
	return &Anonymizer{store: store, cache: c, ttl: ttl}
}

// Sequence returns the renter's anonymous sequence number, allocating it on
// first use.
func (a *Anonymizer) Sequence(ctx context.Context, renterID string) (int64, error) {
	key := anonKeyPrefix + renterID
	if seq, ok := a.cachedInt(ctx, key); ok {
		return seq, nil
	}

	// The allocation is shared by every caller waiting on key, so it must
	// not inherit one caller's cancellation.
	ch := a.group.DoChan(key, func() (any, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), allocTimeout)
		defer cancel()
		seq, err := a.store.AnonymousSeq(sctx, renterID)
		if err != nil {
			return int64(0), err
		}
		a.remember(sctx, key, strconv.FormatInt(seq, 10))
		a.remember(sctx, renterKeyPrefix+strconv.FormatInt(seq, 10), renterID)
		return seq, nil
	})
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("anonymous id: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return 0, fmt.Errorf("anonymous id: %w", res.Err)
		}
		return res.Val.(int64), nil
	}
}

// Anonymize returns the allow-listed view of p under its stable anonymous id.
func (a *Anonymizer) Anonymize(ctx context.Context, p *renter.Profile) (marketplace.AnonymizedRenterView, error) {
	seq, err := a.Sequence(ctx, p.ID)
	if err != nil {
		return marketplace.AnonymizedRenterView{}, err
	}
	return marketplace.Project(marketplace.FormatAnonymousID(seq), p), nil
}

// Resolve maps an anonymous id back to the renter id. A malformed id is a
// VALIDATION_ERROR, an unallocated one NOT_FOUND.
func (a *Anonymizer) Resolve(ctx context.Context, anonymousID string) (string, error) {
	seq, err := marketplace.ParseAnonymousID(anonymousID)
	if err != nil {
		return "", &domain.Error{Code: domain.CodeValidation, Message: err.Error()}
	}

	key := renterKeyPrefix + strconv.FormatInt(seq, 10)
	if id, ok := a.cached(ctx, key); ok {
		return id, nil
	}

	renterID, err := a.store.RenterIDBySeq(ctx, seq)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", &domain.Error{Code: domain.CodeNotFound, Message: "renter not found", Err: err}
		}
		return "", fmt.Errorf("resolve anonymous id: %w", err)
	}
	a.remember(ctx, key, renterID)
	return renterID, nil
}

func (a *Anonymizer) cached(ctx context.Context, key string) (string, bool) {
	if a.cache == nil {
		return "", false
	}
	b, ok, err := a.cache.Get(ctx, key)
	if err != nil {
		logger.From(ctx).Warn("anonymous id cache read failed", "key", key, "error", err)
		return "", false
	}
	if !ok {
		return "", false
	}
	return string(b), true
}

func (a *Anonymizer) cachedInt(ctx context.Context, key string) (int64, bool) {
	s, ok := a.cached(ctx, key)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func (a *Anonymizer) remember(ctx context.Context, key, value string) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Set(ctx, key, []byte(value), a.ttl); err != nil {
		logger.From(ctx).Warn("anonymous id cache write failed", "key", key, "error", err)
	}
}
