package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-cashier-fastspring/core"
)

const customerCacheKeyPrefix = "cashier::customer::v1"

// CachedCustomerStore reads customers through a cache and evicts on writes.
type CachedCustomerStore struct {
	base  core.CustomerStore
	cache repositorycache.CacheService
}

func NewCachedCustomerStore(
	base core.CustomerStore,
	cacheService repositorycache.CacheService,
) (*CachedCustomerStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base customer store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: customer cache service is required")
	}
	return &CachedCustomerStore{base: base, cache: cacheService}, nil
}

// CustomerCacheKey returns cashier::customer::v1::<owner_id> with the owner id
// URL-path escaped.
func CustomerCacheKey(ownerID string) (string, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return "", core.BadInputError("sqlstore: owner id is required", nil)
	}
	return customerCacheKeyPrefix + "::" + url.PathEscape(ownerID), nil
}

func (s *CachedCustomerStore) Get(ctx context.Context, ownerID string) (core.Customer, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Customer{}, fmt.Errorf("sqlstore: cached customer store is not configured")
	}
	cacheKey, err := CustomerCacheKey(ownerID)
	if err != nil {
		return core.Customer{}, err
	}
	return repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.Customer, error) {
		return s.base.Get(ctx, strings.TrimSpace(ownerID))
	})
}

func (s *CachedCustomerStore) Save(ctx context.Context, customer core.Customer) (core.Customer, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Customer{}, fmt.Errorf("sqlstore: cached customer store is not configured")
	}
	saved, err := s.base.Save(ctx, customer)
	if err != nil {
		return core.Customer{}, err
	}
	if err := s.evict(ctx, saved.OwnerID); err != nil {
		return core.Customer{}, err
	}
	return saved, nil
}

func (s *CachedCustomerStore) SetFastSpringID(ctx context.Context, ownerID string, fastSpringID string) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached customer store is not configured")
	}
	if err := s.base.SetFastSpringID(ctx, ownerID, fastSpringID); err != nil {
		return err
	}
	return s.evict(ctx, ownerID)
}

func (s *CachedCustomerStore) evict(ctx context.Context, ownerID string) error {
	cacheKey, err := CustomerCacheKey(ownerID)
	if err != nil {
		return err
	}
	return s.cache.Delete(ctx, cacheKey)
}
