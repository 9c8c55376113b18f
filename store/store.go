package store

import (
	"time"

	"github.com/hrygo/veida/internal/profile"
	"github.com/hrygo/veida/store/cache"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver

	// Cache settings
	cacheConfig cache.Config

	// Caches
	courseCache  *cache.Cache // cache for courses, keyed by id
	accountCache *cache.Cache // cache for accounts, keyed by subject
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	// Default cache settings
	cacheConfig := cache.Config{
		DefaultTTL:      10 * time.Minute,
		CleanupInterval: 5 * time.Minute,
		MaxItems:        1000,
		OnEviction:      nil,
	}

	store := &Store{
		driver:       driver,
		profile:      profile,
		cacheConfig:  cacheConfig,
		courseCache:  cache.New(cacheConfig),
		accountCache: cache.New(cacheConfig),
	}

	return store
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	// Stop all cache cleanup goroutines
	s.courseCache.Close()
	s.accountCache.Close()

	return s.driver.Close()
}
