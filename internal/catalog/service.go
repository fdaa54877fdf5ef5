package catalog

import (
	"context"
	"errors"
	"log"

	"golang.org/x/sync/singleflight"

	"github.com/quickbite/cart-engine/internal/domain"
)

var ErrRestaurantNotFound = errors.New("restaurant not found")

// Fetcher is implemented by Client; the service only needs these two calls.
type Fetcher interface {
	ListRestaurants(ctx context.Context) ([]domain.Restaurant, error)
	GetRestaurant(ctx context.Context, id string) (*domain.Restaurant, error)
}

// Service is a read-through cache over the catalog backend. Restaurant
// lookups are hot during browsing, so misses for the same id are collapsed
// with singleflight to avoid a cache stampede.
type Service struct {
	fetcher Fetcher
	cache   RestaurantCache
	sfg     singleflight.Group
}

func NewService(fetcher Fetcher, cache RestaurantCache) *Service {
	return &Service{
		fetcher: fetcher,
		cache:   cache,
	}
}

func (s *Service) ListRestaurants(ctx context.Context) ([]domain.Restaurant, error) {
	return s.fetcher.ListRestaurants(ctx)
}

func (s *Service) GetRestaurant(ctx context.Context, id string) (*domain.Restaurant, error) {
	v, err, _ := s.sfg.Do(id, func() (interface{}, error) {
		restaurant, err := s.cache.Get(ctx, id)
		if err == nil {
			return restaurant, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			log.Printf("restaurant cache get error: %v", err) // log cache error but continue
		}

		restaurant, err = s.fetcher.GetRestaurant(ctx, id)
		if err != nil {
			return nil, err
		}

		go func() {
			if errSet := s.cache.Set(context.Background(), id, restaurant); errSet != nil {
				log.Printf("restaurant cache set error: %v", errSet)
			}
		}()

		return restaurant, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Restaurant), nil
}
