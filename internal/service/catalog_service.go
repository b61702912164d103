package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/egannguyen/printshop-backend/internal/cache"
	"github.com/egannguyen/printshop-backend/internal/catalog"
	"github.com/egannguyen/printshop-backend/internal/entity"
	"github.com/egannguyen/printshop-backend/internal/repository"
)

const (
	cacheKeyFlat     = "catalog:flat"
	cacheKeySections = "catalog:sections"
)

// CatalogService serves the storefront catalog.
type CatalogService struct {
	services repository.ServiceRepository
	cache    cache.Cache
}

// NewCatalogService creates a CatalogService. A nil cache disables caching.
func NewCatalogService(services repository.ServiceRepository, c cache.Cache) *CatalogService {
	if c == nil {
		c = cache.Noop{}
	}
	return &CatalogService{services: services, cache: c}
}

// ListServices returns every service sorted by name.
func (s *CatalogService) ListServices(ctx context.Context) ([]entity.Service, error) {
	return cached(ctx, s.cache, cacheKeyFlat, func() ([]entity.Service, error) {
		services, err := s.services.FindAll(ctx)
		if err != nil {
			return nil, storageErr("list services", err)
		}
		if services == nil {
			services = []entity.Service{}
		}
		catalog.SortByName(services)
		return services, nil
	})
}

// ListSections returns the catalog grouped into storefront sections.
func (s *CatalogService) ListSections(ctx context.Context) ([]entity.CatalogSection, error) {
	return cached(ctx, s.cache, cacheKeySections, func() ([]entity.CatalogSection, error) {
		services, err := s.services.FindAll(ctx)
		if err != nil {
			return nil, storageErr("list services", err)
		}
		return catalog.Group(services), nil
	})
}

// StaticCatalog returns the grouped listing, falling back to the bundled
// dataset when the store cannot be read. The second result reports whether
// the fallback was used.
func (s *CatalogService) StaticCatalog(ctx context.Context) ([]entity.CatalogSection, bool, error) {
	sections, err := s.ListSections(ctx)
	if err == nil {
		return sections, false, nil
	}
	slog.Warn("Catalog store unavailable, serving bundled catalog", "err", err)

	services, staticErr := catalog.Static()
	if staticErr != nil {
		return nil, true, staticErr
	}
	return catalog.Group(services), true, nil
}

// GetService returns one service or entity.ErrNotFound.
func (s *CatalogService) GetService(ctx context.Context, id int64) (*entity.Service, error) {
	svc, err := s.services.FindByID(ctx, id)
	if err != nil {
		return nil, storageErr("get service", err)
	}
	return svc, nil
}

// AddService stores a new catalog entry. A nil price stays unset.
func (s *CatalogService) AddService(ctx context.Context, in entity.NewService) (*entity.Service, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, entity.NewMissingField("name")
	}
	in.Category = strings.TrimSpace(in.Category)

	svc, err := s.services.Create(ctx, in)
	if err != nil {
		return nil, storageErr("add service", err)
	}
	s.invalidate(ctx)

	slog.Info("Service added", "service_id", svc.ID, "name", svc.Name)
	return svc, nil
}

// DeleteService removes a catalog entry. Orders that reference it keep
// their snapshot and id.
func (s *CatalogService) DeleteService(ctx context.Context, id int64) error {
	if err := s.services.Delete(ctx, id); err != nil {
		return storageErr("delete service", err)
	}
	s.invalidate(ctx)

	slog.Info("Service deleted", "service_id", id)
	return nil
}

// Seed inserts the default catalog the first time the store is initialized.
func (s *CatalogService) Seed(ctx context.Context) error {
	defaults, err := catalog.Defaults()
	if err != nil {
		return err
	}
	seeded, err := s.services.Seed(ctx, defaults)
	if err != nil {
		return storageErr("seed catalog", err)
	}
	if seeded {
		s.invalidate(ctx)
		slog.Info("Seeded services", "count", len(defaults))
	}
	return nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, cacheKeyFlat, cacheKeySections); err != nil {
		slog.Warn("Failed to invalidate catalog cache", "err", err)
	}
}

// cached serves key from c, or calls load and stores its result. Cache
// failures are logged and never fail the read.
func cached[T any](ctx context.Context, c cache.Cache, key string, load func() (T, error)) (T, error) {
	if data, ok, err := c.Get(ctx, key); err != nil {
		slog.Warn("Cache read failed", "key", key, "err", err)
	} else if ok {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			return v, nil
		}
		slog.Warn("Discarding undecodable cache entry", "key", key)
	}

	v, err := load()
	if err != nil {
		return v, err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return v, fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := c.Set(ctx, key, data); err != nil {
		slog.Warn("Cache write failed", "key", key, "err", err)
	}
	return v, nil
}
