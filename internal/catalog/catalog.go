// Package catalog holds the bundled storefront dataset and the grouping of
// services into storefront sections.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/egannguyen/printshop-backend/internal/entity"
)

//go:embed services-data.json
var servicesData []byte

// Static returns the bundled dataset. It is served when the database cannot
// be reached and is the source of the default seed.
func Static() ([]entity.Service, error) {
	var services []entity.Service
	if err := json.Unmarshal(servicesData, &services); err != nil {
		return nil, fmt.Errorf("failed to decode bundled catalog: %w", err)
	}
	return services, nil
}

// Defaults returns the bundled dataset as seed input.
func Defaults() ([]entity.NewService, error) {
	services, err := Static()
	if err != nil {
		return nil, err
	}
	seed := make([]entity.NewService, 0, len(services))
	for _, s := range services {
		seed = append(seed, entity.NewService{
			Name:        s.Name,
			Description: s.Description,
			Price:       s.Price,
			Category:    s.Category,
			Image:       s.Image,
		})
	}
	return seed, nil
}

// SortByName orders services by name using byte-wise comparison, then by id.
func SortByName(services []entity.Service) {
	sort.SliceStable(services, func(i, j int) bool {
		if services[i].Name != services[j].Name {
			return services[i].Name < services[j].Name
		}
		return services[i].ID < services[j].ID
	})
}

// Group splits services into sections ordered by category tag, each sorted
// by name.
func Group(services []entity.Service) []entity.CatalogSection {
	byCategory := make(map[string][]entity.Service)
	for _, s := range services {
		byCategory[s.Category] = append(byCategory[s.Category], s)
	}

	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	sections := make([]entity.CatalogSection, 0, len(categories))
	for _, c := range categories {
		list := byCategory[c]
		SortByName(list)
		sections = append(sections, entity.CatalogSection{
			Category: c,
			Title:    entity.CategoryTitle(c),
			Services: list,
		})
	}
	return sections
}
