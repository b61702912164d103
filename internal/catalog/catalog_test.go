package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egannguyen/printshop-backend/internal/entity"
)

func TestStatic_HasEightEntriesAcrossKnownCategories(t *testing.T) {
	services, err := Static()
	require.NoError(t, err)
	assert.Len(t, services, 8)

	seen := map[string]bool{}
	for _, s := range services {
		assert.NotEmpty(t, s.Name)
		require.NotNil(t, s.Price)
		seen[s.Category] = true
	}
	for _, c := range []string{
		entity.CategoryDelivery, entity.CategoryAccessories, entity.CategoryClothing,
		entity.CategoryPolygraphy, entity.CategorySouvenirs,
	} {
		assert.True(t, seen[c], "category %s missing from bundled catalog", c)
	}
}

func TestDefaults_MirrorsStatic(t *testing.T) {
	static, err := Static()
	require.NoError(t, err)
	defaults, err := Defaults()
	require.NoError(t, err)

	require.Len(t, defaults, len(static))
	for i := range static {
		assert.Equal(t, static[i].Name, defaults[i].Name)
		assert.Equal(t, static[i].Category, defaults[i].Category)
	}
}

func TestGroup_OrdersByCategoryThenName(t *testing.T) {
	services := []entity.Service{
		{ID: 1, Name: "b", Category: "souvenirs"},
		{ID: 2, Name: "a", Category: "souvenirs"},
		{ID: 3, Name: "Z", Category: "clothing"},
		{ID: 4, Name: "x", Category: "custom"},
		{ID: 5, Name: "B", Category: "souvenirs"},
	}

	sections := Group(services)
	require.Len(t, sections, 3)

	assert.Equal(t, "clothing", sections[0].Category)
	assert.Equal(t, "Одежда", sections[0].Title)
	assert.Equal(t, "custom", sections[1].Category)
	assert.Equal(t, "custom", sections[1].Title)
	assert.Equal(t, "souvenirs", sections[2].Category)

	var names []string
	for _, s := range sections[2].Services {
		names = append(names, s.Name)
	}
	// Ordinal comparison puts upper case first.
	assert.Equal(t, []string{"B", "a", "b"}, names)
}

func TestSortByName_TiesBrokenByID(t *testing.T) {
	services := []entity.Service{{ID: 9, Name: "same"}, {ID: 2, Name: "same"}}
	SortByName(services)
	assert.Equal(t, int64(2), services[0].ID)
}
