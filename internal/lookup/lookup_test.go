package lookup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracker-etl/internal/config"
)

func testTaxonomy() *config.Taxonomy {
	return &config.Taxonomy{
		Categories: map[string][]string{
			CategoryEUMember:         {"Germany", "France"},
			CategoryGeographicEurope: {"Norway"},
			"Anglosphere":            {"United States"},
		},
		CountryCodes: map[string]string{
			"Germany": "DEU",
			"France":  "FRA",
			"Norway":  "NOR",
		},
	}
}

func TestBuildLookup(t *testing.T) {
	f, err := Build(testTaxonomy())
	require.NoError(t, err)

	assert.Equal(t, []string{"country_id", "country_name", "iso3_code", "anglosphere", "eu_member", "geographic_europe"}, f.Columns)
	require.Equal(t, 4, f.Height())

	// Alphabetical order, ids from 1.
	assert.Equal(t, []any{int64(1), "France", "FRA", false, true, true}, f.Rows[0])
	assert.Equal(t, []any{int64(2), "Germany", "DEU", false, true, true}, f.Rows[1])
	assert.Equal(t, []any{int64(3), "Norway", "NOR", false, false, true}, f.Rows[2])
	assert.Equal(t, []any{int64(4), "United States", nil, true, false, false}, f.Rows[3])
}

// Every EU member is geographically European even when the taxonomy does not
// list it under Geographic_Europe explicitly.
func TestEUMembershipImpliesGeographicEurope(t *testing.T) {
	f, err := Build(testTaxonomy())
	require.NoError(t, err)

	euIdx, ok := f.ColumnIndex("eu_member")
	require.True(t, ok)
	geoIdx, ok := f.ColumnIndex("geographic_europe")
	require.True(t, ok)

	for _, row := range f.Rows {
		if row[euIdx].(bool) {
			assert.True(t, row[geoIdx].(bool), "country %v", row[1])
		}
	}
}

func TestBuildRequiresSpecialCategories(t *testing.T) {
	tax := testTaxonomy()
	delete(tax.Categories, CategoryEUMember)
	_, err := Build(tax)
	assert.Error(t, err)

	tax = testTaxonomy()
	delete(tax.Categories, CategoryGeographicEurope)
	_, err = Build(tax)
	assert.Error(t, err)
}
