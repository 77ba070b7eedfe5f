package lookup

import (
	"fmt"

	"tracker-etl/internal/config"
	"tracker-etl/internal/frame"
	"tracker-etl/internal/transform"
)

// TableName is the reference table rebuilt at the start of every run.
const TableName = "zz_country_lookup"

// Taxonomy categories with derived handling.
const (
	CategoryEUMember         = "EU_Member"
	CategoryGeographicEurope = "Geographic_Europe"
)

// Build derives the country lookup table from the taxonomy: one row per
// country (alphabetical, ids from 1), the ISO3 code where mapped, a boolean
// membership column per plain category, and the derived eu_member and
// geographic_europe columns. EU membership always implies geographic Europe.
func Build(t *config.Taxonomy) (*frame.Frame, error) {
	if _, ok := t.Categories[CategoryEUMember]; !ok {
		return nil, fmt.Errorf("taxonomy is missing the %s category", CategoryEUMember)
	}
	if _, ok := t.Categories[CategoryGeographicEurope]; !ok {
		return nil, fmt.Errorf("taxonomy is missing the %s category", CategoryGeographicEurope)
	}

	countries := t.AllCountries()

	var plainCategories []string
	for _, name := range t.CategoryNames() {
		if name == CategoryEUMember || name == CategoryGeographicEurope {
			continue
		}
		plainCategories = append(plainCategories, name)
	}

	columns := []string{"country_id", "country_name", "iso3_code"}
	kinds := []frame.Kind{frame.Int, frame.String, frame.String}
	for _, cat := range plainCategories {
		columns = append(columns, transform.CleanColumnName(cat))
		kinds = append(kinds, frame.Bool)
	}
	columns = append(columns, "eu_member", "geographic_europe")
	kinds = append(kinds, frame.Bool, frame.Bool)

	members := make(map[string]map[string]bool, len(t.Categories))
	for name, list := range t.Categories {
		set := make(map[string]bool, len(list))
		for _, c := range list {
			set[c] = true
		}
		members[name] = set
	}

	out := frame.New(columns, kinds)
	for i, country := range countries {
		row := make([]any, 0, len(columns))
		row = append(row, int64(i+1), country)

		if code, ok := t.CountryCodes[country]; ok {
			row = append(row, code)
		} else {
			row = append(row, nil)
		}

		for _, cat := range plainCategories {
			row = append(row, members[cat][country])
		}

		eu := members[CategoryEUMember][country]
		row = append(row, eu, members[CategoryGeographicEurope][country] || eu)
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}
