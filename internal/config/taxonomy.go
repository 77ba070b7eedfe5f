package config

import (
	"fmt"
	"sort"

	"github.com/spf13/viper"
)

// CountryCodesCategory is the reserved taxonomy key that maps country names to
// ISO3 codes instead of listing category members.
const CountryCodesCategory = "country_codes"

// Taxonomy classifies countries into named categories and carries the ISO3
// code mapping under the reserved country_codes key.
type Taxonomy struct {
	Categories   map[string][]string `mapstructure:"categories"`
	CountryCodes map[string]string   `mapstructure:"country_codes"`
}

// LoadTaxonomy reads the country taxonomy file.
func LoadTaxonomy(path string) (*Taxonomy, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, &ConfigError{Path: path, Reason: err.Error()}
	}

	var t Taxonomy
	if err := v.Unmarshal(&t); err != nil {
		return nil, &ConfigError{Path: path, Reason: fmt.Sprintf("failed to parse taxonomy: %v", err)}
	}
	if len(t.Categories) == 0 {
		return nil, &ConfigError{Path: path, Reason: "taxonomy defines no categories"}
	}
	return &t, nil
}

// CategoryNames returns the category names in deterministic order.
func (t *Taxonomy) CategoryNames() []string {
	names := make([]string, 0, len(t.Categories))
	for name := range t.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AllCountries returns the union of countries over every category, sorted
// alphabetically. The ISO-code mapping does not contribute members.
func (t *Taxonomy) AllCountries() []string {
	set := make(map[string]bool)
	for _, members := range t.Categories {
		for _, c := range members {
			set[c] = true
		}
	}
	countries := make([]string, 0, len(set))
	for c := range set {
		countries = append(countries, c)
	}
	sort.Strings(countries)
	return countries
}
