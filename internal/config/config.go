package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// ConfigError reports an invalid or unreadable pipeline configuration.
type ConfigError struct {
	Path   string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("config %s: %s", e.Path, e.Reason)
	}
	return "config: " + e.Reason
}

// ExtractSpec describes the raw cell window read from one sheet.
type ExtractSpec struct {
	Name             string `mapstructure:"name"`
	ColumnRange      string `mapstructure:"column_range"`
	NumberRows       int    `mapstructure:"number_rows"`
	SkipRows         int    `mapstructure:"skip_rows"`
	NumberHeaderRows int    `mapstructure:"number_header_rows"`
}

// ReshapeSpec configures the wide-to-long melt operator.
type ReshapeSpec struct {
	Type      string   `mapstructure:"type"`
	IDVars    []string `mapstructure:"id_vars"`
	ValueVars []string `mapstructure:"value_vars"`
	VarName   string   `mapstructure:"var_name"`
	ValueName string   `mapstructure:"value_name"`
}

// AddColumnSpec is one SQL augmentation step. Steps run in list order; the
// current table is visible to the query under the engine's temporary alias.
type AddColumnSpec struct {
	Name      string `mapstructure:"name"`
	JoinQuery string `mapstructure:"join_query"`
}

// TransformSpec holds the independently optional operator parameters.
// An absent key makes the corresponding operator a no-op.
type TransformSpec struct {
	ReplaceValues     map[string]map[string]float64 `mapstructure:"replace_values"`
	ForwardFillColumn string                        `mapstructure:"forward_fill_column"`
	Corrections       []string                      `mapstructure:"corrections"`
	Datatypes         map[string]string             `mapstructure:"datatypes"`
	Datetime          map[string]string             `mapstructure:"datetime"`
	ColumnNames       map[string]string             `mapstructure:"columnnames"`
	CleanColumnNames  bool                          `mapstructure:"clean_column_names"`
	Reshape           *ReshapeSpec                  `mapstructure:"reshape"`
	AddColumns        []AddColumnSpec               `mapstructure:"add_columns"`
}

// LoadSpec names the target table. Load names must be unique per run and the
// table is replaced wholesale on every run.
type LoadSpec struct {
	Name string `mapstructure:"name"`
}

// SheetSpec ties extraction, transformation and loading for one sheet.
// Sheets with Read=false leave no trace in the store.
type SheetSpec struct {
	Read      bool          `mapstructure:"read"`
	Extract   ExtractSpec   `mapstructure:"extract"`
	Transform TransformSpec `mapstructure:"transform"`
	Load      LoadSpec      `mapstructure:"load"`
}

// Pipeline is the full ordered sheet-processing spec.
type Pipeline struct {
	Sheets []SheetSpec `mapstructure:"sheets"`
}

// ReadCount returns the number of sheets flagged for processing.
func (p *Pipeline) ReadCount() int {
	n := 0
	for _, s := range p.Sheets {
		if s.Read {
			n++
		}
	}
	return n
}

// LoadPipeline reads and validates the sheet-processing spec.
// knownCorrections lists the correction rule names the transform engine
// registers; referencing any other name is a config error.
func LoadPipeline(path string, knownCorrections []string) (*Pipeline, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, &ConfigError{Path: path, Reason: err.Error()}
	}

	var p Pipeline
	if err := v.Unmarshal(&p); err != nil {
		return nil, &ConfigError{Path: path, Reason: fmt.Sprintf("failed to parse sheets: %v", err)}
	}
	if err := p.validate(knownCorrections); err != nil {
		return nil, &ConfigError{Path: path, Reason: err.Error()}
	}
	return &p, nil
}

func (p *Pipeline) validate(knownCorrections []string) error {
	if len(p.Sheets) == 0 {
		return fmt.Errorf("no sheets configured")
	}

	rules := make(map[string]bool, len(knownCorrections))
	for _, r := range knownCorrections {
		rules[r] = true
	}

	seen := make(map[string]int)
	for i, s := range p.Sheets {
		if !s.Read {
			continue
		}
		if s.Extract.Name == "" {
			return fmt.Errorf("sheet %d: extract.name is required", i)
		}
		if s.Extract.ColumnRange == "" {
			return fmt.Errorf("sheet %q: extract.column_range is required", s.Extract.Name)
		}
		if s.Extract.NumberRows <= 0 {
			return fmt.Errorf("sheet %q: extract.number_rows must be positive", s.Extract.Name)
		}
		if s.Extract.NumberHeaderRows < 0 {
			return fmt.Errorf("sheet %q: extract.number_header_rows cannot be negative", s.Extract.Name)
		}
		if s.Load.Name == "" {
			return fmt.Errorf("sheet %q: load.name is required", s.Extract.Name)
		}
		if prev, dup := seen[s.Load.Name]; dup {
			return fmt.Errorf("load table %q used by sheets %d and %d (names must be unique per run)", s.Load.Name, prev, i)
		}
		seen[s.Load.Name] = i

		for _, name := range s.Transform.Corrections {
			if !rules[name] {
				return fmt.Errorf("sheet %q: unknown correction rule %q", s.Extract.Name, name)
			}
		}
		for col, dtype := range s.Transform.Datatypes {
			if !knownDatatype(dtype) {
				return fmt.Errorf("sheet %q: column %q has unknown datatype %q", s.Extract.Name, col, dtype)
			}
		}
		if r := s.Transform.Reshape; r != nil && r.Type != "melt" {
			return fmt.Errorf("sheet %q: unsupported reshape type %q", s.Extract.Name, r.Type)
		}
		for j, ac := range s.Transform.AddColumns {
			if ac.JoinQuery == "" {
				return fmt.Errorf("sheet %q: add_columns[%d] is missing join_query", s.Extract.Name, j)
			}
		}
	}
	return nil
}

func knownDatatype(name string) bool {
	switch name {
	case "string", "str", "varchar", "float", "float64", "double", "int", "int64", "bigint", "bool", "boolean":
		return true
	}
	return false
}
