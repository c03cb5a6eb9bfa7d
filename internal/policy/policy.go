// Package policy holds the static monitoring policy: per-category thresholds,
// classifier keyword weights, and the allowed-application list. The policy is
// read-only to the pipeline; it is loaded once at startup from a YAML file or
// from built-in defaults.
package policy

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"insider-sentinel/monitor/internal/event/domain"
)

// Rule is the threshold for one category: Limit unconsumed events within
// Window trigger a breach.
type Rule struct {
	Limit  int
	Window time.Duration
}

// Table is the full policy table.
type Table struct {
	rules           map[domain.Category]Rule
	keywords        map[domain.Category]map[string]float64
	defaultCategory domain.Category
	allowedApps     map[string]struct{}
}

// Rule returns the threshold rule for category, and whether one is defined.
func (t *Table) Rule(category domain.Category) (Rule, bool) {
	r, ok := t.rules[category]
	return r, ok
}

// Keywords returns the classifier keyword-weight table.
func (t *Table) Keywords() map[domain.Category]map[string]float64 {
	return t.keywords
}

// DefaultCategory is the classifier fallback when no keyword matches.
func (t *Table) DefaultCategory() domain.Category {
	return t.defaultCategory
}

// AllowedApp reports whether label is an allowed/neutral foreground
// application. Matching is case-insensitive.
func (t *Table) AllowedApp(label string) bool {
	_, ok := t.allowedApps[strings.ToLower(label)]
	return ok
}

// Default returns the built-in policy table: high sensitivity alerts on the
// first event, low sensitivity on the third, unauthorized apps on the fifth
// distinct session, removable storage on attach; all over 24h windows.
func Default() *Table {
	return &Table{
		rules: map[domain.Category]Rule{
			domain.CategoryHighSensitivity:  {Limit: 1, Window: 24 * time.Hour},
			domain.CategoryLowSensitivity:   {Limit: 3, Window: 24 * time.Hour},
			domain.CategoryUnauthorizedApp:  {Limit: 5, Window: 24 * time.Hour},
			domain.CategoryRemovableStorage: {Limit: 1, Window: 24 * time.Hour},
		},
		keywords: map[domain.Category]map[string]float64{
			domain.CategoryHighSensitivity: {
				"password": 1, "secret": 1, "confidential": 1, "private": 1,
				"sensitive": 1, "financial": 1, "personal": 1,
			},
			domain.CategoryLowSensitivity: {
				"public": 1, "general": 1, "documentation": 1, "readme": 1, "test": 1,
			},
		},
		defaultCategory: domain.CategoryLowSensitivity,
		allowedApps:     map[string]struct{}{},
	}
}

// fileTable mirrors the YAML policy file layout.
type fileTable struct {
	Categories      map[string]fileRule           `mapstructure:"categories"`
	DefaultCategory string                        `mapstructure:"default_category"`
	AllowedApps     []string                      `mapstructure:"allowed_apps"`
	Keywords        map[string]map[string]float64 `mapstructure:"keywords"`
}

type fileRule struct {
	Limit  int    `mapstructure:"limit"`
	Window string `mapstructure:"window"`
}

// Load reads the policy table from the YAML file at path. An empty path
// returns Default(). File entries replace the corresponding default section
// wholesale; sections absent from the file keep their defaults.
func Load(path string) (*Table, error) {
	table := Default()
	if path == "" {
		return table, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("policy: read %s: %w", path, err)
	}

	var ft fileTable
	if err := v.Unmarshal(&ft); err != nil {
		return nil, fmt.Errorf("policy: parse %s: %w", path, err)
	}

	if len(ft.Categories) > 0 {
		rules := make(map[domain.Category]Rule, len(ft.Categories))
		for name, fr := range ft.Categories {
			if fr.Limit <= 0 {
				return nil, fmt.Errorf("policy: category %q: limit must be positive", name)
			}
			w, err := time.ParseDuration(fr.Window)
			if err != nil || w <= 0 {
				return nil, fmt.Errorf("policy: category %q: invalid window %q", name, fr.Window)
			}
			rules[domain.Category(name)] = Rule{Limit: fr.Limit, Window: w}
		}
		table.rules = rules
	}

	if ft.DefaultCategory != "" {
		table.defaultCategory = domain.Category(ft.DefaultCategory)
	}

	if len(ft.Keywords) > 0 {
		kw := make(map[domain.Category]map[string]float64, len(ft.Keywords))
		for name, weights := range ft.Keywords {
			kw[domain.Category(name)] = weights
		}
		table.keywords = kw
	}

	if len(ft.AllowedApps) > 0 {
		allowed := make(map[string]struct{}, len(ft.AllowedApps))
		for _, app := range ft.AllowedApps {
			if s := strings.ToLower(strings.TrimSpace(app)); s != "" {
				allowed[s] = struct{}{}
			}
		}
		table.allowedApps = allowed
	}

	return table, nil
}
