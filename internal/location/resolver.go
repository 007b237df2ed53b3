// Package location normalizes free-text project locations into a (city, county) pair.
package location

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// County is one gazetteer entry with its known cities in scan order.
type County struct {
	Name   string   `yaml:"name"`
	Cities []string `yaml:"cities"`
}

// Gazetteer is the ordered county → cities lookup table. County order is
// the match priority.
type Gazetteer struct {
	Counties []County `yaml:"counties"`
}

// DefaultGazetteer covers the Inland Empire.
func DefaultGazetteer() Gazetteer {
	return Gazetteer{Counties: []County{
		{
			Name: "San Bernardino",
			Cities: []string{
				"fontana", "ontario", "san bernardino", "rialto", "colton",
				"rancho cucamonga", "upland", "chino", "montclair",
			},
		},
		{
			Name: "Riverside",
			Cities: []string{
				"riverside", "moreno valley", "perris", "corona", "norco",
				"eastvale", "jurupa valley", "lake elsinore", "menifee",
			},
		},
	}}
}

type entry struct {
	county string
	cities []string
}

// Resolver matches locations against a gazetteer fixed at construction.
type Resolver struct {
	entries []entry
}

// NewResolver copies the gazetteer so later edits to g do not leak in.
func NewResolver(g Gazetteer) *Resolver {
	entries := make([]entry, 0, len(g.Counties))
	for _, c := range g.Counties {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		cities := make([]string, 0, len(c.Cities))
		for _, city := range c.Cities {
			if city = strings.ToLower(strings.TrimSpace(city)); city != "" {
				cities = append(cities, city)
			}
		}
		entries = append(entries, entry{county: titleCase(name), cities: cities})
	}
	return &Resolver{entries: entries}
}

// Resolve returns the city and county mentioned in location. Either may be
// empty; county is always a gazetteer name or empty. Overlapping names
// resolve by scan order, not by longest match.
func (r *Resolver) Resolve(location string) (city, county string) {
	text := strings.ToLower(location)
	if strings.TrimSpace(text) == "" {
		return "", ""
	}

	for _, e := range r.entries {
		if strings.Contains(text, strings.ToLower(e.county)) {
			county = e.county
			break
		}
	}

	for _, e := range r.entries {
		for _, name := range e.cities {
			if !strings.Contains(text, name) {
				continue
			}
			city = titleCase(name)
			if county == "" {
				county = e.county
			}
			return city, county
		}
	}

	return "", county
}

// titleCase builds a fresh Caser per call; Casers are stateful.
func titleCase(s string) string {
	return cases.Title(language.English).String(strings.ToLower(s))
}
