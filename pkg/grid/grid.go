package grid

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultSource is the grid used when none is configured
const DefaultSource = "grid_brazil"

// Factor is the CO2 intensity of an electricity source
type Factor struct {
	Source      string
	KgCO2PerKWh float64
	Description string
}

var factors = map[string]Factor{
	"grid_brazil": {
		Source:      "grid_brazil",
		KgCO2PerKWh: 0.0817,
		Description: "Brazilian national grid (ONS 2024)",
	},
	"renewable": {
		Source:      "renewable",
		KgCO2PerKWh: 0.02,
		Description: "On-site solar/wind",
	},
}

var aliases = map[string]string{
	"brazil_grid": "grid_brazil",
	"brazil":      "grid_brazil",
}

// Lookup returns the emission factor for a named source
func Lookup(source string) (Factor, error) {
	key := strings.ToLower(strings.TrimSpace(source))
	if key == "" {
		key = DefaultSource
	}
	if canonical, ok := aliases[key]; ok {
		key = canonical
	}

	f, ok := factors[key]
	if !ok {
		return Factor{}, fmt.Errorf("unknown emission source: %s (known: %s)", source, strings.Join(Sources(), ", "))
	}
	return f, nil
}

// Sources lists the canonical source names
func Sources() []string {
	names := make([]string, 0, len(factors))
	for name := range factors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
