package gate

import (
	"fmt"
	"os"
	"regexp"

	"github.com/pelletier/go-toml/v2"
)

// criteriaFile is the on-disk shape of a criteria file:
//
//	[[criterion]]
//	name = "team_convention"
//	weight = 0.25
//	patterns = ['(?i)\bteam convention\b']
type criteriaFile struct {
	Criteria []criterionSpec `toml:"criterion"`
}

type criterionSpec struct {
	Name     string   `toml:"name"`
	Weight   float64  `toml:"weight"`
	Patterns []string `toml:"patterns"`
}

const defaultCustomWeight = 0.25

// LoadCriteriaFile reads extra admission criteria from a TOML file and
// returns the built-in defaults with the custom criteria appended. An
// empty path returns the defaults unchanged.
func LoadCriteriaFile(path string) ([]Criterion, error) {
	if path == "" {
		return Defaults(), nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from the user's own config
	if err != nil {
		return nil, fmt.Errorf("read criteria file: %w", err)
	}

	var file criteriaFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse criteria file %s: %w", path, err)
	}

	criteria := Defaults()
	for i, spec := range file.Criteria {
		if spec.Name == "" {
			return nil, fmt.Errorf("criteria file %s: criterion %d has no name", path, i+1)
		}
		if len(spec.Patterns) == 0 {
			return nil, fmt.Errorf("criteria file %s: criterion %q has no patterns", path, spec.Name)
		}
		weight := spec.Weight
		if weight <= 0 {
			weight = defaultCustomWeight
		}
		c := Criterion{Name: spec.Name, Weight: weight}
		for _, pat := range spec.Patterns {
			re, err := regexp.Compile(pat)
			if err != nil {
				return nil, fmt.Errorf("compile pattern %q for criterion %q: %w", pat, spec.Name, err)
			}
			c.Patterns = append(c.Patterns, re)
		}
		criteria = append(criteria, c)
	}
	return criteria, nil
}
