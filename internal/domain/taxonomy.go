package domain

import (
	"os"

	"gopkg.in/yaml.v3"

	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// Taxonomy is the closed category set, partitioned into project work
// (valued engineering contracts) and maintenance work.
type Taxonomy struct {
	Project     []string `yaml:"project"`
	Maintenance []string `yaml:"maintenance"`
}

// DefaultTaxonomy returns the built-in category set.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		Project: []string{
			"Fire Protection",
			"Mechanical & Electrical",
			"Resident Repair",
		},
		Maintenance: []string{
			"Site Survey & Quote",
			"Handover Inspection",
			"Emergency Repair",
			"Scheduled Maintenance",
			"Equipment Patrol",
			"Consumable Replacement",
		},
	}
}

// LoadTaxonomy reads a taxonomy override from a YAML file. An empty path
// returns the default set.
func LoadTaxonomy(path string) (Taxonomy, error) {
	if path == "" {
		return DefaultTaxonomy(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Taxonomy{}, err
	}
	var tax Taxonomy
	if err := yaml.Unmarshal(data, &tax); err != nil {
		return Taxonomy{}, err
	}
	if len(tax.Project) == 0 || len(tax.Maintenance) == 0 {
		return Taxonomy{}, apperrors.NewValidationError("taxonomy file must define project and maintenance categories", map[string]any{"path": path})
	}
	return tax, nil
}

// All returns every category, project group first.
func (t Taxonomy) All() []string {
	out := make([]string, 0, len(t.Project)+len(t.Maintenance))
	out = append(out, t.Project...)
	out = append(out, t.Maintenance...)
	return out
}

// Contains reports whether cat is an exact member of the taxonomy.
func (t Taxonomy) Contains(cat string) bool {
	for _, c := range t.All() {
		if c == cat {
			return true
		}
	}
	return false
}

// IsProject reports whether cat belongs to the project group.
func (t Taxonomy) IsProject(cat string) bool {
	for _, c := range t.Project {
		if c == cat {
			return true
		}
	}
	return false
}

// IsMaintenance reports whether cat belongs to the maintenance group.
func (t Taxonomy) IsMaintenance(cat string) bool {
	for _, c := range t.Maintenance {
		if c == cat {
			return true
		}
	}
	return false
}

// Normalize validates an externally suggested category. Exact matches pass
// through unchanged; anything else falls back deterministically: zero-value
// work maps to the first maintenance category, valued work to the first
// project category. The external classifier is untrusted and must never
// introduce categories outside the closed set.
func (t Taxonomy) Normalize(suggested string, value int) string {
	if t.Contains(suggested) {
		return suggested
	}
	if value == 0 {
		return t.Maintenance[0]
	}
	return t.Project[0]
}
