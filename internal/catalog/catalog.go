// Package catalog holds the built-in clause lists of the supported standards.
package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/gosuda/isoflow/internal/domain"
)

//go:embed clauses.yaml
var clausesYAML []byte

type Entry struct {
	Number string `yaml:"number"`
	Title  string `yaml:"title"`
}

type section struct {
	Standard domain.Standard `yaml:"standard"`
	Clauses  []Entry         `yaml:"clauses"`
}

type document struct {
	Standards []section `yaml:"standards"`
}

//nolint:gochecknoglobals // parsed once from the embedded file
var (
	loadOnce sync.Once
	loaded   map[domain.Standard][]Entry
	loadErr  error
)

// Parse decodes a catalog document. Unknown standards, empty clause numbers
// and duplicate numbers within a standard are rejected.
func Parse(data []byte) (map[domain.Standard][]Entry, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog.Parse: %w", err)
	}
	out := make(map[domain.Standard][]Entry, len(doc.Standards))
	for _, s := range doc.Standards {
		if !s.Standard.Valid() {
			return nil, fmt.Errorf("catalog.Parse: unknown standard %q", s.Standard)
		}
		seen := make(map[string]bool, len(s.Clauses))
		for _, e := range s.Clauses {
			if e.Number == "" {
				return nil, fmt.Errorf("catalog.Parse: %s: empty clause number", s.Standard)
			}
			if seen[e.Number] {
				return nil, fmt.Errorf("catalog.Parse: %s: duplicate clause %s", s.Standard, e.Number)
			}
			seen[e.Number] = true
		}
		out[s.Standard] = append(out[s.Standard], s.Clauses...)
	}
	return out, nil
}

func load() (map[domain.Standard][]Entry, error) {
	loadOnce.Do(func() {
		loaded, loadErr = Parse(clausesYAML)
	})
	return loaded, loadErr
}

// Entries returns a copy of the built-in clauses of std in catalog order.
func Entries(std domain.Standard) ([]Entry, error) {
	if !std.Valid() {
		return nil, domain.Validationf("catalog.Entries", "unknown standard %q", std)
	}
	all, err := load()
	if err != nil {
		return nil, err
	}
	return append([]Entry(nil), all[std]...), nil
}
