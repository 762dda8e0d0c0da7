package services

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/canvass-labs/canvass-engine/pkg/models"
	"github.com/canvass-labs/canvass-engine/pkg/repositories"
)

// TaxonomySeed is the on-disk shape of a curated vocabulary file.
type TaxonomySeed struct {
	Categories []SeedCategory `yaml:"categories"`
}

// SeedCategory is one primary category with its subcategories and any terms
// attached directly at category level.
type SeedCategory struct {
	Name          string            `yaml:"name"`
	Subcategories []SeedSubcategory `yaml:"subcategories"`
	Terms         []SeedTerm        `yaml:"terms"`
}

// SeedSubcategory groups terms under a primary category.
type SeedSubcategory struct {
	Name  string     `yaml:"name"`
	Terms []SeedTerm `yaml:"terms"`
}

// SeedTerm is one vocabulary entry. Parent names another term in the same
// file to build the tree.
type SeedTerm struct {
	Term        string   `yaml:"term"`
	Synonyms    []string `yaml:"synonyms"`
	Description string   `yaml:"description"`
	Parent      string   `yaml:"parent"`
}

// TaxonomyImporter loads a curated vocabulary file into the taxonomy store.
type TaxonomyImporter interface {
	// ImportFile reads a YAML seed and imports it. Returns the number of
	// terms created; terms that already exist are left untouched.
	ImportFile(ctx context.Context, path string) (int, error)

	// Import validates and applies a parsed seed.
	Import(ctx context.Context, seed *TaxonomySeed) (int, error)
}

type taxonomyImporter struct {
	taxonomyRepo repositories.TaxonomyRepository
	logger       *zap.Logger
}

// NewTaxonomyImporter creates a new TaxonomyImporter.
func NewTaxonomyImporter(taxonomyRepo repositories.TaxonomyRepository, logger *zap.Logger) TaxonomyImporter {
	return &taxonomyImporter{
		taxonomyRepo: taxonomyRepo,
		logger:       logger.Named("taxonomy_importer"),
	}
}

var _ TaxonomyImporter = (*taxonomyImporter)(nil)

func (s *taxonomyImporter) ImportFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read taxonomy seed: %w", err)
	}

	var seed TaxonomySeed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return 0, fmt.Errorf("failed to parse taxonomy seed: %w", err)
	}

	return s.Import(ctx, &seed)
}

// seedEntry is one flattened term with arena indices for parent links.
type seedEntry struct {
	term            SeedTerm
	primaryCategory string
	subcategory     string
	parentIdx       int // index into the arena, -1 for roots
}

func (s *taxonomyImporter) Import(ctx context.Context, seed *TaxonomySeed) (int, error) {
	arena, err := flattenSeed(seed)
	if err != nil {
		return 0, err
	}
	if err := validateAcyclic(arena); err != nil {
		return 0, err
	}

	// First pass: find-or-create every term.
	ids := make([]uuid.UUID, len(arena))
	created := 0
	for i, entry := range arena {
		existing, err := s.taxonomyRepo.FindExact(ctx, entry.term.Term, entry.primaryCategory)
		if err != nil {
			return created, fmt.Errorf("import lookup failed for %q: %w", entry.term.Term, err)
		}
		if existing != nil {
			ids[i] = existing.ID
			continue
		}

		term := &models.TaxonomyTerm{
			Term:            entry.term.Term,
			PrimaryCategory: entry.primaryCategory,
			Subcategory:     entry.subcategory,
			Description:     entry.term.Description,
		}
		if err := s.taxonomyRepo.Create(ctx, term); err != nil {
			return created, fmt.Errorf("import create failed for %q: %w", entry.term.Term, err)
		}
		ids[i] = term.ID
		created++

		if len(entry.term.Synonyms) > 0 {
			if err := s.taxonomyRepo.AddSynonyms(ctx, term.ID, entry.term.Synonyms); err != nil {
				return created, fmt.Errorf("import synonyms failed for %q: %w", entry.term.Term, err)
			}
		}
	}

	// Second pass: attach parent links now that every ID is known.
	for i, entry := range arena {
		if entry.parentIdx < 0 {
			continue
		}
		if err := s.taxonomyRepo.SetParent(ctx, ids[i], ids[entry.parentIdx]); err != nil {
			return created, fmt.Errorf("import parent link failed for %q: %w", entry.term.Term, err)
		}
	}

	s.logger.Info("taxonomy seed imported",
		zap.Int("terms", len(arena)),
		zap.Int("created", created))

	return created, nil
}

// flattenSeed turns the nested seed into an arena of entries with integer
// parent indices. Parent references are resolved by term name within the
// same primary category.
func flattenSeed(seed *TaxonomySeed) ([]seedEntry, error) {
	var arena []seedEntry
	index := make(map[string]int)

	key := func(primary, term string) string {
		return strings.ToLower(primary) + "\x00" + strings.ToLower(term)
	}

	add := func(term SeedTerm, primary, sub string) error {
		term.Term = strings.TrimSpace(term.Term)
		if term.Term == "" {
			return fmt.Errorf("taxonomy seed contains an empty term under category %q", primary)
		}
		k := key(primary, term.Term)
		if _, dup := index[k]; dup {
			return fmt.Errorf("taxonomy seed defines %q twice under category %q", term.Term, primary)
		}
		index[k] = len(arena)
		arena = append(arena, seedEntry{term: term, primaryCategory: primary, subcategory: sub, parentIdx: -1})
		return nil
	}

	for _, cat := range seed.Categories {
		name := strings.TrimSpace(cat.Name)
		if name == "" {
			return nil, fmt.Errorf("taxonomy seed contains a category without a name")
		}
		for _, term := range cat.Terms {
			if err := add(term, name, ""); err != nil {
				return nil, err
			}
		}
		for _, sub := range cat.Subcategories {
			for _, term := range sub.Terms {
				if err := add(term, name, strings.TrimSpace(sub.Name)); err != nil {
					return nil, err
				}
			}
		}
	}

	for i := range arena {
		parent := strings.TrimSpace(arena[i].term.Parent)
		if parent == "" {
			continue
		}
		idx, ok := index[key(arena[i].primaryCategory, parent)]
		if !ok {
			return nil, fmt.Errorf("term %q names unknown parent %q", arena[i].term.Term, parent)
		}
		arena[i].parentIdx = idx
	}

	return arena, nil
}

// validateAcyclic rejects seeds whose parent links form a cycle. Walking by
// arena index bounds the traversal at the arena size.
func validateAcyclic(arena []seedEntry) error {
	for start := range arena {
		idx := arena[start].parentIdx
		steps := 0
		for idx >= 0 {
			if idx == start {
				return fmt.Errorf("taxonomy seed contains a parent cycle through %q", arena[start].term.Term)
			}
			idx = arena[idx].parentIdx
			if steps++; steps > len(arena) {
				return fmt.Errorf("taxonomy seed contains a parent cycle")
			}
		}
	}
	return nil
}
