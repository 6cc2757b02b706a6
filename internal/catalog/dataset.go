package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rizwanabrish101/shayari/internal/domain"
	"github.com/rizwanabrish101/shayari/internal/errors"
	"github.com/rizwanabrish101/shayari/internal/validation"
)

//go:embed seed/shayari.yaml
var defaultDataset []byte

// Dataset is the YAML form of a full catalog. Record order is catalog order.
type Dataset struct {
	Version    int              `yaml:"version" validate:"omitempty,eq=1"`
	Poets      []PoetRecord     `yaml:"poets" validate:"required,min=1,dive"`
	Categories []CategoryRecord `yaml:"categories" validate:"required,min=1,dive"`
	Verses     []VerseRecord    `yaml:"verses" validate:"dive"`
}

// PoetRecord is one poet in a dataset file.
type PoetRecord struct {
	ID            string `yaml:"id" validate:"required,notblank"`
	Name          string `yaml:"name" validate:"required,notblank"`
	UrduName      string `yaml:"urdu_name" validate:"required,notblank"`
	Title         string `yaml:"title"`
	UrduTitle     string `yaml:"urdu_title"`
	BirthYear     int    `yaml:"birth_year" validate:"gte=0"`
	DeathYear     *int   `yaml:"death_year" validate:"omitempty,gte=0"`
	Biography     string `yaml:"biography"`
	UrduBiography string `yaml:"urdu_biography"`
	ImageURL      string `yaml:"image_url" validate:"omitempty,url"`
}

// CategoryRecord is one category in a dataset file.
type CategoryRecord struct {
	ID          string `yaml:"id" validate:"required,notblank"`
	Name        string `yaml:"name" validate:"required,notblank"`
	UrduName    string `yaml:"urdu_name" validate:"required,notblank"`
	Description string `yaml:"description"`
	Icon        string `yaml:"icon"`
}

// VerseRecord is one verse in a dataset file. Poet and Category hold IDs;
// a verse referring to an unknown poet or category is kept but never listed.
type VerseRecord struct {
	ID              string `yaml:"id" validate:"required,notblank"`
	Poet            string `yaml:"poet" validate:"required"`
	Category        string `yaml:"category" validate:"required"`
	Featured        bool   `yaml:"featured"`
	Text            string `yaml:"text" validate:"required,notblank"`
	Transliteration string `yaml:"transliteration"`
	Translation     string `yaml:"translation"`
}

// Parse decodes and validates a YAML dataset. Unknown keys are rejected.
func Parse(r io.Reader) (*Dataset, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var d Dataset
	if err := dec.Decode(&d); err != nil {
		return nil, errors.Wrap(err, errors.CodeValidation, "parse dataset")
	}
	if err := d.Validate(validation.New()); err != nil {
		return nil, err
	}
	return &d, nil
}

// LoadFile reads and parses the dataset at path.
func LoadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Default returns the embedded dataset.
func Default() (*Dataset, error) {
	return Parse(bytes.NewReader(defaultDataset))
}

// Validate checks field constraints and that IDs are unique per kind.
func (d *Dataset) Validate(v *validation.Validator) error {
	if err := v.Validate(d); err != nil {
		return err
	}

	problems := map[string]string{}
	check := func(kind string, ids []string) {
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			if seen[id] {
				problems[kind] = fmt.Sprintf("duplicate id %q", id)
				return
			}
			seen[id] = true
		}
	}
	check("poets", collectIDs(d.Poets, func(p PoetRecord) string { return p.ID }))
	check("categories", collectIDs(d.Categories, func(c CategoryRecord) string { return c.ID }))
	check("verses", collectIDs(d.Verses, func(vr VerseRecord) string { return vr.ID }))
	for _, p := range d.Poets {
		if p.DeathYear != nil && *p.DeathYear < p.BirthYear {
			problems["poets"] = fmt.Sprintf("poet %q died before birth", p.ID)
		}
	}
	if len(problems) > 0 {
		return errors.ValidationWithDetails("validation failed", problems)
	}
	return nil
}

func collectIDs[T any](records []T, id func(T) string) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = id(r)
	}
	return out
}

// Records converts the dataset into domain values, numbering positions in
// file order.
func (d *Dataset) Records() ([]*domain.Poet, []*domain.Category, []*domain.Verse) {
	poets := make([]*domain.Poet, len(d.Poets))
	for i, p := range d.Poets {
		poets[i] = &domain.Poet{
			ID:            p.ID,
			Name:          p.Name,
			UrduName:      p.UrduName,
			Title:         p.Title,
			UrduTitle:     p.UrduTitle,
			BirthYear:     p.BirthYear,
			DeathYear:     p.DeathYear,
			Biography:     p.Biography,
			UrduBiography: p.UrduBiography,
			ImageURL:      p.ImageURL,
			Position:      i,
		}
	}

	categories := make([]*domain.Category, len(d.Categories))
	for i, c := range d.Categories {
		categories[i] = &domain.Category{
			ID:          c.ID,
			Name:        c.Name,
			UrduName:    c.UrduName,
			Description: c.Description,
			Icon:        c.Icon,
			Position:    i,
		}
	}

	verses := make([]*domain.Verse, len(d.Verses))
	for i, v := range d.Verses {
		verses[i] = &domain.Verse{
			ID:              v.ID,
			PoetID:          v.Poet,
			CategoryID:      v.Category,
			Text:            strings.TrimSpace(v.Text),
			Transliteration: strings.TrimSpace(v.Transliteration),
			Translation:     strings.TrimSpace(v.Translation),
			IsFeatured:      v.Featured,
			Position:        i,
		}
	}
	return poets, categories, verses
}
