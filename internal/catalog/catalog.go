// Package catalog loads the static set of careers the matching engine ranks.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"maps"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"go.yaml.in/yaml/v3"
)

//go:embed careers.yaml
var defaultCatalog []byte

var ErrNotFound = errors.New("career not found")

// Career is a catalog entry. Only HollandCodes and BigFiveRequirements are
// read by the matching engine, everything else is display metadata.
type Career struct {
	ID                  string           `json:"id" mapstructure:"id" validate:"required"`
	Title               string           `json:"title" mapstructure:"title" validate:"required"`
	Category            string           `json:"category" mapstructure:"category"`
	Education           string           `json:"education,omitempty" mapstructure:"education"`
	Description         string           `json:"description,omitempty" mapstructure:"description"`
	HollandCodes        []string         `json:"hollandCodes" mapstructure:"hollandCodes" validate:"min=1,max=3,unique,dive,oneof=R I A S E C"`
	BigFiveRequirements map[string]Level `json:"bigFiveRequirements" mapstructure:"bigFiveRequirements" validate:"dive,keys,oneof=O C E A N,endkeys"`
	Salary              string           `json:"salary,omitempty" mapstructure:"salary"`
	Skills              []string         `json:"skills,omitempty" mapstructure:"skills"`
	Roadmap             []string         `json:"roadmap,omitempty" mapstructure:"roadmap"`
}

// Clone returns a copy of the career that shares no slices or maps with c.
func (c Career) Clone() Career {
	c.HollandCodes = slices.Clone(c.HollandCodes)
	c.BigFiveRequirements = maps.Clone(c.BigFiveRequirements)
	c.Skills = slices.Clone(c.Skills)
	c.Roadmap = slices.Clone(c.Roadmap)
	return c
}

// Catalog is an ordered, immutable list of careers. It is safe for
// concurrent readers.
type Catalog struct {
	careers []Career
	index   map[string]int
}

// New copies careers into a Catalog. When ids repeat, Get returns the first.
func New(careers []Career) *Catalog {
	c := &Catalog{
		careers: make([]Career, 0, len(careers)),
		index:   make(map[string]int, len(careers)),
	}
	for i, career := range careers {
		c.careers = append(c.careers, career.Clone())
		if _, ok := c.index[career.ID]; !ok {
			c.index[career.ID] = i
		}
	}
	return c
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog file. An empty path selects the embedded catalog.
func Load(path string) (*Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %q: %w", path, err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %q: %w", path, err)
	}
	return c, nil
}

// Parse decodes a YAML (or JSON) document with a top-level "careers" list.
// Fields of the wrong shape decode to their zero value instead of failing so
// that one damaged entry does not take the catalog down; Validate reports them.
func Parse(data []byte) (*Catalog, error) {
	var doc struct {
		Careers []map[string]any `yaml:"careers"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	careers := make([]Career, 0, len(doc.Careers))
	for i, raw := range doc.Careers {
		var career Career
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				lenientContainersHook,
				mapstructure.TextUnmarshallerHookFunc(),
			),
			WeaklyTypedInput: true,
			Result:           &career,
		})
		if err != nil {
			return nil, err
		}
		if err := decoder.Decode(raw); err != nil {
			return nil, fmt.Errorf("career #%d: %w", i, err)
		}
		normalizeCodes(&career)
		careers = append(careers, career)
	}

	return New(careers), nil
}

// normalizeCodes trims and uppercases Holland codes and Big Five trait keys.
// When two keys fold to the same trait the one already in canonical form wins.
func normalizeCodes(career *Career) {
	for i, code := range career.HollandCodes {
		career.HollandCodes[i] = strings.ToUpper(strings.TrimSpace(code))
	}

	if len(career.BigFiveRequirements) == 0 {
		return
	}
	reqs := make(map[string]Level, len(career.BigFiveRequirements))
	for trait, level := range career.BigFiveRequirements {
		key := strings.ToUpper(strings.TrimSpace(trait))
		if _, ok := reqs[key]; ok && key != trait {
			continue
		}
		reqs[key] = level
	}
	career.BigFiveRequirements = reqs
}

// lenientContainersHook turns a list or map field of the wrong shape into an
// empty value of the target type.
func lenientContainersHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	switch to.Kind() {
	case reflect.Slice:
		if from.Kind() != reflect.Slice && from.Kind() != reflect.Array {
			return reflect.MakeSlice(to, 0, 0).Interface(), nil
		}
	case reflect.Map:
		if from.Kind() != reflect.Map {
			return reflect.MakeMap(to).Interface(), nil
		}
	}
	return data, nil
}

// Careers returns deep copies of the careers in catalog order.
func (c *Catalog) Careers() []Career {
	if c == nil {
		return nil
	}
	careers := make([]Career, 0, len(c.careers))
	for _, career := range c.careers {
		careers = append(careers, career.Clone())
	}
	return careers
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.careers)
}

func (c *Catalog) Get(id string) (Career, error) {
	if c != nil {
		if i, ok := c.index[id]; ok {
			return c.careers[i].Clone(), nil
		}
	}
	return Career{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Categories returns the distinct categories in first-seen order.
func (c *Catalog) Categories() []string {
	var categories []string
	for _, career := range c.Careers() {
		if career.Category != "" && !slices.Contains(categories, career.Category) {
			categories = append(categories, career.Category)
		}
	}
	return categories
}

// Validate runs the one-time integrity check over every entry and returns all
// problems joined together.
func (c *Catalog) Validate() error {
	validate := validator.New()

	var problems []error
	seen := make(map[string]int)
	for i, career := range c.Careers() {
		label := fmt.Sprintf("career #%d (%s)", i, career.ID)
		if err := validate.Struct(career); err != nil {
			problems = append(problems, fmt.Errorf("%s: %s", label, extractValidationErrors(err)))
		}
		if first, ok := seen[career.ID]; ok && career.ID != "" {
			problems = append(problems, fmt.Errorf("%s: duplicate id, first used by career #%d", label, first))
			continue
		}
		seen[career.ID] = i
	}

	return errors.Join(problems...)
}

func extractValidationErrors(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		msg := fmt.Sprintf("%s failed '%s'", fe.Namespace(), fe.Tag())
		if fe.Param() != "" {
			msg += fmt.Sprintf(" (%s)", fe.Param())
		}
		messages = append(messages, msg)
	}
	return strings.Join(messages, "; ")
}
