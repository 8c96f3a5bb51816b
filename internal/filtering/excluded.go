package filtering

import (
	"encoding/json"
	"errors"
	"os"
	"slices"
	"time"

	"github.com/spigell/career-matcher/internal/matching"
)

// ExcludedCareers is the on-disk format of an exclude file.
type ExcludedCareers struct {
	Items []*ExcludedCareer `json:"items"`
}

type ExcludedCareer struct {
	ID         string    `json:"id"`
	Title      string    `json:"title,omitempty"`
	ExcludedAt time.Time `json:"excludedAt"`
}

// ToExcluded converts results into exclude file entries stamped with now.
func ToExcluded(results []matching.Result, now time.Time) *ExcludedCareers {
	excluded := &ExcludedCareers{}
	for _, r := range results {
		excluded.Items = append(excluded.Items, &ExcludedCareer{
			ID:         r.ID,
			Title:      r.Title,
			ExcludedAt: now.UTC(),
		})
	}
	return excluded
}

// LoadExcluded reads an exclude file. A missing or empty file is an empty list
// and null entries are dropped.
func LoadExcluded(path string) (*ExcludedCareers, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return &ExcludedCareers{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedCareers{}, nil
	}

	var excluded ExcludedCareers
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	excluded.Items = slices.DeleteFunc(excluded.Items, func(item *ExcludedCareer) bool {
		return item == nil
	})
	return &excluded, nil
}

// Append adds entries whose id is not already present.
func (e *ExcludedCareers) Append(s *ExcludedCareers) {
	ids := e.IDs()
	for _, item := range s.Items {
		if item == nil || slices.Contains(ids, item.ID) {
			continue
		}
		e.Items = append(e.Items, item)
		ids = append(ids, item.ID)
	}
}

func (e *ExcludedCareers) IDs() []string {
	ids := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		if item == nil {
			continue
		}
		ids = append(ids, item.ID)
	}
	return ids
}

func (e *ExcludedCareers) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}
