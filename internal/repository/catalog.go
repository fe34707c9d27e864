package repository

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/iliyamo/cineplex-booking/internal/model"
)

//go:embed catalog_default.json
var defaultCatalog []byte

// Catalog is the seed file format: movies, cineplexes and their cinemas.
type Catalog struct {
	Movies     []model.Movie    `json:"movies"`
	Cineplexes []model.Cineplex `json:"cineplexes"`
	Cinemas    []model.Cinema   `json:"cinemas"`
}

// LoadCatalog seeds the store from path, or from the bundled demo catalog
// when path is empty.
func LoadCatalog(s *Store, path string) (Catalog, error) {
	raw := defaultCatalog
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Catalog{}, fmt.Errorf("read catalog: %w", err)
		}
		raw = b
	}
	var c Catalog
	if err := json.Unmarshal(raw, &c); err != nil {
		return Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}
	return c, c.Apply(s)
}

// Apply registers the catalog entries; cineplexes go first so cinemas can
// link to them.
func (c Catalog) Apply(s *Store) error {
	for _, m := range c.Movies {
		if err := s.PutMovie(m); err != nil {
			return err
		}
	}
	for _, cp := range c.Cineplexes {
		if err := s.PutCineplex(model.Cineplex{ID: cp.ID, Name: cp.Name}); err != nil {
			return err
		}
	}
	for _, cn := range c.Cinemas {
		if err := s.PutCinema(cn); err != nil {
			return err
		}
	}
	return nil
}
