// Package crops holds the read-only crop storage profiles.
package crops

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed crops.yml
var builtinDataset []byte

// DefaultQ10 is used for profiles that do not specify a temperature coefficient.
const DefaultQ10 = 2.0

// CropProfile holds the storage parameters for one crop type.
type CropProfile struct {
	Name            string   `yaml:"name" json:"name"`
	Category        string   `yaml:"category" json:"category"`
	TempLowC        float64  `yaml:"temp_min" json:"temp_min_c"`
	TempHighC       float64  `yaml:"temp_max" json:"temp_max_c"`
	HumidityLowPct  float64  `yaml:"humidity_min" json:"humidity_min_pct"`
	HumidityHighPct float64  `yaml:"humidity_max" json:"humidity_max_pct"`
	ChillingInjuryC *float64 `yaml:"chilling_injury_c,omitempty" json:"chilling_injury_c,omitempty"`
	ShelfLifeDays   float64  `yaml:"shelf_life_days" json:"shelf_life_days"`
	Q10             float64  `yaml:"q10,omitempty" json:"q10"`
}

// HasChillingThreshold reports whether the crop suffers chilling injury.
func (p CropProfile) HasChillingThreshold() bool {
	return p.ChillingInjuryC != nil
}

func (p CropProfile) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("name is empty")
	}
	for _, v := range []float64{p.TempLowC, p.TempHighC, p.HumidityLowPct, p.HumidityHighPct, p.ShelfLifeDays, p.Q10} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("non-finite value")
		}
	}
	if p.TempLowC > p.TempHighC {
		return fmt.Errorf("temperature band inverted (%v > %v)", p.TempLowC, p.TempHighC)
	}
	if p.HumidityLowPct > p.HumidityHighPct {
		return fmt.Errorf("humidity band inverted (%v > %v)", p.HumidityLowPct, p.HumidityHighPct)
	}
	if p.HumidityLowPct < 0 || p.HumidityHighPct > 100 {
		return errors.New("humidity band outside [0,100]")
	}
	if p.ShelfLifeDays <= 0 {
		return errors.New("shelf life must be positive")
	}
	if p.Q10 <= 0 {
		return errors.New("q10 must be positive")
	}
	return nil
}

// Store is an immutable crop lookup table. It is safe for concurrent use.
type Store struct {
	byKey map[string]CropProfile
	names []string
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Parse builds a store from a YAML list of profiles.
func Parse(data []byte) (*Store, error) {
	var profiles []CropProfile
	if err := yaml.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("failed to decode crop dataset: %w", err)
	}
	return New(profiles)
}

// New builds a store from profiles, validating each one.
func New(profiles []CropProfile) (*Store, error) {
	if len(profiles) == 0 {
		return nil, errors.New("crop dataset is empty")
	}
	s := &Store{byKey: make(map[string]CropProfile, len(profiles))}
	for i, p := range profiles {
		p.Name = strings.TrimSpace(p.Name)
		if p.Q10 == 0 {
			p.Q10 = DefaultQ10
		}
		if err := p.validate(); err != nil {
			return nil, fmt.Errorf("crop profile %d (%q): %w", i, p.Name, err)
		}
		k := key(p.Name)
		if _, dup := s.byKey[k]; dup {
			return nil, fmt.Errorf("duplicate crop profile %q", p.Name)
		}
		s.byKey[k] = p
		s.names = append(s.names, p.Name)
	}
	sort.Strings(s.names)
	return s, nil
}

// Builtin returns the store backed by the embedded dataset.
func Builtin() (*Store, error) {
	return Parse(builtinDataset)
}

// Load reads the dataset at path, or the embedded one when path is empty.
func Load(path string) (*Store, error) {
	if path == "" {
		return Builtin()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read crop dataset: %w", err)
	}
	return Parse(data)
}

// Lookup finds a profile by crop name, ignoring case and surrounding space.
func (s *Store) Lookup(name string) (CropProfile, bool) {
	p, ok := s.byKey[key(name)]
	return p, ok
}

// Names returns the sorted crop names.
func (s *Store) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// All returns every profile sorted by name.
func (s *Store) All() []CropProfile {
	out := make([]CropProfile, 0, len(s.names))
	for _, n := range s.names {
		out = append(out, s.byKey[key(n)])
	}
	return out
}

// Len returns the number of profiles.
func (s *Store) Len() int {
	return len(s.names)
}
