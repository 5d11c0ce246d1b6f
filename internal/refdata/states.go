// Package refdata holds the static 50-state reference table used to resolve
// state codes into canonical names and Census groupings.
package refdata

import (
	_ "embed"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// StateInfo is one state's reference entry.
type StateInfo struct {
	Name           string `yaml:"name" json:"name"`
	USPSCode       string `yaml:"usps_code" json:"usps_code"`
	FIPSCode       string `yaml:"fips_code" json:"fips_code"`
	CensusRegion   string `yaml:"census_region" json:"census_region"`
	CensusDivision string `yaml:"census_division" json:"census_division"`
}

// Directory resolves state codes to reference info. Validation and output
// logic depend only on this interface so tests can inject a fake.
type Directory interface {
	// ByCode looks up a state by 2-letter USPS code, case-insensitive.
	ByCode(code string) (StateInfo, bool)
	// All returns every entry in table order.
	All() []StateInfo
}

//go:embed states.yaml
var statesYAML []byte

type staticDirectory struct {
	byCode map[string]StateInfo
	all    []StateInfo
}

// Load parses the embedded state table into a Directory.
func Load() (Directory, error) {
	var doc struct {
		States []StateInfo `yaml:"states"`
	}
	if err := yaml.Unmarshal(statesYAML, &doc); err != nil {
		return nil, eris.Wrap(err, "refdata: unmarshal states.yaml")
	}
	if len(doc.States) == 0 {
		return nil, eris.New("refdata: empty state table")
	}

	d := &staticDirectory{
		byCode: make(map[string]StateInfo, len(doc.States)),
		all:    doc.States,
	}
	for _, s := range doc.States {
		d.byCode[strings.ToUpper(s.USPSCode)] = s
	}
	return d, nil
}

func (d *staticDirectory) ByCode(code string) (StateInfo, bool) {
	info, ok := d.byCode[strings.ToUpper(strings.TrimSpace(code))]
	return info, ok
}

func (d *staticDirectory) All() []StateInfo {
	out := make([]StateInfo, len(d.all))
	copy(out, d.all)
	return out
}
