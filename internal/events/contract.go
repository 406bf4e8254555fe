package events

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed contracts/*.yaml
var contractFS embed.FS

// Contract is the published schema of one event stream.
type Contract struct {
	Name        string               `yaml:"name"`
	Version     int                  `yaml:"version"`
	Description string               `yaml:"description"`
	Fields      map[string]FieldSpec `yaml:"fields"`
}

type FieldSpec struct {
	Type        string `yaml:"type"`
	Required    bool   `yaml:"required"`
	Description string `yaml:"description"`
}

// Required lists required field names, sorted.
func (c Contract) Required() []string {
	var out []string
	for name, f := range c.Fields {
		if f.Required {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

var (
	contractsOnce sync.Once
	contracts     map[string]Contract
	contractsErr  error
)

// Contracts loads every embedded contract, keyed by event name.
func Contracts() (map[string]Contract, error) {
	contractsOnce.Do(func() {
		contracts, contractsErr = loadContracts()
	})
	return contracts, contractsErr
}

func LoadContract(name string) (Contract, error) {
	all, err := Contracts()
	if err != nil {
		return Contract{}, err
	}
	c, ok := all[name]
	if !ok {
		return Contract{}, fmt.Errorf("events: no contract %q", name)
	}
	return c, nil
}

func loadContracts() (map[string]Contract, error) {
	entries, err := contractFS.ReadDir("contracts")
	if err != nil {
		return nil, fmt.Errorf("events: read contracts: %w", err)
	}
	out := make(map[string]Contract, len(entries))
	for _, e := range entries {
		raw, err := contractFS.ReadFile(path.Join("contracts", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("events: read %s: %w", e.Name(), err)
		}
		var c Contract
		if err := yaml.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("events: parse %s: %w", e.Name(), err)
		}
		if c.Name == "" || len(c.Fields) == 0 {
			return nil, fmt.Errorf("events: %s: name and fields are required", e.Name())
		}
		out[c.Name] = c
	}
	return out, nil
}
