package engine

import (
	"encoding/json"
	"fmt"
	"os"
)

// ValidateRuleset validates a ruleset for correctness and playability
func ValidateRuleset(rules *Ruleset) error {
	if rules.Name == "" {
		return fmt.Errorf("ruleset validation: name is required")
	}

	if rules.Width < MinGridSize || rules.Width > MaxGridSize {
		return fmt.Errorf("ruleset validation: width must be between %d and %d, got %d", MinGridSize, MaxGridSize, rules.Width)
	}
	if rules.Height < MinGridSize || rules.Height > MaxGridSize {
		return fmt.Errorf("ruleset validation: height must be between %d and %d, got %d", MinGridSize, MaxGridSize, rules.Height)
	}

	if len(rules.Fleet) == 0 {
		return fmt.Errorf("ruleset validation: fleet must contain at least one ship")
	}
	if len(rules.Fleet) > MaxFleetSize {
		return fmt.Errorf("ruleset validation: fleet may contain at most %d ships, got %d", MaxFleetSize, len(rules.Fleet))
	}

	longest := max(rules.Width, rules.Height)
	names := make(map[string]bool, len(rules.Fleet))
	for i, ship := range rules.Fleet {
		if ship.Name == "" {
			return fmt.Errorf("ruleset validation: fleet[%d] name is required", i)
		}
		// placements identify ships by name
		if names[ship.Name] {
			return fmt.Errorf("ruleset validation: ship name %q is used twice", ship.Name)
		}
		names[ship.Name] = true
		if ship.Length < 1 || ship.Length > longest {
			return fmt.Errorf("ruleset validation: ship %q length must be between 1 and %d, got %d", ship.Name, longest, ship.Length)
		}
	}

	// A fleet that covers more than half the board leaves no room to hide.
	if cells := rules.FleetCells(); cells*2 > rules.Width*rules.Height {
		return fmt.Errorf("ruleset validation: fleet occupies %d of %d cells, at most half is allowed", cells, rules.Width*rules.Height)
	}

	return nil
}

// LoadRuleset loads and validates a ruleset from a JSON file
func LoadRuleset(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var rules Ruleset
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse ruleset '%s': %w", path, err)
	}

	if err := ValidateRuleset(&rules); err != nil {
		return nil, err
	}

	return &rules, nil
}
