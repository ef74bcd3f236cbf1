package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/battleship-server/game/engine"
	"github.com/wricardo/battleship-server/game/service"
)

var (
	ErrRulesetNotFound = service.ErrRulesetNotFound
	ErrInvalidRuleset  = errors.New("invalid ruleset")
)

// DefaultRuleset is the file name tried first for the default ruleset
const DefaultRuleset = "classic"

// Manager handles ruleset loading and caching
type Manager struct {
	configDir      string
	defaultRuleset *engine.Ruleset
	rulesets       map[string]*engine.Ruleset
	mu             sync.RWMutex
}

// NewManager creates a new ruleset manager reading JSON files from configDir
func NewManager(configDir string) (*Manager, error) {
	info, err := os.Stat(configDir)
	if err != nil {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("config path is not a directory: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		rulesets:  make(map[string]*engine.Ruleset),
	}

	m.loadDefaultRuleset()
	return m, nil
}

// LoadRuleset loads a ruleset by name, with or without the .json extension
func (m *Manager) LoadRuleset(name string) (*engine.Ruleset, error) {
	name = strings.TrimSuffix(name, ".json")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return nil, fmt.Errorf("%w: %q", ErrRulesetNotFound, name)
	}

	m.mu.RLock()
	if rules, exists := m.rulesets[name]; exists {
		m.mu.RUnlock()
		return rules, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if rules, exists := m.rulesets[name]; exists {
		return rules, nil
	}

	rules, err := engine.LoadRuleset(filepath.Join(m.configDir, name+".json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRulesetNotFound, name)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidRuleset, err)
	}

	m.rulesets[name] = rules
	return rules, nil
}

// ListRulesets returns information about every loadable ruleset, sorted by id.
// Files that fail validation are skipped.
func (m *Manager) ListRulesets() ([]*service.RulesetInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var rulesets []*service.RulesetInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), ".json")
		rules, err := m.LoadRuleset(id)
		if err != nil {
			continue
		}

		rulesets = append(rulesets, &service.RulesetInfo{
			Filename:    entry.Name(),
			RulesetID:   id,
			Name:        rules.Name,
			Description: rules.Description,
			Width:       rules.Width,
			Height:      rules.Height,
			Fleet:       rules.Fleet,
			FleetCells:  rules.FleetCells(),
		})
	}

	sort.Slice(rulesets, func(i, j int) bool {
		return rulesets[i].RulesetID < rulesets[j].RulesetID
	})
	return rulesets, nil
}

// GetDefault returns the default ruleset
func (m *Manager) GetDefault() *engine.Ruleset {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultRuleset
}

// SetDefault sets the default ruleset by name
func (m *Manager) SetDefault(name string) error {
	rules, err := m.LoadRuleset(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultRuleset = rules
	return nil
}

// RefreshCache drops every cached ruleset and reloads the default from disk
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	m.rulesets = make(map[string]*engine.Ruleset)
	m.mu.Unlock()

	m.loadDefaultRuleset()
}

// loadDefaultRuleset picks classic.json, then the first valid file, then
// the built-in classic ruleset.
func (m *Manager) loadDefaultRuleset() {
	rules, err := m.LoadRuleset(DefaultRuleset)
	if err != nil {
		rules = engine.ClassicRuleset()
		if available, listErr := m.ListRulesets(); listErr == nil && len(available) > 0 {
			if first, loadErr := m.LoadRuleset(available[0].RulesetID); loadErr == nil {
				rules = first
			}
		}
	}

	m.mu.Lock()
	m.defaultRuleset = rules
	m.mu.Unlock()
}
