package launch

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const ProfileSchemaV1 = "streamforge.launch_profile.v1"

// Profile carries the cluster-wide launch defaults an operator configures
// once per deployment: runtime classpath entries, heap tuning, and the
// storage paths containers need delegation tokens for.
type Profile struct {
	Schema            string            `yaml:"schema"`
	ClasspathEntries  []string          `yaml:"classpath_entries"`
	MemoryBudgetMB    int               `yaml:"memory_budget_mb"`
	HeapCutoffRatio   float64           `yaml:"heap_cutoff_ratio"`
	HeapLimitCapMB    int               `yaml:"heap_limit_cap_mb"`
	TokenStoragePaths []string          `yaml:"token_storage_paths"`
	BaseEnvironment   map[string]string `yaml:"base_environment"`
}

func ParseProfile(input []byte) (Profile, error) {
	var profile Profile
	if err := yaml.Unmarshal(input, &profile); err != nil {
		return Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	profile.applyDefaults()
	if err := profile.Validate(); err != nil {
		return Profile{}, err
	}
	return profile, nil
}

func LoadProfile(path string) (Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile: %w", err)
	}
	return ParseProfile(raw)
}

func (p *Profile) applyDefaults() {
	if p.HeapCutoffRatio == 0 {
		p.HeapCutoffRatio = DefaultHeapCutoffRatio
	}
	if p.HeapLimitCapMB == 0 {
		p.HeapLimitCapMB = DefaultHeapLimitCapMB
	}
}

func (p Profile) Validate() error {
	if strings.TrimSpace(p.Schema) != ProfileSchemaV1 {
		return fmt.Errorf("profile.schema must be %q", ProfileSchemaV1)
	}
	if p.MemoryBudgetMB <= 0 {
		return errors.New("profile.memory_budget_mb must be positive")
	}
	if p.HeapCutoffRatio <= 0 || p.HeapCutoffRatio >= 1 {
		return errors.New("profile.heap_cutoff_ratio must be in (0, 1)")
	}
	if p.HeapLimitCapMB <= 0 {
		return errors.New("profile.heap_limit_cap_mb must be positive")
	}
	for i, entry := range p.ClasspathEntries {
		if strings.TrimSpace(entry) == "" {
			return fmt.Errorf("profile.classpath_entries[%d] is empty", i)
		}
	}
	for i, path := range p.TokenStoragePaths {
		if strings.TrimSpace(path) == "" {
			return fmt.Errorf("profile.token_storage_paths[%d] is empty", i)
		}
	}
	return nil
}
