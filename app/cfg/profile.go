package cfg

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultListEndpoint   = "/facts"
	DefaultRandomEndpoint = "/facts/random"
	DefaultPageSize       = 100
	DefaultMaxPages       = 10
	DefaultBulkAmount     = 500
)

// LoadProfile reads an API profile from a YAML file.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to read profile %s: %w", path, err)
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return Profile{}, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}

	if err := validateProfile(profile); err != nil {
		return Profile{}, fmt.Errorf("invalid profile %s: %w", path, err)
	}

	return profile, nil
}

// mergeProfile overlays the non-zero values of override onto base.
func mergeProfile(base, override Profile) Profile {
	if override.Strategy != "" {
		base.Strategy = override.Strategy
	}
	if override.Endpoints.List != "" {
		base.Endpoints.List = override.Endpoints.List
	}
	if override.Endpoints.Random != "" {
		base.Endpoints.Random = override.Endpoints.Random
	}
	if override.PageSize > 0 {
		base.PageSize = override.PageSize
	}
	if override.MaxPages > 0 {
		base.MaxPages = override.MaxPages
	}
	if override.BulkAmount > 0 {
		base.BulkAmount = override.BulkAmount
	}
	return base
}

func applyProfileDefaults(p *Profile) {
	if p.Strategy == "" {
		p.Strategy = StrategyAuto
	}
	if p.Endpoints.List == "" {
		p.Endpoints.List = DefaultListEndpoint
	}
	if p.Endpoints.Random == "" {
		p.Endpoints.Random = DefaultRandomEndpoint
	}
	if p.PageSize == 0 {
		p.PageSize = DefaultPageSize
	}
	if p.MaxPages == 0 {
		p.MaxPages = DefaultMaxPages
	}
	if p.BulkAmount == 0 {
		p.BulkAmount = DefaultBulkAmount
	}
}

func validateProfile(p Profile) error {
	switch p.Strategy {
	case "", StrategyAuto, StrategyBulk, StrategyPaginated:
	default:
		return fmt.Errorf("unknown strategy: %s", p.Strategy)
	}

	if p.PageSize < 0 {
		return fmt.Errorf("page size must be non-negative")
	}
	if p.MaxPages < 0 {
		return fmt.Errorf("max pages must be non-negative")
	}
	if p.BulkAmount < 0 {
		return fmt.Errorf("bulk amount must be non-negative")
	}

	return nil
}
