package app

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
)

type catalogFile struct {
	Roles []domain.RoleDefinition `yaml:"roles"`
}

// LoadRoleCatalog reads a role catalog such as
//
//	roles:
//	  - scope: workflow
//	    name: viewer
//
// An empty path yields the built-in catalog.
func LoadRoleCatalog(path string) ([]domain.RoleDefinition, error) {
	if path == "" {
		return domain.DefaultRoleCatalog(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read role catalog: %w", err)
	}

	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse role catalog %s: %w", path, err)
	}
	if len(f.Roles) == 0 {
		return nil, fmt.Errorf("role catalog %s defines no roles", path)
	}
	return f.Roles, nil
}
