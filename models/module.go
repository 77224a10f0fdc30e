package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Module is an enum-like string type naming a permission namespace.
type Module string

const (
	ModuleFOH    Module = "foh"    // front-of-house staff permissions
	ModulePortal Module = "portal" // customer portal permissions
)

// IsValid returns true if m is one of the allowed constants.
func (m Module) IsValid() bool {
	s := strings.ToLower(string(m))
	return s == string(ModuleFOH) || s == string(ModulePortal)
}

// Normalize returns the canonical lowercase form if valid; otherwise returns original.
func (m Module) Normalize() Module {
	s := strings.ToLower(string(m))
	switch s {
	case string(ModuleFOH):
		return ModuleFOH
	case string(ModulePortal):
		return ModulePortal
	default:
		return m
	}
}

// UnmarshalJSON implements strict validation for Module.
func (m *Module) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.ToLower(strings.TrimSpace(s))
	mod := Module(s)
	if !mod.IsValid() {
		return fmt.Errorf("invalid module: %q (allowed: 'foh','portal')", s)
	}
	*m = mod.Normalize()
	return nil
}
