package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"View Members", "view-members"},
		{"  Check-In / Out  ", "check-in-out"},
		{"Reports", "reports"},
		{"POS & Till 2", "pos-till-2"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestModuleValidation(t *testing.T) {
	if !ModuleFOH.IsValid() || !ModulePortal.IsValid() {
		t.Error("built-in modules must be valid")
	}
	if Module("cms").IsValid() {
		t.Error("unknown module must be invalid")
	}
	if Module("FOH").Normalize() != ModuleFOH {
		t.Error("Normalize must lowercase known modules")
	}

	var m Module
	if err := json.Unmarshal([]byte(`"Portal"`), &m); err != nil || m != ModulePortal {
		t.Errorf("unmarshal = %v, %v", m, err)
	}
	if err := json.Unmarshal([]byte(`"cms"`), &m); err == nil {
		t.Error("expected error for unknown module")
	}
}

func TestRoleUserDeleteRestore(t *testing.T) {
	ru := RoleUser{ID: "x"}
	at := time.Now().UTC()
	ru.MarkDeleted(at)
	if !ru.IsDeleted || ru.DeletedAt == nil || !ru.DeletedAt.Equal(at) {
		t.Errorf("MarkDeleted left inconsistent state: %+v", ru)
	}
	ru.Restore()
	if ru.IsDeleted || ru.DeletedAt != nil {
		t.Errorf("Restore left inconsistent state: %+v", ru)
	}
}
