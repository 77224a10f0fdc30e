package permission

import (
	"reflect"
	"testing"
)

func TestMatches(t *testing.T) {
	cases := []struct {
		granted  string
		required string
		want     bool
	}{
		{"view-members", "view-members", true},
		{"View-Members", "view-members", true},
		{"view-members", "edit-members", false},
		{"view-*", "view-members", true},
		{"view-*", "edit-members", false},
		{"*", "anything", true},
		{"", "view-members", false},
		{"view-members", "", false},
	}
	for _, c := range cases {
		if got := Matches(c.granted, c.required); got != c.want {
			t.Errorf("Matches(%q, %q) = %v, want %v", c.granted, c.required, got, c.want)
		}
	}
}

func TestHasSlug(t *testing.T) {
	granted := []string{"view-members", "edit-billing", "reports-*"}
	if !HasSlug(granted, "view-members") {
		t.Error("expected exact match")
	}
	if !HasSlug(granted, "reports-export") {
		t.Error("expected wildcard match")
	}
	if HasSlug(granted, "manage-settings") {
		t.Error("unexpected match")
	}
	if HasSlug(nil, "view-members") {
		t.Error("empty grant set matched")
	}
}

func TestNormalizeSlugs(t *testing.T) {
	got := NormalizeSlugs([]string{"View-Members", "edit-billing", "view-members", "", "  edit-billing  "})
	want := []string{"edit-billing", "view-members"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeSlugs = %v, want %v", got, want)
	}
}
