// Package catalog computes validated change-sets for single-entity edit
// operations (rename, recategorize, reposition, role-binding edits). The
// functions here are pure: the interactive shells and HTTP handlers gather
// selections, call into this package with a snapshot of the current state, and
// hand the resulting change-set to a store for a transactional apply. Nothing
// in this package touches the database.
package catalog

import (
	"strings"

	"github.com/gymstack/rbac/models"
	"github.com/gymstack/rbac/ordering"
)

// Selection is a structured identifier: the resolved entity id plus the label
// shown to the operator. Shells pass tokens (an id or an exact name) and get
// back a Selection, never a rendered string to re-parse.
type Selection struct {
	ID    string
	Label string
}

// Sibling is the minimal view of an entity needed for duplicate-name checks.
type Sibling struct {
	ID   string
	Name string
}

// Resolve matches a token against candidates by exact id first, then exact
// name (case-insensitive). Returns ErrNotFound when nothing matches.
func Resolve(candidates []Selection, token string) (Selection, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Selection{}, models.ErrNotFound
	}
	for _, c := range candidates {
		if c.ID == token {
			return c, nil
		}
	}
	for _, c := range candidates {
		if strings.EqualFold(c.Label, token) {
			return c, nil
		}
	}
	return Selection{}, models.ErrNotFound
}

// RenameChange renames one entity. NewSlug is empty for categories, which
// carry no slug.
type RenameChange struct {
	ID      string
	NewName string
	NewSlug string
}

// ComputeRename validates a rename against the entity's siblings. The new
// name must be non-empty and must not collide with any sibling other than the
// entity itself. withSlug recomputes the slug from the new name (tasks).
func ComputeRename(siblings []Sibling, id, newName string, withSlug bool) (RenameChange, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return RenameChange{}, models.ErrNameRequired
	}
	found := false
	for _, s := range siblings {
		if s.ID == id {
			found = true
			continue
		}
		if strings.EqualFold(s.Name, newName) {
			return RenameChange{}, models.ErrDuplicateName
		}
	}
	if !found {
		return RenameChange{}, models.ErrNotFound
	}
	ch := RenameChange{ID: id, NewName: newName}
	if withSlug {
		ch.NewSlug = models.Slugify(newName)
	}
	return ch, nil
}

// RepositionChange moves one entity within its ordered sibling list.
type RepositionChange struct {
	ID   string
	Plan ordering.Plan
}

// ComputeReposition validates the 1-based target position and produces the
// ordering plan for the move.
func ComputeReposition(items []ordering.Item, id string, position int) (RepositionChange, error) {
	plan, err := ordering.PlanMove(items, id, position)
	if err != nil {
		return RepositionChange{}, err
	}
	return RepositionChange{ID: id, Plan: plan}, nil
}

// RecategorizeChange reassigns a task to a category, or to none.
type RecategorizeChange struct {
	TaskID     string
	CategoryID *string // nil means uncategorized
}

// Uncategorized is the selection token that detaches a task from any category.
const Uncategorized = "uncategorized"

// ComputeRecategorize resolves the category token among the module's active
// categories. The literal token "uncategorized" clears the assignment.
func ComputeRecategorize(categories []Selection, taskID, categoryToken string) (RecategorizeChange, error) {
	if strings.EqualFold(strings.TrimSpace(categoryToken), Uncategorized) {
		return RecategorizeChange{TaskID: taskID}, nil
	}
	sel, err := Resolve(categories, categoryToken)
	if err != nil {
		return RecategorizeChange{}, err
	}
	id := sel.ID
	return RecategorizeChange{TaskID: taskID, CategoryID: &id}, nil
}

// RoleRef is the view of a role needed to validate binding edits.
type RoleRef struct {
	ID      string
	Name    string
	IsFixed bool
}

// BindingChange toggles one role-task binding.
type BindingChange struct {
	RoleID   string
	TaskID   string
	Activate bool
}

// ComputeBindingChanges turns add/remove role-name lists into binding toggles
// for one task. Role names that do not resolve are returned in missing and are
// not an error; a resolved role with IsFixed set rejects the whole edit.
func ComputeBindingChanges(roles []RoleRef, taskID string, add, remove []string) ([]BindingChange, []string, error) {
	byName := make(map[string]RoleRef, len(roles))
	for _, r := range roles {
		byName[strings.ToLower(r.Name)] = r
	}
	var changes []BindingChange
	var missing []string
	appendOne := func(name string, activate bool) error {
		r, ok := byName[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			missing = append(missing, name)
			return nil
		}
		if r.IsFixed {
			return models.ErrFixedRole
		}
		changes = append(changes, BindingChange{RoleID: r.ID, TaskID: taskID, Activate: activate})
		return nil
	}
	for _, name := range add {
		if err := appendOne(name, true); err != nil {
			return nil, nil, err
		}
	}
	for _, name := range remove {
		if err := appendOne(name, false); err != nil {
			return nil, nil, err
		}
	}
	return changes, missing, nil
}
