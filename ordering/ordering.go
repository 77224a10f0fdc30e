// Package ordering computes sort-order updates for ordered sibling entities
// (categories or tasks of one module). It is pure: callers load the current
// siblings, ask for a plan, and persist the resulting updates inside their own
// transaction. Plans renumber the list to a contiguous 1..N sequence, so gaps
// left by deletions are repaired as a side effect of the next mutation.
package ordering

import (
	"sort"

	"github.com/gymstack/rbac/models"
)

// Item is one sibling in the ordered list: its id and stored sort order.
type Item struct {
	ID    string
	Order int
}

// Update is a single required write: set the entity's sort order to Order.
// Items whose stored order already matches are omitted from plans, so a no-op
// mutation yields an empty plan.
type Update struct {
	ID    string
	Order int
}

// Plan is the set of writes a mutation requires, plus the order the subject
// entity itself receives (the inserted or moved one).
type Plan struct {
	Updates      []Update
	SubjectOrder int
}

// ranked returns items sorted by stored order, ties broken by input position.
func ranked(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// diff emits updates only for items whose stored order differs from the
// contiguous 1-based rank they hold in final.
func diff(final []Item) []Update {
	var ups []Update
	for i, it := range final {
		if want := i + 1; it.Order != want {
			ups = append(ups, Update{ID: it.ID, Order: want})
		}
	}
	return ups
}

// PlanInsert computes the writes needed to insert a new entity at the given
// 1-based position among items. Valid positions are 1..len(items)+1.
// The new entity is not part of items; it receives SubjectOrder = position.
func PlanInsert(items []Item, position int) (Plan, error) {
	if position < 1 || position > len(items)+1 {
		return Plan{}, models.ErrPositionOutOfRange
	}
	final := ranked(items)
	// Shift ranks at/after the insertion point by leaving a hole: renumber
	// everything, then bump ranks >= position.
	var ups []Update
	for i, it := range final {
		want := i + 1
		if want >= position {
			want++
		}
		if it.Order != want {
			ups = append(ups, Update{ID: it.ID, Order: want})
		}
	}
	return Plan{Updates: ups, SubjectOrder: position}, nil
}

// PlanMove computes the writes needed to move the entity with the given id to
// the 1-based position. Valid positions are 1..len(items); the id must be
// present. Only entities whose resulting contiguous rank differs from their
// stored order are written, so in an already-contiguous list exactly the
// entities between the old and new positions shift by one slot.
func PlanMove(items []Item, id string, position int) (Plan, error) {
	if position < 1 || position > len(items) {
		return Plan{}, models.ErrPositionOutOfRange
	}
	final := ranked(items)
	idx := -1
	for i, it := range final {
		if it.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return Plan{}, models.ErrNotFound
	}
	moved := final[idx]
	rest := append(append([]Item{}, final[:idx]...), final[idx+1:]...)
	final = append(append(append([]Item{}, rest[:position-1]...), moved), rest[position-1:]...)
	return Plan{Updates: diff(final), SubjectOrder: position}, nil
}

// Renumber compacts the list to a contiguous 1..N sequence preserving the
// relative order of items. Used after hard deletions. The returned plan has
// no subject; SubjectOrder is zero.
func Renumber(items []Item) Plan {
	return Plan{Updates: diff(ranked(items))}
}
