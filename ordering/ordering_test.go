package ordering

import (
	"errors"
	"testing"

	"github.com/gymstack/rbac/models"
)

func contiguous(t *testing.T, items []Item, plan Plan) []Item {
	t.Helper()
	// Apply plan to a copy and verify the result reads back contiguous 1..N.
	byID := map[string]int{}
	for _, it := range items {
		byID[it.ID] = it.Order
	}
	for _, u := range plan.Updates {
		if _, ok := byID[u.ID]; !ok {
			t.Fatalf("plan updates unknown id %q", u.ID)
		}
		byID[u.ID] = u.Order
	}
	seen := map[int]string{}
	out := make([]Item, 0, len(byID))
	for id, ord := range byID {
		if prev, dup := seen[ord]; dup {
			t.Fatalf("duplicate order %d held by %q and %q", ord, prev, id)
		}
		seen[ord] = id
		out = append(out, Item{ID: id, Order: ord})
	}
	for i := 1; i <= len(byID); i++ {
		if _, ok := seen[i]; !ok {
			t.Fatalf("order sequence not contiguous: missing %d", i)
		}
	}
	return out
}

func orderOf(items []Item, id string) int {
	for _, it := range items {
		if it.ID == id {
			return it.Order
		}
	}
	return -1
}

func TestPlanInsert(t *testing.T) {
	// Members(1), Billing(2), Reports(3); inserting Settings at 2 yields
	// Members(1), Settings(2), Billing(3), Reports(4).
	items := []Item{{"members", 1}, {"billing", 2}, {"reports", 3}}
	plan, err := PlanInsert(items, 2)
	if err != nil {
		t.Fatalf("PlanInsert: %v", err)
	}
	if plan.SubjectOrder != 2 {
		t.Errorf("SubjectOrder = %d, want 2", plan.SubjectOrder)
	}
	want := map[string]int{"billing": 3, "reports": 4}
	if len(plan.Updates) != len(want) {
		t.Fatalf("updates = %v, want shifts for billing and reports only", plan.Updates)
	}
	for _, u := range plan.Updates {
		if want[u.ID] != u.Order {
			t.Errorf("update %s -> %d, want %d", u.ID, u.Order, want[u.ID])
		}
	}
}

func TestPlanInsertAppend(t *testing.T) {
	items := []Item{{"a", 1}, {"b", 2}}
	plan, err := PlanInsert(items, 3)
	if err != nil {
		t.Fatalf("PlanInsert: %v", err)
	}
	if len(plan.Updates) != 0 {
		t.Errorf("appending must not touch siblings, got %v", plan.Updates)
	}
	if plan.SubjectOrder != 3 {
		t.Errorf("SubjectOrder = %d, want 3", plan.SubjectOrder)
	}
}

func TestPlanInsertEmptyList(t *testing.T) {
	plan, err := PlanInsert(nil, 1)
	if err != nil {
		t.Fatalf("PlanInsert: %v", err)
	}
	if plan.SubjectOrder != 1 || len(plan.Updates) != 0 {
		t.Errorf("plan = %+v, want subject 1 and no updates", plan)
	}
}

func TestPlanInsertOutOfRange(t *testing.T) {
	items := []Item{{"a", 1}, {"b", 2}}
	for _, pos := range []int{0, -1, 4} {
		if _, err := PlanInsert(items, pos); !errors.Is(err, models.ErrPositionOutOfRange) {
			t.Errorf("position %d: err = %v, want ErrPositionOutOfRange", pos, err)
		}
	}
}

func TestPlanInsertRepairsGaps(t *testing.T) {
	// Deletions can leave gaps; the next mutation renumbers contiguously.
	items := []Item{{"a", 2}, {"b", 5}, {"c", 9}}
	plan, err := PlanInsert(items, 1)
	if err != nil {
		t.Fatalf("PlanInsert: %v", err)
	}
	// a's stored order 2 already equals its target rank, so only b and c are
	// written; no-op writes are omitted from plans.
	want := map[string]int{"b": 3, "c": 4}
	if len(plan.Updates) != len(want) {
		t.Fatalf("updates = %v, want shifts for b and c only", plan.Updates)
	}
	for _, u := range plan.Updates {
		if want[u.ID] != u.Order {
			t.Errorf("update %s -> %d, want %d", u.ID, u.Order, want[u.ID])
		}
	}
}

func TestPlanMoveForward(t *testing.T) {
	items := []Item{{"a", 1}, {"b", 2}, {"c", 3}, {"d", 4}, {"e", 5}}
	plan, err := PlanMove(items, "b", 4)
	if err != nil {
		t.Fatalf("PlanMove: %v", err)
	}
	final := contiguous(t, items, plan)
	// Only c and d shift (toward the vacated slot); a and e untouched.
	for id, want := range map[string]int{"a": 1, "c": 2, "d": 3, "b": 4, "e": 5} {
		if got := orderOf(final, id); got != want {
			t.Errorf("%s = %d, want %d", id, got, want)
		}
	}
	if len(plan.Updates) != 3 { // b, c, d
		t.Errorf("updates = %v, want exactly b, c, d to change", plan.Updates)
	}
}

func TestPlanMoveBackward(t *testing.T) {
	items := []Item{{"a", 1}, {"b", 2}, {"c", 3}, {"d", 4}}
	plan, err := PlanMove(items, "d", 2)
	if err != nil {
		t.Fatalf("PlanMove: %v", err)
	}
	final := contiguous(t, items, plan)
	for id, want := range map[string]int{"a": 1, "d": 2, "b": 3, "c": 4} {
		if got := orderOf(final, id); got != want {
			t.Errorf("%s = %d, want %d", id, got, want)
		}
	}
}

func TestPlanMoveNoOp(t *testing.T) {
	items := []Item{{"a", 1}, {"b", 2}, {"c", 3}}
	plan, err := PlanMove(items, "b", 2)
	if err != nil {
		t.Fatalf("PlanMove: %v", err)
	}
	if len(plan.Updates) != 0 {
		t.Errorf("moving to own position must be a no-op, got %v", plan.Updates)
	}
}

func TestPlanMoveErrors(t *testing.T) {
	items := []Item{{"a", 1}, {"b", 2}}
	if _, err := PlanMove(items, "a", 3); !errors.Is(err, models.ErrPositionOutOfRange) {
		t.Errorf("err = %v, want ErrPositionOutOfRange", err)
	}
	if _, err := PlanMove(items, "zz", 1); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestPlanMoveSequenceStaysContiguous(t *testing.T) {
	// Any sequence of moves keeps the list a contiguous permutation.
	items := []Item{{"a", 1}, {"b", 2}, {"c", 3}, {"d", 4}, {"e", 5}, {"f", 6}}
	moves := []struct {
		id  string
		pos int
	}{{"f", 1}, {"a", 6}, {"c", 3}, {"b", 2}, {"e", 4}}
	for _, mv := range moves {
		plan, err := PlanMove(items, mv.id, mv.pos)
		if err != nil {
			t.Fatalf("PlanMove(%s,%d): %v", mv.id, mv.pos, err)
		}
		items = contiguous(t, items, plan)
		if got := orderOf(items, mv.id); got != mv.pos {
			t.Fatalf("after PlanMove(%s,%d): order = %d", mv.id, mv.pos, got)
		}
	}
}

func TestRenumber(t *testing.T) {
	items := []Item{{"a", 3}, {"b", 7}, {"c", 8}}
	plan := Renumber(items)
	want := map[string]int{"a": 1, "b": 2, "c": 3}
	if len(plan.Updates) != 3 {
		t.Fatalf("updates = %v, want all renumbered", plan.Updates)
	}
	for _, u := range plan.Updates {
		if want[u.ID] != u.Order {
			t.Errorf("update %s -> %d, want %d", u.ID, u.Order, want[u.ID])
		}
	}
	if got := Renumber([]Item{{"a", 1}, {"b", 2}}); len(got.Updates) != 0 {
		t.Errorf("contiguous list must yield empty plan, got %v", got.Updates)
	}
}
