package psychics

import (
	"slices"
	"testing"

	"github.com/df-mc/dragonfly/server/world"
)

// stubEntity stands in for an entity; only its identity is used.
type stubEntity struct {
	world.Entity
	id int
}

func TestEntityFilter(t *testing.T) {
	entities := []world.Entity{stubEntity{id: 1}, stubEntity{id: 2}, stubEntity{id: 3}, stubEntity{id: 4}}
	even := func(e world.Entity) bool { return e.(stubEntity).id%2 == 0 }

	var ids []int
	for e := range entityFilter(even)(slices.Values(entities)) {
		ids = append(ids, e.(stubEntity).id)
	}
	if !slices.Equal(ids, []int{2, 4}) {
		t.Fatalf("filter yielded %v, want [2 4]", ids)
	}

	for range entityFilter(nil)(slices.Values(entities)) {
		t.Fatalf("nil filter yielded an entity")
	}

	n := 0
	for range entityFilter(func(world.Entity) bool { return true })(slices.Values(entities)) {
		n++
		break
	}
	if n != 1 {
		t.Fatalf("filter kept yielding after the consumer stopped")
	}
}
