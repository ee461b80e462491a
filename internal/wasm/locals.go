package wasm

import (
	"fmt"

	"fortio.org/safecast"
)

// localSlot is one allocated function-local storage slot.
type localSlot struct {
	name  string
	typ   ValType
	param bool
}

// LocalGroup is one run of same-typed non-parameter locals in the function's
// local declaration record.
type LocalGroup struct {
	Count uint32
	Type  ValType
}

// LocalsTable allocates and resolves function-local slots. Indices 0..n-1
// are the parameters; every Declare mints a fresh slot, so a shadowing
// rebinding never aliases the slot it hides. Visibility is tracked with a
// scope overlay stack the emitter pushes and pops alongside label frames.
type LocalsTable struct {
	slots     []localSlot
	numParams int
	scopes    []map[string]uint32
}

// NewLocalsTable seeds the table with one slot per parameter, in order.
func NewLocalsTable(params []localSlot) *LocalsTable {
	t := &LocalsTable{
		slots:     make([]localSlot, 0, len(params)+8),
		numParams: len(params),
		scopes:    []map[string]uint32{make(map[string]uint32, len(params))},
	}
	for _, p := range params {
		idx := uint32(len(t.slots))
		t.slots = append(t.slots, localSlot{name: p.name, typ: p.typ, param: true})
		t.scopes[0][p.name] = idx
	}
	return t
}

// NumParams returns how many leading slots are parameters.
func (t *LocalsTable) NumParams() int {
	return t.numParams
}

// NumSlots returns the total slot count, parameters included.
func (t *LocalsTable) NumSlots() int {
	return len(t.slots)
}

// TypeOf returns the value type of a slot index.
func (t *LocalsTable) TypeOf(idx uint32) (ValType, bool) {
	if int(idx) >= len(t.slots) {
		return 0, false
	}
	return t.slots[idx].typ, true
}

// Declare appends a new slot and binds the name in the innermost scope.
// The index is fresh even when the name shadows an outer binding.
func (t *LocalsTable) Declare(name string, typ ValType) (uint32, error) {
	idx, err := safecast.Conv[uint32](len(t.slots))
	if err != nil {
		return 0, fmt.Errorf("wasm: local slot count overflow: %w", err)
	}
	t.slots = append(t.slots, localSlot{name: name, typ: typ})
	t.scopes[len(t.scopes)-1][name] = idx
	return idx, nil
}

// DeclareTemp appends an anonymous slot the emitter uses for scratch values
// (match scrutinees, loop bounds). Temporaries are never visible by name.
func (t *LocalsTable) DeclareTemp(typ ValType) (uint32, error) {
	idx, err := safecast.Conv[uint32](len(t.slots))
	if err != nil {
		return 0, fmt.Errorf("wasm: local slot count overflow: %w", err)
	}
	t.slots = append(t.slots, localSlot{typ: typ})
	return idx, nil
}

// Lookup resolves the currently visible binding for a name, preferring the
// innermost scope overlay.
func (t *LocalsTable) Lookup(name string) (uint32, bool) {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if idx, ok := t.scopes[i][name]; ok {
			return idx, true
		}
	}
	return 0, false
}

// PushScope opens a visibility overlay for a nested region.
func (t *LocalsTable) PushScope() {
	t.scopes = append(t.scopes, make(map[string]uint32, 4))
}

// PopScope drops the innermost overlay. Slots declared inside stay
// allocated; only their names stop resolving.
func (t *LocalsTable) PopScope() {
	if len(t.scopes) <= 1 {
		return
	}
	t.scopes = t.scopes[:len(t.scopes)-1]
}

// Finalize run-length-encodes the non-parameter slots for the function's
// local declaration record. The table must not be mutated afterwards.
func (t *LocalsTable) Finalize() []LocalGroup {
	var groups []LocalGroup
	for _, s := range t.slots[t.numParams:] {
		if n := len(groups); n > 0 && groups[n-1].Type == s.typ {
			groups[n-1].Count++
			continue
		}
		groups = append(groups, LocalGroup{Count: 1, Type: s.typ})
	}
	return groups
}
