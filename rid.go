package physics

import "fmt"

// RID is an opaque handle to a server resource. The zero RID is never
// valid. A handle stays invalid after its resource is freed, even when the
// slot is reused.
type RID uint64

type ridKind uint8

const (
	ridShape ridKind = iota + 1
	ridBody
	ridArea
	ridSpace
	ridJoint
)

var ridKindNames = [...]string{"", "shape", "body", "area", "space", "joint"}

// layout: kind (8 bits) | generation (24 bits) | slot index + 1 (32 bits)
func makeRID(kind ridKind, gen uint32, index int) RID {
	return RID(uint64(kind)<<56 | uint64(gen&0xFFFFFF)<<32 | uint64(index+1))
}

func (r RID) IsValid() bool {
	return r != 0
}

func (r RID) kind() ridKind {
	return ridKind(r >> 56)
}

func (r RID) index() int {
	return int(uint32(r)) - 1
}

func (r RID) generation() uint32 {
	return uint32(r>>32) & 0xFFFFFF
}

func (r RID) String() string {
	if r == 0 {
		return "RID(invalid)"
	}
	k := r.kind()
	name := "?"
	if int(k) < len(ridKindNames) {
		name = ridKindNames[k]
	}
	return fmt.Sprintf("RID(%s:%d.%d)", name, r.index(), r.generation())
}

type ridSlot[T any] struct {
	value T
	gen   uint32
	live  bool
}

// ridOwner is an arena of T addressed by RID, with a free list of slots.
type ridOwner[T any] struct {
	kind      ridKind
	slots     []ridSlot[T]
	freeSlots []int
	count     int
}

func newRIDOwner[T any](kind ridKind) *ridOwner[T] {
	return &ridOwner[T]{kind: kind}
}

func (o *ridOwner[T]) make(value T) RID {
	var index int
	if n := len(o.freeSlots); n > 0 {
		index = o.freeSlots[n-1]
		o.freeSlots = o.freeSlots[:n-1]
	} else {
		index = len(o.slots)
		o.slots = append(o.slots, ridSlot[T]{})
	}
	slot := &o.slots[index]
	slot.gen++
	slot.value = value
	slot.live = true
	o.count++
	return makeRID(o.kind, slot.gen, index)
}

func (o *ridOwner[T]) owns(rid RID) bool {
	if rid.kind() != o.kind {
		return false
	}
	i := rid.index()
	if i < 0 || i >= len(o.slots) {
		return false
	}
	slot := &o.slots[i]
	return slot.live && slot.gen&0xFFFFFF == rid.generation()
}

func (o *ridOwner[T]) get(rid RID) (T, bool) {
	if !o.owns(rid) {
		var zero T
		return zero, false
	}
	return o.slots[rid.index()].value, true
}

func (o *ridOwner[T]) free(rid RID) bool {
	if !o.owns(rid) {
		return false
	}
	i := rid.index()
	var zero T
	o.slots[i].value = zero
	o.slots[i].live = false
	o.freeSlots = append(o.freeSlots, i)
	o.count--
	return true
}

// each visits live values in slot order.
func (o *ridOwner[T]) each(fn func(rid RID, value T)) {
	for i := range o.slots {
		slot := &o.slots[i]
		if slot.live {
			fn(makeRID(o.kind, slot.gen, i), slot.value)
		}
	}
}
