package physics

import (
	"fmt"
	"log"
)

// slotList is an unordered set that stores each member's index in the
// member itself, so add and remove are O(1). Removal swaps the last member
// into the hole; callers that mutate while iterating take a snapshot.
type slotList[T comparable] struct {
	items []T
	slot  func(T) *int
}

func newSlotList[T comparable](slot func(T) *int) slotList[T] {
	return slotList[T]{slot: slot}
}

func (l *slotList[T]) add(item T) {
	s := l.slot(item)
	if *s >= 0 {
		return
	}
	*s = len(l.items)
	l.items = append(l.items, item)
}

func (l *slotList[T]) remove(item T) {
	s := l.slot(item)
	i := *s
	if i < 0 {
		return
	}
	last := len(l.items) - 1
	moved := l.items[last]
	l.items[i] = moved
	*l.slot(moved) = i
	var zero T
	l.items[last] = zero
	l.items = l.items[:last]
	*s = -1
}

func (l *slotList[T]) contains(item T) bool {
	return *l.slot(item) >= 0
}

func (l *slotList[T]) len() int {
	return len(l.items)
}

// snapshot copies the members into buf.
func (l *slotList[T]) snapshot(buf []T) []T {
	return append(buf[:0], l.items...)
}

// clear empties the list and resets every member's slot.
func (l *slotList[T]) clear() {
	for _, item := range l.items {
		*l.slot(item) = -1
	}
	var zero T
	for i := range l.items {
		l.items[i] = zero
	}
	l.items = l.items[:0]
}

// SpaceStats counts what the last step worked on.
type SpaceStats struct {
	ActiveBodies   int
	CollisionPairs int
	Islands        int
}

// Space is a world of bodies and areas stepped together. Queries against a
// space are refused while it is stepping.
type Space struct {
	rid    RID
	params SpaceParams

	broadphase  BroadPhase
	defaultArea *Area

	objects        slotList[*CollisionObject]
	activeBodies   slotList[*Body]
	massUpdates    slotList[*Body]
	stateQueries   slotList[*Body]
	movedAreas     slotList[*Area]
	monitorQueries slotList[*Area]

	locked bool
	active bool

	lastStep  float64
	stepCount uint64

	collisionPairs int
	islandCount    int
	activeCount    int

	debugContacts   []Vector
	maxDebugContact int

	events eventQueue

	// step scratch, reused across steps
	bodyScratch       []*Body
	areaScratch       []*Area
	islandStack       []*Body
	bodyIslands       [][]*Body
	constraintIslands [][]Constraint
	allConstraints    []Constraint
}

// NewSpace returns an empty space using DefaultSpaceParams.
func NewSpace() *Space {
	return NewSpaceWithParams(DefaultSpaceParams())
}

func NewSpaceWithParams(params SpaceParams) *Space {
	space := &Space{
		params:         params,
		broadphase:     NewBVHBroadPhase(),
		objects:        newSlotList(func(o *CollisionObject) *int { return &o.spaceSlot }),
		activeBodies:   newSlotList(func(b *Body) *int { return &b.activeSlot }),
		massUpdates:    newSlotList(func(b *Body) *int { return &b.massUpdateSlot }),
		stateQueries:   newSlotList(func(b *Body) *int { return &b.stateQuerySlot }),
		movedAreas:     newSlotList(func(a *Area) *int { return &a.movedSlot }),
		monitorQueries: newSlotList(func(a *Area) *int { return &a.monitorQuerySlot }),
		events:         newEventQueue(),
	}

	space.broadphase.SetPairPredicate(func(a, b *CollisionObject) bool {
		return a.interactsWith(b)
	})
	space.broadphase.SetPairCallback(space.pair)
	space.broadphase.SetUnpairCallback(space.unpair)

	area := NewArea()
	area.SetPriority(-1)
	area.gravity = params.DefaultGravity
	area.gravityVector = params.DefaultGravityVector
	area.linearDamp = params.DefaultLinearDamp
	area.angularDamp = params.DefaultAngularDamp
	space.defaultArea = area
	space.active = true
	return space
}

func (space *Space) String() string {
	return fmt.Sprint("Space ", space.rid)
}

func (space *Space) RID() RID {
	return space.rid
}

// DefaultArea holds the gravity and damping applied where no area overrides
// them.
func (space *Space) DefaultArea() *Area {
	return space.defaultArea
}

func (space *Space) Params() SpaceParams {
	return space.params
}

// SetParams replaces every parameter at once.
func (space *Space) SetParams(params SpaceParams) {
	space.params = params
}

// IsActive reports whether a Server steps this space.
func (space *Space) IsActive() bool {
	return space.active
}

func (space *Space) SetActive(active bool) {
	space.active = active
}

func (space *Space) IsLocked() bool {
	return space.locked
}

func (space *Space) lock() {
	assert(!space.locked, "space locked twice")
	space.locked = true
}

func (space *Space) unlock() {
	assert(space.locked, "space unlocked twice")
	space.locked = false
}

// AddBody moves body into the space.
func (space *Space) AddBody(body *Body) *Body {
	body.SetSpace(space)
	return body
}

func (space *Space) RemoveBody(body *Body) {
	if body.space != space {
		log.Println("RemoveBody:", body, "is not in", space)
		return
	}
	body.SetSpace(nil)
}

// AddArea moves area into the space.
func (space *Space) AddArea(area *Area) *Area {
	area.SetSpace(space)
	return area
}

func (space *Space) RemoveArea(area *Area) {
	if area.space != space {
		log.Println("RemoveArea:", area, "is not in", space)
		return
	}
	area.SetSpace(nil)
}

func (space *Space) addObject(obj *CollisionObject) {
	assert(!space.objects.contains(obj), "object added to space twice")
	space.objects.add(obj)
}

func (space *Space) removeObject(obj *CollisionObject) {
	assert(space.objects.contains(obj), "removing object not in space")
	space.objects.remove(obj)
}

// EachBody visits the bodies in the space. The order is unspecified.
func (space *Space) EachBody(f func(*Body)) {
	for _, obj := range space.objects.snapshot(nil) {
		if obj.kind == OBJECT_BODY {
			f(obj.body)
		}
	}
}

func (space *Space) EachArea(f func(*Area)) {
	for _, obj := range space.objects.snapshot(nil) {
		if obj.kind == OBJECT_AREA {
			f(obj.area)
		}
	}
}

func (space *Space) ObjectCount() int {
	return space.objects.len()
}

// pair builds the constraint for two overlapping shapes. Areas sort first,
// so the pair kind follows from the second object.
func (space *Space) pair(a *CollisionObject, subA int, b *CollisionObject, subB int) interface{} {
	if a.kind > b.kind {
		a, b = b, a
		subA, subB = subB, subA
	}
	space.collisionPairs++

	if a.kind == OBJECT_AREA {
		// a fresh area pair is set up in this step even if nothing moves
		space.movedAreas.add(a.area)
		if b.kind == OBJECT_AREA {
			space.movedAreas.add(b.area)
			return newArea2Pair(b.area, subB, a.area, subA)
		}
		return newAreaPair(b.body, subB, a.area, subA)
	}
	return newBodyPair(a.body, subA, b.body, subB)
}

type pairDestroyer interface {
	destroy()
}

func (space *Space) unpair(a *CollisionObject, subA int, b *CollisionObject, subB int, handle interface{}) {
	if handle == nil {
		return
	}
	space.collisionPairs--
	handle.(pairDestroyer).destroy()
}

// setup applies the mass changes made since the last step.
func (space *Space) setup() {
	space.debugContacts = space.debugContacts[:0]
	space.bodyScratch = space.massUpdates.snapshot(space.bodyScratch)
	space.massUpdates.clear()
	for _, body := range space.bodyScratch {
		body.updateMassProperties()
	}
}

func (space *Space) update() {
	space.broadphase.Update()
}

// Stats describes the last step.
func (space *Space) Stats() SpaceStats {
	return SpaceStats{
		ActiveBodies:   space.activeCount,
		CollisionPairs: space.collisionPairs,
		Islands:        space.islandCount,
	}
}

// SetDebugContacts keeps up to max contact points from each step for
// inspection. Zero turns it off.
func (space *Space) SetDebugContacts(max int) {
	space.maxDebugContact = max
	if cap(space.debugContacts) < max {
		space.debugContacts = make([]Vector, 0, max)
	}
	space.debugContacts = space.debugContacts[:0]
}

// DebugContacts returns the contact points collected during the last step.
func (space *Space) DebugContacts() []Vector {
	return space.debugContacts
}

func (space *Space) addDebugContact(p Vector) {
	if len(space.debugContacts) < space.maxDebugContact {
		space.debugContacts = append(space.debugContacts, p)
	}
}

// callQueries turns the callbacks due this step into queued events.
func (space *Space) callQueries() {
	space.bodyScratch = space.stateQueries.snapshot(space.bodyScratch)
	space.stateQueries.clear()
	for _, body := range space.bodyScratch {
		body.callQueries(&space.events)
	}
	space.areaScratch = space.monitorQueries.snapshot(space.areaScratch)
	space.monitorQueries.clear()
	for _, area := range space.areaScratch {
		area.callQueries(&space.events)
	}
}
