package physics

import (
	"testing"
)

func stepN(space *Space, n int) {
	for i := 0; i < n; i++ {
		space.Step(1.0 / 60.0)
	}
}

func TestStep_RestingCircle(t *testing.T) {
	space := NewSpace()
	addStaticRect(space, Vector{5, 0.5}, Vector{0, -0.5})
	ball := addCircle(space, BODY_MODE_RIGID, 0.5, Vector{0, 0.6})

	stepN(space, 300)

	y := ball.Position().Y
	allowed := space.Params().ContactMaxAllowedPenetration
	if y < 0.5-allowed-0.02 || y > 0.52 {
		t.Errorf("Expected the ball to rest on the ground, y = %v", y)
	}
	if x := ball.Position().X; x < -0.01 || x > 0.01 {
		t.Errorf("Expected the ball to stay put, x = %v", x)
	}
}

func TestStep_FreeFall(t *testing.T) {
	space := NewSpace()
	ball := addCircle(space, BODY_MODE_RIGID, 0.5, Vector{0, 10})
	ball.SetLinearDamp(0, DAMP_MODE_REPLACE)

	stepN(space, 60)

	g := space.Params().DefaultGravity
	if v := ball.LinearVelocity().Y; v > -g*0.95 || v < -g*1.05 {
		t.Errorf("Expected about %v after a second, got %v", -g, v)
	}
	if space.Stats().ActiveBodies != 1 {
		t.Errorf("Expected 1 active body, got %d", space.Stats().ActiveBodies)
	}
}

func TestStep_NoDelta(t *testing.T) {
	space := NewSpace()
	ball := addCircle(space, BODY_MODE_RIGID, 0.5, Vector{0, 10})
	space.Step(0)
	space.Step(-1)
	if ball.Position() != (Vector{0, 10}) || space.stepCount != 0 {
		t.Error("Steps of zero length should do nothing")
	}
}

func TestStep_IslandPartition(t *testing.T) {
	space := zeroGravitySpace()
	at := func(x, y float64) *Body {
		return addCircle(space, BODY_MODE_RIGID, 0.25, Vector{x, y})
	}

	// one island of two bodies
	a, b := at(0, 0), at(2, 0)
	NewPinJoint(a, b, Vector{1, 0})

	// alone, no constraints
	at(0, 10)

	// two islands split by a static body
	s := addCircle(space, BODY_MODE_STATIC, 0.25, Vector{10, 0})
	e, f := at(8, 0), at(12, 0)
	NewPinJoint(e, s, Vector{9, 0})
	NewPinJoint(f, s, Vector{11, 0})

	// one island joined through a kinematic body
	k := addCircle(space, BODY_MODE_KINEMATIC, 0.25, Vector{20, 0})
	g, h := at(18, 0), at(22, 0)
	NewPinJoint(g, k, Vector{19, 0})
	NewPinJoint(h, k, Vector{21, 0})

	space.Step(1.0 / 60.0)

	if n := space.Stats().Islands; n != 4 {
		t.Errorf("Expected 4 islands, got %d", n)
	}
	if space.Stats().CollisionPairs != 0 {
		t.Errorf("Expected no overlapping shapes, got %d pairs", space.Stats().CollisionPairs)
	}
}

// islandOf maps each body to the index of the island the last step put it
// in.
func islandOf(space *Space) map[*Body]int {
	membership := map[*Body]int{}
	for i, island := range space.bodyIslands {
		for _, body := range island {
			membership[body] = i
		}
	}
	return membership
}

func TestStep_IslandMembership(t *testing.T) {
	space := zeroGravitySpace()
	at := func(x, y float64) *Body {
		return addCircle(space, BODY_MODE_RIGID, 0.25, Vector{x, y})
	}

	a, b := at(0, 0), at(2, 0)
	NewPinJoint(a, b, Vector{1, 0})
	lone := at(0, 10)

	// a static body bridging two bodies does not join them
	s := addCircle(space, BODY_MODE_STATIC, 0.25, Vector{10, 0})
	e, f := at(8, 0), at(12, 0)
	NewPinJoint(e, s, Vector{9, 0})
	NewPinJoint(f, s, Vector{11, 0})

	// a kinematic body does
	k := addCircle(space, BODY_MODE_KINEMATIC, 0.25, Vector{20, 0})
	g, h := at(18, 0), at(22, 0)
	NewPinJoint(g, k, Vector{19, 0})
	NewPinJoint(h, k, Vector{21, 0})

	stamp := space.stepCount + 100
	bodies, constraints := space.populateIsland(e, stamp, nil, nil)
	if len(bodies) != 1 || bodies[0] != e || len(constraints) != 1 {
		t.Errorf("Expected e alone with its one joint, got %v and %d joints", bodies, len(constraints))
	}
	if f.islandStep == stamp {
		t.Error("The walk should stop at the static body")
	}
	bodies, constraints = space.populateIsland(g, stamp+1, nil, nil)
	if len(bodies) != 2 || len(constraints) != 2 {
		t.Fatalf("Expected g and h with 2 joints, got %v and %d joints", bodies, len(constraints))
	}
	for _, body := range bodies {
		if body == k {
			t.Error("A kinematic body is never an island member")
		}
	}

	space.Step(1.0 / 60.0)
	island := islandOf(space)

	for _, body := range []*Body{s, k} {
		if _, ok := island[body]; ok {
			t.Errorf("%v should not be in an island", body.Mode())
		}
	}
	for _, body := range []*Body{a, b, lone, e, f, g, h} {
		if _, ok := island[body]; !ok {
			t.Fatalf("Expected every rigid body in an island, missing %v", body.Position())
		}
	}
	if island[a] != island[b] {
		t.Error("Jointed bodies should share an island")
	}
	if island[g] != island[h] {
		t.Error("Bodies joined through a kinematic body should share an island")
	}
	if island[e] == island[f] {
		t.Error("Bodies joined only through a static body should not share an island")
	}
	groups := map[int]bool{}
	for _, body := range []*Body{a, lone, e, f, g} {
		groups[island[body]] = true
	}
	if len(groups) != 5 {
		t.Errorf("Expected 5 separate body islands, got %d", len(groups))
	}
}

func TestStep_IslandsSleepTogether(t *testing.T) {
	space := zeroGravitySpace()
	a := addCircle(space, BODY_MODE_RIGID, 0.25, Vector{0, 0})
	b := addCircle(space, BODY_MODE_RIGID, 0.25, Vector{2, 0})
	NewPinJoint(a, b, Vector{1, 0})

	stepN(space, 60)
	if !a.IsSleeping() || !b.IsSleeping() {
		t.Fatalf("Expected both to sleep, got %v %v", a.IsSleeping(), b.IsSleeping())
	}
	if space.Stats().ActiveBodies != 0 {
		t.Errorf("Sleeping bodies should not be stepped, got %d", space.Stats().ActiveBodies)
	}

	a.SetLinearVelocity(Vector{1, 0})
	if a.IsSleeping() {
		t.Fatal("Setting a velocity should wake the body")
	}
	space.Step(1.0 / 60.0)
	if b.IsSleeping() {
		t.Error("Waking one body should wake its island")
	}
}

func TestStep_CannotSleep(t *testing.T) {
	space := zeroGravitySpace()
	a := addCircle(space, BODY_MODE_RIGID, 0.25, Vector{0, 0})
	b := addCircle(space, BODY_MODE_RIGID, 0.25, Vector{2, 0})
	NewPinJoint(a, b, Vector{1, 0})
	b.SetCanSleep(false)

	stepN(space, 60)
	if a.IsSleeping() || b.IsSleeping() {
		t.Error("A body that cannot sleep keeps its island awake")
	}
}

func TestStep_JointDisablesCollisions(t *testing.T) {
	space := zeroGravitySpace()
	space.SetDebugContacts(16)
	box := func(x float64) *Body {
		body := NewBody()
		body.SetTransform(NewTransformTranslate(Vector{x, 0}))
		body.AddShape(mustShape(SHAPE_RECTANGLE, Vector{1, 1}), NewTransformIdentity(), false)
		body.SetMaxContactsReported(4)
		return space.AddBody(body)
	}
	a, b := box(0), box(1.5)

	joint := NewPinJoint(a, b, Vector{0.75, 0})
	joint.DisableCollisionsBetweenBodies(true)
	space.Step(1.0 / 60.0)

	if n := len(space.DebugContacts()); n != 0 {
		t.Errorf("Expected no contacts, got %d", n)
	}
	if len(a.Contacts()) != 0 || len(b.Contacts()) != 0 {
		t.Error("Expected no reported contacts")
	}

	joint.DisableCollisionsBetweenBodies(false)
	space.Step(1.0 / 60.0)
	if len(space.DebugContacts()) == 0 || len(a.Contacts()) == 0 {
		t.Error("Expected the boxes to collide again")
	}
}

func TestStep_PinToWorld(t *testing.T) {
	space := NewSpace()
	bob := addCircle(space, BODY_MODE_RIGID, 0.25, Vector{1, 0})
	joint := NewPinJoint(bob, nil, Vector{})
	if joint.BodyB() != nil {
		t.Error("A world pin has no second body")
	}

	stepN(space, 120)

	pivot := bob.Transform().Point(joint.AnchorA)
	if pivot.Length() > 0.05 {
		t.Errorf("Expected the pivot to hold, drifted to %v", pivot)
	}
	if d := bob.Position().Length(); d < 0.95 || d > 1.05 {
		t.Errorf("Expected the bob to swing at radius 1, got %v", d)
	}
}

func TestStep_GrooveJoint(t *testing.T) {
	space := NewSpace()
	rail := addStaticRect(space, Vector{0.1, 0.1}, Vector{0, 5})
	slider := addCircle(space, BODY_MODE_RIGID, 0.25, Vector{0, 0})
	slider.SetLinearVelocity(Vector{1, 0})
	NewGrooveJoint(rail, slider, Vector{-3, 0}, Vector{3, 0}, Vector{})

	stepN(space, 60)

	p := slider.Position()
	if p.Y < -0.05 || p.Y > 0.05 {
		t.Errorf("Expected the slider to stay on the groove, got %v", p)
	}
	if p.X < 0.5 {
		t.Errorf("Expected the slider to move along the groove, got %v", p)
	}
}

func TestStep_DampedSpring(t *testing.T) {
	space := zeroGravitySpace()
	a := addCircle(space, BODY_MODE_RIGID, 0.25, Vector{0, 0})
	b := addCircle(space, BODY_MODE_RIGID, 0.25, Vector{3, 0})
	spring := NewDampedSpringJoint(a, b, Vector{0, 0}, Vector{3, 0})
	if spring.RestLength != 3 {
		t.Fatalf("Expected rest length 3, got %v", spring.RestLength)
	}
	spring.RestLength = 1

	stepN(space, 60)

	if d := a.Position().Distance(b.Position()); d >= 3 {
		t.Errorf("Expected the spring to pull the bodies together, distance %v", d)
	}
	if a.Position().Y != 0 || b.Position().Y != 0 {
		t.Error("The pull should stay on the spring axis")
	}
}

func TestStep_ParallelWorkers(t *testing.T) {
	params := DefaultSpaceParams()
	params.Workers = 4
	space := NewSpaceWithParams(params)
	addStaticRect(space, Vector{50, 0.5}, Vector{0, -0.5})

	var balls []*Body
	for i := 0; i < 24; i++ {
		balls = append(balls, addCircle(space, BODY_MODE_RIGID, 0.5, Vector{float64(i*2 - 24), 0.6}))
	}

	stepN(space, 240)

	if n := space.Stats().Islands; n > 24 {
		t.Errorf("Expected at most one island per ball, got %d", n)
	}
	for i, ball := range balls {
		if y := ball.Position().Y; y < 0.45 || y > 0.55 {
			t.Errorf("Ball %d should rest on the ground, y = %v", i, y)
		}
	}
}

func TestStep_Callbacks(t *testing.T) {
	space := NewSpace()
	ball := addCircle(space, BODY_MODE_RIGID, 0.5, Vector{0, 10})

	var states, forces int
	ball.SetStateSyncCallback(func(state *DirectBodyState) {
		if state.Body() != ball {
			t.Error("Wrong body in the callback")
		}
		states++
	})
	ball.SetForceIntegrationCallback(func(state *DirectBodyState) {
		state.ApplyCentralForce(Vector{1, 0})
		forces++
	})

	events := space.Step(1.0 / 60.0)
	if len(events) != 2 || events[0].Kind != EVENT_FORCE_INTEGRATION || events[1].Kind != EVENT_BODY_STATE {
		t.Fatalf("Expected force then state events, got %v", events)
	}
	if states != 0 {
		t.Error("Callbacks should wait for DispatchEvents")
	}
	n, err := space.DispatchEvents()
	if err != nil || n != 2 || states != 1 || forces != 1 {
		t.Errorf("Expected both callbacks once, got %d %v", n, err)
	}
	if len(space.PendingEvents()) != 0 {
		t.Error("Dispatch should drain the queue")
	}

	space.Step(1.0 / 60.0)
	space.RemoveBody(ball)
	if n, _ = space.DispatchEvents(); n != 0 {
		t.Error("Events of removed bodies should be dropped")
	}
}
