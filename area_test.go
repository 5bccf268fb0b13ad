package physics

import (
	"testing"
)

func addAreaCircle(space *Space, radius float64, pos Vector) *Area {
	area := NewArea()
	area.SetTransform(NewTransformTranslate(pos))
	area.AddShape(mustShape(SHAPE_CIRCLE, radius), NewTransformIdentity(), false)
	return space.AddArea(area)
}

func TestArea_MonitorBodies(t *testing.T) {
	space := zeroGravitySpace()
	area := addAreaCircle(space, 2, Vector{})
	var got []MonitorEvent
	area.SetMonitorCallback(func(ev MonitorEvent) {
		got = append(got, ev)
	})

	ball := addCircle(space, BODY_MODE_RIGID, 0.5, Vector{})
	ball.SetInstanceID(5)

	events := space.Step(1.0 / 60.0)
	if len(events) != 1 || events[0].Kind != EVENT_BODY_MONITOR || events[0].Monitor.Status != MONITOR_ADDED {
		t.Fatalf("Expected one enter event, got %v", events)
	}
	if _, err := space.DispatchEvents(); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].InstanceID != 5 || got[0].ObjectShape != 0 || got[0].AreaShape != 0 {
		t.Fatalf("Expected the ball to enter, got %v", got)
	}

	space.Step(1.0 / 60.0)
	if len(space.PendingEvents()) != 0 {
		t.Error("Staying inside should not report again")
	}

	ball.SetTransform(NewTransformTranslate(Vector{10, 0}))
	space.Step(1.0 / 60.0)
	space.DispatchEvents()
	if len(got) != 2 || got[1].Status != MONITOR_REMOVED {
		t.Errorf("Expected the ball to leave, got %v", got)
	}
}

func TestArea_MonitorAreas(t *testing.T) {
	space := zeroGravitySpace()
	watcher := addAreaCircle(space, 1, Vector{})
	var got []MonitorEvent
	watcher.SetAreaMonitorCallback(func(ev MonitorEvent) {
		got = append(got, ev)
	})

	hidden := addAreaCircle(space, 1, Vector{0.5, 0})
	visible := addAreaCircle(space, 1, Vector{-0.5, 0})
	visible.SetMonitorable(true)
	visible.SetInstanceID(8)

	space.Step(1.0 / 60.0)
	space.DispatchEvents()
	if len(got) != 1 || got[0].InstanceID != 8 || got[0].Status != MONITOR_ADDED {
		t.Errorf("Expected only the monitorable area, got %v", got)
	}
	_ = hidden
}

func TestArea_GravityOverride(t *testing.T) {
	space := NewSpace()
	area := NewArea()
	area.AddShape(mustShape(SHAPE_RECTANGLE, Vector{10, 10}), NewTransformIdentity(), false)
	area.SetGravityOverrideMode(AREA_OVERRIDE_REPLACE)
	area.SetGravity(5)
	area.SetGravityVector(Vector{0, 1})
	space.AddArea(area)

	ball := addCircle(space, BODY_MODE_RIGID, 0.5, Vector{})
	stepN(space, 30)

	if ball.LinearVelocity().Y <= 0 {
		t.Errorf("Expected the area to lift the ball, got %v", ball.LinearVelocity())
	}
	state, _ := ball.DirectState()
	if !state.TotalGravity().Near(Vector{0, 5}, 1e-9) {
		t.Errorf("Expected gravity (0, 5), got %v", state.TotalGravity())
	}

	ball.SetTransform(NewTransformTranslate(Vector{30, 0}))
	stepN(space, 2)
	g := space.Params().DefaultGravity
	if !state.TotalGravity().Near(Vector{0, -g}, 1e-9) {
		t.Errorf("Expected the default gravity outside, got %v", state.TotalGravity())
	}
}

func TestArea_Priority(t *testing.T) {
	space := NewSpace()
	override := func(priority int, dir Vector) *Area {
		area := addAreaCircle(space, 3, Vector{})
		area.SetPriority(priority)
		area.SetGravityOverrideMode(AREA_OVERRIDE_REPLACE)
		area.SetGravity(5)
		area.SetGravityVector(dir)
		return area
	}
	override(2, Vector{1, 0})
	override(1, Vector{0, 1})

	ball := addCircle(space, BODY_MODE_RIGID, 0.5, Vector{})
	stepN(space, 2)

	state, _ := ball.DirectState()
	if !state.TotalGravity().Near(Vector{5, 0}, 1e-9) {
		t.Errorf("Expected the higher priority area to win, got %v", state.TotalGravity())
	}
}

func TestArea_CombineDamp(t *testing.T) {
	space := zeroGravitySpace()
	area := addAreaCircle(space, 3, Vector{})
	area.SetLinearDampOverrideMode(AREA_OVERRIDE_COMBINE)
	area.SetLinearDamp(2)

	ball := addCircle(space, BODY_MODE_RIGID, 0.5, Vector{})
	ball.SetLinearVelocity(Vector{1, 0})
	stepN(space, 2)

	state, _ := ball.DirectState()
	want := 2 + space.Params().DefaultLinearDamp
	if d := state.TotalLinearDamp(); d < want-1e-9 || d > want+1e-9 {
		t.Errorf("Expected damp %v, got %v", want, d)
	}
}

func TestArea_MonitorSettersLocked(t *testing.T) {
	space := zeroGravitySpace()
	area := addAreaCircle(space, 1, Vector{})

	space.lock()
	if err := area.SetMonitorable(true); err != ErrSpaceLocked {
		t.Errorf("SetMonitorable: expected ErrSpaceLocked, got %v", err)
	}
	if err := area.SetMonitorCallback(func(MonitorEvent) {}); err != ErrSpaceLocked {
		t.Errorf("SetMonitorCallback: expected ErrSpaceLocked, got %v", err)
	}
	if err := area.SetAreaMonitorCallback(func(MonitorEvent) {}); err != ErrSpaceLocked {
		t.Errorf("SetAreaMonitorCallback: expected ErrSpaceLocked, got %v", err)
	}
	space.unlock()

	if area.IsMonitorable() || area.monitorCallback != nil || area.areaMonitorCallback != nil {
		t.Error("A refused setter should leave the area unchanged")
	}
	if err := area.SetMonitorable(true); err != nil || !area.IsMonitorable() {
		t.Errorf("Expected SetMonitorable to work once unlocked, got %v", err)
	}
}
