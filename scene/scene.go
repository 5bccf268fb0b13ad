// Package scene builds a physics world from a YAML description.
package scene

import (
	"fmt"
	"os"

	"github.com/jakecoffman/physics"
	"gopkg.in/yaml.v3"
)

// Spec is the document root. Shapes are declared once and referenced by
// name from bodies and areas; joints reference bodies by name.
type Spec struct {
	Params physics.SpaceParams `yaml:"params"`
	Shapes []ShapeSpec         `yaml:"shapes"`
	Bodies []BodySpec          `yaml:"bodies"`
	Areas  []AreaSpec          `yaml:"areas"`
	Joints []JointSpec         `yaml:"joints"`
}

// ShapeSpec carries the fields of every shape type; Type picks which are
// read.
type ShapeSpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`

	Normal   physics.Vector `yaml:"normal"`
	Distance float64        `yaml:"distance"`

	Length       float64 `yaml:"length"`
	SlideOnSlope bool    `yaml:"slide_on_slope"`

	A physics.Vector `yaml:"a"`
	B physics.Vector `yaml:"b"`

	Radius      float64        `yaml:"radius"`
	Height      float64        `yaml:"height"`
	HalfExtents physics.Vector `yaml:"half_extents"`

	Points   []physics.Vector `yaml:"points"`
	Segments []physics.Vector `yaml:"segments"`

	CustomBias float64 `yaml:"custom_bias"`
}

// ShapeRef places a named shape on a body or area.
type ShapeRef struct {
	Shape        string         `yaml:"shape"`
	Offset       physics.Vector `yaml:"offset"`
	Rotation     float64        `yaml:"rotation"`
	Disabled     bool           `yaml:"disabled"`
	OneWay       bool           `yaml:"one_way"`
	OneWayMargin float64        `yaml:"one_way_margin"`
}

type BodySpec struct {
	Name     string         `yaml:"name"`
	Mode     string         `yaml:"mode"`
	Position physics.Vector `yaml:"position"`
	Rotation float64        `yaml:"rotation"`

	Mass         *float64 `yaml:"mass"`
	Inertia      *float64 `yaml:"inertia"`
	Friction     *float64 `yaml:"friction"`
	Bounce       float64  `yaml:"bounce"`
	GravityScale *float64 `yaml:"gravity_scale"`
	LinearDamp   float64  `yaml:"linear_damp"`
	AngularDamp  float64  `yaml:"angular_damp"`
	CanSleep     *bool    `yaml:"can_sleep"`

	LinearVelocity  physics.Vector `yaml:"linear_velocity"`
	AngularVelocity float64        `yaml:"angular_velocity"`

	Layer *uint32 `yaml:"layer"`
	Mask  *uint32 `yaml:"mask"`

	MaxContactsReported int `yaml:"max_contacts_reported"`

	Shapes []ShapeRef `yaml:"shapes"`
}

type AreaSpec struct {
	Name     string         `yaml:"name"`
	Position physics.Vector `yaml:"position"`
	Rotation float64        `yaml:"rotation"`
	Priority int            `yaml:"priority"`
	Override string         `yaml:"override"`

	Gravity                  *float64        `yaml:"gravity"`
	GravityVector            *physics.Vector `yaml:"gravity_vector"`
	GravityPoint             bool            `yaml:"gravity_point"`
	GravityPointUnitDistance float64         `yaml:"gravity_point_unit_distance"`
	LinearDamp               *float64        `yaml:"linear_damp"`
	AngularDamp              *float64        `yaml:"angular_damp"`

	// defaults to true
	Monitorable *bool `yaml:"monitorable"`

	Layer *uint32 `yaml:"layer"`
	Mask  *uint32 `yaml:"mask"`

	Shapes []ShapeRef `yaml:"shapes"`
}

type LimitSpec struct {
	Lower float64 `yaml:"lower"`
	Upper float64 `yaml:"upper"`
}

type JointSpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	// B may be empty to fix A to the world.
	A string `yaml:"a"`
	B string `yaml:"b"`

	// pin
	Pivot    physics.Vector `yaml:"pivot"`
	Softness float64        `yaml:"softness"`
	Limit    *LimitSpec     `yaml:"limit"`
	Motor    *float64       `yaml:"motor"`

	// groove
	GrooveA physics.Vector `yaml:"groove_a"`
	GrooveB physics.Vector `yaml:"groove_b"`
	Anchor  physics.Vector `yaml:"anchor"`

	// damped spring
	AnchorA    physics.Vector `yaml:"anchor_a"`
	AnchorB    physics.Vector `yaml:"anchor_b"`
	RestLength *float64       `yaml:"rest_length"`
	Stiffness  *float64       `yaml:"stiffness"`
	Damping    *float64       `yaml:"damping"`

	Bias              float64  `yaml:"bias"`
	MaxForce          *float64 `yaml:"max_force"`
	DisableCollisions bool     `yaml:"disable_collisions"`
}

// Load reads and parses a scene file.
func Load(filename string) (*Spec, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("scene: load %s: %w", filename, err)
	}
	spec, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("scene: %s: %w", filename, err)
	}
	return spec, nil
}

// Parse decodes a scene. Params missing from the document keep their
// defaults.
func Parse(data []byte) (*Spec, error) {
	spec := &Spec{Params: physics.DefaultSpaceParams()}
	if err := yaml.Unmarshal(data, spec); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	if err := spec.Params.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

// Scene is a built world. Names map back to the server handles.
type Scene struct {
	Server *physics.Server
	Space  physics.RID

	Shapes map[string]physics.RID
	Bodies map[string]physics.RID
	Areas  map[string]physics.RID
	Joints map[string]physics.RID

	// body names in declaration order
	BodyOrder []string
}

// Build creates every resource of spec on a new server, in one space.
func Build(spec *Spec) (*Scene, error) {
	server := physics.NewServer()
	sc := &Scene{
		Server: server,
		Space:  server.SpaceCreateWithParams(spec.Params),
		Shapes: map[string]physics.RID{},
		Bodies: map[string]physics.RID{},
		Areas:  map[string]physics.RID{},
		Joints: map[string]physics.RID{},
	}

	for i, s := range spec.Shapes {
		if err := sc.buildShape(s); err != nil {
			return nil, fmt.Errorf("shape %d (%s): %w", i, s.Name, err)
		}
	}
	for i, b := range spec.Bodies {
		if err := sc.buildBody(b); err != nil {
			return nil, fmt.Errorf("body %d (%s): %w", i, b.Name, err)
		}
	}
	for i, a := range spec.Areas {
		if err := sc.buildArea(a); err != nil {
			return nil, fmt.Errorf("area %d (%s): %w", i, a.Name, err)
		}
	}
	for i, j := range spec.Joints {
		if err := sc.buildJoint(j); err != nil {
			return nil, fmt.Errorf("joint %d (%s): %w", i, j.Name, err)
		}
	}
	return sc, nil
}

// LoadScene loads and builds a scene file.
func LoadScene(filename string) (*Scene, error) {
	spec, err := Load(filename)
	if err != nil {
		return nil, err
	}
	sc, err := Build(spec)
	if err != nil {
		return nil, fmt.Errorf("scene: build %s: %w", filename, err)
	}
	return sc, nil
}

// Body returns a body by name.
func (sc *Scene) Body(name string) (*physics.Body, error) {
	rid, ok := sc.Bodies[name]
	if !ok {
		return nil, fmt.Errorf("no body named %q", name)
	}
	return sc.Server.Body(rid)
}

func (sc *Scene) Area(name string) (*physics.Area, error) {
	rid, ok := sc.Areas[name]
	if !ok {
		return nil, fmt.Errorf("no area named %q", name)
	}
	return sc.Server.Area(rid)
}

// Step advances the scene and delivers the callbacks it made due.
func (sc *Scene) Step(delta float64) error {
	sc.Server.Step(delta)
	_, err := sc.Server.FlushQueries()
	return err
}

func (sc *Scene) buildShape(s ShapeSpec) error {
	if s.Name == "" {
		return fmt.Errorf("shape has no name")
	}
	if _, dup := sc.Shapes[s.Name]; dup {
		return fmt.Errorf("duplicate shape name")
	}
	kind, ok := physics.ParseShapeType(s.Type)
	if !ok {
		return fmt.Errorf("unknown shape type %q", s.Type)
	}
	data, err := s.data(kind)
	if err != nil {
		return err
	}
	rid := sc.Server.ShapeCreate(kind)
	if err := sc.Server.ShapeSetData(rid, data); err != nil {
		return err
	}
	if s.CustomBias != 0 {
		shape, _ := sc.Server.Shape(rid)
		shape.SetCustomBias(s.CustomBias)
	}
	sc.Shapes[s.Name] = rid
	return nil
}

func (s ShapeSpec) data(kind physics.ShapeType) (interface{}, error) {
	switch kind {
	case physics.SHAPE_WORLD_BOUNDARY:
		return physics.WorldBoundaryData{Normal: s.Normal, Distance: s.Distance}, nil
	case physics.SHAPE_SEPARATION_RAY:
		return physics.SeparationRayData{Length: s.Length, SlideOnSlope: s.SlideOnSlope}, nil
	case physics.SHAPE_SEGMENT:
		return [2]physics.Vector{s.A, s.B}, nil
	case physics.SHAPE_CIRCLE:
		return s.Radius, nil
	case physics.SHAPE_RECTANGLE:
		return s.HalfExtents, nil
	case physics.SHAPE_CAPSULE:
		return physics.Vector{X: s.Radius, Y: s.Height}, nil
	case physics.SHAPE_CONVEX_POLYGON:
		return s.Points, nil
	case physics.SHAPE_CONCAVE_POLYGON:
		return s.Segments, nil
	}
	return nil, fmt.Errorf("unsupported shape type %v", kind)
}

// addShapes resolves refs and adds them through add, then applies one-way
// settings by index.
func (sc *Scene) addShapes(refs []ShapeRef, add func(shape physics.RID, xform physics.Transform, disabled bool) error, obj *physics.CollisionObject) error {
	for i, ref := range refs {
		rid, ok := sc.Shapes[ref.Shape]
		if !ok {
			return fmt.Errorf("shape %d: no shape named %q", i, ref.Shape)
		}
		if err := add(rid, physics.NewTransformRigid(ref.Offset, ref.Rotation), ref.Disabled); err != nil {
			return fmt.Errorf("shape %d: %w", i, err)
		}
		if ref.OneWay {
			if err := obj.SetShapeOneWay(i, true, ref.OneWayMargin); err != nil {
				return fmt.Errorf("shape %d: one way: %w", i, err)
			}
		}
	}
	return nil
}

func (sc *Scene) buildBody(s BodySpec) error {
	if s.Name == "" {
		return fmt.Errorf("body has no name")
	}
	if _, dup := sc.Bodies[s.Name]; dup {
		return fmt.Errorf("duplicate body name")
	}
	mode := physics.BODY_MODE_RIGID
	if s.Mode != "" {
		var ok bool
		if mode, ok = physics.ParseBodyMode(s.Mode); !ok {
			return fmt.Errorf("unknown body mode %q", s.Mode)
		}
	}

	rid := sc.Server.BodyCreate()
	body, _ := sc.Server.Body(rid)
	body.SetMode(mode)
	if s.Mass != nil {
		if err := body.SetMass(*s.Mass); err != nil {
			return err
		}
	}
	if s.Inertia != nil {
		body.SetInertia(*s.Inertia)
	}
	if s.Friction != nil {
		body.SetFriction(*s.Friction)
	}
	body.SetBounce(s.Bounce)
	if s.GravityScale != nil {
		body.SetGravityScale(*s.GravityScale)
	}
	body.SetLinearDamp(s.LinearDamp, physics.DAMP_MODE_COMBINE)
	body.SetAngularDamp(s.AngularDamp, physics.DAMP_MODE_COMBINE)
	if s.CanSleep != nil {
		body.SetCanSleep(*s.CanSleep)
	}
	if s.Layer != nil {
		body.SetCollisionLayer(*s.Layer)
	}
	if s.Mask != nil {
		body.SetCollisionMask(*s.Mask)
	}
	body.SetMaxContactsReported(s.MaxContactsReported)

	add := func(shape physics.RID, xform physics.Transform, disabled bool) error {
		return sc.Server.BodyAddShape(rid, shape, xform, disabled)
	}
	if err := sc.addShapes(s.Shapes, add, &body.CollisionObject); err != nil {
		return err
	}

	body.SetTransform(physics.NewTransformRigid(s.Position, s.Rotation))
	if err := sc.Server.BodySetSpace(rid, sc.Space); err != nil {
		return err
	}
	body.SetLinearVelocity(s.LinearVelocity)
	body.SetAngularVelocity(s.AngularVelocity)

	sc.Bodies[s.Name] = rid
	sc.BodyOrder = append(sc.BodyOrder, s.Name)
	return nil
}

func (sc *Scene) buildArea(s AreaSpec) error {
	if s.Name == "" {
		return fmt.Errorf("area has no name")
	}
	if _, dup := sc.Areas[s.Name]; dup {
		return fmt.Errorf("duplicate area name")
	}

	rid := sc.Server.AreaCreate()
	area, _ := sc.Server.Area(rid)
	if s.Override != "" {
		mode, ok := physics.ParseAreaOverrideMode(s.Override)
		if !ok {
			return fmt.Errorf("unknown override mode %q", s.Override)
		}
		area.SetOverrideMode(mode)
	}
	area.SetPriority(s.Priority)
	if s.Gravity != nil {
		area.SetGravity(*s.Gravity)
	}
	if s.GravityVector != nil {
		area.SetGravityVector(*s.GravityVector)
	}
	area.SetGravityPoint(s.GravityPoint)
	if s.GravityPointUnitDistance != 0 {
		area.SetGravityPointUnitDistance(s.GravityPointUnitDistance)
	}
	if s.LinearDamp != nil {
		area.SetLinearDamp(*s.LinearDamp)
	}
	if s.AngularDamp != nil {
		area.SetAngularDamp(*s.AngularDamp)
	}
	monitorable := true
	if s.Monitorable != nil {
		monitorable = *s.Monitorable
	}
	area.SetMonitorable(monitorable)
	if s.Layer != nil {
		area.SetCollisionLayer(*s.Layer)
	}
	if s.Mask != nil {
		area.SetCollisionMask(*s.Mask)
	}

	add := func(shape physics.RID, xform physics.Transform, disabled bool) error {
		return sc.Server.AreaAddShape(rid, shape, xform, disabled)
	}
	if err := sc.addShapes(s.Shapes, add, &area.CollisionObject); err != nil {
		return err
	}
	area.SetTransform(physics.NewTransformRigid(s.Position, s.Rotation))
	if err := sc.Server.AreaSetSpace(rid, sc.Space); err != nil {
		return err
	}
	sc.Areas[s.Name] = rid
	return nil
}

func (sc *Scene) jointBodies(s JointSpec) (physics.RID, physics.RID, error) {
	a, ok := sc.Bodies[s.A]
	if !ok {
		return 0, 0, fmt.Errorf("no body named %q", s.A)
	}
	if s.B == "" {
		return a, 0, nil
	}
	b, ok := sc.Bodies[s.B]
	if !ok {
		return 0, 0, fmt.Errorf("no body named %q", s.B)
	}
	return a, b, nil
}

func (sc *Scene) buildJoint(s JointSpec) error {
	kind, ok := physics.ParseJointType(s.Type)
	if !ok {
		return fmt.Errorf("unknown joint type %q", s.Type)
	}
	a, b, err := sc.jointBodies(s)
	if err != nil {
		return err
	}

	var rid physics.RID
	switch kind {
	case physics.JOINT_PIN:
		rid, err = sc.Server.JointCreatePin(a, b, s.Pivot)
	case physics.JOINT_GROOVE:
		rid, err = sc.Server.JointCreateGroove(a, b, s.GrooveA, s.GrooveB, s.Anchor)
	case physics.JOINT_DAMPED_SPRING:
		rid, err = sc.Server.JointCreateDampedSpring(a, b, s.AnchorA, s.AnchorB)
	}
	if err != nil {
		return err
	}
	joint, _ := sc.Server.Joint(rid)

	switch j := joint.(type) {
	case *physics.PinJoint:
		j.Softness = s.Softness
		if s.Limit != nil {
			j.SetLimits(true, s.Limit.Lower, s.Limit.Upper)
		}
		if s.Motor != nil {
			j.SetMotor(true, *s.Motor)
		}
	case *physics.DampedSpringJoint:
		if s.RestLength != nil {
			j.RestLength = *s.RestLength
		}
		if s.Stiffness != nil {
			j.Stiffness = *s.Stiffness
		}
		if s.Damping != nil {
			j.Damping = *s.Damping
		}
	}

	joint.SetBias(s.Bias)
	if s.MaxForce != nil {
		if err := joint.SetMaxForce(*s.MaxForce); err != nil {
			return err
		}
	}
	joint.DisableCollisionsBetweenBodies(s.DisableCollisions)

	name := s.Name
	if name == "" {
		name = fmt.Sprintf("joint%d", len(sc.Joints))
	}
	if _, dup := sc.Joints[name]; dup {
		return fmt.Errorf("duplicate joint name")
	}
	sc.Joints[name] = rid
	return nil
}
