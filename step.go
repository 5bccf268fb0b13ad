package physics

import (
	"log"

	"golang.org/x/sync/errgroup"
)

// Step advances the space by delta seconds and returns the events it made
// due, which stay queued until DispatchEvents.
//
// A step integrates forces, updates the broad phase, splits the constraints
// into islands of bodies that touch through them, then solves the islands
// in parallel. Islands whose bodies have all been still long enough go to
// sleep together.
func (space *Space) Step(delta float64) []Event {
	if space.locked {
		log.Println("Step:", space, ErrSpaceLocked)
		return nil
	}
	if delta <= 0 {
		return space.events.pending()
	}
	stamp := space.stepCount + 1

	space.lock()
	space.setup()
	space.lastStep = delta

	space.bodyScratch = space.activeBodies.snapshot(space.bodyScratch)
	for _, body := range space.bodyScratch {
		body.integrateForces(delta)
	}
	space.activeCount = len(space.bodyScratch)

	space.update()

	space.allConstraints = space.allConstraints[:0]
	islands := 0

	// Area constraints have nothing to solve, so each gets its own island.
	space.areaScratch = space.movedAreas.snapshot(space.areaScratch)
	space.movedAreas.clear()
	for _, area := range space.areaScratch {
		for _, c := range area.constraints {
			if c.islandStep() == stamp {
				continue
			}
			c.setIslandStep(stamp)
			island := space.constraintIsland(islands)
			space.constraintIslands[islands] = append(island, c)
			space.allConstraints = append(space.allConstraints, c)
			islands++
		}
	}

	bodyIslands := 0
	space.bodyScratch = space.activeBodies.snapshot(space.bodyScratch)
	for _, body := range space.bodyScratch {
		if body.islandStep == stamp {
			continue
		}
		bodies, constraints := space.populateIsland(body, stamp, space.bodyIsland(bodyIslands), space.constraintIsland(islands))
		space.bodyIslands[bodyIslands] = bodies
		space.constraintIslands[islands] = constraints
		if len(bodies) > 0 {
			bodyIslands++
		}
		if len(constraints) > 0 {
			islands++
		}
	}
	space.islandCount = islands

	all := space.allConstraints
	space.parallel(len(all), func(i int) {
		all[i].setup(delta)
	})

	// pre-solve touches the bodies' area lists and contact reports, so it
	// stays on this goroutine
	for i := 0; i < islands; i++ {
		island := space.constraintIslands[i]
		kept := island[:0]
		for _, c := range island {
			if c.preSolve(delta) {
				kept = append(kept, c)
			}
		}
		space.constraintIslands[i] = kept
	}

	iterations := space.params.SolverIterations
	space.parallel(islands, func(i int) {
		island := space.constraintIslands[i]
		for it := 0; it < iterations; it++ {
			for _, c := range island {
				c.solve(delta)
			}
		}
	})

	space.bodyScratch = space.activeBodies.snapshot(space.bodyScratch)
	for _, body := range space.bodyScratch {
		body.integrateVelocities(delta)
	}

	for i := 0; i < bodyIslands; i++ {
		sleepIsland(space.bodyIslands[i], delta)
	}

	for i := range space.allConstraints {
		space.allConstraints[i] = nil
	}
	space.allConstraints = space.allConstraints[:0]

	space.unlock()
	space.stepCount = stamp
	space.callQueries()
	return space.events.pending()
}

// populateIsland collects everything connected to root through
// constraints. Static bodies end the walk; kinematic bodies join islands
// but are not tested for sleep.
func (space *Space) populateIsland(root *Body, stamp uint64, bodies []*Body, constraints []Constraint) ([]*Body, []Constraint) {
	root.islandStep = stamp
	stack := append(space.islandStack[:0], root)
	for len(stack) > 0 {
		body := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if body.mode > BODY_MODE_KINEMATIC {
			bodies = append(bodies, body)
		}
		for _, bc := range body.constraints {
			c := bc.c
			if c.islandStep() == stamp {
				continue
			}
			c.setIslandStep(stamp)
			constraints = append(constraints, c)
			space.allConstraints = append(space.allConstraints, c)

			for i, other := range c.bodies() {
				if i == bc.index || other.islandStep == stamp || other.mode == BODY_MODE_STATIC {
					continue
				}
				other.islandStep = stamp
				stack = append(stack, other)
			}
		}
	}
	space.islandStack = stack
	return bodies, constraints
}

// sleepIsland puts every body of an island to sleep when all of them pass
// the sleep test, and wakes all of them otherwise.
func sleepIsland(island []*Body, step float64) {
	canSleep := true
	for _, body := range island {
		if !body.sleepTest(step) {
			canSleep = false
		}
	}
	for _, body := range island {
		if body.active == canSleep {
			body.setActive(!canSleep)
		}
	}
}

func (space *Space) bodyIsland(i int) []*Body {
	if i == len(space.bodyIslands) {
		space.bodyIslands = append(space.bodyIslands, nil)
	}
	island := space.bodyIslands[i]
	for j := range island {
		island[j] = nil
	}
	return island[:0]
}

func (space *Space) constraintIsland(i int) []Constraint {
	if i == len(space.constraintIslands) {
		space.constraintIslands = append(space.constraintIslands, nil)
	}
	island := space.constraintIslands[i]
	for j := range island {
		island[j] = nil
	}
	return island[:0]
}

// parallel runs fn for 0 <= i < n on up to params.Workers goroutines, in
// contiguous batches.
func (space *Space) parallel(n int, fn func(i int)) {
	workers := space.params.workers()
	if n < 2 || workers < 2 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	batch := (n + workers*4 - 1) / (workers * 4)
	var g errgroup.Group
	g.SetLimit(workers)
	for start := 0; start < n; start += batch {
		start, end := start, start+batch
		if end > n {
			end = n
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				fn(i)
			}
			return nil
		})
	}
	_ = g.Wait()
}
