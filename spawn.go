package main

import "github.com/sirupsen/logrus"

// spawnClearance is the gap kept between a new box and any other box
const spawnClearance = 1

var spawnFacings = [...]Orientation{OrientUp, OrientDown, OrientLeft, OrientRight}

// findSpawn picks a random free anchor and facing for entity self. After
// SpawnAttempts random tries it scans the board in order, and as a last
// resort returns the top-left corner.
func (g *Game) findSpawn(self string) (int, int, Orientation) {
	maxX, maxY := g.cfg.Cols-FootprintSize, g.cfg.Rows-FootprintSize
	for i := 0; i < g.cfg.SpawnAttempts; i++ {
		x, y := g.rng.Intn(maxX+1), g.rng.Intn(maxY+1)
		o := spawnFacings[g.rng.Intn(len(spawnFacings))]
		if g.spawnFree(self, x, y, o) {
			return x, y, o
		}
	}

	o := spawnFacings[g.rng.Intn(len(spawnFacings))]
	for y := 0; y <= maxY; y++ {
		for x := 0; x <= maxX; x++ {
			if g.spawnFree(self, x, y, o) {
				return x, y, o
			}
		}
	}
	log.WithField("entity", self).Warn("no free spawn point, placing at origin")
	return 0, 0, o
}

// spawnFree reports whether a box at (x, y) is on the board, off walls and
// projectiles, and at least spawnClearance away from every other live or
// exploding entity
func (g *Game) spawnFree(self string, x, y int, o Orientation) bool {
	if !g.CheckBounds(x, y, o) || g.CheckWall(x, y, o) {
		return false
	}
	for _, id := range g.order {
		other := g.entities[id]
		if id == self || other.Status == StatusDead {
			continue
		}
		if boxesWithin(x, y, other.X, other.Y, spawnClearance) {
			return false
		}
	}
	for _, p := range g.projectiles {
		if p.OwnerID == self {
			continue
		}
		if Covers(x, y, o, p.X, p.Y) {
			return false
		}
	}
	return true
}

// boxesWithin reports whether two 3x3 boxes are closer than gap cells on
// both axes
func boxesWithin(ax, ay, bx, by, gap int) bool {
	reach := FootprintSize + gap
	return abs(ax-bx) < reach && abs(ay-by) < reach
}

func (g *Game) logSpawn(e *Entity) {
	log.WithFields(logrus.Fields{"entity": e.ID, "x": e.X, "y": e.Y, "orientation": e.Orientation.String()}).Debug("spawned")
}
