package main

import "github.com/sirupsen/logrus"

// broadPhaseCutoff is the largest anchor Manhattan distance at which two
// 3x3 boxes can still share a cell
const broadPhaseCutoff = 2 * (FootprintSize - 1)

// CheckBounds reports whether every occupied cell of o anchored at (x, y)
// lies on the board. Callers hold mu.
func (g *Game) CheckBounds(x, y int, o Orientation) bool {
	inside := true
	known := Cells(x, y, o, func(cx, cy int) bool {
		if !g.inBounds(cx, cy) {
			inside = false
			return false
		}
		return true
	})
	return known && inside
}

// CheckWall reports whether any occupied cell of o anchored at (x, y) is a
// wall. Callers hold mu.
func (g *Game) CheckWall(x, y int, o Orientation) bool {
	if len(g.walls) == 0 {
		return false
	}
	hit := false
	Cells(x, y, o, func(cx, cy int) bool {
		if g.isWall(cx, cy) {
			hit = true
			return false
		}
		return true
	})
	return hit
}

// CheckEntityCollision returns the first other entity, in registry order,
// whose current footprint intersects mover's footprint o placed at (x, y).
// Only collidable entities take part, on either side. Callers hold mu.
func (g *Game) CheckEntityCollision(mover *Entity, x, y int, o Orientation) (string, bool) {
	return g.entityCollision(mover, x, y, o, false)
}

// entityCollision is CheckEntityCollision. With separating set, an entity the
// mover already overlaps does not block a move that shrinks that overlap.
func (g *Game) entityCollision(mover *Entity, x, y int, o Orientation, separating bool) (string, bool) {
	if !mover.Collidable(g.now) {
		return "", false
	}
	mask, ok := Footprint(o)
	if !ok {
		g.warnOrientation(mover)
		return "", false
	}
	for _, id := range g.order {
		other := g.entities[id]
		if other == mover || !other.Collidable(g.now) {
			continue
		}
		if Manhattan(Vec{X: x, Y: y}, Vec{X: other.X, Y: other.Y}) > broadPhaseCutoff {
			continue
		}
		otherMask, ok := Footprint(other.Orientation)
		if !ok {
			g.warnOrientation(other)
			continue
		}
		n := overlapCount(mask, x, y, otherMask, other.X, other.Y)
		if n == 0 {
			continue
		}
		if separating && n < g.overlapNow(mover, other) {
			continue
		}
		return other.ID, true
	}
	return "", false
}

// overlapNow counts the cells a and b share where they stand
func (g *Game) overlapNow(a, b *Entity) int {
	am, ok := Footprint(a.Orientation)
	if !ok {
		return 0
	}
	bm, ok := Footprint(b.Orientation)
	if !ok {
		return 0
	}
	return overlapCount(am, a.X, a.Y, bm, b.X, b.Y)
}

// masksOverlap compares two anchored masks cell by cell
func masksOverlap(a Mask, ax, ay int, b Mask, bx, by int) bool {
	return overlapCount(a, ax, ay, b, bx, by) > 0
}

// overlapCount is the number of cells two anchored masks share
func overlapCount(a Mask, ax, ay int, b Mask, bx, by int) int {
	n := 0
	for row := 0; row < FootprintSize; row++ {
		for col := 0; col < FootprintSize; col++ {
			if !a[row][col] {
				continue
			}
			bc, br := ax+col-bx, ay+row-by
			if bc < 0 || bc >= FootprintSize || br < 0 || br >= FootprintSize {
				continue
			}
			if b[br][bc] {
				n++
			}
		}
	}
	return n
}

// botBlocked reports whether bot e moving to o at (x, y) would step into a
// live entity, ignoring invulnerability on both sides. Moves that shrink an
// existing overlap are allowed so tangled boxes can come apart.
func (g *Game) botBlocked(e *Entity, x, y int, o Orientation) bool {
	mask, ok := Footprint(o)
	if !ok {
		return true
	}
	for _, id := range g.order {
		other := g.entities[id]
		if other == e || other.Status != StatusAlive {
			continue
		}
		otherMask, ok := Footprint(other.Orientation)
		if !ok {
			continue
		}
		n := overlapCount(mask, x, y, otherMask, other.X, other.Y)
		if n > 0 && n >= g.overlapNow(e, other) {
			return true
		}
	}
	return false
}

// entityAt returns the first collidable entity other than skip whose
// footprint covers (x, y)
func (g *Game) entityAt(x, y int, skip string) *Entity {
	for _, id := range g.order {
		e := g.entities[id]
		if id == skip || !e.Collidable(g.now) {
			continue
		}
		if Covers(e.X, e.Y, e.Orientation, x, y) {
			return e
		}
	}
	return nil
}

func (g *Game) warnOrientation(e *Entity) {
	log.WithFields(logrus.Fields{
		"entity":      e.ID,
		"orientation": int(e.Orientation),
	}).Warn("unknown orientation, entity skipped")
}
