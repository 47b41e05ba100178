package main

import "fmt"

// FootprintSize is the side of the square box every entity occupies
const FootprintSize = 3

// Orientation selects which footprint variant governs an entity
type Orientation int

const (
	OrientUp Orientation = iota
	OrientDown
	OrientLeft
	OrientRight
	OrientExplodeA
	OrientExplodeB
)

var orientationNames = [...]string{"up", "down", "left", "right", "explodeA", "explodeB"}

func (o Orientation) String() string {
	if o < 0 || int(o) >= len(orientationNames) {
		return fmt.Sprintf("orientation(%d)", int(o))
	}
	return orientationNames[o]
}

// IsFacing reports whether o is one of the four movement orientations
func (o Orientation) IsFacing() bool {
	return o >= OrientUp && o <= OrientRight
}

// Mask is a 3x3 occupancy bitmask, indexed [row][col]
type Mask [FootprintSize][FootprintSize]bool

var footprints = [...]Mask{
	OrientUp: {
		{false, true, false},
		{true, true, true},
		{true, false, true},
	},
	OrientDown: {
		{true, false, true},
		{true, true, true},
		{false, true, false},
	},
	OrientLeft: {
		{false, true, true},
		{true, true, false},
		{false, true, true},
	},
	OrientRight: {
		{true, true, false},
		{false, true, true},
		{true, true, false},
	},
	OrientExplodeA: {
		{true, false, true},
		{false, true, false},
		{true, false, true},
	},
	OrientExplodeB: {
		{false, true, false},
		{true, false, true},
		{false, true, false},
	},
}

// Footprint returns the mask for o. ok is false for an unknown orientation,
// in which case callers treat the entity as non-collidable.
func Footprint(o Orientation) (Mask, bool) {
	if o < 0 || int(o) >= len(footprints) {
		return Mask{}, false
	}
	return footprints[o], true
}

// Cells calls fn with the absolute coordinates of every occupied cell of o
// anchored at (x, y). It returns false if o is unknown.
func Cells(x, y int, o Orientation, fn func(cx, cy int) bool) bool {
	m, ok := Footprint(o)
	if !ok {
		return false
	}
	for row := 0; row < FootprintSize; row++ {
		for col := 0; col < FootprintSize; col++ {
			if m[row][col] && !fn(x+col, y+row) {
				return true
			}
		}
	}
	return true
}

// Covers reports whether the footprint of o anchored at (x, y) occupies (cx, cy)
func Covers(x, y int, o Orientation, cx, cy int) bool {
	col, row := cx-x, cy-y
	if col < 0 || col >= FootprintSize || row < 0 || row >= FootprintSize {
		return false
	}
	m, ok := Footprint(o)
	return ok && m[row][col]
}

// Vec is an integer grid offset
type Vec struct {
	X int `json:"x" msgpack:"x" toml:"x"`
	Y int `json:"y" msgpack:"y" toml:"y"`
}

// facing holds the per-direction travel vector and projectile spawn offset
type facing struct {
	dir   Vec
	spawn Vec
}

var facings = [...]facing{
	OrientUp:    {dir: Vec{0, -1}, spawn: Vec{1, 0}},
	OrientDown:  {dir: Vec{0, 1}, spawn: Vec{1, 2}},
	OrientLeft:  {dir: Vec{-1, 0}, spawn: Vec{0, 1}},
	OrientRight: {dir: Vec{1, 0}, spawn: Vec{2, 1}},
}

// Direction returns the unit travel vector of a facing orientation
func Direction(o Orientation) (Vec, bool) {
	if !o.IsFacing() {
		return Vec{}, false
	}
	return facings[o].dir, true
}

// SpawnOffset returns where, relative to the anchor, a projectile fired while
// facing o appears: the nose cell of the mask
func SpawnOffset(o Orientation) (Vec, bool) {
	if !o.IsFacing() {
		return Vec{}, false
	}
	return facings[o].spawn, true
}

// OrientationFor maps a unit step to the facing it produces
func OrientationFor(dx, dy int) (Orientation, bool) {
	switch {
	case dx == 0 && dy < 0:
		return OrientUp, true
	case dx == 0 && dy > 0:
		return OrientDown, true
	case dx < 0 && dy == 0:
		return OrientLeft, true
	case dx > 0 && dy == 0:
		return OrientRight, true
	}
	return 0, false
}
