package main

import "github.com/sirupsen/logrus"

// MoveResult is the outcome of a move intent
type MoveResult int

const (
	MoveBlocked MoveResult = iota
	MoveAccepted
	MoveMutualDestruction
)

func (r MoveResult) String() string {
	switch r {
	case MoveAccepted:
		return "accepted"
	case MoveMutualDestruction:
		return "mutual_destruction"
	default:
		return "blocked"
	}
}

// moveIntents maps the move intent names to a step and resulting facing
var moveIntents = map[string]struct {
	dx, dy int
	o      Orientation
}{
	MsgMoveUp:    {0, -1, OrientUp},
	MsgMoveDown:  {0, 1, OrientDown},
	MsgMoveLeft:  {-1, 0, OrientLeft},
	MsgMoveRight: {1, 0, OrientRight},
}

// TryMove applies a move intent for entity id
func (g *Game) TryMove(id string, dx, dy int, o Orientation) MoveResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sync()
	return g.tryMove(id, dx, dy, o)
}

// HandleMove applies one of the named move intents
func (g *Game) HandleMove(id, intent string) MoveResult {
	m, ok := moveIntents[intent]
	if !ok {
		return MoveBlocked
	}
	return g.TryMove(id, m.dx, m.dy, m.o)
}

func (g *Game) tryMove(id string, dx, dy int, o Orientation) MoveResult {
	e, ok := g.entities[id]
	if !ok || e.Status != StatusAlive {
		return MoveBlocked
	}
	nx, ny := e.X+dx, e.Y+dy
	if !g.CheckBounds(nx, ny, o) || g.CheckWall(nx, ny, o) {
		return MoveBlocked
	}

	if otherID, hit := g.entityCollision(e, nx, ny, o, true); hit {
		other := g.entities[otherID]
		at := Vec{X: (e.X + other.X) / 2, Y: (e.Y + other.Y) / 2}
		log.WithFields(logrus.Fields{"entity": e.ID, "other": other.ID, "x": at.X, "y": at.Y}).Debug("mutual collision")
		g.emitCell(MsgCollisionAt, at)
		g.recorder.Record(CombatEvent{Type: EvtCollision, EntityID: e.ID, OtherID: other.ID, Name: e.Name, X: at.X, Y: at.Y, At: g.now})
		g.explode(e)
		g.explode(other)
		return MoveMutualDestruction
	}

	e.X, e.Y, e.Orientation = nx, ny, o
	return MoveAccepted
}

// wouldMove is the read-only half of tryMove: it reports whether a move of e
// is in bounds, wall-free and clear of other entities. Bots also keep out of
// invulnerable entities and stay out while protected themselves.
func (g *Game) wouldMove(e *Entity, dx, dy int, o Orientation) bool {
	nx, ny := e.X+dx, e.Y+dy
	if !g.CheckBounds(nx, ny, o) || g.CheckWall(nx, ny, o) {
		return false
	}
	if e.IsBot {
		return !g.botBlocked(e, nx, ny, o)
	}
	_, hit := g.entityCollision(e, nx, ny, o, true)
	return !hit
}
