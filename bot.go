package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Bot tuning. Distances are in cells, measured between box centers.
const (
	botHistoryLen       = 4
	botDangerRadius     = 6
	botLateralTolerance = 1
	botInterceptPenalty = 10
	botCollisionPenalty = 100
	botSafetyMargin     = 1
	botRatingWeight     = 2
	botLineOfFireBonus  = 5
	botEngageRange      = 25
	botAimTolerance     = 1
	botEscapeSteps      = 3
)

var botColors = []string{"#FF6B6B", "#F06595", "#FF922B", "#845EF7"}

type botMove struct {
	dx, dy int
	o      Orientation
}

// botMoves are the four cardinal steps in a fixed order
var botMoves = [...]botMove{
	{0, -1, OrientUp},
	{0, 1, OrientDown},
	{-1, 0, OrientLeft},
	{1, 0, OrientRight},
}

// BotBrain is the memory of one bot between decisions
type BotBrain struct {
	ID       string
	TargetID string
	history  []Vec
}

// Reset forgets the position history and the current target
func (b *BotBrain) Reset() {
	b.history = b.history[:0]
	b.TargetID = ""
}

func (b *BotBrain) remember(pos Vec) {
	if len(b.history) == botHistoryLen {
		copy(b.history, b.history[1:])
		b.history = b.history[:botHistoryLen-1]
	}
	b.history = append(b.history, pos)
}

// stalled reports whether a full history collapsed to a single cell
func (b *BotBrain) stalled() bool {
	if len(b.history) < botHistoryLen {
		return false
	}
	for _, p := range b.history[1:] {
		if p != b.history[0] {
			return false
		}
	}
	return true
}

// addBot registers bot number n and starts its decision cycle
func (g *Game) addBot(n int) {
	id := fmt.Sprintf("bot-%d", n)
	e := NewEntity(id, fmt.Sprintf("Bot %d", n), botColors[(n-1)%len(botColors)], true)
	g.register(e)
	g.bots[id] = &BotBrain{ID: id, history: make([]Vec, 0, botHistoryLen)}
	g.respawn(e)
	g.schedule(TaskKey{Kind: TaskBotDecision, Entity: id}, g.now+g.cfg.BotDecision, 0)
	log.WithFields(logrus.Fields{"entity": id, "x": e.X, "y": e.Y}).Info("bot added")
}

// decide runs one decision cycle for bot id. The first step that acts wins.
func (g *Game) decide(id string) {
	e, ok := g.entities[id]
	brain := g.bots[id]
	if !ok || brain == nil || e.Status != StatusAlive {
		return
	}
	defer func() {
		brain.remember(Vec{X: e.X, Y: e.Y})
	}()

	if g.evade(e) {
		return
	}
	if brain.stalled() {
		g.escape(e)
		brain.Reset()
		return
	}
	if g.avoidCrowding(e) {
		return
	}
	target := g.acquireTarget(e)
	if target == nil {
		brain.TargetID = ""
		g.patrol(e)
		return
	}
	brain.TargetID = target.ID
	if g.engage(e, target) {
		return
	}
	g.pursue(e, target)
}

// threatens reports whether p is close to c and travelling at it
func threatens(p *Projectile, c Vec) bool {
	if Manhattan(p.Cell(), c) > botDangerRadius {
		return false
	}
	switch {
	case p.Dir.X != 0:
		return abs(p.Y-c.Y) <= botLateralTolerance && sign(c.X-p.X) == p.Dir.X
	case p.Dir.Y != 0:
		return abs(p.X-c.X) <= botLateralTolerance && sign(c.Y-p.Y) == p.Dir.Y
	}
	return false
}

// lateralOffset is how far c sits off the line p travels along
func lateralOffset(p *Projectile, c Vec) int {
	if p.Dir.X != 0 {
		return abs(p.Y - c.Y)
	}
	return abs(p.X - c.X)
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// evade steps away from incoming projectiles of other owners
func (g *Game) evade(e *Entity) bool {
	var threats []*Projectile
	center := e.Center()
	for _, p := range g.projectiles {
		if p.OwnerID != e.ID && threatens(p, center) {
			threats = append(threats, p)
		}
	}
	if len(threats) == 0 {
		return false
	}

	best, bestScore, bestCollides := -1, 0, false
	for i, m := range botMoves {
		nx, ny := e.X+m.dx, e.Y+m.dy
		if !g.CheckBounds(nx, ny, m.o) || g.CheckWall(nx, ny, m.o) {
			continue
		}
		nc := Vec{X: nx + 1, Y: ny + 1}
		score := 0
		for _, p := range threats {
			score += Manhattan(p.Cell(), nc) + lateralOffset(p, nc)
			if threatens(p, nc) {
				score -= botInterceptPenalty
			}
		}
		collides := g.botBlocked(e, nx, ny, m.o)
		if collides {
			score -= botCollisionPenalty
		}
		if best < 0 || score > bestScore {
			best, bestScore, bestCollides = i, score, collides
		}
	}
	if best < 0 || bestCollides {
		return false
	}
	m := botMoves[best]
	return g.tryMove(e.ID, m.dx, m.dy, m.o) == MoveAccepted
}

// escape moves up to botEscapeSteps cells in a random open direction
func (g *Game) escape(e *Entity) {
	for _, i := range g.rng.Perm(len(botMoves)) {
		m := botMoves[i]
		if !g.wouldMove(e, m.dx, m.dy, m.o) {
			continue
		}
		for step := 0; step < botEscapeSteps; step++ {
			if !g.wouldMove(e, m.dx, m.dy, m.o) || g.tryMove(e.ID, m.dx, m.dy, m.o) != MoveAccepted {
				break
			}
		}
		log.WithFields(logrus.Fields{"entity": e.ID, "x": e.X, "y": e.Y}).Debug("bot escaped stall")
		return
	}
}

// axisGap is the number of free cells between spans [a0,a1] and [b0,b1],
// or -1 when they overlap
func axisGap(a0, a1, b0, b1 int) int {
	switch {
	case b1 < a0:
		return a0 - b1 - 1
	case b0 > a1:
		return b0 - a1 - 1
	}
	return -1
}

// clearance is the smallest gap between a box at (x, y) and the board
// edge, any wall, or any collidable entity other than self
func (g *Game) clearance(self *Entity, x, y int) int {
	const span = FootprintSize - 1
	gap := x
	for _, v := range []int{y, g.cfg.Cols - 1 - (x + span), g.cfg.Rows - 1 - (y + span)} {
		if v < gap {
			gap = v
		}
	}
	for w := range g.walls {
		d := max(axisGap(x, x+span, w.X, w.X), axisGap(y, y+span, w.Y, w.Y))
		if d < gap {
			gap = d
		}
	}
	for _, id := range g.order {
		other := g.entities[id]
		if other == self || !other.Collidable(g.now) {
			continue
		}
		d := max(axisGap(x, x+span, other.X, other.X+span), axisGap(y, y+span, other.Y, other.Y+span))
		if d < gap {
			gap = d
		}
	}
	return gap
}

// avoidCrowding moves away from a nearby edge, wall or entity
func (g *Game) avoidCrowding(e *Entity) bool {
	current := g.clearance(e, e.X, e.Y)
	if current >= botSafetyMargin {
		return false
	}
	best, bestGap := -1, current
	for i, m := range botMoves {
		if !g.wouldMove(e, m.dx, m.dy, m.o) {
			continue
		}
		if gap := g.clearance(e, e.X+m.dx, e.Y+m.dy); gap > bestGap {
			best, bestGap = i, gap
		}
	}
	if best < 0 {
		return false
	}
	m := botMoves[best]
	return g.tryMove(e.ID, m.dx, m.dy, m.o) == MoveAccepted
}

// clearShot reports whether from and to share a row or column within
// botAimTolerance and no wall sits between them
func (g *Game) clearShot(from, to Vec) bool {
	dx, dy := to.X-from.X, to.Y-from.Y
	var step Vec
	switch {
	case abs(dx) <= botAimTolerance && dy != 0:
		step = Vec{Y: sign(dy)}
	case abs(dy) <= botAimTolerance && dx != 0:
		step = Vec{X: sign(dx)}
	default:
		return false
	}
	c := from
	for {
		c = Vec{X: c.X + step.X, Y: c.Y + step.Y}
		if step.X != 0 && c.X == to.X || step.Y != 0 && c.Y == to.Y {
			return true
		}
		if g.isWall(c.X, c.Y) {
			return false
		}
	}
}

// acquireTarget picks the best scoring human target in range
func (g *Game) acquireTarget(e *Entity) *Entity {
	center := e.Center()
	var best *Entity
	bestScore := 0
	for _, id := range g.order {
		t := g.entities[id]
		if t.IsBot || t == e || !t.Collidable(g.now) {
			continue
		}
		dist := Manhattan(center, t.Center())
		if dist > botEngageRange {
			continue
		}
		score := -dist + botRatingWeight*t.Rating
		if g.clearShot(center, t.Center()) {
			score += botLineOfFireBonus
		}
		if best == nil || score > bestScore {
			best, bestScore = t, score
		}
	}
	return best
}

// aimedAt reports whether e's facing points at t within tolerance
func aimedAt(e, t *Entity) bool {
	dir, ok := Direction(e.Orientation)
	if !ok {
		return false
	}
	from, to := e.Center(), t.Center()
	dx, dy := to.X-from.X, to.Y-from.Y
	if dir.X != 0 {
		return abs(dy) <= botAimTolerance && sign(dx) == dir.X
	}
	return abs(dx) <= botAimTolerance && sign(dy) == dir.Y
}

// engage shoots at an aimed target. A rejected shot leaves the bot free to
// pursue.
func (g *Game) engage(e, t *Entity) bool {
	if !aimedAt(e, t) || !g.clearShot(e.Center(), t.Center()) {
		return false
	}
	if !g.shoot(e.ID) {
		return false
	}
	log.WithFields(logrus.Fields{"entity": e.ID, "target": t.ID}).Debug("bot fired")
	return true
}

// pursue steps toward t, turning to face it on the axis it is aligned with
func (g *Game) pursue(e, t *Entity) {
	from, to := e.Center(), t.Center()
	dx, dy := to.X-from.X, to.Y-from.Y

	var order []Vec
	switch {
	case abs(dx) <= botAimTolerance:
		order = []Vec{{Y: sign(dy)}}
	case abs(dy) <= botAimTolerance:
		order = []Vec{{X: sign(dx)}}
	case abs(dx) >= abs(dy):
		order = []Vec{{X: sign(dx)}, {Y: sign(dy)}}
	default:
		order = []Vec{{Y: sign(dy)}, {X: sign(dx)}}
	}
	g.stepAlong(e, order)
}

// patrol drifts toward the center when far from it, otherwise wanders
func (g *Game) patrol(e *Entity) {
	mid := Vec{X: g.cfg.Cols / 2, Y: g.cfg.Rows / 2}
	c := e.Center()
	if Manhattan(c, mid) > min(g.cfg.Cols, g.cfg.Rows)/4 {
		dx, dy := sign(mid.X-c.X), sign(mid.Y-c.Y)
		order := []Vec{{X: dx}, {Y: dy}}
		if abs(mid.Y-c.Y) > abs(mid.X-c.X) {
			order[0], order[1] = order[1], order[0]
		}
		if g.stepAlong(e, order) {
			return
		}
	}
	for _, i := range g.rng.Perm(len(botMoves)) {
		m := botMoves[i]
		if g.wouldMove(e, m.dx, m.dy, m.o) {
			g.tryMove(e.ID, m.dx, m.dy, m.o)
			return
		}
	}
}

// stepAlong tries each unit step in order and takes the first that is free
func (g *Game) stepAlong(e *Entity, order []Vec) bool {
	for _, d := range order {
		o, ok := OrientationFor(d.X, d.Y)
		if !ok {
			continue
		}
		if g.wouldMove(e, d.X, d.Y, o) && g.tryMove(e.ID, d.X, d.Y, o) == MoveAccepted {
			return true
		}
	}
	return false
}
