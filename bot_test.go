package main

import (
	"testing"
	"time"
)

func newBotGame(t *testing.T) *Game {
	t.Helper()
	cfg := testConfig()
	cfg.BotCount = 1
	g, _ := newTestGame(t, cfg)
	return g
}

// readyBot moves bot-1 to a fixed spot and drops its spawn protection
func readyBot(g *Game, x, y int, o Orientation) *Entity {
	g.mu.Lock()
	defer g.mu.Unlock()
	e := g.entities["bot-1"]
	e.X, e.Y, e.Orientation = x, y, o
	e.InvulnerableUntil = 0
	e.RespawnShotCooldownUntil = 0
	g.bots["bot-1"].Reset()
	return e
}

func decide(g *Game) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.decide("bot-1")
}

func TestAddBot(t *testing.T) {
	cfg := testConfig()
	cfg.BotCount = 3
	g, _ := newTestGame(t, cfg)

	for _, id := range []string{"bot-1", "bot-2", "bot-3"} {
		e, ok := g.Entity(id)
		if !ok {
			t.Fatalf("%s missing", id)
		}
		if !e.IsBot || e.Status != StatusAlive {
			t.Errorf("%s: expected alive bot, got bot=%v %s", id, e.IsBot, e.Status)
		}
		if !g.sched.Pending(TaskKey{Kind: TaskBotDecision, Entity: id}) {
			t.Errorf("%s has no decision scheduled", id)
		}
	}
	if g.PlayerCount() != 0 {
		t.Errorf("bots counted as players: %d", g.PlayerCount())
	}
}

func TestBotShootsAlignedTarget(t *testing.T) {
	g := newBotGame(t)
	readyBot(g, 10, 10, OrientUp)
	place(g, "p", 10, 2, OrientDown)

	decide(g)
	p := onlyProjectile(t, g)
	if p.OwnerID != "bot-1" {
		t.Errorf("expected bot projectile, got owner %s", p.OwnerID)
	}
	if g.bots["bot-1"].TargetID != "p" {
		t.Errorf("expected target p, got %q", g.bots["bot-1"].TargetID)
	}
}

func TestBotPursuesWhileReloading(t *testing.T) {
	g := newBotGame(t)
	bot := readyBot(g, 10, 10, OrientUp)
	place(g, "p", 10, 2, OrientDown)
	g.mu.Lock()
	bot.LastShotAt = g.now
	g.mu.Unlock()

	decide(g)
	e, _ := g.Entity("bot-1")
	if e.X != 10 || e.Y != 9 || e.Orientation != OrientUp {
		t.Errorf("expected a step toward the target to (10,9), got (%d,%d) %s", e.X, e.Y, e.Orientation)
	}
	if projectileCount(g) != 0 {
		t.Error("bot fired during cooldown")
	}
}

func TestBotPursuesDuringRespawnGrace(t *testing.T) {
	g := newBotGame(t)
	bot := readyBot(g, 10, 10, OrientUp)
	place(g, "p", 10, 2, OrientDown)
	g.mu.Lock()
	bot.RespawnShotCooldownUntil = g.now + g.cfg.RespawnShotGrace
	g.mu.Unlock()

	decide(g)
	e, _ := g.Entity("bot-1")
	if e.Y != 9 {
		t.Errorf("expected the bot to close in during its grace window, at (%d,%d)", e.X, e.Y)
	}
}

func TestProtectedBotKeepsOutOfOthers(t *testing.T) {
	g := newBotGame(t)
	bot := readyBot(g, 10, 10, OrientUp)
	place(g, "p", 13, 10, OrientUp)

	g.mu.Lock()
	defer g.mu.Unlock()
	bot.InvulnerableUntil = g.now + g.cfg.Invulnerability
	if g.wouldMove(bot, 1, 0, OrientRight) {
		t.Error("invulnerable bot allowed into a player's footprint")
	}
	if !g.wouldMove(bot, -1, 0, OrientLeft) {
		t.Error("move away from the player rejected")
	}
}

func TestOverlappingBotsSeparate(t *testing.T) {
	cfg := testConfig()
	cfg.BotCount = 2
	g, clk := newTestGame(t, cfg)

	g.mu.Lock()
	a, b := g.entities["bot-1"], g.entities["bot-2"]
	a.X, a.Y, a.Orientation = 20, 12, OrientUp
	b.X, b.Y, b.Orientation = 21, 12, OrientUp
	for _, e := range []*Entity{a, b} {
		e.InvulnerableUntil = 0
		e.RespawnShotCooldownUntil = 0
		g.bots[e.ID].Reset()
	}
	if g.overlapNow(a, b) == 0 {
		g.mu.Unlock()
		t.Fatal("setup should overlap the bots")
	}
	g.mu.Unlock()

	advance(g, clk, 10*time.Second)

	g.mu.Lock()
	defer g.mu.Unlock()
	if a.Status != StatusAlive || b.Status != StatusAlive {
		t.Fatalf("bots should separate without colliding, got %s and %s", a.Status, b.Status)
	}
	if n := g.overlapNow(a, b); n != 0 {
		t.Errorf("bots still overlap in %d cells: bot-1 (%d,%d) bot-2 (%d,%d)", n, a.X, a.Y, b.X, b.Y)
	}
}

func TestBotEvadesIncomingProjectile(t *testing.T) {
	g := newBotGame(t)
	readyBot(g, 10, 10, OrientUp)
	place(g, "p", 10, 1, OrientDown)

	if !g.Shoot("p") {
		t.Fatal("player shot rejected")
	}
	g.mu.Lock()
	for _, p := range g.projectiles {
		p.X, p.Y = 11, 5
	}
	g.mu.Unlock()

	decide(g)
	e, _ := g.Entity("bot-1")
	if e.Y != 10 || e.X == 10 {
		t.Errorf("expected a sidestep, bot at (%d,%d)", e.X, e.Y)
	}
}

func TestBotPursuesAlongLargerAxis(t *testing.T) {
	g := newBotGame(t)
	readyBot(g, 10, 10, OrientUp)
	place(g, "p", 20, 14, OrientUp)

	decide(g)
	e, _ := g.Entity("bot-1")
	if e.X != 11 || e.Y != 10 || e.Orientation != OrientRight {
		t.Errorf("expected step right to (11,10), got (%d,%d) %s", e.X, e.Y, e.Orientation)
	}
}

func TestBotPatrolsTowardCenter(t *testing.T) {
	g := newBotGame(t)
	readyBot(g, 2, 2, OrientUp)

	decide(g)
	e, _ := g.Entity("bot-1")
	if e.X != 3 || e.Y != 2 {
		t.Errorf("expected step toward center to (3,2), got (%d,%d)", e.X, e.Y)
	}
}

func TestBotAvoidsCrowding(t *testing.T) {
	g := newBotGame(t)
	readyBot(g, 10, 10, OrientUp)
	place(g, "p", 13, 10, OrientUp)

	decide(g)
	e, _ := g.Entity("bot-1")
	if e.X != 9 || e.Y != 10 {
		t.Errorf("expected to back off to (9,10), got (%d,%d)", e.X, e.Y)
	}
}

func TestBotEscapesStall(t *testing.T) {
	g := newBotGame(t)
	readyBot(g, 20, 15, OrientUp)

	g.mu.Lock()
	brain := g.bots["bot-1"]
	for i := 0; i < botHistoryLen; i++ {
		brain.remember(Vec{X: 20, Y: 15})
	}
	g.mu.Unlock()

	decide(g)
	e, _ := g.Entity("bot-1")
	if e.X == 20 && e.Y == 15 {
		t.Error("stalled bot did not move")
	}
	if d := Manhattan(Vec{X: e.X, Y: e.Y}, Vec{X: 20, Y: 15}); d != botEscapeSteps {
		t.Errorf("expected an escape of %d cells, got %d", botEscapeSteps, d)
	}
	if len(brain.history) != 1 {
		t.Errorf("expected history cleared then refilled with 1 entry, got %d", len(brain.history))
	}
}

func TestBotIgnoresBotsAndProtectedPlayers(t *testing.T) {
	cfg := testConfig()
	cfg.BotCount = 2
	g, _ := newTestGame(t, cfg)
	p := place(g, "p", 20, 10, OrientUp)

	g.mu.Lock()
	defer g.mu.Unlock()
	p.InvulnerableUntil = g.now + g.cfg.Invulnerability
	for id := range g.bots {
		if target := g.acquireTarget(g.entities[id]); target != nil {
			t.Errorf("%s targeted %s", id, target.ID)
		}
	}
	p.InvulnerableUntil = 0
	if target := g.acquireTarget(g.entities["bot-1"]); target == nil && Manhattan(g.entities["bot-1"].Center(), p.Center()) <= botEngageRange {
		t.Error("vulnerable player in range should be targeted")
	}
}

func TestBotHistoryIsBounded(t *testing.T) {
	b := &BotBrain{}
	for i := 0; i < 10; i++ {
		b.remember(Vec{X: i})
	}
	if len(b.history) != botHistoryLen {
		t.Fatalf("expected %d entries, got %d", botHistoryLen, len(b.history))
	}
	if b.history[0].X != 6 || b.history[botHistoryLen-1].X != 9 {
		t.Errorf("expected the latest positions, got %v", b.history)
	}
	if b.stalled() {
		t.Error("moving bot reported as stalled")
	}
}
