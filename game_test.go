package main

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"
)

// mockBroadcaster captures sent messages for testing
type mockBroadcaster struct {
	mu       sync.Mutex
	messages []interface{}
	raw      [][]byte
	binary   [][]byte
}

func (m *mockBroadcaster) SendJSON(msg interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

func (m *mockBroadcaster) SendRaw(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.raw = append(m.raw, data)
}

func (m *mockBroadcaster) SendBinary(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.binary = append(m.binary, data)
}

// notifications returns the decoded broadcast envelopes of type kind
func (m *mockBroadcaster) notifications(kind string) []InEnvelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []InEnvelope
	for _, raw := range m.raw {
		var env InEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			continue
		}
		if env.T == kind {
			out = append(out, env)
		}
	}
	return out
}

// manualClock is a game clock driven by the test
type manualClock struct {
	now time.Duration
}

func (c *manualClock) Now() time.Duration { return c.now }

// testConfig is the stock arena without bots
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.BotCount = 0
	return cfg
}

func newTestGame(t *testing.T, cfg Config) (*Game, *manualClock) {
	t.Helper()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("invalid test config: %v", err)
	}
	clk := &manualClock{}
	return newGame(cfg, clk.Now, 1), clk
}

// advance moves the clock forward and fires everything due
func advance(g *Game, clk *manualClock, d time.Duration) {
	clk.now += d
	g.Advance()
}

// place registers a vulnerable, ready-to-shoot player at a fixed position
func place(g *Game, id string, x, y int, o Orientation) *Entity {
	g.mu.Lock()
	defer g.mu.Unlock()
	e := NewEntity(id, id, "#FFFFFF", false)
	e.X, e.Y, e.Orientation = x, y, o
	g.register(e)
	return e
}

// listen attaches a mock session without an entity
func listen(g *Game, id string) *mockBroadcaster {
	m := &mockBroadcaster{}
	g.mu.Lock()
	g.clients[id] = m
	g.mu.Unlock()
	return m
}

func TestGameJoinAssignsID(t *testing.T) {
	g, _ := newTestGame(t, testConfig())
	mock := &mockBroadcaster{}

	id := g.Join("TestPilot", "#123456", mock)
	if id == "" {
		t.Fatal("join rejected")
	}
	if g.PlayerCount() != 1 {
		t.Errorf("expected 1 player, got %d", g.PlayerCount())
	}
	if len(mock.messages) != 1 {
		t.Fatalf("expected assignedId message, got %d messages", len(mock.messages))
	}
	env := mock.messages[0].(Envelope)
	if env.T != MsgAssignedID {
		t.Errorf("expected %s, got %s", MsgAssignedID, env.T)
	}
	if env.Data.(AssignedIDMsg).ID != id {
		t.Errorf("assigned id mismatch")
	}

	e, ok := g.Entity(id)
	if !ok {
		t.Fatal("entity missing after join")
	}
	if e.Name != "TestPilot" || e.Color != "#123456" {
		t.Errorf("unexpected name/color %q %q", e.Name, e.Color)
	}
	if e.Status != StatusAlive {
		t.Errorf("expected alive, got %s", e.Status)
	}
	if !e.Invulnerable(0) {
		t.Error("new player should be invulnerable")
	}
}

func TestGameJoinDefaults(t *testing.T) {
	g, _ := newTestGame(t, testConfig())

	id := g.Join("", "", nil)
	e, _ := g.Entity(id)
	if e.Name != "Player" {
		t.Errorf("expected default name, got %q", e.Name)
	}
	if e.Color != defaultColors[0] {
		t.Errorf("expected first palette color, got %q", e.Color)
	}

	id = g.Join(strings.Repeat("x", 40), "", nil)
	e, _ = g.Entity(id)
	if len(e.Name) != maxNameLen {
		t.Errorf("expected name clamped to %d, got %d", maxNameLen, len(e.Name))
	}
	if e.Color != defaultColors[1] {
		t.Errorf("expected second palette color, got %q", e.Color)
	}
}

func TestGameJoinFull(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPlayers = 2
	cfg.BotCount = 1
	g, _ := newTestGame(t, cfg)

	if g.Join("a", "", nil) == "" || g.Join("b", "", nil) == "" {
		t.Fatal("first two joins should succeed")
	}
	if id := g.Join("c", "", nil); id != "" {
		t.Errorf("expected arena full, got %s", id)
	}
}

func TestGameJoinSpawnsApart(t *testing.T) {
	g, _ := newTestGame(t, testConfig())
	var ids []string
	for i := 0; i < 10; i++ {
		ids = append(ids, g.Join("p", "", nil))
	}
	for i, a := range ids {
		ea, _ := g.Entity(a)
		for _, b := range ids[i+1:] {
			eb, _ := g.Entity(b)
			if boxesWithin(ea.X, ea.Y, eb.X, eb.Y, spawnClearance) {
				t.Errorf("%s at (%d,%d) too close to %s at (%d,%d)", a, ea.X, ea.Y, b, eb.X, eb.Y)
			}
		}
	}
}

func TestGameDisconnectIdempotent(t *testing.T) {
	g, _ := newTestGame(t, testConfig())
	a := place(g, "a", 10, 10, OrientUp)
	if !g.Shoot(a.ID) {
		t.Fatal("shoot rejected")
	}

	if !g.Disconnect("a") {
		t.Error("first disconnect should remove the entity")
	}
	if g.Disconnect("a") {
		t.Error("second disconnect should be a no-op")
	}
	if _, ok := g.Entity("a"); ok {
		t.Error("entity still present")
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.projectiles) != 0 {
		t.Errorf("expected owned projectiles destroyed, %d left", len(g.projectiles))
	}
	if g.pool.InUse() != 0 {
		t.Errorf("expected pool back to baseline, %d in use", g.pool.InUse())
	}
	if g.sched.Len() != 1 {
		t.Errorf("expected only the tick scheduled, got %d tasks", g.sched.Len())
	}
	if len(g.order) != 0 {
		t.Errorf("registry order not cleaned: %v", g.order)
	}
}

func TestGameTickBroadcastsSnapshot(t *testing.T) {
	g, clk := newTestGame(t, testConfig())
	mock := &mockBroadcaster{}
	g.Join("p", "", mock)

	advance(g, clk, 100*time.Millisecond)
	if len(mock.binary) != 1 {
		t.Fatalf("expected 1 snapshot after one tick, got %d", len(mock.binary))
	}
	advance(g, clk, 250*time.Millisecond)
	if len(mock.binary) != 3 {
		t.Errorf("expected 3 snapshots at 350ms, got %d", len(mock.binary))
	}
	if g.Stats().Tick != 3 {
		t.Errorf("expected tick 3, got %d", g.Stats().Tick)
	}
}

func TestGameRunStop(t *testing.T) {
	cfg := testConfig()
	cfg.TickInterval = 10 * time.Millisecond
	g := NewGame(cfg)

	done := make(chan struct{})
	go func() {
		g.Run()
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for g.Stats().Tick < 3 {
		if time.Now().After(deadline) {
			t.Fatal("game loop did not tick")
		}
		time.Sleep(5 * time.Millisecond)
	}

	g.Stop()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
	g.Stop() // second stop is harmless
}

func TestGameStats(t *testing.T) {
	cfg := testConfig()
	cfg.BotCount = 2
	g, _ := newTestGame(t, cfg)
	g.Join("p", "", nil)

	s := g.Stats()
	if s.Players != 1 || s.Bots != 2 {
		t.Errorf("expected 1 player and 2 bots, got %d/%d", s.Players, s.Bots)
	}
	if s.PoolCapacity != cfg.InitialPoolSize {
		t.Errorf("expected pool capacity %d, got %d", cfg.InitialPoolSize, s.PoolCapacity)
	}
}
