package main

import (
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const maxNameLen = 16

// defaultColors is cycled for players that join without a color
var defaultColors = []string{"#4ECDC4", "#FFD93D", "#6BCB77", "#4D96FF", "#C77DFF", "#FF9F1C"}

// Broadcaster is a connected session that receives notifications
type Broadcaster interface {
	SendJSON(msg interface{})
	SendRaw(data []byte)
	SendBinary(data []byte)
}

// Game owns the whole world. Every mutation happens with mu held, either
// from an inbound intent or from a task fired by Run.
type Game struct {
	mu  sync.Mutex
	cfg Config

	entities    map[string]*Entity
	order       []string // registry order (join order)
	projectiles map[uint32]*Projectile
	pool        *ProjectilePool
	walls       map[Vec]struct{}
	bots        map[string]*BotBrain
	clients     map[string]Broadcaster
	sched       *Schedule
	recorder    Recorder
	rng         *rand.Rand

	clock func() time.Duration
	now   time.Duration
	tick  uint64
	grid  [][]int

	stopOnce sync.Once
	stop     chan struct{}
	wake     chan struct{}

	nextColor int
}

// NewGame creates a Game on the wall clock and spawns the configured bots
func NewGame(cfg Config) *Game {
	start := time.Now()
	return newGame(cfg, func() time.Duration { return time.Since(start) }, time.Now().UnixNano())
}

func newGame(cfg Config, clock func() time.Duration, seed int64) *Game {
	g := &Game{
		cfg:         cfg,
		entities:    make(map[string]*Entity),
		projectiles: make(map[uint32]*Projectile),
		pool:        NewProjectilePool(cfg.InitialPoolSize),
		walls:       make(map[Vec]struct{}, len(cfg.Walls)),
		bots:        make(map[string]*BotBrain),
		clients:     make(map[string]Broadcaster),
		sched:       NewSchedule(),
		recorder:    nopRecorder{},
		rng:         rand.New(rand.NewSource(seed)),
		clock:       clock,
		stop:        make(chan struct{}),
		wake:        make(chan struct{}, 1),
	}
	for _, w := range cfg.Walls {
		g.walls[w] = struct{}{}
	}
	g.grid = make([][]int, cfg.Rows)
	for row := range g.grid {
		g.grid[row] = make([]int, cfg.Cols)
	}

	g.now = clock()
	g.schedule(TaskKey{Kind: TaskTick}, g.now+cfg.TickInterval, 0)
	for i := 0; i < cfg.BotCount; i++ {
		g.addBot(i + 1)
	}
	return g
}

// SetRecorder attaches the combat event log
func (g *Game) SetRecorder(r Recorder) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if r == nil {
		r = nopRecorder{}
	}
	g.recorder = r
}

// Config returns the fixed configuration
func (g *Game) Config() Config {
	return g.cfg
}

// Run fires scheduled tasks until Stop is called
func (g *Game) Run() {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
		case <-g.wake:
		case <-g.stop:
			return
		}
		timer.Reset(g.Advance())
	}
}

// Stop terminates the game loop
func (g *Game) Stop() {
	g.stopOnce.Do(func() { close(g.stop) })
}

// Advance fires every task that is due on the game clock and returns how
// long until the next one.
func (g *Game) Advance() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sync()
	next, ok := g.sched.Next()
	if !ok {
		return g.cfg.TickInterval
	}
	wait := next - g.now
	if wait < time.Millisecond {
		wait = time.Millisecond
	}
	return wait
}

// sync catches the world up with the clock, firing due tasks in time order.
// Callers hold mu.
func (g *Game) sync() {
	target := g.clock()
	for {
		t, ok := g.sched.PopDue(target)
		if !ok {
			break
		}
		if t.At > g.now {
			g.now = t.At
		}
		g.fire(t)
	}
	if target > g.now {
		g.now = target
	}
}

func (g *Game) fire(t *Task) {
	switch t.Key.Kind {
	case TaskTick:
		g.update()
		g.schedule(t.Key, t.At+g.cfg.TickInterval, 0)
	case TaskProjectileStep:
		g.stepProjectile(t.Key.Projectile)
	case TaskBotDecision:
		if _, ok := g.bots[t.Key.Entity]; ok {
			g.decide(t.Key.Entity)
			g.schedule(t.Key, t.At+g.cfg.BotDecision, 0)
		}
	case TaskExplosionFrame:
		g.explosionFrame(t.Key.Entity, t.Frame)
	case TaskBotRespawn:
		if e, ok := g.entities[t.Key.Entity]; ok && e.Status == StatusDead {
			g.respawn(e)
		}
	}
}

// schedule adds a task and wakes Run if it became the earliest one
func (g *Game) schedule(key TaskKey, at time.Duration, frame int) {
	g.sched.Add(key, at, frame)
	if next, ok := g.sched.Next(); ok && next == at {
		select {
		case g.wake <- struct{}{}:
		default:
		}
	}
}

// Join adds a player and tells its session the assigned id. It returns ""
// when the arena is full.
func (g *Game) Join(name, color string, client Broadcaster) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sync()

	if g.playerCount() >= g.cfg.MaxPlayers {
		return ""
	}
	if name == "" {
		name = "Player"
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}
	if color == "" {
		color = defaultColors[g.nextColor%len(defaultColors)]
		g.nextColor++
	}

	e := NewEntity(uuid.NewString(), name, color, false)
	g.register(e)
	g.respawn(e)
	if client != nil {
		g.clients[e.ID] = client
		client.SendJSON(Envelope{T: MsgAssignedID, Data: AssignedIDMsg{ID: e.ID}})
	}
	log.WithFields(logrus.Fields{"entity": e.ID, "name": e.Name}).Info("player joined")
	g.recorder.Record(CombatEvent{Type: EvtJoin, EntityID: e.ID, Name: e.Name, X: e.X, Y: e.Y, At: g.now})
	return e.ID
}

// Disconnect removes an entity with everything it owns. Unknown ids are a
// no-op, so repeated disconnects are harmless.
func (g *Game) Disconnect(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sync()

	e, ok := g.entities[id]
	if !ok {
		return false
	}
	g.remove(e)
	log.WithField("entity", id).Info("entity left")
	g.recorder.Record(CombatEvent{Type: EvtLeave, EntityID: id, Name: e.Name, At: g.now})
	return true
}

func (g *Game) register(e *Entity) {
	g.entities[e.ID] = e
	g.order = append(g.order, e.ID)
}

func (g *Game) remove(e *Entity) {
	for pid := range e.Projectiles {
		g.destroyProjectile(g.projectiles[pid])
	}
	g.sched.CancelEntity(e.ID)
	delete(g.entities, e.ID)
	delete(g.clients, e.ID)
	delete(g.bots, e.ID)
	for i, id := range g.order {
		if id == e.ID {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
}

// Entity returns a copy of the entity state, for tests and the stats API
func (g *Game) Entity(id string) (Entity, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.entities[id]
	if !ok {
		return Entity{}, false
	}
	cp := *e
	cp.Projectiles = make(map[uint32]struct{}, len(e.Projectiles))
	for pid := range e.Projectiles {
		cp.Projectiles[pid] = struct{}{}
	}
	return cp, true
}

func (g *Game) playerCount() int {
	return len(g.entities) - len(g.bots)
}

// PlayerCount returns the number of human players
func (g *Game) PlayerCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.playerCount()
}

// Stats summarises the world for the stats API
func (g *Game) Stats() StatsMsg {
	g.mu.Lock()
	defer g.mu.Unlock()
	return StatsMsg{
		Tick:           g.tick,
		Players:        g.playerCount(),
		Bots:           len(g.bots),
		Projectiles:    len(g.projectiles),
		PoolCapacity:   g.pool.Cap(),
		ScheduledTasks: g.sched.Len(),
	}
}

// update runs one main tick: projectile clash sweep, grid rebuild and
// snapshot broadcast, all under the same lock.
func (g *Game) update() {
	g.tick++
	g.sweepProjectiles()
	g.rebuildGrid()
	g.broadcastSnapshot()
}

// broadcastMsg sends a notification to every session
func (g *Game) broadcastMsg(msg Envelope) {
	if len(g.clients) == 0 {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.WithError(err).Error("marshal notification")
		return
	}
	for _, client := range g.clients {
		client.SendRaw(data)
	}
}

func (g *Game) emitEntity(kind, id string) {
	g.broadcastMsg(Envelope{T: kind, Data: EntityMsg{ID: id}})
}

func (g *Game) emitCell(kind string, c Vec) {
	g.broadcastMsg(Envelope{T: kind, Data: CellMsg{X: c.X, Y: c.Y}})
}

func (g *Game) inBounds(x, y int) bool {
	return x >= 0 && x < g.cfg.Cols && y >= 0 && y < g.cfg.Rows
}

func (g *Game) isWall(x, y int) bool {
	_, ok := g.walls[Vec{X: x, Y: y}]
	return ok
}
