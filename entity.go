package main

import (
	"math"
	"time"
)

// Status is the lifecycle state of an entity
type Status int

const (
	StatusAlive Status = iota
	StatusExploding
	StatusDead
)

var statusNames = [...]string{"alive", "exploding", "dead"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[s]
}

// neverShot is the lastShotAt value of an entity that has not fired since
// (re)spawning; it is far enough in the past that any cooldown has elapsed.
const neverShot = time.Duration(math.MinInt64 / 2)

// Entity is a player or bot. X, Y is the top-left of its 3x3 box.
type Entity struct {
	ID          string
	Name        string
	Color       string
	X, Y        int
	Orientation Orientation
	Status      Status
	Rating      int
	IsBot       bool

	LastShotAt               time.Duration
	InvulnerableUntil        time.Duration
	RespawnShotCooldownUntil time.Duration
	ExplodingUntil           time.Duration

	Projectiles map[uint32]struct{}
}

// NewEntity creates an alive entity; the caller places it
func NewEntity(id, name, color string, isBot bool) *Entity {
	return &Entity{
		ID:          id,
		Name:        name,
		Color:       color,
		IsBot:       isBot,
		Status:      StatusAlive,
		LastShotAt:  neverShot,
		Projectiles: make(map[uint32]struct{}),
	}
}

// Invulnerable reports whether the post-spawn protection window is open
func (e *Entity) Invulnerable(now time.Duration) bool {
	return now < e.InvulnerableUntil
}

// Collidable reports whether e can hit or be hit right now: alive and not
// invulnerable. Exploding and dead entities are never collidable.
func (e *Entity) Collidable(now time.Duration) bool {
	return e.Status == StatusAlive && !e.Invulnerable(now)
}

// CanShoot checks the respawn grace window and the inter-shot cooldown
func (e *Entity) CanShoot(now, cooldown time.Duration) bool {
	if e.Status != StatusAlive {
		return false
	}
	if now < e.RespawnShotCooldownUntil {
		return false
	}
	return now-e.LastShotAt >= cooldown
}

// Center returns the middle cell of the entity box
func (e *Entity) Center() Vec {
	return Vec{X: e.X + 1, Y: e.Y + 1}
}

// ToState converts to protocol state
func (e *Entity) ToState(projectiles map[uint32]*Projectile) EntityState {
	s := EntityState{
		ID:                       e.ID,
		Name:                     e.Name,
		Color:                    e.Color,
		X:                        e.X,
		Y:                        e.Y,
		Orientation:              e.Orientation.String(),
		Status:                   e.Status.String(),
		Rating:                   e.Rating,
		InvulnerableUntil:        e.InvulnerableUntil.Milliseconds(),
		RespawnShotCooldownUntil: e.RespawnShotCooldownUntil.Milliseconds(),
		IsBot:                    e.IsBot,
		Projectiles:              make([]Vec, 0, len(e.Projectiles)),
	}
	for id := range e.Projectiles {
		if p, ok := projectiles[id]; ok {
			s.Projectiles = append(s.Projectiles, Vec{X: p.X, Y: p.Y})
		}
	}
	return s
}

// Manhattan returns the taxicab distance between two cells
func Manhattan(a, b Vec) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
