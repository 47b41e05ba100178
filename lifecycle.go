package main

import (
	"time"

	"github.com/sirupsen/logrus"
)

// explode starts the explosion animation of an alive entity. Anything else
// is left alone, so an entity never explodes twice.
func (g *Game) explode(e *Entity) {
	if e == nil || e.Status != StatusAlive {
		return
	}
	e.Status = StatusExploding
	e.Orientation = OrientExplodeA
	e.ExplodingUntil = g.now + g.cfg.ExplosionDuration

	g.sched.Cancel(TaskKey{Kind: TaskExplosionFrame, Entity: e.ID})
	g.schedule(TaskKey{Kind: TaskExplosionFrame, Entity: e.ID}, g.nextFrameAt(e), 1)
	g.emitEntity(MsgEntityExploded, e.ID)
	log.WithFields(logrus.Fields{"entity": e.ID, "x": e.X, "y": e.Y}).Debug("entity exploding")
}

func (g *Game) nextFrameAt(e *Entity) time.Duration {
	at := g.now + g.cfg.ExplosionFrame
	if at > e.ExplodingUntil {
		at = e.ExplodingUntil
	}
	return at
}

// explosionFrame swaps the explosion masks until the animation ends
func (g *Game) explosionFrame(id string, frame int) {
	e, ok := g.entities[id]
	if !ok || e.Status != StatusExploding {
		return
	}
	if g.now >= e.ExplodingUntil {
		g.die(e)
		return
	}
	if frame%2 == 1 {
		e.Orientation = OrientExplodeB
	} else {
		e.Orientation = OrientExplodeA
	}
	g.schedule(TaskKey{Kind: TaskExplosionFrame, Entity: id}, g.nextFrameAt(e), frame+1)
}

func (g *Game) die(e *Entity) {
	e.Status = StatusDead
	e.ExplodingUntil = 0
	g.emitEntity(MsgEntityDied, e.ID)
	g.recorder.Record(CombatEvent{Type: EvtDeath, EntityID: e.ID, Name: e.Name, X: e.X, Y: e.Y, At: g.now})
	log.WithFields(logrus.Fields{"entity": e.ID, "bot": e.IsBot}).Debug("entity died")

	if e.IsBot {
		g.schedule(TaskKey{Kind: TaskBotRespawn, Entity: e.ID}, g.now+g.cfg.BotRespawnDelay, 0)
	}
}

// respawn places e on a free spot with fresh protection windows. Projectiles
// still in flight from its previous life are discarded.
func (g *Game) respawn(e *Entity) {
	for pid := range e.Projectiles {
		g.destroyProjectile(g.projectiles[pid])
	}
	g.sched.Cancel(TaskKey{Kind: TaskExplosionFrame, Entity: e.ID})
	g.sched.Cancel(TaskKey{Kind: TaskBotRespawn, Entity: e.ID})

	e.X, e.Y, e.Orientation = g.findSpawn(e.ID)
	e.Status = StatusAlive
	e.ExplodingUntil = 0
	e.LastShotAt = neverShot
	e.InvulnerableUntil = g.now + g.cfg.Invulnerability
	e.RespawnShotCooldownUntil = g.now + g.cfg.RespawnShotGrace
	if !e.IsBot {
		e.Rating = 0
	}
	if brain, ok := g.bots[e.ID]; ok {
		brain.Reset()
	}
	g.logSpawn(e)
}

// Restart brings a dead player back. Bots respawn on their own, and an
// entity that is still alive or exploding cannot restart.
func (g *Game) Restart(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sync()

	e, ok := g.entities[id]
	if !ok || e.IsBot || e.Status != StatusDead {
		return false
	}
	g.respawn(e)
	g.recorder.Record(CombatEvent{Type: EvtRestart, EntityID: e.ID, Name: e.Name, X: e.X, Y: e.Y, At: g.now})
	log.WithFields(logrus.Fields{"entity": e.ID, "x": e.X, "y": e.Y}).Info("player restarted")
	return true
}
