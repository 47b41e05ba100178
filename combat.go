package main

import (
	"sort"

	"github.com/sirupsen/logrus"
)

// Shoot fires a projectile from entity id if its grace period and cooldown
// allow it. Rejections are silent.
func (g *Game) Shoot(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sync()
	return g.shoot(id)
}

func (g *Game) shoot(id string) bool {
	e, ok := g.entities[id]
	if !ok || !e.CanShoot(g.now, g.cfg.ShotCooldown) {
		return false
	}
	dir, ok := Direction(e.Orientation)
	if !ok {
		g.warnOrientation(e)
		return false
	}
	offset, _ := SpawnOffset(e.Orientation)

	p := g.pool.Acquire()
	p.OwnerID = e.ID
	p.X, p.Y = e.X+offset.X, e.Y+offset.Y
	p.Dir = dir
	g.projectiles[p.ID] = p
	e.Projectiles[p.ID] = struct{}{}
	e.LastShotAt = g.now

	g.schedule(TaskKey{Kind: TaskProjectileStep, Projectile: p.ID}, g.now+g.cfg.ProjectileStep, 0)
	return true
}

// stepProjectile advances one projectile and resolves, in order, bounds,
// walls and the first entity it lands on
func (g *Game) stepProjectile(pid uint32) {
	p, ok := g.projectiles[pid]
	if !ok {
		return
	}
	p.Advance()

	if !g.inBounds(p.X, p.Y) || g.isWall(p.X, p.Y) {
		g.destroyProjectile(p)
		return
	}

	owner, ok := g.entities[p.OwnerID]
	if !ok {
		g.destroyProjectile(p)
		return
	}
	if owner.Status != StatusExploding && !owner.Invulnerable(g.now) {
		if victim := g.entityAt(p.X, p.Y, owner.ID); victim != nil {
			owner.Rating++
			log.WithFields(logrus.Fields{
				"entity": owner.ID, "victim": victim.ID, "rating": owner.Rating,
			}).Debug("projectile hit")
			g.recorder.Record(CombatEvent{Type: EvtHit, EntityID: owner.ID, OtherID: victim.ID, Name: owner.Name, X: p.X, Y: p.Y, At: g.now})
			g.destroyProjectile(p)
			g.explode(victim)
			return
		}
	}

	g.schedule(TaskKey{Kind: TaskProjectileStep, Projectile: p.ID}, g.now+g.cfg.ProjectileStep, 0)
}

// destroyProjectile unregisters p, cancels its step and returns it to the pool
func (g *Game) destroyProjectile(p *Projectile) {
	if p == nil || !p.Active {
		return
	}
	delete(g.projectiles, p.ID)
	if owner, ok := g.entities[p.OwnerID]; ok {
		delete(owner.Projectiles, p.ID)
	}
	g.sched.Cancel(TaskKey{Kind: TaskProjectileStep, Projectile: p.ID})
	g.pool.Release(p)
}

// sweepProjectiles destroys every projectile sharing a cell with a
// projectile of another owner and emits one explosion per such cell.
// Projectiles of the same owner pass through each other.
func (g *Game) sweepProjectiles() {
	if len(g.projectiles) < 2 {
		return
	}
	byCell := make(map[Vec][]*Projectile, len(g.projectiles))
	for _, p := range g.projectiles {
		c := p.Cell()
		byCell[c] = append(byCell[c], p)
	}

	var clashes []Vec
	for c, ps := range byCell {
		if len(ps) < 2 {
			continue
		}
		for _, p := range ps[1:] {
			if p.OwnerID != ps[0].OwnerID {
				clashes = append(clashes, c)
				break
			}
		}
	}
	sort.Slice(clashes, func(i, j int) bool {
		if clashes[i].Y != clashes[j].Y {
			return clashes[i].Y < clashes[j].Y
		}
		return clashes[i].X < clashes[j].X
	})

	for _, c := range clashes {
		ps := byCell[c]
		for _, p := range ps {
			g.destroyProjectile(p)
		}
		g.emitCell(MsgExplosionAt, c)
		g.recorder.Record(CombatEvent{Type: EvtClash, X: c.X, Y: c.Y, At: g.now})
	}
}
