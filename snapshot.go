package main

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"
)

// Grid cell codes
const (
	CellEmpty      = 0
	CellEntity     = 1
	CellProjectile = 2
)

// rebuildGrid derives the occupancy grid from entity footprints and
// projectile positions. Nothing reads it back for collision.
func (g *Game) rebuildGrid() {
	for _, row := range g.grid {
		for col := range row {
			row[col] = CellEmpty
		}
	}
	for _, id := range g.order {
		e := g.entities[id]
		if e.Status == StatusDead {
			continue
		}
		Cells(e.X, e.Y, e.Orientation, func(cx, cy int) bool {
			if g.inBounds(cx, cy) {
				g.grid[cy][cx] = CellEntity
			}
			return true
		})
	}
	for _, p := range g.projectiles {
		if g.inBounds(p.X, p.Y) {
			g.grid[p.Y][p.X] = CellProjectile
		}
	}
}

// buildSnapshot copies the world into its wire form. The grid is copied
// so the snapshot stays valid after the next tick.
func (g *Game) buildSnapshot() WorldSnapshot {
	snap := WorldSnapshot{
		Tick:        g.tick,
		Now:         g.now.Milliseconds(),
		Cols:        g.cfg.Cols,
		Rows:        g.cfg.Rows,
		Grid:        make([][]int, len(g.grid)),
		Entities:    make(map[string]EntityState, len(g.entities)),
		Projectiles: make([]ProjectileState, 0, len(g.projectiles)),
		Walls:       g.cfg.Walls,
	}
	if snap.Walls == nil {
		snap.Walls = []Vec{}
	}
	for row := range g.grid {
		snap.Grid[row] = append([]int(nil), g.grid[row]...)
	}
	for id, e := range g.entities {
		snap.Entities[id] = e.ToState(g.projectiles)
	}
	for _, p := range g.projectiles {
		snap.Projectiles = append(snap.Projectiles, p.ToState())
	}
	return snap
}

// Snapshot returns the current world snapshot
func (g *Game) Snapshot() WorldSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.buildSnapshot()
}

// broadcastSnapshot encodes one snapshot and hands the same bytes to every
// session: a msgpack SnapshotFrame by default, a JSON envelope when configured.
func (g *Game) broadcastSnapshot() {
	if len(g.clients) == 0 {
		return
	}
	snap := g.buildSnapshot()

	if g.cfg.SnapshotEncoding == EncodingJSON {
		data, err := json.Marshal(Envelope{T: MsgWorldSnapshot, Data: snap})
		if err != nil {
			log.WithError(err).Error("marshal snapshot")
			return
		}
		for _, client := range g.clients {
			client.SendRaw(data)
		}
		return
	}

	data, err := msgpack.Marshal(&SnapshotFrame{T: MsgWorldSnapshot, D: snap})
	if err != nil {
		log.WithError(err).Error("msgpack snapshot")
		return
	}
	for _, client := range g.clients {
		client.SendBinary(data)
	}
}
