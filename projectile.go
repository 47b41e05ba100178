package main

// Projectile is a pooled shot travelling one cell per step
type Projectile struct {
	ID      uint32
	OwnerID string
	X, Y    int
	Dir     Vec
	Active  bool
}

// Advance moves the projectile one cell along its direction
func (p *Projectile) Advance() {
	p.X += p.Dir.X
	p.Y += p.Dir.Y
}

// Cell returns the projectile position
func (p *Projectile) Cell() Vec {
	return Vec{X: p.X, Y: p.Y}
}

// ToState converts to protocol state
func (p *Projectile) ToState() ProjectileState {
	return ProjectileState{
		ID:    p.ID,
		Owner: p.OwnerID,
		X:     p.X,
		Y:     p.Y,
	}
}

// ProjectilePool recycles projectile objects. Acquire never fails: an empty
// free list doubles the pool.
type ProjectilePool struct {
	all    []*Projectile
	free   []*Projectile
	nextID uint32
}

// NewProjectilePool creates a pool with size preallocated projectiles
func NewProjectilePool(size int) *ProjectilePool {
	if size < 1 {
		size = 1
	}
	p := &ProjectilePool{}
	p.grow(size)
	return p
}

func (p *ProjectilePool) grow(n int) {
	for i := 0; i < n; i++ {
		p.nextID++
		proj := &Projectile{ID: p.nextID}
		p.all = append(p.all, proj)
		p.free = append(p.free, proj)
	}
}

// Acquire hands out an inactive projectile, growing the pool if needed
func (p *ProjectilePool) Acquire() *Projectile {
	if len(p.free) == 0 {
		p.grow(len(p.all))
	}
	n := len(p.free)
	proj := p.free[n-1]
	p.free[n-1] = nil
	p.free = p.free[:n-1]
	proj.Active = true
	return proj
}

// Release returns proj to the pool and clears its owner. Releasing an
// inactive projectile is a no-op.
func (p *ProjectilePool) Release(proj *Projectile) {
	if proj == nil || !proj.Active {
		return
	}
	id := proj.ID
	*proj = Projectile{ID: id}
	p.free = append(p.free, proj)
}

// Cap returns the total number of projectile objects the pool owns
func (p *ProjectilePool) Cap() int {
	return len(p.all)
}

// Free returns how many projectiles are available without growing
func (p *ProjectilePool) Free() int {
	return len(p.free)
}

// InUse returns how many projectiles are active
func (p *ProjectilePool) InUse() int {
	return len(p.all) - len(p.free)
}
