package psychics

import (
	"log/slog"

	"github.com/df-mc/dragonfly/server/world"
	"github.com/go-gl/mathgl/mgl64"
)

// RemovalCause describes why a projectile stopped.
type RemovalCause uint8

const (
	// RemovalNone is the cause of a projectile that is still flying.
	RemovalNone RemovalCause = iota
	// RemovalExplicit is set when Remove was called.
	RemovalExplicit
	// RemovalHit is set when the ray trace reported a collision.
	RemovalHit
	// RemovalMaxTicks is set when the projectile lived for MaxTicks updates.
	RemovalMaxTicks
	// RemovalMaxRange is set when the projectile flew MaxRange blocks.
	RemovalMaxRange
	// RemovalDiscarded is set when the owning engine was cleared.
	RemovalDiscarded
)

// String returns a short description of the cause.
func (c RemovalCause) String() string {
	switch c {
	case RemovalNone:
		return "none"
	case RemovalExplicit:
		return "explicit"
	case RemovalHit:
		return "hit"
	case RemovalMaxTicks:
		return "max ticks"
	case RemovalMaxRange:
		return "max range"
	case RemovalDiscarded:
		return "discarded"
	}
	return "unknown"
}

// RayTraceHit is a collision found by a ray trace.
type RayTraceHit struct {
	// Position is where the ray met the collision surface.
	Position mgl64.Vec3
	// Entity is the entity that was hit, or nil for a block.
	Entity world.Entity
}

// RayTracer casts rays against the world's blocks and entities.
// The filter decides which entities may be hit; a nil filter hits none.
type RayTracer interface {
	RayTrace(origin, direction mgl64.Vec3, maxDistance, radius float64, filter func(world.Entity) bool) (RayTraceHit, bool)
}

// ProjectileHandler receives the callbacks of a projectile's simulation step.
// Embed NopProjectileHandler to implement only the hooks you need.
type ProjectileHandler interface {
	// HandlePreUpdate runs before motion is computed. Changing the target
	// location or velocity here steers the projectile.
	HandlePreUpdate(p *Projectile)
	// HandleMove runs after the projectile moved from -> to, whether or not a
	// ray tracer is configured.
	HandleMove(p *Projectile, from, to, velocity mgl64.Vec3)
	// HandlePostUpdate runs at the end of every step.
	HandlePostUpdate(p *Projectile)
	// HandleDestroy runs exactly once, when the projectile is removed.
	HandleDestroy(p *Projectile, cause RemovalCause)
}

// NopProjectileHandler implements ProjectileHandler with no-op hooks.
type NopProjectileHandler struct{}

func (NopProjectileHandler) HandlePreUpdate(*Projectile)                                {}
func (NopProjectileHandler) HandleMove(*Projectile, mgl64.Vec3, mgl64.Vec3, mgl64.Vec3) {}
func (NopProjectileHandler) HandlePostUpdate(*Projectile)                               {}
func (NopProjectileHandler) HandleDestroy(*Projectile, RemovalCause)                    {}

// Projectile is a virtual flying object simulated by a ProjectileEngine.
// It is created detached, launched once, then stepped every tick until it is
// removed.
type Projectile struct {
	// MaxTicks is the number of updates after which the projectile expires.
	MaxTicks int
	// MaxRange is the distance after which the projectile expires.
	MaxRange float64
	// RayTrace, when set, is consulted every step before the projectile moves.
	RayTrace func(from, direction mgl64.Vec3, distance float64) (RayTraceHit, bool)

	handler ProjectileHandler
	log     *slog.Logger
	shooter *Psychic

	prev, cur, target mgl64.Vec3
	velocity          mgl64.Vec3

	ticks int
	flown float64
	hit   *RayTraceHit

	// capped is set while target is the step ending on the range limit.
	capped bool

	launched bool
	removed  bool
	cause    RemovalCause
}

// NewProjectile creates a projectile that expires after maxTicks updates or
// maxRange blocks, whichever comes first.
func NewProjectile(maxTicks int, maxRange float64) *Projectile {
	return &Projectile{MaxTicks: maxTicks, MaxRange: maxRange, handler: NopProjectileHandler{}}
}

// Handle sets the projectile's hook receiver. A nil handler resets to no-ops.
func (p *Projectile) Handle(h ProjectileHandler) {
	if h == nil {
		h = NopProjectileHandler{}
	}
	p.handler = h
}

// Handler returns the current hook receiver.
func (p *Projectile) Handler() ProjectileHandler {
	if p.handler == nil {
		return NopProjectileHandler{}
	}
	return p.handler
}

// Shooter returns the psychic that launched the projectile, or nil before launch.
func (p *Projectile) Shooter() *Psychic { return p.shooter }

// PreviousLocation returns the location before the last step.
func (p *Projectile) PreviousLocation() mgl64.Vec3 { return p.prev }

// Location returns the current location.
func (p *Projectile) Location() mgl64.Vec3 { return p.cur }

// TargetLocation returns where the next step will move to.
func (p *Projectile) TargetLocation() mgl64.Vec3 { return p.target }

// SetTargetLocation overrides where the next step will move to.
func (p *Projectile) SetTargetLocation(v mgl64.Vec3) {
	p.target = v
	p.capped = false
}

// Velocity returns the displacement applied per tick.
func (p *Projectile) Velocity() mgl64.Vec3 { return p.velocity }

// SetVelocity sets the displacement applied per tick. Set it before launching
// to aim the first step.
func (p *Projectile) SetVelocity(v mgl64.Vec3) { p.velocity = v }

// Ticks returns the number of updates the projectile went through.
func (p *Projectile) Ticks() int { return p.ticks }

// FlownDistance returns the cumulative distance travelled.
func (p *Projectile) FlownDistance() float64 { return p.flown }

// RemainingDistance returns how far the projectile may still travel.
func (p *Projectile) RemainingDistance() float64 { return max(0, p.MaxRange-p.flown) }

// Hit returns the collision that stopped the projectile, if any.
func (p *Projectile) Hit() (RayTraceHit, bool) {
	if p.hit == nil {
		return RayTraceHit{}, false
	}
	return *p.hit, true
}

// Launched reports whether the projectile was handed to an engine.
func (p *Projectile) Launched() bool { return p.launched }

// Valid reports whether the projectile is still flying.
func (p *Projectile) Valid() bool { return !p.removed }

// Cause returns why the projectile was removed, or RemovalNone.
func (p *Projectile) Cause() RemovalCause { return p.cause }

// Remove stops the projectile. Calling it more than once, or from inside one of
// the projectile's own hooks, fires HandleDestroy only once.
func (p *Projectile) Remove() {
	p.remove(RemovalExplicit)
}

func (p *Projectile) remove(cause RemovalCause) {
	if p.removed {
		return
	}
	p.removed = true
	p.cause = cause
	p.call("projectile destroy", func() { p.Handler().HandleDestroy(p, cause) })
}

func (p *Projectile) call(hook string, fn func()) {
	log := p.log
	if log == nil {
		log = slog.Default()
	}
	safeCall(log, hook, fn)
}

// place puts the projectile at spawn and aims its first step.
func (p *Projectile) place(spawn mgl64.Vec3) {
	p.prev, p.cur = spawn, spawn
	p.aim()
}

// aim sets the next target from the velocity, shortened so that the projectile
// lands exactly on its range limit.
func (p *Projectile) aim() {
	step := p.velocity
	speed, remain := step.Len(), p.RemainingDistance()
	p.capped = speed >= remain
	if p.capped && speed > 0 {
		step = step.Mul(remain / speed)
	}
	p.target = p.cur.Add(step)
}

// update advances the projectile by one step.
func (p *Projectile) update() {
	h := p.Handler()
	p.call("projectile pre-update", func() { h.HandlePreUpdate(p) })
	if p.removed {
		return
	}

	from, to := p.cur, p.target
	capped := p.capped
	delta := to.Sub(from)
	dist := delta.Len()
	p.ticks++

	hit := false
	if p.RayTrace != nil && dist > 0 {
		dir := delta.Mul(1 / dist)
		var (
			res RayTraceHit
			ok  bool
		)
		p.call("projectile ray trace", func() { res, ok = p.RayTrace(from, dir, dist) })
		if ok {
			hit = true
			p.hit = &res
			to = res.Position
			p.target = to
			dist = to.Sub(from).Len()
		}
	}

	p.prev = from
	p.cur = to
	if capped && !hit {
		// Summed step lengths drift from MaxRange away from the origin.
		p.flown = p.MaxRange
	} else {
		p.flown += dist
	}

	velocity := p.velocity
	p.call("projectile move", func() { h.HandleMove(p, from, to, velocity) })

	switch {
	case p.removed:
	case hit:
		p.remove(RemovalHit)
	case p.ticks >= p.MaxTicks:
		p.remove(RemovalMaxTicks)
	case p.flown >= p.MaxRange:
		p.remove(RemovalMaxRange)
	default:
		p.aim()
	}

	p.call("projectile post-update", func() { h.HandlePostUpdate(p) })
}

// ProjectileEngine holds the in-flight projectiles of one psychic and steps
// them once per tick.
type ProjectileEngine struct {
	log         *slog.Logger
	projectiles []*Projectile
}

// NewProjectileEngine creates an empty engine.
func NewProjectileEngine(log *slog.Logger) *ProjectileEngine {
	if log == nil {
		log = slog.Default()
	}
	return &ProjectileEngine{log: log}
}

// Add starts tracking a launched projectile. It panics if the projectile was
// already handed to an engine.
func (e *ProjectileEngine) Add(p *Projectile) {
	if p.launched {
		panic("psychics: projectile already launched")
	}
	if p.removed {
		panic("psychics: projectile already removed")
	}
	p.launched = true
	if p.log == nil {
		p.log = e.log
	}
	e.projectiles = append(e.projectiles, p)
}

// UpdateAll steps every valid projectile and drops the ones that were removed.
// Projectiles launched by hooks during the pass are first stepped on the next
// pass.
func (e *ProjectileEngine) UpdateAll() {
	for _, p := range e.projectiles {
		if !p.removed {
			p.update()
		}
	}

	kept := e.projectiles[:0]
	for _, p := range e.projectiles {
		if !p.removed {
			kept = append(kept, p)
		}
	}
	clear(e.projectiles[len(kept):])
	e.projectiles = kept
}

// RemoveAll discards every tracked projectile.
func (e *ProjectileEngine) RemoveAll() {
	projectiles := e.projectiles
	e.projectiles = nil
	for _, p := range projectiles {
		p.remove(RemovalDiscarded)
	}
}

// Len returns the number of tracked projectiles.
func (e *ProjectileEngine) Len() int {
	return len(e.projectiles)
}
