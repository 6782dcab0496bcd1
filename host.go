package psychics

import (
	"context"
	"iter"
	"time"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/dragonfly/server/block/cube/trace"
	"github.com/df-mc/dragonfly/server/item"
	"github.com/df-mc/dragonfly/server/player"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Host binds a Manager to a Dragonfly world. Ticks run inside the world's
// transactions, players are adapted to Player, and rays are traced against the
// world.
//
// Concurrency:
// Everything the runtime does happens on the world goroutine: ticks are queued
// with World.Exec and player events arrive inside the world's transaction. The
// transaction in use is kept on the host while runtime code runs, so players
// and ray traces resolve against it.
type Host struct {
	manager *Manager
	w       *world.World

	// tx is the transaction the runtime is running in, nil outside of one.
	tx *world.Tx
}

// NewHost drives m from w. Call it before Manager.Start.
//
// Usage:
//
//	mngr := psychics.NewBuilder().
//	    Store(store).
//	    Definitions(os.DirFS("psychics")).
//	    Init()
//	host := psychics.NewHost(mngr, srv.World())
//	mngr.Start()
//
//	for p := range srv.Accept() {
//	    if _, err := host.Accept(p); err != nil {
//	        p.Disconnect("failed to load psychics")
//	    }
//	}
func NewHost(m *Manager, w *world.World) *Host {
	h := &Host{manager: m, w: w}
	if m.tracer == nil {
		m.tracer = h
	}
	m.exec = func(tick func()) {
		w.Exec(func(tx *world.Tx) {
			h.within(tx, tick)
		})
	}
	return h
}

// Manager returns the driven manager.
func (h *Host) Manager() *Manager { return h.manager }

// World returns the driven world.
func (h *Host) World() *world.World { return h.w }

// Tx returns the transaction the runtime is running in, or nil.
func (h *Host) Tx() *world.Tx { return h.tx }

// within runs fn with tx as the current transaction.
func (h *Host) within(tx *world.Tx, fn func()) {
	prev := h.tx
	h.tx = tx
	defer func() { h.tx = prev }()
	fn()
}

// Accept registers a joining player and installs the psychics handler on it.
// It must be called with the player's transaction open, as in the server's
// accept loop.
func (h *Host) Accept(p *player.Player) (*Esper, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var (
		e   *Esper
		err error
	)
	h.within(p.Tx(), func() {
		e, err = h.manager.AddPlayer(ctx, &dfPlayer{host: h, handle: p.H(), id: p.UUID(), name: p.Name()})
	})
	if err != nil {
		return nil, err
	}
	p.Handle(NewHandler(h, e, p.Handler()))
	return e, nil
}

// Player resolves the Dragonfly player behind an esper in the current
// transaction.
func (h *Host) Player(e *Esper) (*player.Player, bool) {
	pl, ok := e.player()
	if !ok {
		return nil, false
	}
	dp, ok := pl.(*dfPlayer)
	if !ok {
		return nil, false
	}
	return dp.player()
}

// RayTrace implements RayTracer against the world's blocks and the entities
// accepted by filter.
func (h *Host) RayTrace(origin, direction mgl64.Vec3, maxDistance, radius float64, filter func(world.Entity) bool) (RayTraceHit, bool) {
	if h.tx == nil || maxDistance <= 0 {
		return RayTraceHit{}, false
	}
	end := origin.Add(direction.Normalize().Mul(maxDistance))
	box := cube.Box(-radius, -radius, -radius, radius, radius, radius)

	res, ok := trace.Perform(origin, end, h.tx, box, entityFilter(filter))
	if !ok {
		return RayTraceHit{}, false
	}
	hit := RayTraceHit{Position: res.Position()}
	if er, ok := res.(interface{ Entity() world.Entity }); ok {
		hit.Entity = er.Entity()
	}
	return hit, true
}

// entityFilter turns a hit predicate into a trace filter yielding the entities
// that may be hit. A nil predicate yields none.
func entityFilter(hit func(world.Entity) bool) trace.EntityFilter {
	return func(seq iter.Seq[world.Entity]) iter.Seq[world.Entity] {
		return func(yield func(world.Entity) bool) {
			if hit == nil {
				return
			}
			for e := range seq {
				if hit(e) && !yield(e) {
					return
				}
			}
		}
	}
}

// dfPlayer adapts a Dragonfly player to Player. Every call resolves the player
// in the host's current transaction and does nothing outside of one.
type dfPlayer struct {
	host   *Host
	handle *world.EntityHandle
	id     uuid.UUID
	name   string
}

func (d *dfPlayer) player() (*player.Player, bool) {
	tx := d.host.tx
	if tx == nil {
		return nil, false
	}
	e, ok := d.handle.Entity(tx)
	if !ok {
		return nil, false
	}
	p, ok := e.(*player.Player)
	return p, ok
}

func (d *dfPlayer) UUID() uuid.UUID { return d.id }
func (d *dfPlayer) Name() string    { return d.name }

func (d *dfPlayer) Level() int {
	if p, ok := d.player(); ok {
		return p.ExperienceLevel()
	}
	return 0
}

func (d *dfPlayer) Health() float64 {
	if p, ok := d.player(); ok {
		return p.Health()
	}
	return 0
}

func (d *dfPlayer) MaxHealth() float64 {
	if p, ok := d.player(); ok {
		return p.MaxHealth()
	}
	return 0
}

func (d *dfPlayer) Heal(amount float64) {
	if p, ok := d.player(); ok {
		p.Heal(amount, RegenHealingSource{})
	}
}

func (d *dfPlayer) Armour() float64 {
	p, ok := d.player()
	if !ok {
		return 0
	}
	var points float64
	for _, s := range p.Armour().Items() {
		if a, ok := s.Item().(item.Armour); ok {
			points += a.DefencePoints()
		}
	}
	return points
}

func (d *dfPlayer) SetHealthBonus(bonus float64) {
	if p, ok := d.player(); ok {
		p.SetMaxHealth(baseMaxHealth + bonus)
	}
}

func (d *dfPlayer) SetWandCooldown(wand string, ticks int64) {
	p, ok := d.player()
	if !ok {
		return
	}
	for _, s := range p.Inventory().Items() {
		if tag, ok := WandOf(s); ok && tag == wand {
			p.SetCooldown(s.Item(), TicksToDuration(ticks))
			return
		}
	}
}

func (d *dfPlayer) SendStatus(message string) {
	if p, ok := d.player(); ok {
		p.SendTip(message)
	}
}

// RegenHealingSource is the healing source of psychic health regeneration.
type RegenHealingSource struct{}

func (RegenHealingSource) HealingSource() {}
