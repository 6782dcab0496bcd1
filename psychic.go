package psychics

import (
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"
)

// Psychic is an ability loadout bound to one esper. It owns the mana pool, the
// abilities, the task scheduler, the projectile engine and the channel.
//
// A destroyed psychic is invalid: every state-changing call on it panics.
//
// Concurrency:
// A psychic is only touched from the goroutine driving the manager's ticks
// (for Dragonfly, the world goroutine). It does no locking.
type Psychic struct {
	concept *PsychicConcept
	manager *Manager
	clock   *Clock
	log     *slog.Logger

	esper     *Esper
	abilities []*Ability

	scheduler   *TickScheduler
	projectiles *ProjectileEngine
	channel     *Channel

	mana       float64
	ticks      int64
	prevUpdate int64

	enabled bool
	valid   bool
}

func newPsychic(m *Manager, concept *PsychicConcept) *Psychic {
	log := m.log.With("psychic", concept.Name())
	p := &Psychic{
		concept:     concept,
		manager:     m,
		clock:       m.clock,
		log:         log,
		scheduler:   NewTickScheduler(m.clock, log),
		projectiles: NewProjectileEngine(log),
		valid:       true,
	}
	for _, ac := range concept.abilities {
		a := ac.newInstance()
		a.psychic = p
		p.abilities = append(p.abilities, a)
	}
	for _, a := range p.abilities {
		a.call("initialize", func() { a.handler.HandleInitialize(a) })
	}
	return p
}

// Concept returns the psychic's definition.
func (p *Psychic) Concept() *PsychicConcept { return p.concept }

// Manager returns the manager that created the psychic.
func (p *Psychic) Manager() *Manager { return p.manager }

// Esper returns the esper the psychic is attached to.
func (p *Psychic) Esper() *Esper {
	p.checkState()
	return p.esper
}

// Abilities returns the abilities in definition order.
func (p *Psychic) Abilities() []*Ability {
	out := make([]*Ability, len(p.abilities))
	copy(out, p.abilities)
	return out
}

// Ability returns the ability with the given concept name.
func (p *Psychic) Ability(name string) (*Ability, bool) {
	for _, a := range p.abilities {
		if a.concept.name == name {
			return a, true
		}
	}
	return nil, false
}

// AbilityByWand returns the ability cast by the wand with the given tag.
func (p *Psychic) AbilityByWand(wand string) (*Ability, bool) {
	if wand == "" {
		return nil, false
	}
	for _, a := range p.abilities {
		if a.concept.Wand() == wand {
			return a, true
		}
	}
	return nil, false
}

// Mana returns the current mana.
func (p *Psychic) Mana() float64 { return p.mana }

// MaxMana returns the size of the mana pool.
func (p *Psychic) MaxMana() float64 { return p.concept.Mana() }

// SetMana sets the mana, clamped to [0, MaxMana].
func (p *Psychic) SetMana(mana float64) {
	p.checkState()
	p.mana = clamp(mana, 0, p.concept.Mana())
}

// ConsumeMana deducts amount if at least that much mana is available.
// It reports whether the mana was spent.
func (p *Psychic) ConsumeMana(amount float64) bool {
	p.checkState()
	if p.mana < amount {
		return false
	}
	p.mana = clamp(p.mana-amount, 0, p.concept.Mana())
	return true
}

// Ticks returns the number of ticks the psychic was enabled for.
func (p *Psychic) Ticks() int64 { return p.ticks }

// Enabled reports whether the psychic is enabled.
func (p *Psychic) Enabled() bool { return p.enabled }

// Valid reports whether the psychic has not been destroyed.
func (p *Psychic) Valid() bool { return p.valid }

// Channel returns the cast in progress, or nil.
func (p *Psychic) Channel() *Channel { return p.channel }

// Scheduler returns the psychic's task scheduler.
func (p *Psychic) Scheduler() *TickScheduler { return p.scheduler }

// Projectiles returns the psychic's projectile engine.
func (p *Psychic) Projectiles() *ProjectileEngine { return p.projectiles }

// SetEnabled enables or disables the psychic. Disabling interrupts the channel,
// cancels every scheduled task and discards every projectile before the
// abilities' disable hooks run.
func (p *Psychic) SetEnabled(enabled bool) {
	p.checkState()
	if p.enabled == enabled {
		return
	}
	p.enabled = enabled

	if enabled {
		p.prevUpdate = p.clock.Now()
		for _, a := range p.abilities {
			a.call("enable", func() { a.handler.HandleEnable(a) })
		}
		return
	}

	p.InterruptChannel()
	p.scheduler.CancelAll()
	p.projectiles.RemoveAll()
	for _, a := range p.abilities {
		a.call("disable", func() { a.handler.HandleDisable(a) })
	}
}

// RunTask runs action once, delay ticks from now.
// The task is cancelled when the psychic is disabled.
func (p *Psychic) RunTask(action func(), delay int64) *Task {
	p.checkState()
	p.checkEnabled()
	return p.scheduler.RunTask(action, delay)
}

// RunTaskTimer runs action delay ticks from now and then every period ticks.
// The task is cancelled when the psychic is disabled.
func (p *Psychic) RunTaskTimer(action func(), delay, period int64) *Task {
	p.checkState()
	p.checkEnabled()
	return p.scheduler.RunTaskTimer(action, delay, period)
}

// LaunchProjectile places proj at spawn and starts simulating it. Set the
// projectile's velocity before launching. It panics if proj was launched before.
//
// Usage:
//
//	proj := psychics.NewProjectile(100, 64)
//	proj.SetVelocity(direction.Mul(2))
//	proj.Handle(&boltHandler{})
//	psychic.LaunchProjectile(eye, proj)
func (p *Psychic) LaunchProjectile(spawn mgl64.Vec3, proj *Projectile) {
	p.checkState()
	p.checkEnabled()
	p.projectiles.Add(proj)
	proj.shooter = p
	proj.place(spawn)
}

// InterruptChannel clears the channel in progress and runs its interrupt hook.
func (p *Psychic) InterruptChannel() {
	ch := p.channel
	if ch == nil {
		return
	}
	p.channel = nil
	ch.state = ChannelInterrupted
	h := ch.ability.handler.(ActiveHandler)
	ch.ability.call("interrupt", func() { h.HandleInterrupt(ch.ability, ch) })
}

func (p *Psychic) startChannel(a *Ability, action WandAction, ticks int64, target any) {
	p.InterruptChannel()
	now := p.clock.Now()
	p.channel = &Channel{
		ability:       a,
		action:        action,
		target:        target,
		startedAt:     now,
		completeAt:    now + ticks,
		interruptible: a.concept.Interruptible(),
	}
}

// advanceChannel reports progress of the channel, or casts it once it completed.
func (p *Psychic) advanceChannel() {
	ch := p.channel
	if ch == nil {
		return
	}
	a := ch.ability
	h := a.handler.(ActiveHandler)
	if p.clock.Now() < ch.completeAt {
		a.call("channel", func() { h.HandleChannel(a, ch) })
		return
	}
	p.channel = nil
	ch.state = ChannelCast
	a.fireCast(ch.action, ch.target)
}

// update runs one tick: regeneration, scheduled tasks, projectiles, channel.
func (p *Psychic) update() {
	now := p.clock.Now()
	elapsed := max(0, now-p.prevUpdate)
	p.prevUpdate = now
	p.ticks += elapsed

	p.regenerate(elapsed)

	p.scheduler.Run()
	if !p.enabled {
		return
	}
	p.projectiles.UpdateAll()
	if !p.enabled {
		return
	}
	p.advanceChannel()
}

func (p *Psychic) regenerate(elapsed int64) {
	if elapsed <= 0 {
		return
	}
	p.mana = clamp(p.mana+p.concept.ManaRegen()*float64(elapsed), 0, p.concept.Mana())

	regen := p.concept.HealthRegen()
	if regen <= 0 {
		return
	}
	pl, ok := p.esper.player()
	if !ok {
		return
	}
	if health := pl.Health(); health > 0 {
		amount := min(regen*float64(elapsed), pl.MaxHealth()-health)
		if amount > 0 {
			pl.Heal(amount)
		}
	}
}

func (p *Psychic) attach(e *Esper) {
	if p.esper != nil {
		panic("psychics: psychic already attached")
	}
	p.esper = e
	p.log = p.log.With("player", e.Name())
	p.scheduler.log = p.log
	p.projectiles.log = p.log
	for _, a := range p.abilities {
		a.call("attach", func() { a.handler.HandleAttach(a) })
	}
}

// destroy disables the psychic, detaches its abilities and invalidates it.
func (p *Psychic) destroy() {
	if !p.valid {
		return
	}
	p.SetEnabled(false)
	for _, a := range p.abilities {
		a.SetCooldownTicks(0)
		a.call("detach", func() { a.handler.HandleDetach(a) })
	}
	p.valid = false
}

func (p *Psychic) save(doc Document) {
	doc.Set("name", p.concept.Name())
	doc.Set("mana", p.mana)
	doc.Set("ticks", p.ticks)
	doc.Set("enabled", p.enabled)

	abilities := doc.CreateSection("abilities")
	for _, a := range p.abilities {
		a.save(abilities.CreateSection(a.concept.name))
	}
}

// load restores saved state. The enabled flag is applied last so that enable
// hooks see the restored state.
func (p *Psychic) load(doc Document) {
	p.SetMana(doc.Float("mana"))
	p.ticks = max(0, doc.Int("ticks"))

	if abilities := doc.Section("abilities"); abilities != nil {
		for _, a := range p.abilities {
			if s := abilities.Section(a.concept.name); s != nil {
				a.load(s)
			}
		}
	}
	p.SetEnabled(doc.Bool("enabled"))
}

func (p *Psychic) checkState() {
	if !p.valid {
		panic("psychics: invalid psychic " + p.concept.Name())
	}
}

func (p *Psychic) checkEnabled() {
	if !p.enabled {
		panic("psychics: disabled psychic " + p.concept.Name())
	}
}
