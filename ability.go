package psychics

// AbilityHandler is the content side of an ability: it receives lifecycle
// callbacks from the runtime. Embed NopAbilityHandler to implement only the
// hooks you need.
//
// Hooks run inside the update pass. A panic in a hook is recovered and logged;
// it never stops the pass.
type AbilityHandler interface {
	// HandleInitialize runs once after the ability is created.
	HandleInitialize(a *Ability)
	// HandleAttach runs when the psychic is attached to an esper.
	HandleAttach(a *Ability)
	// HandleDetach runs when the psychic is destroyed.
	HandleDetach(a *Ability)
	// HandleEnable runs after the psychic was enabled.
	HandleEnable(a *Ability)
	// HandleDisable runs after the psychic was disabled and its tasks and
	// projectiles were cleared.
	HandleDisable(a *Ability)
	// HandleSave writes extra state into the ability's document section.
	HandleSave(a *Ability, doc Document)
	// HandleLoad reads extra state from the ability's document section.
	HandleLoad(a *Ability, doc Document)
}

// ActiveHandler is implemented by abilities that are cast with a wand.
type ActiveHandler interface {
	AbilityHandler
	// HandleCast performs the ability with the target resolved when the cast
	// was attempted.
	HandleCast(a *Ability, action WandAction, target any)
	// HandleChannel runs every tick while the cast is channeling.
	HandleChannel(a *Ability, ch *Channel)
	// HandleInterrupt runs when a channel is cleared before it completed.
	HandleInterrupt(a *Ability, ch *Channel)
}

// AbilityFactory creates the handler of a fresh per-player ability.
type AbilityFactory func() AbilityHandler

// NopAbilityHandler implements AbilityHandler with no-op hooks.
type NopAbilityHandler struct{}

func (NopAbilityHandler) HandleInitialize(*Ability)     {}
func (NopAbilityHandler) HandleAttach(*Ability)         {}
func (NopAbilityHandler) HandleDetach(*Ability)         {}
func (NopAbilityHandler) HandleEnable(*Ability)         {}
func (NopAbilityHandler) HandleDisable(*Ability)        {}
func (NopAbilityHandler) HandleSave(*Ability, Document) {}
func (NopAbilityHandler) HandleLoad(*Ability, Document) {}

// NopActiveHandler implements the optional parts of ActiveHandler. Embed it and
// implement HandleCast.
type NopActiveHandler struct {
	NopAbilityHandler
}

func (NopActiveHandler) HandleChannel(*Ability, *Channel)   {}
func (NopActiveHandler) HandleInterrupt(*Ability, *Channel) {}

// WandAction is the click that triggered a cast.
type WandAction uint8

const (
	LeftClick WandAction = iota
	RightClick
)

func (a WandAction) String() string {
	if a == LeftClick {
		return "left click"
	}
	return "right click"
}

// Targeter resolves the target of a cast. It returns false when there is
// nothing to target. It must not assume that a cast follows.
type Targeter func() (any, bool)

// Ability is one skill instance owned by a psychic. Its configuration lives in
// the shared concept; the instance holds the per-player state.
type Ability struct {
	concept *AbilityConcept
	handler AbilityHandler
	psychic *Psychic

	// readyAt is the tick the cooldown ends at.
	readyAt int64

	// Targeter, when set, resolves the target of casts that do not pass their
	// own targeter.
	Targeter Targeter
}

// Concept returns the shared definition of the ability.
func (a *Ability) Concept() *AbilityConcept { return a.concept }

// Handler returns the content handler.
func (a *Ability) Handler() AbilityHandler { return a.handler }

// Psychic returns the owning psychic.
func (a *Ability) Psychic() *Psychic { return a.psychic }

// Esper returns the esper the owning psychic is attached to.
func (a *Ability) Esper() *Esper { return a.psychic.Esper() }

// Active reports whether the ability can be cast.
func (a *Ability) Active() bool {
	_, ok := a.handler.(ActiveHandler)
	return ok
}

// CooldownTicks returns the remaining cooldown, 0 when the ability is ready.
func (a *Ability) CooldownTicks() int64 {
	return max(0, a.readyAt-a.psychic.clock.Now())
}

// SetCooldownTicks restarts the cooldown with the given remaining ticks.
// The wand item shows the cooldown to the player.
func (a *Ability) SetCooldownTicks(ticks int64) {
	a.psychic.checkState()
	ticks = max(0, ticks)
	a.readyAt = a.psychic.clock.Now() + ticks

	if wand := a.concept.Wand(); wand != "" && a.psychic.esper != nil {
		if pl, ok := a.psychic.esper.player(); ok {
			pl.SetWandCooldown(wand, ticks)
		}
	}
}

// Test reports whether the ability could be cast right now, ignoring its
// target. Conditions are checked in order: disabled, level, cooldown,
// channeling (castable abilities only) and mana.
func (a *Ability) Test() error {
	if err := a.testReady(); err != nil {
		return err
	}
	return a.testMana(a.concept.Cost())
}

func (a *Ability) testReady() error {
	p := a.psychic
	if !p.valid || !p.enabled {
		return a.fail(ErrDisabled)
	}
	if pl, ok := p.esper.player(); !ok || pl.Level() < a.concept.LevelRequirement() {
		return a.fail(ErrLevel)
	}
	if a.CooldownTicks() > 0 {
		return a.fail(ErrCooldown)
	}
	if a.Active() && p.channel != nil {
		return a.fail(ErrChanneling)
	}
	return nil
}

func (a *Ability) testMana(cost float64) error {
	if a.psychic.mana < cost {
		return &CastError{Reason: ErrMana, Ability: a.concept.name, Cost: cost}
	}
	return nil
}

func (a *Ability) fail(reason error) *CastError {
	return &CastError{
		Reason:   reason,
		Ability:  a.concept.name,
		Level:    a.concept.LevelRequirement(),
		Cooldown: a.CooldownTicks(),
		Cost:     a.concept.Cost(),
	}
}

// CastOption changes a single cast attempt.
type CastOption func(*castOptions)

type castOptions struct {
	castingTicks int64
	cost         float64
	targeter     Targeter
}

// WithCastingTicks overrides the channel duration of the cast.
func WithCastingTicks(ticks int64) CastOption {
	return func(o *castOptions) { o.castingTicks = ticks }
}

// WithCost overrides the mana cost of the cast.
func WithCost(cost float64) CastOption {
	return func(o *castOptions) { o.cost = cost }
}

// WithTargeter overrides the ability's targeter for the cast.
func WithTargeter(t Targeter) CastOption {
	return func(o *castOptions) { o.targeter = t }
}

// TryCast attempts to cast the ability. On success the mana cost is spent and
// the cast either happens right away or starts channeling. On failure nothing
// changes and the returned error is a *CastError.
//
// The target is resolved before mana is checked, so a cast without a target
// never spends mana.
//
// Usage:
//
//	err := ability.TryCast(psychics.RightClick, psychics.WithTargeter(func() (any, bool) {
//	    return lockedTarget, lockedTarget != nil
//	}))
//	if err != nil {
//	    player.SendStatus(err.Error())
//	}
func (a *Ability) TryCast(action WandAction, opts ...CastOption) error {
	if !a.Active() {
		panic("psychics: ability " + a.concept.name + " cannot be cast")
	}
	o := castOptions{
		castingTicks: a.concept.CastingTicks(),
		cost:         a.concept.Cost(),
		targeter:     a.Targeter,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if err := a.testReady(); err != nil {
		return err
	}

	var target any
	if o.targeter != nil {
		var ok bool
		safeCall(a.psychic.log, "targeter", func() { target, ok = o.targeter() })
		if !ok {
			return a.fail(ErrNoTarget)
		}
	}

	if err := a.testMana(o.cost); err != nil {
		return err
	}
	a.psychic.ConsumeMana(o.cost)
	a.Cast(action, o.castingTicks, target)
	return nil
}

// Cast performs the ability without testing it. With castingTicks > 0 it starts
// a channel, interrupting any channel already running; otherwise the cast hook
// runs immediately.
func (a *Ability) Cast(action WandAction, castingTicks int64, target any) {
	a.psychic.checkState()
	if !a.Active() {
		panic("psychics: ability " + a.concept.name + " cannot be cast")
	}
	if castingTicks > 0 {
		a.psychic.startChannel(a, action, castingTicks, target)
		return
	}
	a.fireCast(action, target)
}

// fireCast starts the cooldown and runs the cast hook.
func (a *Ability) fireCast(action WandAction, target any) {
	if cd := a.concept.CooldownTicks(); cd > 0 {
		a.SetCooldownTicks(cd)
	}
	h := a.handler.(ActiveHandler)
	a.call("cast", func() { h.HandleCast(a, action, target) })
}

// call runs a hook and logs a panic raised by it.
func (a *Ability) call(hook string, fn func()) {
	safeCall(a.psychic.log.With("ability", a.concept.name), "ability "+hook, fn)
}

func (a *Ability) save(doc Document) {
	doc.Set("cooldown-ticks", a.CooldownTicks())
	a.call("save", func() { a.handler.HandleSave(a, doc) })
}

func (a *Ability) load(doc Document) {
	a.SetCooldownTicks(doc.Int("cooldown-ticks"))
	a.call("load", func() { a.handler.HandleLoad(a, doc) })
}
