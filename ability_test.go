package psychics

import (
	"errors"
	"testing"
)

var testPsychic = PsychicConfig{Mana: 100}

func TestCastImmediate(t *testing.T) {
	_, pl, ps, a, rec := setup(t, testPsychic, AbilityConfig{Cost: 20, CooldownTicks: 40, Wand: "rod"})

	if !a.Active() || a.Concept().Type() != AbilityActive {
		t.Fatalf("recorded ability is not active")
	}
	if err := a.TryCast(RightClick); err != nil {
		t.Fatalf("TryCast: %v", err)
	}
	if rec.casts != 1 {
		t.Fatalf("cast hook ran %d times, want 1", rec.casts)
	}
	if ps.Mana() != 80 {
		t.Fatalf("mana %f after cast, want 80", ps.Mana())
	}
	if a.CooldownTicks() != 40 {
		t.Fatalf("cooldown %d, want 40", a.CooldownTicks())
	}
	if pl.cooldowns["rod"] != 40 {
		t.Fatalf("wand cooldown %d, want 40", pl.cooldowns["rod"])
	}

	err := a.TryCast(RightClick)
	if !errors.Is(err, ErrCooldown) {
		t.Fatalf("second TryCast = %v, want ErrCooldown", err)
	}
	var ce *CastError
	if !errors.As(err, &ce) || ce.Cooldown != 40 || ce.Ability != "bolt" {
		t.Fatalf("cast error %+v, want 40 cooldown ticks on bolt", ce)
	}
	if got := err.Error(); got != "not ready yet (2s)" {
		t.Fatalf("Error() = %q", got)
	}
	if ps.Mana() != 80 || rec.casts != 1 {
		t.Fatalf("failed cast changed state: mana=%f casts=%d", ps.Mana(), rec.casts)
	}
}

func TestCooldownExpires(t *testing.T) {
	m, _, _, a, _ := setup(t, testPsychic, AbilityConfig{CooldownTicks: 3})

	if err := a.TryCast(LeftClick); err != nil {
		t.Fatalf("TryCast: %v", err)
	}
	for range 2 {
		m.Tick()
	}
	var ce *CastError
	if err := a.TryCast(LeftClick); !errors.As(err, &ce) || ce.Cooldown != 1 {
		t.Fatalf("TryCast after 2 ticks = %v, want 1 tick of cooldown left", err)
	}
	m.Tick()
	if err := a.TryCast(LeftClick); err != nil {
		t.Fatalf("TryCast after cooldown: %v", err)
	}
}

func TestCastLevel(t *testing.T) {
	_, pl, _, a, rec := setup(t, testPsychic, AbilityConfig{LevelRequirement: 20})

	err := a.TryCast(RightClick)
	if !errors.Is(err, ErrLevel) {
		t.Fatalf("TryCast = %v, want ErrLevel", err)
	}
	if got := err.Error(); got != "level too low (requires level 20)" {
		t.Fatalf("Error() = %q", got)
	}

	pl.level = 20
	if err := a.TryCast(RightClick); err != nil {
		t.Fatalf("TryCast at level 20: %v", err)
	}
	if rec.casts != 1 {
		t.Fatalf("cast hook ran %d times, want 1", rec.casts)
	}
}

func TestCastDisabled(t *testing.T) {
	_, _, ps, a, rec := setup(t, testPsychic, AbilityConfig{})
	ps.SetEnabled(false)

	if err := a.TryCast(RightClick); !errors.Is(err, ErrDisabled) {
		t.Fatalf("TryCast = %v, want ErrDisabled", err)
	}
	if rec.casts != 0 {
		t.Fatalf("disabled ability was cast")
	}
}

func TestCastMana(t *testing.T) {
	_, _, ps, a, rec := setup(t, testPsychic, AbilityConfig{Cost: 150})

	err := a.TryCast(RightClick)
	if !errors.Is(err, ErrMana) {
		t.Fatalf("TryCast = %v, want ErrMana", err)
	}
	if got := err.Error(); got != "not enough mana (150)" {
		t.Fatalf("Error() = %q", got)
	}
	if ps.Mana() != 100 || rec.casts != 0 {
		t.Fatalf("failed cast changed state: mana=%f casts=%d", ps.Mana(), rec.casts)
	}

	if err := a.TryCast(RightClick, WithCost(100)); err != nil {
		t.Fatalf("TryCast with cost override: %v", err)
	}
	if ps.Mana() != 0 {
		t.Fatalf("mana %f, want 0", ps.Mana())
	}
}

func TestCastTarget(t *testing.T) {
	_, _, ps, a, rec := setup(t, testPsychic, AbilityConfig{Cost: 10})

	a.Targeter = func() (any, bool) { return nil, false }
	if err := a.TryCast(RightClick); !errors.Is(err, ErrNoTarget) {
		t.Fatalf("TryCast = %v, want ErrNoTarget", err)
	}
	if ps.Mana() != 100 {
		t.Fatalf("cast without target spent mana: %f", ps.Mana())
	}

	// A missing target is reported before missing mana.
	ps.SetMana(0)
	if err := a.TryCast(RightClick); !errors.Is(err, ErrNoTarget) {
		t.Fatalf("TryCast without mana or target = %v, want ErrNoTarget", err)
	}
	ps.SetMana(100)

	if err := a.TryCast(RightClick, WithTargeter(func() (any, bool) { return "zombie", true })); err != nil {
		t.Fatalf("TryCast with targeter: %v", err)
	}
	if rec.casts != 1 || rec.targets[0] != "zombie" {
		t.Fatalf("cast with targets %v, want [zombie]", rec.targets)
	}
}

func TestTestOrder(t *testing.T) {
	_, pl, ps, a, _ := setup(t, testPsychic, AbilityConfig{LevelRequirement: 50, Cost: 500, CooldownTicks: 10})
	a.SetCooldownTicks(10)
	ps.SetEnabled(false)

	steps := []struct {
		want error
		fix  func()
	}{
		{ErrDisabled, func() { ps.SetEnabled(true) }},
		{ErrLevel, func() { pl.level = 50 }},
		{ErrCooldown, func() { a.SetCooldownTicks(0) }},
		{ErrMana, nil},
	}
	for _, step := range steps {
		if err := a.Test(); !errors.Is(err, step.want) {
			t.Fatalf("Test() = %v, want %v", err, step.want)
		}
		if step.fix != nil {
			step.fix()
		}
	}
}

func TestChannel(t *testing.T) {
	m, _, ps, a, rec := setup(t, testPsychic, AbilityConfig{Cost: 30, CastingTicks: 5, CooldownTicks: 40})

	if err := a.TryCast(RightClick); err != nil {
		t.Fatalf("TryCast: %v", err)
	}
	ch := ps.Channel()
	if ch == nil || ch.State() != ChannelChanneling {
		t.Fatalf("no channel started")
	}
	if ps.Mana() != 70 {
		t.Fatalf("mana %f, want 70 spent when the cast starts", ps.Mana())
	}
	if a.CooldownTicks() != 0 {
		t.Fatalf("cooldown started before the channel completed")
	}
	if err := a.TryCast(RightClick); !errors.Is(err, ErrChanneling) {
		t.Fatalf("TryCast while channeling = %v, want ErrChanneling", err)
	}

	for range 4 {
		m.Tick()
	}
	if rec.casts != 0 || rec.count("channel") != 4 {
		t.Fatalf("after 4 ticks casts=%d channel=%d, want 0 and 4", rec.casts, rec.count("channel"))
	}
	if ch.RemainingTicks() != 1 {
		t.Fatalf("remaining %d, want 1", ch.RemainingTicks())
	}

	m.Tick()
	if rec.casts != 1 {
		t.Fatalf("channel did not cast on completion")
	}
	if ps.Channel() != nil || ch.State() != ChannelCast {
		t.Fatalf("channel not cleared after cast: state %v", ch.State())
	}
	if a.CooldownTicks() != 40 {
		t.Fatalf("cooldown %d after cast, want 40", a.CooldownTicks())
	}
}

func TestChannelInterruptedByDisable(t *testing.T) {
	m, _, ps, a, rec := setup(t, testPsychic, AbilityConfig{CastingTicks: 10})

	if err := a.TryCast(RightClick); err != nil {
		t.Fatalf("TryCast: %v", err)
	}
	ch := ps.Channel()
	ps.SetEnabled(false)

	if ps.Channel() != nil || ch.State() != ChannelInterrupted {
		t.Fatalf("channel survived disable: state %v", ch.State())
	}
	if rec.count("interrupt") != 1 {
		t.Fatalf("interrupt hook ran %d times, want 1", rec.count("interrupt"))
	}

	ps.SetEnabled(true)
	for range 15 {
		m.Tick()
	}
	if rec.casts != 0 {
		t.Fatalf("interrupted channel was cast")
	}
}

func TestChannelRecast(t *testing.T) {
	_, _, ps, a, rec := setup(t, testPsychic, AbilityConfig{CastingTicks: 10})

	a.Cast(RightClick, 10, nil)
	first := ps.Channel()
	a.Cast(LeftClick, 3, nil)

	if first.State() != ChannelInterrupted || rec.count("interrupt") != 1 {
		t.Fatalf("replacing a channel did not interrupt it")
	}
	if ps.Channel() == first || ps.Channel().Action() != LeftClick {
		t.Fatalf("new channel not started")
	}
}

type panickingAbility struct {
	NopActiveHandler
}

func (panickingAbility) HandleCast(*Ability, WandAction, any) { panic("broken content") }

func TestCastHookPanicRecovered(t *testing.T) {
	ac, err := NewAbilityConcept("broken", AbilityConfig{CooldownTicks: 5}, func() AbilityHandler { return panickingAbility{} })
	if err != nil {
		t.Fatalf("NewAbilityConcept: %v", err)
	}
	c := NewPsychicConcept("glitch", PsychicConfig{}, ac)
	m := newTestManager(c)
	e, _ := m.AddPlayer(t.Context(), newFakePlayer("Alex"))
	ps := e.AttachPsychic(c)
	ps.SetEnabled(true)

	a, _ := ps.Ability("broken")
	if err := a.TryCast(RightClick); err != nil {
		t.Fatalf("TryCast: %v", err)
	}
	if a.CooldownTicks() != 5 {
		t.Fatalf("cooldown %d, want 5 even though the hook panicked", a.CooldownTicks())
	}
	m.Tick()
}

func TestPassiveCannotCast(t *testing.T) {
	ac, err := NewAbilityConcept("aura", AbilityConfig{}, func() AbilityHandler { return NopAbilityHandler{} })
	if err != nil {
		t.Fatalf("NewAbilityConcept: %v", err)
	}
	if ac.Type() != AbilityPassive {
		t.Fatalf("type %v, want PASSIVE", ac.Type())
	}
	c := NewPsychicConcept("calm", PsychicConfig{}, ac)
	m := newTestManager(c)
	e, _ := m.AddPlayer(t.Context(), newFakePlayer("Alex"))
	ps := e.AttachPsychic(c)
	ps.SetEnabled(true)

	a, _ := ps.Ability("aura")
	if a.Active() {
		t.Fatalf("passive ability reports active")
	}
	if err := a.Test(); err != nil {
		t.Fatalf("Test() on a ready passive = %v", err)
	}
	expectPanic(t, "TryCast on passive", func() { _ = a.TryCast(RightClick) })
}
