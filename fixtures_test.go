package psychics

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
)

// fakePlayer stands in for a connected player.
type fakePlayer struct {
	id        uuid.UUID
	name      string
	level     int
	health    float64
	maxHealth float64
	armour    float64
	bonus     float64
	cooldowns map[string]int64
	status    []string
}

func newFakePlayer(name string) *fakePlayer {
	return &fakePlayer{
		id:        uuid.New(),
		name:      name,
		level:     10,
		health:    10,
		maxHealth: baseMaxHealth,
		cooldowns: make(map[string]int64),
	}
}

func (f *fakePlayer) UUID() uuid.UUID    { return f.id }
func (f *fakePlayer) Name() string       { return f.name }
func (f *fakePlayer) Level() int         { return f.level }
func (f *fakePlayer) Health() float64    { return f.health }
func (f *fakePlayer) MaxHealth() float64 { return f.maxHealth }
func (f *fakePlayer) Armour() float64    { return f.armour }

func (f *fakePlayer) Heal(amount float64) {
	f.health = min(f.maxHealth, f.health+amount)
}

func (f *fakePlayer) SetHealthBonus(bonus float64) {
	f.bonus = bonus
	f.maxHealth = baseMaxHealth + bonus
	f.health = min(f.health, f.maxHealth)
}

func (f *fakePlayer) SetWandCooldown(wand string, ticks int64) {
	f.cooldowns[wand] = ticks
}

func (f *fakePlayer) SendStatus(message string) {
	f.status = append(f.status, message)
}

// recorder is an active ability that records its hooks.
type recorder struct {
	NopActiveHandler
	events  []string
	casts   int
	targets []any
	onCast  func(a *Ability)
}

func (r *recorder) HandleEnable(*Ability)  { r.events = append(r.events, "enable") }
func (r *recorder) HandleDisable(*Ability) { r.events = append(r.events, "disable") }
func (r *recorder) HandleDetach(*Ability)  { r.events = append(r.events, "detach") }

func (r *recorder) HandleCast(a *Ability, _ WandAction, target any) {
	r.casts++
	r.targets = append(r.targets, target)
	r.events = append(r.events, "cast")
	if r.onCast != nil {
		r.onCast(a)
	}
}

func (r *recorder) HandleChannel(*Ability, *Channel) {
	r.events = append(r.events, "channel")
}

func (r *recorder) HandleInterrupt(*Ability, *Channel) {
	r.events = append(r.events, "interrupt")
}

func (r *recorder) count(event string) int {
	n := 0
	for _, e := range r.events {
		if e == event {
			n++
		}
	}
	return n
}

func newRecorder() AbilityHandler { return &recorder{} }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestManager(concepts ...*PsychicConcept) *Manager {
	b := NewBuilder().Logger(discardLogger())
	for _, c := range concepts {
		b.Concept(c)
	}
	return b.Init()
}

// newTestConcept creates a psychic "pyro" with a single recorded ability
// "bolt" using cfg.
func newTestConcept(t *testing.T, psychic PsychicConfig, cfg AbilityConfig) *PsychicConcept {
	t.Helper()
	ac, err := NewAbilityConcept("bolt", cfg, newRecorder)
	if err != nil {
		t.Fatalf("NewAbilityConcept: %v", err)
	}
	return NewPsychicConcept("pyro", psychic, ac)
}

// setup returns an enabled psychic with full mana attached to a fresh player.
func setup(t *testing.T, psychic PsychicConfig, cfg AbilityConfig) (*Manager, *fakePlayer, *Psychic, *Ability, *recorder) {
	t.Helper()
	c := newTestConcept(t, psychic, cfg)
	m := newTestManager(c)
	pl := newFakePlayer("Steve")
	e, err := m.AddPlayer(context.Background(), pl)
	if err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	ps := e.AttachPsychic(c)
	ps.SetEnabled(true)
	ps.SetMana(ps.MaxMana())

	a, ok := ps.Ability("bolt")
	if !ok {
		t.Fatalf("ability bolt not found")
	}
	return m, pl, ps, a, a.Handler().(*recorder)
}

func expectPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("%s: expected panic", name)
		}
	}()
	fn()
}
