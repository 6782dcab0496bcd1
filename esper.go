package psychics

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Player is the host's view of a connected player, as used by the runtime and
// by ability content.
type Player interface {
	UUID() uuid.UUID
	Name() string
	// Level is the player's experience level.
	Level() int
	Health() float64
	MaxHealth() float64
	// Heal restores health, never above MaxHealth.
	Heal(amount float64)
	// Armour returns the defence points of the worn armour.
	Armour() float64
	// SetHealthBonus raises the player's max health above the default.
	SetHealthBonus(bonus float64)
	// SetWandCooldown shows a cooldown of ticks on the wand items with the tag.
	SetWandCooldown(wand string, ticks int64)
	// SendStatus shows a short transient message, such as an action bar tip.
	SendStatus(message string)
}

// Esper wraps one player and holds at most one psychic.
type Esper struct {
	manager *Manager
	p       Player
	id      uuid.UUID
	name    string
	psychic *Psychic
}

func newEsper(m *Manager, p Player) *Esper {
	return &Esper{manager: m, p: p, id: p.UUID(), name: p.Name()}
}

// ID returns the player's UUID.
func (e *Esper) ID() uuid.UUID { return e.id }

// Name returns the player's name.
func (e *Esper) Name() string { return e.name }

// Manager returns the owning manager.
func (e *Esper) Manager() *Manager { return e.manager }

// Online reports whether the esper still wraps a connected player.
func (e *Esper) Online() bool { return e.p != nil }

// Player returns the wrapped player. It panics once the esper was removed.
func (e *Esper) Player() Player {
	p, ok := e.player()
	if !ok {
		panic("psychics: esper " + e.name + " was removed")
	}
	return p
}

func (e *Esper) player() (Player, bool) {
	if e == nil || e.p == nil {
		return nil, false
	}
	return e.p, true
}

// Psychic returns the attached psychic, or nil.
func (e *Esper) Psychic() *Psychic { return e.psychic }

// AttachPsychic destroys the current psychic, if any, and attaches a fresh one
// created from concept. The new psychic starts disabled.
func (e *Esper) AttachPsychic(concept *PsychicConcept) *Psychic {
	e.Player()
	e.DetachPsychic()
	return e.setPsychic(concept)
}

func (e *Esper) setPsychic(concept *PsychicConcept) *Psychic {
	p := newPsychic(e.manager, concept)
	e.psychic = p
	p.attach(e)
	e.updateHealthBonus()
	return p
}

// DetachPsychic destroys the attached psychic.
func (e *Esper) DetachPsychic() {
	p := e.psychic
	if p == nil {
		return
	}
	e.psychic = nil
	p.destroy()
	e.updateHealthBonus()
}

func (e *Esper) updateHealthBonus() {
	pl, ok := e.player()
	if !ok {
		return
	}
	var bonus float64
	if e.psychic != nil {
		bonus = e.psychic.concept.HealthBonus()
	}
	pl.SetHealthBonus(bonus)
}

// Attribute returns the current value of an attribute.
func (e *Esper) Attribute(attr Attribute) float64 {
	pl := e.Player()
	switch attr {
	case AttributeAttackDamage:
		return AttackDamage(pl.Level())
	case AttributeLevel:
		return float64(pl.Level())
	case AttributeDefense:
		return pl.Armour()
	case AttributeHealth:
		return pl.Health()
	case AttributeMana:
		if e.psychic != nil {
			return e.psychic.mana
		}
	}
	return 0
}

// Statistic evaluates a weighted sum of attributes.
func (e *Esper) Statistic(s Statistic) float64 {
	var sum float64
	for attr, ratio := range s {
		sum += e.Attribute(attr) * ratio
	}
	return sum
}

// CastByWand casts the active ability bound to the wand tag. A failed attempt
// is shown to the player and returned. It returns nil when no ability is bound
// to the wand.
func (e *Esper) CastByWand(action WandAction, wand string) error {
	p := e.psychic
	if p == nil {
		return nil
	}
	a, ok := p.AbilityByWand(wand)
	if !ok || !a.Active() {
		return nil
	}
	err := a.TryCast(action)
	if err != nil {
		if pl, ok := e.player(); ok {
			pl.SendStatus(err.Error())
		}
	}
	return err
}

// Save writes the esper's psychic state to the manager's store.
func (e *Esper) Save(ctx context.Context) error {
	doc := Document{}
	if e.psychic != nil {
		e.psychic.save(doc.CreateSection("psychic"))
	}
	if err := e.manager.store.Save(ctx, e.id, doc); err != nil {
		return fmt.Errorf("save esper %s: %w", e.name, err)
	}
	return nil
}

// errUnknownPsychic is returned by Load for a saved psychic that no longer exists.
var errUnknownPsychic = errors.New("unknown psychic")

// Load restores the psychic saved in the manager's store, replacing the
// current one. A psychic whose definition no longer exists is dropped.
func (e *Esper) Load(ctx context.Context) error {
	doc, err := e.manager.store.Load(ctx, e.id)
	if err != nil {
		return fmt.Errorf("load esper %s: %w", e.name, err)
	}
	e.DetachPsychic()

	section := doc.Section("psychic")
	if section == nil {
		return nil
	}
	name := section.String("name")
	concept, ok := e.manager.PsychicConcept(name)
	if !ok {
		return fmt.Errorf("load esper %s: %w %q", e.name, errUnknownPsychic, name)
	}
	e.setPsychic(concept).load(section)
	return nil
}

// clear destroys the psychic and releases the player.
func (e *Esper) clear() {
	if p := e.psychic; p != nil {
		e.psychic = nil
		p.destroy()
	}
	e.p = nil
}
