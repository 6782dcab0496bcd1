package psychics

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// AbilityType classifies how an ability is triggered.
type AbilityType uint8

const (
	// AbilityPassive abilities react to events and are never cast.
	AbilityPassive AbilityType = iota
	// AbilityActive abilities are cast with a wand.
	AbilityActive
	// AbilityToggle abilities are switched on and off with a wand.
	AbilityToggle
)

var abilityTypeNames = [...]string{"PASSIVE", "ACTIVE", "TOGGLE"}

func (t AbilityType) String() string {
	if int(t) < len(abilityTypeNames) {
		return abilityTypeNames[t]
	}
	return fmt.Sprintf("AbilityType(%d)", t)
}

// ParseAbilityType resolves an ability type by name (case-insensitive).
func ParseAbilityType(s string) (AbilityType, error) {
	for i, name := range abilityTypeNames {
		if strings.EqualFold(name, s) {
			return AbilityType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown ability type %q", s)
}

func (t *AbilityType) UnmarshalYAML(node *yaml.Node) error {
	v, err := ParseAbilityType(node.Value)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func (t AbilityType) MarshalYAML() (any, error) {
	return t.String(), nil
}

// AbilityConfig is the configurable part of an ability definition.
type AbilityConfig struct {
	// Ability is the registry key of the factory producing the ability.
	Ability string `yaml:"ability"`

	DisplayName      string      `yaml:"display-name"`
	Type             AbilityType `yaml:"type"`
	LevelRequirement int         `yaml:"level-requirement"`
	CooldownTicks    int64       `yaml:"cooldown-ticks"`
	Cost             float64     `yaml:"cost"`
	CastingTicks     int64       `yaml:"casting-ticks"`
	Interruptible    bool        `yaml:"interruptible"`
	DurationTicks    int64       `yaml:"duration-ticks"`
	Range            float64     `yaml:"range"`
	Damage           *Damage     `yaml:"damage"`
	Healing          Statistic   `yaml:"healing"`

	// Wand is the tag of the item that casts the ability.
	Wand string `yaml:"wand"`

	Description []string `yaml:"description"`

	// Extra holds keys the runtime does not know about, for the ability's own use.
	Extra map[string]any `yaml:",inline"`
}

// AbilityConcept is the shared, immutable definition of an ability type.
// Every player holding the ability gets its own Ability instance pointing at
// the same concept.
type AbilityConcept struct {
	name    string
	cfg     AbilityConfig
	factory AbilityFactory
}

// NewAbilityConcept validates cfg and creates a concept named name.
// A PASSIVE concept whose handler implements ActiveHandler is promoted to ACTIVE;
// factory is called once here to find out and the handler is discarded.
// Definitions loaded through an AbilityRegistry skip that call.
func NewAbilityConcept(name string, cfg AbilityConfig, factory AbilityFactory) (*AbilityConcept, error) {
	if factory == nil {
		return nil, fmt.Errorf("ability %s: no factory", name)
	}
	_, active := factory().(ActiveHandler)
	return newAbilityConcept(name, cfg, factory, active)
}

func newAbilityConcept(name string, cfg AbilityConfig, factory AbilityFactory, active bool) (*AbilityConcept, error) {
	if name == "" {
		return nil, fmt.Errorf("ability name is empty")
	}
	if factory == nil {
		return nil, fmt.Errorf("ability %s: no factory", name)
	}
	for field, v := range map[string]float64{
		"level-requirement": float64(cfg.LevelRequirement),
		"cooldown-ticks":    float64(cfg.CooldownTicks),
		"cost":              cfg.Cost,
		"casting-ticks":     float64(cfg.CastingTicks),
		"duration-ticks":    float64(cfg.DurationTicks),
		"range":             cfg.Range,
	} {
		if v < 0 {
			return nil, fmt.Errorf("ability %s: %s must not be negative", name, field)
		}
	}
	if cfg.DisplayName == "" {
		cfg.DisplayName = name
	}
	if active && cfg.Type == AbilityPassive {
		cfg.Type = AbilityActive
	}

	cfg.Description = slices.Clone(cfg.Description)
	cfg.Extra = maps.Clone(cfg.Extra)
	cfg.Healing = maps.Clone(cfg.Healing)
	if cfg.Damage != nil {
		d := *cfg.Damage
		d.Stats = maps.Clone(d.Stats)
		cfg.Damage = &d
	}
	return &AbilityConcept{name: name, cfg: cfg, factory: factory}, nil
}

func (c *AbilityConcept) Name() string          { return c.name }
func (c *AbilityConcept) DisplayName() string   { return c.cfg.DisplayName }
func (c *AbilityConcept) Type() AbilityType     { return c.cfg.Type }
func (c *AbilityConcept) LevelRequirement() int { return c.cfg.LevelRequirement }
func (c *AbilityConcept) CooldownTicks() int64  { return c.cfg.CooldownTicks }
func (c *AbilityConcept) Cost() float64         { return c.cfg.Cost }
func (c *AbilityConcept) CastingTicks() int64   { return c.cfg.CastingTicks }
func (c *AbilityConcept) Interruptible() bool   { return c.cfg.Interruptible }
func (c *AbilityConcept) DurationTicks() int64  { return c.cfg.DurationTicks }
func (c *AbilityConcept) Range() float64        { return c.cfg.Range }
func (c *AbilityConcept) Wand() string          { return c.cfg.Wand }

// Damage returns the configured damage, if any.
func (c *AbilityConcept) Damage() (Damage, bool) {
	if c.cfg.Damage == nil {
		return Damage{}, false
	}
	d := *c.cfg.Damage
	d.Stats = maps.Clone(d.Stats)
	return d, true
}

// Healing returns the configured healing statistic, or nil.
func (c *AbilityConcept) Healing() Statistic { return maps.Clone(c.cfg.Healing) }

// Description returns the description lines.
func (c *AbilityConcept) Description() []string { return slices.Clone(c.cfg.Description) }

// Extra returns a content-specific setting.
func (c *AbilityConcept) Extra(key string) (any, bool) {
	v, ok := c.cfg.Extra[key]
	return v, ok
}

// Config returns a copy of the concept's configuration.
func (c *AbilityConcept) Config() AbilityConfig {
	cfg := c.cfg
	cfg.Description = slices.Clone(cfg.Description)
	cfg.Extra = maps.Clone(cfg.Extra)
	cfg.Healing = maps.Clone(cfg.Healing)
	if d, ok := c.Damage(); ok {
		cfg.Damage = &d
	}
	return cfg
}

// newInstance creates a fresh per-player ability.
func (c *AbilityConcept) newInstance() *Ability {
	h := c.factory()
	if h == nil {
		h = NopAbilityHandler{}
	}
	return &Ability{concept: c, handler: h}
}

// PsychicConfig is the configurable part of a psychic definition.
type PsychicConfig struct {
	DisplayName string `yaml:"display-name"`
	// HealthBonus is added to the player's max health while attached.
	HealthBonus float64 `yaml:"health-bonus"`
	// HealthRegen is the health regained per tick.
	HealthRegen float64 `yaml:"health-regen"`
	// Mana is the size of the mana pool.
	Mana float64 `yaml:"mana"`
	// ManaRegen is the mana regained per tick.
	ManaRegen   float64  `yaml:"mana-regen"`
	Description []string `yaml:"description"`
}

const (
	maxAttributeValue = 32767
	baseMaxHealth     = 20
)

// PsychicConcept is the shared, immutable definition of a psychic: its
// resource settings and its ordered list of abilities.
type PsychicConcept struct {
	name      string
	cfg       PsychicConfig
	abilities []*AbilityConcept
}

// NewPsychicConcept creates a concept named name. Numeric settings are clamped
// into their valid ranges.
func NewPsychicConcept(name string, cfg PsychicConfig, abilities ...*AbilityConcept) *PsychicConcept {
	if cfg.DisplayName == "" {
		cfg.DisplayName = name
	}
	cfg.HealthBonus = clamp(cfg.HealthBonus, 0, maxAttributeValue-baseMaxHealth)
	cfg.HealthRegen = clamp(cfg.HealthRegen, 0, maxAttributeValue)
	cfg.Mana = clamp(cfg.Mana, 0, maxAttributeValue)
	cfg.ManaRegen = clamp(cfg.ManaRegen, 0, maxAttributeValue)
	cfg.Description = slices.Clone(cfg.Description)

	return &PsychicConcept{name: name, cfg: cfg, abilities: slices.Clone(abilities)}
}

func (c *PsychicConcept) Name() string          { return c.name }
func (c *PsychicConcept) DisplayName() string   { return c.cfg.DisplayName }
func (c *PsychicConcept) HealthBonus() float64  { return c.cfg.HealthBonus }
func (c *PsychicConcept) HealthRegen() float64  { return c.cfg.HealthRegen }
func (c *PsychicConcept) Mana() float64         { return c.cfg.Mana }
func (c *PsychicConcept) ManaRegen() float64    { return c.cfg.ManaRegen }
func (c *PsychicConcept) Description() []string { return slices.Clone(c.cfg.Description) }

// Abilities returns the ability concepts in definition order.
func (c *PsychicConcept) Abilities() []*AbilityConcept {
	return slices.Clone(c.abilities)
}

// Ability returns the ability concept with the given name.
func (c *PsychicConcept) Ability(name string) (*AbilityConcept, bool) {
	for _, a := range c.abilities {
		if a.name == name {
			return a, true
		}
	}
	return nil, false
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
