package psychics

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// DamageType is the kind of damage an ability deals. It decides which
// protection enchantment applies.
type DamageType uint8

const (
	DamageMelee DamageType = iota
	DamageRanged
	DamageFire
	DamageBlast
)

var damageTypeNames = [...]string{"MELEE", "RANGED", "FIRE", "BLAST"}

func (t DamageType) String() string {
	if int(t) < len(damageTypeNames) {
		return damageTypeNames[t]
	}
	return fmt.Sprintf("DamageType(%d)", t)
}

// ParseDamageType resolves a damage type by name (case-insensitive).
func ParseDamageType(s string) (DamageType, error) {
	for i, name := range damageTypeNames {
		if strings.EqualFold(name, s) {
			return DamageType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown damage type %q", s)
}

func (t *DamageType) UnmarshalYAML(node *yaml.Node) error {
	v, err := ParseDamageType(node.Value)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func (t DamageType) MarshalYAML() (any, error) {
	return t.String(), nil
}

// Damage describes how much damage an ability deals, scaled by the caster's
// attributes.
type Damage struct {
	Type  DamageType `yaml:"type"`
	Stats Statistic  `yaml:"stats"`
}

func (d Damage) String() string {
	return d.Type.String() + " " + d.Stats.String()
}

// PsychicDamage reduces damage by the target's armour points, armour toughness
// and protection enchantment level.
func PsychicDamage(damage, armour, toughness, protection float64) float64 {
	return (1 - 0.04*protection) * damage * (1 + (-min(armour, toughness)-armour)/50)
}

// InversePsychicDamage returns the damage that PsychicDamage reduces to damage.
func InversePsychicDamage(damage, armour, toughness, protection float64) float64 {
	return damage / (1 - 0.04*protection) / (1 + (-min(armour, toughness)-armour)/50)
}

const (
	minAttackDamage      = 1.0
	maxAttackDamageLevel = 40
)

// maxAttackDamage deals one point of damage through full enchanted netherite.
var maxAttackDamage = InversePsychicDamage(1, 20, 12, 20)

// AttackDamage returns the base attack damage of an esper at the given
// experience level. It grows with the total experience required for the level
// and stops growing at level 40.
func AttackDamage(level int) float64 {
	perExp := (maxAttackDamage - minAttackDamage) / totalExperience(maxAttackDamageLevel)
	return minAttackDamage + perExp*totalExperience(min(maxAttackDamageLevel, max(0, level)))
}

// totalExperience is the experience needed to reach a level from zero.
func totalExperience(level int) float64 {
	l := float64(level)
	switch {
	case level <= 16:
		return l*l + 6*l
	case level <= 32:
		return 2.5*l*l - 40.5*l + 360
	}
	return 4.5*l*l - 162.5*l + 2220
}
