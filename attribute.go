package psychics

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Attribute is a measurable property of an esper that abilities scale with.
type Attribute uint8

const (
	AttributeAttackDamage Attribute = iota
	AttributeLevel
	AttributeDefense
	AttributeHealth
	AttributeMana
	attributeCount
)

var attributeAbbr = [attributeCount]string{"ATK", "LVL", "DEF", "HP", "MP"}

// String returns the attribute's abbreviation, as used in definitions.
func (a Attribute) String() string {
	if a >= attributeCount {
		return "Attribute(" + strconv.Itoa(int(a)) + ")"
	}
	return attributeAbbr[a]
}

// ParseAttribute resolves an abbreviation such as "ATK" (case-insensitive).
func ParseAttribute(s string) (Attribute, bool) {
	for i, abbr := range attributeAbbr {
		if strings.EqualFold(abbr, s) {
			return Attribute(i), true
		}
	}
	return 0, false
}

// Statistic is a weighted sum of esper attributes, e.g. 0.5 ATK + 2 LVL.
type Statistic map[Attribute]float64

// String renders the statistic in attribute order, e.g. "(0.5 ATK)(2 LVL)".
func (s Statistic) String() string {
	var b strings.Builder
	for _, attr := range s.attributes() {
		b.WriteByte('(')
		b.WriteString(strconv.FormatFloat(s[attr], 'f', -1, 64))
		b.WriteByte(' ')
		b.WriteString(attr.String())
		b.WriteByte(')')
	}
	return b.String()
}

func (s Statistic) attributes() []Attribute {
	attrs := make([]Attribute, 0, len(s))
	for attr := range s {
		attrs = append(attrs, attr)
	}
	slices.Sort(attrs)
	return attrs
}

// UnmarshalYAML decodes a mapping of abbreviations to ratios.
func (s *Statistic) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]float64
	if err := node.Decode(&raw); err != nil {
		return err
	}
	stat := make(Statistic, len(raw))
	for abbr, ratio := range raw {
		attr, ok := ParseAttribute(abbr)
		if !ok {
			return fmt.Errorf("unknown attribute %q", abbr)
		}
		stat[attr] = ratio
	}
	*s = stat
	return nil
}

// MarshalYAML encodes the statistic as a mapping of abbreviations to ratios.
func (s Statistic) MarshalYAML() (any, error) {
	raw := make(map[string]float64, len(s))
	for attr, ratio := range s {
		raw[attr.String()] = ratio
	}
	return raw, nil
}
