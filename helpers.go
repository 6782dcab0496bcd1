package psychics

import (
	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/item"
	"github.com/df-mc/dragonfly/server/player"
)

// wandKey is the item stack value holding a wand tag.
const wandKey = "psychics:wand"

// Wand tags a stack as the wand with the given tag. Abilities are bound to
// wands by the tag set in their definition.
//
// Usage:
//
//	rod := psychics.Wand(item.NewStack(item.BlazeRod{}, 1), "blaze_rod")
//	_, _ = p.Inventory().AddItem(rod)
func Wand(s item.Stack, tag string) item.Stack {
	return s.WithValue(wandKey, tag)
}

// WandOf returns the wand tag of a stack, if it is a wand.
func WandOf(s item.Stack) (string, bool) {
	if s.Empty() {
		return "", false
	}
	v, ok := s.Value(wandKey)
	if !ok {
		return "", false
	}
	tag, ok := v.(string)
	return tag, ok && tag != ""
}

// EsperOf extracts the esper from a player's handler.
// Returns nil if the player doesn't have a psychics Handler.
func EsperOf(p *player.Player) *Esper {
	h, ok := p.Handler().(*Handler)
	if !ok {
		return nil
	}
	return h.esper
}

// Command extracts the player and esper from a command source.
// Returns (nil, nil) if the source is not a player or has no esper.
//
// Usage:
//
//	func (c MyCommand) Run(src cmd.Source, out *cmd.Output, tx *world.Tx) {
//	    p, e := psychics.Command(src)
//	    if p == nil || e == nil {
//	        out.Error("Player-only command")
//	        return
//	    }
//	}
func Command(src cmd.Source) (*player.Player, *Esper) {
	p, ok := src.(*player.Player)
	if !ok {
		return nil, nil
	}
	return p, EsperOf(p)
}
