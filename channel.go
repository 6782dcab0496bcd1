package psychics

// ChannelState is the state of a cast in progress.
type ChannelState uint8

const (
	ChannelChanneling ChannelState = iota
	ChannelCast
	ChannelInterrupted
)

func (s ChannelState) String() string {
	switch s {
	case ChannelChanneling:
		return "channeling"
	case ChannelCast:
		return "cast"
	case ChannelInterrupted:
		return "interrupted"
	}
	return "unknown"
}

// Channel is a cast that completes after a number of ticks. A psychic has at
// most one channel; it is cleared when it casts or is interrupted and never
// resumes after that.
type Channel struct {
	ability *Ability
	action  WandAction
	target  any

	startedAt  int64
	completeAt int64

	interruptible bool
	state         ChannelState
}

// Ability returns the ability being cast.
func (c *Channel) Ability() *Ability { return c.ability }

// Action returns the click that started the cast.
func (c *Channel) Action() WandAction { return c.action }

// Target returns the target resolved when the cast started.
func (c *Channel) Target() any { return c.target }

// Interruptible reports whether outside events, such as taking damage, may
// interrupt the channel.
func (c *Channel) Interruptible() bool { return c.interruptible }

// State returns the channel's state.
func (c *Channel) State() ChannelState { return c.state }

// CompleteAt returns the tick the cast completes at.
func (c *Channel) CompleteAt() int64 { return c.completeAt }

// RemainingTicks returns the ticks left before the cast completes.
func (c *Channel) RemainingTicks() int64 {
	return max(0, c.completeAt-c.ability.psychic.clock.Now())
}

// Progress returns how far the channel is, from 0 to 1.
func (c *Channel) Progress() float64 {
	total := c.completeAt - c.startedAt
	if total <= 0 {
		return 1
	}
	return 1 - float64(c.RemainingTicks())/float64(total)
}
