package psychics

import (
	"errors"
	"fmt"
)

// Reasons a cast attempt fails, in the order they are checked.
var (
	ErrDisabled   = errors.New("abilities are disabled")
	ErrLevel      = errors.New("level too low")
	ErrCooldown   = errors.New("not ready yet")
	ErrChanneling = errors.New("already channeling")
	ErrNoTarget   = errors.New("no target")
	ErrMana       = errors.New("not enough mana")
)

var (
	// ErrUnknownAbility is returned when no factory is registered under a name.
	ErrUnknownAbility = errors.New("unknown ability")
	// ErrAmbiguousAbility is returned when a suffix lookup matches several factories.
	ErrAmbiguousAbility = errors.New("ambiguous ability")
)

// CastError is returned by a failed cast attempt. Its message is short enough
// to show to the player as-is.
type CastError struct {
	// Reason is one of the Err* cast reasons.
	Reason error
	// Ability is the name of the ability that failed.
	Ability string
	// Level is the required level.
	Level int
	// Cooldown is the remaining cooldown in ticks.
	Cooldown int64
	// Cost is the mana cost of the attempt.
	Cost float64
}

func (e *CastError) Error() string {
	switch e.Reason {
	case ErrLevel:
		return fmt.Sprintf("%s (requires level %d)", e.Reason, e.Level)
	case ErrCooldown:
		return fmt.Sprintf("%s (%ds)", e.Reason, (e.Cooldown+TicksPerSecond-1)/TicksPerSecond)
	case ErrMana:
		return fmt.Sprintf("%s (%d)", e.Reason, int(e.Cost))
	}
	return e.Reason.Error()
}

func (e *CastError) Unwrap() error {
	return e.Reason
}
