package psychics

import (
	"context"
	"time"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/dragonfly/server/player"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/go-gl/mathgl/mgl64"
)

// Handler turns player input into psychic actions: clicks with a wand cast the
// bound ability, damage interrupts an interruptible channel and quitting saves
// the esper. Every other event is passed to the handler it wraps.
//
// Concurrency:
// Handlers are executed synchronously by Dragonfly within the player's world
// transaction, so they are serialized with the manager's ticks, which run in
// the same world through Host.
type Handler struct {
	player.Handler

	host  *Host
	esper *Esper
}

// NewHandler creates a handler for e wrapping the player's current handler.
// Host.Accept installs it; call it directly only to layer it differently.
func NewHandler(h *Host, e *Esper, next player.Handler) *Handler {
	if next == nil {
		next = player.NopHandler{}
	}
	return &Handler{Handler: next, host: h, esper: e}
}

// Esper returns the esper the handler drives.
func (h *Handler) Esper() *Esper { return h.esper }

// Compile-time check that Handler implements player.Handler.
var _ player.Handler = (*Handler)(nil)

// cast casts with the held wand. It reports whether the held item is a wand
// bound to an ability, in which case the regular item use is cancelled.
func (h *Handler) cast(ctx *player.Context, action WandAction) bool {
	p := ctx.Val()
	held, _ := p.HeldItems()
	wand, ok := WandOf(held)
	if !ok {
		return false
	}
	ps := h.esper.Psychic()
	if ps == nil {
		return false
	}
	if a, ok := ps.AbilityByWand(wand); !ok || !a.Active() {
		return false
	}
	h.host.within(p.Tx(), func() {
		_ = h.esper.CastByWand(action, wand)
	})
	return true
}

// HandleItemUse casts with a right click.
func (h *Handler) HandleItemUse(ctx *player.Context) {
	if h.cast(ctx, RightClick) {
		ctx.Cancel()
		return
	}
	h.Handler.HandleItemUse(ctx)
}

// HandleItemUseOnBlock casts with a right click on a block.
func (h *Handler) HandleItemUseOnBlock(ctx *player.Context, pos cube.Pos, face cube.Face, clickPos mgl64.Vec3) {
	if h.cast(ctx, RightClick) {
		ctx.Cancel()
		return
	}
	h.Handler.HandleItemUseOnBlock(ctx, pos, face, clickPos)
}

// HandleItemUseOnEntity casts with a right click on an entity.
func (h *Handler) HandleItemUseOnEntity(ctx *player.Context, e world.Entity) {
	if h.cast(ctx, RightClick) {
		ctx.Cancel()
		return
	}
	h.Handler.HandleItemUseOnEntity(ctx, e)
}

// HandlePunchAir casts with a left click.
func (h *Handler) HandlePunchAir(ctx *player.Context) {
	if h.cast(ctx, LeftClick) {
		ctx.Cancel()
		return
	}
	h.Handler.HandlePunchAir(ctx)
}

// HandleAttackEntity casts with a left click on an entity. The attack itself
// is cancelled when a wand is held.
func (h *Handler) HandleAttackEntity(ctx *player.Context, e world.Entity, force, height *float64, critical *bool) {
	if h.cast(ctx, LeftClick) {
		ctx.Cancel()
		return
	}
	h.Handler.HandleAttackEntity(ctx, e, force, height, critical)
}

// HandleHurt interrupts an interruptible channel when the player takes damage.
func (h *Handler) HandleHurt(ctx *player.Context, damage *float64, immune bool, attackImmunity *time.Duration, src world.DamageSource) {
	h.Handler.HandleHurt(ctx, damage, immune, attackImmunity, src)
	if ctx.Cancelled() || immune || *damage <= 0 {
		return
	}
	ps := h.esper.Psychic()
	if ps == nil || !ps.Enabled() {
		return
	}
	if ch := ps.Channel(); ch != nil && ch.Interruptible() {
		h.host.within(ctx.Val().Tx(), ps.InterruptChannel)
	}
}

// HandleQuit saves and releases the esper.
func (h *Handler) HandleQuit(p *player.Player) {
	h.Handler.HandleQuit(p)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	h.host.within(p.Tx(), func() {
		if err := h.host.manager.RemovePlayer(ctx, h.esper.ID()); err != nil {
			h.host.manager.log.Error("psychics: failed to save esper", "player", h.esper.Name(), "error", err)
		}
	})
}
