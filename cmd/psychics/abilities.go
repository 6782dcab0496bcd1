package main

import (
	"github.com/df-mc/dragonfly/server/entity"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/df-mc/dragonfly/server/world/particle"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/oriumgames/psychics"
)

// Bolt launches a projectile along the caster's line of sight, hurting the
// first hostile entity it hits.
type Bolt struct {
	psychics.NopActiveHandler
	host *psychics.Host
}

func (b *Bolt) HandleCast(a *psychics.Ability, _ psychics.WandAction, _ any) {
	p, ok := b.host.Player(a.Esper())
	if !ok {
		return
	}
	c := a.Concept()
	speed := 2.0
	if v, ok := c.Extra("speed"); ok {
		if f, ok := v.(float64); ok && f > 0 {
			speed = f
		}
	}

	proj := psychics.NewProjectile(psychics.TicksPerSecond*5, c.Range())
	proj.SetVelocity(p.Rotation().Vec3().Mul(speed))

	tracer := a.Psychic().Manager().RayTracer()
	filter := psychics.HostileFilter(p.H())
	proj.RayTrace = func(from, dir mgl64.Vec3, dist float64) (psychics.RayTraceHit, bool) {
		return tracer.RayTrace(from, dir, dist, 0.3, filter)
	}
	proj.Handle(&boltHandler{host: b.host, ability: a})

	eye := p.Position().Add(mgl64.Vec3{0, p.EyeHeight()})
	a.Psychic().LaunchProjectile(eye, proj)
}

// HandleChannel shows the charge around the caster.
func (b *Bolt) HandleChannel(a *psychics.Ability, _ *psychics.Channel) {
	p, ok := b.host.Player(a.Esper())
	if !ok {
		return
	}
	p.Tx().AddParticle(p.Position().Add(mgl64.Vec3{0, 1}), particle.Flame{})
}

type boltHandler struct {
	psychics.NopProjectileHandler
	host    *psychics.Host
	ability *psychics.Ability
}

func (h *boltHandler) HandleMove(_ *psychics.Projectile, _, to, _ mgl64.Vec3) {
	if tx := h.host.Tx(); tx != nil {
		tx.AddParticle(to, particle.Flame{})
	}
}

func (h *boltHandler) HandleDestroy(proj *psychics.Projectile, cause psychics.RemovalCause) {
	if cause != psychics.RemovalHit {
		return
	}
	hit, _ := proj.Hit()
	living, ok := hit.Entity.(entity.Living)
	if !ok {
		return
	}
	dmg, ok := h.ability.Concept().Damage()
	if !ok {
		return
	}
	amount := h.ability.Esper().Statistic(dmg.Stats)

	var src world.DamageSource = entity.AttackDamageSource{}
	if p, ok := h.host.Player(h.ability.Esper()); ok {
		src = entity.AttackDamageSource{Attacker: p}
	}
	living.Hurt(amount, src)
}

// Meditation restores mana every DurationTicks while its psychic is enabled.
// The amount is the Healing statistic of the ability.
type Meditation struct {
	psychics.NopAbilityHandler
}

func (*Meditation) HandleEnable(a *psychics.Ability) {
	period := max(1, a.Concept().DurationTicks())
	heal := a.Concept().Healing()
	ps := a.Psychic()
	ps.RunTaskTimer(func() {
		ps.SetMana(ps.Mana() + a.Esper().Statistic(heal))
	}, period, period)
}
