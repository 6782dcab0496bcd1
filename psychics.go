// Package psychics provides a runtime for player abilities on Dragonfly servers.
//
// A psychic is a set of abilities a player (an esper) can hold. The runtime
// provides:
//   - A per-psychic tick clock, task scheduler and projectile engine
//   - Mana and health regeneration
//   - Cast gating by level, cooldown, channeling and mana
//   - YAML psychic definitions with hot reload
//   - Persistence of per-player state through a Store
//   - Wand items, a player handler and a /psychic command for Dragonfly
//
// # Quick Start
//
// Register ability factories, build the manager and bind it to a world:
//
//	mngr := psychics.NewBuilder().
//	    Store(store).
//	    Definitions(os.DirFS("psychics")).
//	    Ability("psychics.fireball", func() psychics.AbilityHandler {
//	        return &Fireball{}
//	    }).
//	    Init()
//
//	host := psychics.NewHost(mngr, srv.World())
//	psychics.RegisterCommands(host)
//	mngr.Start()
//
//	for p := range srv.Accept() {
//	    if _, err := host.Accept(p); err != nil {
//	        p.Disconnect("failed to load psychics")
//	    }
//	}
//
// # Abilities
//
// Abilities are plain Go types implementing AbilityHandler. Abilities cast
// with a wand implement ActiveHandler:
//
//	type Fireball struct {
//	    psychics.NopActiveHandler
//	}
//
//	func (f *Fireball) HandleCast(a *psychics.Ability, action psychics.WandAction, target any) {
//	    proj := psychics.NewProjectile(100, a.Concept().Range())
//	    proj.SetVelocity(direction.Mul(2))
//	    a.Psychic().LaunchProjectile(eye, proj)
//	}
//
// # Definitions
//
// Each psychic is a YAML file named after it:
//
//	display-name: Pyrokinesis
//	mana: 100
//	mana-regen: 0.25
//	abilities:
//	  fireball:
//	    ability: .fireball
//	    cost: 20
//	    cooldown-ticks: 40
//	    wand: blaze_rod
//
// # Update Order
//
// Every tick the manager advances its clock and updates each enabled psychic
// in join order: regeneration, scheduled tasks, projectiles, then the channel.
package psychics

// Version is the psychics version.
const Version = "1.0.0"
