package psychics

import (
	"github.com/df-mc/dragonfly/server/entity"
	"github.com/df-mc/dragonfly/server/player"
	"github.com/df-mc/dragonfly/server/world"
)

// HostileFilter returns a ray trace filter accepting the entities an ability
// cast by self may hit: living entities other than self, leaving out players
// whose game mode does not take damage.
//
// Usage:
//
//	proj.RayTrace = func(from, dir mgl64.Vec3, dist float64) (psychics.RayTraceHit, bool) {
//	    return tracer.RayTrace(from, dir, dist, 0.5, psychics.HostileFilter(p.H()))
//	}
func HostileFilter(self *world.EntityHandle) func(world.Entity) bool {
	return func(e world.Entity) bool {
		if e == nil || e.H() == self {
			return false
		}
		if _, ok := e.(entity.Living); !ok {
			return false
		}
		if p, ok := e.(*player.Player); ok {
			return p.GameMode().AllowsTakingDamage()
		}
		return true
	}
}
