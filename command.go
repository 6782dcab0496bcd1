package psychics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/player"
	"github.com/df-mc/dragonfly/server/world"
)

// RegisterCommands registers the /psychic command for the host's manager:
//
//	/psychic attach <name>
//	/psychic detach
//	/psychic info
//	/psychic reload
func RegisterCommands(h *Host) {
	cmd.Register(cmd.New("psychic", "Manages your psychic.", []string{"psy"},
		attachCommand{host: h},
		detachCommand{host: h},
		infoCommand{host: h},
		reloadCommand{host: h},
	))
}

type attachCommand struct {
	host *Host
	Sub  cmd.SubCommand `cmd:"attach"`
	Name string         `cmd:"name"`
}

func (c attachCommand) Run(src cmd.Source, o *cmd.Output, tx *world.Tx) {
	_, e := Command(src)
	if e == nil {
		o.Error("Player-only command")
		return
	}
	concept, ok := c.host.manager.PsychicConcept(c.Name)
	if !ok {
		o.Errorf("Unknown psychic %q. Available: %s", c.Name, strings.Join(conceptNames(c.host.manager), ", "))
		return
	}
	c.host.within(tx, func() {
		e.AttachPsychic(concept).SetEnabled(true)
	})
	o.Printf("Attached psychic %s.", concept.DisplayName())
}

type detachCommand struct {
	host *Host
	Sub  cmd.SubCommand `cmd:"detach"`
}

func (c detachCommand) Run(src cmd.Source, o *cmd.Output, tx *world.Tx) {
	_, e := Command(src)
	if e == nil {
		o.Error("Player-only command")
		return
	}
	if e.Psychic() == nil {
		o.Error("You have no psychic attached.")
		return
	}
	c.host.within(tx, e.DetachPsychic)
	o.Print("Detached your psychic.")
}

type infoCommand struct {
	host *Host
	Sub  cmd.SubCommand `cmd:"info"`
}

func (c infoCommand) Run(src cmd.Source, o *cmd.Output, tx *world.Tx) {
	_, e := Command(src)
	if e == nil {
		o.Error("Player-only command")
		return
	}
	c.host.within(tx, func() {
		p := e.Psychic()
		if p == nil {
			o.Print("You have no psychic attached.")
			return
		}
		o.Printf("%s (mana %.0f/%.0f, enabled: %t)", p.Concept().DisplayName(), p.Mana(), p.MaxMana(), p.Enabled())
		for _, a := range p.Abilities() {
			o.Print(abilityLine(a))
		}
	})
}

func abilityLine(a *Ability) string {
	c := a.Concept()
	line := fmt.Sprintf(" - %s [%s]", c.DisplayName(), c.Type())
	if c.Wand() != "" {
		line += " wand: " + c.Wand()
	}
	if a.Active() {
		if err := a.Test(); err != nil {
			line += " (" + err.Error() + ")"
		} else {
			line += " (ready)"
		}
	}
	return line
}

type reloadCommand struct {
	host *Host
	Sub  cmd.SubCommand `cmd:"reload"`
}

// Allow limits reloading to non-player sources such as the console.
func (reloadCommand) Allow(src cmd.Source) bool {
	_, ok := src.(*player.Player)
	return !ok
}

func (c reloadCommand) Run(_ cmd.Source, o *cmd.Output, tx *world.Tx) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	c.host.within(tx, func() {
		err = c.host.manager.Reload(ctx)
	})
	if err != nil {
		o.Errorf("Reload finished with errors: %v", err)
		return
	}
	o.Printf("Reloaded %d psychics.", len(c.host.manager.PsychicConcepts()))
}

func conceptNames(m *Manager) []string {
	concepts := m.PsychicConcepts()
	names := make([]string, len(concepts))
	for i, c := range concepts {
		names[i] = c.Name()
	}
	return names
}
