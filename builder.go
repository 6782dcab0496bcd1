package psychics

import (
	"io/fs"
	"log/slog"
	"maps"
	"strings"
)

// Builder configures psychics before initialization.
// Use NewBuilder() to create a builder and chain configuration methods.
type Builder struct {
	log         *slog.Logger
	store       Store
	tracer      RayTracer
	abilities   []abilityRegistration
	concepts    []*PsychicConcept
	definitions fs.FS
}

type abilityRegistration struct {
	key     string
	factory AbilityFactory
}

// NewBuilder creates a new psychics builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Logger sets the logger. Defaults to slog.Default().
func (b *Builder) Logger(log *slog.Logger) *Builder {
	b.log = log
	return b
}

// Store sets where esper state is persisted. Defaults to a MemoryStore.
func (b *Builder) Store(s Store) *Builder {
	b.store = s
	return b
}

// RayTracer sets the ray tracer abilities use. NewHost sets one for Dragonfly
// worlds if none was configured.
func (b *Builder) RayTracer(t RayTracer) *Builder {
	b.tracer = t
	return b
}

// Ability registers an ability factory under a stable key.
//
// Example:
//
//	builder.Ability("psychics.fireball", func() psychics.AbilityHandler {
//	    return &Fireball{}
//	})
func (b *Builder) Ability(key string, f AbilityFactory) *Builder {
	b.abilities = append(b.abilities, abilityRegistration{key, f})
	return b
}

// Concept adds a psychic definition built in code.
func (b *Builder) Concept(c *PsychicConcept) *Builder {
	b.concepts = append(b.concepts, c)
	return b
}

// Definitions sets the file system psychic definitions (*.yml) are loaded
// from, at Init and on every Manager.Reload.
func (b *Builder) Definitions(fsys fs.FS) *Builder {
	b.definitions = fsys
	return b
}

// Init initializes psychics with the configured settings.
// Returns the Manager instance which should be stored and used to add players.
// Multiple Manager instances can coexist for running multiple isolated servers.
func (b *Builder) Init() *Manager {
	log := b.log
	if log == nil {
		log = slog.Default()
	}
	store := b.store
	if store == nil {
		store = NewMemoryStore()
	}

	registry := NewAbilityRegistry()
	for _, reg := range b.abilities {
		if err := registry.Register(reg.key, reg.factory); err != nil {
			panic("psychics: failed to register abilities: " + err.Error())
		}
	}

	m := newManager(log, store, registry)
	m.tracer = b.tracer

	definitions := b.definitions
	concepts := append([]*PsychicConcept(nil), b.concepts...)
	m.source = func() (map[string]*PsychicConcept, error) {
		out := make(map[string]*PsychicConcept)
		var err error
		if definitions != nil {
			var loaded map[string]*PsychicConcept
			loaded, err = LoadPsychicConcepts(definitions, registry)
			maps.Copy(out, loaded)
		}
		for _, c := range concepts {
			out[strings.ToLower(c.Name())] = c
		}
		return out, err
	}
	m.loadConcepts()
	return m
}
