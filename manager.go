package psychics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Manager is the central psychics coordinator.
// It owns the espers, the psychic definitions and the tick clock, and drives
// the per-tick update of every enabled psychic.
// Multiple Manager instances can coexist in the same process for running
// multiple isolated servers.
type Manager struct {
	// clock is advanced once per Tick
	clock *Clock

	// log is the root logger; psychics log through children of it
	log *slog.Logger

	// store persists esper documents
	store Store

	// registry resolves ability keys used by definitions
	registry *AbilityRegistry

	// tracer casts rays for abilities, may be nil
	tracer RayTracer

	// source reloads psychic definitions
	source func() (map[string]*PsychicConcept, error)

	// concepts holds psychic definitions keyed by lower-cased name
	concepts   map[string]*PsychicConcept
	conceptsMu sync.RWMutex

	// espers holds every registered esper
	espers   map[uuid.UUID]*Esper
	espersMu sync.RWMutex

	// espersByName provides name-based esper lookup
	espersByName   map[string]*Esper
	espersByNameMu sync.RWMutex

	// order keeps espers in join order, for a stable update pass
	order []*Esper

	// exec runs a tick on the goroutine owning the game state
	exec func(tick func())

	// Execution state
	running atomic.Bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// newManager creates a new manager.
func newManager(log *slog.Logger, store Store, registry *AbilityRegistry) *Manager {
	return &Manager{
		clock:        NewClock(),
		log:          log,
		store:        store,
		registry:     registry,
		concepts:     make(map[string]*PsychicConcept),
		espers:       make(map[uuid.UUID]*Esper),
		espersByName: make(map[string]*Esper),
		exec:         func(tick func()) { tick() },
	}
}

// Clock returns the manager's tick clock.
func (m *Manager) Clock() *Clock { return m.clock }

// Logger returns the manager's logger.
func (m *Manager) Logger() *slog.Logger { return m.log }

// Registry returns the ability registry.
func (m *Manager) Registry() *AbilityRegistry { return m.registry }

// RayTracer returns the ray tracer abilities use, or nil if none is configured.
func (m *Manager) RayTracer() RayTracer { return m.tracer }

// PsychicConcept returns the definition with the given name (case-insensitive).
func (m *Manager) PsychicConcept(name string) (*PsychicConcept, bool) {
	m.conceptsMu.RLock()
	defer m.conceptsMu.RUnlock()
	c, ok := m.concepts[strings.ToLower(name)]
	return c, ok
}

// PsychicConcepts returns every definition, sorted by name.
func (m *Manager) PsychicConcepts() []*PsychicConcept {
	m.conceptsMu.RLock()
	concepts := make([]*PsychicConcept, 0, len(m.concepts))
	for _, c := range m.concepts {
		concepts = append(concepts, c)
	}
	m.conceptsMu.RUnlock()

	slices.SortFunc(concepts, func(a, b *PsychicConcept) int {
		return strings.Compare(a.name, b.name)
	})
	return concepts
}

// AddConcept registers a definition, replacing one with the same name.
func (m *Manager) AddConcept(c *PsychicConcept) {
	m.conceptsMu.Lock()
	m.concepts[strings.ToLower(c.name)] = c
	m.conceptsMu.Unlock()
}

// loadConcepts replaces every definition with the ones from the source.
// Definitions that failed to load are logged and skipped.
func (m *Manager) loadConcepts() {
	if m.source == nil {
		return
	}
	concepts, err := m.source()
	if err != nil {
		m.log.Warn("psychics: failed to load some psychics", "error", err)
	}

	m.conceptsMu.Lock()
	m.concepts = make(map[string]*PsychicConcept, len(concepts))
	for key, c := range concepts {
		m.concepts[key] = c
	}
	m.conceptsMu.Unlock()
	m.log.Info("psychics: loaded psychics", "count", len(concepts))
}

// AddPlayer creates the esper for a joining player and restores its saved
// psychic. Adding a player twice returns the existing esper.
//
// Usage:
//
//	for p := range srv.Accept() {
//	    if _, err := host.Accept(p); err != nil {
//	        p.Disconnect("failed to load psychics")
//	    }
//	}
func (m *Manager) AddPlayer(ctx context.Context, p Player) (*Esper, error) {
	if e := m.Esper(p.UUID()); e != nil {
		return e, nil
	}

	e := newEsper(m, p)
	m.addEsper(e)
	if err := e.Load(ctx); err != nil {
		if errors.Is(err, errUnknownPsychic) {
			m.log.Warn("psychics: dropped saved psychic", "player", e.name, "error", err)
			return e, nil
		}
		m.removeEsper(e)
		e.clear()
		return nil, err
	}
	return e, nil
}

// RemovePlayer saves and releases the esper of a leaving player.
func (m *Manager) RemovePlayer(ctx context.Context, id uuid.UUID) error {
	e := m.Esper(id)
	if e == nil {
		return nil
	}
	m.removeEsper(e)

	err := e.Save(ctx)
	e.clear()
	return err
}

func (m *Manager) addEsper(e *Esper) {
	m.espersMu.Lock()
	m.espers[e.id] = e
	m.order = append(m.order, e)
	m.espersMu.Unlock()

	m.espersByNameMu.Lock()
	m.espersByName[strings.ToLower(e.name)] = e
	m.espersByNameMu.Unlock()
}

func (m *Manager) removeEsper(e *Esper) {
	m.espersMu.Lock()
	delete(m.espers, e.id)
	if i := slices.Index(m.order, e); i >= 0 {
		m.order = slices.Delete(m.order, i, i+1)
	}
	m.espersMu.Unlock()

	m.espersByNameMu.Lock()
	delete(m.espersByName, strings.ToLower(e.name))
	m.espersByNameMu.Unlock()
}

// Esper retrieves an esper by player UUID.
func (m *Manager) Esper(id uuid.UUID) *Esper {
	m.espersMu.RLock()
	defer m.espersMu.RUnlock()
	return m.espers[id]
}

// EsperByName retrieves an esper by player name (case-insensitive).
func (m *Manager) EsperByName(name string) *Esper {
	m.espersByNameMu.RLock()
	defer m.espersByNameMu.RUnlock()
	return m.espersByName[strings.ToLower(name)]
}

// Espers returns a snapshot of every esper in join order.
func (m *Manager) Espers() []*Esper {
	m.espersMu.RLock()
	defer m.espersMu.RUnlock()
	return slices.Clone(m.order)
}

// Tick advances the clock and updates every enabled psychic, in join order.
// For each psychic the order is: regeneration, scheduled tasks, projectiles,
// channel.
func (m *Manager) Tick() {
	m.clock.Advance()
	for _, e := range m.Espers() {
		if p := e.psychic; p != nil && p.valid && p.enabled {
			p.update()
		}
	}
}

// Start begins ticking at TicksPerSecond. Each tick runs through the
// manager's executor, which Host points at the world goroutine.
func (m *Manager) Start() {
	if m.running.Swap(true) {
		return // Already running
	}
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	go m.tickLoop()
}

// Stop halts ticking and waits for the tick loop to exit.
func (m *Manager) Stop() {
	if !m.running.Swap(false) {
		return // Not running
	}
	close(m.stopCh)
	<-m.doneCh
}

// tickLoop is the main driver loop.
func (m *Manager) tickLoop() {
	defer close(m.doneCh)

	ticker := time.NewTicker(TickDuration)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.exec(m.Tick)
		}
	}
}

// Reload saves every esper, destroys every psychic, reloads the definitions
// and restores every esper from its saved state.
func (m *Manager) Reload(ctx context.Context) error {
	espers := m.Espers()

	var errs []error
	for _, e := range espers {
		if err := e.Save(ctx); err != nil {
			errs = append(errs, err)
		}
		e.DetachPsychic()
	}

	m.loadConcepts()

	for _, e := range espers {
		if err := e.Load(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Shutdown stops ticking, saves every esper and releases them.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.Stop()

	var errs []error
	for _, e := range m.Espers() {
		m.removeEsper(e)
		if err := e.Save(ctx); err != nil {
			errs = append(errs, err)
		}
		e.clear()
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("psychics: shutdown: %w", err)
	}
	return nil
}
