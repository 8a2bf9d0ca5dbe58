package store

import (
	"errors"
	"sync"

	"github.com/agebe/pingalert/internal/model"
)

const (
	historyLimit = 100
	eventLimit   = 200
)

// ErrNotFound se retorna cuando se consulta un target desconocido.
var ErrNotFound = errors.New("target no encontrado")

type healthState struct {
	phase     model.Phase
	failCount int
}

// Store mantiene en memoria los resultados de los chequeos para consulta.
// Solo refleja el estado del monitor; no participa en las decisiones de alerta.
type Store struct {
	mu      sync.RWMutex
	order   []string
	targets map[string]model.Target
	last    map[string]model.CheckResult
	history map[string][]model.CheckResult
	health  map[string]healthState
	events  []model.Event
}

// New crea un store pre-cargado con los targets configurados, en orden.
func New(targets []model.Target) *Store {
	s := &Store{
		order:   make([]string, 0, len(targets)),
		targets: make(map[string]model.Target, len(targets)),
		last:    make(map[string]model.CheckResult),
		history: make(map[string][]model.CheckResult),
		health:  make(map[string]healthState),
	}
	for _, t := range targets {
		if _, ok := s.targets[t.ID]; ok {
			continue
		}
		s.order = append(s.order, t.ID)
		s.targets[t.ID] = t
		s.health[t.ID] = healthState{phase: model.PhaseUnknown}
	}
	return s
}

// Targets devuelve la lista de servicios registrados en orden de configuracion.
func (s *Store) Targets() []model.Target {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Target, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.targets[id])
	}
	return out
}

// Update almacena un nuevo resultado junto con el estado de la maquina.
func (s *Store) Update(result model.CheckResult, phase model.Phase, failCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.targets[result.TargetID]; !ok {
		return
	}
	s.last[result.TargetID] = result
	h := append([]model.CheckResult{result}, s.history[result.TargetID]...)
	if len(h) > historyLimit {
		h = h[:historyLimit]
	}
	s.history[result.TargetID] = h
	s.health[result.TargetID] = healthState{phase: phase, failCount: failCount}
}

// RecordEvent guarda un evento al principio de la lista de recientes.
func (s *Store) RecordEvent(ev model.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append([]model.Event{ev}, s.events...)
	if len(s.events) > eventLimit {
		s.events = s.events[:eventLimit]
	}
}

// Events devuelve los eventos mas recientes primero.
func (s *Store) Events(limit int) []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev := s.events
	if limit > 0 && limit < len(ev) {
		ev = ev[:limit]
	}
	out := make([]model.Event, len(ev))
	copy(out, ev)
	return out
}

// Status devuelve el estado actual de todos los targets.
func (s *Store) Status() []model.TargetStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]model.TargetStatus, 0, len(s.order))
	for _, id := range s.order {
		results = append(results, s.statusLocked(id))
	}
	return results
}

// StatusOf devuelve el estado de un target.
func (s *Store) StatusOf(id string) (model.TargetStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.targets[id]; !ok {
		return model.TargetStatus{}, ErrNotFound
	}
	return s.statusLocked(id), nil
}

// History entrega los ultimos chequeos del target.
func (s *Store) History(targetID string, limit int) ([]model.CheckResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.targets[targetID]; !ok {
		return nil, ErrNotFound
	}

	h := s.history[targetID]
	if limit > 0 && limit < len(h) {
		h = h[:limit]
	}

	out := make([]model.CheckResult, len(h))
	copy(out, h)
	return out, nil
}

func (s *Store) statusLocked(id string) model.TargetStatus {
	hs := s.health[id]
	status := model.TargetStatus{
		Target:     s.targets[id],
		UptimePerc: calculateUptime(s.history[id]),
		Phase:      hs.phase,
		FailCount:  hs.failCount,
	}
	if last, ok := s.last[id]; ok {
		// copia para evitar data races
		c := last
		status.LastCheck = &c
	}
	return status
}

func calculateUptime(history []model.CheckResult) float64 {
	if len(history) == 0 {
		return 0
	}
	successes := 0
	for _, res := range history {
		if res.Success {
			successes++
		}
	}
	return float64(successes) / float64(len(history)) * 100
}
