// Package health implementa la maquina de estados por target: el contador de
// fallas con histeresis y las transiciones warn / alerta / recuperacion.
//
// El contador vive en State y solo Machine lo modifica. Un target pasa por
// Healthy (0), Degraded (1..MaxFail-1) y Escalated (MaxFail). Estando en
// Escalated, nuevas fallas no generan eventos hasta que el target vuelve.
package health

import (
	"time"

	"github.com/agebe/pingalert/internal/model"
)

// State es el estado mutable de un target.
type State struct {
	FailCount int
	seeded    bool
}

// Seeded indica si el estado ya paso por ObserveInitial.
func (s *State) Seeded() bool {
	return s.seeded
}

// Machine evalua resultados de chequeos contra el umbral MaxFail.
type Machine struct {
	MaxFail int
	now     func() time.Time
}

// NewMachine crea una maquina con el umbral dado (minimo 1).
func NewMachine(maxFail int) *Machine {
	if maxFail < 1 {
		maxFail = 1
	}
	return &Machine{MaxFail: maxFail, now: time.Now}
}

// ObserveInitial siembra el contador en el primer chequeo sin emitir eventos.
// Un target caido arranca en MaxFail para que su recuperacion se notifique.
func (m *Machine) ObserveInitial(s *State, up bool) {
	if up {
		s.FailCount = 0
	} else {
		s.FailCount = m.MaxFail
	}
	s.seeded = true
}

// Observe aplica un resultado del ciclo regular y devuelve los eventos producidos.
func (m *Machine) Observe(target model.Target, s *State, up bool) []model.Event {
	if up {
		return m.up(target, s)
	}
	return m.down(target, s)
}

func (m *Machine) up(target model.Target, s *State) []model.Event {
	var events []model.Event
	if s.FailCount > 0 {
		events = append(events, m.event(target, model.EventRecoveryInfo, s.FailCount))
	}
	if s.FailCount >= m.MaxFail {
		events = append(events, m.event(target, model.EventRecoveryAlert, s.FailCount))
	}
	s.FailCount = 0
	return events
}

func (m *Machine) down(target model.Target, s *State) []model.Event {
	if s.FailCount >= m.MaxFail {
		// ya escalado
		s.FailCount = m.MaxFail
		return nil
	}
	s.FailCount++
	if s.FailCount >= m.MaxFail {
		return []model.Event{m.event(target, model.EventEscalation, s.FailCount)}
	}
	return []model.Event{m.event(target, model.EventWarn, s.FailCount)}
}

// Phase clasifica el contador del estado.
func (m *Machine) Phase(s *State) model.Phase {
	switch {
	case !s.seeded:
		return model.PhaseUnknown
	case s.FailCount == 0:
		return model.PhaseHealthy
	case s.FailCount >= m.MaxFail:
		return model.PhaseEscalated
	default:
		return model.PhaseDegraded
	}
}

func (m *Machine) event(target model.Target, kind model.EventKind, count int) model.Event {
	now := time.Now
	if m.now != nil {
		now = m.now
	}
	return model.Event{
		Kind:       kind,
		FailCount:  count,
		Target:     target,
		OccurredAt: now(),
	}
}
