package service

import (
	"context"

	"github.com/agebe/pingalert/internal/db"
	"github.com/agebe/pingalert/internal/model"
	"github.com/agebe/pingalert/internal/store"
)

// EventJournal lista eventos persistidos.
type EventJournal interface {
	List(ctx context.Context, limit int) ([]model.Event, error)
	ListByTarget(ctx context.Context, targetID string, limit int) ([]model.Event, error)
	Get(ctx context.Context, id string) (model.Event, error)
}

// StatusService expone el estado del monitor a la API y la UI.
// Los targets vienen de la configuracion; aqui solo se consultan.
type StatusService struct {
	store   *store.Store
	journal EventJournal
}

// NewStatusService crea una nueva instancia. journal puede ser nil.
func NewStatusService(st *store.Store, journal EventJournal) *StatusService {
	return &StatusService{
		store:   st,
		journal: journal,
	}
}

// ListTargets retorna los targets configurados.
func (s *StatusService) ListTargets() []model.Target {
	return s.store.Targets()
}

// Status retorna el snapshot actual.
func (s *StatusService) Status() []model.TargetStatus {
	return s.store.Status()
}

// StatusOf retorna el estado de un target.
func (s *StatusService) StatusOf(id string) (model.TargetStatus, error) {
	return s.store.StatusOf(id)
}

// History obtiene el historial reciente desde memoria.
func (s *StatusService) History(id string, limit int) ([]model.CheckResult, error) {
	return s.store.History(id, limit)
}

// Events devuelve los eventos mas recientes, opcionalmente de un solo target.
// Con journal se consulta la base; si no, la lista en memoria.
func (s *StatusService) Events(ctx context.Context, targetID string, limit int) ([]model.Event, error) {
	if targetID != "" {
		if _, err := s.store.StatusOf(targetID); err != nil {
			return nil, err
		}
	}
	if s.journal != nil {
		if targetID != "" {
			return s.journal.ListByTarget(ctx, targetID, limit)
		}
		return s.journal.List(ctx, limit)
	}

	all := s.store.Events(0)
	out := make([]model.Event, 0, len(all))
	for _, ev := range all {
		if targetID != "" && ev.Target.ID != targetID {
			continue
		}
		out = append(out, ev)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Event busca un evento por id. Sin journal solo se encuentran los que siguen
// en la lista en memoria. Devuelve db.ErrNotFound si no existe.
func (s *StatusService) Event(ctx context.Context, id string) (model.Event, error) {
	if s.journal != nil {
		return s.journal.Get(ctx, id)
	}
	for _, ev := range s.store.Events(0) {
		if ev.ID == id {
			return ev, nil
		}
	}
	return model.Event{}, db.ErrNotFound
}

// Persistent indica si los eventos sobreviven un reinicio.
func (s *StatusService) Persistent() bool {
	return s.journal != nil
}
