// Package notify reparte los eventos de la maquina de estados entre los
// canales de notificacion configurados (SMS, ejecutables, Redis, journal).
//
// Cada canal es independiente: si uno falla se registra el error y se sigue
// con los demas. Solo un error envuelto en ErrFatal corta el monitoreo.
package notify

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/agebe/pingalert/internal/logging"
	"github.com/agebe/pingalert/internal/model"
)

// ErrFatal marca fallas de un canal que deben terminar el proceso.
var ErrFatal = errors.New("falla fatal de notificacion")

// Sink es un canal de notificacion.
type Sink interface {
	Name() string
	Send(ctx context.Context, ev model.Event) error
}

// Dispatcher registra cada evento y lo envia a todos los canales.
type Dispatcher struct {
	sinks  []Sink
	logger logging.Logger
}

// NewDispatcher crea un Dispatcher con los canales dados, en ese orden.
func NewDispatcher(logger logging.Logger, sinks ...Sink) *Dispatcher {
	return &Dispatcher{
		sinks:  sinks,
		logger: logging.OrNop(logger),
	}
}

// Sinks devuelve los nombres de los canales activos.
func (d *Dispatcher) Sinks() []string {
	names := make([]string, 0, len(d.sinks))
	for _, s := range d.sinks {
		names = append(names, s.Name())
	}
	return names
}

// Dispatch procesa los eventos en orden. Devuelve el primer error fatal, si hubo.
func (d *Dispatcher) Dispatch(ctx context.Context, events []model.Event) error {
	var fatal error
	for _, ev := range events {
		if ev.ID == "" {
			ev.ID = uuid.NewString()
		}
		d.logEvent(ev)
		for _, s := range d.sinks {
			err := s.Send(ctx, ev)
			if err == nil {
				continue
			}
			if errors.Is(err, ErrFatal) {
				d.logger.Errorf("canal %s: %v", s.Name(), err)
				if fatal == nil {
					fatal = err
				}
				continue
			}
			d.logger.Warningf("canal %s fallo para '%s': %v", s.Name(), ev.Target.DisplayURL, err)
		}
	}
	return fatal
}

func (d *Dispatcher) logEvent(ev model.Event) {
	url := ev.Target.DisplayURL
	switch ev.Kind {
	case model.EventEscalation:
		d.logger.Errorf("ALERTA, servicio '%s' caido", url)
	case model.EventWarn:
		d.logger.Warningf("AVISO, servicio '%s' fallo, conteo '%d'", url, ev.FailCount)
	case model.EventRecoveryInfo:
		d.logger.Infof("servicio '%s' volvio a la normalidad", url)
	case model.EventRecoveryAlert:
		d.logger.Infof("alerta resuelta para servicio '%s'", url)
	}
}
