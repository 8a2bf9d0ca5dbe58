package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/agebe/pingalert/internal/health"
	"github.com/agebe/pingalert/internal/logging"
	"github.com/agebe/pingalert/internal/model"
)

// Prober ejecuta el chequeo de un target.
type Prober interface {
	Check(ctx context.Context, target model.Target) (bool, error)
}

// Dispatcher recibe los eventos producidos en cada chequeo.
type Dispatcher interface {
	Dispatch(ctx context.Context, events []model.Event) error
}

// StatusWriter recibe el resultado de cada chequeo para consulta externa.
type StatusWriter interface {
	Update(result model.CheckResult, phase model.Phase, failCount int)
}

// Options agrupa las dependencias del scheduler.
type Options struct {
	Targets    []model.Target
	Interval   time.Duration
	Prober     Prober
	Machine    *health.Machine
	Dispatcher Dispatcher
	Status     StatusWriter
	Logger     logging.Logger
}

// Scheduler recorre los targets en orden fijo, uno a la vez.
type Scheduler struct {
	targets    []model.Target
	states     []health.State
	interval   time.Duration
	prober     Prober
	machine    *health.Machine
	dispatcher Dispatcher
	status     StatusWriter
	logger     logging.Logger
}

// New crea un scheduler listo para iniciar.
func New(opts Options) *Scheduler {
	targets := make([]model.Target, len(opts.Targets))
	copy(targets, opts.Targets)
	interval := opts.Interval
	if interval <= 0 {
		interval = time.Second
	}
	return &Scheduler{
		targets:    targets,
		states:     make([]health.State, len(targets)),
		interval:   interval,
		prober:     opts.Prober,
		machine:    opts.Machine,
		dispatcher: opts.Dispatcher,
		status:     opts.Status,
		logger:     logging.OrNop(opts.Logger),
	}
}

// Run ejecuta la pasada inicial y luego un ciclo cada intervalo hasta que ctx
// se cancele. Un ciclo en curso siempre termina antes de salir.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Seed(ctx); err != nil {
		return err
	}

	timer := time.NewTimer(s.interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}
		if err := s.Cycle(ctx); err != nil {
			return err
		}
		timer.Reset(s.interval)
	}
}

// Seed chequea cada target una vez para fijar su contador sin alertar.
func (s *Scheduler) Seed(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	for i, target := range s.targets {
		result, err := s.probe(ctx, target)
		if err != nil {
			return err
		}
		s.machine.ObserveInitial(&s.states[i], result.Success)
		s.logger.Infof("target '%s' is %s", target.DisplayURL, upDown(result.Success))
		s.publish(result, &s.states[i])
	}
	return nil
}

// Cycle chequea todos los targets y despacha los eventos resultantes.
func (s *Scheduler) Cycle(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	for i, target := range s.targets {
		s.logger.Debugf("chequeando target '%s'", target.DisplayURL)
		result, err := s.probe(ctx, target)
		if err != nil {
			return err
		}
		events := s.machine.Observe(target, &s.states[i], result.Success)
		if s.dispatcher != nil && len(events) > 0 {
			if err := s.dispatcher.Dispatch(ctx, events); err != nil {
				return fmt.Errorf("notificacion de '%s': %w", target.DisplayURL, err)
			}
		}
		s.publish(result, &s.states[i])
		s.logger.Debugf("target '%s' is %s", target.DisplayURL, upDown(result.Success))
	}
	return nil
}

// FailCount devuelve el contador actual del target en la posicion i.
func (s *Scheduler) FailCount(i int) int {
	return s.states[i].FailCount
}

func (s *Scheduler) probe(ctx context.Context, target model.Target) (model.CheckResult, error) {
	start := time.Now()
	up, err := s.prober.Check(ctx, target)
	if err != nil {
		return model.CheckResult{}, fmt.Errorf("chequeo de '%s': %w", target.DisplayURL, err)
	}
	return model.CheckResult{
		TargetID:  target.ID,
		CheckedAt: time.Now(),
		Duration:  time.Since(start),
		Success:   up,
	}, nil
}

func (s *Scheduler) publish(result model.CheckResult, st *health.State) {
	if s.status == nil {
		return
	}
	s.status.Update(result, s.machine.Phase(st), st.FailCount)
}

func upDown(up bool) string {
	if up {
		return "up"
	}
	return "down"
}
