package notify

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/agebe/pingalert/internal/logging"
	"github.com/agebe/pingalert/internal/model"
)

// ExecMode selecciona a que eventos responde un ExecSink.
type ExecMode int

const (
	// ExecNotify recibe escaladas y recuperaciones: <up|down> ...
	ExecNotify ExecMode = iota
	// ExecWarn recibe los avisos previos a escalar: <failcount> ...
	ExecWarn
)

// ExecSink lanza un ejecutable externo sin esperar a que termine.
type ExecSink struct {
	Path         string
	Mode         ExecMode
	DefaultGroup string
	// FailFast convierte una falla al lanzar el proceso en ErrFatal.
	FailFast bool
	logger   logging.Logger
}

// NewExecSink crea un canal de ejecutable.
func NewExecSink(path string, mode ExecMode, defaultGroup string, failFast bool, logger logging.Logger) *ExecSink {
	return &ExecSink{
		Path:         path,
		Mode:         mode,
		DefaultGroup: defaultGroup,
		FailFast:     failFast,
		logger:       logging.OrNop(logger),
	}
}

// Name devuelve "notify-exec" o "warn-exec" segun el modo.
func (s *ExecSink) Name() string {
	if s.Mode == ExecWarn {
		return "warn-exec"
	}
	return "notify-exec"
}

// Args arma los argumentos posicionales para el evento. El segundo valor es
// false si el canal no responde a ese tipo de evento.
func (s *ExecSink) Args(ev model.Event) ([]string, bool) {
	var first string
	switch {
	case s.Mode == ExecNotify && (ev.Kind == model.EventEscalation || ev.Kind == model.EventRecoveryAlert):
		first = ev.Direction()
	case s.Mode == ExecWarn && ev.Kind == model.EventWarn:
		first = strconv.Itoa(ev.FailCount)
	default:
		return nil, false
	}
	t := ev.Target
	return []string{
		first,
		t.Kind.String(),
		t.DisplayURL,
		t.Endpoint,
		t.DisplayName(),
		t.EffectiveGroup(s.DefaultGroup),
	}, true
}

// Send lanza el proceso y lo recolecta en segundo plano.
func (s *ExecSink) Send(_ context.Context, ev model.Event) error {
	args, ok := s.Args(ev)
	if !ok {
		return nil
	}

	cmd := exec.Command(s.Path, args...)
	if err := cmd.Start(); err != nil {
		err = fmt.Errorf("no se pudo ejecutar %s: %w", s.Path, err)
		if s.FailFast {
			return fmt.Errorf("%w: %w", ErrFatal, err)
		}
		return err
	}
	s.logger.Debugf("%s lanzado: %s %v (pid %d)", s.Name(), s.Path, args, cmd.Process.Pid)

	go func() {
		if err := cmd.Wait(); err != nil {
			s.logger.Debugf("%s termino con error: %v", s.Name(), err)
		}
	}()
	return nil
}
