package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/agebe/pingalert/internal/logging"
)

var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// signalContext se cancela con la primera SIGINT/SIGTERM. En ese momento
// devuelve las señales a su manejo por defecto, asi una segunda señal termina
// el proceso aunque el ciclo en curso este bloqueado en un chequeo.
// released se cierra cuando el manejo por defecto ya fue restaurado.
func signalContext(parent context.Context, logger logging.Logger) (ctx context.Context, released <-chan struct{}, stop func()) {
	logger = logging.OrNop(logger)
	ctx, stopNotify := signal.NotifyContext(parent, shutdownSignals...)

	done := make(chan struct{})
	var once sync.Once
	stop = func() {
		once.Do(func() {
			stopNotify()
			close(done)
		})
	}

	go func() {
		<-ctx.Done()
		if parent.Err() == nil {
			logger.Infof("recibida señal, se termina al cerrar el ciclo en curso; otra señal fuerza la salida")
		}
		stop()
	}()
	return ctx, done, stop
}
