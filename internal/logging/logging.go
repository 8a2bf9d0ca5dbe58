// Package logging configura el backend de logs del proceso: lineas con
// timestamp en stdout o syslog.
package logging

import (
	"fmt"
	"io"
	"os"

	gologging "github.com/op/go-logging"
)

const module = "pingalert"

const stdoutFormat = `%{time:2006-01-02T15:04:05} %{level:.4s} %{message}`

// Logger es la interfaz minima que usan los paquetes internos.
// *gologging.Logger la satisface.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Options define el destino y nivel de los logs.
type Options struct {
	Syslog  bool
	Verbose bool
	// Writer reemplaza stdout cuando no se usa syslog.
	Writer io.Writer
}

// Setup instala el backend indicado y devuelve el logger del proceso.
func Setup(opts Options) (*gologging.Logger, error) {
	var backend gologging.Backend
	if opts.Syslog {
		b, err := gologging.NewSyslogBackend(module)
		if err != nil {
			return nil, fmt.Errorf("no se pudo abrir syslog: %w", err)
		}
		backend = b
	} else {
		w := opts.Writer
		if w == nil {
			w = os.Stdout
		}
		backend = gologging.NewBackendFormatter(
			gologging.NewLogBackend(w, "", 0),
			gologging.MustStringFormatter(stdoutFormat),
		)
	}

	leveled := gologging.AddModuleLevel(backend)
	level := gologging.INFO
	if opts.Verbose {
		level = gologging.DEBUG
	}
	leveled.SetLevel(level, "")
	gologging.SetBackend(leveled)

	return gologging.MustGetLogger(module), nil
}

// Nop devuelve un Logger que descarta todo.
func Nop() Logger {
	return nopLogger{}
}

// OrNop devuelve l, o un logger vacio si l es nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return nopLogger{}
	}
	return l
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{})   {}
func (nopLogger) Infof(string, ...interface{})    {}
func (nopLogger) Warningf(string, ...interface{}) {}
func (nopLogger) Errorf(string, ...interface{})   {}
