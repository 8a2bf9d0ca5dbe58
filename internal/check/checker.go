package check

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"time"

	"github.com/agebe/pingalert/internal/model"
)

// ErrUnknownKind se retorna cuando un target llega con un tipo no soportado.
var ErrUnknownKind = errors.New("tipo de target desconocido")

// Runner ejecuta chequeos segun el tipo del target.
type Runner struct {
	HTTPClient *http.Client
	PingPath   string
	// Timeout limita cada chequeo; cero deja los limites por defecto del sistema.
	Timeout time.Duration
}

// LookupPing busca el ejecutable ping en el PATH.
func LookupPing() (string, error) {
	path, err := exec.LookPath("ping")
	if err != nil {
		return "", fmt.Errorf("ejecutable ping no encontrado: %w", err)
	}
	return path, nil
}

// NewRunner crea un Runner que no sigue redirecciones HTTP.
func NewRunner(pingPath string, timeout time.Duration) *Runner {
	return &Runner{
		HTTPClient: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		PingPath: pingPath,
		Timeout:  timeout,
	}
}

// Check ejecuta el chequeo apropiado. Un target caido devuelve (false, nil);
// el error queda reservado para fallas del entorno.
func (r *Runner) Check(ctx context.Context, target model.Target) (bool, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	switch target.Kind {
	case model.KindPing:
		return r.checkPing(ctx, target)
	case model.KindHTTP:
		return r.checkHTTP(ctx, target), nil
	default:
		return false, fmt.Errorf("%w: %s (%s)", ErrUnknownKind, target.Kind, target.DisplayURL)
	}
}

// Classify decide si un status HTTP cuenta como servicio vivo.
// Cualquier respuesta por debajo de 500 indica que el servidor contesto.
func Classify(status int) bool {
	return status >= 100 && status < 500
}

func (r *Runner) checkPing(ctx context.Context, target model.Target) (bool, error) {
	cmd := exec.CommandContext(ctx, r.PingPath, "-c", "1", target.Endpoint)
	err := cmd.Run()
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) || ctx.Err() != nil {
		return false, nil
	}
	return false, fmt.Errorf("no se pudo ejecutar %s: %w", r.PingPath, err)
}

func (r *Runner) checkHTTP(ctx context.Context, target model.Target) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.Endpoint, nil)
	if err != nil {
		return false
	}
	client := r.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return Classify(resp.StatusCode)
}
