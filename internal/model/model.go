package model

import (
	"fmt"
	"strings"
	"time"
)

// TargetKind identifica el tipo de verificacion que se realizara.
type TargetKind int

const (
	KindPing TargetKind = iota + 1
	KindHTTP
)

// String devuelve el nombre usado en logs y argumentos de ejecutables.
func (k TargetKind) String() string {
	switch k {
	case KindPing:
		return "ping"
	case KindHTTP:
		return "http"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText permite serializar el tipo como texto en JSON.
func (k TargetKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText acepta "ping" o "http".
func (k *TargetKind) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "ping":
		*k = KindPing
	case "http":
		*k = KindHTTP
	default:
		return fmt.Errorf("tipo de target desconocido: %q", string(b))
	}
	return nil
}

// Target define la configuracion inmutable de un servicio a monitorear.
type Target struct {
	ID         string     `json:"id"`
	Kind       TargetKind `json:"kind"`
	Endpoint   string     `json:"endpoint"`
	DisplayURL string     `json:"display_url"`
	Name       string     `json:"name,omitempty"`
	Group      string     `json:"group,omitempty"`
}

// DisplayName devuelve el nombre del servicio o, si falta, el endpoint.
func (t Target) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Endpoint
}

// EffectiveGroup resuelve el grupo de notificacion del target.
func (t Target) EffectiveGroup(defaultGroup string) string {
	if t.Group != "" {
		return t.Group
	}
	return defaultGroup
}

// Phase resume el contador de fallas de un target.
type Phase string

const (
	PhaseUnknown   Phase = "unknown"
	PhaseHealthy   Phase = "healthy"
	PhaseDegraded  Phase = "degraded"
	PhaseEscalated Phase = "escalated"
)

// EventKind clasifica las transiciones que produce la maquina de estados.
type EventKind string

const (
	EventWarn          EventKind = "warn"
	EventEscalation    EventKind = "escalation"
	EventRecoveryInfo  EventKind = "recovery_info"
	EventRecoveryAlert EventKind = "recovery_alert"
)

// Event es una transicion observada para un target.
type Event struct {
	ID         string    `json:"id"`
	Kind       EventKind `json:"kind"`
	FailCount  int       `json:"fail_count"`
	Target     Target    `json:"target"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Direction devuelve "up" o "down" para eventos de alerta; vacio para el resto.
func (e Event) Direction() string {
	switch e.Kind {
	case EventEscalation:
		return "down"
	case EventRecoveryAlert:
		return "up"
	default:
		return ""
	}
}

// CheckResult representa el resultado de un chequeo puntual.
type CheckResult struct {
	TargetID  string        `json:"target_id"`
	CheckedAt time.Time     `json:"checked_at"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
}

// TargetStatus resume el estado actual de un Target.
type TargetStatus struct {
	Target     Target       `json:"target"`
	LastCheck  *CheckResult `json:"last_check,omitempty"`
	UptimePerc float64      `json:"uptime_perc"`
	Phase      Phase        `json:"phase"`
	FailCount  int          `json:"fail_count"`
}
