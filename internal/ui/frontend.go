package ui

import (
	"html/template"
	"net/http"
	"time"

	"github.com/agebe/pingalert/internal/model"
	"github.com/agebe/pingalert/internal/service"
)

const recentEvents = 20

// Frontend renderiza una vista HTML simple con el estado de los servicios.
type Frontend struct {
	svc *service.StatusService
	tpl *template.Template
}

// New crea una instancia lista para usar.
func New(svc *service.StatusService) (*Frontend, error) {
	funcs := template.FuncMap{
		"since": func(t *model.CheckResult) string {
			if t == nil {
				return "-"
			}
			return time.Since(t.CheckedAt).Round(time.Second).String()
		},
		"latency": func(t *model.CheckResult) string {
			if t == nil || t.Duration <= 0 {
				return "-"
			}
			return t.Duration.Round(time.Millisecond).String()
		},
		"phaseLabel": func(p model.Phase) string {
			switch p {
			case model.PhaseHealthy:
				return "OK"
			case model.PhaseDegraded:
				return "Fallando"
			case model.PhaseEscalated:
				return "Caido"
			default:
				return "Sin datos"
			}
		},
		"eventLabel": func(k model.EventKind) string {
			switch k {
			case model.EventWarn:
				return "aviso"
			case model.EventEscalation:
				return "alerta"
			case model.EventRecoveryInfo:
				return "recuperado"
			case model.EventRecoveryAlert:
				return "alerta resuelta"
			default:
				return string(k)
			}
		},
	}
	tpl, err := template.New("index").Funcs(funcs).Parse(indexTemplate)
	if err != nil {
		return nil, err
	}
	return &Frontend{
		svc: svc,
		tpl: tpl,
	}, nil
}

// ServeHTTP implementa http.Handler para servir la vista principal.
func (f *Frontend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	events, err := f.svc.Events(r.Context(), "", recentEvents)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	data := struct {
		GeneratedAt time.Time
		Statuses    []model.TargetStatus
		Events      []model.Event
		Persistent  bool
	}{
		GeneratedAt: time.Now(),
		Statuses:    f.svc.Status(),
		Events:      events,
		Persistent:  f.svc.Persistent(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = f.tpl.Execute(w, data)
}

const indexTemplate = `
<!DOCTYPE html>
<html lang="es">
<head>
  <meta charset="UTF-8">
  <meta http-equiv="refresh" content="30">
  <title>pingalert</title>
  <style>
	body { font-family: Helvetica, Arial, sans-serif; background: #0f172a; color: #e2e8f0; margin: 0; padding: 0; }
	header { padding: 1.5rem; background: #1e293b; box-shadow: 0 2px 6px rgba(0,0,0,0.3); }
	h1 { margin: 0; font-size: 1.6rem; }
	main { padding: 1.5rem; display: grid; gap: 1.5rem; }
	table { width: 100%; border-collapse: collapse; background: #1e293b; border-radius: 12px; overflow: hidden; }
	th, td { padding: 0.75rem 1rem; text-align: left; vertical-align: top; }
	th { background: #0f172a; font-weight: 600; }
	tr:nth-child(even) { background: rgba(255,255,255,0.03); }
	.status-badge { padding: 0.25rem 0.6rem; border-radius: 999px; font-size: 0.85rem; text-transform: uppercase; letter-spacing: 0.08em; }
	.status-badge.healthy { background: rgba(34,197,94,0.2); color: #22c55e; }
	.status-badge.degraded { background: rgba(234,179,8,0.2); color: #eab308; }
	.status-badge.escalated { background: rgba(239,68,68,0.2); color: #ef4444; }
	.status-badge.unknown { background: rgba(148,163,184,0.2); color: #cbd5f5; }
	.footer { color: #94a3b8; font-size: 0.85rem; }
	a { color: #38bdf8; }
	.card { background: #1e293b; border-radius: 12px; padding: 1.25rem; box-shadow: 0 10px 30px rgba(15,23,42,0.4); }
	.card h2 { margin-top: 0; font-size: 1.2rem; }
  </style>
</head>
<body>
  <header>
	<h1>pingalert</h1>
	<p>Actualizado: {{ .GeneratedAt.Format "2006-01-02 15:04:05" }}</p>
  </header>
  <main>
	<section class="card">
	  <h2>Estado de los servicios</h2>
	  <table>
		<thead>
		  <tr>
			<th>Servicio</th>
			<th>Estado</th>
			<th>Fallas</th>
			<th>Último chequeo</th>
			<th>Latencia</th>
			<th>Uptime %</th>
			<th>Grupo</th>
		  </tr>
		</thead>
		<tbody>
		  {{- range .Statuses }}
		  <tr>
			<td>
			  <strong>{{ .Target.DisplayName }}</strong><br>
			  <small>{{ .Target.Kind }} • {{ .Target.DisplayURL }}</small>
			</td>
			<td><span class="status-badge {{ .Phase }}">{{ phaseLabel .Phase }}</span></td>
			<td>{{ .FailCount }}</td>
			<td>{{ since .LastCheck }}</td>
			<td>{{ latency .LastCheck }}</td>
			<td>{{ printf "%.1f" .UptimePerc }}</td>
			<td>{{ if .Target.Group }}{{ .Target.Group }}{{ else }}-{{ end }}</td>
		  </tr>
		  {{- end }}
		</tbody>
	  </table>
	</section>

	<section class="card">
	  <h2>Eventos recientes</h2>
	  <p class="footer">Historial {{ if .Persistent }}persistente (SQLite){{ else }}en memoria, se pierde al reiniciar{{ end }}</p>
	  {{ if .Events }}
	  <table>
		<thead>
		  <tr><th>Fecha</th><th>Evento</th><th>Servicio</th><th>Conteo</th></tr>
		</thead>
		<tbody>
		  {{- range .Events }}
		  <tr>
			<td>{{ .OccurredAt.Format "2006-01-02 15:04:05" }}</td>
			<td>{{ eventLabel .Kind }}</td>
			<td>{{ .Target.DisplayURL }}</td>
			<td>{{ .FailCount }}</td>
		  </tr>
		  {{- end }}
		</tbody>
	  </table>
	  {{ else }}
	  <p>Sin eventos.</p>
	  {{ end }}
	  <p class="footer">API disponible en <a href="/api/status">/api/status</a> y <a href="/api/events">/api/events</a></p>
	</section>
  </main>
</body>
</html>
`
