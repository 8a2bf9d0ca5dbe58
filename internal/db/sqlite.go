package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/agebe/pingalert/internal/model"
)

// ErrNotFound se retorna cuando un evento no existe.
var ErrNotFound = errors.New("evento no encontrado")

// OpenSQLite abre (o crea) el archivo SQLite y aplica pragmas basicos.
func OpenSQLite(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("no se pudo crear directorio para sqlite: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("no se pudo abrir sqlite: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("no se pudo habilitar WAL: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// EventRepository persiste las transiciones despachadas.
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository inicializa la tabla necesaria para almacenar eventos.
func NewEventRepository(db *sql.DB) (*EventRepository, error) {
	repo := &EventRepository{db: db}
	if err := repo.migrate(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *EventRepository) migrate() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		fail_count INTEGER NOT NULL,
		target_id TEXT NOT NULL,
		target_kind TEXT NOT NULL,
		display_url TEXT NOT NULL,
		endpoint TEXT NOT NULL,
		name TEXT,
		grp TEXT,
		occurred_at_ns INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS events_target_idx ON events (target_id, occurred_at_ns);
	`
	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("no se pudo crear tabla events: %w", err)
	}
	return nil
}

// Insert agrega un evento. Si no trae id se genera uno.
func (r *EventRepository) Insert(ctx context.Context, ev model.Event) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}
	t := ev.Target
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO events (id, kind, fail_count, target_id, target_kind, display_url, endpoint, name, grp, occurred_at_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ev.ID, string(ev.Kind), ev.FailCount, t.ID, t.Kind.String(), t.DisplayURL, t.Endpoint, t.Name, t.Group, ev.OccurredAt.UnixNano())
	if err != nil {
		return fmt.Errorf("no se pudo guardar evento %q: %w", ev.ID, err)
	}
	return nil
}

// List devuelve los eventos mas recientes primero.
func (r *EventRepository) List(ctx context.Context, limit int) ([]model.Event, error) {
	return r.query(ctx, `
		SELECT id, kind, fail_count, target_id, target_kind, display_url, endpoint, name, grp, occurred_at_ns
		FROM events
		ORDER BY occurred_at_ns DESC, rowid DESC
		LIMIT ?`, normalizeLimit(limit))
}

// ListByTarget devuelve los eventos de un target, mas recientes primero.
func (r *EventRepository) ListByTarget(ctx context.Context, targetID string, limit int) ([]model.Event, error) {
	return r.query(ctx, `
		SELECT id, kind, fail_count, target_id, target_kind, display_url, endpoint, name, grp, occurred_at_ns
		FROM events
		WHERE target_id = ?
		ORDER BY occurred_at_ns DESC, rowid DESC
		LIMIT ?`, targetID, normalizeLimit(limit))
}

// Get recupera un evento especifico.
func (r *EventRepository) Get(ctx context.Context, id string) (model.Event, error) {
	events, err := r.query(ctx, `
		SELECT id, kind, fail_count, target_id, target_kind, display_url, endpoint, name, grp, occurred_at_ns
		FROM events
		WHERE id = ?`, id)
	if err != nil {
		return model.Event{}, err
	}
	if len(events) == 0 {
		return model.Event{}, ErrNotFound
	}
	return events[0], nil
}

func (r *EventRepository) query(ctx context.Context, q string, args ...any) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("no se pudo listar eventos: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var (
			ev         model.Event
			kind       string
			targetKind string
			name       sql.NullString
			group      sql.NullString
			occurredNS int64
		)
		if err := rows.Scan(&ev.ID, &kind, &ev.FailCount, &ev.Target.ID, &targetKind,
			&ev.Target.DisplayURL, &ev.Target.Endpoint, &name, &group, &occurredNS); err != nil {
			return nil, fmt.Errorf("fila invalida: %w", err)
		}
		ev.Kind = model.EventKind(kind)
		if err := ev.Target.Kind.UnmarshalText([]byte(targetKind)); err != nil {
			return nil, fmt.Errorf("fila invalida: %w", err)
		}
		ev.Target.Name = name.String
		ev.Target.Group = group.String
		ev.OccurredAt = time.Unix(0, occurredNS)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 1000 {
		return 100
	}
	return limit
}
