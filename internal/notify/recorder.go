package notify

import (
	"context"

	"github.com/agebe/pingalert/internal/model"
)

// Journal persiste eventos.
type Journal interface {
	Insert(ctx context.Context, ev model.Event) error
}

// Recorder guarda eventos recientes en memoria.
type Recorder interface {
	RecordEvent(ev model.Event)
}

// JournalSink adapta un Journal como canal.
type JournalSink struct {
	journal Journal
}

// NewJournalSink crea un canal que persiste cada evento en j.
func NewJournalSink(j Journal) *JournalSink {
	return &JournalSink{journal: j}
}

// Name identifica el canal en los logs.
func (s *JournalSink) Name() string { return "journal" }

// Send inserta el evento; el error se informa como falla del canal.
func (s *JournalSink) Send(ctx context.Context, ev model.Event) error {
	return s.journal.Insert(ctx, ev)
}

// RecorderSink adapta un Recorder como canal.
type RecorderSink struct {
	recorder Recorder
}

// NewRecorderSink crea un canal que agrega cada evento a la lista en memoria.
func NewRecorderSink(r Recorder) *RecorderSink {
	return &RecorderSink{recorder: r}
}

// Name identifica el canal en los logs.
func (s *RecorderSink) Name() string { return "store" }

// Send registra el evento. Nunca falla.
func (s *RecorderSink) Send(_ context.Context, ev model.Event) error {
	s.recorder.RecordEvent(ev)
	return nil
}
