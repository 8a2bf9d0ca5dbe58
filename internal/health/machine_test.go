package health

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agebe/pingalert/internal/model"
)

var testTarget = model.Target{
	ID:         "t1",
	Kind:       model.KindPing,
	Endpoint:   "10.0.0.1",
	DisplayURL: "ping://10.0.0.1",
}

type step struct {
	kind  model.EventKind
	count int
}

func newFixedMachine(maxFail int) *Machine {
	m := NewMachine(maxFail)
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }
	return m
}

func steps(events []model.Event) []step {
	out := make([]step, 0, len(events))
	for _, e := range events {
		out = append(out, step{e.Kind, e.FailCount})
	}
	return out
}

func TestObserveInitial(t *testing.T) {
	m := NewMachine(3)

	var s State
	assert.Equal(t, model.PhaseUnknown, m.Phase(&s))

	m.ObserveInitial(&s, false)
	assert.Equal(t, 3, s.FailCount)
	assert.True(t, s.Seeded())
	assert.Equal(t, model.PhaseEscalated, m.Phase(&s))

	m.ObserveInitial(&s, true)
	assert.Equal(t, 0, s.FailCount)
	assert.Equal(t, model.PhaseHealthy, m.Phase(&s))
}

func TestObserve_EscalationScenario(t *testing.T) {
	m := NewMachine(3)
	var s State
	m.ObserveInitial(&s, true)

	results := []bool{false, false, false, false, true}
	want := [][]step{
		{{model.EventWarn, 1}},
		{{model.EventWarn, 2}},
		{{model.EventEscalation, 3}},
		{},
		{{model.EventRecoveryInfo, 3}, {model.EventRecoveryAlert, 3}},
	}

	for i, up := range results {
		events := m.Observe(testTarget, &s, up)
		assert.Equal(t, want[i], steps(events), "observation %d", i)
		for _, e := range events {
			assert.Equal(t, testTarget, e.Target)
		}
	}
	assert.Equal(t, 0, s.FailCount)
}

func TestObserve_ShortOutage(t *testing.T) {
	m := NewMachine(3)
	var s State
	m.ObserveInitial(&s, true)

	assert.Equal(t, []step{{model.EventWarn, 1}}, steps(m.Observe(testTarget, &s, false)))
	assert.Equal(t, model.PhaseDegraded, m.Phase(&s))
	assert.Equal(t, []step{{model.EventRecoveryInfo, 1}}, steps(m.Observe(testTarget, &s, true)))
	assert.Equal(t, 0, s.FailCount)
}

func TestObserve_UpWhenHealthyIsSilent(t *testing.T) {
	m := NewMachine(3)
	var s State
	m.ObserveInitial(&s, true)
	assert.Empty(t, m.Observe(testTarget, &s, true))
	assert.Equal(t, 0, s.FailCount)
}

func TestObserve_SeededDownRecovers(t *testing.T) {
	m := NewMachine(5)
	var s State
	m.ObserveInitial(&s, false)

	assert.Empty(t, m.Observe(testTarget, &s, false))
	assert.Equal(t, 5, s.FailCount)

	got := steps(m.Observe(testTarget, &s, true))
	assert.Equal(t, []step{{model.EventRecoveryInfo, 5}, {model.EventRecoveryAlert, 5}}, got)
}

func TestObserve_MaxFailOne(t *testing.T) {
	m := NewMachine(1)
	var s State
	m.ObserveInitial(&s, true)

	assert.Equal(t, []step{{model.EventEscalation, 1}}, steps(m.Observe(testTarget, &s, false)))
	assert.Empty(t, m.Observe(testTarget, &s, false))
	assert.Equal(t, 1, s.FailCount)
}

func TestObserve_WarnCountsIncrement(t *testing.T) {
	const maxFail = 10
	m := NewMachine(maxFail)
	var s State
	m.ObserveInitial(&s, true)

	for i := 1; i < maxFail; i++ {
		events := m.Observe(testTarget, &s, false)
		require.Len(t, events, 1)
		assert.Equal(t, model.EventWarn, events[0].Kind)
		assert.Equal(t, i, events[0].FailCount)
	}
	events := m.Observe(testTarget, &s, false)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventEscalation, events[0].Kind)
	assert.Equal(t, maxFail, events[0].FailCount)
}

func TestObserve_CounterStaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, maxFail := range []int{1, 2, 3, 7} {
		m := NewMachine(maxFail)
		var s State
		m.ObserveInitial(&s, rng.Intn(2) == 0)
		for i := 0; i < 500; i++ {
			m.Observe(testTarget, &s, rng.Intn(3) == 0)
			require.GreaterOrEqual(t, s.FailCount, 0)
			require.LessOrEqual(t, s.FailCount, maxFail)
		}
	}
}

func TestObserve_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	results := make([]bool, 200)
	for i := range results {
		results[i] = rng.Intn(2) == 0
	}

	replay := func() []model.Event {
		m := newFixedMachine(4)
		var s State
		m.ObserveInitial(&s, true)
		var all []model.Event
		for _, up := range results {
			all = append(all, m.Observe(testTarget, &s, up)...)
		}
		return all
	}

	assert.Equal(t, replay(), replay())
}

func TestNewMachineClampsThreshold(t *testing.T) {
	assert.Equal(t, 1, NewMachine(0).MaxFail)
	assert.Equal(t, 1, NewMachine(-3).MaxFail)
}
