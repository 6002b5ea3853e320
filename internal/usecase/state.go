package usecase

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/forPelevin/pdfnarrate/internal/procexec"
)

type State int

const (
	StateIdle State = iota
	StateRenderingPages
	StateSynthesizingNarration
	StateBuildingClips
	StateAssembling
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRenderingPages:
		return "rendering_pages"
	case StateSynthesizingNarration:
		return "synthesizing_narration"
	case StateBuildingClips:
		return "building_clips"
	case StateAssembling:
		return "assembling"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// machine tracks run progress. Transitions only move forward; pages running
// in parallel may request a state the run has already reached.
type machine struct {
	mu    sync.Mutex
	state State
	log   zerolog.Logger
}

func newMachine(log zerolog.Logger) *machine {
	return &machine{state: StateIdle, log: log}
}

func (m *machine) advance(to State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if to <= m.state || m.state == StateFailed {
		return
	}
	m.log.Debug().Str("from", m.state.String()).Str("to", to.String()).Msg("state transition")
	m.state = to
}

func (m *machine) current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// fail moves to Failed and returns the error annotated with the state the
// run failed from.
func (m *machine) fail(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	from := m.state
	if from != StateFailed {
		m.state = StateFailed
	}
	if out := procexec.Output(err); out != "" {
		m.log.Debug().Str("output", out).Msg("tool output")
	}
	m.log.Error().Err(err).Str("state", from.String()).Msg("run failed")
	return &RunError{State: from, Err: err}
}
