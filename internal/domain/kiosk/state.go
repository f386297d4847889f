package kiosk

import (
	"time"

	"github.com/okian/bainoculars/internal/domain/model"
)

// State is a read-only view of the machine for the control API.
type State struct {
	Mode       model.Mode   `json:"mode"`
	Phase      Phase        `json:"phase"`
	Generation uint64       `json:"generation"`
	ResumeAt   *time.Time   `json:"resume_at,omitempty"`
	LastResult *ResultView  `json:"last_result,omitempty"`
	Arcade     *ArcadeState `json:"arcade,omitempty"`
}

// ResultView is the last displayed identification.
type ResultView struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// ArcadeState describes the running or finishing round.
type ArcadeState struct {
	SessionID string   `json:"session_id"`
	Remaining int      `json:"remaining_s"`
	Score     int      `json:"score"`
	Seen      []string `json:"seen"`
	Running   bool     `json:"running"`
	Frozen    bool     `json:"frozen"`
}

// State returns a snapshot of the machine.
func (m *Machine) State() State {
	st := State{
		Mode:       m.mode,
		Phase:      m.phase,
		Generation: m.gen,
	}
	if !m.resumeAt.IsZero() {
		at := m.resumeAt
		st.ResumeAt = &at
	}
	if m.last != nil {
		st.LastResult = &ResultView{Label: m.last.Label, Confidence: m.last.Confidence}
	}
	if m.session != nil {
		st.Arcade = &ArcadeState{
			SessionID: m.session.ID,
			Remaining: m.session.RemainingSeconds(m.sched.Now()),
			Score:     m.session.Score(),
			Seen:      m.session.Seen(),
			Running:   m.session.Running(),
			Frozen:    m.session.Frozen(),
		}
	}
	return st
}
