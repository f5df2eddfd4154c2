package health

import (
	"sync"
	"time"
)

// Status tracks the outcome of miner runs for the status endpoint.
// Safe for concurrent use.
type Status struct {
	mu sync.RWMutex

	runs       int
	lastRunAt  time.Time
	lastCommit string
	lastError  string
	nextRunAt  time.Time
}

// StatusView is the JSON shape served by GET /status.
type StatusView struct {
	Runs       int    `json:"runs"`
	LastRunAt  string `json:"lastRunAt,omitempty"`
	LastCommit string `json:"lastCommit,omitempty"`
	LastError  string `json:"lastError,omitempty"`
	NextRunAt  string `json:"nextRunAt,omitempty"`
}

func NewStatus() *Status {
	return &Status{}
}

// RecordRun stores the outcome of a completed run.
func (s *Status) RecordRun(commit string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs++
	s.lastRunAt = time.Now()
	s.lastCommit = commit
	s.lastError = ""
	if err != nil {
		s.lastError = err.Error()
	}
}

// SetNextRun stores the next scheduled run time.
func (s *Status) SetNextRun(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRunAt = t
}

// View returns a copy for serving.
func (s *Status) View() StatusView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := StatusView{
		Runs:       s.runs,
		LastCommit: s.lastCommit,
		LastError:  s.lastError,
	}
	if !s.lastRunAt.IsZero() {
		v.LastRunAt = s.lastRunAt.Format(time.RFC3339)
	}
	if !s.nextRunAt.IsZero() {
		v.NextRunAt = s.nextRunAt.Format(time.RFC3339)
	}
	return v
}
