package csvimport

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ImportState represents the current state of an import session
type ImportState string

const (
	StateIdle             ImportState = "idle"
	StateHeadersRead      ImportState = "headers_read"
	StateMappingConfirmed ImportState = "mapping_confirmed"
	StateProcessing       ImportState = "processing"
	StateCompleted        ImportState = "completed"
	StateCanceled         ImportState = "canceled"
	StateFailed           ImportState = "failed"
)

var transitions = map[ImportState][]ImportState{
	StateIdle:             {StateHeadersRead, StateCanceled, StateFailed},
	StateHeadersRead:      {StateMappingConfirmed, StateCanceled, StateFailed},
	StateMappingConfirmed: {StateMappingConfirmed, StateProcessing, StateCanceled, StateFailed},
	StateProcessing:       {StateCompleted, StateCanceled, StateFailed},
}

// IsTerminal reports whether no further transition is possible
func (s ImportState) IsTerminal() bool {
	return s == StateCompleted || s == StateCanceled || s == StateFailed
}

// CanTransitionTo reports whether the state machine allows s -> to
func (s ImportState) CanTransitionTo(to ImportState) bool {
	for _, allowed := range transitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// InvalidTransitionError is returned for a transition the state machine forbids
type InvalidTransitionError struct {
	From ImportState
	To   ImportState
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("import session cannot move from %s to %s", e.From, e.To)
}

// ImportSession tracks one file through the import state machine
type ImportSession struct {
	mu          sync.RWMutex
	id          uuid.UUID
	fileName    string
	fileType    FileType
	fileSize    int64
	state       ImportState
	totalRows   int
	validRows   int
	errorRows   int
	createdAt   time.Time
	updatedAt   time.Time
	completedAt *time.Time
}

// SessionSnapshot is a point-in-time copy of an ImportSession
type SessionSnapshot struct {
	ID          uuid.UUID   `json:"id"`
	FileName    string      `json:"file_name"`
	FileType    FileType    `json:"file_type"`
	FileSize    int64       `json:"file_size"`
	State       ImportState `json:"state"`
	TotalRows   int         `json:"total_rows"`
	ValidRows   int         `json:"valid_rows"`
	ErrorRows   int         `json:"error_rows"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

// NewImportSession creates a session in the Idle state
func NewImportSession(fileName string, fileType FileType, fileSize int64) *ImportSession {
	now := time.Now()
	return &ImportSession{
		id:        uuid.New(),
		fileName:  fileName,
		fileType:  fileType,
		fileSize:  fileSize,
		state:     StateIdle,
		createdAt: now,
		updatedAt: now,
	}
}

// ID returns the session id
func (s *ImportSession) ID() uuid.UUID {
	return s.id
}

// FileType returns the detected file type
func (s *ImportSession) FileType() FileType {
	return s.fileType
}

// State returns the current state
func (s *ImportSession) State() ImportState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// CreatedAt returns the creation time
func (s *ImportSession) CreatedAt() time.Time {
	return s.createdAt
}

// Transition moves the session to the given state
func (s *ImportSession) Transition(to ImportState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.CanTransitionTo(to) {
		return &InvalidTransitionError{From: s.state, To: to}
	}
	now := time.Now()
	s.state = to
	s.updatedAt = now
	if to.IsTerminal() {
		s.completedAt = &now
	}
	return nil
}

// SetCounts records the row counts of the last processing run
func (s *ImportSession) SetCounts(total, valid, errorRows int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalRows = total
	s.validRows = valid
	s.errorRows = errorRows
	s.updatedAt = time.Now()
}

// Snapshot returns a copy safe to hand to other goroutines
func (s *ImportSession) Snapshot() SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := SessionSnapshot{
		ID:        s.id,
		FileName:  s.fileName,
		FileType:  s.fileType,
		FileSize:  s.fileSize,
		State:     s.state,
		TotalRows: s.totalRows,
		ValidRows: s.validRows,
		ErrorRows: s.errorRows,
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
	}
	if s.completedAt != nil {
		at := *s.completedAt
		snap.CompletedAt = &at
	}
	return snap
}
