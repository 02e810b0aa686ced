package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store defines the interface for run-ledger storage backends.
type Store interface {
	SaveRun(run *RunRecord) error
	GetRun(id string) (*RunRecord, error)
	ListRuns(limit int) ([]*RunRecord, error)
	DeleteRun(id string) error

	Close() error
}

// Manager manages the run ledger: an observability record of each DAG run,
// written after the fact. It is never read back to reconstruct scheduler
// state — Build always re-derives the DAG from the head task.
type Manager struct {
	store     Store
	mu        sync.RWMutex
	activeRun *RunRecord
}

// NewManager creates a new state manager backed by the named driver
// ("memory" or "sqlite").
func NewManager(driver, path string) (*Manager, error) {
	var store Store
	var err error

	switch driver {
	case "memory", "":
		store = NewMemoryStore()
	case "sqlite":
		store, err = NewSQLiteStore(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create sqlite store: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported state driver: %s", driver)
	}

	return &Manager{store: store}, nil
}

// Close closes the state manager.
func (m *Manager) Close() error {
	return m.store.Close()
}

// StartRun creates and persists a new run record for pipeline run under
// policy, and marks it the active run.
func (m *Manager) StartRun(pipeline, policy string) (*RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	run := NewRunRecord(uuid.New().String(), pipeline, policy)

	if err := m.store.SaveRun(run); err != nil {
		return nil, fmt.Errorf("failed to save run: %w", err)
	}

	m.activeRun = run
	return run, nil
}

// RecordNodeStarted marks a node as running within the active run.
func (m *Manager) RecordNodeStarted(nodeID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.activeRun == nil {
		return fmt.Errorf("no active run")
	}

	m.activeRun.UpdateNode(NodeRecord{
		ID:        nodeID,
		Name:      name,
		Status:    "running",
		StartedAt: time.Now(),
	})
	return m.store.SaveRun(m.activeRun)
}

// RecordNodeCompleted marks a node as completed within the active run.
func (m *Manager) RecordNodeCompleted(nodeID, name string) error {
	return m.recordNodeOutcome(nodeID, name, "completed", "")
}

// RecordNodeFailed marks a node as failed within the active run.
func (m *Manager) RecordNodeFailed(nodeID, name string, err error) error {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return m.recordNodeOutcome(nodeID, name, "failed", msg)
}

func (m *Manager) recordNodeOutcome(nodeID, name, status, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.activeRun == nil {
		return fmt.Errorf("no active run")
	}

	rec := NodeRecord{ID: nodeID, Name: name, Status: status, CompletedAt: time.Now(), Error: errMsg}
	if existing := m.activeRun.GetNode(nodeID); existing != nil {
		rec.StartedAt = existing.StartedAt
	}
	m.activeRun.UpdateNode(rec)
	return m.store.SaveRun(m.activeRun)
}

// CompleteRun marks the active run as complete.
func (m *Manager) CompleteRun() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.activeRun == nil {
		return fmt.Errorf("no active run")
	}

	m.activeRun.Status = "completed"
	m.activeRun.CompletedAt = time.Now()

	if err := m.store.SaveRun(m.activeRun); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// FailRun marks the active run as failed.
func (m *Manager) FailRun(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.activeRun == nil {
		return fmt.Errorf("no active run")
	}

	m.activeRun.Status = "failed"
	m.activeRun.CompletedAt = time.Now()
	m.activeRun.Error = err.Error()

	if saveErr := m.store.SaveRun(m.activeRun); saveErr != nil {
		return fmt.Errorf("failed to save run: %w", saveErr)
	}
	return nil
}

// GetActiveRun returns the current active run, or the most recently
// started still-running run if none is held in memory.
func (m *Manager) GetActiveRun() (*RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.activeRun != nil {
		return m.activeRun, nil
	}

	runs, err := m.store.ListRuns(1)
	if err != nil {
		return nil, err
	}

	for _, run := range runs {
		if run.Status == "running" {
			return run, nil
		}
	}

	return nil, nil
}

// GetRun retrieves a run record by ID.
func (m *Manager) GetRun(id string) (*RunRecord, error) {
	return m.store.GetRun(id)
}

// ListRuns lists recent runs.
func (m *Manager) ListRuns(limit int) ([]*RunRecord, error) {
	return m.store.ListRuns(limit)
}

// DeleteRun deletes a run record.
func (m *Manager) DeleteRun(id string) error {
	return m.store.DeleteRun(id)
}
