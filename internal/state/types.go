package state

import "time"

// RunRecord is the observability record of one pipeline run, which may
// dispatch several leaf DAGs.
// It is written after the fact for history and auditing; Build always
// re-derives the DAG from the head task, so nothing here is ever read back
// to reconstruct scheduler state.
type RunRecord struct {
	ID          string       `json:"id"`
	Pipeline    string       `json:"pipeline"`
	Policy      string       `json:"policy"` // sequential, parallel
	Status      string       `json:"status"` // running, completed, failed
	StartedAt   time.Time    `json:"started_at"`
	CompletedAt time.Time    `json:"completed_at,omitempty"`
	Error       string       `json:"error,omitempty"`
	Nodes       []NodeRecord `json:"nodes"`
}

// NodeRecord is the per-node outcome of one dispatched node within a run.
type NodeRecord struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Status      string    `json:"status"` // pending, running, completed, failed
	StartedAt   time.Time `json:"started_at,omitempty"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// NewRunRecord creates a new, running run record for the named pipeline.
func NewRunRecord(id, pipeline, policy string) *RunRecord {
	return &RunRecord{
		ID:        id,
		Pipeline:  pipeline,
		Policy:    policy,
		Status:    "running",
		StartedAt: time.Now(),
		Nodes:     []NodeRecord{},
	}
}

// GetNode returns a node record by ID, or nil if absent.
func (r *RunRecord) GetNode(id string) *NodeRecord {
	for i := range r.Nodes {
		if r.Nodes[i].ID == id {
			return &r.Nodes[i]
		}
	}
	return nil
}

// UpdateNode updates an existing node record by ID, or appends it if new.
func (r *RunRecord) UpdateNode(n NodeRecord) {
	for i := range r.Nodes {
		if r.Nodes[i].ID == n.ID {
			r.Nodes[i] = n
			return
		}
	}
	r.Nodes = append(r.Nodes, n)
}

// IsComplete reports whether every node has left the pending/running state.
func (r *RunRecord) IsComplete() bool {
	for _, n := range r.Nodes {
		if n.Status == "pending" || n.Status == "running" {
			return false
		}
	}
	return true
}
