package job

import (
	"time"

	"github.com/Santosh-B-Vitana/smsv2-sub000/id"
)

// State represents the lifecycle state of a job.
type State string

const (
	// StatePending means the job is waiting to be picked up by a worker.
	StatePending State = "pending"
	// StateProcessing means a worker is currently executing the job.
	StateProcessing State = "processing"
	// StateCompleted means the handler returned successfully.
	StateCompleted State = "completed"
	// StateFailed means the handler returned an error, panicked, or no
	// handler was registered for the job type.
	StateFailed State = "failed"
)

// Terminal reports whether no further transition is possible from s.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Job represents a unit of work to be processed by a worker.
type Job struct {
	ID          id.JobID      `json:"id"`
	Type        string        `json:"type"`
	Payload     []byte        `json:"payload,omitempty"`
	State       State         `json:"state"`
	Progress    int           `json:"progress"`
	Result      []byte        `json:"result,omitempty"`
	Error       string        `json:"error,omitempty"`
	Tenant      string        `json:"tenant,omitempty"`
	Seq         uint64        `json:"seq"`
	Timeout     time.Duration `json:"timeout,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

// Clone returns a deep copy of j. Stores hand out clones so that callers
// never share memory with queue-owned records.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	cp := *j
	if j.Payload != nil {
		cp.Payload = append([]byte(nil), j.Payload...)
	}
	if j.Result != nil {
		cp.Result = append([]byte(nil), j.Result...)
	}
	if j.StartedAt != nil {
		t := *j.StartedAt
		cp.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}

// ClampProgress bounds pct to the [0, 100] range.
func ClampProgress(pct int) int {
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	default:
		return pct
	}
}
