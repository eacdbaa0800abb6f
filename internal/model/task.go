package model

import "time"

// Task states. Pending -> Running -> Succeeded | Failed; terminal states
// never change. Pollers only ever observe states in that order.
type TaskState string

const (
	TaskPending   TaskState = "pending"
	TaskRunning   TaskState = "running"
	TaskSucceeded TaskState = "succeeded"
	TaskFailed    TaskState = "failed"
)

// Terminal reports whether the state admits no further transitions.
func (s TaskState) Terminal() bool {
	return s == TaskSucceeded || s == TaskFailed
}

// Task kinds
const (
	TaskKindCompute = "compute"
	TaskKindPNG     = "png"
)

// Task is the poll-able record of one asynchronous computation. The
// scheduler owns it exclusively; everyone else only reads.
type Task struct {
	ID          string     `json:"id"`
	Kind        string     `json:"kind"`
	Fingerprint string     `json:"fingerprint"`
	MapName     string     `json:"mapName,omitempty"`
	State       TaskState  `json:"state"`
	Error       *string    `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// TaskStatusResponse is what pollers get back.
type TaskStatusResponse struct {
	TaskID      string     `json:"taskId"`
	State       TaskState  `json:"state"`
	Error       *string    `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// CalculateResponse is returned by the calculate endpoint. Status is
// "cached" when every map already exists, "calculating" when a task is in
// flight (either freshly created or attached to).
type CalculateResponse struct {
	Status      string `json:"status"`
	TaskID      string `json:"taskId,omitempty"`
	Fingerprint string `json:"fingerprint"`
}

// ComputeTaskPayload is the asynq payload for a field computation.
type ComputeTaskPayload struct {
	TaskID string        `json:"taskId"`
	Params FractalParams `json:"params"`
}

// PNGTaskPayload is the asynq payload for on-demand PNG generation from an
// already cached raw map.
type PNGTaskPayload struct {
	TaskID      string        `json:"taskId"`
	Params      FractalParams `json:"params"`
	MapName     string        `json:"mapName"`
	Fingerprint string        `json:"fingerprint"`
}
