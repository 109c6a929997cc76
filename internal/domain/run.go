package domain

// TaskState tracks a task through the orchestrator's state machine.
type TaskState string

const (
	TaskPending       TaskState = "PENDING"
	TaskRunning       TaskState = "RUNNING"
	TaskSucceeded     TaskState = "SUCCEEDED"
	TaskFailed        TaskState = "FAILED"
	TaskFatallyFailed TaskState = "FATALLY_FAILED"
)

// Run status constants for the pipeline_runs ledger.
const (
	RunStatusRunning   = "RUNNING"
	RunStatusSucceeded = "SUCCEEDED"
	RunStatusFailed    = "FAILED"
)

// PipelineRun is one ledger row per pipeline invocation.
// Corresponds to pipeline_runs table in PostgreSQL.
type PipelineRun struct {
	RunID        string // UUID
	StartedAt    int64  // Unix timestamp in milliseconds
	FinishedAt   int64  // 0 while running
	Status       string // RUNNING | SUCCEEDED | FAILED
	FailingStage string // task name that exhausted its retry budget
	ErrorMessage string
	TotalCount   int
	AlertCount   int
}
