package coordinator

import "github.com/google/uuid"

// Wire envelope for the coordinator message endpoint. Every request and
// reply carries a kind tag; a reply with an unexpected kind is a contract
// violation, not something to paper over.
const (
	kindRequestRunningJobs  = "request_running_jobs"
	kindRunningJobs         = "running_jobs"
	kindCoordinatorIdentity = "coordinator_identity"
)

type requestEnvelope struct {
	Kind string `json:"kind"`
}

type replyEnvelope struct {
	Kind string        `json:"kind"`
	Jobs []jobSnapshot `json:"jobs"`
}

type jobSnapshot struct {
	JobID                string `json:"job_id"`
	JobName              string `json:"job_name,omitempty"`
	State                string `json:"state"`
	StateTimestampMillis int64  `json:"state_timestamp_ms"`
}

type identityEnvelope struct {
	Kind          string `json:"kind"`
	CoordinatorID string `json:"coordinator_id"`
}

// JobStatusRecord is one job's lifecycle snapshot as the coordinator
// reported it. Records are built fresh on every query and never cached.
type JobStatusRecord struct {
	JobID                uuid.UUID
	JobName              string
	State                string
	StateTimestampMillis int64
}
