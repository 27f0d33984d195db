package submissions

import "time"

// Stage is the position of a submission in the filing workflow. Stages only
// move forward; StageClosed is terminal.
type Stage int

const (
	StageDataCollection      Stage = 1
	StageDocumentPreparation Stage = 2
	StageReview              Stage = 3
	StageIRDSubmission       Stage = 4
	StagePayment             Stage = 5
	StageAcknowledgment      Stage = 6
	StageFiling              Stage = 7
	StageClosed              Stage = 8
)

// Status values for a submission.
const (
	StatusDraft     = "DRAFT"
	StatusSubmitted = "SUBMITTED"
	StatusFiled     = "FILED"
	StatusClosed    = "CLOSED"
)

// ScheduleType identifies the VAT schedule a submission files.
type ScheduleType string

// Submission is one VAT return being prepared and filed for a client.
type Submission struct {
	ID           string       `json:"id"`
	OrgID        string       `json:"org_id"`
	ClientID     string       `json:"client_id"`
	Period       string       `json:"period"`
	ScheduleType ScheduleType `json:"schedule_type"`
	Stage        Stage        `json:"stage"`
	Status       string       `json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}
