package domain

type OutcomeStatus string

const (
	OutcomePending   OutcomeStatus = "pending"
	OutcomeSucceeded OutcomeStatus = "succeeded"
	OutcomeFailed    OutcomeStatus = "failed"
)

// SimulationOutcome records what happened to one candidate within a run.
// In-memory only; the durable trace is the SimulationRun row.
type SimulationOutcome struct {
	Candidate     Candidate
	Status        OutcomeStatus
	Reason        string
	ResultLocator string
}

// AggregateItem uses the wire names the downstream main API has consumed
// since the first deployment. Do not rename without coordinating with it.
type AggregateItem struct {
	RecID         int64  `json:"hair_rec_id"`
	HairID        int64  `json:"hair_id"`
	Name          string `json:"hairstyle_name"`
	ResultLocator string `json:"simulation_image_url"`
}

// FailureItem records a candidate that failed during a run that kept going.
// It rides the durable run record for auditing; the notification to the main
// API carries successes only.
type FailureItem struct {
	RecID  int64  `json:"hair_rec_id"`
	HairID int64  `json:"hair_id"`
	Name   string `json:"hairstyle_name"`
	Reason string `json:"reason"`
}

type ResultAggregate struct {
	UserID    int64           `json:"user_id"`
	RequestID int64           `json:"request_id"`
	Results   []AggregateItem `json:"recommendations"`
	Failures  []FailureItem   `json:"failures,omitempty"`
}
