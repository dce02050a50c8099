package trust

import (
	"time"

	id "tracelink/pkg/domain"
	dErrors "tracelink/pkg/domain-errors"
)

// Rating is one participant's score for another participant. A rater may
// score the same subject more than once; the aggregate is a plain average
// over every rating ever submitted.
type Rating struct {
	Subject   id.ParticipantID `json:"subject"`
	Rater     id.ParticipantID `json:"rater"`
	Score     uint8            `json:"score"`
	Comment   string           `json:"comment"`
	CreatedAt time.Time        `json:"created_at"`
}

// Validate bounds the score to the 1..5 scale.
func (r Rating) Validate() error {
	if r.Score < 1 || r.Score > 5 {
		return dErrors.New(dErrors.CodeValidation, "score must be between 1 and 5")
	}
	return nil
}

// RatingSummary is the aggregate over all ratings for one participant. A
// subject with no ratings has Count 0 and Average 0.
type RatingSummary struct {
	Subject id.ParticipantID `json:"subject"`
	Average float64          `json:"average"`
	Count   uint64           `json:"count"`
}

// Report flags a participant's handling of a product for auditor review.
// IDs are store-assigned, dense, and strictly increasing from 0. Valid is
// nil while the report is open; resolution sets it exactly once and records
// which auditor ruled.
type Report struct {
	ID             uint64            `json:"id"`
	ReportedEntity id.ParticipantID  `json:"reported_entity"`
	ProductID      id.ProductID      `json:"product_id"`
	Reporter       id.ParticipantID  `json:"reporter"`
	Reason         string            `json:"reason"`
	CreatedAt      time.Time         `json:"created_at"`
	Valid          *bool             `json:"valid,omitempty"`
	ResolvedBy     *id.ParticipantID `json:"resolved_by,omitempty"`
	ResolvedAt     *time.Time        `json:"resolved_at,omitempty"`
}

// Resolved reports whether an auditor has ruled on the report.
func (r Report) Resolved() bool { return r.Valid != nil }
