package ledger

import (
	"encoding/json"
	"time"

	id "tracelink/pkg/domain"
	dErrors "tracelink/pkg/domain-errors"
)

// Well-known event types. External callers may record only the four custody
// types; the lifecycle types are appended internally by the product module.
// Event.Validate itself accepts any non-empty tag, so a new internal event
// kind only has to be admitted at the recording boundary.
const (
	EventProduced           = "PRODUCED"
	EventTransport          = "TRANSPORT"
	EventWarehouse          = "WAREHOUSE"
	EventRetail             = "RETAIL"
	EventProductCreated     = "PRODUCT_CREATED"
	EventProductTransferred = "PRODUCT_TRANSFERRED"
	EventTransferCompleted  = "TRANSFER_COMPLETED"
	EventStatusUpdated      = "STATUS_UPDATED"
)

// MetadataPair is one ordered key/value attachment on an event. A slice of
// pairs rather than a map: insertion order is part of the record.
type MetadataPair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Event is one immutable entry in the custody ledger. ID is assigned by the
// store as a dense, strictly increasing sequence starting at 0; everything
// else is fixed at append time and never updated or deleted.
type Event struct {
	ID        uint64           `json:"id"`
	Timestamp time.Time        `json:"timestamp"`
	ProductID id.ProductID     `json:"product_id"`
	Type      string           `json:"event_type"`
	Actor     id.ParticipantID `json:"actor"`
	ActorRole id.Role          `json:"actor_role"`
	Location  string           `json:"location"`
	Metadata  []MetadataPair   `json:"metadata"`
}

// maxEventBytes bounds the serialized event record. Oversized events are
// rejected with a validation error before they reach the store, so a bad
// payload can never wedge an append.
const maxEventBytes = 1024

// Validate checks shape and serialized size ahead of insertion.
func (e Event) Validate() error {
	if e.Type == "" {
		return dErrors.New(dErrors.CodeValidation, "event type is required")
	}
	if e.ProductID.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "product id is required")
	}
	if e.Actor.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "actor is required")
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "event is not serializable")
	}
	if len(raw) > maxEventBytes {
		return dErrors.Newf(dErrors.CodeValidation, "serialized event exceeds %d bytes", maxEventBytes)
	}
	return nil
}
