package product

import (
	"time"

	id "tracelink/pkg/domain"
	dErrors "tracelink/pkg/domain-errors"
)

// Status is the product's current lifecycle label. Deliberately loose: any
// status may follow any status here, because this field is a mutable "where
// is it now" marker. Physical plausibility is audited separately, over the
// event history, by the chain verifier.
type Status string

const (
	StatusCreated     Status = "created"
	StatusInWarehouse Status = "in_warehouse"
	StatusInTransit   Status = "in_transit"
	StatusDelivered   Status = "delivered"
	StatusSold        Status = "sold"
	StatusLost        Status = "lost"
	StatusDamaged     Status = "damaged"
)

var validStatuses = map[Status]bool{
	StatusCreated:     true,
	StatusInWarehouse: true,
	StatusInTransit:   true,
	StatusDelivered:   true,
	StatusSold:        true,
	StatusLost:        true,
	StatusDamaged:     true,
}

// ParseStatus constructs a Status from external input.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !validStatuses[st] {
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown product status %q", s)
	}
	return st, nil
}

func (s Status) String() string { return string(s) }

// Product is the denormalized current-state projection of one tracked good.
// It is derivable in principle by replaying the ledger; it is maintained
// incrementally so reads stay O(1). CurrentOwner is the authority for who may
// mutate the product next.
type Product struct {
	ID             id.ProductID     `json:"id"`
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	SupplierID     id.ParticipantID `json:"supplier_id"`
	CurrentOwner   id.ParticipantID `json:"current_owner"`
	Status         Status           `json:"status"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	BatchNumber    string           `json:"batch_number"`
	ExpiryDate     *time.Time       `json:"expiry_date,omitempty"`
	Price          float64          `json:"price"`
	Quantity       uint32           `json:"quantity"`
	Category       string           `json:"category"`
	Origin         string           `json:"origin"`
	Certifications []string         `json:"certifications"`
}

// Attributes are the caller-supplied fields at creation. Ids are always
// server-generated, which is what makes create conflicts impossible.
type Attributes struct {
	Name           string
	Description    string
	BatchNumber    string
	ExpiryDate     *time.Time
	Price          float64
	Quantity       uint32
	Category       string
	Origin         string
	Certifications []string
}

// Validate rejects attribute shapes that could not describe a real good.
func (a Attributes) Validate() error {
	if a.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "product name is required")
	}
	if a.Quantity == 0 {
		return dErrors.New(dErrors.CodeValidation, "quantity must be positive")
	}
	if a.Price < 0 {
		return dErrors.New(dErrors.CodeValidation, "price must not be negative")
	}
	return nil
}

// TransferStatus is the two-state transfer lifecycle. Completed is terminal.
type TransferStatus string

const (
	TransferPending   TransferStatus = "pending"
	TransferCompleted TransferStatus = "completed"
)

// Transfer types with a status side effect on the product.
const (
	TransferToWarehouse   = "TO_WAREHOUSE"
	TransferToTransporter = "TO_TRANSPORTER"
	TransferToRetailer    = "TO_RETAILER"
)

// statusForTransferType maps a transfer type onto the product status it
// implies. Types outside the map leave the status untouched.
var statusForTransferType = map[string]Status{
	TransferToWarehouse:   StatusInWarehouse,
	TransferToTransporter: StatusInTransit,
	TransferToRetailer:    StatusDelivered,
}

// Transfer records one custody handoff.
//
// Ownership moves to the recipient at initiation, not at completion:
// completion is the recipient's acknowledgement of receipt, not a gate on
// custody. Between the two, the recipient is the one authorized to act on
// the product.
type Transfer struct {
	ID          id.TransferID    `json:"id"`
	ProductID   id.ProductID     `json:"product_id"`
	From        id.ParticipantID `json:"from"`
	To          id.ParticipantID `json:"to"`
	Type        string           `json:"transfer_type"`
	Status      TransferStatus   `json:"status"`
	InitiatedAt time.Time        `json:"initiated_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	Notes       string           `json:"notes"`
}
