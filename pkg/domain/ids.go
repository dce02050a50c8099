// Package domain holds typed identifiers and closed value types shared across
// modules. IDs are distinct types over uuid.UUID so the compiler rejects
// cross-type assignment; construct them via the Parse functions at trust
// boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "tracelink/pkg/domain-errors"
)

// ParticipantID identifies a registered supply-chain participant.
type ParticipantID uuid.UUID

// ProductID identifies a tracked product.
type ProductID uuid.UUID

// TransferID identifies a custody transfer.
type TransferID uuid.UUID

func (id ParticipantID) String() string { return uuid.UUID(id).String() }
func (id ProductID) String() string     { return uuid.UUID(id).String() }
func (id TransferID) String() string    { return uuid.UUID(id).String() }

func (id ParticipantID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ProductID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id TransferID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// Text marshaling keeps the ids as canonical UUID strings in JSON rather
// than raw byte arrays.

func (id ParticipantID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id ProductID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id TransferID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }

func (id *ParticipantID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = ParticipantID(u)
	return nil
}

func (id *ProductID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = ProductID(u)
	return nil
}

func (id *TransferID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = TransferID(u)
	return nil
}

// NewParticipantID generates a fresh participant id.
func NewParticipantID() ParticipantID { return ParticipantID(uuid.New()) }

// NewProductID generates a fresh product id. Product ids are always
// server-generated; callers never supply their own.
func NewProductID() ProductID { return ProductID(uuid.New()) }

// NewTransferID generates a fresh transfer id.
func NewTransferID() TransferID { return TransferID(uuid.New()) }

// ParseParticipantID validates external input into a ParticipantID.
// Rejects empty strings, malformed UUIDs, and the nil UUID.
func ParseParticipantID(s string) (ParticipantID, error) {
	u, err := parseUUID(s, "participant id")
	if err != nil {
		return ParticipantID{}, err
	}
	return ParticipantID(u), nil
}

// ParseProductID validates external input into a ProductID.
func ParseProductID(s string) (ProductID, error) {
	u, err := parseUUID(s, "product id")
	if err != nil {
		return ProductID{}, err
	}
	return ProductID(u), nil
}

// ParseTransferID validates external input into a TransferID.
func ParseTransferID(s string) (TransferID, error) {
	u, err := parseUUID(s, "transfer id")
	if err != nil {
		return TransferID{}, err
	}
	return TransferID(u), nil
}

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeBadRequest, "%s is required", what)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeBadRequest, "%s is not a valid uuid", what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeBadRequest, "%s must not be the nil uuid", what)
	}
	return u, nil
}
