package registry

import (
	"time"

	id "tracelink/pkg/domain"
)

// Participant binds an identity to its single, immutable role.
//
// Invariants:
//   - Exactly one role per participant, assigned at registration
//   - The role never changes afterwards (role changes are out of scope)
type Participant struct {
	ID           id.ParticipantID `json:"id"`
	Role         id.Role          `json:"role"`
	RegisteredAt time.Time        `json:"registered_at"`
}
