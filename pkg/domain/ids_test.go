package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "tracelink/pkg/domain-errors"
)

func TestParseParticipantID(t *testing.T) {
	t.Run("valid uuid", func(t *testing.T) {
		raw := uuid.New().String()
		id, err := ParseParticipantID(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, id.String())
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ParseParticipantID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := ParseParticipantID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("nil uuid", func(t *testing.T) {
		_, err := ParseParticipantID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func TestIDJSONRoundTrip(t *testing.T) {
	id := NewProductID()

	encoded, err := json.Marshal(id)
	require.NoError(t, err)
	assert.JSONEq(t, `"`+id.String()+`"`, string(encoded))

	var decoded ProductID
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, id, decoded)
}

func TestIDTypesAreDistinct(t *testing.T) {
	participant := NewParticipantID()
	product := NewProductID()
	assert.NotEqual(t, uuid.UUID(participant), uuid.UUID(product))
}

func TestParseRole(t *testing.T) {
	for _, raw := range []string{"supplier", "transporter", "warehouse", "retailer", "auditor"} {
		role, err := ParseRole(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, role.String())
	}

	_, err := ParseRole("admin")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}
