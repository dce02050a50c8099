package authtoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "tracelink/pkg/domain"
	dErrors "tracelink/pkg/domain-errors"
)

func TestMintAndValidate(t *testing.T) {
	svc := NewService("test-signing-key")
	actor := id.NewParticipantID()

	token, err := svc.MintToken(actor, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, actor, parsed)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	svc := NewService("test-signing-key")

	token, err := svc.MintToken(id.NewParticipantID(), -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateRejectsWrongKey(t *testing.T) {
	token, err := NewService("key-one").MintToken(id.NewParticipantID(), time.Hour)
	require.NoError(t, err)

	_, err = NewService("key-two").ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateRejectsGarbage(t *testing.T) {
	_, err := NewService("test-signing-key").ValidateToken("not.a.token")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
