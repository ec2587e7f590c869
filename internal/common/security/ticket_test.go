package security

import (
	"testing"
	"time"

	"cf_coach/internal/common"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketSigner_RoundTrip(t *testing.T) {
	signer := NewTicketSigner([]byte("ticket-test-key"), 300*time.Second)

	signed, minted, err := signer.Mint("stu-1", "4A")
	require.NoError(t, err)
	require.NotEmpty(t, signed)
	assert.Equal(t, "stu-1", minted.StudentID)
	assert.Equal(t, "4A", minted.CFCode)
	assert.WithinDuration(t, minted.IssuedAt.Add(300*time.Second), minted.ExpiresAt, time.Second)

	decoded, err := signer.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "stu-1", decoded.StudentID)
	assert.Equal(t, "4A", decoded.CFCode)
	// JWT timestamps carry second precision.
	assert.WithinDuration(t, minted.IssuedAt, decoded.IssuedAt, time.Second)
	assert.WithinDuration(t, minted.ExpiresAt, decoded.ExpiresAt, time.Second)
}

func TestTicketSigner_Expired(t *testing.T) {
	signer := NewTicketSigner([]byte("ticket-test-key"), -time.Minute)

	signed, _, err := signer.Mint("stu-1", "4A")
	require.NoError(t, err)

	_, err = signer.Verify(signed)
	assert.ErrorIs(t, err, common.ErrTicketExpired)
}

func TestTicketSigner_WrongKey(t *testing.T) {
	signer := NewTicketSigner([]byte("ticket-test-key"), 300*time.Second)
	other := NewTicketSigner([]byte("a-different-key"), 300*time.Second)

	signed, _, err := signer.Mint("stu-1", "4A")
	require.NoError(t, err)

	_, err = other.Verify(signed)
	assert.ErrorIs(t, err, common.ErrTicketInvalid)
}

func TestTicketSigner_Tampered(t *testing.T) {
	signer := NewTicketSigner([]byte("ticket-test-key"), 300*time.Second)

	signed, _, err := signer.Mint("stu-1", "4A")
	require.NoError(t, err)

	_, err = signer.Verify(signed + "x")
	assert.ErrorIs(t, err, common.ErrTicketInvalid)

	_, err = signer.Verify("not.a.ticket")
	assert.ErrorIs(t, err, common.ErrTicketInvalid)

	_, err = signer.Verify("")
	assert.ErrorIs(t, err, common.ErrTicketInvalid)
}

func TestTicketSigner_MissingClaims(t *testing.T) {
	key := []byte("ticket-test-key")
	signer := NewTicketSigner(key, 300*time.Second)

	// A structurally valid token signed with the right key but lacking the
	// problem-code claim is still invalid.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "stu-1",
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	})
	signed, err := token.SignedString(key)
	require.NoError(t, err)

	_, err = signer.Verify(signed)
	assert.ErrorIs(t, err, common.ErrTicketInvalid)
}

func TestTicketSigner_SessionKeyRejected(t *testing.T) {
	// Tickets and session tokens must never be interchangeable, even if an
	// operator configures the same TTLs.
	ticketSigner := NewTicketSigner([]byte("ticket-key"), 300*time.Second)
	sessionSigner := NewTicketSigner([]byte("session-key"), 300*time.Second)

	signed, _, err := sessionSigner.Mint("stu-1", "4A")
	require.NoError(t, err)

	_, err = ticketSigner.Verify(signed)
	assert.ErrorIs(t, err, common.ErrTicketInvalid)
}
