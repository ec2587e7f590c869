package security

import (
	"errors"
	"fmt"
	"time"

	"cf_coach/internal/common"

	"github.com/golang-jwt/jwt/v5"
)

// VerificationTicket is the stateless capability handed to a student during
// account verification. It binds a student to the challenge problem they must
// submit against, and carries its own expiry. Nothing is stored server-side;
// authenticity comes entirely from the HMAC signature.
//
// Tickets are signed with a dedicated key, never the session-token key, so
// the two token kinds cannot be confused for one another.
type VerificationTicket struct {
	StudentID string
	CFCode    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type ticketClaims struct {
	CFCode string `json:"cf_code"`
	jwt.RegisteredClaims
}

// TicketSigner mints and verifies account-verification tickets.
type TicketSigner struct {
	key []byte
	ttl time.Duration
}

func NewTicketSigner(key []byte, ttl time.Duration) *TicketSigner {
	return &TicketSigner{key: key, ttl: ttl}
}

// Mint issues a signed ticket binding studentID to cfCode, expiring ttl from now.
func (s *TicketSigner) Mint(studentID, cfCode string) (string, *VerificationTicket, error) {
	now := time.Now()
	ticket := &VerificationTicket{
		StudentID: studentID,
		CFCode:    cfCode,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}
	claims := ticketClaims{
		CFCode: cfCode,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   studentID,
			IssuedAt:  jwt.NewNumericDate(ticket.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(ticket.ExpiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", nil, fmt.Errorf("sign ticket: %w", err)
	}
	return signed, ticket, nil
}

// Verify checks signature and expiry and returns the decoded ticket.
// An expired ticket yields common.ErrTicketExpired; any other defect
// (bad signature, wrong algorithm, missing claims) yields common.ErrTicketInvalid.
func (s *TicketSigner) Verify(tokenString string) (*VerificationTicket, error) {
	claims := &ticketClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTicketExpired
		}
		return nil, common.ErrTicketInvalid
	}
	if !token.Valid || claims.Subject == "" || claims.CFCode == "" ||
		claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return nil, common.ErrTicketInvalid
	}
	return &VerificationTicket{
		StudentID: claims.Subject,
		CFCode:    claims.CFCode,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
