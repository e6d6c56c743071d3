package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/superio/interview-server-go/internal/config"
)

// DelegationAudience scopes delegation credentials to the interview agent.
const DelegationAudience = "interview-agent"

// DelegationClaims let an agent act for a recruiter on one interview.
type DelegationClaims struct {
	InterviewID string `json:"iid,omitempty"`
	jwt.RegisteredClaims
}

type DelegationSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewDelegationSigner(secret string) *DelegationSigner {
	return &DelegationSigner{
		secret: []byte(secret),
		ttl:    config.DelegationTokenTTL,
		now:    time.Now,
	}
}

func (s *DelegationSigner) Sign(recruiterID, interviewID string) (string, error) {
	if recruiterID == "" {
		return "", fmt.Errorf("recruiter id is required")
	}

	now := s.now()
	claims := DelegationClaims{
		InterviewID: interviewID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   recruiterID,
			Audience:  jwt.ClaimStrings{DelegationAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign delegation token: %w", err)
	}
	return signed, nil
}

func (s *DelegationSigner) Verify(tokenString string) (*DelegationClaims, error) {
	claims := &DelegationClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(DelegationAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, classify(err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}
