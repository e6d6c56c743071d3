// Package token mints and verifies the JWTs this service deals in: session
// credentials for the real-time media server, delegation credentials for the
// AI agent, and the platform's own login tokens.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// VideoGrant is the room permission block understood by LiveKit-compatible
// media servers. It carries no admin-level grants.
type VideoGrant struct {
	RoomJoin          bool     `json:"roomJoin"`
	Room              string   `json:"room"`
	CanPublish        bool     `json:"canPublish"`
	CanPublishSources []string `json:"canPublishSources,omitempty"`
	CanPublishData    bool     `json:"canPublishData"`
	CanSubscribe      bool     `json:"canSubscribe"`
}

type AgentDispatch struct {
	AgentName string `json:"agentName,omitempty"`
	Metadata  string `json:"metadata,omitempty"`
}

type RoomConfiguration struct {
	Agents []AgentDispatch `json:"agents,omitempty"`
}

type ParticipantClaims struct {
	Name       string             `json:"name,omitempty"`
	Video      *VideoGrant        `json:"video,omitempty"`
	Metadata   string             `json:"metadata,omitempty"`
	RoomConfig *RoomConfiguration `json:"roomConfig,omitempty"`
	jwt.RegisteredClaims
}

// ParticipantGrant describes one participant credential.
type ParticipantGrant struct {
	Identity string
	Name     string
	Room     string
	Metadata string
	Agent    *AgentDispatch
	TTL      time.Duration
}

type ParticipantIssuer struct {
	apiKey    string
	apiSecret []byte
	now       func() time.Time
}

func NewParticipantIssuer(apiKey, apiSecret string) *ParticipantIssuer {
	return &ParticipantIssuer{
		apiKey:    apiKey,
		apiSecret: []byte(apiSecret),
		now:       time.Now,
	}
}

// Issue signs an HS256 credential that lets the holder join exactly one room
// with microphone publishing, data publishing and subscribing.
func (i *ParticipantIssuer) Issue(grant ParticipantGrant) (string, error) {
	if grant.Identity == "" || grant.Room == "" {
		return "", fmt.Errorf("identity and room are required")
	}
	if grant.TTL <= 0 {
		return "", fmt.Errorf("ttl must be positive")
	}

	now := i.now()
	claims := ParticipantClaims{
		Name: grant.Name,
		Video: &VideoGrant{
			RoomJoin:          true,
			Room:              grant.Room,
			CanPublish:        true,
			CanPublishSources: []string{"microphone"},
			CanPublishData:    true,
			CanSubscribe:      true,
		},
		Metadata: grant.Metadata,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.apiKey,
			Subject:   grant.Identity,
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(grant.TTL)),
		},
	}
	if grant.Agent != nil {
		claims.RoomConfig = &RoomConfiguration{Agents: []AgentDispatch{*grant.Agent}}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.apiSecret)
	if err != nil {
		return "", fmt.Errorf("sign participant token: %w", err)
	}
	return signed, nil
}

// Parse verifies a credential minted by this issuer.
func (i *ParticipantIssuer) Parse(tokenString string) (*ParticipantClaims, error) {
	claims := &ParticipantClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return i.apiSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.apiKey),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, classify(err)
	}
	return claims, nil
}

func classify(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return ErrTokenExpired
	}
	return fmt.Errorf("%w: %v", ErrInvalidToken, err)
}
