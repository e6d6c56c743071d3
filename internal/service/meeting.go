package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const fakeMeetingLink = "https://meet.google.com/abc-defg-hij"

type MeetingRequest struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

type Meeting struct {
	EventID string `json:"eventId"`
	Link    string `json:"meetLink"`
	Status  string `json:"status"`
}

// MeetingProvider creates the calendar event and conferencing link for an
// interview slot.
type MeetingProvider interface {
	CreateMeeting(ctx context.Context, req MeetingRequest) (*Meeting, error)
}

// FakeMeetingProvider simulates a calendar API with fixed latency and a
// constant conferencing link.
type FakeMeetingProvider struct {
	delay time.Duration
	now   func() time.Time
}

func NewFakeMeetingProvider(delay time.Duration) *FakeMeetingProvider {
	return &FakeMeetingProvider{delay: delay, now: time.Now}
}

func (p *FakeMeetingProvider) CreateMeeting(ctx context.Context, req MeetingRequest) (*Meeting, error) {
	if p.delay > 0 {
		timer := time.NewTimer(p.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return &Meeting{
		EventID: fmt.Sprintf("mock-event-id-%d", p.now().UnixMilli()),
		Link:    fakeMeetingLink,
		Status:  "confirmed",
	}, nil
}

// HTTPMeetingProvider creates events through a calendar gateway that accepts
// POST {baseURL}/events and answers with {eventId, meetLink, status}.
type HTTPMeetingProvider struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPMeetingProvider(baseURL, token string, timeout time.Duration) *HTTPMeetingProvider {
	return &HTTPMeetingProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type meetingEventPayload struct {
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Start       string `json:"start"`
	End         string `json:"end"`
}

func (p *HTTPMeetingProvider) CreateMeeting(ctx context.Context, req MeetingRequest) (*Meeting, error) {
	body, err := json.Marshal(meetingEventPayload{
		Summary:     req.Summary,
		Description: req.Description,
		Start:       req.Start.UTC().Format(time.RFC3339),
		End:         req.End.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	endpoint := p.baseURL + "/events"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.token)
	}

	start := time.Now()
	resp, err := p.client.Do(httpReq)
	elapsed := time.Since(start)

	if err != nil {
		log.Error().
			Err(err).
			Str("url", endpoint).
			Dur("elapsed", elapsed).
			Msg("meeting provider request error")
		return nil, fmt.Errorf("meeting request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error().
			Str("url", endpoint).
			Int("status", resp.StatusCode).
			Dur("elapsed", elapsed).
			Msg("meeting provider rejected request")
		return nil, fmt.Errorf("meeting request failed with status %d", resp.StatusCode)
	}

	var meeting Meeting
	if err := json.NewDecoder(resp.Body).Decode(&meeting); err != nil {
		return nil, fmt.Errorf("decode meeting response: %w", err)
	}
	if meeting.Link == "" {
		return nil, fmt.Errorf("meeting response has no link")
	}

	log.Info().
		Str("eventId", meeting.EventID).
		Int("status", resp.StatusCode).
		Dur("elapsed", elapsed).
		Msg("meeting created")

	return &meeting, nil
}
