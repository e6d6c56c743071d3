package audit

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

type EventType string

const (
	EventInterviewSchedule   EventType = "interview_schedule"
	EventInterviewCancel     EventType = "interview_cancel"
	EventCredentialIssue     EventType = "credential_issue"
	EventEvaluationSubmit    EventType = "evaluation_submit"
	EventEvaluationOverride  EventType = "evaluation_override"
	EventDetailAccess        EventType = "detail_access"
	EventDelegationUse       EventType = "delegation_use"
	EventAuthFailure         EventType = "auth_failure"
	EventRateLimitExceed     EventType = "rate_limit_exceeded"
	EventConfigurationFailed EventType = "configuration_failure"
)

type Event struct {
	Type        EventType
	ActorID     string
	ActorRole   string
	InterviewID string
	IP          string
	UserAgent   string
	Details     map[string]interface{}
}

func Log(ctx context.Context, event Event) {
	logger := log.With().
		Str("audit", "security").
		Str("event_type", string(event.Type)).
		Time("timestamp", time.Now()).
		Logger()

	if event.ActorID != "" {
		logger = logger.With().Str("actor_id", event.ActorID).Logger()
	}
	if event.ActorRole != "" {
		logger = logger.With().Str("actor_role", event.ActorRole).Logger()
	}
	if event.InterviewID != "" {
		logger = logger.With().Str("interview_id", event.InterviewID).Logger()
	}
	if event.IP != "" {
		logger = logger.With().Str("ip", event.IP).Logger()
	}
	if event.UserAgent != "" {
		logger = logger.With().Str("user_agent", event.UserAgent).Logger()
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		logger = logger.With().Str("trace_id", sc.TraceID().String()).Logger()
	}

	logEvent := logger.Info()
	for k, v := range event.Details {
		logEvent = addField(logEvent, k, v)
	}
	logEvent.Msg("security audit event")
}

func addField(e *zerolog.Event, key string, value interface{}) *zerolog.Event {
	switch v := value.(type) {
	case string:
		return e.Str(key, v)
	case int:
		return e.Int(key, v)
	case int64:
		return e.Int64(key, v)
	case bool:
		return e.Bool(key, v)
	default:
		return e.Interface(key, v)
	}
}

func LogFromRequest(r *http.Request, event Event) {
	event.IP = ClientIP(r)
	event.UserAgent = r.UserAgent()
	Log(r.Context(), event)
}

// ClientIP returns the originating client address, preferring the first hop
// of X-Forwarded-For.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}
