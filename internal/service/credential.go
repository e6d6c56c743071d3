package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/superio/interview-server-go/internal/config"
	apperrors "github.com/superio/interview-server-go/internal/errors"
	"github.com/superio/interview-server-go/internal/metrics"
	"github.com/superio/interview-server-go/internal/repository"
	"github.com/superio/interview-server-go/internal/token"
	"github.com/superio/interview-server-go/internal/util"
)

const (
	adHocParticipantName  = "user"
	fallbackCandidateName = "Candidate"
	fallbackJobTitle      = "the role"
	sealedMetadataScheme  = "aes-256-gcm"
)

type CredentialSettings struct {
	ServerURL        string
	APIKey           string
	APISecret        string
	DelegationSecret string
	PublicBaseURL    string
	// Hex encoded AES-256 key sealing agent dispatch metadata. Required for
	// interview-bound issuance.
	AgentMetadataKey string
}

type ConnectionRequest struct {
	InterviewID string
	AgentName   string
}

type ConnectionDetails struct {
	ServerURL        string `json:"serverUrl"`
	RoomName         string `json:"roomName"`
	ParticipantToken string `json:"participantToken"`
	ParticipantName  string `json:"participantName"`
}

// AgentMetadata is handed to the AI interviewer through its dispatch
// configuration. It is the only place the delegation token appears.
type AgentMetadata struct {
	InterviewID     string `json:"interviewId"`
	CandidateName   string `json:"candidateName"`
	JobTitle        string `json:"jobTitle"`
	DelegationToken string `json:"delegationToken,omitempty"`
	APIURL          string `json:"apiUrl"`
	SystemPrompt    string `json:"systemPrompt"`
	Greeting        string `json:"greeting"`
}

// ParticipantMetadata is embedded in the candidate-facing credential.
type ParticipantMetadata struct {
	InterviewID   string `json:"interviewId"`
	CandidateName string `json:"candidateName"`
	JobTitle      string `json:"jobTitle"`
}

type sealedMetadata struct {
	Scheme string `json:"enc"`
	Data   string `json:"data"`
}

type CredentialService struct {
	settings     CredentialSettings
	interviews   repository.InterviewRepository
	users        repository.UserRepository
	jobs         repository.JobRepository
	participants *token.ParticipantIssuer
	delegation   *token.DelegationSigner
}

func NewCredentialService(
	settings CredentialSettings,
	interviews repository.InterviewRepository,
	users repository.UserRepository,
	jobs repository.JobRepository,
) *CredentialService {
	return &CredentialService{
		settings:     settings,
		interviews:   interviews,
		users:        users,
		jobs:         jobs,
		participants: token.NewParticipantIssuer(settings.APIKey, settings.APISecret),
		delegation:   token.NewDelegationSigner(settings.DelegationSecret),
	}
}

func (s *CredentialService) checkConfigured(interviewBound bool) error {
	if s.settings.ServerURL == "" || s.settings.APIKey == "" || s.settings.APISecret == "" {
		return apperrors.Configuration("LiveKit configuration missing")
	}
	if interviewBound {
		if s.settings.DelegationSecret == "" {
			return apperrors.Configuration("Delegation secret missing")
		}
		if s.settings.PublicBaseURL == "" {
			return apperrors.Configuration("Public base URL missing")
		}
		if s.settings.AgentMetadataKey == "" {
			return apperrors.Configuration("Agent metadata key missing")
		}
	}
	return nil
}

// Issue mints a fresh participant credential. Interview-bound credentials
// share the room interview_room_<id> so every participant of an interview
// meets in the same place; missing interview data only degrades metadata.
func (s *CredentialService) Issue(ctx context.Context, req ConnectionRequest) (_ *ConnectionDetails, err error) {
	ctx, span := tracer.Start(ctx, "CredentialService.Issue")
	defer func() { endSpan(span, err) }()

	if err := s.checkConfigured(req.InterviewID != ""); err != nil {
		return nil, err
	}

	identity := "voice_assistant_user_" + uuid.NewString()
	grant := token.ParticipantGrant{
		Identity: identity,
		Name:     adHocParticipantName,
		TTL:      config.ParticipantTokenTTL,
	}

	if req.InterviewID == "" {
		suffix, err := util.RandomRoomSuffix()
		if err != nil {
			return nil, fmt.Errorf("generate room name: %w", err)
		}
		grant.Room = fmt.Sprintf("voice_assistant_room_%d", suffix)
		if req.AgentName != "" {
			grant.Agent = &token.AgentDispatch{AgentName: req.AgentName}
		}
	} else {
		span.SetAttributes(attribute.String("interview.id", req.InterviewID))

		agentMeta := s.resolveAgentMetadata(ctx, req.InterviewID)
		participantJSON, err := json.Marshal(ParticipantMetadata{
			InterviewID:   agentMeta.InterviewID,
			CandidateName: agentMeta.CandidateName,
			JobTitle:      agentMeta.JobTitle,
		})
		if err != nil {
			return nil, fmt.Errorf("marshal participant metadata: %w", err)
		}

		agentPayload, err := s.encodeAgentMetadata(agentMeta)
		if err != nil {
			return nil, err
		}

		grant.Room = "interview_room_" + req.InterviewID
		grant.Name = agentMeta.CandidateName
		grant.Metadata = string(participantJSON)
		grant.Agent = &token.AgentDispatch{AgentName: req.AgentName, Metadata: agentPayload}
	}

	participantToken, err := s.participants.Issue(grant)
	if err != nil {
		return nil, fmt.Errorf("issue participant token: %w", err)
	}

	metrics.CredentialIssued(req.InterviewID != "")
	log.Info().
		Str("interviewId", req.InterviewID).
		Str("roomName", grant.Room).
		Str("identity", identity).
		Bool("agentDispatch", grant.Agent != nil && grant.Agent.AgentName != "").
		Msg("connection details issued")

	return &ConnectionDetails{
		ServerURL:        s.settings.ServerURL,
		RoomName:         grant.Room,
		ParticipantToken: participantToken,
		ParticipantName:  grant.Name,
	}, nil
}

// resolveAgentMetadata re-reads the interview, candidate and job. Any lookup
// failure falls back to placeholder names and omits the delegation token.
func (s *CredentialService) resolveAgentMetadata(ctx context.Context, interviewID string) (meta AgentMetadata) {
	meta = AgentMetadata{
		InterviewID:   interviewID,
		CandidateName: fallbackCandidateName,
		JobTitle:      fallbackJobTitle,
		APIURL:        s.settings.PublicBaseURL + "/interview/llm-info/" + interviewID,
	}
	defer func() {
		meta.SystemPrompt = interviewerPrompt(meta.CandidateName, meta.JobTitle)
		meta.Greeting = interviewerGreeting(meta.CandidateName, meta.JobTitle)
	}()

	if !util.IsValidUUID(interviewID) {
		log.Warn().Str("interviewId", interviewID).Msg("interview id is not a UUID, issuing with default metadata")
		return meta
	}

	interview, err := s.interviews.FindByID(ctx, interviewID)
	if err != nil || interview == nil {
		log.Warn().Err(err).Str("interviewId", interviewID).Msg("interview not resolved, issuing with default metadata")
		return meta
	}

	if user, err := s.users.FindByID(ctx, interview.CandidateID); err == nil && user != nil && user.Name != "" {
		meta.CandidateName = user.Name
	} else {
		log.Warn().Err(err).Str("interviewId", interviewID).Msg("candidate not resolved")
	}

	if job, err := s.jobs.FindByID(ctx, interview.JobID); err == nil && job != nil && job.Title != "" {
		meta.JobTitle = job.Title
	} else {
		log.Warn().Err(err).Str("interviewId", interviewID).Msg("job not resolved")
	}

	delegationToken, err := s.delegation.Sign(interview.RecruiterID, interview.ID)
	if err != nil {
		log.Warn().Err(err).Str("interviewId", interviewID).Msg("delegation token not issued")
		return meta
	}
	meta.DelegationToken = delegationToken
	return meta
}

// encodeAgentMetadata serializes and seals the agent payload and enforces the
// credential size limits. The payload rides inside the candidate's own token,
// so the delegation token must never appear in it unsealed.
func (s *CredentialService) encodeAgentMetadata(meta AgentMetadata) (string, error) {
	raw, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshal agent metadata: %w", err)
	}

	sealed, err := util.Seal(s.settings.AgentMetadataKey, raw)
	if err != nil {
		return "", fmt.Errorf("seal agent metadata: %w", err)
	}
	envelope, err := json.Marshal(sealedMetadata{Scheme: sealedMetadataScheme, Data: sealed})
	if err != nil {
		return "", fmt.Errorf("marshal sealed metadata: %w", err)
	}
	encoded := string(envelope)

	size := len(encoded)
	if size > config.MetadataMaxBytes {
		log.Error().Int("bytes", size).Str("interviewId", meta.InterviewID).Msg("agent metadata exceeds size limit")
		return "", apperrors.Internal("Session metadata too large")
	}
	if size > config.MetadataWarnBytes {
		log.Warn().Int("bytes", size).Str("interviewId", meta.InterviewID).Msg("agent metadata above target size")
	}
	return encoded, nil
}

// OpenAgentMetadata decodes agent dispatch metadata produced by Issue.
func OpenAgentMetadata(hexKey, encoded string) (*AgentMetadata, error) {
	var envelope sealedMetadata
	if err := json.Unmarshal([]byte(encoded), &envelope); err != nil {
		return nil, fmt.Errorf("decode agent metadata envelope: %w", err)
	}
	if envelope.Scheme != sealedMetadataScheme {
		return nil, fmt.Errorf("unsupported agent metadata scheme %q", envelope.Scheme)
	}

	raw, err := util.Open(hexKey, envelope.Data)
	if err != nil {
		return nil, err
	}

	var meta AgentMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("decode agent metadata: %w", err)
	}
	return &meta, nil
}

func interviewerPrompt(candidateName, jobTitle string) string {
	return fmt.Sprintf(
		"You are a professional AI interviewer conducting a voice interview with %s for %s. "+
			"Before you begin, fetch the interview details from apiUrl using the delegation token as a bearer token. "+
			"Ask one question at a time, tailor questions to the job description and resume, "+
			"keep answers short, and close the interview politely after about 30 minutes.",
		candidateName, jobTitle,
	)
}

func interviewerGreeting(candidateName, jobTitle string) string {
	return fmt.Sprintf("Hello %s, welcome to your interview for %s. Are you ready to begin?", candidateName, jobTitle)
}
