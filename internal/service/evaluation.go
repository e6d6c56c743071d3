package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/superio/interview-server-go/internal/errors"
	"github.com/superio/interview-server-go/internal/lifecycle"
	"github.com/superio/interview-server-go/internal/metrics"
	"github.com/superio/interview-server-go/internal/model"
	"github.com/superio/interview-server-go/internal/repository"
)

// evaluationSchemaJSON matches the report the interviewer agent posts.
// recommendation is normally {decision, rational, nextStepAdvice}; a bare
// decision string is also accepted.
const evaluationSchemaJSON = `{
	"type": "object",
	"required": ["ratings", "summary", "recommendation"],
	"properties": {
		"ratings": {
			"type": "object",
			"minProperties": 1,
			"additionalProperties": {"type": "number", "minimum": 0, "maximum": 100}
		},
		"summary": {"type": "string", "minLength": 1},
		"recommendation": {
			"oneOf": [
				{"type": "string", "minLength": 1},
				{
					"type": "object",
					"required": ["decision"],
					"properties": {
						"decision": {"type": "string", "minLength": 1},
						"rational": {"type": "string"},
						"nextStepAdvice": {"type": "string"}
					}
				}
			]
		},
		"jobDescriptionMatch": {
			"type": "object",
			"properties": {
				"matchedKeywords": {"type": "array", "items": {"type": "string"}},
				"matchScore": {"type": "number", "minimum": 0, "maximum": 100}
			}
		},
		"sessionMetadata": {
			"type": "object",
			"properties": {
				"durationFormatted": {"type": "string"},
				"totalTokens": {"type": "number", "minimum": 0},
				"sentimentTrend": {"type": "string"},
				"transcriptSummary": {"type": "string"}
			}
		}
	}
}`

var evaluationSchema = gojsonschema.NewStringLoader(evaluationSchemaJSON)

// InterviewRecord is the role-aware single interview read.
type InterviewRecord struct {
	*model.Interview
	Lifecycle lifecycle.Lifecycle `json:"lifecycle"`
}

type EvaluationService struct {
	interviews repository.InterviewRepository
	now        func() time.Time
}

func NewEvaluationService(interviews repository.InterviewRepository) *EvaluationService {
	return &EvaluationService{interviews: interviews, now: time.Now}
}

// ValidateEvaluation checks payload against the evaluation schema.
func ValidateEvaluation(payload json.RawMessage) error {
	if len(payload) == 0 {
		return apperrors.MissingRequired("evaluation")
	}

	result, err := gojsonschema.Validate(evaluationSchema, gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return apperrors.ValidationError("Evaluation must be a JSON object").WithCause(err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return apperrors.ValidationError("Invalid evaluation: " + strings.Join(problems, "; ")).
			WithDetails(problems)
	}
	return nil
}

// Submit stores the evaluation exactly once. A second submission is a
// Conflict; use Override to replace an existing evaluation.
func (s *EvaluationService) Submit(ctx context.Context, actor *model.Identity, interviewID string, payload json.RawMessage) (err error) {
	ctx, span := tracer.Start(ctx, "EvaluationService.Submit")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("interview.id", interviewID))

	if err := s.authorize(ctx, actor, interviewID); err != nil {
		return err
	}
	if err := ValidateEvaluation(payload); err != nil {
		return err
	}

	applied, err := s.interviews.SetEvaluationOnce(ctx, interviewID, payload)
	if err != nil {
		return apperrors.Database(err)
	}
	if !applied {
		existing, err := s.interviews.FindByID(ctx, interviewID)
		if err != nil {
			return apperrors.Database(err)
		}
		if existing == nil {
			return apperrors.NotFound("Interview")
		}
		metrics.EvaluationRecorded("conflict")
		return apperrors.Conflict("Evaluation already submitted")
	}

	metrics.EvaluationRecorded("stored")
	log.Info().
		Str("interviewId", interviewID).
		Str("actorId", actor.ID).
		Bool("delegated", actor.Delegated).
		Msg("evaluation stored")
	return nil
}

// Override replaces the stored evaluation wholesale.
func (s *EvaluationService) Override(ctx context.Context, actor *model.Identity, interviewID string, payload json.RawMessage) (err error) {
	ctx, span := tracer.Start(ctx, "EvaluationService.Override")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("interview.id", interviewID))

	if err := s.authorize(ctx, actor, interviewID); err != nil {
		return err
	}
	if err := ValidateEvaluation(payload); err != nil {
		return err
	}

	applied, err := s.interviews.ReplaceEvaluation(ctx, interviewID, payload)
	if err != nil {
		return apperrors.Database(err)
	}
	if !applied {
		return apperrors.NotFound("Interview")
	}

	metrics.EvaluationRecorded("override")
	log.Warn().
		Str("interviewId", interviewID).
		Str("actorId", actor.ID).
		Msg("evaluation overridden")
	return nil
}

func (s *EvaluationService) authorize(ctx context.Context, actor *model.Identity, interviewID string) error {
	if !actor.IsRecruiter() {
		return apperrors.Unauthorized("Only the recruiter can submit evaluations")
	}

	interview, err := s.interviews.FindByID(ctx, interviewID)
	if err != nil {
		return apperrors.Database(err)
	}
	if interview == nil {
		return apperrors.NotFound("Interview")
	}
	if !actor.CanAccess(interview) {
		return apperrors.Unauthorized("Not the recruiter of this interview")
	}
	return nil
}

// Get returns the interview with its derived lifecycle to either party.
func (s *EvaluationService) Get(ctx context.Context, actor *model.Identity, interviewID string) (*InterviewRecord, error) {
	interview, err := s.interviews.FindByID(ctx, interviewID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if interview == nil {
		return nil, apperrors.NotFound("Interview")
	}
	if !actor.CanAccess(interview) {
		return nil, apperrors.Unauthorized(fmt.Sprintf("Not a party to interview %s", interviewID))
	}

	return &InterviewRecord{
		Interview: interview,
		Lifecycle: lifecycle.ResolveInterview(interview, s.now()),
	}, nil
}
