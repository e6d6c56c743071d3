package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/superio/interview-server-go/internal/errors"
	"github.com/superio/interview-server-go/internal/lifecycle"
	"github.com/superio/interview-server-go/internal/model"
)

var validEvaluation = json.RawMessage(`{
	"ratings": {"communication": 80, "technicalKnowledge": 72.5, "problemSolving": 65},
	"summary": "Solid fundamentals, hesitant on system design.",
	"jobDescriptionMatch": {"matchedKeywords": ["Go", "PostgreSQL"], "matchScore": 70},
	"recommendation": {
		"decision": "Hire",
		"rational": "Meets the core requirements.",
		"nextStepAdvice": "Schedule a system design round."
	},
	"sessionMetadata": {
		"durationFormatted": "28m 10s",
		"totalTokens": 5120,
		"sentimentTrend": "Positive",
		"transcriptSummary": "Covered backend experience and a debugging exercise."
	}
}`)

func evaluatedInterview() *model.Interview {
	return &model.Interview{
		ID: "int-1", CandidateID: "user-1", RecruiterID: "company-1",
		Status: model.InterviewStatusScheduled,
	}
}

func TestValidateEvaluation(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		valid   bool
	}{
		{"complete payload", string(validEvaluation), true},
		{"extra fields allowed", `{"ratings":{"a":1},"summary":"s","recommendation":"r","notes":"x"}`, true},
		{"missing summary", `{"ratings":{"a":1},"recommendation":"r"}`, false},
		{"rating above range", `{"ratings":{"a":101},"summary":"s","recommendation":"r"}`, false},
		{"rating not a number", `{"ratings":{"a":"good"},"summary":"s","recommendation":"r"}`, false},
		{"empty ratings", `{"ratings":{},"summary":"s","recommendation":"r"}`, false},
		{"not an object", `[1,2,3]`, false},
		{"decision string accepted", `{"ratings":{"a":1},"summary":"s","recommendation":"Hire"}`, true},
		{"recommendation without decision", `{"ratings":{"a":1},"summary":"s","recommendation":{"rational":"r"}}`, false},
		{"empty decision", `{"ratings":{"a":1},"summary":"s","recommendation":{"decision":""}}`, false},
		{"match score above range", `{"ratings":{"a":1},"summary":"s","recommendation":"r","jobDescriptionMatch":{"matchScore":140}}`, false},
		{"session metadata not an object", `{"ratings":{"a":1},"summary":"s","recommendation":"r","sessionMetadata":"long"}`, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateEvaluation(json.RawMessage(tc.payload))
			if tc.valid {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation), "got %v", err)
		})
	}

	t.Run("empty payload", func(t *testing.T) {
		err := ValidateEvaluation(nil)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeMissingRequired))
	})
}

func TestEvaluationService_Submit(t *testing.T) {
	ctx := context.Background()
	recruiter := &model.Identity{ID: "company-1", Role: model.RoleRecruiter}
	agent := &model.Identity{ID: "company-1", Role: model.RoleRecruiter, Delegated: true, InterviewID: "int-1"}

	t.Run("first submission is stored", func(t *testing.T) {
		repo := new(mockInterviewRepo)
		repo.On("FindByID", mock.Anything, "int-1").Return(evaluatedInterview(), nil)
		repo.On("SetEvaluationOnce", mock.Anything, "int-1", validEvaluation).Return(true, nil)

		err := NewEvaluationService(repo).Submit(ctx, agent, "int-1", validEvaluation)
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("second submission conflicts", func(t *testing.T) {
		repo := new(mockInterviewRepo)
		repo.On("FindByID", mock.Anything, "int-1").Return(evaluatedInterview(), nil)
		repo.On("SetEvaluationOnce", mock.Anything, "int-1", validEvaluation).Return(false, nil)

		err := NewEvaluationService(repo).Submit(ctx, recruiter, "int-1", validEvaluation)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeConflict))
	})

	t.Run("interview deleted between read and write", func(t *testing.T) {
		repo := new(mockInterviewRepo)
		repo.On("FindByID", mock.Anything, "int-1").Return(evaluatedInterview(), nil).Once()
		repo.On("SetEvaluationOnce", mock.Anything, "int-1", validEvaluation).Return(false, nil)
		repo.On("FindByID", mock.Anything, "int-1").Return(nil, nil).Once()

		err := NewEvaluationService(repo).Submit(ctx, recruiter, "int-1", validEvaluation)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
	})

	t.Run("candidate is unauthorized", func(t *testing.T) {
		repo := new(mockInterviewRepo)

		err := NewEvaluationService(repo).Submit(ctx, candidate, "int-1", validEvaluation)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUnauthorized))
		repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("delegation bound to another interview is unauthorized", func(t *testing.T) {
		repo := new(mockInterviewRepo)
		repo.On("FindByID", mock.Anything, "int-1").Return(evaluatedInterview(), nil)

		other := &model.Identity{ID: "company-1", Role: model.RoleRecruiter, Delegated: true, InterviewID: "int-2"}
		err := NewEvaluationService(repo).Submit(ctx, other, "int-1", validEvaluation)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUnauthorized))
	})

	t.Run("invalid payload is rejected before writing", func(t *testing.T) {
		repo := new(mockInterviewRepo)
		repo.On("FindByID", mock.Anything, "int-1").Return(evaluatedInterview(), nil)

		err := NewEvaluationService(repo).Submit(ctx, recruiter, "int-1", json.RawMessage(`{"summary":"only"}`))
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))
		repo.AssertNotCalled(t, "SetEvaluationOnce", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing interview", func(t *testing.T) {
		repo := new(mockInterviewRepo)
		repo.On("FindByID", mock.Anything, "nope").Return(nil, nil)

		err := NewEvaluationService(repo).Submit(ctx, recruiter, "nope", validEvaluation)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
	})
}

func TestEvaluationService_Override(t *testing.T) {
	ctx := context.Background()
	recruiter := &model.Identity{ID: "company-1", Role: model.RoleRecruiter}

	repo := new(mockInterviewRepo)
	repo.On("FindByID", mock.Anything, "int-1").Return(evaluatedInterview(), nil)
	repo.On("ReplaceEvaluation", mock.Anything, "int-1", validEvaluation).Return(true, nil)

	require.NoError(t, NewEvaluationService(repo).Override(ctx, recruiter, "int-1", validEvaluation))
	repo.AssertNotCalled(t, "SetEvaluationOnce", mock.Anything, mock.Anything, mock.Anything)
}

func TestEvaluationService_Get(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	interview := evaluatedInterview()
	interview.ScheduledAt = now.Add(-30 * time.Minute).UnixMilli()

	repo := new(mockInterviewRepo)
	repo.On("FindByID", mock.Anything, "int-1").Return(interview, nil)
	svc := NewEvaluationService(repo)
	svc.now = func() time.Time { return now }

	record, err := svc.Get(ctx, candidate, "int-1")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.InProgress, record.Lifecycle)

	_, err = svc.Get(ctx, &model.Identity{ID: "company-2", Role: model.RoleRecruiter}, "int-1")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUnauthorized))
}
