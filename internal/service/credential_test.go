package service

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/superio/interview-server-go/internal/config"
	apperrors "github.com/superio/interview-server-go/internal/errors"
	"github.com/superio/interview-server-go/internal/model"
	"github.com/superio/interview-server-go/internal/token"
)

const (
	testMetadataKey    = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
	boundInterviewID   = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
	unknownInterviewID = "0b1c2d3e-4f50-4617-8293-a4b5c6d7e8f9"
)

func testCredentialSettings() CredentialSettings {
	return CredentialSettings{
		ServerURL:        "wss://media.example.com",
		APIKey:           "APIkey123",
		APISecret:        "livekit-secret-livekit-secret-xx",
		DelegationSecret: "delegation-secret-delegation-sec",
		PublicBaseURL:    "https://api.example.com",
		AgentMetadataKey: testMetadataKey,
	}
}

type credentialFixture struct {
	svc        *CredentialService
	interviews *mockInterviewRepo
	users      *mockUserRepo
	jobs       *mockJobRepo
}

func newCredentialFixture(settings CredentialSettings) *credentialFixture {
	f := &credentialFixture{
		interviews: new(mockInterviewRepo),
		users:      new(mockUserRepo),
		jobs:       new(mockJobRepo),
	}
	f.svc = NewCredentialService(settings, f.interviews, f.users, f.jobs)
	return f
}

func (f *credentialFixture) expectInterview() {
	f.interviews.On("FindByID", mock.Anything, boundInterviewID).Return(&model.Interview{
		ID: boundInterviewID, CandidateID: "user-1", RecruiterID: "company-1", JobID: "job-1",
	}, nil)
	f.users.On("FindByID", mock.Anything, "user-1").Return(&model.User{ID: "user-1", Name: "Ana"}, nil)
	f.jobs.On("FindByID", mock.Anything, "job-1").Return(&model.Job{ID: "job-1", Title: "Backend Engineer"}, nil)
}

func agentMetadataFrom(t *testing.T, f *credentialFixture, participantToken, key string) (*token.ParticipantClaims, *AgentMetadata) {
	t.Helper()
	claims, err := f.svc.participants.Parse(participantToken)
	require.NoError(t, err)
	require.NotNil(t, claims.RoomConfig)
	require.Len(t, claims.RoomConfig.Agents, 1)

	meta, err := OpenAgentMetadata(key, claims.RoomConfig.Agents[0].Metadata)
	require.NoError(t, err)
	return claims, meta
}

func TestCredentialService_InterviewBound(t *testing.T) {
	ctx := context.Background()

	t.Run("shared room with candidate name and recruiter delegation", func(t *testing.T) {
		f := newCredentialFixture(testCredentialSettings())
		f.expectInterview()

		details, err := f.svc.Issue(ctx, ConnectionRequest{InterviewID: boundInterviewID, AgentName: "interviewer"})
		require.NoError(t, err)

		assert.Equal(t, "Ana", details.ParticipantName)
		assert.Equal(t, "interview_room_"+boundInterviewID, details.RoomName)
		assert.Equal(t, "wss://media.example.com", details.ServerURL)

		claims, meta := agentMetadataFrom(t, f, details.ParticipantToken, testMetadataKey)
		assert.Equal(t, "interview_room_"+boundInterviewID, claims.Video.Room)
		assert.Equal(t, "interviewer", claims.RoomConfig.Agents[0].AgentName)
		assert.Equal(t, "https://api.example.com/interview/llm-info/"+boundInterviewID, meta.APIURL)
		assert.Equal(t, "Backend Engineer", meta.JobTitle)
		assert.Contains(t, meta.SystemPrompt, "Ana")

		delegation, err := f.svc.delegation.Verify(meta.DelegationToken)
		require.NoError(t, err)
		assert.Equal(t, "company-1", delegation.Subject)
		assert.Equal(t, boundInterviewID, delegation.InterviewID)

		assert.NotContains(t, claims.Metadata, "delegationToken")
		assert.Contains(t, claims.Metadata, `"candidateName":"Ana"`)
	})

	t.Run("every call mints a new identity for the same room", func(t *testing.T) {
		f := newCredentialFixture(testCredentialSettings())
		f.expectInterview()

		first, err := f.svc.Issue(ctx, ConnectionRequest{InterviewID: boundInterviewID})
		require.NoError(t, err)
		second, err := f.svc.Issue(ctx, ConnectionRequest{InterviewID: boundInterviewID})
		require.NoError(t, err)

		assert.Equal(t, first.RoomName, second.RoomName)
		assert.NotEqual(t, first.ParticipantToken, second.ParticipantToken)

		a, err := f.svc.participants.Parse(first.ParticipantToken)
		require.NoError(t, err)
		b, err := f.svc.participants.Parse(second.ParticipantToken)
		require.NoError(t, err)
		assert.NotEqual(t, a.Subject, b.Subject)
		assert.True(t, strings.HasPrefix(a.Subject, "voice_assistant_user_"))
	})

	t.Run("unresolved interview degrades metadata", func(t *testing.T) {
		f := newCredentialFixture(testCredentialSettings())
		f.interviews.On("FindByID", mock.Anything, unknownInterviewID).Return(nil, nil)

		details, err := f.svc.Issue(ctx, ConnectionRequest{InterviewID: unknownInterviewID})
		require.NoError(t, err)
		assert.Equal(t, "Candidate", details.ParticipantName)
		assert.Equal(t, "interview_room_"+unknownInterviewID, details.RoomName)

		_, meta := agentMetadataFrom(t, f, details.ParticipantToken, testMetadataKey)
		assert.Equal(t, "the role", meta.JobTitle)
		assert.Empty(t, meta.DelegationToken)
	})

	t.Run("delegation token is not readable from the participant token", func(t *testing.T) {
		f := newCredentialFixture(testCredentialSettings())
		f.expectInterview()

		details, err := f.svc.Issue(ctx, ConnectionRequest{InterviewID: boundInterviewID, AgentName: "interviewer"})
		require.NoError(t, err)

		_, meta := agentMetadataFrom(t, f, details.ParticipantToken, testMetadataKey)
		require.NotEmpty(t, meta.DelegationToken)

		parts := strings.Split(details.ParticipantToken, ".")
		require.Len(t, parts, 3)
		payload, err := base64.RawURLEncoding.DecodeString(parts[1])
		require.NoError(t, err)
		assert.NotContains(t, string(payload), meta.DelegationToken)
		assert.NotContains(t, string(payload), "delegationToken")
		assert.Contains(t, string(payload), sealedMetadataScheme)
	})

	t.Run("non uuid interview id degrades without a lookup", func(t *testing.T) {
		f := newCredentialFixture(testCredentialSettings())

		details, err := f.svc.Issue(ctx, ConnectionRequest{InterviewID: "I"})
		require.NoError(t, err)
		assert.Equal(t, "interview_room_I", details.RoomName)
		assert.Equal(t, "Candidate", details.ParticipantName)

		_, meta := agentMetadataFrom(t, f, details.ParticipantToken, testMetadataKey)
		assert.Empty(t, meta.DelegationToken)
		f.interviews.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("sealed agent metadata opens with the key", func(t *testing.T) {
		f := newCredentialFixture(testCredentialSettings())
		f.expectInterview()

		details, err := f.svc.Issue(ctx, ConnectionRequest{InterviewID: boundInterviewID})
		require.NoError(t, err)

		claims, err := f.svc.participants.Parse(details.ParticipantToken)
		require.NoError(t, err)
		assert.NotContains(t, claims.RoomConfig.Agents[0].Metadata, "delegationToken")

		_, meta := agentMetadataFrom(t, f, details.ParticipantToken, testMetadataKey)
		assert.NotEmpty(t, meta.DelegationToken)

		_, err = OpenAgentMetadata("", claims.RoomConfig.Agents[0].Metadata)
		assert.Error(t, err)
	})

	t.Run("metadata stays under the hard ceiling", func(t *testing.T) {
		f := newCredentialFixture(testCredentialSettings())
		f.expectInterview()

		details, err := f.svc.Issue(ctx, ConnectionRequest{InterviewID: boundInterviewID})
		require.NoError(t, err)
		claims, err := f.svc.participants.Parse(details.ParticipantToken)
		require.NoError(t, err)
		assert.Less(t, len(claims.RoomConfig.Agents[0].Metadata), config.MetadataMaxBytes)
	})

	t.Run("oversize metadata is refused", func(t *testing.T) {
		f := newCredentialFixture(testCredentialSettings())
		f.interviews.On("FindByID", mock.Anything, boundInterviewID).Return(&model.Interview{
			ID: boundInterviewID, CandidateID: "user-1", RecruiterID: "company-1", JobID: "job-1",
		}, nil)
		f.users.On("FindByID", mock.Anything, "user-1").Return(&model.User{ID: "user-1", Name: "Ana"}, nil)
		f.jobs.On("FindByID", mock.Anything, "job-1").Return(&model.Job{ID: "job-1", Title: strings.Repeat("x", 2000)}, nil)

		_, err := f.svc.Issue(ctx, ConnectionRequest{InterviewID: boundInterviewID})
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInternal))
	})
}

func TestCredentialService_AdHoc(t *testing.T) {
	f := newCredentialFixture(testCredentialSettings())

	details, err := f.svc.Issue(context.Background(), ConnectionRequest{})
	require.NoError(t, err)

	assert.Equal(t, "user", details.ParticipantName)
	assert.True(t, strings.HasPrefix(details.RoomName, "voice_assistant_room_"))

	claims, err := f.svc.participants.Parse(details.ParticipantToken)
	require.NoError(t, err)
	assert.Empty(t, claims.Metadata)
	assert.Nil(t, claims.RoomConfig)
	f.interviews.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestCredentialService_Configuration(t *testing.T) {
	ctx := context.Background()

	t.Run("missing media server settings", func(t *testing.T) {
		settings := testCredentialSettings()
		settings.APISecret = ""
		f := newCredentialFixture(settings)

		_, err := f.svc.Issue(ctx, ConnectionRequest{})
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeConfiguration))
	})

	t.Run("interview-bound requests need delegation secret and base url", func(t *testing.T) {
		settings := testCredentialSettings()
		settings.DelegationSecret = ""
		f := newCredentialFixture(settings)

		_, err := f.svc.Issue(ctx, ConnectionRequest{InterviewID: boundInterviewID})
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeConfiguration))

		settings = testCredentialSettings()
		settings.PublicBaseURL = ""
		f = newCredentialFixture(settings)
		_, err = f.svc.Issue(ctx, ConnectionRequest{InterviewID: boundInterviewID})
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeConfiguration))

		f.interviews.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("interview-bound requests need the metadata key", func(t *testing.T) {
		settings := testCredentialSettings()
		settings.AgentMetadataKey = ""
		f := newCredentialFixture(settings)

		_, err := f.svc.Issue(ctx, ConnectionRequest{InterviewID: boundInterviewID})
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeConfiguration))
		f.interviews.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)

		details, err := f.svc.Issue(ctx, ConnectionRequest{})
		require.NoError(t, err)
		assert.Equal(t, "user", details.ParticipantName)
	})
}
