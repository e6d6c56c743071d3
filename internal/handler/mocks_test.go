package handler

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/superio/interview-server-go/internal/database"
	"github.com/superio/interview-server-go/internal/model"
	"github.com/superio/interview-server-go/internal/repository"
)

type mockInterviewRepo struct {
	mock.Mock
}

func (m *mockInterviewRepo) FindByID(ctx context.Context, id string) (*model.Interview, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Interview), args.Error(1)
}

func (m *mockInterviewRepo) ListByCandidate(ctx context.Context, candidateID string, limit, offset int) ([]model.InterviewSummary, error) {
	args := m.Called(ctx, candidateID, limit, offset)
	return args.Get(0).([]model.InterviewSummary), args.Error(1)
}

func (m *mockInterviewRepo) ListByRecruiter(ctx context.Context, recruiterID string, limit, offset int) ([]model.InterviewSummary, error) {
	args := m.Called(ctx, recruiterID, limit, offset)
	return args.Get(0).([]model.InterviewSummary), args.Error(1)
}

func (m *mockInterviewRepo) Create(ctx context.Context, params model.CreateInterviewParams) (*model.Interview, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Interview), args.Error(1)
}

func (m *mockInterviewRepo) SetEvaluationOnce(ctx context.Context, id string, evaluation json.RawMessage) (bool, error) {
	args := m.Called(ctx, id, evaluation)
	return args.Bool(0), args.Error(1)
}

func (m *mockInterviewRepo) ReplaceEvaluation(ctx context.Context, id string, evaluation json.RawMessage) (bool, error) {
	args := m.Called(ctx, id, evaluation)
	return args.Bool(0), args.Error(1)
}

func (m *mockInterviewRepo) Cancel(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockInterviewRepo) MarkExpired(ctx context.Context, scheduledBeforeMs int64) (int64, error) {
	args := m.Called(ctx, scheduledBeforeMs)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockInterviewRepo) WithTx(tx *sqlx.Tx) repository.InterviewRepository {
	return m
}

type mockApplicationRepo struct {
	mock.Mock
}

func (m *mockApplicationRepo) FindByID(ctx context.Context, id string) (*model.Application, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Application), args.Error(1)
}

func (m *mockApplicationRepo) UpdateStatus(ctx context.Context, id string, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockApplicationRepo) WithTx(tx *sqlx.Tx) repository.ApplicationRepository {
	return m
}

type mockJobRepo struct {
	mock.Mock
}

func (m *mockJobRepo) FindByID(ctx context.Context, id string) (*model.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Job), args.Error(1)
}

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

type mockNotificationRepo struct {
	mock.Mock
}

func (m *mockNotificationRepo) Create(ctx context.Context, params model.CreateNotificationParams) (*model.Notification, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Notification), args.Error(1)
}

func (m *mockNotificationRepo) WithTx(tx *sqlx.Tx) repository.NotificationRepository {
	return m
}

type mockResumeExtractor struct {
	mock.Mock
}

func (m *mockResumeExtractor) ExtractText(ctx context.Context, ref string) (string, error) {
	args := m.Called(ctx, ref)
	return args.String(0), args.Error(1)
}

type nopPublisher struct{}

func (nopPublisher) Publish(ctx context.Context, notification *model.Notification) {}

type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn database.TxFunc) error {
	return fn(nil)
}
