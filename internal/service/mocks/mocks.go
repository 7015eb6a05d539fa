package mocks

import (
	"context"
	"time"

	"dnkquest-backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByWallet(ctx context.Context, wallet string) (*model.User, error) {
	args := m.Called(ctx, wallet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) UpdateAuthDate(ctx context.Context, wallet string, at time.Time) error {
	args := m.Called(ctx, wallet, at)
	return args.Error(0)
}

func (m *MockUserRepository) GetCompletedQuests(ctx context.Context, wallet string) ([]string, error) {
	args := m.Called(ctx, wallet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockUserRepository) GetUsers(ctx context.Context) ([]*model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.User), args.Error(1)
}

func (m *MockUserRepository) GetSocialAccounts(ctx context.Context, wallet string) (*model.SocialAccounts, error) {
	args := m.Called(ctx, wallet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SocialAccounts), args.Error(1)
}

func (m *MockUserRepository) UpsertSocialAccounts(ctx context.Context, wallet string, accounts *model.SocialAccounts) error {
	args := m.Called(ctx, wallet, accounts)
	return args.Error(0)
}

type MockQuestRepository struct {
	mock.Mock
}

func (m *MockQuestRepository) GetQuests(ctx context.Context) ([]*model.Quest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Quest), args.Error(1)
}

func (m *MockQuestRepository) GetQuestByID(ctx context.Context, questID uuid.UUID) (*model.Quest, error) {
	args := m.Called(ctx, questID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Quest), args.Error(1)
}

func (m *MockQuestRepository) CreateQuest(ctx context.Context, quest *model.Quest) error {
	args := m.Called(ctx, quest)
	return args.Error(0)
}

func (m *MockQuestRepository) UpdateQuest(ctx context.Context, quest *model.Quest) error {
	args := m.Called(ctx, quest)
	return args.Error(0)
}

func (m *MockQuestRepository) SetWhitelistWinner(ctx context.Context, questID uuid.UUID, wallet string, isWinner bool) error {
	args := m.Called(ctx, questID, wallet, isWinner)
	return args.Error(0)
}

type MockSubmissionRepository struct {
	mock.Mock
}

func (m *MockSubmissionRepository) CreateSubmission(ctx context.Context, submission *model.QuestSubmission) error {
	args := m.Called(ctx, submission)
	return args.Error(0)
}

func (m *MockSubmissionRepository) GetSubmissionByID(ctx context.Context, id uuid.UUID) (*model.QuestSubmission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.QuestSubmission), args.Error(1)
}

func (m *MockSubmissionRepository) GetSubmissions(ctx context.Context, status *model.SubmissionStatus) ([]*model.QuestSubmission, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.QuestSubmission), args.Error(1)
}

func (m *MockSubmissionRepository) GetSubmissionsByWallet(ctx context.Context, wallet string) ([]*model.QuestSubmission, error) {
	args := m.Called(ctx, wallet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.QuestSubmission), args.Error(1)
}

func (m *MockSubmissionRepository) ApproveSubmission(ctx context.Context, id uuid.UUID, reviewer string, reward int) (model.SubmissionStatus, error) {
	args := m.Called(ctx, id, reviewer, reward)
	return args.Get(0).(model.SubmissionStatus), args.Error(1)
}

func (m *MockSubmissionRepository) RejectSubmission(ctx context.Context, id uuid.UUID, reviewer string, reason string) (model.SubmissionStatus, error) {
	args := m.Called(ctx, id, reviewer, reason)
	return args.Get(0).(model.SubmissionStatus), args.Error(1)
}

type MockSubmissionQueue struct {
	mock.Mock
}

func (m *MockSubmissionQueue) CreateSubmission(ctx context.Context, questID uuid.UUID, wallet string, proofs map[int]string) (*model.QuestSubmission, error) {
	args := m.Called(ctx, questID, wallet, proofs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.QuestSubmission), args.Error(1)
}

func (m *MockSubmissionQueue) GetHistory(ctx context.Context, wallet string) ([]*model.QuestSubmission, error) {
	args := m.Called(ctx, wallet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.QuestSubmission), args.Error(1)
}

func (m *MockSubmissionQueue) GetSubmissions(ctx context.Context, status *model.SubmissionStatus) ([]*model.QuestSubmission, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.QuestSubmission), args.Error(1)
}

func (m *MockSubmissionQueue) GetSubmissionByID(ctx context.Context, id uuid.UUID) (*model.QuestSubmission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.QuestSubmission), args.Error(1)
}

func (m *MockSubmissionQueue) Approve(ctx context.Context, id uuid.UUID, reviewer string) error {
	args := m.Called(ctx, id, reviewer)
	return args.Error(0)
}

func (m *MockSubmissionQueue) Reject(ctx context.Context, id uuid.UUID, reviewer string, reason string) error {
	args := m.Called(ctx, id, reviewer, reason)
	return args.Error(0)
}

func (m *MockSubmissionQueue) MarkWhitelistWinner(ctx context.Context, questID uuid.UUID, wallet string, isWinner bool) error {
	args := m.Called(ctx, questID, wallet, isWinner)
	return args.Error(0)
}
