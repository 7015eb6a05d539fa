package service

import (
	"context"
	"testing"

	"dnkquest-backend/internal/model"
	"dnkquest-backend/internal/repository"
	"dnkquest-backend/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func pendingSubmission(questID uuid.UUID, wallet string) *model.QuestSubmission {
	return &model.QuestSubmission{
		ID:      uuid.New(),
		QuestID: questID,
		Wallet:  wallet,
		Proofs:  map[int]string{0: "alice"},
		Status:  model.SubmissionPending,
	}
}

func TestSubmissionService_CreateSubmission(t *testing.T) {
	questID := uuid.New()
	quest := twoStepQuest(questID)

	subRepo := &mocks.MockSubmissionRepository{}
	questRepo := &mocks.MockQuestRepository{}
	service := NewSubmissionService(subRepo, questRepo)

	questRepo.On("GetQuestByID", mock.Anything, questID).Return(quest, nil)
	subRepo.On("CreateSubmission", mock.Anything, mock.MatchedBy(func(sub *model.QuestSubmission) bool {
		return sub.QuestID == questID &&
			sub.Wallet == "0xabc0000000000000000000000000000000000010" &&
			sub.Status == model.SubmissionPending
	})).Return(nil)

	submission, err := service.CreateSubmission(context.Background(),
		questID, "0xABC0000000000000000000000000000000000010", map[int]string{0: "alice"})
	assert.NoError(t, err)
	assert.Equal(t, model.SubmissionPending, submission.Status)
	subRepo.AssertExpectations(t)
}

func TestSubmissionService_CreateSubmissionDuplicate(t *testing.T) {
	questID := uuid.New()
	quest := twoStepQuest(questID)

	subRepo := &mocks.MockSubmissionRepository{}
	questRepo := &mocks.MockQuestRepository{}
	service := NewSubmissionService(subRepo, questRepo)

	questRepo.On("GetQuestByID", mock.Anything, questID).Return(quest, nil)
	subRepo.On("CreateSubmission", mock.Anything, mock.Anything).
		Return(repository.ErrSubmissionExists)

	_, err := service.CreateSubmission(context.Background(), questID, "0xabc", map[int]string{0: "alice"})
	assert.ErrorIs(t, err, ErrSubmissionExists)
}

func TestSubmissionService_Approve(t *testing.T) {
	questID := uuid.New()
	quest := twoStepQuest(questID)
	submission := pendingSubmission(questID, "0xabc")

	subRepo := &mocks.MockSubmissionRepository{}
	questRepo := &mocks.MockQuestRepository{}
	service := NewSubmissionService(subRepo, questRepo)

	events, unsubscribe := service.Subscribe(submission.Wallet)
	defer unsubscribe()

	questRepo.On("GetQuestByID", mock.Anything, questID).Return(quest, nil)
	subRepo.On("GetSubmissionByID", mock.Anything, submission.ID).Return(submission, nil)
	subRepo.On("ApproveSubmission", mock.Anything, submission.ID, "0xadmin", quest.Reward).
		Return(model.SubmissionPending, nil)

	err := service.Approve(context.Background(), submission.ID, "0xadmin")
	assert.NoError(t, err)
	subRepo.AssertExpectations(t)

	select {
	case event := <-events:
		assert.Equal(t, EventSubmissionApproved, event.Type)
		assert.Equal(t, submission.ID.String(), event.SubmissionID)
	default:
		t.Fatal("expected an approval event")
	}
}

func TestSubmissionService_ApproveIdempotent(t *testing.T) {
	questID := uuid.New()
	quest := twoStepQuest(questID)
	submission := pendingSubmission(questID, "0xabc")
	submission.Status = model.SubmissionApproved

	subRepo := &mocks.MockSubmissionRepository{}
	questRepo := &mocks.MockQuestRepository{}
	service := NewSubmissionService(subRepo, questRepo)

	questRepo.On("GetQuestByID", mock.Anything, questID).Return(quest, nil)
	subRepo.On("GetSubmissionByID", mock.Anything, submission.ID).Return(submission, nil)
	subRepo.On("ApproveSubmission", mock.Anything, submission.ID, "0xadmin", quest.Reward).
		Return(model.SubmissionApproved, nil)

	// second approval of an already approved submission is a silent no-op
	err := service.Approve(context.Background(), submission.ID, "0xadmin")
	assert.NoError(t, err)
}

func TestSubmissionService_ApproveRejected(t *testing.T) {
	questID := uuid.New()
	quest := twoStepQuest(questID)
	submission := pendingSubmission(questID, "0xabc")
	submission.Status = model.SubmissionRejected

	subRepo := &mocks.MockSubmissionRepository{}
	questRepo := &mocks.MockQuestRepository{}
	service := NewSubmissionService(subRepo, questRepo)

	questRepo.On("GetQuestByID", mock.Anything, questID).Return(quest, nil)
	subRepo.On("GetSubmissionByID", mock.Anything, submission.ID).Return(submission, nil)
	subRepo.On("ApproveSubmission", mock.Anything, submission.ID, "0xadmin", quest.Reward).
		Return(model.SubmissionRejected, nil)

	err := service.Approve(context.Background(), submission.ID, "0xadmin")
	assert.ErrorIs(t, err, ErrAlreadyReviewed)
}

func TestSubmissionService_Reject(t *testing.T) {
	questID := uuid.New()
	submission := pendingSubmission(questID, "0xabc")

	subRepo := &mocks.MockSubmissionRepository{}
	questRepo := &mocks.MockQuestRepository{}
	service := NewSubmissionService(subRepo, questRepo)

	events, unsubscribe := service.Subscribe(submission.Wallet)
	defer unsubscribe()

	subRepo.On("GetSubmissionByID", mock.Anything, submission.ID).Return(submission, nil)
	subRepo.On("RejectSubmission", mock.Anything, submission.ID, "0xadmin", "proof unreadable").
		Return(model.SubmissionPending, nil)

	err := service.Reject(context.Background(), submission.ID, "0xadmin", "proof unreadable")
	assert.NoError(t, err)

	select {
	case event := <-events:
		assert.Equal(t, EventSubmissionRejected, event.Type)
		assert.Equal(t, "proof unreadable", event.Reason)
	default:
		t.Fatal("expected a rejection event")
	}
}

func TestSubmissionService_RejectRequiresReason(t *testing.T) {
	subRepo := &mocks.MockSubmissionRepository{}
	questRepo := &mocks.MockQuestRepository{}
	service := NewSubmissionService(subRepo, questRepo)

	err := service.Reject(context.Background(), uuid.New(), "0xadmin", "   ")
	assert.ErrorIs(t, err, ErrEmptyReason)
	subRepo.AssertNotCalled(t, "RejectSubmission", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmissionService_RejectAlreadyReviewed(t *testing.T) {
	questID := uuid.New()
	submission := pendingSubmission(questID, "0xabc")
	submission.Status = model.SubmissionApproved

	subRepo := &mocks.MockSubmissionRepository{}
	questRepo := &mocks.MockQuestRepository{}
	service := NewSubmissionService(subRepo, questRepo)

	subRepo.On("GetSubmissionByID", mock.Anything, submission.ID).Return(submission, nil)
	subRepo.On("RejectSubmission", mock.Anything, submission.ID, "0xadmin", "late").
		Return(model.SubmissionApproved, nil)

	err := service.Reject(context.Background(), submission.ID, "0xadmin", "late")
	assert.ErrorIs(t, err, ErrAlreadyReviewed)
}

func TestSubmissionService_MarkWhitelistWinner(t *testing.T) {
	questID := uuid.New()
	quest := twoStepQuest(questID)
	quest.RewardType = model.RewardWhitelist

	subRepo := &mocks.MockSubmissionRepository{}
	questRepo := &mocks.MockQuestRepository{}
	service := NewSubmissionService(subRepo, questRepo)

	questRepo.On("GetQuestByID", mock.Anything, questID).Return(quest, nil)
	questRepo.On("SetWhitelistWinner", mock.Anything, questID, "0xabc", true).Return(nil)
	questRepo.On("SetWhitelistWinner", mock.Anything, questID, "0xabc", false).Return(nil)

	assert.NoError(t, service.MarkWhitelistWinner(context.Background(), questID, "0xABC", true))
	assert.NoError(t, service.MarkWhitelistWinner(context.Background(), questID, "0xabc", false))
	questRepo.AssertExpectations(t)
}

func TestSubmissionService_MarkWhitelistWinnerWrongRewardType(t *testing.T) {
	questID := uuid.New()
	quest := twoStepQuest(questID)

	subRepo := &mocks.MockSubmissionRepository{}
	questRepo := &mocks.MockQuestRepository{}
	service := NewSubmissionService(subRepo, questRepo)

	questRepo.On("GetQuestByID", mock.Anything, questID).Return(quest, nil)

	err := service.MarkWhitelistWinner(context.Background(), questID, "0xabc", true)
	assert.ErrorIs(t, err, ErrNotWhitelistQuest)
	questRepo.AssertNotCalled(t, "SetWhitelistWinner", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
