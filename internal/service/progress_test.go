package service

import (
	"context"
	"testing"
	"time"

	"dnkquest-backend/internal/model"
	"dnkquest-backend/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func twoStepQuest(questID uuid.UUID) *model.Quest {
	platform := model.StepTwitter
	action := model.ActionFollow
	return &model.Quest{
		ID:         questID,
		Title:      "Join the circle",
		Category:   model.CategoryNovice,
		RewardType: model.RewardDRC20,
		Reward:     100,
		Status:     model.QuestActive,
		Steps: []model.QuestStep{
			{
				Index:         0,
				Description:   "Follow us on X",
				Type:          model.StepTwitter,
				ProofRequired: true,
				Platform:      &platform,
				Action:        &action,
			},
			{
				Index:         1,
				Description:   "Visit the site",
				Type:          model.StepURL,
				ProofRequired: true,
			},
		},
	}
}

func newProgressFixture(t *testing.T, cooldown time.Duration) (*ProgressService, *mocks.MockQuestRepository, *mocks.MockUserRepository, *mocks.MockSubmissionQueue) {
	t.Helper()

	questRepo := &mocks.MockQuestRepository{}
	userRepo := &mocks.MockUserRepository{}
	queue := &mocks.MockSubmissionQueue{}

	service := NewProgressService(questRepo, userRepo, queue, NewVerificationEngine(nil), ProgressConfig{
		Cooldown:   cooldown,
		GraceDelay: 0,
	})
	return service, questRepo, userRepo, queue
}

func TestProgressService_TwoStepScenario(t *testing.T) {
	questID := uuid.New()
	wallet := "0xAbC0000000000000000000000000000000000001"
	quest := twoStepQuest(questID)

	service, questRepo, userRepo, queue := newProgressFixture(t, 30*time.Millisecond)

	questRepo.On("GetQuestByID", mock.Anything, questID).Return(quest, nil)
	userRepo.On("GetCompletedQuests", mock.Anything, mock.Anything).Return([]string{}, nil)
	queue.On("GetHistory", mock.Anything, mock.Anything).Return([]*model.QuestSubmission{}, nil).Once()

	// no linked twitter yet
	userRepo.On("GetSocialAccounts", mock.Anything, wallet).
		Return(&model.SocialAccounts{}, nil).Once()

	outcome, err := service.SubmitProof(context.Background(), wallet, questID, 0, "alice")
	assert.NoError(t, err)
	assert.Equal(t, model.StepCooldown, outcome.State)
	assert.Equal(t, model.ReasonAccountNotLinked, outcome.Reason)

	time.Sleep(40 * time.Millisecond)

	// handle linked, matching proof
	linked := "alice"
	userRepo.On("GetSocialAccounts", mock.Anything, wallet).
		Return(&model.SocialAccounts{Twitter: &linked}, nil)

	outcome, err = service.SubmitProof(context.Background(), wallet, questID, 0, "alice")
	assert.NoError(t, err)
	assert.Equal(t, model.StepVerified, outcome.State)
	assert.False(t, outcome.AllVerified)

	// invalid url fails the second step
	outcome, err = service.SubmitProof(context.Background(), wallet, questID, 1, "not-a-url")
	assert.NoError(t, err)
	assert.Equal(t, model.StepCooldown, outcome.State)
	assert.Equal(t, model.ReasonFailed, outcome.Reason)

	time.Sleep(40 * time.Millisecond)

	created := &model.QuestSubmission{
		ID:      uuid.New(),
		QuestID: questID,
		Wallet:  wallet,
		Status:  model.SubmissionPending,
	}
	queue.On("CreateSubmission", mock.Anything, questID, wallet, mock.MatchedBy(func(proofs map[int]string) bool {
		return proofs[0] == "alice" && proofs[1] == "https://example.com"
	})).Return(created, nil).Once()
	queue.On("GetHistory", mock.Anything, mock.Anything).
		Return([]*model.QuestSubmission{created}, nil)

	outcome, err = service.SubmitProof(context.Background(), wallet, questID, 1, "https://example.com")
	assert.NoError(t, err)
	assert.Equal(t, model.StepVerified, outcome.State)
	assert.True(t, outcome.AllVerified)

	progress, err := service.GetProgress(context.Background(), wallet, questID)
	assert.NoError(t, err)
	assert.True(t, progress.Submitted)
	assert.Len(t, progress.VerifiedSteps, 2)

	queue.AssertExpectations(t)
}

func TestProgressService_CooldownCountdown(t *testing.T) {
	questID := uuid.New()
	wallet := "0xabc0000000000000000000000000000000000002"
	quest := twoStepQuest(questID)

	service, questRepo, userRepo, queue := newProgressFixture(t, 20*time.Second)

	questRepo.On("GetQuestByID", mock.Anything, questID).Return(quest, nil)
	userRepo.On("GetCompletedQuests", mock.Anything, mock.Anything).Return([]string{}, nil)
	userRepo.On("GetSocialAccounts", mock.Anything, mock.Anything).Return(&model.SocialAccounts{}, nil)
	queue.On("GetHistory", mock.Anything, mock.Anything).Return([]*model.QuestSubmission{}, nil)

	outcome, err := service.SubmitProof(context.Background(), wallet, questID, 0, "alice")
	assert.NoError(t, err)
	assert.Equal(t, model.StepCooldown, outcome.State)
	assert.Equal(t, 20, outcome.RetryAfterSec)

	outcome, err = service.SubmitProof(context.Background(), wallet, questID, 0, "alice")
	assert.NoError(t, err)
	assert.Equal(t, model.ReasonCooldownActive, outcome.Reason)
	first := outcome.RetryAfterSec
	assert.Greater(t, first, 0)
	assert.LessOrEqual(t, first, 20)

	time.Sleep(1100 * time.Millisecond)

	outcome, err = service.SubmitProof(context.Background(), wallet, questID, 0, "alice")
	assert.NoError(t, err)
	assert.Equal(t, model.ReasonCooldownActive, outcome.Reason)
	assert.Less(t, outcome.RetryAfterSec, first)
}

func TestProgressService_RefusesAfterSubmission(t *testing.T) {
	questID := uuid.New()
	wallet := "0xabc0000000000000000000000000000000000003"
	quest := twoStepQuest(questID)

	service, questRepo, userRepo, queue := newProgressFixture(t, time.Second)

	questRepo.On("GetQuestByID", mock.Anything, questID).Return(quest, nil)
	userRepo.On("GetCompletedQuests", mock.Anything, mock.Anything).Return([]string{}, nil)
	userRepo.On("GetSocialAccounts", mock.Anything, mock.Anything).Return(&model.SocialAccounts{}, nil)

	// a pending submission already exists for this quest
	queue.On("GetHistory", mock.Anything, mock.Anything).Return([]*model.QuestSubmission{
		{
			ID:      uuid.New(),
			QuestID: questID,
			Wallet:  wallet,
			Status:  model.SubmissionPending,
			Proofs:  map[int]string{0: "alice", 1: "https://example.com"},
		},
	}, nil)

	_, err := service.SubmitProof(context.Background(), wallet, questID, 0, "alice")
	assert.ErrorIs(t, err, ErrSubmissionExists)

	progress, err := service.GetProgress(context.Background(), wallet, questID)
	assert.NoError(t, err)
	assert.True(t, progress.Submitted)
}

func TestProgressService_RefusesCompletedQuest(t *testing.T) {
	questID := uuid.New()
	wallet := "0xabc0000000000000000000000000000000000004"
	quest := twoStepQuest(questID)

	service, questRepo, userRepo, queue := newProgressFixture(t, time.Second)

	questRepo.On("GetQuestByID", mock.Anything, questID).Return(quest, nil)
	userRepo.On("GetCompletedQuests", mock.Anything, mock.Anything).Return([]string{questID.String()}, nil)
	userRepo.On("GetSocialAccounts", mock.Anything, mock.Anything).Return(&model.SocialAccounts{}, nil)
	queue.On("GetHistory", mock.Anything, mock.Anything).Return([]*model.QuestSubmission{}, nil)

	_, err := service.SubmitProof(context.Background(), wallet, questID, 0, "alice")
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
}

func TestProgressService_RejectedSubmissionAllowsRetry(t *testing.T) {
	questID := uuid.New()
	wallet := "0xabc0000000000000000000000000000000000005"
	quest := twoStepQuest(questID)

	service, questRepo, userRepo, queue := newProgressFixture(t, time.Second)

	questRepo.On("GetQuestByID", mock.Anything, questID).Return(quest, nil)
	userRepo.On("GetCompletedQuests", mock.Anything, mock.Anything).Return([]string{}, nil)
	linked := "alice"
	userRepo.On("GetSocialAccounts", mock.Anything, mock.Anything).
		Return(&model.SocialAccounts{Twitter: &linked}, nil)

	reason := "proof unreadable"
	queue.On("GetHistory", mock.Anything, mock.Anything).Return([]*model.QuestSubmission{
		{
			ID:              uuid.New(),
			QuestID:         questID,
			Wallet:          wallet,
			Status:          model.SubmissionRejected,
			RejectionReason: &reason,
		},
	}, nil)

	outcome, err := service.SubmitProof(context.Background(), wallet, questID, 0, "alice")
	assert.NoError(t, err)
	assert.Equal(t, model.StepVerified, outcome.State)
}

func oneStepQuest(questID uuid.UUID) *model.Quest {
	return &model.Quest{
		ID:         questID,
		Title:      "Visit the site",
		Category:   model.CategoryNovice,
		RewardType: model.RewardDRC20,
		Reward:     50,
		Status:     model.QuestActive,
		Steps: []model.QuestStep{
			{Index: 0, Description: "Visit the site", Type: model.StepURL, ProofRequired: true},
		},
	}
}

func TestProgressService_RejectionReopensSession(t *testing.T) {
	questID := uuid.New()
	wallet := "0xabc0000000000000000000000000000000000006"
	quest := oneStepQuest(questID)

	service, questRepo, userRepo, queue := newProgressFixture(t, time.Second)

	questRepo.On("GetQuestByID", mock.Anything, questID).Return(quest, nil)
	userRepo.On("GetCompletedQuests", mock.Anything, mock.Anything).Return([]string{}, nil)
	userRepo.On("GetSocialAccounts", mock.Anything, mock.Anything).Return(&model.SocialAccounts{}, nil)

	queue.On("GetHistory", mock.Anything, mock.Anything).
		Return([]*model.QuestSubmission{}, nil).Once()
	queue.On("CreateSubmission", mock.Anything, questID, wallet, mock.Anything).
		Return(&model.QuestSubmission{
			ID:      uuid.New(),
			QuestID: questID,
			Wallet:  wallet,
			Status:  model.SubmissionPending,
		}, nil).Twice()

	outcome, err := service.SubmitProof(context.Background(), wallet, questID, 0, "https://example.com")
	assert.NoError(t, err)
	assert.True(t, outcome.AllVerified)

	// still pending: the same session may not resubmit
	pending := &model.QuestSubmission{ID: uuid.New(), QuestID: questID, Wallet: wallet, Status: model.SubmissionPending}
	queue.On("GetHistory", mock.Anything, mock.Anything).
		Return([]*model.QuestSubmission{pending}, nil).Once()

	_, err = service.SubmitProof(context.Background(), wallet, questID, 0, "https://example.com")
	assert.ErrorIs(t, err, ErrSubmissionExists)

	// an admin rejects it: the same session can verify and submit again
	reason := "wrong link"
	rejected := &model.QuestSubmission{
		ID:              pending.ID,
		QuestID:         questID,
		Wallet:          wallet,
		Status:          model.SubmissionRejected,
		RejectionReason: &reason,
	}
	queue.On("GetHistory", mock.Anything, mock.Anything).
		Return([]*model.QuestSubmission{rejected}, nil).Once()

	outcome, err = service.SubmitProof(context.Background(), wallet, questID, 0, "https://example.com")
	assert.NoError(t, err)
	assert.Equal(t, model.StepVerified, outcome.State)
	assert.True(t, outcome.AllVerified)

	queue.AssertNumberOfCalls(t, "CreateSubmission", 2)
}

func TestProgressService_SubmitDoesNotBlockOtherWallets(t *testing.T) {
	questID := uuid.New()
	wallet := "0xabc0000000000000000000000000000000000007"
	otherWallet := "0xabc0000000000000000000000000000000000008"
	quest := oneStepQuest(questID)

	service, questRepo, userRepo, queue := newProgressFixture(t, time.Second)

	questRepo.On("GetQuestByID", mock.Anything, questID).Return(quest, nil)
	userRepo.On("GetCompletedQuests", mock.Anything, mock.Anything).Return([]string{}, nil)
	userRepo.On("GetSocialAccounts", mock.Anything, mock.Anything).Return(&model.SocialAccounts{}, nil)
	queue.On("GetHistory", mock.Anything, mock.Anything).Return([]*model.QuestSubmission{}, nil)

	// while the insert is in flight, progress reads for other wallets proceed
	queue.On("CreateSubmission", mock.Anything, questID, wallet, mock.Anything).
		Run(func(args mock.Arguments) {
			_, err := service.GetProgress(context.Background(), otherWallet, questID)
			assert.NoError(t, err)
		}).
		Return(&model.QuestSubmission{
			ID:      uuid.New(),
			QuestID: questID,
			Wallet:  wallet,
			Status:  model.SubmissionPending,
		}, nil).Once()

	outcome, err := service.SubmitProof(context.Background(), wallet, questID, 0, "https://example.com")
	assert.NoError(t, err)
	assert.True(t, outcome.AllVerified)
	queue.AssertExpectations(t)
}

func TestProgressService_InvalidStep(t *testing.T) {
	questID := uuid.New()
	quest := twoStepQuest(questID)

	service, questRepo, _, _ := newProgressFixture(t, time.Second)
	questRepo.On("GetQuestByID", mock.Anything, questID).Return(quest, nil)

	_, err := service.SubmitProof(context.Background(), "0xabc", questID, 5, "proof")
	assert.ErrorIs(t, err, ErrInvalidStep)

	_, err = service.SubmitProof(context.Background(), "0xabc", questID, -1, "proof")
	assert.ErrorIs(t, err, ErrInvalidStep)
}
