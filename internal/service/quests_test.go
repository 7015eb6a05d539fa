package service

import (
	"context"
	"errors"
	"testing"

	"dnkquest-backend/internal/model"
	"dnkquest-backend/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type paymentCheckerStub struct {
	err    error
	called bool
}

func (p *paymentCheckerStub) CheckPayment(_ context.Context, _ string, _ float64) error {
	p.called = true
	return p.err
}

func TestQuestService_CreateQuestRequiresPayment(t *testing.T) {
	repo := &mocks.MockQuestRepository{}
	payment := &paymentCheckerStub{}
	service := NewQuestService(repo, payment, 50)

	quest := twoStepQuest(uuid.New())

	_, err := service.CreateQuest(context.Background(), quest, "")
	assert.ErrorIs(t, err, ErrPaymentRequired)
	assert.False(t, payment.called)
	repo.AssertNotCalled(t, "CreateQuest", mock.Anything, mock.Anything)
}

func TestQuestService_CreateQuestInvalidPayment(t *testing.T) {
	repo := &mocks.MockQuestRepository{}
	payment := &paymentCheckerStub{err: errors.New("transaction pays the wrong recipient")}
	service := NewQuestService(repo, payment, 50)

	quest := twoStepQuest(uuid.New())

	_, err := service.CreateQuest(context.Background(), quest, "0xdeadbeef")
	assert.ErrorIs(t, err, ErrPaymentInvalid)
	repo.AssertNotCalled(t, "CreateQuest", mock.Anything, mock.Anything)
}

func TestQuestService_CreateQuestStartsPaused(t *testing.T) {
	repo := &mocks.MockQuestRepository{}
	payment := &paymentCheckerStub{}
	service := NewQuestService(repo, payment, 50)

	quest := twoStepQuest(uuid.New())

	repo.On("CreateQuest", mock.Anything, mock.MatchedBy(func(q *model.Quest) bool {
		return q.Status == model.QuestPaused && q.PaymentTx != nil && *q.PaymentTx == "0xfeedface"
	})).Return(nil)

	id, err := service.CreateQuest(context.Background(), quest, "0xfeedface")
	assert.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	assert.True(t, payment.called)
	repo.AssertExpectations(t)
}

func TestQuestService_CreateQuestWhitelistSkipsFee(t *testing.T) {
	repo := &mocks.MockQuestRepository{}
	payment := &paymentCheckerStub{err: errors.New("should not be consulted")}
	service := NewQuestService(repo, payment, 50)

	quest := twoStepQuest(uuid.New())
	quest.RewardType = model.RewardWhitelist

	repo.On("CreateQuest", mock.Anything, mock.Anything).Return(nil)

	_, err := service.CreateQuest(context.Background(), quest, "")
	assert.NoError(t, err)
	assert.False(t, payment.called)
}

func TestQuestService_CreateQuestAsAdminDefaultsActive(t *testing.T) {
	repo := &mocks.MockQuestRepository{}
	service := NewQuestService(repo, &paymentCheckerStub{}, 50)

	quest := twoStepQuest(uuid.New())
	quest.Status = ""

	repo.On("CreateQuest", mock.Anything, mock.MatchedBy(func(q *model.Quest) bool {
		return q.Status == model.QuestActive
	})).Return(nil)

	_, err := service.CreateQuestAsAdmin(context.Background(), quest)
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestQuestService_CreateQuestNoSteps(t *testing.T) {
	repo := &mocks.MockQuestRepository{}
	service := NewQuestService(repo, &paymentCheckerStub{}, 50)

	quest := twoStepQuest(uuid.New())
	quest.Steps = nil

	_, err := service.CreateQuest(context.Background(), quest, "0xfeedface")
	assert.ErrorIs(t, err, ErrQuestHasNoSteps)

	_, err = service.CreateQuestAsAdmin(context.Background(), quest)
	assert.ErrorIs(t, err, ErrQuestHasNoSteps)
}
