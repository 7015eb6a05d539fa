package service

import (
	"context"
	"fmt"
	"time"

	"dnkquest-backend/internal/model"

	"github.com/google/uuid"
)

// PaymentChecker validates a quest-fee payment transaction.
type PaymentChecker interface {
	CheckPayment(ctx context.Context, txHash string, dogeAmount float64) error
}

type QuestService struct {
	repo    QuestRepository
	payment PaymentChecker
	feeDoge float64
}

func NewQuestService(repo QuestRepository, payment PaymentChecker, feeDoge float64) *QuestService {
	return &QuestService{
		repo:    repo,
		payment: payment,
		feeDoge: feeDoge,
	}
}

func (s *QuestService) GetQuests(ctx context.Context) ([]*model.Quest, error) {
	quests, err := s.repo.GetQuests(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get quests: %w", err)
	}
	return quests, nil
}

func (s *QuestService) GetQuestByID(ctx context.Context, questID uuid.UUID) (*model.Quest, error) {
	quest, err := s.repo.GetQuestByID(ctx, questID)
	if err != nil {
		return nil, mapQuestErr(err)
	}
	return quest, nil
}

// CreateQuest handles the project-owner submission path: a quest fee paid on
// chain buys a slot in the admin review queue. Whitelist-reward quests are
// fee-exempt. The created quest starts paused until an admin activates it.
func (s *QuestService) CreateQuest(ctx context.Context, quest *model.Quest, paymentTx string) (uuid.UUID, error) {
	if len(quest.Steps) == 0 {
		return uuid.Nil, ErrQuestHasNoSteps
	}

	if quest.RewardType != model.RewardWhitelist {
		if paymentTx == "" {
			return uuid.Nil, ErrPaymentRequired
		}
		if err := s.payment.CheckPayment(ctx, paymentTx, s.feeDoge); err != nil {
			return uuid.Nil, fmt.Errorf("%w: %v", ErrPaymentInvalid, err)
		}
		quest.PaymentTx = &paymentTx
	}

	quest.ID = uuid.New()
	quest.Status = model.QuestPaused
	quest.CreatedAt = time.Now().UTC()

	if err := s.repo.CreateQuest(ctx, quest); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create quest: %w", err)
	}
	return quest.ID, nil
}

func (s *QuestService) CreateQuestAsAdmin(ctx context.Context, quest *model.Quest) (uuid.UUID, error) {
	if len(quest.Steps) == 0 {
		return uuid.Nil, ErrQuestHasNoSteps
	}

	quest.ID = uuid.New()
	if quest.Status == "" {
		quest.Status = model.QuestActive
	}
	quest.CreatedAt = time.Now().UTC()

	if err := s.repo.CreateQuest(ctx, quest); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create quest: %w", err)
	}
	return quest.ID, nil
}

// UpdateQuest applies an admin edit. Quests are never hard-deleted so
// historical completion records stay valid; removal from the catalog is a
// status change to paused.
func (s *QuestService) UpdateQuest(ctx context.Context, quest *model.Quest) error {
	if len(quest.Steps) == 0 {
		return ErrQuestHasNoSteps
	}

	err := s.repo.UpdateQuest(ctx, quest)
	if err != nil {
		return mapQuestErr(err)
	}
	return nil
}
