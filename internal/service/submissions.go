package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"dnkquest-backend/internal/model"
	"dnkquest-backend/internal/repository"

	"github.com/google/uuid"
)

// ReviewEvent is pushed to a wallet's subscribers when one of its submissions
// is reviewed.
type ReviewEvent struct {
	Type         string `json:"type"`
	SubmissionID string `json:"submission_id"`
	QuestID      string `json:"quest_id"`
	Reason       string `json:"reason,omitempty"`
}

const (
	EventSubmissionApproved = "SUBMISSION_APPROVED"
	EventSubmissionRejected = "SUBMISSION_REJECTED"
)

type SubmissionService struct {
	repo   SubmissionRepository
	quests QuestRepository

	subMu       sync.Mutex
	subscribers map[string][]chan ReviewEvent
}

func NewSubmissionService(repo SubmissionRepository, quests QuestRepository) *SubmissionService {
	return &SubmissionService{
		repo:        repo,
		quests:      quests,
		subscribers: make(map[string][]chan ReviewEvent),
	}
}

// CreateSubmission appends a pending submission for the pair. The repository
// enforces that no pending or approved submission exists for (quest, wallet);
// a rejected one permits resubmission.
func (s *SubmissionService) CreateSubmission(ctx context.Context, questID uuid.UUID, wallet string, proofs map[int]string) (*model.QuestSubmission, error) {
	quest, err := s.quests.GetQuestByID(ctx, questID)
	if err != nil {
		return nil, mapQuestErr(err)
	}
	if len(quest.Steps) == 0 {
		return nil, ErrQuestHasNoSteps
	}

	submission := &model.QuestSubmission{
		ID:          uuid.New(),
		QuestID:     questID,
		Wallet:      strings.ToLower(wallet),
		SubmittedAt: time.Now().UTC(),
		Proofs:      proofs,
		Status:      model.SubmissionPending,
	}

	err = s.repo.CreateSubmission(ctx, submission)
	if err != nil {
		if errors.Is(err, repository.ErrSubmissionExists) {
			return nil, ErrSubmissionExists
		}
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}

	return submission, nil
}

func (s *SubmissionService) GetSubmissions(ctx context.Context, status *model.SubmissionStatus) ([]*model.QuestSubmission, error) {
	submissions, err := s.repo.GetSubmissions(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to get submissions: %w", err)
	}
	return submissions, nil
}

func (s *SubmissionService) GetSubmissionByID(ctx context.Context, id uuid.UUID) (*model.QuestSubmission, error) {
	submission, err := s.repo.GetSubmissionByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSubmissionNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return submission, nil
}

func (s *SubmissionService) GetHistory(ctx context.Context, wallet string) ([]*model.QuestSubmission, error) {
	submissions, err := s.repo.GetSubmissionsByWallet(ctx, strings.ToLower(wallet))
	if err != nil {
		return nil, fmt.Errorf("failed to get submission history: %w", err)
	}
	return submissions, nil
}

// Approve transitions a pending submission to approved and grants the quest
// reward exactly once. Re-approving an approved submission is a no-op;
// approving a rejected one is refused.
func (s *SubmissionService) Approve(ctx context.Context, id uuid.UUID, reviewer string) error {
	submission, err := s.GetSubmissionByID(ctx, id)
	if err != nil {
		return err
	}

	quest, err := s.quests.GetQuestByID(ctx, submission.QuestID)
	if err != nil {
		return mapQuestErr(err)
	}

	previous, err := s.repo.ApproveSubmission(ctx, id, reviewer, quest.Reward)
	if err != nil {
		if errors.Is(err, repository.ErrSubmissionNotFound) {
			return ErrSubmissionNotFound
		}
		return fmt.Errorf("failed to approve submission: %w", err)
	}

	switch previous {
	case model.SubmissionApproved:
		return nil
	case model.SubmissionRejected:
		return ErrAlreadyReviewed
	}

	s.publish(submission.Wallet, ReviewEvent{
		Type:         EventSubmissionApproved,
		SubmissionID: id.String(),
		QuestID:      submission.QuestID.String(),
	})
	return nil
}

func (s *SubmissionService) Reject(ctx context.Context, id uuid.UUID, reviewer string, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return ErrEmptyReason
	}

	submission, err := s.GetSubmissionByID(ctx, id)
	if err != nil {
		return err
	}

	previous, err := s.repo.RejectSubmission(ctx, id, reviewer, reason)
	if err != nil {
		if errors.Is(err, repository.ErrSubmissionNotFound) {
			return ErrSubmissionNotFound
		}
		return fmt.Errorf("failed to reject submission: %w", err)
	}

	if previous != model.SubmissionPending {
		return ErrAlreadyReviewed
	}

	s.publish(submission.Wallet, ReviewEvent{
		Type:         EventSubmissionRejected,
		SubmissionID: id.String(),
		QuestID:      submission.QuestID.String(),
		Reason:       reason,
	})
	return nil
}

// MarkWhitelistWinner toggles the wallet's membership in the quest's whitelist
// winner set. Valid only for whitelist-reward quests; idempotent either way.
func (s *SubmissionService) MarkWhitelistWinner(ctx context.Context, questID uuid.UUID, wallet string, isWinner bool) error {
	quest, err := s.quests.GetQuestByID(ctx, questID)
	if err != nil {
		return mapQuestErr(err)
	}
	if quest.RewardType != model.RewardWhitelist {
		return ErrNotWhitelistQuest
	}

	err = s.quests.SetWhitelistWinner(ctx, questID, strings.ToLower(wallet), isWinner)
	if err != nil {
		return fmt.Errorf("failed to set whitelist winner: %w", err)
	}
	return nil
}

// Subscribe registers a review event channel for a wallet. The returned
// function unsubscribes and closes the channel.
func (s *SubmissionService) Subscribe(wallet string) (<-chan ReviewEvent, func()) {
	wallet = strings.ToLower(wallet)
	ch := make(chan ReviewEvent, 8)

	s.subMu.Lock()
	s.subscribers[wallet] = append(s.subscribers[wallet], ch)
	s.subMu.Unlock()

	unsubscribe := func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		subs := s.subscribers[wallet]
		for i, c := range subs {
			if c == ch {
				s.subscribers[wallet] = append(subs[:i], subs[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, unsubscribe
}

func (s *SubmissionService) publish(wallet string, event ReviewEvent) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subscribers[strings.ToLower(wallet)] {
		select {
		case ch <- event:
		default:
			// slow subscriber, drop rather than block the review path
		}
	}
}
