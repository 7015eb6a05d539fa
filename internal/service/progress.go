package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"dnkquest-backend/internal/model"
	"dnkquest-backend/internal/repository"
	"dnkquest-backend/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ProgressConfig struct {
	Cooldown   time.Duration
	GraceDelay time.Duration
}

// ProgressService tracks per (wallet, quest) step progress for the current
// session. State lives only in memory: it does not survive a restart and is
// rebuilt from submission history on first access, matching the reference
// client where progress never leaves the browser session.
type ProgressService struct {
	quests      QuestRepository
	users       UserRepository
	submissions SubmissionServiceI
	engine      *VerificationEngine

	cooldown   time.Duration
	graceDelay time.Duration

	mu      sync.Mutex
	entries map[string]*model.QuestProgress
}

func NewProgressService(quests QuestRepository, users UserRepository, submissions SubmissionServiceI, engine *VerificationEngine, cfg ProgressConfig) *ProgressService {
	return &ProgressService{
		quests:      quests,
		users:       users,
		submissions: submissions,
		engine:      engine,
		cooldown:    cfg.Cooldown,
		graceDelay:  cfg.GraceDelay,
		entries:     make(map[string]*model.QuestProgress),
	}
}

func progressKey(wallet string, questID uuid.UUID) string {
	return strings.ToLower(wallet) + "|" + questID.String()
}

func (s *ProgressService) GetProgress(ctx context.Context, wallet string, questID uuid.UUID) (*model.QuestProgress, error) {
	quest, err := s.quests.GetQuestByID(ctx, questID)
	if err != nil {
		return nil, mapQuestErr(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.loadLocked(ctx, wallet, quest)
	if err != nil {
		return nil, err
	}
	if err := s.refreshSubmittedLocked(ctx, wallet, quest, p); err != nil {
		return nil, err
	}
	return snapshot(p), nil
}

// SubmitProof runs one verification attempt for a step and advances the state
// machine. During an active cooldown the attempt is refused with the remaining
// seconds; a pass on the final unverified step triggers quest submission after
// the grace delay.
func (s *ProgressService) SubmitProof(ctx context.Context, wallet string, questID uuid.UUID, stepIndex int, proof string) (*model.VerifyOutcome, error) {
	quest, err := s.quests.GetQuestByID(ctx, questID)
	if err != nil {
		return nil, mapQuestErr(err)
	}
	if quest.Status != model.QuestActive {
		return nil, ErrQuestNotActive
	}
	if len(quest.Steps) == 0 {
		return nil, ErrQuestHasNoSteps
	}
	if stepIndex < 0 || stepIndex >= len(quest.Steps) {
		return nil, ErrInvalidStep
	}

	accounts, err := s.users.GetSocialAccounts(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to get social accounts: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.loadLocked(ctx, wallet, quest)
	if err != nil {
		return nil, err
	}
	if err := s.refreshSubmittedLocked(ctx, wallet, quest, p); err != nil {
		return nil, err
	}

	if p.Completed {
		return nil, ErrAlreadyCompleted
	}
	if p.Submitted {
		return nil, ErrSubmissionExists
	}

	now := time.Now().UTC()
	if p.RetryAt != nil {
		if now.Before(*p.RetryAt) {
			remaining := int(math.Ceil(p.RetryAt.Sub(now).Seconds()))
			return &model.VerifyOutcome{
				State:         model.StepCooldown,
				Message:       fmt.Sprintf("retry after %d seconds", remaining),
				RetryAfterSec: remaining,
				Reason:        model.ReasonCooldownActive,
			}, nil
		}
		// Cooldown elapsed: the step is plain unverified again.
		p.RetryAt = nil
	}

	if p.VerifiedSteps[stepIndex] {
		return &model.VerifyOutcome{
			State:       model.StepVerified,
			Reason:      model.ReasonOK,
			AllVerified: len(p.VerifiedSteps) == len(quest.Steps),
		}, nil
	}

	p.Attempts[stepIndex]++
	result := s.engine.VerifyStep(ctx, quest.Steps[stepIndex], proof, accounts)

	if !result.Passed {
		retryAt := now.Add(s.cooldown)
		p.RetryAt = &retryAt
		return &model.VerifyOutcome{
			State:         model.StepCooldown,
			Message:       result.Message,
			RetryAfterSec: int(s.cooldown.Seconds()),
			Reason:        result.Reason,
		}, nil
	}

	p.VerifiedSteps[stepIndex] = true
	p.Proofs[stepIndex] = proof
	p.RetryAt = nil
	if stepIndex == p.CurrentStep && p.CurrentStep < len(quest.Steps)-1 {
		p.CurrentStep++
	}

	outcome := &model.VerifyOutcome{
		State:       model.StepVerified,
		Reason:      model.ReasonOK,
		AllVerified: len(p.VerifiedSteps) == len(quest.Steps),
	}

	if outcome.AllVerified {
		s.scheduleSubmission(wallet, quest, p)
	}

	return outcome, nil
}

// refreshSubmittedLocked re-checks submission history for an entry marked
// submitted. When the latest submission for the quest was rejected the entry is
// reset so the wallet can verify the steps again. Callers hold s.mu.
func (s *ProgressService) refreshSubmittedLocked(ctx context.Context, wallet string, quest *model.Quest, p *model.QuestProgress) error {
	if !p.Submitted || p.Completed {
		return nil
	}

	history, err := s.submissions.GetHistory(ctx, wallet)
	if err != nil {
		return fmt.Errorf("failed to get submission history: %w", err)
	}
	for _, sub := range history {
		if sub.QuestID == quest.ID && sub.Status != model.SubmissionRejected {
			return nil
		}
	}

	p.Submitted = false
	p.CurrentStep = 0
	p.VerifiedSteps = make(map[int]bool)
	p.Proofs = make(map[int]string)
	p.Attempts = make(map[int]int)
	p.RetryAt = nil
	return nil
}

// scheduleSubmission auto-creates the quest submission once every step is
// verified. The grace delay lets observers render the final verified state
// first; a zero delay submits before returning. Callers hold s.mu; the lock is
// released around the repository call so one slow insert cannot stall progress
// operations for other wallets.
func (s *ProgressService) scheduleSubmission(wallet string, quest *model.Quest, p *model.QuestProgress) {
	proofs := make(map[int]string, len(p.Proofs))
	for k, v := range p.Proofs {
		proofs[k] = v
	}

	if s.graceDelay <= 0 {
		s.mu.Unlock()
		s.submit(wallet, quest.ID, p, proofs)
		s.mu.Lock()
		return
	}

	time.AfterFunc(s.graceDelay, func() {
		s.submit(wallet, quest.ID, p, proofs)
	})
}

func (s *ProgressService) submit(wallet string, questID uuid.UUID, p *model.QuestProgress, proofs map[int]string) {
	s.mu.Lock()
	if p.Submitted || p.Completed {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := s.submissions.CreateSubmission(ctx, questID, wallet, proofs)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		if errors.Is(err, ErrSubmissionExists) || errors.Is(err, ErrAlreadyCompleted) {
			p.Submitted = true
			return
		}
		logger.Logger().Error("failed to auto-create submission",
			zap.Error(err),
			zap.String("wallet", wallet),
			zap.String("quest_id", questID.String()))
		return
	}

	p.Submitted = true
}

// loadLocked returns the session entry for (wallet, quest), rebuilding it from
// submission history on first access. Callers hold s.mu.
func (s *ProgressService) loadLocked(ctx context.Context, wallet string, quest *model.Quest) (*model.QuestProgress, error) {
	key := progressKey(wallet, quest.ID)
	if p, ok := s.entries[key]; ok {
		return p, nil
	}

	p := &model.QuestProgress{
		QuestID:       quest.ID,
		Wallet:        strings.ToLower(wallet),
		VerifiedSteps: make(map[int]bool),
		Proofs:        make(map[int]string),
		Attempts:      make(map[int]int),
	}

	completed, err := s.users.GetCompletedQuests(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to get completed quests: %w", err)
	}
	for _, id := range completed {
		if id == quest.ID.String() {
			p.Completed = true
		}
	}

	history, err := s.submissions.GetHistory(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to get submission history: %w", err)
	}
	for _, sub := range history {
		if sub.QuestID != quest.ID || sub.Status == model.SubmissionRejected {
			continue
		}
		p.Submitted = true
		for idx, proof := range sub.Proofs {
			p.VerifiedSteps[idx] = true
			p.Proofs[idx] = proof
		}
		if len(quest.Steps) > 0 {
			p.CurrentStep = len(quest.Steps) - 1
		}
	}

	s.entries[key] = p
	return p, nil
}

func snapshot(p *model.QuestProgress) *model.QuestProgress {
	out := &model.QuestProgress{
		QuestID:       p.QuestID,
		Wallet:        p.Wallet,
		CurrentStep:   p.CurrentStep,
		VerifiedSteps: make(map[int]bool, len(p.VerifiedSteps)),
		Proofs:        make(map[int]string, len(p.Proofs)),
		Attempts:      make(map[int]int, len(p.Attempts)),
		Submitted:     p.Submitted,
		Completed:     p.Completed,
	}
	for k, v := range p.VerifiedSteps {
		out.VerifiedSteps[k] = v
	}
	for k, v := range p.Proofs {
		out.Proofs[k] = v
	}
	for k, v := range p.Attempts {
		out.Attempts[k] = v
	}
	if p.RetryAt != nil {
		retryAt := *p.RetryAt
		out.RetryAt = &retryAt
	}
	return out
}

func mapQuestErr(err error) error {
	if errors.Is(err, repository.ErrQuestNotFound) {
		return ErrQuestNotFound
	}
	return err
}
