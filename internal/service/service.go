package service

import (
	"context"
	"errors"
	"time"

	"dnkquest-backend/internal/model"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrQuestNotFound      = errors.New("quest not found")
	ErrQuestNotActive     = errors.New("quest is not active")
	ErrQuestHasNoSteps    = errors.New("quest has no steps")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrSubmissionExists   = errors.New("an active submission already exists for this quest")
	ErrAlreadyCompleted   = errors.New("quest already completed")
	ErrEmptyReason        = errors.New("rejection reason is required")
	ErrNotWhitelistQuest  = errors.New("quest does not have a whitelist reward")
	ErrAlreadyReviewed    = errors.New("submission already reviewed")
	ErrInvalidStep        = errors.New("invalid step index")
	ErrPaymentRequired    = errors.New("quest fee payment is required")
	ErrPaymentInvalid     = errors.New("quest fee payment could not be validated")
)

type Service struct {
	*UserService
	*QuestService
	*ProgressService
	*SubmissionService
}

func NewService(users *UserService, quests *QuestService, progress *ProgressService, submissions *SubmissionService) *Service {
	return &Service{
		UserService:       users,
		QuestService:      quests,
		ProgressService:   progress,
		SubmissionService: submissions,
	}
}

type UserServiceI interface {
	RegisterUser(ctx context.Context, user *model.User) (*model.User, error)
	GetUserByWallet(ctx context.Context, wallet string) (*model.User, error)
	GetCompletedQuests(ctx context.Context, wallet string) ([]string, error)
	GetLeaderboard(ctx context.Context) ([]*model.User, error)
	GetSocialAccounts(ctx context.Context, wallet string) (*model.SocialAccounts, error)
	UpdateSocialAccounts(ctx context.Context, wallet string, accounts *model.SocialAccounts) error
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByWallet(ctx context.Context, wallet string) (*model.User, error)
	UpdateAuthDate(ctx context.Context, wallet string, at time.Time) error
	GetCompletedQuests(ctx context.Context, wallet string) ([]string, error)
	GetUsers(ctx context.Context) ([]*model.User, error)
	GetSocialAccounts(ctx context.Context, wallet string) (*model.SocialAccounts, error)
	UpsertSocialAccounts(ctx context.Context, wallet string, accounts *model.SocialAccounts) error
}

type QuestServiceI interface {
	GetQuests(ctx context.Context) ([]*model.Quest, error)
	GetQuestByID(ctx context.Context, questID uuid.UUID) (*model.Quest, error)
	CreateQuest(ctx context.Context, quest *model.Quest, paymentTx string) (uuid.UUID, error)
	CreateQuestAsAdmin(ctx context.Context, quest *model.Quest) (uuid.UUID, error)
	UpdateQuest(ctx context.Context, quest *model.Quest) error
}

type QuestRepository interface {
	GetQuests(ctx context.Context) ([]*model.Quest, error)
	GetQuestByID(ctx context.Context, questID uuid.UUID) (*model.Quest, error)
	CreateQuest(ctx context.Context, quest *model.Quest) error
	UpdateQuest(ctx context.Context, quest *model.Quest) error
	SetWhitelistWinner(ctx context.Context, questID uuid.UUID, wallet string, isWinner bool) error
}

type ProgressServiceI interface {
	GetProgress(ctx context.Context, wallet string, questID uuid.UUID) (*model.QuestProgress, error)
	SubmitProof(ctx context.Context, wallet string, questID uuid.UUID, stepIndex int, proof string) (*model.VerifyOutcome, error)
}

type SubmissionServiceI interface {
	CreateSubmission(ctx context.Context, questID uuid.UUID, wallet string, proofs map[int]string) (*model.QuestSubmission, error)
	GetHistory(ctx context.Context, wallet string) ([]*model.QuestSubmission, error)
	GetSubmissions(ctx context.Context, status *model.SubmissionStatus) ([]*model.QuestSubmission, error)
	GetSubmissionByID(ctx context.Context, id uuid.UUID) (*model.QuestSubmission, error)
	Approve(ctx context.Context, id uuid.UUID, reviewer string) error
	Reject(ctx context.Context, id uuid.UUID, reviewer string, reason string) error
	MarkWhitelistWinner(ctx context.Context, questID uuid.UUID, wallet string, isWinner bool) error
}

type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, submission *model.QuestSubmission) error
	GetSubmissionByID(ctx context.Context, id uuid.UUID) (*model.QuestSubmission, error)
	GetSubmissions(ctx context.Context, status *model.SubmissionStatus) ([]*model.QuestSubmission, error)
	GetSubmissionsByWallet(ctx context.Context, wallet string) ([]*model.QuestSubmission, error)
	ApproveSubmission(ctx context.Context, id uuid.UUID, reviewer string, reward int) (model.SubmissionStatus, error)
	RejectSubmission(ctx context.Context, id uuid.UUID, reviewer string, reason string) (model.SubmissionStatus, error)
}
