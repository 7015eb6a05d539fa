package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"dnkquest-backend/internal/model"
	"dnkquest-backend/internal/repository"
)

const leaderboardLimit = 100

type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{
		repo: repo,
	}
}

// RegisterUser creates the user record on first wallet connection. If the
// wallet is already known, the existing record is returned with a refreshed
// auth date.
func (s *UserService) RegisterUser(ctx context.Context, user *model.User) (*model.User, error) {
	user.Wallet = strings.ToLower(user.Wallet)
	if user.Alias == "" {
		user.Alias = defaultAlias(user.Wallet)
	}

	now := time.Now().UTC()
	user.RegistrationDate = now
	user.AuthDate = now

	err := s.repo.CreateUser(ctx, user)
	if err != nil {
		if !errors.Is(err, repository.ErrUserExists) {
			return nil, fmt.Errorf("failed to register user: %w", err)
		}
		if err := s.repo.UpdateAuthDate(ctx, user.Wallet, now); err != nil {
			return nil, err
		}
	}

	return s.GetUserByWallet(ctx, user.Wallet)
}

func (s *UserService) GetUserByWallet(ctx context.Context, wallet string) (*model.User, error) {
	user, err := s.repo.GetUserByWallet(ctx, strings.ToLower(wallet))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by wallet: %w", err)
	}
	return user, nil
}

func (s *UserService) GetCompletedQuests(ctx context.Context, wallet string) ([]string, error) {
	completed, err := s.repo.GetCompletedQuests(ctx, strings.ToLower(wallet))
	if err != nil {
		return nil, fmt.Errorf("failed to get completed quests: %w", err)
	}
	return completed, nil
}

// GetLeaderboard returns users by descending XP. The sort is stable so
// equal-XP users keep the repository's fetch order; ranks are positions in the
// returned slice, never stored.
func (s *UserService) GetLeaderboard(ctx context.Context) ([]*model.User, error) {
	users, err := s.repo.GetUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}

	sort.SliceStable(users, func(i, j int) bool {
		return users[i].XP > users[j].XP
	})

	if len(users) > leaderboardLimit {
		users = users[:leaderboardLimit]
	}
	return users, nil
}

func (s *UserService) GetSocialAccounts(ctx context.Context, wallet string) (*model.SocialAccounts, error) {
	accounts, err := s.repo.GetSocialAccounts(ctx, strings.ToLower(wallet))
	if err != nil {
		return nil, fmt.Errorf("failed to get social accounts: %w", err)
	}
	return accounts, nil
}

func (s *UserService) UpdateSocialAccounts(ctx context.Context, wallet string, accounts *model.SocialAccounts) error {
	err := s.repo.UpsertSocialAccounts(ctx, strings.ToLower(wallet), accounts)
	if err != nil {
		return fmt.Errorf("failed to update social accounts: %w", err)
	}
	return nil
}

func defaultAlias(wallet string) string {
	if len(wallet) <= 6 {
		return "user_" + wallet
	}
	return "user_" + wallet[len(wallet)-6:]
}
