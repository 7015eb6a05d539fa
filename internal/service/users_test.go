package service

import (
	"context"
	"testing"

	"dnkquest-backend/internal/model"
	"dnkquest-backend/internal/repository"
	"dnkquest-backend/internal/service/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestUserService_RegisterUser(t *testing.T) {
	repo := &mocks.MockUserRepository{}
	service := NewUserService(repo)

	wallet := "0xABCDEF0000000000000000000000000000DEAD42"
	stored := &model.User{
		Wallet: "0xabcdef0000000000000000000000000000dead42",
		Alias:  "user_dead42",
	}

	repo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.Wallet == stored.Wallet && u.Alias == "user_dead42"
	})).Return(nil)
	repo.On("GetUserByWallet", mock.Anything, stored.Wallet).Return(stored, nil)

	user, err := service.RegisterUser(context.Background(), &model.User{Wallet: wallet})
	assert.NoError(t, err)
	assert.Equal(t, "user_dead42", user.Alias)
	repo.AssertExpectations(t)
}

func TestUserService_RegisterUserExisting(t *testing.T) {
	repo := &mocks.MockUserRepository{}
	service := NewUserService(repo)

	stored := &model.User{
		Wallet: "0xabc",
		Alias:  "degen",
		XP:     350,
	}

	repo.On("CreateUser", mock.Anything, mock.Anything).Return(repository.ErrUserExists)
	repo.On("UpdateAuthDate", mock.Anything, "0xabc", mock.Anything).Return(nil)
	repo.On("GetUserByWallet", mock.Anything, "0xabc").Return(stored, nil)

	user, err := service.RegisterUser(context.Background(), &model.User{Wallet: "0xABC", Alias: "ignored"})
	assert.NoError(t, err)
	assert.Equal(t, "degen", user.Alias)
	assert.Equal(t, 350, user.XP)
	repo.AssertExpectations(t)
}

func TestUserService_GetLeaderboard(t *testing.T) {
	repo := &mocks.MockUserRepository{}
	service := NewUserService(repo)

	// registration order; bob and carol tie on XP
	repo.On("GetUsers", mock.Anything).Return([]*model.User{
		{Wallet: "0xalice", XP: 50},
		{Wallet: "0xbob", XP: 200},
		{Wallet: "0xcarol", XP: 200},
		{Wallet: "0xdave", XP: 500},
	}, nil)

	users, err := service.GetLeaderboard(context.Background())
	assert.NoError(t, err)

	wallets := make([]string, 0, len(users))
	for _, u := range users {
		wallets = append(wallets, u.Wallet)
	}
	// ties resolve by registration order, so bob stays ahead of carol
	assert.Equal(t, []string{"0xdave", "0xbob", "0xcarol", "0xalice"}, wallets)
}

func TestUserService_GetLeaderboardTruncates(t *testing.T) {
	repo := &mocks.MockUserRepository{}
	service := NewUserService(repo)

	all := make([]*model.User, 0, leaderboardLimit+20)
	for i := 0; i < leaderboardLimit+20; i++ {
		all = append(all, &model.User{Wallet: "0x", XP: i})
	}
	repo.On("GetUsers", mock.Anything).Return(all, nil)

	users, err := service.GetLeaderboard(context.Background())
	assert.NoError(t, err)
	assert.Len(t, users, leaderboardLimit)
	assert.Equal(t, leaderboardLimit+19, users[0].XP)
}

func TestUserService_GetUserByWalletNotFound(t *testing.T) {
	repo := &mocks.MockUserRepository{}
	service := NewUserService(repo)

	repo.On("GetUserByWallet", mock.Anything, "0xmissing").Return(nil, repository.ErrNotFound)

	_, err := service.GetUserByWallet(context.Background(), "0xMISSING")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
