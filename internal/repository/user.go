package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dnkquest-backend/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type user struct {
	Wallet           string    `db:"wallet"`
	Alias            string    `db:"alias"`
	XP               int       `db:"xp"`
	Avatar           string    `db:"avatar"`
	IsAdmin          bool      `db:"is_admin"`
	RegistrationDate time.Time `db:"registration_date"`
	AuthDate         time.Time `db:"last_auth_date"`
}

func (r *Repository) CreateUser(ctx context.Context, u *model.User) error {
	query, args, err := squirrel.
		Insert("users").
		SetMap(map[string]interface{}{
			"wallet":            u.Wallet,
			"alias":             u.Alias,
			"xp":                u.XP,
			"avatar":            u.Avatar,
			"is_admin":          u.IsAdmin,
			"registration_date": u.RegistrationDate,
			"last_auth_date":    u.AuthDate,
		}).
		Suffix("ON CONFLICT (wallet) DO NOTHING").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build user insert query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return ErrUserExists
	}

	return nil
}

func (r *Repository) GetUserByWallet(ctx context.Context, wallet string) (*model.User, error) {
	query, args, err := squirrel.
		Select("wallet", "alias", "xp", "avatar", "is_admin", "registration_date", "last_auth_date").
		From("users").
		Where(squirrel.Eq{"wallet": wallet}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build user select query: %w", err)
	}

	var u user
	err = r.db.GetContext(ctx, &u, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	completed, err := r.GetCompletedQuests(ctx, wallet)
	if err != nil {
		return nil, err
	}

	return &model.User{
		Wallet:           u.Wallet,
		Alias:            u.Alias,
		XP:               u.XP,
		Avatar:           u.Avatar,
		IsAdmin:          u.IsAdmin,
		Completed:        completed,
		RegistrationDate: u.RegistrationDate,
		AuthDate:         u.AuthDate,
	}, nil
}

func (r *Repository) UpdateAuthDate(ctx context.Context, wallet string, at time.Time) error {
	query, args, err := squirrel.
		Update("users").
		Set("last_auth_date", at).
		Where(squirrel.Eq{"wallet": wallet}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build auth date update query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update auth date: %w", err)
	}
	return nil
}

func (r *Repository) GetCompletedQuests(ctx context.Context, wallet string) ([]string, error) {
	query, args, err := squirrel.
		Select("quest_id").
		From("user_completed_quests").
		Where(squirrel.Eq{"wallet": wallet}).
		OrderBy("completed_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build completed quests query: %w", err)
	}

	completed := make([]string, 0)
	err = r.db.SelectContext(ctx, &completed, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get completed quests: %w", err)
	}
	return completed, nil
}

// GrantReward appends the quest to the user's completed set and adds the XP in a
// single transaction. The append is idempotent; XP is only added when the quest
// was not already completed.
func (r *Repository) GrantReward(ctx context.Context, wallet string, questID string, reward int) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		return grantRewardTx(ctx, tx, wallet, questID, reward)
	})
}

func grantRewardTx(ctx context.Context, tx *sqlx.Tx, wallet string, questID string, reward int) error {
	insertQuery, insertArgs, err := squirrel.
		Insert("user_completed_quests").
		SetMap(map[string]interface{}{
			"wallet":       wallet,
			"quest_id":     questID,
			"completed_at": time.Now().UTC(),
		}).
		Suffix("ON CONFLICT (wallet, quest_id) DO NOTHING").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build completed quest insert query: %w", err)
	}

	res, err := tx.ExecContext(ctx, insertQuery, insertArgs...)
	if err != nil {
		return fmt.Errorf("failed to insert completed quest: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return nil
	}

	updateQuery, updateArgs, err := squirrel.
		Update("users").
		Set("xp", squirrel.Expr("xp + ?", reward)).
		Where(squirrel.Eq{"wallet": wallet}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build xp update query: %w", err)
	}

	_, err = tx.ExecContext(ctx, updateQuery, updateArgs...)
	if err != nil {
		return fmt.Errorf("failed to update xp: %w", err)
	}

	return nil
}

// GetUsers returns all users in registration order. Leaderboard ordering is
// derived in the service layer so ties keep this fetch order.
func (r *Repository) GetUsers(ctx context.Context) ([]*model.User, error) {
	query, args, err := squirrel.
		Select(
			"u.wallet",
			"u.alias",
			"u.xp",
			"u.avatar",
			"u.is_admin",
			"u.registration_date",
			"u.last_auth_date",
			"array_remove(array_agg(ucq.quest_id ORDER BY ucq.completed_at), NULL) as completed",
		).
		From("users u").
		LeftJoin("user_completed_quests ucq ON ucq.wallet = u.wallet").
		GroupBy("u.wallet").
		OrderBy("u.registration_date ASC", "u.wallet ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build leaderboard query: %w", err)
	}

	type userWithCompleted struct {
		user
		Completed pq.StringArray `db:"completed"`
	}

	var rows []*userWithCompleted
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get top users: %w", err)
	}

	users := make([]*model.User, len(rows))
	for i, u := range rows {
		users[i] = &model.User{
			Wallet:           u.Wallet,
			Alias:            u.Alias,
			XP:               u.XP,
			Avatar:           u.Avatar,
			IsAdmin:          u.IsAdmin,
			Completed:        u.Completed,
			RegistrationDate: u.RegistrationDate,
			AuthDate:         u.AuthDate,
		}
	}
	return users, nil
}
