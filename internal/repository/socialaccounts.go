package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dnkquest-backend/internal/model"

	"github.com/Masterminds/squirrel"
)

type socialAccounts struct {
	Wallet   string  `db:"wallet"`
	Twitter  *string `db:"twitter"`
	Discord  *string `db:"discord"`
	Telegram *string `db:"telegram"`
}

func (r *Repository) GetSocialAccounts(ctx context.Context, wallet string) (*model.SocialAccounts, error) {
	query, args, err := squirrel.
		Select("wallet", "twitter", "discord", "telegram").
		From("social_accounts").
		Where(squirrel.Eq{"wallet": wallet}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build social accounts query: %w", err)
	}

	var sa socialAccounts
	err = r.db.GetContext(ctx, &sa, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &model.SocialAccounts{}, nil
		}
		return nil, fmt.Errorf("failed to get social accounts: %w", err)
	}

	return &model.SocialAccounts{
		Twitter:  sa.Twitter,
		Discord:  sa.Discord,
		Telegram: sa.Telegram,
	}, nil
}

// UpsertSocialAccounts replaces the whole record, last writer wins.
func (r *Repository) UpsertSocialAccounts(ctx context.Context, wallet string, accounts *model.SocialAccounts) error {
	query, args, err := squirrel.
		Insert("social_accounts").
		SetMap(map[string]interface{}{
			"wallet":   wallet,
			"twitter":  accounts.Twitter,
			"discord":  accounts.Discord,
			"telegram": accounts.Telegram,
		}).
		Suffix("ON CONFLICT (wallet) DO UPDATE SET twitter = EXCLUDED.twitter, discord = EXCLUDED.discord, telegram = EXCLUDED.telegram").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build social accounts upsert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to upsert social accounts: %w", err)
	}
	return nil
}
