package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dnkquest-backend/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type quest struct {
	ID          uuid.UUID      `db:"quest_id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	Category    string         `db:"category"`
	RewardType  string         `db:"reward_type"`
	Reward      int            `db:"reward"`
	DogeAmount  *float64       `db:"doge_amount"`
	TokenTicker *string        `db:"token_ticker"`
	TokenAmount *float64       `db:"token_amount"`
	Status      string         `db:"status"`
	Creator     *string        `db:"creator"`
	PaymentTx   *string        `db:"payment_tx"`
	EndDate     *time.Time     `db:"end_date"`
	CreatedAt   time.Time      `db:"created_at"`
	Winners     pq.StringArray `db:"winners"`
}

type questStep struct {
	QuestID       uuid.UUID `db:"quest_id"`
	StepIndex     int       `db:"step_index"`
	Description   string    `db:"description"`
	StepType      string    `db:"step_type"`
	ProofRequired bool      `db:"proof_required"`
	URL           *string   `db:"url"`
	Platform      *string   `db:"platform"`
	Action        *string   `db:"action"`
	TargetUser    *string   `db:"target_user"`
	ServerID      *string   `db:"server_id"`
}

var questColumns = []string{
	"q.quest_id",
	"q.title",
	"q.description",
	"q.category",
	"q.reward_type",
	"q.reward",
	"q.doge_amount",
	"q.token_ticker",
	"q.token_amount",
	"q.status",
	"q.creator",
	"q.payment_tx",
	"q.end_date",
	"q.created_at",
	"array_remove(array_agg(qw.wallet), NULL) as winners",
}

func (r *Repository) GetQuests(ctx context.Context) ([]*model.Quest, error) {
	query, args, err := squirrel.
		Select(questColumns...).
		From("quests q").
		LeftJoin("quest_whitelist_winners qw ON qw.quest_id = q.quest_id").
		GroupBy("q.quest_id").
		OrderBy("q.created_at", "q.quest_id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build quests query: %w", err)
	}

	var dbQuests []*quest
	err = r.db.SelectContext(ctx, &dbQuests, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get quests: %w", err)
	}

	quests := make([]*model.Quest, len(dbQuests))
	for i, q := range dbQuests {
		steps, err := r.getQuestSteps(ctx, q.ID)
		if err != nil {
			return nil, err
		}
		quests[i] = toQuestModel(q, steps)
	}
	return quests, nil
}

func (r *Repository) GetQuestByID(ctx context.Context, questID uuid.UUID) (*model.Quest, error) {
	query, args, err := squirrel.
		Select(questColumns...).
		From("quests q").
		LeftJoin("quest_whitelist_winners qw ON qw.quest_id = q.quest_id").
		Where(squirrel.Eq{"q.quest_id": questID}).
		GroupBy("q.quest_id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build quest query: %w", err)
	}

	var q quest
	err = r.db.GetContext(ctx, &q, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQuestNotFound
		}
		return nil, fmt.Errorf("failed to get quest: %w", err)
	}

	steps, err := r.getQuestSteps(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	return toQuestModel(&q, steps), nil
}

func (r *Repository) getQuestSteps(ctx context.Context, questID uuid.UUID) ([]model.QuestStep, error) {
	query, args, err := squirrel.
		Select("quest_id", "step_index", "description", "step_type", "proof_required",
			"url", "platform", "action", "target_user", "server_id").
		From("quest_steps").
		Where(squirrel.Eq{"quest_id": questID}).
		OrderBy("step_index").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build quest steps query: %w", err)
	}

	var dbSteps []*questStep
	err = r.db.SelectContext(ctx, &dbSteps, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get quest steps: %w", err)
	}

	steps := make([]model.QuestStep, len(dbSteps))
	for i, s := range dbSteps {
		steps[i] = model.QuestStep{
			Index:         s.StepIndex,
			Description:   s.Description,
			Type:          model.StepType(s.StepType),
			ProofRequired: s.ProofRequired,
			URL:           s.URL,
			TargetUser:    s.TargetUser,
			ServerID:      s.ServerID,
		}
		if s.Platform != nil {
			p := model.StepType(*s.Platform)
			steps[i].Platform = &p
		}
		if s.Action != nil {
			a := model.StepAction(*s.Action)
			steps[i].Action = &a
		}
	}
	return steps, nil
}

func (r *Repository) CreateQuest(ctx context.Context, q *model.Quest) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Insert("quests").
			SetMap(map[string]interface{}{
				"quest_id":     q.ID,
				"title":        q.Title,
				"description":  q.Description,
				"category":     q.Category,
				"reward_type":  q.RewardType,
				"reward":       q.Reward,
				"doge_amount":  q.DogeAmount,
				"token_ticker": q.TokenTicker,
				"token_amount": q.TokenAmount,
				"status":       q.Status,
				"creator":      q.Creator,
				"payment_tx":   q.PaymentTx,
				"end_date":     q.EndDate,
				"created_at":   q.CreatedAt,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build quest insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to insert quest: %w", err)
		}

		return insertQuestSteps(ctx, tx, q.ID, q.Steps)
	})
}

func (r *Repository) UpdateQuest(ctx context.Context, q *model.Quest) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Update("quests").
			SetMap(map[string]interface{}{
				"title":        q.Title,
				"description":  q.Description,
				"category":     q.Category,
				"reward_type":  q.RewardType,
				"reward":       q.Reward,
				"doge_amount":  q.DogeAmount,
				"token_ticker": q.TokenTicker,
				"token_amount": q.TokenAmount,
				"status":       q.Status,
				"end_date":     q.EndDate,
			}).
			Where(squirrel.Eq{"quest_id": q.ID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build quest update query: %w", err)
		}

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to update quest: %w", err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read rows affected: %w", err)
		}
		if rows == 0 {
			return ErrQuestNotFound
		}

		deleteQuery, deleteArgs, err := squirrel.
			Delete("quest_steps").
			Where(squirrel.Eq{"quest_id": q.ID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build quest steps delete query: %w", err)
		}

		_, err = tx.ExecContext(ctx, deleteQuery, deleteArgs...)
		if err != nil {
			return fmt.Errorf("failed to delete quest steps: %w", err)
		}

		return insertQuestSteps(ctx, tx, q.ID, q.Steps)
	})
}

func insertQuestSteps(ctx context.Context, tx *sqlx.Tx, questID uuid.UUID, steps []model.QuestStep) error {
	if len(steps) == 0 {
		return nil
	}

	builder := squirrel.
		Insert("quest_steps").
		Columns("quest_id", "step_index", "description", "step_type", "proof_required",
			"url", "platform", "action", "target_user", "server_id")

	for i, s := range steps {
		builder = builder.Values(questID, i, s.Description, s.Type, s.ProofRequired,
			s.URL, s.Platform, s.Action, s.TargetUser, s.ServerID)
	}

	query, args, err := builder.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build quest steps insert query: %w", err)
	}

	_, err = tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert quest steps: %w", err)
	}
	return nil
}

func (r *Repository) SetWhitelistWinner(ctx context.Context, questID uuid.UUID, wallet string, isWinner bool) error {
	if isWinner {
		query, args, err := squirrel.
			Insert("quest_whitelist_winners").
			SetMap(map[string]interface{}{
				"quest_id": questID,
				"wallet":   wallet,
			}).
			Suffix("ON CONFLICT (quest_id, wallet) DO NOTHING").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build whitelist insert query: %w", err)
		}

		_, err = r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to insert whitelist winner: %w", err)
		}
		return nil
	}

	query, args, err := squirrel.
		Delete("quest_whitelist_winners").
		Where(squirrel.Eq{"quest_id": questID, "wallet": wallet}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build whitelist delete query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete whitelist winner: %w", err)
	}
	return nil
}

func toQuestModel(q *quest, steps []model.QuestStep) *model.Quest {
	return &model.Quest{
		ID:               q.ID,
		Title:            q.Title,
		Description:      q.Description,
		Category:         model.QuestCategory(q.Category),
		RewardType:       model.RewardType(q.RewardType),
		Reward:           q.Reward,
		DogeAmount:       q.DogeAmount,
		TokenTicker:      q.TokenTicker,
		TokenAmount:      q.TokenAmount,
		Steps:            steps,
		Status:           model.QuestStatus(q.Status),
		Creator:          q.Creator,
		PaymentTx:        q.PaymentTx,
		EndDate:          q.EndDate,
		CreatedAt:        q.CreatedAt,
		WhitelistWinners: q.Winners,
	}
}
