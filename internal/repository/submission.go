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
)

type submission struct {
	ID              uuid.UUID  `db:"submission_id"`
	QuestID         uuid.UUID  `db:"quest_id"`
	Wallet          string     `db:"wallet"`
	SubmittedAt     time.Time  `db:"submitted_at"`
	Status          string     `db:"status"`
	ReviewedBy      *string    `db:"reviewed_by"`
	ReviewedAt      *time.Time `db:"reviewed_at"`
	RejectionReason *string    `db:"rejection_reason"`
}

type submissionProof struct {
	SubmissionID uuid.UUID `db:"submission_id"`
	StepIndex    int       `db:"step_index"`
	Proof        string    `db:"proof"`
}

// CreateSubmission inserts a pending submission, enforcing at most one
// non-rejected submission per quest and wallet. The advisory lock serializes
// racing transactions on the same pair; an existence check alone cannot, since
// selecting zero rows locks nothing.
func (r *Repository) CreateSubmission(ctx context.Context, s *model.QuestSubmission) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx,
			"SELECT pg_advisory_xact_lock(hashtextextended($1, 0))",
			s.QuestID.String()+":"+s.Wallet)
		if err != nil {
			return fmt.Errorf("failed to lock submission pair: %w", err)
		}

		existsQuery, existsArgs, err := squirrel.
			Select("submission_id").
			From("submissions").
			Where(squirrel.Eq{"quest_id": s.QuestID, "wallet": s.Wallet}).
			Where(squirrel.NotEq{"status": model.SubmissionRejected}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build submission exists query: %w", err)
		}

		var existing uuid.UUID
		err = tx.GetContext(ctx, &existing, existsQuery, existsArgs...)
		if err == nil {
			return ErrSubmissionExists
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to check existing submission: %w", err)
		}

		query, args, err := squirrel.
			Insert("submissions").
			SetMap(map[string]interface{}{
				"submission_id": s.ID,
				"quest_id":      s.QuestID,
				"wallet":        s.Wallet,
				"submitted_at":  s.SubmittedAt,
				"status":        s.Status,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build submission insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to insert submission: %w", err)
		}

		if len(s.Proofs) == 0 {
			return nil
		}

		builder := squirrel.
			Insert("submission_proofs").
			Columns("submission_id", "step_index", "proof")
		for idx, proof := range s.Proofs {
			builder = builder.Values(s.ID, idx, proof)
		}

		proofQuery, proofArgs, err := builder.PlaceholderFormat(squirrel.Dollar).ToSql()
		if err != nil {
			return fmt.Errorf("failed to build submission proofs insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, proofQuery, proofArgs...)
		if err != nil {
			return fmt.Errorf("failed to insert submission proofs: %w", err)
		}
		return nil
	})
}

func (r *Repository) GetSubmissionByID(ctx context.Context, id uuid.UUID) (*model.QuestSubmission, error) {
	query, args, err := squirrel.
		Select("submission_id", "quest_id", "wallet", "submitted_at", "status",
			"reviewed_by", "reviewed_at", "rejection_reason").
		From("submissions").
		Where(squirrel.Eq{"submission_id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build submission query: %w", err)
	}

	var s submission
	err = r.db.GetContext(ctx, &s, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	proofs, err := r.getSubmissionProofs(ctx, id)
	if err != nil {
		return nil, err
	}
	return toSubmissionModel(&s, proofs), nil
}

func (r *Repository) GetSubmissions(ctx context.Context, status *model.SubmissionStatus) ([]*model.QuestSubmission, error) {
	builder := squirrel.
		Select("submission_id", "quest_id", "wallet", "submitted_at", "status",
			"reviewed_by", "reviewed_at", "rejection_reason").
		From("submissions").
		OrderBy("submitted_at", "submission_id").
		PlaceholderFormat(squirrel.Dollar)
	if status != nil {
		builder = builder.Where(squirrel.Eq{"status": *status})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build submissions query: %w", err)
	}

	var dbSubmissions []*submission
	err = r.db.SelectContext(ctx, &dbSubmissions, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get submissions: %w", err)
	}

	submissions := make([]*model.QuestSubmission, len(dbSubmissions))
	for i, s := range dbSubmissions {
		proofs, err := r.getSubmissionProofs(ctx, s.ID)
		if err != nil {
			return nil, err
		}
		submissions[i] = toSubmissionModel(s, proofs)
	}
	return submissions, nil
}

func (r *Repository) GetSubmissionsByWallet(ctx context.Context, wallet string) ([]*model.QuestSubmission, error) {
	query, args, err := squirrel.
		Select("submission_id", "quest_id", "wallet", "submitted_at", "status",
			"reviewed_by", "reviewed_at", "rejection_reason").
		From("submissions").
		Where(squirrel.Eq{"wallet": wallet}).
		OrderBy("submitted_at", "submission_id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build submissions query: %w", err)
	}

	var dbSubmissions []*submission
	err = r.db.SelectContext(ctx, &dbSubmissions, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get submissions: %w", err)
	}

	submissions := make([]*model.QuestSubmission, len(dbSubmissions))
	for i, s := range dbSubmissions {
		proofs, err := r.getSubmissionProofs(ctx, s.ID)
		if err != nil {
			return nil, err
		}
		submissions[i] = toSubmissionModel(s, proofs)
	}
	return submissions, nil
}

// ApproveSubmission flips a pending submission to approved and grants the
// reward in the same transaction. Returns the stored status before the update
// so the service can decide idempotency.
func (r *Repository) ApproveSubmission(ctx context.Context, id uuid.UUID, reviewer string, reward int) (model.SubmissionStatus, error) {
	var previous model.SubmissionStatus
	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		s, err := lockSubmissionTx(ctx, tx, id)
		if err != nil {
			return err
		}

		previous = model.SubmissionStatus(s.Status)
		if previous != model.SubmissionPending {
			return nil
		}

		now := time.Now().UTC()
		query, args, err := squirrel.
			Update("submissions").
			SetMap(map[string]interface{}{
				"status":      model.SubmissionApproved,
				"reviewed_by": reviewer,
				"reviewed_at": now,
			}).
			Where(squirrel.Eq{"submission_id": id}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build submission approve query: %w", err)
		}

		_, err = tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to approve submission: %w", err)
		}

		return grantRewardTx(ctx, tx, s.Wallet, s.QuestID.String(), reward)
	})
	if err != nil {
		return "", err
	}
	return previous, nil
}

func (r *Repository) RejectSubmission(ctx context.Context, id uuid.UUID, reviewer string, reason string) (model.SubmissionStatus, error) {
	var previous model.SubmissionStatus
	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		s, err := lockSubmissionTx(ctx, tx, id)
		if err != nil {
			return err
		}

		previous = model.SubmissionStatus(s.Status)
		if previous != model.SubmissionPending {
			return nil
		}

		now := time.Now().UTC()
		query, args, err := squirrel.
			Update("submissions").
			SetMap(map[string]interface{}{
				"status":           model.SubmissionRejected,
				"reviewed_by":      reviewer,
				"reviewed_at":      now,
				"rejection_reason": reason,
			}).
			Where(squirrel.Eq{"submission_id": id}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build submission reject query: %w", err)
		}

		_, err = tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to reject submission: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return previous, nil
}

func lockSubmissionTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*submission, error) {
	query, args, err := squirrel.
		Select("submission_id", "quest_id", "wallet", "submitted_at", "status",
			"reviewed_by", "reviewed_at", "rejection_reason").
		From("submissions").
		Where(squirrel.Eq{"submission_id": id}).
		Suffix("FOR UPDATE").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build submission lock query: %w", err)
	}

	var s submission
	err = tx.GetContext(ctx, &s, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to lock submission: %w", err)
	}
	return &s, nil
}

func (r *Repository) getSubmissionProofs(ctx context.Context, id uuid.UUID) (map[int]string, error) {
	query, args, err := squirrel.
		Select("submission_id", "step_index", "proof").
		From("submission_proofs").
		Where(squirrel.Eq{"submission_id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build submission proofs query: %w", err)
	}

	var dbProofs []*submissionProof
	err = r.db.SelectContext(ctx, &dbProofs, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get submission proofs: %w", err)
	}

	proofs := make(map[int]string, len(dbProofs))
	for _, p := range dbProofs {
		proofs[p.StepIndex] = p.Proof
	}
	return proofs, nil
}

func toSubmissionModel(s *submission, proofs map[int]string) *model.QuestSubmission {
	return &model.QuestSubmission{
		ID:              s.ID,
		QuestID:         s.QuestID,
		Wallet:          s.Wallet,
		SubmittedAt:     s.SubmittedAt,
		Proofs:          proofs,
		Status:          model.SubmissionStatus(s.Status),
		ReviewedBy:      s.ReviewedBy,
		ReviewedAt:      s.ReviewedAt,
		RejectionReason: s.RejectionReason,
	}
}
