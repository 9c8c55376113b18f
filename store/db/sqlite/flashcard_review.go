package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hrygo/veida/store"
)

func (d *DB) RecordFlashcardReview(ctx context.Context, record *store.RecordFlashcardReview) (*store.FlashcardReview, error) {
	review := &store.FlashcardReview{
		FlashcardID:  record.FlashcardID,
		CreatedTs:    record.ReviewedTs,
		ReviewedDate: record.ReviewedDate,
	}

	err := d.withTx(ctx, func(tx *sql.Tx) error {
		set, args := []string{"times_seen = times_seen + 1", "last_seen_ts = ?", "updated_ts = ?"}, []any{record.ReviewedTs, record.ReviewedTs}
		if v := record.NextStudyDate; v != nil {
			set, args = append(set, "next_study_date = ?"), append(args, *v)
		}
		args = append(args, record.FlashcardID)

		stmt := `UPDATE flashcard SET ` + strings.Join(set, ", ") + ` WHERE id = ? RETURNING creator_id, times_seen`
		if err := tx.QueryRowContext(ctx, stmt, args...).Scan(&review.CreatorID, &review.TimesSeen); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("flashcard %d not found", record.FlashcardID)
			}
			return fmt.Errorf("failed to update flashcard progress: %w", err)
		}

		if record.PullReviewDate {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM flashcard_review_date WHERE flashcard_id = ? AND review_date = ?`,
				record.FlashcardID, record.ReviewedDate,
			); err != nil {
				return fmt.Errorf("failed to pull review date: %w", err)
			}
		}

		if err := tx.QueryRowContext(ctx,
			`INSERT INTO flashcard_review (flashcard_id, creator_id, created_ts, reviewed_date, times_seen) VALUES (?, ?, ?, ?, ?) RETURNING id`,
			review.FlashcardID, review.CreatorID, review.CreatedTs, review.ReviewedDate, review.TimesSeen,
		).Scan(&review.ID); err != nil {
			return fmt.Errorf("failed to insert flashcard review: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

func (d *DB) ListFlashcardReviews(ctx context.Context, find *store.FindFlashcardReview) ([]*store.FlashcardReview, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.FlashcardID; v != nil {
		where, args = append(where, "flashcard_id = ?"), append(args, *v)
	}
	if v := find.CreatorID; v != nil {
		where, args = append(where, "creator_id = ?"), append(args, *v)
	}
	if v := find.ReviewedDate; v != nil {
		where, args = append(where, "reviewed_date = ?"), append(args, *v)
	}

	query := `
		SELECT id, flashcard_id, creator_id, created_ts, reviewed_date, times_seen
		FROM flashcard_review
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY id ASC`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query flashcard reviews: %w", err)
	}
	defer rows.Close()

	list := []*store.FlashcardReview{}
	for rows.Next() {
		review := &store.FlashcardReview{}
		if err := rows.Scan(
			&review.ID,
			&review.FlashcardID,
			&review.CreatorID,
			&review.CreatedTs,
			&review.ReviewedDate,
			&review.TimesSeen,
		); err != nil {
			return nil, fmt.Errorf("failed to scan flashcard review: %w", err)
		}
		list = append(list, review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate flashcard reviews: %w", err)
	}
	return list, nil
}
