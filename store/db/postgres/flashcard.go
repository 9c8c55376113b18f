package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/hrygo/veida/store"
)

func (d *DB) CreateFlashcard(ctx context.Context, create *store.Flashcard) (*store.Flashcard, error) {
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		fields := []string{"uid", "course_id", "concept_id", "creator_id", "position", "front", "back"}
		args := []any{create.UID, create.CourseID, create.ConceptID, create.CreatorID, create.Position, create.Front, create.Back}
		if create.CreatedTs != 0 {
			fields, args = append(fields, "created_ts", "updated_ts"), append(args, create.CreatedTs, create.CreatedTs)
		}

		stmt := `INSERT INTO flashcard (` + strings.Join(fields, ", ") + `) VALUES (` + placeholders(len(args)) + `) RETURNING id, created_ts, updated_ts`
		if err := tx.QueryRowContext(ctx, stmt, args...).Scan(&create.ID, &create.CreatedTs, &create.UpdatedTs); err != nil {
			return fmt.Errorf("failed to create flashcard: %w", err)
		}
		return insertReviewDates(ctx, tx, create.ID, create.ReviewDates)
	})
	if err != nil {
		return nil, err
	}
	create.ReviewDates = uniqueSorted(create.ReviewDates)
	return create, nil
}

func insertReviewDates(ctx context.Context, tx *sql.Tx, flashcardID int32, dates []string) error {
	if len(dates) == 0 {
		return nil
	}
	stmt := `
		INSERT INTO flashcard_review_date (flashcard_id, review_date)
		SELECT $1, unnest($2::text[])
		ON CONFLICT DO NOTHING`
	if _, err := tx.ExecContext(ctx, stmt, flashcardID, pq.Array(dates)); err != nil {
		return fmt.Errorf("failed to insert review dates: %w", err)
	}
	return nil
}

func uniqueSorted(dates []string) []string {
	seen := make(map[string]struct{}, len(dates))
	list := make([]string, 0, len(dates))
	for _, date := range dates {
		if _, ok := seen[date]; ok {
			continue
		}
		seen[date] = struct{}{}
		list = append(list, date)
	}
	sort.Strings(list)
	return list
}

func (d *DB) ListFlashcards(ctx context.Context, find *store.FindFlashcard) ([]*store.Flashcard, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.ID; v != nil {
		where, args = append(where, "f.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "f.uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.CourseID; v != nil {
		where, args = append(where, "f.course_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.ConceptID; v != nil {
		where, args = append(where, "f.concept_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.CreatorID; v != nil {
		where, args = append(where, "f.creator_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.ReviewDate; v != nil {
		where = append(where, "EXISTS (SELECT 1 FROM flashcard_review_date r WHERE r.flashcard_id = f.id AND r.review_date = "+placeholder(len(args)+1)+")")
		args = append(args, *v)
	}
	if v := find.NextStudyDateOnOrBefore; v != nil {
		where, args = append(where, "(f.next_study_date IS NULL OR f.next_study_date <= "+placeholder(len(args)+1)+")"), append(args, *v)
	}
	if v := find.IDAfter; v != nil {
		where, args = append(where, "f.id > "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT
			f.id, f.uid, f.course_id, f.concept_id, f.creator_id, f.created_ts, f.updated_ts, f.position,
			f.front, f.back, f.times_seen, f.last_seen_ts, f.next_study_date,
			COALESCE((SELECT string_agg(r.review_date, ',' ORDER BY r.review_date) FROM flashcard_review_date r WHERE r.flashcard_id = f.id), '')
		FROM flashcard f
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY f.id ASC`
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query flashcards: %w", err)
	}
	defer rows.Close()

	list := []*store.Flashcard{}
	for rows.Next() {
		card := &store.Flashcard{}
		var lastSeenTs sql.NullInt64
		var nextStudyDate sql.NullString
		var reviewDates string
		if err := rows.Scan(
			&card.ID,
			&card.UID,
			&card.CourseID,
			&card.ConceptID,
			&card.CreatorID,
			&card.CreatedTs,
			&card.UpdatedTs,
			&card.Position,
			&card.Front,
			&card.Back,
			&card.TimesSeen,
			&lastSeenTs,
			&nextStudyDate,
			&reviewDates,
		); err != nil {
			return nil, fmt.Errorf("failed to scan flashcard: %w", err)
		}
		if lastSeenTs.Valid {
			card.LastSeenTs = &lastSeenTs.Int64
		}
		if nextStudyDate.Valid {
			card.NextStudyDate = &nextStudyDate.String
		}
		card.ReviewDates = splitDates(reviewDates)
		list = append(list, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate flashcards: %w", err)
	}
	return list, nil
}

func (d *DB) UpdateFlashcard(ctx context.Context, update *store.UpdateFlashcard) error {
	updatedTs := time.Now().Unix()
	if update.UpdatedTs != nil {
		updatedTs = *update.UpdatedTs
	}
	set, args := []string{"updated_ts = $1"}, []any{updatedTs}
	if v := update.Front; v != nil {
		set, args = append(set, "front = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Back; v != nil {
		set, args = append(set, "back = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Position; v != nil {
		set, args = append(set, "position = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.LastSeenTs; v != nil {
		set, args = append(set, "last_seen_ts = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.NextStudyDate; v != nil {
		if *v == "" {
			set = append(set, "next_study_date = NULL")
		} else {
			set, args = append(set, "next_study_date = "+placeholder(len(args)+1)), append(args, *v)
		}
	}
	args = append(args, update.ID)

	stmt := `UPDATE flashcard SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args))
	result, err := d.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("failed to update flashcard: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("flashcard %d not found", update.ID)
	}
	return nil
}

func (d *DB) DeleteFlashcard(ctx context.Context, delete *store.DeleteFlashcard) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM flashcard WHERE id = $1`, delete.ID); err != nil {
		return fmt.Errorf("failed to delete flashcard: %w", err)
	}
	return nil
}

func (d *DB) IncrementFlashcardTimesSeen(ctx context.Context, id int32) (int32, error) {
	var timesSeen int32
	err := d.db.QueryRowContext(ctx,
		`UPDATE flashcard SET times_seen = times_seen + 1, updated_ts = $1 WHERE id = $2 RETURNING times_seen`,
		time.Now().Unix(), id,
	).Scan(&timesSeen)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("flashcard %d not found", id)
		}
		return 0, fmt.Errorf("failed to increment times seen: %w", err)
	}
	return timesSeen, nil
}

func (d *DB) DeleteFlashcardReviewDates(ctx context.Context, delete *store.DeleteFlashcardReviewDate) (int64, error) {
	where, args := []string{}, []any{delete.ReviewDate}
	if v := delete.FlashcardID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := delete.CourseID; v != nil {
		where, args = append(where, "course_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := delete.CreatorID; v != nil {
		where, args = append(where, "creator_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if len(where) == 0 {
		return 0, errors.New("review date deletion needs a flashcard, course or creator")
	}

	stmt := `
		DELETE FROM flashcard_review_date
		WHERE review_date = $1
		AND flashcard_id IN (SELECT id FROM flashcard WHERE ` + strings.Join(where, " AND ") + `)`
	result, err := d.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete review dates: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted review dates: %w", err)
	}
	return n, nil
}

func (d *DB) ReplaceFlashcardReviewDates(ctx context.Context, flashcardID int32, dates []string) error {
	return d.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM flashcard_review_date WHERE flashcard_id = $1`, flashcardID); err != nil {
			return fmt.Errorf("failed to clear review dates: %w", err)
		}
		return insertReviewDates(ctx, tx, flashcardID, dates)
	})
}
