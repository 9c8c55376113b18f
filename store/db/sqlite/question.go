package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hrygo/veida/store"
)

func (d *DB) CreateQuestion(ctx context.Context, create *store.Question) (*store.Question, error) {
	answers, err := json.Marshal(nonNil(create.PossibleAnswers))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal possible answers: %w", err)
	}

	stmt := `
		INSERT INTO question (concept_id, creator_id, position, question, possible_answers, correct_answer, explanation)
		VALUES (` + placeholders(7) + `)
		RETURNING id, created_ts`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.ConceptID, create.CreatorID, create.Position, create.Question, string(answers), create.CorrectAnswer, create.Explanation,
	).Scan(&create.ID, &create.CreatedTs); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}
	return create, nil
}

func (d *DB) ListQuestions(ctx context.Context, find *store.FindQuestion) ([]*store.Question, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.ID; v != nil {
		where, args = append(where, "id = ?"), append(args, *v)
	}
	if v := find.ConceptID; v != nil {
		where, args = append(where, "concept_id = ?"), append(args, *v)
	}
	if v := find.CreatorID; v != nil {
		where, args = append(where, "creator_id = ?"), append(args, *v)
	}

	query := `
		SELECT id, concept_id, creator_id, created_ts, position, question, possible_answers, correct_answer, explanation
		FROM question
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY concept_id ASC, position ASC, id ASC`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	list := []*store.Question{}
	for rows.Next() {
		question := &store.Question{}
		var answers string
		if err := rows.Scan(
			&question.ID,
			&question.ConceptID,
			&question.CreatorID,
			&question.CreatedTs,
			&question.Position,
			&question.Question,
			&answers,
			&question.CorrectAnswer,
			&question.Explanation,
		); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		if err := json.Unmarshal([]byte(answers), &question.PossibleAnswers); err != nil {
			return nil, fmt.Errorf("failed to unmarshal possible answers of question %d: %w", question.ID, err)
		}
		list = append(list, question)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate questions: %w", err)
	}
	return list, nil
}

func (d *DB) DeleteQuestion(ctx context.Context, delete *store.DeleteQuestion) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM question WHERE id = ?`, delete.ID); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	return nil
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
