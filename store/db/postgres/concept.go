package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/veida/store"
)

const conceptColumns = "id, course_id, creator_id, created_ts, updated_ts, name, description"

func scanConcept(row scanner) (*store.Concept, error) {
	concept := &store.Concept{}
	if err := row.Scan(
		&concept.ID,
		&concept.CourseID,
		&concept.CreatorID,
		&concept.CreatedTs,
		&concept.UpdatedTs,
		&concept.Name,
		&concept.Description,
	); err != nil {
		return nil, err
	}
	return concept, nil
}

func (d *DB) CreateConcept(ctx context.Context, create *store.Concept) (*store.Concept, error) {
	stmt := `INSERT INTO concept (course_id, creator_id, name, description) VALUES ($1, $2, $3, $4) RETURNING id, created_ts, updated_ts`
	if err := d.db.QueryRowContext(ctx, stmt, create.CourseID, create.CreatorID, create.Name, create.Description).Scan(
		&create.ID,
		&create.CreatedTs,
		&create.UpdatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to create concept: %w", err)
	}
	return create, nil
}

func (d *DB) ListConcepts(ctx context.Context, find *store.FindConcept) ([]*store.Concept, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.CourseID; v != nil {
		where, args = append(where, "course_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.CreatorID; v != nil {
		where, args = append(where, "creator_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Name; v != nil {
		where, args = append(where, "name = "+placeholder(len(args)+1)), append(args, *v)
	}

	rows, err := d.db.QueryContext(ctx, `SELECT `+conceptColumns+` FROM concept WHERE `+strings.Join(where, " AND ")+` ORDER BY id ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query concepts: %w", err)
	}
	defer rows.Close()

	list := []*store.Concept{}
	for rows.Next() {
		concept, err := scanConcept(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan concept: %w", err)
		}
		list = append(list, concept)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate concepts: %w", err)
	}
	return list, nil
}

func (d *DB) UpdateConcept(ctx context.Context, update *store.UpdateConcept) (*store.Concept, error) {
	updatedTs := time.Now().Unix()
	if update.UpdatedTs != nil {
		updatedTs = *update.UpdatedTs
	}
	set, args := []string{"updated_ts = $1"}, []any{updatedTs}
	if v := update.Name; v != nil {
		set, args = append(set, "name = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Description; v != nil {
		set, args = append(set, "description = "+placeholder(len(args)+1)), append(args, *v)
	}
	args = append(args, update.ID)

	stmt := `UPDATE concept SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args)) + ` RETURNING ` + conceptColumns
	concept, err := scanConcept(d.db.QueryRowContext(ctx, stmt, args...))
	if err != nil {
		return nil, fmt.Errorf("failed to update concept: %w", err)
	}
	return concept, nil
}

func (d *DB) DeleteConcept(ctx context.Context, delete *store.DeleteConcept) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM concept WHERE id = $1`, delete.ID); err != nil {
		return fmt.Errorf("failed to delete concept: %w", err)
	}
	return nil
}
