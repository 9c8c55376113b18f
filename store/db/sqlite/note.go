package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/veida/store"
)

const noteColumns = "id, concept_id, creator_id, created_ts, updated_ts, name, content"

func scanNote(row scanner) (*store.Note, error) {
	note := &store.Note{}
	if err := row.Scan(
		&note.ID,
		&note.ConceptID,
		&note.CreatorID,
		&note.CreatedTs,
		&note.UpdatedTs,
		&note.Name,
		&note.Content,
	); err != nil {
		return nil, err
	}
	return note, nil
}

func (d *DB) UpsertNote(ctx context.Context, upsert *store.Note) (*store.Note, error) {
	now := time.Now().Unix()
	stmt := `
		INSERT INTO note (concept_id, creator_id, name, content, created_ts, updated_ts)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(concept_id, name) DO UPDATE
		SET content = EXCLUDED.content, updated_ts = EXCLUDED.updated_ts
		RETURNING ` + noteColumns

	note, err := scanNote(d.db.QueryRowContext(ctx, stmt, upsert.ConceptID, upsert.CreatorID, upsert.Name, upsert.Content, now, now))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert note: %w", err)
	}
	return note, nil
}

func (d *DB) ListNotes(ctx context.Context, find *store.FindNote) ([]*store.Note, error) {
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
	if v := find.Name; v != nil {
		where, args = append(where, "name = ?"), append(args, *v)
	}

	rows, err := d.db.QueryContext(ctx, `SELECT `+noteColumns+` FROM note WHERE `+strings.Join(where, " AND ")+` ORDER BY name ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	list := []*store.Note{}
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		list = append(list, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notes: %w", err)
	}
	return list, nil
}

func (d *DB) DeleteNote(ctx context.Context, delete *store.DeleteNote) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM note WHERE id = ?`, delete.ID); err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return nil
}
