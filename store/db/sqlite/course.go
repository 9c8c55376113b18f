package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/veida/store"
)

const courseColumns = "id, creator_id, created_ts, updated_ts, name, description, exam_date, push_notifications"

func scanCourse(row scanner) (*store.Course, error) {
	course := &store.Course{}
	if err := row.Scan(
		&course.ID,
		&course.CreatorID,
		&course.CreatedTs,
		&course.UpdatedTs,
		&course.Name,
		&course.Description,
		&course.ExamDate,
		&course.PushNotifications,
	); err != nil {
		return nil, err
	}
	return course, nil
}

func (d *DB) CreateCourse(ctx context.Context, create *store.Course) (*store.Course, error) {
	fields := []string{"creator_id", "name", "description", "exam_date", "push_notifications"}
	args := []any{create.CreatorID, create.Name, create.Description, create.ExamDate, create.PushNotifications}
	if create.CreatedTs != 0 {
		fields, args = append(fields, "created_ts", "updated_ts"), append(args, create.CreatedTs, create.CreatedTs)
	}

	stmt := `INSERT INTO course (` + strings.Join(fields, ", ") + `) VALUES (` + placeholders(len(args)) + `) RETURNING id, created_ts, updated_ts`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID, &create.CreatedTs, &create.UpdatedTs); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}
	return create, nil
}

func (d *DB) ListCourses(ctx context.Context, find *store.FindCourse) ([]*store.Course, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.CreatorID; v != nil {
		where, args = append(where, "creator_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Name; v != nil {
		where, args = append(where, "name = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.PushNotifications; v != nil {
		where, args = append(where, "push_notifications = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `SELECT ` + courseColumns + ` FROM course WHERE ` + strings.Join(where, " AND ") + ` ORDER BY id ASC`
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
		if find.Offset != nil {
			query = fmt.Sprintf("%s OFFSET %d", query, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	list := []*store.Course{}
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		list = append(list, course)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate courses: %w", err)
	}
	return list, nil
}

func (d *DB) UpdateCourse(ctx context.Context, update *store.UpdateCourse) (*store.Course, error) {
	updatedTs := time.Now().Unix()
	if update.UpdatedTs != nil {
		updatedTs = *update.UpdatedTs
	}
	set, args := []string{"updated_ts = ?"}, []any{updatedTs}
	if v := update.Name; v != nil {
		set, args = append(set, "name = ?"), append(args, *v)
	}
	if v := update.Description; v != nil {
		set, args = append(set, "description = ?"), append(args, *v)
	}
	if v := update.ExamDate; v != nil {
		set, args = append(set, "exam_date = ?"), append(args, *v)
	}
	if v := update.PushNotifications; v != nil {
		set, args = append(set, "push_notifications = ?"), append(args, *v)
	}
	args = append(args, update.ID)

	stmt := `UPDATE course SET ` + strings.Join(set, ", ") + ` WHERE id = ? RETURNING ` + courseColumns
	course, err := scanCourse(d.db.QueryRowContext(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("course %d not found", update.ID)
		}
		return nil, fmt.Errorf("failed to update course: %w", err)
	}
	return course, nil
}

func (d *DB) DeleteCourse(ctx context.Context, delete *store.DeleteCourse) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM course WHERE id = ?`, delete.ID); err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}
	return nil
}
