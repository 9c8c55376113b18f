package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/veida/store"
)

const accountColumns = "id, subject, email, push_token, premium, created_ts, updated_ts"

func scanAccount(row scanner) (*store.Account, error) {
	account := &store.Account{}
	if err := row.Scan(
		&account.ID,
		&account.Subject,
		&account.Email,
		&account.PushToken,
		&account.Premium,
		&account.CreatedTs,
		&account.UpdatedTs,
	); err != nil {
		return nil, err
	}
	return account, nil
}

func (d *DB) UpsertAccount(ctx context.Context, upsert *store.Account) (*store.Account, error) {
	now := time.Now().Unix()
	stmt := `
		INSERT INTO account (subject, email, created_ts, updated_ts)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (subject) DO UPDATE
		SET email = EXCLUDED.email, updated_ts = EXCLUDED.updated_ts
		RETURNING ` + accountColumns

	account, err := scanAccount(d.db.QueryRowContext(ctx, stmt, upsert.Subject, upsert.Email, now, now))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert account: %w", err)
	}
	return account, nil
}

func (d *DB) ListAccounts(ctx context.Context, find *store.FindAccount) ([]*store.Account, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Subject; v != nil {
		where, args = append(where, "subject = "+placeholder(len(args)+1)), append(args, *v)
	}
	if find.HasPushToken {
		where = append(where, "push_token <> ''")
	}

	query := `SELECT ` + accountColumns + ` FROM account WHERE ` + strings.Join(where, " AND ") + ` ORDER BY id ASC`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	list := []*store.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		list = append(list, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}
	return list, nil
}

func (d *DB) UpdateAccount(ctx context.Context, update *store.UpdateAccount) (*store.Account, error) {
	updatedTs := time.Now().Unix()
	if update.UpdatedTs != nil {
		updatedTs = *update.UpdatedTs
	}
	set, args := []string{"updated_ts = $1"}, []any{updatedTs}
	if v := update.Email; v != nil {
		set, args = append(set, "email = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.PushToken; v != nil {
		set, args = append(set, "push_token = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Premium; v != nil {
		set, args = append(set, "premium = "+placeholder(len(args)+1)), append(args, *v)
	}
	args = append(args, update.ID)

	stmt := `UPDATE account SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args)) + ` RETURNING ` + accountColumns
	account, err := scanAccount(d.db.QueryRowContext(ctx, stmt, args...))
	if err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}
	return account, nil
}
