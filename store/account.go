package store

import (
	"context"
)

// Account is the local record of a caller authenticated by the identity provider.
type Account struct {
	ID int32

	// Subject is the identity provider's user id.
	Subject   string
	Email     string
	PushToken string
	// Premium is stored and reported but only changed by operators.
	Premium bool

	CreatedTs int64
	UpdatedTs int64
}

type FindAccount struct {
	ID      *int32
	Subject *string

	// HasPushToken restricts the result to accounts that registered a device.
	HasPushToken bool
}

type UpdateAccount struct {
	ID        int32
	UpdatedTs *int64
	Email     *string
	PushToken *string
	Premium   *bool
}

// UpsertAccount creates the account for subject or refreshes its email.
// Unchanged accounts are served from cache so the per-request sync stays cheap.
func (s *Store) UpsertAccount(ctx context.Context, upsert *Account) (*Account, error) {
	if cached, ok := s.accountCache.Get(ctx, upsert.Subject); ok {
		if account, ok := cached.(*Account); ok && account.Email == upsert.Email {
			return account, nil
		}
	}

	account, err := s.driver.UpsertAccount(ctx, upsert)
	if err != nil {
		return nil, err
	}
	s.accountCache.Set(ctx, account.Subject, account)
	return account, nil
}

func (s *Store) ListAccounts(ctx context.Context, find *FindAccount) ([]*Account, error) {
	return s.driver.ListAccounts(ctx, find)
}

func (s *Store) GetAccount(ctx context.Context, find *FindAccount) (*Account, error) {
	if find.Subject != nil {
		if cached, ok := s.accountCache.Get(ctx, *find.Subject); ok {
			if account, ok := cached.(*Account); ok {
				return account, nil
			}
		}
	}

	list, err := s.ListAccounts(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}

	account := list[0]
	s.accountCache.Set(ctx, account.Subject, account)
	return account, nil
}

func (s *Store) UpdateAccount(ctx context.Context, update *UpdateAccount) (*Account, error) {
	account, err := s.driver.UpdateAccount(ctx, update)
	if err != nil {
		return nil, err
	}
	s.accountCache.Set(ctx, account.Subject, account)
	return account, nil
}
