package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/veida/store"
)

// Account is the API representation of the caller account.
type Account struct {
	ID           int32  `json:"id"`
	Email        string `json:"email"`
	Premium      bool   `json:"premium"`
	HasPushToken bool   `json:"has_push_token"`
}

type SetPushTokenRequest struct {
	// Token is the FCM registration token; empty unregisters the device.
	Token string `json:"token"`
}

func (s *APIV1Service) GetAccount(c echo.Context) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convertAccountFromStore(account))
}

func (s *APIV1Service) SetPushToken(c echo.Context) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	request := &SetPushTokenRequest{}
	if err := bind(c, request); err != nil {
		return err
	}

	token := strings.TrimSpace(request.Token)
	now := s.now().Unix()
	updated, err := s.Store.UpdateAccount(c.Request().Context(), &store.UpdateAccount{
		ID:        account.ID,
		UpdatedTs: &now,
		PushToken: &token,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convertAccountFromStore(updated))
}

func convertAccountFromStore(account *store.Account) *Account {
	return &Account{
		ID:           account.ID,
		Email:        account.Email,
		Premium:      account.Premium,
		HasPushToken: account.PushToken != "",
	}
}
