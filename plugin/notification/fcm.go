// Package notification sends push notifications through Firebase Cloud
// Messaging (HTTP v1 API).
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/hrygo/veida/internal/profile"
)

const (
	fcmScope    = "https://www.googleapis.com/auth/firebase.messaging"
	fcmEndpoint = "https://fcm.googleapis.com"
)

// ErrUnregistered means the device token is no longer valid and should be forgotten.
var ErrUnregistered = errors.New("device token is unregistered")

// Message is a notification shown on the user's device.
type Message struct {
	Title string
	Body  string
	// Data is delivered to the app alongside the notification.
	Data map[string]string
}

// Sender delivers a message to one device.
type Sender interface {
	Send(ctx context.Context, token string, message *Message) error
}

// FCMSender sends messages with the FCM HTTP v1 API.
type FCMSender struct {
	projectID string
	endpoint  string
	client    *http.Client
}

// NewFCMSender creates a sender authenticated by tokenSource.
func NewFCMSender(projectID string, tokenSource oauth2.TokenSource) *FCMSender {
	client := oauth2.NewClient(context.Background(), tokenSource)
	client.Timeout = 10 * time.Second
	return &FCMSender{
		projectID: projectID,
		endpoint:  fcmEndpoint,
		client:    client,
	}
}

// NewFCMSenderFromProfile loads the service account credentials named by the profile.
func NewFCMSenderFromProfile(ctx context.Context, p *profile.Profile) (*FCMSender, error) {
	if !p.IsPushEnabled() {
		return nil, errors.New("push notifications are not configured")
	}
	data, err := os.ReadFile(p.FCMCredentialsFile)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read FCM credentials")
	}
	credentials, err := google.CredentialsFromJSON(ctx, data, fcmScope)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse FCM credentials")
	}
	return NewFCMSender(p.FCMProjectID, credentials.TokenSource), nil
}

type fcmRequest struct {
	Message fcmMessage `json:"message"`
}

type fcmMessage struct {
	Token        string            `json:"token"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Details []struct {
			ErrorCode string `json:"errorCode"`
		} `json:"details"`
	} `json:"error"`
}

// Send delivers message to the device identified by token.
func (s *FCMSender) Send(ctx context.Context, token string, message *Message) error {
	if token == "" {
		return errors.New("device token is empty")
	}

	payload, err := json.Marshal(fcmRequest{Message: fcmMessage{
		Token:        token,
		Notification: fcmNotification{Title: message.Title, Body: message.Body},
		Data:         message.Data,
	}})
	if err != nil {
		return errors.Wrap(err, "failed to marshal FCM message")
	}

	url := fmt.Sprintf("%s/v1/projects/%s/messages:send", s.endpoint, s.projectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "FCM request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var fe fcmError
	if json.Unmarshal(body, &fe) == nil {
		for _, detail := range fe.Error.Details {
			if detail.ErrorCode == "UNREGISTERED" {
				return ErrUnregistered
			}
		}
		if resp.StatusCode == http.StatusNotFound || strings.EqualFold(fe.Error.Status, "NOT_FOUND") {
			return ErrUnregistered
		}
		return errors.Errorf("FCM returned status %d: %s", resp.StatusCode, fe.Error.Message)
	}
	return errors.Errorf("FCM returned status %d", resp.StatusCode)
}
