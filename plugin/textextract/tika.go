// Package textextract turns uploaded lecture documents into plain text using
// an Apache Tika server.
package textextract

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/hrygo/veida/internal/profile"
)

// SupportedMimeTypes lists the document types accepted for extraction.
var SupportedMimeTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"application/rtf",
	"text/plain",
	"text/markdown",
	"text/rtf",
}

// ErrUnsupportedType is returned for documents Tika is not asked to handle.
var ErrUnsupportedType = errors.New("unsupported content type")

// Extractor extracts the text of a document.
type Extractor interface {
	ExtractText(ctx context.Context, data []byte, contentType string) (*Result, error)
}

// Config holds the text extraction configuration
type Config struct {
	// TikaServerURL is the URL of the Tika server (e.g., http://localhost:9998)
	TikaServerURL string
	// Timeout is the HTTP timeout for Tika server requests
	Timeout time.Duration
	// MaxTextLength caps the returned text in bytes; 0 means unlimited.
	MaxTextLength int
}

// DefaultConfig returns the default text extraction configuration
func DefaultConfig() *Config {
	return &Config{
		TikaServerURL: "http://localhost:9998",
		Timeout:       60 * time.Second,
		MaxTextLength: 200_000,
	}
}

// ConfigFromProfile creates extraction config from the server profile.
func ConfigFromProfile(p *profile.Profile) *Config {
	config := DefaultConfig()
	if p.TikaServerURL != "" {
		config.TikaServerURL = strings.TrimRight(p.TikaServerURL, "/")
	}
	return config
}

// Client talks to a Tika server.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient creates a new text extraction client
func NewClient(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Result represents the extraction result
type Result struct {
	Text        string `json:"text"`
	ContentType string `json:"content_type"`
	WordCount   int    `json:"word_count,omitempty"`
	CharCount   int    `json:"char_count,omitempty"`
	Truncated   bool   `json:"truncated,omitempty"`
}

// ExtractText extracts text from a document. Plain text and Markdown are
// returned as is; other types go through the Tika server.
func (c *Client) ExtractText(ctx context.Context, data []byte, contentType string) (*Result, error) {
	mediaType := normalizeContentType(contentType)
	if !IsSupported(mediaType) {
		return nil, errors.Wrapf(ErrUnsupportedType, "%q", contentType)
	}

	var text string
	if mediaType == "text/plain" || mediaType == "text/markdown" {
		if !utf8.Valid(data) {
			return nil, errors.New("text document is not valid UTF-8")
		}
		text = string(data)
	} else {
		extracted, err := c.extractFromServer(ctx, data, mediaType)
		if err != nil {
			return nil, err
		}
		text = extracted
	}

	result := &Result{
		Text:        strings.TrimSpace(text),
		ContentType: mediaType,
	}
	result.truncate(c.config.MaxTextLength)
	result.calculateStats()
	return result, nil
}

// extractFromServer extracts text using Tika server
func (c *Client) extractFromServer(ctx context.Context, data []byte, contentType string) (string, error) {
	if c.config.TikaServerURL == "" {
		return "", errors.New("tika server URL is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.config.TikaServerURL+"/tika", bytes.NewReader(data))
	if err != nil {
		return "", errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "text/plain")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("tika server request failed", slog.String("error", err.Error()))
		return "", errors.Wrap(err, "tika server request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", errors.Errorf("tika server returned status %d: %s", resp.StatusCode, string(body))
	}

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "failed to read response")
	}
	return string(text), nil
}

// IsAvailable checks if the Tika server answers.
func (c *Client) IsAvailable(ctx context.Context) bool {
	if c.config.TikaServerURL == "" {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.TikaServerURL+"/version", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// IsSupported checks if a MIME type is supported
func IsSupported(contentType string) bool {
	mediaType := normalizeContentType(contentType)
	for _, supported := range SupportedMimeTypes {
		if mediaType == supported {
			return true
		}
	}
	return false
}

func normalizeContentType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType
}

func (r *Result) truncate(maxLength int) {
	if maxLength <= 0 || len(r.Text) <= maxLength {
		return
	}
	text := r.Text[:maxLength]
	// Do not cut a rune in half.
	for !utf8.ValidString(text) {
		text = text[:len(text)-1]
	}
	r.Text = text
	r.Truncated = true
}

// calculateStats calculates word and character counts
func (r *Result) calculateStats() {
	r.CharCount = utf8.RuneCountInString(r.Text)
	r.WordCount = len(strings.Fields(r.Text))
}

// Merge joins the results of several documents into one.
func Merge(results []*Result) *Result {
	if len(results) == 0 {
		return &Result{}
	}
	if len(results) == 1 {
		return results[0]
	}

	merged := &Result{ContentType: results[0].ContentType}
	var textBuilder strings.Builder
	for _, result := range results {
		if result.Text != "" {
			textBuilder.WriteString(result.Text)
			textBuilder.WriteString("\n\n")
		}
		merged.Truncated = merged.Truncated || result.Truncated
	}
	merged.Text = strings.TrimSpace(textBuilder.String())
	merged.calculateStats()
	return merged
}
