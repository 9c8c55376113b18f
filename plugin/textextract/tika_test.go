package textextract

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/veida/internal/profile"
)

// TestDefaultConfig tests the default configuration
func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "http://localhost:9998", config.TikaServerURL)
	assert.Equal(t, 60*time.Second, config.Timeout)
	assert.Equal(t, 200_000, config.MaxTextLength)
}

func TestConfigFromProfile(t *testing.T) {
	config := ConfigFromProfile(&profile.Profile{TikaServerURL: "http://tika:9998/"})
	assert.Equal(t, "http://tika:9998", config.TikaServerURL)
}

// TestNewClient tests client creation
func TestNewClient(t *testing.T) {
	client := NewClient(nil)
	assert.NotNil(t, client)
	assert.Equal(t, "http://localhost:9998", client.config.TikaServerURL)
}

// TestIsSupported tests MIME type support checking
func TestIsSupported(t *testing.T) {
	supported := []string{
		"application/pdf",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
		"text/plain; charset=utf-8",
		"APPLICATION/PDF",
	}
	for _, mimeType := range supported {
		t.Run(mimeType, func(t *testing.T) {
			assert.True(t, IsSupported(mimeType), "MIME type %s should be supported", mimeType)
		})
	}

	unsupported := []string{"image/png", "video/mp4", ""}
	for _, mimeType := range unsupported {
		t.Run("unsupported "+mimeType, func(t *testing.T) {
			assert.False(t, IsSupported(mimeType), "MIME type %s should not be supported", mimeType)
		})
	}
}

func TestExtractText_Server(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/tika", r.URL.Path)
		assert.Equal(t, "application/pdf", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "%PDF-1.4", string(body))
		_, _ = w.Write([]byte("\n  Mitochondria make ATP.  \n"))
	}))
	defer server.Close()

	client := NewClient(&Config{TikaServerURL: server.URL, Timeout: time.Second})
	result, err := client.ExtractText(context.Background(), []byte("%PDF-1.4"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "Mitochondria make ATP.", result.Text)
	assert.Equal(t, 3, result.WordCount)
	assert.False(t, result.Truncated)
}

func TestExtractText_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "parse failure", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewClient(&Config{TikaServerURL: server.URL, Timeout: time.Second})
	_, err := client.ExtractText(context.Background(), []byte("x"), "application/pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}

func TestExtractText_PlainTextSkipsServer(t *testing.T) {
	client := NewClient(&Config{TikaServerURL: "http://127.0.0.1:1", MaxTextLength: 5})

	result, err := client.ExtractText(context.Background(), []byte("héllo world"), "text/plain; charset=utf-8")
	require.NoError(t, err)
	assert.True(t, result.Truncated)
	assert.Equal(t, "héll", result.Text)
}

func TestExtractText_Unsupported(t *testing.T) {
	_, err := NewClient(nil).ExtractText(context.Background(), []byte{0x89}, "image/png")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestMerge(t *testing.T) {
	merged := Merge([]*Result{
		{Text: "first part", ContentType: "application/pdf"},
		{Text: ""},
		{Text: "second part", Truncated: true},
	})
	assert.Equal(t, "first part\n\nsecond part", merged.Text)
	assert.Equal(t, 4, merged.WordCount)
	assert.True(t, merged.Truncated)
	assert.Equal(t, &Result{}, Merge(nil))
}
