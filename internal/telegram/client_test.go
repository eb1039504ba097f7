package telegram

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/dsemenov/wakeup-alarm/internal/domain/alarm"
)

// TestNewRequiresCredentials verifies constructor validation.
func TestNewRequiresCredentials(t *testing.T) {
	t.Parallel()

	_, err := New("", "token")
	require.Error(t, err)

	_, err = New("https://api.telegram.org", "")
	require.Error(t, err)

	c, err := New("https://api.telegram.org", "123:abc")
	require.NoError(t, err)
	require.NotNil(t, c)
}

// TestListKnownRecipients verifies chat id extraction and deduplication from
// the inbound updates payload.
func TestListKnownRecipients(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bot123:abc/getUpdates", r.URL.Path)

		_, _ = w.Write([]byte(`{
			"ok": true,
			"result": [
				{"message": {"chat": {"id": 100}}},
				{"message": {"chat": {"id": 200}}},
				{"message": {"chat": {"id": 100}}},
				{"edited_message": {"chat": {"id": 300}}}
			]
		}`))
	}))
	defer server.Close()

	c, err := New(server.URL, "123:abc", WithHTTPClient(server.Client()))
	require.NoError(t, err)

	recipients, err := c.ListKnownRecipients(context.Background())
	require.NoError(t, err)
	require.Equal(t, []domain.RecipientID{100, 200}, recipients)
}

// TestListKnownRecipientsErrors verifies transport-level failures surface as
// errors instead of empty recipient lists.
func TestListKnownRecipientsErrors(t *testing.T) {
	t.Parallel()

	// Non-200 status.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	c, err := New(server.URL, "123:abc", WithHTTPClient(server.Client()))
	require.NoError(t, err)

	_, err = c.ListKnownRecipients(context.Background())
	require.Error(t, err)

	// Malformed body.
	badBody := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer badBody.Close()

	c, err = New(badBody.URL, "123:abc", WithHTTPClient(badBody.Client()))
	require.NoError(t, err)

	_, err = c.ListKnownRecipients(context.Background())
	require.Error(t, err)
}

// TestBroadcast verifies one multipart sendPhoto request per recipient and
// that a failed recipient never blocks the rest.
func TestBroadcast(t *testing.T) {
	t.Parallel()

	var (
		mu       sync.Mutex
		chatIDs  []string
		captions []string
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/bot123:abc/sendPhoto", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))

		chatID := r.FormValue("chat_id")

		file, header, err := r.FormFile("photo")
		require.NoError(t, err)

		defer func() {
			_ = file.Close()
		}()

		require.Equal(t, "shame.jpg", header.Filename)
		require.Equal(t, "image/jpeg", header.Header.Get("Content-Type"))

		payload, err := io.ReadAll(file)
		require.NoError(t, err)
		require.Equal(t, []byte("jpeg bytes"), payload)

		mu.Lock()
		chatIDs = append(chatIDs, chatID)
		captions = append(captions, r.FormValue("caption"))
		mu.Unlock()

		// One recipient is broken; the others must still be attempted.
		if chatID == "200" {
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer server.Close()

	c, err := New(server.URL, "123:abc", WithHTTPClient(server.Client()))
	require.NoError(t, err)

	delivered, failed := c.Broadcast(
		context.Background(),
		[]byte("jpeg bytes"),
		"wake up",
		[]domain.RecipientID{100, 200, 300},
	)

	require.Equal(t, 2, delivered)
	require.Equal(t, 1, failed)
	require.Equal(t, []string{"100", "200", "300"}, chatIDs)
	require.Equal(t, []string{"wake up", "wake up", "wake up"}, captions)
}
