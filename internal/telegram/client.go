package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"

	"github.com/dsemenov/wakeup-alarm/internal/config"
	domain "github.com/dsemenov/wakeup-alarm/internal/domain/alarm"
	"github.com/dsemenov/wakeup-alarm/internal/logger"
)

// attachmentFilename is the name under which escalation photos are filed.
const attachmentFilename = "shame.jpg"

// Client talks to the Telegram Bot API: it discovers recipients from the
// bot's inbound updates and broadcasts escalation photos.
type Client struct {
	// apiBase is the Bot API base URL, overridable for tests.
	apiBase string
	// token authenticates the bot.
	token string
	// httpClient executes the Bot API calls.
	httpClient *http.Client
}

// Option configures client behaviour.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

var (
	// errTokenRequired is returned when the bot token is missing.
	errTokenRequired = errors.New("bot token must be provided")
	// errAPIBaseRequired is returned when the API base URL is missing.
	errAPIBaseRequired = errors.New("API base URL must be provided")
)

// New creates a Bot API client.
func New(apiBase, token string, opts ...Option) (*Client, error) {
	if apiBase == "" {
		return nil, errAPIBaseRequired
	}

	if token == "" {
		return nil, errTokenRequired
	}

	client := &Client{
		apiBase: apiBase,
		token:   token,
		httpClient: &http.Client{
			Timeout: config.DefaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// updatesResponse mirrors the getUpdates payload down to the chat ids.
type updatesResponse struct {
	// OK reports whether the Bot API accepted the request.
	OK bool `json:"ok"`
	// Result is the list of inbound updates.
	Result []struct {
		Message *struct {
			Chat *struct {
				ID int64 `json:"id"`
			} `json:"chat"`
		} `json:"message"`
	} `json:"result"`
}

// ListKnownRecipients polls the bot's inbound updates and returns the chat
// ids seen there, deduplicated. Any transport or decoding failure is returned
// as an error; the caller falls back to the persisted registry.
func (c *Client) ListKnownRecipients(ctx context.Context) ([]domain.RecipientID, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.methodURL("getUpdates"), nil)
	if err != nil {
		return nil, fmt.Errorf("build getUpdates request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("poll updates: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("poll updates: unexpected status %s", resp.Status)
	}

	var updates updatesResponse
	if err = json.NewDecoder(resp.Body).Decode(&updates); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}

	seen := make(map[domain.RecipientID]struct{}, len(updates.Result))
	recipients := make([]domain.RecipientID, 0, len(updates.Result))

	for _, update := range updates.Result {
		if update.Message == nil || update.Message.Chat == nil {
			continue
		}

		id := domain.RecipientID(update.Message.Chat.ID)
		if _, ok := seen[id]; ok {
			continue
		}

		seen[id] = struct{}{}
		recipients = append(recipients, id)
	}

	return recipients, nil
}

// Broadcast sends the photo to every recipient with one independent,
// best-effort attempt each. A failure for one recipient never prevents
// attempts to the others; outcomes are logged and counted, nothing more.
// No retries.
func (c *Client) Broadcast(
	ctx context.Context,
	image []byte,
	caption string,
	recipients []domain.RecipientID,
) (delivered, failed int) {
	for _, recipient := range recipients {
		if err := c.sendPhoto(ctx, image, caption, recipient); err != nil {
			logger.WarnKV(ctx, "Photo delivery failed", "recipient", recipient, "error", err)

			failed++

			continue
		}

		logger.InfoKV(ctx, "Photo delivered", "recipient", recipient)

		delivered++
	}

	return delivered, failed
}

// sendPhoto posts one multipart sendPhoto request: a text field for the chat
// id, an optional text field for the caption and the image filed as a JPEG
// attachment.
func (c *Client) sendPhoto(ctx context.Context, image []byte, caption string, recipient domain.RecipientID) error {
	var body bytes.Buffer

	form := multipart.NewWriter(&body)

	if err := form.WriteField("chat_id", strconv.FormatInt(int64(recipient), 10)); err != nil {
		return fmt.Errorf("write chat_id field: %w", err)
	}

	if caption != "" {
		if err := form.WriteField("caption", caption); err != nil {
			return fmt.Errorf("write caption field: %w", err)
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="photo"; filename=%q`, attachmentFilename))
	header.Set("Content-Type", "image/jpeg")

	part, err := form.CreatePart(header)
	if err != nil {
		return fmt.Errorf("create photo part: %w", err)
	}

	if _, err = part.Write(image); err != nil {
		return fmt.Errorf("write photo payload: %w", err)
	}

	if err = form.Close(); err != nil {
		return fmt.Errorf("finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL("sendPhoto"), &body)
	if err != nil {
		return fmt.Errorf("build sendPhoto request: %w", err)
	}

	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send photo: %w", err)
	}

	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("send photo: unexpected status %s", resp.Status)
	}

	return nil
}

// methodURL builds the Bot API URL for the given method.
func (c *Client) methodURL(method string) string {
	return c.apiBase + "/bot" + c.token + "/" + method
}
