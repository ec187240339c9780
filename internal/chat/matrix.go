package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"slidesmith/internal/config"
	"slidesmith/internal/logging"
	"slidesmith/internal/services"
)

// HTTPDoer describes the HTTP client used by the Matrix service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

const (
	syncTimeout  = 30 * time.Second
	errorBackoff = 5 * time.Second
)

// Client is a minimal Matrix client-server API consumer: it joins one
// room, long-polls /sync for messages, and posts replies.
type Client struct {
	homeserver  string
	accessToken string
	roomID      string
	userID      string
	client      HTTPDoer
	logger      *slog.Logger
}

// NewClient builds a Matrix client from static configuration.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	httpClient := &http.Client{Timeout: syncTimeout + 15*time.Second}
	return &Client{
		homeserver:  strings.TrimRight(strings.TrimSpace(cfg.Matrix.Homeserver), "/"),
		accessToken: strings.TrimSpace(cfg.Matrix.AccessToken),
		roomID:      strings.TrimSpace(cfg.Matrix.RoomID),
		userID:      strings.TrimSpace(cfg.Matrix.UserID),
		client:      httpClient,
		logger:      logging.WithComponent(logger, "matrix"),
	}
}

// NewClientWithDoer is the test constructor.
func NewClientWithDoer(homeserver, accessToken, roomID, userID string, doer HTTPDoer, logger *slog.Logger) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{
		homeserver:  strings.TrimRight(strings.TrimSpace(homeserver), "/"),
		accessToken: strings.TrimSpace(accessToken),
		roomID:      roomID,
		userID:      userID,
		client:      doer,
		logger:      logger,
	}
}

func (c *Client) endpoint(pathFormat string, args ...any) string {
	escaped := make([]any, len(args))
	for i, arg := range args {
		escaped[i] = url.PathEscape(fmt.Sprint(arg))
	}
	return c.homeserver + fmt.Sprintf(pathFormat, escaped...)
}

// Join joins the configured control room. Joining an already-joined room
// succeeds, so this is safe to call on every startup.
func (c *Client) Join(ctx context.Context) error {
	var out struct {
		RoomID string `json:"room_id"`
	}
	err := c.do(ctx, http.MethodPost, c.endpoint("/_matrix/client/v3/rooms/%s/join", c.roomID), map[string]any{}, &out)
	if err != nil {
		return services.Wrap(services.ErrTransport, "matrix", "join", fmt.Sprintf("join room %s", c.roomID), err)
	}
	return nil
}

// SendText posts a plain m.room.message into the control room.
func (c *Client) SendText(ctx context.Context, body string) error {
	return c.sendMessage(ctx, map[string]any{
		"msgtype": "m.text",
		"body":    body,
	})
}

// SendHTML posts a formatted message with a plain-text fallback.
func (c *Client) SendHTML(ctx context.Context, body, html string) error {
	return c.sendMessage(ctx, map[string]any{
		"msgtype":        "m.text",
		"body":           body,
		"format":         "org.matrix.custom.html",
		"formatted_body": html,
	})
}

func (c *Client) sendMessage(ctx context.Context, content map[string]any) error {
	txn := uuid.NewString()
	endpoint := c.endpoint("/_matrix/client/v3/rooms/%s/send/%s/%s", c.roomID, "m.room.message", txn)
	if err := c.do(ctx, http.MethodPut, endpoint, content, nil); err != nil {
		return services.Wrap(services.ErrTransport, "matrix", "send", "post room message", err)
	}
	return nil
}

type syncResponse struct {
	NextBatch string `json:"next_batch"`
	Rooms     struct {
		Join map[string]struct {
			Timeline struct {
				Events []struct {
					Type    string `json:"type"`
					Sender  string `json:"sender"`
					EventID string `json:"event_id"`
					Content struct {
						MsgType string `json:"msgtype"`
						Body    string `json:"body"`
					} `json:"content"`
				} `json:"events"`
			} `json:"timeline"`
		} `json:"join"`
	} `json:"rooms"`
}

// Listen long-polls /sync and invokes the handler for each text message in
// the control room not sent by the bot itself. The first sync discards the
// backlog so only messages arriving after startup are handled. Listen
// returns when the context is cancelled.
func (c *Client) Listen(ctx context.Context, handler Handler) error {
	since, err := c.initialSync(ctx)
	if err != nil {
		return err
	}
	c.logger.Info("listening for commands", logging.String("room_id", c.roomID))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		resp, err := c.sync(ctx, since, syncTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("sync failed, backing off", logging.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(errorBackoff):
			}
			continue
		}
		since = resp.NextBatch

		room, ok := resp.Rooms.Join[c.roomID]
		if !ok {
			continue
		}
		for _, event := range room.Timeline.Events {
			if event.Type != "m.room.message" || event.Content.MsgType != "m.text" {
				continue
			}
			if event.Sender == c.userID {
				continue
			}
			handler(ctx, Message{
				Sender:  event.Sender,
				Body:    event.Content.Body,
				RoomID:  c.roomID,
				EventID: event.EventID,
			})
		}
	}
}

// initialSync fetches the current sync token without processing history.
func (c *Client) initialSync(ctx context.Context) (string, error) {
	resp, err := c.sync(ctx, "", 0)
	if err != nil {
		return "", services.Wrap(services.ErrTransport, "matrix", "sync", "initial sync", err)
	}
	return resp.NextBatch, nil
}

func (c *Client) sync(ctx context.Context, since string, timeout time.Duration) (*syncResponse, error) {
	query := url.Values{}
	query.Set("timeout", fmt.Sprint(timeout.Milliseconds()))
	if since != "" {
		query.Set("since", since)
	} else {
		// Trim the initial payload: we only want the next_batch token.
		query.Set("filter", `{"room":{"timeline":{"limit":1}}}`)
	}

	endpoint := c.homeserver + "/_matrix/client/v3/sync?" + query.Encode()
	var out syncResponse
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%s %s returned %s: %s", method, req.URL.Path, resp.Status, strings.TrimSpace(string(data)))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
