// Package ringcentral is a typed client for the RingCentral message store.
package ringcentral

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"voicemail-relay-go/internal/apperrors"
	"voicemail-relay-go/internal/model"
)

const maxErrorBody = 512

// Config configures a Client
type Config struct {
	Server      string
	AccountID   string
	ExtensionID string
	Timeout     time.Duration
}

// invalidator is implemented by token sources that can drop a rejected token
type invalidator interface {
	Invalidate()
}

// Client talks to the message store of a single extension. Every request
// carries a bearer token taken from the token source.
type Client struct {
	baseURL     string
	accountID   string
	extensionID string
	tokens      oauth2.TokenSource
	httpClient  *http.Client
}

// NewClient creates a message store client authenticated by tokens
func NewClient(cfg Config, tokens oauth2.TokenSource) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	accountID := cfg.AccountID
	if accountID == "" {
		accountID = "~"
	}

	return &Client{
		baseURL:     strings.TrimRight(cfg.Server, "/"),
		accountID:   accountID,
		extensionID: cfg.ExtensionID,
		tokens:      tokens,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &oauth2.Transport{
				Source: tokens,
				Base:   http.DefaultTransport,
			},
		},
	}
}

func (c *Client) messageStorePath() string {
	return fmt.Sprintf("/restapi/v1.0/account/%s/extension/%s/message-store",
		url.PathEscape(c.accountID), url.PathEscape(c.extensionID))
}

// ListUnread returns one page of unread voicemails created at or after dateFrom
func (c *Client) ListUnread(ctx context.Context, dateFrom string, page, perPage int) (*model.MessageList, error) {
	q := url.Values{}
	q.Set("messageType", "VoiceMail")
	q.Set("readStatus", string(model.ReadStatusUnread))
	q.Set("dateFrom", dateFrom)
	q.Set("perPage", strconv.Itoa(perPage))
	q.Set("page", strconv.Itoa(page))

	var list model.MessageList
	if err := c.doJSON(ctx, "list unread", http.MethodGet, c.baseURL+c.messageStorePath()+"?"+q.Encode(), nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetMessage returns the full record of a single message
func (c *Client) GetMessage(ctx context.Context, id string) (*model.Message, error) {
	var msg model.Message
	endpoint := c.baseURL + c.messageStorePath() + "/" + url.PathEscape(id)
	if err := c.doJSON(ctx, "get message", http.MethodGet, endpoint, nil, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// MarkRead flips the read status of a message. Nothing else is updated.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	body := map[string]model.ReadStatus{"readStatus": model.ReadStatusRead}
	endpoint := c.baseURL + c.messageStorePath() + "/" + url.PathEscape(id)
	return c.doJSON(ctx, "mark read", http.MethodPatch, endpoint, body, nil)
}

// FetchRaw downloads the body of uri as text. Relative URIs are resolved
// against the server base URL.
func (c *Client) FetchRaw(ctx context.Context, uri string) (string, error) {
	endpoint, err := c.resolve(uri)
	if err != nil {
		return "", &apperrors.RequestError{Op: "fetch attachment", Body: err.Error()}
	}

	resp, err := c.send(ctx, "fetch attachment", http.MethodGet, endpoint, nil, "", "*/*")
	if err != nil {
		return "", err
	}
	return string(resp), nil
}

func (c *Client) resolve(uri string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(uri))
	if err != nil {
		return "", fmt.Errorf("invalid attachment uri %q: %w", uri, err)
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	path := u.String()
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path, nil
}

func (c *Client) doJSON(ctx context.Context, op, method, endpoint string, body, result interface{}) error {
	var payload []byte
	contentType := ""
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal %s request: %w", op, err)
		}
		payload = data
		contentType = "application/json"
	}

	respBody, err := c.send(ctx, op, method, endpoint, payload, contentType, "application/json")
	if err != nil {
		return err
	}
	if result == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return &apperrors.TransientError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// send performs one request and maps failures onto the error taxonomy
func (c *Client) send(ctx context.Context, op, method, endpoint string, payload []byte, contentType, accept string) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", op, err)
	}
	req.Header.Set("Accept", accept)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var authErr *apperrors.AuthError
		if errors.As(err, &authErr) {
			return nil, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s aborted: %w", op, ctxErr)
		}
		return nil, &apperrors.TransientError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperrors.TransientError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return respBody, nil
	case resp.StatusCode == http.StatusUnauthorized:
		// A revoked token would otherwise stay cached until it expires.
		if inv, ok := c.tokens.(invalidator); ok {
			inv.Invalidate()
		}
		return nil, &apperrors.AuthError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(truncate(respBody))}
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, &apperrors.TransientError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(truncate(respBody))}
	default:
		return nil, &apperrors.RequestError{Op: op, StatusCode: resp.StatusCode, Body: truncate(respBody)}
	}
}

func truncate(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}
