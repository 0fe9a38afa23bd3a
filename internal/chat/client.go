package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"arcade/internal/auth"
)

type Chat struct {
	ID            string     `json:"id"`
	PeerID        string     `json:"peer_id"`
	PeerName      string     `json:"peer_name"`
	PeerPosition  string     `json:"peer_position,omitempty"`
	PeerAvatar    string     `json:"peer_avatar,omitempty"`
	LastMessage   string     `json:"last_message,omitempty"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	UnreadCount   int        `json:"unread_count"`
}

type Message struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	SenderID  string    `json:"sender_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	Read      bool      `json:"read"`
}

// Service is the remote employee chat API.
type Service interface {
	ListChats(ctx context.Context, userID, companyID string) ([]Chat, error)
	Messages(ctx context.Context, chatID string) ([]Message, error)
	MarkRead(ctx context.Context, chatID, userID string) error
	OpenChat(ctx context.Context, userID, colleagueID, companyID string) (Chat, error)
	Send(ctx context.Context, chatID, senderID, text string) (Message, error)
}

// Client implements Service over JSON/HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  auth.TokenSource
}

func NewClient(baseURL string, httpClient *http.Client, tokens auth.TokenSource) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		tokens:  tokens,
	}
}

func (c *Client) ListChats(ctx context.Context, userID, companyID string) ([]Chat, error) {
	q := url.Values{}
	q.Set("user_id", userID)
	q.Set("company_id", companyID)

	var out []Chat
	if err := c.do(ctx, http.MethodGet, "/chats", q, nil, &out); err != nil {
		return nil, fmt.Errorf("listing chats: %w", err)
	}
	if out == nil {
		out = []Chat{}
	}
	return out, nil
}

func (c *Client) Messages(ctx context.Context, chatID string) ([]Message, error) {
	var out []Message
	if err := c.do(ctx, http.MethodGet, "/chats/"+url.PathEscape(chatID)+"/messages", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("listing messages for %s: %w", chatID, err)
	}
	if out == nil {
		out = []Message{}
	}
	return out, nil
}

func (c *Client) MarkRead(ctx context.Context, chatID, userID string) error {
	body := map[string]string{"user_id": userID}
	if err := c.do(ctx, http.MethodPost, "/chats/"+url.PathEscape(chatID)+"/read", nil, body, nil); err != nil {
		return fmt.Errorf("marking %s read: %w", chatID, err)
	}
	return nil
}

// OpenChat returns the chat between userID and colleagueID, creating it if
// the service has none yet.
func (c *Client) OpenChat(ctx context.Context, userID, colleagueID, companyID string) (Chat, error) {
	body := map[string]string{
		"user_id":      userID,
		"colleague_id": colleagueID,
		"company_id":   companyID,
	}
	var out Chat
	if err := c.do(ctx, http.MethodPost, "/chats", nil, body, &out); err != nil {
		return Chat{}, fmt.Errorf("opening chat with %s: %w", colleagueID, err)
	}
	return out, nil
}

func (c *Client) Send(ctx context.Context, chatID, senderID, text string) (Message, error) {
	body := map[string]string{
		"sender_id": senderID,
		"text":      text,
	}
	var out Message
	if err := c.do(ctx, http.MethodPost, "/chats/"+url.PathEscape(chatID)+"/messages", nil, body, &out); err != nil {
		return Message{}, fmt.Errorf("sending to %s: %w", chatID, err)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, in, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
