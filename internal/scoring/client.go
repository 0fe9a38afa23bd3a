package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"arcade/internal/auth"
)

// ErrNoCredential is returned by Submit when there is nobody to attribute the
// score to. Callers treat it as a silent no-op.
var ErrNoCredential = errors.New("no auth credential")

type Leader struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Score     int    `json:"score"`
}

type submission struct {
	Game  Game `json:"game"`
	Score int  `json:"score"`
}

type leadersResponse struct {
	Leaders []Leader `json:"leaders"`
}

// Client talks to the remote scoring service.
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
		baseURL: baseURL,
		http:    httpClient,
		tokens:  tokens,
	}
}

func (c *Client) Submit(ctx context.Context, game Game, score int) error {
	token := ""
	if c.tokens != nil {
		token = c.tokens.Token()
	}
	if token == "" {
		return ErrNoCredential
	}

	body, err := json.Marshal(submission{Game: game, Score: score})
	if err != nil {
		return fmt.Errorf("encoding score: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building score request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("posting score: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("posting score: status %d", resp.StatusCode)
	}
	return nil
}

// Leaders fetches the top scorers for game. A response without a "leaders"
// field yields an empty list; non-2xx statuses and malformed bodies are
// errors.
func (c *Client) Leaders(ctx context.Context, game Game) ([]Leader, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing scores url: %w", err)
	}
	q := u.Query()
	q.Set("game", string(game))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building leaders request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching leaders: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("fetching leaders: status %d", resp.StatusCode)
	}

	var out leadersResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding leaders: %w", err)
	}
	if out.Leaders == nil {
		out.Leaders = []Leader{}
	}
	return out.Leaders, nil
}
