package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"quizrank/internal/domain"
)

// Client talks to the quizrank REST API. It is both an app.QuestionSource and
// an app.ScoreBoard, so an app.Engine can run a quiz entirely client-side.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func (c *Client) NextQuestion(ctx context.Context) (domain.Question, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/generate-question", nil)
	if err != nil {
		return domain.Question{}, fmt.Errorf("%w: %v", domain.ErrFetch, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Question{}, fmt.Errorf("%w: %v", domain.ErrFetch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return domain.Question{}, fmt.Errorf("%w: read response: %v", domain.ErrFetch, err)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.Question{}, fmt.Errorf("%w: %s", domain.ErrFetch, describe(resp.StatusCode, body))
	}
	return domain.ParseQuestion(string(body))
}

type submission struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
	Time  int64  `json:"time"`
}

func (c *Client) Submit(ctx context.Context, name string, score int, timeMs int64) error {
	payload, err := json.Marshal(submission{Name: name, Score: score, Time: timeMs})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/leaderboard", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	switch {
	case resp.StatusCode == http.StatusCreated:
		return nil
	case resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", domain.ErrValidation, describe(resp.StatusCode, body))
	default:
		return fmt.Errorf("%w: %s", domain.ErrPersistence, describe(resp.StatusCode, body))
	}
}

func (c *Client) Top(ctx context.Context, n int) ([]domain.LeaderboardEntry, error) {
	endpoint := c.baseURL + "/api/leaderboard"
	if n > 0 {
		endpoint += "?" + url.Values{"limit": []string{strconv.Itoa(n)}}.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return nil, fmt.Errorf("%w: %s", domain.ErrPersistence, describe(resp.StatusCode, body))
	}
	var entries []domain.LeaderboardEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("%w: decode leaderboard: %v", domain.ErrPersistence, err)
	}
	return entries, nil
}

func describe(status int, body []byte) string {
	var e errorBody
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return fmt.Sprintf("status %d: %s", status, e.Error)
	}
	return fmt.Sprintf("status %d", status)
}
