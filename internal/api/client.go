// internal/api/client.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/JokerTrickster/board-game-app-sub000/internal/middleware"
	"github.com/JokerTrickster/board-game-app-sub000/internal/models"
	"github.com/sirupsen/logrus"
)

var ErrUnexpectedStatus = errors.New("unexpected response status")

// ResultUser is one player's line in the post-game result.
type ResultUser struct {
	UserID   int64  `json:"userID"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Coin     int    `json:"coin"`
	IsWinner bool   `json:"isWinner"`
}

// Result is the authoritative outcome of a finished room.
type Result struct {
	RoomID int64        `json:"roomID"`
	Game   string       `json:"game"`
	Users  []ResultUser `json:"users"`
}

// Winner returns the winning user id, or 0 on a draw or unknown result.
func (r *Result) Winner() int64 {
	if r == nil {
		return 0
	}
	for _, u := range r.Users {
		if u.IsWinner {
			return u.UserID
		}
	}
	return 0
}

// Client calls the game REST API.
type Client struct {
	base string
	http *http.Client
}

func NewClient(base string, timeout time.Duration, logger logrus.FieldLogger) *Client {
	return &Client{
		base: base,
		http: &http.Client{
			Timeout:   timeout,
			Transport: middleware.LogTransport(logger, nil),
		},
	}
}

// GameResult fetches the result of a finished room.
func (c *Client) GameResult(ctx context.Context, game models.GameType, roomID int64, token string) (*Result, error) {
	url := fmt.Sprintf("%s/%s/v0.1/rooms/%d/result", c.base, game.Slug(), roomID)
	var res Result
	if err := c.do(ctx, http.MethodGet, url, token, nil, &res); err != nil {
		return nil, fmt.Errorf("fetch result for room %d: %w", roomID, err)
	}
	if res.RoomID == 0 {
		res.RoomID = roomID
	}
	return &res, nil
}

type coinRequest struct {
	Coin int `json:"coin"`
}

// DeductCoins charges the entry fee for a game.
func (c *Client) DeductCoins(ctx context.Context, token string, amount int) error {
	if amount <= 0 {
		return nil
	}
	url := c.base + "/v0.1/users/coins"
	if err := c.do(ctx, http.MethodPut, url, token, coinRequest{Coin: -amount}, nil); err != nil {
		return fmt.Errorf("deduct %d coins: %w", amount, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, url, token string, body, out interface{}) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return err
	}
	req.Header.Set("tkn", token)
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: %d %s: %w", method, url, resp.StatusCode, bytes.TrimSpace(msg), ErrUnexpectedStatus)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
