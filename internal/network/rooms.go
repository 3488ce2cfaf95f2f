package network

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"LiveBoard/internal/protocol"
	"LiveBoard/internal/session"
)

var ErrStatus = errors.New("unexpected status")

// RoomsClient talks to the HTTP room API of a relay.
type RoomsClient struct {
	BaseURL string
	HTTP    *http.Client
}

var _ session.Resolver = (*RoomsClient)(nil)

func NewRoomsClient(baseURL string) *RoomsClient {
	return &RoomsClient{
		BaseURL: strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// JoinRoom asks the relay to join roomID, or to create a room when roomID
// is empty, and returns the id the relay settled on.
func (c *RoomsClient) JoinRoom(ctx context.Context, roomID string) (string, error) {
	body, err := json.Marshal(protocol.JoinRequest{RoomID: roomID})
	if err != nil {
		return "", err
	}
	var out protocol.RoomResponse
	if err := c.do(ctx, http.MethodPost, "/api/rooms/join", bytes.NewReader(body), &out); err != nil {
		return "", fmt.Errorf("join room: %w", err)
	}
	if out.Room == nil || out.Room.RoomID == "" {
		return "", errors.New("join room: response carries no room id")
	}
	return out.Room.RoomID, nil
}

// GetRoom looks a room up. It returns nil, nil for an unknown room.
func (c *RoomsClient) GetRoom(ctx context.Context, roomID string) (*protocol.RoomInfo, error) {
	var out protocol.RoomResponse
	if err := c.do(ctx, http.MethodGet, "/api/rooms/"+url.PathEscape(roomID), nil, &out); err != nil {
		return nil, fmt.Errorf("get room %s: %w", roomID, err)
	}
	return out.Room, nil
}

func (c *RoomsClient) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w %d: %s", ErrStatus, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
