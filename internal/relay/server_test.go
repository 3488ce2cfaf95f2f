package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LiveBoard/internal/board"
	"LiveBoard/internal/network"
	"LiveBoard/internal/protocol"
	"LiveBoard/internal/session"
	"LiveBoard/internal/state"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := New(Options{})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		srv.Close()
		s.Close()
	})
	return s, srv
}

func TestHTTPRoomAPI(t *testing.T) {
	_, srv := newTestServer(t)
	rooms := network.NewRoomsClient(srv.URL)
	ctx := context.Background()

	id, err := rooms.JoinRoom(ctx, "")
	require.NoError(t, err)
	assert.True(t, protocol.ValidRoomID(id))

	same, err := rooms.JoinRoom(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, same)

	kept, err := rooms.JoinRoom(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, "ABC123", kept)

	info, err := rooms.GetRoom(ctx, "ABC123")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Empty(t, info.Users)

	missing, err := rooms.GetRoom(ctx, "ZZZZZZ")
	require.NoError(t, err)
	assert.Nil(t, missing)

	resp, err := http.Post(srv.URL+"/api/rooms/join", "application/json", bytes.NewBufferString("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	_, srv := newTestServer(t)
	_, err := network.NewRoomsClient(srv.URL).JoinRoom(context.Background(), "ABC123")
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/metrics?room=ABC123")
	require.NoError(t, err)
	defer resp.Body.Close()
	var body struct {
		Rooms []roomMetrics `json:"rooms"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Rooms, 1)
	assert.Equal(t, "ABC123", body.Rooms[0].RoomID)
	assert.Contains(t, body.Rooms[0].Metrics, "events_relayed")
}

type peer struct {
	name    string
	session *session.Session
	board   *board.Board
}

func openPeer(t *testing.T, url, name, room string) *peer {
	t.Helper()
	s := session.New(session.Options{
		Resolver: network.NewRoomsClient(url),
		Dialer:   &network.Dialer{ServerURL: url, Name: name},
		Board:    board.Options{Extent: state.Extent{Width: 400, Height: 300}, PixelWidth: 80, PixelHeight: 60},
	})
	b, err := s.Open(context.Background(), room)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return &peer{name: name, session: s, board: b}
}

func (p *peer) view(t *testing.T) board.View {
	t.Helper()
	reply := make(chan board.View, 1)
	require.NoError(t, p.board.Post(board.Snapshot{Reply: reply}))
	select {
	case v := <-reply:
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("%s did not answer", p.name)
		return board.View{}
	}
}

func (p *peer) history(t *testing.T) []state.Command {
	t.Helper()
	reply := make(chan []state.Command, 1)
	require.NoError(t, p.board.Post(board.HistoryRequest{Reply: reply}))
	select {
	case h := <-reply:
		return h
	case <-time.After(2 * time.Second):
		t.Fatalf("%s did not answer", p.name)
		return nil
	}
}

func TestThreeClientsShareOneRoom(t *testing.T) {
	_, srv := newTestServer(t)
	ctx := context.Background()
	room, err := network.NewRoomsClient(srv.URL).JoinRoom(ctx, "")
	require.NoError(t, err)

	peers := []*peer{
		openPeer(t, srv.URL, "ann", room),
		openPeer(t, srv.URL, "bob", room),
		openPeer(t, srv.URL, "cy", room),
	}

	require.Eventually(t, func() bool {
		for _, p := range peers {
			v := p.view(t)
			if v.Self == "" || v.Count != 3 || len(v.Peers) != 3 {
				return false
			}
		}
		return true
	}, 5*time.Second, 20*time.Millisecond)

	colors := map[string]bool{}
	for _, peer := range peers[0].view(t).Peers {
		colors[peer.Color] = true
	}
	assert.Len(t, colors, 3)

	ann := peers[0].board
	require.NoError(t, ann.Post(board.SetColor{Color: "#ff0000"}))
	require.NoError(t, ann.Post(board.PointerDown{X: 20, Y: 20}))
	require.NoError(t, ann.Post(board.PointerMove{X: 200, Y: 150}))
	require.NoError(t, ann.Post(board.PointerMove{X: 380, Y: 40}))
	require.NoError(t, ann.Post(board.PointerUp{}))

	want := []state.Command{state.StrokeCommand(state.Stroke{
		Path:  []state.Point{{X: 20, Y: 20}, {X: 200, Y: 150}, {X: 380, Y: 40}},
		Color: "#ff0000",
		Width: board.DefaultWidth,
	})}
	for _, p := range peers {
		require.Eventually(t, func() bool {
			return assert.ObjectsAreEqual(want, p.history(t))
		}, 5*time.Second, 20*time.Millisecond, p.name)
	}
	require.Eventually(t, func() bool {
		img := peers[0].board.Surface().Image()
		return bytes.Equal(img.Pix, peers[1].board.Surface().Image().Pix) &&
			bytes.Equal(img.Pix, peers[2].board.Surface().Image().Pix)
	}, 5*time.Second, 20*time.Millisecond)

	late := openPeer(t, srv.URL, "dee", room)
	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual(want, late.history(t))
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, peers[1].board.Post(board.ClearCanvas{}))
	for _, p := range append(peers, late) {
		require.Eventually(t, func() bool { return len(p.history(t)) == 0 }, 5*time.Second, 20*time.Millisecond, p.name)
	}

	require.NoError(t, peers[2].session.Close())
	require.Eventually(t, func() bool { return peers[0].view(t).Count == 3 }, 5*time.Second, 20*time.Millisecond)
}

func TestLastLeaveRemovesRoom(t *testing.T) {
	s, srv := newTestServer(t)
	p := openPeer(t, srv.URL, "solo", "SOLO01")
	require.Eventually(t, func() bool {
		_, ok := s.Rooms().Get("SOLO01")
		return ok && p.view(t).Count == 1
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, p.session.Close())
	require.Eventually(t, func() bool {
		_, ok := s.Rooms().Get("SOLO01")
		return !ok
	}, 5*time.Second, 20*time.Millisecond)
}
