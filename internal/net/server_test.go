package net

import (
	"context"
	"encoding/json"
	"errors"
	"image/png"
	gonet "net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"InkBoard/internal/history"
	"InkBoard/internal/notebook"
	"InkBoard/internal/state"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func drawLine(s *notebook.Session) {
	s.PointerDown(state.PointerEvent{X: 10, Y: 10})
	s.PointerMove(state.PointerEvent{X: 50, Y: 40})
	s.PointerUp(state.PointerEvent{})
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestPagesAndStrokes(t *testing.T) {
	s := notebook.New(notebook.Options{Width: 80, Height: 60})
	drawLine(s)
	s.AddPage()
	drawLine(s)
	srv := NewServer(s, nil, nil)

	w := get(t, srv, "/api/pages")
	require.Equal(t, http.StatusOK, w.Code)
	var pages pagesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pages))
	assert.Len(t, pages.Pages, 2)
	assert.Equal(t, 2, pages.Active)

	w = get(t, srv, "/api/strokes")
	require.Equal(t, http.StatusOK, w.Code)
	var strokes []state.Stroke
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &strokes))
	require.Len(t, strokes, 1)
	assert.Len(t, strokes[0].Points, 2)
}

func TestEmptyStrokesIsArray(t *testing.T) {
	srv := NewServer(notebook.New(notebook.Options{Width: 20, Height: 20}), nil, nil)
	w := get(t, srv, "/api/strokes")
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestSnapshotAndThumbnail(t *testing.T) {
	s := notebook.New(notebook.Options{Width: 120, Height: 80})
	drawLine(s)
	srv := NewServer(s, nil, nil)

	w := get(t, srv, "/api/snapshot.png")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	img, err := png.Decode(w.Body)
	require.NoError(t, err)
	assert.Equal(t, 120, img.Bounds().Dx())
	assert.Equal(t, 80, img.Bounds().Dy())

	w = get(t, srv, "/api/thumbnail.png?w=60")
	require.Equal(t, http.StatusOK, w.Code)
	thumb, err := png.Decode(w.Body)
	require.NoError(t, err)
	assert.Equal(t, 60, thumb.Bounds().Dx())
	assert.Equal(t, 40, thumb.Bounds().Dy())

	for _, bad := range []string{"0", "-3", "abc", "5000"} {
		w = get(t, srv, "/api/thumbnail.png?w="+bad)
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
	}
}

type fakeHistory struct {
	entries []history.Entry
	err     error
	limit   int
}

func (f *fakeHistory) Recent(_ context.Context, limit int) ([]history.Entry, error) {
	f.limit = limit
	return f.entries, f.err
}

func TestHistory(t *testing.T) {
	s := notebook.New(notebook.Options{Width: 20, Height: 20})

	w := get(t, NewServer(s, nil, nil), "/api/history")
	assert.Equal(t, http.StatusNotFound, w.Code)

	h := &fakeHistory{entries: []history.Entry{{ID: 1, Mode: "TEXT", Text: "hi"}}}
	w = get(t, NewServer(s, h, nil), "/api/history?limit=5")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, h.limit)
	var got []history.Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "hi", got[0].Text)

	w = get(t, NewServer(s, &fakeHistory{err: errors.New("disk")}, nil), "/api/history")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func readOp(t *testing.T, conn *websocket.Conn) state.Op {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var op state.Op
	require.NoError(t, conn.ReadJSON(&op))
	return op
}

func TestWebsocketFeed(t *testing.T) {
	s := notebook.New(notebook.Options{Width: 80, Height: 60})
	srv := NewServer(s, nil, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	defer srv.Shutdown(context.Background())

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	hello := readOp(t, conn)
	assert.Equal(t, state.OpPage, hello.Type)
	assert.Equal(t, 1, hello.PageID)
	assert.Equal(t, 1, srv.Hub().Len())

	drawLine(s)
	op := readOp(t, conn)
	assert.Equal(t, state.OpInsertStroke, op.Type)
	require.NotNil(t, op.Stroke)
	assert.Len(t, op.Stroke.Points, 2)

	s.Clear()
	assert.Equal(t, state.OpClear, readOp(t, conn).Type)
}

func TestFormatShareLink(t *testing.T) {
	assert.Equal(t, "inkboard://192.168.1.4:8888", FormatShareLink("192.168.1.4", 8888))
	assert.Equal(t, "inkboard://[fe80::1]:9000", FormatShareLink("fe80::1", 9000))
}

func TestFollowMirrorsHost(t *testing.T) {
	host := notebook.New(notebook.Options{Width: 80, Height: 60})
	drawLine(host)
	srv := NewServer(host, nil, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	viewer := notebook.New(notebook.Options{Width: 80, Height: 60})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	link := ShareScheme + strings.TrimPrefix(ts.URL, "http://")
	go func() { done <- Follow(ctx, link, viewer.ApplyRemote, nil) }()

	assert.Eventually(t, func() bool { return len(viewer.Strokes()) == 1 }, 5*time.Second, 10*time.Millisecond)

	host.PointerDown(state.PointerEvent{X: 5, Y: 50})
	host.PointerMove(state.PointerEvent{X: 70, Y: 50})
	host.PointerUp(state.PointerEvent{})
	assert.Eventually(t, func() bool { return len(viewer.Strokes()) == 2 }, 5*time.Second, 10*time.Millisecond)

	host.Clear()
	assert.Eventually(t, func() bool { return len(viewer.Strokes()) == 0 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Follow did not return after cancel")
	}
}

func TestFeedURL(t *testing.T) {
	url, err := FeedURL("inkboard://10.0.0.2:8888/")
	require.NoError(t, err)
	assert.Equal(t, "ws://10.0.0.2:8888/ws", url)
	assert.True(t, IsShareLink("inkboard://x"))

	_, err = FeedURL("http://10.0.0.2")
	assert.Error(t, err)
	_, err = FeedURL("inkboard://")
	assert.Error(t, err)
}

func TestSlowPeerIsDisconnected(t *testing.T) {
	hub := NewHub(nil)
	slow := &Peer{ID: "slow"}
	hub.register(slow, nil)
	for i := 0; i < sendBuffer; i++ {
		hub.Broadcast(state.Op{Type: state.OpClear})
	}
	require.Equal(t, 1, hub.Len())

	hub.Broadcast(state.Op{Type: state.OpClear})
	assert.Zero(t, hub.Len())

	n := 0
	for range slow.send {
		n++
	}
	assert.Equal(t, sendBuffer, n, "queue is closed after the queued ops")
}

func TestGreetingPrecedesBroadcasts(t *testing.T) {
	hub := NewHub(nil)
	p := &Peer{ID: "p"}
	hub.register(p, func() []state.Op {
		return []state.Op{{Type: state.OpPage, PageID: 1}}
	})
	hub.Broadcast(state.Op{Type: state.OpClear})

	var first, second state.Op
	require.NoError(t, json.Unmarshal(<-p.send, &first))
	require.NoError(t, json.Unmarshal(<-p.send, &second))
	assert.Equal(t, state.OpPage, first.Type)
	assert.Equal(t, state.OpClear, second.Type)
}

func TestViewersConvergeWhileHostDraws(t *testing.T) {
	host := notebook.New(notebook.Options{Width: 80, Height: 60})
	srv := NewServer(host, nil, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	link := ShareScheme + strings.TrimPrefix(ts.URL, "http://")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan struct{})
	drawn := make(chan struct{})
	go func() {
		defer close(drawn)
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			host.PointerDown(state.PointerEvent{X: float64(i % 70), Y: 5})
			host.PointerMove(state.PointerEvent{X: float64(i % 70), Y: 50})
			host.PointerUp(state.PointerEvent{})
			time.Sleep(time.Millisecond)
		}
	}()

	const viewers = 20
	mirrors := make([]*notebook.Session, viewers)
	for i := range mirrors {
		mirrors[i] = notebook.New(notebook.Options{Width: 80, Height: 60})
		go func(m *notebook.Session) { _ = Follow(ctx, link, m.ApplyRemote, nil) }(mirrors[i])
		time.Sleep(2 * time.Millisecond)
	}
	close(stop)
	<-drawn

	want := len(host.Strokes())
	for i, m := range mirrors {
		assert.Eventually(t, func() bool { return len(m.Strokes()) == want }, 5*time.Second, 10*time.Millisecond,
			"viewer %d has %d strokes, host has %d", i, len(m.Strokes()), want)
	}
}

func TestShareLinkHasSchemeAndPort(t *testing.T) {
	link := ShareLink(9123)
	require.True(t, IsShareLink(link))
	assert.True(t, strings.HasSuffix(link, ":9123"), link)
}

func TestFirstLANAddrSkipsDownAndLoopback(t *testing.T) {
	none := func() ([]gonet.Interface, error) {
		return []gonet.Interface{
			{Name: "lo", Flags: gonet.FlagUp | gonet.FlagLoopback},
			{Name: "eth9", Flags: 0},
		}, nil
	}
	assert.Nil(t, firstLANAddr(none))

	failing := func() ([]gonet.Interface, error) { return nil, errors.New("no interfaces") }
	assert.Nil(t, firstLANAddr(failing))
}
