package events

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/rpsgame/internal/testutil"
)

func TestServeSSE(t *testing.T) {
	hub := newRunningHub(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeSSE(w, r, hub)
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	next := func() string {
		require.True(t, lines.Scan())
		return lines.Text()
	}

	assert.Equal(t, "event: connected", next())
	assert.True(t, strings.HasPrefix(next(), "data: "))
	assert.Equal(t, "", next())

	// The stream is registered once the connected event is flushed
	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, waitFor, tick)
	hub.BroadcastEvent("tournament-finished", `{"name":"cup"}`)

	assert.Equal(t, "event: tournament-finished", next())
	assert.Equal(t, `data: {"name":"cup"}`, next())

	cancel()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, waitFor, tick)
}

func TestServeSSEAfterClose(t *testing.T) {
	hub := NewHub(testutil.NopLogger())
	hub.Close()

	rr := httptest.NewRecorder()
	ServeSSE(rr, httptest.NewRequest(http.MethodGet, "/", nil), hub)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
