package web

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jaminalder/tictactoe-timeline/internal/app"
)

func newTestServer(t *testing.T) (*app.Service, http.Handler) {
	t.Helper()
	s := app.NewService(zap.NewNop())
	h := NewServer(s, Options{Logger: zap.NewNop(), Heartbeat: 50 * time.Millisecond})
	return s, h
}

func newGame(t *testing.T, svc *app.Service) string {
	t.Helper()
	gs, err := svc.CreateGame()
	require.NoError(t, err)
	return gs.ID
}

func postForm(h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func parseHTML(t *testing.T, rr *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(rr.Body)
	require.NoError(t, err)
	return doc
}

func cellText(doc *goquery.Document, i int) string {
	return strings.TrimSpace(doc.Find(`button[data-cell="` + strconv.Itoa(i) + `"]`).Text())
}

func TestIndexPage(t *testing.T) {
	_, h := newTestServer(t)
	rr := get(h, "/")
	require.Equal(t, http.StatusOK, rr.Code)

	doc := parseHTML(t, rr)
	assert.Equal(t, 1, doc.Find(`form[action="/game"]`).Length(), "index should contain create form")
	assert.Equal(t, "Tic-Tac-Toe", doc.Find("title").Text())
}

func TestHealthz(t *testing.T) {
	_, h := newTestServer(t)
	rr := get(h, "/healthz")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}

func TestCreateRedirectsToGame(t *testing.T) {
	svc, h := newTestServer(t)
	rr := postForm(h, "/game", nil)
	require.Equal(t, http.StatusSeeOther, rr.Code)

	loc := rr.Result().Header.Get("Location")
	require.True(t, strings.HasPrefix(loc, "/game/"), "got %q", loc)
	_, ok := svc.Get(strings.TrimPrefix(loc, "/game/"))
	assert.True(t, ok)
}

func TestGamePage(t *testing.T) {
	svc, h := newTestServer(t)
	id := newGame(t, svc)

	rr := get(h, "/game/"+id)
	require.Equal(t, http.StatusOK, rr.Code)
	doc := parseHTML(t, rr)

	assert.Equal(t, "Next player: X", strings.TrimSpace(doc.Find(".status").Text()))
	assert.Equal(t, 9, doc.Find("button.square").Length())
	assert.Equal(t, 0, doc.Find("button.square[disabled]").Length())
	assert.Equal(t, "You are at move 0", strings.TrimSpace(doc.Find(".current-move").Text()))

	sse, ok := doc.Find(`[hx-ext="sse"]`).Attr("hx-sse")
	require.True(t, ok, "expected SSE wiring in page")
	assert.Contains(t, sse, "/game/"+id+"/events")
}

func TestGamePageUnknown(t *testing.T) {
	_, h := newTestServer(t)
	rr := get(h, "/game/does-not-exist")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPlayEndpointUpdatesStateAndReturnsFragment(t *testing.T) {
	svc, h := newTestServer(t)
	id := newGame(t, svc)

	rr := postForm(h, "/game/"+id+"/play", url.Values{"cell": {"4"}})
	require.Equal(t, http.StatusOK, rr.Code)
	doc := parseHTML(t, rr)

	require.Equal(t, 1, doc.Find("#board").Length(), "expected board fragment")
	assert.Equal(t, "X", cellText(doc, 4))
	_, disabled := doc.Find(`button[data-cell="4"]`).Attr("disabled")
	assert.True(t, disabled, "occupied cell should be disabled")
	assert.Equal(t, "Next player: O", strings.TrimSpace(doc.Find(".status").Text()))

	latest, _ := svc.Get(id)
	assert.Equal(t, 2, latest.Len)
}

func TestPlayOccupiedShowsError(t *testing.T) {
	svc, h := newTestServer(t)
	id := newGame(t, svc)
	_, err := svc.Play(id, 0)
	require.NoError(t, err)

	rr := postForm(h, "/game/"+id+"/play", url.Values{"cell": {"0"}})
	require.Equal(t, http.StatusOK, rr.Code)
	doc := parseHTML(t, rr)
	assert.Contains(t, doc.Find(".alert").Text(), "Cell is taken")

	latest, _ := svc.Get(id)
	assert.Equal(t, 2, latest.Len)
}

func TestPlayBadInput(t *testing.T) {
	svc, h := newTestServer(t)
	id := newGame(t, svc)

	rr := postForm(h, "/game/"+id+"/play", url.Values{"cell": {"x"}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = postForm(h, "/game/nope/play", url.Values{"cell": {"1"}})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestWinHighlightsLine(t *testing.T) {
	svc, h := newTestServer(t)
	id := newGame(t, svc)
	for _, c := range []int{0, 1, 3, 4} {
		_, err := svc.Play(id, c)
		require.NoError(t, err)
	}

	rr := postForm(h, "/game/"+id+"/play", url.Values{"cell": {"6"}})
	require.Equal(t, http.StatusOK, rr.Code)
	doc := parseHTML(t, rr)

	assert.Equal(t, "Winner: X", strings.TrimSpace(doc.Find(".status").Text()))
	var highlighted []string
	doc.Find("button.square.highlighted").Each(func(_ int, s *goquery.Selection) {
		v, _ := s.Attr("data-cell")
		highlighted = append(highlighted, v)
	})
	assert.Equal(t, []string{"0", "3", "6"}, highlighted)
	assert.Equal(t, 9, doc.Find("button.square[disabled]").Length(), "decided board is fully disabled")
}

func TestJumpEndpoint(t *testing.T) {
	svc, h := newTestServer(t)
	id := newGame(t, svc)
	for _, c := range []int{0, 1, 3, 4, 6} {
		_, err := svc.Play(id, c)
		require.NoError(t, err)
	}

	rr := postForm(h, "/game/"+id+"/jump", url.Values{"position": {"2"}})
	require.Equal(t, http.StatusOK, rr.Code)
	doc := parseHTML(t, rr)

	assert.Equal(t, "Next player: X", strings.TrimSpace(doc.Find(".status").Text()))
	assert.Equal(t, "You are at move 2 (0, 1)", strings.TrimSpace(doc.Find(".current-move").Text()))
	assert.Equal(t, 6, doc.Find("ol.moves li").Length(), "jumping keeps history")
	assert.Equal(t, "", cellText(doc, 3))

	// moving from the past drops the future
	rr = postForm(h, "/game/"+id+"/play", url.Values{"cell": {"5"}})
	require.Equal(t, http.StatusOK, rr.Code)
	doc = parseHTML(t, rr)
	assert.Equal(t, 4, doc.Find("ol.moves li").Length())
}

func TestJumpOutOfRange(t *testing.T) {
	svc, h := newTestServer(t)
	id := newGame(t, svc)

	for _, p := range []string{"1", "-1", "abc"} {
		rr := postForm(h, "/game/"+id+"/jump", url.Values{"position": {p}})
		assert.Equal(t, http.StatusBadRequest, rr.Code, "position %s", p)
	}
}

func TestHistoryOrderToggle(t *testing.T) {
	svc, h := newTestServer(t)
	id := newGame(t, svc)
	for _, c := range []int{0, 1} {
		_, err := svc.Play(id, c)
		require.NoError(t, err)
	}

	order := func(doc *goquery.Document) []string {
		var out []string
		doc.Find("ol.moves li").Each(func(_ int, s *goquery.Selection) {
			v, _ := s.Attr("data-move")
			out = append(out, v)
		})
		return out
	}

	doc := parseHTML(t, get(h, "/game/"+id))
	assert.Equal(t, []string{"0", "1", "2"}, order(doc))
	href, _ := doc.Find("a.toggle-order").Attr("href")
	assert.Equal(t, "/game/"+id+"?order=desc", href)

	doc = parseHTML(t, get(h, "/game/"+id+"?order=desc"))
	assert.Equal(t, []string{"2", "1", "0"}, order(doc))

	// the order survives a jump posted from the descending view
	rr := postForm(h, "/game/"+id+"/jump", url.Values{"position": {"0"}, "order": {"desc"}})
	doc = parseHTML(t, rr)
	assert.Equal(t, []string{"2", "1", "0"}, order(doc))
}

func TestDeleteEndpoint(t *testing.T) {
	svc, h := newTestServer(t)
	id := newGame(t, svc)

	rr := postForm(h, "/game/"+id+"/delete", nil)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	_, ok := svc.Get(id)
	assert.False(t, ok)

	rr = postForm(h, "/game/"+id+"/delete", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestEventsEndpointSSEHeaders(t *testing.T) {
	_, h := newTestServer(t)
	rrCreate := postForm(h, "/game", nil)
	loc := rrCreate.Result().Header.Get("Location")
	require.NotEmpty(t, loc, "missing redirect location")

	rr := get(h, loc+"/events")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Result().Header.Get("Content-Type"), "text/event-stream"))
}

func TestEventsStreamBoardUpdates(t *testing.T) {
	svc, h := newTestServer(t)
	id := newGame(t, svc)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/game/"+id+"/events", nil).WithContext(ctx)
	req.Header.Set("Accept", "text/event-stream")
	rec := &syncRecorder{ResponseRecorder: httptest.NewRecorder()}

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.ServeHTTP(rec, req)
	}()

	_, err := svc.Play(id, 4)
	require.NoError(t, err)

	// the stream subscribes asynchronously; jumps broadcast until it is seen
	require.Eventually(t, func() bool {
		_, err := svc.JumpTo(id, 1)
		return err == nil && rec.contains("event: board")
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done

	body := rec.body()
	assert.Contains(t, body, "data: <div id=\"board\">")
	for _, line := range strings.Split(strings.TrimSpace(body), "\n") {
		if line == "" {
			continue
		}
		assert.True(t,
			strings.HasPrefix(line, "event:") || strings.HasPrefix(line, "data:") || strings.HasPrefix(line, ":"),
			"unexpected SSE line %q", line)
	}
}

func TestWriteEvent(t *testing.T) {
	var buf bytes.Buffer
	writeEvent(&buf, "board", []byte("a\nb"))
	assert.Equal(t, "event: board\ndata: a\ndata: b\n\n", buf.String())
}

// syncRecorder guards the recorder body, which the streaming handler writes
// while the test reads it.
type syncRecorder struct {
	*httptest.ResponseRecorder
	mu sync.Mutex
}

func (r *syncRecorder) Write(b []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.Write(b)
}

func (r *syncRecorder) WriteHeader(code int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ResponseRecorder.WriteHeader(code)
}

func (r *syncRecorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ResponseRecorder.Flush()
}

func (r *syncRecorder) contains(s string) bool {
	return strings.Contains(r.body(), s)
}

func (r *syncRecorder) body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.Body.String()
}
