// Package integration exercises the whole delivery board: upstream feed, board lifecycle,
// HTTP API, HTML page and live updates.
package integration

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cleberrangel/delivery-board/internal/cache"
	"github.com/cleberrangel/delivery-board/internal/client"
	"github.com/cleberrangel/delivery-board/internal/handler"
	"github.com/cleberrangel/delivery-board/internal/model"
	"github.com/cleberrangel/delivery-board/internal/service"
	"github.com/cleberrangel/delivery-board/internal/websocket"
	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
)

const feedBody = `{
	"zeta": [
		{"Key": 1, "Step_ID": 0, "DelCode_w_o__": "Z1", "Short_description": "Crates", "Client": "Acme",
		 "Planned_Tasks": 5, "Total_Tasks": 10,
		 "Planned_Start_Timestamp": {"value": "2024-01-01T00:00:00Z"},
		 "Planned_Delivery_Timestamp": {"value": "2024-01-02T06:00:00Z"}},
		{"Key": 2, "Step_ID": 1, "DelCode_w_o__": "Z1-a", "Short_description": "Step", "Client": "Acme"}
	],
	"7": [
		{"Key": 3, "Step_ID": 0, "DelCode_w_o__": "S7", "Short_description": "Pallets", "Client": "Globex",
		 "Planned_Tasks": 1, "Total_Tasks": 4,
		 "Planned_Start_Timestamp": "2024-02-01T00:00:00Z"}
	],
	"alpha": [
		{"Key": 4, "Step_ID": 0, "DelCode_w_o__": "A1", "Short_description": "Gears", "Client": "ACME Corp",
		 "Planned_Tasks": 9, "Total_Tasks": 10,
		 "Planned_Start_Timestamp": "garbage", "Planned_Delivery_Timestamp": "2024-01-05T00:00:00Z"}
	]
}`

// TestContext holds the running stack
type TestContext struct {
	Upstream  *httptest.Server
	Server    *httptest.Server
	Board     *service.Board
	Hub       *websocket.Hub
	FeedCalls *int32
	// FailNext makes the upstream answer 500 while set
	FailNext *atomic.Bool
}

func setupTestContext(t *testing.T, visible int) *TestContext {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var calls int32
	var fail atomic.Bool

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if fail.Load() {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(feedBody))
	}))

	hub := websocket.NewHub()
	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	memo := cache.NewCache(time.Minute)

	board := service.NewBoard(
		client.NewDeliveryClient(upstream.URL, 2*time.Second, 0),
		service.NewNormalizer(service.NewFormatter(time.UTC, "")),
		service.BoardOptions{
			VisibleCount: visible,
			Memo:         memo,
			OnUpdate:     hub.NotifyUpdate,
		},
	)

	router := handler.NewRouter(handler.Deps{
		Board:    board,
		Exporter: service.NewExcelExporter(),
		Hub:      hub,
		Version:  "integration",
	})
	srv := httptest.NewServer(router)

	t.Cleanup(func() {
		srv.Close()
		board.Close()
		stopHub()
		<-hub.Done()
		memo.Stop()
		upstream.Close()
	})

	return &TestContext{
		Upstream:  upstream,
		Server:    srv,
		Board:     board,
		Hub:       hub,
		FeedCalls: &calls,
		FailNext:  &fail,
	}
}

func (tc *TestContext) mount(t *testing.T) {
	t.Helper()
	if err := tc.Board.Mount(context.Background()); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	select {
	case <-tc.Board.Ready():
	case <-time.After(3 * time.Second):
		t.Fatal("board não ficou pronto")
	}
}

func (tc *TestContext) getPage(t *testing.T, query string) model.Page {
	t.Helper()
	resp, err := http.Get(tc.Server.URL + "/api/v1/deliveries" + query)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Data model.Page `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body.Data
}

func codes(page model.Page) string {
	var out []string
	for _, c := range page.Cards {
		out = append(out, c.DelCode)
	}
	return strings.Join(out, ",")
}

func TestCompleteWorkflow(t *testing.T) {
	tc := setupTestContext(t, 10)
	tc.mount(t)

	page := tc.getPage(t, "")

	// chave numérica primeiro, depois ordem do documento
	if got := codes(page); got != "S7,Z1,A1" {
		t.Fatalf("ordem = %s, want S7,Z1,A1", got)
	}

	s7, z1, a1 := page.Cards[0], page.Cards[1], page.Cards[2]

	if z1.Client != "Crates for Acme" || z1.Deadline != "1 days 6 hrs left" || z1.Tier != model.TierMedium {
		t.Errorf("Z1 = %+v", z1)
	}
	if s7.Deadline != service.NoDeadline || s7.Progress != 25 || s7.Tier != model.TierMedium {
		t.Errorf("S7 = %+v", s7)
	}
	if a1.Initiated != service.InvalidDate || a1.Deadline != service.InvalidDeadline || a1.Tier != model.TierHigh {
		t.Errorf("A1 = %+v", a1)
	}

	search := tc.getPage(t, "?q=acme")
	if got := codes(search); got != "Z1,A1" {
		t.Errorf("busca = %s, want Z1,A1", got)
	}

	if n := atomic.LoadInt32(tc.FeedCalls); n != 1 {
		t.Errorf("feed calls = %d, want 1 (busca não refaz a requisição)", n)
	}

	resp, err := http.Get(tc.Server.URL + "/deliveries?q=globex")
	if err != nil {
		t.Fatalf("GET page: %v", err)
	}
	defer resp.Body.Close()
	html, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read page: %v", err)
	}
	if !strings.Contains(string(html), "You have 1 active deliveries") {
		t.Error("página sem o contador esperado")
	}
}

func TestVisibleCountBoundsRender(t *testing.T) {
	tc := setupTestContext(t, 1)
	tc.mount(t)

	page := tc.getPage(t, "")
	if page.Total != 3 || len(page.Cards) != 1 {
		t.Errorf("total=%d cards=%d, want 3/1", page.Total, len(page.Cards))
	}
}

func TestRefreshBroadcastsOverWebSocket(t *testing.T) {
	tc := setupTestContext(t, 10)
	tc.mount(t)

	url := "ws" + strings.TrimPrefix(tc.Server.URL, "http") + "/ws"
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	read := func() websocket.Message {
		conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		var msg websocket.Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		return msg
	}

	if msg := read(); msg.Type != websocket.TypeConnection {
		t.Fatalf("primeira mensagem = %s", msg.Type)
	}

	resp, err := http.Post(tc.Server.URL+"/api/v1/deliveries/refresh", "application/json", nil)
	if err != nil {
		t.Fatalf("POST refresh: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}

	if msg := read(); msg.Type != websocket.TypeDeliveriesUpdated {
		t.Errorf("type = %s, want deliveries_updated", msg.Type)
	}
	if n := atomic.LoadInt32(tc.FeedCalls); n != 2 {
		t.Errorf("feed calls = %d, want 2", n)
	}
}

func TestErrorScenariosAndRecovery(t *testing.T) {
	tc := setupTestContext(t, 10)
	tc.FailNext.Store(true)
	tc.mount(t)

	page := tc.getPage(t, "")
	if page.Total != 0 || page.Loaded {
		t.Fatalf("falha no feed deveria deixar a lista vazia: %+v", page)
	}

	resp, err := http.Get(tc.Server.URL + "/health/ready")
	if err != nil {
		t.Fatalf("GET ready: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("ready = %d, want 200 após a primeira carga", resp.StatusCode)
	}

	tc.FailNext.Store(false)
	if err := tc.Board.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for tc.getPage(t, "").Total != 3 {
		select {
		case <-deadline:
			t.Fatal("lista não recuperada após recarga")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestConcurrentSearches(t *testing.T) {
	tc := setupTestContext(t, 10)
	tc.mount(t)

	terms := []string{"", "acme", "ACME", "globex", "nothing"}
	want := map[string]int{"": 3, "acme": 2, "ACME": 2, "globex": 1, "nothing": 0}

	var wg sync.WaitGroup
	errs := make(chan string, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(term string) {
			defer wg.Done()
			got := tc.Board.Page(term).Total
			if got != want[term] {
				errs <- term
			}
		}(terms[i%len(terms)])
	}
	wg.Wait()
	close(errs)

	for term := range errs {
		t.Errorf("contagem incorreta para %q", term)
	}
}
