package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cleberrangel/delivery-board/internal/model"
	"github.com/cleberrangel/delivery-board/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type staticFetcher struct {
	groups []model.Group
	err    error
}

func (f staticFetcher) FetchGroups(ctx context.Context) ([]model.Group, error) {
	return f.groups, f.err
}

func feed(t *testing.T) []model.Group {
	t.Helper()
	var records []model.RawRecord
	body := `[
		{"Step_ID":0,"DelCode_w_o__":"D1","Short_description":"Parts","Client":"Acme","Planned_Tasks":3,"Total_Tasks":10,
		 "Planned_Start_Timestamp":"2024-01-01T00:00:00Z","Planned_Delivery_Timestamp":"2024-01-03T12:00:00Z"},
		{"Step_ID":1,"DelCode_w_o__":"D1-1","Short_description":"Sub","Client":"Acme"},
		{"Step_ID":0,"DelCode_w_o__":"D2","Short_description":"Bolts","Client":"Globex","Planned_Tasks":0,"Total_Tasks":0},
		{"Step_ID":0,"DelCode_w_o__":"D3","Short_description":"Gears","Client":"ACME Corp","Planned_Tasks":8,"Total_Tasks":10}
	]`
	require.NoError(t, json.Unmarshal([]byte(body), &records))
	return []model.Group{{Key: "g", Records: records}}
}

func setup(t *testing.T, fetcher service.FeedFetcher, visible int) (*gin.Engine, *service.Board) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	board := service.NewBoard(fetcher, service.NewNormalizer(service.NewFormatter(time.UTC, "")), service.BoardOptions{
		VisibleCount: visible,
	})
	require.NoError(t, board.Mount(context.Background()))
	t.Cleanup(board.Close)

	select {
	case <-board.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("board não ficou pronto")
	}

	r := NewRouter(Deps{Board: board, Exporter: service.NewExcelExporter(), Version: "test"})
	return r, board
}

func do(r *gin.Engine, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

type listResponse struct {
	Success bool       `json:"success"`
	Data    model.Page `json:"data"`
	Meta    model.Meta `json:"meta"`
}

func TestListDeliveries(t *testing.T) {
	r, _ := setup(t, staticFetcher{groups: feed(t)}, 2)

	rec := do(r, http.MethodGet, "/api/v1/deliveries")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.True(t, resp.Success)
	assert.Equal(t, 3, resp.Data.Total)
	assert.Equal(t, 3, resp.Meta.TotalDeliveries)
	assert.Equal(t, 2, resp.Meta.Visible)
	require.Len(t, resp.Data.Cards, 2)

	d1 := resp.Data.Cards[0]
	assert.Equal(t, "D1", d1.DelCode)
	assert.Equal(t, "Parts for Acme", d1.Client)
	assert.Equal(t, "1/1/2024, 12:00:00 AM", d1.Initiated)
	assert.Equal(t, "2 days 12 hrs left", d1.Deadline)
	assert.Equal(t, float64(30), d1.Progress)
	assert.Equal(t, model.TierMedium, d1.Tier)

	d2 := resp.Data.Cards[1]
	assert.Equal(t, float64(0), d2.Progress)
	assert.Equal(t, model.TierLow, d2.Tier)
}

func TestListDeliveriesSearch(t *testing.T) {
	r, _ := setup(t, staticFetcher{groups: feed(t)}, 10)

	var resp listResponse
	rec := do(r, http.MethodGet, "/api/v1/deliveries?q=acme")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, "acme", resp.Data.Term)

	rec = do(r, http.MethodGet, "/api/v1/deliveries?q=initech")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Data.Total)
	assert.Empty(t, resp.Data.Cards)
}

func TestDeliveriesPage(t *testing.T) {
	r, _ := setup(t, staticFetcher{groups: feed(t)}, 10)

	for _, path := range []string{"/", "/deliveries"} {
		rec := do(r, http.MethodGet, path)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "You have 3 active deliveries")
		assert.Contains(t, rec.Body.String(), `href="/delivery/D1"`)
	}

	rec := do(r, http.MethodGet, "/deliveries?q=zzz")
	assert.Contains(t, rec.Body.String(), "You have 0 active deliveries")
}

func TestExportDeliveries(t *testing.T) {
	r, _ := setup(t, staticFetcher{groups: feed(t)}, 1)

	rec := do(r, http.MethodGet, "/api/v1/deliveries/export?q=acme")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, "2", rec.Header().Get("X-Total-Deliveries"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	// todas as filtradas, não só as visíveis
	assert.Len(t, rows, 3)
}

func TestRefreshAccepted(t *testing.T) {
	r, board := setup(t, staticFetcher{groups: feed(t)}, 5)

	rec := do(r, http.MethodPost, "/api/v1/deliveries/refresh")
	assert.Equal(t, http.StatusAccepted, rec.Code)

	board.Close()
	rec = do(r, http.MethodPost, "/api/v1/deliveries/refresh")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	r, _ := setup(t, staticFetcher{groups: feed(t)}, 5)

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health/live").Code)

	rec := do(r, http.MethodGet, "/health/ready")
	require.Equal(t, http.StatusOK, rec.Code)
	var hc struct {
		Components map[string]struct {
			Status string `json:"status"`
		} `json:"components"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hc))
	assert.Equal(t, "healthy", hc.Components["board"].Status)
}

func TestReadyAfterFailedLoad(t *testing.T) {
	r, _ := setup(t, staticFetcher{err: model.ErrNotFound}, 5)

	rec := do(r, http.MethodGet, "/health/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")

	var resp listResponse
	require.NoError(t, json.Unmarshal(do(r, http.MethodGet, "/api/v1/deliveries").Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Data.Total)
	assert.False(t, resp.Data.Loaded)
}

func TestMetricsEndpoints(t *testing.T) {
	r, _ := setup(t, staticFetcher{groups: feed(t)}, 5)

	do(r, http.MethodGet, "/api/v1/deliveries")

	rec := do(r, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"search"`)

	rec = do(r, http.MethodGet, "/metrics/prometheus")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_request_duration_seconds")
}
