package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Simplici0/blinds/internal/db"
	"github.com/Simplici0/blinds/internal/logger"
	"github.com/Simplici0/blinds/internal/metrics"
	"github.com/Simplici0/blinds/internal/migrations"
	"github.com/Simplici0/blinds/internal/priceconfig"
	"github.com/Simplici0/blinds/internal/pricing"
	"github.com/Simplici0/blinds/internal/repo"
	"github.com/Simplici0/blinds/internal/seed"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	log := logger.Discard()

	database, err := db.Open(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, migrations.Up(database))
	_, err = seed.Run(database, seed.DefaultConfig())
	require.NoError(t, err)

	prices := priceconfig.New(log)
	require.NoError(t, prices.Load("../../data/price-matrix.yaml"))

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	svc, store, err := newService(prices, database, m, log)
	require.NoError(t, err)
	t.Cleanup(m.ObserveStore(store))

	srv := &server{
		svc:     svc,
		rates:   repo.NewRates(database),
		metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		log:     log,
	}
	return srv.routes()
}

func call(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func addRow(t *testing.T, h http.Handler, row, w, height int, fabricType string) {
	t.Helper()
	rec := call(t, h, http.MethodPost, "/api/ops/commit", cellRequest{Row: row, Column: "width", Value: fmt.Sprint(w)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = call(t, h, http.MethodPost, "/api/ops/commit", cellRequest{Row: row, Column: "height", Value: fmt.Sprint(height)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = call(t, h, http.MethodPost, "/api/ops/type", typeRequest{Row: row, Type: fabricType})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestHealth(t *testing.T) {
	rec := call(t, newTestServer(t), http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "OK", rec.Body.String())
}

func TestEditCalculateAndSummaries(t *testing.T) {
	h := newTestServer(t)
	addRow(t, h, 0, 1000, 1200, "B2")

	rec := call(t, h, http.MethodPost, "/api/calculate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	calc := decode[struct {
		stateResponse
		Error *pricing.FirstError `json:"error"`
	}](t, rec)
	require.Nil(t, calc.Error)
	require.InDelta(t, 150, calc.State.Quote.Current().Summary.TotalSum, 1e-9)
	require.False(t, calc.State.UI.SumOutdated)

	rec = call(t, h, http.MethodGet, "/api/f1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	f1 := decode[pricing.F1Result](t, rec)
	require.InDelta(t, 150, f1.Totals.RetailTotal, 1e-9)

	rec = call(t, h, http.MethodPost, "/api/f2/value", f2ValueRequest{Key: "wifiQty", Value: 1})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = call(t, h, http.MethodGet, "/api/f2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	f2 := decode[pricing.F2Result](t, rec)
	require.InDelta(t, 200, f2.WifiSum, 1e-9)
}

func TestCalculate_ReportsFirstError(t *testing.T) {
	h := newTestServer(t)
	addRow(t, h, 0, 3200, 1000, "B1")

	rec := call(t, h, http.MethodPost, "/api/calculate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	calc := decode[struct {
		stateResponse
		Error *pricing.FirstError `json:"error"`
	}](t, rec)
	require.NotNil(t, calc.Error)
	require.Equal(t, 0, calc.Error.RowIndex)
	require.True(t, calc.State.UI.SumOutdated)
}

func TestValidationErrorsMapToStatusCodes(t *testing.T) {
	h := newTestServer(t)

	rec := call(t, h, http.MethodPost, "/api/ops/commit", cellRequest{Row: 0, Column: "width", Value: "10"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode[errorBody](t, rec)
	require.Equal(t, "Width must be between 250 and 3300.", body.Error)
	require.NotNil(t, body.Cell)

	rec = call(t, h, http.MethodPost, "/api/ops/commit", "{not json")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, h, http.MethodPost, "/api/distribution/remote", `{"a": 1.5, "b": 0}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "Quantities must be whole numbers of zero or more.", decode[errorBody](t, rec).Error)

	rec = call(t, h, http.MethodPost, "/api/distribution/remote", `{"a": 1, "b": 0}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "Total must equal 0. Current total: 1.", decode[errorBody](t, rec).Error)
}

func TestDriveConfirmationIsConflict(t *testing.T) {
	h := newTestServer(t)
	addRow(t, h, 0, 1000, 1200, "B1")

	require.Equal(t, http.StatusOK, call(t, h, http.MethodPost, "/api/modes/drive", modeRequest{Mode: "motor"}).Code)
	require.Equal(t, http.StatusOK, call(t, h, http.MethodPost, "/api/ops/drive/item", cellRequest{Row: 0, Column: "motor"}).Code)
	require.Equal(t, http.StatusOK, call(t, h, http.MethodPost, "/api/modes/drive", modeRequest{Mode: "remote"}).Code)

	rec := call(t, h, http.MethodPost, "/api/ops/drive/count", countRequest{Accessory: "remote", Delta: -1})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.True(t, decode[errorBody](t, rec).ConfirmationRequired)

	rec = call(t, h, http.MethodPost, "/api/ops/drive/count", countRequest{Accessory: "remote", Delta: -1, Confirm: true})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Zero(t, decode[stateResponse](t, rec).State.UI.DriveRemoteCount)
}

func TestActionsEndpoint(t *testing.T) {
	h := newTestServer(t)

	rec := call(t, h, http.MethodPost, "/api/actions", `{"type": "ui/doesNotExist"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, h, http.MethodPost, "/api/actions", `{"type": "ui/setSumOutdated", "payload": {"isOutdated": true}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[struct {
		stateResponse
		Changed bool `json:"changed"`
	}](t, rec)
	require.True(t, resp.Changed)
	require.True(t, resp.State.UI.SumOutdated)

	rec = call(t, h, http.MethodGet, "/api/state", nil)
	require.Equal(t, resp.Version, decode[stateResponse](t, rec).Version)
}

func TestEmptyItemListStaysServiceable(t *testing.T) {
	h := newTestServer(t)

	body := `{"type": "quote/setQuoteData", "payload": {"newQuoteData": {"currentProduct": "rollerBlind", "products": {"rollerBlind": {"items": []}}}}}`
	rec := call(t, h, http.MethodPost, "/api/actions", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = call(t, h, http.MethodPost, "/api/modes/location", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	rec = call(t, h, http.MethodGet, "/api/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, decode[stateResponse](t, rec).State.Quote.Items())

	rec = call(t, h, http.MethodPost, "/api/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSaveListLoadQuotes(t *testing.T) {
	h := newTestServer(t)
	addRow(t, h, 0, 1000, 1200, "B2")
	require.Equal(t, http.StatusOK, call(t, h, http.MethodPost, "/api/calculate", nil).Code)

	rec := call(t, h, http.MethodPost, "/api/quotes", saveRequest{Title: " "})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = call(t, h, http.MethodPost, "/api/quotes", saveRequest{Title: "Smith residence", Notes: "lounge"})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[map[string]int64](t, rec)["id"]
	require.Positive(t, id)

	rec = call(t, h, http.MethodGet, "/api/quotes?q=smith", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]repo.QuoteSummary](t, rec)
	require.Len(t, list, 1)
	require.InDelta(t, 150, list[0].Total, 1e-9)

	rec = call(t, h, http.MethodPost, "/api/reset", nil)
	require.Len(t, decode[stateResponse](t, rec).State.Quote.Items(), 1)

	rec = call(t, h, http.MethodPost, fmt.Sprintf("/api/quotes/%d/load", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	loaded := decode[stateResponse](t, rec)
	require.Len(t, loaded.State.Quote.Items(), 2)
	require.True(t, loaded.State.UI.SumOutdated)

	require.Equal(t, http.StatusNotFound, call(t, h, http.MethodPost, "/api/quotes/999/load", nil).Code)
	require.Equal(t, http.StatusBadRequest, call(t, h, http.MethodPost, "/api/quotes/abc/load", nil).Code)
}

func TestLoadRawQuoteData(t *testing.T) {
	h := newTestServer(t)

	raw := `{"currentProduct": "rollerBlind", "products": {"rollerBlind": {"items": [
		{"itemId": "a", "width": 1000, "height": 1200, "fabricType": "B2"}
	]}}}`
	rec := call(t, h, http.MethodPost, "/api/load", raw)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	items := decode[stateResponse](t, rec).State.Quote.Items()
	require.Len(t, items, 2)
	require.Equal(t, "a", items[0].ItemID)

	rec = call(t, h, http.MethodPost, "/api/load", `{"currentProduct": "shutter"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestExports(t *testing.T) {
	h := newTestServer(t)
	addRow(t, h, 0, 1000, 1200, "B2")
	require.Equal(t, http.StatusOK, call(t, h, http.MethodPost, "/api/calculate", nil).Code)

	rec := call(t, h, http.MethodGet, "/api/export.csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, "150.00", records[1][4])

	rec = call(t, h, http.MethodGet, "/api/export.xlsx", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue("Items", "D2")
	require.NoError(t, err)
	require.Equal(t, "B2", v)
}

func TestAdminRates(t *testing.T) {
	h := newTestServer(t)

	rec := call(t, h, http.MethodGet, "/api/admin/rates", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, pricing.F2Rates{Wifi: 200, Delivery: 100, Install: 20, Removal: 20}, decode[pricing.F2Rates](t, rec))

	post := func(form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/rates", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	rec = post(url.Values{"wifi": {"-1"}, "delivery": {"0"}, "install": {"0"}, "removal": {"0"}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "wifi must be greater than or equal to 0", decode[errorBody](t, rec).Error)

	rec = post(url.Values{"wifi": {"150"}, "delivery": {"80"}, "install": {"25"}, "removal": {"15"}})
	require.Equal(t, http.StatusOK, rec.Code)

	require.Equal(t, http.StatusOK, call(t, h, http.MethodPost, "/api/f2/value", f2ValueRequest{Key: "wifiQty", Value: 2}).Code)
	rec = call(t, h, http.MethodGet, "/api/f2", nil)
	require.InDelta(t, 300, decode[pricing.F2Result](t, rec).WifiSum, 1e-9)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t)
	addRow(t, h, 0, 1000, 1200, "B2")
	require.Equal(t, http.StatusOK, call(t, h, http.MethodPost, "/api/calculate", nil).Code)

	rec := call(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out := rec.Body.String()
	require.Contains(t, out, "blinds_commits_total")
	require.Contains(t, out, `blinds_actions_total{type="quote/updateItemValue"}`)
	require.Contains(t, out, "blinds_calculation_seconds_count 1")
}
