package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Simplici0/blinds/internal/distribution"
	"github.com/Simplici0/blinds/internal/export"
	"github.com/Simplici0/blinds/internal/pricing"
	"github.com/Simplici0/blinds/internal/quote"
	"github.com/Simplici0/blinds/internal/repo"
	"github.com/Simplici0/blinds/internal/workflow"
)

// rateStore is the admin view of the surcharge unit prices.
type rateStore interface {
	Get(ctx context.Context) (pricing.F2Rates, error)
	Update(ctx context.Context, rates pricing.F2Rates) error
}

type server struct {
	svc     *workflow.Service
	rates   rateStore
	metrics http.Handler
	log     *slog.Logger
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Post("/actions", s.handleAction)
		r.Post("/calculate", s.handleCalculate)
		r.Get("/f1", s.handleF1)
		r.Get("/f2", s.handleF2)
		r.Post("/f1/discount", s.handleF1Discount)
		r.Post("/f2/value", s.handleF2Value)
		r.Post("/f2/fee", s.handleF2Fee)
		r.Post("/distribution/remote", s.handleRemoteDistribution)
		r.Post("/distribution/dual", s.handleDualDistribution)

		r.Post("/modes/dual", s.handleDualChainMode)
		r.Post("/modes/drive", s.handleDriveMode)
		r.Post("/modes/k3", s.handleK3Mode)
		r.Post("/modes/fabric", s.handleFabricMode)
		r.Post("/modes/lf", s.handleLFMode)
		r.Post("/modes/location", s.handleLocationMode)

		r.Route("/ops", func(r chi.Router) {
			r.Post("/commit", s.handleCommit)
			r.Post("/select", s.handleSelect)
			r.Post("/insert", s.op(func(*http.Request) (quote.Snapshot, error) { return s.svc.InsertRow() }))
			r.Post("/delete", s.op(func(*http.Request) (quote.Snapshot, error) { return s.svc.DeleteRow() }))
			r.Post("/clear", s.op(func(*http.Request) (quote.Snapshot, error) { return s.svc.ClearRow() }))
			r.Post("/type", s.handleType)
			r.Post("/type/all", s.handleTypeAll)
			r.Post("/type/selection", s.handleTypeSelection)
			r.Post("/dual", s.handleToggleDual)
			r.Post("/chain/select", s.handleChainSelect)
			r.Post("/chain", s.handleChainCommit)
			r.Post("/drive/item", s.handleDriveItem)
			r.Post("/drive/count", s.handleDriveCount)
			r.Post("/k3", s.handleK3Cycle)
			r.Post("/k3/batch", s.handleK3Batch)
			r.Post("/fabric", s.handleFabricByType)
			r.Post("/lf/toggle", s.handleLFToggle)
			r.Post("/lf/apply", s.handleLFApply)
			r.Post("/lf/delete", s.op(func(*http.Request) (quote.Snapshot, error) { return s.svc.ConfirmLFDelete() }))
			r.Post("/location", s.handleLocationCommit)
		})

		r.Get("/quotes", s.handleQuotesList)
		r.Post("/quotes", s.handleQuoteSave)
		r.Post("/quotes/{id}/load", s.handleQuoteLoad)
		r.Post("/load", s.handleLoad)
		r.Post("/reset", s.handleReset)
		r.Get("/export.csv", s.handleExportCSV)
		r.Get("/export.xlsx", s.handleExportXLSX)

		r.Get("/admin/rates", s.handleAdminRatesGet)
		r.Post("/admin/rates", s.handleAdminRatesSubmit)
	})
	return r
}

func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// stateResponse is the body of every state-changing endpoint.
type stateResponse struct {
	Version uint64       `json:"version"`
	State   *quote.State `json:"state"`
}

func snapshotBody(snap quote.Snapshot) stateResponse {
	return stateResponse{Version: snap.Version, State: snap.State}
}

// op adapts a workflow call to a handler that answers with the new snapshot.
func (s *server) op(fn func(r *http.Request) (quote.Snapshot, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := fn(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snapshotBody(snap))
	}
}

// body decodes the request JSON into T before calling fn.
func body[T any](s *server, fn func(r *http.Request, in T) (quote.Snapshot, error)) http.HandlerFunc {
	return s.op(func(r *http.Request) (quote.Snapshot, error) {
		var in T
		if err := decodeJSON(r, &in); err != nil {
			return quote.Snapshot{}, err
		}
		return fn(r, in)
	})
}

func (s *server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, snapshotBody(s.svc.Snapshot()))
}

func (s *server) handleAction(w http.ResponseWriter, r *http.Request) {
	var env quote.Envelope
	if err := decodeJSON(r, &env); err != nil {
		s.writeError(w, err)
		return
	}
	action, err := quote.DecodeAction(env.Type, env.Payload)
	if err != nil {
		s.writeError(w, badRequest(err))
		return
	}
	snap, changed := s.svc.Dispatch(action)
	writeJSON(w, http.StatusOK, struct {
		stateResponse
		Changed bool `json:"changed"`
	}{snapshotBody(snap), changed})
}

func (s *server) handleCalculate(w http.ResponseWriter, _ *http.Request) {
	snap, first := s.svc.CalculateAndSum()
	writeJSON(w, http.StatusOK, struct {
		stateResponse
		Error *pricing.FirstError `json:"error"`
	}{snapshotBody(snap), first})
}

func (s *server) handleF1(w http.ResponseWriter, r *http.Request) {
	f1, _, err := s.svc.Summaries(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f1)
}

func (s *server) handleF2(w http.ResponseWriter, r *http.Request) {
	_, f2, err := s.svc.Summaries(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f2)
}

type percentRequest struct {
	Percentage float64 `json:"percentage"`
}

func (s *server) handleF1Discount(w http.ResponseWriter, r *http.Request) {
	body(s, func(_ *http.Request, in percentRequest) (quote.Snapshot, error) {
		return s.svc.SetF1Discount(in.Percentage)
	})(w, r)
}

type f2ValueRequest struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

func (s *server) handleF2Value(w http.ResponseWriter, r *http.Request) {
	body(s, func(_ *http.Request, in f2ValueRequest) (quote.Snapshot, error) {
		return s.svc.SetF2Value(in.Key, in.Value)
	})(w, r)
}

type feeRequest struct {
	Fee quote.Fee `json:"fee"`
}

func (s *server) handleF2Fee(w http.ResponseWriter, r *http.Request) {
	body(s, func(_ *http.Request, in feeRequest) (quote.Snapshot, error) {
		return s.svc.ToggleFeeExclusion(in.Fee)
	})(w, r)
}

// splitRequest is a two-bucket quantity split. Quantities arrive as typed by
// the user and go through the same parsing as the distribution dialog.
type splitRequest struct {
	A json.Number `json:"a"`
	B json.Number `json:"b"`
}

func (in splitRequest) parse() (int, int, error) {
	a, err := distribution.ParseQuantity(in.A.String())
	if err != nil {
		return 0, 0, err
	}
	b, err := distribution.ParseQuantity(in.B.String())
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func (s *server) handleRemoteDistribution(w http.ResponseWriter, r *http.Request) {
	body(s, func(_ *http.Request, in splitRequest) (quote.Snapshot, error) {
		qty1, qty16, err := in.parse()
		if err != nil {
			return quote.Snapshot{}, err
		}
		return s.svc.SetRemoteDistribution(qty1, qty16)
	})(w, r)
}

func (s *server) handleDualDistribution(w http.ResponseWriter, r *http.Request) {
	body(s, func(_ *http.Request, in splitRequest) (quote.Snapshot, error) {
		combo, slim, err := in.parse()
		if err != nil {
			return quote.Snapshot{}, err
		}
		return s.svc.SetDualDistribution(combo, slim)
	})(w, r)
}

type modeRequest struct {
	Mode string `json:"mode"`
}

func (s *server) handleDualChainMode(w http.ResponseWriter, r *http.Request) {
	body(s, func(_ *http.Request, in modeRequest) (quote.Snapshot, error) {
		return s.svc.ToggleDualChainMode(quote.DualChainMode(in.Mode))
	})(w, r)
}

func (s *server) handleDriveMode(w http.ResponseWriter, r *http.Request) {
	body(s, func(_ *http.Request, in modeRequest) (quote.Snapshot, error) {
		return s.svc.ToggleDriveMode(quote.DriveMode(in.Mode))
	})(w, r)
}

func (s *server) handleK3Mode(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, snapshotBody(s.svc.ToggleK3Mode()))
}

type fabricModeRequest struct {
	Overwrite bool `json:"overwrite"`
	Keep      bool `json:"keep"`
}

func (s *server) handleFabricMode(w http.ResponseWriter, r *http.Request) {
	body(s, func(_ *http.Request, in fabricModeRequest) (quote.Snapshot, error) {
		return s.svc.EnterFabricMode(in.Overwrite, in.Keep)
	})(w, r)
}

type lfModeRequest struct {
	Delete bool `json:"delete"`
}

func (s *server) handleLFMode(w http.ResponseWriter, r *http.Request) {
	body(s, func(_ *http.Request, in lfModeRequest) (quote.Snapshot, error) {
		if in.Delete {
			return s.svc.StartLFDelete(), nil
		}
		return s.svc.StartLFEdit(), nil
	})(w, r)
}

func (s *server) handleLocationMode(w http.ResponseWriter, _ *http.Request) {
	snap, err := s.svc.ToggleLocationMode()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotBody(snap))
}

type cellRequest struct {
	Row     int          `json:"row"`
	Column  quote.Column `json:"column"`
	Value   string       `json:"value"`
	Confirm bool         `json:"confirm"`
}

func (s *server) handleCommit(w http.ResponseWriter, r *http.Request) {
	body(s, func(_ *http.Request, in cellRequest) (quote.Snapshot, error) {
		return s.svc.CommitValue(quote.Cell{RowIndex: in.Row, Column: in.Column}, in.Value)
	})(w, r)
}

func (s *server) handleSelect(w http.ResponseWriter, r *http.Request) {
	body(s, func(_ *http.Request, in cellRequest) (quote.Snapshot, error) {
		return s.svc.SelectRow(in.Row)
	})(w, r)
}

type typeRequest struct {
	Row  int    `json:"row"`
	Type string `json:"type"`
}

// handleType sets the type of one row, or cycles it when no type is given.
func (s *server) handleType(w http.ResponseWriter, r *http.Request) {
	body(s, func(_ *http.Request, in typeRequest) (quote.Snapshot, error) {
		if in.Type == "" {
			return s.svc.CycleType(in.Row)
		}
		return s.svc.SetType(in.Row, in.Type)
	})(w, r)
}

func (s *server) handleTypeAll(w http.ResponseWriter, r *http.Request) {
	body(s, func(_ *http.Request, in typeRequest) (quote.Snapshot, error) {
		if in.Type == "" {
			return s.svc.CycleAllTypes()
		}
		return s.svc.SetTypeForAll(in.Type)
	})(w, r)
}

func (s *server) handleTypeSelection(w http.ResponseWriter, r *http.Request) {
	body(s, func(_ *http.Request, in typeRequest) (quote.Snapshot, error) {
		return s.svc.SetTypeForSelection(in.Type)
	})(w, r)
}

func (s *server) handleToggleDual(w http.ResponseWriter, r *http.Request) {
	body(s, func(_ *http.Request, in cellRequest) (quote.Snapshot, error) {
		return s.svc.ToggleDual(in.Row)
	})(w, r)
}

func (s *server) handleChainSelect(w http.ResponseWriter, r *http.Request) {
	body(s, func(_ *http.Request, in cellRequest) (quote.Snapshot, error) {
		return s.svc.SelectChainCell(in.Row)
	})(w, r)
}

func (s *server) handleChainCommit(w http.ResponseWriter, r *http.Request) {
	body(s, func(_ *http.Request, in cellRequest) (quote.Snapshot, error) {
		return s.svc.CommitChain(in.Value)
	})(w, r)
}

func (s *server) handleDriveItem(w http.ResponseWriter, r *http.Request) {
	body(s, func(_ *http.Request, in cellRequest) (quote.Snapshot, error) {
		return s.svc.ToggleDriveItem(in.Row, in.Column, in.Confirm)
	})(w, r)
}

type countRequest struct {
	Accessory quote.DriveMode `json:"accessory"`
	Delta     int             `json:"delta"`
	Confirm   bool            `json:"confirm"`
}

func (s *server) handleDriveCount(w http.ResponseWriter, r *http.Request) {
	body(s, func(_ *http.Request, in countRequest) (quote.Snapshot, error) {
		return s.svc.ChangeDriveCount(in.Accessory, in.Delta, in.Confirm)
	})(w, r)
}

func (s *server) handleK3Cycle(w http.ResponseWriter, r *http.Request) {
	body(s, func(_ *http.Request, in cellRequest) (quote.Snapshot, error) {
		return s.svc.CycleK3(in.Row, in.Column)
	})(w, r)
}

func (s *server) handleK3Batch(w http.ResponseWriter, r *http.Request) {
	body(s, func(_ *http.Request, in cellRequest) (quote.Snapshot, error) {
		return s.svc.BatchCycleK3(in.Column)
	})(w, r)
}

type fabricRequest struct {
	Type   string       `json:"type"`
	Column quote.Column `json:"column"`
	Value  string       `json:"value"`
}

func (s *server) handleFabricByType(w http.ResponseWriter, r *http.Request) {
	body(s, func(_ *http.Request, in fabricRequest) (quote.Snapshot, error) {
		return s.svc.SetFabricByType(in.Type, in.Column, in.Value)
	})(w, r)
}

func (s *server) handleLFToggle(w http.ResponseWriter, r *http.Request) {
	body(s, func(_ *http.Request, in cellRequest) (quote.Snapshot, error) {
		return s.svc.ToggleLFRow(in.Row)
	})(w, r)
}

type lfApplyRequest struct {
	Fabric string `json:"fabric"`
	Color  string `json:"color"`
}

func (s *server) handleLFApply(w http.ResponseWriter, r *http.Request) {
	body(s, func(_ *http.Request, in lfApplyRequest) (quote.Snapshot, error) {
		return s.svc.ApplyLF(in.Fabric, in.Color)
	})(w, r)
}

func (s *server) handleLocationCommit(w http.ResponseWriter, r *http.Request) {
	body(s, func(_ *http.Request, in cellRequest) (quote.Snapshot, error) {
		return s.svc.CommitLocation(in.Value)
	})(w, r)
}

func (s *server) handleQuotesList(w http.ResponseWriter, r *http.Request) {
	quotes, err := s.svc.List(r.Context(), strings.TrimSpace(r.URL.Query().Get("q")))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quotes)
}

type saveRequest struct {
	Title string `json:"title"`
	Notes string `json:"notes"`
}

func (s *server) handleQuoteSave(w http.ResponseWriter, r *http.Request) {
	var in saveRequest
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, err)
		return
	}
	if strings.TrimSpace(in.Title) == "" {
		s.writeError(w, &workflow.InputError{Message: "Title is required."})
		return
	}
	id, err := s.svc.Save(r.Context(), in.Title, in.Notes)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *server) handleQuoteLoad(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeError(w, badRequest(errors.New("invalid quote id")))
		return
	}
	s.op(func(r *http.Request) (quote.Snapshot, error) {
		return s.svc.LoadSaved(r.Context(), id)
	})(w, r)
}

func (s *server) handleLoad(w http.ResponseWriter, r *http.Request) {
	body(s, func(_ *http.Request, in quote.QuoteData) (quote.Snapshot, error) {
		return s.svc.Load(&in)
	})(w, r)
}

func (s *server) handleReset(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, snapshotBody(s.svc.Reset()))
}

func (s *server) handleExportCSV(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	if err := export.CSV(&buf, s.svc.Snapshot().State.Quote); err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="quote.csv"`)
	_, _ = w.Write(buf.Bytes())
}

func (s *server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	f1, f2, err := s.svc.Summaries(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := export.XLSX(&buf, s.svc.Snapshot().State.Quote, f1, f2); err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="quote_%s.xlsx"`, time.Now().Format("20060102_150405")))
	_, _ = w.Write(buf.Bytes())
}

func (s *server) handleAdminRatesGet(w http.ResponseWriter, r *http.Request) {
	rates, err := s.rates.Get(r.Context())
	if err != nil {
		s.writeError(w, fmt.Errorf("load surcharge rates: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, rates)
}

func (s *server) handleAdminRatesSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.writeError(w, badRequest(errors.New("invalid form")))
		return
	}
	rates, err := parseRatesForm(r)
	if err != nil {
		s.writeError(w, &workflow.InputError{Message: err.Error()})
		return
	}
	if err := s.rates.Update(r.Context(), rates); err != nil {
		s.writeError(w, fmt.Errorf("update surcharge rates: %w", err))
		return
	}
	s.log.Info("surcharge rates updated", "wifi", rates.Wifi, "delivery", rates.Delivery, "install", rates.Install, "removal", rates.Removal)
	writeJSON(w, http.StatusOK, rates)
}

func parseRatesForm(r *http.Request) (pricing.F2Rates, error) {
	var (
		rates pricing.F2Rates
		err   error
	)
	if rates.Wifi, err = parseNonNegativeFloat(r.FormValue("wifi"), "wifi"); err != nil {
		return rates, err
	}
	if rates.Delivery, err = parseNonNegativeFloat(r.FormValue("delivery"), "delivery"); err != nil {
		return rates, err
	}
	if rates.Install, err = parseNonNegativeFloat(r.FormValue("install"), "install"); err != nil {
		return rates, err
	}
	if rates.Removal, err = parseNonNegativeFloat(r.FormValue("removal"), "removal"); err != nil {
		return rates, err
	}
	return rates, nil
}

func parseNonNegativeFloat(raw, field string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be numeric", field)
	}
	if value < 0 {
		return 0, fmt.Errorf("%s must be greater than or equal to 0", field)
	}
	return value, nil
}

var _ rateStore = (*repo.Rates)(nil)
