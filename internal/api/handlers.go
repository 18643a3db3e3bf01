package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"rateAdjuster/internal/config"
	"rateAdjuster/internal/engine"
	"rateAdjuster/internal/model"
)

const defaultChangesLimit = 50

type configView struct {
	Authority string            `json:"authority"`
	Config    model.RateConfig  `json:"config"`
	Oracles   map[string]string `json:"oracles"`
}

func (s *Server) getConfig(w http.ResponseWriter, _ *http.Request) {
	bindings := s.engine.Oracles()
	oracles := make(map[string]string, len(bindings))
	for pool, oracle := range bindings {
		oracles[pool.Hex()] = oracle.Hex()
	}
	writeJSON(w, http.StatusOK, configView{
		Authority: s.engine.Authority().Hex(),
		Config:    s.engine.Config(),
		Oracles:   oracles,
	})
}

func (s *Server) listChanges(w http.ResponseWriter, r *http.Request) {
	limit := defaultChangesLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit: %q", raw))
			return
		}
		limit = parsed
	}

	ctx, cancel := s.context(r.Context())
	defer cancel()

	changes, err := s.changes.LatestChanges(ctx, limit)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	if changes == nil {
		changes = []model.ConfigChangeRecord{}
	}
	writeJSON(w, http.StatusOK, changes)
}

type valueBody struct {
	Value *uint32 `json:"value"`
}

// borrowLimitConfigBody replaces the whole borrow limit config, so every
// field must be present.
type borrowLimitConfigBody struct {
	ScoreFloor                   *uint8  `json:"score_floor"`
	LimitAdjustmentPower         *uint32 `json:"limit_adjustment_power"`
	TVLLimitCoefficientBps       *uint32 `json:"tvl_limit_coefficient_bps"`
	PoolValueLimitCoefficientBps *uint32 `json:"pool_value_limit_coefficient_bps"`
}

type oracleBody struct {
	Pool   string `json:"pool"`
	Oracle string `json:"oracle"`
}

func (s *Server) putConfig(w http.ResponseWriter, r *http.Request) {
	caller, err := config.ParseAddress(r.Header.Get(CallerHeader))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%s header: %w", CallerHeader, err))
		return
	}
	ctx, cancel := s.context(r.Context())
	defer cancel()

	field := chi.URLParam(r, "field")
	switch field {
	case "borrow-limit":
		var body borrowLimitConfigBody
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if body.ScoreFloor == nil || body.LimitAdjustmentPower == nil || body.TVLLimitCoefficientBps == nil || body.PoolValueLimitCoefficientBps == nil {
			writeError(w, http.StatusBadRequest, errors.New("borrow limit config requires score_floor, limit_adjustment_power, tvl_limit_coefficient_bps and pool_value_limit_coefficient_bps"))
			return
		}
		err = s.engine.SetBorrowLimitConfig(ctx, caller, *body.ScoreFloor, *body.LimitAdjustmentPower, *body.TVLLimitCoefficientBps, *body.PoolValueLimitCoefficientBps)
	case "oracle":
		var body oracleBody
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		pool, perr := config.ParseAddress(body.Pool)
		oracle, oerr := config.ParseAddress(body.Oracle)
		if perr != nil || oerr != nil {
			writeError(w, http.StatusBadRequest, errors.Join(perr, oerr))
			return
		}
		err = s.engine.SetBaseRateOracle(ctx, caller, pool, oracle)
	default:
		setter, ok := s.valueSetter(field)
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Errorf("unknown config field: %q", field))
			return
		}
		var body valueBody
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if body.Value == nil {
			writeError(w, http.StatusBadRequest, errors.New("missing value"))
			return
		}
		err = setter(ctx, caller, *body.Value)
	}
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.getConfig(w, r)
}

func (s *Server) valueSetter(field string) (func(ctx context.Context, caller common.Address, v uint32) error, bool) {
	switch field {
	case "risk-premium":
		return s.engine.SetRiskPremium, true
	case "credit-coefficient":
		return s.engine.SetCreditAdjustmentCoefficient, true
	case "utilization-coefficient":
		return s.engine.SetUtilizationAdjustmentCoefficient, true
	case "utilization-power":
		return s.engine.SetUtilizationAdjustmentPower, true
	case "term-coefficient":
		return s.engine.SetFixedTermLoanAdjustmentCoefficient, true
	default:
		return nil, false
	}
}

func (s *Server) getRate(w http.ResponseWriter, r *http.Request) {
	pool, ok := poolParam(w, r)
	if !ok {
		return
	}
	score, err := parseScore(r.URL.Query().Get("score"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var term uint64
	if raw := r.URL.Query().Get("term"); raw != "" {
		term, err = strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid term: %q", raw))
			return
		}
	}

	ctx, cancel := s.context(r.Context())
	defer cancel()

	quote, err := s.engine.QuoteRate(ctx, pool, score, term)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (s *Server) getUtilization(w http.ResponseWriter, r *http.Request) {
	pool, ok := poolParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := s.context(r.Context())
	defer cancel()

	rate, err := s.engine.UtilizationAdjustmentRate(ctx, pool)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"pool":                       pool.Hex(),
		"utilization_adjustment_bps": rate,
	})
}

func (s *Server) getCreditAdjustment(w http.ResponseWriter, r *http.Request) {
	score, err := parseScore(r.URL.Query().Get("score"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"score":                 score,
		"credit_adjustment_bps": s.engine.CreditScoreAdjustmentRate(score),
	})
}

func (s *Server) getTermAdjustment(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("term")
	term, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid term: %q", raw))
		return
	}
	adjustment, err := s.engine.FixedTermLoanAdjustment(term)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"term_seconds":        term,
		"term_adjustment_bps": adjustment,
	})
}

func (s *Server) getLimitAdjustment(w http.ResponseWriter, r *http.Request) {
	score, err := parseScore(r.URL.Query().Get("score"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"score":                score,
		"limit_adjustment_bps": s.engine.BorrowLimitAdjustment(score),
	})
}

// borrowLimitBody carries amounts as base-10 strings so 256-bit values
// survive JSON.
type borrowLimitBody struct {
	Score            *uint8 `json:"score"`
	MaxBorrowerLimit string `json:"max_borrower_limit"`
	TotalTVL         string `json:"total_tvl"`
	TVLDecimals      uint8  `json:"tvl_decimals"`
	TotalBorrowed    string `json:"total_borrowed"`
}

func (s *Server) postBorrowLimit(w http.ResponseWriter, r *http.Request) {
	pool, ok := poolParam(w, r)
	if !ok {
		return
	}
	var body borrowLimitBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if body.Score == nil {
		writeError(w, http.StatusBadRequest, errors.New("missing score"))
		return
	}
	req := engine.BorrowLimitRequest{Pool: pool, Score: *body.Score, TVLDecimals: body.TVLDecimals}
	var err error
	if req.MaxBorrowerLimit, err = parseAmount("max_borrower_limit", body.MaxBorrowerLimit); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.TotalTVL, err = parseAmount("total_tvl", body.TotalTVL); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.TotalBorrowed, err = parseAmount("total_borrowed", body.TotalBorrowed); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := s.context(r.Context())
	defer cancel()

	quote, err := s.engine.QuoteLimit(ctx, req)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func poolParam(w http.ResponseWriter, r *http.Request) (common.Address, bool) {
	pool, err := config.ParseAddress(chi.URLParam(r, "pool"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return common.Address{}, false
	}
	return pool, true
}

func parseScore(raw string) (uint8, error) {
	score, err := strconv.ParseUint(raw, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid score: %q", raw)
	}
	return uint8(score), nil
}

// parseAmount reads a non-negative base-10 integer. Empty means zero.
func parseAmount(name, raw string) (*big.Int, error) {
	if raw == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return v, nil
}

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New("missing request body")
	}
	defer r.Body.Close()

	dec := json.NewDecoder(io.LimitReader(r.Body, requestLimit))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}
