package api

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"rateAdjuster/internal/engine"
	"rateAdjuster/internal/model"
)

var (
	authority = common.HexToAddress("0x1111111111111111111111111111111111111111")
	pool      = common.HexToAddress("0x3333333333333333333333333333333333333333")
	oracle    = common.HexToAddress("0x4444444444444444444444444444444444444444")
)

type stubOracles struct{}

func (stubOracles) WeeklyRate(context.Context, common.Address) (*big.Int, error) {
	return big.NewInt(300), nil
}

type stubPools struct {
	err error
}

func (p stubPools) LiquidRatio(context.Context, common.Address) (*big.Int, error) {
	if p.err != nil {
		return nil, p.err
	}
	return big.NewInt(5000), nil
}

func (p stubPools) PoolValue(context.Context, common.Address) (*big.Int, error) {
	if p.err != nil {
		return nil, p.err
	}
	return new(big.Int).Mul(big.NewInt(1e7), big.NewInt(1e18)), nil
}

func (p stubPools) Decimals(context.Context, common.Address) (uint8, error) {
	if p.err != nil {
		return 0, p.err
	}
	return 18, nil
}

type stubChanges struct{}

func (stubChanges) LatestChanges(context.Context, int) ([]model.ConfigChangeRecord, error) {
	return []model.ConfigChangeRecord{{Event: model.EventRiskPremiumChanged, Args: []string{"100"}}}, nil
}

func newTestServer(t *testing.T, pools stubPools) (*Server, *engine.Engine) {
	t.Helper()
	eng, err := engine.New(engine.Options{Authority: authority, Oracles: stubOracles{}, Pools: pools})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	srv, err := New(Config{Engine: eng, Changes: stubChanges{}})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv, eng
}

func do(t *testing.T, srv *Server, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, stubPools{})
	rec := do(t, srv, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz mismatch: %d %q", rec.Code, rec.Body.String())
	}
}

func TestRateRoute(t *testing.T) {
	srv, eng := newTestServer(t, stubPools{})
	ctx := context.Background()
	if err := eng.SetBaseRateOracle(ctx, authority, pool, oracle); err != nil {
		t.Fatalf("bind oracle: %v", err)
	}
	if err := eng.SetRiskPremium(ctx, authority, 100); err != nil {
		t.Fatalf("set risk premium: %v", err)
	}

	rec := do(t, srv, http.MethodGet, "/pools/"+pool.Hex()+"/rate?score=223", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status mismatch: %d %s", rec.Code, rec.Body.String())
	}
	var quote model.RateQuote
	if err := json.Unmarshal(rec.Body.Bytes(), &quote); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if quote.RateBps != 693 || quote.UtilizationAdjustment != 150 {
		t.Fatalf("quote mismatch: %+v", quote)
	}
}

func TestRouteErrors(t *testing.T) {
	srv, _ := newTestServer(t, stubPools{})
	down, _ := newTestServer(t, stubPools{err: errors.New("rpc down")})

	cases := []struct {
		name   string
		srv    *Server
		method string
		path   string
		body   string
		want   int
	}{
		{name: "no oracle bound", srv: srv, method: http.MethodGet, path: "/pools/" + pool.Hex() + "/rate?score=200", want: http.StatusNotFound},
		{name: "bad score", srv: srv, method: http.MethodGet, path: "/pools/" + pool.Hex() + "/rate?score=256", want: http.StatusBadRequest},
		{name: "bad pool", srv: srv, method: http.MethodGet, path: "/pools/nope/utilization", want: http.StatusBadRequest},
		{name: "pool down", srv: down, method: http.MethodGet, path: "/pools/" + pool.Hex() + "/utilization", want: http.StatusBadGateway},
		{name: "large term", srv: srv, method: http.MethodGet, path: "/term-adjustment?term=18446744073709551615", want: http.StatusOK},
		{name: "bad amount", srv: srv, method: http.MethodPost, path: "/pools/" + pool.Hex() + "/borrow-limit", body: `{"score":200,"max_borrower_limit":"-1"}`, want: http.StatusBadRequest},
		{name: "missing score", srv: srv, method: http.MethodPost, path: "/pools/" + pool.Hex() + "/borrow-limit", body: `{}`, want: http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec := do(t, tc.srv, tc.method, tc.path, tc.body, nil)
		if rec.Code != tc.want {
			t.Fatalf("%s: status mismatch: got %d want %d (%s)", tc.name, rec.Code, tc.want, rec.Body.String())
		}
	}
}

func TestBorrowLimitRoute(t *testing.T) {
	srv, _ := newTestServer(t, stubPools{})
	body := `{"score":191,"max_borrower_limit":"100000000000000000000","total_tvl":"20000000000000000000000000","tvl_decimals":18}`

	rec := do(t, srv, http.MethodPost, "/pools/"+pool.Hex()+"/borrow-limit", body, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status mismatch: %d %s", rec.Code, rec.Body.String())
	}
	var quote model.LimitQuote
	if err := json.Unmarshal(rec.Body.Bytes(), &quote); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if quote.BorrowLimit != "80510000000000000000" || quote.LimitAdjustmentBps != 8051 {
		t.Fatalf("quote mismatch: %+v", quote)
	}
}

func TestPutConfig(t *testing.T) {
	srv, eng := newTestServer(t, stubPools{})
	owner := map[string]string{CallerHeader: authority.Hex()}
	stranger := map[string]string{CallerHeader: "0x2222222222222222222222222222222222222222"}

	if rec := do(t, srv, http.MethodPut, "/config/risk-premium", `{"value":350}`, stranger); rec.Code != http.StatusForbidden {
		t.Fatalf("expected forbidden, got %d", rec.Code)
	}
	if rec := do(t, srv, http.MethodPut, "/config/risk-premium", `{"value":350}`, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected bad request without caller, got %d", rec.Code)
	}
	if rec := do(t, srv, http.MethodPut, "/config/no-such-field", `{"value":1}`, owner); rec.Code != http.StatusNotFound {
		t.Fatalf("expected not found, got %d", rec.Code)
	}
	if eng.Config().RiskPremiumBps != model.DefaultRiskPremiumBps {
		t.Fatalf("rejected change was applied")
	}

	if rec := do(t, srv, http.MethodPut, "/config/risk-premium", `{"value":350}`, owner); rec.Code != http.StatusOK {
		t.Fatalf("set risk premium: %d %s", rec.Code, rec.Body.String())
	}
	body := `{"score_floor":60,"limit_adjustment_power":5000,"tvl_limit_coefficient_bps":1000,"pool_value_limit_coefficient_bps":2000}`
	if rec := do(t, srv, http.MethodPut, "/config/borrow-limit", body, owner); rec.Code != http.StatusOK {
		t.Fatalf("set borrow limit: %d %s", rec.Code, rec.Body.String())
	}
	oracleBody := `{"pool":"` + pool.Hex() + `","oracle":"` + oracle.Hex() + `"}`
	if rec := do(t, srv, http.MethodPut, "/config/oracle", oracleBody, owner); rec.Code != http.StatusOK {
		t.Fatalf("set oracle: %d %s", rec.Code, rec.Body.String())
	}

	cfg := eng.Config()
	if cfg.RiskPremiumBps != 350 || cfg.BorrowLimit.ScoreFloor != 60 || cfg.BorrowLimit.PoolValueLimitCoefficientBps != 2000 {
		t.Fatalf("config mismatch: %+v", cfg)
	}
	if got, ok := eng.BaseRateOracle(pool); !ok || got != oracle {
		t.Fatalf("oracle binding mismatch: %s %v", got.Hex(), ok)
	}

	rec := do(t, srv, http.MethodGet, "/config", "", nil)
	var view configView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if view.Oracles[pool.Hex()] != oracle.Hex() || view.Authority != authority.Hex() {
		t.Fatalf("config view mismatch: %+v", view)
	}
}

func TestListChanges(t *testing.T) {
	srv, _ := newTestServer(t, stubPools{})

	rec := do(t, srv, http.MethodGet, "/config/changes?limit=5", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status mismatch: %d", rec.Code)
	}
	var changes []model.ConfigChangeRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &changes); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(changes) != 1 || changes[0].Event != model.EventRiskPremiumChanged {
		t.Fatalf("changes mismatch: %+v", changes)
	}
	if rec := do(t, srv, http.MethodGet, "/config/changes?limit=0", "", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected bad request, got %d", rec.Code)
	}
}

func TestPutBorrowLimitRequiresEveryField(t *testing.T) {
	srv, eng := newTestServer(t, stubPools{})
	owner := map[string]string{CallerHeader: authority.Hex()}

	for _, body := range []string{
		`{"score_floor":50}`,
		`{"score_floor":50,"limit_adjustment_power":5000,"tvl_limit_coefficient_bps":1000}`,
		`{}`,
	} {
		if rec := do(t, srv, http.MethodPut, "/config/borrow-limit", body, owner); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected bad request, got %d", body, rec.Code)
		}
	}
	if got := eng.Config().BorrowLimit; got != model.DefaultRateConfig().BorrowLimit {
		t.Fatalf("partial body changed the config: %+v", got)
	}

	body := `{"score_floor":0,"limit_adjustment_power":0,"tvl_limit_coefficient_bps":0,"pool_value_limit_coefficient_bps":0}`
	if rec := do(t, srv, http.MethodPut, "/config/borrow-limit", body, owner); rec.Code != http.StatusOK {
		t.Fatalf("explicit zeros: %d %s", rec.Code, rec.Body.String())
	}
	if got := eng.Config().BorrowLimit; got != (model.BorrowLimitConfig{}) {
		t.Fatalf("explicit zeros not stored: %+v", got)
	}
}
