package engine

import (
	"context"
	"errors"
	"math/big"
	"testing"
)

func TestQuoteRate(t *testing.T) {
	eng := newRateEngine(t, 300, 50)
	ctx := context.Background()
	if err := eng.SetRiskPremium(ctx, owner, 100); err != nil {
		t.Fatalf("set risk premium: %v", err)
	}

	quote, err := eng.QuoteRate(ctx, testPool, 223, 60*24*60*60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.RateBps != 693 || quote.UtilizationAdjustment != 150 {
		t.Fatalf("rate breakdown mismatch: %+v", quote)
	}
	// 693 + 25 * 2
	if quote.TermAdjustmentBps != 50 || quote.CombinedRateBps != 743 {
		t.Fatalf("term breakdown mismatch: %+v", quote)
	}
	if quote.Pool != testPool.Hex() || quote.Score != 223 {
		t.Fatalf("quote identity mismatch: %+v", quote)
	}

	noTerm, err := eng.QuoteRate(ctx, testPool, 223, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if noTerm.TermAdjustmentBps != 0 || noTerm.CombinedRateBps != 0 {
		t.Fatalf("expected empty term fields: %+v", noTerm)
	}
}

func TestQuoteRateNoOracleBound(t *testing.T) {
	eng := newTestEngine(t, &fakeOracles{rate: big.NewInt(300)}, &fakePools{liquidRatio: big.NewInt(10000)}, nil)

	if _, err := eng.QuoteRate(context.Background(), testPool, 200, 0); !errors.Is(err, ErrNoOracleBound) {
		t.Fatalf("expected no oracle bound, got %v", err)
	}
}

func TestQuoteLimit(t *testing.T) {
	eng := newLimitEngine(t, units(1e7, 18), 18)
	ctx := context.Background()

	quote, err := eng.QuoteLimit(ctx, BorrowLimitRequest{
		Pool:             testPool,
		Score:            191,
		MaxBorrowerLimit: units(100, 18),
		TotalTVL:         units(2e7, 18),
		TVLDecimals:      18,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.BorrowLimit != units(8051, 16).String() {
		t.Fatalf("borrow limit mismatch: %s", quote.BorrowLimit)
	}
	if quote.LimitAdjustmentBps != 8051 || quote.PoolDecimals != 18 {
		t.Fatalf("quote mismatch: %+v", quote)
	}

	below, err := eng.QuoteLimit(ctx, BorrowLimitRequest{Pool: testPool, Score: 30, MaxBorrowerLimit: units(100, 18)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if below.BorrowLimit != "0" || below.PoolDecimals != 18 {
		t.Fatalf("below floor quote mismatch: %+v", below)
	}
}

func TestQuoteLimitPoolUnavailable(t *testing.T) {
	eng := newTestEngine(t, &fakeOracles{}, &fakePools{err: errors.New("rpc down")}, nil)

	_, err := eng.QuoteLimit(context.Background(), BorrowLimitRequest{Pool: testPool, Score: 200})
	if !errors.Is(err, ErrCollaboratorUnavailable) {
		t.Fatalf("expected collaborator unavailable, got %v", err)
	}
}
