package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/veledger/internal/domain"
)

var testLogger = slog.New(slog.DiscardHandler)

// stubPositions is a scriptable PositionService.
type stubPositions struct {
	lockFn   func(ctx context.Context, caller, account common.Address, amount *uint256.Int, duration uint64, beneficiary common.Address, useExternalCustody bool) (domain.Position, error)
	unlockFn func(ctx context.Context, caller common.Address, id uint64, beneficiary common.Address) error
	extendFn func(ctx context.Context, caller common.Address, id uint64, newDuration uint64) (domain.Position, error)
	specsFn  func(ctx context.Context, id uint64) (domain.Position, error)
}

func (s *stubPositions) Lock(ctx context.Context, caller, account common.Address, amount *uint256.Int, duration uint64, beneficiary common.Address, useExternalCustody bool) (domain.Position, error) {
	return s.lockFn(ctx, caller, account, amount, duration, beneficiary, useExternalCustody)
}

func (s *stubPositions) Unlock(ctx context.Context, caller common.Address, id uint64, beneficiary common.Address) error {
	return s.unlockFn(ctx, caller, id, beneficiary)
}

func (s *stubPositions) ExtendLock(ctx context.Context, caller common.Address, id uint64, newDuration uint64) (domain.Position, error) {
	return s.extendFn(ctx, caller, id, newDuration)
}

func (s *stubPositions) Specs(ctx context.Context, id uint64) (domain.Position, error) {
	return s.specsFn(ctx, id)
}

func samplePosition() domain.Position {
	return domain.Position{
		ID:          1,
		Amount:      uint256.NewInt(1_000_000),
		Duration:    8_640_000,
		LockedUntil: 1_900_000_000,
		Custody:     domain.CustodyExternalToken,
		Owner:       common.HexToAddress("0x00000000000000000000000000000000000000a1"),
	}
}

// TestLockEndpoint checks the happy path decodes the request and returns 201
// with the created position.
func TestLockEndpoint(t *testing.T) {
	var gotAmount *uint256.Int
	var gotDuration uint64
	var gotExternal bool
	h := NewPositionHandler(&stubPositions{
		lockFn: func(_ context.Context, caller, account common.Address, amount *uint256.Int, duration uint64, beneficiary common.Address, external bool) (domain.Position, error) {
			gotAmount, gotDuration, gotExternal = amount, duration, external
			assert.Equal(t, caller, account)
			return samplePosition(), nil
		},
	}, testLogger)

	body := `{"account":"0x00000000000000000000000000000000000000a1","amount":"1000000","duration":8640000,"external_custody":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/positions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Lock(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "1000000", gotAmount.Dec())
	assert.Equal(t, uint64(8_640_000), gotDuration)
	assert.True(t, gotExternal)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(1), resp["id"])
	assert.Equal(t, "1000000", resp["amount"])
	assert.Equal(t, true, resp["external_custody"])
}

// TestLockEndpointBadRequests covers malformed bodies, addresses, and amounts.
func TestLockEndpointBadRequests(t *testing.T) {
	h := NewPositionHandler(&stubPositions{
		lockFn: func(context.Context, common.Address, common.Address, *uint256.Int, uint64, common.Address, bool) (domain.Position, error) {
			t.Fatal("service must not be reached")
			return domain.Position{}, nil
		},
	}, testLogger)

	cases := []struct {
		name string
		body string
	}{
		{"not json", `{{`},
		{"unknown field", `{"account":"0x00000000000000000000000000000000000000a1","amount":"1","duration":864000,"bogus":true}`},
		{"bad account", `{"account":"nope","amount":"1","duration":864000}`},
		{"bad beneficiary", `{"account":"0x00000000000000000000000000000000000000a1","beneficiary":"nope","amount":"1","duration":864000}`},
		{"bad amount", `{"account":"0x00000000000000000000000000000000000000a1","amount":"1.5","duration":864000}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/positions", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			h.Lock(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

// TestDomainErrorMapping checks ledger failures translate to the documented
// status codes.
func TestDomainErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrInvalidAccount, http.StatusForbidden},
		{domain.ErrInvalidDuration, http.StatusBadRequest},
		{domain.ErrLockPeriodNotOver, http.StatusConflict},
		{domain.ErrInsufficientBalance, http.StatusUnprocessableEntity},
		{domain.ErrInsufficientAllowance, http.StatusUnprocessableEntity},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			h := NewPositionHandler(&stubPositions{
				lockFn: func(context.Context, common.Address, common.Address, *uint256.Int, uint64, common.Address, bool) (domain.Position, error) {
					return domain.Position{}, tc.err
				},
			}, testLogger)

			body := `{"account":"0x00000000000000000000000000000000000000a1","amount":"1","duration":864000}`
			req := httptest.NewRequest(http.MethodPost, "/api/positions", strings.NewReader(body))
			rec := httptest.NewRecorder()
			h.Lock(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

// TestUnlockEndpoint checks the id and caller reach the service and a matured
// unlock returns 200.
func TestUnlockEndpoint(t *testing.T) {
	h := NewPositionHandler(&stubPositions{
		unlockFn: func(_ context.Context, caller common.Address, id uint64, beneficiary common.Address) error {
			assert.Equal(t, uint64(7), id)
			assert.Equal(t, common.HexToAddress("0x00000000000000000000000000000000000000a1"), caller)
			// Beneficiary defaults to the caller.
			assert.Equal(t, caller, beneficiary)
			return nil
		},
	}, testLogger)

	req := httptest.NewRequest(http.MethodDelete, "/api/positions/7", strings.NewReader(`{"caller":"0x00000000000000000000000000000000000000a1"}`))
	req.SetPathValue("id", "7")
	rec := httptest.NewRecorder()
	h.Unlock(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"unlocked":7}`, rec.Body.String())
}

// TestUnlockEndpointBadID checks non-numeric and zero ids are rejected before
// the service sees them.
func TestUnlockEndpointBadID(t *testing.T) {
	h := NewPositionHandler(&stubPositions{}, testLogger)

	for _, id := range []string{"abc", "0", "-1"} {
		req := httptest.NewRequest(http.MethodDelete, "/api/positions/"+id, strings.NewReader(`{}`))
		req.SetPathValue("id", id)
		rec := httptest.NewRecorder()
		h.Unlock(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "id %q", id)
	}
}

// TestExtendEndpoint checks the duration rewrite round trip.
func TestExtendEndpoint(t *testing.T) {
	h := NewPositionHandler(&stubPositions{
		extendFn: func(_ context.Context, caller common.Address, id uint64, newDuration uint64) (domain.Position, error) {
			assert.Equal(t, uint64(1), id)
			assert.Equal(t, uint64(21_600_000), newDuration)
			pos := samplePosition()
			pos.Duration = newDuration
			return pos, nil
		},
	}, testLogger)

	body := `{"caller":"0x00000000000000000000000000000000000000a1","new_duration":21600000}`
	req := httptest.NewRequest(http.MethodPut, "/api/positions/1/duration", strings.NewReader(body))
	req.SetPathValue("id", "1")
	rec := httptest.NewRecorder()
	h.Extend(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(21_600_000), resp["duration"])
}

// TestGetSpecsEndpoint checks the read path and the 404 mapping.
func TestGetSpecsEndpoint(t *testing.T) {
	h := NewPositionHandler(&stubPositions{
		specsFn: func(_ context.Context, id uint64) (domain.Position, error) {
			if id != 1 {
				return domain.Position{}, domain.ErrNotFound
			}
			return samplePosition(), nil
		},
	}, testLogger)

	req := httptest.NewRequest(http.MethodGet, "/api/positions/1", nil)
	req.SetPathValue("id", "1")
	rec := httptest.NewRecorder()
	h.GetSpecs(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(1_900_000_000), resp["locked_until"])

	req = httptest.NewRequest(http.MethodGet, "/api/positions/2", nil)
	req.SetPathValue("id", "2")
	rec = httptest.NewRecorder()
	h.GetSpecs(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
