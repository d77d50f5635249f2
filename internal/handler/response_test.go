package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/freeeve/age-of-conquest/internal/model"
	"github.com/freeeve/age-of-conquest/internal/service"
	"github.com/freeeve/age-of-conquest/pkg/conquest"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusCreated, map[string]string{"id": "m1"})

	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type=application/json, got %s", ct)
	}
	var result map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result["id"] != "m1" {
		t.Errorf("unexpected body: %v", result)
	}
}

func TestDecodeJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"unit":3,"to":{"col":1,"row":2}}`))
	var mv model.MoveRequest
	if err := decodeJSON(req, &mv); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if mv.Unit != 3 || mv.To != (conquest.Coord{Col: 1, Row: 2}) {
		t.Errorf("unexpected move %+v", mv)
	}

	for _, body := range []string{"", "not json"} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		if err := decodeJSON(req, &mv); err == nil {
			t.Errorf("expected error for body %q", body)
		}
	}
}

func TestDecodeJSONBodyLimit(t *testing.T) {
	huge := `{"archetype":"` + strings.Repeat("x", maxBodySize) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(huge))
	var p struct {
		Archetype string `json:"archetype"`
	}
	if err := decodeJSON(req, &p); err == nil {
		t.Error("expected oversized body to fail")
	}
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		reason string
	}{
		{&conquest.RejectedError{Reason: conquest.ErrIllegalMove, Detail: "too far"}, http.StatusUnprocessableEntity, "illegal_move"},
		{&conquest.RejectedError{Reason: conquest.ErrInsufficientFunds}, http.StatusPaymentRequired, "insufficient_funds"},
		{&conquest.RejectedError{Reason: conquest.ErrNoEligibleTarget}, http.StatusConflict, "no_eligible_target"},
		{&conquest.RejectedError{Reason: conquest.ErrMatchConcluded}, http.StatusConflict, "match_concluded"},
		{fmt.Errorf("%w: no unit 9", conquest.ErrInvalidSelection), http.StatusBadRequest, "invalid_selection"},
		{fmt.Errorf("%w: bad generator", conquest.ErrInvalidConfig), http.StatusBadRequest, "invalid_config"},
		{service.ErrMatchNotFound, http.StatusNotFound, "not_found"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		writeServiceError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
		if rec.Code != tt.status {
			t.Errorf("%v: expected %d, got %d", tt.err, tt.status, rec.Code)
		}
		var rej model.Rejection
		json.Unmarshal(rec.Body.Bytes(), &rej)
		if rej.Reason != tt.reason || rej.Error != tt.err.Error() {
			t.Errorf("%v: unexpected body %+v", tt.err, rej)
		}
	}
}

func TestWriteServiceErrorUnknown(t *testing.T) {
	rec := httptest.NewRecorder()
	writeServiceError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("disk on fire"))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "disk") {
		t.Errorf("internal error detail leaked: %s", rec.Body.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec = httptest.NewRecorder()
	writeServiceError(rec, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx), context.Canceled)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 for cancelled request, got %d", rec.Code)
	}
}
