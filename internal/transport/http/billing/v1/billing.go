package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/swaggyasy/tff-socket-server/internal/converter"
	"github.com/swaggyasy/tff-socket-server/internal/model"
	"github.com/swaggyasy/tff-socket-server/platform/logger"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw callback body.
const SignatureHeader = "X-Callback-Signature"

type BillingService interface {
	CreateBill(ctx context.Context, params model.CreateBillParams) (*model.CreateBillResult, error)
	HandleCallback(ctx context.Context, cb model.PaymentCallback)
}

type handler struct {
	svc BillingService
	// Shared secret for callback verification. Empty disables the
	// check (local runs against the gateway sandbox).
	callbackSecret []byte
}

func NewBillingHandler(service BillingService, callbackSecret []byte) *handler {
	return &handler{svc: service, callbackSecret: callbackSecret}
}

func (h *handler) CreateBill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req converter.CreateBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(ctx, w, http.StatusBadRequest, converter.CreateBillResponse{
			Success: false,
			Message: "invalid request body",
		})
		return
	}

	params, err := converter.CreateBillRequestToParams(req)
	if err != nil {
		writeJSON(ctx, w, http.StatusBadRequest, converter.CreateBillResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	res, err := h.svc.CreateBill(ctx, params)
	if err != nil {
		status, msg := mapCreateBillError(err)
		writeJSON(ctx, w, status, converter.CreateBillResponse{
			Success: false,
			Message: msg,
		})
		return
	}

	writeJSON(ctx, w, http.StatusOK, converter.CreateBillResultToResponse(res))
}

// Callback always acknowledges with 200: a non-success response makes
// the gateway retry indefinitely. Unverified or malformed payloads are
// logged and dropped, never rejected outward.
func (h *handler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Error(ctx, "callback body read failed", logger.ErrorF(err))
		acknowledge(ctx, w)
		return
	}

	if !h.verifySignature(body, r.Header.Get(SignatureHeader)) {
		logger.Warn(ctx, "callback signature rejected")
		acknowledge(ctx, w)
		return
	}

	cb, ok := decodeCallback(r.Header.Get("Content-Type"), body)
	if !ok {
		logger.Warn(ctx, "malformed callback payload ignored")
		acknowledge(ctx, w)
		return
	}

	h.svc.HandleCallback(ctx, cb)
	acknowledge(ctx, w)
}

func (h *handler) verifySignature(body []byte, signature string) bool {
	if len(h.callbackSecret) == 0 {
		return true
	}

	sig, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, h.callbackSecret)
	mac.Write(body)

	return hmac.Equal(sig, mac.Sum(nil))
}

func decodeCallback(contentType string, body []byte) (model.PaymentCallback, bool) {
	if strings.Contains(contentType, "application/json") {
		cb, err := converter.CallbackFromJSON(body)
		if err != nil {
			return model.PaymentCallback{}, false
		}
		return cb, true
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return model.PaymentCallback{}, false
	}
	return converter.CallbackFromForm(values), true
}

func mapCreateBillError(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest, err.Error() // 400
	default:
		// Gateway and storage detail stays server-side.
		return http.StatusInternalServerError, "failed to create bill" // 500
	}
}

func acknowledge(ctx context.Context, w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		logger.Error(ctx, "callback acknowledge", logger.ErrorF(err))
	}
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error(ctx, "write response", logger.ErrorF(err))
	}
}
