package converter

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/swaggyasy/tff-socket-server/internal/model"
)

type CreateBillRequest struct {
	FullName string       `json:"fullName"`
	Email    string       `json:"email"`
	Phone    string       `json:"phone"`
	Amount   *json.Number `json:"amount"`
}

type CreateBillResponse struct {
	Success  bool   `json:"success"`
	BillCode string `json:"billCode,omitempty"`
	Message  string `json:"message,omitempty"`
}

// CreateBillRequestToParams converts the wire request. The amount is
// parsed as a decimal string, never through a float64, so values like
// 19.99 survive intact.
func CreateBillRequestToParams(req CreateBillRequest) (model.CreateBillParams, error) {
	params := model.CreateBillParams{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
	}

	if req.Amount == nil {
		return params, nil
	}

	amount, err := decimal.NewFromString(req.Amount.String())
	if err != nil {
		return model.CreateBillParams{}, fmt.Errorf("amount is not numeric: %w", model.ErrValidation)
	}
	params.Amount = amount
	params.AmountSet = true

	return params, nil
}

func CreateBillResultToResponse(res *model.CreateBillResult) CreateBillResponse {
	return CreateBillResponse{
		Success:  true,
		BillCode: res.BillCode,
	}
}

type callbackPayload struct {
	BillCode string      `json:"billcode"`
	Status   json.Number `json:"status"`
	RefNo    string      `json:"refno"`
	Reason   string      `json:"reason"`
}

// CallbackFromJSON decodes the gateway's JSON callback body.
func CallbackFromJSON(data []byte) (model.PaymentCallback, error) {
	var p callbackPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return model.PaymentCallback{}, fmt.Errorf("decode callback: %w", err)
	}

	status, _ := strconv.Atoi(p.Status.String())
	return model.PaymentCallback{
		BillCode:   p.BillCode,
		StatusCode: status,
		RefNo:      p.RefNo,
		Reason:     p.Reason,
	}, nil
}

// CallbackFromForm decodes the gateway's form-encoded callback body.
func CallbackFromForm(values url.Values) model.PaymentCallback {
	status, _ := strconv.Atoi(values.Get("status"))
	return model.PaymentCallback{
		BillCode:   values.Get("billcode"),
		StatusCode: status,
		RefNo:      values.Get("refno"),
		Reason:     values.Get("reason"),
	}
}
