package toyyibpay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/swaggyasy/tff-socket-server/internal/model"
)

const createBillPath = "/index.php/api/createBill"

// billName is capped by the gateway.
const maxBillNameLen = 30

type Config struct {
	BaseURL      string
	SecretKey    string
	CategoryCode string
	CallbackURL  string
	ReturnURL    string
}

type client struct {
	httpClient *http.Client
	cfg        Config
}

func NewClient(httpClient *http.Client, cfg Config) *client {
	return &client{httpClient: httpClient, cfg: cfg}
}

type createBillResponse struct {
	BillCode string `json:"BillCode"`
}

// CreateBill registers one bill with the gateway and returns its
// gateway-assigned code. The call is form-encoded per the gateway API;
// the response is a JSON array whose first element carries BillCode.
// Any other shape is a failure.
func (c *client) CreateBill(ctx context.Context, bill model.Bill) (string, error) {
	form := url.Values{}
	form.Set("userSecretKey", c.cfg.SecretKey)
	form.Set("categoryCode", c.cfg.CategoryCode)
	form.Set("billName", truncate("TFF Order "+bill.ExternalReferenceNo, maxBillNameLen))
	form.Set("billDescription", "TFF order payment "+bill.ExternalReferenceNo)
	form.Set("billPriceSetting", "1")
	form.Set("billPayorInfo", "1")
	form.Set("billAmount", strconv.FormatInt(bill.AmountCents, 10))
	form.Set("billReturnUrl", c.cfg.ReturnURL)
	form.Set("billCallbackUrl", c.cfg.CallbackURL)
	form.Set("billExternalReferenceNo", bill.ExternalReferenceNo)
	form.Set("billTo", bill.PayorName)
	form.Set("billEmail", bill.PayorEmail)
	form.Set("billPhone", bill.PayorPhone)

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		strings.TrimRight(c.cfg.BaseURL, "/")+createBillPath,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return "", fmt.Errorf("toyyibpay: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("toyyibpay: create bill call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("toyyibpay: unexpected status %d", resp.StatusCode)
	}

	var result []createBillResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("toyyibpay: decode response: %w", err)
	}

	if len(result) == 0 || result[0].BillCode == "" {
		return "", fmt.Errorf("toyyibpay: response carries no bill code")
	}

	return result[0].BillCode, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
