// Package sslcommerz is a minimal client for the SSLCommerz hosted checkout:
// session init and IPN signature verification.
package sslcommerz

import (
	"context"
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	SandboxInitURL = "https://sandbox.sslcommerz.com/gwprocess/v4/api.php"
	LiveInitURL    = "https://securepay.sslcommerz.com/gwprocess/v4/api.php"
)

// InitError carries the gateway's failedreason.
type InitError struct {
	Reason string
}

func (e *InitError) Error() string {
	if e.Reason == "" {
		return "gateway rejected session init"
	}
	return "gateway rejected session init: " + e.Reason
}

type Config struct {
	StoreID       string
	StorePassword string
	IsLive        bool

	// InitURL overrides the endpoint picked from IsLive.
	InitURL    string
	HTTPClient *http.Client
}

type Client struct {
	storeID       string
	storePassword string
	isLive        bool
	initURL       string
	http          *http.Client
}

func NewClient(cfg Config) *Client {
	initURL := cfg.InitURL
	if initURL == "" {
		initURL = SandboxInitURL
		if cfg.IsLive {
			initURL = LiveInitURL
		}
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		storeID:       cfg.StoreID,
		storePassword: cfg.StorePassword,
		isLive:        cfg.IsLive,
		initURL:       initURL,
		http:          httpClient,
	}
}

func (c *Client) IsLive() bool { return c.isLive }

type Customer struct {
	Name    string
	Email   string
	Address string
	City    string
	Country string
	Phone   string
}

// InitRequest is one hosted checkout session. ValueA..ValueC are echoed back
// untouched in the IPN.
type InitRequest struct {
	Amount          float64
	Currency        string
	TransactionID   string
	SuccessURL      string
	FailURL         string
	CancelURL       string
	IPNURL          string
	ProductName     string
	ProductCategory string
	ProductProfile  string
	Customer        Customer
	ValueA          string
	ValueB          string
	ValueC          string
}

type InitResponse struct {
	Status         string `json:"status"`
	FailedReason   string `json:"failedreason"`
	GatewayPageURL string `json:"GatewayPageURL"`
	SessionKey     string `json:"sessionkey"`
}

func (c *Client) form(req InitRequest) url.Values {
	form := url.Values{}
	form.Set("store_id", c.storeID)
	form.Set("store_passwd", c.storePassword)
	form.Set("total_amount", decimal.NewFromFloat(req.Amount).StringFixed(2))
	form.Set("currency", req.Currency)
	form.Set("tran_id", req.TransactionID)
	form.Set("success_url", req.SuccessURL)
	form.Set("fail_url", req.FailURL)
	form.Set("cancel_url", req.CancelURL)
	form.Set("ipn_url", req.IPNURL)
	form.Set("product_name", req.ProductName)
	form.Set("product_category", req.ProductCategory)
	form.Set("product_profile", req.ProductProfile)
	form.Set("cus_name", req.Customer.Name)
	form.Set("cus_email", req.Customer.Email)
	form.Set("cus_add1", req.Customer.Address)
	form.Set("cus_city", req.Customer.City)
	form.Set("cus_country", req.Customer.Country)
	form.Set("cus_phone", req.Customer.Phone)
	form.Set("shipping_method", "NO")
	form.Set("value_a", req.ValueA)
	form.Set("value_b", req.ValueB)
	form.Set("value_c", req.ValueC)
	return form
}

// InitSession opens a hosted checkout session. A response without status
// SUCCESS comes back as *InitError.
func (c *Client) InitSession(ctx context.Context, req InitRequest) (*InitResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.initURL, strings.NewReader(c.form(req).Encode()))
	if err != nil {
		return nil, fmt.Errorf("build init request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call gateway init: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read gateway init response: %w", err)
	}

	var out InitResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &InitError{Reason: fmt.Sprintf("unreadable gateway response (HTTP %d)", resp.StatusCode)}
	}

	if !strings.EqualFold(out.Status, "SUCCESS") || out.GatewayPageURL == "" {
		return &out, &InitError{Reason: out.FailedReason}
	}
	return &out, nil
}

// Signature returns MD5(storePassword + valID) as lower-case hex.
func (c *Client) Signature(valID string) string {
	sum := md5.Sum([]byte(c.storePassword + valID))
	return hex.EncodeToString(sum[:])
}

var ErrMissingSignature = errors.New("missing signature fields")

// VerifySignature checks verify_sign against the expected hash,
// ignoring case.
func (c *Client) VerifySignature(valID, verifySign string) error {
	if valID == "" || verifySign == "" {
		return ErrMissingSignature
	}
	expected := c.Signature(valID)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(verifySign))) != 1 {
		return errors.New("signature mismatch")
	}
	return nil
}
