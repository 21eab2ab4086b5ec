// Package directory talks to the back-office directory service, which owns
// supplier commission agreements and the company-wide invoice settings.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/travelagency/backoffice/internal/domain/invoicing"
	"github.com/travelagency/backoffice/internal/domain/pricing"
	"github.com/travelagency/backoffice/internal/domain/shared"
	"github.com/travelagency/backoffice/internal/infrastructure/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const (
	apiKeyHeader   = "X-API-Key"
	defaultTimeout = 5 * time.Second
	maxBodyBytes   = 1 << 20
)

// Client is an HTTP client for the directory service
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new Client
func NewClient(cfg config.DirectoryConfig) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("directory: invalid base url %q", cfg.BaseURL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type envelope[T any] struct {
	Success bool      `json:"success"`
	Data    T         `json:"data"`
	Error   *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type commissionPayload struct {
	Name     string          `json:"name"`
	Rate     decimal.Decimal `json:"rate"`
	IsActive *bool           `json:"is_active"`
}

type companySettingsPayload struct {
	TaxRate         decimal.Decimal `json:"tax_rate"`
	InvoiceLanguage string          `json:"invoice_language"`
}

// ListCommissions implements invoicing.CommissionDirectory.
// An unknown supplier has no agreements and yields an empty list.
func (c *Client) ListCommissions(ctx context.Context, supplierID string) ([]pricing.CommissionOption, error) {
	path := "/suppliers/" + url.PathEscape(supplierID) + "/commissions"

	var payload []commissionPayload
	found, err := c.get(ctx, path, &payload)
	if err != nil {
		return nil, err
	}
	if !found {
		return []pricing.CommissionOption{}, nil
	}

	options := make([]pricing.CommissionOption, 0, len(payload))
	for _, p := range payload {
		options = append(options, pricing.CommissionOption{
			Name: p.Name,
			Rate: p.Rate,
			// entries without the flag are active
			IsActive: p.IsActive == nil || *p.IsActive,
		})
	}
	return options, nil
}

// Defaults implements invoicing.CompanyDirectory
func (c *Client) Defaults(ctx context.Context) (invoicing.CompanyDefaults, error) {
	var payload companySettingsPayload
	found, err := c.get(ctx, "/company/invoice-settings", &payload)
	if err != nil {
		return invoicing.CompanyDefaults{}, err
	}
	if !found {
		return invoicing.CompanyDefaults{}, collaboratorError("company invoice settings not found")
	}
	return invoicing.CompanyDefaults{
		TaxRate:         payload.TaxRate,
		InvoiceLanguage: payload.InvoiceLanguage,
	}, nil
}

// get decodes the data member of the response envelope into out.
// found is false on 404.
func (c *Client) get(ctx context.Context, path string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return false, fmt.Errorf("directory: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		return false, collaboratorError(fmt.Sprintf("GET %s: %v", path, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return false, collaboratorError(fmt.Sprintf("GET %s: read body: %v", path, err))
	}

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}

	env := envelope[json.RawMessage]{}
	decodeErr := json.Unmarshal(body, &env)

	if resp.StatusCode >= 400 {
		if decodeErr == nil && env.Error != nil && env.Error.Code != "" {
			return false, collaboratorError(fmt.Sprintf("GET %s: %s - %s", path, env.Error.Code, env.Error.Message))
		}
		return false, collaboratorError(fmt.Sprintf("GET %s: HTTP %d", path, resp.StatusCode))
	}
	if decodeErr != nil {
		return false, collaboratorError(fmt.Sprintf("GET %s: invalid response: %v", path, decodeErr))
	}
	if !env.Success && env.Error != nil {
		return false, collaboratorError(fmt.Sprintf("GET %s: %s - %s", path, env.Error.Code, env.Error.Message))
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return true, nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return false, collaboratorError(fmt.Sprintf("GET %s: invalid data: %v", path, err))
	}
	return true, nil
}

func collaboratorError(detail string) error {
	return shared.NewDomainError(shared.ErrCollaboratorFailure.Code, "directory: "+detail)
}

var (
	_ invoicing.CommissionDirectory = (*Client)(nil)
	_ invoicing.CompanyDirectory    = (*Client)(nil)
)
