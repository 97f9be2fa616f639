package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/plaid/plaid-go/plaid"
	"github.com/shopspring/decimal"

	"financially/internal/metrics"
)

const (
	linkClientName     = "Financially"
	linkLanguage       = "en"
	maxTransactionPage = 500
)

// PlaidConfig configures the Plaid client.
type PlaidConfig struct {
	ClientID    string
	Secret      string
	Environment string // sandbox, development or production
	BaseURL     string // overrides Environment when set
	Timeout     time.Duration
}

// PlaidProvider implements Provider on the Plaid API.
type PlaidProvider struct {
	client *plaid.APIClient
}

// NewPlaidProvider creates a Plaid-backed Provider.
func NewPlaidProvider(cfg PlaidConfig) *PlaidProvider {
	pc := plaid.NewConfiguration()
	pc.AddDefaultHeader("PLAID-CLIENT-ID", cfg.ClientID)
	pc.AddDefaultHeader("PLAID-SECRET", cfg.Secret)
	pc.UseEnvironment(environment(cfg))
	pc.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &PlaidProvider{client: plaid.NewAPIClient(pc)}
}

func environment(cfg PlaidConfig) plaid.Environment {
	if cfg.BaseURL != "" {
		return plaid.Environment(cfg.BaseURL)
	}
	switch cfg.Environment {
	case "production":
		return plaid.Production
	case "development":
		return plaid.Development
	default:
		return plaid.Sandbox
	}
}

// CreateLinkToken starts a link session for one user.
func (p *PlaidProvider) CreateLinkToken(ctx context.Context, userID string) (string, error) {
	defer observe(OpLinkTokenCreate, time.Now())

	req := plaid.NewLinkTokenCreateRequest(
		linkClientName,
		linkLanguage,
		[]plaid.CountryCode{plaid.COUNTRYCODE_US},
		plaid.LinkTokenCreateRequestUser{ClientUserId: userID},
	)
	req.SetProducts([]plaid.Products{plaid.PRODUCTS_AUTH, plaid.PRODUCTS_TRANSACTIONS})

	resp, _, err := p.client.PlaidApi.LinkTokenCreate(ctx).LinkTokenCreateRequest(*req).Execute()
	if err != nil {
		return "", fail(OpLinkTokenCreate, err)
	}
	succeed(OpLinkTokenCreate)
	return resp.GetLinkToken(), nil
}

// ExchangePublicToken trades a short-lived public token for a durable access token.
func (p *PlaidProvider) ExchangePublicToken(ctx context.Context, publicToken string) (string, error) {
	defer observe(OpTokenExchange, time.Now())

	req := plaid.NewItemPublicTokenExchangeRequest(publicToken)
	resp, _, err := p.client.PlaidApi.ItemPublicTokenExchange(ctx).ItemPublicTokenExchangeRequest(*req).Execute()
	if err != nil {
		return "", fail(OpTokenExchange, err)
	}
	succeed(OpTokenExchange)
	return resp.GetAccessToken(), nil
}

// GetAccounts lists every account reachable with the access token.
func (p *PlaidProvider) GetAccounts(ctx context.Context, accessToken string) ([]Account, error) {
	defer observe(OpAccountsGet, time.Now())

	req := plaid.NewAccountsGetRequest(accessToken)
	resp, _, err := p.client.PlaidApi.AccountsGet(ctx).AccountsGetRequest(*req).Execute()
	if err != nil {
		return nil, fail(OpAccountsGet, err)
	}

	accounts := make([]Account, 0, len(resp.GetAccounts()))
	for _, a := range resp.GetAccounts() {
		balances := a.GetBalances()
		accounts = append(accounts, Account{
			ID:           a.GetAccountId(),
			Name:         a.GetName(),
			OfficialName: a.GetOfficialName(),
			Type:         string(a.GetType()),
			Balance:      decimal.NewFromFloat32(balances.GetCurrent()),
		})
	}
	succeed(OpAccountsGet)
	return accounts, nil
}

// GetTransactions fetches one page (up to 500) of transactions in [start, end],
// optionally restricted to the given provider account ids.
func (p *PlaidProvider) GetTransactions(ctx context.Context, accessToken string, start, end time.Time, accountIDs []string) ([]Transaction, error) {
	defer observe(OpTransactionsGet, time.Now())

	req := plaid.NewTransactionsGetRequest(accessToken, start.Format(DateLayout), end.Format(DateLayout))
	opts := plaid.NewTransactionsGetRequestOptions()
	opts.SetCount(maxTransactionPage)
	if len(accountIDs) > 0 {
		opts.SetAccountIds(accountIDs)
	}
	req.SetOptions(*opts)

	resp, _, err := p.client.PlaidApi.TransactionsGet(ctx).TransactionsGetRequest(*req).Execute()
	if err != nil {
		return nil, fail(OpTransactionsGet, err)
	}

	txns := make([]Transaction, 0, len(resp.GetTransactions()))
	for _, t := range resp.GetTransactions() {
		date, err := time.Parse(DateLayout, t.GetDate())
		if err != nil {
			return nil, fail(OpTransactionsGet, fmt.Errorf("transaction %s: bad date %q: %w", t.GetTransactionId(), t.GetDate(), err))
		}
		txns = append(txns, Transaction{
			ID:         t.GetTransactionId(),
			AccountID:  t.GetAccountId(),
			Name:       t.GetName(),
			Amount:     decimal.NewFromFloat32(t.GetAmount()),
			Date:       date,
			Pending:    t.GetPending(),
			Categories: t.GetCategory(),
		})
	}
	succeed(OpTransactionsGet)
	return txns, nil
}

// plaidErrorBody mirrors the JSON error object returned by Plaid.
type plaidErrorBody struct {
	ErrorType    string `json:"error_type"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
	RequestID    string `json:"request_id"`
}

// fail converts a client error into *Error, decoding Plaid's error body when present.
func fail(op string, err error) *Error {
	metrics.ProviderCalls.WithLabelValues(op, "error").Inc()

	perr := &Error{Op: op, Err: err}
	var body plaidErrorBody
	if raw := errorBody(err); len(raw) > 0 && json.Unmarshal(raw, &body) == nil {
		perr.Type = body.ErrorType
		perr.Code = body.ErrorCode
		perr.Message = body.ErrorMessage
		perr.RequestID = body.RequestID
	}
	return perr
}

// errorBody returns the raw response body of a non-2xx Plaid call.
// The generated client returns GenericOpenAPIError by value or by pointer
// depending on the endpoint.
func errorBody(err error) []byte {
	var ptr *plaid.GenericOpenAPIError
	if errors.As(err, &ptr) && ptr != nil {
		return ptr.Body()
	}
	var val plaid.GenericOpenAPIError
	if errors.As(err, &val) {
		return val.Body()
	}
	return nil
}

func succeed(op string) {
	metrics.ProviderCalls.WithLabelValues(op, "ok").Inc()
}

func observe(op string, start time.Time) {
	metrics.ProviderDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
