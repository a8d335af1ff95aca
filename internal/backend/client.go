package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/angelmondragon/influence-market/internal/accounts"
	"github.com/angelmondragon/influence-market/pkg/auth"
	"github.com/angelmondragon/influence-market/pkg/config"
	"github.com/angelmondragon/influence-market/pkg/logger"
	"github.com/angelmondragon/influence-market/pkg/metrics"
)

const (
	canisterHeader  = "X-Canister-Id"
	maxResponseSize = 4 << 20
)

// Client is the remote procedure surface of the marketplace backend. Every method is
// backend-authoritative; a returned *Error is the backend's verdict.
type Client interface {
	Principal() string

	IsUserRegistered(ctx context.Context, principal string) (bool, error)
	GetMyAccount(ctx context.Context) (*accounts.Account, error)
	RegisterUser(ctx context.Context, req RegisterUserRequest) (*accounts.Account, error)
	UpdateProfile(ctx context.Context, profile accounts.Profile) (*accounts.Account, error)

	ListCampaigns(ctx context.Context, filter CampaignFilter) ([]Campaign, error)
	GetCampaign(ctx context.Context, campaignID string) (*Campaign, error)
	CreateCampaign(ctx context.Context, req CreateCampaignRequest) (*Campaign, error)
	ApplyToCampaign(ctx context.Context, campaignID string, req ApplyRequest) (*Application, error)
	ListApplicants(ctx context.Context, campaignID string) ([]Application, error)
	ApproveApplication(ctx context.Context, campaignID, applicationID string) (*Application, error)

	Stake(ctx context.Context, amount decimal.Decimal) (*StakeInfo, error)
	GetStake(ctx context.Context) (*StakeInfo, error)
	ListProposals(ctx context.Context, filter ProposalFilter) ([]Proposal, error)
	CreateProposal(ctx context.Context, req CreateProposalRequest) (*Proposal, error)
	Vote(ctx context.Context, req VoteRequest) (*Proposal, error)

	GetEscrowBalance(ctx context.Context) (*EscrowBalance, error)
	DepositEscrow(ctx context.Context, req EscrowRequest) (*EscrowBalance, error)
	WithdrawEscrow(ctx context.Context, req EscrowRequest) (*EscrowBalance, error)
}

// HTTPClient talks to the canister gateway over JSON. Calls are signed with a delegation
// minted for the bound principal; an anonymous client sends none.
type HTTPClient struct {
	cfg       config.BackendConfig
	principal string
	http      *http.Client
	metrics   *metrics.RPCMetrics
	logg      *logger.Logger
	now       func() time.Time
}

// Options carries the process-wide pieces shared by every per-session client.
type Options struct {
	HTTP    *http.Client
	Metrics *metrics.RPCMetrics
	Logger  *logger.Logger
}

// NewTransport returns the pooled HTTP client shared by all sessions.
func NewTransport(cfg config.BackendConfig) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			MaxIdleConnsPerHost:   32,
			IdleConnTimeout:       90 * time.Second,
			ForceAttemptHTTP2:     true,
			ResponseHeaderTimeout: cfg.Timeout,
		},
		Timeout: cfg.Timeout,
	}
}

// NewHTTPClient binds a client to principal. An empty principal yields an anonymous client.
func NewHTTPClient(cfg config.BackendConfig, principal string, opts Options) (*HTTPClient, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("backend base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("parsing backend base url: %w", err)
	}
	if principal != "" && cfg.DelegationSecret == "" {
		return nil, errors.New("delegation secret is required for authenticated clients")
	}
	httpClient := opts.HTTP
	if httpClient == nil {
		httpClient = NewTransport(cfg)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &HTTPClient{
		cfg:       cfg,
		principal: principal,
		http:      httpClient,
		metrics:   opts.Metrics,
		logg:      opts.Logger,
		now:       time.Now,
	}, nil
}

// NewFactory returns the ClientFactory used by the Accessor.
func NewFactory(cfg config.BackendConfig, opts Options) ClientFactory {
	if opts.HTTP == nil {
		opts.HTTP = NewTransport(cfg)
	}
	return func(principal string) (Client, error) {
		client, err := NewHTTPClient(cfg, principal, opts)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

func (c *HTTPClient) Principal() string {
	return c.principal
}

func (c *HTTPClient) IsUserRegistered(ctx context.Context, principal string) (bool, error) {
	var registered bool
	params := struct {
		Principal string `url:"principal"`
	}{Principal: principal}
	err := c.query(ctx, "is_user_registered", params, &registered)
	return registered, err
}

func (c *HTTPClient) GetMyAccount(ctx context.Context) (*accounts.Account, error) {
	var account accounts.Account
	if err := c.query(ctx, "get_my_account", nil, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (c *HTTPClient) RegisterUser(ctx context.Context, req RegisterUserRequest) (*accounts.Account, error) {
	var account accounts.Account
	if err := c.update(ctx, "register_user", req, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, profile accounts.Profile) (*accounts.Account, error) {
	var account accounts.Account
	if err := c.update(ctx, "update_profile", profile, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (c *HTTPClient) ListCampaigns(ctx context.Context, filter CampaignFilter) ([]Campaign, error) {
	campaigns := []Campaign{}
	if err := c.query(ctx, "list_campaigns", filter, &campaigns); err != nil {
		return nil, err
	}
	return campaigns, nil
}

func (c *HTTPClient) GetCampaign(ctx context.Context, campaignID string) (*Campaign, error) {
	var campaign Campaign
	params := struct {
		CampaignID string `url:"campaign_id"`
	}{CampaignID: campaignID}
	if err := c.query(ctx, "get_campaign", params, &campaign); err != nil {
		return nil, err
	}
	return &campaign, nil
}

func (c *HTTPClient) CreateCampaign(ctx context.Context, req CreateCampaignRequest) (*Campaign, error) {
	var campaign Campaign
	if err := c.update(ctx, "create_campaign", req, &campaign); err != nil {
		return nil, err
	}
	return &campaign, nil
}

func (c *HTTPClient) ApplyToCampaign(ctx context.Context, campaignID string, req ApplyRequest) (*Application, error) {
	var application Application
	body := struct {
		CampaignID string `json:"campaign_id"`
		ApplyRequest
	}{CampaignID: campaignID, ApplyRequest: req}
	if err := c.update(ctx, "apply_to_campaign", body, &application); err != nil {
		return nil, err
	}
	return &application, nil
}

func (c *HTTPClient) ListApplicants(ctx context.Context, campaignID string) ([]Application, error) {
	applications := []Application{}
	params := struct {
		CampaignID string `url:"campaign_id"`
	}{CampaignID: campaignID}
	if err := c.query(ctx, "list_applicants", params, &applications); err != nil {
		return nil, err
	}
	return applications, nil
}

func (c *HTTPClient) ApproveApplication(ctx context.Context, campaignID, applicationID string) (*Application, error) {
	var application Application
	body := map[string]string{"campaign_id": campaignID, "application_id": applicationID}
	if err := c.update(ctx, "approve_application", body, &application); err != nil {
		return nil, err
	}
	return &application, nil
}

func (c *HTTPClient) Stake(ctx context.Context, amount decimal.Decimal) (*StakeInfo, error) {
	var info StakeInfo
	if err := c.update(ctx, "stake", StakeRequest{Amount: amount}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *HTTPClient) GetStake(ctx context.Context) (*StakeInfo, error) {
	var info StakeInfo
	if err := c.query(ctx, "get_stake", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *HTTPClient) ListProposals(ctx context.Context, filter ProposalFilter) ([]Proposal, error) {
	proposals := []Proposal{}
	if err := c.query(ctx, "list_proposals", filter, &proposals); err != nil {
		return nil, err
	}
	return proposals, nil
}

func (c *HTTPClient) CreateProposal(ctx context.Context, req CreateProposalRequest) (*Proposal, error) {
	var proposal Proposal
	if err := c.update(ctx, "create_proposal", req, &proposal); err != nil {
		return nil, err
	}
	return &proposal, nil
}

func (c *HTTPClient) Vote(ctx context.Context, req VoteRequest) (*Proposal, error) {
	var proposal Proposal
	if err := c.update(ctx, "vote", req, &proposal); err != nil {
		return nil, err
	}
	return &proposal, nil
}

func (c *HTTPClient) GetEscrowBalance(ctx context.Context) (*EscrowBalance, error) {
	var balance EscrowBalance
	if err := c.query(ctx, "get_escrow_balance", nil, &balance); err != nil {
		return nil, err
	}
	return &balance, nil
}

func (c *HTTPClient) DepositEscrow(ctx context.Context, req EscrowRequest) (*EscrowBalance, error) {
	var balance EscrowBalance
	if err := c.update(ctx, "deposit_escrow", req, &balance); err != nil {
		return nil, err
	}
	return &balance, nil
}

func (c *HTTPClient) WithdrawEscrow(ctx context.Context, req EscrowRequest) (*EscrowBalance, error) {
	var balance EscrowBalance
	if err := c.update(ctx, "withdraw_escrow", req, &balance); err != nil {
		return nil, err
	}
	return &balance, nil
}

// query issues a read-only call: GET {base}/rpc/{method}?{params}.
func (c *HTTPClient) query(ctx context.Context, method string, params any, out any) error {
	target := c.endpoint(method)
	if params != nil {
		values, err := query.Values(params)
		if err != nil {
			return fmt.Errorf("%s: encoding query: %w", method, err)
		}
		if encoded := values.Encode(); encoded != "" {
			target += "?" + encoded
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", method, err)
	}
	return c.do(req, method, out)
}

// update issues a state-changing call: POST {base}/rpc/{method} with a JSON body.
func (c *HTTPClient) update(ctx context.Context, method string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: encoding body: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(method), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s: building request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, method, out)
}

func (c *HTTPClient) do(req *http.Request, method string, out any) error {
	start := c.now()
	outcome := "ok"
	defer func() {
		c.metrics.Observe(method, outcome, c.now().Sub(start))
	}()

	if err := c.sign(req); err != nil {
		outcome = "signing"
		return fmt.Errorf("%s: %w", method, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(canisterHeader, c.cfg.CanisterID)

	resp, err := c.http.Do(req)
	if err != nil {
		outcome = "transport"
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		outcome = "transport"
		return fmt.Errorf("%s: reading response: %w", method, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		outcome = "transport"
		return fmt.Errorf("%s: unexpected status %d", method, resp.StatusCode)
	}
	if !gjson.ValidBytes(body) {
		outcome = "decode"
		return fmt.Errorf("%s: malformed response", method)
	}

	result := gjson.ParseBytes(body)
	if errResult := result.Get("Err"); errResult.Exists() {
		backendErr := decodeVariant(method, errResult)
		outcome = string(backendErr.Kind)
		c.logRejection(req.Context(), backendErr)
		return backendErr
	}
	okResult := result.Get("Ok")
	if !okResult.Exists() {
		outcome = "decode"
		return fmt.Errorf("%s: response carries neither Ok nor Err", method)
	}
	if out == nil || okResult.Type == gjson.Null {
		return nil
	}
	if err := json.Unmarshal([]byte(okResult.Raw), out); err != nil {
		outcome = "decode"
		return fmt.Errorf("%s: decoding result: %w", method, err)
	}
	return nil
}

func (c *HTTPClient) sign(req *http.Request) error {
	if c.principal == "" {
		return nil
	}
	token, err := auth.MintDelegation(c.cfg, c.now(), c.principal)
	if err != nil {
		return fmt.Errorf("minting delegation: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

func (c *HTTPClient) endpoint(method string) string {
	return c.cfg.BaseURL + "/rpc/" + url.PathEscape(method)
}

func (c *HTTPClient) logRejection(ctx context.Context, err *Error) {
	if c.logg == nil {
		return
	}
	ctx = c.logg.WithFields(ctx, map[string]any{
		"rpc_method":      err.Method,
		"backend_variant": string(err.Kind),
	})
	c.logg.Debug(ctx, "backend.rejected")
}
