package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/radarlink/radarlink/internal/config"
	"github.com/radarlink/radarlink/internal/logger"
	"github.com/radarlink/radarlink/models"
)

const defaultRequestTimeout = 15 * time.Second

type gameClient struct {
	client *resty.Client
	logger *logger.Logger
}

// NewGameClient constructs the HTTP/REST implementation of [GameClient].
// It normalises and validates cfg.BaseURL and configures the underlying
// resty client with the resolved base URL and request timeout, falling
// back to 15s when cfg.RequestTimeout is unset.
//
// Returns an error if cfg.BaseURL is empty or cannot be parsed as a valid
// URL.
func NewGameClient(cfg config.API, log *logger.Logger) (GameClient, error) {
	baseURL, err := normalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout)

	return &gameClient{client: client, logger: log}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login implements [GameClient]. It POSTs the credentials to
// POST /auth/login and extracts result.accessToken from the success
// envelope. Every failure shape maps to ErrLoginFailed so callers show a
// single "login failed" outcome.
func (g *gameClient) Login(ctx context.Context, username, password string) (string, error) {
	log := logger.FromContext(ctx)

	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(loginRequest{Username: username, Password: password}).
		Post("/auth/login")
	if err != nil {
		log.Err(err).Str("func", "gameClient.Login").Msg("login request failed")
		return "", fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	result, err := decodeEnvelope(resp)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	var login models.LoginResult
	if err = json.Unmarshal(result, &login); err != nil {
		return "", fmt.Errorf("%w: decode login result: %w", ErrLoginFailed, err)
	}
	if login.AccessToken == "" {
		return "", fmt.Errorf("%w: %w", ErrLoginFailed, ErrEmptyResult)
	}

	return login.AccessToken, nil
}

// Servers implements [GameClient]. It GETs /user/servers with the bearer
// token and decodes the server list from the success envelope.
func (g *gameClient) Servers(ctx context.Context, token string) ([]models.Server, error) {
	log := logger.FromContext(ctx)

	resp, err := g.authedRequest(ctx, token).Get("/user/servers")
	if err != nil {
		log.Err(err).Str("func", "gameClient.Servers").Msg("servers request failed")
		return nil, fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}

	result, err := decodeEnvelope(resp)
	if err != nil {
		return nil, err
	}

	var servers []models.Server
	if err = json.Unmarshal(result, &servers); err != nil {
		return nil, fmt.Errorf("decode servers result: %w", err)
	}

	return servers, nil
}

// Account implements [GameClient]. It GETs
// /user/account/getAccount?serverId=<id> with the bearer token and decodes
// the connection payload from the success envelope.
func (g *gameClient) Account(ctx context.Context, token string, serverID int64) (models.AccountPayload, error) {
	log := logger.FromContext(ctx)

	resp, err := g.authedRequest(ctx, token).
		SetQueryParam("serverId", strconv.FormatInt(serverID, 10)).
		Get("/user/account/getAccount")
	if err != nil {
		log.Err(err).Str("func", "gameClient.Account").Msg("account request failed")
		return models.AccountPayload{}, fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}

	result, err := decodeEnvelope(resp)
	if err != nil {
		return models.AccountPayload{}, err
	}

	var payload models.AccountPayload
	if err = json.Unmarshal(result, &payload); err != nil {
		return models.AccountPayload{}, fmt.Errorf("decode account result: %w", err)
	}

	return payload, nil
}

func (g *gameClient) authedRequest(ctx context.Context, token string) *resty.Request {
	req := g.client.R().SetContext(ctx)
	if token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	return req
}

// decodeEnvelope maps the remote response to either the raw result payload
// or a package sentinel. A non-2xx status, an undecodable body and an
// isSuccess=false envelope are all remote refusals.
func decodeEnvelope(resp *resty.Response) (json.RawMessage, error) {
	switch {
	case resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden:
		return nil, ErrUnauthorized
	case resp.StatusCode() >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: http %d", ErrRemoteUnavailable, resp.StatusCode())
	case resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices:
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode(), strings.TrimSpace(string(resp.Body())))
	}

	var envelope models.Envelope
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return nil, fmt.Errorf("decode response envelope: %w", err)
	}
	if !envelope.IsSuccess {
		return nil, ErrEmptyResult
	}

	return envelope.Result, nil
}
