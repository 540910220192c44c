package graph

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/anonto42/page-comments/backend/internal/apperrors"
	"github.com/anonto42/page-comments/backend/internal/models"
	"golang.org/x/oauth2"
)

// DefaultScopes are requested by the login dialog
var DefaultScopes = []string{"pages_show_list", "pages_read_engagement", "pages_manage_engagement"}

// OAuthOptions configures the OAuth helper
type OAuthOptions struct {
	AppID     string
	AppSecret string
	// DialogURL is the login dialog; TokenURL defaults to the Graph host
	DialogURL string
	Scopes    []string
	Graph     Options
}

// OAuth exchanges login codes for user tokens and lists the pages they manage
type OAuth struct {
	cfg   oauth2.Config
	graph *HTTPClient
	http  *http.Client
}

func NewOAuth(opts OAuthOptions) *OAuth {
	graph := NewHTTPClient(opts.Graph)
	if opts.DialogURL == "" {
		opts.DialogURL = "https://www.facebook.com/" + strings.Trim(defaultVersion(opts.Graph.APIVersion), "/") + "/dialog/oauth"
	}
	if len(opts.Scopes) == 0 {
		opts.Scopes = DefaultScopes
	}
	return &OAuth{
		cfg: oauth2.Config{
			ClientID:     opts.AppID,
			ClientSecret: opts.AppSecret,
			Scopes:       opts.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   opts.DialogURL,
				TokenURL:  graph.endpoint("oauth/access_token"),
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		graph: graph,
		http:  graph.http,
	}
}

func defaultVersion(v string) string {
	if v == "" {
		return "v18.0"
	}
	return v
}

// Configured reports whether an app id and secret are present
func (o *OAuth) Configured() bool {
	return o.cfg.ClientID != "" && o.cfg.ClientSecret != ""
}

// AuthCodeURL returns the login dialog URL for redirectURI
func (o *OAuth) AuthCodeURL(state, redirectURI string) string {
	cfg := o.cfg
	cfg.RedirectURL = redirectURI
	return cfg.AuthCodeURL(state)
}

// Exchange trades a login code for a user token and the pages it manages
func (o *OAuth) Exchange(ctx context.Context, code, redirectURI string) (*models.TokenExchange, error) {
	if strings.TrimSpace(code) == "" {
		return nil, apperrors.Validation("Authorization code is required")
	}
	if !o.Configured() {
		return nil, apperrors.Validation("facebook app credentials are not configured")
	}

	cfg := o.cfg
	cfg.RedirectURL = redirectURI
	tok, err := cfg.Exchange(context.WithValue(ctx, oauth2.HTTPClient, o.http), code)
	if err != nil {
		return nil, exchangeError(err)
	}

	out := &models.TokenExchange{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
	}
	if v, ok := tok.Extra("expires_in").(float64); ok {
		out.ExpiresIn = int(v)
	}

	pages, err := o.Pages(ctx, tok.AccessToken)
	if err != nil {
		return nil, err
	}
	out.Pages = pages
	return out, nil
}

func exchangeError(err error) error {
	ext := &apperrors.ExternalAPIError{Operation: "exchange code", Message: err.Error(), Err: err}
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		ext.StatusCode = re.Response.StatusCode
		parsed := parseError(ext.Operation, &response{status: re.Response.StatusCode, body: re.Body})
		if parsed.Code != 0 {
			ext.Code = parsed.Code
			ext.Subcode = parsed.Subcode
			ext.Type = parsed.Type
			ext.Message = parsed.Message
		}
	}
	return ext
}

// Pages lists the pages the user token manages
func (o *OAuth) Pages(ctx context.Context, userToken string) ([]models.ManagedPage, error) {
	if strings.TrimSpace(userToken) == "" {
		return nil, apperrors.Validation("Access token is required")
	}
	var out struct {
		Data []models.ManagedPage `json:"data"`
	}
	if err := o.graph.getWithToken(ctx, "fetch pages", userToken, "me/accounts", nil, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		out.Data = []models.ManagedPage{}
	}
	return out.Data, nil
}

// PageToken returns the page access token for pageID
func (o *OAuth) PageToken(ctx context.Context, pageID, userToken string) (*models.ManagedPage, error) {
	if strings.TrimSpace(userToken) == "" {
		return nil, apperrors.Validation("Access token is required")
	}
	var page models.ManagedPage
	params := url.Values{"fields": {"id,access_token"}}
	if err := o.graph.getWithToken(ctx, "fetch page token", userToken, url.PathEscape(pageID), params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}
