package providers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
)

const (
	DiscordAuthorizeURL = "https://discord.com/oauth2/authorize"
	DiscordTokenURL     = "https://discord.com/api/oauth2/token"
)

var discordScopes = []string{"identify", "email"}

// OAuthToken is the part of the token response the session flow uses.
type OAuthToken struct {
	AccessToken  string
	TokenType    string
	RefreshToken string
	Expiry       time.Time
	Scope        string
}

// DiscordOAuthProvider runs the authorization code flow.
type DiscordOAuthProvider struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthorizeURL string
	TokenURL     string
	Client       *http.Client
}

func NewDiscordOAuthProvider(clientID, clientSecret, redirectURI string) *DiscordOAuthProvider {
	return &DiscordOAuthProvider{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURI:  redirectURI,
		AuthorizeURL: DiscordAuthorizeURL,
		TokenURL:     DiscordTokenURL,
		Client:       &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *DiscordOAuthProvider) config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		RedirectURL:  p.RedirectURI,
		Scopes:       discordScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   p.AuthorizeURL,
			TokenURL:  p.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// LoginURL builds the authorize redirect for state.
func (p *DiscordOAuthProvider) LoginURL(state string) string {
	return p.config().AuthCodeURL(state)
}

// Exchange trades an authorization code for an access token.
func (p *DiscordOAuthProvider) Exchange(ctx context.Context, code string) (*OAuthToken, error) {
	if p.ClientID == "" || p.ClientSecret == "" {
		return nil, &ProviderError{Code: ErrCodeNotConfigured, Message: "Discord OAuth is not configured"}
	}
	if p.Client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.Client)
	}

	tok, err := p.config().Exchange(ctx, code)
	if err != nil {
		return nil, tokenError(err)
	}

	scope, _ := tok.Extra("scope").(string)
	return &OAuthToken{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.Type(),
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
		Scope:        scope,
	}, nil
}

// tokenError maps an oauth2 failure onto provider error codes.
func tokenError(err error) *ProviderError {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		status := 0
		if rerr.Response != nil {
			status = rerr.Response.StatusCode
		}
		if status == http.StatusBadRequest || status == http.StatusUnauthorized {
			return &ProviderError{Code: ErrCodeUnauthorized, Message: "Discord rejected the authorization code", Details: string(rerr.Body), Err: err}
		}
		return &ProviderError{Code: ErrCodeUpstream, Message: "Unexpected token endpoint response", Details: string(rerr.Body), Err: err}
	}

	var uerr *url.Error
	if errors.As(err, &uerr) {
		return &ProviderError{Code: ErrCodeNetwork, Message: "Token request failed", Err: err}
	}
	return &ProviderError{Code: ErrCodeBadResponse, Message: "Failed to decode token response", Err: err}
}

var _ OAuthExchanger = (*DiscordOAuthProvider)(nil)
