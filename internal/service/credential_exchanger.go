package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"pushnotify/internal/model"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/jwt"
)

// CredentialExchanger trades a service account key for a bearer token.
type CredentialExchanger interface {
	AccessToken(ctx context.Context, cred model.ServiceAccountCredential) (*model.AccessToken, error)
}

type credentialExchanger struct {
	tokenURL string
	scope    string
	client   *http.Client
	logger   zerolog.Logger
}

// NewCredentialExchanger returns an exchanger that performs the JWT bearer
// grant against tokenURL for the given scope.
func NewCredentialExchanger(tokenURL, scope string, logger zerolog.Logger) CredentialExchanger {
	return &credentialExchanger{
		tokenURL: tokenURL,
		scope:    scope,
		client:   &http.Client{Timeout: 15 * time.Second},
		logger:   logger.With().Str("component", "CredentialExchanger").Logger(),
	}
}

// AccessToken signs a fresh assertion and exchanges it on every call.
func (e *credentialExchanger) AccessToken(ctx context.Context, cred model.ServiceAccountCredential) (*model.AccessToken, error) {
	if cred.ClientEmail == "" || cred.PrivateKey == "" {
		return nil, &AuthError{Err: errors.New("service account client_email and private_key are required")}
	}

	conf := &jwt.Config{
		Email:      cred.ClientEmail,
		PrivateKey: []byte(cred.PrivateKey),
		Scopes:     []string{e.scope},
		TokenURL:   e.tokenURL,
	}

	client := &http.Client{
		Timeout:   e.client.Timeout,
		Transport: contextTransport{ctx: ctx, base: e.client.Transport},
	}
	tok, err := conf.TokenSource(context.WithValue(ctx, oauth2.HTTPClient, client)).Token()
	if err != nil {
		e.logger.Error().Err(err).Str("client_email", cred.ClientEmail).Msg("Token exchange failed")
		// oauth2 formats transport errors with %v, dropping the context error.
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %v", ctxErr, err)
		}
		return nil, &AuthError{Err: err}
	}
	if tok.AccessToken == "" {
		return nil, &AuthError{Err: errors.New("token endpoint returned no access_token")}
	}

	e.logger.Debug().Time("expiry", tok.Expiry).Msg("Obtained FCM access token")
	return &model.AccessToken{Value: tok.AccessToken, Expiry: tok.Expiry}, nil
}

// contextTransport attaches ctx to every request. The JWT token source posts
// without a context, so cancellation would otherwise stop at the client
// timeout.
type contextTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req.WithContext(t.ctx))
}
