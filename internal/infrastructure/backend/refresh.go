package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"storefront-client/internal/domain"
	"storefront-client/pkg/logger"

	"golang.org/x/sync/singleflight"
)

type outcomeKind int

const (
	outcomeOK outcomeKind = iota
	outcomeRetry
	outcomeFail
)

// Outcome is what an interceptor decides about one response.
type Outcome struct {
	kind outcomeKind
	resp *Response
	req  *PendingRequest
	err  error
}

// OK passes the response through.
func OK(resp *Response) Outcome { return Outcome{kind: outcomeOK, resp: resp} }

// Retry asks the driver to send req again.
func Retry(req *PendingRequest) Outcome { return Outcome{kind: outcomeRetry, req: req} }

// Fail ends the call with err.
func Fail(err error) Outcome { return Outcome{kind: outcomeFail, err: err} }

// Interceptor inspects a completed exchange.
type Interceptor interface {
	Intercept(ctx context.Context, req *PendingRequest, resp *Response) Outcome
}

// RefreshState is the interceptor's shared state.
type RefreshState string

const (
	RefreshIdle       RefreshState = "Idle"
	RefreshRefreshing RefreshState = "Refreshing"
)

const (
	refreshPath    = "/auth/refresh"
	refreshKey     = "refresh"
	refreshTimeout = 10 * time.Second
)

var errNoRefreshToken = errors.New("no refresh token")

// authRefresher recovers from an expired access token. Concurrent 401s share
// a single refresh exchange and every waiter replays with its outcome.
type authRefresher struct {
	client    *Client
	tokens    Tokens
	navigator domain.Navigator
	group     singleflight.Group
	inFlight  atomic.Int32
	exchanges atomic.Int64
}

func newAuthRefresher(c *Client, tokens Tokens, nav domain.Navigator) *authRefresher {
	return &authRefresher{client: c, tokens: tokens, navigator: nav}
}

func (a *authRefresher) State() RefreshState {
	if a.inFlight.Load() > 0 {
		return RefreshRefreshing
	}
	return RefreshIdle
}

// Exchanges counts refresh calls actually sent to the backend.
func (a *authRefresher) Exchanges() int64 {
	return a.exchanges.Load()
}

func (a *authRefresher) Intercept(ctx context.Context, req *PendingRequest, resp *Response) Outcome {
	if req.external || req.anonymous || !expiredToken(resp) {
		return OK(resp)
	}
	if req.Retried {
		return Fail(&domain.AuthExpiredError{URL: req.URL})
	}

	shared, err := a.renew(ctx, req.sentToken)
	if err != nil {
		return Fail(&domain.AuthFailedError{Err: err})
	}

	logger.WithContext(ctx).Debug().
		Str("url", req.URL).
		Bool("shared", shared).
		Msg("Replaying request with refreshed token")

	req.Retried = true
	return Retry(req)
}

// Ensure renews a lapsed access token before a request goes out, so a
// session whose access cookie expired is refreshed rather than sent
// anonymously. It is a no-op while an access token is held or when there is
// nothing to refresh with.
func (a *authRefresher) Ensure(ctx context.Context) error {
	if a.tokens.Access() != "" || a.tokens.Refresh() == "" {
		return nil
	}
	if _, err := a.renew(ctx, ""); err != nil {
		return &domain.AuthFailedError{Err: err}
	}
	return nil
}

// renew joins or starts the shared refresh. sent is the access token the
// caller last used; a newer one already in the store ends the wait.
func (a *authRefresher) renew(ctx context.Context, sent string) (bool, error) {
	a.inFlight.Add(1)
	defer a.inFlight.Add(-1)

	_, err, shared := a.group.Do(refreshKey, func() (interface{}, error) {
		// A refresh that finished after this request was sent already holds the fix.
		if current := a.tokens.Access(); current != "" && current != sent {
			return current, nil
		}
		token, err := a.exchange(ctx)
		if err != nil {
			a.fail(ctx, err)
		}
		return token, err
	})
	return shared, err
}

func (a *authRefresher) fail(ctx context.Context, err error) {
	logger.WithContext(ctx).Warn().Err(err).Msg("Session refresh failed, signing out")
	a.tokens.Revoke()
	a.navigator.Navigate(domain.RouteSignIn)
}

// exchange calls POST /auth/refresh with the stored refresh token and renews
// the access token. It is detached from the caller's cancellation so one
// abandoned request cannot fail the refresh for every waiter.
func (a *authRefresher) exchange(ctx context.Context) (string, error) {
	refresh := a.tokens.Refresh()
	if refresh == "" {
		return "", errNoRefreshToken
	}
	a.exchanges.Add(1)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
	defer cancel()

	req, err := a.client.prepare(&Request{
		Method:    http.MethodPost,
		Path:      refreshPath,
		Body:      map[string]string{"refreshToken": refresh},
		Anonymous: true,
	})
	if err != nil {
		return "", err
	}

	resp, err := a.client.roundTrip(ctx, req)
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", &domain.APIError{Status: resp.StatusCode, Message: resp.Message()}
	}

	var body struct {
		AccessToken string `json:"accessToken"`
	}
	if err := resp.Decode(&body); err != nil {
		return "", err
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("refresh response carried no access token")
	}

	a.tokens.Renew(body.AccessToken)
	return body.AccessToken, nil
}

func expiredToken(resp *Response) bool {
	return resp.StatusCode == http.StatusUnauthorized && resp.Message() == domain.ExpiredTokenMessage
}
