package usecase

import (
	"context"
	"fmt"
	"strings"

	"storefront-client/internal/domain"
	"storefront-client/pkg/logger"
)

// SessionKeeper owns the token pair.
type SessionKeeper interface {
	SessionReader
	Establish(access, refresh string)
	Revoke()
}

type AuthUsecase struct {
	gateway  domain.AuthGateway
	keeper   SessionKeeper
	checkout *CheckoutUsecase
}

func NewAuthUsecase(gateway domain.AuthGateway, keeper SessionKeeper, checkout *CheckoutUsecase) *AuthUsecase {
	return &AuthUsecase{gateway: gateway, keeper: keeper, checkout: checkout}
}

func (u *AuthUsecase) Login(ctx context.Context, creds domain.Credentials) (*domain.User, error) {
	creds.Email = strings.ToLower(strings.TrimSpace(creds.Email))
	if err := requireFields(map[string]string{"email": creds.Email, "password": creds.Password}); err != nil {
		return nil, err
	}

	res, err := u.gateway.Login(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return u.establish(ctx, res)
}

func (u *AuthUsecase) Signup(ctx context.Context, creds domain.Credentials) (*domain.User, error) {
	creds.Email = strings.ToLower(strings.TrimSpace(creds.Email))
	creds.Name = strings.TrimSpace(creds.Name)
	if err := requireFields(map[string]string{"name": creds.Name, "email": creds.Email, "password": creds.Password}); err != nil {
		return nil, err
	}

	res, err := u.gateway.Signup(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("signup failed: %w", err)
	}
	return u.establish(ctx, res)
}

func (u *AuthUsecase) establish(ctx context.Context, res *domain.AuthResult) (*domain.User, error) {
	if res.AccessToken == "" {
		return nil, fmt.Errorf("backend returned no access token")
	}
	// A new session never inherits the previous one's coupon.
	u.checkout.ForgetCoupon()
	u.keeper.Establish(res.AccessToken, res.RefreshToken)

	logger.WithContext(ctx).Info().Str("user_id", res.User.ID).Msg("Session established")
	user := res.User
	return &user, nil
}

// CheckAuth asks the backend who the session belongs to.
func (u *AuthUsecase) CheckAuth(ctx context.Context) (*domain.User, error) {
	if _, err := u.keeper.UserID(); err != nil {
		return nil, domain.ErrNoSession
	}
	return u.gateway.CheckAuth(ctx)
}

// Logout clears the session locally. The backend keeps no client session to end.
func (u *AuthUsecase) Logout(ctx context.Context) {
	u.keeper.Revoke()
	u.checkout.ForgetCoupon()
	logger.WithContext(ctx).Info().Msg("Session cleared")
}

func requireFields(fields map[string]string) error {
	var missing []domain.FieldError
	for _, name := range []string{"name", "email", "password"} {
		if v, ok := fields[name]; ok && v == "" {
			missing = append(missing, domain.FieldError{Field: name, Message: name + " is required"})
		}
	}
	if len(missing) > 0 {
		return &domain.ValidationError{Fields: missing}
	}
	return nil
}
