package domain

import "context"

type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type Address struct {
	ID          string `json:"_id"`
	FullName    string `json:"fullName,omitempty"`
	Phone       string `json:"phone,omitempty"`
	AddressLine string `json:"addressLine,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	PinCode     string `json:"pinCode,omitempty"`
	IsDefault   bool   `json:"isDefault,omitempty"`
}

// Credentials for POST /user/login and POST /user/signup.
type Credentials struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}

// AuthResult is the backend's login/signup response.
type AuthResult struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         User   `json:"user"`
}

type AuthGateway interface {
	Login(ctx context.Context, creds Credentials) (*AuthResult, error)
	Signup(ctx context.Context, creds Credentials) (*AuthResult, error)
	CheckAuth(ctx context.Context) (*User, error)
}

// Navigator forces the application onto a route boundary.
type Navigator interface {
	Navigate(path string)
}
