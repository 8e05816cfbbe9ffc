package client

import (
	"context"
	"net/http"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// LoginInput is the credential pair for Login.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterInput is the sign-up form. New accounts are always client-type;
// stores switch with SetUserType afterwards.
type RegisterInput struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Phone     string `json:"phone" validate:"required"`
	City      string `json:"city" validate:"required"`
}

// Login authenticates and stores the resulting token pair in the session.
func (c *Client) Login(ctx context.Context, in LoginInput) error {
	if err := c.validateInput(in); err != nil {
		return err
	}

	var resp struct {
		Data TokenPair `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/login/", nil, in, nil, &resp); err != nil {
		return err
	}

	c.session.SetTokens(resp.Data.Access, resp.Data.Refresh)
	c.log.Info("logged in", zap.String("email", in.Email))
	return nil
}

// Register creates an account and logs the session in with the returned
// token pair.
func (c *Client) Register(ctx context.Context, in RegisterInput) (*UserData, error) {
	if err := c.validateInput(in); err != nil {
		return nil, err
	}

	var resp struct {
		Access  string   `json:"access"`
		Refresh string   `json:"refresh"`
		User    UserData `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/register/", nil, in, nil, &resp); err != nil {
		return nil, err
	}

	c.session.SetTokens(resp.Access, resp.Refresh)
	c.session.SetUser(&resp.User)
	c.log.Info("registered", zap.String("email", in.Email))
	return &resp.User, nil
}

// Logout revokes the refresh token server-side on a best-effort basis and
// always clears the local session.
func (c *Client) Logout(ctx context.Context) {
	if _, refresh := c.session.Tokens(); refresh != "" {
		body := map[string]string{"refresh": refresh}
		if _, _, err := c.send(ctx, http.MethodPost, "/logout/", nil, body, nil, false); err != nil {
			c.log.Warn("server-side logout failed", zap.Error(err))
		}
	}
	c.session.Logout()
}

// validateInput maps validator failures to a ValidationError listing the
// offending fields in wire form.
func (c *Client) validateInput(in any) error {
	err := c.validate.Struct(in)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, snakeLower(fe.Field()))
	}
	return &ValidationError{Fields: fields}
}

// snakeLower turns a struct field name into its wire form, e.g.
// FirstName into first_name.
func snakeLower(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
