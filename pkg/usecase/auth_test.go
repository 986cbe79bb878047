package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/studyhall/pkg/repository/memory"
	"github.com/secmon-lab/studyhall/pkg/usecase"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func signToken(t *testing.T, secret []byte, claims map[string]any, exp time.Time) string {
	t.Helper()
	b := jwt.NewBuilder().Subject("user-1").Issuer("studyhall-auth").Expiration(exp)
	for k, v := range claims {
		b = b.Claim(k, v)
	}
	tok, err := b.Build()
	gt.NoError(t, err).Required()

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, secret))
	gt.NoError(t, err).Required()
	return string(signed)
}

func TestJWTAuthUseCase_Authenticate(t *testing.T) {
	ctx := context.Background()
	uc := usecase.NewJWTAuthUseCase(testSecret, usecase.WithIssuer("studyhall-auth"))
	future := time.Now().Add(time.Hour)

	t.Run("admin role is privileged", func(t *testing.T) {
		v, err := uc.Authenticate(ctx, signToken(t, testSecret, map[string]any{"role": "admin"}, future))
		gt.NoError(t, err).Required()
		gt.Bool(t, v.Privileged).True()
		gt.Value(t, v.Subject).Equal("user-1")
	})

	t.Run("other roles are public", func(t *testing.T) {
		v, err := uc.Authenticate(ctx, signToken(t, testSecret, map[string]any{"role": "member"}, future))
		gt.NoError(t, err).Required()
		gt.Bool(t, v.Privileged).False()
	})

	t.Run("no token is public", func(t *testing.T) {
		v, err := uc.Authenticate(ctx, "")
		gt.NoError(t, err).Required()
		gt.Bool(t, v.Privileged).False()
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := uc.Authenticate(ctx, signToken(t, []byte("another-secret-another-secret!!"), map[string]any{"role": "admin"}, future))
		gt.Error(t, err).Is(usecase.ErrAuthRequired)
	})

	t.Run("expired", func(t *testing.T) {
		_, err := uc.Authenticate(ctx, signToken(t, testSecret, map[string]any{"role": "admin"}, time.Now().Add(-time.Hour)))
		gt.Error(t, err).Is(usecase.ErrAuthRequired)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := uc.Authenticate(ctx, "not.a.jwt")
		gt.Error(t, err).Is(usecase.ErrAuthRequired)
	})

	t.Run("issuer mismatch", func(t *testing.T) {
		strict := usecase.NewJWTAuthUseCase(testSecret, usecase.WithIssuer("someone-else"))
		_, err := strict.Authenticate(ctx, signToken(t, testSecret, map[string]any{"role": "admin"}, future))
		gt.Error(t, err).Is(usecase.ErrAuthRequired)
	})
}

func TestNoAuthnUseCase(t *testing.T) {
	uc := usecase.NewNoAuthnUseCase()
	v, err := uc.Authenticate(context.Background(), "")
	gt.NoError(t, err).Required()
	gt.Bool(t, v.Privileged).True()
	gt.Bool(t, uc.IsNoAuthn()).True()
}

func TestAnonymousUseCase(t *testing.T) {
	uc := usecase.NewAnonymousUseCase()

	v, err := uc.Authenticate(context.Background(), "")
	gt.NoError(t, err).Required()
	gt.Bool(t, v.Privileged).False()
	gt.Bool(t, uc.IsNoAuthn()).False()

	_, err = uc.Authenticate(context.Background(), signToken(t, testSecret, map[string]any{"role": "admin"}, time.Now().Add(time.Hour)))
	gt.Error(t, err).Is(usecase.ErrAuthRequired)
}

func TestNew_DefaultAuthIsNotPrivileged(t *testing.T) {
	uc := usecase.New(memory.New())
	v, err := uc.Auth.Authenticate(context.Background(), "")
	gt.NoError(t, err).Required()
	gt.Bool(t, v.Privileged).False()
}
