package usecase

import (
	"context"
	"strings"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/studyhall/pkg/domain/model"
)

// AdminRole is the value of the role claim that grants the admin view
const AdminRole = "admin"

// AuthUseCaseInterface resolves the viewer of a request
type AuthUseCaseInterface interface {
	// Authenticate turns a bearer token into a viewer. An empty token is the public viewer.
	Authenticate(ctx context.Context, bearerToken string) (model.Viewer, error)
	IsNoAuthn() bool
}

// JWTAuthUseCase verifies HS256 tokens issued by the platform's auth service
type JWTAuthUseCase struct {
	secret   []byte
	issuer   string
	audience string
}

type JWTAuthOption func(*JWTAuthUseCase)

// WithIssuer requires the iss claim to match
func WithIssuer(issuer string) JWTAuthOption {
	return func(uc *JWTAuthUseCase) {
		uc.issuer = issuer
	}
}

// WithAudience requires the aud claim to contain audience
func WithAudience(audience string) JWTAuthOption {
	return func(uc *JWTAuthUseCase) {
		uc.audience = audience
	}
}

func NewJWTAuthUseCase(secret []byte, opts ...JWTAuthOption) *JWTAuthUseCase {
	uc := &JWTAuthUseCase{secret: secret}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *JWTAuthUseCase) Authenticate(ctx context.Context, bearerToken string) (model.Viewer, error) {
	bearerToken = strings.TrimSpace(bearerToken)
	if bearerToken == "" {
		return model.PublicViewer, nil
	}

	parseOpts := []jwt.ParseOption{
		jwt.WithKey(jwa.HS256, uc.secret),
		jwt.WithValidate(true),
	}
	if uc.issuer != "" {
		parseOpts = append(parseOpts, jwt.WithIssuer(uc.issuer))
	}
	if uc.audience != "" {
		parseOpts = append(parseOpts, jwt.WithAudience(uc.audience))
	}

	token, err := jwt.ParseString(bearerToken, parseOpts...)
	if err != nil {
		return model.PublicViewer, goerr.Wrap(ErrAuthRequired, "invalid bearer token", goerr.V("cause", err.Error()))
	}

	viewer := model.Viewer{Subject: token.Subject()}
	if role, ok := token.Get("role"); ok {
		if s, ok := role.(string); ok && s == AdminRole {
			viewer.Privileged = true
		}
	}
	return viewer, nil
}

func (uc *JWTAuthUseCase) IsNoAuthn() bool {
	return false
}

// NoAuthnUseCase treats every caller as an admin (for development/testing)
type NoAuthnUseCase struct{}

func NewNoAuthnUseCase() *NoAuthnUseCase {
	return &NoAuthnUseCase{}
}

func (uc *NoAuthnUseCase) Authenticate(ctx context.Context, bearerToken string) (model.Viewer, error) {
	return model.Viewer{Subject: "anonymous", Privileged: true}, nil
}

func (uc *NoAuthnUseCase) IsNoAuthn() bool {
	return true
}

// AnonymousUseCase accepts no credentials: every caller is the public viewer and any
// bearer token is rejected
type AnonymousUseCase struct{}

func NewAnonymousUseCase() *AnonymousUseCase {
	return &AnonymousUseCase{}
}

func (uc *AnonymousUseCase) Authenticate(ctx context.Context, bearerToken string) (model.Viewer, error) {
	if strings.TrimSpace(bearerToken) != "" {
		return model.PublicViewer, goerr.Wrap(ErrAuthRequired, "token authentication is not configured")
	}
	return model.PublicViewer, nil
}

func (uc *AnonymousUseCase) IsNoAuthn() bool {
	return false
}

// requireAdmin fails unless the viewer of ctx is privileged
func requireAdmin(ctx context.Context) error {
	viewer := model.ViewerFromContext(ctx)
	if !viewer.Privileged {
		return goerr.Wrap(ErrAdminRequired, "admin view required", goerr.V("subject", viewer.Subject))
	}
	return nil
}
