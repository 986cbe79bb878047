package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/studyhall/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// minSecretLength is the HS256 key size
const minSecretLength = 32

type Auth struct {
	jwtSecret string `masq:"secret"`
	issuer    string
	audience  string
	noAuth    bool
}

func (x *Auth) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "jwt-secret",
			Usage:       "HS256 secret verifying admin bearer tokens",
			Category:    "Authentication",
			Sources:     cli.EnvVars("STUDYHALL_JWT_SECRET"),
			Destination: &x.jwtSecret,
		},
		&cli.StringFlag{
			Name:        "jwt-issuer",
			Usage:       "Required iss claim of bearer tokens",
			Category:    "Authentication",
			Sources:     cli.EnvVars("STUDYHALL_JWT_ISSUER"),
			Destination: &x.issuer,
		},
		&cli.StringFlag{
			Name:        "jwt-audience",
			Usage:       "Required aud claim of bearer tokens",
			Category:    "Authentication",
			Sources:     cli.EnvVars("STUDYHALL_JWT_AUDIENCE"),
			Destination: &x.audience,
		},
		&cli.BoolFlag{
			Name:        "no-auth",
			Usage:       "Treat every caller as admin (development only)",
			Category:    "Authentication",
			Sources:     cli.EnvVars("STUDYHALL_NO_AUTH"),
			Destination: &x.noAuth,
		},
	}
}

func (x Auth) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("jwt-secret.len", len(x.jwtSecret)),
		slog.String("issuer", x.issuer),
		slog.String("audience", x.audience),
		slog.Bool("no-auth", x.noAuth),
	)
}

// NewAuthForTest creates an Auth config without flag parsing
func NewAuthForTest(secret, issuer, audience string, noAuth bool) *Auth {
	return &Auth{jwtSecret: secret, issuer: issuer, audience: audience, noAuth: noAuth}
}

// IsNoAuthMode reports whether every caller is treated as admin
func (x *Auth) IsNoAuthMode() bool {
	return x.noAuth
}

// Configure returns the JWT verifier, or NoAuthnUseCase with --no-auth
func (x *Auth) Configure() (usecase.AuthUseCaseInterface, error) {
	if x.noAuth {
		if x.jwtSecret != "" {
			return nil, goerr.Wrap(ErrInvalidConfig, "--no-auth and --jwt-secret are mutually exclusive")
		}
		return usecase.NewNoAuthnUseCase(), nil
	}

	if x.jwtSecret == "" {
		return nil, goerr.Wrap(ErrInvalidConfig, "--jwt-secret is required unless --no-auth is set")
	}
	if len(x.jwtSecret) < minSecretLength {
		return nil, goerr.Wrap(ErrInvalidConfig, "--jwt-secret is too short", goerr.V("min_length", minSecretLength))
	}

	var opts []usecase.JWTAuthOption
	if x.issuer != "" {
		opts = append(opts, usecase.WithIssuer(x.issuer))
	}
	if x.audience != "" {
		opts = append(opts, usecase.WithAudience(x.audience))
	}
	return usecase.NewJWTAuthUseCase([]byte(x.jwtSecret), opts...), nil
}
