package http

import (
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/studyhall/pkg/domain/model"
	"github.com/secmon-lab/studyhall/pkg/usecase"
	"github.com/secmon-lab/studyhall/pkg/utils/errutil"
	"github.com/secmon-lab/studyhall/pkg/utils/logging"
)

type AuthUseCase = usecase.AuthUseCaseInterface

// viewerMiddleware resolves the caller from an optional bearer token. Requests
// without a token continue as the public viewer; an invalid token is rejected.
func viewerMiddleware(authUC AuthUseCase) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			// Without an authenticator every caller is public; in NoAuthn mode the header is ignored
			if authUC == nil || authUC.IsNoAuthn() {
				viewer := model.PublicViewer
				if authUC != nil {
					viewer, _ = authUC.Authenticate(ctx, "")
				}
				next.ServeHTTP(w, r.WithContext(model.ContextWithViewer(ctx, viewer)))
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				errutil.HandleHTTPWithCode(ctx, w,
					goerr.Wrap(usecase.ErrAuthRequired, "malformed Authorization header"),
					http.StatusUnauthorized, codeUnauthorized)
				return
			}

			viewer, err := authUC.Authenticate(ctx, token)
			if err != nil {
				errutil.HandleHTTPWithCode(ctx, w, err, http.StatusUnauthorized, codeUnauthorized)
				return
			}

			if viewer.Subject != "" {
				ctx = logging.With(ctx, logging.From(ctx).With("subject", viewer.Subject))
			}
			next.ServeHTTP(w, r.WithContext(model.ContextWithViewer(ctx, viewer)))
		})
	}
}

// bearerToken extracts the token of an Authorization header. A missing header
// yields an empty token; any other scheme is malformed.
func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", true
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	return strings.TrimSpace(token), true
}
