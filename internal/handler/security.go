package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/go-faster/errors"

	"github.com/myatlin/shwecart/internal/domain/auth"
)

const apiKeyHeader = "X-API-Key"

var errUnauthorized = errors.New("unauthorized")

// security authenticates requests via HMAC-SHA256 hashed API keys, the
// same scheme the back office uses to provision keys.
type security struct {
	apikeys auth.Repository
	pepper  []byte
}

func newSecurity(apikeys auth.Repository, pepper []byte) *security {
	return &security{apikeys: apikeys, pepper: pepper}
}

// authenticate resolves the request's API key to an actor.
func (s *security) authenticate(r *http.Request) (auth.Actor, error) {
	key := r.Header.Get(apiKeyHeader)
	if key == "" {
		return auth.Actor{}, errUnauthorized
	}

	mac := hmac.New(sha256.New, s.pepper)
	mac.Write([]byte(key))
	hash := mac.Sum(nil)

	info, err := s.apikeys.FindByHash(r.Context(), hex.EncodeToString(hash))
	if err != nil {
		return auth.Actor{}, errUnauthorized
	}

	// Constant-time comparison guards against timing side-channels in case
	// the repository returns a stale or wrong row.
	stored, err := hex.DecodeString(info.KeyHash)
	if err != nil || subtle.ConstantTimeCompare(hash, stored) != 1 {
		return auth.Actor{}, errUnauthorized
	}

	return info.Actor(), nil
}

// authorized wraps a handler with API key authentication.
func (h *Handler) authorized(next func(http.ResponseWriter, *http.Request, auth.Actor)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := h.sec.authenticate(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, actor)
	}
}

// canAct reports whether the actor may operate on the given owner's data:
// operators always, customers only on their own.
func canAct(actor auth.Actor, owner string) bool {
	return actor.Operator() || actor.Subject == owner
}
