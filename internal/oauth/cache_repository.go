package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/wonjun/stiky/internal/cache"
)

const authRequestPrefix = "OAUTH2_AUTH_REQUEST:"

// AuthRequestKey returns the cache key for a pending request.
func AuthRequestKey(state string) string {
	return authRequestPrefix + state
}

// CacheRequestRepository keeps pending requests in the session cache keyed by
// their state value. The callback's state query parameter selects the entry.
type CacheRequestRepository struct {
	store cache.Store
	ttl   time.Duration
}

// NewCacheRequestRepository creates a cache-backed repository.
func NewCacheRequestRepository(store cache.Store, ttl time.Duration) *CacheRequestRepository {
	if ttl <= 0 {
		ttl = defaultAuthRequestTTL
	}
	return &CacheRequestRepository{store: store, ttl: ttl}
}

func (c *CacheRequestRepository) Save(w http.ResponseWriter, r *http.Request, req *AuthorizationRequest) error {
	if req == nil {
		_, err := c.Remove(w, r)
		return err
	}
	if req.State == "" {
		return nil
	}

	if after := r.URL.Query().Get(RedirectURIParam); after != "" && req.RedirectAfterLogin == "" {
		req.RedirectAfterLogin = after
	}

	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal authorization request: %w", err)
	}
	if err := c.store.Set(r.Context(), AuthRequestKey(req.State), string(data), c.ttl); err != nil {
		return fmt.Errorf("save authorization request: %w", err)
	}
	return nil
}

func (c *CacheRequestRepository) Load(r *http.Request) (*AuthorizationRequest, error) {
	return c.read(r.Context(), r, c.store.Get)
}

func (c *CacheRequestRepository) Remove(_ http.ResponseWriter, r *http.Request) (*AuthorizationRequest, error) {
	return c.read(r.Context(), r, c.store.GetDel)
}

func (c *CacheRequestRepository) read(
	ctx context.Context,
	r *http.Request,
	get func(context.Context, string) (string, error),
) (*AuthorizationRequest, error) {
	state := r.URL.Query().Get(StateParam)
	if state == "" {
		return nil, nil
	}

	raw, err := get(ctx, AuthRequestKey(state))
	if errors.Is(err, cache.ErrMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load authorization request: %w", err)
	}

	var req AuthorizationRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return nil, nil
	}
	return &req, nil
}
