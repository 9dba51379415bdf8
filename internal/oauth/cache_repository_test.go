package oauth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonjun/stiky/internal/cache"
)

func newCacheRepo(t *testing.T) (*CacheRequestRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheRequestRepository(cache.NewRedisStore(client), 180*time.Second), mr
}

func TestCacheRepository_SaveLoadRemove(t *testing.T) {
	repo, mr := newCacheRepo(t)

	save := httptest.NewRequest(http.MethodGet, "/oauth2/authorization/google?redirect_uri=/home", nil)
	require.NoError(t, repo.Save(httptest.NewRecorder(), save, sampleRequest()))

	assert.True(t, mr.Exists("OAUTH2_AUTH_REQUEST:state-1"))
	assert.Equal(t, 180*time.Second, mr.TTL("OAUTH2_AUTH_REQUEST:state-1"))

	callback := httptest.NewRequest(http.MethodGet, "/login/oauth2/code/google?state=state-1&code=abc", nil)

	loaded, err := repo.Load(callback)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "verifier", loaded.CodeVerifier)
	assert.Equal(t, "/home", loaded.RedirectAfterLogin)
	assert.True(t, mr.Exists("OAUTH2_AUTH_REQUEST:state-1"), "load must not consume")

	removed, err := repo.Remove(httptest.NewRecorder(), callback)
	require.NoError(t, err)
	assert.Equal(t, loaded, removed)
	assert.False(t, mr.Exists("OAUTH2_AUTH_REQUEST:state-1"))

	again, err := repo.Remove(httptest.NewRecorder(), callback)
	assert.NoError(t, err)
	assert.Nil(t, again)
}

func TestCacheRepository_NoStateParam(t *testing.T) {
	repo, _ := newCacheRepo(t)

	req, err := repo.Load(httptest.NewRequest(http.MethodGet, "/login/oauth2/code/google", nil))
	assert.NoError(t, err)
	assert.Nil(t, req)
}

func TestCacheRepository_SaveNilRemovesByState(t *testing.T) {
	repo, mr := newCacheRepo(t)
	require.NoError(t, repo.Save(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), sampleRequest()))

	r := httptest.NewRequest(http.MethodGet, "/?state=state-1", nil)
	require.NoError(t, repo.Save(httptest.NewRecorder(), r, nil))

	assert.False(t, mr.Exists("OAUTH2_AUTH_REQUEST:state-1"))
}

func TestCacheRepository_Expires(t *testing.T) {
	repo, mr := newCacheRepo(t)
	require.NoError(t, repo.Save(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), sampleRequest()))

	mr.FastForward(181 * time.Second)

	req, err := repo.Load(httptest.NewRequest(http.MethodGet, "/?state=state-1", nil))
	assert.NoError(t, err)
	assert.Nil(t, req)
}

func TestCacheRepository_StoreErrorSurfaces(t *testing.T) {
	repo, mr := newCacheRepo(t)
	mr.Close()

	_, err := repo.Load(httptest.NewRequest(http.MethodGet, "/?state=s", nil))
	assert.Error(t, err)
}

func TestRequestRepositories_Interchangeable(t *testing.T) {
	cacheRepo, _ := newCacheRepo(t)
	repos := map[string]RequestRepository{
		"cookie": NewCookieRequestRepository(cookieSecret, 0, ""),
		"redis":  cacheRepo,
	}

	for name, repo := range repos {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			require.NoError(t, repo.Save(rec, httptest.NewRequest(http.MethodGet, "/", nil), sampleRequest()))

			callback := replay(rec, "/login/oauth2/code/google?state=state-1")
			got, err := repo.Remove(httptest.NewRecorder(), callback)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "state-1", got.State)
			assert.Equal(t, ProviderGoogle, got.Provider)
		})
	}
}
