package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/itsatony/go-cuserr"
	dtx "github.com/itsatony/go-dtx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSite = `
site:
  name: Example Site
posts:
  - id: 10
    slug: hello-world
    title: Hello World
    meta:
      color: blue
current_post: 10
`

func newPageRequest(t *testing.T) *dtx.Request {
	t.Helper()
	u, err := url.Parse("https://example.com/page/?foo=bar")
	require.NoError(t, err)
	return &dtx.Request{
		URL:      u,
		Query:    u.Query(),
		Cookies:  map[string]string{"session": "abc"},
		Referrer: "https://google.com/",
	}
}

// countingServer serves the batch endpoint and counts requests.
func countingServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	fixture, err := dtx.ParseSiteFixture([]byte(testSite))
	require.NoError(t, err)

	storage := dtx.NewMemoryStorage()
	settings := dtx.DefaultSettings()
	settings.AddAllowedKeys(dtx.DomainPostMeta, "color")
	require.NoError(t, storage.Save(context.Background(), settings))

	handler := dtx.MustNew().BatchHandler(dtx.NewMemoryHost(fixture), storage)
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestIsClientSafe(t *testing.T) {
	tests := []struct {
		tag  string
		want bool
	}{
		{dtx.TagNameGet, true},
		{"cf7_get", true},
		{dtx.TagNameURL, true},
		{dtx.TagNameReferrer, true},
		{dtx.TagNameCookie, true},
		{dtx.TagNameGUID, true},
		{dtx.TagNamePost, false},
		{dtx.TagNameCustomField, false},
		{dtx.TagNameCurrentUser, false},
		{dtx.TagNameBlogInfo, false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.want, IsClientSafe(tt.tag))
		})
	}
}

func TestLocal_Resolve(t *testing.T) {
	local, err := NewLocal(newPageRequest(t))
	require.NoError(t, err)
	ctx := context.Background()

	tests := []struct {
		raw  string
		want string
	}{
		{"CF7_GET key='foo'", "bar"},
		{"CF7_URL part='path'", "/page/"},
		{"CF7_referrer", "https://google.com/"},
		{"CF7_get_cookie key='session'", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			value, ok := local.Resolve(ctx, tt.raw, false)
			assert.True(t, ok)
			assert.Equal(t, tt.want, value)
		})
	}

	guid, ok := local.Resolve(ctx, "CF7_guid", false)
	assert.True(t, ok)
	assert.Len(t, guid, 36)

	for _, raw := range []string{"CF7_get_custom_field key='color'", "CF7_bloginfo", "", "   "} {
		_, ok := local.Resolve(ctx, raw, false)
		assert.False(t, ok, "%q is deferred", raw)
	}
}

func TestNewBatcher_Validation(t *testing.T) {
	_, err := NewBatcher("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgEmptyEndpoint)

	b, err := NewBatcher("http://localhost/batch")
	require.NoError(t, err)
	err = b.Queue("CF7_bloginfo", false, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgNilCallback)
}

func TestBatcher_Flush(t *testing.T) {
	for _, useCBOR := range []bool{false, true} {
		name := "json"
		var opts []Option
		if useCBOR {
			name = "cbor"
			opts = append(opts, WithCBOR())
		}
		t.Run(name, func(t *testing.T) {
			srv, calls := countingServer(t)
			opts := append(opts, WithDelay(time.Hour))
			b, err := NewBatcher(srv.URL+"/page/?foo=bar", opts...)
			require.NoError(t, err)
			defer b.Close()

			got := make(map[string][]string)
			var mu sync.Mutex
			record := func(name string) Callback {
				return func(value string, err error) {
					require.NoError(t, err)
					mu.Lock()
					got[name] = append(got[name], value)
					mu.Unlock()
				}
			}

			require.NoError(t, b.Queue("CF7_bloginfo", false, record("site")))
			require.NoError(t, b.Queue("CF7_get_custom_field key='color'", false, record("color")))
			require.NoError(t, b.Queue("CF7_bloginfo", true, record("site")))
			require.NoError(t, b.Queue("CF7_GET key='foo'", false, record("get")))
			assert.Equal(t, 3, b.Pending(), "identical lookups share an entry")

			require.NoError(t, b.Flush(context.Background()))
			assert.Equal(t, int32(1), calls.Load())
			assert.Equal(t, 0, b.Pending())

			assert.Equal(t, []string{"Example Site", "Example Site"}, got["site"])
			assert.Equal(t, []string{"blue"}, got["color"])
			assert.Equal(t, []string{"bar"}, got["get"])

			require.NoError(t, b.Flush(context.Background()))
			assert.Equal(t, int32(1), calls.Load(), "empty flush sends nothing")
		})
	}
}

func TestBatcher_TimerFires(t *testing.T) {
	srv, calls := countingServer(t)
	b, err := NewBatcher(srv.URL, WithDelay(10*time.Millisecond))
	require.NoError(t, err)
	defer b.Close()

	done := make(chan string, 2)
	cb := func(value string, err error) {
		assert.NoError(t, err)
		done <- value
	}
	require.NoError(t, b.Queue("CF7_bloginfo", false, cb))
	require.NoError(t, b.Queue("CF7_get_custom_field key='color'", false, cb))

	var values []string
	for i := 0; i < 2; i++ {
		select {
		case v := <-done:
			values = append(values, v)
		case <-time.After(5 * time.Second):
			t.Fatal("deferred lookups were not delivered")
		}
	}
	assert.ElementsMatch(t, []string{"Example Site", "blue"}, values)
	assert.Equal(t, int32(1), calls.Load(), "lookups are coalesced into one request")
}

func TestBatcher_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	b, err := NewBatcher(srv.URL, WithDelay(time.Hour), WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	defer b.Close()

	var cbErr error
	require.NoError(t, b.Queue("CF7_bloginfo", false, func(value string, err error) {
		cbErr = err
	}))

	err = b.Flush(context.Background())
	require.Error(t, err)
	assert.Equal(t, err, cbErr, "callbacks receive the request error")

	var custom *cuserr.CustomError
	require.True(t, errors.As(err, &custom))
	status, ok := custom.GetMetadata(MetaKeyStatus)
	assert.True(t, ok)
	assert.Equal(t, strconv.Itoa(http.StatusInternalServerError), status)
}

func TestBatcher_MissingResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(dtx.HeaderContentType, dtx.ContentTypeJSON)
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	b, err := NewBatcher(srv.URL, WithDelay(time.Hour))
	require.NoError(t, err)
	defer b.Close()

	var cbErr error
	require.NoError(t, b.Queue("CF7_bloginfo", false, func(value string, err error) {
		cbErr = err
	}))
	require.NoError(t, b.Flush(context.Background()))
	require.Error(t, cbErr)
	assert.Contains(t, cbErr.Error(), ErrMsgMissingResult)
}

func TestBatcher_Close(t *testing.T) {
	srv, calls := countingServer(t)
	b, err := NewBatcher(srv.URL, WithDelay(10*time.Millisecond))
	require.NoError(t, err)

	called := false
	require.NoError(t, b.Queue("CF7_bloginfo", false, func(string, error) { called = true }))
	require.NoError(t, b.Close())
	assert.Equal(t, 0, b.Pending())

	time.Sleep(50 * time.Millisecond)
	assert.False(t, called, "abandoned lookups are never answered")
	assert.Equal(t, int32(0), calls.Load())

	err = b.Queue("CF7_bloginfo", false, func(string, error) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgBatcherClosed)
}
