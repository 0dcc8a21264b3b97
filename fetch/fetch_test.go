package fetch

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"bistscrapper/cache"
	"bistscrapper/logger"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = "<html><body>Halka Arz Fiyatı : 19,50 TL</body></html>"

func encode(t *testing.T, encoding string) []byte {
	t.Helper()
	var buf bytes.Buffer
	switch encoding {
	case "gzip":
		w := gzip.NewWriter(&buf)
		_, _ = w.Write([]byte(page))
		require.NoError(t, w.Close())
	case "br":
		w := brotli.NewWriter(&buf)
		_, _ = w.Write([]byte(page))
		require.NoError(t, w.Close())
	case "zstd":
		enc, err := zstd.NewWriter(nil)
		require.NoError(t, err)
		buf.Write(enc.EncodeAll([]byte(page), nil))
		require.NoError(t, enc.Close())
	default:
		buf.WriteString(page)
	}
	return buf.Bytes()
}

func TestFetchDecodesContentEncoding(t *testing.T) {
	for _, enc := range []string{"", "gzip", "br", "zstd"} {
		t.Run("encoding "+enc, func(t *testing.T) {
			body := encode(t, enc)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if enc != "" {
					w.Header().Set("Content-Encoding", enc)
				}
				_, _ = w.Write(body)
			}))
			defer srv.Close()

			doc, err := New(WithDelay(0)).Fetch(context.Background(), srv.URL)
			require.NoError(t, err)
			assert.Equal(t, page, string(doc.Body))
			assert.Equal(t, srv.URL, doc.URL)
			assert.False(t, doc.FetchedAt.IsZero())
		})
	}
}

func TestFetchFallsThroughProfiles(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("User-Agent"))
		assert.Equal(t, "https://halkarz.com/", r.Header.Get("Referer"))
		if !strings.Contains(r.Header.Get("User-Agent"), "Version/15.5") {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	doc, err := New(WithDelay(time.Millisecond), WithReferer("https://halkarz.com/")).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, page, string(doc.Body))
	assert.Len(t, seen, 2)
}

func TestFetchAllProfilesFail(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := New(WithDelay(0)).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllProfilesFailed)
	assert.Equal(t, int32(len(DefaultProfiles)), atomic.LoadInt32(&hits))

	doc := OrEmpty(context.Background(), New(WithDelay(0)), srv.URL, logger.NewNop())
	assert.True(t, doc.Empty())
	assert.Equal(t, srv.URL, doc.URL)
}

func TestFetchUsesCache(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	c := New(WithCache(cache.NewMemory(), time.Minute))
	for i := 0; i < 3; i++ {
		doc, err := c.Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
		assert.Equal(t, page, string(doc.Body))
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestOrderedKeepsInputOrder(t *testing.T) {
	in := []int{5, 1, 4, 2, 3}
	var inFlight, peak int32
	out := Ordered(context.Background(), 2, in, func(_ context.Context, i int, v int) int {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(time.Duration(v) * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return v * 10
	})
	assert.Equal(t, []int{50, 10, 40, 20, 30}, out)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestOrderedStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := Ordered(ctx, 3, []string{"a", "b"}, func(context.Context, int, string) string { return "x" })
	assert.Equal(t, []string{"", ""}, out)
}
