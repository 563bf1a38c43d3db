package reputation

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcslave/credential-phishing-detection/internal/entity"
)

const testURL = "https://phish.example.com/login"

func TestSafeBrowsingClient(t *testing.T) {
	t.Run("match is high", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "test-key", r.URL.Query().Get("key"))
			w.Write([]byte(`{"matches":[{"threatType":"SOCIAL_ENGINEERING"}]}`))
		}))
		defer srv.Close()

		c := NewSafeBrowsingClient(SafeBrowsingConfig{APIKey: "test-key", BaseURL: srv.URL})
		v, err := c.CheckURL(context.Background(), testURL)
		require.NoError(t, err)
		assert.Equal(t, entity.RiskHigh, v.Tier)
		assert.Contains(t, v.Reason, "SOCIAL_ENGINEERING")
	})

	t.Run("no match is low", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		c := NewSafeBrowsingClient(SafeBrowsingConfig{APIKey: "test-key", BaseURL: srv.URL})
		v, err := c.CheckURL(context.Background(), testURL)
		require.NoError(t, err)
		assert.Equal(t, entity.RiskLow, v.Tier)
		assert.Empty(t, v.Reason)
	})

	t.Run("upstream error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		c := NewSafeBrowsingClient(SafeBrowsingConfig{APIKey: "test-key", BaseURL: srv.URL})
		_, err := c.CheckURL(context.Background(), testURL)
		assert.Error(t, err)
	})

	t.Run("unconfigured without key", func(t *testing.T) {
		assert.False(t, NewSafeBrowsingClient(SafeBrowsingConfig{}).IsConfigured())
		assert.True(t, NewSafeBrowsingClient(SafeBrowsingConfig{APIKey: "k"}).IsConfigured())
	})
}

func TestVirusTotalClient(t *testing.T) {
	vtServer := func(t *testing.T, body string, status int) *httptest.Server {
		t.Helper()
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "test-key", r.Header.Get("x-apikey"))
			// VT identifies URLs by unpadded urlsafe base64.
			wantID := strings.TrimRight(base64.URLEncoding.EncodeToString([]byte(testURL)), "=")
			assert.True(t, strings.HasSuffix(r.URL.Path, "/"+wantID))
			w.WriteHeader(status)
			w.Write([]byte(body))
		}))
	}

	stats := func(malicious, suspicious int) string {
		return `{"data":{"attributes":{"last_analysis_stats":{"malicious":` +
			strconv.Itoa(malicious) + `,"suspicious":` + strconv.Itoa(suspicious) + `}}}}`
	}

	cases := []struct {
		name       string
		malicious  int
		suspicious int
		want       entity.RiskTier
	}{
		{"clean", 0, 0, entity.RiskLow},
		{"few suspicious only", 0, 2, entity.RiskLow},
		{"many suspicious", 0, 3, entity.RiskMedium},
		{"some malicious", 3, 0, entity.RiskMedium},
		{"many malicious", 6, 0, entity.RiskHigh},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := vtServer(t, stats(tc.malicious, tc.suspicious), http.StatusOK)
			defer srv.Close()

			c := NewVirusTotalClient(VirusTotalConfig{APIKey: "test-key", BaseURL: srv.URL})
			v, err := c.CheckURL(context.Background(), testURL)
			require.NoError(t, err)
			assert.Equal(t, tc.want, v.Tier)
		})
	}

	t.Run("unknown url is low, not an error", func(t *testing.T) {
		srv := vtServer(t, "", http.StatusNotFound)
		defer srv.Close()

		c := NewVirusTotalClient(VirusTotalConfig{APIKey: "test-key", BaseURL: srv.URL})
		v, err := c.CheckURL(context.Background(), testURL)
		require.NoError(t, err)
		assert.Equal(t, entity.RiskLow, v.Tier)
	})
}

func TestPhishTankClient(t *testing.T) {
	t.Run("in database is high", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			assert.Equal(t, testURL, r.PostForm.Get("url"))
			assert.Equal(t, "json", r.PostForm.Get("format"))
			w.Write([]byte(`{"results":{"in_database":true,"phish_id":12345,"verified":true,"valid":true}}`))
		}))
		defer srv.Close()

		c := NewPhishTankClient(PhishTankConfig{BaseURL: srv.URL})
		v, err := c.CheckURL(context.Background(), testURL)
		require.NoError(t, err)
		assert.Equal(t, entity.RiskHigh, v.Tier)
		assert.Contains(t, v.Reason, "12345")
	})

	t.Run("unknown url is low", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"results":{"in_database":false}}`))
		}))
		defer srv.Close()

		c := NewPhishTankClient(PhishTankConfig{BaseURL: srv.URL})
		v, err := c.CheckURL(context.Background(), testURL)
		require.NoError(t, err)
		assert.Equal(t, entity.RiskLow, v.Tier)
	})

	t.Run("configured without app key", func(t *testing.T) {
		assert.True(t, NewPhishTankClient(PhishTankConfig{}).IsConfigured())
	})
}

func TestURLhausClient(t *testing.T) {
	t.Run("active urls are high", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "phish.example.com", r.PostForm.Get("host"))
			assert.Equal(t, "test-key", r.Header.Get("Auth-Key"))
			w.Write([]byte(`{"query_status":"ok","url_count":3,"urls":[{"url_status":"online"},{"url_status":"offline"}]}`))
		}))
		defer srv.Close()

		c := NewURLhausClient(URLhausConfig{APIKey: "test-key", BaseURL: srv.URL + "/"})
		v, err := c.CheckURL(context.Background(), testURL)
		require.NoError(t, err)
		assert.Equal(t, entity.RiskHigh, v.Tier)
	})

	t.Run("historical entries only are medium", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"query_status":"ok","url_count":2,"urls":[{"url_status":"offline"},{"url_status":"offline"}]}`))
		}))
		defer srv.Close()

		c := NewURLhausClient(URLhausConfig{APIKey: "test-key", BaseURL: srv.URL + "/"})
		v, err := c.CheckURL(context.Background(), testURL)
		require.NoError(t, err)
		assert.Equal(t, entity.RiskMedium, v.Tier)
	})

	t.Run("unknown host is low", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"query_status":"no_results"}`))
		}))
		defer srv.Close()

		c := NewURLhausClient(URLhausConfig{APIKey: "test-key", BaseURL: srv.URL + "/"})
		v, err := c.CheckURL(context.Background(), testURL)
		require.NoError(t, err)
		assert.Equal(t, entity.RiskLow, v.Tier)
	})
}
