package facts

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRDAPDomainAge(t *testing.T) {
	registered := time.Now().UTC().AddDate(0, 0, -12)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fresh.example", r.URL.Path)
		fmt.Fprintf(w, `{"events":[
			{"eventAction":"last changed","eventDate":"2026-01-01T00:00:00Z"},
			{"eventAction":"registration","eventDate":%q}
		]}`, registered.Format(time.RFC3339))
	}))
	defer srv.Close()

	c := NewRDAPClient(srv.URL+"/", 0)
	facts, err := c.DomainAge(context.Background(), "fresh.example")
	require.NoError(t, err)
	assert.True(t, facts.Known)
	assert.InDelta(t, 12, facts.AgeDays, 1)
	assert.False(t, facts.WhoisHidden)
}

func TestRDAPDetectsPrivacyShield(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"events":[{"eventAction":"registration","eventDate":"2010-06-01T00:00:00Z"}],
			"entities":[{"vcardArray":["vcard",[["fn",{},"text","REDACTED FOR PRIVACY"]]]}]}`))
	}))
	defer srv.Close()

	c := NewRDAPClient(srv.URL+"/", 0)
	facts, err := c.DomainAge(context.Background(), "shielded.example")
	require.NoError(t, err)
	assert.True(t, facts.Known)
	assert.True(t, facts.WhoisHidden)
	assert.Greater(t, facts.AgeDays, 3650)
}

func TestRDAPUnknownDomain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewRDAPClient(srv.URL+"/", 0)
	facts, err := c.DomainAge(context.Background(), "unregistered.example")
	require.NoError(t, err)
	assert.False(t, facts.Known)
}

func TestRDAPServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewRDAPClient(srv.URL+"/", 0)
	_, err := c.DomainAge(context.Background(), "any.example")
	assert.Error(t, err)
}
