package geodata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("geoip payload"))
	}))
	defer srv.Close()

	data, err := NewFetcher(0).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, []byte("geoip payload"), data)
}

func TestFetcher_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewFetcher(0).Fetch(context.Background(), srv.URL)
	var ferr *FetchError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, srv.URL, ferr.URL)
}

func TestFetcher_RespectsContextCancellation(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewFetcher(time.Minute).Fetch(ctx, srv.URL)
	var ferr *FetchError
	require.ErrorAs(t, err, &ferr)
}

func TestFetcher_UnreachableHost(t *testing.T) {
	_, err := NewFetcher(500 * time.Millisecond).Fetch(context.Background(), "http://127.0.0.1:1/geoip.dat")
	var ferr *FetchError
	require.ErrorAs(t, err, &ferr)
}
