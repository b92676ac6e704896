// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package directory

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatspaces/internal/model"
)

const sampleResponse = `[
	{"name": "Åland Islands", "callingCodes": ["358"]},
	{"name": "India", "callingCodes": ["91"]},
	{"name": "Antarctica", "callingCodes": [""]},
	{"name": "Bouvet Island", "callingCodes": []},
	{"name": "Afghanistan", "callingCodes": ["93"]},
	{"name": "United States of America", "callingCodes": ["1"]}
]`

func TestCountriesParsesAndSorts(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, zerolog.Nop())
	countries, err := client.Countries(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []Country{
		{Name: "Afghanistan", CallingCode: "+93"},
		{Name: "Åland Islands", CallingCode: "+358"},
		{Name: "India", CallingCode: "+91"},
		{Name: "United States of America", CallingCode: "+1"},
	}, countries)
	assert.Equal(t, 2, DefaultIndex(countries))

	_, err = client.Countries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load(), "result is memoised")
}

func TestCountriesFallsBackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, zerolog.Nop())
	countries, err := client.Countries(context.Background())

	require.Error(t, err)
	var fetchErr *model.DirectoryFetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, srv.URL, fetchErr.URL)
	assert.Equal(t, Fallback(), countries)
	assert.Equal(t, "+91", countries[DefaultIndex(countries)].CallingCode)
}

func TestCountriesFallsBackOnBadPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"name":"Nowhere","callingCodes":[]}]`))
	}))
	defer srv.Close()

	countries, err := NewClient(srv.URL, time.Second, zerolog.Nop()).Countries(context.Background())
	assert.Error(t, err)
	assert.Equal(t, Fallback(), countries)
}

func TestCountriesUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	countries, err := NewClient(url, 200*time.Millisecond, zerolog.Nop()).Countries(context.Background())
	assert.Error(t, err)
	assert.Len(t, countries, 3)
}

func TestCountriesRetriesAfterCanceledCall(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, zerolog.Nop())
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	countries, err := client.Countries(canceled)
	assert.Error(t, err)
	assert.Equal(t, Fallback(), countries)

	countries, err = client.Countries(context.Background())
	require.NoError(t, err)
	assert.Len(t, countries, 4)

	_, err = client.Countries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load(), "a completed fetch is reused")
}

func TestCountriesSharesInFlightRequest(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, zerolog.Nop())
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			countries, err := client.Countries(context.Background())
			assert.NoError(t, err)
			assert.Len(t, countries, 4)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), hits.Load())
}

func TestDefaultIndexWithoutIndia(t *testing.T) {
	assert.Equal(t, 0, DefaultIndex([]Country{{Name: "France", CallingCode: "+33"}}))
	assert.Equal(t, 0, DefaultIndex(nil))
}

func TestCountryLabel(t *testing.T) {
	assert.Equal(t, "India (+91)", Country{Name: "India", CallingCode: "+91"}.Label())
}
