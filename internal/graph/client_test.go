package graph

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaign-launcher/internal/observability"
	"campaign-launcher/internal/payload"
)

func TestCreateCampaign_Success(t *testing.T) {
	var gotPath string
	var gotForm url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		gotForm, _ = url.ParseQuery(string(body))
		_, _ = w.Write([]byte(`{"id":"120001"}`))
	}))
	defer srv.Close()

	before := testutil.ToFloat64(observability.APIRequests.WithLabelValues("campaign", "200"))

	c := New(Config{BaseURL: srv.URL + "/", APIVersion: "v21.0", AccessToken: "tok"}, srv.Client())
	id, err := c.CreateCampaign(context.Background(), payload.BuildCampaignRequest("42", "AND_DC_x", "OUTCOME_APP_PROMOTION"))
	require.NoError(t, err)
	assert.Equal(t, "120001", id)
	assert.Equal(t, "/v21.0/act_42/campaigns", gotPath)
	assert.Equal(t, "tok", gotForm.Get("access_token"))
	assert.Equal(t, "PAUSED", gotForm.Get("status"))
	assert.Equal(t, before+1, testutil.ToFloat64(observability.APIRequests.WithLabelValues("campaign", "200")))
}

func TestCreateAdSet_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "api error",
			status: http.StatusBadRequest,
			body:   `{"error":{"message":"Invalid parameter"}}`,
			check: func(t *testing.T, err error) {
				var apiErr *APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
				assert.Equal(t, "adset", apiErr.Object)
				assert.Contains(t, apiErr.Body, "Invalid parameter")
			},
		},
		{
			name:   "missing id",
			status: http.StatusOK,
			body:   `{"success":true}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrMissingID)
			},
		},
		{
			name:   "not json",
			status: http.StatusOK,
			body:   `<html>`,
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "decode adset response")
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v21.0/act_42/adsets", r.URL.Path)
				assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := New(Config{BaseURL: srv.URL, APIVersion: "v21.0", AccessToken: "tok"}, srv.Client())
			_, err := c.CreateAdSet(context.Background(), payload.AdSetRequest{AccountID: "42", Name: "n"})
			tc.check(t, err)
		})
	}
}

func TestCreate_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"1"}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := New(Config{BaseURL: srv.URL, APIVersion: "v21.0"}, nil)
	_, err := c.CreateCampaign(ctx, payload.BuildCampaignRequest("42", "n", "o"))
	assert.ErrorIs(t, err, context.Canceled)
}
