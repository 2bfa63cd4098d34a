package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaign-launcher/internal/config"
	"campaign-launcher/internal/dictionary"
	"campaign-launcher/internal/geo"
)

func bundle(t *testing.T, tiers ...geo.TierEntry) *dictionary.Bundle {
	t.Helper()
	tbl, err := geo.NewTable(tiers)
	require.NoError(t, err)
	return &dictionary.Bundle{
		Projects: map[string]dictionary.Project{
			"DuoChat": {Alias: "DC", CampaignObjective: "App promotion", AccountNames: []string{"Duo"}},
		},
		Accounts:   map[string]string{"Duo": "42"},
		Objectives: map[string]string{"App promotion": "OUTCOME_APP_PROMOTION"},
		Tiers:      tbl,
	}
}

func preview(t *testing.T, h http.Handler, tier string) int {
	t.Helper()
	body := `{"project":"DuoChat","gender":"M","age":"18-65+","budget":10,"bid":0.3,"tiers":["` + tier + `"]}`
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/campaigns/preview", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)
	return strings.Count(w.Body.String(), `"error"`)
}

func TestReload_SwapsDictionaries(t *testing.T) {
	var cfg config.Config
	cfg.Dictionaries.Dir = "dicts"

	s := New(cfg, bundle(t, geo.TierEntry{Key: "Tier1", Countries: []string{"US"}}))
	h := s.Handler()
	assert.Equal(t, 1, preview(t, h, "LatAm"))

	s.load = func(dir string) (*dictionary.Bundle, error) {
		assert.Equal(t, "dicts", dir)
		return bundle(t, geo.TierEntry{Key: "LatAm", Countries: []string{"BR"}}), nil
	}
	require.NoError(t, s.Reload())
	assert.Equal(t, 0, preview(t, h, "LatAm"), "handler sees the new bundle")

	s.load = func(string) (*dictionary.Bundle, error) { return nil, errors.New("broken file") }
	assert.Error(t, s.Reload())
	assert.Equal(t, 0, preview(t, h, "LatAm"), "old bundle kept on error")
}

func TestHandler_Health(t *testing.T) {
	s := New(config.Config{}, bundle(t, geo.TierEntry{Key: "Tier1", Countries: []string{"US"}}))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
