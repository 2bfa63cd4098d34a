package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"campaign-launcher/internal/cache"
	"campaign-launcher/internal/campaign"
	"campaign-launcher/internal/dictionary"
	"campaign-launcher/internal/launch"
)

// PreviewRequest mirrors the CLI flags of `launcher create`.
type PreviewRequest struct {
	Project     string   `json:"project"`
	OS          string   `json:"os"`
	Gender      string   `json:"gender"`
	Age         string   `json:"age"`
	Budget      float64  `json:"budget"`
	Bid         float64  `json:"bid"`
	Tiers       []string `json:"tiers"`
	AllTiers    bool     `json:"all_tiers"`
	Countries   []string `json:"countries"`
	OptModel    string   `json:"opt_model"`
	Event       string   `json:"event"`
	BidStrategy string   `json:"bid_strategy"`
	Language    string   `json:"language"`
	BudgetMode  string   `json:"budget_mode"`
	Author      string   `json:"author"`
	Account     string   `json:"account"`
}

type PreviewItem struct {
	Selector  string         `json:"selector"`
	Name      string         `json:"name,omitempty"`
	Tier      string         `json:"tier,omitempty"`
	GeoMode   string         `json:"geo_mode,omitempty"`
	Countries []string       `json:"countries,omitempty"`
	Campaign  any            `json:"campaign,omitempty"`
	AdSet     map[string]any `json:"adset,omitempty"`
	Error     string         `json:"error,omitempty"`
}

type PreviewHandler struct {
	Bundles  *cache.Snapshot[*dictionary.Bundle]
	Behavior launch.Behavior
	Author   string
	Now      func() time.Time
}

func NewPreviewHandler(bundles *cache.Snapshot[*dictionary.Bundle], behavior launch.Behavior, author string) *PreviewHandler {
	return &PreviewHandler{Bundles: bundles, Behavior: behavior, Author: author, Now: time.Now}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// Preview resolves, names and builds requests without calling the platform.
func (h *PreviewHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var in PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req, err := h.toRequest(in)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	bundle, ok := h.Bundles.Load()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, errors.New("dictionaries not loaded"))
		return
	}
	plan, err := launch.NewPlanner(bundle, h.Behavior).Plan(req)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, dictionary.ErrUnknownKey) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err)
		return
	}

	out := make([]PreviewItem, 0, len(plan.Items))
	for _, it := range plan.Items {
		pi := PreviewItem{Selector: it.Selector}
		if it.Err != nil {
			pi.Error = it.Err.Error()
			out = append(out, pi)
			continue
		}
		pi.Name = it.Name
		pi.Tier = it.Targeting.Label
		pi.GeoMode = it.Targeting.Mode().String()
		pi.Countries = it.Targeting.Countries
		pi.Campaign = plan.CampaignRequest(it)
		adSet, err := plan.AdSetRequest(it, "")
		if err != nil {
			log.Error().Err(err).Str("campaign", it.Name).Msg("preview ad set")
			pi.Error = err.Error()
		} else {
			pi.AdSet = adSet.Body()
		}
		out = append(out, pi)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *PreviewHandler) toRequest(in PreviewRequest) (launch.Request, error) {
	req := launch.Request{
		Project:   in.Project,
		Budget:    in.Budget,
		Bid:       in.Bid,
		Tiers:     in.Tiers,
		AllTiers:  in.AllTiers,
		Countries: in.Countries,
		Event:     in.Event,
		Language:  in.Language,
		Author:    in.Author,
		Account:   in.Account,
		Date:      h.Now(),
	}
	if req.Author == "" {
		req.Author = h.Author
	}
	var err error
	if req.OS, err = campaign.ParseOS(orDefault(in.OS, string(campaign.OSAndroid))); err != nil {
		return req, err
	}
	if req.Gender, err = campaign.ParseGender(in.Gender); err != nil {
		return req, err
	}
	if req.Age, err = campaign.ParseAgeRange(in.Age); err != nil {
		return req, err
	}
	if req.OptModel, err = campaign.ParseOptModel(orDefault(in.OptModel, string(campaign.OptCPA))); err != nil {
		return req, err
	}
	if req.BidStrategy, err = campaign.ParseBidStrategy(orDefault(in.BidStrategy, string(campaign.BidCap))); err != nil {
		return req, err
	}
	if req.BudgetMode, err = campaign.ParseBudgetMode(orDefault(in.BudgetMode, string(campaign.BudgetAdSet))); err != nil {
		return req, err
	}
	return req, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
