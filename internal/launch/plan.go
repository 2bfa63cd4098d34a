package launch

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"campaign-launcher/internal/campaign"
	"campaign-launcher/internal/dictionary"
	"campaign-launcher/internal/fallback"
	"campaign-launcher/internal/geo"
	"campaign-launcher/internal/naming"
	"campaign-launcher/internal/payload"
)

var (
	ErrBidRequired = errors.New("bid is required for this bid strategy")
	ErrNoAudience  = errors.New("no tier or countries selected")
	ErrBadBudget   = errors.New("daily budget must be positive")

	ErrAmbiguousAudience = errors.New("choose only one of tiers, countries or all tiers")
)

// AllLanguages is the language token used when no language is targeted.
const AllLanguages = "ALL"

// Request is the operator's intent for one batch.
type Request struct {
	Project     string
	OS          campaign.OS
	Gender      campaign.Gender
	Age         campaign.AgeRange
	Budget      float64
	Bid         float64
	Tiers       []string
	AllTiers    bool
	Countries   []string
	OptModel    campaign.OptModel
	Event       string // operator event name, e.g. "4 sessions"
	BidStrategy campaign.BidStrategy
	Language    string // operator language name, e.g. "Spanish"
	BudgetMode  campaign.BudgetMode
	Author      string
	Account     string
	Date        time.Time
}

// Behavior switches what used to differ between separate launch scripts.
type Behavior struct {
	EnableFallback   bool
	UseTargetingSpec bool
	ApplyLocales     bool
}

// Item is one campaign of a batch. Err is set when its audience could not be
// resolved; such items are shown but never submitted.
type Item struct {
	Selector  string
	Targeting geo.Resolved
	Attrs     campaign.Attributes
	Name      string
	Err       error
}

type Plan struct {
	Request     Request
	Behavior    Behavior
	Project     dictionary.Project
	AccountName string
	AccountID   string
	Objective   string
	EventCode   string
	EventType   string
	LangCode    string
	Locales     []int
	Items       []Item
}

// Ready returns the items that can be submitted.
func (p *Plan) Ready() []Item {
	var out []Item
	for _, it := range p.Items {
		if it.Err == nil {
			out = append(out, it)
		}
	}
	return out
}

func (p *Plan) CampaignRequest(it Item) payload.CampaignRequest {
	return payload.BuildCampaignRequest(p.AccountID, it.Name, p.Objective)
}

func (p *Plan) AdSetParams(it Item) payload.AdSetParams {
	return payload.AdSetParams{
		Targeting:        it.Targeting,
		DailyBudget:      p.Request.Budget,
		BidAmount:        p.Request.Bid,
		OptModel:         p.Request.OptModel,
		BidStrategy:      p.Request.BidStrategy,
		CustomEventType:  p.EventType,
		EventCode:        p.EventCode,
		StoreURL:         p.Project.ObjectStoreURL,
		ApplicationID:    p.Project.AppID(),
		Age:              p.Request.Age,
		Gender:           p.Request.Gender,
		OS:               p.Request.OS,
		Locales:          p.Locales,
		UseTargetingSpec: p.Behavior.UseTargetingSpec,
	}
}

func (p *Plan) AdSetRequest(it Item, campaignID string) (payload.AdSetRequest, error) {
	return payload.BuildAdSetRequest(p.AccountID, campaignID, it.Name, p.AdSetParams(it))
}

// FallbackInput carries the amounts of req, the request that was (or would
// have been) sent, so the record matches it.
func (p *Plan) FallbackInput(it Item, req payload.AdSetRequest) fallback.Input {
	in := fallback.Input{
		Name:            it.Name,
		Targeting:       it.Targeting,
		Attrs:           it.Attrs,
		Project:         p.Project,
		DailyBudget:     req.DailyBudget,
		CustomEventType: p.EventType,
		Locales:         req.Targeting.Locales,
	}
	if req.BidAmount != nil {
		in.BidAmount = *req.BidAmount
	}
	return in
}

// Planner resolves and names every campaign of a request without I/O.
type Planner struct {
	bundle   *dictionary.Bundle
	resolver *geo.Resolver
	behavior Behavior
}

func NewPlanner(b *dictionary.Bundle, behavior Behavior) *Planner {
	return &Planner{bundle: b, resolver: b.Resolver(), behavior: behavior}
}

// Plan fails on anything every item depends on (project, account, event,
// language, bid); audience problems are recorded per item.
func (pl *Planner) Plan(req Request) (*Plan, error) {
	if req.Budget <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrBadBudget, req.Budget)
	}
	if req.BidStrategy.RequiresBid() && req.Bid <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrBidRequired, req.BidStrategy)
	}

	project, err := pl.bundle.Project(req.Project)
	if err != nil {
		return nil, err
	}
	p := &Plan{Request: req, Behavior: pl.behavior, Project: project, LangCode: AllLanguages}
	if p.AccountName, p.AccountID, err = pl.bundle.Account(project, req.Account); err != nil {
		return nil, err
	}
	if p.Objective, err = pl.bundle.Objective(project.CampaignObjective); err != nil {
		return nil, err
	}

	if req.Event != "" {
		if !req.OptModel.EventDriven() {
			return nil, fmt.Errorf("%w: %s with %s", campaign.ErrEventNotAllowed, req.Event, req.OptModel)
		}
		if p.EventCode, err = pl.bundle.EventCode(req.Event); err != nil {
			return nil, err
		}
		if p.EventType, err = pl.bundle.EventType(p.EventCode); err != nil {
			return nil, err
		}
	}
	if req.Language != "" {
		if p.LangCode, err = pl.bundle.Language(req.Language); err != nil {
			return nil, err
		}
		if pl.behavior.ApplyLocales {
			p.Locales = pl.bundle.LocaleIDs(p.LangCode)
		}
	}

	selectors, err := pl.selectors(req)
	if err != nil {
		return nil, err
	}
	for _, s := range selectors {
		p.Items = append(p.Items, pl.item(p, s))
	}
	return p, nil
}

type selection struct {
	label string
	sel   geo.Selector
}

func (pl *Planner) selectors(req Request) ([]selection, error) {
	set := 0
	for _, on := range []bool{req.AllTiers, len(req.Countries) > 0, len(req.Tiers) > 0} {
		if on {
			set++
		}
	}
	if set > 1 {
		return nil, ErrAmbiguousAudience
	}
	switch {
	case req.AllTiers:
		var out []selection
		for _, k := range pl.resolver.Tiers() {
			out = append(out, selection{label: k, sel: geo.ByTier{Tier: k}})
		}
		return out, nil
	case len(req.Countries) > 0:
		return []selection{{label: strings.Join(req.Countries, ","), sel: geo.ByCountries{Countries: req.Countries}}}, nil
	case len(req.Tiers) > 0:
		out := make([]selection, 0, len(req.Tiers))
		for _, t := range req.Tiers {
			sel, err := geo.ParseSelector(t, nil)
			if err != nil {
				return nil, err
			}
			out = append(out, selection{label: t, sel: sel})
		}
		return out, nil
	}
	return nil, ErrNoAudience
}

func (pl *Planner) item(p *Plan, s selection) Item {
	it := Item{Selector: s.label}
	it.Targeting, it.Err = pl.resolver.Resolve(s.sel)
	if it.Err != nil {
		return it
	}
	req := p.Request
	it.Attrs = campaign.Attributes{
		OS:              req.OS,
		Project:         p.Project.Alias,
		TierLabel:       it.Targeting.Label,
		NamingCountries: it.Targeting.NamingCountries,
		Gender:          req.Gender,
		Age:             req.Age,
		OptModel:        req.OptModel,
		Event:           p.EventCode,
		Date:            campaign.DateStamp(req.Date),
		Author:          req.Author,
		BudgetMode:      req.BudgetMode,
		BidStrategy:     req.BidStrategy,
		Language:        p.LangCode,
		Extra:           p.AccountName,
	}
	if it.Err = it.Attrs.Validate(); it.Err != nil {
		return it
	}
	it.Name = naming.Compose(it.Attrs)
	return it
}
