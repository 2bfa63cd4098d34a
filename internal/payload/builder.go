package payload

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"campaign-launcher/internal/campaign"
	"campaign-launcher/internal/geo"
)

// ErrNoGeoMode means the resolved targeting named no geography at all.
var ErrNoGeoMode = errors.New("no geo-targeting mode resolved")

// eventNames translates internal event codes into the platform's event names.
var eventNames = map[string]string{
	"ad_displayed_20":   "20_ads_view",
	"ad_displayed_40":   "40_ads_view",
	"ad_displayed_80":   "80_ads_view",
	"session_started_3": "3_sessions",
	"session_started_4": "4_sessions",
	"session_started_5": "5_sessions",
}

// EventName falls through to the raw code when untranslated.
func EventName(code string) string {
	if n, ok := eventNames[code]; ok {
		return n
	}
	return code
}

// MinorUnits converts a decimal currency amount to cents, truncating
// fractions of a cent. The amount is first snapped to 1e-6 so binary
// float noise (0.29*100 = 28.999...) cannot lose a cent.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount*1e6) / 1e4)
}

func BuildCampaignRequest(accountID, name, objective string) CampaignRequest {
	return CampaignRequest{
		AccountID:           accountID,
		Name:                name,
		Objective:           objective,
		Status:              StatusPaused,
		SpecialAdCategories: []string{NoSpecialCategory},
	}
}

// AdSetParams is everything the ad-set request is built from.
type AdSetParams struct {
	Targeting   geo.Resolved
	DailyBudget float64
	BidAmount   float64
	OptModel    campaign.OptModel
	BidStrategy campaign.BidStrategy
	// CustomEventType and EventCode are only used by event-driven models.
	CustomEventType string
	EventCode       string
	StoreURL        string
	// ApplicationID must already be stripped of any "x:" prefix.
	ApplicationID    string
	Age              campaign.AgeRange
	Gender           campaign.Gender
	OS               campaign.OS
	Locales          []int
	UseTargetingSpec bool
}

func BuildAdSetRequest(accountID, campaignID, name string, p AdSetParams) (AdSetRequest, error) {
	geoLoc, err := geoLocations(p.Targeting.Geo)
	if err != nil {
		return AdSetRequest{}, fmt.Errorf("ad set %s: %w", name, err)
	}

	req := AdSetRequest{
		AccountID:                   accountID,
		Name:                        name,
		CampaignID:                  campaignID,
		DailyBudget:                 MinorUnits(p.DailyBudget),
		BillingEvent:                BillingImpressions,
		OptimizationGoal:            p.OptModel.Goal(),
		BidStrategy:                 p.BidStrategy.APICode(),
		Status:                      StatusPaused,
		RegionalRegulatedCategories: p.Targeting.RegulatedCategories(),
		PromotedObject:              promotedObject(p),
		TargetingField:              FieldTargeting,
	}
	if p.UseTargetingSpec {
		req.TargetingField = FieldTargetingSpec
	}
	if p.BidStrategy.Capped() && p.BidAmount > 0 {
		bid := MinorUnits(p.BidAmount)
		req.BidAmount = &bid
	}

	req.Targeting = Targeting{
		GeoLocations:        geoLoc,
		AgeMin:              p.Age.Min,
		AgeMax:              p.Age.Max,
		Genders:             p.Gender.Codes(),
		UserOS:              []string{p.OS.UserOS()},
		TargetingAutomation: TargetingAutomation{AdvantageAudience: 1},
	}
	if len(p.Targeting.Excluded) > 0 {
		req.Targeting.ExcludedGeoLocations = &GeoLocations{Countries: slices.Clone(p.Targeting.Excluded)}
	}
	// An empty locale list means all languages and must not be sent.
	if len(p.Locales) > 0 {
		req.Targeting.Locales = slices.Clone(p.Locales)
	}
	return req, nil
}

func geoLocations(g geo.Geo) (GeoLocations, error) {
	switch v := g.(type) {
	case geo.GeoWorldwide:
		return GeoLocations{CountryGroups: []string{WorldwideGroup}}, nil
	case geo.GeoGroups:
		if len(v.Keys) > 0 {
			return GeoLocations{CountryGroups: slices.Clone(v.Keys)}, nil
		}
	case geo.GeoCountries:
		if len(v.Countries) > 0 {
			return GeoLocations{Countries: slices.Clone(v.Countries)}, nil
		}
	}
	return GeoLocations{}, ErrNoGeoMode
}

func promotedObject(p AdSetParams) PromotedObject {
	po := PromotedObject{
		ObjectStoreURL: p.StoreURL,
		ApplicationID:  p.ApplicationID,
	}
	switch {
	case p.OptModel.ValueBased():
		po.CustomEventType = ValueEventMarker
	case p.CustomEventType != "" && p.EventCode != "":
		po.CustomEventType = p.CustomEventType
		po.CustomEventStr = EventName(p.EventCode)
	}
	return po
}
