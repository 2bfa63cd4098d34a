package payload

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

const (
	StatusPaused       = "PAUSED"
	BillingImpressions = "IMPRESSIONS"
	NoSpecialCategory  = "NONE"
	// ValueEventMarker is forced as the event type for value optimization.
	ValueEventMarker = "AD_IMPRESSION"
	// WorldwideGroup is the country-group key meaning "everywhere".
	WorldwideGroup = "worldwide"

	FieldTargeting     = "targeting"
	FieldTargetingSpec = "targeting_spec"
)

type CampaignRequest struct {
	AccountID           string   `json:"-"`
	Name                string   `json:"name"`
	Objective           string   `json:"objective"`
	Status              string   `json:"status"`
	SpecialAdCategories []string `json:"special_ad_categories"`
}

type AdSetRequest struct {
	AccountID                   string         `json:"-"`
	Name                        string         `json:"name"`
	CampaignID                  string         `json:"campaign_id"`
	DailyBudget                 int64          `json:"daily_budget"`
	BillingEvent                string         `json:"billing_event"`
	OptimizationGoal            string         `json:"optimization_goal"`
	BidStrategy                 string         `json:"bid_strategy"`
	BidAmount                   *int64         `json:"bid_amount,omitempty"`
	Status                      string         `json:"status"`
	RegionalRegulatedCategories []string       `json:"regional_regulated_categories,omitempty"`
	PromotedObject              PromotedObject `json:"promoted_object"`
	// Targeting is sent under TargetingField.
	Targeting      Targeting `json:"-"`
	TargetingField string    `json:"-"`
}

type PromotedObject struct {
	CustomEventType string `json:"custom_event_type,omitempty"`
	CustomEventStr  string `json:"custom_event_str,omitempty"`
	ObjectStoreURL  string `json:"object_store_url"`
	ApplicationID   string `json:"application_id"`
}

type Targeting struct {
	GeoLocations         GeoLocations        `json:"geo_locations"`
	ExcludedGeoLocations *GeoLocations       `json:"excluded_geo_locations,omitempty"`
	AgeMin               int                 `json:"age_min"`
	AgeMax               int                 `json:"age_max"`
	Genders              []int               `json:"genders"`
	UserOS               []string            `json:"user_os"`
	Locales              []int               `json:"locales,omitempty"`
	TargetingAutomation  TargetingAutomation `json:"targeting_automation"`
}

// GeoLocations carries one of: Countries, or CountryGroups (which holds
// "worldwide" for worldwide requests).
type GeoLocations struct {
	Countries     []string `json:"countries,omitempty"`
	CountryGroups []string `json:"country_groups,omitempty"`
}

type TargetingAutomation struct {
	AdvantageAudience int `json:"advantage_audience"`
}

// Form encodes the campaign request as the platform expects: scalar fields
// verbatim, lists JSON-encoded.
func (r CampaignRequest) Form() (url.Values, error) {
	cats, err := json.Marshal(r.SpecialAdCategories)
	if err != nil {
		return nil, fmt.Errorf("encode special_ad_categories: %w", err)
	}
	v := url.Values{}
	v.Set("name", r.Name)
	v.Set("objective", r.Objective)
	v.Set("status", r.Status)
	v.Set("special_ad_categories", string(cats))
	return v, nil
}

// Form encodes the ad-set request with nested objects JSON-encoded.
func (r AdSetRequest) Form() (url.Values, error) {
	v := url.Values{}
	v.Set("name", r.Name)
	v.Set("campaign_id", r.CampaignID)
	v.Set("daily_budget", strconv.FormatInt(r.DailyBudget, 10))
	v.Set("billing_event", r.BillingEvent)
	v.Set("optimization_goal", r.OptimizationGoal)
	v.Set("bid_strategy", r.BidStrategy)
	v.Set("status", r.Status)
	if r.BidAmount != nil {
		v.Set("bid_amount", strconv.FormatInt(*r.BidAmount, 10))
	}
	if len(r.RegionalRegulatedCategories) > 0 {
		if err := setJSON(v, "regional_regulated_categories", r.RegionalRegulatedCategories); err != nil {
			return nil, err
		}
	}
	if err := setJSON(v, "promoted_object", r.PromotedObject); err != nil {
		return nil, err
	}
	if err := setJSON(v, r.targetingField(), r.Targeting); err != nil {
		return nil, err
	}
	return v, nil
}

// Body is the request as a JSON object, targeting placed under its field.
func (r AdSetRequest) Body() map[string]any {
	b := map[string]any{
		"name":              r.Name,
		"campaign_id":       r.CampaignID,
		"daily_budget":      r.DailyBudget,
		"billing_event":     r.BillingEvent,
		"optimization_goal": r.OptimizationGoal,
		"bid_strategy":      r.BidStrategy,
		"status":            r.Status,
		"promoted_object":   r.PromotedObject,
		r.targetingField():  r.Targeting,
	}
	if r.BidAmount != nil {
		b["bid_amount"] = *r.BidAmount
	}
	if len(r.RegionalRegulatedCategories) > 0 {
		b["regional_regulated_categories"] = r.RegionalRegulatedCategories
	}
	return b
}

func (r AdSetRequest) targetingField() string {
	if r.TargetingField == "" {
		return FieldTargeting
	}
	return r.TargetingField
}

func setJSON(v url.Values, key string, x any) error {
	raw, err := json.Marshal(x)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	v.Set(key, string(raw))
	return nil
}
