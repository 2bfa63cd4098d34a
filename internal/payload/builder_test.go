package payload

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaign-launcher/internal/campaign"
	"campaign-launcher/internal/geo"
)

func resolver(t *testing.T, groups map[string][]string) *geo.Resolver {
	t.Helper()
	tbl, err := geo.NewTable([]geo.TierEntry{
		{Key: "Tier1", Countries: []string{"US", "CA", "GB"}},
		{Key: "LatAm", Countries: []string{"BR", "MX"}},
		{Key: "Asia", Countries: []string{"TW", "JP", "RU"}},
	})
	require.NoError(t, err)
	return geo.NewResolver(tbl, groups)
}

func params(t *testing.T, res geo.Resolved) AdSetParams {
	t.Helper()
	age, err := campaign.ParseAgeRange("18-65+")
	require.NoError(t, err)
	return AdSetParams{
		Targeting:       res,
		DailyBudget:     50,
		BidAmount:       0.30,
		OptModel:        campaign.OptCPA,
		BidStrategy:     campaign.BidCap,
		CustomEventType: "OTHER",
		EventCode:       "session_started_4",
		StoreURL:        "https://play.google.com/store/apps/details?id=com.duo",
		ApplicationID:   "123456",
		Age:             age,
		Gender:          campaign.GenderMale,
		OS:              campaign.OSAndroid,
	}
}

func TestBuildCampaignRequest(t *testing.T) {
	req := BuildCampaignRequest("42", "AND_DC_x", "OUTCOME_APP_PROMOTION")
	assert.Equal(t, StatusPaused, req.Status)
	assert.Equal(t, []string{NoSpecialCategory}, req.SpecialAdCategories)

	form, err := req.Form()
	require.NoError(t, err)
	assert.Equal(t, `["NONE"]`, form.Get("special_ad_categories"))
	assert.Equal(t, "OUTCOME_APP_PROMOTION", form.Get("objective"))
}

// Worldwide selection with TW in the table.
func TestBuildAdSet_WorldwideRegulated(t *testing.T) {
	res, err := resolver(t, nil).Resolve(geo.Everywhere{})
	require.NoError(t, err)
	assert.NotContains(t, res.Countries, "RU")

	req, err := BuildAdSetRequest("42", "c1", "n", params(t, res))
	require.NoError(t, err)
	assert.Equal(t, []string{"TAIWAN_UNIVERSAL", "SINGAPORE_UNIVERSAL"}, req.RegionalRegulatedCategories)
	assert.Equal(t, GeoLocations{CountryGroups: []string{WorldwideGroup}}, req.Targeting.GeoLocations)
	require.NotNil(t, req.Targeting.ExcludedGeoLocations)
	assert.Equal(t, geo.Restricted, req.Targeting.ExcludedGeoLocations.Countries)
}

// Event-driven model with a capped bid.
func TestBuildAdSet_EventAndBid(t *testing.T) {
	res, err := resolver(t, nil).Resolve(geo.ByTier{Tier: "Latam"})
	require.NoError(t, err)

	req, err := BuildAdSetRequest("42", "c1", "n", params(t, res))
	require.NoError(t, err)
	assert.Equal(t, "OTHER", req.PromotedObject.CustomEventType)
	assert.Equal(t, "4_sessions", req.PromotedObject.CustomEventStr)
	require.NotNil(t, req.BidAmount)
	assert.Equal(t, int64(30), *req.BidAmount)
	assert.Equal(t, int64(5000), req.DailyBudget)
	assert.Equal(t, "LOWEST_COST_WITH_BID_CAP", req.BidStrategy)
	assert.Equal(t, "OFFSITE_CONVERSIONS", req.OptimizationGoal)
	assert.Equal(t, 1, req.Targeting.TargetingAutomation.AdvantageAudience)
	assert.Nil(t, req.RegionalRegulatedCategories)
}

func TestBuildAdSet_BidOnlyWhenCapped(t *testing.T) {
	res, err := resolver(t, nil).Resolve(geo.ByTier{Tier: "Tier1"})
	require.NoError(t, err)

	for _, b := range []campaign.BidStrategy{campaign.CostCap, campaign.LowestCost, campaign.AdImpression} {
		p := params(t, res)
		p.BidStrategy = b
		req, err := BuildAdSetRequest("42", "c1", "n", p)
		require.NoError(t, err)
		assert.Nil(t, req.BidAmount, b)
		_, ok := req.Body()["bid_amount"]
		assert.False(t, ok, b)
	}
}

// Value model forces the impression marker whatever event fields are set.
func TestBuildAdSet_ValueModel(t *testing.T) {
	res, err := resolver(t, nil).Resolve(geo.ByTier{Tier: "Tier1"})
	require.NoError(t, err)

	p := params(t, res)
	p.OptModel = campaign.OptTROAS
	req, err := BuildAdSetRequest("42", "c1", "n", p)
	require.NoError(t, err)
	assert.Equal(t, ValueEventMarker, req.PromotedObject.CustomEventType)
	assert.Empty(t, req.PromotedObject.CustomEventStr)
	assert.Equal(t, "VALUE", req.OptimizationGoal)

	p.OptModel = campaign.OptCPI
	p.CustomEventType, p.EventCode = "", ""
	req, err = BuildAdSetRequest("42", "c1", "n", p)
	require.NoError(t, err)
	assert.Empty(t, req.PromotedObject.CustomEventType)
	assert.Equal(t, "123456", req.PromotedObject.ApplicationID)
}

func TestBuildAdSet_Locales(t *testing.T) {
	res, err := resolver(t, nil).Resolve(geo.ByTier{Tier: "Tier1"})
	require.NoError(t, err)

	p := params(t, res)
	req, err := BuildAdSetRequest("42", "c1", "n", p)
	require.NoError(t, err)
	raw, err := json.Marshal(req.Targeting)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "locales")

	p.Locales = []int{6003, 6004}
	req, err = BuildAdSetRequest("42", "c1", "n", p)
	require.NoError(t, err)
	raw, err = json.Marshal(req.Targeting)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"locales":[6003,6004]`)
}

func TestBuildAdSet_CountryListRoundTrip(t *testing.T) {
	res, err := resolver(t, map[string][]string{"Tier1": {"t1"}}).Resolve(geo.ByCountries{Countries: []string{"MX", "US", "BR"}})
	require.NoError(t, err)
	require.Equal(t, geo.ModeCountryList, res.Mode())

	req, err := BuildAdSetRequest("42", "c1", "n", params(t, res))
	require.NoError(t, err)
	assert.Equal(t, GeoLocations{Countries: []string{"MX", "US", "BR"}}, req.Targeting.GeoLocations)
	assert.Nil(t, req.Targeting.ExcludedGeoLocations)
}

func TestBuildAdSet_TierGroups(t *testing.T) {
	res, err := resolver(t, map[string][]string{"LatAm": {"latam_a", "latam_b"}}).Resolve(geo.ByTier{Tier: "Latam"})
	require.NoError(t, err)

	req, err := BuildAdSetRequest("42", "c1", "n", params(t, res))
	require.NoError(t, err)
	assert.Equal(t, GeoLocations{CountryGroups: []string{"latam_a", "latam_b"}}, req.Targeting.GeoLocations)
	require.NotNil(t, req.Targeting.ExcludedGeoLocations)
}

func TestBuildAdSet_NoGeoMode(t *testing.T) {
	for _, res := range []geo.Resolved{
		{},
		{Geo: geo.GeoCountries{}},
		{Geo: geo.GeoGroups{}},
	} {
		_, err := BuildAdSetRequest("42", "c1", "n", params(t, res))
		assert.ErrorIs(t, err, ErrNoGeoMode)
	}
}

func TestAdSetRequest_TargetingField(t *testing.T) {
	res, err := resolver(t, nil).Resolve(geo.ByTier{Tier: "Tier1"})
	require.NoError(t, err)

	p := params(t, res)
	req, err := BuildAdSetRequest("42", "c1", "n", p)
	require.NoError(t, err)
	form, err := req.Form()
	require.NoError(t, err)
	assert.NotEmpty(t, form.Get(FieldTargeting))
	assert.Empty(t, form.Get(FieldTargetingSpec))
	assert.Equal(t, "30", form.Get("bid_amount"))

	p.UseTargetingSpec = true
	req, err = BuildAdSetRequest("42", "c1", "n", p)
	require.NoError(t, err)
	body := req.Body()
	assert.Contains(t, body, FieldTargetingSpec)
	assert.NotContains(t, body, FieldTargeting)
}

func TestMinorUnits(t *testing.T) {
	tests := []struct {
		in   float64
		want int64
	}{
		{50, 5000},
		{0.29, 29},
		{0.30, 30},
		{1.15, 115},
		{12.345, 1234},
		{0, 0},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, MinorUnits(tc.in), "%v", tc.in)
	}
}

func TestEventName(t *testing.T) {
	assert.Equal(t, "4_sessions", EventName("session_started_4"))
	assert.Equal(t, "custom_code", EventName("custom_code"))
}
