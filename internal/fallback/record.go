// Package fallback renders a campaign that could not be created remotely as a
// bulk-import row for manual upload. The row is a second, independent
// rendering of the same resolved state the request builder used.
package fallback

import (
	"fmt"
	"strconv"
	"strings"

	"campaign-launcher/internal/campaign"
	"campaign-launcher/internal/dictionary"
	"campaign-launcher/internal/geo"
	"campaign-launcher/internal/payload"
)

var localeNames = map[int]string{
	6003: "English (US)",
	6004: "English (UK)",
	6005: "Spanish",
	6006: "Portuguese",
	6007: "French",
	6008: "German",
}

var bidStrategyNames = map[campaign.BidStrategy]string{
	campaign.BidCap:       "Bid cap",
	campaign.CostCap:      "Cost per result goal",
	campaign.LowestCost:   "Lower cost",
	campaign.AdImpression: "Ad impression",
}

const clickThroughAttribution = `[{"event_type":"CLICK_THROUGH","window_days":7}]`

// Input is the resolved state a record is rendered from. Amounts are in
// minor units, exactly as they would have been sent.
type Input struct {
	Name            string
	Targeting       geo.Resolved
	Attrs           campaign.Attributes
	Project         dictionary.Project
	DailyBudget     int64
	BidAmount       int64 // 0 when no bid was sent
	CustomEventType string
	Locales         []int
}

// Record maps template column names to values.
type Record map[string]string

// Build never fails; missing optional values render empty.
func Build(in Input) Record {
	countries := in.Targeting.Countries
	ben, pay := in.Project.Beneficiary, in.Project.Payer

	r := Record{
		"Campaign Name":                 in.Name,
		"Ad Set Name":                   in.Name,
		"Campaign Status":               payload.StatusPaused,
		"Ad Set Run Status":             "ACTIVE",
		"Campaign Objective":            orDefault(in.Project.CampaignObjective, "App promotion"),
		"Ad Set Daily Budget":           Decimal(in.DailyBudget),
		"Countries":                     strings.Join(countries, ","),
		"Excluded Countries":            strings.Join(in.Targeting.Excluded, ","),
		"Geo Mode":                      in.Targeting.Mode().String(),
		"Country Groups":                countryGroups(in.Targeting.Geo),
		"Gender":                        GenderWords(in.Attrs.Gender.Codes()),
		"Age Min":                       strconv.Itoa(in.Attrs.Age.Min),
		"Age Max":                       strconv.Itoa(in.Attrs.Age.Max),
		"Locales":                       LocaleNames(in.Locales),
		"Optimization Goal":             in.Attrs.OptModel.Goal(),
		"Billing Event":                 payload.BillingImpressions,
		"Bid Amount":                    "",
		"Ad Set Bid Strategy":           bidStrategyNames[in.Attrs.BidStrategy],
		"Link Object ID":                in.Project.LinkObjectID,
		"Custom Event Type":             "",
		"Custom Event Name":             "",
		"Application ID":                in.Project.ApplicationID,
		"Object Store URL":              in.Project.ObjectStoreURL,
		"Beneficiary":                   ben.For(countries),
		"Payer":                         pay.For(countries),
		"Regional Regulated Categories": strings.Join(in.Targeting.RegulatedCategories(), ","),
		"Beneficiary (financial ads in Australia)": ben.Australia,
		"Payer (financial ads in Australia)":       pay.Australia,
		"Beneficiary (financial ads in Taiwan)":    ben.Taiwan,
		"Payer (financial ads in Taiwan)":          pay.Taiwan,
		"Beneficiary (Taiwan)":                     ben.Taiwan,
		"Payer (Taiwan)":                           pay.Taiwan,
		"Beneficiary (Singapore)":                  ben.Singapore,
		"Payer (Singapore)":                        pay.Singapore,
		"User Operating System":                    in.Attrs.OS.DisplayName(),
		"Device Platforms":                         in.Attrs.OS.DevicePlatforms(),
		"Destination Type":                         "APP",
		"Advantage Audience":                       "Yes",
		"Location Types":                           "home, recent",
		"Brand Safety Inventory Filtering Levels":  "FACEBOOK_RELAXED, AN_RELAXED",
		"Attribution Spec":                         "",
	}
	if in.BidAmount > 0 {
		r["Bid Amount"] = Decimal(in.BidAmount)
	}

	switch {
	case in.Attrs.OptModel.ValueBased():
		r["Custom Event Type"] = payload.ValueEventMarker
	case in.CustomEventType != "" && in.Attrs.Event != "":
		r["Custom Event Type"] = in.CustomEventType
		r["Custom Event Name"] = payload.EventName(in.Attrs.Event)
	}
	if in.Attrs.OptModel.EventDriven() {
		r["Attribution Spec"] = clickThroughAttribution
	}
	return r
}

// Decimal renders minor units as a two-decimal amount.
func Decimal(minor int64) string {
	sign := ""
	if minor < 0 {
		sign, minor = "-", -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}

// GenderWords renders platform gender codes; both genders is left empty.
func GenderWords(codes []int) string {
	if len(codes) != 1 {
		return ""
	}
	switch codes[0] {
	case 1:
		return "Men"
	case 2:
		return "Women"
	}
	return ""
}

func LocaleNames(ids []int) string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		n, ok := localeNames[id]
		if !ok {
			n = fmt.Sprintf("Locale %d", id)
		}
		names = append(names, n)
	}
	return strings.Join(names, ", ")
}

func countryGroups(g geo.Geo) string {
	switch v := g.(type) {
	case geo.GeoWorldwide:
		return payload.WorldwideGroup
	case geo.GeoGroups:
		return strings.Join(v.Keys, ",")
	}
	return ""
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
