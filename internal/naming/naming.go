// Package naming composes the canonical campaign name. The name is shown to
// the operator, logged next to remote ids and used to name fallback files, so
// it must be a deterministic function of the campaign attributes.
package naming

import (
	"strings"

	"campaign-launcher/internal/campaign"
)

const Separator = "_"

// Compose renders
//
//	OS_PROJECT_TIER(countries?)_GENDER_AGE_OPTMODEL[EVENT?]_DATE_AUTHOR_BUDGETMODE_BIDSTRATEGY_LANG[_EXTRA?]
//
// Input is assumed validated.
func Compose(a campaign.Attributes) string {
	tier := a.TierLabel
	if len(a.NamingCountries) > 0 {
		tier += "(" + strings.Join(a.NamingCountries, ",") + ")"
	}

	model := string(a.OptModel)
	if a.OptModel.EventDriven() && a.Event != "" {
		model += "[" + a.Event + "]"
	}

	parts := []string{
		string(a.OS),
		a.Project,
		tier,
		string(a.Gender),
		a.Age.String(),
		model,
		a.Date,
		a.Author,
		string(a.BudgetMode),
		a.BidStrategy.Short(),
		a.Language,
	}
	if a.Extra != "" {
		parts = append(parts, a.Extra)
	}
	return strings.Join(parts, Separator)
}
