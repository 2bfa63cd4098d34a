package campaign

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidOS          = errors.New("invalid os")
	ErrInvalidGender      = errors.New("invalid gender")
	ErrInvalidAge         = errors.New("invalid age range")
	ErrInvalidOptModel    = errors.New("invalid optimization model")
	ErrInvalidBidStrategy = errors.New("invalid bid strategy")
	ErrInvalidBudgetMode  = errors.New("invalid budget mode")
	ErrEventNotAllowed    = errors.New("event is only valid for event-driven optimization")
)

// OS is the platform tag used in names ("AND" | "IOS").
type OS string

const (
	OSAndroid OS = "AND"
	OSIOS     OS = "IOS"
)

func ParseOS(s string) (OS, error) {
	switch OS(strings.ToUpper(strings.TrimSpace(s))) {
	case OSAndroid:
		return OSAndroid, nil
	case OSIOS:
		return OSIOS, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidOS, s)
}

// UserOS is the platform's user_os value.
func (o OS) UserOS() string {
	if o == OSIOS {
		return "ios"
	}
	return "android"
}

func (o OS) DisplayName() string {
	if o == OSIOS {
		return "iOS"
	}
	return "Android"
}

func (o OS) DevicePlatforms() string {
	if o == OSIOS {
		return "iOS_Phone, iOS_Tablet"
	}
	return "Android_Smartphone, Android_Tablet"
}

type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
	GenderAll    Gender = "MF"
)

func ParseGender(s string) (Gender, error) {
	switch Gender(strings.ToUpper(strings.TrimSpace(s))) {
	case GenderMale:
		return GenderMale, nil
	case GenderFemale:
		return GenderFemale, nil
	case GenderAll:
		return GenderAll, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidGender, s)
}

// Codes returns the platform gender codes (1 = men, 2 = women).
func (g Gender) Codes() []int {
	switch g {
	case GenderMale:
		return []int{1}
	case GenderFemale:
		return []int{2}
	default:
		return []int{1, 2}
	}
}

// OptModel is the optimization model token used in names.
type OptModel string

const (
	OptCPA   OptModel = "CPA"
	OptCPI   OptModel = "CPI"
	OptTROAS OptModel = "tROAS"
)

var optGoals = map[OptModel]string{
	OptCPA:   "OFFSITE_CONVERSIONS",
	OptCPI:   "APP_INSTALLS",
	OptTROAS: "VALUE",
}

func ParseOptModel(s string) (OptModel, error) {
	for m := range optGoals {
		if strings.EqualFold(string(m), strings.TrimSpace(s)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidOptModel, s)
}

// Goal is the platform optimization_goal code.
func (m OptModel) Goal() string { return optGoals[m] }

// EventDriven reports whether the model optimizes for a custom app event.
func (m OptModel) EventDriven() bool { return m == OptCPA }

// ValueBased reports whether the model optimizes for purchase value.
func (m OptModel) ValueBased() bool { return m == OptTROAS }

type BidStrategy string

const (
	BidCap       BidStrategy = "Bid cap"
	CostCap      BidStrategy = "Cost per result goal"
	LowestCost   BidStrategy = "Lower cost"
	AdImpression BidStrategy = "Ad impression"
)

type bidStrategyCodes struct {
	short string
	api   string
}

var bidStrategies = map[BidStrategy]bidStrategyCodes{
	BidCap:       {short: "bc", api: "LOWEST_COST_WITH_BID_CAP"},
	CostCap:      {short: "cc", api: "COST_CAP"},
	LowestCost:   {short: "lc", api: "LOWEST_COST_WITHOUT_BID_CAP"},
	AdImpression: {short: "ai", api: "COST_PER_IMPRESSION"},
}

// ParseBidStrategy accepts the display name ("Bid cap"), the short code
// ("bc") or the platform code.
func ParseBidStrategy(s string) (BidStrategy, error) {
	s = strings.TrimSpace(s)
	for b, c := range bidStrategies {
		if strings.EqualFold(string(b), s) || strings.EqualFold(c.short, s) || strings.EqualFold(c.api, s) {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidBidStrategy, s)
}

func (b BidStrategy) Short() string   { return bidStrategies[b].short }
func (b BidStrategy) APICode() string { return bidStrategies[b].api }

// Capped reports whether the strategy sends an explicit bid amount.
func (b BidStrategy) Capped() bool { return b == BidCap }

// RequiresBid reports whether the operator must supply a bid value.
func (b BidStrategy) RequiresBid() bool { return b == BidCap || b == CostCap }

// BudgetMode says whether the budget lives on the campaign or the ad set.
type BudgetMode string

const (
	BudgetCampaign BudgetMode = "CBO"
	BudgetAdSet    BudgetMode = "noCBO"
)

func ParseBudgetMode(s string) (BudgetMode, error) {
	switch {
	case strings.EqualFold(s, string(BudgetCampaign)):
		return BudgetCampaign, nil
	case strings.EqualFold(s, string(BudgetAdSet)):
		return BudgetAdSet, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidBudgetMode, s)
}

const DefaultAgeMax = 65

// AgeRange keeps the operator's spelling for naming next to the parsed bounds.
type AgeRange struct {
	Min   int
	Max   int
	label string
}

// ParseAgeRange accepts "18-65", "18-65+" and "18+". An open-ended range
// without an explicit max gets DefaultAgeMax.
func ParseAgeRange(s string) (AgeRange, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(strings.ReplaceAll(s, "+", ""), "-")
	if s == "" || len(parts) > 2 {
		return AgeRange{}, fmt.Errorf("%w: %q", ErrInvalidAge, s)
	}
	lo, err := strconv.Atoi(parts[0])
	if err != nil {
		return AgeRange{}, fmt.Errorf("%w: %q", ErrInvalidAge, s)
	}
	hi := DefaultAgeMax
	if len(parts) == 2 {
		if hi, err = strconv.Atoi(parts[1]); err != nil {
			return AgeRange{}, fmt.Errorf("%w: %q", ErrInvalidAge, s)
		}
	}
	if lo < 13 || hi < lo {
		return AgeRange{}, fmt.Errorf("%w: %q", ErrInvalidAge, s)
	}
	return AgeRange{Min: lo, Max: hi, label: s}, nil
}

func (a AgeRange) String() string {
	if a.label != "" {
		return a.label
	}
	return fmt.Sprintf("%d-%d", a.Min, a.Max)
}

// DateStamp formats t as DDMMYYYY.
func DateStamp(t time.Time) string { return t.Format("02012006") }

// Attributes is everything a campaign name is composed from.
type Attributes struct {
	OS              OS
	Project         string // project alias
	TierLabel       string
	NamingCountries []string
	Gender          Gender
	Age             AgeRange
	OptModel        OptModel
	Event           string // internal event code, event-driven models only
	Date            string
	Author          string
	BudgetMode      BudgetMode
	BidStrategy     BidStrategy
	Language        string
	Extra           string
}

func (a Attributes) Validate() error {
	if a.Event != "" && !a.OptModel.EventDriven() {
		return fmt.Errorf("%w: %s with %s", ErrEventNotAllowed, a.Event, a.OptModel)
	}
	return nil
}
