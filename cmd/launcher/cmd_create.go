package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"campaign-launcher/internal/campaign"
	"campaign-launcher/internal/fallback"
	"campaign-launcher/internal/graph"
	"campaign-launcher/internal/launch"
	"campaign-launcher/internal/launchlog"
	"campaign-launcher/internal/storage"
)

// intentFlags are shared by create and preview.
type intentFlags struct {
	project       string
	os            string
	gender        string
	age           string
	budget        float64
	bid           float64
	tiers         []string
	allTiers      bool
	countries     []string
	optModel      string
	event         string
	bidStrategy   string
	language      string
	campaignType  string
	author        string
	account       string
	targetingSpec bool
}

func (f *intentFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.project, "project", "", "project name (e.g. DuoChat)")
	fl.StringVar(&f.os, "os", "AND", "operating system: AND or IOS")
	fl.StringVar(&f.gender, "gender", "", "gender: M, F or MF")
	fl.StringVar(&f.age, "age", "", "age range, e.g. 18-65+ or 21-65")
	fl.Float64Var(&f.budget, "budget", 0, "daily budget")
	fl.Float64Var(&f.bid, "bid", 0, "bid value (required for Bid cap and Cost per result goal)")
	fl.StringSliceVar(&f.tiers, "tier", nil, "tier(s): Tier-1, Latam, WW, ...")
	fl.BoolVar(&f.allTiers, "all-tiers", false, "create one campaign per tier")
	fl.StringSliceVar(&f.countries, "countries", nil, "explicit ISO country codes, e.g. US,CA")
	fl.StringVar(&f.optModel, "opt-model", "CPA", "optimization model: CPA, CPI or tROAS")
	fl.StringVar(&f.event, "event", "", `event, CPA only (e.g. "4 sessions")`)
	fl.StringVar(&f.bidStrategy, "bid-strategy", string(campaign.BidCap), "Bid cap, Cost per result goal, Lower cost or Ad impression")
	fl.StringVar(&f.language, "language", "", `language (e.g. "Spanish"); all languages when empty`)
	fl.StringVar(&f.campaignType, "campaign-type", string(campaign.BudgetAdSet), "CBO or noCBO")
	fl.StringVar(&f.author, "author", "", "author tag (default from config)")
	fl.StringVar(&f.account, "account", "", "account name (default: the project's first account)")
	fl.BoolVar(&f.targetingSpec, "targeting-spec", false, "send targeting as targeting_spec")

	for _, name := range []string{"project", "gender", "age", "budget"} {
		_ = cmd.MarkFlagRequired(name)
	}
	cmd.MarkFlagsMutuallyExclusive("tier", "all-tiers", "countries")
	cmd.MarkFlagsOneRequired("tier", "all-tiers", "countries")
}

func (f *intentFlags) request(now time.Time) (launch.Request, error) {
	req := launch.Request{
		Project:   f.project,
		Budget:    f.budget,
		Bid:       f.bid,
		Tiers:     f.tiers,
		AllTiers:  f.allTiers,
		Countries: f.countries,
		Event:     f.event,
		Language:  f.language,
		Author:    f.author,
		Account:   f.account,
		Date:      now,
	}
	if req.Author == "" {
		req.Author = cfg.Launch.Author
	}
	var err error
	if req.OS, err = campaign.ParseOS(f.os); err != nil {
		return req, err
	}
	if req.Gender, err = campaign.ParseGender(f.gender); err != nil {
		return req, err
	}
	if req.Age, err = campaign.ParseAgeRange(f.age); err != nil {
		return req, err
	}
	if req.OptModel, err = campaign.ParseOptModel(f.optModel); err != nil {
		return req, err
	}
	if req.BidStrategy, err = campaign.ParseBidStrategy(f.bidStrategy); err != nil {
		return req, err
	}
	if req.BudgetMode, err = campaign.ParseBudgetMode(f.campaignType); err != nil {
		return req, err
	}
	return req, nil
}

func (f *intentFlags) behavior() launch.Behavior {
	return launch.Behavior{
		EnableFallback:   cfg.Launch.EnableFallback,
		UseTargetingSpec: cfg.Launch.UseTargetingSpec || f.targetingSpec,
		ApplyLocales:     cfg.Launch.ApplyLocales,
	}
}

func (f *intentFlags) plan() (*launch.Plan, error) {
	req, err := f.request(time.Now())
	if err != nil {
		return nil, err
	}
	bundle, err := loadBundle()
	if err != nil {
		return nil, err
	}
	return launch.NewPlanner(bundle, f.behavior()).Plan(req)
}

var (
	createFlags intentFlags
	assumeYes   bool
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create campaigns and ad sets for one or more tiers",
	Long: `Resolves the audience, prints every campaign name, asks once for
confirmation and then creates each campaign and its ad set in turn.

Examples:
  launcher create --project DuoChat --tier Latam --gender M --age 18-65+ --budget 50 --bid 0.30
  launcher create --project DuoChat --all-tiers --gender M --age 18-65+ --budget 50 --bid 0.30
  launcher create --project Likerro --tier WW --gender MF --age 21-65+ --budget 25 --opt-model tROAS --bid-strategy "Lower cost"`,
	RunE: runCreate,
}

func init() {
	createFlags.bind(createCmd)
	createCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")
}

func runCreate(cmd *cobra.Command, _ []string) error {
	plan, err := createFlags.plan()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if cfg.Graph.AccessToken == "" {
		return fmt.Errorf("graph access token is not configured (LAUNCHER_GRAPH_ACCESS_TOKEN)")
	}
	client := graph.New(graph.Config{
		BaseURL:     cfg.Graph.BaseURL,
		APIVersion:  cfg.Graph.APIVersion,
		AccessToken: cfg.Graph.AccessToken,
		Timeout:     cfg.GraphTimeout(),
	}, nil)

	recorders := []launch.Recorder{launchlog.NewFile(cfg.Launch.LogsFile)}
	if cfg.Postgres.Enabled {
		store, err := storage.New(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		recorders = append(recorders, store)
	}

	var fw launch.FallbackWriter
	if plan.Behavior.EnableFallback {
		w, err := fallback.NewWriter(cfg.Launch.LaunchesDir, cfg.Launch.FallbackTemplate)
		if err != nil {
			log.Error().Err(err).Msg("fallback files disabled")
		} else {
			fw = w
		}
	}

	var confirm launch.Confirmer = launch.PromptConfirmer{In: cmd.InOrStdin(), Out: out}
	if assumeYes {
		confirm = launch.AutoConfirm{}
	}
	summary, err := launch.New(client, fw, out, recorders...).Run(ctx, plan, confirm)
	if err != nil {
		return err
	}
	if summary.Failed() > 0 {
		return fmt.Errorf("%d of %d campaigns failed", summary.Failed(), len(summary.Outcomes))
	}
	return nil
}

var previewFlags intentFlags

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Print names and request bodies without calling the platform",
	RunE: func(cmd *cobra.Command, _ []string) error {
		plan, err := previewFlags.plan()
		if err != nil {
			return err
		}
		launch.New(nil, nil, cmd.OutOrStdout()).Preview(plan)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		for _, it := range plan.Ready() {
			adSet, err := plan.AdSetRequest(it, "")
			if err != nil {
				return err
			}
			if err := enc.Encode(map[string]any{
				"campaign": plan.CampaignRequest(it),
				"adset":    adSet.Body(),
			}); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	previewFlags.bind(previewCmd)
}
