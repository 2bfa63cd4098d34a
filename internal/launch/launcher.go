package launch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"campaign-launcher/internal/fallback"
	"campaign-launcher/internal/launchlog"
	"campaign-launcher/internal/observability"
	"campaign-launcher/internal/payload"
)

var ErrNothingToLaunch = errors.New("no campaign in the batch could be resolved")

// Transport creates remote objects and returns their ids.
type Transport interface {
	CreateCampaign(ctx context.Context, req payload.CampaignRequest) (string, error)
	CreateAdSet(ctx context.Context, req payload.AdSetRequest) (string, error)
}

// Recorder persists one successful launch.
type Recorder interface {
	Record(ctx context.Context, e launchlog.Entry) error
}

// FallbackWriter persists a record for manual upload and returns its path.
type FallbackWriter interface {
	Write(name string, r fallback.Record) (string, error)
}

// Confirmer asks the operator once per batch.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// Outcome of one campaign. CampaignID may be set while Err is non-nil when
// the ad set failed; that paused campaign is left in place.
type Outcome struct {
	Name         string
	CampaignID   string
	AdSetID      string
	FallbackPath string
	Err          error
	FallbackErr  error
}

type Summary struct {
	Cancelled bool
	Outcomes  []Outcome
}

func (s Summary) Created() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Err == nil {
			n++
		}
	}
	return n
}

func (s Summary) Failed() int { return len(s.Outcomes) - s.Created() }

type Launcher struct {
	transport Transport
	fallback  FallbackWriter
	recorders []Recorder
	out       io.Writer
	now       func() time.Time
}

// New builds a launcher. fw may be nil when fallback files are disabled.
func New(t Transport, fw FallbackWriter, out io.Writer, recorders ...Recorder) *Launcher {
	if out == nil {
		out = io.Discard
	}
	return &Launcher{transport: t, fallback: fw, recorders: recorders, out: out, now: time.Now}
}

// Preview prints every name of the batch before anything is submitted.
func (l *Launcher) Preview(p *Plan) {
	rule := strings.Repeat("=", 80)
	fmt.Fprintln(l.out, rule)
	fmt.Fprintf(l.out, "Project: %s  OS: %s  Gender: %s  Age: %s\n", p.Request.Project, p.Request.OS, p.Request.Gender, p.Request.Age)
	fmt.Fprintf(l.out, "Budget: $%.2f", p.Request.Budget)
	if p.Request.Bid > 0 {
		fmt.Fprintf(l.out, "  Bid: $%.2f", p.Request.Bid)
	}
	if p.EventCode != "" {
		fmt.Fprintf(l.out, "  Event: %s (%s)", p.Request.Event, p.EventCode)
	}
	fmt.Fprintf(l.out, "  Language: %s\n\n", p.LangCode)

	for _, it := range p.Items {
		if it.Err != nil {
			fmt.Fprintf(l.out, "Tier: %s\n  ✗ %v\n\n", it.Selector, it.Err)
			continue
		}
		fmt.Fprintf(l.out, "Tier: %s\n", orDash(it.Targeting.Label))
		fmt.Fprintf(l.out, "  Countries: %d (%s)\n", len(it.Targeting.Countries), it.Targeting.Mode())
		fmt.Fprintf(l.out, "  Naming: %s\n\n", it.Name)
	}
	fmt.Fprintln(l.out, rule)
	fmt.Fprintf(l.out, "Total campaigns to be created: %d\n", len(p.Ready()))
	fmt.Fprintln(l.out, rule)
}

// Run previews the batch, asks once, then submits items one at a time.
func (l *Launcher) Run(ctx context.Context, p *Plan, c Confirmer) (Summary, error) {
	l.Preview(p)
	if len(p.Ready()) == 0 {
		return Summary{}, ErrNothingToLaunch
	}
	ok, err := c.Confirm("Create campaigns with these namings? (yes/no): ")
	if err != nil {
		return Summary{}, fmt.Errorf("confirmation: %w", err)
	}
	if !ok {
		fmt.Fprintln(l.out, "Campaign creation cancelled.")
		return Summary{Cancelled: true}, nil
	}
	return l.Execute(ctx, p), nil
}

// Execute submits every ready item. A failed item never stops the batch.
func (l *Launcher) Execute(ctx context.Context, p *Plan) Summary {
	ready := p.Ready()
	var s Summary
	for i, it := range ready {
		fmt.Fprintf(l.out, "\n[%d/%d] Creating campaign for tier %s...\n", i+1, len(ready), orDash(it.Targeting.Label))
		s.Outcomes = append(s.Outcomes, l.launchOne(ctx, p, it))
	}
	fmt.Fprintf(l.out, "\nDone: %d created, %d failed\n", s.Created(), s.Failed())
	return s
}

func (l *Launcher) launchOne(ctx context.Context, p *Plan, it Item) Outcome {
	o := Outcome{Name: it.Name}
	logger := log.With().Str("campaign", it.Name).Logger()

	// Built before any remote call so a targeting contract violation never
	// leaves a campaign behind.
	adSet, err := p.AdSetRequest(it, "")
	if err != nil {
		logger.Error().Err(err).Msg("ad set request rejected")
		fmt.Fprintf(l.out, "  ✗ %v\n", err)
		observability.Campaigns.WithLabelValues(observability.ResultFailed).Inc()
		o.Err = err
		return o
	}

	o.CampaignID, err = l.transport.CreateCampaign(ctx, p.CampaignRequest(it))
	if err != nil {
		return l.fail(p, it, adSet, o, fmt.Errorf("create campaign: %w", err))
	}
	fmt.Fprintf(l.out, "  ✓ Campaign created: %s\n", o.CampaignID)

	adSet.CampaignID = o.CampaignID
	o.AdSetID, err = l.transport.CreateAdSet(ctx, adSet)
	if err != nil {
		logger.Warn().Str("campaign_id", o.CampaignID).Msg("campaign left paused without an ad set")
		return l.fail(p, it, adSet, o, fmt.Errorf("create ad set: %w", err))
	}
	fmt.Fprintf(l.out, "  ✓ Ad set created: %s\n", o.AdSetID)

	entry := launchlog.Entry{Name: it.Name, CampaignID: o.CampaignID, AdSetID: o.AdSetID, CreatedAt: l.now()}
	for _, r := range l.recorders {
		if err := r.Record(ctx, entry); err != nil {
			logger.Error().Err(err).Msg("record launch")
		}
	}
	logger.Info().Str("campaign_id", o.CampaignID).Str("adset_id", o.AdSetID).Msg("campaign created")
	observability.Campaigns.WithLabelValues(observability.ResultCreated).Inc()
	return o
}

func (l *Launcher) fail(p *Plan, it Item, adSet payload.AdSetRequest, o Outcome, err error) Outcome {
	o.Err = err
	log.Error().Err(err).Str("campaign", it.Name).Msg("launch failed")
	fmt.Fprintf(l.out, "  ✗ %v\n", err)
	observability.Campaigns.WithLabelValues(observability.ResultFailed).Inc()

	if !p.Behavior.EnableFallback || l.fallback == nil {
		return o
	}
	rec := fallback.Build(p.FallbackInput(it, adSet))
	o.FallbackPath, o.FallbackErr = l.fallback.Write(it.Name, rec)
	if o.FallbackErr != nil {
		log.Error().Err(o.FallbackErr).Str("campaign", it.Name).Msg("write fallback file")
		fmt.Fprintf(l.out, "  ✗ Fallback file not written: %v\n", o.FallbackErr)
		return o
	}
	observability.Campaigns.WithLabelValues(observability.ResultFallback).Inc()
	fmt.Fprintf(l.out, "  → Fallback file for manual upload: %s\n", o.FallbackPath)
	return o
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
