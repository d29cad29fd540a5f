package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/xraph/scribe"
	"github.com/xraph/scribe/license"
	"github.com/xraph/scribe/settings"
	"github.com/xraph/scribe/store/memory"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <fixture-file>",
	Short: "Replay a license and domain fixture",
	Long: `Issue the fixture's licenses on an in-memory engine, run its steps in
order and print the outcome of each. Steps never abort the run; a failing
step reports its error.

  licenses:
    - name: acme
      user_id: u1
      plan: basic
      max_websites: 2
  steps:
    - {license: acme, action: register, domain: a.com}
    - {license: acme, action: validate, domain: a.com}
    - {license: acme, action: unregister, domain: a.com}
    - {license: acme, action: cancel}`,
	Args: cobra.ExactArgs(1),
	RunE: runSimulate,
}

type fixture struct {
	Licenses []fixtureLicense `yaml:"licenses"`
	Steps    []fixtureStep    `yaml:"steps"`
}

type fixtureLicense struct {
	Name        string       `yaml:"name"`
	UserID      string       `yaml:"user_id"`
	Plan        license.Plan `yaml:"plan"`
	MaxWebsites int          `yaml:"max_websites"`
	Pending     bool         `yaml:"pending"`
}

type fixtureStep struct {
	License string `yaml:"license"`
	Action  string `yaml:"action"`
	Domain  string `yaml:"domain"`
}

type stepResult struct {
	Step    int    `json:"step"              yaml:"step"`
	License string `json:"license"           yaml:"license"`
	Action  string `json:"action"            yaml:"action"`
	Domain  string `json:"domain,omitempty"  yaml:"domain,omitempty"`
	Outcome string `json:"outcome"           yaml:"outcome"`
	Error   string `json:"error,omitempty"   yaml:"error,omitempty"`
	Domains int    `json:"domains"           yaml:"domains"`
}

func runSimulate(cmd *cobra.Command, args []string) error {
	var fx fixture
	if err := decodeFile(args[0], &fx); err != nil {
		return err
	}
	results, err := simulate(cmd.Context(), fx)
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), results)
}

// simulate runs fx against a fresh memory-backed engine.
func simulate(ctx context.Context, fx fixture) ([]stepResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	eng := scribe.New(memory.New(),
		scribe.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	keys := make(map[string]string, len(fx.Licenses))
	for _, fl := range fx.Licenses {
		if fl.Name == "" {
			return nil, errors.New("fixture license without a name")
		}
		if fl.MaxWebsites > 0 {
			plan := fl.Plan
			if plan == "" {
				plan = license.PlanFree
			}
			key := settings.PlanKey(string(plan), "max_websites")
			if err := eng.Settings().Set(ctx, key, strconv.Itoa(fl.MaxWebsites)); err != nil {
				return nil, err
			}
		}
		l, err := eng.IssueLicense(ctx, scribe.IssueInput{
			UserID:   fl.UserID,
			Plan:     fl.Plan,
			Activate: !fl.Pending,
		})
		if err != nil {
			return nil, fmt.Errorf("license %s: %w", fl.Name, err)
		}
		keys[fl.Name] = l.LicenseKey
	}

	results := make([]stepResult, 0, len(fx.Steps))
	for i, st := range fx.Steps {
		res := stepResult{Step: i + 1, License: st.License, Action: st.Action, Domain: st.Domain}
		key, ok := keys[st.License]
		if !ok {
			res.Outcome = "error"
			res.Error = "unknown license " + st.License
			results = append(results, res)
			continue
		}

		outcome, err := runStep(ctx, eng, key, st)
		res.Outcome = outcome
		if err != nil {
			res.Outcome = "error"
			res.Error = err.Error()
		}
		if l, err := eng.GetLicenseByKey(ctx, key); err == nil {
			res.Domains = len(l.RegisteredDomains)
		}
		results = append(results, res)
	}
	return results, nil
}

func runStep(ctx context.Context, eng *scribe.Scribe, key string, st fixtureStep) (string, error) {
	switch st.Action {
	case "register":
		if err := eng.RegisterDomain(ctx, key, st.Domain); err != nil {
			return "", err
		}
		return "registered", nil
	case "unregister":
		removed, err := eng.UnregisterDomain(ctx, key, st.Domain)
		if err != nil {
			return "", err
		}
		if !removed {
			return "absent", nil
		}
		return "unregistered", nil
	case "validate":
		v, err := eng.Validate(ctx, key, st.Domain)
		if err != nil {
			return "", err
		}
		switch {
		case !v.Valid:
			return "invalid:" + string(v.Status), nil
		case v.DomainRegistered != nil && !*v.DomainRegistered:
			return "valid:domain-missing", nil
		default:
			return "valid", nil
		}
	case "cancel":
		l, err := eng.GetLicenseByKey(ctx, key)
		if err != nil {
			return "", err
		}
		if _, err := eng.CancelLicense(ctx, l.ID); err != nil {
			return "", err
		}
		return "cancelled", nil
	default:
		return "", fmt.Errorf("unknown action %q", st.Action)
	}
}
