package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/xraph/scribe/tracking"
)

var uaCmd = &cobra.Command{
	Use:   "ua <user-agent>...",
	Short: "Classify user agent strings",
	Long:  `Report the browser family and whether the device is mobile for each argument.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runUA,
}

type uaReport struct {
	UserAgent string `json:"user_agent" yaml:"user_agent"`
	Browser   string `json:"browser"    yaml:"browser"`
	Mobile    bool   `json:"mobile"     yaml:"mobile"`
}

func runUA(cmd *cobra.Command, args []string) error {
	reports := make([]uaReport, 0, len(args))
	for _, ua := range args {
		ua = strings.TrimSpace(ua)
		reports = append(reports, uaReport{
			UserAgent: ua,
			Browser:   string(tracking.ClassifyUserAgent(ua)),
			Mobile:    tracking.IsMobile(ua),
		})
	}
	return render(cmd.OutOrStdout(), reports)
}
