package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/xraph/scribe/tracking"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics <events-file>",
	Short: "Compute engagement metrics from an events file",
	Long: `Read a YAML or JSON list of tracking events and print the totals and
derived ratios (CTR, conversion rate, earnings per click) per trackable.

Each event needs a trackable, a type and, for conversions, a positive value:

  - trackable: {type: content, id: cnt_01h...}
    type: conversion
    value: 49.5`,
	Args: cobra.ExactArgs(1),
	RunE: runMetrics,
}

type eventRecord struct {
	Trackable tracking.TrackableRef `yaml:"trackable"`
	Type      tracking.EventType    `yaml:"type"`
	Value     *float64              `yaml:"value"`
}

type metricsReport struct {
	Trackable string           `json:"trackable" yaml:"trackable"`
	Metrics   tracking.Metrics `json:"metrics"   yaml:"metrics"`
}

func runMetrics(cmd *cobra.Command, args []string) error {
	var records []eventRecord
	if err := decodeFile(args[0], &records); err != nil {
		return err
	}

	totals := make(map[string]*tracking.Totals)
	for i, r := range records {
		if !r.Trackable.Valid() {
			return fmt.Errorf("event %d: invalid trackable %q", i, r.Trackable.String())
		}
		if !r.Type.Valid() {
			return fmt.Errorf("event %d: unknown type %q", i, r.Type)
		}
		if !tracking.ValueAllowed(r.Type, r.Value) {
			return fmt.Errorf("event %d: invalid value for %s event", i, r.Type)
		}
		key := r.Trackable.String()
		if totals[key] == nil {
			totals[key] = &tracking.Totals{}
		}
		totals[key].Add(&tracking.Event{Trackable: r.Trackable, Type: r.Type, Value: r.Value})
	}

	keys := make([]string, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	reports := make([]metricsReport, 0, len(keys))
	for _, k := range keys {
		reports = append(reports, metricsReport{Trackable: k, Metrics: tracking.ComputeMetrics(*totals[k])})
	}
	return render(cmd.OutOrStdout(), reports)
}
