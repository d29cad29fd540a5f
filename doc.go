// Package scribe is a licensing and content engine for AI-written SEO
// articles with affiliate tracking.
//
// Scribe is designed as a library, not a service. Import it directly into
// your Go application. It provides:
//
//   - License keys with per-plan website and monthly content limits
//   - Atomic, idempotent domain registration that never exceeds a license's cap
//   - Content generation through a pluggable Generator, gated on quality scores
//   - Append-only engagement tracking with safe ratio metrics
//   - A settings store with a TTL cache in front of it
//
// # Quick Start
//
// Create an engine with your preferred store:
//
//	import (
//	    "github.com/xraph/scribe"
//	    "github.com/xraph/scribe/store/postgres"
//	)
//
//	s := scribe.New(postgres.New(db),
//	    scribe.WithGenerator(gen),
//	    scribe.WithQualityScorer(generation.NewLocalScorer(nil)),
//	)
//
//	// Start migrates the store and begins the tracking flush worker.
//	if err := s.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Stop()
//
// # Core Concepts
//
// Licenses grant a user a number of website slots. Each website's domain
// takes one slot on the license:
//
//	l, err := s.IssueLicense(ctx, scribe.IssueInput{UserID: "u1", Plan: license.PlanPro, Activate: true})
//	w, err := s.CreateWebsite(ctx, scribe.CreateWebsiteInput{UserID: "u1", URL: "https://example.com"})
//
// Content moves from pending to generated, then to published once its
// plagiarism score is at most 10 and its readability score at least 70:
//
//	c, err := s.Generate(ctx, scribe.GenerateInput{WebsiteID: w.ID, Topic: "espresso grinders", Keywords: []string{"burr grinder"}})
//	c, err = s.ApplyQualityScores(ctx, c.ID, 4, 81)
//	c, err = s.Publish(ctx, c.ID)
//
// Tracking events are recorded against content or affiliate links:
//
//	s.Record(ctx, scribe.RecordInput{Trackable: tracking.ContentRef(c.ID), Type: tracking.EventClick})
//	m, err := s.Metrics(ctx, tracking.ContentRef(c.ID))
//
// # Plugins
//
// Lifecycle hooks (license issued, domain registered, quota exceeded,
// content published, events flushed and more) are delivered to plugins
// registered with WithPlugin. A failing or slow plugin is logged and never
// fails the operation that triggered it.
//
// # TypeID
//
// All entities use TypeID identifiers:
//
//	lic_01h2xcejqtf2nbrexx3vqjhp41  // License ID
//	web_01h2xcejqtf2nbrexx3vqjhp41  // Website ID
//	cnt_01h455vb4pex5vsknk084sn02q  // Content ID
package scribe
