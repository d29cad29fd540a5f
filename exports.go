package scribe

import (
	"github.com/xraph/scribe/content"
	"github.com/xraph/scribe/license"
	"github.com/xraph/scribe/tracking"
	"github.com/xraph/scribe/types"
)

// Re-export common types for convenience so users don't have to import
// the entity packages for everyday calls.

// Entity is re-exported from types package.
type Entity = types.Entity

// Plan is re-exported from license package.
type Plan = license.Plan

// Re-export plans.
const (
	PlanFree       = license.PlanFree
	PlanBasic      = license.PlanBasic
	PlanPro        = license.PlanPro
	PlanEnterprise = license.PlanEnterprise
)

// Re-export tracking helpers.
var (
	ClassifyUserAgent = tracking.ClassifyUserAgent
	IsMobile          = tracking.IsMobile
	ComputeMetrics    = tracking.ComputeMetrics
)

// DefaultThresholds is re-exported from content package.
var DefaultThresholds = content.DefaultThresholds

// Re-export Entity constructor
var NewEntity = types.NewEntity
