package tracking

// Totals are the raw per-type counts of a trackable's events.
type Totals struct {
	Impressions int64   `json:"impressions" yaml:"impressions"`
	Clicks      int64   `json:"clicks"      yaml:"clicks"`
	Shares      int64   `json:"shares"      yaml:"shares"`
	Conversions int64   `json:"conversions" yaml:"conversions"`
	Revenue     float64 `json:"revenue"     yaml:"revenue"`
}

// Add folds e into t.
func (t *Totals) Add(e *Event) {
	switch e.Type {
	case EventImpression:
		t.Impressions++
	case EventClick:
		t.Clicks++
	case EventShare:
		t.Shares++
	case EventConversion:
		t.Conversions++
		if e.Value != nil {
			t.Revenue += *e.Value
		}
	}
}

// Sum totals a slice of events.
func Sum(events []*Event) Totals {
	var t Totals
	for _, e := range events {
		t.Add(e)
	}
	return t
}

// Metrics are the derived engagement ratios of a trackable.
// Percentages are in the 0-100 range.
type Metrics struct {
	Impressions      int64   `json:"impressions"        yaml:"impressions"`
	Clicks           int64   `json:"clicks"             yaml:"clicks"`
	Shares           int64   `json:"shares"             yaml:"shares"`
	Conversions      int64   `json:"conversions"        yaml:"conversions"`
	CTR              float64 `json:"ctr"                yaml:"ctr"`
	ConversionRate   float64 `json:"conversion_rate"    yaml:"conversion_rate"`
	EarningsPerClick float64 `json:"earnings_per_click" yaml:"earnings_per_click"`
	TotalRevenue     float64 `json:"total_revenue"      yaml:"total_revenue"`
}

// ComputeMetrics derives ratios from totals. Every ratio with a zero
// denominator is 0.
func ComputeMetrics(t Totals) Metrics {
	m := Metrics{
		Impressions:  t.Impressions,
		Clicks:       t.Clicks,
		Shares:       t.Shares,
		Conversions:  t.Conversions,
		TotalRevenue: t.Revenue,
	}

	if t.Clicks > 0 && t.Impressions > 0 {
		m.CTR = float64(t.Clicks) / float64(t.Impressions) * 100
	}
	if t.Clicks > 0 {
		m.ConversionRate = float64(t.Conversions) / float64(t.Clicks) * 100
		m.EarningsPerClick = t.Revenue / float64(t.Clicks)
	}

	return m
}
