package report

// ComparisonLimit caps the number of projects shown in the comparison chart.
const ComparisonLimit = 30

// Series names of the comparison chart.
const (
	SeriesSecondary = "CLM estimate (hours)"
	SeriesEstimate  = "Original estimate (hours)"
	SeriesTimeSpent = "Time spent (hours)"
)

// Series is one numeric row aligned with ComparisonView.Labels.
type Series struct {
	Name   string
	Values []float64
}

// ComparisonView is the display form of the estimate vs. time spent chart.
type ComparisonView struct {
	Labels    []ProjectID
	Estimate  Series
	TimeSpent Series
	// Secondary is nil when every displayed secondary value is zero.
	Secondary *Series
	// NoData is set when no project survives the exclusion filter.
	NoData bool
}

// AllSeries returns the series in drawing order: secondary (if any),
// estimate, time spent.
func (v ComparisonView) AllSeries() []Series {
	if v.NoData {
		return nil
	}
	out := make([]Series, 0, 3)
	if v.Secondary != nil {
		out = append(out, *v.Secondary)
	}
	return append(out, v.Estimate, v.TimeSpent)
}

// ProjectAt resolves a clicked bar index.
func (v ComparisonView) ProjectAt(index int) (ProjectID, bool) {
	if index < 0 || index >= len(v.Labels) {
		return "", false
	}
	return v.Labels[index], true
}

// BuildComparison filters the dataset order by the exclusion set, keeps the
// first limit projects (ComparisonLimit when limit <= 0) and builds index
// aligned series. Missing values become 0.
func BuildComparison(ds *Dataset, excluded ExclusionSet, limit int) ComparisonView {
	if limit <= 0 {
		limit = ComparisonLimit
	}
	if ds == nil {
		return ComparisonView{NoData: true}
	}

	labels := make([]ProjectID, 0, limit)
	for _, id := range ds.Order {
		if excluded.Has(id) {
			continue
		}
		labels = append(labels, id)
		if len(labels) == limit {
			break
		}
	}
	if len(labels) == 0 {
		return ComparisonView{NoData: true}
	}

	view := ComparisonView{
		Labels:    labels,
		Estimate:  Series{Name: SeriesEstimate, Values: make([]float64, len(labels))},
		TimeSpent: Series{Name: SeriesTimeSpent, Values: make([]float64, len(labels))},
	}
	secondary := Series{Name: SeriesSecondary, Values: make([]float64, len(labels))}
	hasSecondary := false
	for i, id := range labels {
		view.Estimate.Values[i] = ds.Estimates[id]
		view.TimeSpent.Values[i] = ds.TimeSpent[id]
		secondary.Values[i] = ds.SecondaryEstimates[id]
		if secondary.Values[i] != 0 {
			hasSecondary = true
		}
	}
	if hasSecondary {
		view.Secondary = &secondary
	}
	return view
}
