package report

import "sort"

const (
	// DistributionTop is the number of projects shown before the rest is
	// folded into the Other category.
	DistributionTop = 20

	// OtherLabel names the synthetic category. NewDataset rejects a project
	// with this key so the two never collide.
	OtherLabel = "Other"
)

// Category is one slice of the distribution chart.
type Category struct {
	Label   string
	Project ProjectID
	Count   int
	Other   bool
}

// DistributionView is the display form of the per-project issue breakdown.
type DistributionView struct {
	Categories []Category
	Total      int
	NoData     bool
}

// Select resolves a clicked slice. The Other category and out of range
// indexes resolve to nothing.
func (v DistributionView) Select(index int) (ProjectID, bool) {
	if index < 0 || index >= len(v.Categories) {
		return "", false
	}
	c := v.Categories[index]
	if c.Other {
		return "", false
	}
	return c.Project, true
}

// Share returns the percentage of the total held by category index, rounded
// to the nearest integer.
func (v DistributionView) Share(index int) int {
	if v.Total == 0 || index < 0 || index >= len(v.Categories) {
		return 0
	}
	return int(float64(v.Categories[index].Count)/float64(v.Total)*100 + 0.5)
}

// BuildDistribution ranks projects by issue count descending, keeping the
// dataset order for equal counts, and folds everything past top (20 when top
// <= 0) into one Other category.
func BuildDistribution(ds *Dataset, top int) DistributionView {
	if top <= 0 {
		top = DistributionTop
	}
	if ds == nil || len(ds.IssueCounts) == 0 {
		return DistributionView{NoData: true}
	}

	ranked := make([]ProjectID, 0, len(ds.IssueCounts))
	for _, id := range ds.Order {
		if _, ok := ds.IssueCounts[id]; ok {
			ranked = append(ranked, id)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ds.IssueCounts[ranked[i]] > ds.IssueCounts[ranked[j]]
	})

	view := DistributionView{}
	for i, id := range ranked {
		n := ds.IssueCounts[id]
		view.Total += n
		if i < top {
			view.Categories = append(view.Categories, Category{Label: string(id), Project: id, Count: n})
			continue
		}
		if i == top {
			view.Categories = append(view.Categories, Category{Label: OtherLabel, Other: true})
		}
		view.Categories[top].Count += n
	}
	return view
}

// CountsDataset wraps bare per-project counts, as served for the dashboard's
// open and closed task charts, so they can go through BuildDistribution.
func CountsDataset(counts map[string]int) *Dataset {
	ds := &Dataset{IssueCounts: make(map[ProjectID]int, len(counts))}
	for k, v := range counts {
		id := ProjectID(k)
		ds.IssueCounts[id] = v
		ds.Order = append(ds.Order, id)
	}
	sort.Slice(ds.Order, func(i, j int) bool { return ds.Order[i] < ds.Order[j] })
	return ds
}
