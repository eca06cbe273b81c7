// Package report holds the reporting datasets and the pure transforms that
// turn a dataset into display values for the comparison, distribution and
// summary views.
package report

import (
	"fmt"
	"sort"
)

// ProjectID identifies a Jira project (its key).
type ProjectID string

// CategoryCounts carries the optional CLM breakdown counts. A nil field means
// the source did not report that category.
type CategoryCounts struct {
	CLMIssues         *int `json:"clm_issues_count,omitempty"`
	ESTIssues         *int `json:"est_issues_count,omitempty"`
	ImprovementIssues *int `json:"improvement_issues_count,omitempty"`
	LinkedIssues      *int `json:"linked_issues_count,omitempty"`
}

// IsZero reports whether no category was reported.
func (c CategoryCounts) IsZero() bool {
	return c.CLMIssues == nil && c.ESTIssues == nil && c.ImprovementIssues == nil && c.LinkedIssues == nil
}

func (c CategoryCounts) clone() CategoryCounts {
	return CategoryCounts{
		CLMIssues:         cloneInt(c.CLMIssues),
		ESTIssues:         cloneInt(c.ESTIssues),
		ImprovementIssues: cloneInt(c.ImprovementIssues),
		LinkedIssues:      cloneInt(c.LinkedIssues),
	}
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Dataset is the unit the mode controller switches between. Values are
// treated as immutable once built; use Clone before handing one out.
type Dataset struct {
	Estimates          map[ProjectID]float64
	TimeSpent          map[ProjectID]float64
	SecondaryEstimates map[ProjectID]float64
	IssueCounts        map[ProjectID]int

	// Order is the default display order. Unlike the maps it is significant.
	Order []ProjectID

	TotalIssues int
	Categories  CategoryCounts
}

// Source is the wire shape a Dataset is built from. It matches the keys of
// both the embedded page data and the full-dataset endpoint.
type Source struct {
	ProjectEstimates    map[string]float64 `json:"project_estimates"`
	ProjectTimeSpent    map[string]float64 `json:"project_time_spent"`
	ProjectCLMEstimates map[string]float64 `json:"project_clm_estimates,omitempty"`
	ProjectCounts       map[string]int     `json:"project_counts"`
	ImplementationCount int                `json:"implementation_count"`
	FilteredCount       int                `json:"filtered_count"`
	CategoryCounts
}

// NewDataset builds a Dataset from its wire form. The display order is the
// union of all project keys sorted by combined metric (secondary estimate +
// estimate + time spent) descending, ties broken by project key.
func NewDataset(src Source) (*Dataset, error) {
	ds := &Dataset{
		Estimates:          toFloatMap(src.ProjectEstimates),
		TimeSpent:          toFloatMap(src.ProjectTimeSpent),
		SecondaryEstimates: toFloatMap(src.ProjectCLMEstimates),
		IssueCounts:        make(map[ProjectID]int, len(src.ProjectCounts)),
		TotalIssues:        src.ImplementationCount,
		Categories:         src.CategoryCounts.clone(),
	}
	for k, v := range src.ProjectCounts {
		ds.IssueCounts[ProjectID(k)] = v
	}
	if ds.TotalIssues == 0 {
		ds.TotalIssues = src.FilteredCount
	}

	seen := make(map[ProjectID]struct{})
	for _, m := range []map[ProjectID]float64{ds.Estimates, ds.TimeSpent, ds.SecondaryEstimates} {
		for id := range m {
			seen[id] = struct{}{}
		}
	}
	for id := range ds.IssueCounts {
		seen[id] = struct{}{}
	}
	for id := range seen {
		if id == "" {
			return nil, fmt.Errorf("%w: empty project key", ErrInvalidDataset)
		}
		if string(id) == OtherLabel {
			return nil, fmt.Errorf("%w: project key %q is reserved", ErrInvalidDataset, id)
		}
		ds.Order = append(ds.Order, id)
	}

	sort.Slice(ds.Order, func(i, j int) bool {
		a, b := ds.Order[i], ds.Order[j]
		ta, tb := ds.combined(a), ds.combined(b)
		if ta != tb {
			return ta > tb
		}
		return a < b
	})

	return ds, nil
}

func toFloatMap(in map[string]float64) map[ProjectID]float64 {
	out := make(map[ProjectID]float64, len(in))
	for k, v := range in {
		out[ProjectID(k)] = v
	}
	return out
}

func (d *Dataset) combined(id ProjectID) float64 {
	return d.SecondaryEstimates[id] + d.Estimates[id] + d.TimeSpent[id]
}

// Validate checks that every project in any mapping appears in Order exactly
// once and that Order has no duplicates.
func (d *Dataset) Validate() error {
	pos := make(map[ProjectID]int, len(d.Order))
	for i, id := range d.Order {
		if _, dup := pos[id]; dup {
			return fmt.Errorf("%w: project %q listed twice in order", ErrInvalidDataset, id)
		}
		pos[id] = i
	}

	check := func(id ProjectID, field string) error {
		if _, ok := pos[id]; !ok {
			return fmt.Errorf("%w: project %q in %s missing from order", ErrInvalidDataset, id, field)
		}
		return nil
	}
	for id := range d.Estimates {
		if err := check(id, "estimates"); err != nil {
			return err
		}
	}
	for id := range d.TimeSpent {
		if err := check(id, "time spent"); err != nil {
			return err
		}
	}
	for id := range d.SecondaryEstimates {
		if err := check(id, "secondary estimates"); err != nil {
			return err
		}
	}
	for id := range d.IssueCounts {
		if err := check(id, "issue counts"); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a structural deep copy.
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return nil
	}
	out := &Dataset{
		Estimates:          cloneFloats(d.Estimates),
		TimeSpent:          cloneFloats(d.TimeSpent),
		SecondaryEstimates: cloneFloats(d.SecondaryEstimates),
		IssueCounts:        make(map[ProjectID]int, len(d.IssueCounts)),
		Order:              append([]ProjectID(nil), d.Order...),
		TotalIssues:        d.TotalIssues,
		Categories:         d.Categories.clone(),
	}
	for k, v := range d.IssueCounts {
		out.IssueCounts[k] = v
	}
	return out
}

func cloneFloats(in map[ProjectID]float64) map[ProjectID]float64 {
	out := make(map[ProjectID]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// IsEmpty reports whether the dataset has no projects.
func (d *Dataset) IsEmpty() bool {
	return d == nil || len(d.Order) == 0
}

// HasSecondary reports whether any secondary estimate is non-zero.
func (d *Dataset) HasSecondary() bool {
	for _, v := range d.SecondaryEstimates {
		if v != 0 {
			return true
		}
	}
	return false
}

// TotalEstimate sums the estimate hours over all projects.
func (d *Dataset) TotalEstimate() float64 { return sumFloats(d.Order, d.Estimates) }

// TotalTimeSpent sums the time spent hours over all projects.
func (d *Dataset) TotalTimeSpent() float64 { return sumFloats(d.Order, d.TimeSpent) }

// TotalSecondaryEstimate sums the secondary estimate hours over all projects.
func (d *Dataset) TotalSecondaryEstimate() float64 { return sumFloats(d.Order, d.SecondaryEstimates) }

// sumFloats walks Order instead of the map so the summation order, and with
// it the floating point result, is stable between calls.
func sumFloats(order []ProjectID, m map[ProjectID]float64) float64 {
	var total float64
	for _, id := range order {
		total += m[id]
	}
	return total
}
