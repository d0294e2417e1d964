package report

// StatusCounts holds the number of persons in each status bucket. Other
// collects labels outside the known vocabulary.
type StatusCounts struct {
	OldMed        int64 `json:"old_med"`
	AddMed        int64 `json:"add_med"`
	ReduceMed     int64 `json:"reduce_med"`
	StopMed       int64 `json:"stop_med"`
	Remission     int64 `json:"remission"`
	DMNoMed       int64 `json:"dm_no_med"`
	UnderFollowUp int64 `json:"under_follow_up"`
	Other         int64 `json:"other"`
}

// field returns the counter for a bucket name, or nil for an unknown name.
func (c *StatusCounts) field(bucket string) *int64 {
	switch bucket {
	case "old_med":
		return &c.OldMed
	case "add_med":
		return &c.AddMed
	case "reduce_med":
		return &c.ReduceMed
	case "stop_med":
		return &c.StopMed
	case "remission":
		return &c.Remission
	case "dm_no_med":
		return &c.DMNoMed
	case "under_follow_up":
		return &c.UnderFollowUp
	case "other":
		return &c.Other
	}
	return nil
}

// Known is the sum of every bucket except Other.
func (c StatusCounts) Known() int64 {
	return c.OldMed + c.AddMed + c.ReduceMed + c.StopMed + c.Remission + c.DMNoMed + c.UnderFollowUp
}

// Sum is the sum of every bucket including Other.
func (c StatusCounts) Sum() int64 { return c.Known() + c.Other }

// settle derives Other so that the buckets add up to total.
func (c *StatusCounts) settle(total int64) {
	c.Other = total - c.Known()
	if c.Other < 0 {
		c.Other = 0
	}
}

func (c *StatusCounts) add(o StatusCounts) {
	c.OldMed += o.OldMed
	c.AddMed += o.AddMed
	c.ReduceMed += o.ReduceMed
	c.StopMed += o.StopMed
	c.Remission += o.Remission
	c.DMNoMed += o.DMNoMed
	c.UnderFollowUp += o.UnderFollowUp
	c.Other += o.Other
}

// Dashboard is the system-wide status breakdown.
type Dashboard struct {
	Total int64 `json:"total"`
	StatusCounts
}

// HospitalRow is the status breakdown of one hospital.
type HospitalRow struct {
	HospName  string  `json:"hosp_name"`
	HospName2 *string `json:"hosp_name2"`
	Patients  int64   `json:"patients"`
	StatusCounts
}

// Totals sums rows into a single row labelled name.
func Totals(name string, rows []*HospitalRow) HospitalRow {
	t := HospitalRow{HospName: name}
	for _, r := range rows {
		t.Patients += r.Patients
		t.add(r.StatusCounts)
	}
	return t
}
