package formula

// Default option values.
const (
	DefaultFullRange = "A:Z"
	DefaultSampleRow = 2
)

// Options tunes formula rendering.
type Options struct {
	// FullRange is the whole-table column range used by dynamic-array
	// formulas, e.g. orders!A:Z.
	FullRange string `json:"full_range"`

	// FitToTable widens FullRange to the table's last column when the table
	// is known and wider than FullRange.
	FitToTable bool `json:"fit_to_table"`

	// SampleRow is the row substituted into row-relative formulas shown in
	// manual steps.
	SampleRow int `json:"sample_row"`
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		FullRange: DefaultFullRange,
		SampleRow: DefaultSampleRow,
	}
}

// withDefaults fills zero fields.
func (o Options) withDefaults() Options {
	if o.FullRange == "" {
		o.FullRange = DefaultFullRange
	}
	if o.SampleRow <= 0 {
		o.SampleRow = DefaultSampleRow
	}
	return o
}
