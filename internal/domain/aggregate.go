package domain

// CategoryStat is the per-category rollup for one run. Rows are write-once;
// a new run produces a fresh, independent set.
type CategoryStat struct {
	RunID        int64    `db:"run_id"      json:"-"`
	CategoryID   int64    `db:"category_id" json:"category_id"`
	CategoryName string   `db:"-"           json:"category"`
	Count        int      `db:"count"       json:"count"`
	Ratio        float64  `db:"ratio"       json:"ratio"`
	Keywords     []string `db:"-"           json:"keywords"`
}

// ChannelStat is the per-(channel, category) rollup for one run. Ratio is
// normalized against the channel total, not the grand total, so each
// channel's category mix sums to 100% independently.
type ChannelStat struct {
	RunID        int64   `db:"run_id"      json:"-"`
	Channel      string  `db:"channel"     json:"channel"`
	CategoryID   int64   `db:"category_id" json:"category_id"`
	CategoryName string  `db:"-"           json:"category"`
	Count        int     `db:"count"       json:"count"`
	Ratio        float64 `db:"ratio"       json:"ratio"`
}

// ReliabilityStat is the run-level reliability rollup. Accuracy and the two
// F1 figures are confidence-based proxies, not supervised-learning metrics:
// no ground-truth labels exist in this domain, so macro/micro F1 are fixed
// scalar multiples of the average confidence. Callers must not present them
// as validated accuracy.
type ReliabilityStat struct {
	RunID         int64   `db:"run_id"         json:"-"`
	Split         string  `db:"split"          json:"split"`
	Accuracy      float64 `db:"accuracy"       json:"accuracy"`
	MacroF1       float64 `db:"macro_f1"       json:"macro_f1"`
	MicroF1       float64 `db:"micro_f1"       json:"micro_f1"`
	AvgConfidence float64 `db:"avg_confidence" json:"avg_confidence"`
}

// ReliabilitySplit is the synthetic train/val/test split descriptor.
const ReliabilitySplit = "70/15/15"
