package model

// ShadowFinding records that an earlier rule fully subsumes a later rule's
// match scope, making the later rule unreachable.
type ShadowFinding struct {
	ShadowedRule      string
	ShadowedPosition  int
	ShadowingRule     string
	ShadowingPosition int
	// MatchedDimensions lists the dimensions the subsumption test covered.
	MatchedDimensions []Dimension
}

// MergeCandidate proposes consolidating two or more contiguous rules.
// It is advisory only; nothing in the engine ever merges rules itself.
type MergeCandidate struct {
	Rules           []string // names, in position order
	Positions       []int
	Confidence      float64 // [0,1], weighted fraction of identical dimensions
	DifferingFields []Dimension
	Rationale       string
}

// UsageTier classifies a rule by observed hit volume and age.
type UsageTier string

const (
	TierUnused UsageTier = "unused"
	TierLowUse UsageTier = "low-use"
	TierActive UsageTier = "active"
)

// UsageFinding is the usage classification for a single rule.
type UsageFinding struct {
	Rule     string
	Position int
	Tier     UsageTier
	HitCount uint64
	AgeDays  float64 // elapsed days since creation; 0 when unknown
}

// Category tags a recommendation with the finding classes that apply.
type Category string

const (
	CategoryShadowed       Category = "shadowed"
	CategoryMergeCandidate Category = "merge-candidate"
	CategoryUnused         Category = "unused"
)

// Recommendation is the aggregated, per-rule analyst output. Text is
// deterministic for identical input: shadow findings first, then merge,
// then usage.
type Recommendation struct {
	Rule       string
	Position   int
	Categories []Category
	Text       string
}

// Warning is a non-fatal normalization note (defaulted field, unparseable
// cell), returned alongside successful output rather than raised.
type Warning struct {
	Rule    string
	Field   string
	Message string
}

// SummaryStats are derived from the normalized rule list plus the three
// finding streams; they carry no analysis logic of their own.
type SummaryStats struct {
	TotalRules    int
	EnabledRules  int
	DisabledRules int

	AllowRules int
	DenyRules  int

	ZeroHitRules int
	TotalHits    uint64

	// Diversity metrics count distinct concrete tokens; wildcards excluded.
	UniqueApplications int
	UniqueServices     int
	UniqueZones        int
	UniqueSources      int
	UniqueDestinations int

	ShadowedRules      int
	MergeGroups        int
	RulesInMergeGroups int
	UnusedRules        int
	LowUseRules        int
	ActiveRules        int
}
