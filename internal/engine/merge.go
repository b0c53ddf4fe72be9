package engine

import (
	"context"
	"fmt"
	"strings"

	"panos-policy-evaluator/internal/model"
)

// FindMergeCandidates proposes consolidating groups of adjacent, same-action
// rules whose match fields differ in at most cfg.MaxDifferingDimensions
// dimensions. Candidates are advisory: the engine never merges anything.
//
// Safety: members must be contiguous in evaluation order. A disabled rule may
// sit inside a candidate's position span only when its scope is provably
// disjoint from every member; otherwise the cluster is split there, since an
// operator re-enabling it could change which rule wins for shared traffic.
func FindMergeCandidates(ctx context.Context, rules []model.RuleRecord, cfg Config) ([]model.MergeCandidate, error) {
	var candidates []model.MergeCandidate
	var cluster []int // indices into rules

	flush := func() {
		if c, ok := buildCandidate(rules, cluster, cfg); ok {
			candidates = append(candidates, c)
		}
		cluster = cluster[:0]
	}

	for i := range rules {
		if err := ctx.Err(); err != nil {
			return nil, &AnalysisError{Reason: "merge scan aborted", Err: err}
		}
		r := &rules[i]

		if r.Disabled {
			// Inert on the device, but unsafe to span unless disjoint from
			// every current member.
			for _, m := range cluster {
				if overlaps(&rules[m], r) {
					flush()
					break
				}
			}
			continue
		}

		if len(cluster) == 0 {
			cluster = append(cluster, i)
			continue
		}

		if mergeable(rules, cluster, i, cfg) {
			cluster = append(cluster, i)
			continue
		}

		flush()
		cluster = append(cluster, i)
	}
	flush()

	return candidates, nil
}

// mergeable reports whether rules[next] can join the cluster: identical
// action and a cumulative differing-dimension set within the configured
// bound.
func mergeable(rules []model.RuleRecord, cluster []int, next int, cfg Config) bool {
	first := &rules[cluster[0]]
	cand := &rules[next]
	if first.Action != cand.Action {
		return false
	}
	trial := append(append([]int(nil), cluster...), next)
	return len(differingDimensions(rules, trial)) <= cfg.MaxDifferingDimensions
}

// differingDimensions returns the dimensions on which not all cluster
// members agree token-for-token (or all-wildcard), in canonical order.
func differingDimensions(rules []model.RuleRecord, cluster []int) []model.Dimension {
	var diff []model.Dimension
	for _, dim := range model.Dimensions {
		base := rules[cluster[0]].Field(dim)
		for _, idx := range cluster[1:] {
			if !rules[idx].Field(dim).Equal(base) {
				diff = append(diff, dim)
				break
			}
		}
	}
	return diff
}

// overlaps reports whether two rules share any possible traffic: every
// dimension pair must intersect for a packet to match both.
func overlaps(a, b *model.RuleRecord) bool {
	for _, dim := range model.Dimensions {
		if !a.Field(dim).Intersects(b.Field(dim)) {
			return false
		}
	}
	return true
}

// buildCandidate turns a cluster of at least two rules into a MergeCandidate,
// after a final check that no overlapping non-member sits inside the span.
func buildCandidate(rules []model.RuleRecord, cluster []int, cfg Config) (model.MergeCandidate, bool) {
	if len(cluster) < 2 {
		return model.MergeCandidate{}, false
	}
	if !interveningDisjoint(rules, cluster) {
		return model.MergeCandidate{}, false
	}

	diff := differingDimensions(rules, cluster)

	names := make([]string, len(cluster))
	positions := make([]int, len(cluster))
	for i, idx := range cluster {
		names[i] = rules[idx].Name
		positions[i] = rules[idx].Position
	}

	return model.MergeCandidate{
		Rules:           names,
		Positions:       positions,
		Confidence:      confidence(diff, cfg.DimensionWeights),
		DifferingFields: diff,
		Rationale:       rationale(diff, rules[cluster[0]].Action, len(cluster)),
	}, true
}

// interveningDisjoint verifies that every rule between the cluster's first
// and last position that is not a member has a scope disjoint from all
// members. When disjointness cannot be shown, the candidate is rejected
// rather than risk an unsafe merge.
func interveningDisjoint(rules []model.RuleRecord, cluster []int) bool {
	members := make(map[int]bool, len(cluster))
	for _, idx := range cluster {
		members[idx] = true
	}
	lo, hi := cluster[0], cluster[len(cluster)-1]
	for i := lo + 1; i < hi; i++ {
		if members[i] {
			continue
		}
		for _, m := range cluster {
			if overlaps(&rules[m], &rules[i]) {
				return false
			}
		}
	}
	return true
}

// confidence is the weighted fraction of dimensions on which all members
// agree. It is monotonically non-increasing in the number of differing
// dimensions.
func confidence(diff []model.Dimension, weights map[model.Dimension]float64) float64 {
	differs := make(map[model.Dimension]bool, len(diff))
	for _, d := range diff {
		differs[d] = true
	}
	var total, matched float64
	for _, dim := range model.Dimensions {
		w := weights[dim]
		total += w
		if !differs[dim] {
			matched += w
		}
	}
	if total == 0 {
		return 0
	}
	return matched / total
}

func rationale(diff []model.Dimension, action model.Action, size int) string {
	if len(diff) == 0 {
		return fmt.Sprintf("%d %s rules with identical match fields", size, action)
	}
	names := make([]string, len(diff))
	for i, d := range diff {
		names[i] = string(d)
	}
	return fmt.Sprintf("%d %s rules identical except %s", size, action, strings.Join(names, ", "))
}
