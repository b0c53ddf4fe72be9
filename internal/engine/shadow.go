package engine

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"panos-policy-evaluator/internal/model"
)

// FindShadows reports every enabled rule whose entire match scope is already
// covered by an earlier enabled rule. The device evaluates rules top-down and
// stops at the first match, so a fully subsumed rule can never fire,
// regardless of either rule's action.
//
// The scan is pairwise, O(n²) worst case, which is fine for the hundreds to
// low thousands of rules a real policy carries. Wildcard-vs-concrete set
// semantics make index structures unattractive, so none are used. Rules are
// independent on the later-rule axis: each worker owns a disjoint stripe of
// later-rule indices and writes into its own result slots.
func FindShadows(ctx context.Context, rules []model.RuleRecord, workers int) ([]model.ShadowFinding, error) {
	if workers < 1 {
		workers = 1
	}
	if workers > len(rules) {
		workers = len(rules)
	}

	slots := make([]*model.ShadowFinding, len(rules))

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		start := w
		g.Go(func() error {
			for p := start; p < len(rules); p += workers {
				if err := gctx.Err(); err != nil {
					return err
				}
				later := &rules[p]
				if later.Disabled {
					continue
				}
				// Earliest subsuming rule is the one that actually fires;
				// stop at the first hit.
				for q := 0; q < p; q++ {
					earlier := &rules[q]
					if earlier.Disabled {
						continue
					}
					if subsumes(earlier, later) {
						slots[p] = &model.ShadowFinding{
							ShadowedRule:      later.Name,
							ShadowedPosition:  later.Position,
							ShadowingRule:     earlier.Name,
							ShadowingPosition: earlier.Position,
							MatchedDimensions: append([]model.Dimension(nil), model.Dimensions...),
						}
						break
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &AnalysisError{Reason: "shadow scan aborted", Err: err}
	}

	var findings []model.ShadowFinding
	for _, f := range slots {
		if f != nil {
			findings = append(findings, *f)
		}
	}
	sort.Slice(findings, func(i, j int) bool {
		return findings[i].ShadowedPosition < findings[j].ShadowedPosition
	})
	return findings, nil
}

// subsumes reports whether earlier covers later on every match dimension.
// Partial coverage does not count: one divergent concrete dimension means
// the later rule can still fire.
func subsumes(earlier, later *model.RuleRecord) bool {
	for _, dim := range model.Dimensions {
		if !earlier.Field(dim).Superset(later.Field(dim)) {
			return false
		}
	}
	return true
}
