package engine

import (
	"context"

	"panos-policy-evaluator/internal/model"
)

// ClassifyUsage assigns a usage tier to every enabled rule. Classification
// is a pure function of (hitCount, age, config); identical inputs always
// yield identical tiers.
func ClassifyUsage(ctx context.Context, rules []model.RuleRecord, cfg Config) ([]model.UsageFinding, error) {
	var findings []model.UsageFinding
	for i := range rules {
		if err := ctx.Err(); err != nil {
			return nil, &AnalysisError{Reason: "usage scan aborted", Err: err}
		}
		r := &rules[i]
		if r.Disabled {
			continue
		}
		tier, age := usageTier(r, cfg)
		findings = append(findings, model.UsageFinding{
			Rule:     r.Name,
			Position: r.Position,
			Tier:     tier,
			HitCount: r.HitCount,
			AgeDays:  age,
		})
	}
	return findings, nil
}

// usageTier classifies one rule. Rules at or below the zero-hit cutoff are
// unused. Rules averaging fewer than the configured hits per elapsed day
// since creation are low-use; without a creation timestamp the rate is
// unknowable, so such rules are only ever unused or active.
func usageTier(r *model.RuleRecord, cfg Config) (model.UsageTier, float64) {
	var age float64
	if !r.Created.IsZero() && cfg.Now.After(r.Created) {
		age = cfg.Now.Sub(r.Created).Hours() / 24
	}

	if r.HitCount <= cfg.ZeroHitCutoff {
		return model.TierUnused, age
	}
	if age >= 1 && float64(r.HitCount)/age < cfg.LowUseHitsPerDay {
		return model.TierLowUse, age
	}
	return model.TierActive, age
}
