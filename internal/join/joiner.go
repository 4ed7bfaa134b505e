// Package join aggregates the claim table per policy and inner-joins it
// with the policy table to produce the modeling rows.
//
// A policy enters the modeling set only when its aggregated claim count
// equals the claim number reported on the policy row. Mismatches are
// dropped, matching the behavior of the source analysis. That drop can
// hide legitimate multi-claim policies whose reported count is stale; the
// joiner counts them (Stats.MismatchedPolicies) and logs a warning so the
// signal is visible without changing the output.
package join

import (
	"log/slog"
	"sort"

	"claimsev/internal/dataset"
)

// Stats reports what the join kept and dropped
type Stats struct {
	ClaimRows            int `json:"claim_rows"`
	ClaimPolicies        int `json:"claim_policies"`
	MatchedPolicies      int `json:"matched_policies"`
	MismatchedPolicies   int `json:"mismatched_policies"`
	OrphanPolicies       int `json:"orphan_policies"`
	ZeroExposurePolicies int `json:"zero_exposure_policies"`
}

// Aggregate rolls the claim table up to one (count, total) row per policy
// id. Output is sorted by policy id for deterministic downstream order.
func Aggregate(claims []dataset.ClaimRecord) []dataset.ClaimAggregate {
	byPolicy := make(map[int64]*dataset.ClaimAggregate)
	for _, c := range claims {
		agg, ok := byPolicy[c.PolicyID]
		if !ok {
			agg = &dataset.ClaimAggregate{PolicyID: c.PolicyID}
			byPolicy[c.PolicyID] = agg
		}
		agg.ClaimCount++
		agg.ClaimAmount += c.ClaimAmount
	}

	out := make([]dataset.ClaimAggregate, 0, len(byPolicy))
	for _, agg := range byPolicy {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PolicyID < out[j].PolicyID })
	return out
}

// Join inner-joins aggregated claims against policy records on
// (policy id, claim count == reported claim number) and derives the
// response as total claim amount per unit exposure. Policies without
// claims never appear; the response is defined only for policies with at
// least one claim. Pure function of its inputs.
func Join(claims []dataset.ClaimRecord, policies []dataset.PolicyRecord, logger *slog.Logger) ([]dataset.ModelingRow, Stats) {
	if logger == nil {
		logger = slog.Default()
	}

	aggregates := Aggregate(claims)
	stats := Stats{
		ClaimRows:     len(claims),
		ClaimPolicies: len(aggregates),
	}

	policyByID := make(map[int64]dataset.PolicyRecord, len(policies))
	for _, p := range policies {
		policyByID[p.PolicyID] = p
	}

	rows := make([]dataset.ModelingRow, 0, len(aggregates))
	for _, agg := range aggregates {
		policy, ok := policyByID[agg.PolicyID]
		if !ok {
			stats.OrphanPolicies++
			continue
		}
		if policy.ClaimNb != agg.ClaimCount {
			stats.MismatchedPolicies++
			continue
		}
		// the response is claim amount per unit exposure; without
		// positive exposure it is undefined, so the policy is dropped
		// here even when the loader's validation was bypassed
		if policy.Exposure <= 0 {
			stats.ZeroExposurePolicies++
			continue
		}

		rows = append(rows, dataset.ModelingRow{
			PolicyID:    agg.PolicyID,
			ClaimCount:  agg.ClaimCount,
			ClaimAmount: agg.ClaimAmount,
			Response:    agg.ClaimAmount / policy.Exposure,
			Exposure:    policy.Exposure,
			Area:        policy.Area,
			VehPower:    policy.VehPower,
			VehAge:      policy.VehAge,
			DrivAge:     policy.DrivAge,
			BonusMalus:  policy.BonusMalus,
			VehBrand:    policy.VehBrand,
			VehGas:      policy.VehGas,
			Density:     policy.Density,
			Region:      policy.Region,
		})
	}
	stats.MatchedPolicies = len(rows)

	if stats.ZeroExposurePolicies > 0 {
		logger.Warn("dropped policies without positive exposure",
			"zero_exposure_policies", stats.ZeroExposurePolicies,
		)
	}
	if stats.MismatchedPolicies > 0 {
		logger.Warn("dropped policies with disagreeing claim counts",
			"mismatched_policies", stats.MismatchedPolicies,
			"matched_policies", stats.MatchedPolicies,
		)
	}
	logger.Info("joined claim aggregates with policy features",
		"claim_rows", stats.ClaimRows,
		"claim_policies", stats.ClaimPolicies,
		"matched_policies", stats.MatchedPolicies,
		"orphan_policies", stats.OrphanPolicies,
	)

	return rows, stats
}
