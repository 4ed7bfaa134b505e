package model

import (
	"fmt"
	"strings"
)

// Unit is one fitting unit: a preprocessing recipe explicitly paired with
// a learning algorithm, identified by a stable name. The registry is a
// hand-enumerated list, not a recipe x algorithm cross-product: some
// combinations are intentionally absent (the linear model always takes
// dummy encoding, never one-hot, so the intercept stays full rank).
type Unit struct {
	ID          string
	Description string
	Recipe      Recipe
	New         func(seed int64) Learner
}

// Registry returns the fixed fitting units, in evaluation order. All
// learners run with default hyperparameters; there is no tuning pass.
func Registry() []Unit {
	return []Unit{
		{
			ID:          "lm",
			Description: "linear regression, dummy-encoded categoricals",
			Recipe:      Recipe{Encoding: EncodingDummy},
			New:         func(int64) Learner { return NewOLS() },
		},
		{
			ID:          "rf",
			Description: "random forest, native category codes",
			Recipe:      Recipe{Encoding: EncodingOrdinal},
			New:         func(seed int64) Learner { return NewForest(seed) },
		},
		{
			ID:          "xgb",
			Description: "gradient-boosted trees, one-hot categoricals",
			Recipe:      Recipe{Encoding: EncodingOneHot},
			New:         func(int64) Learner { return NewGradientBoost() },
		},
	}
}

// Lookup resolves unit ids against the registry, preserving registry
// order. An empty selection means the full registry.
func Lookup(ids []string) ([]Unit, error) {
	all := Registry()
	if len(ids) == 0 {
		return all, nil
	}

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[strings.TrimSpace(id)] = true
	}

	var out []Unit
	for _, u := range all {
		if wanted[u.ID] {
			out = append(out, u)
			delete(wanted, u.ID)
		}
	}
	if len(wanted) > 0 {
		unknown := make([]string, 0, len(wanted))
		for id := range wanted {
			unknown = append(unknown, id)
		}
		return nil, fmt.Errorf("unknown model units: %s", strings.Join(unknown, ", "))
	}

	return out, nil
}
