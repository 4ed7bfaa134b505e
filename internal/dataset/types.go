package dataset

// PolicyRecord is one row of the policy risk-feature table. One row per
// policy, keyed by PolicyID.
type PolicyRecord struct {
	PolicyID   int64   `json:"policy_id"`
	ClaimNb    int     `json:"claim_nb"`
	Exposure   float64 `json:"exposure"`
	Area       string  `json:"area"`
	VehPower   int     `json:"veh_power"`
	VehAge     int     `json:"veh_age"`
	DrivAge    int     `json:"driv_age"`
	BonusMalus int     `json:"bonus_malus"`
	VehBrand   string  `json:"veh_brand"`
	VehGas     string  `json:"veh_gas"`
	Density    int     `json:"density"`
	Region     string  `json:"region"`
}

// IsValid checks structural validity of a policy row
func (p PolicyRecord) IsValid() bool {
	return p.PolicyID > 0 && p.Exposure > 0 && p.ClaimNb >= 0 &&
		p.VehPower > 0 && p.VehAge >= 0 && p.DrivAge > 0 &&
		p.BonusMalus > 0 && p.Density > 0
}

// ClaimRecord is one row of the individual claim table. One row per claim,
// many rows per policy possible.
type ClaimRecord struct {
	PolicyID    int64   `json:"policy_id"`
	ClaimAmount float64 `json:"claim_amount"`
}

// IsValid checks structural validity of a claim row
func (c ClaimRecord) IsValid() bool {
	return c.PolicyID > 0 && c.ClaimAmount > 0
}

// ClaimAggregate is the per-policy rollup of the claim table
type ClaimAggregate struct {
	PolicyID    int64   `json:"policy_id"`
	ClaimCount  int     `json:"claim_count"`
	ClaimAmount float64 `json:"claim_amount"`
}

// ModelingRow is the join of a ClaimAggregate with its PolicyRecord plus
// the derived response. Response is total claim amount per unit exposure
// ("claim amount exposure"), defined only for Exposure > 0.
type ModelingRow struct {
	PolicyID    int64   `json:"policy_id"`
	ClaimCount  int     `json:"claim_count"`
	ClaimAmount float64 `json:"claim_amount"`
	Response    float64 `json:"response"`
	Exposure    float64 `json:"exposure"`
	Area        string  `json:"area"`
	VehPower    int     `json:"veh_power"`
	VehAge      int     `json:"veh_age"`
	DrivAge     int     `json:"driv_age"`
	BonusMalus  int     `json:"bonus_malus"`
	VehBrand    string  `json:"veh_brand"`
	VehGas      string  `json:"veh_gas"`
	Density     int     `json:"density"`
	Region      string  `json:"region"`
}

// TransformedRow is a ModelingRow after outlier trimming and
// transformation. Response, VehPower, VehAge, BonusMalus and Density are
// log10 scale (VehAge with a +10 offset applied before the log). Area and
// VehGas are dropped. ExposureBucket is the ordered code of the exposure
// bin: 0 for [0,.25), 1 for [.25,.75), 2 for [.75,1), 3 for exactly 1.
type TransformedRow struct {
	PolicyID       int64   `json:"policy_id"`
	Response       float64 `json:"response"`
	ClaimCount     int     `json:"claim_count"`
	Exposure       float64 `json:"exposure"`
	ExposureBucket int     `json:"exposure_bucket"`
	VehPower       float64 `json:"veh_power"`
	VehAge         float64 `json:"veh_age"`
	DrivAge        int     `json:"driv_age"`
	BonusMalus     float64 `json:"bonus_malus"`
	Density        float64 `json:"density"`
	VehBrand       string  `json:"veh_brand"`
	Region         string  `json:"region"`
}
