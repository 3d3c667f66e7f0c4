package types

import "encoding/json"

// Recommendation source tags.
const (
	RecommendationSourceLLM       = "llm"
	RecommendationSourceOptimizer = "optimizer_fallback"
)

// ScoredCandidate is a candidate action scored by the engine's optimizer.
type ScoredCandidate struct {
	Description       string          `json:"description"`
	Action            json.RawMessage `json:"action"`
	ExpectedFinancial float64         `json:"expected_financial"`
	ExpectedQuality   float64         `json:"expected_quality"`
	ExpectedTotal     float64         `json:"expected_total"`
	DeltaVsBaseline   float64         `json:"delta_vs_baseline"`
	P10Total          float64         `json:"p10_total"`
	P90Total          float64         `json:"p90_total"`
	Reasoning         string          `json:"reasoning"`
}

// Recommendation is the advisory output for a decision step. The
// recommended action is an opaque payload from a weaker contract than the
// step-submission one; convert it with actions.FromRecommendation before
// treating it as a submittable action.
type Recommendation struct {
	Step                StepType          `json:"step"`
	RecommendedAction   json.RawMessage   `json:"recommended_action"`
	Reasoning           string            `json:"reasoning"`
	Alternatives        []string          `json:"alternatives"`
	CostImpact          float64           `json:"cost_impact"`
	RiskFlags           []string          `json:"risk_flags"`
	Confidence          float64           `json:"confidence"`
	Source              string            `json:"source"`
	LLMAvailable        bool              `json:"llm_available"`
	OptimizerCandidates []ScoredCandidate `json:"optimizer_candidates"`
	BaselineCost        float64           `json:"baseline_cost"`
	HorizonUsed         int               `json:"horizon_used"`
}
