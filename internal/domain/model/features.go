package model

// Slot indexes a position in the FeatureVector.
type Slot int

// Feature slots in training-time column order. The order is load-bearing:
// the scaler and classifier were fitted on exactly this layout.
const (
	SlotTotalScore Slot = iota
	SlotMeanSkinTemp
	SlotDeltaA
	SlotDeltaB
	SlotSlowGastricRate
	SlotPIF
	SlotPenh
	SlotSCL
	SlotDrinkingYes
	SlotMyopiaMild
	SlotMyopiaModerate
	SlotMyopiaSevere
	SlotMoodLow
	SlotFamilyHistoryPresent

	// FeatureCount is the fixed length of every FeatureVector.
	FeatureCount = int(iota)
)

// FeatureVector is the ordered numeric input of the scaler and classifier.
// Being an array, every slot always exists and defaults to 0.
type FeatureVector [FeatureCount]float64

// Slice returns a copy of v as a slice.
func (v FeatureVector) Slice() []float64 {
	out := make([]float64, FeatureCount)
	copy(out, v[:])
	return out
}

// Feature describes one slot of the schema.
type Feature struct {
	Slot   Slot   `json:"slot"`
	Name   string `json:"name"`
	Column string `json:"column"` // column name used when the artifacts were fitted
}

var features = [FeatureCount]Feature{
	{SlotTotalScore, "total_score", "长表总分"},
	{SlotMeanSkinTemp, "mean_skin_temp", "皮温mean"},
	{SlotDeltaA, "delta_a", "△a*"},
	{SlotDeltaB, "delta_b", "△B*"},
	{SlotSlowGastricRate, "slow_gastric_rate", "缓慢胃率"},
	{SlotPIF, "pif", "PIF"},
	{SlotPenh, "penh", "Penh"},
	{SlotSCL, "scl", "SCL"},
	{SlotDrinkingYes, "drinking_2", "饮酒_2"},
	{SlotMyopiaMild, "myopia_degree_2", "近视的度数_2"},
	{SlotMyopiaModerate, "myopia_degree_3", "近视的度数_3"},
	{SlotMyopiaSevere, "myopia_degree_4", "近视的度数_4"},
	{SlotMoodLow, "daytime_mood_2", "成年期白天的情绪_2"},
	{SlotFamilyHistoryPresent, "family_history_2", "直系亲属是否有疾病史_2"},
}

// Features returns the schema in slot order.
func Features() []Feature {
	out := make([]Feature, FeatureCount)
	copy(out, features[:])
	return out
}

// FeatureNames returns the canonical slot names in slot order.
func FeatureNames() []string {
	names := make([]string, FeatureCount)
	for i, f := range features {
		names[i] = f.Name
	}
	return names
}

// MatchesSchema reports whether names lists the schema in slot order.
// Each entry may use either the canonical name or the training column.
func MatchesSchema(names []string) bool {
	if len(names) != FeatureCount {
		return false
	}
	for i, n := range names {
		if n != features[i].Name && n != features[i].Column {
			return false
		}
	}
	return true
}

// Name returns the canonical name of s, or "" when out of range.
func (s Slot) Name() string {
	if s < 0 || int(s) >= FeatureCount {
		return ""
	}
	return features[s].Name
}
