// Package encoding turns caller-entered raw fields into the feature vector
// the classifier was trained on.
package encoding

import (
	"math"
	"strconv"

	"github.com/okian/motionrisk/internal/domain/model"
)

// Encode maps a RawInput to its FeatureVector. It has no side effects and
// returns identical vectors for identical inputs.
func Encode(raw model.RawInput) (model.FeatureVector, error) {
	if err := Validate(raw); err != nil {
		return model.FeatureVector{}, err
	}

	var v model.FeatureVector

	v[model.SlotTotalScore] = raw.TotalScore
	v[model.SlotMeanSkinTemp] = raw.MeanSkinTemp
	v[model.SlotDeltaA] = raw.DeltaA
	v[model.SlotDeltaB] = raw.DeltaB
	v[model.SlotSlowGastricRate] = raw.SlowGastricRate
	v[model.SlotPIF] = raw.PIF
	v[model.SlotPenh] = raw.Penh
	v[model.SlotSCL] = raw.SCL

	// Two-valued fields collapse to one indicator; myopia keeps one
	// indicator per non-baseline degree.
	v[model.SlotDrinkingYes] = indicator(raw.Drinking == model.DrinkingYes)
	v[model.SlotMyopiaMild] = indicator(raw.Myopia == model.MyopiaMild)
	v[model.SlotMyopiaModerate] = indicator(raw.Myopia == model.MyopiaModerate)
	v[model.SlotMyopiaSevere] = indicator(raw.Myopia == model.MyopiaSevere)
	v[model.SlotMoodLow] = indicator(raw.DaytimeMood == model.MoodLow)
	v[model.SlotFamilyHistoryPresent] = indicator(raw.FamilyHistory == model.FamilyHistoryPresent)

	return v, nil
}

// Validate checks that continuous fields are finite numbers and that every
// categorical field lies inside its domain.
func Validate(raw model.RawInput) error {
	continuous := []struct {
		field string
		value float64
	}{
		{model.FieldTotalScore, raw.TotalScore},
		{model.FieldMeanSkinTemp, raw.MeanSkinTemp},
		{model.FieldDeltaA, raw.DeltaA},
		{model.FieldDeltaB, raw.DeltaB},
		{model.FieldSlowGastricRate, raw.SlowGastricRate},
		{model.FieldPIF, raw.PIF},
		{model.FieldPenh, raw.Penh},
		{model.FieldSCL, raw.SCL},
	}
	for _, c := range continuous {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return fieldError(c.field, strconv.FormatFloat(c.value, 'g', -1, 64), ErrNotNumeric)
		}
	}

	categorical := []struct {
		field string
		value int
		valid bool
	}{
		{model.FieldDrinking, int(raw.Drinking), raw.Drinking.Valid()},
		{model.FieldMyopiaDegree, int(raw.Myopia), raw.Myopia.Valid()},
		{model.FieldDaytimeMood, int(raw.DaytimeMood), raw.DaytimeMood.Valid()},
		{model.FieldFamilyHistory, int(raw.FamilyHistory), raw.FamilyHistory.Valid()},
	}
	for _, c := range categorical {
		if !c.valid {
			return fieldError(c.field, strconv.Itoa(c.value), ErrOutOfDomain)
		}
	}
	return nil
}

func indicator(set bool) float64 {
	if set {
		return 1
	}
	return 0
}
