package model

// FieldKind distinguishes how a raw field is entered and parsed.
type FieldKind string

// Field kinds.
const (
	KindContinuous  FieldKind = "continuous"
	KindCategorical FieldKind = "categorical"
)

// Raw field keys as used on forms and wire payloads.
const (
	FieldTotalScore      = "total_score"
	FieldMeanSkinTemp    = "mean_skin_temp"
	FieldDeltaA          = "delta_a"
	FieldDeltaB          = "delta_b"
	FieldSlowGastricRate = "slow_gastric_rate"
	FieldPIF             = "pif"
	FieldPenh            = "penh"
	FieldSCL             = "scl"
	FieldDrinking        = "drinking"
	FieldMyopiaDegree    = "myopia_degree"
	FieldDaytimeMood     = "daytime_mood"
	FieldFamilyHistory   = "family_history"
)

// Choice is one allowed value of a categorical field.
type Choice struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

// FieldSpec describes a RawInput field for front ends.
type FieldSpec struct {
	Key     string    `json:"key"`
	Label   string    `json:"label"`
	Group   string    `json:"group"`
	Kind    FieldKind `json:"kind"`
	Default string    `json:"default"`
	Choices []Choice  `json:"choices,omitempty"`
}

// Domain returns the allowed values of a categorical field.
func (f FieldSpec) Domain() []int {
	values := make([]int, len(f.Choices))
	for i, c := range f.Choices {
		values[i] = c.Value
	}
	return values
}

var fieldSpecs = []FieldSpec{
	{Key: FieldDrinking, Label: "Drinking", Group: "personal", Kind: KindCategorical, Default: "1",
		Choices: []Choice{{int(DrinkingNo), "does not drink"}, {int(DrinkingYes), "drinks"}}},
	{Key: FieldDaytimeMood, Label: "Adult daytime mood", Group: "personal", Kind: KindCategorical, Default: "1",
		Choices: []Choice{{int(MoodNormal), "normal"}, {int(MoodLow), "low"}}},
	{Key: FieldFamilyHistory, Label: "Motion sickness in immediate family", Group: "personal", Kind: KindCategorical, Default: "1",
		Choices: []Choice{{int(FamilyHistoryNone), "none"}, {int(FamilyHistoryPresent), "present"}}},
	{Key: FieldMyopiaDegree, Label: "Eyesight", Group: "personal", Kind: KindCategorical, Default: "1",
		Choices: []Choice{
			{int(MyopiaNone), "normal (0 degrees)"},
			{int(MyopiaMild), "mild myopia (1-300 degrees)"},
			{int(MyopiaModerate), "moderate myopia (301-600 degrees)"},
			{int(MyopiaSevere), "severe myopia (over 600 degrees)"},
		}},
	{Key: FieldTotalScore, Label: "MSSQ-Long total score", Group: "questionnaire", Kind: KindContinuous, Default: "18.6"},
	{Key: FieldMeanSkinTemp, Label: "Mean skin temperature", Group: "physiology", Kind: KindContinuous, Default: "30.5"},
	{Key: FieldSlowGastricRate, Label: "Slow gastric rate", Group: "physiology", Kind: KindContinuous, Default: "0"},
	{Key: FieldDeltaA, Label: "Delta a*", Group: "physiology", Kind: KindContinuous, Default: "1.78"},
	{Key: FieldDeltaB, Label: "Delta b*", Group: "physiology", Kind: KindContinuous, Default: "0.89"},
	{Key: FieldPIF, Label: "PIF", Group: "physiology", Kind: KindContinuous, Default: "1.2"},
	{Key: FieldPenh, Label: "Penh", Group: "physiology", Kind: KindContinuous, Default: "0.5"},
	{Key: FieldSCL, Label: "SCL", Group: "physiology", Kind: KindContinuous, Default: "3.4"},
}

// Fields returns every raw field in display order.
func Fields() []FieldSpec {
	out := make([]FieldSpec, len(fieldSpecs))
	for i, f := range fieldSpecs {
		f.Choices = append([]Choice(nil), f.Choices...)
		out[i] = f
	}
	return out
}

// LookupField returns the spec for key.
func LookupField(key string) (FieldSpec, bool) {
	for _, f := range fieldSpecs {
		if f.Key == key {
			f.Choices = append([]Choice(nil), f.Choices...)
			return f, true
		}
	}
	return FieldSpec{}, false
}

// DefaultForm returns the pre-filled values of every field.
func DefaultForm() map[string]string {
	form := make(map[string]string, len(fieldSpecs))
	for _, f := range fieldSpecs {
		form[f.Key] = f.Default
	}
	return form
}
