package encoding

import (
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/okian/motionrisk/internal/domain/model"
	"github.com/shopspring/decimal"
)

const maxDecimalExponent = 400

// ParseForm builds a RawInput from string values keyed by field key.
// Every catalogue field must be present; unknown keys are rejected.
func ParseForm(form map[string]string) (model.RawInput, error) {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, ok := model.LookupField(k); !ok {
			return model.RawInput{}, fieldError(k, "", ErrUnknownField)
		}
	}

	var raw model.RawInput
	for _, spec := range model.Fields() {
		value, ok := form[spec.Key]
		if !ok {
			return model.RawInput{}, fieldError(spec.Key, "", ErrMissingField)
		}
		if err := ParseField(&raw, spec.Key, value); err != nil {
			return model.RawInput{}, err
		}
	}
	return raw, nil
}

// ParseField parses value and stores it into the matching field of raw.
// raw is left untouched on error.
func ParseField(raw *model.RawInput, key, value string) error {
	spec, ok := model.LookupField(key)
	if !ok {
		return fieldError(key, "", ErrUnknownField)
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return fieldError(key, "", ErrMissingField)
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return fieldError(key, value, ErrNotNumeric)
	}
	if d.IsZero() {
		d = decimal.Zero
	}
	// Conversions below expand 10^exponent; nothing this far out fits a float64.
	if exp := d.Exponent(); exp < -maxDecimalExponent || exp > maxDecimalExponent {
		return fieldError(key, value, ErrNotNumeric)
	}

	if spec.Kind == model.KindCategorical {
		n := d.IntPart()
		if !d.IsInteger() || !decimal.NewFromInt(n).Equal(d) || !slices.Contains(spec.Domain(), int(n)) {
			return fieldError(key, value, ErrOutOfDomain)
		}
		setCategorical(raw, key, int(n))
		return nil
	}

	f, _ := d.Float64()
	if math.IsInf(f, 0) {
		return fieldError(key, value, ErrNotNumeric)
	}
	setContinuous(raw, key, f)
	return nil
}

func setContinuous(raw *model.RawInput, key string, f float64) {
	switch key {
	case model.FieldTotalScore:
		raw.TotalScore = f
	case model.FieldMeanSkinTemp:
		raw.MeanSkinTemp = f
	case model.FieldDeltaA:
		raw.DeltaA = f
	case model.FieldDeltaB:
		raw.DeltaB = f
	case model.FieldSlowGastricRate:
		raw.SlowGastricRate = f
	case model.FieldPIF:
		raw.PIF = f
	case model.FieldPenh:
		raw.Penh = f
	case model.FieldSCL:
		raw.SCL = f
	}
}

func setCategorical(raw *model.RawInput, key string, v int) {
	switch key {
	case model.FieldDrinking:
		raw.Drinking = model.Drinking(v)
	case model.FieldMyopiaDegree:
		raw.Myopia = model.MyopiaDegree(v)
	case model.FieldDaytimeMood:
		raw.DaytimeMood = model.DaytimeMood(v)
	case model.FieldFamilyHistory:
		raw.FamilyHistory = model.FamilyHistory(v)
	}
}
