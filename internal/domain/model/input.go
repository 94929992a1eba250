// Package model contains domain models passed between layers.
package model

// Drinking records whether the student drinks alcohol.
type Drinking int

// Drinking domain.
const (
	DrinkingNo  Drinking = 1
	DrinkingYes Drinking = 2
)

// Valid reports whether d is inside its declared domain.
func (d Drinking) Valid() bool { return d == DrinkingNo || d == DrinkingYes }

// MyopiaDegree buckets the degree of short-sightedness.
type MyopiaDegree int

// MyopiaDegree domain. MyopiaNone is the baseline category.
const (
	MyopiaNone     MyopiaDegree = 1 // 0 degrees
	MyopiaMild     MyopiaDegree = 2 // 1-300 degrees
	MyopiaModerate MyopiaDegree = 3 // 301-600 degrees
	MyopiaSevere   MyopiaDegree = 4 // above 600 degrees
)

// Valid reports whether m is inside its declared domain.
func (m MyopiaDegree) Valid() bool { return m >= MyopiaNone && m <= MyopiaSevere }

// DaytimeMood is the self-reported adult daytime mood.
type DaytimeMood int

// DaytimeMood domain.
const (
	MoodNormal DaytimeMood = 1
	MoodLow    DaytimeMood = 2
)

// Valid reports whether m is inside its declared domain.
func (m DaytimeMood) Valid() bool { return m == MoodNormal || m == MoodLow }

// FamilyHistory records motion sickness among immediate relatives.
type FamilyHistory int

// FamilyHistory domain.
const (
	FamilyHistoryNone    FamilyHistory = 1
	FamilyHistoryPresent FamilyHistory = 2
)

// Valid reports whether f is inside its declared domain.
func (f FamilyHistory) Valid() bool { return f == FamilyHistoryNone || f == FamilyHistoryPresent }

// RawInput is the caller-supplied record before encoding.
// Continuous fields carry no range restriction.
type RawInput struct {
	TotalScore      float64 // simplified MSSQ-Long questionnaire total
	MeanSkinTemp    float64
	DeltaA          float64
	DeltaB          float64
	SlowGastricRate float64
	PIF             float64
	Penh            float64
	SCL             float64

	Drinking      Drinking
	Myopia        MyopiaDegree
	DaytimeMood   DaytimeMood
	FamilyHistory FamilyHistory
}
