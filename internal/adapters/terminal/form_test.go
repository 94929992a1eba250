package terminal_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/okian/motionrisk/internal/adapters/terminal"
	"github.com/okian/motionrisk/internal/domain/inference"
	"github.com/okian/motionrisk/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// recordingAssessor flags risk when family history is present.
type recordingAssessor struct {
	inputs []model.RawInput
	err    error
}

func (r *recordingAssessor) AssessInput(_ context.Context, raw model.RawInput) (model.Assessment, error) {
	r.inputs = append(r.inputs, raw)
	if r.err != nil {
		return model.Assessment{}, r.err
	}
	verdict := model.VerdictNoRisk
	if raw.FamilyHistory == model.FamilyHistoryPresent {
		verdict = model.VerdictAtRisk
	}
	return model.NewAssessment("t", verdict, model.FeatureVector{}, time.Time{}), nil
}

// answers joins one line per prompt.
func answers(lines ...string) *strings.Reader {
	return strings.NewReader(strings.Join(lines, "\n") + "\n")
}

// blanks returns n empty answers, accepting n defaults.
func blanks(n int) []string {
	return make([]string, n)
}

func TestFormRun(t *testing.T) {
	Convey("Given a terminal form", t, func() {
		assessor := &recordingAssessor{}
		form := terminal.New(assessor)
		var out strings.Builder
		ctx := context.Background()

		Convey("When every default is accepted", func() {
			err := form.Run(ctx, answers(blanks(12)...), &out)

			Convey("Then the default input should be assessed", func() {
				So(err, ShouldBeNil)
				So(assessor.inputs, ShouldHaveLength, 1)
				raw := assessor.inputs[0]
				So(raw.TotalScore, ShouldEqual, 18.6)
				So(raw.MeanSkinTemp, ShouldEqual, 30.5)
				So(raw.SCL, ShouldEqual, 3.4)
				So(raw.Myopia, ShouldEqual, model.MyopiaNone)
				So(out.String(), ShouldContainSubstring, "Result: no risk")
				So(out.String(), ShouldContainSubstring, model.VerdictNoRisk.Advice())
			})

			Convey("And categorical prompts should list their choices", func() {
				So(out.String(), ShouldContainSubstring, "1=does not drink, 2=drinks")
				So(out.String(), ShouldContainSubstring, "-- physiology --")
			})
		})

		Convey("When answers are typed in catalogue order", func() {
			// drinking, mood, family history, myopia, then the continuous fields
			err := form.Run(ctx, answers("2", "2", "2", "4", "20", "31", "0.5", "1.5", "1", "1.1", "0.4", "2.9"), &out)

			Convey("Then each answer should land in its field", func() {
				So(err, ShouldBeNil)
				raw := assessor.inputs[0]
				So(raw.Drinking, ShouldEqual, model.DrinkingYes)
				So(raw.DaytimeMood, ShouldEqual, model.MoodLow)
				So(raw.FamilyHistory, ShouldEqual, model.FamilyHistoryPresent)
				So(raw.Myopia, ShouldEqual, model.MyopiaSevere)
				So(raw.TotalScore, ShouldEqual, 20)
				So(raw.SlowGastricRate, ShouldEqual, 0.5)
				So(raw.SCL, ShouldEqual, 2.9)
				So(out.String(), ShouldContainSubstring, "Result: at-risk")
			})
		})

		Convey("When an answer is invalid", func() {
			lines := append([]string{"maybe", "3", "2"}, blanks(11)...)
			err := form.Run(ctx, answers(lines...), &out)

			Convey("Then the same field should be asked again until it is valid", func() {
				So(err, ShouldBeNil)
				So(strings.Count(out.String(), "Drinking ("), ShouldEqual, 3)
				So(out.String(), ShouldContainSubstring, "not a number, try again")
				So(out.String(), ShouldContainSubstring, "outside declared domain, try again")
				So(assessor.inputs[0].Drinking, ShouldEqual, model.DrinkingYes)
			})
		})

		Convey("When input ends early", func() {
			err := form.Run(ctx, answers("1", "1"), &out)

			Convey("Then the run should abort without assessing", func() {
				So(errors.Is(err, terminal.ErrAborted), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, model.FieldFamilyHistory)
				So(assessor.inputs, ShouldBeEmpty)
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			err := form.Run(cctx, answers(blanks(12)...), &out)

			Convey("Then it should stop before prompting", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(assessor.inputs, ShouldBeEmpty)
			})
		})

		Convey("When the assessor fails", func() {
			assessor.err = &inference.InferenceError{Stage: inference.StageClassify, Err: errors.New("width")}
			err := form.Run(ctx, answers(blanks(12)...), &out)

			Convey("Then the failure should be returned", func() {
				So(errors.Is(err, inference.ErrInference), ShouldBeTrue)
				So(out.String(), ShouldNotContainSubstring, "Result:")
			})
		})
	})

	Convey("Given a repeating terminal form", t, func() {
		assessor := &recordingAssessor{}
		form := terminal.New(assessor, terminal.WithRepeat(true))
		var out strings.Builder

		Convey("When the user asks for a second student and then stops", func() {
			lines := append(blanks(12), "y")
			lines = append(lines, blanks(12)...)
			lines = append(lines, "n")
			err := form.Run(context.Background(), answers(lines...), &out)

			Convey("Then two students should be assessed", func() {
				So(err, ShouldBeNil)
				So(assessor.inputs, ShouldHaveLength, 2)
				So(strings.Count(out.String(), "Assess another student?"), ShouldEqual, 2)
			})
		})

		Convey("When input ends at the repeat prompt", func() {
			err := form.Run(context.Background(), answers(blanks(12)...), &out)

			Convey("Then the run should end cleanly", func() {
				So(err, ShouldBeNil)
				So(assessor.inputs, ShouldHaveLength, 1)
			})
		})
	})
}
