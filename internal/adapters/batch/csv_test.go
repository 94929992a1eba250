package batch

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/okian/motionrisk/internal/adapters/mq/queue"
	"github.com/okian/motionrisk/internal/adapters/mq/worker"
	"github.com/okian/motionrisk/internal/domain/encoding"
	"github.com/okian/motionrisk/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// header lists every field key, optionally preceded by the id column.
func header(withID bool) string {
	var keys []string
	if withID {
		keys = append(keys, ColumnID)
	}
	for _, f := range model.Fields() {
		keys = append(keys, f.Key)
	}
	return strings.Join(keys, ",")
}

// line renders a row in Fields order with overrides applied.
func line(id string, overrides map[string]string) string {
	var cells []string
	if id != "" {
		cells = append(cells, id)
	}
	defaults := model.DefaultForm()
	for _, f := range model.Fields() {
		v := defaults[f.Key]
		if o, ok := overrides[f.Key]; ok {
			v = o
		}
		cells = append(cells, v)
	}
	return strings.Join(cells, ",")
}

func TestReadCSV(t *testing.T) {
	Convey("Given CSV input", t, func() {
		Convey("When the header names every field and an id", func() {
			in := header(true) + "\n" +
				line("ana", map[string]string{model.FieldMyopiaDegree: "3"}) + "\n" +
				line("", map[string]string{model.FieldDrinking: "2"}) + "\n"
			jobs, err := ReadCSV(strings.NewReader(in))

			Convey("Then each line becomes a numbered job", func() {
				So(err, ShouldBeNil)
				So(jobs, ShouldHaveLength, 2)
				So(jobs[0].Row, ShouldEqual, 1)
				So(jobs[0].ID, ShouldEqual, "ana")
				So(jobs[0].Fields[model.FieldMyopiaDegree], ShouldEqual, "3")
				So(jobs[0].Fields, ShouldNotContainKey, ColumnID)
				So(jobs[1].Row, ShouldEqual, 2)
				So(jobs[1].ID, ShouldEqual, "2")
				So(jobs[1].Fields[model.FieldDrinking], ShouldEqual, "2")
			})
		})

		Convey("When a cell is blank", func() {
			overrides := map[string]string{model.FieldTotalScore: "", model.FieldPenh: "  "}
			jobs, err := ReadCSV(strings.NewReader(header(false) + "\n" + line("", overrides) + "\n"))

			Convey("Then it takes the field default", func() {
				So(err, ShouldBeNil)
				So(jobs[0].Fields, ShouldResemble, model.DefaultForm())
			})
		})

		Convey("When header cells differ in case and spacing", func() {
			h := strings.ToUpper(strings.ReplaceAll(header(false), ",", " , "))
			jobs, err := ReadCSV(strings.NewReader(h + "\n" + line("", nil) + "\n"))

			Convey("Then they still match field keys", func() {
				So(err, ShouldBeNil)
				So(jobs, ShouldHaveLength, 1)
			})
		})

		Convey("When the input is empty", func() {
			_, err := ReadCSV(strings.NewReader(""))
			So(errors.Is(err, ErrEmptyInput), ShouldBeTrue)
		})

		Convey("When a field column is missing", func() {
			h := strings.Replace(header(false), model.FieldSCL, ColumnID, 1)
			_, err := ReadCSV(strings.NewReader(h + "\n"))
			So(errors.Is(err, ErrMissingColumn), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, model.FieldSCL)
		})

		Convey("When an unknown column is present", func() {
			_, err := ReadCSV(strings.NewReader(header(false) + ",shoe_size\n"))
			So(errors.Is(err, ErrUnknownColumn), ShouldBeTrue)
		})

		Convey("When a column repeats", func() {
			_, err := ReadCSV(strings.NewReader(header(false) + "," + model.FieldPIF + "\n"))
			So(errors.Is(err, ErrDuplicateColumn), ShouldBeTrue)
		})

		Convey("When a row has the wrong number of cells", func() {
			_, err := ReadCSV(strings.NewReader(header(false) + "\n1,2\n"))
			So(errors.Is(err, ErrMalformed), ShouldBeTrue)
		})
	})
}

func TestWriteCSV(t *testing.T) {
	Convey("Given mixed results", t, func() {
		results := []worker.Result{
			{Job: queue.Job{Row: 1, ID: "ana"}, Assessment: model.NewAssessment("a", model.VerdictAtRisk, model.FeatureVector{}, time.Time{})},
			{Job: queue.Job{Row: 2, ID: "ben"}, Err: &encoding.InvalidFieldError{Field: model.FieldDrinking, Value: "7", Kind: encoding.ErrOutOfDomain}},
		}

		var buf bytes.Buffer
		err := WriteCSV(&buf, results)

		Convey("Then one line is written per result after the header", func() {
			So(err, ShouldBeNil)
			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			So(lines, ShouldHaveLength, 3)
			So(lines[0], ShouldEqual, "row,id,verdict,label,error_field,error")
			So(lines[1], ShouldEqual, fmt.Sprintf("1,ana,1,%s,,", model.VerdictAtRisk.Label()))
			So(lines[2], ShouldStartWith, "2,ben,,,drinking,")
		})
	})
}
