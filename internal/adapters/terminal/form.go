// Package terminal runs the assessment form as an interactive prompt.
package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/okian/motionrisk/internal/domain/encoding"
	"github.com/okian/motionrisk/internal/domain/model"
)

// Assessor classifies a parsed input.
type Assessor interface {
	AssessInput(ctx context.Context, raw model.RawInput) (model.Assessment, error)
}

// Form prompts for every field in catalogue order.
type Form struct {
	assessor Assessor
	fields   []model.FieldSpec
	repeat   bool
}

// Option applies a configuration option to the Form.
type Option func(*Form)

// WithRepeat asks whether to assess another student after each result.
func WithRepeat(repeat bool) Option {
	return func(f *Form) {
		f.repeat = repeat
	}
}

// New creates a form bound to assessor.
func New(assessor Assessor, opts ...Option) *Form {
	f := &Form{assessor: assessor, fields: model.Fields()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Run reads answers from in and writes prompts and results to out. An
// invalid answer re-prompts the same field; an empty answer takes the
// shown default. End of input before the form is complete is ErrAborted.
func (f *Form) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)

	for {
		raw, err := f.collect(ctx, sc, out)
		if err != nil {
			return err
		}

		a, err := f.assessor.AssessInput(ctx, raw)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nResult: %s\n%s\n", a.Label, a.Advice)

		if !f.repeat {
			return nil
		}
		fmt.Fprint(out, "\nAssess another student? [y/N]: ")
		if !sc.Scan() {
			return sc.Err()
		}
		if answer := strings.ToLower(strings.TrimSpace(sc.Text())); answer != "y" && answer != "yes" {
			return nil
		}
		fmt.Fprintln(out)
	}
}

func (f *Form) collect(ctx context.Context, sc *bufio.Scanner, out io.Writer) (model.RawInput, error) {
	var raw model.RawInput
	group := ""
	for _, field := range f.fields {
		if field.Group != group {
			group = field.Group
			fmt.Fprintf(out, "-- %s --\n", group)
		}
		for {
			if err := ctx.Err(); err != nil {
				return raw, err
			}
			fmt.Fprint(out, prompt(field))
			if !sc.Scan() {
				if err := sc.Err(); err != nil {
					return raw, fmt.Errorf("%w: %w", ErrAborted, err)
				}
				return raw, fmt.Errorf("%w: waiting for %s", ErrAborted, field.Key)
			}
			value := strings.TrimSpace(sc.Text())
			if value == "" {
				value = field.Default
			}
			err := encoding.ParseField(&raw, field.Key, value)
			if err == nil {
				break
			}
			fmt.Fprintf(out, "  %v, try again\n", err)
		}
	}
	return raw, nil
}

func prompt(field model.FieldSpec) string {
	if field.Kind != model.KindCategorical {
		return fmt.Sprintf("%s [%s]: ", field.Label, field.Default)
	}
	choices := make([]string, len(field.Choices))
	for i, c := range field.Choices {
		choices[i] = strconv.Itoa(c.Value) + "=" + c.Label
	}
	return fmt.Sprintf("%s (%s) [%s]: ", field.Label, strings.Join(choices, ", "), field.Default)
}
