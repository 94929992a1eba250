// Package batch screens many students at once: rows are read from CSV,
// assessed on the worker pool and written back out with their verdicts.
package batch

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/okian/motionrisk/internal/adapters/mq/queue"
	"github.com/okian/motionrisk/internal/adapters/mq/worker"
	"github.com/okian/motionrisk/internal/domain/encoding"
	"github.com/okian/motionrisk/internal/domain/model"
)

// ColumnID optionally names each row in the output.
const ColumnID = "id"

var outputHeader = []string{"row", "id", "verdict", "label", "error_field", "error"}

// ReadCSV parses a header of field keys followed by one student per line.
// Blank cells take the field default. Rows are numbered from 1.
func ReadCSV(r io.Reader) ([]queue.Job, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	columns, err := parseHeader(header)
	if err != nil {
		return nil, err
	}

	defaults := model.DefaultForm()
	var jobs []queue.Job
	for row := 1; ; row++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}

		job := queue.Job{Row: row, ID: strconv.Itoa(row), Fields: make(map[string]string, len(defaults))}
		for i, key := range columns {
			value := strings.TrimSpace(record[i])
			if key == ColumnID {
				if value != "" {
					job.ID = value
				}
				continue
			}
			if value == "" {
				value = defaults[key]
			}
			job.Fields[key] = value
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}

func parseHeader(header []string) ([]string, error) {
	columns := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if key != ColumnID {
			if _, ok := model.LookupField(key); !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, h)
			}
		}
		if seen[key] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, key)
		}
		seen[key] = true
		columns[i] = key
	}

	for _, f := range model.Fields() {
		if !seen[f.Key] {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, f.Key)
		}
	}
	return columns, nil
}

// WriteCSV writes one line per result in the order given.
func WriteCSV(w io.Writer, results []worker.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(outputHeader); err != nil {
		return err
	}

	for _, r := range results {
		record := []string{strconv.Itoa(r.Job.Row), r.Job.ID, "", "", "", ""}
		if r.Err == nil {
			record[2] = strconv.Itoa(int(r.Assessment.Verdict))
			record[3] = r.Assessment.Label
		} else {
			var fieldErr *encoding.InvalidFieldError
			if errors.As(r.Err, &fieldErr) {
				record[4] = fieldErr.Field
			}
			record[5] = r.Err.Error()
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
