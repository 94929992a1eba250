package loadgen

import (
	"context"
	"fmt"
	"net/http"

	"github.com/okian/motionrisk/internal/domain/encoding"
	"github.com/okian/motionrisk/internal/domain/model"
	"github.com/okian/motionrisk/pkg/logger"
)

// Predictor gives the verdict the service is expected to return.
type Predictor interface {
	Predict(raw model.RawInput) (model.Verdict, error)
}

// verifyReplies checks each reply against its case. Broken forms must be
// rejected naming the broken field; the rest must be assessed, with the
// verdict matching expect when one is given.
func verifyReplies(ctx context.Context, cases []Case, replies []Reply, expect Predictor, stats *Stats) error {
	log := logger.Get().Named("verify")
	log.Info(ctx, "verifying replies", logger.Bool("verdicts", expect != nil))

	for i, c := range cases {
		r := replies[i]
		if r.CaseID == "" || r.Err != nil {
			continue
		}
		if problem := checkReply(c, r, expect); problem != "" {
			stats.Mismatches++
			log.Warn(ctx, "unexpected reply",
				logger.String("case", c.ID),
				logger.Int("status", r.Status),
				logger.String("problem", problem),
			)
		}
	}

	if stats.Mismatches > 0 {
		return fmt.Errorf("%w: %d of %d", ErrMismatch, stats.Mismatches, stats.Submitted)
	}
	log.Info(ctx, "every reply matched")
	return nil
}

func checkReply(c Case, r Reply, expect Predictor) string {
	if c.InvalidField != "" {
		switch {
		case r.Status != http.StatusBadRequest:
			return fmt.Sprintf("broken %s was not rejected", c.InvalidField)
		case r.Field != c.InvalidField:
			return fmt.Sprintf("rejected field %q, broke %q", r.Field, c.InvalidField)
		}
		return ""
	}

	if r.Status != http.StatusOK {
		return fmt.Sprintf("valid form got %s", r.Code)
	}
	if expect == nil {
		return ""
	}

	raw, err := encoding.ParseForm(c.Fields)
	if err != nil {
		return "generated form does not parse: " + err.Error()
	}
	want, err := expect.Predict(raw)
	if err != nil {
		return "local prediction failed: " + err.Error()
	}
	if want != r.Verdict {
		return fmt.Sprintf("verdict %s, expected %s", r.Verdict, want)
	}
	return ""
}

// verifyCounters compares the service's counters before and after the run.
// Other traffic makes this inexact, so it only warns.
func verifyCounters(ctx context.Context, before, after model.Stats, stats *Stats) {
	log := logger.Get().Named("verify")
	assessed := int(after.Assessed - before.Assessed)
	invalid := int(after.Invalid - before.Invalid)
	if assessed != stats.Assessed || invalid != stats.Rejected {
		log.Warn(ctx, "service counters do not match this run",
			logger.Int("assessedDelta", assessed),
			logger.Int("assessedSeen", stats.Assessed),
			logger.Int("invalidDelta", invalid),
			logger.Int("rejectedSeen", stats.Rejected),
		)
		return
	}
	log.Info(ctx, "service counters consistent")
}
