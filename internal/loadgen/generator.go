package loadgen

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/okian/motionrisk/internal/domain/model"
	"github.com/okian/motionrisk/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	continuousPlaces   = 2
)

// Broken values that the parser must reject for each field kind.
const (
	brokenCategorical = "9"
	brokenContinuous  = "n/a"
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// getRandomInt returns a random int in [0, n).
func getRandomInt(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// generateCases creates config.NumForms forms. Roughly InvalidRatio of them
// carry one value the service must reject.
func generateCases(ctx context.Context, config *Config, stats *Stats) ([]Case, error) {
	logger.Get().Info(ctx, "generating forms", logger.Int("numForms", config.NumForms))

	cases := make([]Case, config.NumForms)

	type caseResult struct {
		index int
		c     Case
		err   error
	}

	resultChan := make(chan caseResult, config.NumForms)

	workerCount := minInt(config.Workers, config.NumForms)
	if workerCount < 1 {
		workerCount = 1
	}
	casesPerWorker := config.NumForms / workerCount

	for worker := 0; worker < workerCount; worker++ {
		start := worker * casesPerWorker
		end := start + casesPerWorker
		if worker == workerCount-1 {
			end = config.NumForms
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- caseResult{index: i, err: ctx.Err()}
					return
				default:
					resultChan <- caseResult{index: i, c: generateSingleCase(config.InvalidRatio)}
				}
			}
		}(start, end)
	}

	for i := 0; i < config.NumForms; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during form generation: %w", ctx.Err())
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("failed to generate form %d: %w", result.index, result.err)
			}
			cases[result.index] = result.c
			if result.c.InvalidField != "" {
				stats.FormsInvalid++
			}
		}
	}

	stats.FormsGenerated = len(cases)
	logger.Get().Info(ctx, "generated forms",
		logger.Int("count", len(cases)),
		logger.Int("invalid", stats.FormsInvalid),
	)

	return cases, nil
}

// generateSingleCase fills every field with a random in-domain value, then
// maybe breaks one of them.
func generateSingleCase(invalidRatio float64) Case {
	specs := model.Fields()
	fields := make(map[string]string, len(specs))
	for _, spec := range specs {
		fields[spec.Key] = randomValue(spec)
	}

	c := Case{ID: uuid.NewString(), Fields: fields}
	if invalidRatio > 0 && getRandomFloat() < invalidRatio {
		spec := specs[getRandomInt(len(specs))]
		if spec.Kind == model.KindCategorical {
			fields[spec.Key] = brokenCategorical
		} else {
			fields[spec.Key] = brokenContinuous
		}
		c.InvalidField = spec.Key
	}
	return c
}

// randomValue draws a categorical choice uniformly, or a continuous value
// between half and one and a half times the default plus one.
func randomValue(spec model.FieldSpec) string {
	if spec.Kind == model.KindCategorical {
		return strconv.Itoa(spec.Choices[getRandomInt(len(spec.Choices))].Value)
	}

	def, err := decimal.NewFromString(spec.Default)
	if err != nil {
		return spec.Default
	}
	half := decimal.NewFromFloat(0.5)
	low := def.Mul(half)
	high := def.Mul(half.Add(decimal.NewFromInt(1))).Add(decimal.NewFromInt(1))
	span := high.Sub(low)
	return low.Add(span.Mul(decimal.NewFromFloat(getRandomFloat()))).Round(continuousPlaces).String()
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
