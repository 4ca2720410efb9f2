package pipeline

import (
	"errors"
	"sync"

	"github.com/openplume/air-quality-etl/internal/domain"
)

// Failure pairs a rejected record with the validation error that rejected it.
type Failure struct {
	Record domain.Record
	Err    *domain.ValidationError
}

// RunBatch validates and classifies a slice of records in one pass. Invalid
// records never abort the batch: they are collected as failures while the
// rest proceed. Both result slices preserve the input order, and every
// record lands in exactly one of them.
func RunBatch(records []domain.Record, policy *domain.Policy) ([]domain.ClassifiedReading, []Failure) {
	classified := make([]domain.ClassifiedReading, 0, len(records))
	var failures []Failure

	for _, rec := range records {
		reading, err := domain.ValidateRecord(rec)
		if err != nil {
			failures = append(failures, Failure{Record: rec, Err: asValidationError(err)})
			continue
		}
		classified = append(classified, domain.Classify(reading, policy))
	}

	return classified, failures
}

// RunBatchParallel is RunBatch fanned out over a worker pool. Results are
// index-addressed, so the output order matches RunBatch exactly regardless
// of worker scheduling.
func RunBatchParallel(records []domain.Record, policy *domain.Policy, workers int) ([]domain.ClassifiedReading, []Failure) {
	if workers <= 1 || len(records) < 2 {
		return RunBatch(records, policy)
	}

	type outcome struct {
		reading domain.ClassifiedReading
		err     *domain.ValidationError
	}
	outcomes := make([]outcome, len(records))

	indexes := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				reading, err := domain.ValidateRecord(records[i])
				if err != nil {
					outcomes[i].err = asValidationError(err)
					continue
				}
				outcomes[i].reading = domain.Classify(reading, policy)
			}
		}()
	}

	for i := range records {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	classified := make([]domain.ClassifiedReading, 0, len(records))
	var failures []Failure
	for i, out := range outcomes {
		if out.err != nil {
			failures = append(failures, Failure{Record: records[i], Err: out.err})
			continue
		}
		classified = append(classified, out.reading)
	}

	return classified, failures
}

func asValidationError(err error) *domain.ValidationError {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return vErr
	}
	// ValidateRecord only fails with *ValidationError; this path guards
	// against a future change breaking that contract silently.
	return &domain.ValidationError{Field: "record", Reason: err.Error()}
}
