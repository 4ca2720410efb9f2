package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/openplume/air-quality-etl/internal/domain"
)

// ReadingTransformer implements Transformer using the domain validation and
// classification functions, with optional station registry enrichment.
type ReadingTransformer struct {
	policy      *domain.Policy
	floor       domain.Severity
	granularity time.Duration
	directory   domain.StationDirectory
	logger      *slog.Logger
}

// NewTransformer creates a ReadingTransformer classifying against the given
// policy, with breaches judged against floor and windows bucketed at
// granularity. Pass a nil directory to disable registry enrichment.
func NewTransformer(policy *domain.Policy, floor domain.Severity, granularity time.Duration, directory domain.StationDirectory, logger *slog.Logger) *ReadingTransformer {
	return &ReadingTransformer{
		policy:      policy,
		floor:       floor,
		granularity: granularity,
		directory:   directory,
		logger:      logger,
	}
}

func (t *ReadingTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.ClassifiedEvent, error) {
	rec, err := domain.DecodeRecord(raw.Value)
	if err != nil {
		return domain.ClassifiedEvent{}, err
	}

	reading, err := domain.ValidateRecord(rec)
	if err != nil {
		return domain.ClassifiedEvent{}, err
	}

	classified := domain.Classify(reading, t.policy)
	event := domain.BuildClassifiedEvent(classified, t.floor, t.granularity)
	event.RawPayload = raw.Value
	event = domain.EnrichWithStationInfo(ctx, event, t.directory, t.logger)

	if event.Breach {
		t.logger.Debug("breach detected",
			"station", event.Station,
			"severity", event.Overall.String(),
			"window", event.Window,
		)
	}

	return event, nil
}
