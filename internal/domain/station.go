package domain

import (
	"context"
	"log/slog"
)

// StationInfo describes a monitoring site as recorded in the station registry.
type StationInfo struct {
	Name string
	Zone string
	Lat  float64
	Lon  float64
}

// StationDirectory resolves station identifiers to registry records.
type StationDirectory interface {
	// Lookup returns the registry record for a station ID. An unknown
	// station yields a zero StationInfo and no error.
	Lookup(ctx context.Context, station string) (StationInfo, error)
}

// EnrichWithStationInfo attempts to attach registry metadata to an event.
// If directory is nil or the lookup fails, the event is returned with
// SiteSource set accordingly (graceful degradation).
func EnrichWithStationInfo(ctx context.Context, event ClassifiedEvent, directory StationDirectory, logger *slog.Logger) ClassifiedEvent {
	if directory == nil {
		return event
	}

	info, err := directory.Lookup(ctx, event.Station)
	if err != nil {
		logger.Warn("station lookup failed",
			"event_id", event.ID,
			"station", event.Station,
			"error", err,
		)
		event.SiteSource = "failed"
		return event
	}

	if info.Name == "" {
		event.SiteSource = "unknown"
		return event
	}

	event.SiteName = info.Name
	event.SiteZone = info.Zone
	event.SiteLat = info.Lat
	event.SiteLon = info.Lon
	event.SiteSource = "directory"
	return event
}
