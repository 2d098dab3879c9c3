// Package harvest orchestrates the fetch-parse-build loop across stations.
package harvest

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/sos-station-harvester/internal/domain"
	"github.com/couchcryptid/sos-station-harvester/internal/observability"
	"github.com/couchcryptid/sos-station-harvester/internal/sensorml"
)

// StationLister enumerates the station URNs to harvest.
type StationLister interface {
	ListStations(ctx context.Context) ([]string, error)
}

// SensorFetcher returns the raw SensorML payload for one station URN.
type SensorFetcher interface {
	DescribeSensor(ctx context.Context, stationURN string) ([]byte, error)
}

// Harvester runs the per-station pipeline on a bounded worker pool and
// assembles the results into a RecordSet. Per-station work shares only the
// parser's immutable namespace table; the RecordSet's own mutex is the
// single serialization point.
type Harvester struct {
	lister  StationLister
	fetcher SensorFetcher
	parser  *sensorml.Parser
	logger  *slog.Logger
	metrics *observability.Metrics

	// stationURNs, when non-empty, bypasses the lister.
	stationURNs []string

	// workers bounds the task group; continueOnError decides whether one
	// station's failure aborts the run or is skipped and logged. Duplicate
	// URNs always abort.
	workers         int
	continueOnError bool

	mu           sync.Mutex
	lastHarvest  time.Time
	lastStations int
}

// Options configures a Harvester.
type Options struct {
	// StationURNs is an explicit station list; when empty the lister's
	// capabilities listing is used.
	StationURNs     []string
	Workers         int
	ContinueOnError bool
}

// New creates a Harvester.
func New(lister StationLister, fetcher SensorFetcher, parser *sensorml.Parser, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Harvester {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	return &Harvester{
		lister:          lister,
		fetcher:         fetcher,
		parser:          parser,
		logger:          logger,
		metrics:         metrics,
		stationURNs:     opts.StationURNs,
		workers:         workers,
		continueOnError: opts.ContinueOnError,
	}
}

// CheckReadiness returns nil once at least one harvest has completed.
func (h *Harvester) CheckReadiness(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.lastHarvest.IsZero() {
		return errors.New("no harvest has completed yet")
	}
	return nil
}

// Status returns the finish time and row count of the last completed
// harvest. A zero time means no harvest has completed.
func (h *Harvester) Status() (time.Time, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastHarvest, h.lastStations
}

// Run performs one full harvest and returns the assembled record set. On
// error the partial set is discarded, never returned.
func (h *Harvester) Run(ctx context.Context) (*domain.RecordSet, error) {
	start := time.Now()
	h.metrics.HarvestRunning.Set(1)
	defer h.metrics.HarvestRunning.Set(0)

	urns := h.stationURNs
	if len(urns) == 0 {
		listed, err := h.lister.ListStations(ctx)
		if err != nil {
			return nil, err
		}
		urns = listed
	}
	h.logger.Info("harvest started", "stations", len(urns), "workers", h.workers)

	records := domain.NewRecordSet()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.workers)
	for _, urn := range urns {
		g.Go(func() error {
			err := h.harvestStation(gctx, urn, records)
			if err == nil {
				return nil
			}
			var dup *domain.DuplicateStationError
			if errors.As(err, &dup) || !h.continueOnError {
				return err
			}
			h.logger.Warn("station skipped", "urn", urn, "error", err)
			h.metrics.StationFailures.WithLabelValues(failureReason(err)).Inc()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		h.metrics.StationFailures.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}

	h.metrics.HarvestDuration.Observe(time.Since(start).Seconds())
	h.mu.Lock()
	h.lastHarvest = time.Now().UTC()
	h.lastStations = records.Len()
	h.mu.Unlock()
	h.logger.Info("harvest complete", "stations", records.Len(), "elapsed", time.Since(start))
	return records, nil
}

// harvestStation runs fetch, parse, and build for one station and appends
// the record.
func (h *Harvester) harvestStation(ctx context.Context, urn string, records *domain.RecordSet) error {
	fetchStart := time.Now()
	payload, err := h.fetcher.DescribeSensor(ctx, urn)
	if err != nil {
		return err
	}
	h.metrics.DescribeSensorDuration.Observe(time.Since(fetchStart).Seconds())

	desc, err := h.parser.Parse(urn, payload)
	if err != nil {
		return err
	}

	rec, err := domain.BuildStationRecord(urn, desc)
	if err != nil {
		return err
	}

	if err := records.Add(rec); err != nil {
		return err
	}
	h.metrics.StationsHarvested.Inc()
	return nil
}

// failureReason buckets an error into a metric label.
func failureReason(err error) string {
	var (
		missing   *domain.MissingFieldError
		malformed *domain.MalformedDocumentError
		duplicate *domain.DuplicateStationError
		transport *domain.TransportError
	)
	switch {
	case errors.As(err, &missing):
		return "missing_field"
	case errors.As(err, &malformed):
		return "malformed_document"
	case errors.As(err, &duplicate):
		return "duplicate_station"
	case errors.As(err, &transport):
		return "transport"
	default:
		return "other"
	}
}
