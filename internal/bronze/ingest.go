// Package bronze implements the raw ingestion stage: one EIA API
// request per configured series, responses persisted as-is with a
// provenance metadata block. No transformation happens here.
package bronze

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/petrostat/eiapipe/internal/catalog"
	"github.com/petrostat/eiapipe/internal/eia"
)

// Metadata is the provenance block attached to each raw response under
// the "_metadata" key.
type Metadata struct {
	SeriesID       string `json:"series_id"`
	MetricName     string `json:"metric_name"`
	FetchTimestamp string `json:"fetch_timestamp"`
	StartPeriod    string `json:"start_period"`
}

// Ingestion fetches raw series data and writes the bronze artifact.
type Ingestion struct {
	client      *eia.Client
	catalog     catalog.Catalog
	startPeriod string
	outPath     string
	log         *logrus.Logger
	now         func() time.Time
}

// New creates the ingestion stage.
func New(client *eia.Client, cat catalog.Catalog, startPeriod, outPath string, log *logrus.Logger) *Ingestion {
	return &Ingestion{
		client:      client,
		catalog:     cat,
		startPeriod: startPeriod,
		outPath:     outPath,
		log:         log,
		now:         time.Now,
	}
}

// Name implements pipeline.Stage.
func (i *Ingestion) Name() string { return "bronze" }

// Preflight checks API connectivity and key validity with a minimal
// request, so a full pipeline run fails before any series is fetched.
func (i *Ingestion) Preflight(ctx context.Context) error {
	if err := i.client.Ping(ctx); err != nil {
		return fmt.Errorf("bronze: preflight: %w", err)
	}
	i.log.Info("EIA API reachable")
	return nil
}

// FetchAll fetches every catalog series in declaration order. A failure
// on any series fails the whole fetch; no partial result is returned.
// The client's throttle provides the courtesy delay between requests.
func (i *Ingestion) FetchAll(ctx context.Context) (map[string]eia.Envelope, error) {
	all := make(map[string]eia.Envelope, i.catalog.Len())

	for _, seriesID := range i.catalog.SeriesIDs() {
		entry, _ := i.catalog.Lookup(seriesID)

		i.log.WithFields(logrus.Fields{
			"series_id": seriesID,
			"metric":    entry.MetricName,
		}).Info("Fetching series")

		env, err := i.client.SeriesData(ctx, seriesID, i.startPeriod)
		if err != nil {
			return nil, err
		}

		env["_metadata"] = Metadata{
			SeriesID:       seriesID,
			MetricName:     entry.MetricName,
			FetchTimestamp: i.now().Format(time.RFC3339),
			StartPeriod:    i.startPeriod,
		}

		i.log.WithFields(logrus.Fields{
			"series_id": seriesID,
			"records":   env.RecordCount(),
		}).Info("Retrieved series data")

		all[seriesID] = env
	}
	return all, nil
}

// Save writes the raw responses to the bronze artifact, pretty-printed
// for readability.
func Save(data map[string]eia.Envelope, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("bronze: create directory: %w", err)
	}
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("bronze: encode raw data: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("bronze: write %s: %w", path, err)
	}
	return nil
}

// Load reads a bronze artifact into per-series raw messages for the
// silver stage.
func Load(path string) (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("bronze: parse %s: %w", path, err)
	}
	return raw, nil
}

// Run implements pipeline.Stage: fetch everything, then persist.
func (i *Ingestion) Run(ctx context.Context) error {
	raw, err := i.FetchAll(ctx)
	if err != nil {
		return err
	}
	if err := Save(raw, i.outPath); err != nil {
		return err
	}
	i.log.WithFields(logrus.Fields{
		"series": len(raw),
		"path":   i.outPath,
	}).Info("Raw data saved")
	return nil
}
