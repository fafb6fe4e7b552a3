// Package telemetry writes update outcomes to InfluxDB.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog/log"

	"firmware-manager/internal/config"
	"firmware-manager/internal/notify"
)

var (
	// ErrDisabled is returned by Connect when telemetry is switched off.
	ErrDisabled = errors.New("telemetry: disabled")

	// ErrConnectionFailed is returned when the server cannot be reached.
	ErrConnectionFailed = errors.New("telemetry: connection failed")
)

const (
	defaultConnectTimeout = 10 * time.Second
	millisecondsPerSecond = 1000

	measurementUpdates  = "firmware_updates"
	measurementDownload = "firmware_download"
)

// PointWriter is the non-blocking write side of an InfluxDB client.
type PointWriter interface {
	WritePoint(p *write.Point)
}

// Sink turns update outcomes into InfluxDB points.
type Sink struct {
	writer PointWriter
	close  func()
}

// NewSink writes through w. Used directly by tests.
func NewSink(w PointWriter) *Sink {
	return &Sink{writer: w, close: func() {}}
}

// Connect pings the configured server and returns a sink batching writes
// to it.
func Connect(ctx context.Context, cfg config.InfluxDB) (*Sink, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	flushInterval := cfg.FlushInterval
	if flushInterval <= 0 {
		flushInterval = 10
	}

	client := influxdb2.NewClientWithOptions(
		cfg.URL,
		cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(uint(batchSize)).
			SetFlushInterval(uint(flushInterval)*millisecondsPerSecond),
	)

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()

	healthy, err := client.Ping(pingCtx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping failed: %w", ErrConnectionFailed, err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("%w: server not healthy", ErrConnectionFailed)
	}

	writeAPI := client.WriteAPI(cfg.Org, cfg.Bucket)
	go func() {
		for err := range writeAPI.Errors() {
			log.Warn().Err(err).Msg("InfluxDB write failed")
		}
	}()

	log.Info().Str("url", cfg.URL).Str("bucket", cfg.Bucket).Msg("Telemetry connected to InfluxDB")

	return &Sink{
		writer: writeAPI,
		close: func() {
			writeAPI.Flush()
			client.Close()
		},
	}, nil
}

// Close flushes pending points and disconnects.
func (s *Sink) Close() error {
	s.close()
	return nil
}

func (s *Sink) Name() string { return "influxdb" }

func (s *Sink) Updated(u notify.Updated) error {
	s.writer.WritePoint(write.NewPoint(
		measurementUpdates,
		map[string]string{
			"device":  u.Name,
			"backend": u.Backend.String(),
			"outcome": "updated",
		},
		map[string]interface{}{
			"from":   u.From,
			"to":     u.To,
			"reboot": u.System,
		},
		stamp(u.At),
	))
	return nil
}

func (s *Sink) Failed(f notify.Failed) error {
	s.writer.WritePoint(write.NewPoint(
		measurementUpdates,
		map[string]string{
			"device":  f.Name,
			"outcome": "failed",
		},
		map[string]interface{}{
			"message": f.Message,
		},
		stamp(f.At),
	))
	return nil
}

func (s *Sink) Progressed(p notify.Progress) error {
	s.writer.WritePoint(write.NewPoint(
		measurementDownload,
		map[string]string{"device": p.Name},
		map[string]interface{}{
			"bytes": p.Current,
			"total": p.Total,
		},
		stamp(p.At),
	))
	return nil
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}

var _ notify.Sink = (*Sink)(nil)
