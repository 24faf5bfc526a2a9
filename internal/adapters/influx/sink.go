// Package influx ships decoded readings to an InfluxDB 1.x server using the
// line protocol HTTP write endpoint.
package influx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bft-labs/smlship/internal/domain"
	"github.com/bft-labs/smlship/internal/ports"
)

const writeEndpoint = "/write"

// Defaults for the InfluxDB sink.
const (
	DefaultDatabase   = "power"
	DefaultBatchSize  = 500
	DefaultTimeout    = 10 * time.Second
	DefaultMaxRetries = 3
)

// Config contains configuration for the InfluxDB sink.
type Config struct {
	URL      string
	Database string
	Username string
	Password string

	// BatchSize is the number of points sent per request.
	BatchSize int

	// FlushInterval sends a partial batch once it is this old. Zero disables it.
	FlushInterval time.Duration

	// Timeout bounds each write request.
	Timeout time.Duration

	MaxRetries     int
	BackoffInitial time.Duration
	BackoffMax     time.Duration
}

// Sink implements ports.ReadingSink using HTTP.
type Sink struct {
	cfg     Config
	client  ports.HTTPClient
	logger  ports.Logger
	batch   *batcher
	backoff *backoff
	written int
}

// errPermanent marks a rejected write that retrying will not fix.
var errPermanent = errors.New("influx: write rejected")

// NewSink creates a new InfluxDB sink.
func NewSink(cfg Config, client ports.HTTPClient, logger ports.Logger) (*Sink, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: influx url is required", domain.ErrInvalidConfig)
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("%w: influx url: %v", domain.ErrInvalidConfig, err)
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &Sink{
		cfg:     cfg,
		client:  client,
		logger:  logger,
		batch:   newBatcher(cfg.BatchSize, cfg.FlushInterval),
		backoff: newBackoff(cfg.BackoffInitial, cfg.BackoffMax),
	}, nil
}

// Emit queues the energy and voltage points of a reading.
func (s *Sink) Emit(ctx context.Context, r domain.Reading) error {
	if s.batch.Add(Points(r)...) {
		return s.flush(ctx)
	}
	return nil
}

// Close sends any pending points.
func (s *Sink) Close(ctx context.Context) error {
	if err := s.flush(ctx); err != nil {
		return err
	}
	s.logger.Info("influx writes complete",
		ports.Int("points", s.written),
		ports.String("database", s.cfg.Database),
	)
	return nil
}

// Written returns the number of points accepted by the server.
func (s *Sink) Written() int {
	return s.written
}

func (s *Sink) flush(ctx context.Context) error {
	if s.batch.Len() == 0 {
		return nil
	}

	body := s.batch.Body()
	var err error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			s.logger.Warn("influx write failed, retrying",
				ports.Err(err),
				ports.Int("attempt", attempt),
				ports.Duration("backoff", s.backoff.Current()),
			)
			if serr := s.backoff.Sleep(ctx); serr != nil {
				return serr
			}
		}

		err = s.send(ctx, body)
		if err == nil {
			s.written += s.batch.Len()
			s.batch.Reset()
			s.backoff.Reset()
			return nil
		}
		if errors.Is(err, errPermanent) {
			break
		}
	}
	return err
}

func (s *Sink) send(ctx context.Context, body string) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	q := url.Values{}
	q.Set("db", s.cfg.Database)
	q.Set("precision", "s")
	target := strings.TrimRight(s.cfg.URL, "/") + writeEndpoint + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if s.cfg.Username != "" {
		req.SetBasicAuth(s.cfg.Username, s.cfg.Password)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
		if resp.StatusCode/100 == 4 && resp.StatusCode != http.StatusTooManyRequests {
			return fmt.Errorf("%w: %v", errPermanent, err)
		}
		return err
	}
	return nil
}

var _ ports.ReadingSink = (*Sink)(nil)
