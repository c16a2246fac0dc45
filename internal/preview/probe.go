package preview

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GriffinCanCode/Playground/backend/internal/domain/playground"
	"github.com/GriffinCanCode/Playground/backend/internal/preview/sandbox"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// Probe outcomes besides the sandbox ones
const (
	OutcomeRejected  = "rejected"
	defaultMaxBytes  = 256 << 10
	defaultMaxScript = 32
)

// Report is what the headless probe observed while running one document
type Report struct {
	Version  uint64              `json:"version"`
	Outcome  string              `json:"outcome"`
	Console  []sandbox.LogEntry  `json:"console"`
	Errors   []string            `json:"errors,omitempty"`
	Changes  []sandbox.DOMChange `json:"changes,omitempty"`
	Scripts  int                 `json:"scripts"`
	Duration time.Duration       `json:"duration"`
}

// ProbeMetrics receives one observation per probe run
type ProbeMetrics interface {
	RecordProbe(outcome string, duration time.Duration)
}

// ProbeConfig configures a Probe
type ProbeConfig struct {
	Sandbox  sandbox.Config
	PoolSize int
	// MaxBytes rejects larger documents before they are parsed
	MaxBytes int
	// MaxScripts caps the script blocks run per document; the rest are skipped
	MaxScripts int
	Logger     *zap.Logger
	Metrics    ProbeMetrics
}

// Probe runs composed documents in a pooled headless sandbox. It is shared
// by every session; Sink binds it to one report consumer.
type Probe struct {
	pool       *sandbox.Pool
	maxBytes   int
	maxScripts int
	logger     *zap.Logger
	metrics    ProbeMetrics
}

// NewProbe creates a probe with a pre-warmed runtime pool
func NewProbe(cfg ProbeConfig) (*Probe, error) {
	pool, err := sandbox.NewPool(cfg.Sandbox, cfg.PoolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create sandbox pool: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultMaxBytes
	}
	if cfg.MaxScripts <= 0 {
		cfg.MaxScripts = defaultMaxScript
	}
	return &Probe{
		pool:       pool,
		maxBytes:   cfg.MaxBytes,
		maxScripts: cfg.MaxScripts,
		logger:     logger,
		metrics:    cfg.Metrics,
	}, nil
}

// Run executes every script of doc. Failures of the user's code are
// reported in the Report; the error is only set when the probe itself
// could not run.
func (p *Probe) Run(ctx context.Context, doc playground.Document) (Report, error) {
	start := time.Now()
	report := Report{Version: doc.Version, Outcome: "ok", Console: []sandbox.LogEntry{}}

	if len(doc.HTML) > p.maxBytes {
		report.Outcome = OutcomeRejected
		report.Errors = []string{fmt.Sprintf("document is %s, the probe limit is %s",
			humanize.IBytes(uint64(len(doc.HTML))), humanize.IBytes(uint64(p.maxBytes)))}
		p.finish(&report, start)
		return report, nil
	}

	dom, err := sandbox.ParseDOM(doc.HTML)
	if err != nil {
		return report, err
	}
	scripts := dom.Scripts()
	report.Scripts = len(scripts)
	if len(scripts) > p.maxScripts {
		report.Errors = append(report.Errors,
			fmt.Sprintf("%d of %d scripts skipped", len(scripts)-p.maxScripts, len(scripts)))
		scripts = scripts[:p.maxScripts]
	}

	results, err := p.pool.Run(ctx, scripts, dom)
	if err != nil && !errors.Is(err, sandbox.ErrRuntimeClosed) {
		return report, fmt.Errorf("probe unavailable: %w", err)
	}

	for _, result := range results {
		report.Console = append(report.Console, result.Console...)
		if result.Error != nil {
			report.Errors = append(report.Errors, result.Error.Error())
			if report.Outcome == "ok" {
				report.Outcome = sandbox.Outcome(result.Error)
			}
		}
	}
	report.Changes = dom.GetChanges()
	p.finish(&report, start)
	return report, nil
}

func (p *Probe) finish(report *Report, start time.Time) {
	report.Duration = time.Since(start)
	if p.metrics != nil {
		p.metrics.RecordProbe(report.Outcome, report.Duration)
	}
}

// Sink returns a playground.Sink that probes each document and hands the
// report to deliver
func (p *Probe) Sink(deliver func(Report)) playground.Sink {
	return playground.SinkFunc(func(ctx context.Context, doc playground.Document) error {
		report, err := p.Run(ctx, doc)
		if err != nil {
			p.logger.Warn("Preview probe skipped",
				zap.Uint64("version", doc.Version),
				zap.Error(err),
			)
			return nil
		}
		if deliver != nil {
			deliver(report)
		}
		return nil
	})
}

// Stats returns runtime pool occupancy
func (p *Probe) Stats() sandbox.PoolStats {
	return p.pool.Stats()
}

// Close releases the runtime pool
func (p *Probe) Close() error {
	return p.pool.Close()
}
