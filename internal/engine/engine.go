// Package engine wires the analyzers together. Every entry point builds a
// fresh snapshot and fresh analyzers; concurrent analysis requests share no
// mutable state.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Ray0907/mysql-analyzer-mcp/internal/analyze"
	"github.com/Ray0907/mysql-analyzer-mcp/internal/config"
	"github.com/Ray0907/mysql-analyzer-mcp/internal/discovery"
	"github.com/Ray0907/mysql-analyzer-mcp/internal/indexes"
	"github.com/Ray0907/mysql-analyzer-mcp/internal/naming"
	"github.com/Ray0907/mysql-analyzer-mcp/internal/patch"
	"github.com/Ray0907/mysql-analyzer-mcp/internal/schema"
	"github.com/Ray0907/mysql-analyzer-mcp/internal/schemacheck"
)

// Analysis is the outcome of one full analyzer pass over a snapshot.
type Analysis struct {
	Snapshot    *schema.Snapshot  `yaml:"-" json:"-"`
	Database    string            `yaml:"database" json:"database"`
	GeneratedAt time.Time         `yaml:"generated_at" json:"generated_at"`
	Naming      []analyze.Finding `yaml:"naming,omitempty" json:"naming,omitempty"`
	Indexes     []analyze.Finding `yaml:"indexes,omitempty" json:"indexes,omitempty"`
	Schema      []analyze.Finding `yaml:"schema,omitempty" json:"schema,omitempty"`
}

// Findings returns all findings in analyzer order.
func (a *Analysis) Findings() []analyze.Finding {
	out := make([]analyze.Finding, 0, len(a.Naming)+len(a.Indexes)+len(a.Schema))
	out = append(out, a.Naming...)
	out = append(out, a.Indexes...)
	out = append(out, a.Schema...)
	return out
}

// CountBySeverity tallies every finding by severity.
func (a *Analysis) CountBySeverity() map[analyze.Severity]int {
	counts := make(map[analyze.Severity]int)
	for _, f := range a.Findings() {
		counts[f.Severity]++
	}
	return counts
}

// Engine runs analyses against one configured database.
type Engine struct {
	Config *config.Config
	Logger *slog.Logger
}

// New creates an engine with the given config and logger.
func New(cfg *config.Config, logger *slog.Logger) *Engine {
	return &Engine{Config: cfg, Logger: logger}
}

// Rules returns the naming rules derived from configuration.
func (e *Engine) Rules() naming.Rules {
	return naming.Rules{MaxIdentifierLen: e.Config.Analysis.MaxIdentifierLength}
}

// Snapshot connects to the configured database, materializes a snapshot, and
// closes the connection. This is the only operation that can fail due to
// connectivity.
func (e *Engine) Snapshot(ctx context.Context) (*schema.Snapshot, error) {
	p, err := discovery.New(&e.Config.Database)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	e.Logger.Info("connecting",
		"type", e.Config.Database.Type,
		"host", e.Config.Database.Host,
		"database", e.Config.Database.Database)
	if err := p.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", e.Config.Database.Type, err)
	}

	snap, err := discovery.Snapshot(ctx, p, e.Config.Database.Host)
	if err != nil {
		return nil, err
	}
	e.Logger.Info("snapshot built", "tables", len(snap.Tables))
	return snap, nil
}

// Analyze runs every analyzer over the snapshot. Pure and in-memory: given
// the same snapshot and config it always produces the same analysis.
func (e *Engine) Analyze(snap *schema.Snapshot) *Analysis {
	rules := e.Rules()

	idx := indexes.NewAnalyzer(rules)
	idx.MinRowsForSelectivity = e.Config.Analysis.MinRowsForSelectivity
	idx.SelectivityThreshold = e.Config.Analysis.SelectivityThreshold

	a := &Analysis{
		Snapshot:    snap,
		Database:    snap.Database,
		GeneratedAt: time.Now(),
		Naming:      naming.NewAnalyzer(rules).Analyze(snap),
		Indexes:     idx.Analyze(snap),
		Schema:      schemacheck.NewAnalyzer().Analyze(snap),
	}
	e.Logger.Info("analysis complete",
		"naming", len(a.Naming), "indexes", len(a.Indexes), "schema", len(a.Schema))
	return a
}

// GeneratePatch turns the analysis's fixable findings into an ordered SQL
// script. Fails atomically on rename conflicts.
func (e *Engine) GeneratePatch(a *Analysis) (*patch.Script, error) {
	findings := make([]analyze.Finding, 0, len(a.Naming)+len(a.Indexes))
	findings = append(findings, a.Naming...)
	findings = append(findings, a.Indexes...)
	return patch.NewGenerator().Generate(a.Snapshot, findings)
}

// FilterMin drops findings below the minimum severity.
func FilterMin(findings []analyze.Finding, min analyze.Severity) []analyze.Finding {
	out := make([]analyze.Finding, 0, len(findings))
	for _, f := range findings {
		if f.Severity.AtLeast(min) {
			out = append(out, f)
		}
	}
	return out
}
