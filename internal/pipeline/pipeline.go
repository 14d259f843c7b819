// Package pipeline loads, normalizes and joins the population and boundary
// data of municipalities.
package pipeline

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/popmap/internal/diagnostics"
	"github.com/sells-group/popmap/internal/geometry"
	"github.com/sells-group/popmap/internal/join"
	"github.com/sells-group/popmap/internal/model"
	"github.com/sells-group/popmap/internal/normalize"
	"github.com/sells-group/popmap/internal/population"
)

const defaultConcurrency = 4

// Options configures a Pipeline.
type Options struct {
	Population  population.Options
	Geometry    geometry.Options
	Normalize   normalize.Config
	Indicators  []string // columns counted for missing values
	Concurrency int      // parallel municipalities in LoadMany
}

// Pipeline holds immutable configuration; it is safe for concurrent use.
type Pipeline struct {
	pop         *population.Loader
	geo         *geometry.Loader
	norm        *normalize.Normalizer
	indicators  []string
	concurrency int
}

// New creates a Pipeline.
func New(opts Options) *Pipeline {
	conc := opts.Concurrency
	if conc <= 0 {
		conc = defaultConcurrency
	}
	norm := normalize.New(opts.Normalize)
	if opts.Geometry.NameKey == nil {
		opts.Geometry.NameKey = norm.Normalize
	}
	return &Pipeline{
		pop:         population.NewLoader(opts.Population),
		geo:         geometry.NewLoader(opts.Geometry),
		norm:        norm,
		indicators:  opts.Indicators,
		concurrency: conc,
	}
}

// Normalizer returns the normalizer used for join keys.
func (p *Pipeline) Normalizer() *normalize.Normalizer {
	return p.norm
}

// Dataset is the joined table for one or more municipalities.
type Dataset struct {
	RunID          uuid.UUID            `json:"run_id"`
	Municipalities []string             `json:"municipalities"`
	Columns        []string             `json:"columns"` // population columns
	Fields         []string             `json:"fields"`  // boundary attribute fields
	Records        []model.JoinedRecord `json:"-"`
	Summary        diagnostics.Summary  `json:"summary"`
	LoadedAt       time.Time            `json:"loaded_at"`
}

// LoadMunicipalityData runs population load, boundary load, join and
// diagnostics for one municipality, in that order, on the calling goroutine.
func (p *Pipeline) LoadMunicipalityData(ctx context.Context, municipality string) (*Dataset, error) {
	log := zap.L().With(zap.String("component", "pipeline"), zap.String("municipality", municipality))
	start := time.Now()

	if err := ValidName(municipality); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pop, err := p.pop.Load(municipality)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: load population for %s", municipality)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	layer, err := p.geo.Load(municipality)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: load boundaries for %s", municipality)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	joined := join.Join(pop, layer, p.norm)
	summary := diagnostics.Report(joined, p.indicators...)
	summary.Log(log)

	log.Info("pipeline: municipality loaded",
		zap.Int("population_rows", len(pop.Records)),
		zap.Int("boundary_rows", len(layer.Records)),
		zap.Int("merged_duplicates", len(layer.MergedNames)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &Dataset{
		RunID:          uuid.New(),
		Municipalities: []string{municipality},
		Columns:        pop.Columns,
		Fields:         layer.Fields,
		Records:        joined,
		Summary:        summary,
		LoadedAt:       time.Now().UTC(),
	}, nil
}

// LoadMany loads several municipalities concurrently and concatenates them in
// the order given. Repeated names are loaded once. The first failure cancels
// the rest.
func (p *Pipeline) LoadMany(ctx context.Context, municipalities []string) (*Dataset, error) {
	names := dedupe(municipalities)
	if len(names) == 0 {
		return nil, eris.New("pipeline: no municipalities requested")
	}
	if len(names) == 1 {
		return p.LoadMunicipalityData(ctx, names[0])
	}

	var mu sync.Mutex
	results := make([]*Dataset, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, name := range names {
		g.Go(func() error {
			ds, err := p.LoadMunicipalityData(gctx, name)
			if err != nil {
				return err
			}
			mu.Lock()
			results[i] = ds
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "pipeline: load many")
	}

	return Combine(results...), nil
}

// Combine concatenates datasets into one with a fresh run id.
func Combine(parts ...*Dataset) *Dataset {
	out := &Dataset{RunID: uuid.New(), LoadedAt: time.Now().UTC()}
	summaries := make([]diagnostics.Summary, 0, len(parts))
	for _, ds := range parts {
		if ds == nil {
			continue
		}
		out.Municipalities = append(out.Municipalities, ds.Municipalities...)
		out.Columns = appendMissing(out.Columns, ds.Columns)
		out.Fields = appendMissing(out.Fields, ds.Fields)
		out.Records = append(out.Records, ds.Records...)
		summaries = append(summaries, ds.Summary)
	}
	out.Summary = diagnostics.Merge(summaries...)
	return out
}

func appendMissing(dst, src []string) []string {
	for _, s := range src {
		if !slices.Contains(dst, s) {
			dst = append(dst, s)
		}
	}
	return dst
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
