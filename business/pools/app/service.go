package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/perpetual-pools/business/pools/domain"
	"github.com/fd1az/perpetual-pools/internal/apm"
	"github.com/fd1az/perpetual-pools/internal/apperror"
	"github.com/fd1az/perpetual-pools/internal/logger"
)

const instrumentationName = "github.com/fd1az/perpetual-pools/business/pools"

// BrowseContext carries the per-call collaborators of a browse: who is
// looking and how values should be denoted.
type BrowseContext struct {
	Account    string
	Denotation Denotation
	// SpotPrices overrides the service's spot price source when non-nil.
	SpotPrices map[string]decimal.Decimal
}

// AccountConnected reports whether an account is set.
func (b BrowseContext) AccountConnected() bool {
	return b.Account != ""
}

// BrowseView is everything a presenter needs to render one listing.
type BrowseView struct {
	State           domain.BrowseState
	Denotation      Denotation
	Rows            []domain.PoolTokenRow
	Holdings        []HoldingValue // aligned with Rows
	Groups          []MarketGroup
	Banners         []MarketBanner
	Tokens          []domain.PoolToken
	Malformed       []string
	LeverageOptions []int
	Source          string
	FetchedAt       time.Time
	Stale           bool
	SpotPrices      map[string]decimal.Decimal
}

// ServiceConfig tunes the BrowseService.
type ServiceConfig struct {
	StaleAfter   time.Duration
	TVLTolerance decimal.Decimal
	// HoldingsAccount is the account the source fills MyHoldings for.
	// Empty means the source's holdings are trusted for any connected account.
	HoldingsAccount string
}

type serviceMetrics struct {
	runs        metric.Int64Counter
	rowsIn      metric.Int64Counter
	rowsOut     metric.Int64Counter
	sourceErrs  metric.Int64Counter
	malformed   metric.Int64Counter
	pipelineDur metric.Float64Histogram
}

// BrowseService fetches rows and runs the listing pipeline over them.
// It keeps the last good snapshot so a failing source degrades to stale data.
type BrowseService struct {
	source RowSource
	spot   SpotPriceSource
	names  AssetNamer
	denote *Denoter
	log    logger.LoggerInterface
	cfg    ServiceConfig
	tracer apm.Tracer

	metrics *serviceMetrics
	now     func() time.Time

	mu     sync.RWMutex
	last   []domain.PoolTokenRow
	lastAt time.Time
}

// NewBrowseService creates a BrowseService. spot and denote may be nil.
func NewBrowseService(
	source RowSource,
	spot SpotPriceSource,
	names AssetNamer,
	denote *Denoter,
	log logger.LoggerInterface,
	cfg ServiceConfig,
) (*BrowseService, error) {
	if cfg.TVLTolerance.IsZero() {
		cfg.TVLTolerance = domain.DefaultTVLTolerance
	}
	if denote == nil {
		denote = NewDenoter(nil, DefaultBaseDecimals)
	}
	s := &BrowseService{
		source: source,
		spot:   spot,
		names:  names,
		denote: denote,
		log:    log,
		cfg:    cfg,
		tracer: apm.NewTracer(instrumentationName),
		now:    time.Now,
	}
	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return s, nil
}

func (s *BrowseService) initMetrics() error {
	meter := otel.Meter(instrumentationName)
	var err error

	s.metrics = &serviceMetrics{}

	s.metrics.runs, err = meter.Int64Counter(
		"pools_pipeline_runs_total",
		metric.WithDescription("Listing pipeline runs"),
	)
	if err != nil {
		return err
	}

	s.metrics.rowsIn, err = meter.Int64Counter(
		"pools_pipeline_rows_in_total",
		metric.WithDescription("Rows entering the pipeline"),
	)
	if err != nil {
		return err
	}

	s.metrics.rowsOut, err = meter.Int64Counter(
		"pools_pipeline_rows_out_total",
		metric.WithDescription("Rows surviving the filters"),
	)
	if err != nil {
		return err
	}

	s.metrics.sourceErrs, err = meter.Int64Counter(
		"pools_source_errors_total",
		metric.WithDescription("Row source failures"),
	)
	if err != nil {
		return err
	}

	s.metrics.malformed, err = meter.Int64Counter(
		"pools_malformed_names_total",
		metric.WithDescription("Rows whose name does not parse"),
	)
	if err != nil {
		return err
	}

	s.metrics.pipelineDur, err = meter.Float64Histogram(
		"pools_pipeline_duration_ms",
		metric.WithDescription("Filter, sort and group duration"),
		metric.WithUnit("ms"),
	)
	return err
}

// Refresh pulls a new snapshot from the source. On failure the last good
// snapshot is returned with stale set; with no snapshot at all the error is returned.
func (s *BrowseService) Refresh(ctx context.Context) ([]domain.PoolTokenRow, time.Time, bool, error) {
	ctx, span := s.tracer.StartSpanFromContext(ctx, "pools.refresh",
		trace.WithAttributes(attribute.String("source", s.source.Name())))
	defer span.End()

	rows, err := s.source.Rows(ctx)
	if err != nil {
		span.NoticeError(err)
		s.metrics.sourceErrs.Add(ctx, 1, metric.WithAttributes(attribute.String("source", s.source.Name())))

		s.mu.RLock()
		last, lastAt := s.last, s.lastAt
		s.mu.RUnlock()

		if last == nil {
			return nil, time.Time{}, false, apperror.Wrap(err, apperror.CodePoolSourceFailed, s.source.Name())
		}
		s.log.Warn(ctx, "row source failed, serving last snapshot",
			"source", s.source.Name(), "age", s.now().Sub(lastAt).String(), "error", err)
		return last, lastAt, true, nil
	}

	for _, r := range rows {
		if verr := r.Validate(s.cfg.TVLTolerance); verr != nil {
			s.log.Warn(ctx, "pool row failed validation", "pool", r.Name, "code", apperror.GetCode(verr), "error", verr)
		}
	}

	at := s.now()
	s.mu.Lock()
	s.last = rows
	s.lastAt = at
	s.mu.Unlock()

	span.SetAttributes(attribute.Int("rows", len(rows)))
	return rows, at, false, nil
}

// Browse runs the listing pipeline for state and derives banners and cards.
func (s *BrowseService) Browse(ctx context.Context, state domain.BrowseState, bctx BrowseContext) (*BrowseView, error) {
	ctx, span := s.tracer.StartSpanFromContext(ctx, "pools.browse",
		trace.WithAttributes(
			attribute.String("market", string(state.MarketFilter)),
			attribute.String("leverage", state.LeverageFilter.String()),
			attribute.String("sort", string(state.SortBy)),
			attribute.Bool("account", bctx.AccountConnected()),
		))
	defer span.End()

	rows, fetchedAt, stale, err := s.Refresh(ctx)
	if err != nil {
		span.NoticeError(err)
		return nil, err
	}
	if !stale && s.cfg.StaleAfter > 0 && s.now().Sub(fetchedAt) > s.cfg.StaleAfter {
		stale = true
	}

	rows = s.holdingsFor(ctx, rows, bctx)

	start := s.now()
	result := s.runPipeline(ctx, rows, state)
	s.metrics.pipelineDur.Record(ctx, float64(s.now().Sub(start).Microseconds())/1000)

	spot := s.spotPrices(ctx, result.Groups, bctx)

	_, bannerSpan := s.tracer.StartSpanFromContext(ctx, "pools.banners")
	banners := BuildBanners(result.Groups, s.names, spot)
	holdings := s.denoteHoldings(result.Rows, spot, bctx.Denotation)
	attachHoldings(banners, result.Rows, holdings)
	bannerSpan.SetAttributes(attribute.Int("banners", len(banners)))
	bannerSpan.End()

	return &BrowseView{
		State:           state,
		Denotation:      bctx.Denotation,
		Rows:            result.Rows,
		Holdings:        holdings,
		Groups:          result.Groups,
		Banners:         banners,
		Tokens:          FlattenTokens(result.Rows),
		Malformed:       result.Malformed,
		LeverageOptions: LeverageOptions(rows),
		Source:          s.source.Name(),
		FetchedAt:       fetchedAt,
		Stale:           stale,
		SpotPrices:      spot,
	}, nil
}

func (s *BrowseService) runPipeline(ctx context.Context, rows []domain.PoolTokenRow, state domain.BrowseState) PipelineResult {
	ctx, span := s.tracer.StartSpanFromContext(ctx, "pools.pipeline")
	defer span.End()

	result := RunPipeline(rows, state)

	s.metrics.runs.Add(ctx, 1)
	s.metrics.rowsIn.Add(ctx, int64(len(rows)))
	s.metrics.rowsOut.Add(ctx, int64(len(result.Rows)))

	if n := len(result.Malformed); n > 0 {
		s.metrics.malformed.Add(ctx, int64(n))
		s.log.Warn(ctx, "pool names do not parse, excluded from market and leverage filters",
			"count", n, "names", result.Malformed)
	}

	span.SetAttributes(
		attribute.Int("rows.in", len(rows)),
		attribute.Int("rows.out", len(result.Rows)),
		attribute.Int("groups", len(result.Groups)),
	)
	return result
}

// holdingsFor zeroes MyHoldings unless they belong to the browsing account:
// nothing is connected, or the source filled them for a different account.
func (s *BrowseService) holdingsFor(ctx context.Context, rows []domain.PoolTokenRow, bctx BrowseContext) []domain.PoolTokenRow {
	if bctx.AccountConnected() &&
		(s.cfg.HoldingsAccount == "" || strings.EqualFold(bctx.Account, s.cfg.HoldingsAccount)) {
		return rows
	}
	if bctx.AccountConnected() {
		s.log.Debug(ctx, "source holdings belong to another account, showing none",
			"account", bctx.Account, "source_account", s.cfg.HoldingsAccount)
	}

	out := make([]domain.PoolTokenRow, len(rows))
	for i, r := range rows {
		r.MyHoldings = decimal.Zero
		out[i] = r
	}
	return out
}

func (s *BrowseService) denoteHoldings(rows []domain.PoolTokenRow, spot map[string]decimal.Decimal, in Denotation) []HoldingValue {
	out := make([]HoldingValue, len(rows))
	for i, r := range rows {
		out[i] = s.denote.Holding(r, spot[r.MarketSymbol], in)
	}
	return out
}

// attachHoldings copies each row's holding onto its pool card.
func attachHoldings(banners []MarketBanner, rows []domain.PoolTokenRow, holdings []HoldingValue) {
	byPool := make(map[string]HoldingValue, len(rows))
	for i, r := range rows {
		byPool[r.Address+"|"+r.Name] = holdings[i]
	}
	for bi := range banners {
		for ci := range banners[bi].Cards {
			c := &banners[bi].Cards[ci]
			c.Holding = byPool[c.Address+"|"+c.Name]
		}
	}
}

func (s *BrowseService) spotPrices(ctx context.Context, groups []MarketGroup, bctx BrowseContext) map[string]decimal.Decimal {
	if bctx.SpotPrices != nil {
		return bctx.SpotPrices
	}
	if s.spot == nil || len(groups) == 0 {
		return nil
	}

	markets := make([]string, 0, len(groups))
	for _, g := range groups {
		markets = append(markets, g.MarketSymbol)
	}

	prices, err := s.spot.SpotPrices(ctx, markets)
	if err != nil {
		s.log.Warn(ctx, "spot prices unavailable", "error", err)
		return nil
	}
	return prices
}

// LeverageOptions lists the distinct leverages present in rows, ascending.
func LeverageOptions(rows []domain.PoolTokenRow) []int {
	seen := make(map[int]struct{})
	for _, r := range rows {
		if m, err := r.Market(); err == nil {
			seen[m.Leverage] = struct{}{}
		}
	}
	out := make([]int, 0, len(seen))
	for lev := range seen {
		out = append(out, lev)
	}
	sort.Ints(out)
	return out
}
