// Package service wires the engine components together and implements the
// dependencies required by the HTTP API and the admin CLI.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/okian/leaguelearn/internal/adapters/http/api"
	"github.com/okian/leaguelearn/internal/adapters/leagueimport"
	"github.com/okian/leaguelearn/internal/adapters/mq/queue"
	"github.com/okian/leaguelearn/internal/adapters/mq/worker"
	"github.com/okian/leaguelearn/internal/adapters/repository"
	"github.com/okian/leaguelearn/internal/config"
	"github.com/okian/leaguelearn/internal/domain/classify"
	"github.com/okian/leaguelearn/internal/domain/inflight"
	"github.com/okian/leaguelearn/internal/domain/jobstatus"
	"github.com/okian/leaguelearn/internal/domain/liquidity"
	"github.com/okian/leaguelearn/internal/domain/model"
	"github.com/okian/leaguelearn/internal/domain/otb"
	"github.com/okian/leaguelearn/internal/domain/recalibrate"
	"github.com/okian/leaguelearn/internal/domain/scoring"
	"github.com/okian/leaguelearn/internal/domain/snapshot"
	"github.com/okian/leaguelearn/internal/domain/tendency"
	"github.com/okian/leaguelearn/internal/domain/valuation"
	"github.com/okian/leaguelearn/internal/domain/weights"
	"github.com/okian/leaguelearn/pkg/logger"
	"github.com/okian/leaguelearn/pkg/metrics"
)

// ActivitySource supplies recent league trade activity.
type ActivitySource interface {
	Activity(ctx context.Context, leagueID string) (*leagueimport.Activity, error)
}

// Service implements the API dependencies for the engine.
type Service struct {
	mu  sync.RWMutex
	cfg *config.Config

	// Persistence
	weightStore   repository.WeightStore
	feedbackStore repository.FeedbackStore
	snapshotStore repository.SnapshotStore
	tendencyStore repository.TendencyStore
	listingStore  repository.ListingStore
	activity      ActivitySource
	closers       []func() error

	// Domain components
	resolver   *weights.Resolver
	valuator   *valuation.Valuator
	inferencer tendency.Inferencer
	liquidity  liquidity.Scorer
	cache      *snapshot.Cache
	guard      inflight.Guard
	job        *recalibrate.Job
	jobs       *jobstatus.Store

	// Background recalibration
	queue     *queue.InMemoryQueue
	pool      *worker.Pool
	scheduler *worker.Scheduler

	// State
	started bool
	stopped bool
	cancel  context.CancelFunc
	schedWG sync.WaitGroup

	now    func() time.Time
	logger logger.Logger
}

var (
	_ api.Dependencies  = (*Service)(nil)
	_ api.StatsProvider = (*Service)(nil)
)

// New builds a service from cfg. Stores not supplied through options
// default to one shared in-memory store.
func New(cfg *config.Config, opts ...Option) *Service {
	if cfg == nil {
		cfg = config.New()
	}
	s := &Service{
		cfg:    cfg,
		now:    time.Now,
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.fillStores()

	s.resolver = weights.NewResolver(s.weightStore,
		weights.WithWindow(cfg.BlendWindow),
		weights.WithMode(weights.ParseMode(cfg.BlendMode)),
		weights.WithLogger(s.logger.Named("weights")))
	s.valuator = valuation.NewValuator(scoring.NewWeightedScorer())
	s.inferencer = tendency.New(tendency.Thresholds{
		HighTrades:     cfg.AggressionHighTrades,
		AltHighTrades:  cfg.AggressionAltHighTrades,
		AltAcceptRatio: cfg.AggressionAltAcceptRatio,
		MediumTrades:   cfg.AggressionMediumTrades,
		RiskHigh:       cfg.RiskHighOverpayRatio,
		RiskLow:        cfg.RiskLowOverpayRatio,
	})
	liq := liquidity.DefaultSettings()
	liq.TradeWeight = cfg.LiquidityTradeWeight
	liq.ParticipationWeight = cfg.LiquidityParticipationWeight
	liq.AssetsWeight = cfg.LiquidityAssetsWeight
	liq.TradeSaturation = cfg.LiquidityTradeSaturation
	liq.AssetsSaturation = cfg.LiquidityAssetsSaturation
	liq.ConfidenceTrades = cfg.LiquidityConfidenceTrades
	s.liquidity = liquidity.New(liq)

	s.cache = snapshot.NewCache(s.snapshotStore,
		snapshot.WithClock(s.now),
		snapshot.WithLogger(s.logger.Named("snapshot")))

	s.guard = inflight.NewInMemoryGuard()
	s.job = recalibrate.NewJob(s.feedbackStore, s.weightStore,
		recalibrate.WithGuard(s.guard),
		recalibrate.WithMinFeedback(cfg.MinFeedback),
		recalibrate.WithParams(recalibrate.Params{
			LearningRate: cfg.LearningRate,
			MinWeight:    cfg.MinWeight,
			MaxWeight:    cfg.MaxWeight,
		}),
		recalibrate.WithTimeout(cfg.RecalibrationTimeout),
		recalibrate.WithClock(s.now),
		recalibrate.WithLogger(s.logger.Named("recalibrate")))
	s.jobs = jobstatus.NewStore(jobstatus.WithClock(s.now), jobstatus.WithTTL(cfg.JobStatusTTL))

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(cfg.RecalibrationQueueSize))
	s.pool = worker.NewPool(cfg.RecalibrationWorkers, s.queue, s.job, s.jobs, s.logger)
	s.scheduler = worker.NewScheduler(s.queue, s.jobs,
		worker.WithInterval(cfg.RecalibrationInterval),
		worker.WithSeasonStartMonth(time.Month(cfg.SeasonStartMonth)),
		worker.WithSchedulerClock(s.now),
		worker.WithSchedulerLogger(s.logger))
	return s
}

func (s *Service) fillStores() {
	var mem *repository.MemoryStore
	memory := func() *repository.MemoryStore {
		if mem == nil {
			mem = repository.NewMemoryStore()
		}
		return mem
	}
	if s.weightStore == nil {
		s.weightStore = memory()
	}
	if s.feedbackStore == nil {
		s.feedbackStore = memory()
	}
	if s.snapshotStore == nil {
		s.snapshotStore = memory()
	}
	if s.tendencyStore == nil {
		s.tendencyStore = memory()
	}
	if s.listingStore == nil {
		s.listingStore = memory()
	}
}

// Start launches the recalibration workers and the scheduler. A stopped
// service cannot be restarted.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}
	if s.started {
		return nil
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.pool.Start(runCtx)

	s.schedWG.Add(1)
	go func() {
		defer s.schedWG.Done()
		s.scheduler.Run(runCtx)
	}()

	s.started = true
	s.logger.Info(ctx, "engine service started",
		logger.Int("workers", s.cfg.RecalibrationWorkers),
		logger.Int("queueSize", s.cfg.RecalibrationQueueSize),
		logger.Duration("interval", s.scheduler.Interval()))
	return nil
}

// Stop cancels running recalibrations cooperatively, waits for the
// workers and releases backends.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.started {
		s.logger.Info(ctx, "stopping engine service...")
		s.cancel()
		s.schedWG.Wait()
		if err := s.pool.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
		s.started = false
	}

	s.stopped = true

	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// Config returns the configuration the service was built with.
func (s *Service) Config() config.Config {
	return *s.cfg
}

// Classify derives a league class.
func (s *Service) Classify(leagueType, specialtyFormat string, superflex bool) model.LeagueClass {
	return classify.Classify(leagueType, specialtyFormat, superflex)
}

// Weights returns the effective weights for class and their provenance.
func (s *Service) Weights(ctx context.Context, class model.LeagueClass) weights.Resolution {
	return s.resolver.Resolve(ctx, class)
}

// EvaluateTrade values one proposal under the class weights. A known
// counterparty nudges the acceptance label by their tendencies.
func (s *Service) EvaluateTrade(ctx context.Context, class model.LeagueClass, give, receive []model.Asset, counterpartyID string) (model.TradeCandidate, error) {
	if len(give) == 0 && len(receive) == 0 {
		return model.TradeCandidate{}, fmt.Errorf("%w: trade has no assets", ErrInvalidRequest)
	}
	if err := validateAssets(give, receive); err != nil {
		return model.TradeCandidate{}, err
	}

	w := s.resolver.Effective(ctx, class)
	profile := s.counterparty(ctx, counterpartyID)
	c := s.valuator.EvaluateAgainst(give, receive, w, profile)
	metrics.RecordTradesEvaluated(1)
	return c, nil
}

func (s *Service) counterparty(ctx context.Context, managerID string) *tendency.Profile {
	managerID = strings.TrimSpace(managerID)
	if managerID == "" {
		return nil
	}
	t, err := s.tendencyStore.Tendency(ctx, managerID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn(ctx, "tendency lookup failed", logger.String("manager_id", managerID), logger.Error(err))
		}
		return nil
	}
	p := s.inferencer.Infer(t)
	return &p
}

// ManagerProfile infers tendencies for a known manager.
func (s *Service) ManagerProfile(ctx context.Context, managerID string) (tendency.Profile, error) {
	t, err := s.tendencyStore.Tendency(ctx, managerID)
	if err != nil {
		return tendency.Profile{}, err
	}
	return s.inferencer.Infer(t), nil
}

// RecordOutcome folds one sent trade into a manager's tendencies and
// returns the updated profile. Unknown managers start from zero.
func (s *Service) RecordOutcome(ctx context.Context, managerID string, o tendency.Outcome) (tendency.Profile, error) {
	managerID = strings.TrimSpace(managerID)
	if managerID == "" {
		return tendency.Profile{}, fmt.Errorf("%w: missing manager id", ErrInvalidRequest)
	}
	t, err := s.tendencyStore.Tendency(ctx, managerID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		t = model.ManagerTendency{ManagerID: managerID}
	case err != nil:
		return tendency.Profile{}, err
	}

	next := tendency.Observe(t, o, s.now())
	if err := s.tendencyStore.SaveTendency(ctx, next); err != nil {
		return tendency.Profile{}, err
	}
	return s.inferencer.Infer(next), nil
}

// LeagueLiquidity scores a league's trade market. Feed failures yield the
// neutral score.
func (s *Service) LeagueLiquidity(ctx context.Context, leagueID string) liquidity.Liquidity {
	if s.activity == nil {
		return s.liquidity.Compute(nil)
	}
	act, err := s.activity.Activity(ctx, leagueID)
	if err != nil || act == nil {
		return s.liquidity.Compute(nil)
	}
	m := s.liquidity.FromActivity(act.Trades, act.TotalManagers, s.now())
	return s.liquidity.Compute(&m)
}

// SaveListing records an on-the-block listing.
func (s *Service) SaveListing(ctx context.Context, l model.OTBListing) error {
	if strings.TrimSpace(l.LeagueID) == "" || strings.TrimSpace(l.PlayerID) == "" {
		return fmt.Errorf("%w: listing needs league_id and player_id", ErrInvalidRequest)
	}
	return s.listingStore.SaveListing(ctx, l)
}

// AddFeedback records one observed outcome for recalibration. The class is
// normalised and must be one Classify can produce, otherwise no run would
// ever pick the feedback up.
func (s *Service) AddFeedback(ctx context.Context, fb model.Feedback) error {
	fb.LeagueClass = model.LeagueClass(strings.ToLower(strings.TrimSpace(string(fb.LeagueClass))))
	_, _, _, known := classify.Parts(fb.LeagueClass)
	switch {
	case strings.TrimSpace(fb.ID) == "":
		return fmt.Errorf("%w: feedback needs an id", ErrInvalidRequest)
	case fb.LeagueClass == "":
		return fmt.Errorf("%w: feedback needs a league_class", ErrInvalidRequest)
	case !known:
		return fmt.Errorf("%w: unknown league_class %q", ErrInvalidRequest, fb.LeagueClass)
	case fb.Season <= 0:
		return fmt.Errorf("%w: invalid season %d", ErrInvalidRequest, fb.Season)
	case fb.Outcome < -1 || fb.Outcome > 1:
		return fmt.Errorf("%w: outcome must be within [-1, 1]", ErrInvalidRequest)
	}
	if fb.ObservedAt.IsZero() {
		fb.ObservedAt = s.now()
	}
	return s.feedbackStore.AddFeedback(ctx, fb)
}

// OTBPackages proposes offers from the query's roster for players other
// rosters have on the block. Results are cached as otb_packages snapshots
// keyed by a fingerprint of the inputs and the effective weights.
func (s *Service) OTBPackages(ctx context.Context, q model.PackageQuery) (model.PackageResult, error) {
	if strings.TrimSpace(q.LeagueID) == "" || strings.TrimSpace(q.Username) == "" {
		return model.PackageResult{}, fmt.Errorf("%w: league_id and username are required", ErrInvalidRequest)
	}
	if _, ok := q.Rosters[q.RosterID]; !ok {
		return model.PackageResult{}, fmt.Errorf("%w: roster %d not found", ErrInvalidRequest, q.RosterID)
	}
	for _, assets := range q.Rosters {
		if err := validateAssets(assets); err != nil {
			return model.PackageResult{}, err
		}
	}
	season := q.Season
	if season <= 0 {
		season = worker.SeasonFor(s.now(), time.Month(s.cfg.SeasonStartMonth))
	}

	listings, err := s.listingStore.Listings(ctx, q.LeagueID)
	if err != nil {
		s.logger.Warn(ctx, "listing lookup failed", logger.String("league_id", q.LeagueID), logger.Error(err))
		listings = nil
	}
	tagged := otb.ApplyTags(q.LeagueID, listings, q.Rosters)
	targets := blockTargets(tagged, q.RosterID)
	w := s.resolver.Effective(ctx, q.Class)

	fp, err := snapshot.Fingerprint(q.Class, q.RosterID, q.Limit, tagged, w)
	if err != nil {
		return model.PackageResult{}, err
	}
	key := model.SnapshotKey{
		LeagueID:   q.LeagueID,
		Username:   q.Username,
		Type:       model.SnapshotOTBPackages,
		ContextKey: &fp,
	}

	rec, cached, err := s.cache.GetOrCompute(ctx, key, season, func(context.Context) (json.RawMessage, error) {
		packages := s.valuator.BuildPackages(targets, tagged[q.RosterID], w, q.Limit)
		metrics.RecordTradesEvaluated(len(packages))
		if top, ok := valuation.SelectTopCandidate(packages); ok {
			metrics.RecordTopCandidate(string(top.AcceptanceLabel))
		}
		return json.Marshal(packages)
	})
	if err != nil {
		return model.PackageResult{}, err
	}

	var packages []model.TradeCandidate
	if err := json.Unmarshal(rec.Payload, &packages); err != nil {
		return model.PackageResult{}, fmt.Errorf("decode cached packages: %w", err)
	}
	return model.PackageResult{
		Packages:    packages,
		Cached:      cached,
		SnapshotID:  rec.ID,
		GeneratedAt: rec.CreatedAt,
	}, nil
}

// blockTargets collects OTB-tagged assets from every roster but own, in
// roster order.
func blockTargets(rosters map[int][]model.Asset, own int) []model.Asset {
	ids := make([]int, 0, len(rosters))
	for id := range rosters {
		if id != own {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)

	var out []model.Asset
	for _, id := range ids {
		for _, a := range rosters[id] {
			if a.HasTag(otb.Tag) {
				out = append(out, a)
			}
		}
	}
	return out
}

func validateAssets(sides ...[]model.Asset) error {
	for _, side := range sides {
		for _, a := range side {
			if err := a.Validate(); err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
			}
		}
	}
	return nil
}

// RequestRecalibration queues a background run for season.
func (s *Service) RequestRecalibration(ctx context.Context, season int, trigger queue.Trigger) (jobstatus.Status, error) {
	if season <= 0 {
		return jobstatus.Status{}, fmt.Errorf("%w: invalid season %d", ErrInvalidRequest, season)
	}
	st := s.jobs.Create(season, string(trigger))
	err := s.queue.Enqueue(ctx, queue.RecalibrationRequest{JobID: st.ID, Season: season, Trigger: trigger})
	if err != nil {
		_ = s.jobs.Fail(st.ID, err)
		if errors.Is(err, queue.ErrFull) {
			return jobstatus.Status{}, ErrBackpressure
		}
		return jobstatus.Status{}, err
	}
	return st, nil
}

// RecalibrationStatus returns a queued or finished job.
func (s *Service) RecalibrationStatus(id string) (jobstatus.Status, bool) {
	return s.jobs.Get(id)
}

// RunRecalibration runs one pass synchronously.
func (s *Service) RunRecalibration(ctx context.Context, season int) (model.RecalibrationReport, error) {
	return s.job.Run(ctx, season)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	queueLen := s.queue.Len()
	return map[string]interface{}{
		"started":          s.started,
		"workerCount":      s.cfg.RecalibrationWorkers,
		"queueCapacity":    s.cfg.RecalibrationQueueSize,
		"queueLength":      queueLen,
		"jobs":             s.jobs.Len(),
		"inFlightUnits":    s.guard.Size(),
		"blendWindow":      s.resolver.Window(),
		"blendMode":        s.cfg.BlendMode,
		"storageBackend":   s.cfg.StorageBackend,
		"snapshotBackend":  s.cfg.SnapshotBackend,
		"scheduleInterval": s.scheduler.Interval().String(),
	}
}
