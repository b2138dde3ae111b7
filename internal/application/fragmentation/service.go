// Package fragmentation provides the application-level fragmentation service.
// It sits between the HTTP/CLI/worker front ends and the engine: it parses the
// input, builds one engine factory per molecule, runs the requested operation,
// converts the result into public DTOs and exports the engine counters.
package fragmentation

import (
	"context"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/MolFrag/internal/config"
	domainFrag "github.com/turtacn/MolFrag/internal/domain/fragmentation"
	domainMol "github.com/turtacn/MolFrag/internal/domain/molecule"
	"github.com/turtacn/MolFrag/internal/infrastructure/database/redis"
	"github.com/turtacn/MolFrag/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolFrag/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MolFrag/pkg/errors"
	"github.com/turtacn/MolFrag/pkg/types/fragment"
)

// Service defines the fragmentation use cases.
type Service interface {
	Fragment(ctx context.Context, req *fragment.FragmentRequest) (*fragment.FragmentResponse, error)
	MaximumCuts(ctx context.Context, req *fragment.MaxCutsRequest) (*fragment.MaxCutsResponse, error)
	EnumerateCombinations(ctx context.Context, req *fragment.CombinationsRequest) (*fragment.CombinationsResponse, error)
	FragmentBatch(ctx context.Context, req *fragment.BatchRequest) (*fragment.BatchResponse, error)
}

// Option configures the service.
type Option func(*serviceImpl)

// WithCache enables the result cache.  Responses are stored for ttl; zero
// uses the cache default.
func WithCache(cache redis.Cache, ttl time.Duration) Option {
	return func(s *serviceImpl) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

// WithMetrics exports request and engine counters.
func WithMetrics(m *prometheus.AppMetrics) Option {
	return func(s *serviceImpl) { s.metrics = m }
}

type serviceImpl struct {
	cfg      atomic.Pointer[config.FragmentationConfig]
	cache    redis.Cache
	cacheTTL time.Duration
	metrics  *prometheus.AppMetrics
	logger   logging.Logger
}

// NewService creates the fragmentation service with cfg as request defaults.
func NewService(cfg config.FragmentationConfig, logger logging.Logger, opts ...Option) Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &serviceImpl{logger: logger.Named("service")}
	s.setDefaults(cfg)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reloadable is implemented by services whose request defaults can be
// swapped at runtime, e.g. from a config file watcher.
type Reloadable interface {
	UpdateDefaults(cfg config.FragmentationConfig)
}

// UpdateDefaults replaces the request defaults.  Requests already running
// keep the defaults they started with.
func (s *serviceImpl) UpdateDefaults(cfg config.FragmentationConfig) {
	s.setDefaults(cfg)
	s.logger.Info("fragmentation defaults updated",
		logging.Int("max_cuts", cfg.MaxCuts),
		logging.String("bond_pattern", cfg.BondPattern))
}

func (s *serviceImpl) setDefaults(cfg config.FragmentationConfig) {
	if cfg.MaxCuts < 1 {
		cfg.MaxCuts = config.DefaultMaxCuts
	}
	if cfg.BatchConcurrency < 1 {
		cfg.BatchConcurrency = config.DefaultBatchConcurrency
	}
	if cfg.BondPattern == "" {
		cfg.BondPattern = config.DefaultBondPattern
	}
	s.cfg.Store(&cfg)
}

func (s *serviceImpl) defaults() config.FragmentationConfig { return *s.cfg.Load() }

// ─────────────────────────────────────────────────────────────────────────────
// Fragment
// ─────────────────────────────────────────────────────────────────────────────

// partialResult carries a cancelled response out of the cache loader so that
// it is returned to the caller without being stored.
type partialResult struct {
	resp *fragment.FragmentResponse
}

func (p *partialResult) Error() string { return "partial fragmentation result" }

func (s *serviceImpl) Fragment(ctx context.Context, req *fragment.FragmentRequest) (*fragment.FragmentResponse, error) {
	if req == nil {
		return nil, errors.New(errors.ErrCodeValidation, "request is required")
	}
	start := time.Now()
	resp, err := s.fragment(ctx, req)
	s.record("fragment", start, err)
	if err != nil {
		return nil, err
	}
	resp.DurationMs = time.Since(start).Milliseconds()
	return resp, nil
}

func (s *serviceImpl) fragment(ctx context.Context, req *fragment.FragmentRequest) (*fragment.FragmentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	minCuts, maxCuts := s.cutRange(req.MinCuts, req.MaxCuts)

	if s.cache == nil {
		resp, err := s.runFragment(ctx, req, minCuts, maxCuts)
		if err != nil {
			return nil, err
		}
		resp.ID = id
		return resp, nil
	}

	loaded := false
	var resp fragment.FragmentResponse
	err := s.cache.GetOrSet(ctx, s.cacheKey(req, minCuts, maxCuts), &resp, s.cacheTTL, func(ctx context.Context) (interface{}, error) {
		loaded = true
		r, err := s.runFragment(ctx, req, minCuts, maxCuts)
		if err != nil {
			return nil, err
		}
		if r.Cancelled {
			return nil, &partialResult{resp: r}
		}
		return r, nil
	})
	var partial *partialResult
	if errors.As(err, &partial) {
		r := *partial.resp
		r.ID = id
		return &r, nil
	}
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		prometheus.RecordCacheAccess(s.metrics, "result", !loaded)
	}
	resp.ID = id
	resp.Cached = !loaded
	return &resp, nil
}

func (s *serviceImpl) runFragment(ctx context.Context, req *fragment.FragmentRequest, minCuts, maxCuts int) (*fragment.FragmentResponse, error) {
	prep, err := s.prepare(req.SMILES, req.BondPattern, req.KeepAllComponents)
	if err != nil {
		return nil, err
	}
	f, err := s.newFactory(prep, req)
	if err != nil {
		return nil, err
	}
	defer s.closeFactory(f)

	resp := &fragment.FragmentResponse{
		SMILES:          req.SMILES,
		CanonicalSMILES: prep.mol.WriteSMILES(),
		HeavyAtoms:      prep.mol.HeavyAtomCount(),
		Records:         []fragment.FragmentRecord{},
	}

	var sets []*domainFrag.FragmentSet[*domainMol.Molecule]
	if len(req.Bonds) > 0 {
		set, err := s.fragmentBonds(f, prep, req)
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	} else {
		res, err := f.FragmentAll(ctx, domainFrag.BulkOptions{
			MinCuts:       minCuts,
			MaxCuts:       maxCuts,
			BondInsertion: req.BondInsertion,
		})
		if err != nil {
			return nil, err
		}
		sets = res.Sets
		resp.Cancelled = res.Cancelled
	}

	histogram := make(map[int]int)
	for _, set := range sets {
		resp.Records = append(resp.Records, toRecord(set, prep))
		histogram[set.Cuts()]++
	}
	stats := f.Stats()
	resp.Stats = toStats(stats)
	if s.metrics != nil {
		prometheus.RecordFragmentSets(s.metrics, histogram)
		prometheus.RecordEngineStats(s.metrics, stats)
	}
	if resp.Cancelled {
		s.logger.Warn("fragmentation deadline reached, returning partial result",
			logging.String("smiles", req.SMILES),
			logging.Int("records", len(resp.Records)))
	}
	return resp, nil
}

func (s *serviceImpl) fragmentBonds(f *molFactory, p *prepared, req *fragment.FragmentRequest) (*domainFrag.FragmentSet[*domainMol.Molecule], error) {
	bonds := make([]domainFrag.BondIdentifier, 0, len(req.Bonds))
	for _, idx := range req.Bonds {
		b, err := p.bond(idx)
		if err != nil {
			return nil, err
		}
		bonds = append(bonds, b)
	}
	switch {
	case len(bonds) == 1 && req.BondInsertion:
		return f.FragmentBondInsertion(bonds[0])
	case len(bonds) == 1:
		return f.FragmentSingleBond(bonds[0])
	default:
		return f.FragmentCombination(bonds...)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// MaximumCuts / EnumerateCombinations
// ─────────────────────────────────────────────────────────────────────────────

func (s *serviceImpl) MaximumCuts(ctx context.Context, req *fragment.MaxCutsRequest) (*fragment.MaxCutsResponse, error) {
	if req == nil {
		return nil, errors.New(errors.ErrCodeValidation, "request is required")
	}
	start := time.Now()
	resp, err := s.maximumCuts(req)
	s.record("max_cuts", start, err)
	return resp, err
}

func (s *serviceImpl) maximumCuts(req *fragment.MaxCutsRequest) (*fragment.MaxCutsResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	prep, err := s.prepare(req.SMILES, req.BondPattern, false)
	if err != nil {
		return nil, err
	}
	f, err := s.newFactory(prep, nil)
	if err != nil {
		return nil, err
	}
	defer s.closeFactory(f)

	allow := s.defaults().AllowDoubleCutOfSingleBond
	if req.AllowDoubleCutOfSingleBond != nil {
		allow = *req.AllowDoubleCutOfSingleBond
	}
	n, err := f.MaximumCuts(allow)
	if err != nil {
		return nil, err
	}
	matching, err := f.MatchingBonds()
	if err != nil {
		return nil, err
	}
	return &fragment.MaxCutsResponse{SMILES: req.SMILES, MatchingBonds: len(matching), MaxCuts: n}, nil
}

func (s *serviceImpl) EnumerateCombinations(ctx context.Context, req *fragment.CombinationsRequest) (*fragment.CombinationsResponse, error) {
	if req == nil {
		return nil, errors.New(errors.ErrCodeValidation, "request is required")
	}
	start := time.Now()
	resp, err := s.enumerateCombinations(req)
	s.record("combinations", start, err)
	return resp, err
}

func (s *serviceImpl) enumerateCombinations(req *fragment.CombinationsRequest) (*fragment.CombinationsResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	minCuts, maxCuts := s.cutRange(req.MinCuts, req.MaxCuts)
	prep, err := s.prepare(req.SMILES, req.BondPattern, false)
	if err != nil {
		return nil, err
	}
	f, err := s.newFactory(prep, nil)
	if err != nil {
		return nil, err
	}
	defer s.closeFactory(f)

	resp := &fragment.CombinationsResponse{SMILES: req.SMILES, Combinations: [][]int{}}
	if minCuts == 1 {
		singles, err := f.CuttableBonds(1)
		if err != nil {
			return nil, err
		}
		for _, b := range singles {
			resp.Combinations = append(resp.Combinations, []int{prep.inputBond(b.Index)})
		}
		minCuts = 2
	}
	if maxCuts >= minCuts {
		combos, err := f.EnumerateCombinations(minCuts, maxCuts)
		if err != nil {
			return nil, err
		}
		for _, c := range combos {
			indices := make([]int, c.Len())
			for i := range indices {
				indices[i] = prep.inputBond(c.At(i).Index)
			}
			resp.Combinations = append(resp.Combinations, indices)
		}
	}
	resp.Count = len(resp.Combinations)
	return resp, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// FragmentBatch
// ─────────────────────────────────────────────────────────────────────────────

// FragmentBatch fragments every request with at most BatchConcurrency
// molecules in flight.  Per-molecule failures are reported in the item and do
// not abort the batch.
func (s *serviceImpl) FragmentBatch(ctx context.Context, req *fragment.BatchRequest) (*fragment.BatchResponse, error) {
	if req == nil {
		return nil, errors.New(errors.ErrCodeValidation, "request is required")
	}
	start := time.Now()
	if err := req.Validate(); err != nil {
		s.record("batch", start, err)
		return nil, err
	}

	items := make([]fragment.BatchItem, len(req.Requests))
	var g errgroup.Group
	g.SetLimit(s.defaults().BatchConcurrency)
	for i := range req.Requests {
		i := i
		g.Go(func() error {
			items[i].Index = i
			if err := ctx.Err(); err != nil {
				items[i].Error = fragment.NewErrorResponse(errors.Wrap(err, errors.ErrCodeCancelled, "batch cancelled"))
				return nil
			}
			r := req.Requests[i]
			resp, err := s.Fragment(ctx, &r)
			if err != nil {
				items[i].Error = fragment.NewErrorResponse(err)
				return nil
			}
			items[i].Result = resp
			return nil
		})
	}
	_ = g.Wait()

	out := &fragment.BatchResponse{Items: items}
	for _, it := range items {
		if it.Error != nil {
			out.Failed++
		} else {
			out.Succeeded++
		}
	}
	if s.metrics != nil {
		s.metrics.BatchSize.WithLabelValues().Observe(float64(len(items)))
	}
	s.record("batch", start, nil)
	s.logger.Info("batch fragmented",
		logging.Int("size", len(items)),
		logging.Int("failed", out.Failed),
		logging.Duration("duration", time.Since(start)))
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// helpers
// ─────────────────────────────────────────────────────────────────────────────

type molFactory = domainFrag.Factory[*domainMol.Molecule]

// prepared is a parsed request molecule.  When a salt was stripped, atoms
// and bonds map the stripped numbering back to the input numbering and
// local maps input bonds forward; all three are nil otherwise.
type prepared struct {
	mol   *domainMol.Molecule
	graph *domainMol.Graph
	atoms []int
	bonds []int
	local map[int]int
}

func (s *serviceImpl) prepare(smiles, pattern string, keepAll bool) (*prepared, error) {
	if pattern == "" {
		pattern = s.defaults().BondPattern
	}
	matcher, err := domainMol.ParseBondPattern(pattern)
	if err != nil {
		return nil, err
	}
	mol, err := domainMol.ParseSMILES(smiles)
	if err != nil {
		return nil, err
	}
	p := &prepared{mol: mol}
	if !keepAll {
		sub, remap := mol.LargestComponentMap()
		if remap != nil {
			p.mol = sub
			p.atoms = make([]int, sub.NumAtoms())
			for in, out := range remap {
				if out >= 0 {
					p.atoms[out] = in
				}
			}
			p.bonds = make([]int, sub.NumBonds())
			p.local = make(map[int]int, sub.NumBonds())
			for in, b := range mol.Bonds {
				if remap[b.A] < 0 || remap[b.B] < 0 {
					continue
				}
				out, _ := sub.BondBetween(remap[b.A], remap[b.B])
				p.bonds[out] = in
				p.local[in] = out
			}
		}
	}
	p.graph = domainMol.NewGraph(p.mol, matcher)
	return p, nil
}

// bond resolves a bond index given in input numbering.
func (p *prepared) bond(idx int) (domainFrag.BondIdentifier, error) {
	if p.local == nil {
		return p.graph.Bond(idx)
	}
	out, ok := p.local[idx]
	if !ok {
		return domainFrag.BondIdentifier{}, errors.Newf(errors.ErrCodeFragmentationFailed,
			"bond %d is not part of the largest component", idx)
	}
	return p.graph.Bond(out)
}

func (p *prepared) inputBond(idx int) int {
	if p.bonds == nil {
		return idx
	}
	return p.bonds[idx]
}

func (p *prepared) inputAtom(idx int) int {
	if p.atoms == nil {
		return idx
	}
	return p.atoms[idx]
}

// newFactory applies the configured defaults and the per-request overrides
// of req, which may be nil.
func (s *serviceImpl) newFactory(p *prepared, req *fragment.FragmentRequest) (*molFactory, error) {
	cfg := s.defaults()
	maxHeavy := cfg.MaxValueHeavyAtoms
	ratio := cfg.MinKeyValueRatio
	removeH := cfg.RemoveExplicitHydrogens
	if req != nil {
		if req.MaxValueHeavyAtoms != nil {
			maxHeavy = *req.MaxValueHeavyAtoms
		}
		if req.MinKeyValueRatio != nil {
			ratio = *req.MinKeyValueRatio
		}
		if req.RemoveExplicitHydrogens != nil {
			removeH = *req.RemoveExplicitHydrogens
		}
	}

	opts := []domainFrag.Option{
		domainFrag.WithLogger(s.logger),
		domainFrag.WithMaxValueHeavyAtoms(maxHeavy),
		domainFrag.WithMinKeyValueRatio(ratio),
		domainFrag.WithRemoveExplicitHydrogens(removeH),
	}
	if cfg.LeafCacheCapacity > 0 {
		opts = append(opts, domainFrag.WithLeafCacheCapacity(cfg.LeafCacheCapacity))
	}
	if cfg.TripletEagerThreshold > 0 {
		opts = append(opts, domainFrag.WithTripletThreshold(cfg.TripletEagerThreshold))
	}

	f, err := domainFrag.NewFactory[*domainMol.Molecule](p.graph, p.mol, domainMol.Toolkit{}, opts...)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ActiveFactories.WithLabelValues().Inc()
	}
	return f, nil
}

func (s *serviceImpl) closeFactory(f *molFactory) {
	_ = f.Close()
	if s.metrics != nil {
		s.metrics.ActiveFactories.WithLabelValues().Dec()
	}
}

func (s *serviceImpl) cutRange(minCuts, maxCuts int) (int, int) {
	if minCuts < 1 {
		minCuts = 1
	}
	if maxCuts < 1 {
		maxCuts = s.defaults().MaxCuts
		if maxCuts < minCuts {
			maxCuts = minCuts
		}
	}
	return minCuts, maxCuts
}

// cacheKey digests everything that shapes a response.  The input SMILES is
// used verbatim because reported bond and atom indices follow its atom order.
func (s *serviceImpl) cacheKey(req *fragment.FragmentRequest, minCuts, maxCuts int) string {
	cfg := s.defaults()
	maxHeavy := cfg.MaxValueHeavyAtoms
	if req.MaxValueHeavyAtoms != nil {
		maxHeavy = *req.MaxValueHeavyAtoms
	}
	ratio := cfg.MinKeyValueRatio
	if req.MinKeyValueRatio != nil {
		ratio = *req.MinKeyValueRatio
	}
	removeH := cfg.RemoveExplicitHydrogens
	if req.RemoveExplicitHydrogens != nil {
		removeH = *req.RemoveExplicitHydrogens
	}
	pattern := req.BondPattern
	if pattern == "" {
		pattern = cfg.BondPattern
	}
	bonds := make([]string, len(req.Bonds))
	for i, b := range req.Bonds {
		bonds[i] = strconv.Itoa(b)
	}

	d := xxhash.New()
	for _, part := range []string{
		strings.TrimSpace(req.SMILES),
		pattern,
		strconv.Itoa(minCuts),
		strconv.Itoa(maxCuts),
		strconv.FormatBool(req.BondInsertion),
		strings.Join(bonds, ","),
		strconv.Itoa(maxHeavy),
		strconv.FormatFloat(ratio, 'g', -1, 64),
		strconv.FormatBool(removeH),
		strconv.FormatBool(req.KeepAllComponents),
	} {
		_, _ = d.WriteString(part)
		_, _ = d.Write([]byte{0})
	}
	return "frag:" + strconv.FormatUint(d.Sum64(), 16)
}

func (s *serviceImpl) record(op string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	prometheus.RecordFragmentation(s.metrics, op, time.Since(start), err)
	if err != nil {
		prometheus.RecordError(s.metrics, "fragmentation", errors.GetCode(err).String())
	}
}

// toRecord reports bonds in the numbering of the input SMILES.
func toRecord(set *domainFrag.FragmentSet[*domainMol.Molecule], p *prepared) fragment.FragmentRecord {
	rec := fragment.FragmentRecord{
		Key:             set.KeyString(),
		Value:           set.ValueString(),
		Cuts:            set.Cuts(),
		BondInsertion:   set.BondInsertion,
		ValueHeavyAtoms: set.Value.HeavyAtoms,
		Bonds:           make([]fragment.Bond, len(set.Bonds)),
	}
	for _, k := range set.Keys {
		rec.KeyHeavyAtoms += k.HeavyAtoms
	}
	for i, b := range set.Bonds {
		rec.Bonds[i] = fragment.Bond{
			Index:     p.inputBond(b.Index),
			Start:     p.inputAtom(b.Start),
			End:       p.inputAtom(b.End),
			FragIndex: b.FragIndex,
		}
	}
	return rec
}

func toStats(st domainFrag.Stats) fragment.Stats {
	return fragment.Stats{
		LeavesGenerated:     st.LeavesGenerated,
		LeafCacheHits:       st.LeafCacheHits,
		LeafCacheMisses:     st.LeafCacheMisses,
		PartitionsComputed:  st.PartitionsComputed,
		CombinationsTested:  st.CombinationsTested,
		TripletsPruned:      st.TripletsPruned,
		InvalidCombinations: st.InvalidCombinations,
		FilteredOut:         st.FilteredOut,
		FragmentSetsBuilt:   st.FragmentSetsBuilt,
	}
}

//Personal.AI order the ending
