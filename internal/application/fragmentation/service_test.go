package fragmentation

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolFrag/internal/config"
	"github.com/turtacn/MolFrag/internal/infrastructure/database/redis"
	"github.com/turtacn/MolFrag/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolFrag/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MolFrag/internal/testutil"
	"github.com/turtacn/MolFrag/pkg/errors"
	"github.com/turtacn/MolFrag/pkg/types/fragment"
)

func testConfig() config.FragmentationConfig {
	return config.FragmentationConfig{
		LeafCacheCapacity:     config.DefaultLeafCacheCapacity,
		TripletEagerThreshold: config.DefaultTripletEagerThreshold,
		MaxCuts:               3,
		BondPattern:           "acyclic-single",
		BatchConcurrency:      2,
	}
}

func newTestService(opts ...Option) Service {
	return NewService(testConfig(), logging.NewNopLogger(), opts...)
}

func newMiniredisCache(t *testing.T) (redis.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := redis.NewClient(config.RedisConfig{Mode: "standalone", Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return redis.NewRedisCache(client, logging.NewNopLogger(), redis.WithPrefix("test:"), redis.WithTTLJitter(0)), mr
}

func recordPairs(resp *fragment.FragmentResponse) []string {
	out := make([]string, len(resp.Records))
	for i, r := range resp.Records {
		out[i] = r.Key + " " + r.Value
	}
	return out
}

func TestService_FragmentAll(t *testing.T) {
	svc := newTestService()

	resp, err := svc.Fragment(context.Background(), &fragment.FragmentRequest{SMILES: "NCCO"})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "NCCO", resp.SMILES)
	assert.NotEmpty(t, resp.CanonicalSMILES)
	assert.Equal(t, 4, resp.HeavyAtoms)
	assert.False(t, resp.Cancelled)
	assert.False(t, resp.Cached)
	// 3 bonds in both directions plus 3 double cuts.
	assert.Len(t, resp.Records, 9)
	assert.Positive(t, resp.Stats.FragmentSetsBuilt)

	cuts := map[int]int{}
	for _, r := range resp.Records {
		cuts[r.Cuts]++
		assert.Len(t, r.Bonds, r.Cuts)
	}
	assert.Equal(t, map[int]int{1: 6, 2: 3}, cuts)
}

func TestService_FragmentKeepsRequestID(t *testing.T) {
	svc := newTestService()

	resp, err := svc.Fragment(context.Background(), &fragment.FragmentRequest{ID: "req-1", SMILES: "CCO"})
	require.NoError(t, err)
	assert.Equal(t, "req-1", resp.ID)
}

func TestService_FragmentExplicitBonds(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	single, err := svc.Fragment(ctx, &fragment.FragmentRequest{SMILES: "NCCO", Bonds: []int{0}})
	require.NoError(t, err)
	require.Len(t, single.Records, 1)
	assert.Equal(t, "[1*]CCO", single.Records[0].Key)
	assert.Equal(t, "[1*]N", single.Records[0].Value)
	assert.Equal(t, 3, single.Records[0].KeyHeavyAtoms)
	assert.Equal(t, 1, single.Records[0].ValueHeavyAtoms)

	double, err := svc.Fragment(ctx, &fragment.FragmentRequest{SMILES: "NCCO", Bonds: []int{2, 0}})
	require.NoError(t, err)
	require.Len(t, double.Records, 1)
	rec := double.Records[0]
	assert.Equal(t, "[1*]N.[2*]O", rec.Key)
	assert.Equal(t, "[1*]CC[2*]", rec.Value)
	assert.Equal(t, 2, rec.Cuts)
	assert.Equal(t, 2, rec.KeyHeavyAtoms)
	assert.Equal(t, []fragment.Bond{
		{Index: 0, Start: rec.Bonds[0].Start, End: rec.Bonds[0].End, FragIndex: 1},
		{Index: 2, Start: rec.Bonds[1].Start, End: rec.Bonds[1].End, FragIndex: 2},
	}, rec.Bonds)

	insertion, err := svc.Fragment(ctx, &fragment.FragmentRequest{SMILES: "NCCO", Bonds: []int{0}, BondInsertion: true})
	require.NoError(t, err)
	require.Len(t, insertion.Records, 1)
	assert.True(t, insertion.Records[0].BondInsertion)
	assert.Equal(t, "[1*][2*]", insertion.Records[0].Value)
	assert.Equal(t, "[1*]CCO.[2*]N", insertion.Records[0].Key)
}

func TestService_UpdateDefaults(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	before, err := svc.Fragment(ctx, &fragment.FragmentRequest{SMILES: "NCCO"})
	require.NoError(t, err)
	assert.Len(t, before.Records, 9)

	r, ok := svc.(Reloadable)
	require.True(t, ok)
	cfg := testConfig()
	cfg.MaxCuts = 1
	r.UpdateDefaults(cfg)

	after, err := svc.Fragment(ctx, &fragment.FragmentRequest{SMILES: "NCCO"})
	require.NoError(t, err)
	assert.Len(t, after.Records, 6)
}

func TestService_FragmentErrors(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	tests := []struct {
		name string
		req  *fragment.FragmentRequest
		code errors.ErrorCode
	}{
		{"nil request", nil, errors.ErrCodeValidation},
		{"empty smiles", &fragment.FragmentRequest{SMILES: ""}, errors.ErrCodeValidation},
		{"unparsable smiles", &fragment.FragmentRequest{SMILES: "[C?]"}, errors.ErrCodeMoleculeInvalidSMILES},
		{"unknown pattern", &fragment.FragmentRequest{SMILES: "CC", BondPattern: "rings"}, errors.ErrCodeBondPatternUnsupported},
		{"bond out of range", &fragment.FragmentRequest{SMILES: "CCO", Bonds: []int{9}}, errors.ErrCodeFragmentationFailed},
		{"ring bond", &fragment.FragmentRequest{SMILES: "C1CC1", Bonds: []int{0}}, errors.ErrCodeFragmentationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Fragment(ctx, tt.req)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tt.code), "got %v", err)
		})
	}
}

func TestService_FragmentLargestComponent(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	resp, err := svc.Fragment(ctx, &fragment.FragmentRequest{SMILES: "NCCO.[Na+]"})
	require.NoError(t, err)
	assert.Equal(t, 4, resp.HeavyAtoms)
	assert.Len(t, resp.Records, 9)

	whole, err := svc.Fragment(ctx, &fragment.FragmentRequest{SMILES: "NCCO.[Na+]", KeepAllComponents: true})
	require.NoError(t, err)
	assert.Equal(t, 5, whole.HeavyAtoms)
}

func TestService_StrippedSaltKeepsInputNumbering(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	// Atoms 0-2 are the ethanol, bonds 0-1 join them; bond 5 is C6-C7.
	const smiles = "OCC.NCCCCCl"

	resp, err := svc.Fragment(ctx, &fragment.FragmentRequest{SMILES: smiles, Bonds: []int{5}})
	require.NoError(t, err)
	assert.Equal(t, 6, resp.HeavyAtoms)
	require.Len(t, resp.Records, 1)
	rec := resp.Records[0]
	assert.Equal(t, "[1*]CCl", rec.Key)
	assert.Equal(t, "[1*]CCCN", rec.Value)
	require.Len(t, rec.Bonds, 1)
	assert.Equal(t, 5, rec.Bonds[0].Index)
	assert.ElementsMatch(t, []int{6, 7}, []int{rec.Bonds[0].Start, rec.Bonds[0].End})

	_, err = svc.Fragment(ctx, &fragment.FragmentRequest{SMILES: smiles, Bonds: []int{1}})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeFragmentationFailed), "got %v", err)

	all, err := svc.Fragment(ctx, &fragment.FragmentRequest{SMILES: smiles, MaxCuts: 1})
	require.NoError(t, err)
	require.NotEmpty(t, all.Records)
	for _, r := range all.Records {
		for _, b := range r.Bonds {
			assert.GreaterOrEqual(t, b.Index, 2)
			assert.GreaterOrEqual(t, b.Start, 3)
			assert.GreaterOrEqual(t, b.End, 3)
		}
	}

	combos, err := svc.EnumerateCombinations(ctx, &fragment.CombinationsRequest{SMILES: smiles, MaxCuts: 1})
	require.NoError(t, err)
	assert.ElementsMatch(t, [][]int{{2}, {3}, {4}, {5}, {6}}, combos.Combinations)
}

func TestService_FragmentFilterOverrides(t *testing.T) {
	svc := newTestService()
	limit := 1

	resp, err := svc.Fragment(context.Background(), &fragment.FragmentRequest{
		SMILES:             "NCCO",
		MaxCuts:            1,
		MaxValueHeavyAtoms: &limit,
	})
	require.NoError(t, err)
	for _, r := range resp.Records {
		assert.LessOrEqual(t, r.ValueHeavyAtoms, 1)
	}
	assert.Positive(t, resp.Stats.FilteredOut)
}

func TestService_FragmentCancelledIsNotCached(t *testing.T) {
	cache, mr := newMiniredisCache(t)
	svc := newTestService(WithCache(cache, time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := svc.Fragment(ctx, &fragment.FragmentRequest{SMILES: "CC(C)(C)CCC"})
	require.NoError(t, err)
	assert.True(t, resp.Cancelled)
	assert.Empty(t, resp.Records)
	assert.Empty(t, mr.Keys())
}

func TestService_FragmentUsesResultCache(t *testing.T) {
	cache, mr := newMiniredisCache(t)
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "test", Subsystem: "unit"}, logging.NewNopLogger())
	require.NoError(t, err)
	svc := newTestService(WithCache(cache, time.Minute), WithMetrics(prometheus.NewAppMetrics(collector)))
	ctx := context.Background()

	first, err := svc.Fragment(ctx, &fragment.FragmentRequest{SMILES: "NCCO"})
	require.NoError(t, err)
	assert.False(t, first.Cached)
	require.Len(t, mr.Keys(), 1)
	assert.Contains(t, mr.Keys()[0], "test:frag:")

	second, err := svc.Fragment(ctx, &fragment.FragmentRequest{SMILES: "NCCO"})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, recordPairs(first), recordPairs(second))

	other, err := svc.Fragment(ctx, &fragment.FragmentRequest{SMILES: "NCCO", MaxCuts: 1})
	require.NoError(t, err)
	assert.False(t, other.Cached)
	assert.Len(t, other.Records, 6)

	body := scrape(t, collector)
	assert.Contains(t, body, `test_unit_cache_hits_total{cache="result"} 1`)
	assert.Contains(t, body, `test_unit_cache_misses_total{cache="result"} 2`)
	assert.Contains(t, body, `test_unit_fragmentation_requests_total{operation="fragment",status="success"} 3`)
	assert.Contains(t, body, `test_unit_active_factories 0`)
}

func TestService_CacheKey(t *testing.T) {
	s := NewService(testConfig(), nil).(*serviceImpl)
	base := &fragment.FragmentRequest{SMILES: "NCCO"}

	k1 := s.cacheKey(base, 1, 3)
	assert.Equal(t, k1, s.cacheKey(&fragment.FragmentRequest{SMILES: " NCCO ", BondPattern: "acyclic-single"}, 1, 3))
	assert.NotEqual(t, k1, s.cacheKey(base, 1, 2))
	assert.NotEqual(t, k1, s.cacheKey(&fragment.FragmentRequest{SMILES: "OCCN"}, 1, 3))
	assert.NotEqual(t, k1, s.cacheKey(&fragment.FragmentRequest{SMILES: "NCCO", Bonds: []int{0}}, 1, 3))
	assert.NotEqual(t, k1, s.cacheKey(&fragment.FragmentRequest{SMILES: "NCCO", BondInsertion: true}, 1, 3))
	assert.Regexp(t, `^frag:[0-9a-f]+$`, k1)
}

func TestService_MaximumCuts(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	resp, err := svc.MaximumCuts(ctx, &fragment.MaxCutsRequest{SMILES: "C1CCCCC1C", BondPattern: "all-single"})
	require.NoError(t, err)
	assert.Equal(t, 7, resp.MatchingBonds)
	assert.Equal(t, 1, resp.MaxCuts)

	allow := true
	resp, err = svc.MaximumCuts(ctx, &fragment.MaxCutsRequest{SMILES: "C1CCCCC1C", BondPattern: "all-single", AllowDoubleCutOfSingleBond: &allow})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.MaxCuts)

	resp, err = svc.MaximumCuts(ctx, &fragment.MaxCutsRequest{SMILES: "C"})
	require.NoError(t, err)
	assert.Zero(t, resp.MatchingBonds)
	assert.Zero(t, resp.MaxCuts)

	_, err = svc.MaximumCuts(ctx, &fragment.MaxCutsRequest{SMILES: "C(("})
	assert.True(t, errors.IsCode(err, errors.ErrCodeMoleculeInvalidSMILES))
}

func TestService_EnumerateCombinations(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	resp, err := svc.EnumerateCombinations(ctx, &fragment.CombinationsRequest{SMILES: "CC(C)(C)C", MinCuts: 2, MaxCuts: 4})
	require.NoError(t, err)
	assert.Equal(t, 6+4+1, resp.Count)
	assert.Len(t, resp.Combinations, resp.Count)

	withSingles, err := svc.EnumerateCombinations(ctx, &fragment.CombinationsRequest{SMILES: "CC(C)(C)C"})
	require.NoError(t, err)
	// Defaults: 1..3 cuts.
	assert.Equal(t, 4+6+4, withSingles.Count)
	for _, c := range withSingles.Combinations[:4] {
		assert.Len(t, c, 1)
	}

	none, err := svc.EnumerateCombinations(ctx, &fragment.CombinationsRequest{SMILES: "C1CCCCC1"})
	require.NoError(t, err)
	assert.Zero(t, none.Count)
	assert.NotNil(t, none.Combinations)
}

func TestService_FragmentBatch(t *testing.T) {
	logger := testutil.NewMockLogger()
	svc := NewService(testConfig(), logger)

	resp, err := svc.FragmentBatch(context.Background(), &fragment.BatchRequest{Requests: []fragment.FragmentRequest{
		{SMILES: "NCCO"},
		{SMILES: "[C?]"},
		{SMILES: "CCO", MaxCuts: 1},
	}})
	require.NoError(t, err)
	require.Len(t, resp.Items, 3)
	assert.Equal(t, 2, resp.Succeeded)
	assert.Equal(t, 1, resp.Failed)

	for i, it := range resp.Items {
		assert.Equal(t, i, it.Index)
	}
	require.NotNil(t, resp.Items[0].Result)
	assert.Len(t, resp.Items[0].Result.Records, 9)
	require.NotNil(t, resp.Items[1].Error)
	assert.Equal(t, "MOL_001", resp.Items[1].Error.Code)
	assert.Nil(t, resp.Items[1].Result)
	require.NotNil(t, resp.Items[2].Result)
	assert.Equal(t, "CCO", resp.Items[2].Result.SMILES)

	assert.True(t, logger.HasMessage("info", "batch fragmented"))
}

func TestService_FragmentBatchRejectsEmpty(t *testing.T) {
	svc := newTestService()

	_, err := svc.FragmentBatch(context.Background(), &fragment.BatchRequest{})
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestService_FragmentBatchCancelled(t *testing.T) {
	svc := newTestService()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := svc.FragmentBatch(ctx, &fragment.BatchRequest{Requests: []fragment.FragmentRequest{{SMILES: "CC"}, {SMILES: "CCC"}}})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Failed)
	for _, it := range resp.Items {
		require.NotNil(t, it.Error)
		assert.Equal(t, "COMMON_017", it.Error.Code)
	}
}

func scrape(t *testing.T, c prometheus.MetricsCollector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

//Personal.AI order the ending
