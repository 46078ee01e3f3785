package nutrition

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	mp "mealplanner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func completeProfile() mp.Profile {
	birth := time.Date(1990, 5, 14, 0, 0, 0, 0, time.UTC)
	return mp.Profile{
		WeightKg:      ptr(72.0),
		HeightCm:      ptr(178.0),
		BirthDate:     &birth,
		Sex:           ptr("male"),
		ActivityLevel: ptr("moderate"),
		Goal:          ptr("maintain"),
	}
}

func newCalculatorServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(dailyTargetPath, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		var p mp.Profile
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		if p.Goal == nil || *p.Goal != "maintain" {
			http.Error(w, "unsupported goal", http.StatusUnprocessableEntity)
			return
		}
		json.NewEncoder(w).Encode(mp.MacroTarget{Calories: 2500, Protein: 160, Carbs: 280, Fat: 80})
	})
	mux.HandleFunc(slotTargetsPath, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		var req slotTargetsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		out := slotTargetsResponse{}
		// answer in reverse to check the client restores request order
		for i := len(req.Slots) - 1; i >= 0; i-- {
			if req.Slots[i] == "brunch" {
				continue
			}
			out.Slots = append(out.Slots, mp.SlotTarget{
				Slot:     req.Slots[i],
				Calories: req.Daily.Calories / float64(len(req.Slots)),
			})
		}
		json.NewEncoder(w).Encode(out)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_DailyTarget(t *testing.T) {
	var hits atomic.Int32
	srv := newCalculatorServer(t, &hits)
	client := NewClient(srv.URL, 5*time.Second)

	got, err := client.DailyTarget(context.Background(), completeProfile())
	require.NoError(t, err)
	assert.Equal(t, mp.MacroTarget{Calories: 2500, Protein: 160, Carbs: 280, Fat: 80}, got)

	bulk := completeProfile()
	bulk.Goal = ptr("bulk")
	_, err = client.DailyTarget(context.Background(), bulk)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")

	partial := completeProfile()
	partial.Sex = nil
	_, err = client.DailyTarget(context.Background(), partial)
	assert.Error(t, err)
	assert.Equal(t, int32(2), hits.Load(), "incomplete profiles never reach the service")
}

func TestClient_SlotTargets(t *testing.T) {
	var hits atomic.Int32
	srv := newCalculatorServer(t, &hits)
	client := NewClient(srv.URL, 5*time.Second)
	daily := mp.MacroTarget{Calories: 2400}

	got, err := client.SlotTargets(context.Background(), daily, []mp.Slot{mp.SlotBreakfast, mp.SlotLunch, mp.SlotDinner})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, mp.SlotBreakfast, got[0].Slot)
	assert.Equal(t, mp.SlotDinner, got[2].Slot)
	assert.InDelta(t, 800, got[1].Calories, 1e-9)

	_, err = client.SlotTargets(context.Background(), daily, []mp.Slot{mp.SlotLunch, "brunch"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "brunch")
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := NewClient(srv.URL, time.Second).SlotTargets(context.Background(), mp.MacroTarget{Calories: 2000}, []mp.Slot{mp.SlotLunch})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send request to calculator")
}

type memoryCache struct {
	data    map[string][]byte
	getErr  error
	setErr  error
	lastTTL time.Duration
}

func newMemoryCache() *memoryCache { return &memoryCache{data: map[string][]byte{}} }

func (m *memoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.lastTTL = ttl
	m.data[key] = value
	return nil
}

func TestCachedCalculator(t *testing.T) {
	var hits atomic.Int32
	srv := newCalculatorServer(t, &hits)
	cache := newMemoryCache()
	calc := NewCachedCalculator(NewClient(srv.URL, 5*time.Second), cache, time.Hour)
	ctx := context.Background()
	slots := []mp.Slot{mp.SlotBreakfast, mp.SlotDinner}

	for i := 0; i < 3; i++ {
		daily, err := calc.DailyTarget(ctx, completeProfile())
		require.NoError(t, err)
		assert.InDelta(t, 2500, daily.Calories, 1e-9)

		split, err := calc.SlotTargets(ctx, daily, slots)
		require.NoError(t, err)
		require.Len(t, split, 2)
		assert.Equal(t, mp.SlotBreakfast, split[0].Slot)
	}

	assert.Equal(t, int32(2), hits.Load())
	assert.Len(t, cache.data, 2)
	assert.Equal(t, time.Hour, cache.lastTTL)

	_, err := calc.SlotTargets(ctx, mp.MacroTarget{Calories: 2500, Protein: 160, Carbs: 280, Fat: 80}, []mp.Slot{mp.SlotDinner, mp.SlotBreakfast})
	require.NoError(t, err)
	assert.Equal(t, int32(3), hits.Load(), "slot order is part of the key")
}

func TestCachedCalculator_CacheFailures(t *testing.T) {
	var hits atomic.Int32
	srv := newCalculatorServer(t, &hits)
	cache := &memoryCache{data: map[string][]byte{}, getErr: errors.New("connection refused"), setErr: errors.New("read only")}
	calc := NewCachedCalculator(NewClient(srv.URL, 5*time.Second), cache, time.Minute)

	got, err := calc.DailyTarget(context.Background(), completeProfile())
	require.NoError(t, err)
	assert.InDelta(t, 2500, got.Calories, 1e-9)
	assert.Equal(t, int32(1), hits.Load())
}

func TestCachedCalculator_CorruptEntry(t *testing.T) {
	var hits atomic.Int32
	srv := newCalculatorServer(t, &hits)
	cache := newMemoryCache()
	calc := NewCachedCalculator(NewClient(srv.URL, 5*time.Second), cache, time.Minute)

	key, err := cacheKey("daily", completeProfile())
	require.NoError(t, err)
	cache.data[key] = []byte("{not json")

	got, err := calc.DailyTarget(context.Background(), completeProfile())
	require.NoError(t, err)
	assert.InDelta(t, 2500, got.Calories, 1e-9)
	assert.Equal(t, int32(1), hits.Load())
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	cache, err := NewRedisCache(ctx, addr)
	require.NoError(t, err)
	defer cache.Close()

	key := keyPrefix + "test:" + time.Now().Format(time.RFC3339Nano)
	_, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, key, []byte(`{"calories":1}`), time.Minute))
	v, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"calories":1}`, string(v))
}
