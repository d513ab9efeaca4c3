package reward

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(seed int64, mutate func(*Config)) *Engine {
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	return NewEngine(cfg, rand.New(rand.NewSource(seed)))
}

func ts(t time.Time) *time.Time {
	return &t
}

var baseDay = time.Date(2025, 6, 15, 9, 30, 0, 0, time.Local)

func TestWeightedChoiceDistribution(t *testing.T) {
	cfg := DefaultConfig()
	rng := rand.New(rand.NewSource(42))

	const trials = 200000
	counts := make(map[int]int)
	for i := 0; i < trials; i++ {
		counts[weightedChoice(rng, cfg.PointItems)]++
	}

	totalWeight := 0
	for _, it := range cfg.PointItems {
		totalWeight += it.Weight
	}

	for _, it := range cfg.PointItems {
		expected := float64(it.Weight) / float64(totalWeight)
		observed := float64(counts[it.Value]) / float64(trials)
		assert.InDeltaf(t, expected, observed, 0.005,
			"value %d: expected %.4f observed %.4f", it.Value, expected, observed)
	}
	// 全部结果都来自权重表
	require.Len(t, counts, len(cfg.PointItems))
}

func TestComputeFirstSign(t *testing.T) {
	e := newTestEngine(1, func(c *Config) { c.EventProb = 0 })

	out := e.Compute(StreakState{}, baseDay)

	assert.Equal(t, 1, out.State.ContinuousDays)
	assert.Equal(t, 0, out.State.StreakStage)
	assert.Equal(t, BonusNone, out.BonusType)
	assert.Zero(t, out.Bonus)
	assert.Zero(t, out.EventPoints)
	assert.Empty(t, out.EventText)
	assert.Equal(t, out.Base, out.Total())
	require.NotNil(t, out.State.LastSignAt)
	assert.True(t, out.State.LastSignAt.Equal(baseDay))

	values := map[int]bool{}
	for _, it := range e.Config().PointItems {
		values[it.Value] = true
	}
	assert.Truef(t, values[out.Base], "基础点数 %d 不在权重表内", out.Base)
}

func TestContinuousDaysIncrement(t *testing.T) {
	e := newTestEngine(1, func(c *Config) { c.EventProb = 0 })

	out := e.Compute(StreakState{
		LastSignAt:     ts(baseDay.AddDate(0, 0, -1)),
		ContinuousDays: 3,
	}, baseDay)

	assert.Equal(t, 4, out.State.ContinuousDays)
}

func TestContinuousDaysResetAfterGap(t *testing.T) {
	e := newTestEngine(1, func(c *Config) { c.EventProb = 0 })

	for _, gap := range []int{2, 3, 30} {
		out := e.Compute(StreakState{
			LastSignAt:     ts(baseDay.AddDate(0, 0, -gap)),
			ContinuousDays: 10,
		}, baseDay)
		assert.Equalf(t, 1, out.State.ContinuousDays, "间隔 %d 天应重置", gap)
	}
}

// 昨天深夜签到、今天一早签到也算连续（按自然日，不按 24 小时）
func TestContinuousDaysCalendarBoundary(t *testing.T) {
	e := newTestEngine(1, func(c *Config) { c.EventProb = 0 })

	lateYesterday := time.Date(2025, 6, 14, 23, 50, 0, 0, time.Local)
	earlyToday := time.Date(2025, 6, 15, 0, 10, 0, 0, time.Local)

	out := e.Compute(StreakState{
		LastSignAt:     ts(lateYesterday),
		ContinuousDays: 1,
	}, earlyToday)

	assert.Equal(t, 2, out.State.ContinuousDays)
}

func TestFixedBonusTrigger(t *testing.T) {
	e := newTestEngine(1, func(c *Config) { c.EventProb = 0 })

	// 连续第 7 天，阶段 0 -> 1，固定奖励 min(3, 1) = 1
	out := e.Compute(StreakState{
		LastSignAt:     ts(baseDay.AddDate(0, 0, -1)),
		ContinuousDays: 6,
		StreakStage:    0,
	}, baseDay)

	assert.Equal(t, 7, out.State.ContinuousDays)
	assert.Equal(t, 1, out.State.StreakStage)
	assert.Equal(t, BonusFixed, out.BonusType)
	assert.Equal(t, 1, out.Bonus)
	require.NotNil(t, out.State.LastBonusAt)
	assert.True(t, out.State.LastBonusAt.Equal(baseDay))
}

func TestFixedBonusCapped(t *testing.T) {
	e := newTestEngine(1, func(c *Config) { c.EventProb = 0 })

	// 第 5 阶段的固定奖励被上限压到 3
	out := e.Compute(StreakState{
		LastSignAt:     ts(baseDay.AddDate(0, 0, -1)),
		ContinuousDays: 34, // >= 7*5
		StreakStage:    4,
	}, baseDay)

	assert.Equal(t, 5, out.State.StreakStage)
	assert.Equal(t, BonusFixed, out.BonusType)
	assert.Equal(t, 3, out.Bonus)
}

func TestStreakStageMonotonic(t *testing.T) {
	e := newTestEngine(7, nil)

	state := StreakState{}
	now := baseDay
	prevStage := 0
	for day := 0; day < 120; day++ {
		out := e.Compute(state, now)
		assert.GreaterOrEqual(t, out.State.StreakStage, prevStage, "阶段不得回退")
		assert.LessOrEqual(t, out.State.StreakStage, e.Config().StreakStageCap)
		if prevStage == e.Config().StreakStageCap {
			assert.NotEqual(t, BonusFixed, out.BonusType, "稳定阶段不再发固定奖励")
		}
		prevStage = out.State.StreakStage
		state = out.State
		now = now.AddDate(0, 0, 1)
	}
	// 不中断的连签在第 42 天爬满全部 6 个阶段
	assert.Equal(t, e.Config().StreakStageCap, state.StreakStage)
}

// 连签中断后阶段保持不变，稳定阶段是永久状态
func TestStagePersistsAcrossBreak(t *testing.T) {
	e := newTestEngine(3, func(c *Config) { c.EventProb = 0 })

	out := e.Compute(StreakState{
		LastSignAt:     ts(baseDay.AddDate(0, 0, -10)),
		LastBonusAt:    ts(baseDay.AddDate(0, 0, -10)),
		ContinuousDays: 42,
		StreakStage:    6,
	}, baseDay)

	assert.Equal(t, 1, out.State.ContinuousDays)
	assert.Equal(t, 6, out.State.StreakStage)
	assert.Equal(t, PhaseSteady, out.State.Phase(e.Config().StreakStageCap))
}

func TestSteadyPhaseBonus(t *testing.T) {
	e := newTestEngine(5, func(c *Config) { c.EventProb = 0 })

	// 距上次奖励 20 天，必然超过随机间隔上限 10
	out := e.Compute(StreakState{
		LastSignAt:     ts(baseDay.AddDate(0, 0, -1)),
		LastBonusAt:    ts(baseDay.AddDate(0, 0, -20)),
		ContinuousDays: 42,
		StreakStage:    6,
	}, baseDay)

	assert.Equal(t, BonusRandom, out.BonusType)
	assert.GreaterOrEqual(t, out.Bonus, e.Config().SteadyPointsMin)
	assert.LessOrEqual(t, out.Bonus, e.Config().SteadyPointsMax)
	require.NotNil(t, out.State.LastBonusAt)
	assert.True(t, out.State.LastBonusAt.Equal(baseDay))
}

func TestSteadyPhaseTooSoon(t *testing.T) {
	e := newTestEngine(5, func(c *Config) { c.EventProb = 0 })

	// 距上次奖励不足随机间隔下限 5 天，必然不发
	out := e.Compute(StreakState{
		LastSignAt:     ts(baseDay.AddDate(0, 0, -1)),
		LastBonusAt:    ts(baseDay.AddDate(0, 0, -2)),
		ContinuousDays: 50,
		StreakStage:    6,
	}, baseDay)

	assert.Equal(t, BonusNone, out.BonusType)
	assert.Zero(t, out.Bonus)
}

func TestRandomEventAlways(t *testing.T) {
	e := newTestEngine(9, func(c *Config) { c.EventProb = 1 })

	positive := map[string]bool{}
	for _, s := range e.Config().PositiveEvents.Texts {
		positive[s] = true
	}
	negative := map[string]bool{}
	for _, s := range e.Config().NegativeEvents.Texts {
		negative[s] = true
	}

	sawPositive, sawNegative := false, false
	for i := 0; i < 200; i++ {
		out := e.Compute(StreakState{}, baseDay)
		require.NotEmpty(t, out.EventText)
		switch out.EventPoints {
		case 1:
			assert.True(t, positive[out.EventText])
			sawPositive = true
		case -1:
			assert.True(t, negative[out.EventText])
			sawNegative = true
		default:
			t.Fatalf("意外的事件点数: %d", out.EventPoints)
		}
		assert.Equal(t, out.Base+out.Bonus+out.EventPoints, out.Total())
	}
	assert.True(t, sawPositive)
	assert.True(t, sawNegative)
}

func TestRandomEventNever(t *testing.T) {
	e := newTestEngine(9, func(c *Config) { c.EventProb = 0 })

	for i := 0; i < 100; i++ {
		out := e.Compute(StreakState{}, baseDay)
		assert.Zero(t, out.EventPoints)
		assert.Empty(t, out.EventText)
	}
}

func TestRandomEventFrequency(t *testing.T) {
	e := newTestEngine(11, nil) // 默认 5%

	const trials = 50000
	hits := 0
	for i := 0; i < trials; i++ {
		out := e.Compute(StreakState{}, baseDay)
		if out.EventText != "" {
			hits++
		}
	}
	observed := float64(hits) / float64(trials)
	assert.Less(t, math.Abs(observed-0.05), 0.01)
}

func TestCalendarDayGap(t *testing.T) {
	cases := []struct {
		name     string
		earlier  time.Time
		later    time.Time
		expected int
	}{
		{"同一天", baseDay, baseDay.Add(3 * time.Hour), 0},
		{"跨零点不足24小时", time.Date(2025, 6, 14, 23, 0, 0, 0, time.Local), time.Date(2025, 6, 15, 1, 0, 0, 0, time.Local), 1},
		{"正好一天", baseDay.AddDate(0, 0, -1), baseDay, 1},
		{"两天", baseDay.AddDate(0, 0, -2), baseDay, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, calendarDayGap(tc.earlier, tc.later))
		})
	}
}

func TestBonusTypeString(t *testing.T) {
	assert.Equal(t, "NONE", BonusNone.String())
	assert.Equal(t, "FIXED", BonusFixed.String())
	assert.Equal(t, "RANDOM", BonusRandom.String())
}

// 同一种子、同一输入序列给出完全相同的结果
func TestDeterministicWithSeed(t *testing.T) {
	run := func() []Outcome {
		e := newTestEngine(1234, nil)
		state := StreakState{}
		now := baseDay
		var outs []Outcome
		for i := 0; i < 30; i++ {
			out := e.Compute(state, now)
			outs = append(outs, out)
			state = out.State
			now = now.AddDate(0, 0, 1)
		}
		return outs
	}

	a, b := run(), run()
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Base, b[i].Base)
		assert.Equal(t, a[i].Bonus, b[i].Bonus)
		assert.Equal(t, a[i].EventPoints, b[i].EventPoints)
		assert.Equal(t, a[i].EventText, b[i].EventText)
	}
}
