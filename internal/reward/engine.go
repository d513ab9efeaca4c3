package reward

import (
	"math/rand"
	"sync"
	"time"
)

// ============================================================================
// 签到奖励引擎
// ============================================================================
//
// 纯计算模块：输入连签状态和当前时间，输出本次奖励明细和更新后的状态。
// 不做任何 I/O，随机源显式注入，便于确定性测试。
//
// 连签奖励是一个两阶段状态机：
//
//   爬坡阶段（streak_stage < 周期上限）
//     每连续签到满 cycle*(stage+1) 天跨越一个阶段，发放递增的固定奖励
//
//   稳定阶段（streak_stage == 周期上限）
//     阶段数到顶后永久进入，按随机间隔发放随机额度的奖励
//
// 【关键点】阶段转移不可逆：streak_stage 只增不减，即使连签中断也不回退
// ============================================================================

// BonusType 连签奖励类型
type BonusType int

const (
	BonusNone   BonusType = 0
	BonusFixed  BonusType = 1
	BonusRandom BonusType = 2
)

func (t BonusType) String() string {
	switch t {
	case BonusFixed:
		return "FIXED"
	case BonusRandom:
		return "RANDOM"
	default:
		return "NONE"
	}
}

// Phase 连签状态机所处阶段
type Phase int

const (
	PhaseRamp   Phase = iota // 爬坡阶段
	PhaseSteady              // 稳定阶段
)

// StreakState 连签状态快照，Compute 的输入输出
type StreakState struct {
	LastSignAt     *time.Time
	LastBonusAt    *time.Time
	ContinuousDays int
	StreakStage    int
}

// Phase 返回当前状态所处的阶段
func (s StreakState) Phase(stageCap int) Phase {
	if s.StreakStage < stageCap {
		return PhaseRamp
	}
	return PhaseSteady
}

// Outcome 单次签到的奖励明细
type Outcome struct {
	Base        int
	Bonus       int
	BonusType   BonusType
	EventPoints int
	EventText   string
	State       StreakState // 更新后的连签状态
}

// Total 本次签到总点数，随机事件可能为负，总量可能小于 Base
func (o Outcome) Total() int {
	return o.Base + o.Bonus + o.EventPoints
}

// Engine 奖励引擎
type Engine struct {
	cfg Config

	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngine 创建奖励引擎，rng 为 nil 时使用时间种子
func NewEngine(cfg Config, rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{cfg: cfg, rng: rng}
}

// Config 返回引擎配置
func (e *Engine) Config() Config {
	return e.cfg
}

// Compute 计算一次签到的奖励
// 调用方负责冷却检查，引擎假定本次签到是允许的
func (e *Engine) Compute(state StreakState, now time.Time) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := Outcome{
		Base:  weightedChoice(e.rng, e.cfg.PointItems),
		State: state,
	}

	// 连续天数：与上次签到正好隔一个自然日则递增，否则重置为 1
	if state.LastSignAt != nil && calendarDayGap(*state.LastSignAt, now) == 1 {
		out.State.ContinuousDays = state.ContinuousDays + 1
	} else {
		out.State.ContinuousDays = 1
	}

	out.Bonus, out.BonusType = e.streakBonus(&out.State, now)

	// 随机事件：独立伯努利试验，命中后在正/负池中二选一
	if e.rng.Float64() < e.cfg.EventProb {
		pool := e.cfg.PositiveEvents
		if e.rng.Intn(2) == 1 {
			pool = e.cfg.NegativeEvents
		}
		out.EventText = pool.Texts[e.rng.Intn(len(pool.Texts))]
		out.EventPoints = pool.Points
	}

	signAt := now
	out.State.LastSignAt = &signAt
	return out
}

// streakBonus 连签奖励状态机，可能推进 state 的阶段和 LastBonusAt
func (e *Engine) streakBonus(state *StreakState, now time.Time) (int, BonusType) {
	switch state.Phase(e.cfg.StreakStageCap) {
	case PhaseRamp:
		if state.ContinuousDays >= e.cfg.StreakCycle*(state.StreakStage+1) {
			state.StreakStage++
			bonusAt := now
			state.LastBonusAt = &bonusAt
			return min(e.cfg.StreakFixedMax, state.StreakStage), BonusFixed
		}
	case PhaseSteady:
		interval := e.intn(e.cfg.SteadyIntervalMin, e.cfg.SteadyIntervalMax)
		if state.LastBonusAt != nil && wholeDays(*state.LastBonusAt, now) >= interval {
			bonusAt := now
			state.LastBonusAt = &bonusAt
			return e.intn(e.cfg.SteadyPointsMin, e.cfg.SteadyPointsMax), BonusRandom
		}
	}
	return 0, BonusNone
}

// intn 在 [lo, hi] 闭区间内均匀取整数
func (e *Engine) intn(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + e.rng.Intn(hi-lo+1)
}

// weightedChoice 累积权重抽样
// 在 [0, 总权重) 上取均匀随机数，沿表累加权重，返回第一个累积值大于随机数的项；
// 末项兜底，覆盖浮点边界情况
func weightedChoice(rng *rand.Rand, items []WeightedPoint) int {
	total := 0
	for _, it := range items {
		total += it.Weight
	}
	r := rng.Float64() * float64(total)
	cumulative := 0
	for _, it := range items {
		cumulative += it.Weight
		if r < float64(cumulative) {
			return it.Value
		}
	}
	return items[len(items)-1].Value
}

// calendarDayGap 两个时间点之间相差的自然日数（按本地日期，不足一天按日期边界算）
func calendarDayGap(earlier, later time.Time) int {
	ed := time.Date(earlier.Year(), earlier.Month(), earlier.Day(), 0, 0, 0, 0, earlier.Location())
	ld := time.Date(later.Year(), later.Month(), later.Day(), 0, 0, 0, 0, later.Location())
	return int(ld.Sub(ed).Hours() / 24)
}

// wholeDays 两个时间点之间的完整天数（不足 24 小时不计）
func wholeDays(earlier, later time.Time) int {
	d := later.Sub(earlier)
	if d < 0 {
		return 0
	}
	return int(d.Hours() / 24)
}
