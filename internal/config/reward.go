package config

import (
	"pointsystem/internal/reward"
)

// EngineConfig 把配置文件中的奖励段落合并到引擎默认值上
// 配置文件省略的字段保持默认，权重表整体覆盖
func (c RewardConfig) EngineConfig() reward.Config {
	cfg := reward.DefaultConfig()

	if c.EventProb > 0 {
		cfg.EventProb = c.EventProb
	}
	if c.StreakCycle > 0 {
		cfg.StreakCycle = c.StreakCycle
	}
	if c.StreakStages > 0 {
		cfg.StreakStageCap = c.StreakStages
	}
	if c.StreakFixedMax > 0 {
		cfg.StreakFixedMax = c.StreakFixedMax
	}
	if c.SteadyIntervalMin > 0 {
		cfg.SteadyIntervalMin = c.SteadyIntervalMin
	}
	if c.SteadyIntervalMax > 0 {
		cfg.SteadyIntervalMax = c.SteadyIntervalMax
	}
	if c.SteadyPointsMin > 0 {
		cfg.SteadyPointsMin = c.SteadyPointsMin
	}
	if c.SteadyPointsMax > 0 {
		cfg.SteadyPointsMax = c.SteadyPointsMax
	}
	if len(c.PointItems) > 0 {
		items := make([]reward.WeightedPoint, 0, len(c.PointItems))
		for _, it := range c.PointItems {
			items = append(items, reward.WeightedPoint{Value: it.Value, Weight: it.Weight})
		}
		cfg.PointItems = items
	}
	return cfg
}
