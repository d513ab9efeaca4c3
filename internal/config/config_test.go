package config

import (
	"testing"

	"pointsystem/internal/reward"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransferConfigDefaults(t *testing.T) {
	var c TransferConfig

	assert.True(t, c.FeeRatioDecimal().Equal(decimal.RequireFromString("0.01")))
	// 最低手续费缺省时等于费率
	assert.True(t, c.MinFeeDecimal().Equal(decimal.RequireFromString("0.01")))
}

func TestTransferConfigExplicit(t *testing.T) {
	c := TransferConfig{FeeRatio: "0.02", MinFee: "0.5"}

	assert.True(t, c.FeeRatioDecimal().Equal(decimal.RequireFromString("0.02")))
	assert.True(t, c.MinFeeDecimal().Equal(decimal.RequireFromString("0.5")))
}

func TestRewardEngineConfigDefaults(t *testing.T) {
	var c RewardConfig
	cfg := c.EngineConfig()

	def := reward.DefaultConfig()
	assert.Equal(t, def.EventProb, cfg.EventProb)
	assert.Equal(t, def.StreakCycle, cfg.StreakCycle)
	assert.Equal(t, def.StreakStageCap, cfg.StreakStageCap)
	assert.Equal(t, def.PointItems, cfg.PointItems)
}

func TestRewardEngineConfigOverrides(t *testing.T) {
	c := RewardConfig{
		EventProb:    0.2,
		StreakCycle:  5,
		StreakStages: 3,
		PointItems: []PointItemConfig{
			{Value: 1, Weight: 1},
			{Value: 2, Weight: 3},
		},
	}
	cfg := c.EngineConfig()

	assert.Equal(t, 0.2, cfg.EventProb)
	assert.Equal(t, 5, cfg.StreakCycle)
	assert.Equal(t, 3, cfg.StreakStageCap)
	assert.Equal(t, []reward.WeightedPoint{{Value: 1, Weight: 1}, {Value: 2, Weight: 3}}, cfg.PointItems)
	// 未覆盖的字段保持默认
	assert.Equal(t, reward.DefaultConfig().SteadyPointsMax, cfg.SteadyPointsMax)
}
