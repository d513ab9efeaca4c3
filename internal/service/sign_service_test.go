package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDayStart(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 30, 45, 123, time.Local)
	start := dayStart(now)

	assert.Equal(t, 2025, start.Year())
	assert.Equal(t, time.June, start.Month())
	assert.Equal(t, 15, start.Day())
	assert.Zero(t, start.Hour())
	assert.Zero(t, start.Minute())
	assert.Zero(t, start.Second())
}

func TestUntilNextMidnight(t *testing.T) {
	cases := []struct {
		name     string
		now      time.Time
		expected time.Duration
	}{
		{"正午", time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local), 12 * time.Hour},
		{"临近零点", time.Date(2025, 6, 15, 23, 59, 0, 0, time.Local), time.Minute},
		{"刚过零点", time.Date(2025, 6, 15, 0, 0, 1, 0, time.Local), 24*time.Hour - time.Second},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			remaining := untilNextMidnight(tc.now)
			assert.Equal(t, tc.expected, remaining)
		})
	}
}

// 冷却剩余时间永远不超过 24 小时
func TestUntilNextMidnightBounded(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.Local)
	for i := 0; i < 48; i++ {
		remaining := untilNextMidnight(now)
		assert.Positive(t, remaining)
		assert.LessOrEqual(t, remaining, 24*time.Hour)
		now = now.Add(29 * time.Minute)
	}
}

// 当天零点及之后的签到记录都触发冷却，前一天的不触发
func TestCooldownBoundary(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.Local)
	start := dayStart(now)

	signedToday := start.Add(time.Minute)
	assert.False(t, signedToday.Before(start), "当天已签到应触发冷却")

	signedYesterday := start.Add(-time.Minute)
	assert.True(t, signedYesterday.Before(start), "昨天的签到不应触发冷却")
}

func TestAlreadySignedErrorMessage(t *testing.T) {
	err := &AlreadySignedError{Remaining: 2*time.Hour + 35*time.Minute}
	assert.Equal(t, "时空稳定协议生效中（剩余2小时35分钟）", err.Error())

	err = &AlreadySignedError{Remaining: 45 * time.Second}
	assert.Equal(t, "时空稳定协议生效中（剩余0小时0分钟）", err.Error())
}
