package service

import (
	"errors"
	"fmt"
	"time"
)

// 领域错误，全部以类型化结果返回给调用方，由 handler 映射成业务码
var (
	ErrInsufficientFunds = errors.New("能量不足以转出")
	ErrInvalidReceiver   = errors.New("目标用户不在本系统内")
	ErrNoRecord          = errors.New("暂无签到记录")
	ErrConflict          = errors.New("系统繁忙，请稍后重试") // 并发冲突重试耗尽
)

// AlreadySignedError 冷却期内重复签到，携带距下一个本地零点的剩余时间
type AlreadySignedError struct {
	Remaining time.Duration
}

func (e *AlreadySignedError) Error() string {
	hours := int(e.Remaining.Hours())
	minutes := int(e.Remaining.Minutes()) % 60
	return fmt.Sprintf("时空稳定协议生效中（剩余%d小时%d分钟）", hours, minutes)
}
