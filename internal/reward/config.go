package reward

// WeightedPoint 基础点数抽取表的一项（点数, 权重）
type WeightedPoint struct {
	Value  int
	Weight int
}

// EventPool 随机事件池：一组文案共享同一个点数增量
type EventPool struct {
	Texts  []string
	Points int
}

// Config 奖励引擎配置
// 全部显式传入，引擎不读任何全局状态，保证测试可以确定性复现
type Config struct {
	PointItems []WeightedPoint // 基础点数权重表

	EventProb      float64   // 随机事件总触发概率
	PositiveEvents EventPool // 正向事件池
	NegativeEvents EventPool // 负向事件池

	StreakCycle    int // 连续签到周期（天）
	StreakStageCap int // 固定周期次数（爬坡阶段上限）
	StreakFixedMax int // 固定周期奖励上限

	SteadyIntervalMin int // 稳定阶段随机周期下限（天）
	SteadyIntervalMax int // 稳定阶段随机周期上限（天）
	SteadyPointsMin   int // 稳定阶段随机奖励下限
	SteadyPointsMax   int // 稳定阶段随机奖励上限
}

// DefaultConfig 返回默认奖励配置
func DefaultConfig() Config {
	return Config{
		PointItems: []WeightedPoint{
			{1, 18}, {2, 28}, {3, 35}, {4, 12}, {5, 5}, {6, 2}, {10, 1},
		},
		EventProb: 0.05,
		PositiveEvents: EventPool{
			Texts: []string{
				"发现能量晶簇！",
				"量子泡沫共振效应！",
				"捕获游离光子！",
				"时空折叠增益！",
				"检测到宇宙微波背景辐射异常！",
			},
			Points: 1,
		},
		NegativeEvents: EventPool{
			Texts: []string{
				"遭遇时空湍流！",
				"反物质侵蚀！",
				"维度塌缩损耗！",
				"观测者效应干扰！",
				"遭遇熵增不可逆过程！",
			},
			Points: -1,
		},
		StreakCycle:       7,
		StreakStageCap:    6,
		StreakFixedMax:    3,
		SteadyIntervalMin: 5,
		SteadyIntervalMax: 10,
		SteadyPointsMin:   1,
		SteadyPointsMax:   15,
	}
}
