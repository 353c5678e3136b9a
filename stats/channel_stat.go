package stats

// ChannelStat 事件总线异步队列的状态
type ChannelStat struct {
	Name    string  `json:"name"`    // 队列名称
	Module  string  `json:"module"`  // 所属模块
	Len     int     `json:"len"`     // 当前长度
	Cap     int     `json:"cap"`     // 容量
	Usage   float64 `json:"usage"`   // 使用率 (len/cap)
	Dropped uint64  `json:"dropped"` // 队列满时丢弃的条数
}

// NewChannelStat 创建并计算使用率
func NewChannelStat(name, module string, length, capacity int) ChannelStat {
	usage := 0.0
	if capacity > 0 {
		usage = float64(length) / float64(capacity)
	}
	return ChannelStat{
		Name:   name,
		Module: module,
		Len:    length,
		Cap:    capacity,
		Usage:  usage,
	}
}
