package redis

// PoolStats 连接池统计信息（隐藏 go-redis 类型）
type PoolStats struct {
	Hits       uint32 // 连接池命中次数
	Misses     uint32 // 连接池未命中次数
	Timeouts   uint32 // 超时次数
	TotalConns uint32 // 总连接数
	IdleConns  uint32 // 空闲连接数
	StaleConns uint32 // 过期连接数
}
