package model

// MaterialCost 一项材料消耗
type MaterialCost struct {
	Material string `mapstructure:"material" json:"material"`
	Quantity int64  `mapstructure:"quantity" json:"quantity"`
}

// MaterialBalance 玩家材料余额
// 对应表：player_material
type MaterialBalance struct {
	UserID   int64  `json:"user_id"`
	Material string `json:"material"`
	Quantity int64  `json:"quantity"`
}
