package game

// CorridorRect 走廊矩形（轴对齐）
type CorridorRect struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// Contains 判断点是否在矩形内（含边界）
func (r CorridorRect) Contains(x, y float64) bool {
	return x >= r.MinX && x <= r.MaxX && y >= r.MinY && y <= r.MaxY
}

// FogOfWar 战争迷雾可见性模型
//
// 可见范围 = 以基准点为圆心的圆形区域 + 若干走廊矩形。
// 模型每帧由外部快照一次并挂到 SimulationContext 上；
// 快照未就绪（nil）时各系统必须保守地视为"一切不可见"
type FogOfWar struct {
	CenterX, CenterY float64        // 基准点（通常为防守目标或玩家）
	Radius           float64        // 圆形可见半径
	Corridors        []CorridorRect // 走廊矩形列表
}

// Visible 判断位置是否可见
func (f *FogOfWar) Visible(x, y float64) bool {
	dx := x - f.CenterX
	dy := y - f.CenterY
	if dx*dx+dy*dy <= f.Radius*f.Radius {
		return true
	}
	for _, c := range f.Corridors {
		if c.Contains(x, y) {
			return true
		}
	}
	return false
}
