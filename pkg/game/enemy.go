package game

import "github.com/gonewx/laststand/pkg/types"

// Enemy 敌人实例
//
// 实例由敌人注册表创建并持有；引擎系统只通过注册表接口
// 或返回的指针读写字段，不负责生命周期管理
type Enemy struct {
	ID        int                  // 注册表内唯一ID
	Archetype types.EnemyArchetype // 原型类别

	X, Y  float64 // 当前位置（世界坐标）
	Speed float64 // 当前移动速度（像素/秒）

	HP     float64 // 当前生命值
	MaxHP  float64 // 生命值上限
	Radius float64 // 碰撞半径

	Active bool // false 表示已死亡或已回收，不可作为目标
}

// DistanceSqTo 返回敌人到指定点的距离平方
func (e *Enemy) DistanceSqTo(x, y float64) float64 {
	dx := e.X - x
	dy := e.Y - y
	return dx*dx + dy*dy
}
