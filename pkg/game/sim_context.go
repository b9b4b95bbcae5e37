package game

// GameMode 当前运行的游戏模式
type GameMode string

const (
	// ModeLastStand 生存防御模式
	ModeLastStand GameMode = "last_stand"

	// ModeDefense 防守目标变体（走廊偏置生成）
	ModeDefense GameMode = "defense"
)

// SimulationContext 模拟上下文
//
// 显式依赖注入：所有系统在构造时接收同一个上下文实例，
// 运行期不查询任何环境全局量。上下文中的快照字段
// （Fog）由模式控制器每帧刷新一次，系统按只读快照使用
type SimulationContext struct {
	Mode   GameMode     // 当前游戏模式
	Player *PlayerState // 玩家状态（引擎读位置、写伤害/击退）

	// Fog 当前帧的迷雾可见性快照；nil 表示尚未初始化，
	// 此时所有可见性判断必须保守返回不可见
	Fog *FogOfWar

	activeBoss *BossHandle // 当前 Boss 引用（至多一个）
}

// BossHandle Boss 的目标视图
//
// 炮塔系统需要把 Boss 当作优先目标，但不能依赖 Boss 引擎的内部状态，
// 因此上下文只暴露位置、半径与受击入口
type BossHandle struct {
	X, Y   float64
	Radius float64

	// ApplyDamage 对 Boss 结算伤害
	ApplyDamage func(amount float64)
}

// SetActiveBoss 设置当前 Boss 引用（nil 表示清除）
// 由 Boss 引擎在生成/死亡时调用；始终至多存在一个 Boss
func (c *SimulationContext) SetActiveBoss(h *BossHandle) {
	c.activeBoss = h
}

// ActiveBoss 返回当前 Boss 引用，没有则为 nil
func (c *SimulationContext) ActiveBoss() *BossHandle {
	return c.activeBoss
}

// FogReady 返回当前帧的迷雾快照是否已初始化
func (c *SimulationContext) FogReady() bool {
	return c.Fog != nil
}
