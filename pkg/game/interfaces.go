package game

import "github.com/gonewx/laststand/pkg/types"

// EnemyRegistry 敌人注册表契约
//
// 注册表是外部协作者：它持有敌人种群，负责生成、伤害结算与回收。
// 引擎的所有系统都只通过该接口访问敌人——接口为强制契约，
// 不做运行时方法探测（没有"可选方法+降级"的鸭子类型）
type EnemyRegistry interface {
	// SpawnEnemyAt 在指定位置生成一个指定原型的敌人
	// 生成失败（达到数量上限、原型未知等）返回 nil
	SpawnEnemyAt(x, y float64, archetype types.EnemyArchetype) *Enemy

	// Enemies 返回当前所有敌人（包含非活跃实例）
	Enemies() []*Enemy

	// QueryEnemies 返回以 (x,y) 为圆心、radius 为半径范围内的敌人
	QueryEnemies(x, y, radius float64) []*Enemy

	// TakeDamage 对敌人结算伤害
	// 击杀判定、掉落与死亡通知由注册表负责
	TakeDamage(e *Enemy, amount float64, isCrit, isAoe bool, weaponID string, sourceX, sourceY float64, level int, sourceTag string)

	// IsVisibleInLastStand 判断位置是否在战争迷雾可见范围内
	// （基准点圆形范围 + 走廊矩形）
	IsVisibleInLastStand(x, y float64) bool

	// ClampToTypeCaps 将速度钳制到该原型允许的范围内
	ClampToTypeCaps(speed float64, archetype types.EnemyArchetype) float64

	// SetSpawnFreezeUntil 冻结生成直到指定的模拟时刻（毫秒）
	// 传 0 表示解除冻结
	SetSpawnFreezeUntil(simTimeMs float64)

	// FrozenUntil 返回当前的冻结截止时刻（毫秒），0 表示未冻结
	FrozenUntil() float64
}

// Projectile 弹道协作者生成的投射物
//
// 生成后 LifeMs 与 MaxDistanceSq 可被修改，
// 用于把投射物射程重映射到炮塔自身的规格射程
type Projectile struct {
	X, Y          float64 // 当前位置
	VX, VY        float64 // 速度（像素/秒）
	Damage        float64 // 命中伤害
	LifeMs        float64 // 剩余寿命（毫秒）
	MaxDistanceSq float64 // 最大飞行距离平方
	WeaponID      string  // 来源武器
	SourceTag     string  // 来源标记（如 "turret"）
}

// Ballistics 弹道协作者契约（可选协作者）
//
// 炮塔开火时优先通过弹道协作者生成投射物；
// 协作者缺席（nil）时退化为直接结算伤害
type Ballistics interface {
	// SpawnBullet 从 (x0,y0) 朝 (x1,y1) 生成一发投射物
	// 生成失败返回 nil
	SpawnBullet(x0, y0, x1, y1 float64, weaponID string, damage float64, level int, sourceTag string) *Projectile
}
