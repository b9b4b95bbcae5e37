// Package entities 提供引擎协作者的参考实现
//
// 注册表与弹道池在真实游戏里属于外部世界层；
// 这里的实现供运行外壳与测试使用，行为遵循协作者契约
package entities

import (
	"log"

	"github.com/gonewx/laststand/pkg/game"
	"github.com/gonewx/laststand/pkg/types"
)

// MaxActiveEnemies 同屏活跃敌人上限，达到后生成失败（返回 nil）
const MaxActiveEnemies = 200

// archetypeStats 各原型的基础数值
type archetypeStats struct {
	hp       float64
	speed    float64 // 基础移动速度（像素/秒）
	radius   float64
	maxSpeed float64 // 该原型的速度钳制上限
}

var statsByArchetype = map[types.EnemyArchetype]archetypeStats{
	types.ArchetypeSmall:  {hp: 20, speed: 90, radius: 12, maxSpeed: 140},
	types.ArchetypeMedium: {hp: 60, speed: 70, radius: 16, maxSpeed: 110},
	types.ArchetypeHeavy:  {hp: 160, speed: 40, radius: 22, maxSpeed: 70},
	types.ArchetypeRunner: {hp: 14, speed: 130, radius: 10, maxSpeed: 200},
	types.ArchetypeMinion: {hp: 10, speed: 100, radius: 9, maxSpeed: 150},
}

// Registry 内存敌人注册表
//
// 实现 game.EnemyRegistry 契约：
//   - 按原型数值表生成敌人，活跃数量达到上限时生成失败
//   - 伤害结算与击杀判定，击杀时同步通知已注册的回调
//   - 可见性判断委托给上下文的迷雾快照（未初始化时保守不可见）
//   - 冻结时间戳只做存取，判断由生成方负责
type Registry struct {
	ctx *game.SimulationContext

	enemies []*game.Enemy
	nextID  int

	frozenUntilMs float64

	defeatedCallbacks []func(e *game.Enemy)
}

// NewRegistry 创建注册表
func NewRegistry(ctx *game.SimulationContext) *Registry {
	return &Registry{ctx: ctx}
}

// OnEnemyDefeated 注册击杀通知回调
func (r *Registry) OnEnemyDefeated(fn func(e *game.Enemy)) {
	if fn == nil {
		return
	}
	r.defeatedCallbacks = append(r.defeatedCallbacks, fn)
}

// SpawnEnemyAt 在指定位置生成一个指定原型的敌人
//
// 未知原型或活跃数量达到上限时返回 nil
func (r *Registry) SpawnEnemyAt(x, y float64, archetype types.EnemyArchetype) *game.Enemy {
	stats, ok := statsByArchetype[archetype]
	if !ok {
		log.Printf("[Registry] Spawn rejected: unknown archetype %q", archetype)
		return nil
	}
	if r.ActiveCount() >= MaxActiveEnemies {
		return nil
	}

	r.nextID++
	e := &game.Enemy{
		ID:        r.nextID,
		Archetype: archetype,
		X:         x,
		Y:         y,
		Speed:     stats.speed,
		HP:        stats.hp,
		MaxHP:     stats.hp,
		Radius:    stats.radius,
		Active:    true,
	}
	r.enemies = append(r.enemies, e)
	return e
}

// Enemies 返回当前所有敌人（包含非活跃实例）
func (r *Registry) Enemies() []*game.Enemy {
	return r.enemies
}

// ActiveCount 返回活跃敌人数量
func (r *Registry) ActiveCount() int {
	n := 0
	for _, e := range r.enemies {
		if e.Active {
			n++
		}
	}
	return n
}

// QueryEnemies 返回以 (x,y) 为圆心、radius 范围内的活跃敌人
func (r *Registry) QueryEnemies(x, y, radius float64) []*game.Enemy {
	var out []*game.Enemy
	radiusSq := radius * radius
	for _, e := range r.enemies {
		if !e.Active {
			continue
		}
		if e.DistanceSqTo(x, y) <= radiusSq {
			out = append(out, e)
		}
	}
	return out
}

// TakeDamage 对敌人结算伤害
//
// 血量归零时敌人转为非活跃并同步通知击杀回调（恰好一次）
func (r *Registry) TakeDamage(e *game.Enemy, amount float64, isCrit, isAoe bool, weaponID string, sourceX, sourceY float64, level int, sourceTag string) {
	if e == nil || !e.Active || amount <= 0 {
		return
	}

	e.HP -= amount
	if e.HP > 0 {
		return
	}
	e.HP = 0
	e.Active = false

	for _, fn := range r.defeatedCallbacks {
		fn(e)
	}
}

// IsVisibleInLastStand 判断位置是否在迷雾可见范围内
// 快照未初始化时保守返回不可见
func (r *Registry) IsVisibleInLastStand(x, y float64) bool {
	if r.ctx == nil || r.ctx.Fog == nil {
		return false
	}
	return r.ctx.Fog.Visible(x, y)
}

// ClampToTypeCaps 将速度钳制到该原型允许的范围内
// 未知原型不做钳制
func (r *Registry) ClampToTypeCaps(speed float64, archetype types.EnemyArchetype) float64 {
	stats, ok := statsByArchetype[archetype]
	if !ok {
		return speed
	}
	if speed > stats.maxSpeed {
		return stats.maxSpeed
	}
	if speed < 0 {
		return 0
	}
	return speed
}

// SetSpawnFreezeUntil 冻结生成直到指定的模拟时刻（毫秒），0 解除
func (r *Registry) SetSpawnFreezeUntil(simTimeMs float64) {
	r.frozenUntilMs = simTimeMs
}

// FrozenUntil 返回当前的冻结截止时刻（毫秒）
func (r *Registry) FrozenUntil() float64 {
	return r.frozenUntilMs
}

// Prune 移除非活跃敌人（运行外壳定期调用，避免切片无限增长）
func (r *Registry) Prune() {
	kept := r.enemies[:0]
	for _, e := range r.enemies {
		if e.Active {
			kept = append(kept, e)
		}
	}
	r.enemies = kept
}
