package systems

import (
	"fmt"
	"log"
	"math"

	"github.com/gonewx/laststand/pkg/config"
	"github.com/gonewx/laststand/pkg/game"
)

// 炮塔参数
const (
	// TurretDamagePerLevel 每级伤害提升比例
	TurretDamagePerLevel = 0.25

	// TurretCooldownFactorPerLevel 每级射击间隔倍率（相乘）
	TurretCooldownFactorPerLevel = 0.92

	// MaxTracers 同屏轨迹线上限
	MaxTracers = 64

	// TracerLifeMs 轨迹线存活时长（毫秒）
	TracerLifeMs = 200.0
)

// Turret 玩家放置的炮塔
type Turret struct {
	SpecID string  // 炮塔规格ID
	X, Y   float64 // 放置位置（世界坐标）
	Level  int     // 当前等级（1 起，上限由规格决定）
}

// turretEntry 炮塔与其开火累积器的复合条目
//
// 单一切片持有复合结构，炮塔与累积器不可能失配
//（不存在需要同步删除的平行数组）
type turretEntry struct {
	turret            *Turret
	fireAccumulatorMs float64
}

// Tracer 开火轨迹线（可选视觉对象）
// 无论本帧是否新增，已有轨迹线都会被老化并修剪
type Tracer struct {
	X0, Y0 float64
	X1, Y1 float64
	AgeMs  float64
}

// turretTarget 目标引用（敌人或 Boss 二选一）
type turretTarget struct {
	x, y  float64
	enemy *game.Enemy
	boss  *game.BossHandle
}

// TurretSystem 炮塔自主战斗系统
//
// 职责：
//   - 炮塔的放置 / 升级 / 移除
//   - 每帧按各自射击节奏自主索敌开火（支持帧卡顿后的补射）
//   - 目标选取：优先战斗中的 Boss，其次最近的活跃可见敌人
//   - 可见性门：迷雾快照未就绪时保守地视为无可见目标，
//     绝不朝可见范围之外（或穿过范围外）开火
//
// 架构说明：
//   - 规格到武器档案的映射在配置加载时已整体校验，
//     运行期解析失败视为编程错误
//   - 弹道协作者缺席时退化为对目标直接结算伤害
type TurretSystem struct {
	cfg *config.TurretConfig
	ctx *game.SimulationContext

	entries []turretEntry
	tracers []Tracer
}

// NewTurretSystem 创建炮塔系统
//
// 构造时复核规格到武器档案的映射；
// 未知的 weaponId 是构造期错误，不做运行期静默回退
func NewTurretSystem(cfg *config.TurretConfig, ctx *game.SimulationContext) (*TurretSystem, error) {
	if cfg == nil {
		return nil, fmt.Errorf("turret config is required")
	}
	for _, spec := range cfg.Specs {
		if cfg.Weapon(spec.WeaponID) == nil {
			return nil, fmt.Errorf("turret spec %s: unknown weapon profile %q", spec.ID, spec.WeaponID)
		}
	}
	return &TurretSystem{cfg: cfg, ctx: ctx}, nil
}

// Place 在指定位置放置一座 1 级炮塔
//
// 规格不存在时返回 false（静默失败，不生成）
func (s *TurretSystem) Place(specID string, x, y float64) bool {
	spec := s.cfg.Spec(specID)
	if spec == nil {
		log.Printf("[TurretSystem] Place rejected: unknown spec %q", specID)
		return false
	}

	s.entries = append(s.entries, turretEntry{
		turret: &Turret{SpecID: specID, X: x, Y: y, Level: 1},
	})
	log.Printf("[TurretSystem] Turret placed: spec=%s at (%.0f, %.0f)", specID, x, y)
	return true
}

// Upgrade 升级炮塔
//
// 已达规格等级上限时返回 false
func (s *TurretSystem) Upgrade(t *Turret) bool {
	if t == nil {
		return false
	}
	spec := s.cfg.Spec(t.SpecID)
	if spec == nil || t.Level >= spec.MaxLevel {
		return false
	}
	t.Level++
	log.Printf("[TurretSystem] Turret upgraded: spec=%s level=%d", t.SpecID, t.Level)
	return true
}

// Remove 移除炮塔
//
// 复合条目整体删除，炮塔与开火累积器同时消失
func (s *TurretSystem) Remove(t *Turret) bool {
	for i := range s.entries {
		if s.entries[i].turret == t {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			log.Printf("[TurretSystem] Turret removed: spec=%s", t.SpecID)
			return true
		}
	}
	return false
}

// Turrets 返回当前所有炮塔（插入顺序）
func (s *TurretSystem) Turrets() []*Turret {
	out := make([]*Turret, len(s.entries))
	for i := range s.entries {
		out[i] = s.entries[i].turret
	}
	return out
}

// Count 返回炮塔数量
func (s *TurretSystem) Count() int {
	return len(s.entries)
}

// Tracers 返回当前存活的轨迹线（渲染用）
func (s *TurretSystem) Tracers() []Tracer {
	return s.tracers
}

// NextCost 返回再放置一座指定规格炮塔的动态价格
// 价格 = 基础价格 × 增长倍率^(已放置数)
func (s *TurretSystem) NextCost(specID string) (int, bool) {
	spec := s.cfg.Spec(specID)
	if spec == nil {
		return 0, false
	}
	return int(math.Round(float64(spec.BaseCost) * math.Pow(spec.CostGrowth, float64(len(s.entries))))), true
}

// Update 更新炮塔系统
//
// 执行流程：
//  1. 老化并修剪轨迹线（与是否新增无关）
//  2. 按插入顺序逐座炮塔：推进开火累积器，
//     累积超过射击周期时反复开火（帧卡顿后的补射）；
//     无目标时累积器钳制为一个周期，目标出现后立即可射
//
// 参数：
//
//	deltaMs - 距上一帧经过的时间（毫秒）
//	reg - 敌人注册表
//	ballistics - 弹道协作者，可为 nil（退化为直接伤害）
func (s *TurretSystem) Update(deltaMs float64, reg game.EnemyRegistry, ballistics game.Ballistics) {
	s.pruneTracers(deltaMs)

	for i := range s.entries {
		entry := &s.entries[i]
		t := entry.turret

		spec := s.cfg.Spec(t.SpecID)
		profile := s.cfg.Weapon(spec.WeaponID)

		periodMs := profile.CooldownS * 1000 * math.Pow(TurretCooldownFactorPerLevel, float64(t.Level-1))
		damage := profile.Damage * (1 + TurretDamagePerLevel*float64(t.Level-1))

		entry.fireAccumulatorMs += deltaMs

		for entry.fireAccumulatorMs >= periodMs {
			target, ok := s.acquireTarget(t, spec, reg)
			if !ok {
				// 无目标：保留一个周期的积蓄，目标出现后立即开火
				if entry.fireAccumulatorMs > periodMs {
					entry.fireAccumulatorMs = periodMs
				}
				break
			}

			s.fireSalvo(t, spec, profile, damage, target, reg, ballistics)
			entry.fireAccumulatorMs -= periodMs
		}
	}
}

// acquireTarget 目标选取
//
// 迷雾快照未就绪时保守返回无目标。
// 优先选取射程内且可见的战斗中 Boss；
// 否则从范围查询结果中选取最近的活跃可见敌人
func (s *TurretSystem) acquireTarget(t *Turret, spec *config.TurretSpec, reg game.EnemyRegistry) (turretTarget, bool) {
	if !s.ctx.FogReady() {
		return turretTarget{}, false
	}

	rangeSq := spec.Range * spec.Range

	if boss := s.ctx.ActiveBoss(); boss != nil {
		dx := boss.X - t.X
		dy := boss.Y - t.Y
		if dx*dx+dy*dy <= rangeSq && reg.IsVisibleInLastStand(boss.X, boss.Y) {
			return turretTarget{x: boss.X, y: boss.Y, boss: boss}, true
		}
	}

	var nearest *game.Enemy
	nearestSq := math.MaxFloat64
	for _, e := range reg.QueryEnemies(t.X, t.Y, spec.Range) {
		if !e.Active {
			continue
		}
		if !reg.IsVisibleInLastStand(e.X, e.Y) {
			continue
		}
		d := e.DistanceSqTo(t.X, t.Y)
		if d < nearestSq {
			nearest = e
			nearestSq = d
		}
	}
	if nearest == nil {
		return turretTarget{}, false
	}
	return turretTarget{x: nearest.X, y: nearest.Y, enemy: nearest}, true
}

// fireSalvo 朝目标方位发射整个齐射
//
// 齐射发数在目标方位角附近做角度散布；
// 每发优先经弹道协作者生成投射物（寿命/射程按炮塔规格重映射），
// 协作者缺席时对目标直接结算一次伤害
func (s *TurretSystem) fireSalvo(t *Turret, spec *config.TurretSpec, profile *config.WeaponProfile, damage float64, target turretTarget, reg game.EnemyRegistry, ballistics game.Ballistics) {
	bearing := math.Atan2(target.y-t.Y, target.x-t.X)
	dist := math.Hypot(target.x-t.X, target.y-t.Y)
	spreadRad := profile.SpreadDeg * math.Pi / 180

	salvo := profile.Salvo
	for i := 0; i < salvo; i++ {
		angle := bearing
		if salvo > 1 {
			angle += spreadRad * (float64(i)/float64(salvo-1) - 0.5)
		}
		aimX := t.X + math.Cos(angle)*dist
		aimY := t.Y + math.Sin(angle)*dist

		if ballistics != nil {
			p := ballistics.SpawnBullet(t.X, t.Y, aimX, aimY, profile.ID, damage, t.Level, "turret")
			if p != nil {
				// 投射物射程重映射到炮塔自身规格射程
				p.MaxDistanceSq = spec.Range * spec.Range
				p.LifeMs = spec.Range / profile.ProjectileSpeed * 1000
			}
		} else {
			// 无弹道协作者：对目标直接结算伤害
			if target.boss != nil {
				target.boss.ApplyDamage(damage)
			} else if target.enemy != nil {
				reg.TakeDamage(target.enemy, damage, false, false, profile.ID, t.X, t.Y, t.Level, "turret")
			}
		}

		s.addTracer(t.X, t.Y, aimX, aimY)
	}
}

// addTracer 新增一条轨迹线（达到上限时丢弃）
func (s *TurretSystem) addTracer(x0, y0, x1, y1 float64) {
	if len(s.tracers) >= MaxTracers {
		return
	}
	s.tracers = append(s.tracers, Tracer{X0: x0, Y0: y0, X1: x1, Y1: y1})
}

// pruneTracers 老化并修剪轨迹线
func (s *TurretSystem) pruneTracers(deltaMs float64) {
	kept := s.tracers[:0]
	for i := range s.tracers {
		s.tracers[i].AgeMs += deltaMs
		if s.tracers[i].AgeMs < TracerLifeMs {
			kept = append(kept, s.tracers[i])
		}
	}
	s.tracers = kept
}
