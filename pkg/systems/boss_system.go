package systems

import (
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/gonewx/laststand/pkg/config"
	"github.com/gonewx/laststand/pkg/game"
	"github.com/gonewx/laststand/pkg/types"
)

// BossState Boss 生命周期状态
type BossState int

const (
	// BossTelegraph 出场预警（固定倒计时，只做表现，不攻击）
	BossTelegraph BossState = iota

	// BossActive 战斗中（移动 + 主攻击循环 + 特殊攻击子循环 + 接触伤害）
	BossActive

	// BossDead 终态（死亡效果结算后实例被丢弃）
	BossDead
)

// Boss 单个 Boss 实例
//
// 同一时刻至多存在一个实例；死亡效果结算后实例被置为 nil。
// 所有计时器一律用倒计时（毫秒）表达，不使用绝对截止时刻，
// 因此整体暂停时无需做截止时刻平移
type Boss struct {
	X, Y   float64
	HP     float64
	MaxHP  float64
	Radius float64

	State BossState
	Phase int // 阶段 1..3，只升不降

	TelegraphMs   float64 // 出场预警剩余时长
	AttackTimerMs float64 // 主攻击倒计时

	// 特殊攻击子循环：蓄力 → 站定引导 → 引爆
	SpecialChargeMs    float64 // 已累积的蓄力时长
	SpecialReady       bool    // 蓄力完成，正在站定引导
	SpecialCountdownMs float64 // 引导剩余时长

	ContactCooldownMs float64 // 接触伤害滚动冷却剩余

	// 朝向（渲染用），追击时更新
	FacingX, FacingY float64

	// 击退速度，移动时消耗并衰减
	KnockbackVX, KnockbackVY float64

	// 已发放过 XP 奖励的 20% 血量里程碑数（0..4）
	xpMilestones int
}

// BossSystem Boss 遭遇战系统
//
// 职责：
//   - 管理 Boss 的多状态生命周期（预警 → 战斗 → 死亡）
//   - 按持久遭遇计数缩放血量、伤害与急速
//   - 主攻击循环、特殊攻击子循环、接触伤害与阶段门槛
//   - 死亡时恰好一次地发出奖励/清理信号
//
// 攻击计时器的重置来源有三个：阶段跨越、主攻击发射、特殊攻击完成。
// 约定为"最近一次触发生效"——每个来源直接覆盖写入，互不叠加
type BossSystem struct {
	tuning config.BossTuning
	ctx    *game.SimulationContext
	rng    *rand.Rand

	spawnCount int // 持久遭遇计数，每次生成递增
	boss       *Boss
	handle     *game.BossHandle

	// 回调（类型化信号，观察者的失败不会中断系统自身逻辑）
	onAttackWave    func(x, y float64, phase int)
	onXPReward      func(milestone int)
	onDefeated      func()
	onMinionSpawned func(e *game.Enemy)
}

// NewBossSystem 创建 Boss 遭遇战系统
//
// 参数：
//
//	tuning - Boss 数值配置
//	ctx - 模拟上下文（玩家引用、Boss 引用挂载点）
//	seed - 随机种子（0 表示使用当前时间）
func NewBossSystem(tuning config.BossTuning, ctx *game.SimulationContext, seed int64) *BossSystem {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &BossSystem{
		tuning: tuning,
		ctx:    ctx,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// OnAttackWave 注册主攻击波回调（远程攻击由外部武器层表现）
func (s *BossSystem) OnAttackWave(fn func(x, y float64, phase int)) { s.onAttackWave = fn }

// OnXPReward 注册 XP 奖励信号回调（20% 血量里程碑）
func (s *BossSystem) OnXPReward(fn func(milestone int)) { s.onXPReward = fn }

// OnDefeated 注册死亡回调（宝箱掉落等奖励副作用，恰好一次）
func (s *BossSystem) OnDefeated(fn func()) { s.onDefeated = fn }

// OnMinionSpawned 注册小怪召唤回调
// 控制器用它把召唤的小怪并入波次存活计数
func (s *BossSystem) OnMinionSpawned(fn func(e *game.Enemy)) { s.onMinionSpawned = fn }

// Boss 返回当前 Boss 实例，没有则为 nil
func (s *BossSystem) Boss() *Boss {
	return s.boss
}

// SpawnCount 返回持久遭遇计数
func (s *BossSystem) SpawnCount() int {
	return s.spawnCount
}

// ScaledMaxHP 计算第 n 次遭遇的血量上限
// 公式: round(HPBase × (1 + k×(n−1))^p)
func (s *BossSystem) ScaledMaxHP(n int) float64 {
	t := s.tuning
	return math.Round(t.HPBase * math.Pow(1+t.HPGrowthK*float64(n-1), t.HPGrowthP))
}

// ScaledContactDamage 计算第 n 次遭遇的接触伤害
func (s *BossSystem) ScaledContactDamage(n int) float64 {
	return s.tuning.ContactDamageBase * math.Pow(s.tuning.DamageGrowthR, float64(n-1))
}

// ScaledSpecialDamage 计算第 n 次遭遇的特殊攻击伤害
func (s *BossSystem) ScaledSpecialDamage(n int) float64 {
	return s.tuning.SpecialDamageBase * math.Pow(s.tuning.DamageGrowthR, float64(n-1))
}

// HasteFor 计算第 n 次遭遇的急速（攻击间隔缩减比例，有上限）
func (s *BossSystem) HasteFor(n int) float64 {
	haste := s.tuning.HastePerSpawn * float64(n-1)
	if haste > s.tuning.HasteCap {
		haste = s.tuning.HasteCap
	}
	return haste
}

// Spawn 在指定位置生成 Boss
//
// 同一时刻至多一个 Boss：已有存活实例时返回 false。
// 每次成功生成使持久遭遇计数加一并按其缩放数值
func (s *BossSystem) Spawn(x, y float64) bool {
	if s.boss != nil && s.boss.State != BossDead {
		log.Printf("[BossSystem] Spawn rejected: a boss is already active")
		return false
	}

	s.spawnCount++
	n := s.spawnCount
	maxHP := s.ScaledMaxHP(n)

	s.boss = &Boss{
		X:           x,
		Y:           y,
		HP:          maxHP,
		MaxHP:       maxHP,
		Radius:      s.tuning.Radius,
		State:       BossTelegraph,
		Phase:       1,
		TelegraphMs: s.tuning.TelegraphMs,
		FacingX:     0,
		FacingY:     1,
	}

	// 目标视图在进入战斗状态时才挂到上下文上：
	// 预警期间 Boss 不可作为炮塔目标
	s.handle = &game.BossHandle{
		X:           x,
		Y:           y,
		Radius:      s.boss.Radius,
		ApplyDamage: s.ApplyDamage,
	}

	log.Printf("[BossSystem] Boss spawned: encounter=%d, maxHP=%.0f, haste=%.2f", n, maxHP, s.HasteFor(n))
	return true
}

// Update 更新 Boss 系统
//
// 参数：
//
//	deltaMs - 距上一帧经过的时间（毫秒）
//	reg - 敌人注册表（小怪召唤用）
func (s *BossSystem) Update(deltaMs float64, reg game.EnemyRegistry) {
	if s.boss == nil {
		return
	}

	switch s.boss.State {
	case BossTelegraph:
		s.updateTelegraph(deltaMs)
	case BossActive:
		s.updateActive(deltaMs, reg)
	case BossDead:
		// 死亡效果已在状态转换时结算，丢弃实例
		s.boss = nil
		s.handle = nil
		s.ctx.SetActiveBoss(nil)
	}
}

// updateTelegraph 出场预警倒计时
// 归零时进入战斗状态，初始攻击计时器按遭遇急速缩短
func (s *BossSystem) updateTelegraph(deltaMs float64) {
	b := s.boss
	b.TelegraphMs -= deltaMs
	if b.TelegraphMs > 0 {
		return
	}

	b.State = BossActive
	b.AttackTimerMs = s.attackIntervalMs()
	s.ctx.SetActiveBoss(s.handle)
	log.Printf("[BossSystem] Boss active: initial attack timer %.0fms", b.AttackTimerMs)
}

// updateActive 战斗状态逐帧逻辑
func (s *BossSystem) updateActive(deltaMs float64, reg game.EnemyRegistry) {
	s.updateSpecial(deltaMs)
	if s.boss == nil {
		return
	}

	// 特殊攻击引导期间站定不动
	if !s.boss.SpecialReady {
		s.updateMovement(deltaMs)
	}

	s.updateAttackTimer(deltaMs, reg)
	s.updateContact(deltaMs)
	s.checkPhase()
}

// updateMovement 追击移动
// 以降速后的速度朝玩家推进，同时消耗击退速度并更新朝向
func (s *BossSystem) updateMovement(deltaMs float64) {
	b := s.boss
	player := s.ctx.Player
	dt := deltaMs / 1000.0

	if player != nil {
		dx := player.X - b.X
		dy := player.Y - b.Y
		dist := math.Hypot(dx, dy)
		if dist > 1e-6 {
			b.FacingX = dx / dist
			b.FacingY = dy / dist
			b.X += b.FacingX * s.tuning.MoveSpeed * dt
			b.Y += b.FacingY * s.tuning.MoveSpeed * dt
		}
	}

	// 击退速度消耗与指数衰减
	b.X += b.KnockbackVX * dt
	b.Y += b.KnockbackVY * dt
	decay := math.Pow(0.02, dt) // 约 50ms 半衰
	b.KnockbackVX *= decay
	b.KnockbackVY *= decay

	s.handle.X = b.X
	s.handle.Y = b.Y
}

// updateSpecial 特殊攻击子循环
//
// 蓄力与主攻击计时器相互独立：
//   - 未就绪：累积蓄力，达到阈值后进入站定引导
//   - 已就绪：引导倒计时，归零时若玩家在 半径+固定附加距离 内
//     则结算一次特殊伤害；随后蓄力与就绪标志同时复位，循环重新开始
func (s *BossSystem) updateSpecial(deltaMs float64) {
	b := s.boss

	if !b.SpecialReady {
		b.SpecialChargeMs += deltaMs
		if b.SpecialChargeMs >= s.tuning.SpecialChargeMs {
			b.SpecialReady = true
			b.SpecialCountdownMs = s.tuning.SpecialTelegraphMs
			log.Printf("[BossSystem] Special attack telegraph started")
		}
		return
	}

	b.SpecialCountdownMs -= deltaMs
	if b.SpecialCountdownMs > 0 {
		return
	}

	player := s.ctx.Player
	if player != nil {
		dx := player.X - b.X
		dy := player.Y - b.Y
		reach := b.Radius + s.tuning.SpecialRangePad
		if dx*dx+dy*dy <= reach*reach {
			damage := s.ScaledSpecialDamage(s.spawnCount)
			player.ApplyDamage(damage)
			log.Printf("[BossSystem] Special attack hit: %.0f damage", damage)
		}
	}

	// 两个标志一起复位，循环重新开始
	b.SpecialChargeMs = 0
	b.SpecialReady = false

	// 特殊攻击完成也会重置主攻击计时器（最近触发生效）
	b.AttackTimerMs = s.attackIntervalMs()
}

// updateAttackTimer 主攻击倒计时
// 归零时发射远程攻击波，并按急速与阶段重置
func (s *BossSystem) updateAttackTimer(deltaMs float64, reg game.EnemyRegistry) {
	b := s.boss
	b.AttackTimerMs -= deltaMs
	if b.AttackTimerMs > 0 {
		return
	}

	s.fireAttackWave(reg)
	b.AttackTimerMs = s.attackIntervalMs()
}

// fireAttackWave 发射一次远程攻击波
//
// 固定概率附带召唤小怪；若自上次发射后跨过了新的 20% 血量里程碑，
// 发出一次 XP 奖励信号
func (s *BossSystem) fireAttackWave(reg game.EnemyRegistry) {
	b := s.boss

	if s.onAttackWave != nil {
		s.onAttackWave(b.X, b.Y, b.Phase)
	}

	if s.rng.Float64() < s.tuning.MinionChance {
		s.spawnMinions(reg)
	}

	milestone := s.hpMilestone()
	if milestone > b.xpMilestones {
		b.xpMilestones = milestone
		if s.onXPReward != nil {
			s.onXPReward(milestone)
		}
	}
}

// spawnMinions 在 Boss 周围召唤小怪
func (s *BossSystem) spawnMinions(reg game.EnemyRegistry) {
	b := s.boss
	for i := 0; i < s.tuning.MinionCount; i++ {
		angle := s.rng.Float64() * 2 * math.Pi
		x := b.X + math.Cos(angle)*(b.Radius+30)
		y := b.Y + math.Sin(angle)*(b.Radius+30)
		minion := reg.SpawnEnemyAt(x, y, types.ArchetypeMinion)
		if minion == nil {
			continue
		}
		if s.onMinionSpawned != nil {
			s.onMinionSpawned(minion)
		}
	}
	log.Printf("[BossSystem] Minions spawned around boss")
}

// updateContact 接触伤害
//
// 滚动 1 秒冷却内至多结算一次；伤害为固定值按遭遇缩放，
// 并对双方施加对称击退
func (s *BossSystem) updateContact(deltaMs float64) {
	b := s.boss
	if b.ContactCooldownMs > 0 {
		b.ContactCooldownMs -= deltaMs
	}

	player := s.ctx.Player
	if player == nil || b.ContactCooldownMs > 0 {
		return
	}

	dx := player.X - b.X
	dy := player.Y - b.Y
	reach := b.Radius + player.Radius
	if dx*dx+dy*dy > reach*reach {
		return
	}

	damage := s.ScaledContactDamage(s.spawnCount)
	player.ApplyDamage(damage)

	dist := math.Hypot(dx, dy)
	if dist > 1e-6 {
		nx := dx / dist
		ny := dy / dist
		kb := s.tuning.ContactKnockback
		player.ApplyKnockback(nx*kb, ny*kb)
		b.KnockbackVX -= nx * kb
		b.KnockbackVY -= ny * kb
	}

	b.ContactCooldownMs = s.tuning.ContactCooldownMs
	log.Printf("[BossSystem] Contact hit: %.0f damage", damage)
}

// checkPhase 阶段门槛检查
//
// 血量比例跨过门槛时单调升阶，并重置攻击计时器恰好一次
//（Phase 只升不降，同一门槛不会重复触发）
func (s *BossSystem) checkPhase() {
	b := s.boss
	frac := b.HP / b.MaxHP

	if frac < s.tuning.Phase3HPFrac && b.Phase < 3 {
		b.Phase = 3
		b.AttackTimerMs = s.attackIntervalMs()
		log.Printf("[BossSystem] Boss entered phase 3")
	} else if frac < s.tuning.Phase2HPFrac && b.Phase < 2 {
		b.Phase = 2
		b.AttackTimerMs = s.attackIntervalMs()
		log.Printf("[BossSystem] Boss entered phase 2")
	}
}

// attackIntervalMs 当前的攻击间隔
// 基础间隔 × (1 − 遭遇急速) × 阶段倍率
func (s *BossSystem) attackIntervalMs() float64 {
	b := s.boss
	phase := 1
	if b != nil {
		phase = b.Phase
	}
	return s.tuning.AttackBaseMs * (1 - s.HasteFor(s.spawnCount)) * s.tuning.PhaseAttackFactor[phase-1]
}

// hpMilestone 返回当前已跨过的 20% 血量里程碑数（0..4）
func (s *BossSystem) hpMilestone() int {
	b := s.boss
	lost := 1 - b.HP/b.MaxHP
	milestone := int(lost * 5)
	if milestone > 4 {
		milestone = 4
	}
	if milestone < 0 {
		milestone = 0
	}
	return milestone
}

// ApplyDamage 对 Boss 结算伤害
//
// 血量钳制在 [0, MaxHP]；归零时进入死亡状态并恰好一次地
// 发出奖励副作用信号（宝箱掉落），实例在下一帧被丢弃
func (s *BossSystem) ApplyDamage(amount float64) {
	b := s.boss
	if b == nil || b.State == BossDead {
		return
	}
	if amount <= 0 {
		return
	}

	b.HP -= amount
	if b.HP < 0 {
		b.HP = 0
	}

	if b.HP <= 0 {
		b.State = BossDead
		log.Printf("[BossSystem] Boss defeated (encounter %d)", s.spawnCount)
		if s.onDefeated != nil {
			s.onDefeated()
		}
	}
}
