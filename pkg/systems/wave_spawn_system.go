// Package systems 实现生存模式的引擎系统
//
// 每个系统是一个带构造函数注入依赖的结构体，
// 由模式控制器每帧调用一次 Update
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

// 波次生成参数
const (
	// SpawnBaseGapMs 同一波内相邻生成的基础间隔（毫秒）
	SpawnBaseGapMs = 120.0

	// SpawnGapJitterMs 生成间隔抖动幅度（±毫秒）
	SpawnGapJitterMs = 40.0

	// SpawnRingRadius 环形生成的基准半径（像素）
	SpawnRingRadius = 420.0

	// SpawnRingJitter 环形生成半径抖动幅度（±像素）
	SpawnRingJitter = 60.0

	// SpeedJitterFrac 生成时的速度抖动比例（±10%）
	SpeedJitterFrac = 0.10

	// SpeedCurvePerWave 每波的全局速度提升比例
	SpeedCurvePerWave = 0.03

	// AbsoluteSpeedCap 所有敌人的绝对速度上限（像素/秒）
	AbsoluteSpeedCap = 260.0
)

// SpawnPositionFn 自定义生成位置函数
// 参数为本波内的生成序号；防守目标变体用它做走廊偏置放置
type SpawnPositionFn func(index int) (x, y float64)

// pendingSpawn 已排期但尚未执行的生成
//
// 生成句柄由系统自有并在重开波次时整体清空；
// 句柄上仍携带生成令牌，令牌过期的句柄即使残留也会静默作废
type pendingSpawn struct {
	dueMs     float64              // 到期的模拟时刻（毫秒）
	token     uint64               // 捕获的生成令牌
	archetype types.EnemyArchetype // 敌人原型
	index     int                  // 本波内的生成序号
	refX      float64              // 环形生成基准点
	refY      float64
	posFn     SpawnPositionFn // 可选的自定义位置函数
}

// WaveSpawnSystem 波次生成系统
//
// 职责：
//   - 加载波次表（失败时使用程序化兜底表）
//   - 按波次定义以错峰偏移排期敌人生成
//   - 维护存活计数，归零时触发波次完成回调（每波恰好一次）
//   - 通过生成令牌使中断/重开波次后的过期生成作废
//
// 架构说明：
//   - 单线程帧驱动：排期的生成在后续的 Update 中到期执行，
//     不存在真正的并发
//   - 注册表冻结期间（商店阶段）到期的生成暂不执行，解冻后补执行
type WaveSpawnSystem struct {
	table *config.WaveTable
	rng   *rand.Rand

	waveNumber int    // 当前波次号（1 起；0 表示尚未开波）
	spawnToken uint64 // 当前生成令牌，开波时递增

	aliveCount        int  // 本波存活敌人数，始终 >= 0
	waveCompleteFired bool // 本波完成回调是否已触发

	simTimeMs float64        // 累计模拟时间（毫秒）
	pending   []pendingSpawn // 排期中的生成（按到期时间递增）

	completeCallbacks []func(waveNumber int)
}

// NewWaveSpawnSystem 创建波次生成系统
//
// 参数：
//
//	seed - 随机种子（0 表示使用当前时间）
func NewWaveSpawnSystem(seed int64) *WaveSpawnSystem {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &WaveSpawnSystem{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Load 加载波次表
//
// 加载失败不是致命错误：记录日志并退回程序化兜底表
func (s *WaveSpawnSystem) Load(filepath string) {
	table, err := config.LoadWaveTable(filepath)
	if err != nil {
		log.Printf("[WaveSpawnSystem] Failed to load wave table: %v (using fallback table)", err)
		s.table = config.FallbackWaveTable()
		return
	}
	log.Printf("[WaveSpawnSystem] Loaded wave table: %d waves", table.Len())
	s.table = table
}

// UseTable 直接注入波次表（测试与程序化模式用）
func (s *WaveSpawnSystem) UseTable(table *config.WaveTable) {
	s.table = table
}

// WaveNumber 返回当前波次号（1 起；0 表示尚未开波）
func (s *WaveSpawnSystem) WaveNumber() int {
	return s.waveNumber
}

// AliveCount 返回本波存活敌人数
func (s *WaveSpawnSystem) AliveCount() int {
	return s.aliveCount
}

// PendingCount 返回排期中尚未执行的生成数
func (s *WaveSpawnSystem) PendingCount() int {
	return len(s.pending)
}

// CurrentWave 返回当前波次定义
//
// 波次表耗尽后从头循环（波次号继续递增，定义按表长取模）
func (s *WaveSpawnSystem) CurrentWave() *config.WaveDefinition {
	if s.table == nil || s.table.Len() == 0 || s.waveNumber < 1 {
		return nil
	}
	idx := (s.waveNumber-1)%s.table.Len() + 1
	return s.table.Wave(idx)
}

// OnWaveComplete 注册波次完成回调
// 回调在存活计数首次归零时触发，每波恰好一次
func (s *WaveSpawnSystem) OnWaveComplete(fn func(waveNumber int)) {
	if fn == nil {
		return
	}
	s.completeCallbacks = append(s.completeCallbacks, fn)
}

// StartNextWave 开始下一波
//
// 执行流程：
//  1. 波次号递增，发放新的生成令牌
//  2. 清空上一波残留的生成句柄（过期句柄即使残留也会被令牌拦截）
//  3. 存活计数归零、完成标记复位
//  4. 按波次定义以错峰偏移排期全部生成
//
// 参数：
//
//	refX, refY - 环形生成的基准点（通常为玩家位置）
//	posFn - 可选的自定义生成位置函数（nil 使用环形放置）
func (s *WaveSpawnSystem) StartNextWave(refX, refY float64, posFn SpawnPositionFn) {
	s.waveNumber++
	s.spawnToken++
	s.pending = s.pending[:0]
	s.aliveCount = 0
	s.waveCompleteFired = false

	def := s.CurrentWave()
	if def == nil {
		log.Printf("[WaveSpawnSystem] ERROR: No wave definition for wave %d", s.waveNumber)
		return
	}

	offset := 0.0
	index := 0
	for _, group := range def.SpawnGroups {
		for i := 0; i < group.Count; i++ {
			offset += SpawnBaseGapMs + (s.rng.Float64()*2-1)*SpawnGapJitterMs
			s.pending = append(s.pending, pendingSpawn{
				dueMs:     s.simTimeMs + offset,
				token:     s.spawnToken,
				archetype: group.Archetype,
				index:     index,
				refX:      refX,
				refY:      refY,
				posFn:     posFn,
			})
			index++
		}
	}

	log.Printf("[WaveSpawnSystem] Wave %d started: %d spawns scheduled (token %d)", s.waveNumber, len(s.pending), s.spawnToken)
}

// Update 更新波次生成系统
//
// 推进模拟时间并执行所有到期的生成。
// 注册表处于冻结期时到期的生成暂不执行（解冻后补执行，顺序不变）
//
// 参数：
//
//	deltaMs - 距上一帧经过的时间（毫秒）
//	reg - 敌人注册表
func (s *WaveSpawnSystem) Update(deltaMs float64, reg game.EnemyRegistry) {
	s.simTimeMs += deltaMs

	// 冻结期间不执行生成（商店阶段）
	if reg.FrozenUntil() > s.simTimeMs {
		return
	}

	for len(s.pending) > 0 && s.pending[0].dueMs <= s.simTimeMs {
		p := s.pending[0]
		s.pending = s.pending[1:]

		// 过期令牌：波次已被中断或重开，静默作废
		if p.token != s.spawnToken {
			continue
		}

		s.executeSpawn(p, reg)
	}
}

// executeSpawn 执行单个生成
//
// 生成失败（注册表返回 nil）时静默跳过，不影响存活计数
func (s *WaveSpawnSystem) executeSpawn(p pendingSpawn, reg game.EnemyRegistry) {
	var x, y float64
	if p.posFn != nil {
		x, y = p.posFn(p.index)
	} else {
		angle := s.rng.Float64() * 2 * math.Pi
		dist := SpawnRingRadius + (s.rng.Float64()*2-1)*SpawnRingJitter
		x = p.refX + math.Cos(angle)*dist
		y = p.refY + math.Sin(angle)*dist
	}

	enemy := reg.SpawnEnemyAt(x, y, p.archetype)
	if enemy == nil {
		log.Printf("[WaveSpawnSystem] Spawn failed: archetype=%s at (%.0f, %.0f)", p.archetype, x, y)
		return
	}

	// 速度抖动 + 波次速度曲线，再钳制到原型与绝对上限
	speed := enemy.Speed * (1 + (s.rng.Float64()*2-1)*SpeedJitterFrac)
	speed *= 1 + SpeedCurvePerWave*float64(s.waveNumber-1)
	if speed > AbsoluteSpeedCap {
		speed = AbsoluteSpeedCap
	}
	enemy.Speed = reg.ClampToTypeCaps(speed, p.archetype)

	s.aliveCount++
}

// NoteExternalSpawn 并入一个外部生成的敌人
//
// Boss 召唤的小怪不经过波次排期，但同样属于本波种群：
// 控制器在小怪生成时调用，使存活计数与击败通知保持对称
func (s *WaveSpawnSystem) NoteExternalSpawn() {
	s.aliveCount++
}

// OnEnemyDefeated 敌人被击败通知
//
// 存活计数递减（不会低于 0）；首次归零时触发波次完成回调。
// 退化波次（零敌人）在其后的第一次击败通知上立即完成
func (s *WaveSpawnSystem) OnEnemyDefeated() {
	if s.aliveCount > 0 {
		s.aliveCount--
	}

	if s.aliveCount <= 0 && !s.waveCompleteFired && s.waveNumber > 0 {
		s.waveCompleteFired = true
		wave := s.waveNumber
		log.Printf("[WaveSpawnSystem] Wave %d complete", wave)
		for _, fn := range s.completeCallbacks {
			fn(wave)
		}
	}
}
