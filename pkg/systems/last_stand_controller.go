package systems

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/gonewx/laststand/pkg/game"
	"github.com/gonewx/laststand/pkg/types"
)

// Phase 模式控制器的顶层状态
type Phase int

const (
	// PhaseIdle 尚未开始
	PhaseIdle Phase = iota

	// PhaseCombat 战斗阶段（波次生成、Boss、炮塔均在运转）
	PhaseCombat

	// PhaseShop 商店阶段（生成冻结，玩家购买装备）
	PhaseShop
)

// 控制器参数
const (
	// DefaultShopWindowMs 商店窗口时长（毫秒），超时自动回到战斗
	DefaultShopWindowMs = 20000.0

	// DefaultOffersPerRoll 每次商店刷新的卡数
	DefaultOffersPerRoll = 5

	// ShopFreezeSlackMs 注册表冻结在商店窗口之外的余量（毫秒）
	// 窗口收尾与下一波开波之间的生成不应被边界抖动放行
	ShopFreezeSlackMs = 500.0

	// BossSpawnDistance Boss 出场点距玩家的距离（像素）
	BossSpawnDistance = 380.0

	// TurretPlaceOffset 商店购买的炮塔落点距玩家的偏移（像素）
	TurretPlaceOffset = 80.0

	// BossKillScrap 击败 Boss 的废料奖励
	BossKillScrap = 150

	// BossMilestoneScrap 每个 20% 血量里程碑的废料奖励
	BossMilestoneScrap = 25
)

// killScrapByArchetype 击杀各原型敌人的废料奖励
var killScrapByArchetype = map[types.EnemyArchetype]float64{
	types.ArchetypeSmall:  4,
	types.ArchetypeMedium: 8,
	types.ArchetypeHeavy:  15,
	types.ArchetypeRunner: 6,
	types.ArchetypeMinion: 2,
}

// ControllerDeps 控制器的协作者集合（显式依赖注入）
type ControllerDeps struct {
	Ctx      *game.SimulationContext
	Registry game.EnemyRegistry
	Waves    *WaveSpawnSystem
	Boss     *BossSystem
	Turrets  *TurretSystem
	Shop     *ShopSystem

	Ledger  *game.CurrencyLedger
	Loadout *game.Loadout

	// Progress 元进度记录，可为 nil（不记录）
	Progress *game.ProgressManager

	// Ballistics 弹道协作者，可为 nil（炮塔退化为直接伤害）
	Ballistics game.Ballistics
}

// LastStandController 生存模式控制器
//
// 职责：
//   - 顶层状态机：战斗 ↔ 商店
//   - 每帧以同一个时间增量驱动所有子系统各一次
//   - 波次完成（且无存活 Boss）时进入商店：冻结生成、刷新卡组
//   - ContinueRun 或商店窗口超时回到战斗：解冻并开下一波，
//     带 Boss 标记的波次同时生成 Boss
//   - 击杀把废料计入账本并递减波次存活计数
//   - 作为 EffectSink 落地商店购买效果
//
// 架构说明：
//   - 全部子系统计时都是模拟时钟倒计时，整体暂停只需停表；
//     唯一的"冻结至"时间戳也表达在模拟时钟域内，恢复时无需平移，
//     但 Resume 仍重新武装一次冻结以防协作者按墙钟记录
//   - 单线程帧驱动：回调在 Update 调用栈内同步执行
type LastStandController struct {
	ctx *game.SimulationContext
	reg game.EnemyRegistry

	waves   *WaveSpawnSystem
	boss    *BossSystem
	turrets *TurretSystem
	shop    *ShopSystem

	ledger   *game.CurrencyLedger
	loadout  *game.Loadout
	progress *game.ProgressManager

	ballistics game.Ballistics
	rng        *rand.Rand

	phase     Phase
	paused    bool
	simTimeMs float64

	shopWindowMs    float64
	shopRemainingMs float64
	offersPerRoll   int
	rollSeed        int64
	currentOffers   []Offer

	// waveCleared 本波敌人已清空但 Boss 尚存时为 true，
	// Boss 死亡后立即补进商店
	waveCleared bool

	// utilityTurretSpecID 商店工具卡对应的炮塔规格
	utilityTurretSpecID string

	// gateLevel 防守目标变体的闸门等级（工具卡升级）
	gateLevel int

	spawnPosFn SpawnPositionFn
}

// NewLastStandController 创建模式控制器并完成子系统间接线
//
// 参数：
//
//	deps - 协作者集合（Progress 与 Ballistics 可为 nil，其余必填）
//	seed - 随机种子（0 表示使用当前时间）
func NewLastStandController(deps ControllerDeps, seed int64) (*LastStandController, error) {
	if deps.Ctx == nil || deps.Registry == nil || deps.Waves == nil ||
		deps.Boss == nil || deps.Turrets == nil || deps.Shop == nil ||
		deps.Ledger == nil || deps.Loadout == nil {
		return nil, fmt.Errorf("all controller collaborators except Progress and Ballistics are required")
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	c := &LastStandController{
		ctx:           deps.Ctx,
		reg:           deps.Registry,
		waves:         deps.Waves,
		boss:          deps.Boss,
		turrets:       deps.Turrets,
		shop:          deps.Shop,
		ledger:        deps.Ledger,
		loadout:       deps.Loadout,
		progress:      deps.Progress,
		ballistics:    deps.Ballistics,
		rng:           rand.New(rand.NewSource(seed)),
		phase:         PhaseIdle,
		shopWindowMs:  DefaultShopWindowMs,
		offersPerRoll: DefaultOffersPerRoll,
	}

	c.waves.OnWaveComplete(c.onWaveComplete)
	c.boss.OnMinionSpawned(func(*game.Enemy) { c.waves.NoteExternalSpawn() })
	c.boss.OnDefeated(c.onBossDefeated)
	c.boss.OnXPReward(func(int) { c.ledger.Add(BossMilestoneScrap) })
	c.shop.SetUtilityProvider(c.utilityCards)

	return c, nil
}

// SetShopWindow 覆盖商店窗口时长（毫秒）
func (c *LastStandController) SetShopWindow(ms float64) {
	if ms > 0 {
		c.shopWindowMs = ms
	}
}

// SetOffersPerRoll 覆盖每次商店刷新的卡数
func (c *LastStandController) SetOffersPerRoll(n int) {
	if n > 0 {
		c.offersPerRoll = n
	}
}

// SetRollSeed 固定商店刷新种子（测试用；0 表示按时间播种）
func (c *LastStandController) SetRollSeed(seed int64) {
	c.rollSeed = seed
}

// SetUtilityTurretSpec 设置商店工具卡对应的炮塔规格
func (c *LastStandController) SetUtilityTurretSpec(specID string) {
	c.utilityTurretSpecID = specID
}

// SetSpawnPositionFn 注入自定义生成位置函数
// 防守目标变体用走廊偏置放置替代环形放置
func (c *LastStandController) SetSpawnPositionFn(fn SpawnPositionFn) {
	c.spawnPosFn = fn
}

// Phase 返回当前阶段
func (c *LastStandController) Phase() Phase {
	return c.phase
}

// SimTimeMs 返回累计模拟时间（毫秒）
func (c *LastStandController) SimTimeMs() float64 {
	return c.simTimeMs
}

// Offers 返回本次商店访问的当前卡组
func (c *LastStandController) Offers() []Offer {
	return c.currentOffers
}

// ShopRemainingMs 返回商店窗口剩余时长
func (c *LastStandController) ShopRemainingMs() float64 {
	return c.shopRemainingMs
}

// GateLevel 返回防守目标变体的闸门等级
func (c *LastStandController) GateLevel() int {
	return c.gateLevel
}

// StartRun 开始一局
func (c *LastStandController) StartRun() {
	if c.phase != PhaseIdle {
		return
	}
	if c.progress != nil {
		c.progress.RecordRunStart()
	}
	log.Printf("[LastStandController] Run started (mode=%s)", c.ctx.Mode)
	c.phase = PhaseCombat
	c.startWave()
}

// Pause 暂停整局模拟
// 所有子系统计时都是倒计时，停表即可，无需平移任何截止时刻
func (c *LastStandController) Pause() {
	c.paused = true
}

// Resume 恢复模拟
// 商店阶段恢复时重新武装注册表冻结（协作者可能按墙钟记录）
func (c *LastStandController) Resume() {
	c.paused = false
	if c.phase == PhaseShop {
		c.reg.SetSpawnFreezeUntil(c.simTimeMs + c.shopRemainingMs + ShopFreezeSlackMs)
	}
}

// Paused 返回是否处于暂停
func (c *LastStandController) Paused() bool {
	return c.paused
}

// Update 驱动一帧
//
// 每个子系统恰好被驱动一次；商店阶段继续驱动波次系统
// 以保持其模拟时钟与控制器时钟一致（冻结使其不产生生成）
func (c *LastStandController) Update(deltaMs float64) {
	if c.paused || c.phase == PhaseIdle {
		return
	}
	c.simTimeMs += deltaMs

	c.waves.Update(deltaMs, c.reg)
	c.boss.Update(deltaMs, c.reg)
	c.turrets.Update(deltaMs, c.reg, c.ballistics)

	if c.phase == PhaseShop {
		c.shopRemainingMs -= deltaMs
		if c.shopRemainingMs <= 0 {
			log.Printf("[LastStandController] Shop window lapsed")
			c.exitShop()
		}
	}
}

// ContinueRun 玩家主动结束商店阶段
func (c *LastStandController) ContinueRun() {
	if c.phase != PhaseShop {
		return
	}
	c.exitShop()
}

// NotifyEnemyDefeated 敌人被击败通知（注册表的击败钩子接到这里）
//
// 击杀奖励计入账本，波次存活计数递减；
// 计数归零触发波次完成回调进而翻转到商店阶段
func (c *LastStandController) NotifyEnemyDefeated(e *game.Enemy) {
	if e != nil {
		if scrap, ok := killScrapByArchetype[e.Archetype]; ok {
			c.ledger.Add(scrap)
		}
	}
	c.waves.OnEnemyDefeated()
}

// BuyOffer 购买当前卡组中的一张卡
// 控制器自身作为 EffectSink 落地效果
func (c *LastStandController) BuyOffer(index int, useFreeToken bool) bool {
	if c.phase != PhaseShop || index < 0 || index >= len(c.currentOffers) {
		return false
	}
	return c.shop.Purchase(c.currentOffers[index], c.loadout, c.ledger, useFreeToken, c)
}

// startWave 开始下一波，带 Boss 标记的波次同时生成 Boss
func (c *LastStandController) startWave() {
	refX, refY := 0.0, 0.0
	if p := c.ctx.Player; p != nil {
		refX, refY = p.X, p.Y
	}
	c.waveCleared = false
	c.waves.StartNextWave(refX, refY, c.spawnPosFn)

	if def := c.waves.CurrentWave(); def != nil && def.HasBoss {
		angle := c.rng.Float64() * 2 * math.Pi
		x := refX + math.Cos(angle)*BossSpawnDistance
		y := refY + math.Sin(angle)*BossSpawnDistance
		c.boss.Spawn(x, y)
	}
}

// onWaveComplete 波次完成回调
//
// Boss 尚存时不进商店（挂起标记，Boss 死亡后补进）
func (c *LastStandController) onWaveComplete(waveNumber int) {
	if c.progress != nil {
		c.progress.RecordWaveReached(waveNumber)
	}

	if b := c.boss.Boss(); b != nil && b.State != BossDead {
		c.waveCleared = true
		log.Printf("[LastStandController] Wave %d cleared, boss still alive", waveNumber)
		return
	}
	c.enterShop()
}

// onBossDefeated Boss 死亡回调
// 发放奖励；若本波敌人已清空则补进商店
func (c *LastStandController) onBossDefeated() {
	c.ledger.Add(BossKillScrap)
	c.ledger.GrantFreeToken()
	if c.progress != nil {
		c.progress.RecordBossKill()
	}

	if c.waveCleared {
		c.enterShop()
	}
}

// enterShop 进入商店阶段
// 冻结生成、开启访问并刷新卡组
func (c *LastStandController) enterShop() {
	c.phase = PhaseShop
	c.shopRemainingMs = c.shopWindowMs
	c.waveCleared = false

	c.reg.SetSpawnFreezeUntil(c.simTimeMs + c.shopWindowMs + ShopFreezeSlackMs)
	c.shop.BeginVisit()
	c.currentOffers = c.shop.RollOffers(c.offersPerRoll, c.rollSeed, c.loadout)

	log.Printf("[LastStandController] Shop opened: %d offers, window %.0fms", len(c.currentOffers), c.shopWindowMs)
}

// exitShop 回到战斗阶段
// 解冻生成并开下一波
func (c *LastStandController) exitShop() {
	c.phase = PhaseCombat
	c.shopRemainingMs = 0
	c.currentOffers = nil

	c.reg.SetSpawnFreezeUntil(0)
	c.startWave()
}

// utilityCards 构建模式专属工具卡（动态定价）
//
// 炮塔放置卡价格按已放置数量实时查询；
// 防守目标变体额外提供闸门升级卡
func (c *LastStandController) utilityCards() []Offer {
	var cards []Offer

	if c.utilityTurretSpecID != "" {
		if cost, ok := c.turrets.NextCost(c.utilityTurretSpecID); ok {
			cards = append(cards, Offer{
				ID:           "utility_turret_" + c.utilityTurretSpecID,
				Kind:         types.OfferTurret,
				Price:        cost,
				Weight:       1,
				TurretSpecID: c.utilityTurretSpecID,
			})
		}
	}

	if c.ctx.Mode == game.ModeDefense {
		cards = append(cards, Offer{
			ID:        "utility_gate_upgrade",
			Kind:      types.OfferBonus,
			Price:     60 + 40*c.gateLevel,
			Weight:    1,
			UtilityID: "gate_upgrade",
			OneShot:   true,
		})
	}

	return cards
}

// ---- EffectSink 实现 ----

// GrantWeapon 解锁或升级武器
func (c *LastStandController) GrantWeapon(weaponID string) error {
	if !c.loadout.GrantWeapon(weaponID) {
		return fmt.Errorf("weapon %s cannot be granted (cap or max level)", weaponID)
	}
	return nil
}

// GrantPassive 解锁或升级被动
func (c *LastStandController) GrantPassive(passiveID string) error {
	if !c.loadout.GrantPassive(passiveID) {
		return fmt.Errorf("passive %s cannot be granted (cap or max level)", passiveID)
	}
	return nil
}

// ApplyStatBonus 应用平坦属性加成
//
// 引擎只落地它认识的玩家属性；其余属性ID交由外层装备数值系统，
// 这里视为已受理
func (c *LastStandController) ApplyStatBonus(statID string, value float64) error {
	p := c.ctx.Player
	if p == nil {
		return fmt.Errorf("no player state attached")
	}

	switch statID {
	case "max_hp":
		p.MaxHP += value
		p.HP += value
	case "heal":
		p.HP += value
		if p.HP > p.MaxHP {
			p.HP = p.MaxHP
		}
	case "scrap":
		c.ledger.Add(value)
	}
	return nil
}

// PlaceTurret 商店购买后在玩家身旁放置炮塔
func (c *LastStandController) PlaceTurret(specID string) error {
	x, y := TurretPlaceOffset, 0.0
	if p := c.ctx.Player; p != nil {
		angle := c.rng.Float64() * 2 * math.Pi
		x = p.X + math.Cos(angle)*TurretPlaceOffset
		y = p.Y + math.Sin(angle)*TurretPlaceOffset
	}
	if !c.turrets.Place(specID, x, y) {
		return fmt.Errorf("turret spec %s not placeable", specID)
	}
	return nil
}

// ApplyModeUtility 模式专属工具卡效果
func (c *LastStandController) ApplyModeUtility(utilityID string) error {
	switch utilityID {
	case "gate_upgrade":
		c.gateLevel++
		log.Printf("[LastStandController] Gate upgraded to level %d", c.gateLevel)
		return nil
	default:
		return fmt.Errorf("unknown utility %q", utilityID)
	}
}
