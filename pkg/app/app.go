// Package app 提供生存模式应用的核心包装器
//
// 该包把引擎的组装逻辑从 main 包提取出来：
// 打开本地存储、构建模拟上下文与各引擎系统、完成控制器接线，
// 并以固定步长驱动模拟、用调试图形渲染当前世界状态
package app

import (
	"flag"
	"fmt"
	"image/color"
	"io"
	"log"
	"math"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/quasilyte/gdata/v2"

	"github.com/gonewx/laststand/pkg/config"
	"github.com/gonewx/laststand/pkg/entities"
	"github.com/gonewx/laststand/pkg/game"
	"github.com/gonewx/laststand/pkg/systems"
)

// 窗口与模拟参数
const (
	GameWindowWidth  = 800
	GameWindowHeight = 600

	// FixedDeltaMs 固定模拟步长（毫秒），每 tick 一步
	FixedDeltaMs = 1000.0 / 60.0

	// FogRadius 迷雾可见圆半径（以玩家为基准点）
	FogRadius = 420.0
)

// Config 定义应用启动配置
type Config struct {
	// Verbose 启用详细日志输出
	Verbose bool
	// Seed 随机种子（0 表示按时间播种）
	Seed int64
	// DataDir 数据文件目录（波次表、商店目录、炮塔规格）
	DataDir string
	// DefenseMode 启用防守目标变体
	DefenseMode bool
}

// ParseFlags 从命令行解析启动配置
func ParseFlags() Config {
	var cfg Config
	flag.BoolVar(&cfg.Verbose, "verbose", false, "enable verbose logging")
	flag.Int64Var(&cfg.Seed, "seed", 0, "deterministic seed (0 = time-based)")
	flag.StringVar(&cfg.DataDir, "data", "data", "data file directory")
	flag.BoolVar(&cfg.DefenseMode, "defense", false, "enable defense-objective variant")
	flag.Parse()
	return cfg
}

// App 是生存模式应用的核心包装器，实现 ebiten.Game 接口
type App struct {
	ctx        *game.SimulationContext
	registry   *entities.Registry
	bullets    *entities.BulletPool
	turrets    *systems.TurretSystem
	controller *systems.LastStandController
	progress   *game.ProgressManager

	verbose bool

	frameCount int
}

// NewApp 创建并组装生存模式应用
func NewApp(cfg Config) (*App, error) {
	if !cfg.Verbose {
		log.SetOutput(io.Discard)
		log.SetFlags(0)
	}

	// 本地存储：打开失败降级为纯内存战绩
	var gdataManager *gdata.Manager
	if m, err := gdata.Open(gdata.Config{AppName: "laststand"}); err != nil {
		log.Printf("[App] gdata unavailable: %v (progress will not persist)", err)
	} else {
		gdataManager = m
	}

	progress, err := game.NewProgressManager(gdataManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create progress manager: %w", err)
	}

	// 模拟上下文：显式注入，运行期不查询全局量
	mode := game.ModeLastStand
	if cfg.DefenseMode {
		mode = game.ModeDefense
	}
	player := &game.PlayerState{
		X: GameWindowWidth / 2, Y: GameWindowHeight / 2,
		Radius: 14, HP: 100, MaxHP: 100,
	}
	ctx := &game.SimulationContext{Mode: mode, Player: player}

	registry := entities.NewRegistry(ctx)

	// 炮塔配置：加载失败退回兜底配置
	turretCfg, err := config.LoadTurretConfig(filepath.Join(cfg.DataDir, "turret_specs.yaml"))
	if err != nil {
		log.Printf("[App] Failed to load turret config: %v (using fallback)", err)
		turretCfg = config.FallbackTurretConfig()
	}

	bullets := entities.NewBulletPool(ctx, func(weaponID string) float64 {
		if w := turretCfg.Weapon(weaponID); w != nil {
			return w.ProjectileSpeed
		}
		return 0
	})

	waves := systems.NewWaveSpawnSystem(cfg.Seed)
	waves.Load(filepath.Join(cfg.DataDir, "last_stand_waves.yaml"))

	boss := systems.NewBossSystem(config.DefaultBossTuning(), ctx, cfg.Seed)

	turrets, err := systems.NewTurretSystem(turretCfg, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create turret system: %w", err)
	}

	shop := systems.NewShopSystem()
	shop.Load(filepath.Join(cfg.DataDir, "last_stand_catalog.yaml"))

	ledger := game.NewCurrencyLedger(0)
	loadout := game.NewLoadout()
	loadout.ClassWeaponID = "pistol"

	controller, err := systems.NewLastStandController(systems.ControllerDeps{
		Ctx:        ctx,
		Registry:   registry,
		Waves:      waves,
		Boss:       boss,
		Turrets:    turrets,
		Shop:       shop,
		Ledger:     ledger,
		Loadout:    loadout,
		Progress:   progress,
		Ballistics: bullets,
	}, cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("failed to create controller: %w", err)
	}
	controller.SetUtilityTurretSpec("mg_turret")
	if cfg.Seed != 0 {
		controller.SetRollSeed(cfg.Seed)
	}

	registry.OnEnemyDefeated(controller.NotifyEnemyDefeated)

	app := &App{
		ctx:        ctx,
		registry:   registry,
		bullets:    bullets,
		turrets:    turrets,
		controller: controller,
		progress:   progress,
		verbose:    cfg.Verbose,
	}

	controller.StartRun()
	return app, nil
}

// Update 更新游戏逻辑
// 每个 tick 调用一次（通常每秒 60 次）
func (a *App) Update() error {
	a.handleInput()

	// 迷雾快照以玩家当前位置为基准，每帧刷新一次
	player := a.ctx.Player
	a.ctx.Fog = &game.FogOfWar{
		CenterX: player.X,
		CenterY: player.Y,
		Radius:  FogRadius,
	}

	a.controller.Update(FixedDeltaMs)
	a.bullets.Update(FixedDeltaMs, a.registry)
	a.updateEnemies(FixedDeltaMs)

	a.frameCount++
	if a.frameCount%300 == 0 {
		a.registry.Prune()
	}

	return nil
}

// handleInput 处理按键
//
// Space 结束商店阶段，P 暂停/恢复，T 在玩家身旁放置机枪塔，
// 数字键 1..5 购买对应的商店卡
func (a *App) handleInput() {
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		a.controller.ContinueRun()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		if a.controller.Paused() {
			a.controller.Resume()
		} else {
			a.controller.Pause()
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyT) {
		p := a.ctx.Player
		a.turrets.Place("mg_turret", p.X+40, p.Y)
	}

	offerKeys := []ebiten.Key{ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4, ebiten.Key5}
	for i, key := range offerKeys {
		if inpututil.IsKeyJustPressed(key) {
			a.controller.BuyOffer(i, false)
		}
	}
}

// updateEnemies 敌人朝玩家直线推进（外壳层的简化移动）
func (a *App) updateEnemies(deltaMs float64) {
	player := a.ctx.Player
	dt := deltaMs / 1000.0
	for _, e := range a.registry.Enemies() {
		if !e.Active {
			continue
		}
		dx := player.X - e.X
		dy := player.Y - e.Y
		dist := math.Hypot(dx, dy)
		if dist < 1 {
			continue
		}
		e.X += dx / dist * e.Speed * dt
		e.Y += dy / dist * e.Speed * dt
	}
}

// Draw 绘制游戏画面（调试图形，无美术资源）
func (a *App) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 24, G: 26, B: 32, A: 255})

	player := a.ctx.Player

	// 迷雾可见圆
	vector.StrokeCircle(screen, float32(player.X), float32(player.Y), float32(FogRadius), 1, color.RGBA{60, 60, 70, 255}, true)

	// 玩家
	vector.DrawFilledCircle(screen, float32(player.X), float32(player.Y), float32(player.Radius), color.RGBA{90, 200, 120, 255}, true)

	// 敌人
	for _, e := range a.registry.Enemies() {
		if !e.Active {
			continue
		}
		vector.DrawFilledCircle(screen, float32(e.X), float32(e.Y), float32(e.Radius), color.RGBA{210, 80, 80, 255}, true)
	}

	// Boss
	if boss := a.ctx.ActiveBoss(); boss != nil {
		vector.DrawFilledCircle(screen, float32(boss.X), float32(boss.Y), float32(boss.Radius), color.RGBA{180, 60, 200, 255}, true)
	}

	// 炮塔与轨迹线
	for _, t := range a.turrets.Turrets() {
		vector.DrawFilledRect(screen, float32(t.X-10), float32(t.Y-10), 20, 20, color.RGBA{120, 160, 230, 255}, true)
	}
	for _, tr := range a.turrets.Tracers() {
		vector.StrokeLine(screen, float32(tr.X0), float32(tr.Y0), float32(tr.X1), float32(tr.Y1), 1, color.RGBA{240, 230, 140, 200}, true)
	}

	// 投射物
	for _, p := range a.bullets.Bullets() {
		vector.DrawFilledCircle(screen, float32(p.X), float32(p.Y), 3, color.RGBA{250, 250, 200, 255}, true)
	}

	a.drawHUD(screen)
}

// drawHUD 文本状态叠加
func (a *App) drawHUD(screen *ebiten.Image) {
	phase := "combat"
	switch a.controller.Phase() {
	case systems.PhaseShop:
		phase = "shop"
	case systems.PhaseIdle:
		phase = "idle"
	}

	msg := fmt.Sprintf("phase=%s  hp=%.0f", phase, a.ctx.Player.HP)
	if a.controller.Phase() == systems.PhaseShop {
		msg += fmt.Sprintf("  shop closes in %.1fs", a.controller.ShopRemainingMs()/1000)
		for i, o := range a.controller.Offers() {
			msg += fmt.Sprintf("\n[%d] %s  %d scrap", i+1, o.ID, o.Price)
		}
	}
	ebitenutil.DebugPrint(screen, msg)
}

// Layout 返回游戏的逻辑屏幕尺寸
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return GameWindowWidth, GameWindowHeight
}
