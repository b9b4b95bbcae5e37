package systems

import (
	"math"
	"testing"

	"github.com/gonewx/laststand/pkg/config"
	"github.com/gonewx/laststand/pkg/game"
)

func newTestBossSystem() (*BossSystem, *fakeRegistry) {
	return NewBossSystem(config.DefaultBossTuning(), newTestContext(), 99), newFakeRegistry()
}

// advanceToActive 推进预警倒计时直到 Boss 进入战斗状态
func advanceToActive(t *testing.T, s *BossSystem, reg *fakeRegistry) {
	t.Helper()
	for i := 0; i < 200 && s.Boss() != nil && s.Boss().State == BossTelegraph; i++ {
		s.Update(16.7, reg)
	}
	if s.Boss() == nil || s.Boss().State != BossActive {
		t.Fatalf("boss did not reach active state")
	}
}

// TestScaledMaxHPFormula 第 3 次遭遇的血量公式：
// round(1500 × (1+0.40×2)^1.12)
func TestScaledMaxHPFormula(t *testing.T) {
	s, _ := newTestBossSystem()

	want := math.Round(1500 * math.Pow(1+0.40*2, 1.12))
	if got := s.ScaledMaxHP(3); got != want {
		t.Errorf("ScaledMaxHP(3): got %.0f, want %.0f", got, want)
	}
}

// TestScalingMonotonic 血量与伤害随遭遇次数单调上升
func TestScalingMonotonic(t *testing.T) {
	s, _ := newTestBossSystem()

	for n := 2; n <= 5; n++ {
		if s.ScaledMaxHP(n) <= s.ScaledMaxHP(n-1) {
			t.Errorf("ScaledMaxHP(%d)=%.0f not greater than ScaledMaxHP(%d)=%.0f",
				n, s.ScaledMaxHP(n), n-1, s.ScaledMaxHP(n-1))
		}
		if s.ScaledContactDamage(n) <= s.ScaledContactDamage(n-1) {
			t.Errorf("contact damage not monotonic at n=%d", n)
		}
		if s.ScaledSpecialDamage(n) <= s.ScaledSpecialDamage(n-1) {
			t.Errorf("special damage not monotonic at n=%d", n)
		}
	}
}

// TestHasteCapped 急速线性增长但不超过上限
func TestHasteCapped(t *testing.T) {
	s, _ := newTestBossSystem()

	if got := s.HasteFor(1); got != 0 {
		t.Errorf("HasteFor(1): got %v, want 0", got)
	}
	if got := s.HasteFor(3); math.Abs(got-0.16) > 1e-9 {
		t.Errorf("HasteFor(3): got %v, want 0.16", got)
	}
	// 0.08×(n−1) 在 n=7 时已过 0.45 上限
	for n := 7; n <= 20; n++ {
		if got := s.HasteFor(n); got != 0.45 {
			t.Errorf("HasteFor(%d): got %v, want cap 0.45", n, got)
		}
	}
}

// TestSingleBossInvariant 存活 Boss 未清理前再次生成被拒绝
func TestSingleBossInvariant(t *testing.T) {
	s, _ := newTestBossSystem()

	if !s.Spawn(100, 100) {
		t.Fatal("first spawn must succeed")
	}
	if s.Spawn(200, 200) {
		t.Error("second spawn must be rejected while a boss lives")
	}
	if s.SpawnCount() != 1 {
		t.Errorf("spawn count: got %d, want 1", s.SpawnCount())
	}
}

// TestTelegraphGatesTargeting 预警期间 Boss 不挂到上下文（不可作为炮塔目标），
// 进入战斗状态后挂载
func TestTelegraphGatesTargeting(t *testing.T) {
	tuning := config.DefaultBossTuning()
	ctx := newTestContext()
	s := NewBossSystem(tuning, ctx, 1)
	reg := newFakeRegistry()

	s.Spawn(100, 100)
	if ctx.ActiveBoss() != nil {
		t.Fatal("boss must not be targetable during telegraph")
	}

	advanceToActive(t, s, reg)
	if ctx.ActiveBoss() == nil {
		t.Fatal("boss must be targetable once active")
	}
}

// TestPhaseMonotonicAndHPClamp 血量门槛单调升阶，血量钳制在 [0, MaxHP]
func TestPhaseMonotonicAndHPClamp(t *testing.T) {
	s, reg := newTestBossSystem()
	s.Spawn(100, 100)
	advanceToActive(t, s, reg)
	b := s.Boss()

	// 打到 60%：跨过 70% 门槛 → 阶段 2
	s.ApplyDamage(b.MaxHP * 0.4)
	s.Update(16.7, reg)
	if b.Phase != 2 {
		t.Fatalf("phase after dropping below 70%%: got %d, want 2", b.Phase)
	}

	// 负伤害不生效
	s.ApplyDamage(-50)
	if b.HP != b.MaxHP*0.6 {
		t.Errorf("negative damage must be ignored, hp=%.0f", b.HP)
	}

	// 打到 30%：跨过 40% 门槛 → 阶段 3，且不会回落
	s.ApplyDamage(b.MaxHP * 0.3)
	s.Update(16.7, reg)
	if b.Phase != 3 {
		t.Fatalf("phase after dropping below 40%%: got %d, want 3", b.Phase)
	}
	for i := 0; i < 10; i++ {
		s.Update(16.7, reg)
	}
	if b.Phase != 3 {
		t.Errorf("phase must never decrease, got %d", b.Phase)
	}
}

// TestDefeatFiresExactlyOnce 死亡回调恰好一次，实例随后被丢弃并清除挂载
func TestDefeatFiresExactlyOnce(t *testing.T) {
	tuning := config.DefaultBossTuning()
	ctx := newTestContext()
	s := NewBossSystem(tuning, ctx, 1)
	reg := newFakeRegistry()

	defeats := 0
	s.OnDefeated(func() { defeats++ })

	s.Spawn(100, 100)
	advanceToActive(t, s, reg)

	s.ApplyDamage(1e9)
	s.ApplyDamage(1e9) // 死后追加伤害不生效
	if defeats != 1 {
		t.Fatalf("defeat callbacks: got %d, want 1", defeats)
	}
	if s.Boss().HP != 0 {
		t.Errorf("hp must clamp to 0, got %.0f", s.Boss().HP)
	}

	s.Update(16.7, reg)
	if s.Boss() != nil {
		t.Error("boss instance must be discarded after death")
	}
	if ctx.ActiveBoss() != nil {
		t.Error("context boss handle must be cleared after death")
	}

	// 清理完成后允许下一次遭遇
	if !s.Spawn(50, 50) {
		t.Error("spawn after cleanup must succeed")
	}
	if s.SpawnCount() != 2 {
		t.Errorf("spawn count: got %d, want 2", s.SpawnCount())
	}
}

// TestSpecialAttackCycle 蓄力 → 站定引导 → 引爆 → 双标志复位
func TestSpecialAttackCycle(t *testing.T) {
	tuning := config.DefaultBossTuning()
	ctx := newTestContext()
	s := NewBossSystem(tuning, ctx, 1)
	reg := newFakeRegistry()

	// 玩家紧贴 Boss，引爆必中；拉开接触判定由另一测试覆盖
	s.Spawn(ctx.Player.X+10, ctx.Player.Y)
	advanceToActive(t, s, reg)
	b := s.Boss()

	hpBefore := ctx.Player.HP
	for i := 0; i < 1000 && !b.SpecialReady; i++ {
		s.Update(16.7, reg)
	}
	if !b.SpecialReady {
		t.Fatal("special never became ready")
	}

	// 引导期间站定：位置不变
	x, y := b.X, b.Y
	s.Update(16.7, reg)
	if b.X != x || b.Y != y {
		t.Error("boss must stand still during special telegraph")
	}

	for i := 0; i < 200 && b.SpecialReady; i++ {
		s.Update(16.7, reg)
	}
	if b.SpecialReady || b.SpecialChargeMs != 0 {
		t.Error("both special flags must reset after detonation")
	}
	if ctx.Player.HP >= hpBefore {
		t.Error("player in range must take special damage")
	}
}

// TestContactDamageCooldown 接触伤害在滚动冷却内至多结算一次，并对称击退
func TestContactDamageCooldown(t *testing.T) {
	tuning := config.DefaultBossTuning()
	// 拉长特殊攻击周期，避免干扰接触判定
	tuning.SpecialChargeMs = 1e9
	ctx := newTestContext()
	s := NewBossSystem(tuning, ctx, 1)
	reg := newFakeRegistry()

	s.Spawn(ctx.Player.X+10, ctx.Player.Y)
	advanceToActive(t, s, reg)

	hp0 := ctx.Player.HP
	s.Update(16.7, reg)
	hp1 := ctx.Player.HP
	if hp1 >= hp0 {
		t.Fatal("contact damage must apply on overlap")
	}
	if ctx.Player.KnockbackVX == 0 && ctx.Player.KnockbackVY == 0 {
		t.Error("player must receive knockback")
	}

	// 冷却未过，连续帧不再结算
	s.Update(16.7, reg)
	s.Update(16.7, reg)
	if ctx.Player.HP != hp1 {
		t.Errorf("contact damage applied inside cooldown: hp %v -> %v", hp1, ctx.Player.HP)
	}
}

// TestMinionsJoinViaCallback 召唤的小怪通过回调逐个通知
func TestMinionsJoinViaCallback(t *testing.T) {
	tuning := config.DefaultBossTuning()
	tuning.MinionChance = 1.0 // 每次攻击波必定召唤
	ctx := newTestContext()
	// 玩家拉远，避免接触伤害噪音
	ctx.Player.X = 5000
	s := NewBossSystem(tuning, ctx, 1)
	reg := newFakeRegistry()

	minions := 0
	s.OnMinionSpawned(func(e *game.Enemy) {
		if e == nil {
			t.Error("minion callback must carry the enemy")
		}
		minions++
	})

	s.Spawn(100, 100)
	advanceToActive(t, s, reg)

	for i := 0; i < 1000 && minions == 0; i++ {
		s.Update(16.7, reg)
	}
	if minions != tuning.MinionCount {
		t.Errorf("minions per wave: got %d, want %d", minions, tuning.MinionCount)
	}
}
