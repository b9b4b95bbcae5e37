package systems

import (
	"fmt"
	"testing"

	"github.com/gonewx/laststand/pkg/game"
	"github.com/gonewx/laststand/pkg/types"
)

// recordingSink 记录效果分发的 EffectSink
type recordingSink struct {
	weapons   []string
	passives  []string
	stats     map[string]float64
	turrets   []string
	utilities []string

	failAll bool
}

func newRecordingSink() *recordingSink {
	return &recordingSink{stats: make(map[string]float64)}
}

func (s *recordingSink) GrantWeapon(weaponID string) error {
	if s.failAll {
		return fmt.Errorf("sink failure")
	}
	s.weapons = append(s.weapons, weaponID)
	return nil
}

func (s *recordingSink) GrantPassive(passiveID string) error {
	if s.failAll {
		return fmt.Errorf("sink failure")
	}
	s.passives = append(s.passives, passiveID)
	return nil
}

func (s *recordingSink) ApplyStatBonus(statID string, value float64) error {
	if s.failAll {
		return fmt.Errorf("sink failure")
	}
	s.stats[statID] += value
	return nil
}

func (s *recordingSink) PlaceTurret(specID string) error {
	if s.failAll {
		return fmt.Errorf("sink failure")
	}
	s.turrets = append(s.turrets, specID)
	return nil
}

func (s *recordingSink) ApplyModeUtility(utilityID string) error {
	if s.failAll {
		return fmt.Errorf("sink failure")
	}
	s.utilities = append(s.utilities, utilityID)
	return nil
}

// TestRollReproducible 相同种子产生相同的刷新结果
func TestRollReproducible(t *testing.T) {
	shop := NewShopSystem()
	lo := game.NewLoadout()

	a := shop.RollOffers(5, 12345, lo)
	b := shop.RollOffers(5, 12345, lo)

	if len(a) != len(b) {
		t.Fatalf("roll lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Errorf("offer %d differs: %s vs %s", i, a[i].ID, b[i].ID)
		}
	}
}

// TestRollUniqueIDs 单次刷新内卡ID唯一
func TestRollUniqueIDs(t *testing.T) {
	shop := NewShopSystem()
	lo := game.NewLoadout()

	for seed := int64(1); seed <= 20; seed++ {
		offers := shop.RollOffers(6, seed, lo)
		seen := make(map[string]bool)
		for _, o := range offers {
			if seen[o.ID] {
				t.Fatalf("seed %d: duplicate offer id %s", seed, o.ID)
			}
			seen[o.ID] = true
		}
	}
}

// TestCategoryGuarantees 张数足够时保底两张武器 + 两张被动
func TestCategoryGuarantees(t *testing.T) {
	shop := NewShopSystem()
	lo := game.NewLoadout()

	for seed := int64(1); seed <= 20; seed++ {
		offers := shop.RollOffers(5, seed, lo)
		weapons, passives := 0, 0
		for _, o := range offers {
			switch o.Kind {
			case types.OfferWeapon:
				weapons++
			case types.OfferPassive:
				passives++
			}
		}
		if weapons < 2 {
			t.Errorf("seed %d: weapon guarantee broken, got %d", seed, weapons)
		}
		if passives < 2 {
			t.Errorf("seed %d: passive guarantee broken, got %d", seed, passives)
		}
	}
}

// TestWeaponCapEnforcement 持有三种武器后不再出现未持有武器的卡
func TestWeaponCapEnforcement(t *testing.T) {
	shop := NewShopSystem()
	lo := game.NewLoadout()
	lo.Weapons["pistol"] = 2
	lo.Weapons["smg"] = 1
	lo.Weapons["shotgun"] = 1

	for seed := int64(1); seed <= 50; seed++ {
		offers := shop.RollOffers(5, seed, lo)
		for _, o := range offers {
			if o.Kind != types.OfferWeapon {
				continue
			}
			if lo.WeaponLevel(o.WeaponID) == 0 {
				t.Fatalf("seed %d: new weapon %s offered at cap", seed, o.WeaponID)
			}
		}
	}
}

// TestAllowedWeaponFilter 白名单外的武器不会出现
func TestAllowedWeaponFilter(t *testing.T) {
	shop := NewShopSystem()
	lo := game.NewLoadout()
	lo.AllowedWeapons["pistol"] = true
	lo.AllowedWeapons["smg"] = true

	for seed := int64(1); seed <= 30; seed++ {
		for _, o := range shop.RollOffers(5, seed, lo) {
			if o.Kind == types.OfferWeapon && !lo.AllowedWeapons[o.WeaponID] {
				t.Fatalf("seed %d: weapon %s outside the allowed set", seed, o.WeaponID)
			}
		}
	}
}

// TestEvolutionGating 进化武器需要基础武器等级与前置被动
func TestEvolutionGating(t *testing.T) {
	shop := NewShopSystem()

	appears := func(lo *game.Loadout) bool {
		for seed := int64(1); seed <= 200; seed++ {
			for _, o := range shop.RollOffers(6, seed, lo) {
				if o.WeaponID == "plasma_rifle" {
					return true
				}
			}
		}
		return false
	}

	// 门槛未满足：基础武器等级不够
	lo := game.NewLoadout()
	lo.Weapons["smg"] = 4
	lo.Passives["power_cell"] = 1
	if appears(lo) {
		t.Error("evolved weapon offered below min base level")
	}

	// 门槛未满足：缺前置被动
	lo = game.NewLoadout()
	lo.Weapons["smg"] = 5
	if appears(lo) {
		t.Error("evolved weapon offered without required passive")
	}

	// 门槛满足
	lo = game.NewLoadout()
	lo.Weapons["smg"] = 5
	lo.Passives["power_cell"] = 1
	if !appears(lo) {
		t.Error("evolved weapon never offered with prerequisites met")
	}
}

// TestClassWeaponInjection 职业武器卡保底注入并随等级动态定价
func TestClassWeaponInjection(t *testing.T) {
	shop := NewShopSystem()
	lo := game.NewLoadout()
	lo.ClassWeaponID = "crossbow"
	lo.Level = 4

	offers := shop.RollOffers(5, 9, lo)
	found := false
	for _, o := range offers {
		if o.Kind == types.OfferWeapon && o.WeaponID == "crossbow" {
			found = true
			if o.ID == "class_crossbow" {
				want := ClassWeaponBasePrice + ClassWeaponPricePerLevel*3
				if o.Price != want {
					t.Errorf("class card price: got %d, want %d", o.Price, want)
				}
			}
		}
	}
	if !found {
		t.Error("class weapon card missing from roll")
	}
	if len(offers) > 5 {
		t.Errorf("injection must not grow the roll beyond count: %d", len(offers))
	}
}

// TestUtilityCardSplice 工具卡并入结果且不超出刷新张数；
// 替换优先吃掉 perk/bonus，武器保底不受影响
func TestUtilityCardSplice(t *testing.T) {
	shop := NewShopSystem()
	shop.SetUtilityProvider(func() []Offer {
		return []Offer{{ID: "utility_turret_mg", Kind: types.OfferTurret, Price: 100, TurretSpecID: "mg_turret"}}
	})
	lo := game.NewLoadout()

	offers := shop.RollOffers(5, 3, lo)
	found := false
	weapons := 0
	for _, o := range offers {
		switch o.Kind {
		case types.OfferTurret:
			found = true
		case types.OfferWeapon:
			weapons++
		}
	}
	if !found {
		t.Fatal("utility card missing from roll")
	}
	if len(offers) > 5 {
		t.Errorf("splice must not grow the roll: %d", len(offers))
	}
	if weapons < 2 {
		t.Errorf("utility splice displaced a guaranteed weapon slot: %d weapons", weapons)
	}
}

// TestPurchaseFlow 扣费、效果分发与失败关闭
func TestPurchaseFlow(t *testing.T) {
	shop := NewShopSystem()
	shop.BeginVisit()
	lo := game.NewLoadout()
	sink := newRecordingSink()

	offer := Offer{ID: "weapon_pistol", Kind: types.OfferWeapon, Price: 40, WeaponID: "pistol"}

	// 余额不足：失败且不分发
	ledger := game.NewCurrencyLedger(30)
	if shop.Purchase(offer, lo, ledger, false, sink) {
		t.Fatal("purchase must fail with insufficient balance")
	}
	if ledger.Balance() != 30 || len(sink.weapons) != 0 {
		t.Fatal("failed purchase must not spend or dispatch")
	}

	// 余额充足
	ledger.Add(20)
	if !shop.Purchase(offer, lo, ledger, false, sink) {
		t.Fatal("purchase must succeed with sufficient balance")
	}
	if ledger.Balance() != 10 {
		t.Errorf("balance after purchase: got %d, want 10", ledger.Balance())
	}
	if len(sink.weapons) != 1 || sink.weapons[0] != "pistol" {
		t.Errorf("weapon effect not dispatched: %v", sink.weapons)
	}
}

// TestPurchaseWithFreeToken 免费升级券抵扣一次购买
func TestPurchaseWithFreeToken(t *testing.T) {
	shop := NewShopSystem()
	shop.BeginVisit()
	lo := game.NewLoadout()
	sink := newRecordingSink()
	ledger := game.NewCurrencyLedger(0)

	offer := Offer{ID: "passive_armor", Kind: types.OfferPassive, Price: 50, PassiveID: "armor"}

	if shop.Purchase(offer, lo, ledger, true, sink) {
		t.Fatal("free-token purchase must fail with no tokens")
	}

	ledger.GrantFreeToken()
	if !shop.Purchase(offer, lo, ledger, true, sink) {
		t.Fatal("free-token purchase must succeed")
	}
	if ledger.FreeTokens() != 0 {
		t.Errorf("tokens after purchase: got %d, want 0", ledger.FreeTokens())
	}
	if ledger.Balance() != 0 {
		t.Errorf("balance must be untouched, got %d", ledger.Balance())
	}
}

// TestPurchaseRevalidatesCaps 刷新后状态变化时购买复核上限
func TestPurchaseRevalidatesCaps(t *testing.T) {
	shop := NewShopSystem()
	shop.BeginVisit()
	lo := game.NewLoadout()
	sink := newRecordingSink()
	ledger := game.NewCurrencyLedger(1000)

	offer := Offer{ID: "weapon_flamer", Kind: types.OfferWeapon, Price: 90, WeaponID: "flamer"}

	// 刷新之后玩家买满了三种武器
	lo.Weapons["pistol"] = 1
	lo.Weapons["smg"] = 1
	lo.Weapons["shotgun"] = 1

	if shop.Purchase(offer, lo, ledger, false, sink) {
		t.Fatal("purchase must re-check the weapon cap")
	}
	if ledger.Balance() != 1000 {
		t.Error("re-validation failure must not spend")
	}
}

// TestOneShotRepurchaseBlocked 一次性卡同一访问内不可重复购买
func TestOneShotRepurchaseBlocked(t *testing.T) {
	shop := NewShopSystem()
	shop.BeginVisit()
	lo := game.NewLoadout()
	sink := newRecordingSink()
	ledger := game.NewCurrencyLedger(1000)

	offer := Offer{ID: "perk_max_hp", Kind: types.OfferPerk, Price: 35, StatID: "max_hp", StatValue: 20, OneShot: true}

	if !shop.Purchase(offer, lo, ledger, false, sink) {
		t.Fatal("first one-shot purchase must succeed")
	}
	if shop.Purchase(offer, lo, ledger, false, sink) {
		t.Fatal("one-shot repurchase must be blocked within the visit")
	}
	if ledger.Balance() != 1000-35 {
		t.Errorf("balance: got %d, want %d", ledger.Balance(), 1000-35)
	}

	// 新的访问重置已购集合
	shop.BeginVisit()
	if !shop.Purchase(offer, lo, ledger, false, sink) {
		t.Error("one-shot must be purchasable again in the next visit")
	}
}

// TestEffectFailureNoRefund 效果失败返回 false 但不回退扣费
func TestEffectFailureNoRefund(t *testing.T) {
	shop := NewShopSystem()
	shop.BeginVisit()
	lo := game.NewLoadout()
	sink := newRecordingSink()
	sink.failAll = true
	ledger := game.NewCurrencyLedger(100)

	offer := Offer{ID: "weapon_pistol", Kind: types.OfferWeapon, Price: 40, WeaponID: "pistol"}

	if shop.Purchase(offer, lo, ledger, false, sink) {
		t.Fatal("purchase must report failure when the effect fails")
	}
	if ledger.Balance() != 60 {
		t.Errorf("spend must not be reverted: got %d, want 60", ledger.Balance())
	}
}

// TestSecondaryPoolFallback 通用池耗尽后从 perk/bonus 次级池补足
func TestSecondaryPoolFallback(t *testing.T) {
	shop := NewShopSystem()
	lo := game.NewLoadout()

	// 兜底目录有 6 张武器 + 5 张被动 = 11 张通用卡；
	// 刷新 14 张必然动用次级池
	offers := shop.RollOffers(14, 5, lo)
	secondary := 0
	for _, o := range offers {
		if o.Kind == types.OfferPerk || o.Kind == types.OfferBonus {
			secondary++
		}
	}
	if secondary == 0 {
		t.Error("secondary pool never used with the general pool exhausted")
	}
}
