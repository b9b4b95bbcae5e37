package systems

import (
	"fmt"
	"log"
	"time"

	"github.com/gonewx/laststand/pkg/config"
	"github.com/gonewx/laststand/pkg/game"
	"github.com/gonewx/laststand/pkg/types"
)

// 商店参数
const (
	// ShopGuaranteeMinCount 触发类别保底的最小刷新张数
	// 张数达到该值时保证两张武器槽 + 两张被动槽
	ShopGuaranteeMinCount = 4

	// ClassWeaponBasePrice 职业武器卡的基础价格
	ClassWeaponBasePrice = 50

	// ClassWeaponPricePerLevel 职业武器卡随玩家等级的加价
	ClassWeaponPricePerLevel = 12
)

// Offer 一张可购买的商店卡
//
// Offer 是临时对象：每次刷新从目录重新生成，ID 在单次刷新内唯一。
// 一次性卡购买后在同一次商店访问内不会再次生效
type Offer struct {
	ID     string
	Kind   types.OfferKind
	Price  int
	Weight float64

	WeaponID  string // kind=weapon
	PassiveID string // kind=passive

	StatID    string  // kind=perk / bonus
	StatValue float64

	TurretSpecID string // kind=turret
	UtilityID    string // 模式专属工具卡标识（如 "gate_upgrade"）

	OneShot bool
}

// EffectSink 购买效果的窄回调契约
//
// 商店只负责校验与扣费，效果落地交给外部协作者；
// 效果失败转换为 false 的购买结果，已扣的费用不回退
type EffectSink interface {
	GrantWeapon(weaponID string) error
	GrantPassive(passiveID string) error
	ApplyStatBonus(statID string, value float64) error
	PlaceTurret(specID string) error
	ApplyModeUtility(utilityID string) error
}

// shopRand 确定性线性同余生成器
//
// 按次播种以支持可复现的刷新（测试依赖同种子同结果）
type shopRand struct {
	state uint32
}

func newShopRand(seed int64) *shopRand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &shopRand{state: uint32(seed)}
}

// Float64 返回 [0, 1) 内的伪随机数
func (r *shopRand) Float64() float64 {
	r.state = r.state*1664525 + 1013904223
	return float64(r.state>>8) / float64(1<<24)
}

// UtilityProvider 模式专属工具卡提供者
// 由模式控制器注入，返回当前可售的工具卡（如动态定价的炮塔放置卡）
type UtilityProvider func() []Offer

// ShopSystem 商店/经济系统
//
// 职责：
//   - 加载商店目录（失败时使用兜底目录）
//   - 按权重从目录抽样生成本次刷新的卡组，
//     应用持有上限、武器白名单与进化门槛过滤
//   - 张数足够时保底两张武器槽 + 两张被动槽（无放回抽样）
//   - 注入职业武器卡与模式专属工具卡（动态定价）
//   - 购买时复核上限、扣费并经 EffectSink 分发效果
type ShopSystem struct {
	catalog *config.ShopCatalog

	utilityProvider UtilityProvider

	// purchasedOneShots 本次商店访问内已购买的一次性卡
	purchasedOneShots map[string]bool
}

// NewShopSystem 创建商店系统（使用兜底目录，可随后 Load 覆盖）
func NewShopSystem() *ShopSystem {
	return &ShopSystem{
		catalog:           config.FallbackShopCatalog(),
		purchasedOneShots: make(map[string]bool),
	}
}

// Load 加载商店目录
//
// 加载失败不是致命错误：记录日志并保留兜底目录
func (s *ShopSystem) Load(filepath string) {
	catalog, err := config.LoadShopCatalog(filepath)
	if err != nil {
		log.Printf("[ShopSystem] Failed to load shop catalog: %v (using fallback catalog)", err)
		return
	}
	log.Printf("[ShopSystem] Loaded shop catalog: %d items", len(catalog.Items))
	s.catalog = catalog
}

// UseCatalog 直接注入目录（测试用）
func (s *ShopSystem) UseCatalog(catalog *config.ShopCatalog) {
	s.catalog = catalog
}

// SetUtilityProvider 注入模式专属工具卡提供者
func (s *ShopSystem) SetUtilityProvider(fn UtilityProvider) {
	s.utilityProvider = fn
}

// BeginVisit 开始一次商店访问
// 清空一次性卡的已购集合（跨波次不累计）
func (s *ShopSystem) BeginVisit() {
	s.purchasedOneShots = make(map[string]bool)
}

// RollOffers 生成一次商店刷新
//
// 执行流程：
//  1. 按装备状态过滤目录（白名单、持有上限、进化门槛、已购一次性卡）
//  2. count >= 4 时保底：武器池与被动池各做两次加权无放回抽样
//  3. 剩余槽位从通用池加权无放回填充，耗尽后从 perk/bonus 次级池填充
//  4. 注入职业武器卡与模式工具卡：有空位则追加，
//     否则按 perk > bonus > passive > 末位 的优先序替换现有卡
//
// 参数：
//
//	count - 期望的卡数
//	seed - 随机种子（0 表示使用当前时间；相同种子产生相同刷新）
//	lo - 当前装备视图
func (s *ShopSystem) RollOffers(count int, seed int64, lo *game.Loadout) []Offer {
	if count <= 0 || lo == nil {
		return nil
	}
	rng := newShopRand(seed)

	eligible := s.filterCatalog(lo)

	var weaponPool, passivePool, secondaryPool []config.CatalogItem
	generalPool := make([]config.CatalogItem, 0, len(eligible))
	for _, item := range eligible {
		switch item.Kind {
		case types.OfferWeapon:
			weaponPool = append(weaponPool, item)
			generalPool = append(generalPool, item)
		case types.OfferPassive:
			passivePool = append(passivePool, item)
			generalPool = append(generalPool, item)
		case types.OfferPerk, types.OfferBonus:
			secondaryPool = append(secondaryPool, item)
		default:
			generalPool = append(generalPool, item)
		}
	}

	offers := make([]Offer, 0, count)
	taken := make(map[string]bool)

	pick := func(pool []config.CatalogItem) ([]config.CatalogItem, bool) {
		item, rest, ok := weightedDraw(rng, pool, taken)
		if !ok {
			return pool, false
		}
		taken[item.ID] = true
		offers = append(offers, offerFromItem(item))
		return rest, true
	}

	// 类别保底：两张武器槽 + 两张被动槽
	if count >= ShopGuaranteeMinCount {
		for i := 0; i < 2 && len(offers) < count; i++ {
			weaponPool, _ = pick(weaponPool)
		}
		for i := 0; i < 2 && len(offers) < count; i++ {
			passivePool, _ = pick(passivePool)
		}
	}

	// 通用池填充，耗尽后退到 perk/bonus 次级池
	for len(offers) < count {
		var ok bool
		if generalPool, ok = pick(generalPool); ok {
			continue
		}
		if secondaryPool, ok = pick(secondaryPool); ok {
			continue
		}
		break
	}

	s.injectClassWeapon(&offers, count, lo)
	s.injectUtilityCards(&offers, count)

	return offers
}

// filterCatalog 按装备状态过滤目录
//
// 过滤规则：
//   - 武器卡须在本局白名单内（白名单为空则不限制）
//   - 武器种类达到上限后，只保留已持有武器的升级卡
//   - 已达等级上限的武器/被动不再出现
//   - 进化武器须基础武器达标且持有前置被动
//   - 被动卡同样适用上限与升级限定规则
//   - 本次访问内已购买的一次性卡不再出现
func (s *ShopSystem) filterCatalog(lo *game.Loadout) []config.CatalogItem {
	out := make([]config.CatalogItem, 0, len(s.catalog.Items))
	for _, item := range s.catalog.Items {
		if item.OneShot && s.purchasedOneShots[item.ID] {
			continue
		}

		switch item.Kind {
		case types.OfferWeapon:
			if !lo.WeaponAllowed(item.WeaponID) {
				continue
			}
			level := lo.WeaponLevel(item.WeaponID)
			if level == 0 && lo.UniqueWeaponCount() >= game.MaxUniqueWeapons {
				continue
			}
			if level >= game.MaxWeaponLevel {
				continue
			}
			if item.EvolvesFrom != "" {
				if lo.WeaponLevel(item.EvolvesFrom) < item.MinBaseLevel {
					continue
				}
				if item.RequiresPassive != "" && !lo.HasPassive(item.RequiresPassive) {
					continue
				}
			}
		case types.OfferPassive:
			level := lo.Passives[item.PassiveID]
			if level == 0 && lo.UniquePassiveCount() >= game.MaxUniquePassives {
				continue
			}
			if level >= game.MaxPassiveLevel {
				continue
			}
		}

		out = append(out, item)
	}
	return out
}

// injectClassWeapon 注入保底的职业武器卡
//
// 价格随玩家等级动态上浮；职业武器已达等级上限时不注入
func (s *ShopSystem) injectClassWeapon(offers *[]Offer, count int, lo *game.Loadout) {
	if lo.ClassWeaponID == "" {
		return
	}
	if lo.WeaponLevel(lo.ClassWeaponID) >= game.MaxWeaponLevel {
		return
	}
	for _, o := range *offers {
		if o.Kind == types.OfferWeapon && o.WeaponID == lo.ClassWeaponID {
			return // 本次刷新已自然抽中
		}
	}

	card := Offer{
		ID:       "class_" + lo.ClassWeaponID,
		Kind:     types.OfferWeapon,
		Price:    ClassWeaponBasePrice + ClassWeaponPricePerLevel*(lo.Level-1),
		Weight:   1,
		WeaponID: lo.ClassWeaponID,
	}
	spliceOffer(offers, count, card)
}

// injectUtilityCards 注入模式专属工具卡（动态定价由提供者负责）
func (s *ShopSystem) injectUtilityCards(offers *[]Offer, count int) {
	if s.utilityProvider == nil {
		return
	}
	for _, card := range s.utilityProvider() {
		duplicate := false
		for _, o := range *offers {
			if o.ID == card.ID {
				duplicate = true
				break
			}
		}
		if !duplicate {
			spliceOffer(offers, count, card)
		}
	}
}

// spliceOffer 把注入卡并入结果
//
// 有空位则追加；否则按 perk > bonus > passive > 末位 的优先序
// 替换最低优先级的现有卡
func spliceOffer(offers *[]Offer, count int, card Offer) {
	if len(*offers) < count {
		*offers = append(*offers, card)
		return
	}

	for _, kind := range []types.OfferKind{types.OfferPerk, types.OfferBonus, types.OfferPassive} {
		for i := range *offers {
			if (*offers)[i].Kind == kind {
				(*offers)[i] = card
				return
			}
		}
	}
	(*offers)[len(*offers)-1] = card
}

// Purchase 购买一张卡
//
// 执行流程：
//  1. 一次性卡在本次访问内已购买则拒绝
//  2. 复核模式上限（刷新后状态可能已变化，不能只信刷新时的过滤）
//  3. 扣费：消耗免费代币或从账本扣除（余额不足即失败，不产生负数）
//  4. 经 EffectSink 按类别分发效果；效果失败返回 false，已扣费用不回退
//
// 返回 false 表示购买未发生或效果未落地
func (s *ShopSystem) Purchase(offer Offer, lo *game.Loadout, ledger *game.CurrencyLedger, useFreeToken bool, sink EffectSink) bool {
	if sink == nil || lo == nil || ledger == nil {
		return false
	}
	if offer.OneShot && s.purchasedOneShots[offer.ID] {
		return false
	}

	// 购买时复核上限
	switch offer.Kind {
	case types.OfferWeapon:
		level := lo.WeaponLevel(offer.WeaponID)
		if level == 0 && lo.UniqueWeaponCount() >= game.MaxUniqueWeapons {
			return false
		}
		if level >= game.MaxWeaponLevel {
			return false
		}
	case types.OfferPassive:
		level := lo.Passives[offer.PassiveID]
		if level == 0 && lo.UniquePassiveCount() >= game.MaxUniquePassives {
			return false
		}
		if level >= game.MaxPassiveLevel {
			return false
		}
	}

	if useFreeToken {
		if !ledger.ConsumeFreeToken() {
			return false
		}
	} else if !ledger.Spend(offer.Price) {
		return false
	}

	// 扣费之后的失败不回退（先校验后扣费，效果尽力而为）
	if err := s.applyEffect(offer, sink); err != nil {
		log.Printf("[ShopSystem] Purchase effect failed for %s: %v", offer.ID, err)
		return false
	}

	if offer.OneShot {
		s.purchasedOneShots[offer.ID] = true
	}
	log.Printf("[ShopSystem] Purchased %s (kind=%s, price=%d, freeToken=%v)", offer.ID, offer.Kind, offer.Price, useFreeToken)
	return true
}

// applyEffect 按卡类别分发购买效果
// 带工具标识的卡优先走模式工具通道（类别只决定其刷新与替换行为）
func (s *ShopSystem) applyEffect(offer Offer, sink EffectSink) error {
	if offer.UtilityID != "" {
		return sink.ApplyModeUtility(offer.UtilityID)
	}

	switch offer.Kind {
	case types.OfferWeapon:
		return sink.GrantWeapon(offer.WeaponID)
	case types.OfferPassive:
		return sink.GrantPassive(offer.PassiveID)
	case types.OfferPerk, types.OfferBonus:
		return sink.ApplyStatBonus(offer.StatID, offer.StatValue)
	case types.OfferTurret:
		return sink.PlaceTurret(offer.TurretSpecID)
	default:
		return fmt.Errorf("unknown offer kind %q", offer.Kind)
	}
}

// offerFromItem 从目录卡生成本次刷新的 Offer
func offerFromItem(item config.CatalogItem) Offer {
	return Offer{
		ID:        item.ID,
		Kind:      item.Kind,
		Price:     item.Price,
		Weight:    item.Weight,
		WeaponID:  item.WeaponID,
		PassiveID: item.PassiveID,
		StatID:    item.StatID,
		StatValue: item.StatValue,
		OneShot:   item.OneShot,
	}
}

// weightedDraw 从池中做一次加权无放回抽样
//
// 跳过已被取走的卡；返回抽中的卡与剩余的池。
// 池空（或全部已取走）时第三个返回值为 false
func weightedDraw(rng *shopRand, pool []config.CatalogItem, taken map[string]bool) (config.CatalogItem, []config.CatalogItem, bool) {
	total := 0.0
	for _, item := range pool {
		if taken[item.ID] {
			continue
		}
		total += item.Weight
	}
	if total <= 0 {
		return config.CatalogItem{}, pool, false
	}

	roll := rng.Float64() * total
	for i, item := range pool {
		if taken[item.ID] {
			continue
		}
		roll -= item.Weight
		if roll < 0 {
			rest := make([]config.CatalogItem, 0, len(pool)-1)
			rest = append(rest, pool[:i]...)
			rest = append(rest, pool[i+1:]...)
			return item, rest, true
		}
	}
	return config.CatalogItem{}, pool, false
}
