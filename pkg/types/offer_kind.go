package types

// OfferKind 定义商店卡片的类别
//
// 类别决定购买后的效果分发路径，也决定卡片在注入替换时的优先级
// （perk > bonus > passive > 最后一个槽位）
type OfferKind string

const (
	// OfferWeapon 武器卡（解锁新武器或升级已有武器）
	OfferWeapon OfferKind = "weapon"

	// OfferPassive 被动卡（解锁或升级被动加成）
	OfferPassive OfferKind = "passive"

	// OfferTurret 炮塔卡（模式专属：触发炮塔放置流程）
	OfferTurret OfferKind = "turret"

	// OfferPerk 特长卡（一次性小额加成）
	OfferPerk OfferKind = "perk"

	// OfferBonus 补给卡（回血、废料包等兜底卡）
	OfferBonus OfferKind = "bonus"
)

// IsKnownOfferKind 检查卡片类别是否合法
func IsKnownOfferKind(k OfferKind) bool {
	switch k {
	case OfferWeapon, OfferPassive, OfferTurret, OfferPerk, OfferBonus:
		return true
	}
	return false
}
