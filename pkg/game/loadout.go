package game

// 装备数量上限
const (
	// MaxUniqueWeapons 同时持有的武器种类上限
	// 达到上限后商店只会出现已持有武器的升级卡
	MaxUniqueWeapons = 3

	// MaxUniquePassives 同时持有的被动种类上限
	MaxUniquePassives = 3

	// MaxWeaponLevel 单件武器的等级上限
	MaxWeaponLevel = 8

	// MaxPassiveLevel 单个被动的等级上限
	MaxPassiveLevel = 5
)

// Loadout 玩家装备与进度视图
//
// 商店系统据此过滤候选卡并在购买时复核上限；
// 武器/被动的具体数值曲线是外部数据，引擎只管理等级与种类
type Loadout struct {
	Weapons  map[string]int // 武器ID -> 等级（1 起）
	Passives map[string]int // 被动ID -> 等级（1 起）

	// AllowedWeapons 本局允许出现的武器集合；
	// 为空表示不限制
	AllowedWeapons map[string]bool

	// ClassWeaponID 职业武器ID（商店保底注入的卡）
	ClassWeaponID string

	Level int // 玩家当前等级（影响职业武器卡动态定价）
}

// NewLoadout 创建空装备视图
func NewLoadout() *Loadout {
	return &Loadout{
		Weapons:        make(map[string]int),
		Passives:       make(map[string]int),
		AllowedWeapons: make(map[string]bool),
		Level:          1,
	}
}

// UniqueWeaponCount 返回持有的武器种类数
func (lo *Loadout) UniqueWeaponCount() int {
	return len(lo.Weapons)
}

// UniquePassiveCount 返回持有的被动种类数
func (lo *Loadout) UniquePassiveCount() int {
	return len(lo.Passives)
}

// WeaponLevel 返回武器等级，未持有返回 0
func (lo *Loadout) WeaponLevel(id string) int {
	return lo.Weapons[id]
}

// HasPassive 返回是否持有指定被动
func (lo *Loadout) HasPassive(id string) bool {
	return lo.Passives[id] > 0
}

// WeaponAllowed 返回武器是否在本局允许集合内
func (lo *Loadout) WeaponAllowed(id string) bool {
	if len(lo.AllowedWeapons) == 0 {
		return true
	}
	return lo.AllowedWeapons[id]
}

// GrantWeapon 解锁或升级武器
//
// 返回 false 的情况：未持有且武器种类已达上限，或已达等级上限
func (lo *Loadout) GrantWeapon(id string) bool {
	level, owned := lo.Weapons[id]
	if !owned {
		if lo.UniqueWeaponCount() >= MaxUniqueWeapons {
			return false
		}
		lo.Weapons[id] = 1
		return true
	}
	if level >= MaxWeaponLevel {
		return false
	}
	lo.Weapons[id] = level + 1
	return true
}

// GrantPassive 解锁或升级被动
//
// 返回 false 的情况：未持有且被动种类已达上限，或已达等级上限
func (lo *Loadout) GrantPassive(id string) bool {
	level, owned := lo.Passives[id]
	if !owned {
		if lo.UniquePassiveCount() >= MaxUniquePassives {
			return false
		}
		lo.Passives[id] = 1
		return true
	}
	if level >= MaxPassiveLevel {
		return false
	}
	lo.Passives[id] = level + 1
	return true
}
