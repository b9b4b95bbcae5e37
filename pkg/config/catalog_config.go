package config

import (
	"fmt"
	"os"

	"github.com/gonewx/laststand/pkg/types"
	"gopkg.in/yaml.v3"
)

// CatalogItem 商店目录中的一张卡
//
// 卡是目录数据；每次商店刷新从目录经过过滤与加权抽样
// 生成临时的 Offer（见 systems.Offer）
type CatalogItem struct {
	ID     string          `yaml:"id"`     // 卡ID，目录内唯一
	Kind   types.OfferKind `yaml:"kind"`   // 类别：weapon / passive / turret / perk / bonus
	Price  int             `yaml:"price"`  // 基础价格（废料）
	Weight float64         `yaml:"weight"` // 抽样权重（> 0）

	// 武器卡字段
	WeaponID string `yaml:"weaponId"` // 对应武器ID（kind=weapon 必填）

	// 进化武器门槛：EvolvesFrom 非空表示这是进化形态，
	// 需要基础武器达到 MinBaseLevel 且持有 RequiresPassive
	EvolvesFrom     string `yaml:"evolvesFrom"`
	MinBaseLevel    int    `yaml:"minBaseLevel"`
	RequiresPassive string `yaml:"requiresPassive"`

	// 被动卡字段
	PassiveID string `yaml:"passiveId"` // 对应被动ID（kind=passive 必填）

	// perk / bonus 卡字段
	StatID    string  `yaml:"statId"`    // 加成的属性ID（如 "max_hp", "move_speed"）
	StatValue float64 `yaml:"statValue"` // 加成数值（平坦加成）

	// OneShot 一次性卡：同一次商店访问内购买后不可再次购买
	OneShot bool `yaml:"oneShot"`
}

// ShopCatalog 商店目录
type ShopCatalog struct {
	Items []CatalogItem `yaml:"items"`
}

// LoadShopCatalog 从YAML文件加载商店目录
//
// 参数：
//
//	filepath - 目录配置文件的路径
//
// 返回：
//
//	*ShopCatalog - 解析后的目录
//	error - 如果文件读取、解析或校验失败，返回错误信息
func LoadShopCatalog(filepath string) (*ShopCatalog, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read shop catalog file %s: %w", filepath, err)
	}

	var catalog ShopCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse shop catalog YAML from %s: %w", filepath, err)
	}

	if err := validateShopCatalog(&catalog); err != nil {
		return nil, fmt.Errorf("invalid shop catalog in %s: %w", filepath, err)
	}

	return &catalog, nil
}

// FallbackShopCatalog 返回硬编码的兜底商店目录
//
// 目录加载失败时使用，内容确定性，便于测试
func FallbackShopCatalog() *ShopCatalog {
	return &ShopCatalog{Items: []CatalogItem{
		// 武器卡
		{ID: "weapon_pistol", Kind: types.OfferWeapon, WeaponID: "pistol", Price: 40, Weight: 10},
		{ID: "weapon_smg", Kind: types.OfferWeapon, WeaponID: "smg", Price: 60, Weight: 8},
		{ID: "weapon_shotgun", Kind: types.OfferWeapon, WeaponID: "shotgun", Price: 70, Weight: 8},
		{ID: "weapon_crossbow", Kind: types.OfferWeapon, WeaponID: "crossbow", Price: 80, Weight: 6},
		{ID: "weapon_flamer", Kind: types.OfferWeapon, WeaponID: "flamer", Price: 90, Weight: 5},
		// 进化武器：等离子步枪，需要 smg 达到 5 级并持有能量核心
		{
			ID: "weapon_plasma_rifle", Kind: types.OfferWeapon, WeaponID: "plasma_rifle",
			Price: 160, Weight: 3,
			EvolvesFrom: "smg", MinBaseLevel: 5, RequiresPassive: "power_cell",
		},

		// 被动卡
		{ID: "passive_armor", Kind: types.OfferPassive, PassiveID: "armor", Price: 50, Weight: 9},
		{ID: "passive_boots", Kind: types.OfferPassive, PassiveID: "boots", Price: 45, Weight: 9},
		{ID: "passive_magnet", Kind: types.OfferPassive, PassiveID: "magnet", Price: 55, Weight: 7},
		{ID: "passive_power_cell", Kind: types.OfferPassive, PassiveID: "power_cell", Price: 65, Weight: 6},
		{ID: "passive_scope", Kind: types.OfferPassive, PassiveID: "scope", Price: 60, Weight: 6},

		// 特长卡（一次性小额加成）
		{ID: "perk_max_hp", Kind: types.OfferPerk, StatID: "max_hp", StatValue: 20, Price: 35, Weight: 5, OneShot: true},
		{ID: "perk_move_speed", Kind: types.OfferPerk, StatID: "move_speed", StatValue: 0.05, Price: 35, Weight: 5, OneShot: true},
		{ID: "perk_crit", Kind: types.OfferPerk, StatID: "crit_chance", StatValue: 0.03, Price: 40, Weight: 4, OneShot: true},

		// 补给卡（兜底）
		{ID: "bonus_heal", Kind: types.OfferBonus, StatID: "heal", StatValue: 50, Price: 25, Weight: 3, OneShot: true},
		{ID: "bonus_scrap", Kind: types.OfferBonus, StatID: "scrap", StatValue: 30, Price: 0, Weight: 2, OneShot: true},
	}}
}

// validateShopCatalog 验证目录的完整性和合法性
func validateShopCatalog(catalog *ShopCatalog) error {
	if len(catalog.Items) == 0 {
		return fmt.Errorf("at least one catalog item is required")
	}

	seen := make(map[string]bool, len(catalog.Items))
	for i, item := range catalog.Items {
		if item.ID == "" {
			return fmt.Errorf("item %d: id is required", i)
		}
		if seen[item.ID] {
			return fmt.Errorf("item %d: duplicate id %q", i, item.ID)
		}
		seen[item.ID] = true

		if !types.IsKnownOfferKind(item.Kind) {
			return fmt.Errorf("item %s: unknown kind %q", item.ID, item.Kind)
		}
		if item.Price < 0 {
			return fmt.Errorf("item %s: price cannot be negative", item.ID)
		}
		if item.Weight <= 0 {
			return fmt.Errorf("item %s: weight must be positive, got %v", item.ID, item.Weight)
		}

		switch item.Kind {
		case types.OfferWeapon:
			if item.WeaponID == "" {
				return fmt.Errorf("item %s: weaponId is required for weapon cards", item.ID)
			}
			if item.EvolvesFrom != "" && item.MinBaseLevel < 1 {
				return fmt.Errorf("item %s: evolved weapon needs minBaseLevel >= 1", item.ID)
			}
		case types.OfferPassive:
			if item.PassiveID == "" {
				return fmt.Errorf("item %s: passiveId is required for passive cards", item.ID)
			}
		}
	}

	return nil
}
