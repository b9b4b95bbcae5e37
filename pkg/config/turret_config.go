package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WeaponProfile 底层武器档案
//
// 炮塔规格通过 weaponId 映射到武器档案，
// 由档案给出基础伤害、射速、齐射数与散布
type WeaponProfile struct {
	ID              string  `yaml:"id"`              // 武器ID
	Damage          float64 `yaml:"damage"`          // 单发基础伤害
	CooldownS       float64 `yaml:"cooldown"`        // 基础射击间隔（秒）
	Salvo           int     `yaml:"salvo"`           // 每次开火的齐射发数
	SpreadDeg       float64 `yaml:"spread"`          // 齐射角度散布（度）
	BaseRange       float64 `yaml:"baseRange"`       // 武器基础射程（像素）
	ProjectileSpeed float64 `yaml:"projectileSpeed"` // 投射物速度（像素/秒）
}

// TurretSpec 炮塔规格
//
// 规格到武器档案的映射在加载时整体校验：
// 未知的 weaponId 直接导致加载失败，而不是运行期静默回退
type TurretSpec struct {
	ID       string  `yaml:"id"`       // 规格ID
	Name     string  `yaml:"name"`     // 显示名称
	WeaponID string  `yaml:"weaponId"` // 底层武器档案ID
	MaxLevel int     `yaml:"maxLevel"` // 等级上限
	Range    float64 `yaml:"range"`    // 炮塔自身射程（像素），投射物射程按此重映射

	BaseCost   int     `yaml:"baseCost"`   // 首座炮塔价格（废料）
	CostGrowth float64 `yaml:"costGrowth"` // 每多放置一座的价格倍率
}

// TurretConfig 炮塔配置（武器档案 + 炮塔规格）
type TurretConfig struct {
	Weapons []WeaponProfile `yaml:"weapons"`
	Specs   []TurretSpec    `yaml:"specs"`
}

// LoadTurretConfig 从YAML文件加载炮塔配置
//
// 参数：
//
//	filepath - 炮塔配置文件的路径
//
// 返回：
//
//	*TurretConfig - 解析后的配置
//	error - 如果文件读取、解析或校验失败，返回错误信息
func LoadTurretConfig(filepath string) (*TurretConfig, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read turret config file %s: %w", filepath, err)
	}

	var cfg TurretConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse turret config YAML from %s: %w", filepath, err)
	}

	applyTurretDefaults(&cfg)

	if err := validateTurretConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid turret config in %s: %w", filepath, err)
	}

	return &cfg, nil
}

// FallbackTurretConfig 返回硬编码的兜底炮塔配置
func FallbackTurretConfig() *TurretConfig {
	cfg := &TurretConfig{
		Weapons: []WeaponProfile{
			{ID: "turret_mg", Damage: 6, CooldownS: 0.35, Salvo: 1, SpreadDeg: 4, BaseRange: 360, ProjectileSpeed: 900},
			{ID: "turret_cannon", Damage: 28, CooldownS: 1.6, Salvo: 1, SpreadDeg: 1, BaseRange: 480, ProjectileSpeed: 700},
			{ID: "turret_scatter", Damage: 5, CooldownS: 1.1, Salvo: 5, SpreadDeg: 24, BaseRange: 260, ProjectileSpeed: 780},
		},
		Specs: []TurretSpec{
			{ID: "mg_turret", Name: "机枪塔", WeaponID: "turret_mg", MaxLevel: 5, Range: 340, BaseCost: 100, CostGrowth: 1.5},
			{ID: "cannon_turret", Name: "加农塔", WeaponID: "turret_cannon", MaxLevel: 4, Range: 460, BaseCost: 160, CostGrowth: 1.5},
			{ID: "scatter_turret", Name: "霰弹塔", WeaponID: "turret_scatter", MaxLevel: 4, Range: 250, BaseCost: 130, CostGrowth: 1.5},
		},
	}
	applyTurretDefaults(cfg)
	return cfg
}

// Weapon 按ID返回武器档案，不存在返回 nil
func (c *TurretConfig) Weapon(id string) *WeaponProfile {
	for i := range c.Weapons {
		if c.Weapons[i].ID == id {
			return &c.Weapons[i]
		}
	}
	return nil
}

// Spec 按ID返回炮塔规格，不存在返回 nil
func (c *TurretConfig) Spec(id string) *TurretSpec {
	for i := range c.Specs {
		if c.Specs[i].ID == id {
			return &c.Specs[i]
		}
	}
	return nil
}

// applyTurretDefaults 为缺失的可选字段设置默认值
func applyTurretDefaults(cfg *TurretConfig) {
	for i := range cfg.Weapons {
		if cfg.Weapons[i].Salvo == 0 {
			cfg.Weapons[i].Salvo = 1
		}
	}
	for i := range cfg.Specs {
		if cfg.Specs[i].MaxLevel == 0 {
			cfg.Specs[i].MaxLevel = 3
		}
		if cfg.Specs[i].CostGrowth == 0 {
			cfg.Specs[i].CostGrowth = 1.5
		}
	}
}

// validateTurretConfig 验证炮塔配置的完整性和合法性
//
// 规格到武器档案的映射在这里整体校验（构造期错误，而非运行期回退）
func validateTurretConfig(cfg *TurretConfig) error {
	if len(cfg.Weapons) == 0 {
		return fmt.Errorf("at least one weapon profile is required")
	}
	if len(cfg.Specs) == 0 {
		return fmt.Errorf("at least one turret spec is required")
	}

	weaponIDs := make(map[string]bool, len(cfg.Weapons))
	for i, w := range cfg.Weapons {
		if w.ID == "" {
			return fmt.Errorf("weapon %d: id is required", i)
		}
		if weaponIDs[w.ID] {
			return fmt.Errorf("weapon %d: duplicate id %q", i, w.ID)
		}
		weaponIDs[w.ID] = true

		if w.Damage <= 0 {
			return fmt.Errorf("weapon %s: damage must be positive", w.ID)
		}
		if w.CooldownS <= 0 {
			return fmt.Errorf("weapon %s: cooldown must be positive", w.ID)
		}
		if w.Salvo < 1 {
			return fmt.Errorf("weapon %s: salvo must be at least 1", w.ID)
		}
		if w.BaseRange <= 0 {
			return fmt.Errorf("weapon %s: baseRange must be positive", w.ID)
		}
		if w.ProjectileSpeed <= 0 {
			return fmt.Errorf("weapon %s: projectileSpeed must be positive", w.ID)
		}
	}

	specIDs := make(map[string]bool, len(cfg.Specs))
	for i, s := range cfg.Specs {
		if s.ID == "" {
			return fmt.Errorf("spec %d: id is required", i)
		}
		if specIDs[s.ID] {
			return fmt.Errorf("spec %d: duplicate id %q", i, s.ID)
		}
		specIDs[s.ID] = true

		if !weaponIDs[s.WeaponID] {
			return fmt.Errorf("spec %s: unknown weaponId %q", s.ID, s.WeaponID)
		}
		if s.MaxLevel < 1 {
			return fmt.Errorf("spec %s: maxLevel must be at least 1", s.ID)
		}
		if s.Range <= 0 {
			return fmt.Errorf("spec %s: range must be positive", s.ID)
		}
		if s.BaseCost < 0 {
			return fmt.Errorf("spec %s: baseCost cannot be negative", s.ID)
		}
	}

	return nil
}
