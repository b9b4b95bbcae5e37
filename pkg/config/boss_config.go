package config

// BossTuning Boss 遭遇战数值配置
//
// 每次 Boss 生成使用持久递增的遭遇计数 n 进行缩放：
//
//	maxHP   = round(HPBase × (1 + HPGrowthK×(n−1))^HPGrowthP)
//	damage  = base × DamageGrowthR^(n−1)（接触与特殊攻击同率）
//	haste   = min(HastePerSpawn×(n−1), HasteCap)
//
// 急速有上限；血量/伤害增长无上限，但固定指数使增速随 n 衰减
type BossTuning struct {
	HPBase    float64 // 基础血量
	HPGrowthK float64 // 血量增长系数 k
	HPGrowthP float64 // 血量增长指数 p

	ContactDamageBase float64 // 接触伤害基础值
	SpecialDamageBase float64 // 特殊攻击伤害基础值
	DamageGrowthR     float64 // 伤害增长倍率 r

	HastePerSpawn float64 // 每次遭遇增加的急速
	HasteCap      float64 // 急速上限

	Radius       float64 // 碰撞半径
	MoveSpeed    float64 // 追击移动速度（已是降速后的值）
	TelegraphMs  float64 // 出场预警时长（毫秒）
	AttackBaseMs float64 // 主攻击计时器基础间隔（毫秒）

	// 阶段门槛（血量比例），跨过即升阶并缩短攻击计时器
	Phase2HPFrac float64
	Phase3HPFrac float64
	// 升阶后攻击间隔倍率（按当前阶段索引 1..3）
	PhaseAttackFactor [3]float64

	// 特殊攻击：蓄力-引导-引爆循环
	SpecialChargeMs    float64 // 蓄力时长（毫秒）
	SpecialTelegraphMs float64 // 站定引导时长（毫秒）
	SpecialRangePad    float64 // 引爆判定 = 半径 + 固定附加距离

	ContactCooldownMs float64 // 接触伤害滚动冷却（毫秒）
	ContactKnockback  float64 // 接触击退速度（对双方对称施加）

	MinionChance float64 // 每次攻击波附带召唤小怪的概率
	MinionCount  int     // 单次召唤的小怪数量
}

// DefaultBossTuning 返回默认 Boss 数值配置
func DefaultBossTuning() BossTuning {
	return BossTuning{
		HPBase:    1500,
		HPGrowthK: 0.40,
		HPGrowthP: 1.12,

		ContactDamageBase: 18,
		SpecialDamageBase: 45,
		DamageGrowthR:     1.15,

		HastePerSpawn: 0.08,
		HasteCap:      0.45,

		Radius:       52,
		MoveSpeed:    55,
		TelegraphMs:  2000,
		AttackBaseMs: 3600,

		Phase2HPFrac:      0.70,
		Phase3HPFrac:      0.40,
		PhaseAttackFactor: [3]float64{1.0, 0.85, 0.70},

		SpecialChargeMs:    5200,
		SpecialTelegraphMs: 900,
		SpecialRangePad:    70,

		ContactCooldownMs: 1000,
		ContactKnockback:  220,

		MinionChance: 0.25,
		MinionCount:  3,
	}
}
