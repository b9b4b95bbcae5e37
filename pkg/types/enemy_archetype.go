// Package types 定义共享的基础类型
package types

// EnemyArchetype 定义敌人的原型类别
//
// 原型以字符串形式存在于波次配置（YAML）中，
// 敌人注册表根据原型查找基础属性（血量、速度、速度上限）
type EnemyArchetype string

const (
	// ArchetypeSmall 小型敌人（数量多，速度快，血量低）
	ArchetypeSmall EnemyArchetype = "small"

	// ArchetypeMedium 中型敌人（标准属性）
	ArchetypeMedium EnemyArchetype = "medium"

	// ArchetypeHeavy 重型敌人（血厚速度慢，高波次出现）
	ArchetypeHeavy EnemyArchetype = "heavy"

	// ArchetypeRunner 突袭型敌人（速度极快，血量极低）
	ArchetypeRunner EnemyArchetype = "runner"

	// ArchetypeMinion Boss 召唤的小怪（仅由 Boss 攻击波生成）
	ArchetypeMinion EnemyArchetype = "minion"
)

// KnownArchetypes 返回所有合法的敌人原型列表
// 用于波次配置校验
func KnownArchetypes() []EnemyArchetype {
	return []EnemyArchetype{
		ArchetypeSmall,
		ArchetypeMedium,
		ArchetypeHeavy,
		ArchetypeRunner,
		ArchetypeMinion,
	}
}

// IsKnownArchetype 检查原型是否合法
func IsKnownArchetype(a EnemyArchetype) bool {
	for _, known := range KnownArchetypes() {
		if a == known {
			return true
		}
	}
	return false
}
