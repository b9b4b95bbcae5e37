// Package config 提供生存模式的数据配置加载与校验
package config

import (
	"fmt"
	"os"

	"github.com/gonewx/laststand/pkg/types"
	"gopkg.in/yaml.v3"
)

// SpawnGroup 单个敌人生成组配置
// 定义了敌人原型与生成数量
type SpawnGroup struct {
	Archetype types.EnemyArchetype `yaml:"archetype"` // 敌人原型："small", "medium", "heavy", "runner"
	Count     int                  `yaml:"count"`     // 生成数量
}

// WaveDefinition 单波次配置
// 波次一旦加载完成即视为不可变，按波次号索引
type WaveDefinition struct {
	ID          int          `yaml:"id"`          // 波次号（从 1 开始）
	SpawnGroups []SpawnGroup `yaml:"spawnGroups"` // 本波次的敌人生成组
	HasBoss     bool         `yaml:"hasBoss"`     // 是否在本波次开始时生成 Boss
}

// WaveTable 波次表
type WaveTable struct {
	Waves []WaveDefinition `yaml:"waves"`
}

// 程序化兜底波次表参数
const (
	// FallbackWaveCount 兜底波次表的波次数
	FallbackWaveCount = 12

	// FallbackBossInterval 兜底波次表中 Boss 出现的间隔（每 5 波一次）
	FallbackBossInterval = 5
)

// LoadWaveTable 从YAML文件加载波次表
//
// 参数：
//
//	filepath - 波次配置文件的路径（相对或绝对路径）
//
// 返回：
//
//	*WaveTable - 解析后的波次表
//	error - 如果文件读取、解析或校验失败，返回错误信息
func LoadWaveTable(filepath string) (*WaveTable, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read wave table file %s: %w", filepath, err)
	}

	var table WaveTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse wave table YAML from %s: %w", filepath, err)
	}

	if err := validateWaveTable(&table); err != nil {
		return nil, fmt.Errorf("invalid wave table in %s: %w", filepath, err)
	}

	return &table, nil
}

// FallbackWaveTable 返回程序化生成的兜底波次表
//
// 加载失败时使用：12 波，小型/中型敌人数量线性递增，
// 每第 5 波附带 Boss。表是确定性的，便于测试
func FallbackWaveTable() *WaveTable {
	table := &WaveTable{Waves: make([]WaveDefinition, 0, FallbackWaveCount)}

	for i := 1; i <= FallbackWaveCount; i++ {
		groups := []SpawnGroup{
			{Archetype: types.ArchetypeSmall, Count: 4 + 2*i},
		}
		// 中型敌人从第 2 波起出现，数量缓慢递增
		if i >= 2 {
			groups = append(groups, SpawnGroup{Archetype: types.ArchetypeMedium, Count: 1 + i/2})
		}
		// 重型敌人从第 7 波起少量出现
		if i >= 7 {
			groups = append(groups, SpawnGroup{Archetype: types.ArchetypeHeavy, Count: i / 4})
		}

		table.Waves = append(table.Waves, WaveDefinition{
			ID:          i,
			SpawnGroups: groups,
			HasBoss:     i%FallbackBossInterval == 0,
		})
	}

	return table
}

// Wave 按波次号（1 起）返回波次定义，越界返回 nil
func (t *WaveTable) Wave(number int) *WaveDefinition {
	if number < 1 || number > len(t.Waves) {
		return nil
	}
	return &t.Waves[number-1]
}

// Len 返回波次总数
func (t *WaveTable) Len() int {
	return len(t.Waves)
}

// TotalEnemies 返回指定波次定义的敌人总数
func (w *WaveDefinition) TotalEnemies() int {
	total := 0
	for _, g := range w.SpawnGroups {
		total += g.Count
	}
	return total
}

// validateWaveTable 验证波次表的完整性和合法性
func validateWaveTable(table *WaveTable) error {
	if len(table.Waves) == 0 {
		return fmt.Errorf("at least one wave is required")
	}

	for i, wave := range table.Waves {
		// 波次号必须与位置一致（1 起），保证按号索引成立
		if wave.ID != i+1 {
			return fmt.Errorf("wave %d: id must be %d, got %d", i, i+1, wave.ID)
		}

		// 允许空波次（退化波次仍需支持），但组内配置必须合法
		for j, group := range wave.SpawnGroups {
			if !types.IsKnownArchetype(group.Archetype) {
				return fmt.Errorf("wave %d, group %d: unknown archetype %q", wave.ID, j, group.Archetype)
			}
			if group.Count < 1 {
				return fmt.Errorf("wave %d, group %d: count must be at least 1, got %d", wave.ID, j, group.Count)
			}
		}
	}

	return nil
}
