package game

import (
	"fmt"
	"log"

	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

// LastStandProgress 生存模式历史战绩
// 注意：战绩是全局的，不绑定到单局（单局状态全部驻留内存）
type LastStandProgress struct {
	BestWave       int `yaml:"bestWave"`       // 历史最高到达波次
	TotalBossKills int `yaml:"totalBossKills"` // 累计击杀 Boss 数
	TotalRuns      int `yaml:"totalRuns"`      // 累计开局次数
}

// ProgressManager 战绩管理器
// 负责生存模式历史战绩的加载、保存和内存管理
type ProgressManager struct {
	gdataManager *gdata.Manager     // gdata 跨平台存储管理器，可为 nil（降级模式）
	progress     *LastStandProgress // 当前战绩
}

// 存储路径常量
const (
	progressObject   = "last_stand"
	progressProperty = "progress"
)

// NewProgressManager 创建新的战绩管理器实例
//
// 参数：
//   - gdataManager: gdata 跨平台存储管理器，可为 nil（降级模式，仅内存战绩）
//
// 返回：
//   - *ProgressManager: 战绩管理器实例
//   - error: 如果加载战绩失败返回错误（不影响创建）
func NewProgressManager(gdataManager *gdata.Manager) (*ProgressManager, error) {
	pm := &ProgressManager{
		gdataManager: gdataManager,
		progress:     &LastStandProgress{},
	}

	// 尝试加载已保存的战绩
	if err := pm.Load(); err != nil {
		// 加载失败不是致命错误，使用空战绩
		log.Printf("[ProgressManager] Warning: Failed to load progress: %v (starting fresh)", err)
	}

	return pm, nil
}

// Load 从 gdata 加载战绩
//
// 如果 gdataManager 为 nil 或文件不存在，使用空战绩
//
// 返回：
//   - error: 如果反序列化失败返回错误
func (pm *ProgressManager) Load() error {
	// 降级模式：无法持久化，使用空战绩
	if pm.gdataManager == nil {
		pm.progress = &LastStandProgress{}
		return nil
	}

	// 检查战绩文件是否存在
	if !pm.gdataManager.ObjectPropExists(progressObject, progressProperty) {
		pm.progress = &LastStandProgress{}
		return nil
	}

	// 从 gdata 加载数据
	data, err := pm.gdataManager.LoadObjectProp(progressObject, progressProperty)
	if err != nil {
		pm.progress = &LastStandProgress{}
		return fmt.Errorf("failed to load progress: %w", err)
	}

	// 反序列化 YAML 数据
	var loaded LastStandProgress
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		pm.progress = &LastStandProgress{}
		return fmt.Errorf("failed to unmarshal progress: %w", err)
	}

	pm.progress = &loaded
	log.Printf("[ProgressManager] Progress loaded: best wave=%d, boss kills=%d", loaded.BestWave, loaded.TotalBossKills)
	return nil
}

// Save 保存战绩到 gdata
//
// 如果 gdataManager 为 nil，返回 nil（降级模式，不报错）
//
// 返回：
//   - error: 如果序列化或保存失败返回错误
func (pm *ProgressManager) Save() error {
	// 降级模式：无法持久化，但不报错
	if pm.gdataManager == nil {
		return nil
	}

	data, err := yaml.Marshal(pm.progress)
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}

	if err := pm.gdataManager.SaveObjectProp(progressObject, progressProperty, data); err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}

	return nil
}

// BestWave 返回历史最高到达波次
func (pm *ProgressManager) BestWave() int {
	return pm.progress.BestWave
}

// TotalBossKills 返回累计击杀 Boss 数
func (pm *ProgressManager) TotalBossKills() int {
	return pm.progress.TotalBossKills
}

// TotalRuns 返回累计开局次数
func (pm *ProgressManager) TotalRuns() int {
	return pm.progress.TotalRuns
}

// RecordRunStart 记录一次开局并立即保存
func (pm *ProgressManager) RecordRunStart() {
	pm.progress.TotalRuns++
	pm.saveQuiet()
}

// RecordWaveReached 记录到达波次
// 只有超过历史最高时才更新并保存
func (pm *ProgressManager) RecordWaveReached(wave int) {
	if wave <= pm.progress.BestWave {
		return
	}
	pm.progress.BestWave = wave
	pm.saveQuiet()
}

// RecordBossKill 记录一次 Boss 击杀并立即保存
func (pm *ProgressManager) RecordBossKill() {
	pm.progress.TotalBossKills++
	pm.saveQuiet()
}

// saveQuiet 保存战绩，失败只记录日志（战绩丢失不中断游戏）
func (pm *ProgressManager) saveQuiet() {
	if err := pm.Save(); err != nil {
		log.Printf("[ProgressManager] Warning: Failed to save progress: %v", err)
	}
}
