package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gonewx/laststand/pkg/types"
)

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "waves.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}
	return path
}

// TestLoadWaveTable 正常加载
func TestLoadWaveTable(t *testing.T) {
	path := writeTempYAML(t, `
waves:
  - id: 1
    spawnGroups:
      - archetype: small
        count: 5
  - id: 2
    hasBoss: true
    spawnGroups:
      - archetype: medium
        count: 2
`)

	table, err := LoadWaveTable(path)
	if err != nil {
		t.Fatalf("LoadWaveTable: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("wave count: got %d, want 2", table.Len())
	}
	if !table.Wave(2).HasBoss {
		t.Error("wave 2 must carry the boss flag")
	}
	if got := table.Wave(1).TotalEnemies(); got != 5 {
		t.Errorf("wave 1 enemies: got %d, want 5", got)
	}
	if got := table.Wave(2).TotalEnemies(); got != 2 {
		t.Errorf("wave 2 enemies: got %d, want 2", got)
	}
}

// TestLoadWaveTableValidation 校验失败的典型场景
func TestLoadWaveTableValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			"id mismatch",
			"waves:\n  - id: 5\n    spawnGroups:\n      - archetype: small\n        count: 1\n",
		},
		{
			"unknown archetype",
			"waves:\n  - id: 1\n    spawnGroups:\n      - archetype: dragon\n        count: 1\n",
		},
		{
			"zero count",
			"waves:\n  - id: 1\n    spawnGroups:\n      - archetype: small\n        count: 0\n",
		},
		{
			"empty table",
			"waves: []\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTempYAML(t, tt.content)
			if _, err := LoadWaveTable(path); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

// TestLoadWaveTableMissingFile 文件不存在返回错误（调用方退回兜底表）
func TestLoadWaveTableMissingFile(t *testing.T) {
	if _, err := LoadWaveTable("/no/such/file.yaml"); err == nil {
		t.Error("expected an error for a missing file")
	}
}

// TestFallbackWaveTable 程序化兜底表的结构属性
func TestFallbackWaveTable(t *testing.T) {
	table := FallbackWaveTable()

	if table.Len() != FallbackWaveCount {
		t.Fatalf("fallback wave count: got %d, want %d", table.Len(), FallbackWaveCount)
	}

	for i := 1; i <= table.Len(); i++ {
		def := table.Wave(i)
		if def == nil {
			t.Fatalf("wave %d missing", i)
		}
		if def.ID != i {
			t.Errorf("wave %d: id %d", i, def.ID)
		}
		wantBoss := i%FallbackBossInterval == 0
		if def.HasBoss != wantBoss {
			t.Errorf("wave %d: hasBoss=%v, want %v", i, def.HasBoss, wantBoss)
		}
		for _, g := range def.SpawnGroups {
			if !types.IsKnownArchetype(g.Archetype) {
				t.Errorf("wave %d: unknown archetype %s", i, g.Archetype)
			}
			if g.Count < 1 {
				t.Errorf("wave %d: group count %d", i, g.Count)
			}
		}
	}

	// 线性递增：small 数量随波次增加
	firstSmall := table.Wave(1).SpawnGroups[0].Count
	lastSmall := table.Wave(table.Len()).SpawnGroups[0].Count
	if lastSmall <= firstSmall {
		t.Errorf("small counts must grow: wave1=%d, wave%d=%d", firstSmall, table.Len(), lastSmall)
	}
}

// TestWaveOutOfRange 越界访问返回 nil
func TestWaveOutOfRange(t *testing.T) {
	table := FallbackWaveTable()
	if table.Wave(0) != nil {
		t.Error("wave 0 must be nil")
	}
	if table.Wave(table.Len()+1) != nil {
		t.Error("wave beyond the table must be nil")
	}
}
