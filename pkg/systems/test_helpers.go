package systems

import (
	"github.com/gonewx/laststand/pkg/game"
	"github.com/gonewx/laststand/pkg/types"
)

// fakeRegistry 测试用敌人注册表
//
// 行为可按测试需要调节：生成失败开关、可见性函数、冻结时间戳。
// 伤害结算简化为直接扣血，归零时转非活跃并通知回调
type fakeRegistry struct {
	enemies []*game.Enemy
	nextID  int

	frozenUntil float64

	// spawnFail 为 true 时所有生成返回 nil
	spawnFail bool

	// visibleFn 可见性判断；nil 表示一切可见
	visibleFn func(x, y float64) bool

	// defeatedFn 击杀通知
	defeatedFn func(e *game.Enemy)

	spawnCalls  int
	damageCalls int
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{}
}

func (r *fakeRegistry) SpawnEnemyAt(x, y float64, archetype types.EnemyArchetype) *game.Enemy {
	r.spawnCalls++
	if r.spawnFail {
		return nil
	}
	r.nextID++
	e := &game.Enemy{
		ID:        r.nextID,
		Archetype: archetype,
		X:         x,
		Y:         y,
		Speed:     100,
		HP:        20,
		MaxHP:     20,
		Radius:    12,
		Active:    true,
	}
	r.enemies = append(r.enemies, e)
	return e
}

func (r *fakeRegistry) Enemies() []*game.Enemy {
	return r.enemies
}

func (r *fakeRegistry) QueryEnemies(x, y, radius float64) []*game.Enemy {
	var out []*game.Enemy
	radiusSq := radius * radius
	for _, e := range r.enemies {
		if e.Active && e.DistanceSqTo(x, y) <= radiusSq {
			out = append(out, e)
		}
	}
	return out
}

func (r *fakeRegistry) TakeDamage(e *game.Enemy, amount float64, isCrit, isAoe bool, weaponID string, sourceX, sourceY float64, level int, sourceTag string) {
	r.damageCalls++
	if e == nil || !e.Active {
		return
	}
	e.HP -= amount
	if e.HP <= 0 {
		e.HP = 0
		e.Active = false
		if r.defeatedFn != nil {
			r.defeatedFn(e)
		}
	}
}

func (r *fakeRegistry) IsVisibleInLastStand(x, y float64) bool {
	if r.visibleFn == nil {
		return true
	}
	return r.visibleFn(x, y)
}

func (r *fakeRegistry) ClampToTypeCaps(speed float64, archetype types.EnemyArchetype) float64 {
	if speed < 0 {
		return 0
	}
	return speed
}

func (r *fakeRegistry) SetSpawnFreezeUntil(simTimeMs float64) {
	r.frozenUntil = simTimeMs
}

func (r *fakeRegistry) FrozenUntil() float64 {
	return r.frozenUntil
}

// fakeBallistics 测试用弹道协作者，记录每次生成调用
type fakeBallistics struct {
	spawned []*game.Projectile

	// spawnFail 为 true 时生成返回 nil
	spawnFail bool
}

func (b *fakeBallistics) SpawnBullet(x0, y0, x1, y1 float64, weaponID string, damage float64, level int, sourceTag string) *game.Projectile {
	if b.spawnFail {
		return nil
	}
	p := &game.Projectile{
		X: x0, Y: y0,
		Damage:    damage,
		WeaponID:  weaponID,
		SourceTag: sourceTag,
	}
	b.spawned = append(b.spawned, p)
	return p
}

// newTestContext 构建带玩家与全可见迷雾的上下文
func newTestContext() *game.SimulationContext {
	return &game.SimulationContext{
		Mode:   game.ModeLastStand,
		Player: &game.PlayerState{X: 400, Y: 300, Radius: 14, HP: 100, MaxHP: 100},
		Fog:    &game.FogOfWar{CenterX: 400, CenterY: 300, Radius: 10000},
	}
}
