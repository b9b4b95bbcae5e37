package entities

import (
	"math"

	"github.com/gonewx/laststand/pkg/game"
)

// 弹道参数
const (
	// MaxBullets 同时存在的投射物上限，达到后生成失败
	MaxBullets = 256

	// DefaultBulletSpeed 未注册武器的投射物速度（像素/秒）
	DefaultBulletSpeed = 800.0

	// DefaultBulletLifeMs 投射物默认寿命（毫秒），生成方可覆盖
	DefaultBulletLifeMs = 1200.0
)

// bulletEntry 投射物与其结算上下文
// Projectile 本身只携带通用字段，来源等级与出膛点在这里补记
type bulletEntry struct {
	p          *game.Projectile
	originX    float64
	originY    float64
	level      int
	spent      bool
}

// BulletPool 投射物池，实现 game.Ballistics 契约
//
// 每帧推进所有投射物：按速度移动、寿命与飞行距离衰减、
// 与敌人/Boss 做圆形命中判定，命中即结算伤害并消耗投射物
type BulletPool struct {
	ctx     *game.SimulationContext
	bullets []bulletEntry

	// speedFor 按武器ID解析投射物速度；nil 或解析为 0 时用默认速度
	speedFor func(weaponID string) float64
}

// NewBulletPool 创建投射物池
//
// 参数：
//
//	ctx - 模拟上下文（Boss 命中判定用）
//	speedFor - 武器投射物速度解析函数，可为 nil
func NewBulletPool(ctx *game.SimulationContext, speedFor func(weaponID string) float64) *BulletPool {
	return &BulletPool{ctx: ctx, speedFor: speedFor}
}

// SpawnBullet 从 (x0,y0) 朝 (x1,y1) 生成一发投射物
// 池满或方向退化（起止点重合）时返回 nil
func (bp *BulletPool) SpawnBullet(x0, y0, x1, y1 float64, weaponID string, damage float64, level int, sourceTag string) *game.Projectile {
	if len(bp.bullets) >= MaxBullets {
		return nil
	}

	dx := x1 - x0
	dy := y1 - y0
	dist := math.Hypot(dx, dy)
	if dist < 1e-6 {
		return nil
	}

	speed := DefaultBulletSpeed
	if bp.speedFor != nil {
		if s := bp.speedFor(weaponID); s > 0 {
			speed = s
		}
	}

	p := &game.Projectile{
		X:         x0,
		Y:         y0,
		VX:        dx / dist * speed,
		VY:        dy / dist * speed,
		Damage:    damage,
		LifeMs:    DefaultBulletLifeMs,
		WeaponID:  weaponID,
		SourceTag: sourceTag,
	}
	bp.bullets = append(bp.bullets, bulletEntry{p: p, originX: x0, originY: y0, level: level})
	return p
}

// Bullets 返回当前存活的投射物（渲染用）
func (bp *BulletPool) Bullets() []*game.Projectile {
	out := make([]*game.Projectile, 0, len(bp.bullets))
	for i := range bp.bullets {
		if !bp.bullets[i].spent {
			out = append(out, bp.bullets[i].p)
		}
	}
	return out
}

// Update 推进所有投射物并结算命中
func (bp *BulletPool) Update(deltaMs float64, reg game.EnemyRegistry) {
	dt := deltaMs / 1000.0

	kept := bp.bullets[:0]
	for i := range bp.bullets {
		e := bp.bullets[i]
		if e.spent {
			continue
		}
		p := e.p

		p.X += p.VX * dt
		p.Y += p.VY * dt
		p.LifeMs -= deltaMs

		if p.LifeMs <= 0 {
			continue
		}
		if p.MaxDistanceSq > 0 {
			ddx := p.X - e.originX
			ddy := p.Y - e.originY
			if ddx*ddx+ddy*ddy > p.MaxDistanceSq {
				continue
			}
		}

		if bp.resolveHit(&e, reg) {
			continue
		}

		kept = append(kept, e)
	}
	bp.bullets = kept
}

// resolveHit 命中判定，命中返回 true（投射物被消耗）
// Boss 优先于普通敌人判定
func (bp *BulletPool) resolveHit(e *bulletEntry, reg game.EnemyRegistry) bool {
	p := e.p

	if bp.ctx != nil {
		if boss := bp.ctx.ActiveBoss(); boss != nil {
			dx := p.X - boss.X
			dy := p.Y - boss.Y
			if dx*dx+dy*dy <= boss.Radius*boss.Radius {
				boss.ApplyDamage(p.Damage)
				e.spent = true
				return true
			}
		}
	}

	for _, enemy := range reg.QueryEnemies(p.X, p.Y, 48) {
		if !enemy.Active {
			continue
		}
		if enemy.DistanceSqTo(p.X, p.Y) <= enemy.Radius*enemy.Radius {
			reg.TakeDamage(enemy, p.Damage, false, false, p.WeaponID, p.X, p.Y, e.level, p.SourceTag)
			e.spent = true
			return true
		}
	}
	return false
}
