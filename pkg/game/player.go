package game

// PlayerState 玩家战斗状态快照
//
// 玩家的移动与输入在引擎之外处理；引擎只读取位置、
// 施加伤害与击退（Boss 接触伤害、特殊攻击）
type PlayerState struct {
	X, Y   float64 // 当前位置（世界坐标）
	Radius float64 // 碰撞半径

	HP    float64 // 当前生命值
	MaxHP float64 // 生命值上限

	// 击退速度，由外部移动系统每帧消耗并衰减
	KnockbackVX float64
	KnockbackVY float64
}

// ApplyDamage 对玩家施加伤害
// 生命值不会低于 0
func (p *PlayerState) ApplyDamage(amount float64) {
	if amount <= 0 {
		return
	}
	p.HP -= amount
	if p.HP < 0 {
		p.HP = 0
	}
}

// ApplyKnockback 叠加击退速度
func (p *PlayerState) ApplyKnockback(vx, vy float64) {
	p.KnockbackVX += vx
	p.KnockbackVY += vy
}

// Alive 返回玩家是否存活
func (p *PlayerState) Alive() bool {
	return p.HP > 0
}
