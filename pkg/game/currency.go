// Package game 提供跨系统共享的游戏状态与协作者契约
package game

import "math"

// CurrencyLedger 废料账本
//
// 职责：
//   - 维护非负整数余额（废料）
//   - 维护免费升级券数量（每张券可抵扣一次购买）
//   - 余额或券数变化时同步通知所有监听者
//
// 架构说明：
//   - 所有变更都在模拟线程上同步完成，监听者回调不得再次修改账本
//   - Spend 在余额不足时直接失败返回 false，不做部分扣除
type CurrencyLedger struct {
	balance    int // 当前余额，始终 >= 0
	freeTokens int // 免费升级券数量，始终 >= 0
	balanceCap int // 余额上限，0 表示不设上限

	listeners []func(balance, freeTokens int)
}

// NewCurrencyLedger 创建废料账本
//
// 参数：
//   - initial: 初始余额（负数按 0 处理）
func NewCurrencyLedger(initial int) *CurrencyLedger {
	if initial < 0 {
		initial = 0
	}
	return &CurrencyLedger{balance: initial}
}

// SetBalanceCap 设置余额上限（0 表示不设上限）
func (l *CurrencyLedger) SetBalanceCap(cap int) {
	if cap < 0 {
		cap = 0
	}
	l.balanceCap = cap
}

// Balance 返回当前余额
func (l *CurrencyLedger) Balance() int {
	return l.balance
}

// FreeTokens 返回当前免费升级券数量
func (l *CurrencyLedger) FreeTokens() int {
	return l.freeTokens
}

// AddListener 注册变更监听者
// 每次余额或券数变化时同步调用
func (l *CurrencyLedger) AddListener(fn func(balance, freeTokens int)) {
	if fn == nil {
		return
	}
	l.listeners = append(l.listeners, fn)
}

// Add 增加废料
//
// 金额四舍五入为整数；结果不会低于 0，也不会超过余额上限（如果设置了）
func (l *CurrencyLedger) Add(amount float64) {
	rounded := int(math.Round(amount))
	l.balance += rounded
	if l.balance < 0 {
		l.balance = 0
	}
	if l.balanceCap > 0 && l.balance > l.balanceCap {
		l.balance = l.balanceCap
	}
	l.notify()
}

// Spend 扣除废料
//
// 余额不足时返回 false 且余额不变（关闭式失败）
func (l *CurrencyLedger) Spend(amount int) bool {
	if amount < 0 {
		return false
	}
	if l.balance < amount {
		return false
	}
	l.balance -= amount
	l.notify()
	return true
}

// GrantFreeToken 发放一张免费升级券
func (l *CurrencyLedger) GrantFreeToken() {
	l.freeTokens++
	l.notify()
}

// ConsumeFreeToken 消耗一张免费升级券
//
// 没有可用券时返回 false
func (l *CurrencyLedger) ConsumeFreeToken() bool {
	if l.freeTokens <= 0 {
		return false
	}
	l.freeTokens--
	l.notify()
	return true
}

// notify 同步通知所有监听者
func (l *CurrencyLedger) notify() {
	for _, fn := range l.listeners {
		fn(l.balance, l.freeTokens)
	}
}
