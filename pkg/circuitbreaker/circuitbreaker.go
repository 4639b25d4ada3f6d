package circuitbreaker

import (
	"errors"
	"sync"
)

// State 表示熔断器状态
type State int

const (
	StateClosed State = iota // 关闭：正常状态，允许请求通过
	StateOpen                // 打开：熔断状态，本轮内不再放行
)

var (
	ErrOpen           = errors.New("circuit breaker is open")
	ErrBudgetExceeded = errors.New("remote call budget exhausted")
)

// Config 熔断器配置
type Config struct {
	// 连续失败多少次后打开熔断器
	FailureThreshold int
	// 单轮允许的远程调用总数，成功失败都计数
	CallBudget int
}

// Guard couples the per-run remote-call budget with a consecutive-failure
// circuit breaker. One Guard lives for exactly one digest build; once it
// opens it stays open until the build ends. All bookkeeping happens under a
// single mutex so concurrent workers can neither over-spend the budget nor
// race the failure counter.
type Guard struct {
	config Config

	state        State
	failureCount int
	callsUsed    int

	mu sync.Mutex
}

// NewGuard 创建新的熔断器
func NewGuard(config Config) *Guard {
	return &Guard{
		config: config,
		state:  StateClosed,
	}
}

// Allow reserves one unit of budget for a remote call. The unit is consumed
// whether or not the call later succeeds. Returns ErrOpen when the breaker
// has tripped, ErrBudgetExceeded when the run budget is spent.
func (g *Guard) Allow() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == StateOpen {
		return ErrOpen
	}
	if g.callsUsed >= g.config.CallBudget {
		return ErrBudgetExceeded
	}
	g.callsUsed++
	return nil
}

// OnSuccess 成功后重置连续失败计数
func (g *Guard) OnSuccess() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.failureCount = 0
}

// OnFailure 处理失败；连续失败达到阈值后打开熔断器
func (g *Guard) OnFailure() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.failureCount++
	if g.failureCount >= g.config.FailureThreshold {
		g.state = StateOpen
	}
}

// GetState 获取当前状态（线程安全）
func (g *Guard) GetState() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// CallsUsed 返回已消耗的调用预算
func (g *Guard) CallsUsed() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.callsUsed
}
