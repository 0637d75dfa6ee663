package health

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Aggregator 健康检查聚合器
type Aggregator struct {
	mu       sync.RWMutex
	checkers []Checker
	timeout  time.Duration
	startup  func() bool
}

// NewAggregator 创建聚合器
func NewAggregator(checkers ...Checker) *Aggregator {
	return &Aggregator{
		checkers: checkers,
		timeout:  DefaultCheckTimeout,
	}
}

// AddChecker 添加检查器
func (a *Aggregator) AddChecker(checker Checker) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.checkers = append(a.checkers, checker)
}

// SetTimeout 设置单个检查器超时，<=0 时使用默认值
func (a *Aggregator) SetTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultCheckTimeout
	}
	a.mu.Lock()
	a.timeout = d
	a.mu.Unlock()
}

// SetStartup 设置启动阶段的就绪判定（SDK 初始化、相机发现完成）
func (a *Aggregator) SetStartup(fn func() bool) {
	a.mu.Lock()
	a.startup = fn
	a.mu.Unlock()
}

// CheckAll 并发执行所有检查器；检查器 panic 记为不健康
func (a *Aggregator) CheckAll(ctx context.Context) map[string]CheckResult {
	a.mu.RLock()
	checkers := append([]Checker(nil), a.checkers...)
	timeout := a.timeout
	a.mu.RUnlock()

	results := make(map[string]CheckResult, len(checkers))
	var resultsMu sync.Mutex
	var wg sync.WaitGroup

	for _, checker := range checkers {
		wg.Add(1)
		go func(c Checker) {
			defer wg.Done()
			result := runCheck(ctx, c, timeout)

			resultsMu.Lock()
			results[c.Name()] = result
			resultsMu.Unlock()
		}(checker)
	}

	wg.Wait()
	return results
}

func runCheck(ctx context.Context, c Checker, timeout time.Duration) (result CheckResult) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			result = CheckResult{
				Status:  StatusUnhealthy,
				Message: fmt.Sprintf("checker panic: %v", r),
				Latency: time.Since(start),
			}
		}
	}()
	return c.Check(cctx)
}

// Report 执行全部检查并汇总：任一不健康则整体不健康，任一降级则整体降级
func (a *Aggregator) Report(ctx context.Context) Report {
	results := a.CheckAll(ctx)
	overall := StatusHealthy
	for _, r := range results {
		overall = Worse(overall, r.Status)
	}
	return Report{
		Status:    overall,
		Ready:     a.started() && overall != StatusUnhealthy,
		Timestamp: time.Now(),
		Checks:    results,
	}
}

// OverallStatus 计算总体健康状态
func (a *Aggregator) OverallStatus(ctx context.Context) Status {
	return a.Report(ctx).Status
}

// Ready 启动完成且没有不健康的组件（降级仍视为就绪）
func (a *Aggregator) Ready(ctx context.Context) bool {
	return a.Report(ctx).Ready
}

// Alive 进程存活即返回 true
func (a *Aggregator) Alive() bool {
	return true
}

func (a *Aggregator) started() bool {
	a.mu.RLock()
	fn := a.startup
	a.mu.RUnlock()
	return fn == nil || fn()
}
