// Package safe_close coordinates graceful shutdown of long running goroutines
// Package safe_close 协调长期运行协程的优雅关闭
package safe_close

import (
	"sync"
)

// SafeClose broadcasts one close signal to every attached worker and waits for all of them
// SafeClose 向所有挂载的协程广播关闭信号，并等待其全部退出
type SafeClose struct {
	once    sync.Once
	mu      sync.Mutex
	wg      sync.WaitGroup
	signal  chan struct{}
	closeBy error
}

func NewSafeClose() *SafeClose {
	return &SafeClose{signal: make(chan struct{})}
}

// Attach runs fn in its own goroutine; fn must call done once it has finished cleaning up
// Attach 在新协程中运行 fn，fn 清理完成后必须调用 done
func (s *SafeClose) Attach(fn func(done func(), closeSignal <-chan struct{})) {
	s.wg.Add(1)
	var once sync.Once
	done := func() { once.Do(s.wg.Done) }
	go fn(done, s.signal)
}

// SendCloseSignal closes the signal channel, only the first call has effect
// SendCloseSignal 发送关闭信号，仅首次调用生效
func (s *SafeClose) SendCloseSignal(err error) {
	s.once.Do(func() {
		s.mu.Lock()
		s.closeBy = err
		s.mu.Unlock()
		close(s.signal)
	})
}

// CloseSignal 关闭信号通道
func (s *SafeClose) CloseSignal() <-chan struct{} {
	return s.signal
}

// WaitClosed blocks until every attached worker called done and returns the error passed to SendCloseSignal
// WaitClosed 等待所有协程退出，返回触发关闭的错误
func (s *SafeClose) WaitClosed() error {
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeBy
}
