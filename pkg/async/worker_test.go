package async

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"zhongdao/pkg/logger"
)

func TestWorkerExecutesTasks(t *testing.T) {
	w := NewWorker(10, logger.NewLogger("error"))
	w.Start(2)

	var executed int64
	for i := 0; i < 5; i++ {
		w.AddTask(func() {
			atomic.AddInt64(&executed, 1)
		})
	}
	w.Stop()

	if got := atomic.LoadInt64(&executed); got != 5 {
		t.Errorf("executed = %d, want 5", got)
	}
}

func TestWorkerSubmitResult(t *testing.T) {
	w := NewWorker(10, logger.NewLogger("error"))
	w.Start(1)

	done := make(chan string, 1)
	w.Submit("settle", func(ctx context.Context) error {
		return nil
	})
	w.Submit("fail", func(ctx context.Context) error {
		defer func() { done <- "fail" }()
		return errors.New("boom")
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}
	w.Stop()
}

func TestWorkerSubmitFullQueue(t *testing.T) {
	w := NewWorker(1, logger.NewLogger("error"))
	// 不启动工作协程，第一个任务占满队列

	if ok := w.Submit("a", func(ctx context.Context) error { return nil }); !ok {
		t.Fatal("first submit should be queued")
	}
	if ok := w.Submit("b", func(ctx context.Context) error { return nil }); ok {
		t.Fatal("submit into a full queue should be dropped")
	}
}
