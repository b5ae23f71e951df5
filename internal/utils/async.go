package utils

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// WorkerPool bounded pool used to handle incoming updates concurrently
type WorkerPool struct {
	maxWorkers int
	taskQueue  chan func()
	wg         sync.WaitGroup
	closeOnce  sync.Once
}

// NewWorkerPool starts maxWorkers goroutines (10 when <= 0)
func NewWorkerPool(maxWorkers int) *WorkerPool {
	if maxWorkers <= 0 {
		maxWorkers = 10
	}

	pool := &WorkerPool{
		maxWorkers: maxWorkers,
		taskQueue:  make(chan func(), maxWorkers*2),
	}
	for i := 0; i < maxWorkers; i++ {
		go pool.worker()
	}
	return pool
}

func (p *WorkerPool) worker() {
	for task := range p.taskQueue {
		runSafely(task)
		p.wg.Done()
	}
}

// Submit queues a task, blocking while the queue is full
func (p *WorkerPool) Submit(task func()) {
	p.wg.Add(1)
	p.taskQueue <- task
}

// Wait blocks until every submitted task has finished
func (p *WorkerPool) Wait() {
	p.wg.Wait()
}

// Close stops accepting tasks; queued tasks still run
func (p *WorkerPool) Close() {
	p.closeOnce.Do(func() { close(p.taskQueue) })
}

// Go runs fn in its own goroutine and logs a recovered panic
func Go(fn func()) {
	go runSafely(fn)
}

func runSafely(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("panic", fmt.Sprint(r)).Error("❌ recovered from panic in background task")
		}
	}()
	fn()
}
