/*
 * Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

// Package tasks provides a background task runner for side effects that must not
// block or fail the request path, such as grant last-used stamping.
package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/asgardeo/tempest/internal/system/log"
)

const defaultTaskTimeout = 30 * time.Second

// Task is a unit of background work executed outside the request scope.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// RunnerInterface defines the interface for submitting background tasks.
type RunnerInterface interface {
	Submit(task Task) bool
	Shutdown()
}

// Runner executes submitted tasks on a single worker goroutine with its own
// cancellation scope, decoupled from request lifetimes.
type Runner struct {
	queue    chan Task
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once

	// mu orders Submit against Shutdown so no send can race the queue close.
	mu     sync.Mutex
	closed bool
}

// NewRunner creates and starts a new background task runner with the given queue size.
func NewRunner(queueSize int) RunnerInterface {
	if queueSize <= 0 {
		queueSize = 64
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		queue:  make(chan Task, queueSize),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go r.loop(ctx)
	return r
}

// Submit enqueues a task for background execution. Returns false when the
// queue is full or the runner is shut down; the caller decides whether that
// matters, but the failure is never silent.
func (r *Runner) Submit(task Task) bool {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "TaskRunner"))

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		logger.Warn("Task runner is shut down, dropping task", log.String("task", task.Name))
		return false
	}
	select {
	case r.queue <- task:
		return true
	default:
		logger.Warn("Background task queue is full, dropping task", log.String("task", task.Name))
		return false
	}
}

// Shutdown stops the runner and waits for the in-flight task to finish.
func (r *Runner) Shutdown() {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		r.mu.Unlock()

		r.cancel()
		close(r.queue)
		<-r.done
	})
}

func (r *Runner) loop(ctx context.Context) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "TaskRunner"))
	defer close(r.done)

	for task := range r.queue {
		if ctx.Err() != nil {
			return
		}

		taskCtx, cancel := context.WithTimeout(ctx, defaultTaskTimeout)
		if err := task.Run(taskCtx); err != nil {
			logger.Warn("Background task failed", log.String("task", task.Name), log.Error(err))
		}
		cancel()
	}
}
