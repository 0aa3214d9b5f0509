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

package tasks

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnerExecutesSubmittedTasks(t *testing.T) {
	runner := NewRunner(4)
	defer runner.Shutdown()

	done := make(chan struct{})
	ok := runner.Submit(Task{
		Name: "touch",
		Run: func(_ context.Context) error {
			close(done)
			return nil
		},
	})
	require.True(t, ok)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("submitted task never ran")
	}
}

func TestSubmitAfterShutdownIsRejected(t *testing.T) {
	runner := NewRunner(1)
	runner.Shutdown()

	ok := runner.Submit(Task{Name: "late", Run: func(_ context.Context) error { return nil }})
	assert.False(t, ok)

	// A second Shutdown is a no-op.
	runner.Shutdown()
}

func TestConcurrentSubmitAndShutdown(t *testing.T) {
	runner := NewRunner(2)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runner.Submit(Task{Name: "racer", Run: func(_ context.Context) error { return nil }})
		}()
	}
	runner.Shutdown()
	wg.Wait()
}
