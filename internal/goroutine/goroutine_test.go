/*
 *    Copyright 2021 chenquan
 *
 *    Licensed under the Apache License, Version 2.0 (the "License");
 *    you may not use this file except in compliance with the License.
 *    You may obtain a copy of the License at
 *
 *        http://www.apache.org/licenses/LICENSE-2.0
 *
 *    Unless required by applicable law or agreed to in writing, software
 *    distributed under the License is distributed on an "AS IS" BASIS,
 *    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *    See the License for the specific language governing permissions and
 *    limitations under the License.
 */

package goroutine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGo_RunsSubmittedWork(t *testing.T) {
	var wg sync.WaitGroup
	const n = 50
	wg.Add(n)

	var mu sync.Mutex
	count := 0
	for i := 0; i < n; i++ {
		Go(func() {
			defer wg.Done()
			mu.Lock()
			count++
			mu.Unlock()
		})
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("submitted work did not complete in time")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, n, count)
}
