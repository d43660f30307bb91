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

// Package goroutine bounds the number of concurrently running per-channel
// read loops (and the listeners that spawn them) behind an ants worker
// pool, instead of spawning an unbounded "go f()" per connection.
package goroutine

import (
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/lighthousemq/core/internal/xlog"
)

var log = xlog.LoggerModule("goroutine")

var pool = mustPool()

func mustPool() *ants.Pool {
	p, err := ants.NewPool(ants.DefaultAntsPoolSize, ants.WithNonblocking(false))
	if err != nil {
		panic(err)
	}
	return p
}

// Go submits f to the bounded pool. If the pool cannot accept more work
// (shutting down), f still runs on its own goroutine rather than being
// silently dropped.
func Go(f func()) {
	if err := pool.Submit(f); err != nil {
		log.Warn("goroutine pool submit failed, running unpooled", zap.Error(err))
		go f()
	}
}

// Release tears down the pool. Called from broker shutdown.
func Release() {
	pool.Release()
}
