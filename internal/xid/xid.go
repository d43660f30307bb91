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

// Package xid generates the opaque, store-assigned guids stamped onto
// every message.Stored entry.
package xid

import (
	"crypto/rand"
	"encoding/hex"
	"sync/atomic"
)

var counter uint64

// New returns a process-unique, monotonically distinguishable id: an
// incrementing counter (to keep ordering meaningful within one broker
// process) followed by random bytes (to keep ids unguessable and unique
// across broker restarts sharing the same store).
func New() string {
	n := atomic.AddUint64(&counter, 1)
	var rnd [8]byte
	_, _ = rand.Read(rnd[:])

	buf := make([]byte, 8+8)
	for i := 0; i < 8; i++ {
		buf[i] = byte(n >> (8 * (7 - i)))
	}
	copy(buf[8:], rnd[:])
	return hex.EncodeToString(buf)
}
