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

package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowAll(t *testing.T) {
	var s Service = AllowAll{}
	assert.True(t, s.Login("client-1", "", ""))
	assert.True(t, s.Login("client-1", "anyone", "wrong"))
}

func TestStaticCredentials(t *testing.T) {
	s := StaticCredentials{Logins: map[string]string{"alice": "secret"}}

	assert.True(t, s.Login("client-1", "alice", "secret"))
	assert.False(t, s.Login("client-1", "alice", "wrong"))
	assert.False(t, s.Login("client-1", "bob", "secret"))
	assert.False(t, s.Login("client-1", "", ""))
}

func TestStaticCredentials_AllowAnonymous(t *testing.T) {
	s := StaticCredentials{
		Logins:         map[string]string{"alice": "secret"},
		AllowAnonymous: true,
	}

	assert.True(t, s.Login("client-1", "", ""))
	assert.True(t, s.Login("client-1", "alice", "secret"))
}
