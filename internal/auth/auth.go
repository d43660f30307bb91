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

// Package auth implements the AuthService capability from spec.md §6.2:
// CONNECT-time credential verification, independent of session and
// transport concerns.
package auth

// Service is the AuthService capability.
type Service interface {
	// Login reports whether clientId may connect with the given
	// username/password. An implementation that never rejects a
	// connection (AllowAll) still receives the call, so it can log or
	// meter connection attempts.
	Login(clientId, username, password string) bool
}

// AllowAll accepts every connection, used when no credential store is
// configured (spec.md's default, unauthenticated broker).
type AllowAll struct{}

func (AllowAll) Login(string, string, string) bool { return true }

// StaticCredentials authenticates against a fixed username -> password
// map, configured at startup. A client presenting no username is
// accepted only if AllowAnonymous is set.
type StaticCredentials struct {
	Logins         map[string]string
	AllowAnonymous bool
}

func (s StaticCredentials) Login(_ string, username, password string) bool {
	if username == "" {
		return s.AllowAnonymous
	}
	pw, ok := s.Logins[username]
	return ok && pw == password
}
