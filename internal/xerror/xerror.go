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

// Package xerror defines the sentinel errors raised while decoding and
// processing MQTT packets.
package xerror

import "errors"

var (
	// ErrMalformed marks a packet that violates the fixed MQTT wire
	// format (bad flags, truncated buffer, reserved bits set).
	ErrMalformed = errors.New("xerror: malformed packet")

	// ErrV3UnacceptableProtocolVersion marks a CONNECT whose protocol
	// level is neither MQTT 3.1 nor 3.1.1.
	ErrV3UnacceptableProtocolVersion = errors.New("xerror: unacceptable protocol version")

	// ErrV3IdentifierRejected marks a CONNECT with an invalid client
	// identifier (empty id without clean session, for MQTT 3.1).
	ErrV3IdentifierRejected = errors.New("xerror: identifier rejected")

	// ErrV3BadUsernameOrPassword marks a CONNECT whose credentials are
	// missing, malformed, or rejected by the auth service.
	ErrV3BadUsernameOrPassword = errors.New("xerror: bad username or password")

	// ErrInvalidTopicFilter marks a SUBSCRIBE/UNSUBSCRIBE topic filter
	// that fails validation (empty filter, misplaced wildcard).
	ErrInvalidTopicFilter = errors.New("xerror: invalid topic filter")

	// ErrSessionAbsent marks a lookup for a session that the sessions
	// store does not have a record of.
	ErrSessionAbsent = errors.New("xerror: session absent")
)
