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

package packet

import (
	"bytes"
	"io"

	"github.com/lighthousemq/core/internal/code"
	"github.com/lighthousemq/core/internal/xerror"
)

// Connack is the broker's acknowledgment of a CONNECT packet.
type Connack struct {
	Version        Version
	SessionPresent bool
	Code           code.Code
}

// NewConnackFromReader decodes a Connack from its variable header.
func NewConnackFromReader(fh *FixedHeader, version Version, r io.Reader) (*Connack, error) {
	if fh.Flags != FixedHeaderFlagReserved {
		return nil, xerror.ErrMalformed
	}
	rest := make([]byte, fh.RemainLength)
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, err
	}
	if len(rest) != 2 {
		return nil, xerror.ErrMalformed
	}
	return &Connack{
		Version:        version,
		SessionPresent: rest[0]&0x01 != 0,
		Code:           code.Code(rest[1]),
	}, nil
}

// Encode writes the Connack packet to w.
func (a *Connack) Encode(w io.Writer) error {
	buf := &bytes.Buffer{}
	var flags byte
	if a.SessionPresent {
		flags = 0x01
	}
	buf.WriteByte(flags)
	buf.WriteByte(byte(a.Code))
	return encode(&FixedHeader{PacketType: CONNACK, Flags: FixedHeaderFlagReserved}, buf, w)
}
