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
)

// Suback acknowledges a Subscribe, one reason code per requested topic
// filter in the same order (QoS 0/1/2, or Failure for a rejected filter).
type Suback struct {
	MessageId   uint16
	ReasonCodes []QoS
}

// Encode writes the Suback packet to w.
func (s *Suback) Encode(w io.Writer) error {
	buf := &bytes.Buffer{}
	if err := writeUint16(buf, s.MessageId); err != nil {
		return err
	}
	for _, rc := range s.ReasonCodes {
		buf.WriteByte(byte(rc))
	}
	return encode(&FixedHeader{PacketType: SUBACK, Flags: FixedHeaderFlagReserved}, buf, w)
}

// Unsuback acknowledges an Unsubscribe.
type Unsuback struct {
	MessageId uint16
}

// Encode writes the Unsuback packet to w.
func (u *Unsuback) Encode(w io.Writer) error {
	return encodeIDPacket(UNSUBACK, FixedHeaderFlagReserved, u.MessageId, w)
}
