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

	"github.com/lighthousemq/core/internal/xerror"
)

// Packet type identifiers, MQTT 3.1.1 section 2.2.1.
const (
	CONNECT = byte(iota + 1)
	CONNACK
	PUBLISH
	PUBACK
	PUBREC
	PUBREL
	PUBCOMP
	SUBSCRIBE
	SUBACK
	UNSUBSCRIBE
	UNSUBACK
	PINGREQ
	PINGRESP
	DISCONNECT
)

// FixedHeaderFlagReserved is the fixed, reserved flags nibble used by every
// control packet except PUBLISH, PUBREL, SUBSCRIBE and UNSUBSCRIBE.
const FixedHeaderFlagReserved = 0x00

// FixedHeaderFlagQoS1 is the flags nibble fixed for PUBREL, SUBSCRIBE and
// UNSUBSCRIBE (a reserved QoS-1-shaped bit pattern, MQTT 3.1.1 table 2.2).
const FixedHeaderFlagQoS1 = 0x02

// FixedHeader is the first byte (packet type + flags) and the remaining
// length of any MQTT control packet.
type FixedHeader struct {
	PacketType   byte
	Flags        byte
	RemainLength int
}

// PublishFlags returns the fixed-header flags nibble for a PUBLISH packet.
func PublishFlags(dup bool, qos QoS, retain bool) byte {
	var f byte
	if dup {
		f |= 0x08
	}
	f |= byte(qos) << 1
	if retain {
		f |= 0x01
	}
	return f
}

// ReadFixedHeader decodes the packet type/flags byte and the variable
// byte integer remaining-length from r.
func ReadFixedHeader(r io.Reader) (*FixedHeader, error) {
	var typeAndFlags [1]byte
	if _, err := io.ReadFull(r, typeAndFlags[:]); err != nil {
		return nil, err
	}

	remain, err := readRemainLength(r)
	if err != nil {
		return nil, err
	}

	return &FixedHeader{
		PacketType:   typeAndFlags[0] >> 4,
		Flags:        typeAndFlags[0] & 0x0f,
		RemainLength: remain,
	}, nil
}

func readRemainLength(r io.Reader) (int, error) {
	var value int
	for i := 0; i < 4; i++ {
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}
		digit := b[0]
		value += int(digit&0x7f) * pow128(i)
		if digit&0x80 == 0 {
			return value, nil
		}
	}
	return 0, xerror.ErrMalformed
}

func pow128(n int) int {
	v := 1
	for i := 0; i < n; i++ {
		v *= 128
	}
	return v
}

func writeRemainLength(w io.Writer, length int) error {
	if length < 0 || length > 268435455 {
		return xerror.ErrMalformed
	}
	for {
		digit := byte(length % 128)
		length /= 128
		if length > 0 {
			digit |= 0x80
		}
		if _, err := w.Write([]byte{digit}); err != nil {
			return err
		}
		if length == 0 {
			break
		}
	}
	return nil
}

// encode writes the fixed header (derived from fh.PacketType/fh.Flags and
// payload's length) followed by payload's bytes to w.
func encode(fh *FixedHeader, payload *bytes.Buffer, w io.Writer) error {
	typeAndFlags := (fh.PacketType << 4) | (fh.Flags & 0x0f)
	if _, err := w.Write([]byte{typeAndFlags}); err != nil {
		return err
	}
	if err := writeRemainLength(w, payload.Len()); err != nil {
		return err
	}
	_, err := w.Write(payload.Bytes())
	return err
}
