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

// decodeIDPacket decodes the shared shape of PUBACK, PUBREC, PUBREL and
// PUBCOMP: a two-byte packet identifier and nothing else.
func decodeIDPacket(packetType, flags byte, fh *FixedHeader, r io.Reader) (uint16, error) {
	if fh.Flags != flags {
		return 0, xerror.ErrMalformed
	}
	rest := make([]byte, fh.RemainLength)
	if _, err := io.ReadFull(r, rest); err != nil {
		return 0, err
	}
	id, err := readUint16(bytes.NewReader(rest))
	if err != nil {
		return 0, xerror.ErrMalformed
	}
	return id, nil
}

func encodeIDPacket(packetType, flags byte, id uint16, w io.Writer) error {
	buf := &bytes.Buffer{}
	if err := writeUint16(buf, id); err != nil {
		return err
	}
	return encode(&FixedHeader{PacketType: packetType, Flags: flags}, buf, w)
}

// Puback acknowledges a QoS 1 Publish.
type Puback struct{ MessageId uint16 }

func NewPuback(fh *FixedHeader, r io.Reader) (*Puback, error) {
	id, err := decodeIDPacket(PUBACK, FixedHeaderFlagReserved, fh, r)
	if err != nil {
		return nil, err
	}
	return &Puback{MessageId: id}, nil
}
func (p *Puback) Encode(w io.Writer) error {
	return encodeIDPacket(PUBACK, FixedHeaderFlagReserved, p.MessageId, w)
}

// Pubrec is the broker's/client's receipt of a QoS 2 Publish.
type Pubrec struct{ MessageId uint16 }

func NewPubrec(fh *FixedHeader, r io.Reader) (*Pubrec, error) {
	id, err := decodeIDPacket(PUBREC, FixedHeaderFlagReserved, fh, r)
	if err != nil {
		return nil, err
	}
	return &Pubrec{MessageId: id}, nil
}
func (p *Pubrec) Encode(w io.Writer) error {
	return encodeIDPacket(PUBREC, FixedHeaderFlagReserved, p.MessageId, w)
}

// Pubrel releases a QoS 2 Publish for delivery.
type Pubrel struct{ MessageId uint16 }

func NewPubrel(fh *FixedHeader, r io.Reader) (*Pubrel, error) {
	id, err := decodeIDPacket(PUBREL, FixedHeaderFlagQoS1, fh, r)
	if err != nil {
		return nil, err
	}
	return &Pubrel{MessageId: id}, nil
}
func (p *Pubrel) Encode(w io.Writer) error {
	return encodeIDPacket(PUBREL, FixedHeaderFlagQoS1, p.MessageId, w)
}

// Pubcomp completes the QoS 2 handshake.
type Pubcomp struct{ MessageId uint16 }

func NewPubcomp(fh *FixedHeader, r io.Reader) (*Pubcomp, error) {
	id, err := decodeIDPacket(PUBCOMP, FixedHeaderFlagReserved, fh, r)
	if err != nil {
		return nil, err
	}
	return &Pubcomp{MessageId: id}, nil
}
func (p *Pubcomp) Encode(w io.Writer) error {
	return encodeIDPacket(PUBCOMP, FixedHeaderFlagReserved, p.MessageId, w)
}
