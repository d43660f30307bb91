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

// Publish carries an application message between client and broker.
type Publish struct {
	Dup       bool
	QoS       QoS
	Retain    bool
	Topic     []byte
	MessageId uint16 // present iff QoS > 0
	Payload   []byte
}

// NewPublish decodes a Publish packet from its variable header + payload.
func NewPublish(fh *FixedHeader, r io.Reader) (*Publish, error) {
	qos := QoS(fh.Flags >> 1 & 0x03)
	if !qos.Valid() || qos == 0x80 {
		return nil, xerror.ErrMalformed
	}
	p := &Publish{
		Dup:    fh.Flags&0x08 != 0,
		QoS:    qos,
		Retain: fh.Flags&0x01 != 0,
	}
	if p.Dup && p.QoS == AtMostOnce {
		return nil, xerror.ErrMalformed // [MQTT-3.3.1-2]
	}

	rest := make([]byte, fh.RemainLength)
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, err
	}
	buf := bytes.NewBuffer(rest)

	topic, err := UTF8DecodedStrings(true, buf)
	if err != nil {
		return nil, err
	}
	if len(topic) == 0 {
		return nil, xerror.ErrMalformed
	}
	p.Topic = topic

	if p.QoS > AtMostOnce {
		id, err := readUint16(buf)
		if err != nil {
			return nil, xerror.ErrMalformed
		}
		p.MessageId = id
	}
	p.Payload = buf.Bytes()
	return p, nil
}

// Encode writes the Publish packet to w.
func (p *Publish) Encode(w io.Writer) error {
	buf := &bytes.Buffer{}
	topicBytes, _, err := UTF8EncodedStrings(p.Topic)
	if err != nil {
		return err
	}
	buf.Write(topicBytes)
	if p.QoS > AtMostOnce {
		if err := writeUint16(buf, p.MessageId); err != nil {
			return err
		}
	}
	buf.Write(p.Payload)

	fh := &FixedHeader{PacketType: PUBLISH, Flags: PublishFlags(p.Dup, p.QoS, p.Retain)}
	return encode(fh, buf, w)
}
