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

// TopicQoS is one {topic filter, requested QoS} pair of a Subscribe packet.
type TopicQoS struct {
	Topic []byte
	QoS   QoS
}

// Subscribe registers interest in one or more topic filters.
type Subscribe struct {
	MessageId uint16
	Topics    []TopicQoS
}

// NewSubscribe decodes a Subscribe packet.
func NewSubscribe(fh *FixedHeader, r io.Reader) (*Subscribe, error) {
	if fh.Flags != FixedHeaderFlagQoS1 {
		return nil, xerror.ErrMalformed
	}
	rest := make([]byte, fh.RemainLength)
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, err
	}
	buf := bytes.NewBuffer(rest)

	id, err := readUint16(buf)
	if err != nil {
		return nil, xerror.ErrMalformed
	}
	s := &Subscribe{MessageId: id}
	for buf.Len() > 0 {
		topic, err := UTF8DecodedStrings(true, buf)
		if err != nil {
			return nil, xerror.ErrMalformed
		}
		qosByte, err := buf.ReadByte()
		if err != nil {
			return nil, xerror.ErrMalformed
		}
		qos := QoS(qosByte & 0x03)
		if !qos.Valid() {
			return nil, xerror.ErrMalformed
		}
		s.Topics = append(s.Topics, TopicQoS{Topic: topic, QoS: qos})
	}
	if len(s.Topics) == 0 {
		return nil, xerror.ErrMalformed // [MQTT-3.8.3-3]
	}
	return s, nil
}

// Encode writes the Subscribe packet to w.
func (s *Subscribe) Encode(w io.Writer) error {
	buf := &bytes.Buffer{}
	if err := writeUint16(buf, s.MessageId); err != nil {
		return err
	}
	for _, t := range s.Topics {
		topicBytes, _, err := UTF8EncodedStrings(t.Topic)
		if err != nil {
			return err
		}
		buf.Write(topicBytes)
		buf.WriteByte(byte(t.QoS))
	}
	return encode(&FixedHeader{PacketType: SUBSCRIBE, Flags: FixedHeaderFlagQoS1}, buf, w)
}

// Unsubscribe removes interest in one or more topic filters.
type Unsubscribe struct {
	MessageId uint16
	Topics    [][]byte
}

// NewUnsubscribe decodes an Unsubscribe packet.
func NewUnsubscribe(fh *FixedHeader, r io.Reader) (*Unsubscribe, error) {
	if fh.Flags != FixedHeaderFlagQoS1 {
		return nil, xerror.ErrMalformed
	}
	rest := make([]byte, fh.RemainLength)
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, err
	}
	buf := bytes.NewBuffer(rest)

	id, err := readUint16(buf)
	if err != nil {
		return nil, xerror.ErrMalformed
	}
	u := &Unsubscribe{MessageId: id}
	for buf.Len() > 0 {
		topic, err := UTF8DecodedStrings(true, buf)
		if err != nil {
			return nil, xerror.ErrMalformed
		}
		u.Topics = append(u.Topics, topic)
	}
	if len(u.Topics) == 0 {
		return nil, xerror.ErrMalformed // [MQTT-3.10.3-2]
	}
	return u, nil
}

// Encode writes the Unsubscribe packet to w.
func (u *Unsubscribe) Encode(w io.Writer) error {
	buf := &bytes.Buffer{}
	if err := writeUint16(buf, u.MessageId); err != nil {
		return err
	}
	for _, t := range u.Topics {
		topicBytes, _, err := UTF8EncodedStrings(t)
		if err != nil {
			return err
		}
		buf.Write(topicBytes)
	}
	return encode(&FixedHeader{PacketType: UNSUBSCRIBE, Flags: FixedHeaderFlagQoS1}, buf, w)
}
