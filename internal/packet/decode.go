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
	"io"

	"github.com/lighthousemq/core/internal/xerror"
)

// Packet is any decoded MQTT control packet.
type Packet interface {
	Encode(w io.Writer) error
}

// Decode reads one fixed header then decodes the matching packet body.
// version is the negotiated protocol level for packets (CONNACK) whose
// decoding needs it; it is unused before CONNECT completes.
func Decode(r io.Reader, version Version) (Packet, error) {
	fh, err := ReadFixedHeader(r)
	if err != nil {
		return nil, err
	}
	switch fh.PacketType {
	case CONNECT:
		return NewConnect(fh, r)
	case CONNACK:
		return NewConnackFromReader(fh, version, r)
	case PUBLISH:
		return NewPublish(fh, r)
	case PUBACK:
		return NewPuback(fh, r)
	case PUBREC:
		return NewPubrec(fh, r)
	case PUBREL:
		return NewPubrel(fh, r)
	case PUBCOMP:
		return NewPubcomp(fh, r)
	case SUBSCRIBE:
		return NewSubscribe(fh, r)
	case UNSUBSCRIBE:
		return NewUnsubscribe(fh, r)
	case PINGREQ:
		return NewPingreq(fh)
	case DISCONNECT:
		return NewDisconnect(fh)
	default:
		return nil, xerror.ErrMalformed
	}
}
