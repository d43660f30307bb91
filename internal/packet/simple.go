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

// Disconnect is a graceful client-initiated session teardown.
type Disconnect struct{}

// NewDisconnect decodes a (zero-length, no flags) Disconnect packet.
func NewDisconnect(fh *FixedHeader) (*Disconnect, error) {
	if fh.Flags != FixedHeaderFlagReserved || fh.RemainLength != 0 {
		return nil, xerror.ErrMalformed
	}
	return &Disconnect{}, nil
}

// Encode writes the Disconnect packet to w.
func (d *Disconnect) Encode(w io.Writer) error {
	_, err := w.Write([]byte{DISCONNECT << 4, 0x00})
	return err
}

// Pingreq is a client keep-alive probe.
type Pingreq struct{}

// NewPingreq decodes a Pingreq packet.
func NewPingreq(fh *FixedHeader) (*Pingreq, error) {
	if fh.Flags != FixedHeaderFlagReserved || fh.RemainLength != 0 {
		return nil, xerror.ErrMalformed
	}
	return &Pingreq{}, nil
}

// Encode writes the Pingreq packet to w.
func (p *Pingreq) Encode(w io.Writer) error {
	_, err := w.Write([]byte{PINGREQ << 4, 0x00})
	return err
}

// Pingresp answers a Pingreq.
type Pingresp struct{}

// Encode writes the Pingresp packet to w.
func (p *Pingresp) Encode(w io.Writer) error {
	_, err := w.Write([]byte{PINGRESP << 4, 0x00})
	return err
}
