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

	"github.com/lighthousemq/core/internal/binary"
	"github.com/lighthousemq/core/internal/xerror"
)

func writeUint16(w io.Writer, v uint16) error {
	return binary.WriteUint16(w, v)
}

func readUint16(r io.Reader) (uint16, error) {
	return binary.ReadUint16(r)
}

// UTF8EncodedStrings returns b prefixed with its two-byte big-endian
// length, and the total number of bytes written (2+len(b)).
func UTF8EncodedStrings(b []byte) ([]byte, int, error) {
	buf := &bytes.Buffer{}
	if err := binary.WriteUint16(buf, uint16(len(b))); err != nil {
		return nil, 0, err
	}
	if len(b) > 0 {
		buf.Write(b)
	}
	return buf.Bytes(), buf.Len(), nil
}

// UTF8DecodedStrings reads a length-prefixed UTF-8 string from buf. When
// mustPresent is true, a zero-length prefix with nothing remaining in buf
// is still a successful empty-string read; any short read is malformed.
func UTF8DecodedStrings(mustPresent bool, buf *bytes.Buffer) ([]byte, error) {
	n, err := binary.ReadUint16(buf)
	if err != nil {
		if mustPresent {
			return nil, xerror.ErrMalformed
		}
		return nil, err
	}
	if n == 0 {
		return []byte{}, nil
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(buf, b); err != nil {
		return nil, xerror.ErrMalformed
	}
	return b, nil
}
