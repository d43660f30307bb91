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

package server

import (
	"io"
	"time"

	"github.com/gorilla/websocket"
)

// websocketConn adapts a message-oriented *websocket.Conn into the
// byte-stream wireConn client needs: Read drains the current inbound
// binary message and transparently moves to the next one, and each
// Write call is flushed as its own WebSocket binary message (matching
// MQTT-over-WebSocket's "one or more complete MQTT packets per WebSocket
// message", restricted here to exactly one).
type websocketConn struct {
	*websocket.Conn

	r io.Reader
}

func (c *websocketConn) Read(p []byte) (int, error) {
	for {
		if c.r == nil {
			_, r, err := c.Conn.NextReader()
			if err != nil {
				return 0, err
			}
			c.r = r
		}
		n, err := c.r.Read(p)
		if err == io.EOF {
			c.r = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (c *websocketConn) Write(p []byte) (int, error) {
	if err := c.Conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *websocketConn) SetReadDeadline(t time.Time) error {
	return c.Conn.SetReadDeadline(t)
}
