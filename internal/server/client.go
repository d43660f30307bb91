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
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lighthousemq/core/internal/packet"
	"github.com/lighthousemq/core/internal/processor"
)

// wireConn is the byte-stream capability client needs from its
// transport: a plain net.Conn for ServeTCP, or a websocketConn adapting
// a message-oriented gorilla/websocket connection for ServeWebsocket.
type wireConn interface {
	io.Reader
	io.Writer
	Close() error
	SetReadDeadline(t time.Time) error
}

// client adapts one wireConn into the processor's ChannelHandle
// capability and drives its read loop, decoding packets and dispatching
// them to the matching Processor handler (spec.md §9's per-channel
// worker). Reads and writes never run concurrently with each other in a
// way that would interleave a single write call, but WritePacket itself
// may be invoked both from this client's own read loop (replies to
// inbound packets) and from a different channel's fan-out delivery, so
// it takes its own lock.
type client struct {
	server *server
	conn   wireConn

	writeMu sync.Mutex

	version packet.Version
	chctx   *processor.ChannelContext
}

func newClient(s *server, conn wireConn) *client {
	return &client{server: s, conn: conn, version: packet.Version311}
}

// WritePacket implements processor.ChannelHandle. The packet is encoded
// into a buffer first and flushed in a single Write call, so a
// websocketConn emits exactly one WebSocket message per MQTT packet
// rather than one message per Encode-internal write.
func (c *client) WritePacket(p packet.Packet) error {
	buf := &bytes.Buffer{}
	if err := p.Encode(buf); err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := c.conn.Write(buf.Bytes())
	return err
}

// Close implements processor.ChannelHandle.
func (c *client) Close() error {
	return c.conn.Close()
}

// SetIdleTimeout implements processor.ChannelHandle.
func (c *client) SetIdleTimeout(d time.Duration) {
	if d <= 0 {
		_ = c.conn.SetReadDeadline(time.Time{})
		return
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(d))
}

// listen runs the client's read loop until the connection closes or a
// protocol violation is decoded, then reports the loss to the processor
// (spec.md §4.2). A clean CONNECT always precedes every other packet
// kind; anything else first is a protocol violation.
func (c *client) listen() {
	ctx := context.Background()
	defer c.conn.Close()

	first, err := packet.Decode(c.conn, c.version)
	if err != nil {
		return
	}
	connectPkt, ok := first.(*packet.Connect)
	if !ok {
		return
	}
	c.version = connectPkt.Version

	chctx, err := c.server.processor.HandleConnect(ctx, c, connectPkt)
	if err != nil || chctx == nil {
		return
	}
	c.chctx = chctx

	var lossErr error
	for {
		p, err := packet.Decode(c.conn, c.version)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				lossErr = err
			}
			break
		}
		c.resetIdleTimeout()

		if err := c.dispatch(ctx, p); err != nil {
			lossErr = err
			break
		}
		if _, isDisconnect := p.(*packet.Disconnect); isDisconnect {
			return
		}
	}

	c.server.processor.HandleConnectionLost(ctx, chctx, lossErr)
}

// resetIdleTimeout re-arms the read deadline after every inbound packet,
// so the keep-alive window (installed once by HandleConnect) slides
// forward with traffic instead of firing on the connection's first lull.
func (c *client) resetIdleTimeout() {
	if c.chctx == nil || c.chctx.KeepAliveSeconds == 0 {
		return
	}
	d := time.Duration(math.Ceil(float64(c.chctx.KeepAliveSeconds)*1.5)) * time.Second
	c.SetIdleTimeout(d)
}

func (c *client) dispatch(ctx context.Context, p packet.Packet) error {
	switch pkt := p.(type) {
	case *packet.Publish:
		return c.server.processor.HandlePublish(ctx, c.chctx, pkt)
	case *packet.Puback:
		return c.server.processor.HandlePubAck(ctx, c.chctx, pkt)
	case *packet.Pubrec:
		return c.server.processor.HandlePubRec(ctx, c.chctx, pkt)
	case *packet.Pubrel:
		return c.server.processor.HandlePubRel(ctx, c.chctx, pkt)
	case *packet.Pubcomp:
		return c.server.processor.HandlePubComp(ctx, c.chctx, pkt)
	case *packet.Subscribe:
		return c.server.processor.HandleSubscribe(ctx, c.chctx, pkt)
	case *packet.Unsubscribe:
		return c.server.processor.HandleUnsubscribe(ctx, c.chctx, pkt)
	case *packet.Pingreq:
		return c.WritePacket(&packet.Pingresp{})
	case *packet.Disconnect:
		return c.server.processor.HandleDisconnect(ctx, c.chctx)
	default:
		c.server.log.Warn("unexpected packet kind on established channel", zap.String("clientId", c.chctx.ClientId))
		return nil
	}
}
