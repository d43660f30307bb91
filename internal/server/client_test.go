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
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lighthousemq/core/internal/packet"
	"github.com/lighthousemq/core/internal/persistence/message"
	"github.com/lighthousemq/core/internal/persistence/session"
	"github.com/lighthousemq/core/internal/persistence/subscription"
	"github.com/lighthousemq/core/internal/processor"
	"github.com/lighthousemq/core/internal/xlog"
)

// newTestServer builds a server wired to fresh in-memory stores, the
// same way server.init would, but without requiring a config.Persistence
// or a live TCP listener.
func newTestServer() *server {
	return &server{
		processor: processor.NewProcessor(session.NewMemory(), message.NewMemory(), subscription.NewMemory()),
		log:       xlog.LoggerModule("server-test"),
	}
}

// dial returns a connected net.Pipe pair: end[0] plays the role of the
// accepted socket handed to newClient, end[1] is the test's remote peer.
func dial() (net.Conn, net.Conn) {
	return net.Pipe()
}

func TestClient_ListenAcceptsConnectAndRepliesConnack(t *testing.T) {
	s := newTestServer()
	serverSide, testSide := dial()
	c := newClient(s, serverSide)
	go c.listen()

	assert.NoError(t, (&packet.Connect{
		Version:      packet.Version311,
		ClientId:     []byte("c1"),
		ConnectFlags: packet.ConnectFlags{CleanSession: true},
	}).Encode(testSide))

	pk, err := packet.Decode(testSide, packet.Version311)
	assert.NoError(t, err)
	ack, ok := pk.(*packet.Connack)
	assert.True(t, ok)
	assert.False(t, ack.SessionPresent)

	_ = testSide.Close()
}

func TestClient_ListenRejectsNonConnectFirstPacket(t *testing.T) {
	s := newTestServer()
	serverSide, testSide := dial()
	c := newClient(s, serverSide)
	done := make(chan struct{})
	go func() {
		c.listen()
		close(done)
	}()

	assert.NoError(t, (&packet.Pingreq{}).Encode(testSide))
	_ = testSide.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("listen did not return after a non-CONNECT first packet")
	}
}

func TestClient_DispatchesPingreqToPingresp(t *testing.T) {
	s := newTestServer()
	serverSide, testSide := dial()
	c := newClient(s, serverSide)
	go c.listen()

	assert.NoError(t, (&packet.Connect{
		Version:      packet.Version311,
		ClientId:     []byte("c1"),
		ConnectFlags: packet.ConnectFlags{CleanSession: true},
	}).Encode(testSide))
	_, err := packet.Decode(testSide, packet.Version311) // connack
	assert.NoError(t, err)

	assert.NoError(t, (&packet.Pingreq{}).Encode(testSide))
	pk, err := packet.Decode(testSide, packet.Version311)
	assert.NoError(t, err)
	_, isPingresp := pk.(*packet.Pingresp)
	assert.True(t, isPingresp)

	_ = testSide.Close()
}

func TestClient_DisconnectEndsListenWithoutConnectionLoss(t *testing.T) {
	s := newTestServer()
	serverSide, testSide := dial()
	c := newClient(s, serverSide)
	done := make(chan struct{})
	go func() {
		c.listen()
		close(done)
	}()

	assert.NoError(t, (&packet.Connect{
		Version:      packet.Version311,
		ClientId:     []byte("c1"),
		ConnectFlags: packet.ConnectFlags{CleanSession: true},
	}).Encode(testSide))
	_, err := packet.Decode(testSide, packet.Version311) // connack
	assert.NoError(t, err)

	assert.NoError(t, (&packet.Disconnect{}).Encode(testSide))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("listen did not return after DISCONNECT")
	}
}

func TestClient_WritePacketSerializesConcurrentWriters(t *testing.T) {
	s := newTestServer()
	serverSide, testSide := dial()
	c := newClient(s, serverSide)

	done := make(chan error, 2)
	go func() { done <- c.WritePacket(&packet.Pingresp{}) }()
	go func() { done <- c.WritePacket(&packet.Pingresp{}) }()

	for i := 0; i < 2; i++ {
		pk, err := packet.Decode(testSide, packet.Version311)
		assert.NoError(t, err)
		_, ok := pk.(*packet.Pingresp)
		assert.True(t, ok)
	}
	assert.NoError(t, <-done)
	assert.NoError(t, <-done)

	_ = testSide.Close()
}

func TestClient_SetIdleTimeoutZeroClearsDeadline(t *testing.T) {
	s := newTestServer()
	serverSide, testSide := dial()
	c := newClient(s, serverSide)

	c.SetIdleTimeout(10 * time.Millisecond)
	c.SetIdleTimeout(0)
	time.Sleep(20 * time.Millisecond)

	go func() { _, _ = testSide.Write([]byte{0x01}) }()
	buf := make([]byte, 1)
	_, err := serverSide.Read(buf)
	assert.NoError(t, err, "a read after the old 10ms deadline still succeeds once the deadline is cleared")

	_ = c.Close()
}
