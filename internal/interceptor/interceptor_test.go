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

package interceptor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lighthousemq/core/internal/packet"
)

// recorder is a minimal Interceptor double that appends one string per
// notification received, in order.
type recorder struct {
	events []string
}

func (r *recorder) NotifyClientConnected(clientId string) {
	r.events = append(r.events, "connected:"+clientId)
}
func (r *recorder) NotifyClientDisconnected(clientId string, err error) {
	r.events = append(r.events, "disconnected:"+clientId)
}
func (r *recorder) NotifyTopicPublished(clientId, topic string, qos packet.QoS, payload []byte) {
	r.events = append(r.events, "published:"+clientId+":"+topic)
}
func (r *recorder) NotifyTopicSubscribed(clientId, filter string, qos packet.QoS) {
	r.events = append(r.events, "subscribed:"+clientId+":"+filter)
}
func (r *recorder) NotifyTopicUnsubscribed(clientId, filter string) {
	r.events = append(r.events, "unsubscribed:"+clientId+":"+filter)
}

func TestMulti_FansOutToEachInterceptorInOrder(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	m := Multi{a, b}

	m.NotifyClientConnected("c1")
	m.NotifyTopicSubscribed("c1", "a/b", packet.AtLeastOnce)
	m.NotifyTopicPublished("c1", "a/b", packet.AtLeastOnce, []byte("hi"))
	m.NotifyTopicUnsubscribed("c1", "a/b")
	m.NotifyClientDisconnected("c1", errors.New("reset"))

	want := []string{
		"connected:c1",
		"subscribed:c1:a/b",
		"published:c1:a/b",
		"unsubscribed:c1:a/b",
		"disconnected:c1",
	}
	assert.Equal(t, want, a.events)
	assert.Equal(t, want, b.events)
}

func TestMulti_EmptyIsANoop(t *testing.T) {
	var m Multi
	assert.NotPanics(t, func() {
		m.NotifyClientConnected("c1")
		m.NotifyClientDisconnected("c1", nil)
		m.NotifyTopicPublished("c1", "a/b", packet.AtMostOnce, nil)
		m.NotifyTopicSubscribed("c1", "a/b", packet.AtMostOnce)
		m.NotifyTopicUnsubscribed("c1", "a/b")
	})
}

func TestLogging_ImplementsInterceptorWithoutPanicking(t *testing.T) {
	l := NewLogging()
	var i Interceptor = l
	assert.NotPanics(t, func() {
		i.NotifyClientConnected("c1")
		i.NotifyClientDisconnected("c1", errors.New("boom"))
		i.NotifyTopicPublished("c1", "a/b", packet.ExactlyOnce, []byte("hi"))
		i.NotifyTopicSubscribed("c1", "a/b", packet.ExactlyOnce)
		i.NotifyTopicUnsubscribed("c1", "a/b")
	})
}
