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
	"go.uber.org/zap"

	"github.com/lighthousemq/core/internal/packet"
	"github.com/lighthousemq/core/internal/xlog"
)

// Logging is an Interceptor that records every notification at debug
// level, the same logger convention internal/server uses.
type Logging struct {
	log *xlog.Log
}

// NewLogging returns a Logging interceptor.
func NewLogging() *Logging {
	return &Logging{log: xlog.LoggerModule("interceptor")}
}

func (l *Logging) NotifyClientConnected(clientId string) {
	l.log.Debug("client connected", zap.String("clientId", clientId))
}

func (l *Logging) NotifyClientDisconnected(clientId string, err error) {
	l.log.Debug("client disconnected", zap.String("clientId", clientId), zap.Error(err))
}

func (l *Logging) NotifyTopicPublished(clientId, topic string, qos packet.QoS, payload []byte) {
	l.log.Debug("topic published",
		zap.String("clientId", clientId),
		zap.String("topic", topic),
		zap.Stringer("qos", qos),
		zap.Int("payloadLen", len(payload)),
	)
}

func (l *Logging) NotifyTopicSubscribed(clientId, filter string, qos packet.QoS) {
	l.log.Debug("topic subscribed",
		zap.String("clientId", clientId),
		zap.String("filter", filter),
		zap.Stringer("qos", qos),
	)
}

func (l *Logging) NotifyTopicUnsubscribed(clientId, filter string) {
	l.log.Debug("topic unsubscribed", zap.String("clientId", clientId), zap.String("filter", filter))
}
