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

package processor

import (
	"context"

	"go.uber.org/zap"
)

// HandleDisconnect processes a graceful DISCONNECT (spec.md §4.2): the
// client asked to go, so no will is published regardless of whether one
// is registered.
func (p *Processor) HandleDisconnect(ctx context.Context, chctx *ChannelContext) error {
	_, span := p.tracer.Start(ctx, "processor.HandleDisconnect")
	defer span.End()

	clientId := chctx.ClientId
	p.clients.RemoveIfEqual(clientId, func(current *ChannelContext) bool { return current == chctx })
	p.wills.Remove(clientId)

	if sess, ok := p.sessions.SessionForClient(clientId); ok {
		p.teardownSession(clientId, sess)
	}

	err := chctx.Channel.Close()
	p.notify.NotifyClientDisconnected(clientId, nil)
	return err
}

// HandleConnectionLost processes an abnormal channel closure (spec.md
// §4.2): a transport error, idle timeout, or EOF with no preceding
// DISCONNECT. RemoveIfEqual guards against a race with a concurrent
// takeover CONNECT: if the registry no longer holds chctx, a newer
// connection already replaced it and this callback must not tear down
// that connection's state.
func (p *Processor) HandleConnectionLost(ctx context.Context, chctx *ChannelContext, lossErr error) {
	_, span := p.tracer.Start(ctx, "processor.HandleConnectionLost")
	defer span.End()

	clientId := chctx.ClientId
	if !p.clients.RemoveIfEqual(clientId, func(current *ChannelContext) bool { return current == chctx }) {
		return
	}

	if chctx.Stolen() {
		// A takeover already superseded this channel; its own CONNECT
		// handling owns the session now, and no will is published for a
		// connection the broker itself replaced.
		if sess, ok := p.sessions.SessionForClient(clientId); ok {
			sess.Deactivate()
		}
		return
	}

	if will, ok := p.wills.Get(clientId); ok {
		p.publishWill(clientId, will)
		p.wills.Remove(clientId)
	}

	if sess, ok := p.sessions.SessionForClient(clientId); ok {
		p.teardownSession(clientId, sess)
	}

	p.log.Debug("connection lost", zap.String("clientId", clientId), zap.Error(lossErr))
	p.notify.NotifyClientDisconnected(clientId, lossErr)
}
