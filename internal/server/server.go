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
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/lighthousemq/core/config"
	"github.com/lighthousemq/core/internal/auth"
	"github.com/lighthousemq/core/internal/goroutine"
	"github.com/lighthousemq/core/internal/interceptor"
	"github.com/lighthousemq/core/internal/persistence"
	"github.com/lighthousemq/core/internal/persistence/message"
	"github.com/lighthousemq/core/internal/persistence/session"
	"github.com/lighthousemq/core/internal/persistence/subscription"
	"github.com/lighthousemq/core/internal/processor"
	"github.com/lighthousemq/core/internal/xlog"
	"github.com/lighthousemq/core/internal/xtrace"
)

type (
	Server interface {
		Stop(ctx context.Context) error
		Run() error
	}
	Option func(server *Options)

	Options struct {
		tcpListen       string
		websocketListen string
		persistence     *config.Persistence
		mqtt            *config.Mqtt
		auth            auth.Service
		interceptor     interceptor.Interceptor
	}
	server struct {
		tcpListen         string
		websocketListen   string
		tcpListener       net.Listener //tcp listeners
		websocketUpgrader websocket.Upgrader
		sessionStore      session.Store
		subscriptionStore subscription.Store
		messageStore      message.Store
		processor         *processor.Processor
		log               *xlog.Log
		tracer            trace.Tracer
	}
)

func WithTcpListen(tcpListen string) Option {
	return func(opts *Options) {
		opts.tcpListen = tcpListen
	}
}
func WithPersistence(persistence *config.Persistence) Option {
	return func(opts *Options) {
		opts.persistence = persistence
	}
}

// WithMqttConfig installs the config.Mqtt broker limits the processor
// enforces directly (keep-alive clamp, zero-length clientId, retained
// and wildcard availability, offline queue bound).
func WithMqttConfig(mqtt *config.Mqtt) Option {
	return func(opts *Options) {
		opts.mqtt = mqtt
	}
}

func WithWebsocketListen(websocketListen string) Option {
	return func(opts *Options) {
		opts.websocketListen = websocketListen
	}
}

// WithAuth installs the AuthService the processor consults on CONNECT.
func WithAuth(a auth.Service) Option {
	return func(opts *Options) {
		opts.auth = a
	}
}

// WithInterceptor installs the broker-lifecycle notification hook.
func WithInterceptor(i interceptor.Interceptor) Option {
	return func(opts *Options) {
		opts.interceptor = i
	}
}

func NewServer(opts ...Option) *server {
	options := loadServerOptions(opts...)
	s := &server{}
	s.init(options)
	s.log = xlog.LoggerModule("server")
	return s
}
func loadServerOptions(opts ...Option) *Options {
	options := new(Options)
	for _, opt := range opts {
		opt(options)
	}
	if options.tcpListen == "" {
		options.tcpListen = ":1883"
	}
	return options
}

func (s *server) ServeTCP() {
	//propagator := otel.GetTextMapPropagator()
	s.tracer = otel.GetTracerProvider().Tracer(xtrace.Name)

	defer func() {
		err := s.tcpListener.Close()
		if err != nil {
			s.log.Error("tcpListener close", zap.Error(err))
		}
	}()
	var tempDelay time.Duration

	for {
		accept, err := s.tcpListener.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Temporary() {
				if tempDelay == 0 {
					tempDelay = 5 * time.Millisecond
				} else {
					tempDelay *= 2
				}
				if max := 1 * time.Second; tempDelay > max {
					tempDelay = max
				}
				time.Sleep(tempDelay)
				continue
			}
			return
		}
		// 创建一个客户端连接

		c := newClient(s, accept)
		// 监听该连接
		goroutine.Go(func() {
			c.listen()
		})

	}
}

func (s *server) init(opts *Options) {
	s.tcpListen = opts.tcpListen
	s.websocketListen = opts.websocketListen
	s.log = xlog.LoggerModule("server")

	// session store
	sessionStore, ok := persistence.GetSessionStore(opts.persistence.Session.Type)
	if !ok {
		s.log.Panic("invalid session store")
	}

	if store, err := sessionStore(&opts.persistence.Session); err != nil {
		s.log.Panic("session store", zap.Error(err))
	} else {
		s.sessionStore = store
		s.log.Info("session store", zap.String("type", opts.persistence.Session.Type))
	}

	// subscriptionStore store
	subscriptionStoreFunc, ok := persistence.GetSubscriptionStore(opts.persistence.Subscription.Type)
	if !ok {
		s.log.Panic("invalid subscriptionStore store")
	}

	if subscriptionStore, err := subscriptionStoreFunc(&opts.persistence.Subscription); err != nil {
		s.log.Panic("subscriptionStore store", zap.Error(err))
	} else {
		s.subscriptionStore = subscriptionStore
		s.log.Info("subscriptionStore store", zap.String("type", opts.persistence.Subscription.Type))
	}

	s.messageStore = message.NewMemory()

	var procOpts []processor.Option
	if opts.auth != nil {
		procOpts = append(procOpts, processor.WithAuth(opts.auth))
	}
	if opts.interceptor != nil {
		procOpts = append(procOpts, processor.WithInterceptor(opts.interceptor))
	}
	if opts.mqtt != nil {
		procOpts = append(procOpts, processor.WithLimits(processor.Limits{
			MaxKeepAlive:         opts.mqtt.MaxKeepAlive,
			AllowZeroLenClientId: opts.mqtt.AllowZeroLenClientId,
			RetainAvailable:      opts.mqtt.RetainAvailable,
			WildcardAvailable:    opts.mqtt.WildcardAvailable,
			MaxQueueMessages:     opts.mqtt.MaxQueueMessages,
		}))
	}
	s.processor = processor.NewProcessor(s.sessionStore, s.messageStore, s.subscriptionStore, procOpts...)

	ln, err := net.Listen("tcp", s.tcpListen)
	if err != nil {
		s.log.Panic("start tcp error", zap.String("tcp", s.tcpListen), zap.Error(err))
	}
	s.log.Info("start tcp", zap.String("TCP", s.tcpListen))
	s.tcpListener = ln

	s.websocketUpgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		Subprotocols:    []string{"mqtt"},
	}
}

// ServeWebsocket accepts MQTT-over-WebSocket connections on
// s.websocketListen, upgrading each HTTP request and driving it through
// the same client read loop as a plain TCP connection.
func (s *server) ServeWebsocket() error {
	if s.websocketListen == "" {
		return nil
	}
	s.tracer = otel.GetTracerProvider().Tracer(xtrace.Name)

	mux := http.NewServeMux()
	mux.HandleFunc("/mqtt", func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.websocketUpgrader.Upgrade(w, r, nil)
		if err != nil {
			s.log.Warn("websocket upgrade failed", zap.Error(err))
			return
		}
		c := newClient(s, &websocketConn{Conn: conn})
		goroutine.Go(func() {
			c.listen()
		})
	})

	return http.ListenAndServe(s.websocketListen, mux)
}

// Run starts the TCP listener and, if configured, the WebSocket
// listener, blocking until either returns.
func (s *server) Run() error {
	if s.websocketListen != "" {
		goroutine.Go(func() {
			if err := s.ServeWebsocket(); err != nil {
				s.log.Error("websocket server", zap.Error(err))
			}
		})
	}
	s.ServeTCP()
	return nil
}

// Stop closes the TCP listener, refusing new connections; established
// connections drain through their own read loops.
func (s *server) Stop(ctx context.Context) error {
	if s.tcpListener != nil {
		return s.tcpListener.Close()
	}
	return nil
}
