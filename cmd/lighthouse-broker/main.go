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

// Command lighthouse-broker starts a standalone MQTT 3.1/3.1.1 broker
// over TCP and, if configured, WebSocket.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lighthousemq/core/config"
	"github.com/lighthousemq/core/internal/goroutine"
	"github.com/lighthousemq/core/internal/interceptor"
	"github.com/lighthousemq/core/internal/server"
	"github.com/lighthousemq/core/internal/xlog"
	"github.com/lighthousemq/core/internal/xtrace"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file; out-of-the-box defaults if empty")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			panic(err)
		}
		cfg = loaded
	} else if err := cfg.Validate(); err != nil {
		panic(err)
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = zapcore.InfoLevel
	}
	xlog.Init(xlog.Options{
		Filename:   cfg.Log.Filename,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Level:      level,
		Console:    cfg.Log.Console,
	})
	log := xlog.LoggerModule("main")

	shutdownTracing, err := xtrace.Init("lighthouse-broker", xtrace.Exporter(cfg.Trace.Exporter), cfg.Trace.Endpoint)
	if err != nil {
		log.Fatal("trace init failed", zap.Error(err))
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	srv := server.NewServer(
		server.WithTcpListen(cfg.TcpListen),
		server.WithWebsocketListen(cfg.WebsocketListen),
		server.WithPersistence(&cfg.Persistence),
		server.WithMqttConfig(&cfg.Mqtt),
		server.WithInterceptor(interceptor.NewLogging()),
	)

	go func() {
		if err := srv.Run(); err != nil {
			log.Error("server run failed", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info("shutting down")
	_ = srv.Stop(context.Background())
	goroutine.Release()
}
