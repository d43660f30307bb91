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

// Package xlog is the broker's structured logging facade: a thin named
// wrapper around zap, with lumberjack providing rotation for the
// production file sink.
package xlog

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Log is a named logger handle. It embeds *zap.Logger so call sites use
// the familiar zap.Field API (zap.Error, zap.String, ...).
type Log struct {
	*zap.Logger
}

// Options configures the process-wide logger built by Init.
type Options struct {
	// Filename is the rotated log file path. Empty disables file output
	// and logs to stderr only (development mode).
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Level      zapcore.Level
	Console    bool
}

var (
	mu   sync.Mutex
	base *zap.Logger
)

// Init installs the process-wide base logger. Safe to call more than
// once; the last call wins. Packages that called LoggerModule before
// Init keep logging to the bootstrap development logger.
func Init(opts Options) {
	mu.Lock()
	defer mu.Unlock()

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var cores []zapcore.Core
	if opts.Filename != "" {
		sink := zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.Filename,
			MaxSize:    orDefault(opts.MaxSizeMB, 100),
			MaxBackups: orDefault(opts.MaxBackups, 5),
			MaxAge:     orDefault(opts.MaxAgeDays, 28),
			Compress:   true,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), sink, opts.Level))
	}
	if opts.Console || opts.Filename == "" {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.Lock(zapcore.AddSync(os.Stderr)), opts.Level))
	}

	base = zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// LoggerModule returns a Log scoped to the named module
// (xlog.LoggerModule("server").Info(...) etc), matching the teacher's
// call convention from internal/server/server.go.
func LoggerModule(name string) *Log {
	mu.Lock()
	l := base
	mu.Unlock()
	if l == nil {
		l, _ = zap.NewDevelopment()
	}
	return &Log{Logger: l.Named(name)}
}
