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

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a Config from a YAML file at path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	c := Default()
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid: %w", err)
	}
	return c, nil
}

// Default returns a Config with the broker's out-of-the-box settings:
// unauthenticated, in-memory stores, TCP on :1883, retained messages and
// wildcard subscriptions both available, no keep-alive clamp or queue
// bound.
func Default() *Config {
	return &Config{
		TcpListen: ":1883",
		Persistence: Persistence{
			Session:      SessionStoreConfig{Type: "memory"},
			Subscription: SubscriptionStoreConfig{Type: "memory"},
		},
		Mqtt: Mqtt{
			RetainAvailable:   true,
			WildcardAvailable: true,
		},
		Log: Log{
			Level:   "info",
			Console: true,
		},
		Trace: Trace{
			Exporter: "none",
		},
	}
}
