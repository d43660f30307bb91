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

// Package subscription implements the SubscriptionIndex capability from
// spec.md §6.2: the process-wide filter -> subscriber index that
// route2Subscribers (spec.md §4.5) fans a publish out against, including
// MQTT '+' and '#' wildcard matching.
package subscription

import (
	"strings"

	"github.com/lighthousemq/core/internal/packet"
)

// Subscriber is a single entry in the index: a clientId paired with the
// QoS it asked for when it subscribed to the filter.
type Subscriber struct {
	ClientId string
	QoS      packet.QoS
}

// Store is the SubscriptionIndex capability: add, remove and match
// topic filters against a concrete publish topic.
type Store interface {
	// Add installs clientId's subscription to filter at qos, replacing
	// any existing subscription by the same client to the same filter.
	Add(filter string, clientId string, qos packet.QoS) error
	// Remove drops clientId's subscription to filter, if any.
	Remove(filter string, clientId string)
	// RemoveClient drops every subscription held by clientId, across all
	// filters, used on session Clear/purge.
	RemoveClient(clientId string)
	// Match returns every subscriber whose filter matches topic, per the
	// '+'/'#' wildcard rules of spec.md §4.5.
	Match(topic string) []Subscriber
}

// Validate reports whether filter is a well-formed MQTT topic filter:
// '#' only as the final level, '+' only as a whole level.
func Validate(filter string) bool {
	if filter == "" {
		return false
	}
	levels := strings.Split(filter, "/")
	for i, level := range levels {
		switch {
		case level == "#":
			if i != len(levels)-1 {
				return false
			}
		case strings.Contains(level, "#"):
			return false
		case level == "+":
			// whole-level wildcard, always fine
		case strings.Contains(level, "+"):
			return false
		}
	}
	return true
}

// ValidateWithWildcards reports whether filter is well-formed per
// Validate and, when wildcardsAllowed is false (config.Mqtt's
// WildcardAvailable toggle), additionally rejects any filter using '+'
// or '#'.
func ValidateWithWildcards(filter string, wildcardsAllowed bool) bool {
	if !Validate(filter) {
		return false
	}
	if !wildcardsAllowed && strings.ContainsAny(filter, "+#") {
		return false
	}
	return true
}

// Matches reports whether filter matches topic under the MQTT wildcard
// rules, the matchTopics(topic, filter) capability of spec.md §6.2.
func Matches(filter, topic string) bool {
	return matches(filter, topic)
}

// matches reports whether filter matches topic under the MQTT wildcard
// rules: '+' matches exactly one level, '#' matches the remainder of the
// topic (including zero levels), and a topic beginning with '$' is matched
// only by a filter that also begins with '$', so a leading '#' or '+'
// never matches it.
func matches(filter, topic string) bool {
	if strings.HasPrefix(topic, "$") && !strings.HasPrefix(filter, "$") {
		return false
	}

	filterLevels := strings.Split(filter, "/")
	topicLevels := strings.Split(topic, "/")

	for i, fl := range filterLevels {
		if fl == "#" {
			return true
		}
		if i >= len(topicLevels) {
			return false
		}
		if fl != "+" && fl != topicLevels[i] {
			return false
		}
	}
	return len(filterLevels) == len(topicLevels)
}
