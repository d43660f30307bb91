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

package packet

// Version is the MQTT protocol level carried by CONNECT.
type Version byte

const (
	// Version31 is MQTT 3.1 ("MQIsdp", level 3).
	Version31 Version = 3
	// Version311 is MQTT 3.1.1 ("MQTT", level 4).
	Version311 Version = 4
)

var version2protocolName = map[Version][]byte{
	Version31:  []byte("MQIsdp"),
	Version311: []byte("MQTT"),
}

// IsVersion3 reports whether v is MQTT 3.1 ("MQIsdp").
func IsVersion3(v Version) bool {
	return v == Version31
}

func (v Version) String() string {
	switch v {
	case Version31:
		return "3.1"
	case Version311:
		return "3.1.1"
	default:
		return "unknown"
	}
}
