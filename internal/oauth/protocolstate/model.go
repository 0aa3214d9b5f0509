/*
 * Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

// Package protocolstate provides correlation-ID keyed storage for in-flight
// protocol requests across redirects.
package protocolstate

import (
	"time"

	"github.com/asgardeo/tempest/internal/oauth/oauth2/constants"
)

// DefaultStateValidityPeriod is the lifetime of an in-flight protocol request.
const DefaultStateValidityPeriod = 10 * time.Minute

// ProtocolState holds an in-flight protocol request between the initial
// request and its eventual callback. It is keyed by an opaque, unguessable
// correlation ID and is single-use.
type ProtocolState struct {
	ProtocolName      string
	SerializedRequest string
	ClientID          string
	TenantID          string
	EndpointType      constants.EndpointType
	Properties        map[string]string
	CreatedAt         time.Time
}

// SetProperty records a property on the state, initializing the map when needed.
func (ps *ProtocolState) SetProperty(key, value string) {
	if ps.Properties == nil {
		ps.Properties = make(map[string]string)
	}
	ps.Properties[key] = value
}

// GetProperty returns the property value, empty when absent.
func (ps *ProtocolState) GetProperty(key string) string {
	return ps.Properties[key]
}
