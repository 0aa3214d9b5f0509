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

// Package claims provides claim collection from pluggable providers with
// deterministic conflict resolution.
package claims

import (
	"context"
)

// ClaimsContext carries the inputs a provider needs to decide whether and
// what to contribute.
type ClaimsContext struct {
	SubjectID string
	TenantID  string
	ClientID  string
	SessionID string
	Protocol  string
	Scopes    []string
}

// ProviderInterface defines the contract for a pluggable claims provider.
type ProviderInterface interface {
	// Name identifies the provider in logs and the registry.
	Name() string
	// Priority orders providers; higher priorities are applied first.
	Priority() int
	// TriggerScopes restricts the provider to requests carrying at least one
	// of these scopes. Empty means no scope restriction.
	TriggerScopes() []string
	// TriggerProtocols restricts the provider to the named protocols.
	// Empty means no protocol restriction.
	TriggerProtocols() []string
	// CanProvide reports whether the provider applies to the given context.
	CanProvide(ctx context.Context, claimsCtx ClaimsContext) bool
	// GetClaims returns the provider's claim contribution.
	GetClaims(ctx context.Context, claimsCtx ClaimsContext) (map[string]interface{}, error)
}
