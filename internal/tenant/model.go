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

// Package tenant provides tenant configuration lookups.
package tenant

// Tenant holds the per-tenant configuration relevant to authentication
// coordination and token issuance.
type Tenant struct {
	ID           string
	Domain       string
	CustomDomain string

	// IssuerOverride, when set, takes precedence over the custom domain and
	// the server-configured issuer.
	IssuerOverride string

	// JourneysDisabled forces standalone authentication for the whole tenant
	// regardless of client or request preferences.
	JourneysDisabled bool

	// Token lifetime defaults in seconds. Zero means no tenant default.
	IDTokenValidityPeriod     int64
	AccessTokenValidityPeriod int64

	// Journey policy wiring.
	SignInPolicyID  string
	ConsentPolicyID string
	PolicyIDsByType map[string]string
}

// PolicyIDForType returns the tenant's policy for a journey type, if any.
func (t *Tenant) PolicyIDForType(journeyType string) string {
	if t.PolicyIDsByType == nil {
		return ""
	}
	return t.PolicyIDsByType[journeyType]
}
