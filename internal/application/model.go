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

// Package application provides OAuth application and API resource lookups.
package application

// RefreshTokenPolicy controls what happens when a refresh token is exchanged.
type RefreshTokenPolicy string

const (
	// RefreshTokenPolicyRotate invalidates the consumed handle and mints a
	// replacement on every exchange.
	RefreshTokenPolicyRotate RefreshTokenPolicy = "rotate"
	// RefreshTokenPolicyReUse keeps the consumed handle valid and mints no
	// replacement.
	RefreshTokenPolicyReUse RefreshTokenPolicy = "re-use"
)

// OAuthApplication holds the client configuration relevant to authentication
// coordination and token issuance.
type OAuthApplication struct {
	ClientID     string
	TenantID     string
	Name         string
	RedirectURIs []string
	GrantTypes   []string

	// PKCE policy.
	PKCERequired       bool
	AllowPlainTextPKCE bool

	// PairwiseSubjectSalt enables the pairwise subject transform for this
	// client. Empty means public subject identifiers.
	PairwiseSubjectSalt string

	// Token shape and lifetimes in seconds. Zero falls back to tenant or
	// server defaults.
	UseReferenceAccessTokens          bool
	AccessTokenValidityPeriod         int64
	IDTokenValidityPeriod             int64
	RefreshTokenValidityPeriod        int64
	RefreshTokenSlidingValidityPeriod int64
	RefreshTokenRotation              RefreshTokenPolicy

	AllowOfflineAccess bool
	RequireConsent     bool

	// JourneysEnabled overrides the tenant UI-mode default. Nil inherits.
	JourneysEnabled *bool
}

// APIResource is a protected resource owning a set of API scopes. Its name
// becomes a token audience when one of its scopes is granted.
type APIResource struct {
	Name     string
	TenantID string
	Scopes   []string
}
