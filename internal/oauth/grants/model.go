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

// Package grants provides opaque grant record storage keyed by unguessable handles.
package grants

import (
	"time"
)

// GrantType tags the kind of grant a record represents.
type GrantType string

const (
	// GrantTypeAuthorizationCode tags a persisted authorization code grant.
	GrantTypeAuthorizationCode GrantType = "authorization_code"
	// GrantTypeRefreshToken tags a persisted refresh token grant.
	GrantTypeRefreshToken GrantType = "refresh_token"
	// GrantTypeReferenceToken tags a persisted reference access token grant.
	GrantTypeReferenceToken GrantType = "reference_token"
)

// Data keys carried on grant records.
const (
	// DataKeyCodeChallenge binds a PKCE challenge to an authorization code.
	DataKeyCodeChallenge = "code_challenge"
	// DataKeyCodeChallengeMethod records the challenge transform.
	DataKeyCodeChallengeMethod = "code_challenge_method"
	// DataKeyAuthTime records when the user authenticated, in unix seconds.
	DataKeyAuthTime = "auth_time"
	// DataKeyAuthMethods records the authentication method references,
	// space-separated.
	DataKeyAuthMethods = "amr"
)

// handleRandomBytes yields a 256-bit random handle.
const handleRandomBytes = 32

// timeNow is a seam for tests.
var timeNow = time.Now

// GrantRecord is an opaque grant stored server-side and resolved by its handle.
type GrantRecord struct {
	Handle         string
	Type           GrantType
	SubjectID      string
	ClientID       string
	TenantID       string
	SessionID      string
	Scopes         []string
	Claims         map[string]string
	DPoPThumbprint string
	Data           map[string]string
	CreatedAt      time.Time
	ExpiresAt      time.Time
	LastUsedAt     time.Time
}

// IsExpired reports whether the grant has passed its expiry time.
func (g *GrantRecord) IsExpired() bool {
	return !g.ExpiresAt.IsZero() && time.Now().After(g.ExpiresAt)
}
