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

// Package constants defines protocol-level constants for the OAuth 2.0 / OIDC core.
package constants

// GrantType defines the supported OAuth 2.0 grant types.
type GrantType string

const (
	// GrantTypeAuthorizationCode is the authorization code grant type.
	GrantTypeAuthorizationCode GrantType = "authorization_code"
	// GrantTypeClientCredentials is the client credentials grant type.
	GrantTypeClientCredentials GrantType = "client_credentials"
	// GrantTypeRefreshToken is the refresh token grant type.
	GrantTypeRefreshToken GrantType = "refresh_token"
)

// OAuth 2.0 error codes returned to callers.
const (
	ErrorInvalidRequest       = "invalid_request"
	ErrorInvalidGrant         = "invalid_grant"
	ErrorInvalidClient        = "invalid_client"
	ErrorAccessDenied         = "access_denied"
	ErrorLoginRequired        = "login_required"
	ErrorConsentRequired      = "consent_required"
	ErrorServerError          = "server_error"
	ErrorUnsupportedGrantType = "unsupported_grant_type"
)

// Token types returned in the token response.
const (
	TokenTypeBearer = "Bearer"
	TokenTypeDPoP   = "DPoP"
)

// Request and callback parameter names.
const (
	ParamCorrelationID = "correlation_id"
	ParamState         = "state"
	ParamCode          = "code"
	ParamUIMode        = "ui_mode"
)

// Identity scopes never produce resource audiences.
var IdentityScopes = []string{"openid", "profile", "email", "address", "phone", "offline_access"}

// ScopeOfflineAccess is the scope gating refresh token issuance.
const ScopeOfflineAccess = "offline_access"

// ScopeOpenID is the scope gating ID token issuance.
const ScopeOpenID = "openid"

// EndpointType identifies the protocol endpoint an in-flight request entered through.
type EndpointType string

const (
	// EndpointTypeAuthorize denotes the OAuth 2.0 / OIDC authorization endpoint.
	EndpointTypeAuthorize EndpointType = "authorize"
	// EndpointTypeSAML denotes the SAML SSO endpoint.
	EndpointTypeSAML EndpointType = "saml"
)

// Protocol names tracked in protocol state.
const (
	ProtocolOIDC = "oidc"
	ProtocolSAML = "saml"
)
