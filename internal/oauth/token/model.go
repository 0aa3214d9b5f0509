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

package token

import (
	"time"

	"github.com/asgardeo/tempest/internal/application"
	"github.com/asgardeo/tempest/internal/oauth/grants"
	"github.com/asgardeo/tempest/internal/oauth/oauth2/constants"
	"github.com/asgardeo/tempest/internal/oauth/oauth2/model"
)

const (
	defaultAccessTokenValidity  int64 = 3600
	defaultIDTokenValidity      int64 = 300
	defaultRefreshTokenValidity int64 = 86400
)

// AccessTokenRequest carries the inputs for minting one access token.
type AccessTokenRequest struct {
	SubjectID      string
	ClientID       string
	TenantID       string
	SessionID      string
	Scopes         []string
	Claims         map[string]interface{}
	DPoPThumbprint string
	IsReference    bool
	ValidityPeriod int64
}

// AccessToken is a minted access token with its negotiated metadata.
type AccessToken struct {
	Value     string
	TokenType string
	ExpiresIn int64
}

// IDTokenRequest carries the inputs for minting one ID token.
type IDTokenRequest struct {
	SubjectID      string
	PairwiseSalt   string
	ClientID       string
	TenantID       string
	SessionID      string
	Nonce          string
	AuthTime       time.Time
	AMR            []string
	ACR            string
	AccessToken    string
	Code           string
	Claims         map[string]interface{}
	ValidityPeriod int64
}

// RefreshTokenRequest carries the inputs for minting one refresh token.
type RefreshTokenRequest struct {
	SubjectID      string
	ClientID       string
	TenantID       string
	SessionID      string
	Scopes         []string
	Claims         map[string]string
	DPoPThumbprint string
	ValidityPeriod int64
}

// IssueRequest drives a full token-response issuance for one grant.
type IssueRequest struct {
	GrantType      constants.GrantType
	Application    application.OAuthApplication
	TenantID       string
	GrantResult    model.GrantResult
	Nonce          string
	AuthTime       time.Time
	AMR            []string
	ACR            string
	Code           string
	DPoPThumbprint string

	// ConsumedGrant is the refresh grant record exchanged on the
	// refresh_token grant type, used to apply the rotation policy.
	ConsumedGrant *grants.GrantRecord
}
