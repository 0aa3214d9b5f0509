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

package coordinator

import (
	"time"

	journeyconst "github.com/asgardeo/tempest/internal/journey/constants"
	"github.com/asgardeo/tempest/internal/oauth/oauth2/constants"
	"github.com/asgardeo/tempest/internal/oauth/oauth2/model"
)

// UIMode selects how the user authenticates for one authorization attempt.
type UIMode string

const (
	// UIModeJourney runs a configurable multi-step journey in an embedded UI.
	UIModeJourney UIMode = "JOURNEY"
	// UIModeStandalone redirects to a protocol-agnostic hosted page.
	UIModeStandalone UIMode = "STANDALONE"
	// UIModeHeadless returns structured requirements for API-driven clients.
	UIModeHeadless UIMode = "HEADLESS"
)

// Prompt values with coordinator-level meaning.
const (
	PromptLogin  = "login"
	PromptCreate = "create"
	PromptNone   = "none"
)

// Requirement types selecting the standalone page.
const (
	RequirementTypeLogin          = "login"
	RequirementTypeRegister       = "register"
	RequirementTypeForgotPassword = "forgot_password"
	RequirementTypeProfile        = "profile"
)

// AuthenticationRequirement is the immutable input to the coordinator for one
// authorization attempt.
type AuthenticationRequirement struct {
	Prompt              string
	ForceFreshLogin     bool
	MaxAgeSeconds       int64
	LoginHint           string
	ACRValues           []string
	RequestedScopes     []string
	SuggestedPolicyType journeyconst.JourneyType
	ExplicitPolicyID    string
	ContextPolicyID     string
	RequestedUIMode     UIMode
	RequirementType     string
}

// Session describes an existing authenticated session presented with the
// authorization request.
type Session struct {
	UserID     string
	SessionID  string
	AuthTime   time.Time
	AuthMethod string
}

// AuthorizeRequest is one inbound authorization attempt.
type AuthorizeRequest struct {
	Protocol            string
	SerializedRequest   string
	ClientID            string
	TenantID            string
	EndpointType        constants.EndpointType
	CodeChallenge       string
	CodeChallengeMethod string
	Requirement         AuthenticationRequirement
	Session             *Session
}

// ResultType classifies the coordinator's answer to an authorization attempt.
type ResultType string

const (
	// ResultRedirect sends the user agent to a login UI or callback URL.
	ResultRedirect ResultType = "REDIRECT"
	// ResultChallenge is a structured 401/403 for headless clients.
	ResultChallenge ResultType = "CHALLENGE"
	// ResultError terminates the attempt with an OAuth error.
	ResultError ResultType = "ERROR"
)

// AuthRequirements is the structured 401 body for headless clients.
type AuthRequirements struct {
	PolicyID       string   `json:"policy_id,omitempty"`
	DefinitionID   string   `json:"definition_id,omitempty"`
	RequiredScopes []string `json:"required_scopes,omitempty"`
	ACRValues      []string `json:"acr_values,omitempty"`
	CorrelationID  string   `json:"correlation_id"`
	SubmissionHint string   `json:"submission_hint,omitempty"`
}

// ConsentRequirements is the structured 403 body for headless clients.
type ConsentRequirements struct {
	RequestedScopes []string `json:"requested_scopes"`
	CorrelationID   string   `json:"correlation_id"`
}

// Result is the coordinator's answer to one authorization attempt.
type Result struct {
	Type                ResultType
	RedirectURL         string
	CorrelationID       string
	JourneyID           string
	StatusCode          int
	Error               *model.ErrorResponse
	AuthRequirements    *AuthRequirements
	ConsentRequirements *ConsentRequirements
}
