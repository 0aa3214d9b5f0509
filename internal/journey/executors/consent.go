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

package executors

import (
	"context"

	"github.com/asgardeo/tempest/internal/journey/model"
	oauth2const "github.com/asgardeo/tempest/internal/oauth/oauth2/constants"
)

const (
	// StepTypeConsent identifies the consent collection step.
	StepTypeConsent = "consent"

	inputApprovedScopes = "approved_scopes"
	inputConsentAction  = "consent_action"

	consentActionApprove = "approve"
	consentActionDeny    = "deny"

	// DataConsentedScopes is the bag key carrying the approved scope list.
	DataConsentedScopes = "consented_scopes"
)

// ConsentExecutor records the user's decision on the requested scopes.
type ConsentExecutor struct{}

var _ model.HandlerInterface = (*ConsentExecutor)(nil)

// NewConsentExecutor creates a consent collection step handler.
func NewConsentExecutor() *ConsentExecutor {
	return &ConsentExecutor{}
}

// StepType returns the step type handled by this executor.
func (e *ConsentExecutor) StepType() string {
	return StepTypeConsent
}

// Execute prompts for a consent decision; denial fails the journey with
// access_denied, approval records the approved scopes.
func (e *ConsentExecutor) Execute(_ context.Context,
	stepCtx *model.StepExecutionContext) (model.StepOutcome, error) {
	action := stepCtx.Input(inputConsentAction)
	switch action {
	case "":
		return model.RequireInputOutcome([]string{inputConsentAction, inputApprovedScopes}), nil
	case consentActionDeny:
		return model.FailOutcome(oauth2const.ErrorAccessDenied, "user denied consent"), nil
	case consentActionApprove:
		return model.ContinueOutcome(map[string]string{
			DataConsentedScopes: stepCtx.Input(inputApprovedScopes),
		}), nil
	default:
		return model.FailOutcome(oauth2const.ErrorInvalidRequest, "unknown consent action"), nil
	}
}
