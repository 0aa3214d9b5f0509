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
	"strconv"
	"time"

	"github.com/asgardeo/tempest/internal/journey/constants"
	"github.com/asgardeo/tempest/internal/journey/model"
	oauth2const "github.com/asgardeo/tempest/internal/oauth/oauth2/constants"
)

const (
	// StepTypeIDPRedirect identifies the external identity provider step.
	StepTypeIDPRedirect = "idpRedirect"

	inputIDPCode = "code"

	propertyIDPName = "idpName"

	authMethodFederated = "federated"
)

// IdentityProviderClientInterface covers the outbound calls to an external IdP.
type IdentityProviderClientInterface interface {
	// BuildAuthorizeURL returns the provider authorize URL for this journey.
	BuildAuthorizeURL(ctx context.Context, idpName, journeyID string) (string, error)
	// ExchangeCode swaps the callback code for the federated user identity.
	ExchangeCode(ctx context.Context, idpName, code string) (string, map[string]string, error)
}

// IDPRedirectExecutor authenticates the user against an external identity
// provider: the first invocation redirects out, the second consumes the
// callback code.
type IDPRedirectExecutor struct {
	idpClient IdentityProviderClientInterface
}

var _ model.HandlerInterface = (*IDPRedirectExecutor)(nil)

// NewIDPRedirectExecutor creates an external IdP step handler.
func NewIDPRedirectExecutor(idpClient IdentityProviderClientInterface) *IDPRedirectExecutor {
	return &IDPRedirectExecutor{idpClient: idpClient}
}

// StepType returns the step type handled by this executor.
func (e *IDPRedirectExecutor) StepType() string {
	return StepTypeIDPRedirect
}

// Execute redirects to the provider or, with a callback code submitted,
// completes federated authentication.
func (e *IDPRedirectExecutor) Execute(ctx context.Context,
	stepCtx *model.StepExecutionContext) (model.StepOutcome, error) {
	idpName := stepCtx.Property(propertyIDPName)
	if idpName == "" {
		return model.FailOutcome(oauth2const.ErrorServerError, "no identity provider configured"), nil
	}

	code := stepCtx.Input(inputIDPCode)
	if code == "" {
		authorizeURL, err := e.idpClient.BuildAuthorizeURL(ctx, idpName, stepCtx.JourneyID)
		if err != nil {
			return model.StepOutcome{}, err
		}
		outcome := model.RequireInputOutcome([]string{inputIDPCode})
		outcome.RedirectURL = authorizeURL
		return outcome, nil
	}

	userID, attributes, err := e.idpClient.ExchangeCode(ctx, idpName, code)
	if err != nil {
		return model.FailOutcome(oauth2const.ErrorAccessDenied, "federated authentication failed"), nil
	}

	outputData := map[string]string{
		constants.DataAuthenticatedAt: strconv.FormatInt(time.Now().Unix(), 10),
		constants.DataAuthMethod:      authMethodFederated,
		"idp_name":                    idpName,
	}
	for key, value := range attributes {
		outputData[key] = value
	}

	outcome := model.ContinueOutcome(outputData)
	outcome.AuthenticatedUserID = userID
	return outcome, nil
}
