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

// Package executors provides the built-in journey step handlers.
package executors

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/asgardeo/tempest/internal/journey/constants"
	"github.com/asgardeo/tempest/internal/journey/model"
	oauth2const "github.com/asgardeo/tempest/internal/oauth/oauth2/constants"
	"github.com/asgardeo/tempest/internal/system/log"
)

const (
	// StepTypePasswordAuth identifies the password authentication step.
	StepTypePasswordAuth = "passwordAuth"

	inputUsername = "username"
	inputPassword = "password"

	authMethodPassword = "password"
)

// ErrInvalidCredentials is returned by credential verifiers on a mismatch.
var ErrInvalidCredentials = errors.New("invalid credentials")

// CredentialVerifierInterface checks a username/password pair for a tenant.
type CredentialVerifierInterface interface {
	VerifyCredentials(ctx context.Context, tenantID, username, password string) (string, error)
}

// PasswordAuthExecutor authenticates the user with a username and password.
type PasswordAuthExecutor struct {
	verifier CredentialVerifierInterface
}

var _ model.HandlerInterface = (*PasswordAuthExecutor)(nil)

// NewPasswordAuthExecutor creates a password authentication step handler.
func NewPasswordAuthExecutor(verifier CredentialVerifierInterface) *PasswordAuthExecutor {
	return &PasswordAuthExecutor{verifier: verifier}
}

// StepType returns the step type handled by this executor.
func (e *PasswordAuthExecutor) StepType() string {
	return StepTypePasswordAuth
}

// Execute prompts for credentials and verifies them. On success the
// authentication markers are committed to the data bag.
func (e *PasswordAuthExecutor) Execute(ctx context.Context,
	stepCtx *model.StepExecutionContext) (model.StepOutcome, error) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "PasswordAuthExecutor"),
		log.String(log.LoggerKeyJourneyID, stepCtx.JourneyID))

	username := stepCtx.Input(inputUsername)
	password := stepCtx.Input(inputPassword)
	if username == "" || password == "" {
		return model.RequireInputOutcome([]string{inputUsername, inputPassword}), nil
	}

	userID, err := e.verifier.VerifyCredentials(ctx, stepCtx.TenantID, username, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Debug("Credential verification failed",
				log.String("username", log.MaskString(username)))
			if stepCtx.RetryCount >= stepCtx.StepConfig.MaxRetries {
				return model.FailOutcome(oauth2const.ErrorAccessDenied, "invalid credentials"), nil
			}
			return model.RequireInputOutcome([]string{inputUsername, inputPassword}), nil
		}
		return model.StepOutcome{}, err
	}

	outcome := model.ContinueOutcome(map[string]string{
		constants.DataAuthenticatedAt: strconv.FormatInt(time.Now().Unix(), 10),
		constants.DataAuthMethod:      authMethodPassword,
	})
	outcome.AuthenticatedUserID = userID
	return outcome, nil
}
