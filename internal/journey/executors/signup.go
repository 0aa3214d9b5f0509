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
	"errors"
	"strconv"
	"time"

	"github.com/asgardeo/tempest/internal/journey/constants"
	"github.com/asgardeo/tempest/internal/journey/model"
	oauth2const "github.com/asgardeo/tempest/internal/oauth/oauth2/constants"
)

const (
	// StepTypeSignUp identifies the user registration step.
	StepTypeSignUp = "signUp"

	authMethodSignUp = "sign_up"
)

// ErrUserAlreadyExists is returned by user creators on a username conflict.
var ErrUserAlreadyExists = errors.New("user already exists")

// UserCreatorInterface provisions a new user in the identity store.
type UserCreatorInterface interface {
	CreateUser(ctx context.Context, tenantID, username, password string,
		attributes map[string]string) (string, error)
}

// SignUpExecutor registers a new user and signs them in.
type SignUpExecutor struct {
	creator UserCreatorInterface
}

var _ model.HandlerInterface = (*SignUpExecutor)(nil)

// NewSignUpExecutor creates a registration step handler.
func NewSignUpExecutor(creator UserCreatorInterface) *SignUpExecutor {
	return &SignUpExecutor{creator: creator}
}

// StepType returns the step type handled by this executor.
func (e *SignUpExecutor) StepType() string {
	return StepTypeSignUp
}

// Execute collects registration inputs, creates the user, and commits the
// authentication markers so the new user is signed in immediately.
func (e *SignUpExecutor) Execute(ctx context.Context,
	stepCtx *model.StepExecutionContext) (model.StepOutcome, error) {
	username := stepCtx.Input(inputUsername)
	password := stepCtx.Input(inputPassword)
	if username == "" || password == "" {
		required := append([]string{inputUsername, inputPassword},
			stepCtx.StepConfig.RequiredClaims...)
		return model.RequireInputOutcome(required), nil
	}

	attributes := map[string]string{}
	missing := []string{}
	for _, claim := range stepCtx.StepConfig.RequiredClaims {
		value := stepCtx.Input(claim)
		if value == "" {
			missing = append(missing, claim)
			continue
		}
		attributes[claim] = value
	}
	if len(missing) > 0 {
		return model.RequireInputOutcome(missing), nil
	}

	userID, err := e.creator.CreateUser(ctx, stepCtx.TenantID, username, password, attributes)
	if err != nil {
		if errors.Is(err, ErrUserAlreadyExists) {
			return model.FailOutcome(oauth2const.ErrorInvalidRequest, "username already taken"), nil
		}
		return model.StepOutcome{}, err
	}

	outputData := map[string]string{
		constants.DataAuthenticatedAt: strconv.FormatInt(time.Now().Unix(), 10),
		constants.DataAuthMethod:      authMethodSignUp,
	}
	for key, value := range attributes {
		outputData[key] = value
	}

	outcome := model.ContinueOutcome(outputData)
	outcome.AuthenticatedUserID = userID
	return outcome, nil
}
