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

package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/asgardeo/tempest/internal/journey/constants"
	"github.com/asgardeo/tempest/internal/journey/model"
	"github.com/asgardeo/tempest/internal/journey/registry"
	"github.com/asgardeo/tempest/internal/journey/store"
)

// scriptedHandler executes a configurable function per invocation.
type scriptedHandler struct {
	stepType string
	execute  func(stepCtx *model.StepExecutionContext) (model.StepOutcome, error)
}

func (h *scriptedHandler) StepType() string { return h.stepType }

func (h *scriptedHandler) Execute(_ context.Context,
	stepCtx *model.StepExecutionContext) (model.StepOutcome, error) {
	return h.execute(stepCtx)
}

type JourneyEngineTestSuite struct {
	suite.Suite
	registry   *registry.Registry
	stateStore store.StoreInterface
}

func TestJourneyEngineSuite(t *testing.T) {
	suite.Run(t, new(JourneyEngineTestSuite))
}

func (suite *JourneyEngineTestSuite) SetupTest() {
	suite.registry = registry.NewRegistry()
	suite.stateStore = store.NewInMemoryStore()
}

func (suite *JourneyEngineTestSuite) registerHandler(stepType string,
	execute func(stepCtx *model.StepExecutionContext) (model.StepOutcome, error)) {
	suite.Require().NoError(suite.registry.RegisterHandler(
		&scriptedHandler{stepType: stepType, execute: execute}))
}

func (suite *JourneyEngineTestSuite) registerDefinition(definition model.JourneyDefinition) {
	suite.Require().NoError(suite.registry.RegisterDefinition(definition))
}

func (suite *JourneyEngineTestSuite) TestLoginJourneyRunsToCompletion() {
	suite.registerHandler("passwordLogin", func(stepCtx *model.StepExecutionContext) (model.StepOutcome, error) {
		outcome := model.ContinueOutcome(map[string]string{
			constants.DataAuthenticatedAt: "1756600000",
			constants.DataAuthMethod:      "password",
		})
		outcome.AuthenticatedUserID = "user1"
		return outcome, nil
	})
	suite.registerHandler("authAssert", func(stepCtx *model.StepExecutionContext) (model.StepOutcome, error) {
		return model.CompleteOutcome(nil), nil
	})
	suite.registerDefinition(model.JourneyDefinition{
		ID:   "signin",
		Type: constants.JourneyTypeSignIn,
		Steps: []model.StepConfig{
			{ID: "login", Type: "passwordLogin"},
			{ID: "assert", Type: "authAssert"},
		},
	})

	eng := NewEngine(suite.registry, suite.stateStore)
	ctx := context.Background()

	journeyState, err := eng.Start(ctx, "signin", "tenant1", "app1", nil)
	suite.Require().NoError(err)
	suite.Equal(constants.JourneyStatusRunning, journeyState.Status)

	result, err := eng.ExecuteStep(ctx, journeyState.ID, nil)
	suite.Require().NoError(err)
	suite.Equal(constants.JourneyStatusRunning, result.Status)
	suite.Equal("assert", result.CurrentStepID)

	result, err = eng.ExecuteStep(ctx, journeyState.ID, nil)
	suite.Require().NoError(err)
	suite.Equal(constants.JourneyStatusCompleted, result.Status)

	finalState, err := eng.GetState(ctx, journeyState.ID)
	suite.Require().NoError(err)
	suite.Equal("user1", finalState.AuthenticatedUserID)
	suite.Equal("password", finalState.DataBag[constants.DataAuthMethod])
	suite.NotEmpty(finalState.DataBag[constants.DataAuthenticatedAt])
}

func (suite *JourneyEngineTestSuite) TestRequireInputPreservesStateAndBag() {
	suite.registerHandler("passwordLogin", func(stepCtx *model.StepExecutionContext) (model.StepOutcome, error) {
		if stepCtx.Input("password") == "" {
			return model.RequireInputOutcome([]string{"username", "password"}), nil
		}
		outcome := model.ContinueOutcome(map[string]string{
			constants.DataAuthenticatedAt: "1756600000",
			constants.DataAuthMethod:      "password",
		})
		outcome.AuthenticatedUserID = "user1"
		return outcome, nil
	})
	suite.registerDefinition(model.JourneyDefinition{
		ID:   "signin",
		Type: constants.JourneyTypeSignIn,
		Steps: []model.StepConfig{
			{ID: "login", Type: "passwordLogin"},
		},
	})

	eng := NewEngine(suite.registry, suite.stateStore)
	ctx := context.Background()

	journeyState, err := eng.Start(ctx, "signin", "tenant1", "app1",
		map[string]string{"login_hint": "user1@example.com"})
	suite.Require().NoError(err)

	// First invocation pauses for input without losing the bag.
	result, err := eng.ExecuteStep(ctx, journeyState.ID, nil)
	suite.Require().NoError(err)
	suite.Equal(constants.JourneyStatusRunning, result.Status)
	suite.Equal("login", result.CurrentStepID)
	suite.Equal([]string{"username", "password"}, result.RequiredInputs)

	pausedState, err := eng.GetState(ctx, journeyState.ID)
	suite.Require().NoError(err)
	suite.Equal(constants.JourneyStatusRunning, pausedState.Status)
	suite.Equal("user1@example.com", pausedState.DataBag["login_hint"])

	// Second invocation re-runs the same step with the submitted input.
	result, err = eng.ExecuteStep(ctx, journeyState.ID,
		map[string]string{"username": "user1", "password": "secret"})
	suite.Require().NoError(err)
	suite.Equal(constants.JourneyStatusCompleted, result.Status)
}

func (suite *JourneyEngineTestSuite) TestBranchOutcomeJumpsToTarget() {
	suite.registerHandler("identify", func(stepCtx *model.StepExecutionContext) (model.StepOutcome, error) {
		return model.BranchOutcome("federated", map[string]string{"idp": "github"}), nil
	})
	suite.registerHandler("passwordLogin", func(stepCtx *model.StepExecutionContext) (model.StepOutcome, error) {
		return model.CompleteOutcome(nil), nil
	})
	suite.registerHandler("idpRedirect", func(stepCtx *model.StepExecutionContext) (model.StepOutcome, error) {
		return model.CompleteOutcome(nil), nil
	})
	suite.registerDefinition(model.JourneyDefinition{
		ID:   "signin",
		Type: constants.JourneyTypeSignIn,
		Steps: []model.StepConfig{
			{ID: "identify", Type: "identify", Branches: map[string]string{"federated": "idp"}},
			{ID: "login", Type: "passwordLogin"},
			{ID: "idp", Type: "idpRedirect"},
		},
	})

	eng := NewEngine(suite.registry, suite.stateStore)
	ctx := context.Background()

	journeyState, err := eng.Start(ctx, "signin", "tenant1", "app1", nil)
	suite.Require().NoError(err)

	result, err := eng.ExecuteStep(ctx, journeyState.ID, nil)
	suite.Require().NoError(err)
	suite.Equal("idp", result.CurrentStepID)

	currentState, err := eng.GetState(ctx, journeyState.ID)
	suite.Require().NoError(err)
	suite.Equal("github", currentState.DataBag["idp"])
}

func (suite *JourneyEngineTestSuite) TestFailureHonorsOnFailureTarget() {
	suite.registerHandler("otp", func(stepCtx *model.StepExecutionContext) (model.StepOutcome, error) {
		return model.FailOutcome("access_denied", "code mismatch"), nil
	})
	suite.registerHandler("passwordLogin", func(stepCtx *model.StepExecutionContext) (model.StepOutcome, error) {
		return model.CompleteOutcome(nil), nil
	})
	suite.registerDefinition(model.JourneyDefinition{
		ID:   "signin",
		Type: constants.JourneyTypeSignIn,
		Steps: []model.StepConfig{
			{ID: "otp", Type: "otp", OnFailure: "fallback"},
			{ID: "fallback", Type: "passwordLogin"},
		},
	})

	eng := NewEngine(suite.registry, suite.stateStore)
	ctx := context.Background()

	journeyState, err := eng.Start(ctx, "signin", "tenant1", "app1", nil)
	suite.Require().NoError(err)

	result, err := eng.ExecuteStep(ctx, journeyState.ID, nil)
	suite.Require().NoError(err)
	suite.Equal(constants.JourneyStatusRunning, result.Status)
	suite.Equal("fallback", result.CurrentStepID)
}

func (suite *JourneyEngineTestSuite) TestFailureWithoutTargetTerminates() {
	suite.registerHandler("otp", func(stepCtx *model.StepExecutionContext) (model.StepOutcome, error) {
		return model.FailOutcome("access_denied", "code mismatch"), nil
	})
	suite.registerDefinition(model.JourneyDefinition{
		ID:   "signin",
		Type: constants.JourneyTypeSignIn,
		Steps: []model.StepConfig{
			{ID: "otp", Type: "otp"},
		},
	})

	eng := NewEngine(suite.registry, suite.stateStore)
	ctx := context.Background()

	journeyState, err := eng.Start(ctx, "signin", "tenant1", "app1", nil)
	suite.Require().NoError(err)

	result, err := eng.ExecuteStep(ctx, journeyState.ID, nil)
	suite.Require().NoError(err)
	suite.Equal(constants.JourneyStatusFailed, result.Status)
	suite.Equal("access_denied", result.Error)
	suite.Equal("code mismatch", result.ErrorDescription)
}

func (suite *JourneyEngineTestSuite) TestValidatorAbortsCommitWithoutMutatingBag() {
	suite.registerHandler("collect", func(stepCtx *model.StepExecutionContext) (model.StepOutcome, error) {
		return model.CompleteOutcome(map[string]string{"email": "not-an-email"}), nil
	})
	suite.registerDefinition(model.JourneyDefinition{
		ID:   "signup",
		Type: constants.JourneyTypeSignUp,
		Steps: []model.StepConfig{
			{ID: "collect", Type: "collect"},
		},
	})

	rejectAll := func(_ model.JourneyState, proposedOutput map[string]string) error {
		if proposedOutput["email"] != "" {
			return errors.New("email rejected")
		}
		return nil
	}

	eng := NewEngine(suite.registry, suite.stateStore, rejectAll)
	ctx := context.Background()

	journeyState, err := eng.Start(ctx, "signup", "tenant1", "app1", nil)
	suite.Require().NoError(err)

	result, err := eng.ExecuteStep(ctx, journeyState.ID, nil)
	suite.Require().NoError(err)
	suite.Equal(constants.JourneyStatusFailed, result.Status)

	failedState, err := eng.GetState(ctx, journeyState.ID)
	suite.Require().NoError(err)
	suite.Empty(failedState.DataBag["email"])
}

func (suite *JourneyEngineTestSuite) TestConditionGatedStepIsSkipped() {
	suite.registerHandler("mfa", func(stepCtx *model.StepExecutionContext) (model.StepOutcome, error) {
		suite.Fail("condition-gated step must not execute")
		return model.StepOutcome{}, nil
	})
	suite.registerHandler("authAssert", func(stepCtx *model.StepExecutionContext) (model.StepOutcome, error) {
		return model.CompleteOutcome(nil), nil
	})
	suite.registerDefinition(model.JourneyDefinition{
		ID:   "signin",
		Type: constants.JourneyTypeSignIn,
		Steps: []model.StepConfig{
			{ID: "mfa", Type: "mfa", Conditions: []model.Condition{{Key: "mfa_enabled", Equals: "true"}}},
			{ID: "assert", Type: "authAssert"},
		},
	})

	eng := NewEngine(suite.registry, suite.stateStore)
	ctx := context.Background()

	journeyState, err := eng.Start(ctx, "signin", "tenant1", "app1", nil)
	suite.Require().NoError(err)

	result, err := eng.ExecuteStep(ctx, journeyState.ID, nil)
	suite.Require().NoError(err)
	suite.Equal(constants.JourneyStatusCompleted, result.Status)
}

func (suite *JourneyEngineTestSuite) TestRetryCounterIncrementsOnRequireInput() {
	suite.registerHandler("otp", func(stepCtx *model.StepExecutionContext) (model.StepOutcome, error) {
		if stepCtx.RetryCount >= stepCtx.StepConfig.MaxRetries {
			return model.FailOutcome("access_denied", "too many attempts"), nil
		}
		return model.RequireInputOutcome([]string{"otp"}), nil
	})
	suite.registerDefinition(model.JourneyDefinition{
		ID:   "signin",
		Type: constants.JourneyTypeSignIn,
		Steps: []model.StepConfig{
			{ID: "otp", Type: "otp", MaxRetries: 2},
		},
	})

	eng := NewEngine(suite.registry, suite.stateStore)
	ctx := context.Background()

	journeyState, err := eng.Start(ctx, "signin", "tenant1", "app1", nil)
	suite.Require().NoError(err)

	for i := 0; i < 2; i++ {
		result, err := eng.ExecuteStep(ctx, journeyState.ID, nil)
		suite.Require().NoError(err)
		suite.Equal(constants.JourneyStatusRunning, result.Status)
	}

	result, err := eng.ExecuteStep(ctx, journeyState.ID, nil)
	suite.Require().NoError(err)
	suite.Equal(constants.JourneyStatusFailed, result.Status)
}

func (suite *JourneyEngineTestSuite) TestExpiredJourneyDoesNotExecute() {
	suite.registerHandler("passwordLogin", func(stepCtx *model.StepExecutionContext) (model.StepOutcome, error) {
		return model.CompleteOutcome(nil), nil
	})
	suite.registerDefinition(model.JourneyDefinition{
		ID:   "signin",
		Type: constants.JourneyTypeSignIn,
		Steps: []model.StepConfig{
			{ID: "login", Type: "passwordLogin"},
		},
	})

	eng := NewEngine(suite.registry, suite.stateStore)
	ctx := context.Background()

	journeyState, err := eng.Start(ctx, "signin", "tenant1", "app1", nil)
	suite.Require().NoError(err)

	journeyState.ExpiresAt = time.Now().Add(-time.Second)
	suite.Require().NoError(suite.stateStore.Save(ctx, journeyState))

	result, err := eng.ExecuteStep(ctx, journeyState.ID, nil)
	suite.ErrorIs(err, store.ErrJourneyExpired)
	suite.Equal(constants.JourneyStatusExpired, result.Status)
}
