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

// Package engine drives journey executions one step per invocation.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/asgardeo/tempest/internal/journey/constants"
	"github.com/asgardeo/tempest/internal/journey/model"
	"github.com/asgardeo/tempest/internal/journey/registry"
	"github.com/asgardeo/tempest/internal/journey/store"
	oauth2const "github.com/asgardeo/tempest/internal/oauth/oauth2/constants"
	"github.com/asgardeo/tempest/internal/system/log"
	"github.com/asgardeo/tempest/internal/system/utils"
)

const defaultJourneyValidity = 15 * time.Minute

// StepResult describes the journey after one engine invocation.
type StepResult struct {
	JourneyID        string
	Status           constants.JourneyStatus
	CurrentStepID    string
	RequiredInputs   []string
	RedirectURL      string
	Error            string
	ErrorDescription string
}

// EngineInterface defines the journey execution operations.
type EngineInterface interface {
	Start(ctx context.Context, definitionID, tenantID, appID string,
		initialData map[string]string) (model.JourneyState, error)
	ExecuteStep(ctx context.Context, journeyID string, userInput map[string]string) (StepResult, error)
	GetState(ctx context.Context, journeyID string) (model.JourneyState, error)
}

// Engine implements EngineInterface over a registry and a state store.
type Engine struct {
	registry   *registry.Registry
	stateStore store.StoreInterface
	validators []model.Validator
}

// NewEngine creates a journey engine. Validators run against every step's
// proposed output before it is committed.
func NewEngine(reg *registry.Registry, stateStore store.StoreInterface,
	validators ...model.Validator) *Engine {
	return &Engine{
		registry:   reg,
		stateStore: stateStore,
		validators: validators,
	}
}

// Start creates a new journey execution positioned at the first step.
func (e *Engine) Start(ctx context.Context, definitionID, tenantID, appID string,
	initialData map[string]string) (model.JourneyState, error) {
	definition, err := e.registry.Definition(definitionID)
	if err != nil {
		return model.JourneyState{}, err
	}

	validity := defaultJourneyValidity
	if definition.ValidityPeriod > 0 {
		validity = time.Duration(definition.ValidityPeriod) * time.Second
	}

	dataBag := make(map[string]string, len(initialData))
	for key, value := range initialData {
		dataBag[key] = value
	}

	journeyState := model.JourneyState{
		ID:             utils.GenerateUUID(),
		DefinitionID:   definitionID,
		TenantID:       tenantID,
		AppID:          appID,
		Status:         constants.JourneyStatusRunning,
		CurrentStepID:  definition.Steps[0].ID,
		DataBag:        dataBag,
		RetryCounts:    make(map[string]int),
		CompletedSteps: make(map[string]bool),
		CreatedAt:      time.Now(),
		ExpiresAt:      time.Now().Add(validity),
	}

	if err := e.stateStore.Save(ctx, journeyState); err != nil {
		return model.JourneyState{}, fmt.Errorf("failed to persist journey state: %w", err)
	}
	return journeyState, nil
}

// GetState returns the current state of a journey.
func (e *Engine) GetState(ctx context.Context, journeyID string) (model.JourneyState, error) {
	return e.stateStore.Get(ctx, journeyID)
}

// ExecuteStep runs exactly one step handler for the journey. Steps whose
// conditions are not met, or that are marked skip-if-already-completed, are
// passed over without counting as the invocation's handler execution.
func (e *Engine) ExecuteStep(ctx context.Context, journeyID string,
	userInput map[string]string) (StepResult, error) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "JourneyEngine"),
		log.String(log.LoggerKeyJourneyID, journeyID))

	journeyState, err := e.stateStore.Get(ctx, journeyID)
	if err != nil {
		if errors.Is(err, store.ErrJourneyExpired) {
			return StepResult{JourneyID: journeyID, Status: constants.JourneyStatusExpired}, err
		}
		return StepResult{}, err
	}
	if journeyState.Status != constants.JourneyStatusRunning {
		return resultOf(journeyState), nil
	}

	definition, err := e.registry.Definition(journeyState.DefinitionID)
	if err != nil {
		return StepResult{}, err
	}

	stepConfig, found := e.nextRunnableStep(&journeyState, &definition)
	if !found {
		// Every remaining step was skipped; the journey is complete.
		journeyState.Status = constants.JourneyStatusCompleted
		if err := e.stateStore.Save(ctx, journeyState); err != nil {
			return StepResult{}, err
		}
		return resultOf(journeyState), nil
	}

	stepCtx := model.NewStepExecutionContext(journeyState, stepConfig, userInput)
	outcome := e.invokeHandler(ctx, stepConfig, stepCtx, logger)

	if err := e.applyOutcome(&journeyState, &definition, stepConfig, outcome); err != nil {
		return StepResult{}, err
	}
	if err := e.stateStore.Save(ctx, journeyState); err != nil {
		return StepResult{}, fmt.Errorf("failed to persist journey state: %w", err)
	}

	result := resultOf(journeyState)
	result.RequiredInputs = outcome.RequiredInputs
	result.RedirectURL = outcome.RedirectURL
	return result, nil
}

// nextRunnableStep advances past condition-gated and already-completed steps.
func (e *Engine) nextRunnableStep(journeyState *model.JourneyState,
	definition *model.JourneyDefinition) (model.StepConfig, bool) {
	index := definition.StepIndex(journeyState.CurrentStepID)
	for index >= 0 && index < len(definition.Steps) {
		stepConfig := definition.Steps[index]
		if stepConfig.SkipIfCompleted && journeyState.CompletedSteps[stepConfig.ID] {
			index++
			continue
		}
		if !conditionsMet(stepConfig, journeyState.DataBag) {
			index++
			continue
		}
		journeyState.CurrentStepID = stepConfig.ID
		return stepConfig, true
	}
	return model.StepConfig{}, false
}

// invokeHandler executes the step handler under its configured timeout,
// degrading handler errors to step failures.
func (e *Engine) invokeHandler(ctx context.Context, stepConfig model.StepConfig,
	stepCtx *model.StepExecutionContext, logger *log.Logger) model.StepOutcome {
	handler, err := e.registry.Handler(stepConfig.Type)
	if err != nil {
		logger.Error("No handler registered for step type",
			log.String(log.LoggerKeyStepID, stepConfig.ID), log.Error(err))
		return model.FailOutcome(oauth2const.ErrorServerError, "step handler unavailable")
	}

	stepCtx2 := ctx
	if stepConfig.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		stepCtx2, cancel = context.WithTimeout(ctx, time.Duration(stepConfig.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	outcome, err := handler.Execute(stepCtx2, stepCtx)
	if err != nil {
		logger.Error("Step handler failed", log.String(log.LoggerKeyStepID, stepConfig.ID), log.Error(err))
		description := stepConfig.ErrorMessage
		if description == "" {
			description = "step execution failed"
		}
		return model.FailOutcome(oauth2const.ErrorServerError, description)
	}
	return outcome
}

// applyOutcome transitions the journey state for one handler outcome.
func (e *Engine) applyOutcome(journeyState *model.JourneyState, definition *model.JourneyDefinition,
	stepConfig model.StepConfig, outcome model.StepOutcome) error {
	switch outcome.Type {
	case constants.OutcomeRequireInput:
		// Same step re-invoked next time; the engine only carries the counter.
		// Output committed on pause lets a step stash pending data (e.g. a
		// sent passcode) for its own re-invocation.
		commitOutput(journeyState, outcome)
		journeyState.RetryCounts[stepConfig.ID]++

	case constants.OutcomeSkip:
		journeyState.CompletedSteps[stepConfig.ID] = true
		e.advance(journeyState, definition, stepConfig, "")

	case constants.OutcomeContinue, constants.OutcomeBranch, constants.OutcomeComplete:
		if err := e.runValidators(*journeyState, outcome.OutputData); err != nil {
			return e.applyOutcome(journeyState, definition, stepConfig,
				model.FailOutcome(oauth2const.ErrorAccessDenied, err.Error()))
		}
		commitOutput(journeyState, outcome)
		journeyState.CompletedSteps[stepConfig.ID] = true

		switch outcome.Type {
		case constants.OutcomeComplete:
			journeyState.Status = constants.JourneyStatusCompleted
		case constants.OutcomeBranch:
			target, ok := stepConfig.Branches[outcome.BranchID]
			if !ok {
				journeyState.Status = constants.JourneyStatusFailed
				journeyState.Error = oauth2const.ErrorServerError
				journeyState.ErrorDescription = "undeclared branch target: " + outcome.BranchID
				return nil
			}
			e.advance(journeyState, definition, stepConfig, target)
		default:
			e.advance(journeyState, definition, stepConfig, stepConfig.OnSuccess)
		}

	case constants.OutcomeFail:
		if stepConfig.OnFailure != "" {
			e.advance(journeyState, definition, stepConfig, stepConfig.OnFailure)
			return nil
		}
		journeyState.Status = constants.JourneyStatusFailed
		journeyState.Error = outcome.Error
		journeyState.ErrorDescription = outcome.ErrorDescription
		if stepConfig.ErrorMessage != "" {
			journeyState.ErrorDescription = stepConfig.ErrorMessage
		}

	default:
		return fmt.Errorf("unknown step outcome: %s", outcome.Type)
	}
	return nil
}

// advance moves to an explicit target, or the next step in declared order.
// Running past the last step completes the journey.
func (e *Engine) advance(journeyState *model.JourneyState, definition *model.JourneyDefinition,
	stepConfig model.StepConfig, target string) {
	if target != "" {
		journeyState.CurrentStepID = target
		return
	}
	index := definition.StepIndex(stepConfig.ID)
	if index < 0 || index+1 >= len(definition.Steps) {
		journeyState.Status = constants.JourneyStatusCompleted
		return
	}
	journeyState.CurrentStepID = definition.Steps[index+1].ID
}

// runValidators checks the proposed output before it touches the data bag.
func (e *Engine) runValidators(journeyState model.JourneyState, proposedOutput map[string]string) error {
	for _, validate := range e.validators {
		if err := validate(journeyState, proposedOutput); err != nil {
			return err
		}
	}
	return nil
}

func commitOutput(journeyState *model.JourneyState, outcome model.StepOutcome) {
	for key, value := range outcome.OutputData {
		journeyState.DataBag[key] = value
	}
	if outcome.AuthenticatedUserID != "" {
		journeyState.AuthenticatedUserID = outcome.AuthenticatedUserID
	}
}

func conditionsMet(stepConfig model.StepConfig, dataBag map[string]string) bool {
	for _, condition := range stepConfig.Conditions {
		if dataBag[condition.Key] != condition.Equals {
			return false
		}
	}
	return true
}

func resultOf(journeyState model.JourneyState) StepResult {
	return StepResult{
		JourneyID:        journeyState.ID,
		Status:           journeyState.Status,
		CurrentStepID:    journeyState.CurrentStepID,
		Error:            journeyState.Error,
		ErrorDescription: journeyState.ErrorDescription,
	}
}
