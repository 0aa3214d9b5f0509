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

// Package model defines the data model for journey definitions and execution.
package model

import (
	"context"
	"time"

	"github.com/asgardeo/tempest/internal/journey/constants"
)

// JourneyState is the single mutable record of one journey execution. The
// data bag lives only for the journey's lifetime.
type JourneyState struct {
	ID                  string
	DefinitionID        string
	TenantID            string
	AppID               string
	Status              constants.JourneyStatus
	CurrentStepID       string
	AuthenticatedUserID string
	SessionID           string
	DataBag             map[string]string
	RetryCounts         map[string]int
	CompletedSteps      map[string]bool
	Error               string
	ErrorDescription    string
	CreatedAt           time.Time
	ExpiresAt           time.Time
}

// Condition gates whether a step runs, compared against the data bag.
type Condition struct {
	Key    string `json:"key" yaml:"key" validate:"required"`
	Equals string `json:"equals" yaml:"equals"`
}

// StepConfig declares one step of a journey definition.
type StepConfig struct {
	ID              string            `json:"id" yaml:"id" validate:"required"`
	Type            string            `json:"type" yaml:"type" validate:"required"`
	RequiredClaims  []string          `json:"requiredClaims,omitempty" yaml:"requiredClaims,omitempty"`
	Conditions      []Condition       `json:"conditions,omitempty" yaml:"conditions,omitempty" validate:"dive"`
	TimeoutSeconds  int               `json:"timeoutSeconds,omitempty" yaml:"timeoutSeconds,omitempty" validate:"gte=0"`
	MaxRetries      int               `json:"maxRetries,omitempty" yaml:"maxRetries,omitempty" validate:"gte=0"`
	SkipIfCompleted bool              `json:"skipIfCompleted,omitempty" yaml:"skipIfCompleted,omitempty"`
	ErrorMessage    string            `json:"errorMessage,omitempty" yaml:"errorMessage,omitempty"`
	OnSuccess       string            `json:"onSuccess,omitempty" yaml:"onSuccess,omitempty"`
	OnFailure       string            `json:"onFailure,omitempty" yaml:"onFailure,omitempty"`
	Branches        map[string]string `json:"branches,omitempty" yaml:"branches,omitempty"`
	Properties      map[string]string `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// JourneyDefinition is an ordered list of steps executed one per invocation.
type JourneyDefinition struct {
	ID             string                `json:"id" yaml:"id" validate:"required"`
	Type           constants.JourneyType `json:"type" yaml:"type" validate:"required"`
	TenantID       string                `json:"tenantId,omitempty" yaml:"tenantId,omitempty"`
	UIEntryPoint   string                `json:"uiEntryPoint,omitempty" yaml:"uiEntryPoint,omitempty"`
	ValidityPeriod int64                 `json:"validityPeriod,omitempty" yaml:"validityPeriod,omitempty" validate:"gte=0"`
	Steps          []StepConfig          `json:"steps" yaml:"steps" validate:"required,min=1,dive"`
}

// StepIndex returns the position of a step in declared order, or -1.
func (d *JourneyDefinition) StepIndex(stepID string) int {
	for i, step := range d.Steps {
		if step.ID == stepID {
			return i
		}
	}
	return -1
}

// Step returns the configuration of a step by ID.
func (d *JourneyDefinition) Step(stepID string) (StepConfig, bool) {
	index := d.StepIndex(stepID)
	if index < 0 {
		return StepConfig{}, false
	}
	return d.Steps[index], true
}

// StepOutcome is the result of one step handler invocation.
type StepOutcome struct {
	Type                constants.OutcomeType
	BranchID            string
	OutputData          map[string]string
	RequiredInputs      []string
	RedirectURL         string
	AuthenticatedUserID string
	Error               string
	ErrorDescription    string
}

// ContinueOutcome advances with the given output data committed to the bag.
func ContinueOutcome(outputData map[string]string) StepOutcome {
	return StepOutcome{Type: constants.OutcomeContinue, OutputData: outputData}
}

// BranchOutcome jumps to a named branch target, optionally committing output.
func BranchOutcome(branchID string, outputData map[string]string) StepOutcome {
	return StepOutcome{Type: constants.OutcomeBranch, BranchID: branchID, OutputData: outputData}
}

// RequireInputOutcome pauses the journey naming the inputs still needed.
func RequireInputOutcome(requiredInputs []string) StepOutcome {
	return StepOutcome{Type: constants.OutcomeRequireInput, RequiredInputs: requiredInputs}
}

// SkipOutcome advances without writing output.
func SkipOutcome() StepOutcome {
	return StepOutcome{Type: constants.OutcomeSkip}
}

// CompleteOutcome ends the journey successfully with final output committed.
func CompleteOutcome(outputData map[string]string) StepOutcome {
	return StepOutcome{Type: constants.OutcomeComplete, OutputData: outputData}
}

// FailOutcome ends the step in error.
func FailOutcome(errorCode, description string) StepOutcome {
	return StepOutcome{Type: constants.OutcomeFail, Error: errorCode, ErrorDescription: description}
}

// HandlerInterface defines the contract for a step handler.
type HandlerInterface interface {
	// StepType names the step type this handler executes.
	StepType() string
	// Execute runs one invocation of the step.
	Execute(ctx context.Context, stepCtx *StepExecutionContext) (StepOutcome, error)
}

// Validator inspects a step's proposed output before it is committed. A
// non-nil error aborts the commit without mutating the data bag.
type Validator func(journeyState JourneyState, proposedOutput map[string]string) error
