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

// Package registry resolves step handlers and journey definitions.
package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/asgardeo/tempest/internal/journey/model"
)

// ErrDefinitionNotFound is returned when no journey definition matches the ID.
var ErrDefinitionNotFound = errors.New("journey definition not found")

// ErrHandlerNotFound is returned when no handler is registered for a step type.
var ErrHandlerNotFound = errors.New("step handler not found")

// Registry holds step handlers and validated journey definitions.
type Registry struct {
	handlers    map[string]model.HandlerInterface
	definitions map[string]model.JourneyDefinition
	validate    *validator.Validate
	mu          sync.RWMutex
}

// NewRegistry creates an empty journey registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers:    make(map[string]model.HandlerInterface),
		definitions: make(map[string]model.JourneyDefinition),
		validate:    validator.New(),
	}
}

// RegisterHandler adds a step handler, keyed by its step type.
func (r *Registry) RegisterHandler(handler model.HandlerInterface) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stepType := handler.StepType()
	if _, exists := r.handlers[stepType]; exists {
		return fmt.Errorf("step handler already registered for type: %s", stepType)
	}
	r.handlers[stepType] = handler
	return nil
}

// Handler resolves the handler for a step type.
func (r *Registry) Handler(stepType string) (model.HandlerInterface, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handler, ok := r.handlers[stepType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, stepType)
	}
	return handler, nil
}

// RegisterDefinition validates and stores a journey definition. Every step
// must reference a registered handler type, and all transition targets must
// name declared steps.
func (r *Registry) RegisterDefinition(definition model.JourneyDefinition) error {
	if err := r.validate.Struct(definition); err != nil {
		return fmt.Errorf("invalid journey definition %q: %w", definition.ID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stepIDs := make(map[string]bool, len(definition.Steps))
	for _, step := range definition.Steps {
		if stepIDs[step.ID] {
			return fmt.Errorf("journey definition %q declares step %q twice", definition.ID, step.ID)
		}
		stepIDs[step.ID] = true

		if _, ok := r.handlers[step.Type]; !ok {
			return fmt.Errorf("journey definition %q: %w: %s", definition.ID, ErrHandlerNotFound, step.Type)
		}
	}
	for _, step := range definition.Steps {
		for _, target := range transitionTargets(step) {
			if !stepIDs[target] {
				return fmt.Errorf("journey definition %q: step %q targets unknown step %q",
					definition.ID, step.ID, target)
			}
		}
	}

	r.definitions[definition.ID] = definition
	return nil
}

// Definition resolves a journey definition by ID.
func (r *Registry) Definition(definitionID string) (model.JourneyDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	definition, ok := r.definitions[definitionID]
	if !ok {
		return model.JourneyDefinition{}, fmt.Errorf("%w: %s", ErrDefinitionNotFound, definitionID)
	}
	return definition, nil
}

func transitionTargets(step model.StepConfig) []string {
	targets := []string{}
	if step.OnSuccess != "" {
		targets = append(targets, step.OnSuccess)
	}
	if step.OnFailure != "" {
		targets = append(targets, step.OnFailure)
	}
	for _, target := range step.Branches {
		targets = append(targets, target)
	}
	return targets
}
