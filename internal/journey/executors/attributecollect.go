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
)

// StepTypeAttributeCollect identifies the attribute collection step.
const StepTypeAttributeCollect = "attributeCollect"

// AttributeCollectExecutor gathers the claims named by the step configuration
// into the data bag. It never sets authentication markers, so SignIn journeys
// can reuse it for claim-collection-only flows without issuing a session.
type AttributeCollectExecutor struct{}

var _ model.HandlerInterface = (*AttributeCollectExecutor)(nil)

// NewAttributeCollectExecutor creates an attribute collection step handler.
func NewAttributeCollectExecutor() *AttributeCollectExecutor {
	return &AttributeCollectExecutor{}
}

// StepType returns the step type handled by this executor.
func (e *AttributeCollectExecutor) StepType() string {
	return StepTypeAttributeCollect
}

// Execute requests any required claims not yet present, then commits the
// collected values.
func (e *AttributeCollectExecutor) Execute(_ context.Context,
	stepCtx *model.StepExecutionContext) (model.StepOutcome, error) {
	missing := []string{}
	collected := map[string]string{}

	for _, claim := range stepCtx.StepConfig.RequiredClaims {
		if value := stepCtx.Input(claim); value != "" {
			collected[claim] = value
			continue
		}
		if stepCtx.Has(claim) {
			continue
		}
		missing = append(missing, claim)
	}

	if len(missing) > 0 {
		return model.RequireInputOutcome(missing), nil
	}
	return model.ContinueOutcome(collected), nil
}
