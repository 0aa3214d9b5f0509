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

package model

import (
	"strconv"
	"time"
)

// StepExecutionContext is built fresh for every step invocation from the
// journey state, the step configuration, and any newly submitted input. Bag
// accessors fail closed: a missing or malformed value yields the zero value,
// never a panic.
type StepExecutionContext struct {
	JourneyID  string
	TenantID   string
	AppID      string
	StepConfig StepConfig
	UserID     string
	SessionID  string
	UserInput  map[string]string
	RetryCount int

	dataBag map[string]string
}

// NewStepExecutionContext derives the execution context for one invocation.
func NewStepExecutionContext(journeyState JourneyState, stepConfig StepConfig,
	userInput map[string]string) *StepExecutionContext {
	bag := make(map[string]string, len(journeyState.DataBag))
	for key, value := range journeyState.DataBag {
		bag[key] = value
	}
	if userInput == nil {
		userInput = make(map[string]string)
	}

	return &StepExecutionContext{
		JourneyID:  journeyState.ID,
		TenantID:   journeyState.TenantID,
		AppID:      journeyState.AppID,
		StepConfig: stepConfig,
		UserID:     journeyState.AuthenticatedUserID,
		SessionID:  journeyState.SessionID,
		UserInput:  userInput,
		RetryCount: journeyState.RetryCounts[stepConfig.ID],
		dataBag:    bag,
	}
}

// GetString returns the bag value for a key, or empty when absent.
func (c *StepExecutionContext) GetString(key string) string {
	return c.dataBag[key]
}

// GetInt64 returns the bag value parsed as int64, or 0 when absent or malformed.
func (c *StepExecutionContext) GetInt64(key string) int64 {
	value, err := strconv.ParseInt(c.dataBag[key], 10, 64)
	if err != nil {
		return 0
	}
	return value
}

// GetBool returns the bag value parsed as bool, or false when absent or malformed.
func (c *StepExecutionContext) GetBool(key string) bool {
	value, err := strconv.ParseBool(c.dataBag[key])
	if err != nil {
		return false
	}
	return value
}

// GetTime returns the bag value parsed as unix seconds, or the zero time.
func (c *StepExecutionContext) GetTime(key string) time.Time {
	seconds, err := strconv.ParseInt(c.dataBag[key], 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(seconds, 0)
}

// Has reports whether the bag carries a value for the key.
func (c *StepExecutionContext) Has(key string) bool {
	_, ok := c.dataBag[key]
	return ok
}

// Input returns a submitted user input value, or empty when absent.
func (c *StepExecutionContext) Input(key string) string {
	return c.UserInput[key]
}

// Property returns a step configuration property, or empty when absent.
func (c *StepExecutionContext) Property(key string) string {
	if c.StepConfig.Properties == nil {
		return ""
	}
	return c.StepConfig.Properties[key]
}
