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

// Package constants defines the constants used in the journey execution engine.
package constants

// JourneyType defines the purpose of a journey definition.
type JourneyType string

const (
	// JourneyTypeSignIn represents a journey for user authentication.
	JourneyTypeSignIn JourneyType = "SIGN_IN"
	// JourneyTypeSignUp represents a journey for user registration.
	JourneyTypeSignUp JourneyType = "SIGN_UP"
	// JourneyTypeConsent represents a journey for collecting consent.
	JourneyTypeConsent JourneyType = "CONSENT"
	// JourneyTypePasswordRecovery represents a journey for password recovery.
	JourneyTypePasswordRecovery JourneyType = "PASSWORD_RECOVERY"
)

// JourneyStatus defines the status of a journey execution.
type JourneyStatus string

const (
	// JourneyStatusRunning indicates that the journey has steps left to execute.
	JourneyStatusRunning JourneyStatus = "RUNNING"
	// JourneyStatusCompleted indicates that the journey completed successfully.
	JourneyStatusCompleted JourneyStatus = "COMPLETED"
	// JourneyStatusFailed indicates that the journey terminated with an error.
	JourneyStatusFailed JourneyStatus = "FAILED"
	// JourneyStatusExpired indicates that the journey outlived its validity period.
	JourneyStatusExpired JourneyStatus = "EXPIRED"
)

// OutcomeType defines the outcome of one step handler invocation.
type OutcomeType string

const (
	// OutcomeContinue advances to the next step in declared order or the
	// step's onSuccess target.
	OutcomeContinue OutcomeType = "CONTINUE"
	// OutcomeBranch jumps to a named branch target.
	OutcomeBranch OutcomeType = "BRANCH"
	// OutcomeRequireInput pauses the journey until the caller submits input.
	OutcomeRequireInput OutcomeType = "REQUIRE_INPUT"
	// OutcomeSkip advances without committing step output.
	OutcomeSkip OutcomeType = "SKIP"
	// OutcomeComplete ends the journey successfully.
	OutcomeComplete OutcomeType = "COMPLETE"
	// OutcomeFail ends the step in error, honoring the onFailure target.
	OutcomeFail OutcomeType = "FAIL"
)

// Data bag keys with engine-level meaning.
const (
	// DataAuthenticatedAt must be set by any handler that authenticates the
	// user. Without it no session is issued even when a user ID is present.
	DataAuthenticatedAt = "authenticated_at"
	// DataAuthMethod records how the user authenticated.
	DataAuthMethod = "auth_method"
)
