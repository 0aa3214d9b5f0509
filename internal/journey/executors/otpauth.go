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
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/asgardeo/tempest/internal/journey/constants"
	"github.com/asgardeo/tempest/internal/journey/model"
	oauth2const "github.com/asgardeo/tempest/internal/oauth/oauth2/constants"
)

const (
	// StepTypeOTPAuth identifies the one-time-passcode step.
	StepTypeOTPAuth = "otpAuth"

	inputOTP = "otp"

	dataOTPValue = "_otp_value"

	authMethodOTP = "otp"
)

// OTPSenderInterface delivers a one-time passcode to the user out of band.
type OTPSenderInterface interface {
	SendOTP(ctx context.Context, tenantID, userID, otp string) error
}

// OTPAuthExecutor sends and verifies a one-time passcode as a second factor.
type OTPAuthExecutor struct {
	sender OTPSenderInterface
}

var _ model.HandlerInterface = (*OTPAuthExecutor)(nil)

// NewOTPAuthExecutor creates an OTP verification step handler.
func NewOTPAuthExecutor(sender OTPSenderInterface) *OTPAuthExecutor {
	return &OTPAuthExecutor{sender: sender}
}

// StepType returns the step type handled by this executor.
func (e *OTPAuthExecutor) StepType() string {
	return StepTypeOTPAuth
}

// Execute sends a passcode on first invocation and verifies the submitted
// value on subsequent ones.
func (e *OTPAuthExecutor) Execute(ctx context.Context,
	stepCtx *model.StepExecutionContext) (model.StepOutcome, error) {
	submitted := stepCtx.Input(inputOTP)

	if !stepCtx.Has(dataOTPValue) {
		value, err := rand.Int(rand.Reader, big.NewInt(1000000))
		if err != nil {
			return model.StepOutcome{}, err
		}
		otp := fmt.Sprintf("%06d", value.Int64())
		if err := e.sender.SendOTP(ctx, stepCtx.TenantID, stepCtx.UserID, otp); err != nil {
			return model.StepOutcome{}, err
		}
		outcome := model.RequireInputOutcome([]string{inputOTP})
		// The pending value rides in the data bag so the next invocation of
		// this step can verify against it.
		outcome.OutputData = map[string]string{dataOTPValue: otp}
		return outcome, nil
	}

	expected := stepCtx.GetString(dataOTPValue)
	if submitted == "" ||
		subtle.ConstantTimeCompare([]byte(submitted), []byte(expected)) != 1 {
		if stepCtx.RetryCount >= stepCtx.StepConfig.MaxRetries {
			return model.FailOutcome(oauth2const.ErrorAccessDenied, "too many failed attempts"), nil
		}
		return model.RequireInputOutcome([]string{inputOTP}), nil
	}

	return model.ContinueOutcome(map[string]string{
		constants.DataAuthenticatedAt: strconv.FormatInt(time.Now().Unix(), 10),
		constants.DataAuthMethod:      authMethodOTP,
		dataOTPValue:                  "",
	}), nil
}
