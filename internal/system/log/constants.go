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

package log

const (
	// LoggerKeyComponentName is the key used to identify the component name in the logger.
	LoggerKeyComponentName = "component"
	// LoggerKeyCorrelationID is the key used to identify the protocol correlation ID in the logger.
	LoggerKeyCorrelationID = "correlationId"
	// LoggerKeyJourneyID is the key used to identify the journey ID in the logger.
	LoggerKeyJourneyID = "journeyId"
	// LoggerKeyStepID is the key used to identify the journey step ID in the logger.
	LoggerKeyStepID = "stepId"
	// LoggerKeyClientID is the key used to identify the OAuth client ID in the logger.
	LoggerKeyClientID = "clientId"
	// LoggerKeyTenantID is the key used to identify the tenant ID in the logger.
	LoggerKeyTenantID = "tenantId"

	// LogLevelEnvironmentVariable is the environment variable used to set the log level.
	LogLevelEnvironmentVariable = "LOG_LEVEL"
	// DefaultLogLevel is the log level used when no level is configured.
	DefaultLogLevel = "info"
)
