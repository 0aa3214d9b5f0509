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

package config

import (
	"errors"
	"sync"
)

// TempestRuntime holds the runtime configuration of the server.
type TempestRuntime struct {
	TempestHome string
	Config      Config
}

var (
	runtimeInstance *TempestRuntime
	runtimeOnce     sync.Once
)

// InitializeTempestRuntime initializes the runtime configuration singleton.
func InitializeTempestRuntime(tempestHome string, cfg *Config) error {
	if cfg == nil {
		return errors.New("configuration cannot be nil")
	}

	runtimeOnce.Do(func() {
		runtimeInstance = &TempestRuntime{
			TempestHome: tempestHome,
			Config:      *cfg,
		}
	})
	return nil
}

// GetTempestRuntime returns the runtime configuration of the server.
func GetTempestRuntime() *TempestRuntime {
	if runtimeInstance == nil {
		panic("TempestRuntime is not initialized")
	}
	return runtimeInstance
}

// ResetTempestRuntime resets the runtime configuration. Used only in tests.
func ResetTempestRuntime() {
	runtimeInstance = nil
	runtimeOnce = sync.Once{}
}
