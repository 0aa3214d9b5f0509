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

// Package utils provides common utility functions used across the server.
package utils

import (
	"crypto/rand"
	"encoding/base64"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// GenerateUUID generates a new random UUID string.
func GenerateUUID() string {
	return uuid.New().String()
}

// GenerateSecureRandomString generates a cryptographically random base64url string
// carrying the given number of random bytes.
func GenerateSecureRandomString(numBytes int) (string, error) {
	bytes := make([]byte, numBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

// MergeStringMaps merges two string maps. Values in the second map take precedence.
func MergeStringMaps(base, overrides map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(overrides))
	for key, value := range base {
		merged[key] = value
	}
	for key, value := range overrides {
		merged[key] = value
	}
	return merged
}

// ParseScopes splits a space-separated scope string into a slice, dropping empty entries.
func ParseScopes(scope string) []string {
	scopes := []string{}
	for _, s := range strings.Split(strings.TrimSpace(scope), " ") {
		if s != "" {
			scopes = append(scopes, s)
		}
	}
	return scopes
}

// DeduplicateStrings returns a copy of the given slice with duplicates removed,
// preserving first-seen order.
func DeduplicateStrings(values []string) []string {
	result := make([]string, 0, len(values))
	for _, v := range values {
		if !slices.Contains(result, v) {
			result = append(result, v)
		}
	}
	return result
}
