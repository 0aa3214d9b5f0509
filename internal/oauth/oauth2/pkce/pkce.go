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

// Package pkce provides PKCE (Proof Key for Code Exchange) validation utilities per RFC 7636.
package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"

	"github.com/asgardeo/tempest/internal/oauth/oauth2/constants"
	"github.com/asgardeo/tempest/internal/oauth/oauth2/model"
)

// PKCE code challenge methods.
const (
	CodeChallengeMethodPlain = "plain"
	CodeChallengeMethodS256  = "S256"
)

const (
	minPKCELength = 43
	maxPKCELength = 128
)

// isValidBase64URLChar validates that a character is in the base64url alphabet.
func isValidBase64URLChar(c rune) bool {
	return (c >= 'A' && c <= 'Z') ||
		(c >= 'a' && c <= 'z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '_'
}

// checkFormat validates the length bounds and charset shared by challenges and verifiers.
// Returns an empty string when the value is well formed, else a human readable reason.
func checkFormat(value string) string {
	if len(value) < minPKCELength || len(value) > maxPKCELength {
		return "must be between 43 and 128 characters"
	}
	for _, c := range value {
		if !isValidBase64URLChar(c) {
			return "contains invalid characters"
		}
	}
	return ""
}

// ValidateCodeChallenge validates a code challenge received on the authorization
// request. Failures use the invalid_request error code.
func ValidateCodeChallenge(challenge, method string, pkceRequired, allowPlainText bool) *model.ErrorResponse {
	if challenge == "" {
		if pkceRequired {
			return &model.ErrorResponse{
				Error:            constants.ErrorInvalidRequest,
				ErrorDescription: "PKCE is required. code_challenge is missing",
			}
		}
		return nil
	}

	if reason := checkFormat(challenge); reason != "" {
		return &model.ErrorResponse{
			Error:            constants.ErrorInvalidRequest,
			ErrorDescription: "Invalid code_challenge: " + reason,
		}
	}

	// A missing method defaults to plain per RFC 7636.
	if method == "" {
		method = CodeChallengeMethodPlain
	}

	switch method {
	case CodeChallengeMethodPlain:
		if !allowPlainText {
			return &model.ErrorResponse{
				Error:            constants.ErrorInvalidRequest,
				ErrorDescription: "The plain code_challenge_method is not allowed",
			}
		}
		return nil
	case CodeChallengeMethodS256:
		return nil
	default:
		return &model.ErrorResponse{
			Error:            constants.ErrorInvalidRequest,
			ErrorDescription: "Unsupported code_challenge_method",
		}
	}
}

// ValidateCodeVerifier validates a code verifier received on the token request
// against the stored challenge. Failures use the invalid_grant error code,
// distinct from the challenge-phase invalid_request.
func ValidateCodeVerifier(verifier, storedChallenge, method string) *model.ErrorResponse {
	if verifier == "" {
		return &model.ErrorResponse{
			Error:            constants.ErrorInvalidGrant,
			ErrorDescription: "code_verifier is missing",
		}
	}

	if reason := checkFormat(verifier); reason != "" {
		return &model.ErrorResponse{
			Error:            constants.ErrorInvalidGrant,
			ErrorDescription: "Invalid code_verifier: " + reason,
		}
	}

	if method == "" {
		method = CodeChallengeMethodPlain
	}

	switch method {
	case CodeChallengeMethodPlain:
		if subtle.ConstantTimeCompare([]byte(verifier), []byte(storedChallenge)) != 1 {
			return &model.ErrorResponse{
				Error:            constants.ErrorInvalidGrant,
				ErrorDescription: "PKCE validation failed",
			}
		}
		return nil
	case CodeChallengeMethodS256:
		hash := sha256.Sum256([]byte(verifier))
		expected := base64.RawURLEncoding.EncodeToString(hash[:])
		if subtle.ConstantTimeCompare([]byte(expected), []byte(storedChallenge)) != 1 {
			return &model.ErrorResponse{
				Error:            constants.ErrorInvalidGrant,
				ErrorDescription: "PKCE validation failed",
			}
		}
		return nil
	default:
		return &model.ErrorResponse{
			Error:            constants.ErrorInvalidGrant,
			ErrorDescription: "Unsupported code_challenge_method",
		}
	}
}

// GenerateCodeVerifier generates a cryptographically random code verifier
// within the RFC 7636 length and charset bounds.
func GenerateCodeVerifier() (string, error) {
	// 32 random bytes encode to 43 base64url characters, the minimum length.
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

// GenerateCodeChallenge derives the code challenge for the given verifier and method.
// The S256 transform is the same hash used for verification, so the pair round-trips.
func GenerateCodeChallenge(verifier, method string) (string, *model.ErrorResponse) {
	if reason := checkFormat(verifier); reason != "" {
		return "", &model.ErrorResponse{
			Error:            constants.ErrorInvalidRequest,
			ErrorDescription: "Invalid code_verifier: " + reason,
		}
	}

	switch method {
	case CodeChallengeMethodPlain:
		return verifier, nil
	case CodeChallengeMethodS256:
		hash := sha256.Sum256([]byte(verifier))
		return base64.RawURLEncoding.EncodeToString(hash[:]), nil
	default:
		return "", &model.ErrorResponse{
			Error:            constants.ErrorInvalidRequest,
			ErrorDescription: "Unsupported code_challenge_method",
		}
	}
}
