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

package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeSubjectID(t *testing.T) {
	testCases := []struct {
		name      string
		subjectID string
		clientID  string
		salt      string
	}{
		{"PairwiseSubject", "user-123", "clientA", "salt-1"},
		{"DifferentClient", "user-123", "clientB", "salt-1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mac := hmac.New(sha256.New, []byte(tc.salt))
			mac.Write([]byte(tc.clientID + tc.subjectID))
			expected := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))

			assert.Equal(t, expected, ComputeSubjectID(tc.subjectID, tc.clientID, tc.salt))
		})
	}
}

func TestComputeSubjectIDIsDeterministic(t *testing.T) {
	first := ComputeSubjectID("user-123", "clientA", "salt-1")
	second := ComputeSubjectID("user-123", "clientA", "salt-1")
	assert.Equal(t, first, second)
}

func TestComputeSubjectIDDiffersPerClient(t *testing.T) {
	forClientA := ComputeSubjectID("user-123", "clientA", "salt-1")
	forClientB := ComputeSubjectID("user-123", "clientB", "salt-1")
	assert.NotEqual(t, forClientA, forClientB)
}

func TestComputeSubjectIDPublicSubject(t *testing.T) {
	assert.Equal(t, "user-123", ComputeSubjectID("user-123", "clientA", ""))
}

func TestLeftHalfHash(t *testing.T) {
	digest := sha256.Sum256([]byte("token-value"))
	expected := base64.RawURLEncoding.EncodeToString(digest[:16])
	assert.Equal(t, expected, leftHalfHash("token-value"))
}
