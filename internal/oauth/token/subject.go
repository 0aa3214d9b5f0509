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
)

// ComputeSubjectID returns the subject identifier to expose for a client.
// With a pairwise salt configured the subject is transformed so two clients
// cannot correlate the same user; without one the public subject is returned
// unchanged.
func ComputeSubjectID(subjectID, clientID, pairwiseSalt string) string {
	if pairwiseSalt == "" {
		return subjectID
	}

	mac := hmac.New(sha256.New, []byte(pairwiseSalt))
	mac.Write([]byte(clientID + subjectID))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// leftHalfHash computes the OIDC at_hash/c_hash value: the left half of the
// SHA-256 digest of the token value, base64url-encoded without padding.
func leftHalfHash(value string) string {
	digest := sha256.Sum256([]byte(value))
	return base64.RawURLEncoding.EncodeToString(digest[:sha256.Size/2])
}
