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

package registry

import (
	"context"
	"errors"
	"sync"

	"github.com/asgardeo/tempest/internal/journey/constants"
)

// ErrPolicyNotFound is returned when no policy matches the lookup.
var ErrPolicyNotFound = errors.New("journey policy not found")

// Policy binds a journey type to a concrete journey definition for a tenant.
type Policy struct {
	ID           string
	TenantID     string
	Type         constants.JourneyType
	DefinitionID string
}

// PolicyStoreInterface provides read-only journey policy lookups.
type PolicyStoreInterface interface {
	GetPolicy(ctx context.Context, policyID string) (Policy, error)
	GetPolicyByType(ctx context.Context, tenantID string, journeyType constants.JourneyType) (Policy, error)
}

// InMemoryPolicyStore is a PolicyStoreInterface backed by maps.
type InMemoryPolicyStore struct {
	policies map[string]Policy
	mu       sync.RWMutex
}

// NewInMemoryPolicyStore creates an empty policy store.
func NewInMemoryPolicyStore() *InMemoryPolicyStore {
	return &InMemoryPolicyStore{
		policies: make(map[string]Policy),
	}
}

// Add registers a policy. Intended for startup loading and tests.
func (s *InMemoryPolicyStore) Add(policy Policy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[policy.ID] = policy
}

// GetPolicy resolves a policy by ID.
func (s *InMemoryPolicyStore) GetPolicy(_ context.Context, policyID string) (Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	policy, ok := s.policies[policyID]
	if !ok {
		return Policy{}, ErrPolicyNotFound
	}
	return policy, nil
}

// GetPolicyByType resolves the tenant's policy for a journey type.
func (s *InMemoryPolicyStore) GetPolicyByType(_ context.Context, tenantID string,
	journeyType constants.JourneyType) (Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, policy := range s.policies {
		if policy.TenantID == tenantID && policy.Type == journeyType {
			return policy, nil
		}
	}
	return Policy{}, ErrPolicyNotFound
}
