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

package application

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// ErrApplicationNotFound is returned when no application matches the client ID.
var ErrApplicationNotFound = errors.New("application not found")

// StoreInterface provides read-only application and resource lookups.
type StoreInterface interface {
	GetApplication(ctx context.Context, clientID string) (OAuthApplication, error)
	// GetResourcesByScopes returns the API resources owning any of the given
	// scopes, in deterministic name order.
	GetResourcesByScopes(ctx context.Context, tenantID string, scopes []string) ([]APIResource, error)
}

// InMemoryStore is a StoreInterface backed by maps, loaded at startup.
type InMemoryStore struct {
	applications map[string]OAuthApplication
	resources    []APIResource
	mu           sync.RWMutex
}

// NewInMemoryStore creates an empty in-memory application store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		applications: make(map[string]OAuthApplication),
	}
}

// AddApplication registers an application. Intended for startup loading and tests.
func (s *InMemoryStore) AddApplication(app OAuthApplication) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applications[app.ClientID] = app
}

// AddResource registers an API resource.
func (s *InMemoryStore) AddResource(resource APIResource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources = append(s.resources, resource)
}

// GetApplication resolves an application by client ID.
func (s *InMemoryStore) GetApplication(_ context.Context, clientID string) (OAuthApplication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, ok := s.applications[clientID]
	if !ok {
		return OAuthApplication{}, ErrApplicationNotFound
	}
	return app, nil
}

// GetResourcesByScopes returns resources owning any of the given scopes.
func (s *InMemoryStore) GetResourcesByScopes(_ context.Context, tenantID string,
	scopes []string) ([]APIResource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []APIResource{}
	for _, resource := range s.resources {
		if tenantID != "" && resource.TenantID != "" && resource.TenantID != tenantID {
			continue
		}
		for _, scope := range scopes {
			if slices.Contains(resource.Scopes, scope) {
				matched = append(matched, resource)
				break
			}
		}
	}
	slices.SortFunc(matched, func(a, b APIResource) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		default:
			return 0
		}
	})
	return matched, nil
}
