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

package grants

import (
	"context"
	"errors"
	"sync"

	"github.com/asgardeo/tempest/internal/system/utils"
)

// ErrGrantNotFound is returned when a handle does not resolve to a live grant.
var ErrGrantNotFound = errors.New("grant not found")

// StoreInterface defines the contract for opaque grant storage.
type StoreInterface interface {
	// Store persists the record. When the record carries no handle, a new
	// 256-bit random handle is generated and returned.
	Store(ctx context.Context, record GrantRecord) (string, error)
	// Get retrieves a live grant by handle. Expired grants do not resolve.
	Get(ctx context.Context, handle string) (*GrantRecord, error)
	// Remove deletes a grant by handle. Removing an absent handle fails with
	// ErrGrantNotFound so rotation can detect a lost race.
	Remove(ctx context.Context, handle string) error
	// TouchLastUsed stamps the grant's last-used time.
	TouchLastUsed(ctx context.Context, handle string) error
}

// NewHandle generates a 256-bit random opaque grant handle.
func NewHandle() (string, error) {
	return utils.GenerateSecureRandomString(handleRandomBytes)
}

// InMemoryStore provides an in-memory grant store.
type InMemoryStore struct {
	records map[string]GrantRecord
	mu      sync.Mutex
}

// NewInMemoryStore creates a new in-memory grant store.
func NewInMemoryStore() StoreInterface {
	return &InMemoryStore{
		records: make(map[string]GrantRecord),
	}
}

// Store persists the record, generating a handle when absent.
func (s *InMemoryStore) Store(_ context.Context, record GrantRecord) (string, error) {
	if record.Handle == "" {
		handle, err := NewHandle()
		if err != nil {
			return "", err
		}
		record.Handle = handle
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.Handle] = record
	return record.Handle, nil
}

// Get retrieves a live grant by handle.
func (s *InMemoryStore) Get(_ context.Context, handle string) (*GrantRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.records[handle]
	if !exists {
		return nil, ErrGrantNotFound
	}
	if record.IsExpired() {
		delete(s.records, handle)
		return nil, ErrGrantNotFound
	}

	copied := record
	return &copied, nil
}

// Remove deletes a grant by handle.
func (s *InMemoryStore) Remove(_ context.Context, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[handle]; !exists {
		return ErrGrantNotFound
	}
	delete(s.records, handle)
	return nil
}

// TouchLastUsed stamps the grant's last-used time.
func (s *InMemoryStore) TouchLastUsed(_ context.Context, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.records[handle]
	if !exists {
		return ErrGrantNotFound
	}
	record.LastUsedAt = timeNow()
	s.records[handle] = record
	return nil
}
