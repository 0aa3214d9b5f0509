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

package protocolstate

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/asgardeo/tempest/internal/system/utils"
)

// ErrStateNotFound is returned when a correlation ID does not resolve,
// whether it never existed, expired, or was already consumed.
var ErrStateNotFound = errors.New("protocol state not found")

// StoreInterface defines the contract for protocol state storage.
// A correlation ID, once consumed or expired, must never resolve again.
type StoreInterface interface {
	// Store persists the state and returns the correlation ID keying it.
	Store(ctx context.Context, state ProtocolState, ttl time.Duration) (string, error)
	// Get retrieves the state without consuming it.
	Get(ctx context.Context, correlationID string) (*ProtocolState, error)
	// Update replaces the state kept under an existing correlation ID.
	Update(ctx context.Context, correlationID string, state ProtocolState) error
	// Consume retrieves and atomically removes the state. A second Consume
	// or Get for the same ID fails with ErrStateNotFound.
	Consume(ctx context.Context, correlationID string) (*ProtocolState, error)
	// Remove deletes the state without retrieving it.
	Remove(ctx context.Context, correlationID string) error
}

// newCorrelationID generates an opaque, unguessable correlation ID. A ksuid
// prefix keeps IDs sortable for operators while the random suffix carries the
// unguessability.
func newCorrelationID() (string, error) {
	entropy, err := utils.GenerateSecureRandomString(16)
	if err != nil {
		return "", err
	}
	return ksuid.New().String() + entropy, nil
}

// storeEntry represents a stored state with its expiry time.
type storeEntry struct {
	state      ProtocolState
	expiryTime time.Time
}

// InMemoryStore provides an in-memory protocol state store.
type InMemoryStore struct {
	entries map[string]storeEntry
	mu      sync.Mutex
}

// NewInMemoryStore creates a new in-memory protocol state store.
func NewInMemoryStore() StoreInterface {
	return &InMemoryStore{
		entries: make(map[string]storeEntry),
	}
}

// Store persists the state and returns the generated correlation ID.
func (s *InMemoryStore) Store(_ context.Context, state ProtocolState, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultStateValidityPeriod
	}
	if state.CreatedAt.IsZero() {
		state.CreatedAt = time.Now()
	}

	correlationID, err := newCorrelationID()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[correlationID] = storeEntry{
		state:      state,
		expiryTime: time.Now().Add(ttl),
	}
	return correlationID, nil
}

// Get retrieves the state without consuming it.
func (s *InMemoryStore) Get(_ context.Context, correlationID string) (*ProtocolState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.entries[correlationID]
	if !exists {
		return nil, ErrStateNotFound
	}
	if time.Now().After(entry.expiryTime) {
		delete(s.entries, correlationID)
		return nil, ErrStateNotFound
	}

	state := entry.state
	return &state, nil
}

// Update replaces the state kept under an existing correlation ID without
// touching its expiry.
func (s *InMemoryStore) Update(_ context.Context, correlationID string, state ProtocolState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.entries[correlationID]
	if !exists || time.Now().After(entry.expiryTime) {
		return ErrStateNotFound
	}
	entry.state = state
	s.entries[correlationID] = entry
	return nil
}

// Consume retrieves and removes the state under a single lock, so a
// correlation ID never validates twice.
func (s *InMemoryStore) Consume(_ context.Context, correlationID string) (*ProtocolState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.entries[correlationID]
	if !exists {
		return nil, ErrStateNotFound
	}
	delete(s.entries, correlationID)

	if time.Now().After(entry.expiryTime) {
		return nil, ErrStateNotFound
	}

	state := entry.state
	return &state, nil
}

// Remove deletes the state without retrieving it.
func (s *InMemoryStore) Remove(_ context.Context, correlationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, correlationID)
	return nil
}
