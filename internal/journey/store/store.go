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

// Package store persists in-flight journey state between invocations.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/asgardeo/tempest/internal/journey/constants"
	"github.com/asgardeo/tempest/internal/journey/model"
)

// ErrJourneyNotFound is returned when no journey matches the ID.
var ErrJourneyNotFound = errors.New("journey not found")

// ErrJourneyExpired is returned when the journey outlived its validity period.
// The expired state is returned alongside so callers can report the status.
var ErrJourneyExpired = errors.New("journey expired")

// StoreInterface defines the persistence contract for journey state.
type StoreInterface interface {
	Save(ctx context.Context, journeyState model.JourneyState) error
	Get(ctx context.Context, journeyID string) (model.JourneyState, error)
	Remove(ctx context.Context, journeyID string) error
}

// InMemoryStore is a StoreInterface backed by a map with expiry checks on read.
type InMemoryStore struct {
	journeys map[string]model.JourneyState
	mu       sync.Mutex
}

// NewInMemoryStore creates an empty in-memory journey store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		journeys: make(map[string]model.JourneyState),
	}
}

// Save stores or replaces a journey state.
func (s *InMemoryStore) Save(_ context.Context, journeyState model.JourneyState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.journeys[journeyState.ID] = journeyState
	return nil
}

// Get resolves a journey by ID. Expired journeys are removed and do not resolve.
func (s *InMemoryStore) Get(_ context.Context, journeyID string) (model.JourneyState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	journeyState, ok := s.journeys[journeyID]
	if !ok {
		return model.JourneyState{}, ErrJourneyNotFound
	}
	if !journeyState.ExpiresAt.IsZero() && time.Now().After(journeyState.ExpiresAt) {
		delete(s.journeys, journeyID)
		journeyState.Status = constants.JourneyStatusExpired
		return journeyState, ErrJourneyExpired
	}
	return journeyState, nil
}

// Remove deletes a journey state.
func (s *InMemoryStore) Remove(_ context.Context, journeyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.journeys[journeyID]; !ok {
		return ErrJourneyNotFound
	}
	delete(s.journeys, journeyID)
	return nil
}
