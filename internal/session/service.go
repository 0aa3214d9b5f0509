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

// Package session tracks authenticated user sessions.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/asgardeo/tempest/internal/system/utils"
)

// ErrSessionNotFound is returned when a session ID does not resolve.
var ErrSessionNotFound = errors.New("session not found")

// Session represents an authenticated user session.
type Session struct {
	ID         string
	UserID     string
	TenantID   string
	AuthTime   time.Time
	AuthMethod string
}

// ServiceInterface defines the session operations.
type ServiceInterface interface {
	// Create starts a session for an authenticated user and returns it.
	Create(ctx context.Context, userID, tenantID, authMethod string, authTime time.Time) (Session, error)
	// Get retrieves a session by ID.
	Get(ctx context.Context, sessionID string) (*Session, error)
	// SignOut invalidates a session. Signing out an absent session is a no-op.
	SignOut(ctx context.Context, sessionID string) error
}

// InMemoryService provides an in-memory session service.
type InMemoryService struct {
	sessions map[string]Session
	mu       sync.RWMutex
}

var _ ServiceInterface = (*InMemoryService)(nil)

// NewInMemoryService creates a new in-memory session service.
func NewInMemoryService() *InMemoryService {
	return &InMemoryService{
		sessions: make(map[string]Session),
	}
}

// Create starts a session for an authenticated user and returns it.
func (s *InMemoryService) Create(_ context.Context, userID, tenantID, authMethod string,
	authTime time.Time) (Session, error) {
	if authTime.IsZero() {
		authTime = time.Now()
	}
	created := Session{
		ID:         utils.GenerateUUID(),
		UserID:     userID,
		TenantID:   tenantID,
		AuthTime:   authTime,
		AuthMethod: authMethod,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[created.ID] = created
	return created, nil
}

// Get retrieves a session by ID.
func (s *InMemoryService) Get(_ context.Context, sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	found, exists := s.sessions[sessionID]
	if !exists {
		return nil, ErrSessionNotFound
	}
	copied := found
	return &copied, nil
}

// SignOut invalidates a session.
func (s *InMemoryService) SignOut(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
