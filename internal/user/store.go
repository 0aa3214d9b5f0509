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

// Package user provides user lookups and credential verification for the
// authentication coordinator and journey step executors.
package user

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"sync"

	"github.com/asgardeo/tempest/internal/system/utils"
)

// ErrUserNotFound is returned when a user ID or username does not resolve.
var ErrUserNotFound = errors.New("user not found")

// ErrInvalidCredentials is returned when the presented password does not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrUserAlreadyExists is returned when a username is taken within the tenant.
var ErrUserAlreadyExists = errors.New("user already exists")

// User represents a stored user account.
type User struct {
	ID         string
	TenantID   string
	Username   string
	Attributes map[string]string
}

// StoreInterface defines the user operations the authentication flows need.
type StoreInterface interface {
	// UserExists reports whether the user ID resolves within the tenant.
	UserExists(ctx context.Context, tenantID, userID string) (bool, error)
	// VerifyCredentials checks a username/password pair and returns the user ID.
	VerifyCredentials(ctx context.Context, tenantID, username, password string) (string, error)
	// CreateUser registers a new user and returns its generated ID.
	CreateUser(ctx context.Context, tenantID, username, password string,
		attributes map[string]string) (string, error)
}

type storedUser struct {
	user         User
	passwordHash []byte
	salt         string
}

// InMemoryStore provides an in-memory user store. Passwords are kept as
// salted SHA-256 digests and compared in constant time.
type InMemoryStore struct {
	byID       map[string]storedUser
	byUsername map[string]string
	mu         sync.RWMutex
}

var _ StoreInterface = (*InMemoryStore)(nil)

// NewInMemoryStore creates a new in-memory user store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:       make(map[string]storedUser),
		byUsername: make(map[string]string),
	}
}

// usernameKey scopes usernames per tenant.
func usernameKey(tenantID, username string) string {
	return tenantID + "/" + username
}

func hashPassword(salt, password string) []byte {
	digest := sha256.Sum256([]byte(salt + password))
	return digest[:]
}

// UserExists reports whether the user ID resolves within the tenant.
func (s *InMemoryStore) UserExists(_ context.Context, tenantID, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, exists := s.byID[userID]
	return exists && stored.user.TenantID == tenantID, nil
}

// VerifyCredentials checks a username/password pair and returns the user ID.
func (s *InMemoryStore) VerifyCredentials(_ context.Context, tenantID, username,
	password string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID, exists := s.byUsername[usernameKey(tenantID, username)]
	if !exists {
		return "", ErrInvalidCredentials
	}
	stored := s.byID[userID]
	if !hmac.Equal(stored.passwordHash, hashPassword(stored.salt, password)) {
		return "", ErrInvalidCredentials
	}
	return userID, nil
}

// CreateUser registers a new user and returns its generated ID.
func (s *InMemoryStore) CreateUser(_ context.Context, tenantID, username, password string,
	attributes map[string]string) (string, error) {
	salt, err := utils.GenerateSecureRandomString(16)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := usernameKey(tenantID, username)
	if _, exists := s.byUsername[key]; exists {
		return "", ErrUserAlreadyExists
	}

	userID := utils.GenerateUUID()
	copied := make(map[string]string, len(attributes))
	for k, v := range attributes {
		copied[k] = v
	}
	s.byID[userID] = storedUser{
		user: User{
			ID:         userID,
			TenantID:   tenantID,
			Username:   username,
			Attributes: copied,
		},
		passwordHash: hashPassword(salt, password),
		salt:         salt,
	}
	s.byUsername[key] = userID
	return userID, nil
}

// Get retrieves a user by ID.
func (s *InMemoryStore) Get(_ context.Context, userID string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, exists := s.byID[userID]
	if !exists {
		return nil, ErrUserNotFound
	}
	copied := stored.user
	return &copied, nil
}

// Remove deletes a user by ID.
func (s *InMemoryStore) Remove(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.byID[userID]
	if !exists {
		return ErrUserNotFound
	}
	delete(s.byID, userID)
	delete(s.byUsername, usernameKey(stored.user.TenantID, stored.user.Username))
	return nil
}
