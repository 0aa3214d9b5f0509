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

package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndVerifyCredentials(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	userID, err := store.CreateUser(ctx, "t1", "alice", "s3cret", map[string]string{"email": "alice@example.com"})
	require.NoError(t, err)
	require.NotEmpty(t, userID)

	verifiedID, err := store.VerifyCredentials(ctx, "t1", "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, userID, verifiedID)

	_, err = store.VerifyCredentials(ctx, "t1", "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Same username in a different tenant does not resolve.
	_, err = store.VerifyCredentials(ctx, "t2", "alice", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestDuplicateUsernameRejected(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	_, err := store.CreateUser(ctx, "t1", "alice", "s3cret", nil)
	require.NoError(t, err)

	_, err = store.CreateUser(ctx, "t1", "alice", "other", nil)
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	// The same username is free in another tenant.
	_, err = store.CreateUser(ctx, "t2", "alice", "other", nil)
	assert.NoError(t, err)
}

func TestUserExistsScopedToTenant(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	userID, err := store.CreateUser(ctx, "t1", "bob", "pw", nil)
	require.NoError(t, err)

	exists, err := store.UserExists(ctx, "t1", userID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.UserExists(ctx, "t2", userID)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Remove(ctx, userID))
	exists, err = store.UserExists(ctx, "t1", userID)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.Get(ctx, userID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
