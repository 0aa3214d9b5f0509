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

package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLifecycle(t *testing.T) {
	service := NewInMemoryService()
	ctx := context.Background()

	created, err := service.Create(ctx, "user1", "t1", "password", time.Now())
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	found, err := service.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "user1", found.UserID)
	assert.Equal(t, "password", found.AuthMethod)

	require.NoError(t, service.SignOut(ctx, created.ID))
	_, err = service.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Signing out an unknown session is a no-op.
	assert.NoError(t, service.SignOut(ctx, "unknown"))
}
