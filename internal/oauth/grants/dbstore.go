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
	"encoding/json"
	"strings"
	"time"

	"github.com/asgardeo/tempest/internal/system/database/provider"
)

// DBStore provides a database-backed grant store.
type DBStore struct {
	dbProvider provider.DBProviderInterface
}

// NewDBStore creates a new database-backed grant store.
func NewDBStore(dbProvider provider.DBProviderInterface) StoreInterface {
	return &DBStore{
		dbProvider: dbProvider,
	}
}

// Store persists the record, generating a handle when absent.
func (s *DBStore) Store(ctx context.Context, record GrantRecord) (string, error) {
	if record.Handle == "" {
		handle, err := NewHandle()
		if err != nil {
			return "", err
		}
		record.Handle = handle
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	claims, err := json.Marshal(record.Claims)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(record.Data)
	if err != nil {
		return "", err
	}

	dbClient, err := s.dbProvider.GetDBClient("runtime")
	if err != nil {
		return "", err
	}

	_, err = dbClient.Execute(ctx, queryInsertGrant, record.Handle, string(record.Type),
		record.SubjectID, record.ClientID, record.TenantID, record.SessionID,
		strings.Join(record.Scopes, " "), string(claims), record.DPoPThumbprint, string(data),
		record.CreatedAt.Unix(), record.ExpiresAt.Unix())
	if err != nil {
		return "", err
	}

	return record.Handle, nil
}

// Get retrieves a live grant by handle.
func (s *DBStore) Get(ctx context.Context, handle string) (*GrantRecord, error) {
	dbClient, err := s.dbProvider.GetDBClient("runtime")
	if err != nil {
		return nil, err
	}

	results, err := dbClient.Query(ctx, queryGetGrant, handle)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrGrantNotFound
	}

	record, err := scanGrantRecord(handle, results[0])
	if err != nil {
		return nil, err
	}
	if record.IsExpired() {
		return nil, ErrGrantNotFound
	}

	return record, nil
}

// Remove deletes a grant by handle.
func (s *DBStore) Remove(ctx context.Context, handle string) error {
	dbClient, err := s.dbProvider.GetDBClient("runtime")
	if err != nil {
		return err
	}

	rowsAffected, err := dbClient.Execute(ctx, queryDeleteGrant, handle)
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrGrantNotFound
	}
	return nil
}

// TouchLastUsed stamps the grant's last-used time.
func (s *DBStore) TouchLastUsed(ctx context.Context, handle string) error {
	dbClient, err := s.dbProvider.GetDBClient("runtime")
	if err != nil {
		return err
	}

	rowsAffected, err := dbClient.Execute(ctx, queryTouchGrant, time.Now().Unix(), handle)
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrGrantNotFound
	}
	return nil
}

// scanGrantRecord builds a GrantRecord from a database row.
func scanGrantRecord(handle string, row map[string]interface{}) (*GrantRecord, error) {
	record := &GrantRecord{Handle: handle}

	if v, ok := row["grant_type"].(string); ok {
		record.Type = GrantType(v)
	}
	if v, ok := row["subject_id"].(string); ok {
		record.SubjectID = v
	}
	if v, ok := row["client_id"].(string); ok {
		record.ClientID = v
	}
	if v, ok := row["tenant_id"].(string); ok {
		record.TenantID = v
	}
	if v, ok := row["session_id"].(string); ok {
		record.SessionID = v
	}
	if v, ok := row["scopes"].(string); ok && v != "" {
		record.Scopes = strings.Split(v, " ")
	}
	if v, ok := row["claims"].(string); ok && v != "" {
		if err := json.Unmarshal([]byte(v), &record.Claims); err != nil {
			return nil, err
		}
	}
	if v, ok := row["dpop_thumbprint"].(string); ok {
		record.DPoPThumbprint = v
	}
	if v, ok := row["data"].(string); ok && v != "" {
		if err := json.Unmarshal([]byte(v), &record.Data); err != nil {
			return nil, err
		}
	}

	record.CreatedAt = time.Unix(parseUnixSeconds(row["created_at"]), 0)
	if exp := parseUnixSeconds(row["expires_at"]); exp > 0 {
		record.ExpiresAt = time.Unix(exp, 0)
	}
	return record, nil
}

// parseUnixSeconds normalizes the numeric types drivers return for integer columns.
func parseUnixSeconds(value interface{}) int64 {
	switch v := value.(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	default:
		return 0
	}
}
