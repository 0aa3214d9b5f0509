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
	"encoding/json"
	"time"

	"github.com/asgardeo/tempest/internal/oauth/oauth2/constants"
	"github.com/asgardeo/tempest/internal/system/database/provider"
	"github.com/asgardeo/tempest/internal/system/log"
)

// DBStore provides a database-backed protocol state store.
type DBStore struct {
	dbProvider provider.DBProviderInterface
}

// NewDBStore creates a new database-backed protocol state store.
func NewDBStore(dbProvider provider.DBProviderInterface) StoreInterface {
	return &DBStore{
		dbProvider: dbProvider,
	}
}

// Store persists the state and returns the generated correlation ID.
func (s *DBStore) Store(ctx context.Context, state ProtocolState, ttl time.Duration) (string, error) {
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

	properties, err := json.Marshal(state.Properties)
	if err != nil {
		return "", err
	}

	dbClient, err := s.dbProvider.GetDBClient("runtime")
	if err != nil {
		return "", err
	}

	_, err = dbClient.Execute(ctx, queryInsertProtocolState, correlationID, state.ProtocolName,
		state.SerializedRequest, state.ClientID, state.TenantID, string(state.EndpointType),
		string(properties), state.CreatedAt.Unix(), state.CreatedAt.Add(ttl).Unix())
	if err != nil {
		return "", err
	}

	return correlationID, nil
}

// Get retrieves the state without consuming it.
func (s *DBStore) Get(ctx context.Context, correlationID string) (*ProtocolState, error) {
	dbClient, err := s.dbProvider.GetDBClient("runtime")
	if err != nil {
		return nil, err
	}

	results, err := dbClient.Query(ctx, queryGetProtocolState, correlationID)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrStateNotFound
	}

	state, expiryTime, err := scanProtocolState(results[0])
	if err != nil {
		return nil, err
	}
	if time.Now().After(expiryTime) {
		// Expired entries are removed eagerly so they never resolve again.
		if _, delErr := dbClient.Execute(ctx, queryDeleteProtocolState, correlationID); delErr != nil {
			log.GetLogger().Error("Failed to remove expired protocol state", log.Error(delErr))
		}
		return nil, ErrStateNotFound
	}

	return state, nil
}

// Update replaces the state kept under an existing correlation ID, leaving
// its expiry untouched.
func (s *DBStore) Update(ctx context.Context, correlationID string, state ProtocolState) error {
	properties, err := json.Marshal(state.Properties)
	if err != nil {
		return err
	}

	dbClient, err := s.dbProvider.GetDBClient("runtime")
	if err != nil {
		return err
	}

	rowsAffected, err := dbClient.Execute(ctx, queryUpdateProtocolState, correlationID, state.ProtocolName,
		state.SerializedRequest, state.ClientID, state.TenantID, string(state.EndpointType), string(properties))
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrStateNotFound
	}
	return nil
}

// Consume retrieves and removes the state. The delete's affected-row count is
// the arbiter: if another consumer already deleted the row, this consume fails.
func (s *DBStore) Consume(ctx context.Context, correlationID string) (*ProtocolState, error) {
	dbClient, err := s.dbProvider.GetDBClient("runtime")
	if err != nil {
		return nil, err
	}

	results, err := dbClient.Query(ctx, queryGetProtocolState, correlationID)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrStateNotFound
	}

	rowsAffected, err := dbClient.Execute(ctx, queryDeleteProtocolState, correlationID)
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, ErrStateNotFound
	}

	state, expiryTime, err := scanProtocolState(results[0])
	if err != nil {
		return nil, err
	}
	if time.Now().After(expiryTime) {
		return nil, ErrStateNotFound
	}

	return state, nil
}

// Remove deletes the state without retrieving it.
func (s *DBStore) Remove(ctx context.Context, correlationID string) error {
	dbClient, err := s.dbProvider.GetDBClient("runtime")
	if err != nil {
		return err
	}

	_, err = dbClient.Execute(ctx, queryDeleteProtocolState, correlationID)
	return err
}

// scanProtocolState builds a ProtocolState from a database row.
func scanProtocolState(row map[string]interface{}) (*ProtocolState, time.Time, error) {
	state := &ProtocolState{}

	if v, ok := row["protocol_name"].(string); ok {
		state.ProtocolName = v
	}
	if v, ok := row["serialized_request"].(string); ok {
		state.SerializedRequest = v
	}
	if v, ok := row["client_id"].(string); ok {
		state.ClientID = v
	}
	if v, ok := row["tenant_id"].(string); ok {
		state.TenantID = v
	}
	if v, ok := row["endpoint_type"].(string); ok {
		state.EndpointType = constants.EndpointType(v)
	}
	if v, ok := row["properties"].(string); ok && v != "" {
		if err := json.Unmarshal([]byte(v), &state.Properties); err != nil {
			return nil, time.Time{}, err
		}
	}

	state.CreatedAt = time.Unix(parseUnixSeconds(row["created_at"]), 0)
	expiryTime := time.Unix(parseUnixSeconds(row["expiry_time"]), 0)
	return state, expiryTime, nil
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
