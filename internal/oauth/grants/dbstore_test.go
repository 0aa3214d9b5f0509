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
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/suite"

	"github.com/asgardeo/tempest/internal/system/database/client"
)

// mockDBProvider hands out a DBClient backed by sqlmock.
type mockDBProvider struct {
	client client.DBClientInterface
}

func (m *mockDBProvider) GetDBClient(_ string) (client.DBClientInterface, error) {
	return m.client, nil
}

type GrantDBStoreTestSuite struct {
	suite.Suite
	mock  sqlmock.Sqlmock
	store StoreInterface
}

func TestGrantDBStoreSuite(t *testing.T) {
	suite.Run(t, new(GrantDBStoreTestSuite))
}

func (suite *GrantDBStoreTestSuite) SetupTest() {
	db, mock, err := sqlmock.New()
	suite.Require().NoError(err)

	suite.mock = mock
	suite.store = NewDBStore(&mockDBProvider{client: client.NewDBClient(db, "postgres")})
}

func (suite *GrantDBStoreTestSuite) TestStoreInsertsRecord() {
	suite.mock.ExpectExec("INSERT INTO GRANT_RECORD").
		WillReturnResult(sqlmock.NewResult(1, 1))

	handle, err := suite.store.Store(context.Background(), GrantRecord{
		Type:      GrantTypeRefreshToken,
		SubjectID: "user1",
		ClientID:  "client1",
		Scopes:    []string{"openid"},
		ExpiresAt: time.Now().Add(time.Hour),
	})
	suite.NoError(err)
	suite.NotEmpty(handle)
	suite.NoError(suite.mock.ExpectationsWereMet())
}

func (suite *GrantDBStoreTestSuite) TestGetResolvesLiveGrant() {
	rows := sqlmock.NewRows([]string{"grant_type", "subject_id", "client_id", "tenant_id", "session_id",
		"scopes", "claims", "dpop_thumbprint", "data", "created_at", "expires_at"}).
		AddRow("refresh_token", "user1", "client1", "tenant1", "session1",
			"openid api:read", `{"email":"user1@example.com"}`, "", "{}",
			time.Now().Unix(), time.Now().Add(time.Hour).Unix())
	suite.mock.ExpectQuery("SELECT (.+) FROM GRANT_RECORD").WillReturnRows(rows)

	record, err := suite.store.Get(context.Background(), "handle1")
	suite.NoError(err)
	suite.Equal(GrantTypeRefreshToken, record.Type)
	suite.Equal([]string{"openid", "api:read"}, record.Scopes)
	suite.Equal("user1@example.com", record.Claims["email"])
	suite.NoError(suite.mock.ExpectationsWereMet())
}

func (suite *GrantDBStoreTestSuite) TestGetExpiredGrantFails() {
	rows := sqlmock.NewRows([]string{"grant_type", "subject_id", "client_id", "tenant_id", "session_id",
		"scopes", "claims", "dpop_thumbprint", "data", "created_at", "expires_at"}).
		AddRow("reference_token", "user1", "client1", "", "",
			"openid", "{}", "", "{}",
			time.Now().Add(-2*time.Hour).Unix(), time.Now().Add(-time.Hour).Unix())
	suite.mock.ExpectQuery("SELECT (.+) FROM GRANT_RECORD").WillReturnRows(rows)

	_, err := suite.store.Get(context.Background(), "handle1")
	suite.ErrorIs(err, ErrGrantNotFound)
}

func (suite *GrantDBStoreTestSuite) TestRemoveReportsLostRace() {
	suite.mock.ExpectExec("DELETE FROM GRANT_RECORD").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := suite.store.Remove(context.Background(), "handle1")
	suite.ErrorIs(err, ErrGrantNotFound)
}
