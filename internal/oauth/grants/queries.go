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

import dbmodel "github.com/asgardeo/tempest/internal/system/database/model"

var (
	// queryInsertGrant inserts a new grant record.
	queryInsertGrant = dbmodel.DBQuery{
		ID: "GRQ-01",
		Query: "INSERT INTO GRANT_RECORD (HANDLE, GRANT_TYPE, SUBJECT_ID, CLIENT_ID, TENANT_ID, SESSION_ID, " +
			"SCOPES, CLAIMS, DPOP_THUMBPRINT, DATA, CREATED_AT, EXPIRES_AT) " +
			"VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)",
		SQLiteQuery: "INSERT INTO GRANT_RECORD (HANDLE, GRANT_TYPE, SUBJECT_ID, CLIENT_ID, TENANT_ID, SESSION_ID, " +
			"SCOPES, CLAIMS, DPOP_THUMBPRINT, DATA, CREATED_AT, EXPIRES_AT) " +
			"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
	}

	// queryGetGrant retrieves a grant record by handle.
	queryGetGrant = dbmodel.DBQuery{
		ID: "GRQ-02",
		Query: "SELECT GRANT_TYPE, SUBJECT_ID, CLIENT_ID, TENANT_ID, SESSION_ID, SCOPES, CLAIMS, " +
			"DPOP_THUMBPRINT, DATA, CREATED_AT, EXPIRES_AT FROM GRANT_RECORD WHERE HANDLE = $1",
		SQLiteQuery: "SELECT GRANT_TYPE, SUBJECT_ID, CLIENT_ID, TENANT_ID, SESSION_ID, SCOPES, CLAIMS, " +
			"DPOP_THUMBPRINT, DATA, CREATED_AT, EXPIRES_AT FROM GRANT_RECORD WHERE HANDLE = ?",
	}

	// queryDeleteGrant removes a grant record. The affected-row count tells a
	// rotating caller whether it invalidated the old handle first.
	queryDeleteGrant = dbmodel.DBQuery{
		ID:          "GRQ-03",
		Query:       "DELETE FROM GRANT_RECORD WHERE HANDLE = $1",
		SQLiteQuery: "DELETE FROM GRANT_RECORD WHERE HANDLE = ?",
	}

	// queryTouchGrant stamps the grant's last-used time.
	queryTouchGrant = dbmodel.DBQuery{
		ID:          "GRQ-04",
		Query:       "UPDATE GRANT_RECORD SET LAST_USED_AT = $1 WHERE HANDLE = $2",
		SQLiteQuery: "UPDATE GRANT_RECORD SET LAST_USED_AT = ? WHERE HANDLE = ?",
	}
)
