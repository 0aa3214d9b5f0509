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

import dbmodel "github.com/asgardeo/tempest/internal/system/database/model"

var (
	// queryInsertProtocolState inserts a new in-flight protocol request.
	queryInsertProtocolState = dbmodel.DBQuery{
		ID: "PSQ-01",
		Query: "INSERT INTO PROTOCOL_STATE (CORRELATION_ID, PROTOCOL_NAME, SERIALIZED_REQUEST, CLIENT_ID, " +
			"TENANT_ID, ENDPOINT_TYPE, PROPERTIES, CREATED_AT, EXPIRY_TIME) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)",
		SQLiteQuery: "INSERT INTO PROTOCOL_STATE (CORRELATION_ID, PROTOCOL_NAME, SERIALIZED_REQUEST, CLIENT_ID, " +
			"TENANT_ID, ENDPOINT_TYPE, PROPERTIES, CREATED_AT, EXPIRY_TIME) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
	}

	// queryGetProtocolState retrieves an in-flight protocol request by correlation ID.
	queryGetProtocolState = dbmodel.DBQuery{
		ID: "PSQ-02",
		Query: "SELECT PROTOCOL_NAME, SERIALIZED_REQUEST, CLIENT_ID, TENANT_ID, ENDPOINT_TYPE, PROPERTIES, " +
			"CREATED_AT, EXPIRY_TIME FROM PROTOCOL_STATE WHERE CORRELATION_ID = $1",
		SQLiteQuery: "SELECT PROTOCOL_NAME, SERIALIZED_REQUEST, CLIENT_ID, TENANT_ID, ENDPOINT_TYPE, PROPERTIES, " +
			"CREATED_AT, EXPIRY_TIME FROM PROTOCOL_STATE WHERE CORRELATION_ID = ?",
	}

	// queryUpdateProtocolState replaces the tracked request under its
	// correlation ID, leaving the expiry untouched.
	queryUpdateProtocolState = dbmodel.DBQuery{
		ID: "PSQ-04",
		Query: "UPDATE PROTOCOL_STATE SET PROTOCOL_NAME = $2, SERIALIZED_REQUEST = $3, CLIENT_ID = $4, " +
			"TENANT_ID = $5, ENDPOINT_TYPE = $6, PROPERTIES = $7 WHERE CORRELATION_ID = $1",
		SQLiteQuery: "UPDATE PROTOCOL_STATE SET PROTOCOL_NAME = ?2, SERIALIZED_REQUEST = ?3, CLIENT_ID = ?4, " +
			"TENANT_ID = ?5, ENDPOINT_TYPE = ?6, PROPERTIES = ?7 WHERE CORRELATION_ID = ?1",
	}

	// queryDeleteProtocolState removes an in-flight protocol request. The
	// affected-row count is the consume arbiter: first reader wins.
	queryDeleteProtocolState = dbmodel.DBQuery{
		ID:          "PSQ-03",
		Query:       "DELETE FROM PROTOCOL_STATE WHERE CORRELATION_ID = $1",
		SQLiteQuery: "DELETE FROM PROTOCOL_STATE WHERE CORRELATION_ID = ?",
	}
)
