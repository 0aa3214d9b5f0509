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

// Package provider provides functionality for managing database connections and clients.
package provider

import (
	"database/sql"
	"errors"
	"fmt"
	"path"
	"sync"

	"github.com/asgardeo/tempest/internal/system/config"
	"github.com/asgardeo/tempest/internal/system/database/client"
)

const (
	dataSourceTypePostgres = "postgres"
	dataSourceTypeSQLite   = "sqlite"
)

// DBProviderInterface defines the interface for getting database clients.
type DBProviderInterface interface {
	GetDBClient(dbName string) (client.DBClientInterface, error)
}

// DBProvider is the implementation of DBProviderInterface.
type DBProvider struct {
	identityClient client.DBClientInterface
	runtimeClient  client.DBClientInterface
	mu             sync.RWMutex
}

var (
	instance *DBProvider
	once     sync.Once
)

// GetDBProvider returns the singleton instance of DBProvider.
func GetDBProvider() DBProviderInterface {
	once.Do(func() {
		instance = &DBProvider{}
	})
	return instance
}

// GetDBClient returns a database client based on the provided database name.
// The returned client manages its own connection pool and need not be closed by the caller.
func (d *DBProvider) GetDBClient(dbName string) (client.DBClientInterface, error) {
	d.mu.RLock()
	switch dbName {
	case "identity":
		if d.identityClient != nil {
			defer d.mu.RUnlock()
			return d.identityClient, nil
		}
	case "runtime":
		if d.runtimeClient != nil {
			defer d.mu.RUnlock()
			return d.runtimeClient, nil
		}
	default:
		d.mu.RUnlock()
		return nil, fmt.Errorf("unknown database name: %s", dbName)
	}
	d.mu.RUnlock()

	d.mu.Lock()
	defer d.mu.Unlock()

	var dataSource config.DataSource
	if dbName == "identity" {
		dataSource = config.GetTempestRuntime().Config.Database.Identity
	} else {
		dataSource = config.GetTempestRuntime().Config.Database.Runtime
	}

	dbClient, err := newDBClient(dataSource)
	if err != nil {
		return nil, err
	}

	if dbName == "identity" {
		d.identityClient = dbClient
	} else {
		d.runtimeClient = dbClient
	}
	return dbClient, nil
}

// newDBClient opens a database connection for the given datasource configuration.
func newDBClient(dataSource config.DataSource) (client.DBClientInterface, error) {
	switch dataSource.Type {
	case dataSourceTypePostgres:
		dsn := fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
			dataSource.Hostname, dataSource.Port, dataSource.Name,
			dataSource.Username, dataSource.Password, dataSource.SSLMode)
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, err
		}
		return client.NewDBClient(db, dataSourceTypePostgres), nil
	case dataSourceTypeSQLite:
		dbPath := path.Join(config.GetTempestRuntime().TempestHome, dataSource.Path)
		dsn := dbPath
		if dataSource.Options != "" {
			dsn = dsn + "?" + dataSource.Options
		}
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, err
		}
		return client.NewDBClient(db, dataSourceTypeSQLite), nil
	default:
		return nil, errors.New("unsupported datasource type: " + dataSource.Type)
	}
}
