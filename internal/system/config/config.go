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

// Package config provides functionality for loading and managing server configurations.
package config

import (
	"os"
	"path/filepath"

	yaml "gopkg.in/yaml.v3"
)

// ServerConfig holds the server configuration details.
type ServerConfig struct {
	Hostname string `yaml:"hostname"`
	Port     int    `yaml:"port"`
}

// SecurityConfig holds the security configuration details.
type SecurityConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// AccessTokenConfig holds the access token configuration details.
type AccessTokenConfig struct {
	ValidityPeriod int64 `yaml:"validity_period"`
}

// IDTokenConfig holds the ID token configuration details.
type IDTokenConfig struct {
	ValidityPeriod int64 `yaml:"validity_period"`
}

// RefreshTokenConfig holds the refresh token configuration details.
type RefreshTokenConfig struct {
	ValidityPeriod        int64 `yaml:"validity_period"`
	SlidingValidityPeriod int64 `yaml:"sliding_validity_period"`
}

// ProtocolStateConfig holds the in-flight protocol request state configuration details.
type ProtocolStateConfig struct {
	ValidityPeriod int64 `yaml:"validity_period"`
}

// OAuthConfig holds the OAuth related configuration details.
type OAuthConfig struct {
	Issuer        string              `yaml:"issuer"`
	AccessToken   AccessTokenConfig   `yaml:"access_token"`
	IDToken       IDTokenConfig       `yaml:"id_token"`
	RefreshToken  RefreshTokenConfig  `yaml:"refresh_token"`
	ProtocolState ProtocolStateConfig `yaml:"protocol_state"`
}

// CacheConfig holds the cache configuration details.
type CacheConfig struct {
	Disabled bool  `yaml:"disabled"`
	Size     int   `yaml:"size"`
	TTL      int64 `yaml:"ttl"`
}

// DataSource holds the individual database connection details.
type DataSource struct {
	Type     string `yaml:"type"`
	Hostname string `yaml:"hostname"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	Path     string `yaml:"path"`
	Options  string `yaml:"options"`
}

// DatabaseConfig holds the database configuration details.
type DatabaseConfig struct {
	Identity DataSource `yaml:"identity"`
	Runtime  DataSource `yaml:"runtime"`
}

// Config holds the complete server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Security SecurityConfig `yaml:"security"`
	OAuth    OAuthConfig    `yaml:"oauth"`
	Cache    CacheConfig    `yaml:"cache"`
	Database DatabaseConfig `yaml:"database"`
}

// LoadConfig loads the server configuration from the given yaml file.
func LoadConfig(configPath string) (*Config, error) {
	cleanedPath := filepath.Clean(configPath)
	data, err := os.ReadFile(cleanedPath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
