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

package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"path"

	"github.com/asgardeo/tempest/internal/managers"
	"github.com/asgardeo/tempest/internal/oauth/signing"
	"github.com/asgardeo/tempest/internal/system/config"
	"github.com/asgardeo/tempest/internal/system/log"
)

func main() {
	logger := log.GetLogger()
	defer log.Sync()

	tempestHome := getTempestHome(logger)

	cfg := initTempestConfigurations(logger, tempestHome)

	mux := initMultiPlexer(logger, cfg)

	startServer(logger, cfg, mux, tempestHome)
}

// getTempestHome retrieves and returns the Tempest home directory.
func getTempestHome(logger *log.Logger) string {
	projectHomeFlag := flag.String("tempestHome", "", "Path to the Tempest home directory")
	flag.Parse()

	if *projectHomeFlag != "" {
		logger.Info("Using tempestHome from command line argument",
			log.String("tempestHome", *projectHomeFlag))
		return *projectHomeFlag
	}

	dir, err := os.Getwd()
	if err != nil {
		logger.Fatal("Failed to get current working directory", log.Error(err))
	}
	return dir
}

// initTempestConfigurations loads the configurations and the signing keys.
func initTempestConfigurations(logger *log.Logger, tempestHome string) *config.Config {
	configFilePath := path.Join(tempestHome, "repository/conf/deployment.yaml")
	cfg, err := config.LoadConfig(configFilePath)
	if err != nil {
		logger.Fatal("Failed to load configurations", log.Error(err))
	}

	if err := config.InitializeTempestRuntime(tempestHome, cfg); err != nil {
		logger.Fatal("Failed to initialize runtime configuration", log.Error(err))
	}

	// Missing signing credentials must stop the server before it serves a
	// single token request.
	if err := signing.GetCredentialsProvider().Init(); err != nil {
		logger.Fatal("Failed to load signing credentials", log.Error(err))
	}

	return cfg
}

// initMultiPlexer initializes the HTTP multiplexer and registers the services.
func initMultiPlexer(logger *log.Logger, cfg *config.Config) *http.ServeMux {
	mux := http.NewServeMux()
	serviceManager := managers.NewServiceManager(mux, cfg)

	if err := serviceManager.RegisterServices(); err != nil {
		logger.Fatal("Failed to register the services", log.Error(err))
	}

	return mux
}

// startServer starts the HTTP server with the given configurations and multiplexer.
func startServer(logger *log.Logger, cfg *config.Config, mux *http.ServeMux, tempestHome string) {
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Hostname, cfg.Server.Port)
	server := &http.Server{
		Addr:    serverAddr,
		Handler: mux,
	}

	logger.Info("Starting Tempest...", log.String("address", serverAddr))

	if cfg.Security.CertFile != "" && cfg.Security.KeyFile != "" {
		certFile := path.Join(tempestHome, cfg.Security.CertFile)
		keyFile := path.Join(tempestHome, cfg.Security.KeyFile)
		if err := server.ListenAndServeTLS(certFile, keyFile); err != nil {
			logger.Fatal("Server failed to start", log.Error(err))
		}
		return
	}

	if err := server.ListenAndServe(); err != nil {
		logger.Fatal("Server failed to start", log.Error(err))
	}
}
