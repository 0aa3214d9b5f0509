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

// Package managers assembles the component graph and registers the services.
package managers

import (
	"net/http"

	"github.com/asgardeo/tempest/internal/application"
	"github.com/asgardeo/tempest/internal/journey/engine"
	"github.com/asgardeo/tempest/internal/journey/executors"
	"github.com/asgardeo/tempest/internal/journey/registry"
	journeystore "github.com/asgardeo/tempest/internal/journey/store"
	"github.com/asgardeo/tempest/internal/oauth/claims"
	"github.com/asgardeo/tempest/internal/oauth/coordinator"
	"github.com/asgardeo/tempest/internal/oauth/grants"
	"github.com/asgardeo/tempest/internal/oauth/protocolstate"
	"github.com/asgardeo/tempest/internal/oauth/signing"
	"github.com/asgardeo/tempest/internal/oauth/token"
	"github.com/asgardeo/tempest/internal/services"
	"github.com/asgardeo/tempest/internal/session"
	"github.com/asgardeo/tempest/internal/system/config"
	"github.com/asgardeo/tempest/internal/system/database/provider"
	"github.com/asgardeo/tempest/internal/system/tasks"
	"github.com/asgardeo/tempest/internal/tenant"
	"github.com/asgardeo/tempest/internal/user"
)

// ServiceManagerInterface registers the HTTP services.
type ServiceManagerInterface interface {
	RegisterServices() error
	Shutdown()
}

// ServiceManager builds the component graph once and wires it into services.
type ServiceManager struct {
	mux        *http.ServeMux
	config     *config.Config
	taskRunner tasks.RunnerInterface
}

// NewServiceManager creates a new instance of ServiceManager.
func NewServiceManager(mux *http.ServeMux, cfg *config.Config) ServiceManagerInterface {
	return &ServiceManager{
		mux:    mux,
		config: cfg,
	}
}

// RegisterServices assembles the stores, registries, and engines, then
// registers the HTTP services over them.
func (sm *ServiceManager) RegisterServices() error {
	protocolStateStore, grantStore := sm.buildStores()

	userStore := user.NewInMemoryStore()
	sessionService := session.NewInMemoryService()
	tenantStore := tenant.NewInMemoryStore()
	appStore := application.NewInMemoryStore()
	policyStore := registry.NewInMemoryPolicyStore()

	journeyReg := registry.NewRegistry()
	if err := registerExecutors(journeyReg, userStore); err != nil {
		return err
	}
	journeyEngine := engine.NewEngine(journeyReg, journeystore.NewInMemoryStore())

	claimsAgg := claims.NewAggregator(claims.NewRegistry())

	coord := coordinator.NewCoordinator(protocolStateStore, journeyEngine, journeyReg,
		policyStore, tenantStore, appStore, claimsAgg, userStore, sessionService)

	sm.taskRunner = tasks.NewRunner(0)
	issuer := token.NewIssuer(signing.GetCredentialsProvider(), grantStore, appStore,
		tenantStore, token.WithTaskRunner(sm.taskRunner))

	services.NewOAuthService(sm.mux, coord, issuer, appStore, grantStore,
		sessionService, signing.GetCredentialsProvider())

	return nil
}

// Shutdown stops background workers owned by the manager.
func (sm *ServiceManager) Shutdown() {
	if sm.taskRunner != nil {
		sm.taskRunner.Shutdown()
	}
}

// buildStores picks database-backed stores when a runtime datasource is
// configured, falling back to in-memory stores otherwise.
func (sm *ServiceManager) buildStores() (protocolstate.StoreInterface, grants.StoreInterface) {
	if sm.config.Database.Runtime.Type == "" {
		return protocolstate.NewInMemoryStore(), grants.NewInMemoryStore()
	}

	dbProvider := provider.GetDBProvider()
	return protocolstate.NewCachedStore(protocolstate.NewDBStore(dbProvider)),
		grants.NewDBStore(dbProvider)
}

// registerExecutors registers the shipped journey step handlers. Handlers
// needing deployment-specific collaborators (external IdPs, OTP delivery) are
// registered by the deployment itself.
func registerExecutors(journeyReg *registry.Registry, userStore user.StoreInterface) error {
	if err := journeyReg.RegisterHandler(executors.NewPasswordAuthExecutor(userStore)); err != nil {
		return err
	}
	if err := journeyReg.RegisterHandler(executors.NewSignUpExecutor(userStore)); err != nil {
		return err
	}
	if err := journeyReg.RegisterHandler(executors.NewAttributeCollectExecutor()); err != nil {
		return err
	}
	return journeyReg.RegisterHandler(executors.NewConsentExecutor())
}
