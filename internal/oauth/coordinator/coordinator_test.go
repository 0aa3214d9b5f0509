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

package coordinator

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/asgardeo/tempest/internal/application"
	journeyconst "github.com/asgardeo/tempest/internal/journey/constants"
	"github.com/asgardeo/tempest/internal/journey/engine"
	"github.com/asgardeo/tempest/internal/journey/executors"
	journeymodel "github.com/asgardeo/tempest/internal/journey/model"
	"github.com/asgardeo/tempest/internal/journey/registry"
	journeystore "github.com/asgardeo/tempest/internal/journey/store"
	"github.com/asgardeo/tempest/internal/oauth/claims"
	"github.com/asgardeo/tempest/internal/oauth/oauth2/constants"
	"github.com/asgardeo/tempest/internal/oauth/protocolstate"
	"github.com/asgardeo/tempest/internal/tenant"
)

// scriptedHandler delegates each invocation to a settable function, so tests
// can decide per case whether the step authenticates, pauses, or fails.
type scriptedHandler struct {
	stepType string
	execute  func(stepCtx *journeymodel.StepExecutionContext) (journeymodel.StepOutcome, error)
}

func (h *scriptedHandler) StepType() string { return h.stepType }

func (h *scriptedHandler) Execute(_ context.Context,
	stepCtx *journeymodel.StepExecutionContext) (journeymodel.StepOutcome, error) {
	return h.execute(stepCtx)
}

type stubUserStore struct {
	users map[string]bool
}

func (s *stubUserStore) UserExists(_ context.Context, _, userID string) (bool, error) {
	return s.users[userID], nil
}

type stubSessionService struct {
	signedOut []string
}

func (s *stubSessionService) SignOut(_ context.Context, sessionID string) error {
	s.signedOut = append(s.signedOut, sessionID)
	return nil
}

type CoordinatorTestSuite struct {
	suite.Suite
	stateStore     protocolstate.StoreInterface
	journeyReg     *registry.Registry
	journeyEngine  engine.EngineInterface
	policyStore    *registry.InMemoryPolicyStore
	tenantStore    *tenant.InMemoryStore
	appStore       *application.InMemoryStore
	userStore      *stubUserStore
	sessionService *stubSessionService
	coordinator    *Coordinator

	authStep func(stepCtx *journeymodel.StepExecutionContext) (journeymodel.StepOutcome, error)
}

func TestCoordinatorSuite(t *testing.T) {
	suite.Run(t, new(CoordinatorTestSuite))
}

func (suite *CoordinatorTestSuite) SetupTest() {
	suite.stateStore = protocolstate.NewInMemoryStore()
	suite.journeyReg = registry.NewRegistry()
	suite.policyStore = registry.NewInMemoryPolicyStore()
	suite.tenantStore = tenant.NewInMemoryStore()
	suite.appStore = application.NewInMemoryStore()
	suite.userStore = &stubUserStore{users: map[string]bool{"user1": true}}
	suite.sessionService = &stubSessionService{}

	// Default: the single journey step authenticates user1 outright.
	suite.authStep = func(_ *journeymodel.StepExecutionContext) (journeymodel.StepOutcome, error) {
		outcome := journeymodel.CompleteOutcome(map[string]string{
			journeyconst.DataAuthenticatedAt: "1756600000",
			journeyconst.DataAuthMethod:      "password",
		})
		outcome.AuthenticatedUserID = "user1"
		return outcome, nil
	}
	suite.Require().NoError(suite.journeyReg.RegisterHandler(&scriptedHandler{
		stepType: "authStep",
		execute: func(stepCtx *journeymodel.StepExecutionContext) (journeymodel.StepOutcome, error) {
			return suite.authStep(stepCtx)
		},
	}))
	suite.Require().NoError(suite.journeyReg.RegisterDefinition(journeymodel.JourneyDefinition{
		ID:           "signin-def",
		Type:         journeyconst.JourneyTypeSignIn,
		UIEntryPoint: "/flow/login",
		Steps: []journeymodel.StepConfig{
			{ID: "auth", Type: "authStep"},
		},
	}))

	suite.policyStore.Add(registry.Policy{
		ID:           "pol-signin",
		TenantID:     "t1",
		Type:         journeyconst.JourneyTypeSignIn,
		DefinitionID: "signin-def",
	})
	suite.tenantStore.Add(tenant.Tenant{ID: "t1", Domain: "t1.example.com", SignInPolicyID: "pol-signin"})
	suite.appStore.AddApplication(application.OAuthApplication{ClientID: "client1", TenantID: "t1"})
	suite.appStore.AddApplication(application.OAuthApplication{
		ClientID:       "client2",
		TenantID:       "t1",
		RequireConsent: true,
	})

	suite.journeyEngine = engine.NewEngine(suite.journeyReg, journeystore.NewInMemoryStore())
	suite.coordinator = NewCoordinator(suite.stateStore, suite.journeyEngine, suite.journeyReg,
		suite.policyStore, suite.tenantStore, suite.appStore,
		claims.NewAggregator(claims.NewRegistry()), suite.userStore, suite.sessionService)
}

func (suite *CoordinatorTestSuite) authorizeRequest(clientID string) AuthorizeRequest {
	return AuthorizeRequest{
		Protocol:          constants.ProtocolOIDC,
		SerializedRequest: "response_type=code&client_id=" + clientID,
		ClientID:          clientID,
		TenantID:          "t1",
		EndpointType:      constants.EndpointTypeAuthorize,
		Requirement: AuthenticationRequirement{
			RequestedScopes:     []string{"openid", "profile"},
			SuggestedPolicyType: journeyconst.JourneyTypeSignIn,
		},
	}
}

// runJourney drives the bound journey to its terminal state.
func (suite *CoordinatorTestSuite) runJourney(journeyID string) {
	result, err := suite.journeyEngine.ExecuteStep(context.Background(), journeyID, nil)
	suite.Require().NoError(err)
	suite.Require().NotEqual(journeyconst.JourneyStatusRunning, result.Status)
}

func (suite *CoordinatorTestSuite) TestJourneyModeRedirectsToEntryPoint() {
	result := suite.coordinator.Authorize(context.Background(), suite.authorizeRequest("client1"))

	suite.Equal(ResultRedirect, result.Type)
	suite.NotEmpty(result.CorrelationID)
	suite.NotEmpty(result.JourneyID)
	suite.True(strings.HasPrefix(result.RedirectURL, "/flow/login?"))
	suite.Contains(result.RedirectURL, "journey_id=")
	suite.Contains(result.RedirectURL, "correlation_id=")

	state, err := suite.stateStore.Get(context.Background(), result.CorrelationID)
	suite.Require().NoError(err)
	suite.Equal(result.JourneyID, state.GetProperty("journey_id"))
}

func (suite *CoordinatorTestSuite) TestCallbackMintsGrantOnce() {
	ctx := context.Background()
	result := suite.coordinator.Authorize(ctx, suite.authorizeRequest("client1"))
	suite.Require().Equal(ResultRedirect, result.Type)
	suite.runJourney(result.JourneyID)

	grant, errResp := suite.coordinator.HandleCallback(ctx, result.CorrelationID, nil)
	suite.Require().Nil(errResp)
	suite.Equal("user1", grant.SubjectID)
	suite.Equal([]string{"openid", "profile"}, grant.Scopes)
	suite.Equal("client1", grant.ClientID)
	suite.Equal("t1", grant.TenantID)
	suite.Equal(int64(1756600000), grant.AuthTime.Unix())
	suite.Equal([]string{"password"}, grant.AuthMethods)

	// The correlation ID is single-use: the second callback must fail.
	_, errResp = suite.coordinator.HandleCallback(ctx, result.CorrelationID, nil)
	suite.Require().NotNil(errResp)
	suite.Equal(constants.ErrorInvalidRequest, errResp.Error)
}

func (suite *CoordinatorTestSuite) TestIncompleteJourneyDeniesAccess() {
	ctx := context.Background()
	result := suite.coordinator.Authorize(ctx, suite.authorizeRequest("client1"))
	suite.Require().Equal(ResultRedirect, result.Type)

	// Callback fired without the journey ever completing.
	_, errResp := suite.coordinator.HandleCallback(ctx, result.CorrelationID, nil)
	suite.Require().NotNil(errResp)
	suite.Equal(constants.ErrorAccessDenied, errResp.Error)

	// The failed attempt burned the correlation ID.
	_, errResp = suite.coordinator.HandleCallback(ctx, result.CorrelationID, nil)
	suite.Require().NotNil(errResp)
	suite.Equal(constants.ErrorInvalidRequest, errResp.Error)
}

func (suite *CoordinatorTestSuite) TestStaleAuthenticatedUserDeniesAccess() {
	ctx := context.Background()
	result := suite.coordinator.Authorize(ctx, suite.authorizeRequest("client1"))
	suite.runJourney(result.JourneyID)

	delete(suite.userStore.users, "user1")

	_, errResp := suite.coordinator.HandleCallback(ctx, result.CorrelationID, nil)
	suite.Require().NotNil(errResp)
	suite.Equal(constants.ErrorAccessDenied, errResp.Error)
}

func (suite *CoordinatorTestSuite) TestActiveSessionSkipsLogin() {
	ctx := context.Background()
	req := suite.authorizeRequest("client1")
	req.Session = &Session{
		UserID:    "user1",
		SessionID: "sess1",
		AuthTime:  time.Now().Add(-time.Minute),
	}

	result := suite.coordinator.Authorize(ctx, req)
	suite.Require().Equal(ResultRedirect, result.Type)
	suite.Empty(result.JourneyID)
	suite.True(strings.HasPrefix(result.RedirectURL, "/oauth2/authorize/callback?"))
	suite.Empty(suite.sessionService.signedOut)

	grant, errResp := suite.coordinator.HandleCallback(ctx, result.CorrelationID, req.Session)
	suite.Require().Nil(errResp)
	suite.Equal("user1", grant.SubjectID)
	suite.Equal("sess1", grant.SessionID)
}

func (suite *CoordinatorTestSuite) TestPromptLoginForcesFreshAuthentication() {
	req := suite.authorizeRequest("client1")
	req.Session = &Session{UserID: "user1", SessionID: "sess1", AuthTime: time.Now()}
	req.Requirement.Prompt = PromptLogin

	result := suite.coordinator.Authorize(context.Background(), req)
	suite.Require().Equal(ResultRedirect, result.Type)
	suite.NotEmpty(result.JourneyID)
	suite.Equal([]string{"sess1"}, suite.sessionService.signedOut)
}

func (suite *CoordinatorTestSuite) TestMaxAgeExceededForcesFreshAuthentication() {
	req := suite.authorizeRequest("client1")
	req.Session = &Session{
		UserID:    "user1",
		SessionID: "sess1",
		AuthTime:  time.Now().Add(-2 * time.Hour),
	}
	req.Requirement.MaxAgeSeconds = 600

	result := suite.coordinator.Authorize(context.Background(), req)
	suite.Require().Equal(ResultRedirect, result.Type)
	suite.NotEmpty(result.JourneyID)
	suite.Equal([]string{"sess1"}, suite.sessionService.signedOut)
}

func (suite *CoordinatorTestSuite) TestStaleSessionUserSignedOutNotErrored() {
	req := suite.authorizeRequest("client1")
	req.Session = &Session{UserID: "ghost", SessionID: "sess-ghost", AuthTime: time.Now()}

	result := suite.coordinator.Authorize(context.Background(), req)
	suite.Require().Equal(ResultRedirect, result.Type)
	suite.NotEmpty(result.JourneyID)
	suite.Equal([]string{"sess-ghost"}, suite.sessionService.signedOut)
}

func (suite *CoordinatorTestSuite) TestResolveUIModeChain() {
	journeysOff := false
	testCases := []struct {
		name      string
		tenant    tenant.Tenant
		app       application.OAuthApplication
		requested UIMode
		expected  UIMode
	}{
		{
			name:      "tenant disable wins over request",
			tenant:    tenant.Tenant{JourneysDisabled: true},
			requested: UIModeJourney,
			expected:  UIModeStandalone,
		},
		{
			name:      "client disable wins over request",
			app:       application.OAuthApplication{JourneysEnabled: &journeysOff},
			requested: UIModeHeadless,
			expected:  UIModeStandalone,
		},
		{
			name:      "request honored when allowed",
			requested: UIModeHeadless,
			expected:  UIModeHeadless,
		},
		{
			name:     "default is journey",
			expected: UIModeJourney,
		},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			suite.Equal(tc.expected, suite.coordinator.ResolveUIMode(tc.tenant, tc.app, tc.requested))
		})
	}
}

func (suite *CoordinatorTestSuite) TestResolvePolicyChain() {
	ctx := context.Background()
	suite.policyStore.Add(registry.Policy{ID: "pol-explicit", TenantID: "t1", DefinitionID: "signin-def"})
	suite.policyStore.Add(registry.Policy{ID: "pol-context", TenantID: "t1", DefinitionID: "signin-def"})
	resolvedTenant, err := suite.tenantStore.GetTenant(ctx, "t1")
	suite.Require().NoError(err)

	policy, err := suite.coordinator.ResolvePolicy(ctx, AuthenticationRequirement{
		ExplicitPolicyID: "pol-explicit",
		ContextPolicyID:  "pol-context",
	}, resolvedTenant)
	suite.Require().NoError(err)
	suite.Equal("pol-explicit", policy.ID)

	policy, err = suite.coordinator.ResolvePolicy(ctx, AuthenticationRequirement{
		ContextPolicyID: "pol-context",
	}, resolvedTenant)
	suite.Require().NoError(err)
	suite.Equal("pol-context", policy.ID)

	policy, err = suite.coordinator.ResolvePolicy(ctx, AuthenticationRequirement{
		SuggestedPolicyType: journeyconst.JourneyTypeSignIn,
	}, resolvedTenant)
	suite.Require().NoError(err)
	suite.Equal("pol-signin", policy.ID)

	policy, err = suite.coordinator.ResolvePolicy(ctx, AuthenticationRequirement{}, resolvedTenant)
	suite.Require().NoError(err)
	suite.Equal("pol-signin", policy.ID)

	_, err = suite.coordinator.ResolvePolicy(ctx, AuthenticationRequirement{}, tenant.Tenant{ID: "bare"})
	suite.Error(err)
}

func (suite *CoordinatorTestSuite) TestNoResolvablePolicyIsFatal() {
	suite.tenantStore.Add(tenant.Tenant{ID: "t2", Domain: "t2.example.com"})
	req := suite.authorizeRequest("client1")
	req.TenantID = "t2"

	result := suite.coordinator.Authorize(context.Background(), req)
	suite.Require().Equal(ResultError, result.Type)
	suite.Equal(http.StatusInternalServerError, result.StatusCode)
	suite.Equal(constants.ErrorServerError, result.Error.Error)
}

func (suite *CoordinatorTestSuite) TestHeadlessModeReturnsChallenge() {
	req := suite.authorizeRequest("client1")
	req.Requirement.RequestedUIMode = UIModeHeadless

	result := suite.coordinator.Authorize(context.Background(), req)
	suite.Require().Equal(ResultChallenge, result.Type)
	suite.Equal(http.StatusUnauthorized, result.StatusCode)
	suite.Require().NotNil(result.AuthRequirements)
	suite.Equal("pol-signin", result.AuthRequirements.PolicyID)
	suite.Equal("signin-def", result.AuthRequirements.DefinitionID)
	suite.Equal(result.CorrelationID, result.AuthRequirements.CorrelationID)
}

func (suite *CoordinatorTestSuite) TestStandaloneModeRedirectsToLoginPage() {
	req := suite.authorizeRequest("client1")
	req.Requirement.RequestedUIMode = UIModeStandalone
	req.Requirement.RequirementType = RequirementTypeLogin

	result := suite.coordinator.Authorize(context.Background(), req)
	suite.Require().Equal(ResultRedirect, result.Type)
	suite.True(strings.HasPrefix(result.RedirectURL, "/login?return_url="))
}

func (suite *CoordinatorTestSuite) TestUnknownClientRejected() {
	req := suite.authorizeRequest("nope")

	result := suite.coordinator.Authorize(context.Background(), req)
	suite.Require().Equal(ResultError, result.Type)
	suite.Equal(constants.ErrorInvalidClient, result.Error.Error)
}

func (suite *CoordinatorTestSuite) TestConsentRequiredLeavesStateReusable() {
	ctx := context.Background()
	result := suite.coordinator.Authorize(ctx, suite.authorizeRequest("client2"))
	suite.runJourney(result.JourneyID)

	_, errResp := suite.coordinator.HandleCallback(ctx, result.CorrelationID, nil)
	suite.Require().NotNil(errResp)
	suite.Equal(constants.ErrorConsentRequired, errResp.Error)

	// consent_required must not burn the correlation ID: the consent
	// round-trip re-enters with the same value.
	consentResult := suite.coordinator.RequestConsent(ctx, result.CorrelationID)
	suite.Require().Equal(ResultRedirect, consentResult.Type)
	suite.True(strings.HasPrefix(consentResult.RedirectURL, "/consent?return_url="))
}

func (suite *CoordinatorTestSuite) TestConsentGrantedInJourneyCompletesGrant() {
	suite.authStep = func(_ *journeymodel.StepExecutionContext) (journeymodel.StepOutcome, error) {
		outcome := journeymodel.CompleteOutcome(map[string]string{
			journeyconst.DataAuthenticatedAt: "1756600000",
			journeyconst.DataAuthMethod:      "password",
			executors.DataConsentedScopes:    "openid profile",
		})
		outcome.AuthenticatedUserID = "user1"
		return outcome, nil
	}

	ctx := context.Background()
	result := suite.coordinator.Authorize(ctx, suite.authorizeRequest("client2"))
	suite.runJourney(result.JourneyID)

	grant, errResp := suite.coordinator.HandleCallback(ctx, result.CorrelationID, nil)
	suite.Require().Nil(errResp)
	suite.Equal("user1", grant.SubjectID)
}

func (suite *CoordinatorTestSuite) TestPartialConsentIsInsufficient() {
	suite.authStep = func(_ *journeymodel.StepExecutionContext) (journeymodel.StepOutcome, error) {
		outcome := journeymodel.CompleteOutcome(map[string]string{
			journeyconst.DataAuthenticatedAt: "1756600000",
			executors.DataConsentedScopes:    "openid",
		})
		outcome.AuthenticatedUserID = "user1"
		return outcome, nil
	}

	ctx := context.Background()
	result := suite.coordinator.Authorize(ctx, suite.authorizeRequest("client2"))
	suite.runJourney(result.JourneyID)

	_, errResp := suite.coordinator.HandleCallback(ctx, result.CorrelationID, nil)
	suite.Require().NotNil(errResp)
	suite.Equal(constants.ErrorConsentRequired, errResp.Error)
}

func (suite *CoordinatorTestSuite) TestHeadlessConsentChallenge() {
	ctx := context.Background()
	req := suite.authorizeRequest("client2")
	req.Requirement.RequestedUIMode = UIModeHeadless

	result := suite.coordinator.Authorize(ctx, req)
	suite.Require().Equal(ResultChallenge, result.Type)

	consentResult := suite.coordinator.RequestConsent(ctx, result.CorrelationID)
	suite.Require().Equal(ResultChallenge, consentResult.Type)
	suite.Equal(http.StatusForbidden, consentResult.StatusCode)
	suite.Require().NotNil(consentResult.ConsentRequirements)
	suite.Equal([]string{"openid", "profile"}, consentResult.ConsentRequirements.RequestedScopes)
}

func (suite *CoordinatorTestSuite) TestPromptNoneWithoutSessionReturnsLoginRequired() {
	req := suite.authorizeRequest("client1")
	req.Requirement.Prompt = PromptNone

	result := suite.coordinator.Authorize(context.Background(), req)
	suite.Require().Equal(ResultError, result.Type)
	suite.Equal(http.StatusBadRequest, result.StatusCode)
	suite.Equal(constants.ErrorLoginRequired, result.Error.Error)
}

func (suite *CoordinatorTestSuite) TestPromptNoneWithActiveSessionSkipsLogin() {
	req := suite.authorizeRequest("client1")
	req.Requirement.Prompt = PromptNone
	req.Session = &Session{UserID: "user1", SessionID: "sess1", AuthTime: time.Now()}

	result := suite.coordinator.Authorize(context.Background(), req)
	suite.Require().Equal(ResultRedirect, result.Type)
	suite.True(strings.HasPrefix(result.RedirectURL, "/oauth2/authorize/callback?"))
}

func (suite *CoordinatorTestSuite) TestMissingChallengeRejectedWhenClientRequiresPKCE() {
	suite.appStore.AddApplication(application.OAuthApplication{
		ClientID:     "client-pkce",
		TenantID:     "t1",
		PKCERequired: true,
	})
	req := suite.authorizeRequest("client-pkce")

	result := suite.coordinator.Authorize(context.Background(), req)
	suite.Require().Equal(ResultError, result.Type)
	suite.Equal(constants.ErrorInvalidRequest, result.Error.Error)
}

func (suite *CoordinatorTestSuite) TestChallengeBoundToGrant() {
	ctx := context.Background()
	req := suite.authorizeRequest("client1")
	req.CodeChallenge = "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"
	req.CodeChallengeMethod = "S256"

	result := suite.coordinator.Authorize(ctx, req)
	suite.Require().Equal(ResultRedirect, result.Type)

	state, err := suite.stateStore.Get(ctx, result.CorrelationID)
	suite.Require().NoError(err)
	suite.Equal(req.CodeChallenge, state.GetProperty("code_challenge"))
	suite.Equal("S256", state.GetProperty("code_challenge_method"))

	suite.runJourney(result.JourneyID)
	grant, errResp := suite.coordinator.HandleCallback(ctx, result.CorrelationID, nil)
	suite.Require().Nil(errResp)
	suite.Equal(req.CodeChallenge, grant.CustomData["code_challenge"])
	suite.Equal("S256", grant.CustomData["code_challenge_method"])
}

func (suite *CoordinatorTestSuite) TestJourneyAttributesSurfaceAsClaims() {
	suite.authStep = func(_ *journeymodel.StepExecutionContext) (journeymodel.StepOutcome, error) {
		outcome := journeymodel.CompleteOutcome(map[string]string{
			journeyconst.DataAuthenticatedAt: "1756600000",
			journeyconst.DataAuthMethod:      "password",
			"email":                          "user1@example.com",
		})
		outcome.AuthenticatedUserID = "user1"
		return outcome, nil
	}

	ctx := context.Background()
	result := suite.coordinator.Authorize(ctx, suite.authorizeRequest("client1"))
	suite.runJourney(result.JourneyID)

	grant, errResp := suite.coordinator.HandleCallback(ctx, result.CorrelationID, nil)
	suite.Require().Nil(errResp)
	suite.Equal("user1@example.com", grant.Claims["email"])

	// Engine bookkeeping never surfaces as a claim.
	suite.NotContains(grant.Claims, journeyconst.DataAuthenticatedAt)
	suite.NotContains(grant.Claims, journeyconst.DataAuthMethod)
}

func (suite *CoordinatorTestSuite) TestStandaloneConsentRoundTrip() {
	ctx := context.Background()
	result := suite.coordinator.Authorize(ctx, suite.authorizeRequest("client2"))
	suite.runJourney(result.JourneyID)

	_, errResp := suite.coordinator.HandleCallback(ctx, result.CorrelationID, nil)
	suite.Require().NotNil(errResp)
	suite.Equal(constants.ErrorConsentRequired, errResp.Error)

	// The hosted consent page reports the approval, then the callback
	// re-enters with the same correlation ID and passes the consent check.
	errResp = suite.coordinator.GrantConsent(ctx, result.CorrelationID, []string{"openid", "profile"})
	suite.Require().Nil(errResp)

	grant, errResp := suite.coordinator.HandleCallback(ctx, result.CorrelationID, nil)
	suite.Require().Nil(errResp)
	suite.Equal("user1", grant.SubjectID)

	errResp = suite.coordinator.GrantConsent(ctx, result.CorrelationID, []string{"openid"})
	suite.Require().NotNil(errResp)
	suite.Equal(constants.ErrorInvalidRequest, errResp.Error)
}

func (suite *CoordinatorTestSuite) TestConsentJourneyDispatch() {
	suite.Require().NoError(suite.journeyReg.RegisterDefinition(journeymodel.JourneyDefinition{
		ID:           "consent-def",
		Type:         journeyconst.JourneyTypeConsent,
		UIEntryPoint: "/flow/consent",
		Steps: []journeymodel.StepConfig{
			{ID: "collect", Type: "authStep"},
		},
	}))
	suite.policyStore.Add(registry.Policy{
		ID:           "pol-consent",
		TenantID:     "t1",
		Type:         journeyconst.JourneyTypeConsent,
		DefinitionID: "consent-def",
	})
	suite.tenantStore.Add(tenant.Tenant{
		ID:              "t1",
		Domain:          "t1.example.com",
		SignInPolicyID:  "pol-signin",
		ConsentPolicyID: "pol-consent",
	})

	ctx := context.Background()
	result := suite.coordinator.Authorize(ctx, suite.authorizeRequest("client2"))
	suite.Require().Equal(ResultRedirect, result.Type)

	consentResult := suite.coordinator.RequestConsent(ctx, result.CorrelationID)
	suite.Require().Equal(ResultRedirect, consentResult.Type)
	suite.NotEmpty(consentResult.JourneyID)
	suite.True(strings.HasPrefix(consentResult.RedirectURL, "/flow/consent?"))

	state, err := suite.stateStore.Get(ctx, result.CorrelationID)
	suite.Require().NoError(err)
	suite.Equal(consentResult.JourneyID, state.GetProperty("consent_journey_id"))
}
