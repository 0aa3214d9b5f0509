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

package services

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/suite"

	"github.com/asgardeo/tempest/internal/application"
	journeyconst "github.com/asgardeo/tempest/internal/journey/constants"
	"github.com/asgardeo/tempest/internal/journey/engine"
	journeymodel "github.com/asgardeo/tempest/internal/journey/model"
	"github.com/asgardeo/tempest/internal/journey/registry"
	journeystore "github.com/asgardeo/tempest/internal/journey/store"
	"github.com/asgardeo/tempest/internal/oauth/claims"
	"github.com/asgardeo/tempest/internal/oauth/coordinator"
	"github.com/asgardeo/tempest/internal/oauth/grants"
	"github.com/asgardeo/tempest/internal/oauth/oauth2/model"
	"github.com/asgardeo/tempest/internal/oauth/protocolstate"
	"github.com/asgardeo/tempest/internal/oauth/signing"
	"github.com/asgardeo/tempest/internal/oauth/token"
	"github.com/asgardeo/tempest/internal/session"
	"github.com/asgardeo/tempest/internal/system/config"
	"github.com/asgardeo/tempest/internal/tenant"
)

// RFC 7636 Appendix B verifier/challenge pair.
const (
	testCodeVerifier  = "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	testCodeChallenge = "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"
)

type passwordStepHandler struct{}

func (h *passwordStepHandler) StepType() string { return "passwordStep" }

func (h *passwordStepHandler) Execute(_ context.Context,
	_ *journeymodel.StepExecutionContext) (journeymodel.StepOutcome, error) {
	outcome := journeymodel.CompleteOutcome(map[string]string{
		journeyconst.DataAuthenticatedAt: "1756600000",
		journeyconst.DataAuthMethod:      "password",
	})
	outcome.AuthenticatedUserID = "user1"
	return outcome, nil
}

type fixedUserStore struct{}

func (s *fixedUserStore) UserExists(_ context.Context, _, userID string) (bool, error) {
	return userID == "user1", nil
}

type fixedCredentialsProvider struct {
	credentials signing.Credentials
}

func (p *fixedCredentialsProvider) Init() error { return nil }

func (p *fixedCredentialsProvider) GetCredentials() (signing.Credentials, error) {
	return p.credentials, nil
}

func (p *fixedCredentialsProvider) GetPublicJWKS() (jwk.Set, error) {
	set := jwk.NewSet()
	if err := set.AddKey(p.credentials.PublicKey); err != nil {
		return nil, err
	}
	return set, nil
}

type OAuthServiceTestSuite struct {
	suite.Suite
	mux           *http.ServeMux
	journeyEngine engine.EngineInterface
	credentials   signing.Credentials
}

func TestOAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(OAuthServiceTestSuite))
}

func (suite *OAuthServiceTestSuite) SetupTest() {
	config.ResetTempestRuntime()
	err := config.InitializeTempestRuntime(suite.T().TempDir(), &config.Config{
		OAuth: config.OAuthConfig{
			Issuer:      "https://auth.example.com",
			AccessToken: config.AccessTokenConfig{ValidityPeriod: 3600},
			IDToken:     config.IDTokenConfig{ValidityPeriod: 300},
		},
	})
	suite.Require().NoError(err)

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	suite.Require().NoError(err)
	key, err := jwk.FromRaw(privateKey)
	suite.Require().NoError(err)
	suite.Require().NoError(key.Set(jwk.KeyIDKey, "test-key"))
	publicKey, err := key.PublicKey()
	suite.Require().NoError(err)
	suite.credentials = signing.Credentials{
		Key:       key,
		PublicKey: publicKey,
		Algorithm: jwa.RS256,
		KeyID:     "test-key",
	}

	journeyReg := registry.NewRegistry()
	suite.Require().NoError(journeyReg.RegisterHandler(&passwordStepHandler{}))
	suite.Require().NoError(journeyReg.RegisterDefinition(journeymodel.JourneyDefinition{
		ID:           "signin-def",
		Type:         journeyconst.JourneyTypeSignIn,
		UIEntryPoint: "/flow/login",
		Steps: []journeymodel.StepConfig{
			{ID: "auth", Type: "passwordStep"},
		},
	}))
	policyStore := registry.NewInMemoryPolicyStore()
	policyStore.Add(registry.Policy{
		ID:           "pol-signin",
		TenantID:     "t1",
		Type:         journeyconst.JourneyTypeSignIn,
		DefinitionID: "signin-def",
	})

	tenantStore := tenant.NewInMemoryStore()
	tenantStore.Add(tenant.Tenant{ID: "t1", Domain: "t1.example.com", SignInPolicyID: "pol-signin"})
	appStore := application.NewInMemoryStore()
	appStore.AddApplication(application.OAuthApplication{
		ClientID:     "client1",
		TenantID:     "t1",
		PKCERequired: true,
	})

	stateStore := protocolstate.NewInMemoryStore()
	grantStore := grants.NewInMemoryStore()
	sessionService := session.NewInMemoryService()
	suite.journeyEngine = engine.NewEngine(journeyReg, journeystore.NewInMemoryStore())

	coord := coordinator.NewCoordinator(stateStore, suite.journeyEngine, journeyReg,
		policyStore, tenantStore, appStore,
		claims.NewAggregator(claims.NewRegistry()), &fixedUserStore{}, sessionService)

	credentialsProvider := &fixedCredentialsProvider{credentials: suite.credentials}
	issuer := token.NewIssuer(credentialsProvider, grantStore, appStore, tenantStore)

	suite.mux = http.NewServeMux()
	NewOAuthService(suite.mux, coord, issuer, appStore, grantStore, sessionService,
		credentialsProvider)
}

func (suite *OAuthServiceTestSuite) TearDownTest() {
	config.ResetTempestRuntime()
}

// authorizeAndComplete runs the authorize redirect and the bound journey,
// returning the minted authorization code.
func (suite *OAuthServiceTestSuite) authorizeAndComplete() string {
	authorizeURL := "/oauth2/authorize?client_id=client1&tenant_id=t1" +
		"&scope=" + url.QueryEscape("openid profile") +
		"&code_challenge=" + testCodeChallenge + "&code_challenge_method=S256"
	recorder := httptest.NewRecorder()
	suite.mux.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, authorizeURL, nil))
	suite.Require().Equal(http.StatusFound, recorder.Code)

	location, err := url.Parse(recorder.Header().Get("Location"))
	suite.Require().NoError(err)
	suite.Require().Equal("/flow/login", location.Path)
	journeyID := location.Query().Get("journey_id")
	correlationID := location.Query().Get("correlation_id")
	suite.Require().NotEmpty(journeyID)
	suite.Require().NotEmpty(correlationID)

	journeyResult, err := suite.journeyEngine.ExecuteStep(context.Background(), journeyID, nil)
	suite.Require().NoError(err)
	suite.Require().Equal(journeyconst.JourneyStatusCompleted, journeyResult.Status)

	recorder = httptest.NewRecorder()
	suite.mux.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet,
		"/oauth2/authorize/callback?correlation_id="+url.QueryEscape(correlationID), nil))
	suite.Require().Equal(http.StatusOK, recorder.Code)

	var callbackBody map[string]string
	suite.Require().NoError(json.NewDecoder(recorder.Body).Decode(&callbackBody))
	suite.Require().NotEmpty(callbackBody["code"])
	return callbackBody["code"]
}

func (suite *OAuthServiceTestSuite) exchangeCode(form url.Values) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodPost, "/oauth2/token",
		strings.NewReader(form.Encode()))
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	recorder := httptest.NewRecorder()
	suite.mux.ServeHTTP(recorder, request)
	return recorder
}

func (suite *OAuthServiceTestSuite) TestAuthorizeCallbackTokenFlow() {
	code := suite.authorizeAndComplete()

	recorder := suite.exchangeCode(url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {"client1"},
		"code":          {code},
		"code_verifier": {testCodeVerifier},
		"nonce":         {"n1"},
	})
	suite.Require().Equal(http.StatusOK, recorder.Code, recorder.Body.String())

	var response model.TokenResponse
	suite.Require().NoError(json.NewDecoder(recorder.Body).Decode(&response))
	suite.NotEmpty(response.AccessToken)
	suite.Require().NotEmpty(response.IDToken)

	idToken, err := jwt.Parse([]byte(response.IDToken),
		jwt.WithKey(jwa.RS256, suite.credentials.PublicKey), jwt.WithValidate(false))
	suite.Require().NoError(err)
	suite.Equal("user1", idToken.Subject())

	authTime, ok := idToken.Get("auth_time")
	suite.Require().True(ok)
	suite.EqualValues(1756600000, authTime)
	amr, ok := idToken.Get("amr")
	suite.Require().True(ok)
	suite.Equal([]interface{}{"password"}, amr)
	_, ok = idToken.Get("c_hash")
	suite.True(ok)

	// The code is single-use.
	recorder = suite.exchangeCode(url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {"client1"},
		"code":          {code},
		"code_verifier": {testCodeVerifier},
	})
	suite.Require().Equal(http.StatusBadRequest, recorder.Code)
}

func (suite *OAuthServiceTestSuite) TestTokenExchangeRejectsMissingVerifier() {
	code := suite.authorizeAndComplete()

	recorder := suite.exchangeCode(url.Values{
		"grant_type": {"authorization_code"},
		"client_id":  {"client1"},
		"code":       {code},
	})
	suite.Require().Equal(http.StatusBadRequest, recorder.Code)

	var errResp model.ErrorResponse
	suite.Require().NoError(json.NewDecoder(recorder.Body).Decode(&errResp))
	suite.Equal("invalid_grant", errResp.Error)
}

func (suite *OAuthServiceTestSuite) TestTokenExchangeRejectsWrongVerifier() {
	code := suite.authorizeAndComplete()

	recorder := suite.exchangeCode(url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {"client1"},
		"code":          {code},
		"code_verifier": {"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"},
	})
	suite.Require().Equal(http.StatusBadRequest, recorder.Code)

	// A code presented with a bad proof is burned.
	recorder = suite.exchangeCode(url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {"client1"},
		"code":          {code},
		"code_verifier": {testCodeVerifier},
	})
	suite.Require().Equal(http.StatusBadRequest, recorder.Code)
}

func (suite *OAuthServiceTestSuite) TestAuthorizeRejectsMissingChallenge() {
	recorder := httptest.NewRecorder()
	suite.mux.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet,
		"/oauth2/authorize?client_id=client1&tenant_id=t1&scope=openid", nil))
	suite.Require().Equal(http.StatusBadRequest, recorder.Code)

	var errResp model.ErrorResponse
	suite.Require().NoError(json.NewDecoder(recorder.Body).Decode(&errResp))
	suite.Equal("invalid_request", errResp.Error)
}
