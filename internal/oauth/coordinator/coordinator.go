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

// Package coordinator orchestrates authentication for inbound authorization
// requests: it decides the UI mode, resolves the journey policy, tracks the
// in-flight protocol request, and produces the grant once authentication and
// consent are satisfied.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/asgardeo/tempest/internal/application"
	journeyconst "github.com/asgardeo/tempest/internal/journey/constants"
	"github.com/asgardeo/tempest/internal/journey/engine"
	"github.com/asgardeo/tempest/internal/journey/executors"
	"github.com/asgardeo/tempest/internal/journey/registry"
	"github.com/asgardeo/tempest/internal/oauth/claims"
	"github.com/asgardeo/tempest/internal/oauth/oauth2/constants"
	"github.com/asgardeo/tempest/internal/oauth/oauth2/model"
	"github.com/asgardeo/tempest/internal/oauth/oauth2/pkce"
	"github.com/asgardeo/tempest/internal/oauth/protocolstate"
	"github.com/asgardeo/tempest/internal/system/log"
	"github.com/asgardeo/tempest/internal/tenant"
)

// Protocol state property keys owned by the coordinator.
const (
	propScopes              = "scopes"
	propUIMode              = "ui_mode"
	propJourneyID           = "journey_id"
	propConsentJourneyID    = "consent_journey_id"
	propConsentRequired     = "consent_required"
	propConsentScopes       = "consent_scopes"
	propCodeChallenge       = "code_challenge"
	propCodeChallengeMethod = "code_challenge_method"
)

// Journey bag keys that carry engine or coordinator bookkeeping rather than
// user attributes; they never surface as grant claims.
var bookkeepingBagKeys = map[string]struct{}{
	journeyconst.DataAuthenticatedAt: {},
	journeyconst.DataAuthMethod:      {},
	executors.DataConsentedScopes:    {},
	"login_hint":                     {},
	"requested_scopes":               {},
}

// Callback path conventions per protocol.
const (
	callbackPathOIDC = "/oauth2/authorize/callback"
	callbackPathSAML = "/saml/sso/callback"
)

// Standalone pages by requirement type.
var standalonePages = map[string]string{
	RequirementTypeLogin:          "/login",
	RequirementTypeRegister:       "/register",
	RequirementTypeForgotPassword: "/forgot-password",
	RequirementTypeProfile:        "/profile",
}

const standaloneConsentPage = "/consent"

// UserStoreInterface checks that an authenticated user still exists.
type UserStoreInterface interface {
	UserExists(ctx context.Context, tenantID, userID string) (bool, error)
}

// SessionServiceInterface invalidates sessions the coordinator rejects.
type SessionServiceInterface interface {
	SignOut(ctx context.Context, sessionID string) error
}

// CoordinatorInterface defines the top-level authentication operations.
type CoordinatorInterface interface {
	Authorize(ctx context.Context, req AuthorizeRequest) Result
	HandleCallback(ctx context.Context, correlationID string, session *Session) (model.GrantResult, *model.ErrorResponse)
	RequestConsent(ctx context.Context, correlationID string) Result
	GrantConsent(ctx context.Context, correlationID string, scopes []string) *model.ErrorResponse
	ResolveUIMode(resolvedTenant tenant.Tenant, app application.OAuthApplication, requested UIMode) UIMode
	ResolvePolicy(ctx context.Context, requirement AuthenticationRequirement,
		resolvedTenant tenant.Tenant) (registry.Policy, error)
}

// Coordinator implements CoordinatorInterface.
type Coordinator struct {
	stateStore     protocolstate.StoreInterface
	journeyEngine  engine.EngineInterface
	journeyReg     *registry.Registry
	policyStore    registry.PolicyStoreInterface
	tenantStore    tenant.StoreInterface
	appStore       application.StoreInterface
	claimsAgg      *claims.Aggregator
	userStore      UserStoreInterface
	sessionService SessionServiceInterface
}

var _ CoordinatorInterface = (*Coordinator)(nil)

// NewCoordinator creates an authentication coordinator.
func NewCoordinator(stateStore protocolstate.StoreInterface, journeyEngine engine.EngineInterface,
	journeyReg *registry.Registry, policyStore registry.PolicyStoreInterface,
	tenantStore tenant.StoreInterface, appStore application.StoreInterface,
	claimsAgg *claims.Aggregator, userStore UserStoreInterface,
	sessionService SessionServiceInterface) *Coordinator {
	return &Coordinator{
		stateStore:     stateStore,
		journeyEngine:  journeyEngine,
		journeyReg:     journeyReg,
		policyStore:    policyStore,
		tenantStore:    tenantStore,
		appStore:       appStore,
		claimsAgg:      claimsAgg,
		userStore:      userStore,
		sessionService: sessionService,
	}
}

// Authorize handles one inbound authorization request end to end: it stores
// the protocol state, applies the skip-login decision, and dispatches to the
// resolved UI mode.
func (c *Coordinator) Authorize(ctx context.Context, req AuthorizeRequest) Result {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "AuthenticationCoordinator"),
		log.String(log.LoggerKeyClientID, req.ClientID))

	app, err := c.appStore.GetApplication(ctx, req.ClientID)
	if err != nil {
		return errorResult(http.StatusBadRequest, constants.ErrorInvalidClient, "unknown client")
	}

	if pkceErr := pkce.ValidateCodeChallenge(req.CodeChallenge, req.CodeChallengeMethod,
		app.PKCERequired, app.AllowPlainTextPKCE); pkceErr != nil {
		return Result{Type: ResultError, StatusCode: http.StatusBadRequest, Error: pkceErr}
	}

	resolvedTenant, err := c.tenantStore.GetTenant(ctx, req.TenantID)
	if err != nil && req.TenantID != "" {
		return errorResult(http.StatusBadRequest, constants.ErrorInvalidRequest, "unknown tenant")
	}

	uiMode := c.ResolveUIMode(resolvedTenant, app, req.Requirement.RequestedUIMode)

	// Skip-login: an existing session short-circuits straight to the callback
	// unless the request demands a fresh login.
	session := c.survivingSession(ctx, req, logger)
	if session == nil && req.Requirement.Prompt == PromptNone {
		return errorResult(http.StatusBadRequest, constants.ErrorLoginRequired,
			"prompt=none requires an existing authenticated session")
	}

	state := protocolstate.ProtocolState{
		ProtocolName:      req.Protocol,
		SerializedRequest: req.SerializedRequest,
		ClientID:          req.ClientID,
		TenantID:          req.TenantID,
		EndpointType:      req.EndpointType,
		CreatedAt:         time.Now(),
	}
	state.SetProperty(propScopes, strings.Join(req.Requirement.RequestedScopes, " "))
	state.SetProperty(propUIMode, string(uiMode))
	if app.RequireConsent {
		state.SetProperty(propConsentRequired, "true")
		state.SetProperty(propConsentScopes, strings.Join(req.Requirement.RequestedScopes, " "))
	}
	if req.CodeChallenge != "" {
		method := req.CodeChallengeMethod
		if method == "" {
			method = pkce.CodeChallengeMethodPlain
		}
		state.SetProperty(propCodeChallenge, req.CodeChallenge)
		state.SetProperty(propCodeChallengeMethod, method)
	}

	correlationID, err := c.stateStore.Store(ctx, state, protocolstate.DefaultStateValidityPeriod)
	if err != nil {
		logger.Error("Failed to store protocol state", log.Error(err))
		return errorResult(http.StatusInternalServerError, constants.ErrorServerError, "failed to track request")
	}

	if session != nil {
		return Result{
			Type:          ResultRedirect,
			CorrelationID: correlationID,
			RedirectURL:   callbackURL(req.Protocol, correlationID),
		}
	}

	return c.dispatch(ctx, uiMode, req, resolvedTenant, correlationID)
}

// survivingSession applies the skip-login decision, returning the session if
// it may be reused. An invalidated or stale session is signed out, never
// surfaced as an error.
func (c *Coordinator) survivingSession(ctx context.Context, req AuthorizeRequest,
	logger *log.Logger) *Session {
	session := req.Session
	if session == nil || session.UserID == "" {
		return nil
	}

	requirement := req.Requirement
	forceFresh := requirement.ForceFreshLogin ||
		requirement.Prompt == PromptLogin || requirement.Prompt == PromptCreate
	if !forceFresh && requirement.MaxAgeSeconds > 0 {
		age := time.Since(session.AuthTime)
		forceFresh = age > time.Duration(requirement.MaxAgeSeconds)*time.Second
	}
	if forceFresh {
		c.signOut(ctx, session.SessionID, logger)
		return nil
	}

	exists, err := c.userStore.UserExists(ctx, req.TenantID, session.UserID)
	if err != nil || !exists {
		// A stale user is "not authenticated", not an exception.
		c.signOut(ctx, session.SessionID, logger)
		return nil
	}
	return session
}

// ResolveUIMode applies the three-tier override chain. The tenant setting is
// authoritative; a client explicit disable is final; the request may choose
// within what tenant and client allow.
func (c *Coordinator) ResolveUIMode(resolvedTenant tenant.Tenant, app application.OAuthApplication,
	requested UIMode) UIMode {
	if resolvedTenant.JourneysDisabled {
		return UIModeStandalone
	}
	if app.JourneysEnabled != nil && !*app.JourneysEnabled {
		return UIModeStandalone
	}
	switch requested {
	case UIModeJourney, UIModeStandalone, UIModeHeadless:
		return requested
	}
	return UIModeJourney
}

// ResolvePolicy picks the journey policy: explicit request override, then the
// context policy, then the by-type lookup, then the tenant SignIn policy.
// First match wins; no match at all is a fatal configuration error.
func (c *Coordinator) ResolvePolicy(ctx context.Context, requirement AuthenticationRequirement,
	resolvedTenant tenant.Tenant) (registry.Policy, error) {
	if requirement.ExplicitPolicyID != "" {
		policy, err := c.policyStore.GetPolicy(ctx, requirement.ExplicitPolicyID)
		if err == nil {
			return policy, nil
		}
	}
	if requirement.ContextPolicyID != "" {
		policy, err := c.policyStore.GetPolicy(ctx, requirement.ContextPolicyID)
		if err == nil {
			return policy, nil
		}
	}
	if requirement.SuggestedPolicyType != "" {
		if policyID := resolvedTenant.PolicyIDForType(string(requirement.SuggestedPolicyType)); policyID != "" {
			policy, err := c.policyStore.GetPolicy(ctx, policyID)
			if err == nil {
				return policy, nil
			}
		}
		policy, err := c.policyStore.GetPolicyByType(ctx, resolvedTenant.ID, requirement.SuggestedPolicyType)
		if err == nil {
			return policy, nil
		}
	}
	if resolvedTenant.SignInPolicyID != "" {
		policy, err := c.policyStore.GetPolicy(ctx, resolvedTenant.SignInPolicyID)
		if err == nil {
			return policy, nil
		}
	}
	return registry.Policy{}, fmt.Errorf("no journey policy resolvable for tenant %q", resolvedTenant.ID)
}

// dispatch routes the attempt to the resolved UI mode.
func (c *Coordinator) dispatch(ctx context.Context, uiMode UIMode, req AuthorizeRequest,
	resolvedTenant tenant.Tenant, correlationID string) Result {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "AuthenticationCoordinator"),
		log.String(log.LoggerKeyCorrelationID, correlationID))

	switch uiMode {
	case UIModeStandalone:
		page, ok := standalonePages[req.Requirement.RequirementType]
		if !ok {
			page = standalonePages[RequirementTypeLogin]
		}
		returnURL := callbackURL(req.Protocol, correlationID)
		return Result{
			Type:          ResultRedirect,
			CorrelationID: correlationID,
			RedirectURL:   page + "?return_url=" + url.QueryEscape(returnURL),
		}

	case UIModeHeadless:
		policy, err := c.ResolvePolicy(ctx, req.Requirement, resolvedTenant)
		if err != nil {
			logger.Error("No journey policy resolvable", log.Error(err))
			return errorResult(http.StatusInternalServerError, constants.ErrorServerError,
				"no authentication policy configured")
		}
		return Result{
			Type:          ResultChallenge,
			CorrelationID: correlationID,
			StatusCode:    http.StatusUnauthorized,
			AuthRequirements: &AuthRequirements{
				PolicyID:       policy.ID,
				DefinitionID:   policy.DefinitionID,
				RequiredScopes: req.Requirement.RequestedScopes,
				ACRValues:      req.Requirement.ACRValues,
				CorrelationID:  correlationID,
			},
		}

	default: // UIModeJourney
		policy, err := c.ResolvePolicy(ctx, req.Requirement, resolvedTenant)
		if err != nil {
			logger.Error("No journey policy resolvable", log.Error(err))
			return errorResult(http.StatusInternalServerError, constants.ErrorServerError,
				"no authentication policy configured")
		}

		initialData := map[string]string{}
		if req.Requirement.LoginHint != "" {
			initialData["login_hint"] = req.Requirement.LoginHint
		}
		return c.startBoundJourney(ctx, correlationID, policy.DefinitionID, req.TenantID,
			req.ClientID, propJourneyID, initialData, logger)
	}
}

// startBoundJourney starts a journey for the given definition and records its
// ID on the stored protocol state under bindKey, so the callback can find it.
func (c *Coordinator) startBoundJourney(ctx context.Context, correlationID, definitionID,
	tenantID, clientID, bindKey string, initialData map[string]string, logger *log.Logger) Result {
	definition, err := c.journeyReg.Definition(definitionID)
	if err != nil {
		logger.Error("Policy references unknown journey definition", log.Error(err))
		return errorResult(http.StatusInternalServerError, constants.ErrorServerError,
			"authentication journey unavailable")
	}

	journeyState, err := c.journeyEngine.Start(ctx, definition.ID, tenantID, clientID, initialData)
	if err != nil {
		logger.Error("Failed to start journey", log.Error(err))
		return errorResult(http.StatusInternalServerError, constants.ErrorServerError,
			"failed to start authentication journey")
	}

	if err := c.bindJourney(ctx, correlationID, bindKey, journeyState.ID); err != nil {
		logger.Error("Failed to bind journey to protocol state", log.Error(err))
		return errorResult(http.StatusInternalServerError, constants.ErrorServerError,
			"failed to track request")
	}

	entryPoint := definition.UIEntryPoint
	if entryPoint == "" {
		entryPoint = "/journey"
	}
	redirect := fmt.Sprintf("%s?%s=%s&%s=%s", entryPoint,
		"journey_id", url.QueryEscape(journeyState.ID),
		constants.ParamCorrelationID, url.QueryEscape(correlationID))
	return Result{
		Type:          ResultRedirect,
		CorrelationID: correlationID,
		JourneyID:     journeyState.ID,
		RedirectURL:   redirect,
	}
}

// bindJourney records a journey ID on the stored protocol state under the
// same correlation ID.
func (c *Coordinator) bindJourney(ctx context.Context, correlationID, bindKey, journeyID string) error {
	state, err := c.stateStore.Get(ctx, correlationID)
	if err != nil {
		return err
	}
	state.SetProperty(bindKey, journeyID)
	return c.stateStore.Update(ctx, correlationID, *state)
}

// HandleCallback resumes the original protocol request by its correlation ID.
// The correlation ID is single-use: once a grant has been minted or the
// attempt has failed, the same value never resolves again. A consent_required
// answer leaves the state intact so the consent round-trip can re-enter.
func (c *Coordinator) HandleCallback(ctx context.Context, correlationID string,
	session *Session) (model.GrantResult, *model.ErrorResponse) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "AuthenticationCoordinator"),
		log.String(log.LoggerKeyCorrelationID, correlationID))

	state, err := c.stateStore.Get(ctx, correlationID)
	if err != nil {
		if errors.Is(err, protocolstate.ErrStateNotFound) {
			return model.GrantResult{}, &model.ErrorResponse{
				Error:            constants.ErrorInvalidRequest,
				ErrorDescription: "unknown or already used correlation_id",
			}
		}
		logger.Error("Failed to load protocol state", log.Error(err))
		return model.GrantResult{}, &model.ErrorResponse{
			Error:            constants.ErrorServerError,
			ErrorDescription: "failed to resume request",
		}
	}

	subjectID, sessionID, bag, authErr := c.resolveAuthenticatedUser(ctx, state, session)
	if authErr != nil {
		// A failed attempt burns the correlation ID.
		if rmErr := c.stateStore.Remove(ctx, correlationID); rmErr != nil {
			logger.Error("Failed to remove protocol state", log.Error(rmErr))
		}
		return model.GrantResult{}, authErr
	}

	scopes := strings.Fields(state.GetProperty(propScopes))
	if consentErr := c.checkConsent(ctx, state, bag, scopes); consentErr != nil {
		return model.GrantResult{}, consentErr
	}

	// Consume is the single-use arbiter: concurrent callbacks race on the
	// delete and only the winner mints a grant.
	if _, err := c.stateStore.Consume(ctx, correlationID); err != nil {
		return model.GrantResult{}, &model.ErrorResponse{
			Error:            constants.ErrorInvalidRequest,
			ErrorDescription: "unknown or already used correlation_id",
		}
	}

	collected := c.claimsAgg.Collect(ctx, claims.ClaimsContext{
		SubjectID: subjectID,
		TenantID:  state.TenantID,
		ClientID:  state.ClientID,
		SessionID: sessionID,
		Protocol:  state.ProtocolName,
		Scopes:    scopes,
	})
	collected = mergeBagAttributes(collected, bag)

	authTime, authMethods := authContext(bag, session)

	return model.GrantResult{
		SubjectID:   subjectID,
		ClientID:    state.ClientID,
		TenantID:    state.TenantID,
		SessionID:   sessionID,
		Scopes:      scopes,
		Claims:      collected,
		AuthTime:    authTime,
		AuthMethods: authMethods,
		CustomData:  pkceCustomData(state),
	}, nil
}

// mergeBagAttributes folds attributes the journey collected into the grant
// claims. Provider claims win on key conflicts; bookkeeping bag entries never
// surface.
func mergeBagAttributes(collected map[string]interface{}, bag map[string]string) map[string]interface{} {
	if len(bag) == 0 {
		return collected
	}
	if collected == nil {
		collected = make(map[string]interface{})
	}
	for key, value := range bag {
		if _, reserved := bookkeepingBagKeys[key]; reserved {
			continue
		}
		if _, exists := collected[key]; exists {
			continue
		}
		collected[key] = value
	}
	return collected
}

// authContext extracts when and how the user authenticated: from the journey
// bag on the journey path, from the presented session otherwise.
func authContext(bag map[string]string, session *Session) (time.Time, []string) {
	if bag != nil {
		var authTime time.Time
		if seconds, err := strconv.ParseInt(bag[journeyconst.DataAuthenticatedAt], 10, 64); err == nil {
			authTime = time.Unix(seconds, 0)
		}
		var methods []string
		if method := bag[journeyconst.DataAuthMethod]; method != "" {
			methods = strings.Fields(method)
		}
		return authTime, methods
	}

	if session == nil {
		return time.Time{}, nil
	}
	var methods []string
	if session.AuthMethod != "" {
		methods = []string{session.AuthMethod}
	}
	return session.AuthTime, methods
}

// pkceCustomData carries the challenge recorded at authorize time through to
// the code grant, so the token exchange can verify the code_verifier.
func pkceCustomData(state *protocolstate.ProtocolState) map[string]interface{} {
	challenge := state.GetProperty(propCodeChallenge)
	if challenge == "" {
		return nil
	}
	return map[string]interface{}{
		propCodeChallenge:       challenge,
		propCodeChallengeMethod: state.GetProperty(propCodeChallengeMethod),
	}
}

// RequestConsent dispatches a pending consent requirement for an in-flight
// request: a dedicated consent journey when the tenant configures one, a
// hosted consent page otherwise, or a structured 403 for headless clients.
func (c *Coordinator) RequestConsent(ctx context.Context, correlationID string) Result {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "AuthenticationCoordinator"),
		log.String(log.LoggerKeyCorrelationID, correlationID))

	state, err := c.stateStore.Get(ctx, correlationID)
	if err != nil {
		return errorResult(http.StatusBadRequest, constants.ErrorInvalidRequest,
			"unknown or already used correlation_id")
	}

	consentScopes := strings.Fields(state.GetProperty(propConsentScopes))
	if len(consentScopes) == 0 {
		consentScopes = strings.Fields(state.GetProperty(propScopes))
	}

	switch UIMode(state.GetProperty(propUIMode)) {
	case UIModeHeadless:
		return Result{
			Type:          ResultChallenge,
			CorrelationID: correlationID,
			StatusCode:    http.StatusForbidden,
			ConsentRequirements: &ConsentRequirements{
				RequestedScopes: consentScopes,
				CorrelationID:   correlationID,
			},
		}

	case UIModeJourney:
		resolvedTenant, tErr := c.tenantStore.GetTenant(ctx, state.TenantID)
		if tErr == nil && resolvedTenant.ConsentPolicyID != "" {
			policy, pErr := c.policyStore.GetPolicy(ctx, resolvedTenant.ConsentPolicyID)
			if pErr == nil {
				initialData := map[string]string{
					"requested_scopes": strings.Join(consentScopes, " "),
				}
				return c.startBoundJourney(ctx, correlationID, policy.DefinitionID, state.TenantID,
					state.ClientID, propConsentJourneyID, initialData, logger)
			}
			logger.Warn("Tenant consent policy unresolvable", log.Error(pErr))
		}
	}

	returnURL := callbackURL(state.ProtocolName, correlationID)
	return Result{
		Type:          ResultRedirect,
		CorrelationID: correlationID,
		RedirectURL: standaloneConsentPage + "?return_url=" + url.QueryEscape(returnURL) +
			"&scope=" + url.QueryEscape(strings.Join(consentScopes, " ")),
	}
}

// GrantConsent records the scopes approved on the hosted consent page against
// the in-flight request, so the next callback for the same correlation ID can
// pass the consent check. Journey and headless flows record consent through
// the consent journey's data bag instead.
func (c *Coordinator) GrantConsent(ctx context.Context, correlationID string,
	scopes []string) *model.ErrorResponse {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "AuthenticationCoordinator"),
		log.String(log.LoggerKeyCorrelationID, correlationID))

	state, err := c.stateStore.Get(ctx, correlationID)
	if err != nil {
		return &model.ErrorResponse{
			Error:            constants.ErrorInvalidRequest,
			ErrorDescription: "unknown or already used correlation_id",
		}
	}

	state.SetProperty(executors.DataConsentedScopes, strings.Join(scopes, " "))
	if err := c.stateStore.Update(ctx, correlationID, *state); err != nil {
		logger.Error("Failed to record consent on protocol state", log.Error(err))
		return &model.ErrorResponse{
			Error:            constants.ErrorServerError,
			ErrorDescription: "failed to record consent",
		}
	}
	return nil
}

// resolveAuthenticatedUser determines who authenticated, either from a bound
// journey or by re-authenticating the presented session. The returned bag is
// the completed journey's data bag, nil on the standalone path.
func (c *Coordinator) resolveAuthenticatedUser(ctx context.Context, state *protocolstate.ProtocolState,
	session *Session) (string, string, map[string]string, *model.ErrorResponse) {
	journeyID := state.GetProperty(propJourneyID)
	if journeyID != "" {
		journeyState, err := c.journeyEngine.GetState(ctx, journeyID)
		if err != nil || journeyState.Status != journeyconst.JourneyStatusCompleted ||
			journeyState.AuthenticatedUserID == "" {
			return "", "", nil, &model.ErrorResponse{
				Error:            constants.ErrorAccessDenied,
				ErrorDescription: "authentication journey did not complete",
			}
		}
		if exists, err := c.userStore.UserExists(ctx, state.TenantID, journeyState.AuthenticatedUserID); err != nil || !exists {
			return "", "", nil, &model.ErrorResponse{
				Error:            constants.ErrorAccessDenied,
				ErrorDescription: "authenticated user no longer exists",
			}
		}
		// A completed journey without authentication markers collected claims
		// only; it must not mint a session.
		if journeyState.DataBag[journeyconst.DataAuthenticatedAt] == "" {
			return journeyState.AuthenticatedUserID, "", journeyState.DataBag, nil
		}
		return journeyState.AuthenticatedUserID, journeyState.SessionID, journeyState.DataBag, nil
	}

	// Standalone path: re-authenticate from the presented session directly.
	if session == nil || session.UserID == "" {
		return "", "", nil, &model.ErrorResponse{
			Error:            constants.ErrorAccessDenied,
			ErrorDescription: "no authenticated session",
		}
	}
	if exists, err := c.userStore.UserExists(ctx, state.TenantID, session.UserID); err != nil || !exists {
		return "", "", nil, &model.ErrorResponse{
			Error:            constants.ErrorAccessDenied,
			ErrorDescription: "authenticated user no longer exists",
		}
	}
	return session.UserID, session.SessionID, nil, nil
}

// checkConsent enforces the consent requirement recorded at authorize time.
// Consented scopes may come from the sign-in journey's bag, a dedicated
// consent journey, or the protocol state itself (standalone consent page).
func (c *Coordinator) checkConsent(ctx context.Context, state *protocolstate.ProtocolState,
	bag map[string]string, scopes []string) *model.ErrorResponse {
	if state.GetProperty(propConsentRequired) != "true" {
		return nil
	}

	consented := strings.Fields(bag[executors.DataConsentedScopes])
	if len(consented) == 0 {
		if consentJourneyID := state.GetProperty(propConsentJourneyID); consentJourneyID != "" {
			consentState, err := c.journeyEngine.GetState(ctx, consentJourneyID)
			if err == nil && consentState.Status == journeyconst.JourneyStatusCompleted {
				consented = strings.Fields(consentState.DataBag[executors.DataConsentedScopes])
			}
		}
	}
	if len(consented) == 0 {
		consented = strings.Fields(state.GetProperty(executors.DataConsentedScopes))
	}

	if len(consented) == 0 {
		return &model.ErrorResponse{
			Error:            constants.ErrorConsentRequired,
			ErrorDescription: "consent has not been granted for the requested scopes",
		}
	}
	for _, scope := range scopes {
		found := false
		for _, granted := range consented {
			if granted == scope {
				found = true
				break
			}
		}
		if !found {
			return &model.ErrorResponse{
				Error:            constants.ErrorConsentRequired,
				ErrorDescription: "consent missing for scope: " + scope,
			}
		}
	}
	return nil
}

func (c *Coordinator) signOut(ctx context.Context, sessionID string, logger *log.Logger) {
	if sessionID == "" || c.sessionService == nil {
		return
	}
	if err := c.sessionService.SignOut(ctx, sessionID); err != nil {
		logger.Warn("Failed to sign out stale session", log.Error(err))
	}
}

func callbackURL(protocol, correlationID string) string {
	path := callbackPathOIDC
	if protocol == constants.ProtocolSAML {
		path = callbackPathSAML
	}
	return path + "?" + constants.ParamCorrelationID + "=" + url.QueryEscape(correlationID)
}

func errorResult(statusCode int, errorCode, description string) Result {
	return Result{
		Type:       ResultError,
		StatusCode: statusCode,
		Error: &model.ErrorResponse{
			Error:            errorCode,
			ErrorDescription: description,
		},
	}
}
