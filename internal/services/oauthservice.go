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

// Package services wires the HTTP surface over the authentication coordinator
// and the token issuer.
package services

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/asgardeo/tempest/internal/application"
	"github.com/asgardeo/tempest/internal/oauth/coordinator"
	"github.com/asgardeo/tempest/internal/oauth/grants"
	"github.com/asgardeo/tempest/internal/oauth/oauth2/constants"
	"github.com/asgardeo/tempest/internal/oauth/oauth2/model"
	"github.com/asgardeo/tempest/internal/oauth/oauth2/pkce"
	"github.com/asgardeo/tempest/internal/oauth/signing"
	"github.com/asgardeo/tempest/internal/oauth/token"
	"github.com/asgardeo/tempest/internal/session"
	"github.com/asgardeo/tempest/internal/system/log"
	"github.com/asgardeo/tempest/internal/system/utils"
)

const (
	sessionCookieName         = "TEMPEST_SESSION"
	authorizationCodeValidity = 5 * time.Minute
	headerContentType         = "Content-Type"
	contentTypeJSON           = "application/json"
)

// OAuthService exposes the authorize, callback, and token endpoints.
type OAuthService struct {
	coordinator    coordinator.CoordinatorInterface
	issuer         token.IssuerInterface
	appStore       application.StoreInterface
	grantStore     grants.StoreInterface
	sessionService session.ServiceInterface
	credentials    signing.CredentialsProviderInterface
}

// NewOAuthService creates the OAuth service and registers its routes.
func NewOAuthService(mux *http.ServeMux, coord coordinator.CoordinatorInterface,
	issuer token.IssuerInterface, appStore application.StoreInterface,
	grantStore grants.StoreInterface, sessionService session.ServiceInterface,
	credentials signing.CredentialsProviderInterface) *OAuthService {
	instance := &OAuthService{
		coordinator:    coord,
		issuer:         issuer,
		appStore:       appStore,
		grantStore:     grantStore,
		sessionService: sessionService,
		credentials:    credentials,
	}
	instance.RegisterRoutes(mux)
	return instance
}

// RegisterRoutes registers the OAuth endpoints on the multiplexer.
func (s *OAuthService) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /oauth2/authorize", s.HandleAuthorizeRequest)
	mux.HandleFunc("GET /oauth2/authorize/callback", s.HandleAuthorizeCallback)
	mux.HandleFunc("POST /oauth2/consent", s.HandleConsentSubmission)
	mux.HandleFunc("POST /oauth2/token", s.HandleTokenRequest)
	mux.HandleFunc("GET /oauth2/jwks", s.HandleJWKSRequest)
}

// HandleAuthorizeRequest starts one authorization attempt.
func (s *OAuthService) HandleAuthorizeRequest(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	requirement := coordinator.AuthenticationRequirement{
		Prompt:          query.Get("prompt"),
		LoginHint:       query.Get("login_hint"),
		RequestedScopes: utils.ParseScopes(query.Get("scope")),
		ACRValues:       utils.ParseScopes(query.Get("acr_values")),
		RequestedUIMode: coordinator.UIMode(query.Get("ui_mode")),
	}
	if maxAge, err := strconv.ParseInt(query.Get("max_age"), 10, 64); err == nil {
		requirement.MaxAgeSeconds = maxAge
	}

	result := s.coordinator.Authorize(r.Context(), coordinator.AuthorizeRequest{
		Protocol:            constants.ProtocolOIDC,
		SerializedRequest:   r.URL.RawQuery,
		ClientID:            query.Get("client_id"),
		TenantID:            query.Get("tenant_id"),
		EndpointType:        constants.EndpointTypeAuthorize,
		CodeChallenge:       query.Get("code_challenge"),
		CodeChallengeMethod: query.Get("code_challenge_method"),
		Requirement:         requirement,
		Session:             s.resolveSession(r),
	})

	s.writeCoordinatorResult(w, r, result)
}

// HandleAuthorizeCallback resumes the attempt and mints an authorization code.
func (s *OAuthService) HandleAuthorizeCallback(w http.ResponseWriter, r *http.Request) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "OAuthService"))
	correlationID := r.URL.Query().Get(constants.ParamCorrelationID)

	grant, errResp := s.coordinator.HandleCallback(r.Context(), correlationID, s.resolveSession(r))
	if errResp != nil {
		if errResp.Error == constants.ErrorConsentRequired {
			s.writeCoordinatorResult(w, r, s.coordinator.RequestConsent(r.Context(), correlationID))
			return
		}
		writeJSON(w, http.StatusBadRequest, errResp)
		return
	}

	code, err := s.grantStore.Store(r.Context(), grants.GrantRecord{
		Type:      grants.GrantTypeAuthorizationCode,
		SubjectID: grant.SubjectID,
		ClientID:  grant.ClientID,
		TenantID:  grant.TenantID,
		SessionID: grant.SessionID,
		Scopes:    grant.Scopes,
		Claims:    stringifyGrantClaims(grant.Claims),
		Data:      codeGrantData(grant),
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(authorizationCodeValidity),
	})
	if err != nil {
		logger.Error("Failed to persist authorization code", log.Error(err))
		writeJSON(w, http.StatusInternalServerError, &model.ErrorResponse{
			Error:            constants.ErrorServerError,
			ErrorDescription: "failed to issue authorization code",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"code": code})
}

// HandleConsentSubmission records the scopes approved on the hosted consent
// page; the page then sends the user agent back to the callback URL.
func (s *OAuthService) HandleConsentSubmission(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, &model.ErrorResponse{
			Error:            constants.ErrorInvalidRequest,
			ErrorDescription: "malformed request body",
		})
		return
	}

	correlationID := r.PostFormValue(constants.ParamCorrelationID)
	scopes := utils.ParseScopes(r.PostFormValue("scope"))
	if errResp := s.coordinator.GrantConsent(r.Context(), correlationID, scopes); errResp != nil {
		status := http.StatusBadRequest
		if errResp.Error == constants.ErrorServerError {
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, errResp)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

// HandleTokenRequest exchanges a grant for tokens.
func (s *OAuthService) HandleTokenRequest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, &model.ErrorResponse{
			Error:            constants.ErrorInvalidRequest,
			ErrorDescription: "malformed request body",
		})
		return
	}

	clientID := r.PostFormValue("client_id")
	app, err := s.appStore.GetApplication(r.Context(), clientID)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, &model.ErrorResponse{
			Error:            constants.ErrorInvalidClient,
			ErrorDescription: "unknown client",
		})
		return
	}

	grantType := constants.GrantType(r.PostFormValue("grant_type"))
	req := token.IssueRequest{
		GrantType:   grantType,
		Application: app,
		TenantID:    app.TenantID,
		Nonce:       r.PostFormValue("nonce"),
	}

	switch grantType {
	case constants.GrantTypeClientCredentials:
		req.GrantResult = model.GrantResult{Scopes: utils.ParseScopes(r.PostFormValue("scope"))}

	case constants.GrantTypeAuthorizationCode, constants.GrantTypeRefreshToken:
		handle := r.PostFormValue("code")
		if grantType == constants.GrantTypeRefreshToken {
			handle = r.PostFormValue("refresh_token")
		}
		consumed, errResp := s.consumeGrant(r, grantType, handle, app)
		if errResp != nil {
			writeJSON(w, http.StatusBadRequest, errResp)
			return
		}
		req.GrantResult = model.GrantResult{
			SubjectID: consumed.SubjectID,
			ClientID:  consumed.ClientID,
			TenantID:  consumed.TenantID,
			SessionID: consumed.SessionID,
			Scopes:    consumed.Scopes,
			Claims:    expandGrantClaims(consumed.Claims),
		}
		req.ConsumedGrant = consumed
		req.AuthTime, req.AMR = grantAuthContext(consumed)
		if grantType == constants.GrantTypeAuthorizationCode {
			req.Code = handle
		}

	default:
		writeJSON(w, http.StatusBadRequest, &model.ErrorResponse{
			Error:            constants.ErrorUnsupportedGrantType,
			ErrorDescription: "unsupported grant_type",
		})
		return
	}

	response, err := s.issuer.Issue(r.Context(), req)
	if err != nil {
		status := http.StatusBadRequest
		errorCode := constants.ErrorInvalidGrant
		if errors.Is(err, token.ErrMissingSigningCredentials) {
			status = http.StatusInternalServerError
			errorCode = constants.ErrorServerError
		}
		writeJSON(w, status, &model.ErrorResponse{
			Error:            errorCode,
			ErrorDescription: "token issuance failed",
		})
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// HandleJWKSRequest serves the public signing keys.
func (s *OAuthService) HandleJWKSRequest(w http.ResponseWriter, r *http.Request) {
	jwks, err := s.credentials.GetPublicJWKS()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, &model.ErrorResponse{
			Error:            constants.ErrorServerError,
			ErrorDescription: "signing keys unavailable",
		})
		return
	}
	writeJSON(w, http.StatusOK, jwks)
}

// consumeGrant resolves and single-uses a code or refresh handle. Under the
// re-use refresh policy the handle is left in place for the next exchange.
func (s *OAuthService) consumeGrant(r *http.Request, grantType constants.GrantType,
	handle string, app application.OAuthApplication) (*grants.GrantRecord, *model.ErrorResponse) {
	invalidGrant := &model.ErrorResponse{
		Error:            constants.ErrorInvalidGrant,
		ErrorDescription: "grant is invalid or expired",
	}

	if handle == "" {
		return nil, invalidGrant
	}
	consumed, err := s.grantStore.Get(r.Context(), handle)
	if err != nil || consumed.ClientID != app.ClientID {
		return nil, invalidGrant
	}

	// Authorization codes are single-use; losing the removal race means
	// another exchange already spent this code. Refresh handles are removed
	// by the issuer itself when the rotation policy demands it.
	if grantType == constants.GrantTypeAuthorizationCode {
		if pkceErr := verifyCodeProof(r, consumed, app); pkceErr != nil {
			// A code presented with a bad proof burns like any other use.
			_ = s.grantStore.Remove(r.Context(), handle)
			return nil, pkceErr
		}
		if err := s.grantStore.Remove(r.Context(), handle); err != nil {
			return nil, invalidGrant
		}
	}
	return consumed, nil
}

// verifyCodeProof checks the code_verifier against the challenge bound to the
// code at authorize time. A PKCE-required client never gets a challenge-less
// code past this point.
func verifyCodeProof(r *http.Request, record *grants.GrantRecord,
	app application.OAuthApplication) *model.ErrorResponse {
	challenge := record.Data[grants.DataKeyCodeChallenge]
	if challenge == "" {
		if app.PKCERequired {
			return &model.ErrorResponse{
				Error:            constants.ErrorInvalidGrant,
				ErrorDescription: "code was issued without the required PKCE challenge",
			}
		}
		return nil
	}
	return pkce.ValidateCodeVerifier(r.PostFormValue("code_verifier"), challenge,
		record.Data[grants.DataKeyCodeChallengeMethod])
}

// grantAuthContext restores the authentication time and method references
// persisted on the grant record, zero-valued when absent.
func grantAuthContext(record *grants.GrantRecord) (time.Time, []string) {
	var authTime time.Time
	if seconds, err := strconv.ParseInt(record.Data[grants.DataKeyAuthTime], 10, 64); err == nil {
		authTime = time.Unix(seconds, 0)
	}
	return authTime, utils.ParseScopes(record.Data[grants.DataKeyAuthMethods])
}

// codeGrantData captures the grant-time context an authorization code must
// carry into the token exchange.
func codeGrantData(grant model.GrantResult) map[string]string {
	data := make(map[string]string)
	if !grant.AuthTime.IsZero() {
		data[grants.DataKeyAuthTime] = strconv.FormatInt(grant.AuthTime.Unix(), 10)
	}
	if len(grant.AuthMethods) > 0 {
		data[grants.DataKeyAuthMethods] = strings.Join(grant.AuthMethods, " ")
	}
	if challenge, ok := grant.CustomData[grants.DataKeyCodeChallenge].(string); ok && challenge != "" {
		data[grants.DataKeyCodeChallenge] = challenge
		if method, ok := grant.CustomData[grants.DataKeyCodeChallengeMethod].(string); ok {
			data[grants.DataKeyCodeChallengeMethod] = method
		}
	}
	if len(data) == 0 {
		return nil
	}
	return data
}

// resolveSession loads the session presented via cookie, if any.
func (s *OAuthService) resolveSession(r *http.Request) *coordinator.Session {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	found, err := s.sessionService.Get(r.Context(), cookie.Value)
	if err != nil {
		return nil
	}
	return &coordinator.Session{
		UserID:     found.UserID,
		SessionID:  found.ID,
		AuthTime:   found.AuthTime,
		AuthMethod: found.AuthMethod,
	}
}

// writeCoordinatorResult translates a coordinator result onto the wire.
func (s *OAuthService) writeCoordinatorResult(w http.ResponseWriter, r *http.Request,
	result coordinator.Result) {
	switch result.Type {
	case coordinator.ResultRedirect:
		http.Redirect(w, r, result.RedirectURL, http.StatusFound)
	case coordinator.ResultChallenge:
		if result.AuthRequirements != nil {
			writeJSON(w, result.StatusCode, map[string]interface{}{
				"auth_requirements": result.AuthRequirements,
			})
			return
		}
		writeJSON(w, result.StatusCode, map[string]interface{}{
			"consent_requirements": result.ConsentRequirements,
		})
	default:
		status := result.StatusCode
		if status == 0 {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, result.Error)
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set(headerContentType, contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.GetLogger().Error("Failed to encode response body", log.Error(err))
	}
}

// stringifyGrantClaims flattens claim values for grant persistence.
func stringifyGrantClaims(claims map[string]interface{}) map[string]string {
	if len(claims) == 0 {
		return nil
	}
	flattened := make(map[string]string, len(claims))
	for key, value := range claims {
		if text, ok := value.(string); ok {
			flattened[key] = text
			continue
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			continue
		}
		flattened[key] = string(encoded)
	}
	return flattened
}

// expandGrantClaims restores persisted claim values, decoding JSON where the
// value was not a plain string.
func expandGrantClaims(claims map[string]string) map[string]interface{} {
	if len(claims) == 0 {
		return nil
	}
	expanded := make(map[string]interface{}, len(claims))
	for key, value := range claims {
		var decoded interface{}
		if err := json.Unmarshal([]byte(value), &decoded); err == nil {
			if _, isString := decoded.(string); !isString {
				expanded[key] = decoded
				continue
			}
		}
		expanded[key] = value
	}
	return expanded
}
