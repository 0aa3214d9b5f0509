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

// Package token mints access, ID, and refresh tokens with correct audiences,
// subject identifiers, and lifetimes.
package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/asgardeo/tempest/internal/application"
	"github.com/asgardeo/tempest/internal/oauth/grants"
	"github.com/asgardeo/tempest/internal/oauth/oauth2/constants"
	"github.com/asgardeo/tempest/internal/oauth/oauth2/model"
	"github.com/asgardeo/tempest/internal/oauth/signing"
	"github.com/asgardeo/tempest/internal/system/config"
	"github.com/asgardeo/tempest/internal/system/log"
	"github.com/asgardeo/tempest/internal/system/tasks"
	"github.com/asgardeo/tempest/internal/system/utils"
	"github.com/asgardeo/tempest/internal/tenant"
)

// ErrMissingSigningCredentials indicates the server cannot sign tokens.
// Callers must surface it as a fatal server_error.
var ErrMissingSigningCredentials = errors.New("signing credentials not available")

func init() {
	// Serialize a single audience as a string rather than a one-element array.
	jwt.Settings(jwt.WithFlattenAudience(true))
}

// IssuerInterface defines the token issuance operations.
type IssuerInterface interface {
	Issue(ctx context.Context, req IssueRequest) (model.TokenResponse, error)
	CreateAccessToken(ctx context.Context, req AccessTokenRequest) (AccessToken, error)
	CreateIDToken(ctx context.Context, req IDTokenRequest) (string, error)
	CreateRefreshToken(ctx context.Context, req RefreshTokenRequest) (string, error)
	ShouldIssueRefreshToken(ctx context.Context, app application.OAuthApplication,
		grantType constants.GrantType, scopes []string, consumed *grants.GrantRecord) (bool, error)
	ResolveIssuer(ctx context.Context, tenantID string) string
}

// Issuer implements IssuerInterface.
type Issuer struct {
	credentials signing.CredentialsProviderInterface
	grantStore  grants.StoreInterface
	appStore    application.StoreInterface
	tenantStore tenant.StoreInterface
	taskRunner  tasks.RunnerInterface
}

// IssuerOption configures optional issuer behavior.
type IssuerOption func(*Issuer)

// WithTaskRunner enables background side effects such as stamping the
// last-used time on re-used refresh grants.
func WithTaskRunner(runner tasks.RunnerInterface) IssuerOption {
	return func(ti *Issuer) {
		ti.taskRunner = runner
	}
}

// NewIssuer creates a token issuer over the given collaborators.
func NewIssuer(credentials signing.CredentialsProviderInterface, grantStore grants.StoreInterface,
	appStore application.StoreInterface, tenantStore tenant.StoreInterface, opts ...IssuerOption) *Issuer {
	issuer := &Issuer{
		credentials: credentials,
		grantStore:  grantStore,
		appStore:    appStore,
		tenantStore: tenantStore,
	}
	for _, opt := range opts {
		opt(issuer)
	}
	return issuer
}

// Issue produces the full token response for one satisfied grant.
func (ti *Issuer) Issue(ctx context.Context, req IssueRequest) (model.TokenResponse, error) {
	app := req.Application
	scopes := req.GrantResult.Scopes
	resolvedTenant := ti.lookupTenant(ctx, req.TenantID)

	accessToken, err := ti.CreateAccessToken(ctx, AccessTokenRequest{
		SubjectID:      req.GrantResult.SubjectID,
		ClientID:       app.ClientID,
		TenantID:       req.TenantID,
		SessionID:      req.GrantResult.SessionID,
		Scopes:         scopes,
		Claims:         req.GrantResult.Claims,
		DPoPThumbprint: req.DPoPThumbprint,
		IsReference:    app.UseReferenceAccessTokens,
		ValidityPeriod: accessTokenValidity(app, resolvedTenant),
	})
	if err != nil {
		return model.TokenResponse{}, err
	}

	response := model.TokenResponse{
		AccessToken: accessToken.Value,
		TokenType:   accessToken.TokenType,
		ExpiresIn:   accessToken.ExpiresIn,
		Scope:       strings.Join(scopes, " "),
	}

	// Client-credentials grants carry no user, so neither an ID token nor a
	// refresh token is ever issued for them.
	if req.GrantType == constants.GrantTypeClientCredentials || req.GrantResult.SubjectID == "" {
		return response, nil
	}

	if slices.Contains(scopes, constants.ScopeOpenID) {
		idToken, err := ti.CreateIDToken(ctx, IDTokenRequest{
			SubjectID:      req.GrantResult.SubjectID,
			PairwiseSalt:   app.PairwiseSubjectSalt,
			ClientID:       app.ClientID,
			TenantID:       req.TenantID,
			SessionID:      req.GrantResult.SessionID,
			Nonce:          req.Nonce,
			AuthTime:       req.AuthTime,
			AMR:            req.AMR,
			ACR:            req.ACR,
			AccessToken:    accessToken.Value,
			Code:           req.Code,
			Claims:         req.GrantResult.Claims,
			ValidityPeriod: idTokenValidity(app, resolvedTenant),
		})
		if err != nil {
			return model.TokenResponse{}, err
		}
		response.IDToken = idToken
	}

	shouldIssue, err := ti.ShouldIssueRefreshToken(ctx, app, req.GrantType, scopes, req.ConsumedGrant)
	if err != nil {
		return model.TokenResponse{}, err
	}
	if shouldIssue {
		refreshToken, err := ti.CreateRefreshToken(ctx, RefreshTokenRequest{
			SubjectID:      req.GrantResult.SubjectID,
			ClientID:       app.ClientID,
			TenantID:       req.TenantID,
			SessionID:      req.GrantResult.SessionID,
			Scopes:         scopes,
			Claims:         stringifyClaims(req.GrantResult.Claims),
			DPoPThumbprint: req.DPoPThumbprint,
			ValidityPeriod: refreshTokenValidity(app),
		})
		if err != nil {
			return model.TokenResponse{}, err
		}
		response.RefreshToken = refreshToken
	}

	// A re-used refresh handle stays live, so its last-used time is stamped
	// off the request path.
	if req.GrantType == constants.GrantTypeRefreshToken && req.ConsumedGrant != nil &&
		app.RefreshTokenRotation == application.RefreshTokenPolicyReUse && ti.taskRunner != nil {
		handle := req.ConsumedGrant.Handle
		ti.taskRunner.Submit(tasks.Task{
			Name: "grant-last-used",
			Run: func(taskCtx context.Context) error {
				return ti.grantStore.TouchLastUsed(taskCtx, handle)
			},
		})
	}

	return response, nil
}

// CreateAccessToken mints either an opaque reference token or a signed JWT.
func (ti *Issuer) CreateAccessToken(ctx context.Context, req AccessTokenRequest) (AccessToken, error) {
	validityPeriod := req.ValidityPeriod
	if validityPeriod == 0 {
		validityPeriod = config.GetTempestRuntime().Config.OAuth.AccessToken.ValidityPeriod
	}
	if validityPeriod == 0 {
		validityPeriod = defaultAccessTokenValidity
	}

	tokenType := constants.TokenTypeBearer
	if req.DPoPThumbprint != "" {
		tokenType = constants.TokenTypeDPoP
	}

	if req.IsReference {
		handle, err := ti.grantStore.Store(ctx, grants.GrantRecord{
			Type:           grants.GrantTypeReferenceToken,
			SubjectID:      req.SubjectID,
			ClientID:       req.ClientID,
			TenantID:       req.TenantID,
			SessionID:      req.SessionID,
			Scopes:         req.Scopes,
			Claims:         stringifyClaims(req.Claims),
			DPoPThumbprint: req.DPoPThumbprint,
			CreatedAt:      time.Now(),
			ExpiresAt:      time.Now().Add(time.Duration(validityPeriod) * time.Second),
		})
		if err != nil {
			return AccessToken{}, fmt.Errorf("failed to persist reference token: %w", err)
		}
		return AccessToken{Value: handle, TokenType: tokenType, ExpiresIn: validityPeriod}, nil
	}

	now := time.Now()
	builder := jwt.NewBuilder().
		Issuer(ti.ResolveIssuer(ctx, req.TenantID)).
		IssuedAt(now).
		NotBefore(now).
		Expiration(now.Add(time.Duration(validityPeriod)*time.Second)).
		JwtID(utils.GenerateUUID()).
		Claim("client_id", req.ClientID)

	if req.SubjectID != "" {
		builder = builder.Subject(req.SubjectID)
	}
	if len(req.Scopes) > 0 {
		builder = builder.Claim("scope", req.Scopes)
	}
	if req.SessionID != "" {
		builder = builder.Claim("sid", req.SessionID)
	}
	if req.TenantID != "" {
		builder = builder.Claim("tenant", req.TenantID)
	}
	if req.DPoPThumbprint != "" {
		builder = builder.Claim("cnf", map[string]interface{}{"jkt": req.DPoPThumbprint})
	}
	builder = builder.Audience(ti.resolveAudiences(ctx, req.TenantID, req.ClientID, req.Scopes))

	tok, err := builder.Build()
	if err != nil {
		return AccessToken{}, fmt.Errorf("failed to build access token: %w", err)
	}
	mergeTokenClaims(tok, req.Claims)

	signed, err := ti.sign(tok)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Value: signed, TokenType: tokenType, ExpiresIn: validityPeriod}, nil
}

// CreateIDToken mints a signed ID token with the pairwise subject transform
// applied when the client carries a pairwise salt.
func (ti *Issuer) CreateIDToken(ctx context.Context, req IDTokenRequest) (string, error) {
	validityPeriod := req.ValidityPeriod
	if validityPeriod == 0 {
		validityPeriod = config.GetTempestRuntime().Config.OAuth.IDToken.ValidityPeriod
	}
	if validityPeriod == 0 {
		validityPeriod = defaultIDTokenValidity
	}

	now := time.Now()
	builder := jwt.NewBuilder().
		Issuer(ti.ResolveIssuer(ctx, req.TenantID)).
		Subject(ComputeSubjectID(req.SubjectID, req.ClientID, req.PairwiseSalt)).
		Audience([]string{req.ClientID}).
		IssuedAt(now).
		NotBefore(now).
		Expiration(now.Add(time.Duration(validityPeriod) * time.Second))

	if req.Nonce != "" {
		builder = builder.Claim("nonce", req.Nonce)
	}
	if !req.AuthTime.IsZero() {
		builder = builder.Claim("auth_time", req.AuthTime.Unix())
	}
	if req.SessionID != "" {
		builder = builder.Claim("sid", req.SessionID)
	}
	if len(req.AMR) > 0 {
		builder = builder.Claim("amr", req.AMR)
	}
	if req.ACR != "" {
		builder = builder.Claim("acr", req.ACR)
	}
	if req.AccessToken != "" {
		builder = builder.Claim("at_hash", leftHalfHash(req.AccessToken))
	}
	if req.Code != "" {
		builder = builder.Claim("c_hash", leftHalfHash(req.Code))
	}

	tok, err := builder.Build()
	if err != nil {
		return "", fmt.Errorf("failed to build ID token: %w", err)
	}
	mergeTokenClaims(tok, req.Claims)

	return ti.sign(tok)
}

// CreateRefreshToken persists an opaque refresh grant and returns its handle.
func (ti *Issuer) CreateRefreshToken(ctx context.Context, req RefreshTokenRequest) (string, error) {
	validityPeriod := req.ValidityPeriod
	if validityPeriod == 0 {
		validityPeriod = config.GetTempestRuntime().Config.OAuth.RefreshToken.ValidityPeriod
	}
	if validityPeriod == 0 {
		validityPeriod = defaultRefreshTokenValidity
	}

	handle, err := ti.grantStore.Store(ctx, grants.GrantRecord{
		Type:           grants.GrantTypeRefreshToken,
		SubjectID:      req.SubjectID,
		ClientID:       req.ClientID,
		TenantID:       req.TenantID,
		SessionID:      req.SessionID,
		Scopes:         req.Scopes,
		Claims:         req.Claims,
		DPoPThumbprint: req.DPoPThumbprint,
		CreatedAt:      time.Now(),
		ExpiresAt:      time.Now().Add(time.Duration(validityPeriod) * time.Second),
	})
	if err != nil {
		return "", fmt.Errorf("failed to persist refresh token: %w", err)
	}
	return handle, nil
}

// ShouldIssueRefreshToken applies the refresh issuance policy. On the
// refresh_token grant under "rotate", the consumed handle is removed here so
// the old token stops validating no later than the new one starts.
func (ti *Issuer) ShouldIssueRefreshToken(ctx context.Context, app application.OAuthApplication,
	grantType constants.GrantType, scopes []string, consumed *grants.GrantRecord) (bool, error) {
	if !slices.Contains(scopes, constants.ScopeOfflineAccess) || !app.AllowOfflineAccess {
		return false, nil
	}

	if grantType == constants.GrantTypeRefreshToken {
		if app.RefreshTokenRotation != application.RefreshTokenPolicyRotate {
			return false, nil
		}
		if consumed == nil {
			return false, errors.New("refresh rotation requires the consumed grant record")
		}
		if err := ti.grantStore.Remove(ctx, consumed.Handle); err != nil {
			return false, fmt.Errorf("failed to invalidate rotated refresh token: %w", err)
		}
		return true, nil
	}

	return true, nil
}

// ResolveIssuer returns the issuer string for a tenant, trailing-slash-trimmed.
func (ti *Issuer) ResolveIssuer(ctx context.Context, tenantID string) string {
	issuer := config.GetTempestRuntime().Config.OAuth.Issuer

	if tenantID != "" {
		resolvedTenant, err := ti.tenantStore.GetTenant(ctx, tenantID)
		if err == nil {
			if resolvedTenant.IssuerOverride != "" {
				issuer = resolvedTenant.IssuerOverride
			} else if resolvedTenant.CustomDomain != "" {
				issuer = "https://" + resolvedTenant.CustomDomain
			}
		}
	}

	return strings.TrimRight(issuer, "/")
}

// resolveAudiences maps granted API scopes to their owning resource names.
// Identity scopes never contribute; with no matching resources the audience
// falls back to the client ID.
func (ti *Issuer) resolveAudiences(ctx context.Context, tenantID, clientID string,
	scopes []string) []string {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "TokenIssuer"))

	apiScopes := []string{}
	for _, scope := range scopes {
		if !slices.Contains(constants.IdentityScopes, scope) {
			apiScopes = append(apiScopes, scope)
		}
	}
	if len(apiScopes) == 0 {
		return []string{clientID}
	}

	resources, err := ti.appStore.GetResourcesByScopes(ctx, tenantID, apiScopes)
	if err != nil {
		logger.Warn("Failed to resolve API resources for audiences", log.Error(err))
		return []string{clientID}
	}
	if len(resources) == 0 {
		return []string{clientID}
	}

	audiences := make([]string, 0, len(resources))
	for _, resource := range resources {
		audiences = append(audiences, resource.Name)
	}
	return audiences
}

// sign serializes and signs a token with the server credentials.
func (ti *Issuer) sign(tok jwt.Token) (string, error) {
	credentials, err := ti.credentials.GetCredentials()
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrMissingSigningCredentials, err.Error())
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(credentials.Algorithm, credentials.Key))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return string(signed), nil
}

// lookupTenant resolves the tenant for lifetime defaults, tolerating absence.
func (ti *Issuer) lookupTenant(ctx context.Context, tenantID string) tenant.Tenant {
	if tenantID == "" {
		return tenant.Tenant{}
	}
	resolvedTenant, err := ti.tenantStore.GetTenant(ctx, tenantID)
	if err != nil {
		return tenant.Tenant{}
	}
	return resolvedTenant
}

// mergeTokenClaims appends user claims to a built token, skipping any claim
// the token already carries.
func mergeTokenClaims(tok jwt.Token, claims map[string]interface{}) {
	for key, value := range claims {
		if _, exists := tok.Get(key); exists {
			continue
		}
		// Set only fails on malformed registered claims, which the existence
		// check above already excludes.
		_ = tok.Set(key, value)
	}
}

// stringifyClaims flattens claim values for opaque grant persistence. Strings
// pass through; everything else is JSON-encoded.
func stringifyClaims(claims map[string]interface{}) map[string]string {
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
			flattened[key] = fmt.Sprint(value)
			continue
		}
		flattened[key] = string(encoded)
	}
	return flattened
}

func accessTokenValidity(app application.OAuthApplication, resolvedTenant tenant.Tenant) int64 {
	if app.AccessTokenValidityPeriod > 0 {
		return app.AccessTokenValidityPeriod
	}
	return resolvedTenant.AccessTokenValidityPeriod
}

func idTokenValidity(app application.OAuthApplication, resolvedTenant tenant.Tenant) int64 {
	if app.IDTokenValidityPeriod > 0 {
		return app.IDTokenValidityPeriod
	}
	return resolvedTenant.IDTokenValidityPeriod
}

// refreshTokenValidity picks the client absolute lifetime, shortened to the
// sliding lifetime when one is configured.
func refreshTokenValidity(app application.OAuthApplication) int64 {
	validityPeriod := app.RefreshTokenValidityPeriod
	if validityPeriod == 0 {
		validityPeriod = config.GetTempestRuntime().Config.OAuth.RefreshToken.ValidityPeriod
	}
	if validityPeriod == 0 {
		validityPeriod = defaultRefreshTokenValidity
	}

	sliding := app.RefreshTokenSlidingValidityPeriod
	if sliding == 0 {
		sliding = config.GetTempestRuntime().Config.OAuth.RefreshToken.SlidingValidityPeriod
	}
	if sliding > 0 && sliding < validityPeriod {
		return sliding
	}
	return validityPeriod
}
