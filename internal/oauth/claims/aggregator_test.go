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

package claims

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

// stubProvider is a configurable test double for ProviderInterface.
type stubProvider struct {
	name      string
	priority  int
	scopes    []string
	protocols []string
	claims    map[string]interface{}
	err       error
	called    bool
}

func (p *stubProvider) Name() string               { return p.name }
func (p *stubProvider) Priority() int              { return p.priority }
func (p *stubProvider) TriggerScopes() []string    { return p.scopes }
func (p *stubProvider) TriggerProtocols() []string { return p.protocols }
func (p *stubProvider) CanProvide(_ context.Context, _ ClaimsContext) bool {
	return true
}

func (p *stubProvider) GetClaims(_ context.Context, _ ClaimsContext) (map[string]interface{}, error) {
	p.called = true
	if p.err != nil {
		return nil, p.err
	}
	return p.claims, nil
}

type ClaimsAggregatorTestSuite struct {
	suite.Suite
	registry *Registry
}

func TestClaimsAggregatorSuite(t *testing.T) {
	suite.Run(t, new(ClaimsAggregatorTestSuite))
}

func (suite *ClaimsAggregatorTestSuite) SetupTest() {
	suite.registry = NewRegistry()
}

func (suite *ClaimsAggregatorTestSuite) claimsCtx() ClaimsContext {
	return ClaimsContext{
		SubjectID: "user1",
		TenantID:  "tenant1",
		ClientID:  "client1",
		Protocol:  "oidc",
		Scopes:    []string{"openid", "profile"},
	}
}

func (suite *ClaimsAggregatorTestSuite) TestEmptySubjectSkipsProviders() {
	provider := &stubProvider{name: "profile", claims: map[string]interface{}{"name": "User One"}}
	suite.Require().NoError(suite.registry.Register(provider))

	claimsCtx := suite.claimsCtx()
	claimsCtx.SubjectID = ""

	merged := NewAggregator(suite.registry).Collect(context.Background(), claimsCtx)
	suite.Empty(merged)
	suite.False(provider.called)
}

func (suite *ClaimsAggregatorTestSuite) TestRoleListsFromTwoProvidersMerge() {
	suite.Require().NoError(suite.registry.Register(&stubProvider{
		name: "directory", priority: 10,
		claims: map[string]interface{}{"roles": "admin"},
	}))
	suite.Require().NoError(suite.registry.Register(&stubProvider{
		name: "workspace", priority: 5,
		claims: map[string]interface{}{"roles": "editor"},
	}))

	merged := NewAggregator(suite.registry).Collect(context.Background(), suite.claimsCtx())
	suite.Equal([]interface{}{"admin", "editor"}, merged["roles"])
}

func (suite *ClaimsAggregatorTestSuite) TestListConcatDeduplicates() {
	suite.Require().NoError(suite.registry.Register(&stubProvider{
		name: "directory", priority: 10,
		claims: map[string]interface{}{"groups": []string{"eng", "ops"}},
	}))
	suite.Require().NoError(suite.registry.Register(&stubProvider{
		name: "workspace", priority: 5,
		claims: map[string]interface{}{"groups": []string{"ops", "sre"}},
	}))

	merged := NewAggregator(suite.registry).Collect(context.Background(), suite.claimsCtx())
	suite.Equal([]interface{}{"eng", "ops", "sre"}, merged["groups"])
}

func (suite *ClaimsAggregatorTestSuite) TestScalarAbsorbedIntoList() {
	suite.Require().NoError(suite.registry.Register(&stubProvider{
		name: "directory", priority: 10,
		claims: map[string]interface{}{"groups": []string{"eng"}},
	}))
	suite.Require().NoError(suite.registry.Register(&stubProvider{
		name: "workspace", priority: 5,
		claims: map[string]interface{}{"groups": "eng"},
	}))

	merged := NewAggregator(suite.registry).Collect(context.Background(), suite.claimsCtx())
	suite.Equal([]interface{}{"eng"}, merged["groups"])
}

func (suite *ClaimsAggregatorTestSuite) TestFailingProviderIsSkipped() {
	suite.Require().NoError(suite.registry.Register(&stubProvider{
		name: "broken", priority: 10,
		err: errors.New("upstream unavailable"),
	}))
	suite.Require().NoError(suite.registry.Register(&stubProvider{
		name: "profile", priority: 5,
		claims: map[string]interface{}{"name": "User One"},
	}))

	merged := NewAggregator(suite.registry).Collect(context.Background(), suite.claimsCtx())
	suite.Equal("User One", merged["name"])
}

func (suite *ClaimsAggregatorTestSuite) TestTriggerScopeFiltering() {
	emailProvider := &stubProvider{
		name: "email", scopes: []string{"email"},
		claims: map[string]interface{}{"email": "user1@example.com"},
	}
	suite.Require().NoError(suite.registry.Register(emailProvider))

	merged := NewAggregator(suite.registry).Collect(context.Background(), suite.claimsCtx())
	suite.Empty(merged)
	suite.False(emailProvider.called)

	claimsCtx := suite.claimsCtx()
	claimsCtx.Scopes = append(claimsCtx.Scopes, "email")
	merged = NewAggregator(suite.registry).Collect(context.Background(), claimsCtx)
	suite.Equal("user1@example.com", merged["email"])
}

func (suite *ClaimsAggregatorTestSuite) TestTriggerProtocolFiltering() {
	suite.Require().NoError(suite.registry.Register(&stubProvider{
		name: "samlAttributes", protocols: []string{"saml"},
		claims: map[string]interface{}{"nameIdFormat": "persistent"},
	}))

	merged := NewAggregator(suite.registry).Collect(context.Background(), suite.claimsCtx())
	suite.Empty(merged)
}

func (suite *ClaimsAggregatorTestSuite) TestConcurrentCollectionMergesInPriorityOrder() {
	suite.Require().NoError(suite.registry.Register(&stubProvider{
		name: "directory", priority: 10,
		claims: map[string]interface{}{"roles": "admin", "department": "engineering"},
	}))
	suite.Require().NoError(suite.registry.Register(&stubProvider{
		name: "workspace", priority: 5,
		claims: map[string]interface{}{"roles": "editor"},
	}))

	aggregator := NewAggregator(suite.registry, WithConcurrentCollection())
	merged := aggregator.Collect(context.Background(), suite.claimsCtx())
	suite.Equal([]interface{}{"admin", "editor"}, merged["roles"])
	suite.Equal("engineering", merged["department"])
}

func (suite *ClaimsAggregatorTestSuite) TestMergeClaimsOverride() {
	dst := map[string]interface{}{"email": "old@example.com"}
	MergeClaims(dst, map[string]interface{}{"email": "new@example.com"}, true)
	suite.Equal("new@example.com", dst["email"])
}
