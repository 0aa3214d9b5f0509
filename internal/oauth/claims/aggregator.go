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
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/asgardeo/tempest/internal/system/log"
)

const defaultProviderTimeout = 5 * time.Second

// Aggregator collects claims from registered providers with deterministic
// priority-ordered merging.
type Aggregator struct {
	registry        *Registry
	providerTimeout time.Duration
	concurrent      bool
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithProviderTimeout bounds each provider call.
func WithProviderTimeout(timeout time.Duration) AggregatorOption {
	return func(a *Aggregator) {
		a.providerTimeout = timeout
	}
}

// WithConcurrentCollection fans provider calls out concurrently. The merge is
// still applied in strict priority order after all providers complete.
func WithConcurrentCollection() AggregatorOption {
	return func(a *Aggregator) {
		a.concurrent = true
	}
}

// NewAggregator creates a claims aggregator over the given registry.
func NewAggregator(registry *Registry, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		registry:        registry,
		providerTimeout: defaultProviderTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Collect gathers claims from all applicable providers. A provider that fails
// or times out is logged and skipped; it never aborts collection for others.
// When the subject is absent no provider is invoked and an empty map is returned.
func (a *Aggregator) Collect(ctx context.Context, claimsCtx ClaimsContext) map[string]interface{} {
	merged := make(map[string]interface{})
	if claimsCtx.SubjectID == "" {
		return merged
	}

	providers := a.applicableProviders(ctx, claimsCtx)
	if len(providers) == 0 {
		return merged
	}

	contributions := make([]map[string]interface{}, len(providers))
	if a.concurrent {
		group, groupCtx := errgroup.WithContext(ctx)
		for i, provider := range providers {
			group.Go(func() error {
				contributions[i] = a.callProvider(groupCtx, provider, claimsCtx)
				return nil
			})
		}
		// Provider errors are swallowed per provider, so Wait cannot fail.
		_ = group.Wait()
	} else {
		for i, provider := range providers {
			contributions[i] = a.callProvider(ctx, provider, claimsCtx)
		}
	}

	// Merge in strict priority order regardless of completion order.
	for _, contribution := range contributions {
		MergeClaims(merged, contribution, false)
	}
	return merged
}

// applicableProviders filters registered providers by trigger scopes,
// trigger protocols, and CanProvide, preserving priority order.
func (a *Aggregator) applicableProviders(ctx context.Context, claimsCtx ClaimsContext) []ProviderInterface {
	providers := []ProviderInterface{}
	for _, provider := range a.registry.Providers() {
		if !triggersMatch(provider.TriggerScopes(), claimsCtx.Scopes) {
			continue
		}
		if len(provider.TriggerProtocols()) > 0 &&
			!slices.Contains(provider.TriggerProtocols(), claimsCtx.Protocol) {
			continue
		}
		if !provider.CanProvide(ctx, claimsCtx) {
			continue
		}
		providers = append(providers, provider)
	}
	return providers
}

// callProvider invokes a single provider under its own timeout, degrading a
// failure to an empty contribution.
func (a *Aggregator) callProvider(ctx context.Context, provider ProviderInterface,
	claimsCtx ClaimsContext) map[string]interface{} {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "ClaimsAggregator"))

	providerCtx, cancel := context.WithTimeout(ctx, a.providerTimeout)
	defer cancel()

	claims, err := provider.GetClaims(providerCtx, claimsCtx)
	if err != nil {
		logger.Warn("Claims provider failed, skipping",
			log.String("provider", provider.Name()), log.Error(err))
		return nil
	}
	return claims
}

// triggersMatch reports whether any trigger scope is present in the request
// scopes. An empty trigger list matches everything.
func triggersMatch(triggerScopes, requestScopes []string) bool {
	if len(triggerScopes) == 0 {
		return true
	}
	for _, trigger := range triggerScopes {
		if slices.Contains(requestScopes, trigger) {
			return true
		}
	}
	return false
}

// MergeClaims merges src into dst per key. Two list-like values concatenate
// with de-duplication; a scalar meeting a list is absorbed into the list;
// two differing scalars combine into a list unless override is set, in which
// case the incoming value wins.
func MergeClaims(dst, src map[string]interface{}, override bool) {
	for key, newValue := range src {
		existing, present := dst[key]
		if !present {
			dst[key] = newValue
			continue
		}

		existingList, existingIsList := asList(existing)
		newList, newIsList := asList(newValue)

		switch {
		case existingIsList && newIsList:
			dst[key] = dedupeList(append(existingList, newList...))
		case existingIsList:
			dst[key] = dedupeList(append(existingList, newValue))
		case newIsList:
			dst[key] = dedupeList(append([]interface{}{existing}, newList...))
		case override:
			dst[key] = newValue
		case existing == newValue:
			// Same scalar value, nothing to merge.
		default:
			dst[key] = []interface{}{existing, newValue}
		}
	}
}

// asList normalizes list-like values to []interface{}.
func asList(value interface{}) ([]interface{}, bool) {
	switch v := value.(type) {
	case []interface{}:
		return v, true
	case []string:
		list := make([]interface{}, len(v))
		for i, s := range v {
			list[i] = s
		}
		return list, true
	default:
		return nil, false
	}
}

// dedupeList removes duplicates, preserving first-seen order.
func dedupeList(values []interface{}) []interface{} {
	result := make([]interface{}, 0, len(values))
	for _, v := range values {
		if !slices.Contains(result, v) {
			result = append(result, v)
		}
	}
	return result
}
