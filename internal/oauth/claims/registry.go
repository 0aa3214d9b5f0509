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
	"fmt"
	"sort"
	"sync"
)

// Registry maps provider names to providers, resolved once at startup.
type Registry struct {
	providers map[string]ProviderInterface
	mu        sync.RWMutex
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]ProviderInterface),
	}
}

// Register adds a provider to the registry. Duplicate names are rejected.
func (r *Registry) Register(provider ProviderInterface) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := provider.Name()
	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("claims provider already registered: %s", name)
	}
	r.providers[name] = provider
	return nil
}

// Providers returns all registered providers ordered by descending priority.
// Names break priority ties so ordering stays deterministic.
func (r *Registry) Providers() []ProviderInterface {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ordered := make([]ProviderInterface, 0, len(r.providers))
	for _, provider := range r.providers {
		ordered = append(ordered, provider)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Priority() != ordered[j].Priority() {
			return ordered[i].Priority() > ordered[j].Priority()
		}
		return ordered[i].Name() < ordered[j].Name()
	})
	return ordered
}
