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

// Package signing manages the server's token signing credentials.
package signing

import (
	"crypto"
	"crypto/rsa"
	_ "crypto/sha256" // registers SHA-256 for thumbprint computation
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"

	"github.com/asgardeo/tempest/internal/system/config"
)

var (
	instance *CredentialsProvider
	once     sync.Once
)

// Credentials holds a ready-to-use signing key.
type Credentials struct {
	Key       jwk.Key
	PublicKey jwk.Key
	Algorithm jwa.SignatureAlgorithm
	KeyID     string
}

// CredentialsProviderInterface hands out the active signing credentials.
type CredentialsProviderInterface interface {
	Init() error
	GetCredentials() (Credentials, error)
	GetPublicJWKS() (jwk.Set, error)
}

// CredentialsProvider loads an RSA private key from the configured key file
// and exposes it as a JWK with a thumbprint-derived key ID.
type CredentialsProvider struct {
	credentials Credentials
	loaded      bool
	mu          sync.RWMutex
}

// GetCredentialsProvider returns a singleton instance of CredentialsProvider.
func GetCredentialsProvider() CredentialsProviderInterface {
	once.Do(func() {
		instance = &CredentialsProvider{}
	})
	return instance
}

// Init loads the private key from the configured file path. Tokens cannot be
// issued without signing credentials, so callers must treat a failure as fatal.
func (cp *CredentialsProvider) Init() error {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	tempestRuntime := config.GetTempestRuntime()
	keyFilePath := path.Join(tempestRuntime.TempestHome, tempestRuntime.Config.Security.KeyFile)
	keyFilePath = filepath.Clean(keyFilePath)

	if _, err := os.Stat(keyFilePath); os.IsNotExist(err) {
		return errors.New("key file not found at " + keyFilePath)
	}

	keyData, err := os.ReadFile(keyFilePath)
	if err != nil {
		return err
	}

	privateKey, err := parseRSAPrivateKey(keyData)
	if err != nil {
		return err
	}

	credentials, err := buildCredentials(privateKey)
	if err != nil {
		return err
	}

	cp.credentials = credentials
	cp.loaded = true
	return nil
}

// GetCredentials returns the loaded signing credentials.
func (cp *CredentialsProvider) GetCredentials() (Credentials, error) {
	cp.mu.RLock()
	defer cp.mu.RUnlock()

	if !cp.loaded {
		return Credentials{}, errors.New("signing credentials not initialized")
	}
	return cp.credentials, nil
}

// GetPublicJWKS returns the public key set for the jwks endpoint.
func (cp *CredentialsProvider) GetPublicJWKS() (jwk.Set, error) {
	credentials, err := cp.GetCredentials()
	if err != nil {
		return nil, err
	}

	set := jwk.NewSet()
	if err := set.AddKey(credentials.PublicKey); err != nil {
		return nil, err
	}
	return set, nil
}

// parseRSAPrivateKey decodes a PEM-encoded PKCS1 or PKCS8 RSA private key.
func parseRSAPrivateKey(keyData []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(keyData)
	if block == nil {
		return nil, errors.New("failed to decode PEM block containing private key")
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.New("not an RSA private key")
		}
		return rsaKey, nil
	default:
		return nil, errors.New("unsupported private key type: " + block.Type)
	}
}

// buildCredentials wraps an RSA private key as a JWK pair with kid and alg set.
func buildCredentials(privateKey *rsa.PrivateKey) (Credentials, error) {
	key, err := jwk.FromRaw(privateKey)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to build JWK from private key: %w", err)
	}

	keyID, err := keyThumbprint(key)
	if err != nil {
		return Credentials{}, err
	}
	if err := key.Set(jwk.KeyIDKey, keyID); err != nil {
		return Credentials{}, err
	}
	if err := key.Set(jwk.AlgorithmKey, jwa.RS256); err != nil {
		return Credentials{}, err
	}

	publicKey, err := key.PublicKey()
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to derive public JWK: %w", err)
	}

	return Credentials{
		Key:       key,
		PublicKey: publicKey,
		Algorithm: jwa.RS256,
		KeyID:     keyID,
	}, nil
}

// keyThumbprint derives the key ID from the RFC 7638 JWK thumbprint.
func keyThumbprint(key jwk.Key) (string, error) {
	thumbprint, err := key.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", fmt.Errorf("failed to compute JWK thumbprint: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(thumbprint), nil
}
