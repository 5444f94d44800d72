// Package oidc verifies bearer tokens issued by an external identity
// provider. With WithAccounts, provider subjects are linked to local user
// accounts so those callers own birth plans like any registered user.
package oidc

import (
	"context"
	"crypto"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/humanizapp/humanizapp/backend/go-services/internal/config"
	"github.com/humanizapp/humanizapp/backend/go-services/internal/models"
	"github.com/humanizapp/humanizapp/backend/go-services/pkg/middleware"
)

// Accounts links provider subjects to local users.
type Accounts interface {
	ResolveExternal(ctx context.Context, subject, name string) (*models.User, error)
}

// Verifier checks ID tokens against the provider's keys.
type Verifier struct {
	verifier *oidc.IDTokenVerifier
	accounts Accounts
}

// NewVerifier discovers the provider at issuer and verifies tokens whose
// audience includes clientID.
func NewVerifier(ctx context.Context, issuer, clientID string) (*Verifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	return &Verifier{verifier: provider.Verifier(&oidc.Config{ClientID: clientID})}, nil
}

// FromConfig returns nil, nil when no provider is configured.
func FromConfig(ctx context.Context, cfg config.OIDCConfig) (*Verifier, error) {
	issuer := cfg.Issuer()
	if issuer == "" || cfg.ClientID == "" {
		return nil, nil
	}
	return NewVerifier(ctx, issuer, cfg.ClientID)
}

// NewStaticVerifier verifies RS256 tokens against fixed public keys
// without contacting the provider.
func NewStaticVerifier(issuer, clientID string, keys ...crypto.PublicKey) *Verifier {
	ks := &oidc.StaticKeySet{PublicKeys: keys}
	return &Verifier{verifier: oidc.NewVerifier(issuer, ks, &oidc.Config{ClientID: clientID})}
}

// WithAccounts makes verified tokens carry the linked local user id as
// "sub" and the local role as "role". The provider subject moves to "idp_sub".
func (v *Verifier) WithAccounts(a Accounts) *Verifier {
	v.accounts = a
	return v
}

func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	if idToken.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	if v.accounts == nil {
		return idToken, nil
	}

	var claims map[string]interface{}
	if err := idToken.Claims(&claims); err != nil {
		return nil, err
	}
	u, err := v.accounts.ResolveExternal(ctx, idToken.Subject, displayName(claims))
	if err != nil {
		return nil, fmt.Errorf("resolve account for %s: %w", idToken.Subject, err)
	}
	claims["idp_sub"] = idToken.Subject
	claims["sub"] = u.ID
	delete(claims, "role")
	if u.Role != "" {
		claims["role"] = u.Role
	}
	return linkedToken(claims), nil
}

func displayName(claims map[string]interface{}) string {
	for _, k := range []string{"name", "preferred_username", "email"} {
		if s, _ := claims[k].(string); s != "" {
			return s
		}
	}
	return ""
}

// linkedToken is a verified token whose claims were rewritten for a local
// account.
type linkedToken map[string]interface{}

func (t linkedToken) Claims(v interface{}) error {
	b, err := json.Marshal(map[string]interface{}(t))
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
