package secrets

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"go.uber.org/zap"
)

// VaultClient reads secrets from Azure Key Vault.
// Credentials come from DefaultAzureCredential (env vars, managed identity or az cli).
type VaultClient struct {
	client *azsecrets.Client
	logger *zap.Logger
}

// NewVaultClient creates a new Azure Key Vault client
func NewVaultClient(vaultName string, logger *zap.Logger) (*VaultClient, error) {
	if vaultName == "" {
		return nil, fmt.Errorf("vault name is required")
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	vaultURL := fmt.Sprintf("https://%s.vault.azure.net/", vaultName)
	client, err := azsecrets.NewClient(vaultURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Key Vault client: %w", err)
	}

	logger.Info("Azure Key Vault client initialized", zap.String("vault_url", vaultURL))
	return &VaultClient{client: client, logger: logger}, nil
}

// GetSecret retrieves the latest version of a secret
func (v *VaultClient) GetSecret(ctx context.Context, name string) (string, error) {
	resp, err := v.client.GetSecret(ctx, name, "", nil)
	if err != nil {
		v.logger.Error("Failed to get secret from Key Vault",
			zap.String("secret_name", name),
			zap.Error(err),
		)
		return "", fmt.Errorf("failed to get secret '%s': %w", name, err)
	}
	if resp.Value == nil {
		return "", fmt.Errorf("secret '%s' has no value", name)
	}
	return *resp.Value, nil
}

// CachedGetter memoizes another getter for a fixed TTL
type CachedGetter struct {
	next  Getter
	ttl   time.Duration
	now   func() time.Time
	mu    sync.Mutex
	cache map[string]cachedSecret
}

type cachedSecret struct {
	value     string
	expiresAt time.Time
}

// NewCachedGetter wraps next with a TTL cache (5 minutes when ttl is zero)
func NewCachedGetter(next Getter, ttl time.Duration) *CachedGetter {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedGetter{
		next:  next,
		ttl:   ttl,
		now:   time.Now,
		cache: make(map[string]cachedSecret),
	}
}

// GetSecret returns the cached value or fetches and caches it
func (c *CachedGetter) GetSecret(ctx context.Context, name string) (string, error) {
	c.mu.Lock()
	if cached, ok := c.cache[name]; ok && c.now().Before(cached.expiresAt) {
		c.mu.Unlock()
		return cached.value, nil
	}
	c.mu.Unlock()

	value, err := c.next.GetSecret(ctx, name)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.cache[name] = cachedSecret{value: value, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return value, nil
}

// Clear drops all cached secrets
func (c *CachedGetter) Clear() {
	c.mu.Lock()
	c.cache = make(map[string]cachedSecret)
	c.mu.Unlock()
}
