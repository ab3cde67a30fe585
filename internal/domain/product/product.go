// Package product defines the data product catalog model.
package product

import "errors"

// Environment is the deployment stage a product is provisioned in.
type Environment string

const (
	EnvDev     Environment = "dev"
	EnvStaging Environment = "staging"
	EnvProd    Environment = "prod"
)

// ValidEnvironments is the set of all valid product environments.
var ValidEnvironments = map[Environment]bool{
	EnvDev:     true,
	EnvStaging: true,
	EnvProd:    true,
}

// DataProduct is a catalog entry. The product name doubles as the owning
// domain: one product per domain. The broker only ever reads these records;
// provisioning happens outside through the registry.
type DataProduct struct {
	Name              string      `json:"name"`
	Environment       Environment `json:"environment"`
	Region            string      `json:"region"`
	EncryptionEnabled bool        `json:"encryption_enabled"`
	PublicAccess      bool        `json:"public_access"`
}

// OwningDomain returns the domain that owns this product.
func (p DataProduct) OwningDomain() string {
	return p.Name
}

// EncryptionConfig mirrors the nested encryption block of provisioning input.
type EncryptionConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// ProvisionRequest is the input for requesting a new data product. It is
// validated against compliance policy before being queued.
type ProvisionRequest struct {
	Name         string           `json:"name"`
	Environment  string           `json:"environment"`
	Region       string           `json:"region"`
	Encryption   EncryptionConfig `json:"encryption"`
	PublicAccess bool             `json:"public_access"`
}

// Validate checks structural requirements; compliance checks are separate.
func (r *ProvisionRequest) Validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	if len(r.Name) > 128 {
		return errors.New("name too long (max 128 chars)")
	}
	if r.Environment == "" {
		return errors.New("environment is required")
	}
	if r.Region == "" {
		return errors.New("region is required")
	}
	return nil
}
