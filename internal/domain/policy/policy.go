// Package policy defines the compliance rules applied to product provisioning
// requests. Rules govern which environments and regions products may live in
// and which security settings are mandatory.
package policy

import (
	"fmt"
	"slices"
	"strings"

	"github.com/datamesh-io/marketplace/internal/domain/product"
)

// ViolationError carries every rule violation found in a provisioning
// request so callers can surface them field by field.
type ViolationError struct {
	Violations []string
}

func (e *ViolationError) Error() string {
	return "policy violation: " + strings.Join(e.Violations, "; ")
}

// Rules is the compliance rule set for provisioning requests.
type Rules struct {
	General struct {
		AllowedEnvironments []string `yaml:"allowed_environments"`
	} `yaml:"general"`
	Residency struct {
		// RequiredRegion pins all products to one region for data residency.
		RequiredRegion string `yaml:"region"`
	} `yaml:"residency"`
	Security struct {
		RequireEncryption  bool `yaml:"require_encryption"`
		ForbidPublicAccess bool `yaml:"forbid_public_access"`
	} `yaml:"security"`
}

// Defaults returns the rule set enforced when no policy file is configured.
func Defaults() Rules {
	var r Rules
	r.General.AllowedEnvironments = []string{string(product.EnvDev), string(product.EnvStaging), string(product.EnvProd)}
	r.Residency.RequiredRegion = "eu-central-1"
	r.Security.RequireEncryption = true
	r.Security.ForbidPublicAccess = true
	return r
}

// Evaluate checks a provisioning request against the rules and returns every
// violation, not just the first, so the caller can surface them field by field.
func (r Rules) Evaluate(req *product.ProvisionRequest) []string {
	var errs []string

	if !slices.Contains(r.General.AllowedEnvironments, req.Environment) {
		errs = append(errs, fmt.Sprintf("invalid environment %q, allowed: %v", req.Environment, r.General.AllowedEnvironments))
	}

	if r.Residency.RequiredRegion != "" && req.Region != r.Residency.RequiredRegion {
		errs = append(errs, fmt.Sprintf("invalid region %q, compliance requires %q", req.Region, r.Residency.RequiredRegion))
	}

	if r.Security.RequireEncryption && !req.Encryption.Enabled {
		errs = append(errs, "encryption must be enabled for all data products")
	}

	if r.Security.ForbidPublicAccess && req.PublicAccess {
		errs = append(errs, "public access is prohibited, use private connectivity")
	}

	return errs
}
