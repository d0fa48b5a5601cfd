// Package config handles loading and validating keygate configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with KEYGATE_* environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - The secret signing key and broker passwords belong in environment variables
//   - The config file should have restricted permissions (0600)
//   - Changing security.secret_signing_key invalidates every issued client secret
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.API.Port)
package config
