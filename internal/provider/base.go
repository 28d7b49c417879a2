package provider

import "context"

// BaseProvider provides common functionality for provider implementations.
// Embed this in concrete providers to simplify implementation.
type BaseProvider struct {
	info        ProviderInfo
	credentials map[string]string
}

// NewBaseProvider creates a base provider.
func NewBaseProvider(name, description, website string, creds []ProviderCredential, caps ...Capability) BaseProvider {
	return BaseProvider{
		info: ProviderInfo{
			Name:         name,
			Description:  description,
			Website:      website,
			Credentials:  creds,
			Capabilities: caps,
		},
		credentials: make(map[string]string),
	}
}

func (bp *BaseProvider) Info() ProviderInfo { return bp.info }

func (bp *BaseProvider) Init(credentials map[string]string) error {
	if err := bp.validate(credentials); err != nil {
		return err
	}
	bp.credentials = credentials
	return nil
}

// Validate reports whether the stored credentials satisfy every required
// credential. Providers call it before each authenticated request so a
// missing key surfaces at first use.
func (bp *BaseProvider) Validate() error {
	return bp.validate(bp.credentials)
}

func (bp *BaseProvider) validate(credentials map[string]string) error {
	for _, cred := range bp.info.Credentials {
		if !cred.Required {
			continue
		}
		if val, ok := credentials[cred.Name]; !ok || val == "" {
			return &ErrInvalidCredentials{
				Provider: bp.info.Name,
				Detail:   "missing required credential: " + cred.Name,
			}
		}
	}
	return nil
}

func (bp *BaseProvider) Ping(ctx context.Context) error {
	return nil // Override in concrete providers.
}

// Supports reports whether the provider declares the capability.
func (bp *BaseProvider) Supports(c Capability) bool {
	for _, have := range bp.info.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// Credential returns a stored credential value.
func (bp *BaseProvider) Credential(name string) string {
	return bp.credentials[name]
}
