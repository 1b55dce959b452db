package recognize

import (
	"fmt"
	"time"
)

// Options select and configure a backend.
type Options struct {
	Backend       string
	Endpoint      string
	Lang          string
	Credentials   Credentials
	AzureEndpoint string
	AzureKey      string
	Timeout       time.Duration
}

// NewBackend builds the backend named by o.Backend. An empty name picks
// myscript when credentials are present and demo otherwise.
func NewBackend(o Options) (Backend, error) {
	name := o.Backend
	if name == "" {
		name = "demo"
		if o.Credentials.ApplicationKey != "" {
			name = "myscript"
		}
	}
	switch name {
	case "myscript":
		return NewMyScript(o.Endpoint, o.Credentials, o.Lang, o.Timeout), nil
	case "azure":
		return NewAzure(o.AzureEndpoint, o.AzureKey), nil
	case "demo":
		return Demo{}, nil
	}
	return nil, fmt.Errorf("unknown recognition backend %q", o.Backend)
}
