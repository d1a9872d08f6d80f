package azure

import (
	"fmt"

	"github.com/gobeaver/storekit"
)

// Credentials holds the account parameters of an Azure Blob store.
// A connection string takes precedence over the account name and key.
type Credentials struct {
	AccountName      string `mapstructure:"account_name"`
	AccountKey       string `mapstructure:"account_key"`
	ConnectionString string `mapstructure:"connection_string"`
	// Endpoint overrides the service URL derived from the account name.
	Endpoint string `mapstructure:"endpoint"`
}

// Resolve fills the fields left empty in explicit from cfg.
func Resolve(explicit Credentials, cfg *storekit.Config) (Credentials, error) {
	if cfg == nil {
		cfg = &storekit.Config{}
	}

	c := explicit
	if c.ConnectionString == "" {
		c.ConnectionString = cfg.AzureConnectionString
	}
	if c.AccountName == "" {
		c.AccountName = cfg.AzureAccountName
	}
	if c.AccountKey == "" {
		c.AccountKey = cfg.AzureAccountKey
	}

	if c.ConnectionString != "" {
		return c, nil
	}
	if c.AccountName == "" || c.AccountKey == "" {
		return Credentials{}, fmt.Errorf("%w: azure needs a connection string or an account name and key", storekit.ErrConfiguration)
	}
	return c, nil
}

// ServiceURL returns the blob service URL of the account.
func (c Credentials) ServiceURL() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return fmt.Sprintf("https://%s.blob.core.windows.net/", c.AccountName)
}

// Environ returns the credentials in the variables read by Azure tooling.
func (c Credentials) Environ() []string {
	var env []string
	if c.AccountName != "" {
		env = append(env, "AZURE_STORAGE_ACCOUNT="+c.AccountName)
	}
	if c.AccountKey != "" {
		env = append(env, "AZURE_STORAGE_KEY="+c.AccountKey)
	}
	if c.ConnectionString != "" {
		env = append(env, "AZURE_STORAGE_CONNECTION_STRING="+c.ConnectionString)
	}
	return env
}
