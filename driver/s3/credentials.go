package s3

import (
	"fmt"
	"strings"

	"github.com/gobeaver/storekit"
)

// DefaultRegion is used when a custom endpoint is configured without a region.
const DefaultRegion = "us-east-1"

// Credentials holds the connection parameters of an S3 or S3-compatible store.
// Nil flags fall back to the configuration source.
type Credentials struct {
	AccessKey    string `mapstructure:"access_key"`
	SecretKey    string `mapstructure:"secret_key"`
	SessionToken string `mapstructure:"session_token"`
	Region       string `mapstructure:"region_name"`
	EndpointURL  string `mapstructure:"endpoint_url"`
	UseSSL       *bool  `mapstructure:"use_ssl"`
	VerifySSL    *bool  `mapstructure:"verify_ssl"`
	LegacyAPI    *bool  `mapstructure:"legacy_api"`
}

func pick(explicit, fallback string) string {
	if explicit != "" {
		return explicit
	}
	return fallback
}

func pickBool(explicit *bool, fallback bool) *bool {
	if explicit != nil {
		return explicit
	}
	return &fallback
}

// Resolve fills the fields left empty in explicit from cfg. A key without
// its secret, or the reverse, is rejected; no keys at all selects the
// ambient AWS credential chain.
func Resolve(explicit Credentials, cfg *storekit.Config) (Credentials, error) {
	if cfg == nil {
		cfg = &storekit.Config{AWSUseSSL: true, AWSVerifySSL: true}
	}

	c := Credentials{
		AccessKey:    pick(explicit.AccessKey, cfg.AWSAccessKey),
		SecretKey:    pick(explicit.SecretKey, cfg.AWSSecretKey),
		SessionToken: pick(explicit.SessionToken, cfg.AWSSessionToken),
		Region:       pick(explicit.Region, cfg.AWSRegion),
		EndpointURL:  pick(explicit.EndpointURL, cfg.AWSEndpointURL),
		UseSSL:       pickBool(explicit.UseSSL, cfg.AWSUseSSL),
		VerifySSL:    pickBool(explicit.VerifySSL, cfg.AWSVerifySSL),
		LegacyAPI:    pickBool(explicit.LegacyAPI, cfg.AWSLegacyAPI),
	}

	if (c.AccessKey == "") != (c.SecretKey == "") {
		return Credentials{}, fmt.Errorf("%w: access key and secret key must be set together", storekit.ErrConfiguration)
	}
	if c.Region == "" && c.EndpointURL != "" {
		c.Region = DefaultRegion
	}
	return c, nil
}

// Static reports whether explicit keys were resolved.
func (c Credentials) Static() bool {
	return c.AccessKey != ""
}

// Endpoint returns the endpoint URL with a scheme chosen by UseSSL when the
// configured value has none.
func (c Credentials) Endpoint() string {
	if c.EndpointURL == "" || strings.Contains(c.EndpointURL, "://") {
		return c.EndpointURL
	}
	if c.UseSSL != nil && !*c.UseSSL {
		return "http://" + c.EndpointURL
	}
	return "https://" + c.EndpointURL
}

// Environ returns the credentials as AWS SDK environment variables.
func (c Credentials) Environ() []string {
	var env []string
	add := func(k, v string) {
		if v != "" {
			env = append(env, k+"="+v)
		}
	}
	add("AWS_ACCESS_KEY_ID", c.AccessKey)
	add("AWS_SECRET_ACCESS_KEY", c.SecretKey)
	add("AWS_SESSION_TOKEN", c.SessionToken)
	add("AWS_REGION", c.Region)
	add("AWS_ENDPOINT_URL", c.Endpoint())
	return env
}
