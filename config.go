package storekit

import (
	"strings"

	"github.com/gobeaver/beaver-kit/config"
)

// DefaultGCPScope is used when no scopes are configured for the GCS backend.
const DefaultGCPScope = "https://www.googleapis.com/auth/cloud-platform"

type Config struct {
	// S3 and S3-compatible object stores
	AWSAccessKey    string `env:"STOREKIT_AWS_ACCESS_KEY"`
	AWSSecretKey    string `env:"STOREKIT_AWS_SECRET_KEY"`
	AWSSessionToken string `env:"STOREKIT_AWS_SECURITY_TOKEN"`
	AWSRegion       string `env:"STOREKIT_AWS_REGION"`
	AWSEndpointURL  string `env:"STOREKIT_AWS_ENDPOINT_URL"`
	AWSUseSSL       bool   `env:"STOREKIT_AWS_USE_SSL,default:true"`
	AWSVerifySSL    bool   `env:"STOREKIT_AWS_VERIFY_SSL,default:true"`
	AWSLegacyAPI    bool   `env:"STOREKIT_AWS_LEGACY_API,default:false"`

	// Google Cloud Storage
	GCPKeyFilePath string `env:"STOREKIT_GCP_KEY_FILE_PATH"`
	GCPKeyFileDict string `env:"STOREKIT_GCP_KEY_FILE_DICT"` // inline service account JSON
	GCPScopes      string `env:"STOREKIT_GCP_SCOPES,default:https://www.googleapis.com/auth/cloud-platform"`

	// Azure Blob Storage
	AzureAccountName      string `env:"STOREKIT_AZURE_ACCOUNT_NAME"`
	AzureAccountKey       string `env:"STOREKIT_AZURE_ACCOUNT_KEY"`
	AzureConnectionString string `env:"STOREKIT_AZURE_CONNECTION_STRING"`

	// SFTP
	SFTPHost           string `env:"STOREKIT_SFTP_HOST,default:127.0.0.1"`
	SFTPPort           int    `env:"STOREKIT_SFTP_PORT,default:22"`
	SFTPUser           string `env:"STOREKIT_SFTP_USER,default:root"`
	SFTPPassword       string `env:"STOREKIT_SFTP_PASSWORD"`
	SFTPPrivateKeyFile string `env:"STOREKIT_SFTP_PRIVATE_KEY_FILE"`
	SFTPKnownHostsFile string `env:"STOREKIT_SFTP_KNOWN_HOSTS_FILE"`

	// Directory holding mounted dataset credential files (<id>.json)
	DatasetAuthMountPath string `env:"STOREKIT_DATASET_AUTH_MOUNT_PATH,default:/etc/storekit/datasets"`
}

// GetConfig returns config loaded from environment
func GetConfig() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig loads config from environment variables carrying the given prefix.
func LoadConfig(prefix string) (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg, config.LoadOptions{Prefix: prefix}); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Scopes splits the comma separated GCPScopes value.
func (c *Config) Scopes() []string {
	var scopes []string
	for _, s := range strings.Split(c.GCPScopes, ",") {
		if s = strings.TrimSpace(s); s != "" {
			scopes = append(scopes, s)
		}
	}
	if len(scopes) == 0 {
		return []string{DefaultGCPScope}
	}
	return scopes
}

// ResolveConfig returns cfg, or the environment config when cfg is nil.
func ResolveConfig(cfg *Config) (*Config, error) {
	if cfg != nil {
		return cfg, nil
	}
	return GetConfig()
}
