package sftp

import (
	"fmt"
	"net"
	"strconv"

	"github.com/gobeaver/storekit"
)

const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 22
	DefaultUser = "root"
)

// Credentials holds the connection parameters of an SFTP server.
type Credentials struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	User           string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	PrivateKeyFile string `mapstructure:"private_key_file"`
	// KnownHostsFile enables host key verification. Without it any host key
	// is accepted.
	KnownHostsFile string `mapstructure:"known_hosts_file"`
}

// Resolve fills the fields left empty in explicit from cfg, then from the
// package defaults. A password or a private key file is required.
func Resolve(explicit Credentials, cfg *storekit.Config) (Credentials, error) {
	if cfg == nil {
		cfg = &storekit.Config{}
	}

	c := explicit
	if c.Host == "" {
		c.Host = cfg.SFTPHost
	}
	if c.Port == 0 {
		c.Port = cfg.SFTPPort
	}
	if c.User == "" {
		c.User = cfg.SFTPUser
	}
	if c.Password == "" {
		c.Password = cfg.SFTPPassword
	}
	if c.PrivateKeyFile == "" {
		c.PrivateKeyFile = cfg.SFTPPrivateKeyFile
	}
	if c.KnownHostsFile == "" {
		c.KnownHostsFile = cfg.SFTPKnownHostsFile
	}

	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.User == "" {
		c.User = DefaultUser
	}

	if c.Password == "" && c.PrivateKeyFile == "" {
		return Credentials{}, fmt.Errorf("%w: sftp needs a password or a private key file", storekit.ErrConfiguration)
	}
	return c, nil
}

// Addr returns the host:port dial address.
func (c Credentials) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
