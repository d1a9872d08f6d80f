// Package sftp implements the SFTP backend on top of github.com/pkg/sftp.
package sftp

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"path"
	"sync"

	"github.com/gobeaver/storekit"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Adapter is the SFTP storekit.TreeBackend
type Adapter struct {
	mu       sync.Mutex
	explicit Credentials
	cfg      *storekit.Config
	logger   *slog.Logger

	client  *sftp.Client
	sshConn *ssh.Client
	owned   bool
}

// AdapterOption is a function that configures SFTP Adapter
type AdapterOption func(*Adapter)

// WithClient uses an established SFTP session instead of dialing on
// connect. The caller keeps ownership of the session.
func WithClient(client *sftp.Client) AdapterOption {
	return func(a *Adapter) {
		a.client = client
	}
}

// WithConfig sets the configuration source consulted on connect
func WithConfig(cfg *storekit.Config) AdapterOption {
	return func(a *Adapter) {
		a.cfg = cfg
	}
}

// WithLogger sets the adapter's logger
func WithLogger(logger *slog.Logger) AdapterOption {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// New creates an SFTP backend. The server is not contacted until Connect.
func New(creds Credentials, options ...AdapterOption) *Adapter {
	adapter := &Adapter{explicit: creds, logger: slog.Default()}
	for _, option := range options {
		option(adapter)
	}
	return adapter
}

// NewStore creates an SFTP backed storekit.TreeStore.
func NewStore(creds Credentials, options ...AdapterOption) *storekit.TreeStore {
	a := New(creds, options...)
	return storekit.NewTreeStore(a, a.logger)
}

func (a *Adapter) Type() storekit.StoreType {
	return storekit.TypeSFTP
}

// Connect dials the server and opens the SFTP subsystem. It is idempotent
// while the session is alive; a session opened by Connect that has dropped is
// closed and dialed again.
func (a *Adapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		if !a.owned {
			return nil
		}
		if _, err := a.client.Getwd(); err == nil {
			return nil
		}
		a.logger.Warn("sftp session lost, reconnecting")
		a.closeLocked()
	}

	cfg, err := storekit.ResolveConfig(a.cfg)
	if err != nil {
		return storekit.ConfigError("connect", "sftp", err)
	}
	creds, err := Resolve(a.explicit, cfg)
	if err != nil {
		return storekit.ConfigError("connect", "sftp", err)
	}

	sshConfig, err := a.clientConfig(creds)
	if err != nil {
		return storekit.ConfigError("connect", creds.Addr(), err)
	}

	a.logger.Info("connecting to SFTP server", "addr", creds.Addr(), "user", creds.User)

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", creds.Addr())
	if err != nil {
		return storekit.NewPathError("connect", creds.Addr(), storekit.ErrConnection, err)
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, creds.Addr(), sshConfig)
	if err != nil {
		conn.Close()
		return storekit.NewPathError("connect", creds.Addr(), storekit.ErrConnection, err)
	}
	sshConn := ssh.NewClient(c, chans, reqs)

	client, err := sftp.NewClient(sshConn)
	if err != nil {
		sshConn.Close()
		return storekit.NewPathError("connect", creds.Addr(), storekit.ErrConnection, err)
	}

	a.sshConn = sshConn
	a.client = client
	a.owned = true
	return nil
}

func (a *Adapter) clientConfig(creds Credentials) (*ssh.ClientConfig, error) {
	sshConfig := &ssh.ClientConfig{User: creds.User}

	if creds.PrivateKeyFile != "" {
		pem, err := os.ReadFile(creds.PrivateKeyFile)
		if err != nil {
			return nil, fmt.Errorf("read private key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(pem)
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		sshConfig.Auth = append(sshConfig.Auth, ssh.PublicKeys(signer))
	}
	if creds.Password != "" {
		sshConfig.Auth = append(sshConfig.Auth, ssh.Password(creds.Password))
	}

	if creds.KnownHostsFile != "" {
		callback, err := knownhosts.New(creds.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("load known hosts: %w", err)
		}
		sshConfig.HostKeyCallback = callback
	} else {
		a.logger.Warn("sftp host key verification disabled", "host", creds.Host)
		sshConfig.HostKeyCallback = ssh.InsecureIgnoreHostKey()
	}

	return sshConfig, nil
}

// Close ends the SFTP session and the SSH connection opened by Connect.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client == nil || !a.owned {
		return nil
	}
	return a.closeLocked()
}

// closeLocked releases an owned session. a.mu must be held.
func (a *Adapter) closeLocked() error {
	err := a.client.Close()
	if a.sshConn != nil {
		if cerr := a.sshConn.Close(); err == nil {
			err = cerr
		}
	}
	a.client = nil
	a.sshConn = nil
	a.owned = false
	return err
}

// ResolvePath maps sftp://host/path to /path. Addresses without a scheme
// are taken as remote paths.
func (a *Adapter) ResolvePath(addr storekit.Address) (string, error) {
	switch addr.Type {
	case storekit.TypeSFTP:
		return "/" + addr.Key, nil
	case storekit.TypeLocal, "":
		if addr.Key == "" {
			return ".", nil
		}
		return addr.Key, nil
	default:
		return "", &storekit.PathError{
			Op:   "resolve",
			Path: addr.String(),
			Err:  fmt.Errorf("%w: %s address on an sftp store", storekit.ErrInvalidAddress, addr.Type),
		}
	}
}

func (a *Adapter) Join(elem ...string) string {
	return path.Join(elem...)
}

func (a *Adapter) ReadDir(dir string) ([]fs.FileInfo, error) {
	return a.client.ReadDir(dir)
}

func (a *Adapter) Stat(p string) (fs.FileInfo, error) {
	return a.client.Stat(p)
}

func (a *Adapter) MkdirAll(dir string) error {
	return a.client.MkdirAll(dir)
}

func (a *Adapter) Remove(p string) error {
	return a.client.Remove(p)
}

func (a *Adapter) RemoveDir(p string) error {
	return a.client.RemoveDirectory(p)
}

func (a *Adapter) Open(p string) (io.ReadCloser, error) {
	return a.client.Open(p)
}

func (a *Adapter) Create(p string) (io.WriteCloser, error) {
	return a.client.Create(p)
}

var _ storekit.TreeBackend = (*Adapter)(nil)
