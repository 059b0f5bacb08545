// Package sftp uploads released bundles to a host over SSH File Transfer Protocol.
package sftp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/avgplus/avg-release/internal/logger"
)

// DefaultPort is the SSH port used when Options.Port is zero.
const DefaultPort = 22

var (
	errNoAuthMethod = errors.New("no SSH password or private key configured")
	errNotConnected = errors.New("not connected")
)

// Options describe the SSH endpoint and credentials.
type Options struct {
	// Host is the SSH server host name or address.
	Host string
	// Port is the SSH server port.
	Port int
	// Username is the SSH login.
	Username string
	// Password authenticates the login, or decrypts the private key when both are set.
	Password string
	// PrivateKeyPath points to a PEM or OpenSSH private key.
	PrivateKeyPath string
	// KnownHostsPath enables host key verification against an OpenSSH known_hosts file.
	KnownHostsPath string
	// Timeout bounds dialing and the SSH handshake.
	Timeout time.Duration
}

// Client is an SFTP transport. One Client serves one deployment.
type Client struct {
	opts Options
	ssh  *ssh.Client
	sftp *sftp.Client
}

// New creates a disconnected client.
func New(opts Options) *Client {
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}

	return &Client{opts: opts}
}

// Connect dials the SSH server and opens the SFTP subsystem.
func (c *Client) Connect(ctx context.Context) error {
	config, err := c.clientConfig(ctx)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(c.opts.Host, strconv.Itoa(c.opts.Port))
	dialer := net.Dialer{Timeout: c.opts.Timeout}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}

	if c.opts.Timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(c.opts.Timeout))
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}

	_ = conn.SetDeadline(time.Time{})
	c.ssh = ssh.NewClient(sshConn, chans, reqs)

	c.sftp, err = sftp.NewClient(c.ssh)
	if err != nil {
		return fmt.Errorf("start sftp subsystem: %w", err)
	}

	return nil
}

func (c *Client) clientConfig(ctx context.Context) (*ssh.ClientConfig, error) {
	auth, err := c.authMethods()
	if err != nil {
		return nil, err
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey() //nolint:gosec // opt-in verification via known_hosts
	if c.opts.KnownHostsPath != "" {
		hostKeyCallback, err = knownhosts.New(c.opts.KnownHostsPath)
		if err != nil {
			return nil, fmt.Errorf("load known hosts: %w", err)
		}
	} else {
		logger.Warn(ctx, "Host key verification is disabled, set remote.known_hosts_path to enable it")
	}

	return &ssh.ClientConfig{
		User:            c.opts.Username,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         c.opts.Timeout,
	}, nil
}

func (c *Client) authMethods() ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	if c.opts.PrivateKeyPath != "" {
		pemBytes, err := os.ReadFile(c.opts.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("read private key: %w", err)
		}

		signer, err := ssh.ParsePrivateKey(pemBytes)

		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) && c.opts.Password != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(pemBytes, []byte(c.opts.Password))
		}

		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}

		methods = append(methods, ssh.PublicKeys(signer))
	}

	if c.opts.Password != "" {
		methods = append(methods, ssh.Password(c.opts.Password))
	}

	if len(methods) == 0 {
		return nil, errNoAuthMethod
	}

	return methods, nil
}

// Exists reports whether the remote path is present.
func (c *Client) Exists(_ context.Context, p string) (bool, error) {
	if c.sftp == nil {
		return false, errNotConnected
	}

	_, err := c.sftp.Stat(p)
	if err == nil {
		return true, nil
	}

	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	return false, err
}

// RemoveAll deletes the remote path recursively.
func (c *Client) RemoveAll(ctx context.Context, p string) error {
	if c.sftp == nil {
		return errNotConnected
	}

	info, err := c.sftp.Lstat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}

		return err
	}

	return c.removeAll(ctx, p, info)
}

func (c *Client) removeAll(ctx context.Context, p string, info fs.FileInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !info.IsDir() {
		return c.sftp.Remove(p)
	}

	entries, err := c.sftp.ReadDir(p)
	if err != nil {
		return fmt.Errorf("read %s: %w", p, err)
	}

	for _, entry := range entries {
		if err := c.removeAll(ctx, path.Join(p, entry.Name()), entry); err != nil {
			return err
		}
	}

	return c.sftp.RemoveDirectory(p)
}

// UploadDir copies the local tree to the remote path, creating directories as needed.
func (c *Client) UploadDir(ctx context.Context, src, dst string) error {
	if c.sftp == nil {
		return errNotConnected
	}

	return filepath.WalkDir(src, func(local string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(src, local)
		if err != nil {
			return err
		}

		remote := path.Join(dst, filepath.ToSlash(rel))

		if d.IsDir() {
			return c.sftp.MkdirAll(remote)
		}

		return c.uploadFile(local, remote)
	})
}

func (c *Client) uploadFile(local, remote string) error {
	in, err := os.Open(local)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := c.sftp.Create(remote)
	if err != nil {
		return fmt.Errorf("create %s: %w", remote, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("write %s: %w", remote, err)
	}

	return out.Close()
}

// Close shuts the SFTP session and the SSH connection.
func (c *Client) Close() error {
	var errs []error

	if c.sftp != nil {
		errs = append(errs, c.sftp.Close())
		c.sftp = nil
	}

	if c.ssh != nil {
		if err := c.ssh.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, err)
		}

		c.ssh = nil
	}

	return errors.Join(errs...)
}
