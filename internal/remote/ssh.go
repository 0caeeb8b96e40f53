// Package remote runs commands on other hosts over SSH.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

var (
	ErrHostRequired = errors.New("remote: ssh host is required")
	ErrUserRequired = errors.New("remote: ssh user is required")
	ErrKeyRequired  = errors.New("remote: ssh key path is required")
)

const defaultPort = "22"

// SSHRunner is the connection recipe for one host. Timeout bounds the
// TCP dial and the SSH handshake together.
type SSHRunner struct {
	Host                        string
	Port                        string
	User                        string
	KeyPath                     string
	KnownHostsPath              string
	InsecureSkipHostKeyChecking bool
	Timeout                     time.Duration
}

// Conn is an open SSH client. It satisfies tools.CommandRunner so one
// connection can serve a sequence of commands.
type Conn struct {
	client *ssh.Client
}

// Dial connects and authenticates. Cancelling ctx aborts the dial or
// the handshake, whichever is in progress.
func (r SSHRunner) Dial(ctx context.Context) (*Conn, error) {
	addr, err := r.address()
	if err != nil {
		return nil, err
	}
	cfg, err := r.clientConfig()
	if err != nil {
		return nil, err
	}

	var deadline time.Time
	if r.Timeout > 0 {
		deadline = time.Now().Add(r.Timeout)
	}
	dialer := net.Dialer{Deadline: deadline}
	nc, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("ssh dial %s: %w", addr, err)
	}

	client, err := handshake(ctx, nc, addr, cfg, deadline)
	if err != nil {
		return nil, fmt.Errorf("ssh handshake %s: %w", addr, err)
	}
	return &Conn{client: client}, nil
}

// handshake runs the SSH negotiation on nc until deadline or ctx ends.
// nc is closed on any failure.
func handshake(ctx context.Context, nc net.Conn, addr string, cfg *ssh.ClientConfig, deadline time.Time) (*ssh.Client, error) {
	if err := nc.SetDeadline(deadline); err != nil {
		nc.Close()
		return nil, err
	}
	stop := context.AfterFunc(ctx, func() { nc.Close() })

	cc, chans, reqs, err := ssh.NewClientConn(nc, addr, cfg)
	interrupted := !stop()
	if err != nil {
		nc.Close()
		if interrupted {
			return nil, ctx.Err()
		}
		return nil, err
	}
	if interrupted {
		cc.Close()
		return nil, ctx.Err()
	}
	if err := nc.SetDeadline(time.Time{}); err != nil {
		cc.Close()
		return nil, err
	}
	return ssh.NewClient(cc, chans, reqs), nil
}

// Run executes one quoted command line in a fresh session.
func (c *Conn) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, int32, error) {
	session, err := c.client.NewSession()
	if err != nil {
		return nil, nil, 1, err
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	stop := context.AfterFunc(ctx, func() { session.Close() })
	defer stop()

	err = session.Run(commandLine(name, args))
	switch {
	case err == nil:
		return stdout.Bytes(), stderr.Bytes(), 0, nil
	case ctx.Err() != nil:
		return stdout.Bytes(), stderr.Bytes(), 1, ctx.Err()
	}
	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		return stdout.Bytes(), stderr.Bytes(), int32(exitErr.ExitStatus()), err
	}
	return stdout.Bytes(), stderr.Bytes(), 1, err
}

func (c *Conn) Close() error {
	return c.client.Close()
}

// commandLine single-quotes every word for the remote POSIX shell.
func commandLine(name string, args []string) string {
	words := make([]string, 0, len(args)+1)
	words = append(words, quote(name))
	for _, arg := range args {
		words = append(words, quote(arg))
	}
	return strings.Join(words, " ")
}

func quote(word string) string {
	return "'" + strings.ReplaceAll(word, "'", `'\''`) + "'"
}

func (r SSHRunner) address() (string, error) {
	host := strings.TrimSpace(r.Host)
	switch {
	case host == "":
		return "", ErrHostRequired
	case r.Port != "":
		return net.JoinHostPort(host, r.Port), nil
	}
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host, nil
	}
	return net.JoinHostPort(host, defaultPort), nil
}

func (r SSHRunner) clientConfig() (*ssh.ClientConfig, error) {
	if r.User == "" {
		return nil, ErrUserRequired
	}
	auth, err := r.publicKeyAuth()
	if err != nil {
		return nil, err
	}
	hostKeys, err := r.hostKeyCallback()
	if err != nil {
		return nil, err
	}
	return &ssh.ClientConfig{
		User:            r.User,
		Auth:            []ssh.AuthMethod{auth},
		HostKeyCallback: hostKeys,
		Timeout:         r.Timeout,
	}, nil
}

func (r SSHRunner) publicKeyAuth() (ssh.AuthMethod, error) {
	if r.KeyPath == "" {
		return nil, ErrKeyRequired
	}
	pem, err := os.ReadFile(r.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("read ssh key: %w", err)
	}
	signer, err := ssh.ParsePrivateKey(pem)
	if err != nil {
		return nil, fmt.Errorf("parse ssh key %s: %w", r.KeyPath, err)
	}
	return ssh.PublicKeys(signer), nil
}

func (r SSHRunner) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if r.InsecureSkipHostKeyChecking {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	path := strings.TrimSpace(r.KnownHostsPath)
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("known_hosts path unset: %w", err)
		}
		path = filepath.Join(home, ".ssh", "known_hosts")
	}
	return knownhosts.New(path)
}
