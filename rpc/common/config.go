package common

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"github.com/spf13/cast"
	"math"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Connection configuration struct
// --------------------------------------------------------------------------

// Scheme selects the transport medium of a connection
type Scheme string

const (
	SchemeTCP  Scheme = "tcp"
	SchemeUnix Scheme = "unix"
	SchemeSSL  Scheme = "ssl"
)

const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 6379
)

// Config holds the fully resolved parameters of a single connection attempt.
// Timeouts are fractional seconds. A value of 0 means no wait: the operation
// fails with a timeout unless it can complete immediately.
type Config struct {
	Scheme Scheme
	Host   string
	Port   int
	Path   string // unix socket path

	ConnectTimeout float64
	ReadTimeout    float64

	// TLS settings, used when SSL is set or when a plain connect falls back to TLS
	SSL                   bool
	TLSServerName         string
	TLSInsecureSkipVerify bool
	TLSCAFile             string
}

// DefaultConfig returns a tcp configuration for the local default port
func DefaultConfig() Config {
	return Config{
		Scheme: SchemeTCP,
		Host:   DefaultHost,
		Port:   DefaultPort,
	}
}

// Address returns host:port for network schemes and the socket path for unix
func (c Config) Address() string {
	if c.Scheme == SchemeUnix {
		return c.Path
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate checks that the configuration can be used for a connect.
// An empty scheme is plain tcp.
func (c Config) Validate() error {
	switch c.Scheme {
	case SchemeUnix:
		if c.Path == "" {
			return fmt.Errorf("unix scheme requires a socket path")
		}
	case "", SchemeTCP, SchemeSSL:
		if c.Host == "" {
			return fmt.Errorf("host must not be empty")
		}
		if c.Port <= 0 || c.Port > math.MaxUint16 {
			return fmt.Errorf("invalid port %d", c.Port)
		}
	default:
		return fmt.Errorf("invalid scheme %q. must be one of tcp, unix, ssl", c.Scheme)
	}

	if err := validTimeout("connect_timeout", c.ConnectTimeout); err != nil {
		return err
	}
	return validTimeout("read_timeout", c.ReadTimeout)
}

// TLSConfig builds the client tls.Config for this configuration
func (c Config) TLSConfig() (*tls.Config, error) {
	serverName := c.TLSServerName
	if serverName == "" {
		serverName = c.Host
	}

	tlsConf := &tls.Config{
		ServerName:         serverName,
		InsecureSkipVerify: c.TLSInsecureSkipVerify,
		MinVersion:         tls.VersionTLS12,
	}

	if c.TLSCAFile != "" {
		pem, err := os.ReadFile(c.TLSCAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", c.TLSCAFile)
		}
		tlsConf.RootCAs = pool
	}

	return tlsConf, nil
}

// String returns a formatted string representation of the configuration
func (c Config) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Connection")
	addField("Scheme", string(c.Scheme))
	addField("Address", c.Address())
	addField("Connect Timeout", fmt.Sprintf("%g sec", c.ConnectTimeout))
	addField("Read Timeout", fmt.Sprintf("%g sec", c.ReadTimeout))

	if c.SSL || c.Scheme == SchemeSSL {
		addSection("TLS")
		addField("Server Name", c.TLSServerName)
		addField("Skip Verify", strconv.FormatBool(c.TLSInsecureSkipVerify))
		addField("CA File", c.TLSCAFile)
	}

	return sb.String()
}

// --------------------------------------------------------------------------
// Parsing
// --------------------------------------------------------------------------

// ParseConfig builds a Config from a loosely typed mapping as produced by config loaders.
// Recognized keys: scheme, host, port, path, ssl, connect_timeout, read_timeout,
// tls_server_name, tls_insecure_skip_verify, tls_ca_file.
// Missing timeouts default to 0.
func ParseConfig(m map[string]any) (Config, error) {
	conf := DefaultConfig()
	var err error

	if v, ok := m["scheme"]; ok {
		s, err := cast.ToStringE(v)
		if err != nil {
			return Config{}, fmt.Errorf("scheme: %w", err)
		}
		if s != "" {
			conf.Scheme = Scheme(strings.ToLower(s))
		}
	}
	if v, ok := m["host"]; ok {
		if conf.Host, err = cast.ToStringE(v); err != nil {
			return Config{}, fmt.Errorf("host: %w", err)
		}
	}
	if v, ok := m["port"]; ok {
		if conf.Port, err = cast.ToIntE(v); err != nil {
			return Config{}, fmt.Errorf("port: %w", err)
		}
	}
	if v, ok := m["path"]; ok {
		if conf.Path, err = cast.ToStringE(v); err != nil {
			return Config{}, fmt.Errorf("path: %w", err)
		}
	}
	if v, ok := m["ssl"]; ok {
		if conf.SSL, err = cast.ToBoolE(v); err != nil {
			return Config{}, fmt.Errorf("ssl: %w", err)
		}
	}
	if v, ok := m["connect_timeout"]; ok {
		if conf.ConnectTimeout, err = cast.ToFloat64E(v); err != nil {
			return Config{}, fmt.Errorf("connect_timeout: %w", err)
		}
	}
	if v, ok := m["read_timeout"]; ok {
		if conf.ReadTimeout, err = cast.ToFloat64E(v); err != nil {
			return Config{}, fmt.Errorf("read_timeout: %w", err)
		}
	}
	if v, ok := m["tls_server_name"]; ok {
		conf.TLSServerName = cast.ToString(v)
	}
	if v, ok := m["tls_insecure_skip_verify"]; ok {
		if conf.TLSInsecureSkipVerify, err = cast.ToBoolE(v); err != nil {
			return Config{}, fmt.Errorf("tls_insecure_skip_verify: %w", err)
		}
	}
	if v, ok := m["tls_ca_file"]; ok {
		conf.TLSCAFile = cast.ToString(v)
	}

	conf = conf.normalize()
	return conf, conf.Validate()
}

// ParseURL builds a Config from a redis://, rediss:// or unix:// URL.
// The query parameters connect_timeout and read_timeout are read as seconds.
func ParseURL(rawURL string) (Config, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Config{}, err
	}

	conf := DefaultConfig()
	switch u.Scheme {
	case "redis", "tcp":
		conf.Scheme = SchemeTCP
	case "rediss", "ssl":
		conf.Scheme = SchemeSSL
	case "unix":
		conf.Scheme = SchemeUnix
		conf.Path = u.Path
	default:
		return Config{}, fmt.Errorf("invalid url scheme %q. must be one of redis, rediss, unix", u.Scheme)
	}

	if conf.Scheme != SchemeUnix {
		if host := u.Hostname(); host != "" {
			conf.Host = host
		}
		if port := u.Port(); port != "" {
			if conf.Port, err = strconv.Atoi(port); err != nil {
				return Config{}, fmt.Errorf("invalid port %q", port)
			}
		}
	}

	query := u.Query()
	if v := query.Get("connect_timeout"); v != "" {
		if conf.ConnectTimeout, err = strconv.ParseFloat(v, 64); err != nil {
			return Config{}, fmt.Errorf("connect_timeout: %w", err)
		}
	}
	if v := query.Get("read_timeout"); v != "" {
		if conf.ReadTimeout, err = strconv.ParseFloat(v, 64); err != nil {
			return Config{}, fmt.Errorf("read_timeout: %w", err)
		}
	}

	conf = conf.normalize()
	return conf, conf.Validate()
}

// normalize folds the ssl scheme and the ssl flag into each other
func (c Config) normalize() Config {
	if c.Scheme == SchemeSSL {
		c.SSL = true
	}
	if c.SSL && c.Scheme == SchemeTCP {
		c.Scheme = SchemeSSL
	}
	return c
}

func validTimeout(name string, v float64) error {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s must be a non-negative number of seconds, got %v", name, v)
	}
	return nil
}
