package util

import (
	"github.com/ValentinKolb/rconn/rpc/client"
	"github.com/ValentinKolb/rconn/rpc/common"
	"github.com/ValentinKolb/rconn/rpc/serializer"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"net/url"
	"strings"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupConnectionFlags adds the connection flags to a command
func SetupConnectionFlags(cmd *cobra.Command) {
	key := "url"
	cmd.PersistentFlags().String(key, "", WrapString("Connection URL (redis://host:port, rediss://host:port or unix:///path). Overrides the individual connection flags"))

	key = "scheme"
	cmd.PersistentFlags().String(key, string(common.SchemeTCP), WrapString("Transport scheme (tcp, unix, ssl)"))

	key = "host"
	cmd.PersistentFlags().String(key, common.DefaultHost, WrapString("Server host"))

	key = "port"
	cmd.PersistentFlags().Int(key, common.DefaultPort, WrapString("Server port"))

	key = "path"
	cmd.PersistentFlags().String(key, "", WrapString("Unix socket path (only for the unix scheme)"))

	key = "ssl"
	cmd.PersistentFlags().Bool(key, false, WrapString("Connect using TLS"))

	key = "connect-timeout"
	cmd.PersistentFlags().Float64(key, 5, WrapString("Connect timeout in (fractional) seconds, 0 fails immediately"))

	key = "read-timeout"
	cmd.PersistentFlags().Float64(key, 5, WrapString("Read and write timeout in (fractional) seconds, 0 fails immediately"))

	key = "tls-server-name"
	cmd.PersistentFlags().String(key, "", WrapString("Server name used to verify the TLS certificate (defaults to the host)"))

	key = "tls-insecure"
	cmd.PersistentFlags().Bool(key, false, WrapString("Skip verification of the TLS certificate"))

	key = "tls-ca-file"
	cmd.PersistentFlags().String(key, "", WrapString("PEM file with the certificate authorities to trust"))

	key = "driver"
	cmd.PersistentFlags().String(key, "", WrapString("Name of the connection driver (see 'rconn drivers'), defaults to the first registered driver"))

	key = "format"
	cmd.PersistentFlags().String(key, "text", WrapString("Output format of replies ("+strings.Join(serializer.Names(), ", ")+")"))
}

// configFlags maps the keys of common.ParseConfig to their flag names
var configFlags = map[string]string{
	"scheme":                   "scheme",
	"host":                     "host",
	"port":                     "port",
	"path":                     "path",
	"ssl":                      "ssl",
	"connect_timeout":          "connect-timeout",
	"read_timeout":             "read-timeout",
	"tls_server_name":          "tls-server-name",
	"tls_insecure_skip_verify": "tls-insecure",
	"tls_ca_file":              "tls-ca-file",
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("rconn")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// GetConfig reads the connection configuration from viper.
// A configured url takes precedence over the individual flags, timeouts
// missing from the url are taken from the flags.
func GetConfig() (common.Config, error) {
	if rawURL := viper.GetString("url"); rawURL != "" {
		return configFromURL(rawURL)
	}

	// unset values fall back to the defaults of common.ParseConfig
	values := make(map[string]any)
	for key, flag := range configFlags {
		if v := viper.GetString(flag); v != "" {
			values[key] = v
		}
	}
	return common.ParseConfig(values)
}

func configFromURL(rawURL string) (common.Config, error) {
	conf, err := common.ParseURL(rawURL)
	if err != nil {
		return common.Config{}, err
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return common.Config{}, err
	}
	query := u.Query()
	if !query.Has("connect_timeout") && viper.GetString("connect-timeout") != "" {
		conf.ConnectTimeout = viper.GetFloat64("connect-timeout")
	}
	if !query.Has("read_timeout") && viper.GetString("read-timeout") != "" {
		conf.ReadTimeout = viper.GetFloat64("read-timeout")
	}
	return conf, conf.Validate()
}

// GetDriverName returns the configured driver name (empty selects the first registered driver)
func GetDriverName() string {
	return viper.GetString("driver")
}

// GetFormatter creates a reply formatter based on configuration
func GetFormatter() (serializer.IReplyFormatter, error) {
	return serializer.ByName(viper.GetString("format"))
}

// Dial connects a client using the configured driver and connection settings
func Dial() (*client.Client, error) {
	config, err := GetConfig()
	if err != nil {
		return nil, err
	}
	return client.Dial(GetDriverName(), config)
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// SetupLogging sets the level of all loggers from the log-level flag
func SetupLogging() error {
	return common.InitLoggers(viper.GetString("log-level"), nil)
}
