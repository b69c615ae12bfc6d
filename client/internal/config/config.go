package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultMaxFileSize mirrors the server's per-request upload ceiling.
const DefaultMaxFileSize int64 = 2 * 1024 * 1024 * 1024

type AppConfig struct {
	ServerURL      string
	MaxFileSize    int64
	StrictCodes    bool
	DownloadDir    string
	DropDir        string
	DBPath         string
	LogPath        string
	LogLevel       string
	RequestTimeout time.Duration
	ResetDelay     time.Duration
	Theme          string
}

var cfg AppConfig

// Init loads the client configuration. Defaults are overlaid by the yaml
// file at path (missing file is fine) and then by SHARELITE_* variables.
func Init(path string) (AppConfig, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix("sharelite")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	dataDir := filepath.Join(os.TempDir(), "sharelite")

	// defaults
	v.SetDefault("client.server_url", "http://127.0.0.1:5000")
	v.SetDefault("client.max_file_size", DefaultMaxFileSize)
	v.SetDefault("client.strict_codes", true)
	v.SetDefault("client.download_dir", ".")
	v.SetDefault("client.drop_dir", "")
	v.SetDefault("client.db_path", filepath.Join(dataDir, "client.db"))
	v.SetDefault("client.log_path", filepath.Join(dataDir, "client.log"))
	v.SetDefault("client.log_level", "info")
	v.SetDefault("client.request_timeout", 30*time.Second)
	v.SetDefault("client.reset_delay", 1500*time.Millisecond)
	v.SetDefault("client.theme", "dark")

	if path != "" {
		if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
			return AppConfig{}, err
		}
	}

	cfg = AppConfig{
		ServerURL:      v.GetString("client.server_url"),
		MaxFileSize:    v.GetInt64("client.max_file_size"),
		StrictCodes:    v.GetBool("client.strict_codes"),
		DownloadDir:    v.GetString("client.download_dir"),
		DropDir:        v.GetString("client.drop_dir"),
		DBPath:         v.GetString("client.db_path"),
		LogPath:        v.GetString("client.log_path"),
		LogLevel:       v.GetString("client.log_level"),
		RequestTimeout: v.GetDuration("client.request_timeout"),
		ResetDelay:     v.GetDuration("client.reset_delay"),
		Theme:          v.GetString("client.theme"),
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	return cfg, nil
}

func Get() AppConfig { return cfg }
