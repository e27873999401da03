package cli

import (
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/filmdex/pkg/types"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	// config.yaml keys.
	cfgKeyBackend      = "backend"
	cfgKeyDataDir      = "data_dir"
	cfgKeyDBFile       = "db_file"
	cfgKeySnapshotFile = "snapshot_file"
	cfgKeySnapshotDirs = "snapshot_dirs"
	cfgKeyUnwatchedTag = "unwatched_tag"
)

// configFile is the structure written to config.yaml.
type configFile struct {
	Backend      string   `yaml:"backend"`
	DataDir      string   `yaml:"data_dir,omitempty"`
	DBFile       string   `yaml:"db_file"`
	SnapshotFile string   `yaml:"snapshot_file"`
	SnapshotDirs []string `yaml:"snapshot_dirs,omitempty"`
	UnwatchedTag string   `yaml:"unwatched_tag"`
}

func defaultConfigFile() configFile {
	return configFile{
		Backend:      types.BackendSQLite,
		DBFile:       types.DefaultDBFile,
		SnapshotFile: types.DefaultSnapshotFile,
		UnwatchedTag: types.DefaultUnwatchedTag,
	}
}

// loadConfig reads config.yaml from configDir with Viper, creating the
// directory and a default file on first run.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := writeConfigIfMissing(filepath.Join(configDir, configFileExt), defaultConfigFile()); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyDBFile, types.DefaultDBFile)
	v.SetDefault(cfgKeySnapshotFile, types.DefaultSnapshotFile)
	v.SetDefault(cfgKeyUnwatchedTag, types.DefaultUnwatchedTag)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// writeConfigIfMissing writes cfg to path unless the file exists.
func writeConfigIfMissing(path string, cfg configFile) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	header := []byte("# filmdex configuration\n")
	return os.WriteFile(path, append(header, data...), 0o644)
}
