package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/teranos/pinvokegen/errors"
	"github.com/teranos/pinvokegen/logger"
)

// maxBackups is how many previous versions Save keeps next to a config file
const maxBackups = 3

func backupPath(configPath string, n int) string {
	return fmt.Sprintf("%s.back%d", configPath, n)
}

// rotateBackups shifts .backN to .backN+1 and copies the current file to
// .back1. The oldest backup is dropped.
func rotateBackups(configPath string) error {
	content, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "failed to read %s for backup", configPath)
	}

	oldest := backupPath(configPath, maxBackups)
	if err := os.Remove(oldest); err != nil && !os.IsNotExist(err) {
		logger.Warnw("Could not drop oldest config backup", logger.FieldFile, oldest, logger.FieldError, err)
	}
	for n := maxBackups - 1; n >= 1; n-- {
		from := backupPath(configPath, n)
		if _, err := os.Stat(from); err != nil {
			continue
		}
		if err := os.Rename(from, backupPath(configPath, n+1)); err != nil {
			return errors.Wrapf(err, "failed to rotate %s", from)
		}
	}
	return os.WriteFile(backupPath(configPath, 1), content, DefaultFilePerms)
}

// Marshal renders cfg as TOML
func Marshal(cfg *Config) ([]byte, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal config")
	}
	return data, nil
}

// Save writes cfg to configPath as TOML. An existing file is rotated into
// the backups first, and the new content replaces it atomically.
func Save(cfg *Config, configPath string) error {
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		return errors.Wrapf(err, "failed to create %s", dir)
	}
	if err := rotateBackups(configPath); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(configPath)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "failed to create temporary config file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "failed to write %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "failed to write %s", tmp.Name())
	}
	if err := os.Chmod(tmp.Name(), DefaultFilePerms); err != nil {
		return errors.Wrapf(err, "failed to set permissions on %s", tmp.Name())
	}
	if err := os.Rename(tmp.Name(), configPath); err != nil {
		return errors.Wrapf(err, "failed to replace %s", configPath)
	}
	return nil
}
