package policy

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/teranos/pinvokegen/errors"
)

// LoadRemapFile reads a TOML remap table:
//
//	[remapped]
//	HRESULT = "int"
//	"_GUID" = "Guid"
//
// Keys keep their case, unlike keys read through viper.
func LoadRemapFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read remap file %s", path)
	}

	var file struct {
		Remapped map[string]string `toml:"remapped"`
	}
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrapf(err, "failed to parse remap file %s", path)
	}
	if file.Remapped == nil {
		return map[string]string{}, nil
	}
	return file.Remapped, nil
}
