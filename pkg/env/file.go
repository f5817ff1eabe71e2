package env

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/golang/glog"
)

// DecodeFile decodes a TOML file into v.
// Keys which don't map to any field are rejected.
func DecodeFile(path string, v interface{}) error {
	md, err := toml.DecodeFile(path, v)
	if err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for n, key := range undecoded {
			keys[n] = key.String()
		}
		return fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// LoadDefaults decodes the file specified by MSGPORT_CONFIG into v,
// which usually points to default configs of packages. It should be
// called in init before flags are set up so command line flags
// override values from the file.
func LoadDefaults(v interface{}) error {
	path := os.Getenv(EnvConfigFile)
	if path == "" {
		return nil
	}
	glog.V(2).Infof("load config %s", path)
	return DecodeFile(path, v)
}

// MustLoadDefaults is LoadDefaults which fails on error.
func MustLoadDefaults(v interface{}) {
	if err := LoadDefaults(v); err != nil {
		glog.Exitln(err)
	}
}
