package main

import "github.com/kelseyhightower/envconfig"

// envDefaults holds the fallback flag values pulled from the
// environment, so a deployment can pin a disk path/size once (in an
// env file or unit) instead of every invocation repeating flags.
type envDefaults struct {
	DiskPath string `envconfig:"disk_path" default:"sfs.img"`
	Blocks   int    `envconfig:"blocks" default:"1024"`
}

func loadEnvDefaults() *envDefaults {
	d := &envDefaults{}
	// Errors here mean a malformed environment variable; fall back to
	// the zero value defaults rather than refusing to start.
	envconfig.Process("sfsctl", d)
	return d
}
