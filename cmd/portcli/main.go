package main

import (
	"github.com/robotalks/msgport/pkg/cli/sh"
	"github.com/robotalks/msgport/pkg/env"

	_ "github.com/robotalks/msgport/pkg/cli/cmds/all"
)

//go-build: CGO_ENABLED=0

func init() {
	env.MustLoadDefaults(&struct {
		Env *env.Config `toml:"env"`
	}{env.Default()})
	env.SetupFlags()
}

func main() {
	sh.Main()
}
