package main

import (
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/msgport/pkg/building"
	"github.com/robotalks/msgport/pkg/env"
	fx "github.com/robotalks/msgport/pkg/framework"
)

func init() {
	env.MustLoadDefaults(&struct {
		Env      *env.Config      `toml:"env"`
		Building *building.Config `toml:"building"`
	}{env.Default(), building.Default()})
	env.SetupFlags()
	building.SetupFlags()
}

func main() {
	flag.Parse()

	conf := building.NewConfig()
	if err := conf.Validate(); err != nil {
		glog.Exitln(err)
	}
	sys, err := conf.NewSystem(env.NewConfig().MustNewEnv())
	if err != nil {
		glog.Exitln(err)
	}
	defer sys.Close()

	glog.Infof("building system started: roles=%s", conf.Roles)
	runner := fx.NewRunner().HandleSignals()
	fx.NewLoop().Add(sys).RunOrFail(runner.Context)
}
