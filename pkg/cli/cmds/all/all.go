// Package all registers all shell commands.
package all

import (
	_ "github.com/robotalks/msgport/pkg/cli/cmds/building"
	_ "github.com/robotalks/msgport/pkg/cli/cmds/channel"
)
