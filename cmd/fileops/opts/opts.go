// 📦 Package opts holds the shared dependencies every fileops command
// receives from the root command.
package opts

import (
	"github.com/orbitfm/fileops/pkg/config"
	"github.com/orbitfm/fileops/pkg/dispatch"
	"github.com/orbitfm/fileops/pkg/log"
	"github.com/orbitfm/fileops/pkg/operation"
	"github.com/orbitfm/fileops/pkg/trash"
)

// RootOpts is filled in by the root command before any subcommand runs
type RootOpts struct {
	Config     *config.Config
	Manager    *operation.Manager
	Dispatcher *dispatch.Dispatcher
	Trash      *trash.Trash
	UserLogger *log.Logger
}
