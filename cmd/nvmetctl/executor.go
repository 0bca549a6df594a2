package main

import (
	"github.com/vifino/nvmetctl/pkg/kernel"
	"github.com/vifino/nvmetctl/pkg/kernel/osfs"
)

// newExecutor binds an Executor to the real nvmet configfs tree at
// root, or osfs.DefaultRoot if root is empty.
func newExecutor(root string) *kernel.Executor {
	return kernel.NewExecutor(osfs.New(root))
}
