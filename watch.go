package hal

import (
	"context"
	"time"

	"github.com/pthm/hal/lib/reldoc"
)

// WatchRels keeps ns in sync with its rel directory until ctx is done. Rel
// documents created in the directory are registered; rewritten ones update
// the rel's description. It returns ctx.Err() once ctx is done.
func (reg *Registry) WatchRels(ctx context.Context, ns *Namespace, debounce time.Duration) error {
	if ns.Dir == "" {
		return configErrorf("namespace "+ns.Name, "has no rel directory to watch")
	}
	w, err := reldoc.NewWatcher(reldoc.WatchConfig{Dir: ns.Dir, Debounce: debounce, Logger: reg.logger})
	if err != nil {
		return err
	}
	reg.logger.Info("watching rel documents", "namespace", ns.Name, "dir", ns.Dir)

	return w.Run(ctx, func(d reldoc.Descriptor) {
		rel, err := ns.AddRel(RelOptions{Name: d.Name, File: d.File, Description: d.Description})
		if err != nil {
			reg.logger.Warn("ignoring rel document", "file", d.File, "error", err)
			return
		}
		reg.logger.Info("rel document loaded", "rel", rel.QName(), "file", d.File)
	})
}
