// Sample extension in the wrapped authoring style: a plain run function,
// startup trivially succeeds.
package main

import (
	"context"

	exdyn "github.com/0xurb/exdyn"
)

func minimalExEx(ctx context.Context, dctx *exdyn.ContextDyn) error {
	defer dctx.Events.Close()
	return dctx.Events.Send(exdyn.FinishedHeight{Number: dctx.Head.Number, Hash: dctx.Head.Hash})
}
