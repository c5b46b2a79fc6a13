// Sample extension in the direct authoring style: a fallible startup that
// yields the run loop. Build with:
//
//	compile export -f counterExEx main.go
//	compile -id counter -o ../../extensions main.go launch_exex.go
package main

import (
	"context"
	"fmt"

	exdyn "github.com/0xurb/exdyn"
)

func counterExEx(ctx context.Context, dctx *exdyn.ContextDyn) (exdyn.RunFunc, error) {
	if dctx.Config.Chain == nil {
		return nil, fmt.Errorf("counter: no chain spec")
	}
	head := dctx.Head.Number
	events := dctx.Events
	return func(ctx context.Context) error {
		defer events.Close()
		for h := head; h < head+16; h++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := events.Send(exdyn.FinishedHeight{Number: h}); err != nil {
				return err
			}
		}
		return nil
	}, nil
}
