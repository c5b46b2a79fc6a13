package main

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/urfave/cli/v2"

	exdyn "github.com/0xurb/exdyn"
)

func main() {
	app := cli.NewApp()
	app.Usage = "execution extension compiler"
	app.Name = "Compile"
	app.Description = "compiles extension go sources into a loadable artifact named by the platform convention, and generates the entrypoint shim"
	app.Action = action
	app.Flags = []cli.Flag{
		&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}},
		&cli.StringFlag{Name: "id", Usage: "extension identifier, defaults to the working directory name"},
		&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output directory", Value: "."},
	}
	app.Args = true
	app.Commands = []*cli.Command{
		{Name: "export",
			Action: export,
			Usage:  "validate an extension function and generate its entrypoint shim",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "func", Aliases: []string{"f"}, Usage: "extension function name", Required: true},
				&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "shim file name", Value: "launch_exex.go"},
			},
			Args: true,
		},
		{Name: "inspect",
			Action: inspect,
			Usage:  "display symbols of an artifact",
			Args:   true,
		},
		{Name: "imports",
			Action: imports,
			Usage:  "display imported packages of an artifact",
			Args:   true,
		},
		{Name: "prepare", Action: prepare, Usage: "copy internals of go sdk"},
		{Name: "clean", Action: clean, Usage: "remove copied internals of go sdk"},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatalf("failure %s", err)
	}
}

func action(ctx *cli.Context) error {
	d := ctx.Bool("debug")
	srcs := ctx.Args().Slice()
	if len(srcs) == 0 {
		return fmt.Errorf("missing target sources list")
	}
	if _, err := exec.LookPath("go"); err != nil {
		return fmt.Errorf("missing go sdk: %w", err)
	}
	id := ctx.String("id")
	if id == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		id = filepath.Base(wd)
	}
	out, err := exdyn.BuildArtifact(d, id, ctx.String("out"), srcs)
	if err != nil {
		return err
	}
	log.Printf("artifact %s", out)
	return nil
}

func export(ctx *cli.Context) error {
	srcs := ctx.Args().Slice()
	if len(srcs) != 1 {
		return fmt.Errorf("export needs exactly one source file")
	}
	src, err := os.ReadFile(srcs[0])
	if err != nil {
		return err
	}
	shim, err := exdyn.GenerateFromSource(src, ctx.String("func"))
	if err != nil {
		return err
	}
	out := filepath.Join(filepath.Dir(srcs[0]), ctx.String("out"))
	if err = os.WriteFile(out, shim, 0o644); err != nil {
		return err
	}
	log.Printf("shim %s exports %s", out, exdyn.EntrypointSymbol)
	return nil
}

func inspect(ctx *cli.Context) (err error) {
	var syms []string
	for _, s := range ctx.Args().Slice() {
		if syms, err = exdyn.Inspect(s); err != nil {
			return
		}
		log.Printf("%s:\n\t%s", s, strings.Join(syms, "\n\t"))
	}
	return
}

func imports(ctx *cli.Context) (err error) {
	for _, s := range ctx.Args().Slice() {
		var info *exdyn.ArtifactInfo
		if info, err = exdyn.ArtifactImports(s); err != nil {
			return
		}
		if ctx.Bool("debug") {
			log.Printf("\n%s", spew.Sdump(info))
		} else {
			log.Printf("\n%s", info.String())
		}
	}
	return
}

func clean(ctx *cli.Context) (err error) {
	d := ctx.Bool("debug")
	dir := os.ExpandEnv("$GOROOT/src/cmd/objfile")
	if d {
		log.Printf("clean go sdk: %s", dir)
	}
	if _, err = os.Stat(dir); err == nil {
		err = os.RemoveAll(dir)
		if d {
			log.Printf("removed %s", dir)
		}
	} else if d {
		log.Printf("did nothing for %s", dir)
	}
	return
}

func prepare(ctx *cli.Context) (err error) {
	d := ctx.Bool("debug")
	src := os.ExpandEnv("$GOROOT/src/cmd/internal")
	dir := os.ExpandEnv("$GOROOT/src/cmd/objfile")
	if d {
		log.Printf("prepare go sdk from %s to %s", src, dir)
	}
	if _, err = os.Stat(dir); err != nil && os.IsNotExist(err) {
		err = exdyn.CopyDir(src, dir, nil)
		if d {
			log.Printf("copied %s from %s", dir, src)
		}
	} else if d {
		log.Printf("did nothing for %s", dir)
	}
	return
}
