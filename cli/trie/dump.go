package trie

import (
	"github.com/nspcc-dev/statetrie/pkg/core/radix"
	"github.com/urfave/cli"
)

var dumpFlags = []cli.Flag{
	cli.BoolFlag{Name: "node-version", Usage: "include versions of radix nodes"},
	cli.BoolFlag{Name: "serial", Usage: "include serials of radix nodes"},
	cli.BoolFlag{Name: "proof-hash", Usage: "include proof hashes"},
	cli.BoolFlag{Name: "tree-info", Usage: "include tree height, size and bytes"},
	cli.BoolFlag{Name: "num-parents", Usage: "include the number of parents of radix nodes"},
	cli.BoolFlag{Name: "all", Usage: "include everything"},
}

func dumpOptions(ctx *cli.Context) radix.DumpOptions {
	all := ctx.Bool("all")
	return radix.DumpOptions{
		WithVersion:            all || ctx.Bool("node-version"),
		WithSerial:             all || ctx.Bool("serial"),
		WithProofHash:          all || ctx.Bool("proof-hash"),
		WithTreeInfo:           all || ctx.Bool("tree-info"),
		WithNumParents:         all || ctx.Bool("num-parents"),
		WithHasParentStateNode: all,
	}
}

func dump(ctx *cli.Context) error {
	if err := checkNoArgs(ctx); err != nil {
		return err
	}
	e, err := newEnv(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer e.Close()

	version, err := e.sourceVersion(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	return writeJSON(ctx, e.mgr.Tree(version).Dump(dumpOptions(ctx)))
}
