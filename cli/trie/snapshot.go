package trie

import (
	"fmt"

	"github.com/nspcc-dev/statetrie/pkg/core/radix"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

func snapshotSave(ctx *cli.Context) error {
	if err := checkNoArgs(ctx); err != nil {
		return err
	}
	in := ctx.String("in")
	if in == "" {
		return cli.NewExitError(errNoInput, 1)
	}
	entries, err := readInput(in)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	e, err := newEnv(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer e.Close()

	version, err := e.buildVersion(ctx.String("version"), entries)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if err := e.mgr.Persist(version); err != nil {
		return cli.NewExitError(err, 1)
	}
	e.log.Info("snapshot saved",
		zap.String("version", version),
		zap.String("db", e.cfg.ApplicationConfiguration.DBConfiguration.Type))
	return writeJSON(ctx, rootInfo(version, e.mgr.Tree(version)))
}

func snapshotLoad(ctx *cli.Context) error {
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
	t := e.mgr.Tree(version)
	if m := t.VerifyProofHashForRadixTree(); m != nil {
		return cli.NewExitError(fmt.Errorf("%w at %v: cached %s, computed %s",
			radix.ErrProofMismatch, m.Path, m.Cached, m.Computed), 1)
	}
	return writeJSON(ctx, rootInfo(version, t))
}

func snapshotList(ctx *cli.Context) error {
	if err := checkNoArgs(ctx); err != nil {
		return err
	}
	e, err := newEnv(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer e.Close()

	return writeJSON(ctx, e.mgr.PersistedVersions())
}
