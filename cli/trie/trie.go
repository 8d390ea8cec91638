/*
Package trie contains commands building, proving and persisting radix tree
versions.
*/
package trie

import (
	"errors"
	"fmt"
	"os"

	json "github.com/nspcc-dev/go-ordered-json"
	"github.com/nspcc-dev/statetrie/cli/options"
	"github.com/nspcc-dev/statetrie/pkg/config"
	"github.com/nspcc-dev/statetrie/pkg/core/radix"
	"github.com/nspcc-dev/statetrie/pkg/core/statemgr"
	"github.com/nspcc-dev/statetrie/pkg/core/storage"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	inputFlag = cli.StringFlag{
		Name:  "in, i",
		Usage: "YAML or JSON file with 'label: value' pairs stored in the given order",
	}
	versionFlag = cli.StringFlag{
		Name:  "version, v",
		Usage: "tree version name (a transient one is created when building and the final one is used otherwise if not specified)",
	}
)

var errNoInput = errors.New("no input file specified, use option '--in' or '-i'")

// NewCommands returns 'build', 'proof', 'dump' and 'snapshot' commands.
func NewCommands() []cli.Command {
	buildFlags := append([]cli.Flag{inputFlag, versionFlag}, options.Common...)
	sourceFlags := append([]cli.Flag{inputFlag, versionFlag}, options.Common...)
	return []cli.Command{
		{
			Name:      "build",
			Usage:     "Build a tree from the input file and print its root info",
			UsageText: "statetrie build -i file [-v version] [--config-file file] [--debug]",
			Action:    build,
			Flags:     buildFlags,
		},
		{
			Name:      "proof",
			Usage:     "Print a proof of the value stored under the given label",
			UsageText: "statetrie proof [-i file | -v version] -l label [--config-file file] [--debug]",
			Action:    proof,
			Flags: append(sourceFlags, cli.StringFlag{
				Name:  "label, l",
				Usage: "label to prove",
			}),
		},
		{
			Name:      "dump",
			Usage:     "Print a debug representation of the tree",
			UsageText: "statetrie dump [-i file | -v version] [--serial] [--proof-hash] [--tree-info] [--num-parents] [--config-file file] [--debug]",
			Action:    dump,
			Flags:     append(sourceFlags, dumpFlags...),
		},
		{
			Name:  "snapshot",
			Usage: "Save tree versions to the configured DB or load them from it",
			Subcommands: []cli.Command{
				{
					Name:      "save",
					Usage:     "Build a tree from the input file, make it final and persist it",
					UsageText: "statetrie snapshot save -i file [-v version] [--config-file file] [--debug]",
					Action:    snapshotSave,
					Flags:     buildFlags,
				},
				{
					Name:      "load",
					Usage:     "Load a persisted tree version and print its root info",
					UsageText: "statetrie snapshot load [-v version] [--config-file file] [--debug]",
					Action:    snapshotLoad,
					Flags:     append([]cli.Flag{versionFlag}, options.Common...),
				},
				{
					Name:      "list",
					Usage:     "List persisted tree versions",
					UsageText: "statetrie snapshot list [--config-file file] [--debug]",
					Action:    snapshotList,
					Flags:     options.Common,
				},
			},
		},
	}
}

// env holds everything commands need to work with tree versions.
type env struct {
	cfg   config.Config
	log   *zap.Logger
	store storage.Store
	mgr   *statemgr.Manager
}

func newEnv(ctx *cli.Context) (*env, error) {
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return nil, err
	}
	log, _, err := options.HandleLoggingParams(ctx.Bool("debug"), cfg.ApplicationConfiguration)
	if err != nil {
		return nil, err
	}
	store, err := storage.NewStore(cfg.ApplicationConfiguration.DBConfiguration)
	if err != nil {
		_ = log.Sync()
		return nil, fmt.Errorf("could not open DB: %w", err)
	}
	mgr, err := statemgr.New(cfg.ApplicationConfiguration.Trie, store, log)
	if err != nil {
		_ = store.Close()
		_ = log.Sync()
		return nil, err
	}
	return &env{
		cfg:   cfg,
		log:   log,
		store: store,
		mgr:   mgr,
	}, nil
}

func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		e.log.Error("failed to close DB", zap.Error(err))
	}
	_ = e.log.Sync()
}

// entry is a single input label-value pair.
type entry struct {
	Label string
	Value string
}

// readInput reads label-value pairs keeping their order. JSON input is
// handled as YAML.
func readInput(path string) ([]entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse input: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	m := doc.Content[0]
	if m.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("input is not a mapping (line %d)", m.Line)
	}
	res := make([]entry, 0, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		k, v := m.Content[i], m.Content[i+1]
		if k.Kind != yaml.ScalarNode || v.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("non-scalar entry at line %d", k.Line)
		}
		res = append(res, entry{Label: k.Value, Value: v.Value})
	}
	return res, nil
}

// buildVersion creates a new version from the final one, stores all input
// entries there and finalizes it.
func (e *env) buildVersion(version string, entries []entry) (string, error) {
	var err error
	if version == "" {
		version, err = e.mgr.NewTransientVersion("build")
	} else {
		err = e.mgr.CloneVersion(e.mgr.FinalVersion(), version)
	}
	if err != nil {
		return "", err
	}
	for _, en := range entries {
		if err := e.mgr.Set(version, en.Label, []byte(en.Value)); err != nil {
			return "", err
		}
	}
	if err := e.mgr.FinalizeVersion(version); err != nil {
		return "", err
	}
	e.log.Info("tree built", zap.String("version", version), zap.Int("entries", len(entries)))
	return version, nil
}

// sourceVersion returns the version commands operate on. The tree is built
// from the input file if it's given, otherwise the requested (or final)
// version is loaded from the DB if needed.
func (e *env) sourceVersion(ctx *cli.Context) (string, error) {
	version := ctx.String("version")
	if in := ctx.String("in"); in != "" {
		entries, err := readInput(in)
		if err != nil {
			return "", err
		}
		return e.buildVersion(version, entries)
	}
	if version == "" {
		return e.mgr.FinalVersion(), nil
	}
	if e.mgr.Tree(version) == nil {
		if err := e.mgr.Load(version); err != nil {
			return "", err
		}
	}
	return version, nil
}

func rootInfo(version string, t *radix.Tree) json.OrderedObject {
	info := t.RadixInfo()
	return json.OrderedObject{
		{Key: radix.VersionLabel, Value: version},
		{Key: radix.StateProofHashLabel, Value: info.ProofHash},
		{Key: radix.TreeHeightLabel, Value: info.TreeHeight},
		{Key: radix.TreeSizeLabel, Value: info.TreeSize},
		{Key: radix.TreeBytesLabel, Value: info.TreeBytes},
	}
}

func writeJSON(ctx *cli.Context, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(ctx.App.Writer, string(data))
	return err
}

func build(ctx *cli.Context) error {
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
	return writeJSON(ctx, rootInfo(version, e.mgr.Tree(version)))
}

func proof(ctx *cli.Context) error {
	if err := checkNoArgs(ctx); err != nil {
		return err
	}
	label := ctx.String("label")
	if label == "" {
		return cli.NewExitError("no label specified, use option '--label' or '-l'", 1)
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
	p, err := e.mgr.Proof(version, label)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if !e.mgr.Config().Lightweight {
		if err := e.mgr.VerifyProof(version, p); err != nil {
			return cli.NewExitError(fmt.Errorf("proof verification failed: %w", err), 1)
		}
	}
	return writeJSON(ctx, p.ToOrderedObject())
}

func checkNoArgs(ctx *cli.Context) error {
	if ctx.NArg() > 0 {
		return cli.NewExitError(fmt.Errorf("unexpected arguments: %v", ctx.Args()), 1)
	}
	return nil
}
