package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/davecgh/go-spew/spew"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/urfave/cli"
)

// diffContext is the number of context lines in printed diffs.
const diffContext = 3

type mismatch struct {
	Path string
	A, B any
}

func readFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	d := make(map[string]any)
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return d, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// walk collects paths of all differing tree properties, missing subtrees are
// reported as a single mismatch.
func walk(path string, a, b any, res *[]mismatch) {
	objA, okA := a.(map[string]any)
	objB, okB := b.(map[string]any)
	if !okA || !okB {
		if fmt.Sprint(a) != fmt.Sprint(b) {
			*res = append(*res, mismatch{Path: path, A: a, B: b})
		}
		return
	}
	seen := make(map[string]bool)
	for _, k := range sortedKeys(objA) {
		seen[k] = true
		walk(path+"/"+k, objA[k], objB[k], res)
	}
	for _, k := range sortedKeys(objB) {
		if !seen[k] {
			walk(path+"/"+k, nil, objB[k], res)
		}
	}
}

func diff(a, b any, nameA, nameB string) string {
	ja, _ := json.MarshalIndent(a, "", "  ")
	jb, _ := json.MarshalIndent(b, "", "  ")
	text, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(ja) + "\n"),
		B:        difflib.SplitLines(string(jb) + "\n"),
		FromFile: nameA,
		ToFile:   nameB,
		Context:  diffContext,
	})
	return text
}

func compare(w io.Writer, a, b string, verbose bool) error {
	dumpA, err := readFile(a)
	if err != nil {
		return fmt.Errorf("reading file %s: %w", a, err)
	}
	dumpB, err := readFile(b)
	if err != nil {
		return fmt.Errorf("reading file %s: %w", b, err)
	}
	var res []mismatch
	walk("", dumpA, dumpB, &res)
	if len(res) == 0 {
		return nil
	}
	for _, m := range res {
		fmt.Fprintf(w, "mismatch at %s\n", m.Path)
		fmt.Fprint(w, diff(m.A, m.B, a+":"+m.Path, b+":"+m.Path))
		if verbose {
			fmt.Fprintf(w, "%s:\n%s%s:\n%s", a, spew.Sdump(m.A), b, spew.Sdump(m.B))
		}
	}
	return fmt.Errorf("%d mismatches found", len(res))
}

func cliMain(c *cli.Context) error {
	a := c.Args().Get(0)
	b := c.Args().Get(1)
	if a == "" {
		return errors.New("no arguments given")
	}
	if b == "" {
		return errors.New("missing second argument")
	}
	return compare(c.App.Writer, a, b, c.Bool("verbose"))
}

func main() {
	ctl := cli.NewApp()
	ctl.Name = "compare-dumps"
	ctl.Version = "1.0"
	ctl.Usage = "compare-dumps [--verbose] dumpA.json dumpB.json"
	ctl.Flags = []cli.Flag{
		cli.BoolFlag{Name: "verbose, v", Usage: "also print decoded mismatching values"},
	}
	ctl.Action = cliMain

	if err := ctl.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, ctl.Usage)
		os.Exit(1)
	}
}
