package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	recursivehasher "github.com/mattkeenan/recursivehasher/pkg"
)

// runInteractive shows the top-level menu until the operator quits, input ends
// or ctx is cancelled. A failed run is reported and the menu shown again.
func runInteractive(ctx context.Context, a *app, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	prompt := func(text string) (string, bool) {
		fmt.Fprint(out, text)
		if !scanner.Scan() {
			return "", false
		}
		return strings.TrimSpace(scanner.Text()), true
	}

	for ctx.Err() == nil {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "[D] Analyze a directory")
		fmt.Fprintln(out, "[C] Compare two datasets")
		fmt.Fprintln(out, "[Q] Quit")
		choice, ok := prompt("> ")
		if !ok {
			return scanner.Err()
		}

		var err error
		switch strings.ToUpper(choice) {
		case "D":
			dir, ok := prompt("Directory to analyze: ")
			if !ok {
				return scanner.Err()
			}
			err = runAnalyze(a, trimQuotes(dir), out)

		case "C":
			pathA, ok := prompt("First dataset (A): ")
			if !ok {
				return scanner.Err()
			}
			pathB, ok := prompt("Second dataset (B): ")
			if !ok {
				return scanner.Err()
			}
			answer, ok := prompt("Copy differing files? [y/N] ")
			if !ok {
				return scanner.Err()
			}
			copyFiles := strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes")
			err = runCompare(ctx, a, trimQuotes(pathA), trimQuotes(pathB), copyFiles, out)

		case "Q":
			return nil

		default:
			warningColor.Fprintf(out, "Unknown choice %q\n", choice)
			continue
		}

		if err != nil {
			exceptionColor.Fprintf(out, "Failed: %v\n", err)
		}
	}
	return nil
}

// trimQuotes strips the quotes terminals add around dragged-in paths
func trimQuotes(s string) string {
	return strings.Trim(s, `"'`)
}

// runAnalyze hashes dir and prints the summary
func runAnalyze(a *app, dir string, out io.Writer) error {
	session, err := recursivehasher.NewSession(a.config, nil)
	if err != nil {
		return err
	}
	defer session.Close()

	rep := newReporter(session, out)
	rep.Start()
	res, err := session.AnalyzeDirectory(dir)
	rep.Stop()
	if err != nil {
		return err
	}

	rep.PrintAnalysis(res)
	return nil
}

// runCompare compares two datasets and prints the summary
func runCompare(ctx context.Context, a *app, pathA, pathB string, copyFiles bool, out io.Writer) error {
	session, err := recursivehasher.NewSession(a.config, nil)
	if err != nil {
		return err
	}
	defer session.Close()

	rep := newReporter(session, out)
	rep.Start()
	res, err := session.CompareDatasets(ctx, pathA, pathB, copyFiles)
	rep.Stop()
	if err != nil {
		return err
	}

	rep.PrintComparison(res)
	return nil
}
