package main

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"

	recursivehasher "github.com/mattkeenan/recursivehasher/pkg"
)

const progressInterval = 250 * time.Millisecond

var (
	exceptionColor = color.New(color.FgRed)
	warningColor   = color.New(color.FgYellow)
	successColor   = color.New(color.FgGreen)
)

// failureKey groups exception counts for the summary table
type failureKey struct {
	stage string
	kind  recursivehasher.ErrorKind
}

// reporter renders progress and exceptions of a session while a run is in flight.
// It runs two goroutines: a progress ticker and an exception drainer.
type reporter struct {
	session  *recursivehasher.Session
	out      io.Writer
	interval time.Duration

	stop chan struct{}
	wg   sync.WaitGroup

	mu     sync.Mutex
	counts map[failureKey]int
}

func newReporter(session *recursivehasher.Session, out io.Writer) *reporter {
	return &reporter{
		session:  session,
		out:      out,
		interval: progressInterval,
		counts:   make(map[failureKey]int),
	}
}

// Start launches the background loops
func (r *reporter) Start() {
	r.stop = make(chan struct{})
	r.wg.Add(2)
	go r.progressLoop()
	go r.exceptionLoop()
}

// Stop ends the loops and prints any exceptions still queued
func (r *reporter) Stop() {
	close(r.stop)
	r.wg.Wait()
	r.drain()
}

func (r *reporter) progressLoop() {
	defer r.wg.Done()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	last := int64(-1)
	for {
		select {
		case <-r.stop:
			if p := r.session.Progress(); p != nil && last >= 0 {
				r.printProgress(p)
				fmt.Fprintln(r.out)
			}
			return
		case <-ticker.C:
			p := r.session.Progress()
			if p == nil || p.Completed() == last {
				continue
			}
			last = p.Completed()
			r.printProgress(p)
		}
	}
}

func (r *reporter) printProgress(p *recursivehasher.Progress) {
	snap := p.Snapshot()
	fmt.Fprintf(r.out, "\r[%5.1f%%] %d/%d files, %d failed  %s\033[K",
		p.Percent(), snap.Completed, snap.Total, snap.Failed, filepath.Base(snap.Current))
}

func (r *reporter) exceptionLoop() {
	defer r.wg.Done()
	for {
		select {
		case <-r.stop:
			return
		case <-r.session.Sink().Notify():
			r.drain()
		}
	}
}

// drain prints every queued exception in FIFO order
func (r *reporter) drain() {
	for _, rec := range r.session.Sink().Drain() {
		r.mu.Lock()
		r.counts[failureKey{stage: rec.Stage, kind: rec.Kind}]++
		r.mu.Unlock()
		fmt.Fprintf(r.out, "\r\033[K%s\n", exceptionColor.Sprintf("▶ %s failed: %s - %s", rec.Stage, rec.Kind, filepath.Base(rec.Path)))
	}
}

// FailureTotal returns how many exceptions were reported
func (r *reporter) FailureTotal() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return lo.Sum(lo.Values(r.counts))
}

// PrintFailureTable prints exception counts per stage and kind
func (r *reporter) PrintFailureTable() {
	r.mu.Lock()
	keys := lo.Keys(r.counts)
	counts := make(map[failureKey]int, len(r.counts))
	for k, v := range r.counts {
		counts[k] = v
	}
	r.mu.Unlock()

	if len(keys) == 0 {
		return
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].stage != keys[j].stage {
			return keys[i].stage < keys[j].stage
		}
		return keys[i].kind < keys[j].kind
	})

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.AppendHeader(table.Row{"Stage", "Kind", "Count"})
	for _, k := range keys {
		t.AppendRow(table.Row{k.stage, k.kind.String(), counts[k]})
	}
	t.AppendFooter(table.Row{"", "Total", lo.Sum(lo.Values(counts))})
	t.Render()
}

// PrintAnalysis prints the summary of a hashing run
func (r *reporter) PrintAnalysis(res *recursivehasher.AnalysisResult) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.AppendHeader(table.Row{"Analysis", ""})
	t.AppendRow(table.Row{"Directory", res.Root})
	t.AppendRow(table.Row{"Files", res.Files()})
	t.AppendRow(table.Row{"Failed", res.Failed})
	t.AppendRow(table.Row{"Bytes hashed", res.HumanBytes()})
	t.AppendRow(table.Row{"Elapsed", res.Elapsed.Round(time.Millisecond)})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Dataset", res.OutputPath})
	t.Render()

	r.PrintFailureTable()
	successColor.Fprintf(r.out, "Saved %s\n", res.OutputPath)
}

// PrintComparison prints the summary of a comparison run
func (r *reporter) PrintComparison(res *recursivehasher.ComparisonResult) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.AppendHeader(table.Row{"Comparison", res.LabelA, res.LabelB})
	t.AppendRow(table.Row{"Records", res.RecordsA, res.RecordsB})
	t.AppendRow(table.Row{"Missing", len(res.Sets.MissingFromA), len(res.Sets.MissingFromB)})
	t.AppendRow(table.Row{"Hash mismatches", "", len(res.Sets.Mismatches)})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Differences", res.TotalChanges(), res.OutputPath})
	if res.Copy != nil {
		t.AppendRow(table.Row{"Copied", res.Copy.Copied, res.Copy.DestRoot})
	}
	t.Render()

	r.PrintFailureTable()
	switch {
	case res.CopyErr != nil:
		warningColor.Fprintf(r.out, "Some files could not be copied (%d failed)\n", res.Copy.Failed)
	case !res.HasChanges():
		successColor.Fprintln(r.out, "No differences found")
	default:
		fmt.Fprintf(r.out, "%d differences saved to %s\n", res.TotalChanges(), res.OutputPath)
	}
}
