package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"halfqwerty/internal/schemavalidation"
	"halfqwerty/internal/store"
)

func cmdHistory(args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	n := fs.Int("n", 20, "number of results to show (0 for all)")
	fs.Parse(args)

	db := openStore(loadConfig())
	defer db.Close()

	results, err := db.ListResults(*n)
	if err != nil {
		fatalf("Error reading results: %v", err)
	}
	if len(results) == 0 {
		fmt.Println("No typing results recorded yet.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWHEN\tLAYOUT\tSOURCE\tCHARS\tMIRRORED\tWPM\tACCURACY")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%d\t%.1f\t%.1f%%\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04"), r.Layout, r.Source,
			r.TotalChars, r.MirrorChars, r.WPM, r.Accuracy)
	}
	w.Flush()
}

func cmdSummary() {
	db := openStore(loadConfig())
	defer db.Close()

	s, err := db.Summary()
	if err != nil {
		fatalf("Error reading results: %v", err)
	}

	fmt.Println("=== Typing Summary ===")
	fmt.Println()
	if s.Count == 0 {
		fmt.Println("No typing results recorded yet.")
		return
	}
	fmt.Printf("Tests:            %d\n", s.Count)
	fmt.Printf("Characters typed: %d\n", s.TotalChars)
	fmt.Printf("Best speed:       %.1f wpm\n", s.BestWPM)
	fmt.Printf("Average speed:    %.1f wpm\n", s.AverageWPM)
	fmt.Printf("Average accuracy: %.1f%%\n", s.AverageAcc)
	fmt.Printf("First test:       %s\n", s.FirstResult.Local().Format(time.DateTime))
	fmt.Printf("Last test:        %s\n", s.LastResult.Local().Format(time.DateTime))

	layouts := make([]string, 0, len(s.ByLayout))
	for l := range s.ByLayout {
		layouts = append(layouts, l)
	}
	sort.Strings(layouts)
	fmt.Println()
	fmt.Println("By layout:")
	for _, l := range layouts {
		fmt.Printf("  %-6s %d\n", l, s.ByLayout[l])
	}
}

func cmdExport(args []string) {
	if len(args) < 1 {
		fatalf("Usage: halfqwertyctl export <out.json>")
	}
	out := args[0]

	db := openStore(loadConfig())
	defer db.Close()

	results, err := db.ListSince(time.Time{})
	if err != nil {
		fatalf("Error reading results: %v", err)
	}
	data, err := exportDocument(results, time.Now())
	if err != nil {
		fatalf("Error building export: %v", err)
	}
	if err := store.WriteFileAtomic(out, data); err != nil {
		fatalf("Error writing export: %v", err)
	}
	fmt.Printf("Exported %d results to %s\n", len(results), out)
}

// exportDocument encodes results and checks them against the published
// schema, so a file that is written is always valid.
func exportDocument(results []store.Result, now time.Time) ([]byte, error) {
	data, err := store.NewExport(results, now).Marshal()
	if err != nil {
		return nil, err
	}
	if err := schemavalidation.ValidateResults(data); err != nil {
		return nil, err
	}
	return data, nil
}

func cmdValidate(args []string) {
	if len(args) < 1 {
		fatalf("Usage: halfqwertyctl validate <file.json>")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		fatalf("Error reading file: %v", err)
	}
	if err := schemavalidation.ValidateResults(data); err != nil {
		fatalf("%s: INVALID\n%v", args[0], err)
	}
	fmt.Printf("%s: valid %s document\n", args[0], store.ExportSchema)
}

func cmdPrune(args []string) {
	fs := flag.NewFlagSet("prune", flag.ExitOnError)
	olderThan := fs.Duration("older-than", 0, "delete results started before now minus this duration (e.g. 720h)")
	fs.Parse(args)

	if *olderThan <= 0 {
		fatalf("Usage: halfqwertyctl prune -older-than <duration>")
	}

	db := openStore(loadConfig())
	defer db.Close()

	n, err := db.DeleteBefore(time.Now().Add(-*olderThan))
	if err != nil {
		fatalf("Error pruning results: %v", err)
	}
	fmt.Printf("Deleted %d results\n", n)
}
