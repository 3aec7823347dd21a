// analyze runs the correlation detector over a file of applicant records
// and prints the per-record analysis with a batch summary as JSON.
//
// Records are read from a JSON or JSONC file (or stdin with "-"): either a
// bare array or an object with a "records" array. By default the batch is
// compared against itself; with --reference every record is instead compared
// against a population of known legitimate users.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"verity/internal/detection"
)

// exitError carries a non-zero exit status that is not a failure to run.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }
func (e *exitError) ExitCode() int { return e.code }

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		var coded *exitError
		if errors.As(err, &coded) {
			fmt.Fprintln(os.Stderr, coded.msg)
			os.Exit(coded.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type output struct {
	Summary detection.Summary  `json:"summary"`
	Results []detection.Result `json:"results,omitempty"`
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	var (
		referencePath   string
		nowFlag         string
		pretty          bool
		summaryOnly     bool
		failOnSynthetic bool
	)

	flagSet := pflag.NewFlagSet("analyze", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVarP(&referencePath, "reference", "r", "", "compare each record against this reference population instead of the batch")
	flagSet.StringVar(&nowFlag, "now", "", "evaluation date (YYYY-MM-DD or RFC 3339) for age rules; defaults to today")
	flagSet.BoolVarP(&pretty, "pretty", "p", false, "indent the JSON output")
	flagSet.BoolVar(&summaryOnly, "summary-only", false, "print only the batch summary")
	flagSet.BoolVar(&failOnSynthetic, "fail-on-synthetic", false, "exit with status 2 when any record is synthetic")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintf(stdout, "usage: analyze [flags] <records.json|->\n\n%s", flagSet.FlagUsages())
			return nil
		}
		return err
	}
	if flagSet.NArg() != 1 {
		return errors.New("expected exactly one records file (use - for stdin)")
	}

	now, err := parseNow(nowFlag)
	if err != nil {
		return err
	}

	records, err := readRecords(flagSet.Arg(0), stdin)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return errors.New("no records provided for analysis")
	}

	var results []detection.Result
	if referencePath != "" {
		reference, err := detection.LoadReference(referencePath)
		if err != nil {
			return err
		}
		results = make([]detection.Result, len(records))
		for i, record := range records {
			results[i] = detection.AnalyzeAgainst(record, reference, now)
		}
	} else {
		results = detection.AnalyzeBatch(records, now)
	}

	out := output{Summary: detection.Summarize(results)}
	if !summaryOnly {
		out.Results = results
	}

	encoder := json.NewEncoder(stdout)
	if pretty {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(out); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	if failOnSynthetic && out.Summary.SyntheticCount > 0 {
		return &exitError{code: 2, msg: fmt.Sprintf("%d of %d records flagged synthetic", out.Summary.SyntheticCount, out.Summary.TotalRecords)}
	}
	return nil
}

func readRecords(path string, stdin io.Reader) ([]detection.Record, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	return detection.ParseRecords(data)
}

func parseNow(value string) (time.Time, error) {
	if value == "" {
		return time.Now().UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now %q: want YYYY-MM-DD or RFC 3339", value)
	}
	return t, nil
}
