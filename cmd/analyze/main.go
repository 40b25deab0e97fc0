// Command analyze runs the inverse-call analysis on a single stock data file
// and prints the report as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ContraTrack/internal/domain/models"
	"ContraTrack/internal/repository"
	"ContraTrack/internal/usecase"
	applogger "ContraTrack/pkg/logger"
)

const fileSuffix = "_data.json"

func main() {
	file := flag.String("file", "", "path to a {symbol}_data.json file")
	symbol := flag.String("symbol", "", "symbol override (default: taken from the file name)")
	lookup := flag.String("lookup", string(models.LookupExact), "target lookup: exact or nearest")
	maxGap := flag.Int("max-gap", 3, "max days a nearest target may roll forward (0-10)")
	rule := flag.String("rule", string(models.RuleLiteral), "verdict rule: literal or strict")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Parse()

	if err := run(*file, *symbol, *lookup, *maxGap, *rule, *logLevel); err != nil {
		fmt.Fprintln(os.Stderr, "analyze:", err)
		os.Exit(1)
	}
}

func run(file, symbol, lookup string, maxGap int, rule, logLevel string) error {
	if file == "" {
		return fmt.Errorf("-file is required")
	}
	if lookup != string(models.LookupExact) && lookup != string(models.LookupNearest) {
		return fmt.Errorf("-lookup must be exact or nearest, got %q", lookup)
	}
	if rule != string(models.RuleLiteral) && rule != string(models.RuleStrict) {
		return fmt.Errorf("-rule must be literal or strict, got %q", rule)
	}
	if maxGap < 0 || maxGap > 10 {
		return fmt.Errorf("-max-gap must be within [0,10], got %d", maxGap)
	}

	base := filepath.Base(file)
	if symbol == "" {
		if !strings.HasSuffix(strings.ToLower(base), fileSuffix) {
			return fmt.Errorf("cannot derive symbol from %q, pass -symbol", base)
		}
		symbol = base[:len(base)-len(fileSuffix)]
	}

	l := applogger.NewWriter(os.Stderr, logLevel)
	dir, cleanup, err := stageFile(file, symbol)
	if err != nil {
		return err
	}
	defer cleanup()
	store := repository.NewJSONStore(dir, l)
	uc := usecase.NewAnalysisUseCase(store, store, store, usecase.WithAnalysisLogger(l))

	rep, err := uc.Analyze(context.Background(), symbol, models.AnalysisOptions{
		Lookup:     models.LookupMode(lookup),
		MaxGapDays: models.GapDays(maxGap),
		Rule:       models.VerdictRule(rule),
	})
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// stageFile returns a directory in which the store finds file under the
// name it expects for symbol. Files already named that way are used in place.
func stageFile(file, symbol string) (string, func(), error) {
	noop := func() {}
	want := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(symbol), "$")) + fileSuffix
	if filepath.Base(file) == want {
		return filepath.Dir(file), noop, nil
	}
	b, err := os.ReadFile(file)
	if err != nil {
		return "", noop, fmt.Errorf("read %s: %w", file, err)
	}
	dir, err := os.MkdirTemp("", "contratrack-analyze-")
	if err != nil {
		return "", noop, err
	}
	cleanup := func() { _ = os.RemoveAll(dir) }
	if err := os.WriteFile(filepath.Join(dir, want), b, 0o600); err != nil {
		cleanup()
		return "", noop, err
	}
	return dir, cleanup, nil
}
