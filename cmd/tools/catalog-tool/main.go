// cmd/tools/catalog-tool/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"homebuyer-workers/internal/catalog"
	"homebuyer-workers/internal/eligibility"
)

const defaultCatalogPath = "configs/loan-programs.json"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		help(stderr)
		return 1
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(stderr)
		path := fs.String("path", defaultCatalogPath, "Path to catalog file (.json, .yaml, .yml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 1
		}
		c, err := load(*path)
		if err != nil {
			fmt.Fprintf(stderr, "Catalog validation failed: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "Catalog validation passed: %d programs.\n", c.Len())

	case "list":
		fs := flag.NewFlagSet("list", flag.ContinueOnError)
		fs.SetOutput(stderr)
		path := fs.String("path", defaultCatalogPath, "Path to catalog file (.json, .yaml, .yml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 1
		}
		c, err := load(*path)
		if err != nil {
			fmt.Fprintf(stderr, "Error loading catalog: %v\n", err)
			return 1
		}
		list(stdout, c)

	case "explain":
		fs := flag.NewFlagSet("explain", flag.ContinueOnError)
		fs.SetOutput(stderr)
		path := fs.String("path", defaultCatalogPath, "Path to catalog file (.json, .yaml, .yml)")
		profilePath := fs.String("profile", "", "Path to a UserProfile JSON document")
		if err := fs.Parse(args[1:]); err != nil {
			return 1
		}
		if *profilePath == "" {
			fmt.Fprintln(stderr, "Error: -profile is required for explain.")
			fs.Usage()
			return 1
		}
		c, err := load(*path)
		if err != nil {
			fmt.Fprintf(stderr, "Error loading catalog: %v\n", err)
			return 1
		}
		if err := explain(stdout, c, *profilePath); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}

	case "help":
		help(stdout)

	default:
		help(stderr)
		return 1
	}
	return 0
}

func load(path string) (*eligibility.Catalog, error) {
	return catalog.NewFileSource(path).Load(context.Background())
}

func list(w io.Writer, c *eligibility.Catalog) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tMIN CREDIT\tMIN DOWN %\tMAX DTI %\tRESTRICTION")
	for _, p := range c.Programs() {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%g\t%g\t%s\n",
			p.ID, p.Type, p.MinCreditScore, p.MinDownPaymentPercent, p.MaxDTIPercent, restriction(p))
	}
	tw.Flush()
}

func restriction(p eligibility.LoanProgram) string {
	switch {
	case p.RequiresMilitaryService:
		return "military"
	case p.RequiresFirstTime:
		return "first-time"
	default:
		return "-"
	}
}

func explain(w io.Writer, c *eligibility.Catalog, profilePath string) error {
	raw, err := os.ReadFile(profilePath)
	if err != nil {
		return fmt.Errorf("read profile: %w", err)
	}
	var profile eligibility.UserProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return fmt.Errorf("parse profile: %w", err)
	}

	engine, err := eligibility.NewEngine(c)
	if err != nil {
		return err
	}
	result, err := engine.Evaluate(profile)
	if err != nil {
		return err
	}
	excluded, err := engine.ExcludedPrograms(profile)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "DTI: %.1f%%  Readiness: %d (%s)\n",
		result.DTIRatio, result.ReadinessScore, eligibility.ReadinessLevel(result.ReadinessScore))
	for _, m := range result.Matches {
		fmt.Fprintf(w, "  match    %-20s score=%d\n", m.Program.ID, m.MatchScore)
	}

	ids := make([]string, 0, len(excluded))
	for id := range excluded {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(w, "  excluded %-20s %s\n", id, excluded[id])
	}
	return nil
}

func help(w io.Writer) {
	fmt.Fprintln(w, "Usage: catalog-tool <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  validate  Check a catalog file against the schema and catalog rules")
	fmt.Fprintln(w, "  list      Print programs in catalog order")
	fmt.Fprintln(w, "  explain   Evaluate a profile and show matched and excluded programs")
	fmt.Fprintln(w, "  help      Show this help message")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  catalog-tool validate -path configs/loan-programs.json")
	fmt.Fprintln(w, "  catalog-tool list -path configs/loan-programs.yaml")
	fmt.Fprintln(w, "  catalog-tool explain -profile profile.json")
}
