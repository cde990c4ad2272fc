package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/scan"
)

var (
	scanDomains       []string
	scanMinConfidence float64
	scanPersist       bool
)

var scanCmd = &cobra.Command{
	Use:   "scan [FILE]",
	Short: "Detect security entities and relationships in text",
	Long: `Run pattern detection over text from FILE, or stdin when FILE is "-"
or omitted.

Detected entities and relationships are printed with their confidence
scores. With --persist, accepted candidates are also written to the
configured graph backend; re-scanning the same text never duplicates
nodes.

Examples:
  # Scan a report and print what was found
  foundation scan report.txt

  # Scan stdin and persist results to the graph
  cat advisory.md | foundation scan --persist

  # Only keep high-confidence candidates
  foundation scan report.txt --min-confidence 0.8`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringSliceVar(&scanDomains, "domains", nil, "Domains to detect against (default from config)")
	scanCmd.Flags().Float64Var(&scanMinConfidence, "min-confidence", -1, "Confidence floor in [0,1] (default from config)")
	scanCmd.Flags().BoolVar(&scanPersist, "persist", false, "Write accepted candidates to the graph backend")
}

func runScan(cmd *cobra.Command, args []string) error {
	text, err := readScanInput(args)
	if err != nil {
		return err
	}

	domains := scanDomains
	if len(domains) == 0 {
		domains = cfg.Scan.DefaultDomains
	}
	minConfidence := scanMinConfidence
	if minConfidence < 0 {
		minConfidence = cfg.Scan.MinConfidence
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, scanPersist)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	result, err := a.scans.Scan(ctx, text, domains, minConfidence)
	if err != nil {
		return err
	}

	if outputJSON {
		return printJSON(cmd, result)
	}
	printScanResult(cmd, result)
	return nil
}

func readScanInput(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read %s: %w", args[0], err)
	}
	return string(data), nil
}

func printScanResult(cmd *cobra.Command, result *scan.Result) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tDOMAIN\tTYPE\tTEXT\tCONFIDENCE")
	for _, e := range result.Entities {
		fmt.Fprintf(w, "entity\t%s\t%s\t%s\t%.2f\n", e.Domain, e.Type, e.Text, e.Confidence)
	}
	for _, r := range result.Relationships {
		label := r.Type
		if r.Source != nil && r.Target != nil {
			label = fmt.Sprintf("%s -[%s]-> %s", r.Source.Text, r.Type, r.Target.Text)
		}
		fmt.Fprintf(w, "relationship\t%s\t%s\t\t%.2f\n", r.Domain, label, r.Confidence)
	}
	w.Flush()

	cmd.Printf("\n%d entities, %d relationships in %s\n",
		result.EntitiesFound, result.RelationshipsFound, result.ProcessingTime)
	if scanPersist {
		cmd.Printf("persisted: %d new nodes, %d new edges\n",
			result.NodesCreated, result.EdgesCreated)
	}
}

var ingestCmd = &cobra.Command{
	Use:   "ingest FILE",
	Short: "Ingest structured findings into the graph",
	Long: `Read findings from a YAML file and persist each one to the graph
backend. A finding names its entity and optional related entities;
ingest is idempotent, so re-running a file converges instead of
duplicating.

The file holds a list of findings:

  - domain: security
    entity_type: vulnerability
    name: CVE-2024-3094
    properties:
      severity: critical
    related:
      - type: affects
        target_type: hostname
        target_name: build.internal`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	var findings []scan.Finding
	if err := yaml.Unmarshal(data, &findings); err != nil {
		return fmt.Errorf("parse %s: %w", args[0], err)
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	var edges int
	for i, f := range findings {
		result, err := a.scans.IngestFinding(ctx, f)
		if err != nil {
			return fmt.Errorf("finding %d (%s): %w", i, f.Name, err)
		}
		edges += result.EdgesCreated
	}
	cmd.Printf("ingested %d findings, %d new edges\n", len(findings), edges)
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	cmd.Println(string(data))
	return nil
}
