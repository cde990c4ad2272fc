package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/graph"
	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/types"
)

var (
	traverseDepth int
	traverseTypes []string
	statsDomain   string
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Query the knowledge graph",
}

var graphTraverseCmd = &cobra.Command{
	Use:   "traverse NODE_ID",
	Short: "List nodes reachable from a start node",
	Long: `Walk outgoing edges breadth-first from NODE_ID up to --depth hops and
print every reachable node, the start node included. --types restricts
the walk to the given relationship types.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := types.ParseID(args[0])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		a, err := newApp(ctx, true)
		if err != nil {
			return err
		}
		defer a.close(ctx)

		nodes, err := a.backend.Traverse(ctx, start, graph.TraverseOptions{
			MaxDepth:          traverseDepth,
			RelationshipTypes: traverseTypes,
		})
		if err != nil {
			return err
		}

		if outputJSON {
			return printJSON(cmd, nodes)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tDOMAIN\tTYPE\tNAME")
		for _, n := range nodes {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", n.ID, n.Domain, n.Type, n.GetStringProperty("name"))
		}
		w.Flush()
		cmd.Printf("\n%d nodes\n", len(nodes))
		return nil
	},
}

var graphPathCmd = &cobra.Command{
	Use:   "path START_ID END_ID",
	Short: "Find a shortest path between two nodes",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := types.ParseID(args[0])
		if err != nil {
			return err
		}
		end, err := types.ParseID(args[1])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		a, err := newApp(ctx, true)
		if err != nil {
			return err
		}
		defer a.close(ctx)

		path, err := a.backend.FindShortestPath(ctx, start, end)
		if err != nil {
			return err
		}

		if outputJSON {
			return printJSON(cmd, path)
		}
		ids := make([]string, len(path.NodeIDs))
		for i, id := range path.NodeIDs {
			ids[i] = id.String()
		}
		cmd.Printf("%s\n%d hops\n", strings.Join(ids, " -> "), path.Length)
		return nil
	},
}

var graphStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show node counts per entity type",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, true)
		if err != nil {
			return err
		}
		defer a.close(ctx)

		domains := []string{statsDomain}
		if statsDomain == "" {
			domains = a.domains.Domains()
		}

		all := make(map[string]map[string]int, len(domains))
		for _, name := range domains {
			counts, err := a.backend.CountByType(ctx, name)
			if err != nil {
				return err
			}
			all[name] = counts
		}
		if outputJSON {
			return printJSON(cmd, all)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DOMAIN\tTYPE\tNODES")
		for _, name := range domains {
			typeNames := make([]string, 0, len(all[name]))
			for t := range all[name] {
				typeNames = append(typeNames, t)
			}
			sort.Strings(typeNames)
			for _, t := range typeNames {
				fmt.Fprintf(w, "%s\t%s\t%d\n", name, t, all[name][t])
			}
		}
		return w.Flush()
	},
}

var graphHealthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check graph backend connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, true)
		if err != nil {
			return err
		}
		defer a.close(ctx)

		status := a.backend.Health(ctx)
		if outputJSON {
			return printJSON(cmd, status)
		}
		cmd.Printf("%s: %s\n", status.State, status.Message)
		if !status.IsHealthy() {
			return fmt.Errorf("backend is %s", status.State)
		}
		return nil
	},
}

func init() {
	graphTraverseCmd.Flags().IntVar(&traverseDepth, "depth", 3, "Maximum traversal depth in hops")
	graphTraverseCmd.Flags().StringSliceVar(&traverseTypes, "types", nil, "Restrict to these relationship types")
	graphStatsCmd.Flags().StringVar(&statsDomain, "domain", "", "Restrict stats to one domain")

	graphCmd.AddCommand(graphTraverseCmd)
	graphCmd.AddCommand(graphPathCmd)
	graphCmd.AddCommand(graphStatsCmd)
	graphCmd.AddCommand(graphHealthCmd)
}
