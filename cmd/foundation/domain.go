package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/domain"
)

var domainCmd = &cobra.Command{
	Use:   "domain",
	Short: "Inspect and extend the domain type system",
}

var domainListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered domains",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		names := a.domains.Domains()
		if outputJSON {
			return printJSON(cmd, names)
		}
		for _, name := range names {
			cmd.Println(name)
		}
		return nil
	},
}

var domainShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Show a domain's entity and relationship types",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		d, ok := a.domains.Domain(args[0])
		if !ok {
			return fmt.Errorf("domain %q is not registered", args[0])
		}
		if outputJSON {
			return printJSON(cmd, d)
		}

		cmd.Printf("%s (version %s)\n\n", d.Name, d.Version)
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ENTITY TYPE\tREQUIRED PROPERTIES")
		for _, et := range d.EntityTypes {
			fmt.Fprintf(w, "%s\t%v\n", et.Name, et.RequiredProperties)
		}
		fmt.Fprintln(w, "\nRELATIONSHIP TYPE\tSOURCE\tTARGET")
		for _, rt := range d.RelationshipTypes {
			fmt.Fprintf(w, "%s\t%v\t%v\n", rt.Name, rt.ValidSourceTypes, rt.ValidTargetTypes)
		}
		return w.Flush()
	},
}

var domainRegisterCmd = &cobra.Command{
	Use:   "register FILE",
	Short: "Register a domain module file against the running registry",
	Long: `Load a domain module file and register it on top of the builtin and
configured domains. This checks the module for type-name conflicts with
everything already registered; add the file to domains.paths in the
config to register it on every start.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		loaded, err := domain.NewLoader().LoadFile(args[0])
		if err != nil {
			return err
		}
		for _, d := range loaded {
			if err := a.domains.Register(d); err != nil {
				return err
			}
			cmd.Printf("registered %s (version %s)\n", d.Name, d.Version)
		}
		cmd.Printf("add %s to domains.paths in the config to keep it registered\n", args[0])
		return nil
	},
}

var domainValidateCmd = &cobra.Command{
	Use:   "validate FILE",
	Short: "Validate a domain module file without registering it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := domain.NewLoader().LoadFile(args[0])
		if err != nil {
			return err
		}
		for _, d := range loaded {
			cmd.Printf("%s: %d entity types, %d relationship types\n",
				d.Name, len(d.EntityTypes), len(d.RelationshipTypes))
		}
		cmd.Println("OK")
		return nil
	},
}

func init() {
	domainCmd.AddCommand(domainListCmd)
	domainCmd.AddCommand(domainShowCmd)
	domainCmd.AddCommand(domainRegisterCmd)
	domainCmd.AddCommand(domainValidateCmd)
}
