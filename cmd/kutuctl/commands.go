package main

import (
	"os"

	"github.com/spf13/cobra"
)

func (c *cli) notesheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notesheets [input]",
		Short: "Build merged notesheets from group-delimited record text",
		Long: `Reads one athlete per line (last name, first name, birth year, club,
category) with groups separated by a line of dashes, and writes one page per
group and apparatus.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.delimiterRune()
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			stop, err := c.start(cmd.Context())
			if err != nil {
				return err
			}
			defer stop()
			art, err := c.svc.Notesheets(cmd.Context(), f, d)
			if err != nil {
				return err
			}
			return c.writeArtifact(cmd, art)
		},
	}
	cmd.Flags().StringVarP(&c.output, "output", "o", "", "output file, - for stdout")
	return cmd
}

func (c *cli) rankingCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "ranking [request]",
		Short: "Build the ranking PDF",
		Long: `Ranks the athletes of a request file (.json, .yaml or scored .csv).
Without --all only the first category is written; with --all every category is
packed into a zip archive.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := c.readRequest(args[0])
			if err != nil {
				return err
			}
			stop, err := c.start(cmd.Context())
			if err != nil {
				return err
			}
			defer stop()
			produce := c.svc.Ranking
			if all {
				produce = c.svc.RankingBundle
			}
			art, err := produce(cmd.Context(), req)
			if err != nil {
				return err
			}
			return c.writeArtifact(cmd, art)
		},
	}
	cmd.Flags().StringVarP(&c.output, "output", "o", "", "output file, - for stdout")
	cmd.Flags().BoolVar(&all, "all", false, "one ranking per category in a zip archive")
	return cmd
}

func (c *cli) standingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "standings [request]",
		Short: "Print ranked rows as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := c.readRequest(args[0])
			if err != nil {
				return err
			}
			standings, err := c.svc.Standings(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd, standings)
		},
	}
}

func (c *cli) exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [request]",
		Short: "Write a request as a YAML interchange file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := c.readRequest(args[0])
			if err != nil {
				return err
			}
			art, err := c.svc.Export(req)
			if err != nil {
				return err
			}
			return c.writeArtifact(cmd, art)
		},
	}
	cmd.Flags().StringVarP(&c.output, "output", "o", "", "output file, - for stdout")
	return cmd
}

func (c *cli) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file.yaml]",
		Short: "Print a YAML interchange file as a JSON request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			req, err := c.svc.Import(data)
			if err != nil {
				return err
			}
			return printJSON(cmd, req)
		},
	}
}

func (c *cli) recordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records [request]",
		Short: "Write a request as scored record text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := c.readRequest(args[0])
			if err != nil {
				return err
			}
			d, err := c.delimiterRune()
			if err != nil {
				return err
			}
			art, err := c.svc.RecordText(req, d)
			if err != nil {
				return err
			}
			return c.writeArtifact(cmd, art)
		},
	}
	cmd.Flags().StringVarP(&c.output, "output", "o", "", "output file, - for stdout")
	return cmd
}
