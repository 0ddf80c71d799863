package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	app "github.com/geku/kutu/internal/app"
	"github.com/geku/kutu/internal/config"
	"github.com/geku/kutu/internal/domain/ingest"
	"github.com/geku/kutu/internal/domain/model"
	"github.com/geku/kutu/pkg/logger"
)

// cli holds state shared by all subcommands.
type cli struct {
	configPath string
	delimiter  string
	output     string

	// compiler replaces the configured engine when set.
	compiler app.Compiler

	cfg *config.Config
	svc *app.Service
}

func newRootCmd(compiler app.Compiler) *cobra.Command {
	c := &cli{compiler: compiler}

	root := &cobra.Command{
		Use:   "kutuctl",
		Short: "Gymnastics notesheets and rankings",
		Long: `Build notesheet and ranking PDFs from competition files and convert
between the JSON, YAML and record text formats.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", os.Getenv(config.EnvConfig), "YAML config file")
	root.PersistentFlags().StringVarP(&c.delimiter, "delimiter", "d", "", "record text field delimiter (default from config)")

	root.AddCommand(
		c.notesheetsCmd(),
		c.rankingCmd(),
		c.standingsCmd(),
		c.exportCmd(),
		c.importCmd(),
		c.recordsCmd(),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := config.LoadFile(ctx, c.configPath)
	if err != nil {
		return err
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithOutput(cmd.ErrOrStderr())); err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}
	c.cfg = cfg
	c.svc = app.NewFromConfig(cfg, logger.Get().Named("kutuctl"), c.compiler)
	return nil
}

// start brings up the compile workers for commands that produce PDFs. The
// returned func stops them.
func (c *cli) start(ctx context.Context) (func(), error) {
	if err := c.svc.Start(ctx); err != nil {
		return nil, err
	}
	return func() { c.svc.Stop(context.WithoutCancel(ctx)) }, nil
}

func (c *cli) delimiterRune() (rune, error) {
	if c.delimiter == "" {
		return 0, nil
	}
	return ingest.ParseDelimiter(c.delimiter)
}

// readRequest loads a ranking request from a .json, .yaml/.yml or scored
// record text file.
func (c *cli) readRequest(path string) (model.RankingRequest, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return model.RankingRequest{}, err
		}
		return c.svc.Import(data)
	case ".csv", ".txt":
		d, err := c.delimiterRune()
		if err != nil {
			return model.RankingRequest{}, err
		}
		f, err := os.Open(path)
		if err != nil {
			return model.RankingRequest{}, err
		}
		defer func() { _ = f.Close() }()
		return c.svc.FromRecordText(f, d)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return model.RankingRequest{}, err
		}
		var req model.RankingRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return model.RankingRequest{}, fmt.Errorf("decode %s: %w", path, err)
		}
		return req, nil
	}
}

// writeArtifact writes a to --output, or to its own file name in the
// working directory, and reports the path.
func (c *cli) writeArtifact(cmd *cobra.Command, a app.Artifact) error {
	path := c.output
	if path == "" {
		path = a.Filename
	}
	if path == "-" {
		_, err := cmd.OutOrStdout().Write(a.Data)
		return err
	}
	if err := os.WriteFile(path, a.Data, 0o644); err != nil { //nolint:gosec // output files are meant to be shared
		return err
	}
	cmd.PrintErrln("wrote", path)
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
