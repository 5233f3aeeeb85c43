package service

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/trellis-ai/trellis-ai/app/core"
	v1 "github.com/trellis-ai/trellis-ai/app/logic/v1"
	"github.com/trellis-ai/trellis-ai/app/logic/v1/process"
)

type Options struct {
	ConfigPath string
}

func (o *Options) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVarP(&o.ConfigPath, "config", "c", "", "init api by given config")
}

func NewCommand() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "service",
		Short: "chat service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(opts)
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

func Run(opts *Options) error {
	app := core.MustSetupCore(core.MustLoadBaseConfig(opts.ConfigPath))
	proc := process.NewProcess(app)
	proc.Start()

	err := serve(app)

	proc.Stop()
	if cerr := app.Close(); err == nil {
		err = cerr
	}
	return err
}

func NewProcessCommand() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "process",
		Short: "background process",
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunProcess(opts)
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

func RunProcess(opts *Options) error {
	app := core.MustSetupCore(core.MustLoadBaseConfig(opts.ConfigPath))
	proc := process.NewProcess(app)
	proc.Start()
	fmt.Println("Process starting...")
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	<-sigs
	proc.Stop()
	return app.Close()
}

type ImportOptions struct {
	ConfigPath string
	Dir        string
}

// NewImportCommand runs one corpus import and exits, for seeding a fresh
// deployment before the service starts.
func NewImportCommand() *cobra.Command {
	opts := &ImportOptions{}
	cmd := &cobra.Command{
		Use:   "import",
		Short: "import corpus files into the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunImport(opts)
		},
	}
	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "init api by given config")
	cmd.Flags().StringVarP(&opts.Dir, "dir", "d", "", "corpus directory, defaults to the configured one")
	return cmd
}

func RunImport(opts *ImportOptions) error {
	app := core.MustSetupCore(core.MustLoadBaseConfig(opts.ConfigPath))
	defer app.Close()

	dir := opts.Dir
	if dir == "" {
		dir = app.Cfg().Corpus.Dir
	}
	if dir == "" {
		return fmt.Errorf("no corpus directory: pass --dir or set corpus.dir in the config")
	}

	stats, err := v1.NewCorpusLogic(context.Background(), app).ImportDir(dir)
	if err != nil {
		return err
	}

	fmt.Printf("imported %d files (%d unchanged), %d chunks, %d sources pruned\n",
		stats.Files, stats.Skipped, stats.Chunks, stats.Pruned)
	return nil
}
