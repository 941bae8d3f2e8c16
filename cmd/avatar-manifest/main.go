package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tendant/avatar-manifest/internal/config"
	"github.com/tendant/avatar-manifest/internal/utils"
	"github.com/tendant/avatar-manifest/pkg/version"
)

func main() {
	// A missing .env is fine
	_ = godotenv.Load()

	if err := newRootCmd(viper.New()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cli holds state shared by the commands of one invocation
type cli struct {
	v       *viper.Viper
	cfgFile string
	verbose bool
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	c := &cli{v: v}

	root := &cobra.Command{
		Use:   "avatar-manifest",
		Short: "Build the avatar manifest for the static site",
		Long: `avatar-manifest scans an avatars directory, treats every subdirectory
as a group of images and writes a JSON manifest describing them.

In passthrough mode the manifest links to the original files. In transcode
mode every image is re-encoded into a bounded asset and a square thumbnail
under the output directory.`,
		Version:       version.Short(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          c.runBuild,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.cfgFile, "config", "", "config file (default is ./avatars.yaml)")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "Verbose output")
	flags.StringP("input", "i", config.DefaultInputRoot, "Input root containing one directory per group")
	flags.StringP("output", "o", config.DefaultOutputDir, "Output directory")
	flags.StringP("mode", "m", config.DefaultMode, "Build mode: passthrough or transcode")
	flags.String("repo", "", "GitHub owner/repo used to derive the site URL")
	flags.String("base-url", "", "Public base URL of the site (overrides --repo)")
	flags.Bool("gzip", false, "Also write a gzip-compressed manifest")
	flags.Bool("progress", false, "Show a progress bar while building")

	_ = v.BindPFlag("input.root", flags.Lookup("input"))
	_ = v.BindPFlag("output.directory", flags.Lookup("output"))
	_ = v.BindPFlag("mode", flags.Lookup("mode"))
	_ = v.BindPFlag("site.owner_repo", flags.Lookup("repo"))
	_ = v.BindPFlag("site.base_url", flags.Lookup("base-url"))
	_ = v.BindPFlag("output.gzip", flags.Lookup("gzip"))

	root.AddCommand(c.buildCmd())
	root.AddCommand(c.watchCmd())
	root.AddCommand(c.configCmd())
	root.AddCommand(versionCmd())

	return root
}

// load reads the effective configuration and a logger built from it
func (c *cli) load() (*config.Config, *utils.Logger, error) {
	cfg, err := config.Load(c.v, c.cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := utils.NewLogger(utils.LoggerOptions{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Verbose: c.verbose,
	})
	return cfg, log, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Full())
		},
	}
}
