package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/bnema/filterdedup/internal/classifier"
	"github.com/bnema/filterdedup/internal/export"
	"github.com/bnema/filterdedup/internal/logger"
	"github.com/bnema/filterdedup/internal/models"
	"github.com/bnema/filterdedup/internal/normalizer"
	"github.com/bnema/filterdedup/internal/sources"
)

const defaultConfigPath = "./configs/filterdedup.toml"

var (
	cfgFile  string
	verbose  bool
	cfg      models.Config
	listInfo export.ListInfo
	cfgErr   error
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "filterdedup",
	Short: "Merge and deduplicate ad-blocking filter lists",
	Long: `A tool that fetches ad-blocking filter lists, classifies every rule,
merges duplicates across sources and exports the result as filter lists
and DNS blocklists.`,
	SilenceUsage: true,
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Fetch, deduplicate and export the configured filter lists",
	RunE:  runBuild,
}

var classifyCmd = &cobra.Command{
	Use:   "classify [file]",
	Short: "Print the kind of every line of a file or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runClassify,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured filter lists",
	RunE:  runList,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	RunE:  runInit,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: "+defaultConfigPath+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output and debug logging")

	buildCmd.Flags().StringP("output", "o", "", "output directory (overrides output.dir)")
	buildCmd.Flags().Bool("dry-run", false, "process lists without writing files")
	buildCmd.Flags().Bool("no-dedup", false, "skip cross-source deduplication")
	buildCmd.Flags().StringSliceP("format", "f", nil, "output format, repeatable (overrides output.formats)")

	classifyCmd.Flags().Bool("key", false, "also print the deduplication key")

	rootCmd.AddCommand(buildCmd, classifyCmd, listCmd, initCmd)
}

func initConfig() {
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("filterdedup")
		viper.SetConfigType("toml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("FILTERDEDUP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		cfgErr = fmt.Errorf("parsing config: %w", err)
		return
	}
	if err := viper.UnmarshalKey("output.header", &listInfo); err != nil {
		cfgErr = fmt.Errorf("parsing output.header: %w", err)
		return
	}
	cfgErr = cfg.Validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.timeout", "30s")
	v.SetDefault("http.retries", 3)
	v.SetDefault("http.backoff", "2s")
	v.SetDefault("http.user_agent", "filterdedup/1.0 (+https://github.com/bnema/filterdedup)")
	v.SetDefault("http.concurrency", 4)
	v.SetDefault("output.dir", "./output")
	v.SetDefault("output.formats", []string{"adguard", "hosts"})
	v.SetDefault("output.max_rules_per_file", export.MaxRulesPerFile)
	v.SetDefault("output.generate_manifest", true)
	v.SetDefault("dedup.enabled", true)
	v.SetDefault("dedup.maintainer", sources.Maintainer)
	v.SetDefault("dedup.cache_size", normalizer.DefaultCacheSize)
}

func newLogger() (*zap.Logger, error) {
	return logger.New(verbose)
}

func runBuild(cmd *cobra.Command, args []string) error {
	if cfgErr != nil {
		return cfgErr
	}
	outputDir, _ := cmd.Flags().GetString("output")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	noDedup, _ := cmd.Flags().GetBool("no-dedup")
	formatNames, _ := cmd.Flags().GetStringSlice("format")

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	opts := buildOptions{
		OutputDir: outputDir,
		DryRun:    dryRun,
		NoDedup:   noDedup,
		Formats:   formatNames,
		Verbose:   verbose,
		ListInfo:  listInfo,
	}
	_, err = runPipeline(cmd.Context(), cfg, opts, log, cmd.OutOrStdout())
	return err
}

func runClassify(cmd *cobra.Command, args []string) error {
	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	withKey, _ := cmd.Flags().GetBool("key")
	return classifyLines(in, cmd.OutOrStdout(), withKey)
}

// classifyLines writes kind, deciding step and line for each input line
func classifyLines(r io.Reader, w io.Writer, withKey bool) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		kind, step := classifier.Explain(line)
		if withKey {
			res := normalizer.Normalize(line)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", kind, step, res.Key, line)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", kind, step, line)
	}
	return scanner.Err()
}

func runList(cmd *cobra.Command, args []string) error {
	if cfgErr != nil {
		return cfgErr
	}
	table, err := loadSources(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, "Configured filter lists:\n\n")
	for _, list := range cfg.Lists {
		status := "enabled"
		if !list.Enabled {
			status = "disabled"
		}
		info := table.Info(table.Resolve(list.Name, list.URL))
		fmt.Fprintf(out, "  [%s] %s\n", status, list.Name)
		fmt.Fprintf(out, "         %s\n", list.URL)
		fmt.Fprintf(out, "         category=%s trusted=%t priority=%d\n\n", info.Category, info.Trusted, info.Priority)
	}
	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := defaultConfigPath
	if cfgFile != "" {
		configPath = cfgFile
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s", configPath)
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0644); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created config file: %s\n", configPath)
	return nil
}

// loadSources returns the built-in reputation table merged with the
// configured override file
func loadSources(c models.Config) (*sources.Table, error) {
	table := sources.Builtin()
	if c.SourcesFile != "" {
		if err := table.LoadFile(c.SourcesFile); err != nil {
			return nil, err
		}
	}
	return table, nil
}
