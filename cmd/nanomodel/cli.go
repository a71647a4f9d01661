package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/arthur-debert/nanomodel/nanomodel"
	"github.com/arthur-debert/nanomodel/storage"
)

const defaultDB = "nanomodel.json"

// ViperCLI is the nanomodel command line, configured from flags, NANOMODEL_*
// environment variables and an optional nanomodel.json config file.
type ViperCLI struct {
	rootCmd   *cobra.Command
	viperInst *viper.Viper
	out       io.Writer
	errOut    io.Writer
}

// NewViperCLI creates a new Viper-powered CLI
func NewViperCLI() *ViperCLI {
	cli := &ViperCLI{
		viperInst: viper.New(),
		out:       os.Stdout,
		errOut:    os.Stderr,
	}

	cli.setupViperConfig()
	cli.createRootCommand()
	cli.addCommands()

	return cli
}

// setupViperConfig configures Viper with environment variables and config files
func (cli *ViperCLI) setupViperConfig() {
	if configFile := os.Getenv("NANOMODEL_CONFIG"); configFile != "" {
		cli.viperInst.SetConfigFile(configFile)
	} else {
		cli.viperInst.SetConfigName("nanomodel-config")
		cli.viperInst.SetConfigType("json")
		cli.viperInst.AddConfigPath(".")
		cli.viperInst.AddConfigPath("$HOME/.nanomodel")
		cli.viperInst.AddConfigPath("/etc/nanomodel")
	}

	cli.viperInst.AutomaticEnv()
	cli.viperInst.SetEnvPrefix("NANOMODEL")

	// --id-policy -> NANOMODEL_ID_POLICY
	cli.viperInst.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	_ = cli.viperInst.ReadInConfig()
}

// createRootCommand creates the root Cobra command with Viper integration
func (cli *ViperCLI) createRootCommand() {
	cli.rootCmd = &cobra.Command{
		Use:   "nanomodel",
		Short: "nanomodel - schema-bound collections in a single snapshot file",
		Long: `nanomodel manages typed collections (models) stored together in one
JSON or YAML snapshot file. Collections reference each other through REF
fields and can be queried, edited and served read-only over HTTP.

Configuration Sources (in order of precedence):
1. Command line flags
2. Environment variables (NANOMODEL_*)
3. Configuration files (custom path or default locations)

Configuration File Discovery:
  NANOMODEL_CONFIG=/path/to/config.json      # Custom config file path
  ./nanomodel-config.json                    # Current directory
  ~/.nanomodel/nanomodel-config.json         # User directory
  /etc/nanomodel/nanomodel-config.json       # System directory

Examples:
  nanomodel init --demo
  nanomodel list post --where likes>2 --order likes --desc
  nanomodel create user name="Ann Lee" handle=ann
  export NANOMODEL_DB=blog.yaml
  nanomodel serve --addr :8080 --watch`,

		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = cli.viperInst.BindPFlags(cmd.Flags())
			return initLogging(cli.viperInst.GetString("log-level"), cli.viperInst.GetBool("verbose"), cli.errOut)
		},
	}

	cli.addGlobalFlags()
}

// addGlobalFlags adds persistent flags that apply to all commands
func (cli *ViperCLI) addGlobalFlags() {
	flags := cli.rootCmd.PersistentFlags()

	flags.StringP("db", "d", defaultDB, "Snapshot file path (.json, .yaml or .yml)")

	flags.StringP("format", "f", "", "Output format (table|json|yaml|markdown|plain); table on a terminal, json otherwise")
	flags.BoolP("quiet", "q", false, "Suppress confirmation messages")

	flags.Bool("strict", false, "Reject values that do not fit their field type")
	flags.String("id-policy", nanomodel.NextIDLast.String(), "How new ids are assigned (last|max)")

	flags.BoolP("verbose", "v", false, "Enable verbose output")
	flags.String("log-level", "warn", "Log level (debug|info|warn|error)")

	for _, flag := range []string{"db", "format", "quiet", "strict", "id-policy", "verbose", "log-level"} {
		_ = cli.viperInst.BindPFlag(flag, flags.Lookup(flag))
	}

	envVars := map[string]string{
		"db":        "DB",
		"format":    "FORMAT",
		"quiet":     "QUIET",
		"strict":    "STRICT",
		"id-policy": "ID_POLICY",
		"verbose":   "VERBOSE",
		"log-level": "LOG_LEVEL",
	}
	for key, envVar := range envVars {
		_ = cli.viperInst.BindEnv(key, "NANOMODEL_"+envVar)
	}
}

// addCommands adds all the CLI commands
func (cli *ViperCLI) addCommands() {
	// Snapshot and schema
	cli.addInitCommand()
	cli.addCollectionsCommand()
	cli.addSchemaCommand()
	cli.addDefineCommand()
	cli.addExportCommand()

	// Rows
	cli.addListCommand()
	cli.addGetCommand()
	cli.addCreateCommand()
	cli.addUpdateCommand()
	cli.addDeleteCommand()

	// HTTP
	cli.addServeCommand()
}

// Execute runs the CLI
func (cli *ViperCLI) Execute() error {
	defer closeLogging()
	return cli.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command (used in tests)
func (cli *ViperCLI) SetArgs(args []string) {
	cli.rootCmd.SetArgs(args)
}

// SetOutput redirects command output and diagnostics (used in tests)
func (cli *ViperCLI) SetOutput(out, errOut io.Writer) {
	cli.out, cli.errOut = out, errOut
	cli.rootCmd.SetOut(out)
	cli.rootCmd.SetErr(errOut)
}

// modelOptions turns --strict and --id-policy into model options.
func (cli *ViperCLI) modelOptions() ([]nanomodel.Option, error) {
	opts := []nanomodel.Option{nanomodel.WithLogger(mainLogger)}
	if cli.viperInst.GetBool("strict") {
		opts = append(opts, nanomodel.WithCoercion(nanomodel.CoerceStrict))
	}
	switch policy := strings.ToLower(cli.viperInst.GetString("id-policy")); policy {
	case "", nanomodel.NextIDLast.String():
		opts = append(opts, nanomodel.WithIDPolicy(nanomodel.NextIDLast))
	case nanomodel.NextIDMax.String():
		opts = append(opts, nanomodel.WithIDPolicy(nanomodel.NextIDMax))
	default:
		return nil, NewValidationError("configure models", "id-policy", policy,
			"Use --id-policy last or --id-policy max")
	}
	return opts, nil
}

// openStore opens the snapshot named by --db.
func (cli *ViperCLI) openStore(operation string) (*storage.Store, error) {
	opts, err := cli.modelOptions()
	if err != nil {
		return nil, err
	}
	path := cli.dbPath()
	store, err := storage.Open(storage.NewFileStorage(path),
		storage.WithModelOptions(opts...),
		storage.WithStoreLogger(mainLogger.With("db", path)))
	if err != nil {
		return nil, NewStoreError(operation, err, CommonSuggestions.CheckDB, CommonSuggestions.CheckPerms)
	}
	return store, nil
}

func (cli *ViperCLI) dbPath() string {
	if path := cli.viperInst.GetString("db"); path != "" {
		return path
	}
	return defaultDB
}

// model looks up a collection by name, case-insensitively.
func (cli *ViperCLI) model(store *storage.Store, operation, name string) (*nanomodel.Model, error) {
	m, ok := store.Model(name)
	if !ok {
		return nil, NewCollectionError(operation, name, store.Catalog().SortedNames())
	}
	return m, nil
}

// outputFormat returns --format, or table when writing to a terminal and
// json otherwise.
func (cli *ViperCLI) outputFormat() string {
	if format := cli.viperInst.GetString("format"); format != "" {
		return strings.ToLower(format)
	}
	if f, ok := cli.out.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return "table"
	}
	return "json"
}

// confirm prints a confirmation line unless --quiet is set.
func (cli *ViperCLI) confirm(format string, args ...interface{}) {
	if cli.viperInst.GetBool("quiet") {
		return
	}
	fmt.Fprintf(cli.out, format+"\n", args...)
}
