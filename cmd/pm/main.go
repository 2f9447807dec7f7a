package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pm-go/internal/app"
	"pm-go/internal/config"
	"pm-go/internal/encryption"
	"pm-go/internal/pm"
	"pm-go/internal/vault"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runOpts holds the global flags.
var runOpts app.RunOptions

// loadConfig reads the config file named by the defaults.
func loadConfig() (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

// newApp reads the config and creates a PMApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "import", "sync").
func newApp(operation, parameters string) (*app.PMApp, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewPMApp(cfg, runOpts, operation, parameters)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// closeApp closes a for commands that change the archive, reporting a failed
// close through err unless the command already failed.
func closeApp(a *app.PMApp, err *error) {
	if cerr := a.Close(); cerr != nil && *err == nil {
		*err = fmt.Errorf("closing session: %w", cerr)
	}
}

// passphraseReader prompts for passphrases, without echo when in is a
// terminal. Piped input goes through one buffered reader so consecutive
// prompts each get their own line.
type passphraseReader struct {
	in    *os.File
	out   io.Writer
	lines *bufio.Reader
}

func newPassphraseReader(in *os.File, out io.Writer) *passphraseReader {
	return &passphraseReader{in: in, out: out, lines: bufio.NewReader(in)}
}

// Read shows prompt and returns the entered line without its line ending.
func (p *passphraseReader) Read(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	fd := int(p.in.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(p.out)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	line, err := p.lines.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

var passphrases = newPassphraseReader(os.Stdin, os.Stderr)

var rootCmd = &cobra.Command{
	Use:          "pm",
	Short:        "Photo archive manager",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init [ROOT]",
	Short: "Initialize configuration for an archive root",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		encrypt, _ := cmd.Flags().GetBool("encrypt")

		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}
		if _, err := os.Stat(defaults["config_path"]); err == nil {
			return fmt.Errorf("config file already exists at %s", defaults["config_path"])
		}

		root := "."
		if len(args) > 0 {
			root = args[0]
		}
		if root, err = app.ExpandHome(root); err != nil {
			return err
		}
		if root, err = filepath.Abs(root); err != nil {
			return fmt.Errorf("resolving archive root: %w", err)
		}

		archiveID := pm.UUIDGenerator{}.New()
		cfg := config.NewConfig(archiveID, defaults["base_dir"], root)

		if encrypt {
			cfg.Encryption = config.EncryptionConfig{
				Type:           "age",
				PublicKeyPath:  filepath.Join(defaults["key_dir"], "pm.pub"),
				PrivateKeyPath: filepath.Join(defaults["key_dir"], "pm.key"),
			}
			pass, err := passphrases.Read("New passphrase: ")
			if err != nil {
				return fmt.Errorf("reading passphrase: %w", err)
			}
			confirm, err := passphrases.Read("Repeat passphrase: ")
			if err != nil {
				return fmt.Errorf("reading passphrase: %w", err)
			}
			if pass != confirm {
				return fmt.Errorf("passphrases do not match")
			}
			if err := encryption.NewAgeEncryptor(cfg.Encryption).Setup(pass); err != nil {
				return fmt.Errorf("setting up encryption keys: %w", err)
			}
		}

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Archive ID:   %s\n", archiveID)
		fmt.Printf("Archive Root: %s\n", root)
		fmt.Printf("Base Dir:     %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Archive ID:   %s\n", cfg.ArchiveID)
		fmt.Printf("Archive Root: %s\n", cfg.Archive.Root)
		fmt.Printf("Ledger:       %s (%s)\n", cfg.Archive.LedgerName, cfg.Archive.Hash)
		fmt.Printf("Timezone:     %s\n", cfg.Archive.Timezone)
		fmt.Printf("Base Dir:     %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:      %s\n", cfg.LogDir)
		fmt.Printf("Database:     %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		for _, v := range cfg.Vaults {
			fmt.Printf("Vault:        %s (%s)\n", v.Name, v.Type)
		}
		fmt.Printf("Encryption:   %s\n", cfg.Encryption.Type)
		if cfg.Encryption.Type == "age" {
			recipient, err := encryption.NewAgeEncryptor(cfg.Encryption).Recipient()
			if err != nil {
				fmt.Printf("Recipient:    unavailable (%v)\n", err)
			} else {
				fmt.Printf("Recipient:    %s\n", recipient)
			}
		}
		return nil
	},
}

var configVaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Manage vaults",
}

var configVaultCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify that every configured vault is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if len(cfg.Vaults) == 0 {
			fmt.Println("No vaults configured.")
			return nil
		}

		failed := 0
		for _, vc := range cfg.Vaults {
			v, err := vault.NewVaultFromConfig(vc)
			if err == nil {
				err = v.ValidateSetup()
			}
			if err != nil {
				failed++
				fmt.Printf("%-12s FAIL  %v\n", vc.Name, err)
				continue
			}
			fmt.Printf("%-12s ok\n", vc.Name)
		}
		if failed > 0 {
			return fmt.Errorf("%d vault(s) not usable", failed)
		}
		return nil
	},
}

// import command
var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Copy the files listed in a datefile into the archive",
	Long: `Copy the files listed in a datefile into the archive.

Each line is "path,mtime,create,orig,creation,gps"; trailing timestamps may be
omitted. FILE "-" reads the datefile from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		overwrite, _ := cmd.Flags().GetBool("overwrite")

		a, err := newApp("import", args[0])
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		summary, err := a.Import(args[0], overwrite)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		fmt.Printf("%s (%d file(s))\n", summary, summary.Total())
		return nil
	},
}

// sync command
var syncCmd = &cobra.Command{
	Use:   "sync [FILE]",
	Short: "Reconcile the archive with its ledger, or relocate files listed in FILE",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		adopt, _ := cmd.Flags().GetBool("adopt")

		if len(args) == 1 {
			return runRelocate(args[0])
		}

		a, err := newApp("sync", "")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		report, err := a.Sync(adopt)
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		for _, p := range report.Removed {
			fmt.Printf("removed  %s\n", p)
		}
		for _, p := range report.Adopted {
			fmt.Printf("adopted  %s\n", p)
		}
		for _, p := range report.Unknown {
			fmt.Printf("unknown  %s\n", p)
		}
		for _, p := range report.Clutter {
			fmt.Printf("clutter  %s\n", p)
		}
		if !report.Changed() && len(report.Unknown) == 0 && len(report.Clutter) == 0 {
			fmt.Println("Archive and ledger agree.")
		}
		return nil
	},
}

func runRelocate(datefile string) (err error) {
	a, err := newApp("relocate", datefile)
	if err != nil {
		return err
	}
	defer closeApp(a, &err)

	summary, err := a.Relocate(datefile)
	if err != nil {
		return fmt.Errorf("relocate failed: %w", err)
	}
	fmt.Printf("%s (%d file(s))\n", summary, summary.Total())
	return nil
}

// stat command
var statCmd = &cobra.Command{
	Use:   "stat",
	Short: "Count archived files per extension",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("stat", "")
		if err != nil {
			return err
		}
		defer a.Close()

		stats, total := a.Stat()
		for _, s := range stats {
			suffix := s.Suffix
			if suffix == "" {
				suffix = "(none)"
			}
			fmt.Printf("%8d  %s\n", s.Count, suffix)
		}
		fmt.Printf("%8d  total\n", total)
		return nil
	},
}

// scan command
var scanCmd = &cobra.Command{
	Use:   "scan DIR",
	Short: "Write a datefile for the media files in DIR",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		recursive, _ := cmd.Flags().GetBool("recursive")
		output, _ := cmd.Flags().GetString("output")

		dir, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolving path: %w", err)
		}

		w := os.Stdout
		if output != "" && output != "-" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating output: %w", err)
			}
			defer f.Close()
			w = f
		}

		n, err := app.ScanDatefile(dir, recursive, w, runOpts)
		if err != nil {
			return err
		}
		if w != os.Stdout {
			fmt.Fprintf(os.Stderr, "Wrote %d line(s) to %s\n", n, output)
		}
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View archive operation history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("history", "")
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.GetHistory(limit)
		if err != nil {
			return err
		}

		if len(ops) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}

		for _, op := range ops {
			duration := ""
			if op.FinishedAt.Valid {
				d := op.FinishedAt.Time.Sub(op.StartedAt)
				duration = d.Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-10s  %s  %-8s  %-10s  %s\n",
				op.ID,
				op.Operation,
				op.StartedAt.Format("2006-01-02 15:04:05"),
				op.Status,
				duration,
				op.Summary,
			)
		}
		return nil
	},
}

// log command
var logCmd = &cobra.Command{
	Use:   "log PATH",
	Short: "View the history of an archive path",
	Long:  "View the history of an archive path. PATH is absolute or relative to the archive root.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("log", "")
		if err != nil {
			return err
		}
		defer a.Close()

		events, err := a.GetFileLog(args[0])
		if err != nil {
			return err
		}

		if len(events) == 0 {
			fmt.Println("No history for this path.")
			return nil
		}

		for _, e := range events {
			hash := e.Hash
			if len(hash) > 12 {
				hash = hash[:12]
			}
			from := ""
			if e.SourcePath != "" {
				from = "  from " + e.SourcePath
			}
			resolved := ""
			if e.ResolvedFrom != "" {
				resolved = "  [" + e.ResolvedFrom + "]"
			}
			fmt.Printf("%s  #%d  %-6s  %-10s  %-12s  %s%s%s\n",
				e.CreatedAt.Format("2006-01-02 15:04:05"),
				e.OperationID,
				e.Action,
				e.Status,
				hash,
				e.ArchivePath,
				from,
				resolved,
			)
		}
		return nil
	},
}

// ledger command
var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Manage ledger snapshots",
}

var ledgerRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore the ledger from the newest vault snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		result, err := app.RestoreLedger(cfg, runOpts, func() (string, error) {
			return passphrases.Read("Passphrase: ")
		}, force)
		if err != nil {
			return fmt.Errorf("restore failed: %w", err)
		}

		verb := "Restored"
		if runOpts.DryRun {
			verb = "Would restore"
		}
		fmt.Printf("%s %d ledger entries (version %d) to %s\n", verb, result.Entries, result.Version, result.LedgerPath)
		if result.HistoryRestored {
			fmt.Printf("Restored history database to %s\n", result.HistoryPath)
		}
		return nil
	},
}

func init() {
	// global flags
	rootCmd.PersistentFlags().StringVar(&runOpts.Home, "home", "", "Archive root (overrides archive.root)")
	rootCmd.PersistentFlags().BoolVarP(&runOpts.DryRun, "dry-run", "n", false, "Report what would change without changing anything")
	rootCmd.PersistentFlags().BoolVarP(&runOpts.Verbose, "verbose", "v", false, "Log debug detail")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().Bool("encrypt", false, "Generate age keys and encrypt vault snapshots")
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configVaultCmd)
	configVaultCmd.AddCommand(configVaultCheckCmd)

	// ledger subcommands
	ledgerCmd.AddCommand(ledgerRestoreCmd)
	ledgerRestoreCmd.Flags().Bool("force", false, "Replace an existing ledger and history database")

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().Bool("overwrite", false, "Re-file content that is already archived")
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().Bool("adopt", false, "Add unknown files to the ledger")
	rootCmd.AddCommand(statCmd)
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().BoolP("recursive", "r", false, "Recurse into subdirectories")
	scanCmd.Flags().StringP("output", "o", "", "Write the datefile to this path instead of stdout")
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "l", 50, "Maximum number of operations to show")
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(ledgerCmd)
}
