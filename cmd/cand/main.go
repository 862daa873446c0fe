package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"cand-go/internal/api"
	"cand-go/internal/app"
	"cand-go/internal/cand"
	"cand-go/internal/config"
	"cand-go/internal/model"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var version = "dev"

var stdin = bufio.NewReader(os.Stdin)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func readConfig() (*config.Config, error) {
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

// newApp reads the config and creates a CandApp. The caller must defer app.Close().
// command identifies the CLI command being run (e.g. "import", "serve").
func newApp(command string) (*app.CandApp, error) {
	cfg, err := readConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewCandApp(cfg, command)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// readSecret prompts on stderr and reads a line without echo when stdin is a terminal.
func readSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return string(b), nil
	}

	line, err := stdin.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// parseAssignments turns repeated COLUMN=VALUE flags into a field map.
func parseAssignments(pairs []string) (map[string]string, error) {
	fields := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid assignment %q (want COLUMN=VALUE)", p)
		}
		fields[k] = v
	}
	return fields, nil
}

func parseIndex(arg string) (int, error) {
	idx, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q: %w", arg, err)
	}
	return idx, nil
}

func criteriaFromFlags(cmd *cobra.Command) cand.Criteria {
	agencies, _ := cmd.Flags().GetStringSlice("agency")
	roles, _ := cmd.Flags().GetStringSlice("role")
	statuses, _ := cmd.Flags().GetStringSlice("status")
	name, _ := cmd.Flags().GetString("name")
	return cand.Criteria{
		Agencies:     agencies,
		Roles:        roles,
		Statuses:     statuses,
		NameContains: name,
	}
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("agency", nil, "Only agencies (repeatable)")
	cmd.Flags().StringSlice("role", nil, "Only roles (repeatable)")
	cmd.Flags().StringSlice("status", nil, "Only raw statuses (repeatable)")
	cmd.Flags().String("name", "", "Case-insensitive name substring")
}

var rootCmd = &cobra.Command{
	Use:          "cand",
	Short:        "Candidate record manager",
	Version:      version,
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration and database",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}
		if err := app.Migrate(cfg); err != nil {
			return fmt.Errorf("failed to create database: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
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
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Database:   %s\n", cfg.Database.Type)
		fmt.Printf("Documents:  %s\n", cfg.Documents.Type)
		fmt.Printf("Encryption: %s\n", cfg.Encryption.Type)
		fmt.Printf("Server:     %s\n", cfg.Server.Addr)
		return nil
	},
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Generate the document encryption key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}

		pass, err := readSecret("New passphrase: ")
		if err != nil {
			return err
		}
		confirm, err := readSecret("Repeat passphrase: ")
		if err != nil {
			return err
		}
		if pass != confirm {
			return errors.New("passphrases do not match")
		}

		if err := app.SetupEncryption(cfg, pass); err != nil {
			return fmt.Errorf("setting up encryption: %w", err)
		}
		fmt.Printf("Keys written to %s\n", filepath.Dir(cfg.Encryption.PublicKeyPath))
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}
		if err := app.Migrate(cfg); err != nil {
			return err
		}
		fmt.Println("Database is up to date.")
		return nil
	},
}

// import command
var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Replace the candidate table with a spreadsheet (.xlsx, .xls, .csv)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		headerRow, _ := cmd.Flags().GetInt("header-row")

		a, err := newApp("import")
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.ImportFile(args[0], headerRow)
		if errors.Is(err, cand.ErrEmptyInput) {
			fmt.Println("Warning: the sheet is empty, nothing imported.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		fmt.Printf("Imported %d candidate(s)\n", n)
		return nil
	},
}

// list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List candidates matching the filters",
	RunE: func(cmd *cobra.Command, args []string) error {
		showOptions, _ := cmd.Flags().GetBool("options")

		a, err := newApp("list")
		if err != nil {
			return err
		}
		defer a.Close()

		rows, opts, err := a.Filter(criteriaFromFlags(cmd))
		if err != nil {
			return err
		}

		if showOptions {
			fmt.Printf("Agencies: %s\n", strings.Join(opts.Agencies, ", "))
			fmt.Printf("Roles:    %s\n", strings.Join(opts.Roles, ", "))
			fmt.Printf("Statuses: %s\n", strings.Join(opts.Statuses, ", "))
			fmt.Println()
		}

		if len(rows) == 0 {
			fmt.Println("No candidates found.")
			return nil
		}
		for _, r := range rows {
			fmt.Printf("%4d  %-12s  %-16s  %-28s  %s\n",
				r.Index,
				r.Record[model.ColAgency],
				r.Record[model.ColRole],
				r.Record[model.ColName],
				cand.Canonicalize(r.Record[model.ColStatus]),
			)
		}
		return nil
	},
}

// add command
var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Append a candidate",
	RunE: func(cmd *cobra.Command, args []string) error {
		sets, _ := cmd.Flags().GetStringArray("set")
		fields, err := parseAssignments(sets)
		if err != nil {
			return err
		}

		a, err := newApp("add")
		if err != nil {
			return err
		}
		defer a.Close()

		idx, err := a.InsertRecord(fields)
		if err != nil {
			return err
		}
		fmt.Printf("Added candidate #%d\n", idx)
		return nil
	},
}

// edit command
var editCmd = &cobra.Command{
	Use:   "edit INDEX",
	Short: "Update fields of a candidate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := parseIndex(args[0])
		if err != nil {
			return err
		}
		sets, _ := cmd.Flags().GetStringArray("set")
		fields, err := parseAssignments(sets)
		if err != nil {
			return err
		}

		a, err := newApp("edit")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.UpdateRecord(idx, fields); err != nil {
			return err
		}
		fmt.Printf("Updated candidate #%d\n", idx)
		return nil
	},
}

// rm command
var rmCmd = &cobra.Command{
	Use:   "rm INDEX",
	Short: "Delete a candidate; later candidates shift down by one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := parseIndex(args[0])
		if err != nil {
			return err
		}

		a, err := newApp("rm")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.DeleteRecord(idx); err != nil {
			return err
		}
		fmt.Printf("Deleted candidate #%d\n", idx)
		return nil
	},
}

// stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count candidates by status",
	RunE: func(cmd *cobra.Command, args []string) error {
		grouped, _ := cmd.Flags().GetBool("grouped")

		a, err := newApp("stats")
		if err != nil {
			return err
		}
		defer a.Close()

		counts, err := a.StatusSummary(criteriaFromFlags(cmd), grouped)
		if err != nil {
			return err
		}
		if len(counts) == 0 {
			fmt.Println("No candidates found.")
			return nil
		}
		for _, c := range counts {
			fmt.Printf("%-24s  %5d  %5.1f%%\n", c.Status, c.Count, c.Percent)
		}
		return nil
	},
}

// reset command
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every candidate",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")

		a, err := newApp("reset")
		if err != nil {
			return err
		}
		defer a.Close()

		secret, err := readSecret("Reset secret: ")
		if err != nil {
			return err
		}
		if err := a.Reset(secret, yes); err != nil {
			if errors.Is(err, cand.ErrNotConfirmed) {
				return fmt.Errorf("%w: pass --yes to delete all candidates", err)
			}
			return err
		}
		fmt.Println("All candidates deleted.")
		return nil
	},
}

// docs command
var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Manage candidate documents",
}

var docsListCmd = &cobra.Command{
	Use:   "list INDEX",
	Short: "List a candidate's documents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := parseIndex(args[0])
		if err != nil {
			return err
		}

		a, err := newApp("docs list")
		if err != nil {
			return err
		}
		defer a.Close()

		folder, err := a.DocumentFolder(idx)
		if err != nil {
			return err
		}
		names, err := a.ListDocuments(idx)
		if err != nil {
			return err
		}

		fmt.Printf("Folder: %s\n", folder)
		if len(names) == 0 {
			fmt.Println("No documents.")
			return nil
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	},
}

var docsUploadCmd = &cobra.Command{
	Use:   "upload INDEX FILE",
	Short: "Upload a .pdf or .docx as one of the candidate's documents",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := parseIndex(args[0])
		if err != nil {
			return err
		}
		docType, _ := cmd.Flags().GetString("type")
		if docType == "" {
			return fmt.Errorf("--type is required, one of: %s", strings.Join(cand.DocumentTypes, "; "))
		}

		f, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("opening document: %w", err)
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return fmt.Errorf("stat document: %w", err)
		}

		a, err := newApp("docs upload")
		if err != nil {
			return err
		}
		defer a.Close()

		path, err := a.UploadDocument(idx, docType, f, info.Size(), filepath.Base(args[1]))
		if err != nil {
			return err
		}
		fmt.Printf("Stored %s\n", path)
		return nil
	},
}

var docsGetCmd = &cobra.Command{
	Use:   "get INDEX NAME",
	Short: "Download a document to the current directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := parseIndex(args[0])
		if err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("output")
		if out == "" {
			out = args[1]
		}

		a, err := newApp("docs get")
		if err != nil {
			return err
		}
		defer a.Close()

		if a.EncryptionEnabled() {
			pass, err := readSecret("Passphrase: ")
			if err != nil {
				return err
			}
			if err := a.Unlock(pass); err != nil {
				return err
			}
		}

		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		if err := a.DownloadDocument(idx, args[1], f); err != nil {
			f.Close()
			os.Remove(out)
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
		fmt.Printf("Saved %s\n", out)
		return nil
	},
}

var docsRmCmd = &cobra.Command{
	Use:   "rm INDEX NAME",
	Short: "Delete a document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := parseIndex(args[0])
		if err != nil {
			return err
		}

		a, err := newApp("docs rm")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.DeleteDocument(idx, args[1]); err != nil {
			return err
		}
		fmt.Printf("Deleted %s\n", args[1])
		return nil
	},
}

var docsTypesCmd = &cobra.Command{
	Use:   "types",
	Short: "List accepted document types",
	Run: func(cmd *cobra.Command, args []string) {
		types := append([]string(nil), cand.DocumentTypes...)
		sort.Strings(types)
		for _, t := range types {
			fmt.Println(t)
		}
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View recorded operations",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("history")
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.History(limit)
		if err != nil {
			return err
		}
		if len(ops) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}

		for _, op := range ops {
			duration := ""
			if op.FinishedAt != nil {
				duration = op.FinishedAt.Sub(op.StartedAt).Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-15s  %s  %-8s  %-8s  %s\n",
				op.ID,
				op.Operation,
				op.StartedAt.Format("2006-01-02 15:04:05"),
				op.Status,
				duration,
				op.Parameters,
			)
		}
		return nil
	},
}

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup DEST",
	Short: "Write a snapshot of the candidate database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("backup")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Backup(args[0]); err != nil {
			return err
		}
		fmt.Printf("Database saved to %s\n", args[0])
		return nil
	},
}

// serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}
		unlock, _ := cmd.Flags().GetBool("unlock")

		a, err := app.NewCandApp(cfg, "serve")
		if err != nil {
			return fmt.Errorf("initializing app: %w", err)
		}
		defer a.Close()

		if unlock {
			pass, err := readSecret("Passphrase: ")
			if err != nil {
				return err
			}
			if err := a.Unlock(pass); err != nil {
				return err
			}
		}

		e := api.NewServer(a, a.Logger(), version)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			a.Logger().Info("listening", "addr", cfg.Server.Addr)
			errCh <- e.Start(cfg.Server.Addr)
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configKeysCmd)

	// docs subcommands
	docsCmd.AddCommand(docsListCmd)
	docsCmd.AddCommand(docsUploadCmd)
	docsUploadCmd.Flags().StringP("type", "t", "", "Document type, e.g. \"MX04 - CURP\"")
	docsCmd.AddCommand(docsGetCmd)
	docsGetCmd.Flags().StringP("output", "o", "", "Output path (defaults to NAME)")
	docsCmd.AddCommand(docsRmCmd)
	docsCmd.AddCommand(docsTypesCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().Int("header-row", 0, "0-based row holding the column names")
	rootCmd.AddCommand(listCmd)
	addFilterFlags(listCmd)
	listCmd.Flags().Bool("options", false, "Also print the available filter values")
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringArray("set", nil, "COLUMN=VALUE (repeatable)")
	rootCmd.AddCommand(editCmd)
	editCmd.Flags().StringArray("set", nil, "COLUMN=VALUE (repeatable)")
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(statsCmd)
	addFilterFlags(statsCmd)
	statsCmd.Flags().Bool("grouped", true, "Merge statuses outside the main set into OTROS")
	rootCmd.AddCommand(resetCmd)
	resetCmd.Flags().Bool("yes", false, "Confirm deleting every candidate")
	rootCmd.AddCommand(docsCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (defaults to server.addr)")
	serveCmd.Flags().Bool("unlock", false, "Prompt for the passphrase so encrypted documents can be downloaded")
}
