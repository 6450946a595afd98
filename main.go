// game-translator is a translation assistant for game asset files
// (JSON/XML) backed by a local SQLite translation memory and external MT
// providers.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Kyo-70/game-translator/internal/extract"
	"github.com/Kyo-70/game-translator/internal/memory"
	"github.com/Kyo-70/game-translator/internal/profile"
	"github.com/Kyo-70/game-translator/internal/providers"
	"github.com/Kyo-70/game-translator/internal/smart"
	"github.com/Kyo-70/game-translator/internal/usecase/jobs"
)

var (
	version = "dev"

	dataDir string
	verbose bool
)

// env wires up the shared subsystems once per invocation.
type env struct {
	log      *logrus.Logger
	store    *memory.Store
	smart    *smart.Translator
	profiles *profile.Manager
	manager  *providers.Manager
}

func newEnv() (*env, error) {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	store := memory.NewStore(log)
	if !store.Connect(filepath.Join(dataDir, "translation_memory.db")) {
		return nil, fmt.Errorf("could not open translation memory in %s", dataDir)
	}
	profiles, err := profile.NewManager(filepath.Join(dataDir, "profiles"), log)
	if err != nil {
		return nil, err
	}
	return &env{
		log:      log,
		store:    store,
		smart:    smart.New(store),
		profiles: profiles,
		manager:  providers.NewManager(filepath.Join(dataDir, "config.json"), filepath.Join(dataDir, "api_usage.json"), log),
	}, nil
}

func (e *env) Close() { e.store.Close() }

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "game-translator",
		Short: "Translate game asset files with a learning translation memory",
		Long: `game-translator extracts translatable text from JSON and XML game
files, resolves it against a local SQLite translation memory with
pattern-aware generalization, and falls back to external translation
APIs (DeepL, Google, LibreTranslate, MyMemory) for the rest.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dataDir, "data-dir", "data", "Directory for the memory database, profiles and config")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newExtractCmd(),
		newTranslateCmd(),
		newMemoryCmd(),
		newProfilesCmd(),
		newProvidersCmd(),
		newVersionCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("game-translator %s\n", version)
		},
	}
}

// ---------------------------------------------------------------------------
// extract (read-only: list the translatable entries of a file)
// ---------------------------------------------------------------------------

func newExtractCmd() *cobra.Command {
	var profileName, encodingName string
	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "List the translatable texts found in a game file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.Close()
			engine, err := loadEngine(e, args[0], profileName, encodingName)
			if err != nil {
				return err
			}
			stats := engine.Statistics()
			fmt.Fprintf(os.Stderr, "file: %s (%s, %s)\n", args[0], stats.FileType, stats.Encoding)
			for _, entry := range engine.Entries() {
				fmt.Printf("%4d  %s\n", entry.Index, entry.OriginalText)
			}
			fmt.Fprintf(os.Stderr, "%d entries\n", stats.TotalEntries)
			return nil
		},
	}
	cmd.Flags().StringVar(&profileName, "profile", "", "Regex profile to use (default: built-in extraction)")
	cmd.Flags().StringVar(&encodingName, "encoding", "", "Override encoding detection")
	return cmd
}

func loadEngine(e *env, path, profileName, encodingName string) (*extract.Engine, error) {
	var p *profile.Profile
	if profileName != "" {
		found, ok := e.profiles.Get(profileName)
		if !ok {
			return nil, fmt.Errorf("unknown profile %q (have: %s)", profileName, strings.Join(e.profiles.Names(), ", "))
		}
		p = found
	}
	engine := extract.New(p, e.log)
	if err := engine.LoadFile(path, encodingName); err != nil {
		return nil, err
	}
	engine.ExtractTexts()
	return engine, nil
}

// ---------------------------------------------------------------------------
// translate (extract, resolve, reinsert, save)
// ---------------------------------------------------------------------------

func newTranslateCmd() *cobra.Command {
	var profileName, encodingName, output, sourceLang, targetLang string
	var memoryOnly bool
	cmd := &cobra.Command{
		Use:   "translate <file>",
		Short: "Translate a game file in place (with backup) or to a new path",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one file")
			}
			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.Close()
			engine, err := loadEngine(e, args[0], profileName, encodingName)
			if err != nil {
				return err
			}
			entries := engine.Entries()
			texts := make([]string, 0, len(entries))
			for _, entry := range entries {
				texts = append(texts, entry.OriginalText)
			}

			var remote jobs.RemoteService
			if !memoryOnly {
				remote = e.manager
			} else {
				remote = unavailableRemote{}
			}
			worker := jobs.NewWorker(e.smart, remote, e.log)
			results := worker.Run(cmd.Context(), texts, sourceLang, targetLang, func(p jobs.Progress) {
				fmt.Fprintf(os.Stderr, "\r%d/%d", p.Done, p.Total)
			})
			fmt.Fprintln(os.Stderr)

			for _, entry := range entries {
				if translated, ok := results[entry.OriginalText]; ok {
					entry.TranslatedText = translated
				}
			}
			content := engine.ApplyTranslations(results)
			target := output
			if target == "" {
				target = args[0]
			}
			if err := engine.SaveFile(target, content, target == args[0], ""); err != nil {
				return err
			}
			stats := engine.Statistics()
			fmt.Fprintf(os.Stderr, "translated %d/%d entries -> %s\n", stats.Translated, stats.TotalEntries, target)
			return nil
		},
	}
	cmd.Flags().StringVar(&profileName, "profile", "", "Regex profile to use")
	cmd.Flags().StringVar(&encodingName, "encoding", "", "Override encoding detection")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the result here instead of overwriting the input")
	cmd.Flags().StringVar(&sourceLang, "source", "en", "Source language code")
	cmd.Flags().StringVar(&targetLang, "target", "pt", "Target language code")
	cmd.Flags().BoolVar(&memoryOnly, "memory-only", false, "Resolve from the local memory only, skip external APIs")
	return cmd
}

// unavailableRemote stands in when external APIs are disabled.
type unavailableRemote struct{}

func (unavailableRemote) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, string, error) {
	return "", "", fmt.Errorf("external providers disabled")
}

// ---------------------------------------------------------------------------
// memory (inspect and manage the translation store)
// ---------------------------------------------------------------------------

func newMemoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Manage the translation memory",
	}
	compact := &cobra.Command{
		Use:   "compact",
		Short: "Reclaim disk space after large deletes",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.Close()
			if !e.store.Compact() {
				return fmt.Errorf("compact failed")
			}
			return nil
		},
	}
	cmd.AddCommand(newMemoryStatsCmd(), newMemoryListCmd(), newMemoryExportCmd(), newMemoryImportCmd(), newMemoryClearCmd(), compact)
	return cmd
}

func newMemoryStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show translation memory statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.Close()
			stats := e.store.Stats()
			fmt.Printf("translations: %d\n", stats.TotalTranslations)
			fmt.Printf("total usage:  %d\n", stats.TotalUsage)
			fmt.Printf("categories:   %d\n", stats.Categories)
			for _, name := range e.store.Categories() {
				fmt.Printf("  %s\n", name)
			}
			return nil
		},
	}
}

func newMemoryListCmd() *cobra.Command {
	var category, search string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored translations, most used first",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.Close()
			records := e.store.List(memory.ListFilter{Category: category, Search: search, Limit: limit})
			for _, r := range records {
				fmt.Printf("%6d  [%s] %q -> %q (used %d)\n", r.ID, r.Category, r.OriginalText, r.TranslatedText, r.UsageCount)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Filter by category")
	cmd.Flags().StringVar(&search, "search", "", "Substring search over both sides")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum rows to print (0 = all)")
	return cmd
}

func newMemoryExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file.csv>",
		Short: "Export the translation memory to CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.Close()
			if !e.store.ExportCSV(args[0]) {
				return fmt.Errorf("export failed")
			}
			fmt.Fprintf(os.Stderr, "exported to %s\n", args[0])
			return nil
		},
	}
}

func newMemoryImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import translations from CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.Close()
			imported, skipped := e.store.ImportCSV(args[0])
			fmt.Fprintf(os.Stderr, "imported %d, skipped %d\n", imported, skipped)
			return nil
		},
	}
}

func newMemoryClearCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored translation",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear without --yes")
			}
			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.Close()
			if !e.store.ClearAll() {
				return fmt.Errorf("clear failed")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")
	return cmd
}

// ---------------------------------------------------------------------------
// profiles (regex extraction profiles)
// ---------------------------------------------------------------------------

func newProfilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Manage regex extraction profiles",
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List available profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.Close()
			for _, name := range e.profiles.Names() {
				p, _ := e.profiles.Get(name)
				fmt.Printf("%-20s [%s] %s\n", name, p.FileType, p.Description)
			}
			return nil
		},
	}
	export := &cobra.Command{
		Use:   "export <name> <file.json>",
		Short: "Export a profile to a JSON file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.Close()
			return e.profiles.Export(args[0], args[1])
		},
	}
	imp := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import a profile from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.Close()
			p, err := e.profiles.Import(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "imported as %q\n", p.Name)
			return nil
		},
	}
	del := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.Close()
			return e.profiles.Delete(args[0])
		},
	}
	cmd.AddCommand(list, export, imp, del)
	return cmd
}

// ---------------------------------------------------------------------------
// providers (external API management)
// ---------------------------------------------------------------------------

func newProvidersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "providers",
		Short: "Manage external translation APIs",
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List registered providers and the active one",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.Close()
			active := e.manager.Active()
			for _, name := range e.manager.Names() {
				marker := " "
				if name == active {
					marker = "*"
				}
				fmt.Printf("%s %s\n", marker, name)
			}
			return nil
		},
	}
	use := &cobra.Command{
		Use:   "use <name>",
		Short: "Pin a provider to the front of the fallback chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.Close()
			return e.manager.SetActive(args[0])
		},
	}
	usage := &cobra.Command{
		Use:   "usage",
		Short: "Show per-provider character consumption",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.Close()
			tracker := e.manager.Usage()
			for _, name := range e.manager.Names() {
				fmt.Printf("%-10s month=%d today=%d requests=%d\n",
					name, tracker.MonthChars(name), tracker.DayChars(name), tracker.Requests(name))
			}
			return nil
		},
	}
	cmd.AddCommand(list, use, usage)
	return cmd
}
