package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/booknotes/internal/common"
	"github.com/joseph-ayodele/booknotes/internal/export"
	"github.com/joseph-ayodele/booknotes/internal/notes"
	"github.com/joseph-ayodele/booknotes/internal/repository"
)

var (
	verbose   bool
	logFormat string
	envFile   string
	inMemory  bool
)

var rootCmd = &cobra.Command{
	Use:   "booknotes",
	Short: "Capture passages from book pages and keep them as notes",
	Long: `booknotes keeps a library of books and notes. Photograph a page, mark the
passages you want with forward slashes, and capture turns them into notes.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envFile != "" {
			if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("load %s: %w", envFile, err)
			}
		}
		cfg := common.LoadConfig()
		if inMemory {
			cfg.Database.Driver = common.DriverMemory
		}
		level := cfg.LogLevel
		if verbose {
			level = slog.LevelDebug
		}
		opts := &slog.HandlerOptions{Level: level}
		var handler slog.Handler
		if strings.EqualFold(logFormat, "json") {
			handler = slog.NewJSONHandler(os.Stderr, opts)
		} else {
			handler = slog.NewTextHandler(os.Stderr, opts)
		}
		slog.SetDefault(slog.New(handler))

		if err := cfg.Validate(); err != nil {
			return err
		}
		cmd.SetContext(withConfig(cmd.Context(), cfg))
		return nil
	},
}

// Execute runs the root command and exits with a code derived from the error class.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if strings.EqualFold(logFormat, "json") {
			st := status.Convert(common.ToStatus(err))
			slog.Error("command failed", "code", st.Code().String(), "error", st.Message())
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(exitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text | json")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file to load before reading configuration")
	rootCmd.PersistentFlags().BoolVar(&inMemory, "inmem", false, "Keep the library in memory only")
}

func exitCode(err error) int {
	switch common.CodeOf(err) {
	case codes.InvalidArgument:
		return 2
	case codes.NotFound:
		return 3
	case codes.FailedPrecondition:
		return 4
	case codes.DataLoss:
		return 5
	case codes.Aborted:
		return 6
	case codes.Canceled:
		return 130
	}
	return 1
}

type configKey struct{}

func withConfig(ctx context.Context, cfg *common.Config) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, configKey{}, cfg)
}

func configFrom(ctx context.Context) *common.Config {
	if cfg, ok := ctx.Value(configKey{}).(*common.Config); ok {
		return cfg
	}
	return common.LoadConfig()
}

// app wires the library and the services around it for one command invocation.
type app struct {
	cfg      *common.Config
	logger   *slog.Logger
	db       *repository.DB
	kv       repository.KVStore
	library  *repository.Library
	notes    *notes.Service
	exporter *export.Service
}

func openApp(ctx context.Context) (*app, error) {
	cfg := configFrom(ctx)
	logger := slog.Default()
	a := &app{cfg: cfg, logger: logger}

	switch cfg.Database.Driver {
	case common.DriverMemory:
		a.kv = repository.NewMemoryStore()
	default:
		db, err := repository.Open(ctx, repository.ConfigFrom(cfg.Database), logger)
		if err != nil {
			return nil, fmt.Errorf("%w: open database: %v", common.ErrDatabase, err)
		}
		store := repository.NewSQLStore(db, logger)
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close(logger)
			return nil, err
		}
		a.db, a.kv = db, store
	}

	codec, err := repository.NewCodec(cfg.Library.Codec)
	if err != nil {
		a.Close()
		return nil, err
	}
	tag, err := language.Parse(cfg.Library.Locale)
	if err != nil {
		logger.Warn("invalid locale, using en", "locale", cfg.Library.Locale, "error", err)
		tag = language.English
	}

	a.library = repository.NewLibrary(a.kv, codec, logger,
		repository.WithStrictNoteReferences(cfg.Library.StrictRefs),
		repository.WithLocale(tag),
	)
	if err := a.library.Load(ctx); err != nil {
		if !repository.IsCorruption(err) {
			a.Close()
			return nil, err
		}
		var loadErr *repository.LoadError
		if errors.As(err, &loadErr) {
			for _, c := range loadErr.Collections {
				fmt.Fprintf(os.Stderr, "warning: %s was unreadable and has been reset (backup: %s)\n", c.Key, c.Backup)
			}
		}
	}
	a.notes = notes.NewService(a.library, logger)
	a.exporter = export.NewService(a.library, logger)
	return a, nil
}

func (a *app) Close() {
	if a.kv != nil {
		_ = a.kv.Close()
	}
	if a.db != nil {
		a.db.Close(a.logger)
	}
}
