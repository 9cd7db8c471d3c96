package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hylla/rota/internal/adapters/client/httpclient"
	"github.com/hylla/rota/internal/adapters/client/local"
	"github.com/hylla/rota/internal/adapters/markup"
	"github.com/hylla/rota/internal/adapters/pdf"
	"github.com/hylla/rota/internal/adapters/server"
	"github.com/hylla/rota/internal/adapters/server/common"
	"github.com/hylla/rota/internal/adapters/storage/sqlite"
	"github.com/hylla/rota/internal/app"
	"github.com/hylla/rota/internal/config"
	"github.com/hylla/rota/internal/domain"
	"github.com/hylla/rota/internal/editor"
	"github.com/hylla/rota/internal/platform"
	"github.com/hylla/rota/internal/tui"
)

// version stores a package-level helper value.
var version = "dev"

// program represents program data used by this package.
type program interface {
	Run() (tea.Model, error)
}

// programFactory stores a package-level helper value.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// now is replaced in tests.
var now = time.Now

// main handles main.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// run builds the command tree and executes it with args.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return fang.Execute(ctx, root, fang.WithVersion(version))
}

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
}

// monthOptions select the schedule month; zero means the default month.
type monthOptions struct {
	year  int
	month int
}

// register adds the month flags to cmd.
func (o *monthOptions) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&o.year, "year", 0, "schedule year (default: next month's year)")
	cmd.Flags().IntVar(&o.month, "month", 0, "schedule month 1-12 (default: next month)")
}

// resolve validates the flags against the default month.
func (o monthOptions) resolve() (common.MonthRef, error) {
	year, month := app.DefaultMonth(now())
	rawYear, rawMonth := "", ""
	if o.year != 0 {
		rawYear = strconv.Itoa(o.year)
	}
	if o.month != 0 {
		rawMonth = strconv.Itoa(o.month)
	}
	return common.ResolveMonth(common.MonthRef{Year: year, Month: month}, rawYear, rawMonth)
}

// newRootCommand builds the rota command tree.
func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:           "rota",
		Short:         "Plan, edit, and commit monthly duty schedules",
		Long:          "rota generates monthly duty schedules from a roster, lets you rearrange them in a terminal or browser, and records committed months as assignment history.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	defaultDev := version == "dev"
	if envDev, ok := parseBoolEnv("ROTA_DEV_MODE"); ok {
		defaultDev = envDev
	}
	appName := platform.DefaultAppName
	if envApp := strings.TrimSpace(os.Getenv("ROTA_APP_NAME")); envApp != "" {
		appName = envApp
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config TOML")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "path to sqlite database")
	root.PersistentFlags().StringVar(&opts.appName, "app", appName, "application name for config/data path resolution")
	root.PersistentFlags().BoolVar(&opts.devMode, "dev", defaultDev, "use dev mode paths (<app>-dev)")

	edit := newEditCommand(opts, stderr)
	root.RunE = edit.RunE
	root.Flags().AddFlagSet(edit.Flags())

	root.AddCommand(
		edit,
		newServeCommand(opts, stderr),
		newPDFCommand(opts, stdout, stderr),
		newExportCommand(opts, stdout, stderr),
		newImportCommand(opts, stdout, stderr),
		newHistoryCommand(opts, stdout, stderr),
		newStatsCommand(opts, stdout, stderr),
		newPathsCommand(opts, stdout),
	)
	return root
}

// environment is the resolved paths, config, and logger of one invocation.
type environment struct {
	paths      platform.Paths
	configPath string
	defaults   config.Config
	cfg        config.Config
	logger     *runtimeLogger
}

// loadEnvironment resolves paths, loads config, and starts the logger.
func loadEnvironment(opts *globalOptions, stderr io.Writer, command string) (*environment, error) {
	paths, err := platform.DefaultPathsWithOptions(platform.Options{AppName: opts.appName, DevMode: opts.devMode})
	if err != nil {
		return nil, err
	}
	configPath := opts.configPath
	if configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("ROTA_CONFIG")); envPath != "" {
			configPath = envPath
		} else {
			configPath = paths.ConfigPath
		}
	}
	dbPath := strings.TrimSpace(opts.dbPath)
	dbOverridden := dbPath != ""
	if !dbOverridden {
		if envPath := strings.TrimSpace(os.Getenv("ROTA_DB_PATH")); envPath != "" {
			dbPath = envPath
			dbOverridden = true
		} else {
			dbPath = paths.DBPath
		}
	}

	defaults := config.Default(dbPath)
	cfg, err := config.Load(configPath, defaults)
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}

	logger, err := newRuntimeLogger(stderr, opts.appName, opts.devMode, cfg.Logging, now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	logger.Info("startup configuration resolved", "app", opts.appName, "dev_mode", opts.devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir, "db_path", cfg.Database.Path)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}
	return &environment{paths: paths, configPath: configPath, defaults: defaults, cfg: cfg, logger: logger}, nil
}

// close releases the logger.
func (e *environment) close(stderr io.Writer) {
	if err := e.logger.Close(); err != nil {
		_, _ = fmt.Fprintf(stderr, "warning: close runtime log sink: %v\n", err)
	}
}

// store is an open repository plus the service over it.
type store struct {
	repo *sqlite.Repository
	svc  *app.Service
}

// openStore opens sqlite and builds the application service.
func openStore(env *environment) (*store, error) {
	catalog, err := env.cfg.Catalog()
	if err != nil {
		return nil, fmt.Errorf("build roster: %w", err)
	}
	renderer, err := markup.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("build html renderer: %w", err)
	}
	env.logger.Info("opening sqlite repository", "db_path", env.cfg.Database.Path)
	repo, err := sqlite.Open(env.cfg.Database.Path)
	if err != nil {
		env.logger.Error("sqlite open failed", "db_path", env.cfg.Database.Path, "err", err)
		return nil, fmt.Errorf("open sqlite repository: %w", err)
	}
	env.logger.Info("sqlite repository ready", "db_path", env.cfg.Database.Path, "migrations", "ensured")

	svc := app.NewService(repo, uuid.NewString, now, app.ServiceConfig{
		Catalog:  catalog,
		Renderer: renderer,
		Printer: pdf.Printer{
			Bin:      env.cfg.PDF.ChromeBin,
			Headless: env.cfg.PDF.Headless,
			Timeout:  env.cfg.PDF.Timeout(),
		},
	})
	env.logger.Debug("application service initialized", "duties", len(catalog.Duties), "people", len(catalog.People))
	return &store{repo: repo, svc: svc}, nil
}

// close closes the repository.
func (s *store) close(logger *runtimeLogger) {
	if err := s.repo.Close(); err != nil {
		logger.Warn("sqlite close failed", "err", err)
	}
}

// withStore runs fn with an open environment and store, logging the command flow.
func withStore(opts *globalOptions, stderr io.Writer, command string, fn func(*environment, *store) error) error {
	env, err := loadEnvironment(opts, stderr, command)
	if err != nil {
		return err
	}
	defer env.close(stderr)
	st, err := openStore(env)
	if err != nil {
		return err
	}
	defer st.close(env.logger)

	env.logger.Info("command flow start", "command", command)
	if err := fn(env, st); err != nil {
		env.logger.Error("command flow failed", "command", command, "err", err)
		return fmt.Errorf("run %s command: %w", command, err)
	}
	env.logger.Info("command flow complete", "command", command)
	return nil
}

// editBackend is what the terminal editor needs from local or remote storage.
type editBackend interface {
	editor.Persister
	Load(ctx context.Context) (common.Document, error)
	Stats(ctx context.Context) ([]domain.DutyStats, error)
}

// newEditCommand builds `rota edit`, which is also the default command.
func newEditCommand(opts *globalOptions, stderr io.Writer) *cobra.Command {
	var (
		months monthOptions
		remote string
	)
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit a month's schedule in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ref, err := months.resolve()
			if err != nil {
				return err
			}
			env, err := loadEnvironment(opts, stderr, "edit")
			if err != nil {
				return err
			}
			defer env.close(stderr)
			// Log lines would tear the alt screen; they still reach the dev file.
			env.logger.SetConsoleEnabled(false)

			if strings.TrimSpace(remote) != "" {
				client := httpclient.New(remote, env.cfg.Editor.RequestTimeout())
				if months.year != 0 || months.month != 0 {
					client.Month = ref
				}
				env.logger.Info("editing remote schedule", "url", client.BaseURL)
				return runEditor(cmd.Context(), env, client, func(ctx context.Context) (string, error) {
					return downloadPDF(ctx, client, env.paths)
				})
			}

			st, err := openStore(env)
			if err != nil {
				return err
			}
			defer st.close(env.logger)
			backend := local.New(common.NewAppServiceAdapter(st.svc), ref)
			env.logger.Info("editing local schedule", "year", ref.Year, "month", int(ref.Month))
			return runEditor(cmd.Context(), env, backend, func(ctx context.Context) (string, error) {
				doc, err := backend.PDF(ctx)
				if err != nil {
					return "", err
				}
				return writePDF(env.paths, doc.Filename, doc.Content)
			})
		},
	}
	months.register(cmd)
	cmd.Flags().StringVar(&remote, "remote", "", "edit through a running rota server at this base URL")
	return cmd
}

// runEditor loads the document, runs the TUI, and flushes the session on exit.
func runEditor(ctx context.Context, env *environment, backend editBackend, exportPDF func(context.Context) (string, error)) error {
	doc, err := backend.Load(ctx)
	if err != nil {
		env.logger.Error("schedule load failed", "err", err)
		return fmt.Errorf("load schedule: %w", err)
	}
	session := editor.NewSession(doc.Layout(), backend,
		editor.WithConfig(editor.Config{
			AutosaveDelay:      env.cfg.Editor.AutosaveDelay(),
			ToastDuration:      env.cfg.Editor.ToastDuration(),
			CommitConfirmDelay: env.cfg.Editor.CommitConfirmDelay(),
			RequestTimeout:     env.cfg.Editor.RequestTimeout(),
		}),
		editor.WithLogger(env.logger),
	)
	defer session.Close()

	m := tui.NewModel(session,
		tui.WithPDFExporter(exportPDF),
		tui.WithStatsSource(backend.Stats),
		tui.WithReloader(func(ctx context.Context) (domain.Layout, error) {
			doc, err := backend.Load(ctx)
			if err != nil {
				return domain.Layout{}, err
			}
			return doc.Layout(), nil
		}),
	)
	env.logger.Info("starting tui program loop", "title", doc.Title)
	if _, err := programFactory(m).Run(); err != nil {
		env.logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	env.logger.Info("command flow complete", "command", "edit")
	return nil
}

// downloadPDF fetches the month's PDF from a server into the export dir.
func downloadPDF(ctx context.Context, client *httpclient.Client, paths platform.Paths) (string, error) {
	var buf bytes.Buffer
	filename, err := client.DownloadPDF(ctx, &buf)
	if err != nil {
		return "", err
	}
	return writePDF(paths, filename, buf.Bytes())
}

// writePDF stores content under the export dir.
func writePDF(paths platform.Paths, filename string, content []byte) (string, error) {
	target := paths.PDFPath(filename)
	if err := writeFile(target, content); err != nil {
		return "", err
	}
	return target, nil
}

// newServeCommand builds `rota serve`.
func newServeCommand(opts *globalOptions, stderr io.Writer) *cobra.Command {
	var (
		months monthOptions
		bind   string
		watch  bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the schedule page, save/commit API, PDF export, and MCP tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ref, err := months.resolve()
			if err != nil {
				return err
			}
			return withStore(opts, stderr, "serve", func(env *environment, st *store) error {
				if strings.TrimSpace(bind) == "" {
					bind = env.cfg.Server.Bind
				}
				cfg := server.Config{
					HTTPBind:      bind,
					MCPEndpoint:   env.cfg.Server.MCPEndpoint,
					ServerName:    "rota",
					ServerVersion: version,
					ActiveMonth:   ref,
				}
				deps := server.Dependencies{
					Schedule: common.NewAppServiceAdapter(st.svc),
					Logger:   env.logger,
				}
				env.logger.Info("serving schedule", "bind", bind, "year", ref.Year, "month", int(ref.Month), "watch", watch)
				if !watch {
					return server.Run(cmd.Context(), cfg, deps)
				}
				return serveWatching(cmd.Context(), env, st, cfg, deps)
			})
		},
	}
	months.register(cmd)
	cmd.Flags().StringVar(&bind, "bind", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload the roster when the config file changes")
	return cmd
}

// serveWatching runs the server and the config watcher until either fails or ctx ends.
func serveWatching(ctx context.Context, env *environment, st *store, cfg server.Config, deps server.Dependencies) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx, cfg, deps)
	})
	g.Go(func() error {
		return config.Watch(gctx, env.configPath, env.defaults, func(next config.Config) {
			catalog, err := next.Catalog()
			if err != nil {
				env.logger.Warn("roster reload rejected", "config_path", env.configPath, "err", err)
				return
			}
			st.svc.SetCatalog(catalog)
			env.logger.Info("roster reloaded", "config_path", env.configPath, "duties", len(catalog.Duties), "people", len(catalog.People))
		}, func(err error) {
			env.logger.Warn("config reload failed", "config_path", env.configPath, "err", err)
		})
	})
	return g.Wait()
}

// newPDFCommand builds `rota pdf`.
func newPDFCommand(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	var (
		months monthOptions
		out    string
	)
	cmd := &cobra.Command{
		Use:   "pdf",
		Short: "Print a month's schedule to a landscape legal PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ref, err := months.resolve()
			if err != nil {
				return err
			}
			return withStore(opts, stderr, "pdf", func(env *environment, st *store) error {
				content, filename, err := st.svc.PDF(cmd.Context(), ref.Year, ref.Month)
				if err != nil {
					return err
				}
				target := out
				if target == "" {
					target = env.paths.PDFPath(filename)
				}
				if target == "-" {
					_, err := stdout.Write(content)
					return err
				}
				if err := writeFile(target, content); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(stdout, target)
				return nil
			})
		},
	}
	months.register(cmd)
	cmd.Flags().StringVar(&out, "out", "", "output file ('-' for stdout, default: export dir)")
	return cmd
}

// exportFile is the JSON shape of `rota export` and `rota import`.
type exportFile struct {
	Year        int                `json:"year"`
	Month       time.Month         `json:"month"`
	Assignments domain.Assignments `json:"assignments"`
}

// newExportCommand builds `rota export`.
func newExportCommand(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	var (
		months monthOptions
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a month's assignments as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ref, err := months.resolve()
			if err != nil {
				return err
			}
			return withStore(opts, stderr, "export", func(_ *environment, st *store) error {
				assignments, err := st.svc.Export(cmd.Context(), ref.Year, ref.Month)
				if err != nil {
					return fmt.Errorf("export assignments: %w", err)
				}
				encoded, err := json.MarshalIndent(exportFile{Year: ref.Year, Month: ref.Month, Assignments: assignments}, "", "  ")
				if err != nil {
					return fmt.Errorf("encode export json: %w", err)
				}
				encoded = append(encoded, '\n')
				if out == "-" {
					_, err := stdout.Write(encoded)
					return err
				}
				return writeFile(out, encoded)
			})
		},
	}
	months.register(cmd)
	cmd.Flags().StringVar(&out, "out", "-", "output file path ('-' for stdout)")
	return cmd
}

// newImportCommand builds `rota import`.
func newImportCommand(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	var in string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Overlay assignments from an export file onto its month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(in) == "" {
				return errors.New("--in is required")
			}
			content, err := os.ReadFile(in)
			if err != nil {
				return fmt.Errorf("read import file: %w", err)
			}
			var file exportFile
			if err := json.Unmarshal(content, &file); err != nil {
				return fmt.Errorf("decode import json: %w", err)
			}
			return withStore(opts, stderr, "import", func(_ *environment, st *store) error {
				schedule, err := st.svc.Import(cmd.Context(), file.Year, file.Month, file.Assignments)
				if err != nil {
					return fmt.Errorf("import assignments: %w", err)
				}
				_, _ = fmt.Fprintf(stdout, "imported %d assignments into %d-%d (%d slots)\n", len(file.Assignments), file.Year, int(file.Month), len(schedule.Assignments))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "input JSON file written by export")
	return cmd
}

// newHistoryCommand builds `rota history add|subtract`.
func newHistoryCommand(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Adjust assignment history from a saved schedule page",
	}
	apply := func(name, short string, op func(*app.Service, context.Context, domain.Assignments) (int, error)) *cobra.Command {
		return &cobra.Command{
			Use:   name + " FILE",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open schedule page: %w", err)
				}
				defer f.Close()
				assignments, err := markup.ParseAssignments(f)
				if err != nil {
					return fmt.Errorf("parse schedule page %q: %w", args[0], err)
				}
				return withStore(opts, stderr, "history "+name, func(_ *environment, st *store) error {
					count, err := op(st.svc, cmd.Context(), assignments)
					if err != nil {
						return err
					}
					_, _ = fmt.Fprintf(stdout, "%s %d history entries\n", pastTense(name), count)
					return nil
				})
			},
		}
	}
	cmd.AddCommand(
		apply("add", "Record every assignment on the page as history", (*app.Service).HistoryAdd),
		apply("subtract", "Remove the page's date tasks from history", (*app.Service).HistorySubtract),
	)
	return cmd
}

// pastTense names what a history command did.
func pastTense(op string) string {
	if op == "add" {
		return "recorded"
	}
	return "removed"
}

// newStatsCommand builds `rota stats`.
func newStatsCommand(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	var width int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show how evenly duties have been spread",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(opts, stderr, "stats", func(_ *environment, st *store) error {
				stats, err := st.svc.Stats(cmd.Context())
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(stdout, tui.RenderStats(stats, width))
				return err
			})
		},
	}
	cmd.Flags().IntVar(&width, "width", 80, "wrap width")
	return cmd
}

// newPathsCommand builds `rota paths`.
func newPathsCommand(opts *globalOptions, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print the resolved config, data, and export paths",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			paths, err := platform.DefaultPathsWithOptions(platform.Options{AppName: opts.appName, DevMode: opts.devMode})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(stdout, "config: %s\n", paths.ConfigPath)
			_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(stdout, "db: %s\n", paths.DBPath)
			_, _ = fmt.Fprintf(stdout, "exports: %s\n", paths.ExportDir)
			return nil
		},
	}
}

// writeFile writes content, creating parent directories.
func writeFile(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// parseBoolEnv parses boolean env values.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
