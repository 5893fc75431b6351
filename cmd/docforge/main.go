// Package main is the docforge command line tool: create, inspect, and edit
// structured documents stored as change logs in a SQLite database.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/dshills/docforge"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	DBPath     string
	SchemaPath string
	LogLevel   string
	Args       []string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()
	if len(opts.Args) == 0 {
		flag.Usage()
		return 1
	}

	logger := newLogger(opts.LogLevel)

	sc, err := loadSchema(opts.SchemaPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: load schema: %v\n", err)
		return 1
	}

	store, err := docforge.OpenStore(opts.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: open store: %v\n", err)
		return 1
	}
	eng := docforge.New(sc, docforge.WithStore(store), docforge.WithLogger(logger))
	defer eng.Close()

	ctx := context.Background()
	cmd, args := opts.Args[0], opts.Args[1:]

	if err := dispatch(ctx, eng, cmd, args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func dispatch(ctx context.Context, eng *docforge.Engine, cmd string, args []string) error {
	switch cmd {
	case "create":
		return cmdCreate(ctx, eng, args)
	case "list":
		return cmdList(ctx, eng)
	case "show":
		return cmdShow(ctx, eng, args)
	case "history":
		return cmdHistory(ctx, eng, args)
	case "append":
		return cmdAppend(ctx, eng, args)
	case "delete":
		return cmdDelete(ctx, eng, args)
	case "demo":
		return cmdDemo(ctx, eng, args)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdCreate(ctx context.Context, eng *docforge.Engine, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: docforge create <id>")
	}
	h, err := eng.CreateDocument(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("created %s at version %d\n", h.ID(), h.Version())
	return nil
}

func cmdList(ctx context.Context, eng *docforge.Engine) error {
	infos, err := eng.Store().ListDocuments(ctx)
	if err != nil {
		return err
	}
	for _, info := range infos {
		fmt.Printf("%-24s schema=%s version=%d updated=%s\n",
			info.ID, info.SchemaName, info.Version, info.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func cmdShow(ctx context.Context, eng *docforge.Engine, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: docforge show <id>")
	}
	h, err := eng.OpenDocument(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Print(h.PlainText())
	return nil
}

func cmdHistory(ctx context.Context, eng *docforge.Engine, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: docforge history <id>")
	}
	h, err := eng.OpenDocument(ctx, args[0])
	if err != nil {
		return err
	}
	changes, version, err := h.History(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d changes, version %d\n", h.ID(), len(changes), version)
	for i, c := range changes {
		fmt.Printf("%4d  %s  %s  %d ops\n", i+1, c.CreatedAt.Format("2006-01-02 15:04:05"), c.ID, len(c.Ops))
		for _, op := range c.Ops {
			fmt.Printf("      %s %s\n", op.Kind, op.Path)
		}
	}
	return nil
}

// cmdAppend inserts text at the end of the document's last text node.
func cmdAppend(ctx context.Context, eng *docforge.Engine, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: docforge append <id> <text>")
	}
	h, err := eng.OpenDocument(ctx, args[0])
	if err != nil {
		return err
	}
	_, err = h.Edit(ctx, func(tx *docforge.Transaction, ed *docforge.Editor) error {
		_, err := ed.InsertText(tx, args[1])
		return err
	})
	if err != nil {
		return err
	}
	fmt.Printf("%s now at version %d\n", h.ID(), h.Version())
	return nil
}

func cmdDelete(ctx context.Context, eng *docforge.Engine, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: docforge delete <id>")
	}
	return eng.Store().DeleteDocument(ctx, args[0])
}

// cmdDemo runs a short scripted editing session so a new database has
// something to look at.
func cmdDemo(ctx context.Context, eng *docforge.Engine, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: docforge demo <id>")
	}
	h, err := eng.CreateDocument(ctx, args[0])
	if err != nil {
		return err
	}

	steps := []func(tx *docforge.Transaction, ed *docforge.Editor) error{
		func(tx *docforge.Transaction, ed *docforge.Editor) error {
			_, err := ed.InsertText(tx, "Hello world")
			return err
		},
		func(tx *docforge.Transaction, ed *docforge.Editor) error {
			_, err := ed.Break(tx)
			return err
		},
		func(tx *docforge.Transaction, ed *docforge.Editor) error {
			_, err := ed.InsertText(tx, "Second paragraph")
			return err
		},
		func(tx *docforge.Transaction, ed *docforge.Editor) error {
			if _, err := ed.ToggleList(tx, "list"); err != nil {
				return err
			}
			return nil
		},
	}
	for _, step := range steps {
		if _, err := h.Edit(ctx, step); err != nil {
			return err
		}
	}

	fmt.Printf("%s at version %d:\n\n", h.ID(), h.Version())
	fmt.Print(h.PlainText())
	return nil
}

// loadSchema reads the schema from a YAML file, or falls back to the
// built-in note schema.
func loadSchema(path string) (*docforge.Schema, error) {
	if path != "" {
		return docforge.LoadSchemaFile(path)
	}
	return noteSchema(), nil
}

// noteSchema is the default document shape: a root container of paragraphs
// and headers, bullet lists, and bold/link annotations.
func noteSchema() *docforge.Schema {
	sc := docforge.NewSchema("note", "builtin.note.v1")
	sc.MustRegister(docforge.NodeSpec{Type: "doc", Capability: docforge.CapContainer})
	sc.MustRegister(docforge.NodeSpec{Type: "text", Capability: docforge.CapText})
	sc.MustRegister(docforge.NodeSpec{Type: "header", Capability: docforge.CapText})
	sc.MustRegister(docforge.NodeSpec{Type: "list", Capability: docforge.CapList})
	sc.MustRegister(docforge.NodeSpec{Type: "bold", Capability: docforge.CapAnnotation, AutoExpandRight: true})
	sc.MustRegister(docforge.NodeSpec{Type: "link", Capability: docforge.CapAnnotation})
	sc.SetRootType("doc")
	sc.SetDefaultTextType("text")
	return sc
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func parseFlags() options {
	var opts options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.DBPath, "db", "docforge.db", "Path to the document database")
	flag.StringVar(&opts.SchemaPath, "schema", "", "Path to a YAML schema file (default: built-in note schema)")
	flag.StringVar(&opts.SchemaPath, "s", "", "Path to a YAML schema file (shorthand)")
	flag.StringVar(&opts.LogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Docforge - structured document engine\n\n")
		fmt.Fprintf(os.Stderr, "Usage: docforge [options] <command> [args]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  create <id>         Create an empty document\n")
		fmt.Fprintf(os.Stderr, "  list                List documents\n")
		fmt.Fprintf(os.Stderr, "  show <id>           Print a document as plain text\n")
		fmt.Fprintf(os.Stderr, "  history <id>        Print a document's change log\n")
		fmt.Fprintf(os.Stderr, "  append <id> <text>  Append text to a document\n")
		fmt.Fprintf(os.Stderr, "  delete <id>         Delete a document and its history\n")
		fmt.Fprintf(os.Stderr, "  demo <id>           Create a document and run a scripted session\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if showVersion {
		fmt.Printf("Docforge %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	switch opts.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.LogLevel)
		os.Exit(1)
	}

	opts.Args = flag.Args()
	return opts
}
