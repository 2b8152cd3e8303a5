// Command retronote is a single-note rich-text notepad.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"retronote/internal/app"
	"retronote/internal/config"
	"retronote/internal/logging"
	"retronote/internal/markup"
	"retronote/internal/store"
	"retronote/pkg/notedoc"
)

type options struct {
	configPath string
	exportHTML string
	importHTML string
	inspect    string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	defer func() { _ = log.Sync() }()

	if opts.inspect != "" {
		if err := inspect(opts.inspect); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.NewContext(ctx, log)

	st, err := store.Open(ctx, cfg, log.Named("store"))
	if err != nil {
		log.Error("open store", zap.String("backend", cfg.Storage.Backend), zap.Error(err))
		return 1
	}
	defer st.Close()

	switch {
	case opts.exportHTML != "":
		err = exportHTML(ctx, st, opts.exportHTML)
	case opts.importHTML != "":
		err = importHTML(ctx, st, opts.importHTML)
	default:
		var a *app.App
		if a, err = app.New(ctx, cfg, st, log); err == nil {
			err = a.Run()
		}
	}
	if err != nil {
		log.Error("retronote failed", zap.Error(err))
		return 1
	}
	return 0
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.exportHTML, "export-html", "", "Render the stored note to an HTML page and exit")
	flag.StringVar(&opts.importHTML, "import-html", "", "Replace the stored note with an HTML file and exit")
	flag.StringVar(&opts.inspect, "inspect", "", "Print the layout of a note file and exit")
	flag.Parse()
	return opts
}

func exportHTML(ctx context.Context, st store.Store, path string) error {
	snap, err := st.Load(ctx)
	if err != nil {
		return err
	}
	page := markup.Page(snap.Content, markup.PageOptions{
		FontFamily: snap.Preferences.FontFamily,
		FontSize:   snap.Preferences.FontSize,
		Color:      snap.Preferences.Color,
	})
	if err := os.WriteFile(path, []byte(page), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	logging.L(ctx).Info("exported note", zap.String("path", path), zap.Int("chars", snap.Content.Len()))
	return nil
}

func importHTML(ctx context.Context, st store.Store, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	doc, err := markup.Parse(string(src))
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if err := st.SaveContent(ctx, doc); err != nil {
		return err
	}
	logging.L(ctx).Info("imported note", zap.String("path", path), zap.Int("chars", doc.Len()), zap.Int("runs", doc.NumRuns()))
	return nil
}

func inspect(path string) error {
	env, err := notedoc.InspectEnvelope(path)
	if err != nil {
		return err
	}
	fmt.Printf("envelope: wrapped=%v compressed=%v encrypted=%v\n", env.Wrapped, env.Compressed, env.Encrypted)
	if env.Encrypted {
		return nil
	}
	note, err := notedoc.Load(path)
	if err != nil {
		return err
	}
	layout, err := notedoc.InspectLayout(note)
	if err != nil {
		return err
	}
	fmt.Printf("header %d bytes, index at %d (%d bytes), %d bytes total\n",
		layout.HeaderLength, layout.IndexOffset, layout.IndexLength, layout.FileSize)
	for _, seg := range layout.Segments {
		fmt.Printf("  %-12s %-12s offset=%-8d length=%d\n", seg.Name, seg.Kind, seg.Offset, seg.Length)
	}
	fmt.Printf("%d characters in %d runs, theme %q, focus mode %v\n",
		note.Content.Len(), note.Content.NumRuns(), note.Theme, note.FocusMode)
	return nil
}
