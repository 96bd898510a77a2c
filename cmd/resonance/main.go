package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/avenn/resonance/internal/artifact"
	"github.com/avenn/resonance/internal/echo"
	"github.com/avenn/resonance/internal/logging"
	"github.com/avenn/resonance/internal/session"
	"github.com/avenn/resonance/internal/tui"
)

func main() {
	sessionPath := flag.String("session", "", "path to the session snapshot file (defaults to the user config dir)")
	exportDir := flag.String("export-dir", ".", "directory card exports are written into")
	noAltScreen := flag.Bool("no-alt-screen", false, "disable the alternate screen buffer")
	model := flag.String("model", "", "override the curation model (gemini-2.5-flash)")
	imageHost := flag.String("image-host", "", "custom image synthesis host")
	logPath := flag.String("log", logging.DefaultPath(), "path to the diagnostic log file")
	verbose := flag.Bool("verbose", false, "log at debug level")
	flag.Parse()

	logger, err := logging.New(*logPath, *verbose)
	if err != nil {
		fmt.Println("logging disabled:", err)
		logger, _ = logging.New("", false)
	}
	defer func() { _ = logger.Sync() }()

	curator, err := echo.NewFromEnv(echo.Config{Model: *model})
	if err != nil {
		fmt.Println("cannot reach the archive:", err)
		fmt.Println("set GEMINI_API_KEY and try again.")
		os.Exit(1)
	}

	synth, err := artifact.New(artifact.Config{BaseURL: *imageHost})
	if err != nil {
		fmt.Println("image synthesis unavailable:", err)
		os.Exit(1)
	}

	sessions, err := session.NewStore(*sessionPath)
	if err != nil {
		fmt.Println("session persistence unavailable:", err)
		os.Exit(1)
	}
	restored, err := sessions.Load()
	if err != nil {
		restored = nil
	}

	opts := []tea.ProgramOption{}
	if !*noAltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	program := tea.NewProgram(
		tui.New(tui.Config{
			Curator:   curator,
			Synth:     synth,
			Sessions:  sessions,
			ExportDir: *exportDir,
			Logger:    logger,
			Restored:  restored,
		}),
		opts...,
	)

	if _, err := program.Run(); err != nil {
		fmt.Println("program error:", err)
		os.Exit(1)
	}
}
