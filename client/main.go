package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
	"gorm.io/gorm"

	"sharelite/client/internal/config"
	"sharelite/client/internal/db"
	"sharelite/client/internal/format"
	"sharelite/client/internal/history"
	"sharelite/client/internal/logger"
	"sharelite/client/internal/monitor"
	"sharelite/client/internal/prefs"
	"sharelite/client/internal/receiver"
	"sharelite/client/internal/sender"
	"sharelite/client/internal/ui"
	"sharelite/network"
)

const exitWait = 2 * time.Second

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `Usage: sharelite [flags] [command]

Commands:
  send [files...]   open a session and share files
  recv [code]       join a session and download files
  history           show recent transfers

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	os.Exit(run())
}

func run() int {
	var (
		cfgPath = flag.String("config", "", "Path to configuration file (yaml)")
		server  = flag.String("server", "", "Server base URL, overrides config")
		plain   = flag.Bool("plain", false, "Line-oriented output instead of the full-screen UI")
		limit   = flag.Int("n", 20, "Number of history entries to show")
	)
	flag.Usage = usage
	flag.Parse()

	cfg, err := config.Init(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Cannot load config:", err)
		return 1
	}
	if cfg.LogPath != "" {
		_ = os.MkdirAll(filepath.Dir(cfg.LogPath), 0o755)
	}
	if err := logger.Init(cfg.LogPath, cfg.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, "Cannot open log file:", err)
	}

	gdb, dberr := db.Init(cfg.DBPath)
	if dberr != nil {
		logger.Warnf("Cannot open SQLite at %s, settings will not persist: %v", cfg.DBPath, dberr)
		gdb = nil
	} else {
		defer db.Close()
	}
	hist := history.NewRecorder(gdb)

	cmd, args := "", []string(nil)
	if flag.NArg() > 0 {
		cmd, args = flag.Arg(0), flag.Args()[1:]
	}
	if cmd == "history" {
		return runHistory(hist, *limit)
	}

	interactive := !*plain && term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stdin.Fd()))
	if interactive && cfg.LogPath == "" {
		// the UI owns stdout
		logger.SetOutput(io.Discard)
	}

	baseURL := format.ResolveBaseURL(*server, cfg.ServerURL)
	api := network.NewHTTPClient(baseURL,
		network.WithTimeout(cfg.RequestTimeout),
		network.WithLogger(logger.L),
	)
	sendCtl := sender.New(api, sender.Options{
		BaseURL:     baseURL,
		MaxFileSize: cfg.MaxFileSize,
		History:     hist,
	})
	recvCtl := receiver.New(api, receiver.Options{
		DownloadDir: cfg.DownloadDir,
		StrictCodes: cfg.StrictCodes,
		History:     hist,
	})
	logger.Infof("ShareLite client using %s", baseURL)

	var code int
	switch cmd {
	case "send":
		if interactive {
			code = runTUI(cfg, gdb, sendCtl, recvCtl, "send", "", args)
		} else {
			code = runPlainSend(sendCtl, args)
		}
	case "recv", "receive":
		prefill := ""
		if len(args) > 0 {
			prefill = args[0]
		}
		if interactive {
			code = runTUI(cfg, gdb, sendCtl, recvCtl, "recv", prefill, nil)
		} else {
			code = runPlainRecv(recvCtl, prefill)
		}
	case "":
		if !interactive {
			usage()
			return 2
		}
		code = runTUI(cfg, gdb, sendCtl, recvCtl, "", "", nil)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		usage()
		return 2
	}

	sendCtl.Beacon().Wait(exitWait)
	recvCtl.Beacon().Wait(exitWait)
	return code
}

func runTUI(cfg config.AppConfig, gdb *gorm.DB, sendCtl *sender.Controller, recvCtl *receiver.Controller, start, prefill string, files []string) int {
	pump := ui.NewPump()

	if len(files) > 0 {
		if _, err := sendCtl.SelectFiles(files); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}

	if cfg.DropDir != "" {
		drop, err := monitor.NewDropFolder(cfg.DropDir, 0)
		if err != nil {
			logger.Warnf("Drop folder disabled: %v", err)
		} else {
			defer drop.Close()
			go func() {
				for evt := range drop.Events() {
					pump.Send(ui.DropMsg{Path: evt.Path})
				}
			}()
		}
	}

	root := ui.NewRootModel(ui.Options{
		Sender:      sendCtl,
		Receiver:    recvCtl,
		Prefs:       prefs.New(gdb, cfg.Theme),
		Pump:        pump,
		MaxFileSize: cfg.MaxFileSize,
		QRDir:       cfg.DownloadDir,
		ResetDelay:  cfg.ResetDelay,
		Start:       start,
		Prefill:     prefill,
	})
	p := tea.NewProgram(root, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Errorf("UI failed: %v", err)
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	// the UI fires these on quit; repeat in case it exited another way
	sendCtl.EndSessionBestEffort()
	recvCtl.EndSessionBestEffort()
	return 0
}

func runPlainSend(ctl *sender.Controller, files []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "send: no files given")
		return 2
	}
	sel, err := ctl.SelectFiles(files)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if len(sel.Rejected) > 0 {
		fmt.Fprintf(os.Stderr, "Too large: %s\n", strings.Join(sel.Rejected, ", "))
		return 1
	}

	code, err := ctl.CreateSession(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Create session failed:", err)
		return 1
	}
	fmt.Printf("Session code: %s\n", code)
	for _, u := range ctl.ReachableURLs() {
		fmt.Printf("Reachable at: %s\n", u)
	}
	fmt.Printf("Receiver link: %s\n", ctl.ShareLink())

	uploaded, err := ctl.Upload(ctx, plainProgress())
	fmt.Println()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Upload failed:", err)
		ctl.EndSessionBestEffort()
		return 1
	}
	for _, f := range uploaded {
		fmt.Printf("  %s %s\n", format.FileIcon(f.Name), format.FileLabel(f.Name, f.Size))
	}
	fmt.Printf("Uploaded %d file(s). Press Ctrl+C to end the session.\n", len(uploaded))

	<-ctx.Done()
	ctl.EndSessionBestEffort()
	return 0
}

func runPlainRecv(ctl *receiver.Controller, code string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	files, err := ctl.Connect(ctx, code)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Connect failed:", err)
		ctl.EndSessionBestEffort()
		return 1
	}
	if len(files) == 0 {
		fmt.Println("No files in session", ctl.SessionID())
		ctl.LeaveSession(ctx)
		return 0
	}
	for _, f := range files {
		fmt.Printf("  %s %s\n", format.FileIcon(f.Name), format.FileLabel(f.Name, f.Size))
		if _, err := ctl.ToggleSelection(f.ID); err != nil {
			logger.Warnf("Select %s: %v", f.Name, err)
		}
	}

	saved, err := ctl.DownloadSelected(ctx, plainProgress())
	fmt.Println()
	for _, p := range saved {
		fmt.Println("Saved", p)
	}
	ctl.LeaveSession(context.WithoutCancel(ctx))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Download failed:", err)
		return 1
	}
	return 0
}

func plainProgress() func(network.Progress) {
	last := ""
	return func(p network.Progress) {
		var line string
		if p.Known {
			line = fmt.Sprintf("%s %3.0f%%", p.Label, p.Percent)
		} else {
			line = fmt.Sprintf("%s %s", p.Label, format.FormatBytes(p.Done))
		}
		if line != last {
			fmt.Printf("\r%-60s", line)
			last = line
		}
	}
}

func runHistory(hist *history.Recorder, limit int) int {
	entries, err := hist.List(limit)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Cannot read history:", err)
		return 1
	}
	if len(entries) == 0 {
		fmt.Println("No transfers yet")
		return 0
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s  %-8s  %-6s  %s  %s", e.At.Local().Format("2006-01-02 15:04"),
			e.Direction, e.SessionID, format.FileLabel(e.FileName, e.Size), e.Status)
		if e.Error != "" {
			line += "  (" + e.Error + ")"
		}
		fmt.Println(line)
	}
	return 0
}
