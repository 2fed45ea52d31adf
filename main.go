package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"FreehandBoard/internal/config"
	"FreehandBoard/internal/draw"
	"FreehandBoard/internal/export"
	"FreehandBoard/internal/logging"
	fbnet "FreehandBoard/internal/net"
	"FreehandBoard/internal/preview"
	"FreehandBoard/internal/state"
	"FreehandBoard/internal/ui"

	"github.com/rs/zerolog"
)

const (
	CustomURLScheme = "freehand://"
	joinCommand     = "join"
	browseTimeout   = 3 * time.Second
	dialTimeout     = 5 * time.Second
)

// session bundles everything one running board needs.
type session struct {
	cfg       config.Config
	log       zerolog.Logger
	board     *ui.BoardWidget
	finalizer *draw.Finalizer
	registry  *state.Board
	sharer    *fbnet.Sharer
}

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(os.Stdout, cfg.LogLevel)

	args := os.Args
	switch {
	case len(args) > 1 && strings.HasPrefix(args[1], CustomURLScheme):
		runClient(cfg, log, args[1])
	case len(args) > 1 && args[1] == joinCommand:
		addr, err := fbnet.Browse(browseTimeout)
		if err != nil {
			log.Fatal().Err(err).Msg("could not find a host to join")
		}
		runClient(cfg, log, CustomURLScheme+addr)
	default:
		runHost(cfg, log)
	}
}

func newSession(cfg config.Config, log zerolog.Logger, owner string) (*session, error) {
	previewColor, err := export.ParseColor(cfg.Preview.Color)
	if err != nil {
		return nil, fmt.Errorf("preview.color: %w", err)
	}
	if _, err := export.ParseColor(cfg.Document.Stroke); err != nil {
		return nil, fmt.Errorf("document.stroke: %w", err)
	}

	renderer := preview.NewRenderer(previewColor, cfg.Preview.StrokeWidth)
	board := ui.NewBoardWidget(ui.BoardOptions{
		Preview:          renderer,
		TranslationSpeed: cfg.Camera.TranslationSpeed,
		FrameRate:        cfg.FrameRate,
		Log:              log,
	})

	strokes, err := state.NewStrokeSession(cfg.Follow, 0)
	if err != nil {
		return nil, err
	}
	finalizer := draw.NewFinalizer(strokes, export.NewDirStore(cfg.Document.Dir), board, cfg.Document.Stroke, log)
	board.SetPipeline(draw.NewPipeline(strokes, finalizer, renderer, log))

	registry := state.NewBoard(log)
	remote := export.NewDirStore(filepath.Join(cfg.Document.Dir, "remote"))
	sharer := fbnet.NewSharer(owner, registry, remote, board, log)
	finalizer.OnFinalized(sharer.Publish)

	return &session{
		cfg:       cfg,
		log:       log,
		board:     board,
		finalizer: finalizer,
		registry:  registry,
		sharer:    sharer,
	}, nil
}

func (s *session) actions() ui.Actions {
	return ui.Actions{
		SetStrokeColor: s.finalizer.SetStrokeColor,
		Clear:          s.sharer.Clear,
		ExportPDF: func(w io.Writer) error {
			return export.WritePDF(w, s.registry.Strokes())
		},
	}
}

func runHost(cfg config.Config, log zerolog.Logger) {
	log.Info().Msg("Starting as HOST")
	s, err := newSession(cfg, log, fbnet.HostID)
	if err != nil {
		log.Fatal().Err(err).Msg("could not set up board")
	}

	hub := fbnet.NewHub(log)
	hub.OnMessage = func(_ string, msg fbnet.Message) { s.sharer.Receive(msg) }
	s.sharer.SetSender(hub.Broadcast)
	srv := hub.Listen(fmt.Sprintf(":%d", cfg.Net.Port))

	if cfg.Net.MDNS {
		mdnsServer, err := fbnet.Advertise(cfg.Net.Port)
		if err != nil {
			log.Warn().Err(err).Msg("mDNS advertising disabled")
		} else {
			defer mdnsServer.Shutdown()
		}
	}

	shareLink := fmt.Sprintf("%s%s:%d", CustomURLScheme, fbnet.GetOutgoingIP(log), cfg.Net.Port)
	ui.RunApp(s.board, s.actions(), shareLink, log)

	hub.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("host server shutdown")
	}
}

func runClient(cfg config.Config, log zerolog.Logger, link string) {
	log.Info().Str("link", link).Msg("Starting as CLIENT")
	// the owner ID is replaced by the connection's address once connected
	s, err := newSession(cfg, log, "local")
	if err != nil {
		log.Fatal().Err(err).Msg("could not set up board")
	}
	go connectToHost(s, link)
	ui.RunApp(s.board, s.actions(), "", log)
}

func connectToHost(s *session, link string) {
	address := strings.TrimSuffix(strings.TrimPrefix(link, CustomURLScheme), "/")
	url := "ws://" + address + fbnet.WSPath

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	client, err := fbnet.Dial(ctx, url, s.log)
	if err != nil {
		s.log.Error().Err(err).Msg("connection failed")
		s.board.SetStatus(fmt.Sprintf("Connection failed: %v", err))
		return
	}
	defer client.Close()

	s.sharer.SetOwner(client.ID)
	s.sharer.SetSender(client.Send)
	s.board.SetStatus("Connected to host as " + client.ID)

	if err := client.Listen(s.sharer.Receive); err != nil {
		s.log.Warn().Err(err).Msg("host connection closed")
		s.board.SetStatus(err.Error())
	}
}
