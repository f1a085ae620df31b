package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/esp-voice-lab/internal/backend"
	"github.com/esp-voice-lab/internal/config"
	"github.com/esp-voice-lab/internal/logging"
	"github.com/esp-voice-lab/internal/pipeline"
	"github.com/esp-voice-lab/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logging.Debugw("no .env file found, using environment as-is")
	}
	logging.Init()
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Errorw("invalid configuration", "err", err)
		os.Exit(1)
	}
	// Re-apply the level now that .env has been loaded; the import-time
	// logger only saw the process environment.
	logging.SetLevel(cfg.LogLevel)

	p := &pipeline.Pipeline{
		STT:           backend.NewWhisperClient(cfg.STTURL, cfg.STTLanguage, cfg.STTTimeout),
		Replier:       buildReplier(cfg),
		TTS:           backend.NewTTSClient(cfg.TTSURL, cfg.TTSAuthToken, cfg.TTSTimeout),
		MaxReplyChars: cfg.MaxReplyChars,
		StagingDir:    cfg.StagingDir,
	}
	if !p.Ready() {
		logging.Warnw("STT_URL not set, /process_audio will answer 503")
	}

	app := server.New(p, cfg)

	// Serve until SIGINT/SIGTERM, then drain in-flight requests.
	errc := make(chan error, 1)
	go func() { errc <- app.Listen(cfg.ListenAddr) }()
	logging.Infow("voice proxy listening", "addr", cfg.ListenAddr, "reply_backend", cfg.ReplyBackend, "stt_ready", p.Ready())

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigc:
		logging.Infow("shutting down", "signal", sig.String())
		if err := app.Shutdown(); err != nil {
			logging.Errorw("shutdown error", "err", err)
		}
	case err := <-errc:
		if err != nil {
			logging.Errorw("server error", "err", err)
			os.Exit(1)
		}
	}
}

// buildReplier selects the reply backend. Config validation guarantees the
// OpenAI key is present when that backend is selected.
func buildReplier(cfg *config.Config) backend.ReplyGenerator {
	if cfg.ReplyBackend == config.ReplyOpenAI {
		return backend.NewChatReplier(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}
	return backend.NewCannedReplier(time.Now().UnixNano())
}
