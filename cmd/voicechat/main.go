package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ushuari/voice/domain"
	"github.com/ushuari/voice/internal/voiceclient"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("VOICECHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:          "voicechat",
		Short:        "Talk to an ushuari agent from the terminal",
		Long:         "voicechat joins a voice room, records from the microphone on Enter, submits the recording to the server and plays agent replies as they arrive.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), v)
		},
	}

	flags := cmd.Flags()
	flags.String("server", "http://localhost:8080", "voice server base URL")
	flags.String("room", "", "room to join")
	flags.String("identity", "", "participant identity (random when empty)")
	flags.String("agent", string(domain.AgentLegal), "agent type: legal, scheduler or document")
	flags.String("language", domain.DefaultLanguage, "language code: en, sw or rw")
	flags.String("ffmpeg", "ffmpeg", "ffmpeg binary used for capture")
	flags.String("ffplay", "ffplay", "ffplay binary used for playback")
	flags.String("device", "", "capture device (platform default when empty)")
	flags.Duration("chunk-interval", voiceclient.DefaultChunkInterval, "audio flush interval while recording")
	flags.Duration("max-duration", voiceclient.DefaultMaxDuration, "longest recording before capture stops itself")
	flags.Duration("timeout", 90*time.Second, "HTTP request timeout")
	flags.Bool("debug", false, "development logging")
	_ = v.BindPFlags(flags)

	return cmd
}

func run(ctx context.Context, v *viper.Viper) error {
	logger, err := newLogger(v.GetBool("debug"))
	if err != nil {
		return err
	}
	defer logger.Sync()

	room := strings.TrimSpace(v.GetString("room"))
	if room == "" {
		return fmt.Errorf("--room is required")
	}
	agentType, err := domain.ParseAgentType(v.GetString("agent"))
	if err != nil {
		return err
	}
	identity := v.GetString("identity")
	if identity == "" {
		identity = "voicechat-" + uuid.NewString()[:8]
	}

	player, err := voiceclient.NewFFplayPlayer(v.GetString("ffplay"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := voiceclient.NewMessageLog(printEntry)
	pipeline := voiceclient.NewPipeline(
		voiceclient.Session{
			Room:      room,
			Identity:  identity,
			AgentType: agentType,
			Language:  v.GetString("language"),
		},
		voiceclient.NewAPIClient(v.GetString("server"), v.GetDuration("timeout")),
		voiceclient.NewRecorder(
			voiceclient.FFmpegMicrophone{Path: v.GetString("ffmpeg"), Device: v.GetString("device")},
			v.GetDuration("chunk-interval"),
			v.GetDuration("max-duration"),
			logger,
		),
		voiceclient.NewPlaybackQueue(player, logger),
		log,
		voiceclient.NewLiveKitConnector(logger),
		logger,
	)

	if err := pipeline.Join(ctx); err != nil {
		return fmt.Errorf("join room %q: %w", room, err)
	}
	defer pipeline.Close()

	go func() {
		if err := pipeline.RunPlayback(ctx); err != nil && ctx.Err() == nil {
			logger.Error("Playback stopped", zap.Error(err))
		}
	}()

	fmt.Printf("Joined %s as %s (credential expires %s)\n", room, identity, pipeline.CredentialExpiry().Format(time.Kitchen))
	fmt.Println("Press Enter to start recording, Enter again to send. Ctrl+C quits.")

	lines := make(chan struct{})
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- struct{}{}
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-lines:
			if !ok {
				return nil
			}
			toggle(ctx, pipeline, logger)
		}
	}
}

func toggle(ctx context.Context, pipeline *voiceclient.Pipeline, logger *zap.Logger) {
	switch pipeline.CaptureState() {
	case voiceclient.CaptureIdle:
		if err := pipeline.StartCapture(ctx); err != nil {
			fmt.Println("Could not start recording:", err)
			return
		}
		fmt.Println("Recording...")
	case voiceclient.CaptureRecording:
		fmt.Println("Sending...")
		if _, err := pipeline.StopAndSubmit(ctx); err != nil {
			logger.Debug("Submission failed", zap.Error(err))
		}
	default:
		fmt.Println("Still sending the last recording")
	}
}

func printEntry(e voiceclient.Entry) {
	ts := e.Timestamp.Format("15:04:05")
	switch {
	case e.Error:
		fmt.Printf("[%s] ! %s\n", ts, e.Text)
	case e.Kind == domain.KindUserUtterance:
		fmt.Printf("[%s] you: %s\n", ts, e.Text)
	default:
		fmt.Printf("[%s] %s: %s\n", ts, e.Kind, e.Text)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}
