package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/meditate/internal/model"
)

var previewCmd = &cobra.Command{
	Use:   "preview [start|interval|PATH]",
	Short: "Play a sound once and wait for it to finish",
	Long: `Play one of the configured sounds, or any sound file, through the
configured audio backend.

  start       the start/stop sound (default)
  interval    the interval sound
  PATH        a wav, mp3 or ogg file`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	target := "start"
	if len(args) > 0 {
		target = args[0]
	}

	ref, err := previewSound(target)
	if err != nil {
		return err
	}

	manager, err := newAudioManager()
	if err != nil {
		return err
	}
	defer manager.Stop()

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	logger.Debug("previewing sound", "sound", ref.String())
	if err := manager.PlayAndWait(ctx, ref); err != nil {
		return fmt.Errorf("failed to play %s: %w", ref, err)
	}
	return nil
}

// previewSound resolves a preview target to a validated sound.
func previewSound(target string) (model.SoundRef, error) {
	var input string
	switch target {
	case "start":
		input = cfg.StartStopSoundPath
	case "interval":
		input = cfg.IntervalSoundPath
	default:
		input = target
	}

	ref, err := model.NewSoundRef(input)
	if err != nil {
		return model.SoundRef{}, err
	}
	if err := ref.Validate(); err != nil {
		return model.SoundRef{}, err
	}
	return ref, nil
}
