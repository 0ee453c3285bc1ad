// Command zonetrack annotates a video stream with tracked person
// detections and the polygon zones authored by drawzones, streaming the
// composed frames to a display window.
package main

import (
	"flag"
	"image"
	"os"

	"github.com/rs/zerolog"

	"zonetrack/config"
	"zonetrack/detection"
	"zonetrack/overlay"
	"zonetrack/pipeline"
	"zonetrack/tracking"
	"zonetrack/zones"
)

var (
	configPath = flag.String("config", "config.yaml", "Path to the YAML configuration file")
	debugMode  = flag.Bool("debug", false, "Enable per-frame debug logging")
)

func main() {
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debugMode {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	settings, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("loading configuration failed")
	}

	provider := detection.NewProvider(detection.Backend(settings.Model.Backend))
	err = provider.Initialize(detection.Config{
		ModelPath:           settings.Model.Path,
		ConfidenceThreshold: float32(settings.Threshold.Confidence),
		IoUThreshold:        float32(settings.Threshold.IoU),
		ONNXLibraryPath:     settings.Model.ONNXLibrary,
	})
	if err != nil {
		log.Fatal().Err(err).Str("model", settings.Model.Path).Msg("initializing detector failed")
	}
	defer provider.Close()

	tracker := tracking.NewTracker(tracking.DefaultConfig())

	var zs []*zones.Zone
	if settings.Zones.File != "" {
		set, err := zones.Load(settings.Zones.File)
		if err != nil {
			log.Fatal().Err(err).Str("file", settings.Zones.File).Msg("loading zones failed")
		}
		zs = zones.NewZones(set)
		log.Info().Int("zones", len(zs)).Str("file", settings.Zones.File).Msg("zones loaded")
	}

	var passes []overlay.Annotator
	if len(zs) > 0 {
		passes = append(passes, overlay.NewZoneAnnotator(zs))
	}
	passes = append(passes,
		overlay.NewTraceAnnotator(tracker.Trail),
		overlay.NewBoxAnnotator(),
		overlay.NewLabelAnnotator(),
	)

	src, err := pipeline.OpenVideo(settings.Video.SrcFile)
	if err != nil {
		log.Fatal().Err(err).Str("src", settings.Video.SrcFile).Msg("opening video source failed")
	}
	defer src.Close()

	display := pipeline.NewWindow("zonetrack")
	defer display.Close()

	p := pipeline.New(provider, tracker, passes, zs, pipeline.Options{
		TargetClass: settings.TargetClass(),
		OutputSize:  image.Pt(settings.Video.Width, settings.Video.Height),
		Speed:       settings.Video.Speed,
	}, log)

	if err := p.Run(src, display, src.FPS()); err != nil {
		log.Fatal().Err(err).Msg("pipeline failed")
	}
}
