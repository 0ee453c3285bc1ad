// Package config loads the runtime settings from a single YAML file.
package config

import (
	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/viper"

	"zonetrack/paths"
)

// Model identifies the detection model and its execution backend.
type Model struct {
	// ID names the model file; used to derive Path when Path is empty.
	ID string `mapstructure:"id"`
	// Path is the model file location. Empty means <cwd>/models/<id>.
	Path string `mapstructure:"path"`
	// Backend selects the inference implementation: "dnn" or "onnx".
	Backend string `mapstructure:"backend"`
	// Classes lists the class ids of interest; the first entry is the
	// pipeline's target class. Empty means class 0.
	Classes []int `mapstructure:"classes"`
	// ONNXLibrary optionally points at the ONNX Runtime shared library.
	ONNXLibrary string `mapstructure:"onnx_library"`
}

// Threshold holds the detection cutoffs.
type Threshold struct {
	Confidence float64 `mapstructure:"confidence"`
	IoU        float64 `mapstructure:"iou"`
}

// Video describes the input source and output framing.
type Video struct {
	// SrcFile is the video source, resolved through paths.Resolve when
	// set. URLs pass through untouched.
	SrcFile string  `mapstructure:"src_file"`
	Speed   float64 `mapstructure:"speed"`
	Width   int     `mapstructure:"width"`
	Height  int     `mapstructure:"height"`
}

// Zones points at the polygon geometry file authored by the zone editor.
type Zones struct {
	File string `mapstructure:"file"`
}

// Settings is the full runtime configuration, loaded once at startup.
type Settings struct {
	Model     Model     `mapstructure:"model"`
	Threshold Threshold `mapstructure:"threshold"`
	Video     Video     `mapstructure:"video"`
	Zones     Zones     `mapstructure:"zones"`
}

// TargetClass is the single class id the pipeline tracks.
func (s *Settings) TargetClass() int {
	if len(s.Model.Classes) > 0 {
		return s.Model.Classes[0]
	}
	return 0
}

// Load reads and validates settings from the YAML file. The video source
// is resolved through the path resolver as a pre-validation hook, so a
// malformed source string fails here, at startup, not mid-pipeline.
func Load(file string) (*Settings, error) {
	v := viper.New()
	v.SetConfigFile(file)

	v.SetDefault("model.backend", "dnn")
	v.SetDefault("threshold.confidence", 0.5)
	v.SetDefault("threshold.iou", 0.5)
	v.SetDefault("video.speed", 1.0)
	v.SetDefault("video.width", 1024)
	v.SetDefault("video.height", 640)

	if err := v.ReadInConfig(); err != nil {
		return nil, pkgerrors.Wrapf(err, "reading config %s", file)
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, pkgerrors.Wrapf(err, "parsing config %s", file)
	}

	if s.Video.SrcFile != "" {
		resolved, err := paths.Resolve(s.Video.SrcFile)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "video source %q", s.Video.SrcFile)
		}
		s.Video.SrcFile = resolved
	}

	modelPath, err := paths.ResolveModelPath(s.Model.ID, s.Model.Path)
	if err != nil {
		return nil, err
	}
	s.Model.Path = modelPath

	return &s, nil
}
