package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zonetrack/paths"
)

func writeConfig(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestLoadFullConfig(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)

	path := writeConfig(t, `
model:
  id: yolov8n.onnx
  backend: onnx
  classes: [0]
threshold:
  confidence: 0.4
  iou: 0.6
video:
  src_file: clip.mp4
  speed: 2.0
  width: 1280
  height: 720
zones:
  file: zones.json
`)

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "yolov8n.onnx", s.Model.ID)
	assert.Equal(t, "onnx", s.Model.Backend)
	assert.Equal(t, filepath.Join(cwd, "models", "yolov8n.onnx"), s.Model.Path)
	assert.InDelta(t, 0.4, s.Threshold.Confidence, 1e-9)
	assert.InDelta(t, 0.6, s.Threshold.IoU, 1e-9)
	assert.Equal(t, filepath.Join(cwd, "data", "clip.mp4"), s.Video.SrcFile)
	assert.InDelta(t, 2.0, s.Video.Speed, 1e-9)
	assert.Equal(t, 1280, s.Video.Width)
	assert.Equal(t, 720, s.Video.Height)
	assert.Equal(t, "zones.json", s.Zones.File)
	assert.Equal(t, 0, s.TargetClass())
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
model:
  id: yolov8n.onnx
`)

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dnn", s.Model.Backend)
	assert.InDelta(t, 0.5, s.Threshold.Confidence, 1e-9)
	assert.InDelta(t, 0.5, s.Threshold.IoU, 1e-9)
	assert.InDelta(t, 1.0, s.Video.Speed, 1e-9)
	assert.Equal(t, 1024, s.Video.Width)
	assert.Equal(t, 640, s.Video.Height)
	assert.Empty(t, s.Video.SrcFile)
	assert.Equal(t, 0, s.TargetClass())
}

func TestLoadURLSourcePassesThrough(t *testing.T) {
	path := writeConfig(t, `
model:
  id: yolov8n.onnx
video:
  src_file: http://cam.local/stream
`)

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://cam.local/stream", s.Video.SrcFile)
}

func TestLoadInvalidSourceFailsStartup(t *testing.T) {
	path := writeConfig(t, `
model:
  id: yolov8n.onnx
video:
  src_file: "not a valid@@@"
`)

	_, err := Load(path)
	assert.ErrorIs(t, err, paths.ErrInvalidPathFormat)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestTargetClassFromList(t *testing.T) {
	s := &Settings{Model: Model{Classes: []int{2, 5}}}
	assert.Equal(t, 2, s.TargetClass())
}
