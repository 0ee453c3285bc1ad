// Command drawzones interactively authors polygon zones over a still
// image or the first frame of a video, and saves them as the JSON
// geometry file the runtime pipeline consumes.
//
// Keys:
//
//	Left click  add a point to the active polygon
//	Enter       finalize the active polygon and start a new one
//	Esc         clear the active polygon
//	s           save all polygons and exit
//	q           quit without saving
package main

import (
	"flag"
	"fmt"
	"image"
	"os"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"zonetrack/overlay"
	"zonetrack/pipeline"
	"zonetrack/zones"
)

const windowName = "Draw Zones"

// OpenCV key and mouse event codes.
const (
	keyEnter   = 13
	keyNewline = 10
	keyEscape  = 27
	keySave    = 's'
	keyQuit    = 'q'

	eventMouseMove      = 0
	eventLeftButtonDown = 1
)

var (
	srcPath  = flag.String("src", "", "Path to the source image or video file for drawing polygons (required)")
	destPath = flag.String("dest", "", "Path where the polygon annotations will be saved as a JSON file (required)")
)

func main() {
	flag.Parse()
	if *srcPath == "" || *destPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	run(*srcPath, *destPath, log)
}

func run(srcPath, destPath string, log zerolog.Logger) {
	original, err := pipeline.FirstFrame(srcPath)
	if err != nil {
		fmt.Println("Failed to load source image.")
		log.Debug().Err(err).Str("src", srcPath).Msg("source load failed")
		return
	}
	defer original.Close()

	canvas := original.Clone()
	defer canvas.Close()

	window := gocv.NewWindow(windowName)
	defer window.Close()
	window.IMShow(canvas)

	editor := zones.NewEditor()
	window.SetMouseHandler(func(event int, x int, y int, flags int, userdata interface{}) {
		switch event {
		case eventMouseMove:
			editor.MoveCursor(image.Pt(x, y))
		case eventLeftButtonDown:
			editor.AddPoint(image.Pt(x, y))
		}
	}, nil)

	for {
		key := window.WaitKey(1)
		switch key {
		case keyEnter, keyNewline:
			editor.Finalize()
		case keyEscape:
			editor.Cancel()
		case keySave:
			if err := editor.Save(destPath); err != nil {
				log.Error().Err(err).Str("dest", destPath).Msg("saving polygons failed")
				return
			}
			fmt.Printf("Polygons saved to %s\n", destPath)
			return
		}

		editor.Redraw(&canvas, original, overlay.DefaultPalette.ByIdx)
		window.IMShow(canvas)

		if key == keyQuit {
			return
		}
	}
}
