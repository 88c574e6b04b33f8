package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/spf13/cobra"

	"github.com/AndreasQService/QToolKlone-sub000/pkg/export"
	"github.com/AndreasQService/QToolKlone-sub000/pkg/models"
)

var (
	renderSession string
	renderSketch  string
	renderFormat  string
	renderOutput  string
	renderProject string
	renderRoom    string
	renderTitle   string
	renderScale   int
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a stored session to PNG or PDF",
	Long: `Render the editor view of a measurement session (sketch, metadata and
measurement table) without starting the server. The session is read from
a JSON file; the sketch comes from --sketch or from the session itself.`,
	Args: cobra.NoArgs,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVar(&renderSession, "session", "", "session JSON file")
	renderCmd.Flags().StringVar(&renderSketch, "sketch", "", "sketch PNG, overrides the sketch stored in the session")
	renderCmd.Flags().StringVar(&renderFormat, "format", "", "output format: png or pdf (default from config)")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "output file (default: generated file name)")
	renderCmd.Flags().StringVar(&renderProject, "project", "", "project title shown in the header")
	renderCmd.Flags().StringVar(&renderRoom, "room", "", "room name shown in the header")
	renderCmd.Flags().StringVar(&renderTitle, "title", "", "custom title line")
	renderCmd.Flags().IntVar(&renderScale, "scale", 0, "render scale 1-4 (default from config)")
	renderCmd.MarkFlagRequired("session")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg := appFrom(cmd).cfg

	data, err := os.ReadFile(renderSession)
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}
	var session models.MeasurementSession
	if err := json.Unmarshal(data, &session); err != nil {
		return fmt.Errorf("failed to parse session from %s: %w", renderSession, err)
	}

	sketchPNG := session.SketchPNG
	if renderSketch != "" {
		if sketchPNG, err = os.ReadFile(renderSketch); err != nil {
			return fmt.Errorf("failed to read sketch: %w", err)
		}
	}

	var sketchImg image.Image
	if len(sketchPNG) > 0 {
		if sketchImg, err = png.Decode(bytes.NewReader(sketchPNG)); err != nil {
			return fmt.Errorf("failed to decode sketch: %w", err)
		}
	}

	formatName := renderFormat
	if formatName == "" {
		formatName = cfg.Editor.ExportFormat
	}
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return err
	}

	scale := renderScale
	if scale == 0 {
		scale = cfg.Editor.RenderScale
	}

	view := export.View{
		Title:        renderTitle,
		ProjectTitle: renderProject,
		RoomName:     renderRoom,
		Metadata:     session.Metadata,
		Points:       session.Points,
		Sketch:       sketchImg,
	}
	artifact, err := export.Capture(view, format, export.CaptureOptions{
		Render: export.RenderOptions{Scale: scale},
	})
	if err != nil {
		return fmt.Errorf("failed to render session: %w", err)
	}

	path := renderOutput
	if path == "" {
		path = artifact.Name
	}
	if err := os.WriteFile(path, artifact.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Written %s (%s, %d bytes)\n", path, artifact.ContentType, len(artifact.Data))
	return nil
}
