// Package main provides the CLI entry point for tbcdecode.
package main

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/user/tbcdecode/pkg/adapters/filesink"
	"github.com/user/tbcdecode/pkg/adapters/logger"
	"github.com/user/tbcdecode/pkg/adapters/nullsink"
	"github.com/user/tbcdecode/pkg/adapters/osfilesystem"
	"github.com/user/tbcdecode/pkg/adapters/preview"
	"github.com/user/tbcdecode/pkg/config"
	"github.com/user/tbcdecode/pkg/metadata"
	"github.com/user/tbcdecode/pkg/ports"
	"github.com/user/tbcdecode/pkg/source"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "tbcdecode",
		Usage:   "Decode time-base-corrected analog video captures into normalized frames",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "debug, info, warn, error or quiet"},
		},
		Commands: []*cli.Command{
			infoCommand(),
			migrateCommand(),
			exportCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func decodeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "chroma", Usage: "Separate chroma TBC source (color-under formats)"},
		&cli.StringFlag{Name: "decoder", Value: "auto", Usage: "ntsc1d, ntsc2d, ntsc3d, ntsc3dnoadapt, pal2d, transform2d, transform3d, mono or auto"},
		&cli.Float64Flag{Name: "chroma-gain", Value: 1.0, Usage: "Chroma gain"},
		&cli.Float64Flag{Name: "chroma-phase", Value: 0.0, Usage: "Chroma phase in degrees"},
		&cli.Float64Flag{Name: "chroma-nr", Value: 0.0, Usage: "Chroma noise reduction level"},
		&cli.Float64Flag{Name: "luma-nr", Value: 0.0, Usage: "Luma noise reduction level"},
		&cli.BoolFlag{Name: "phase-compensation", Usage: "Enable NTSC phase compensation"},
		&cli.IntFlag{Name: "padding-multiple", Value: 8, Usage: "Round output dimensions up to this multiple (0 disables)"},
		&cli.BoolFlag{Name: "reverse-fields", Usage: "Swap field order within each frame"},
		&cli.Int64Flag{Name: "fpsnum", Value: -1, Usage: "Frame rate override numerator"},
		&cli.Int64Flag{Name: "fpsden", Value: 1, Usage: "Frame rate override denominator"},
		&cli.StringFlag{Name: "config", Usage: "YAML preset file; flags override its values"},
	}
}

// buildOptions merges the optional YAML preset with command-line flags.
// Explicitly set flags win over preset values.
func buildOptions(c *cli.Context) (source.Options, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		var err error
		cfg, err = config.LoadFromFile(path)
		if err != nil {
			return source.Options{}, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	if c.IsSet("decoder") {
		cfg.Decoder = c.String("decoder")
	}
	if c.IsSet("chroma-gain") {
		cfg.ChromaGain = c.Float64("chroma-gain")
	}
	if c.IsSet("chroma-phase") {
		cfg.ChromaPhase = c.Float64("chroma-phase")
	}
	if c.IsSet("chroma-nr") {
		cfg.ChromaNR = c.Float64("chroma-nr")
	}
	if c.IsSet("luma-nr") {
		cfg.LumaNR = c.Float64("luma-nr")
	}
	if c.IsSet("phase-compensation") {
		cfg.PhaseCompensation = c.Bool("phase-compensation")
	}
	if c.IsSet("padding-multiple") {
		cfg.PaddingMultiple = c.Int("padding-multiple")
	}
	if c.IsSet("reverse-fields") {
		cfg.ReverseFields = c.Bool("reverse-fields")
	}
	if c.IsSet("fpsnum") {
		cfg.FPSNum = c.Int64("fpsnum")
	}
	if c.IsSet("fpsden") {
		cfg.FPSDen = c.Int64("fpsden")
	}

	if err := cfg.Validate(); err != nil {
		return source.Options{}, err
	}
	return cfg.ToOptions(), nil
}

func buildLogger(c *cli.Context) ports.Logger {
	level := ports.ParseLogLevel(c.String("log-level"))
	if level == ports.LevelQuiet {
		return logger.NewNoop()
	}
	return logger.NewConsole(level)
}

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "Print the resolved video properties of a TBC capture",
		ArgsUsage: "<source.tbc>",
		Flags:     decodeFlags(),
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one source path")
			}
			opts, err := buildOptions(c)
			if err != nil {
				return err
			}

			src, err := source.Open(c.Args().First(), c.String("chroma"), "", opts, buildLogger(c))
			if err != nil {
				return err
			}
			defer src.Close()

			p := src.Properties()
			fmt.Printf("color family:   %s\n", p.ColorFamily)
			fmt.Printf("dimensions:     %dx%d\n", p.Width, p.Height)
			fmt.Printf("frames:         %d\n", p.NumFrames)
			fmt.Printf("frame rate:     %d/%d\n", p.FPSNum, p.FPSDen)
			fmt.Printf("field order:    %s\n", p.FieldOrder)
			fmt.Printf("aspect ratio:   %d:%d\n", p.SARNum, p.SARDen)
			fmt.Printf("primaries:      %d\n", p.Primaries)
			fmt.Printf("matrix:         %d\n", p.Matrix)
			return nil
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:      "migrate",
		Usage:     "Convert a JSON metadata sidecar into a structured store",
		ArgsUsage: "<source.tbc>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one source path")
			}
			sourcePath := c.Args().First()

			jsonPath, found := metadata.ResolveJSON(sourcePath)
			if !found {
				return fmt.Errorf("no JSON metadata sidecar found for %s", sourcePath)
			}
			dbPath, _ := metadata.ResolveStore(sourcePath)

			log := buildLogger(c)
			log.Info("Converting %s to %s", jsonPath, dbPath)
			if err := metadata.MigrateJSON(jsonPath, dbPath); err != nil {
				return err
			}
			fmt.Println(dbPath)
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	flags := append(decodeFlags(),
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Required: true, Usage: "Output directory for PNG frames"},
		&cli.IntFlag{Name: "start", Value: 0, Usage: "First frame to export"},
		&cli.IntFlag{Name: "count", Value: 1, Usage: "Number of frames to export"},
		&cli.BoolFlag{Name: "overlay", Value: true, Usage: "Draw frame info overlay"},
		&cli.StringFlag{Name: "debug-dir", Usage: "Save raw component planes and properties here"},
	)

	return &cli.Command{
		Name:      "export",
		Usage:     "Decode a range of frames to PNG previews",
		ArgsUsage: "<source.tbc>",
		Flags:     flags,
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one source path")
			}
			opts, err := buildOptions(c)
			if err != nil {
				return err
			}

			log := buildLogger(c)
			src, err := source.Open(c.Args().First(), c.String("chroma"), "", opts, log)
			if err != nil {
				return err
			}
			defer src.Close()

			fs := osfilesystem.New()
			renderer := preview.New()

			var sink ports.DebugSink = nullsink.New()
			if dir := c.String("debug-dir"); dir != "" {
				if err := fs.MkdirAll(dir); err != nil {
					return err
				}
				sink = filesink.New(dir, fs, renderer)
			}

			props := src.Properties()
			if sink.Enabled() {
				if data, err := json.MarshalIndent(props, "", "  "); err == nil {
					sink.SavePropertiesJSON(data)
				}
			}

			outDir := c.String("output")
			if err := fs.MkdirAll(outDir); err != nil {
				return err
			}

			start := c.Int("start")
			count := c.Int("count")
			for n := start; n < start+count && n < props.NumFrames; n++ {
				frame, err := src.DecodeFrame(n)
				if err != nil {
					return fmt.Errorf("decode frame %d: %w", n, err)
				}

				label := ""
				if c.Bool("overlay") {
					label = fmt.Sprintf("frame %d/%d  %dx%d  %d/%d fps",
						n, props.NumFrames, props.Width, props.Height, props.FPSNum, props.FPSDen)
				}
				img, err := renderer.Render(frame, props.SARNum, props.SARDen, label)
				if err != nil {
					return err
				}

				data, err := renderer.EncodePNG(img)
				if err != nil {
					return err
				}
				path := filepath.Join(outDir, fmt.Sprintf("frame-%06d.png", n))
				if err := fs.WriteFile(path, data); err != nil {
					return err
				}
				log.Info("Exported %s", path)

				if sink.Enabled() {
					sink.SaveComponentPlane(n, "y", planeBytes(frame.Y))
					if !frame.Mono {
						sink.SaveComponentPlane(n, "u", planeBytes(frame.U))
						sink.SaveComponentPlane(n, "v", planeBytes(frame.V))
					}
					sink.SavePreviewFrame(n, img)
				}
			}
			return nil
		},
	}
}

// planeBytes serializes a float32 plane as little-endian bytes.
func planeBytes(plane []float32) []byte {
	buf := make([]byte, len(plane)*4)
	for i, v := range plane {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}
