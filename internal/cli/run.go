package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/stereopipe/sgm/internal/imageio"
	"github.com/stereopipe/sgm/internal/sgm"
	"github.com/stereopipe/sgm/internal/store"
)

var (
	leftPath   string
	rightPath  string
	outPath    string
	outText    string
	truthPath  string
	engineMode string
	maxDisp    int
	p1Flag     float32
	p2Flag     float32
	pathsFlag  int
	scaleFlag  float64
	textWidth  int
	textHeight int
	saveRun    bool
	traceRows  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run stereo matching on an image pair",
	Long: `Runs semi-global matching over a rectified stereo pair and writes the
disparity map. Inputs are image files (PNG, JPEG, BMP, TIFF) or, when
--width/--height are given, raw text vectors of float intensities.`,
	RunE: runMatch,
}

func init() {
	runCmd.Flags().StringVar(&leftPath, "left", "", "Left (reference) image path (required)")
	runCmd.Flags().StringVar(&rightPath, "right", "", "Right (target) image path (required)")
	runCmd.Flags().StringVar(&outPath, "out", "disparity.png", "Output disparity image path")
	runCmd.Flags().StringVar(&outText, "out-text", "", "Also write disparities as text, one per line")
	runCmd.Flags().StringVar(&truthPath, "truth", "", "Ground-truth disparity text file for metrics")
	runCmd.Flags().StringVar(&engineMode, "engine", "", "Execution model: stream or batch (default from config)")
	runCmd.Flags().IntVar(&maxDisp, "max-disp", 0, "Disparity search range D (default from config)")
	runCmd.Flags().Float32Var(&p1Flag, "p1", 0, "Small-change penalty (default from config)")
	runCmd.Flags().Float32Var(&p2Flag, "p2", 0, "Large-jump penalty (default from config)")
	runCmd.Flags().IntVar(&pathsFlag, "paths", 0, "Aggregation topology: 1, 2 or 4 (default from config)")
	runCmd.Flags().Float64Var(&scaleFlag, "scale", 0, "Pre-scale factor for both images (default from config)")
	runCmd.Flags().IntVar(&textWidth, "width", 0, "Frame width for text-vector inputs")
	runCmd.Flags().IntVar(&textHeight, "height", 0, "Frame height for text-vector inputs")
	runCmd.Flags().BoolVar(&saveRun, "save", false, "Persist the run under the data directory")
	runCmd.Flags().BoolVar(&traceRows, "trace", false, "Write a per-row timing trace (stream engine only)")

	runCmd.MarkFlagRequired("left")
	runCmd.MarkFlagRequired("right")
	rootCmd.AddCommand(runCmd)
}

// resolveParams merges command line flags over the configuration file.
func resolveParams(cmd *cobra.Command) (mode string, scale float64) {
	if !cmd.Flags().Changed("engine") {
		engineMode = cfg.Engine
	}
	if !cmd.Flags().Changed("max-disp") {
		maxDisp = cfg.Matching.MaxDisp
	}
	if !cmd.Flags().Changed("p1") {
		p1Flag = cfg.Matching.P1
	}
	if !cmd.Flags().Changed("p2") {
		p2Flag = cfg.Matching.P2
	}
	if !cmd.Flags().Changed("paths") {
		pathsFlag = cfg.Matching.Paths
	}
	if !cmd.Flags().Changed("scale") {
		scaleFlag = cfg.Input.Scale
	}
	return engineMode, scaleFlag
}

// loadInputPair loads the stereo pair from images or text vectors and
// applies pre-scaling.
func loadInputPair(scale float64) (left, right *imageio.Plane, err error) {
	if textWidth > 0 || textHeight > 0 {
		if textWidth <= 0 || textHeight <= 0 {
			return nil, nil, fmt.Errorf("text-vector inputs need both --width and --height")
		}
		left, err = imageio.ReadTextPlane(leftPath, textWidth, textHeight)
		if err != nil {
			return nil, nil, err
		}
		right, err = imageio.ReadTextPlane(rightPath, textWidth, textHeight)
		if err != nil {
			return nil, nil, err
		}
	} else {
		left, err = imageio.LoadPlane(leftPath)
		if err != nil {
			return nil, nil, err
		}
		right, err = imageio.LoadPlane(rightPath)
		if err != nil {
			return nil, nil, err
		}
	}
	if scale != 0 && scale != 1 {
		left = imageio.Scale(left, scale)
		right = imageio.Scale(right, scale)
	}
	if left.Width != right.Width || left.Height != right.Height {
		return nil, nil, fmt.Errorf("stereo pair geometry mismatch: %dx%d vs %dx%d",
			left.Width, left.Height, right.Width, right.Height)
	}
	return left, right, nil
}

// rowTracer records one timing entry per completed row.
type rowTracer interface {
	Write(store.TraceEntry) error
}

// computeWithTrace runs a streaming pass, timing each row. The first trace
// write failure fails the run; a truncated trace must not pass silently.
func computeWithTrace(stream *sgm.StreamEngine, tracer rowTracer, left, right []float32) (*sgm.DisparityMap, error) {
	rowStart := time.Now()
	var traceErr error
	result, err := stream.ComputeProgress(left, right, func(y int) {
		now := time.Now()
		werr := tracer.Write(store.TraceEntry{
			Row:       y,
			Micros:    now.Sub(rowStart).Microseconds(),
			Timestamp: now,
		})
		if werr != nil && traceErr == nil {
			traceErr = werr
		}
		rowStart = now
	})
	if err != nil {
		return nil, err
	}
	if traceErr != nil {
		return nil, fmt.Errorf("failed to write row trace: %w", traceErr)
	}
	return result, nil
}

func runMatch(cmd *cobra.Command, args []string) error {
	mode, scale := resolveParams(cmd)

	left, right, err := loadInputPair(scale)
	if err != nil {
		return err
	}
	slog.Info("Loaded stereo pair", "width", left.Width, "height", left.Height)

	pipeline := sgm.Config{
		Width:   left.Width,
		Height:  left.Height,
		MaxDisp: maxDisp,
		P1:      p1Flag,
		P2:      p2Flag,
		Paths:   pathsFlag,
	}
	engine, err := sgm.NewEngine(mode, pipeline)
	if err != nil {
		return err
	}

	runID := uuid.New().String()
	var tracer *store.TraceWriter
	if traceRows {
		if _, ok := engine.(*sgm.StreamEngine); !ok {
			return fmt.Errorf("--trace needs the stream engine, got %q", mode)
		}
		tracer, err = store.NewTraceWriter(cfg.Output.DataDir, runID)
		if err != nil {
			return err
		}
		defer tracer.Close()
	}

	start := time.Now()
	var result *sgm.DisparityMap
	if tracer != nil {
		result, err = computeWithTrace(engine.(*sgm.StreamEngine), tracer, left.Pix, right.Pix)
	} else {
		result, err = engine.Compute(left.Pix, right.Pix)
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	slog.Info("Matching complete", "engine", mode, "elapsed", elapsed,
		"pixels", pipeline.NumPixels(),
		"pps", float64(pipeline.NumPixels())/elapsed.Seconds())

	if err := imageio.SavePNG(outPath, result.Image(pipeline.MaxDisp)); err != nil {
		return err
	}
	if outText != "" {
		if err := imageio.WriteDisparityText(outText, result.Data); err != nil {
			return err
		}
	}

	var metrics *sgm.Metrics
	if truthPath != "" {
		truthData, err := imageio.ReadDisparityText(truthPath, pipeline.Width, pipeline.Height)
		if err != nil {
			return err
		}
		truth := &sgm.DisparityMap{Width: pipeline.Width, Height: pipeline.Height, Data: truthData}
		m, err := result.Compare(truth, 1)
		if err != nil {
			return err
		}
		metrics = &m
		slog.Info("Comparison against ground truth",
			"mean_abs_error", m.MeanAbsError, "rms_error", m.RMSError,
			"bad_pixel_ratio", m.BadPixelRatio)
	}

	if saveRun {
		runStore, err := store.NewFSStore(cfg.Output.DataDir)
		if err != nil {
			return err
		}
		record := &store.RunRecord{
			RunID: runID,
			Config: store.RunConfig{
				LeftPath:  leftPath,
				RightPath: rightPath,
				Width:     pipeline.Width,
				Height:    pipeline.Height,
				MaxDisp:   pipeline.MaxDisp,
				P1:        pipeline.P1,
				P2:        pipeline.P2,
				Paths:     pipeline.Paths,
				Engine:    mode,
				Scale:     scale,
			},
			Metrics:   metrics,
			ElapsedMS: elapsed.Milliseconds(),
			Timestamp: time.Now(),
			Disparity: result.Data,
		}
		if err := runStore.SaveRun(runID, record); err != nil {
			return err
		}
		imgPath := filepath.Join(runStore.RunDir(runID), "disparity.png")
		if err := imageio.SavePNG(imgPath, result.Image(pipeline.MaxDisp)); err != nil {
			return err
		}
		slog.Info("Run persisted", "run_id", runID, "dir", runStore.RunDir(runID))
	}

	return nil
}
