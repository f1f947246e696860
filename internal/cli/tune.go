package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/stereopipe/sgm/internal/imageio"
	"github.com/stereopipe/sgm/internal/opt"
	"github.com/stereopipe/sgm/internal/sgm"
	"github.com/stereopipe/sgm/internal/tune"
)

var (
	tuneIters int
	tunePop   int
	tuneSeed  int64
)

var tuneCmd = &cobra.Command{
	Use:   "tune",
	Short: "Search P1/P2 penalties against a ground-truth disparity map",
	Long: `Runs a derivative-free search over the P1/P2 penalty space, scoring each
candidate by the mean absolute disparity error of a full batch pass
against the supplied ground truth.`,
	RunE: runTune,
}

func init() {
	tuneCmd.Flags().StringVar(&leftPath, "left", "", "Left (reference) image path (required)")
	tuneCmd.Flags().StringVar(&rightPath, "right", "", "Right (target) image path (required)")
	tuneCmd.Flags().StringVar(&truthPath, "truth", "", "Ground-truth disparity text file (required)")
	tuneCmd.Flags().IntVar(&tuneIters, "iters", 40, "Max optimizer iterations")
	tuneCmd.Flags().IntVar(&tunePop, "pop", 20, "Optimizer population size")
	tuneCmd.Flags().Int64Var(&tuneSeed, "seed", 42, "Random seed")

	tuneCmd.MarkFlagRequired("left")
	tuneCmd.MarkFlagRequired("right")
	tuneCmd.MarkFlagRequired("truth")
	rootCmd.AddCommand(tuneCmd)
}

func runTune(cmd *cobra.Command, args []string) error {
	_, scale := resolveParams(cmd)

	left, right, err := loadInputPair(scale)
	if err != nil {
		return err
	}

	truthData, err := imageio.ReadDisparityText(truthPath, left.Width, left.Height)
	if err != nil {
		return err
	}
	truth := &sgm.DisparityMap{Width: left.Width, Height: left.Height, Data: truthData}

	pipeline := sgm.Config{
		Width:   left.Width,
		Height:  left.Height,
		MaxDisp: maxDisp,
		P1:      p1Flag,
		P2:      p2Flag,
		Paths:   pathsFlag,
	}

	optimizer := opt.NewMayfly(tuneIters, tunePop, tuneSeed)
	result, err := tune.Penalties(pipeline, left.Pix, right.Pix, truth, optimizer)
	if err != nil {
		return err
	}

	slog.Info("Penalty search finished",
		"p1", result.P1, "p2", result.P2,
		"score", result.Score, "initial_score", result.InitialScore)
	fmt.Printf("best penalties: P1=%g P2=%g (mean abs error %0.4f, baseline %0.4f)\n",
		result.P1, result.P2, result.Score, result.InitialScore)
	return nil
}
