package cli

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"voxelseg/internal/imagestack"
	"voxelseg/pkg/edt"
	"voxelseg/pkg/visualization"
	"voxelseg/pkg/voxel"
)

// edtOpts holds the command-line flags for the edt command.
type edtOpts struct {
	axis      string // slicing axis of the written images
	suppressZ bool   // overrides distanceTransform.suppressZ when set
}

func (c *CLI) edtCommand() *cobra.Command {
	var opts edtOpts

	cmd := &cobra.Command{
		Use:   "edt <maskDir> <outDir>",
		Short: "Compute the Euclidean distance transform of a mask stack",
		Long: `Reads a directory of mask slices, where any non-zero pixel is foreground,
and writes the distance of every voxel to the nearest background voxel as
16-bit PNG slices.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("suppress-z") {
				c.cfg.DistanceTransform.SuppressZ = opts.suppressZ
			}
			field, err := c.distanceField(args[0])
			if err != nil {
				return err
			}
			if err := cmd.Context().Err(); err != nil {
				return err
			}

			scale, err := visualization.DistanceScale(c.cfg.DistanceTransform.MultiplyBy,
				c.cfg.DistanceTransform.ApplyResolution, c.cfg.VoxelResolution())
			if err != nil {
				return err
			}
			viewer := visualization.NewViewer(field, scale)
			if err := viewer.SaveSliceSequence(opts.axis, args[1]); err != nil {
				return fmt.Errorf("failed to save distance slices: %w", err)
			}

			c.Logger.WithFields(logrus.Fields{
				"output":       args[1],
				"axis":         opts.axis,
				"scale":        scale,
				"max_distance": voxel.FiniteMax(field),
			}).Info("distance transform written")
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.axis, "axis", "z", "slicing axis of the output images (x, y or z)")
	cmd.Flags().BoolVar(&opts.suppressZ, "suppress-z", false, "transform each slice independently")
	return cmd
}

// distanceField loads the mask stack in dir and transforms it with the
// configured resolution and z handling.
func (c *CLI) distanceField(dir string) (*voxel.Field, error) {
	stack, err := imagestack.Open(dir, c.Logger)
	if err != nil {
		return nil, err
	}
	mask, err := stack.Mask()
	if err != nil {
		return nil, err
	}
	mask.Resolution = c.cfg.VoxelResolution()

	start := time.Now()
	engine := edt.NewEngine(edt.Options{
		Workers: c.cfg.Processing.NumCores,
		Logger:  c.Logger,
	})
	field, err := engine.Compute(mask, c.cfg.DistanceTransform.SuppressZ, c.cfg.ZScaleSquared())
	if err != nil {
		return nil, err
	}

	c.Logger.WithFields(logrus.Fields{
		"mask":    dir,
		"extent":  mask.Extent().String(),
		"elapsed": time.Since(start).String(),
	}).Info("distance transform computed")
	return field, nil
}
