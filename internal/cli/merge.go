package cli

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"voxelseg/internal/imagestack"
	"voxelseg/pkg/merge"
	"voxelseg/pkg/region"
	"voxelseg/pkg/visualization"
	"voxelseg/pkg/voxel"
)

func (c *CLI) mergeCommand() *cobra.Command {
	var maxCOG string
	var maxDelta float64

	cmd := &cobra.Command{
		Use:   "merge <labelDir> <maskDir> <outDir>",
		Short: "Merge over-segmented label regions",
		Long: `Reads a label stack, where every non-zero value is one candidate region, and
the mask it was derived from. The mask's distance transform is the contour
field. Regions whose centres and mean contour values lie close together are
merged, and the result is written as a label stack numbered from 1.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("max-cog") {
				c.cfg.Merge.MaxDistanceCOG = maxCOG
			}
			if cmd.Flags().Changed("max-delta") {
				c.cfg.Merge.MaxDistanceDeltaContour = maxDelta
			}
			params, err := c.cfg.MergeParams()
			if err != nil {
				return err
			}

			stack, err := imagestack.Open(args[0], c.Logger)
			if err != nil {
				return err
			}
			labels, err := stack.Labels()
			if err != nil {
				return err
			}
			regions := region.FromLabels(labels)

			field, err := c.distanceField(args[1])
			if err != nil {
				return err
			}
			if field.Extent != labels.Extent {
				return fmt.Errorf("%w: label stack is %s but mask stack is %s",
					voxel.ErrConfiguration, labels.Extent, field.Extent)
			}
			if err := cmd.Context().Err(); err != nil {
				return err
			}

			result, err := merge.NewMerger(params, c.Logger).Merge(regions, field)
			if err != nil {
				return err
			}

			out, err := relabel(labels.Extent, result.Regions)
			if err != nil {
				return err
			}
			if err := visualization.SaveLabels(out, args[2]); err != nil {
				return err
			}

			c.Logger.WithFields(logrus.Fields{
				"input_regions":  len(regions),
				"output_regions": len(result.Regions),
				"failures":       len(result.Failures),
				"output":         args[2],
			}).Info("regions merged")
			return nil
		},
	}

	cmd.Flags().StringVar(&maxCOG, "max-cog", "", "maximum centre-of-gravity distance, e.g. 5, 5vx or 2um")
	cmd.Flags().Float64Var(&maxDelta, "max-delta", 0, "maximum contour difference; zero or less disables it")
	return cmd
}

// relabel paints regions into a fresh label grid, region i getting label i+1.
func relabel(e voxel.Extent, regions []*region.Region) (*voxel.Grid[uint16], error) {
	if len(regions) > math.MaxUint16 {
		return nil, fmt.Errorf("%w: %d regions do not fit 16-bit labels", voxel.ErrConfiguration, len(regions))
	}
	out := voxel.NewGrid[uint16](e)
	for i, r := range regions {
		r.Paint(out, uint16(i+1))
	}
	return out, nil
}
