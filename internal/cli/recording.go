package cli

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/hyperjump/brainobs/internal/recording"
	"github.com/hyperjump/brainobs/internal/rewards"
)

func newRecordingCommand(opts *RootOptions) *cobra.Command {
	var (
		cells   []int64
		roiIDs  []int64
		allROIs bool
	)
	cmd := &cobra.Command{
		Use:   "recording <bundle.json>",
		Short: "Summarize the traces, masks and rewards of one experiment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := recording.Open(args[0])
			if err != nil {
				return err
			}
			d := recording.NewDataset(b)
			s, err := SummarizeRecording(d, cells...)
			if err != nil {
				return err
			}
			if allROIs || len(roiIDs) > 0 {
				if s.ROIs, err = SummarizeROIs(d, roiIDs...); err != nil {
					return err
				}
			}
			return WriteRecordingSummary(cmd.OutOrStdout(), s, ParseOutputFormat(opts.Output))
		},
	}
	cmd.Flags().Int64SliceVar(&cells, "cells", nil, "cell specimen IDs to summarize (default all)")
	cmd.Flags().Int64SliceVar(&roiIDs, "roi-ids", nil, "cell ROI IDs whose masks to summarize")
	cmd.Flags().BoolVar(&allROIs, "rois", false, "summarize the masks of every ROI")
	return cmd
}

// SummarizeRecording computes per-cell means and reward totals. Corrected fluorescence
// is omitted for recordings without neuropil data.
func SummarizeRecording(d *recording.Dataset, cells ...int64) (*RecordingSummary, error) {
	dff, err := d.DffTraces(cells...)
	if err != nil {
		return nil, err
	}
	masks, err := d.ROIMasks(cells...)
	if err != nil {
		masks = nil
	}
	planes, err := d.ROIMaskArray(cells...)
	if err != nil {
		planes = nil
	}
	corrected, corrErr := d.CorrectedFluorescenceTraces(cells...)

	ids := cells
	if len(ids) == 0 {
		ids = d.CellSpecimenIDs()
	}
	s := &RecordingSummary{
		SessionType: d.SessionType(),
		Cells:       len(d.CellSpecimenIDs()),
		Frames:      len(dff.Timestamps),
	}
	if n := len(dff.Timestamps); n > 1 {
		s.Duration = dff.Timestamps[n-1] - dff.Timestamps[0]
	}

	for i, id := range ids {
		c := CellSummary{CellSpecimenID: id, MeanDFF: mean(dff.Values[i])}
		if corrErr == nil {
			m := mean(corrected.Values[i])
			c.MeanCorrected = &m
		}
		if i < len(masks) {
			c.ROIID = masks[i].ROIID
		}
		if i < len(planes) {
			c.MaskPixels = countPixels(planes[i])
		}
		s.CellSummary = append(s.CellSummary, c)
	}

	rs, err := d.Rewards()
	if err != nil {
		return nil, err
	}
	s.Rewards = len(rs)
	s.RewardVolume = rewards.TotalVolume(rs)
	for _, r := range rs {
		if r.Autorewarded {
			s.AutoRewards++
		}
	}
	s.RewardTimes = rewardTimes(rs)
	return s, nil
}

// rewardTimes groups rewards delivered at the same stimulus timestamp, ordered by time.
func rewardTimes(rs []rewards.Reward) []RewardTime {
	byTime := rewards.ByTimestamp(rs)
	out := make([]RewardTime, 0, len(byTime))
	for ts, group := range byTime {
		rt := RewardTime{Timestamp: ts, Count: len(group), Volume: rewards.TotalVolume(group)}
		for _, r := range group {
			if r.Autorewarded {
				rt.AutoRewards++
			}
		}
		out = append(out, rt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out
}

// SummarizeROIs reports pixel counts and centroids, in the plane's physical units, of
// the masks with the given cell ROI IDs (every ROI when none given).
func SummarizeROIs(d *recording.Dataset, roiIDs ...int64) ([]ROISummary, error) {
	stack, err := d.ROIMasksByCellROIID(roiIDs...)
	if err != nil {
		return nil, err
	}
	out := make([]ROISummary, 0, len(stack.ROIIDs))
	for i, id := range stack.ROIIDs {
		rs := ROISummary{ROIID: id}
		var rowSum, colSum float64
		for r, row := range stack.Masks[i] {
			for c, on := range row {
				if on {
					rs.Pixels++
					rowSum += stack.Rows[r]
					colSum += stack.Columns[c]
				}
			}
		}
		if rs.Pixels > 0 {
			rs.CentroidRow = rowSum / float64(rs.Pixels)
			rs.CentroidColumn = colSum / float64(rs.Pixels)
		}
		out = append(out, rs)
	}
	return out, nil
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func countPixels(mask [][]bool) int {
	n := 0
	for _, row := range mask {
		for _, v := range row {
			if v {
				n++
			}
		}
	}
	return n
}
