// Package rewards aligns reward events from a behavior stimulus log with stimulus timestamps.
package rewards

import (
	"encoding/json"
	"fmt"
)

// RewardEvent is one reward entry of a trial: volume delivered, stimulus time and frame index.
type RewardEvent struct {
	Volume float64
	Time   float64
	Frame  int
}

// UnmarshalJSON decodes the [volume, time, frame] tuple used by stimulus logs.
func (e *RewardEvent) UnmarshalJSON(data []byte) error {
	var tuple []float64
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("reward event: %w", err)
	}
	if len(tuple) != 3 {
		return fmt.Errorf("reward event: want [volume, time, frame], got %d values", len(tuple))
	}
	e.Volume, e.Time, e.Frame = tuple[0], tuple[1], int(tuple[2])
	return nil
}

// MarshalJSON encodes e as a [volume, time, frame] tuple.
func (e RewardEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal([]float64{e.Volume, e.Time, float64(e.Frame)})
}

// TrialParams holds the per-trial parameters relevant to rewards.
type TrialParams struct {
	AutoReward bool `json:"auto_reward"`
}

// Trial is one entry of the behavior trial log.
type Trial struct {
	Rewards []RewardEvent `json:"rewards"`
	Params  TrialParams   `json:"trial_params"`
}

// Reward is an aligned reward: volume, stimulus timestamp of its frame, and whether it was automatic.
type Reward struct {
	Volume       float64 `json:"volume"`
	Timestamp    float64 `json:"timestamps"`
	Autorewarded bool    `json:"autorewarded"`
}

// Align maps each trial's reward to the stimulus timestamp at its frame index.
// A trial can carry at most one reward; only the first entry is used and trials
// without rewards are skipped. A frame outside timestamps is an error.
func Align(trials []Trial, timestamps []float64) ([]Reward, error) {
	var out []Reward
	for i, trial := range trials {
		if len(trial.Rewards) == 0 {
			continue
		}
		ev := trial.Rewards[0]
		if ev.Frame < 0 || ev.Frame >= len(timestamps) {
			return nil, fmt.Errorf("trial %d: reward frame %d outside %d stimulus timestamps", i, ev.Frame, len(timestamps))
		}
		out = append(out, Reward{
			Volume:       ev.Volume,
			Timestamp:    timestamps[ev.Frame],
			Autorewarded: trial.Params.AutoReward,
		})
	}
	return out, nil
}

// ByTimestamp groups rewards by their timestamp. Rewards that share a timestamp
// (two events on the same frame) are all kept, in input order.
func ByTimestamp(rewards []Reward) map[float64][]Reward {
	out := make(map[float64][]Reward, len(rewards))
	for _, r := range rewards {
		out[r.Timestamp] = append(out[r.Timestamp], r)
	}
	return out
}

// TotalVolume sums the volume of all rewards.
func TotalVolume(rewards []Reward) float64 {
	var total float64
	for _, r := range rewards {
		total += r.Volume
	}
	return total
}
