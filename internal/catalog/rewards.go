package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

//go:embed rewards.yaml
var rewardsYAML []byte

type Reward struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Points      int    `yaml:"points" json:"points"`
	PointsLabel string `yaml:"-" json:"pointsLabel"` // "1,500 Points"
	Description string `yaml:"description" json:"description"`
	ImageID     string `yaml:"image" json:"imageId"`
	Redeemable  bool   `yaml:"-" json:"redeemable"`
}

type Rewards struct {
	Balance      int      `yaml:"balance" json:"balance"`
	BalanceLabel string   `yaml:"-" json:"balanceLabel"` // "8,520 Points"
	Items        []Reward `yaml:"rewards" json:"rewards"`
}

var (
	rewardsOnce sync.Once
	rewards     Rewards
	rewardsErr  error
)

// ParseRewards decodes a rewards catalog document and fills the derived
// labels.
func ParseRewards(data []byte) (Rewards, error) {
	var r Rewards
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Rewards{}, fmt.Errorf("failed to parse rewards catalog: %w", err)
	}
	seen := make(map[string]bool, len(r.Items))
	for i := range r.Items {
		item := &r.Items[i]
		if item.ID == "" || item.Name == "" {
			return Rewards{}, fmt.Errorf("reward %d is missing id or name", i)
		}
		if seen[item.ID] {
			return Rewards{}, fmt.Errorf("duplicate reward id %q", item.ID)
		}
		seen[item.ID] = true
		if item.Points <= 0 {
			return Rewards{}, fmt.Errorf("reward %q has non-positive points", item.ID)
		}
		item.PointsLabel = FormatPoints(item.Points)
		item.Redeemable = item.Points <= r.Balance
	}
	r.BalanceLabel = FormatPoints(r.Balance)
	return r, nil
}

// RewardsCatalog returns the embedded rewards catalog. The result is a copy.
func RewardsCatalog() (Rewards, error) {
	rewardsOnce.Do(func() {
		rewards, rewardsErr = ParseRewards(rewardsYAML)
	})
	if rewardsErr != nil {
		return Rewards{}, rewardsErr
	}
	out := rewards
	out.Items = append([]Reward(nil), rewards.Items...)
	return out, nil
}

// FormatPoints renders a points amount with thousands separators,
// e.g. "8,520 Points".
func FormatPoints(points int) string {
	return FormatThousands(points) + " Points"
}

// FormatThousands inserts commas every three digits.
func FormatThousands(n int) string {
	return humanize.Comma(int64(n))
}
