package utils

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

var sampleHeader = []string{"opinion", "set_a_arg1", "set_a_arg2", "set_a_arg3", "set_b_arg1", "set_b_arg2", "set_b_arg3"}

var sampleRows = [][]string{
	{
		"Social media platforms should be held responsible for misinformation spread on their platforms.",
		"Private companies shouldn't be forced to police speech as it violates free market principles.",
		"Content moderation at scale is technically impossible and will inevitably lead to censorship of legitimate content.",
		"Government regulation of speech on private platforms sets a dangerous precedent for authoritarianism.",
		"Users should have personal responsibility to fact-check information rather than relying on platforms.",
		"Platform liability would destroy small social media companies that can't afford extensive moderation.",
		"Misinformation definitions are subjective and politically biased.",
	},
	{
		"Universal basic income would be an effective solution to poverty and unemployment.",
		"UBI would reduce work incentives and create a culture of dependency.",
		"The cost would be astronomical and require massive tax increases that hurt the economy.",
		"Targeted welfare programs are more efficient than giving money to everyone including the wealthy.",
		"Inflation would immediately eat up any benefits as prices adjust to increased purchasing power.",
		"UBI would eliminate the motivation for education and skill development.",
		"Current welfare systems already provide adequate safety nets without UBI's drawbacks.",
	},
	{
		"Climate change requires immediate and drastic action even if it hurts economic growth.",
		"Economic prosperity is necessary to fund green technology development and environmental protection.",
		"Rapid economic disruption would harm the poor more than gradual climate change.",
		"Historical precedent shows markets adapt to environmental challenges better than government intervention.",
		"Climate models have been consistently wrong and overstate the urgency of the problem.",
		"Developing countries shouldn't be prevented from industrializing like wealthy nations did.",
		"Technological innovation will solve climate issues without requiring economic sacrifice.",
	},
}

// CreateSampleData writes the three sample opinions to path unless the file
// already exists. It reports whether a file was written.
func CreateSampleData(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create data directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return false, fmt.Errorf("failed to create sample data: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(sampleHeader); err != nil {
		f.Close()
		return false, err
	}
	if err := w.WriteAll(sampleRows); err != nil {
		f.Close()
		return false, fmt.Errorf("failed to write sample data: %w", err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("failed to close sample data: %w", err)
	}
	return true, nil
}

// SampleSize is the number of opinion sets CreateSampleData writes.
func SampleSize() int {
	return len(sampleRows)
}
