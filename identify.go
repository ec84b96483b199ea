package tracks

import (
	"strconv"
	"strings"
)

// DefaultThresholdRatio is the fraction of the ad's auto-correlation a window
// must reach to count as a match.
const DefaultThresholdRatio = 0.95

// Match is an occurrence of an ad inside a target track.
type Match struct {
	Start int64 // first sample of the occurrence
	End   int64 // last sample of the occurrence (inclusive)
}

// IdentifyOptions configures the correlation search.
type IdentifyOptions struct {
	// ThresholdRatio scales the ad's auto-correlation into the match threshold.
	// Zero selects DefaultThresholdRatio.
	ThresholdRatio float64
}

// CrossCorrelation returns the sum of a[i]*b[i] over the shorter of the two slices.
func CrossCorrelation(a, b []int16) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	sum := 0.0
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// AutoCorrelation returns the sum of a[i]^2.
func AutoCorrelation(a []int16) float64 {
	return CrossCorrelation(a, a)
}

// FindMatches slides ad over target and returns every non-overlapping window
// whose correlation with ad reaches the threshold. The threshold compares raw
// sums, so a very quiet ad also matches near-silence.
func FindMatches(target, ad *Track, opts IdentifyOptions) ([]Match, error) {
	if target.closed || ad.closed {
		return nil, ErrClosed
	}

	targetLen := target.Len()
	adLen := ad.Len()
	if targetLen == 0 || adLen == 0 || adLen > targetLen {
		return nil, nil
	}

	targetSamples, err := target.Read(0, targetLen)
	if err != nil {
		return nil, err
	}
	adSamples, err := ad.Read(0, adLen)
	if err != nil {
		return nil, err
	}

	ratio := opts.ThresholdRatio
	if ratio == 0 {
		ratio = DefaultThresholdRatio
	}
	threshold := AutoCorrelation(adSamples) * ratio

	var matches []Match
	next := int64(0) // first offset allowed after the last match
	for pos := int64(0); pos <= targetLen-adLen; pos++ {
		if pos < next {
			continue
		}

		if CrossCorrelation(targetSamples[pos:pos+adLen], adSamples) >= threshold {
			matches = append(matches, Match{Start: pos, End: pos + adLen - 1})
			next = pos + adLen
		}
	}

	target.lib.logger.Debug("identify finished", "target", target.id, "ad", ad.id, "matches", len(matches))
	return matches, nil
}

// Identify returns the occurrences of ad in target as "start,end" lines joined
// by newlines, with no trailing newline. It returns "" when nothing matches.
func Identify(target, ad *Track) (string, error) {
	matches, err := FindMatches(target, ad, IdentifyOptions{})
	if err != nil {
		return "", err
	}
	return FormatMatches(matches), nil
}

// FormatMatches renders matches in the "start,end" line format used by Identify.
func FormatMatches(matches []Match) string {
	var sb strings.Builder
	for i, m := range matches {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(strconv.FormatInt(m.Start, 10))
		sb.WriteByte(',')
		sb.WriteString(strconv.FormatInt(m.End, 10))
	}
	return sb.String()
}
