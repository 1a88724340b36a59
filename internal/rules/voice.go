package rules

import (
	"errors"
	"math"

	"aurora-agent/internal/domain"
)

// FeatureStats are the summary statistics of an MFCC matrix
// (coefficients x frames) that the stress heuristic consumes.
type FeatureStats struct {
	Mean        float64 `json:"meanMfcc"`
	Std         float64 `json:"stdMfcc"`
	Variance    float64 `json:"varMfcc"`
	TemporalVar float64 `json:"temporalVar"`
	Coeffs      int     `json:"coefficients"`
	Frames      int     `json:"frames"`
}

// VoiceClassification is the output of ClassifyVoice.
type VoiceClassification struct {
	StressScore   float64            `json:"stressScore"`
	StressLevel   domain.RiskLevel   `json:"stressLevel"`
	Emotion       string             `json:"emotion"`
	Confidence    float64            `json:"confidence"`
	EmotionScores map[string]float64 `json:"emotionScores"`
}

var (
	ErrEmptyFeatures  = errors.New("rules: feature matrix is empty")
	ErrRaggedFeatures = errors.New("rules: feature matrix rows differ in length")
)

// ComputeFeatureStats derives population statistics over every element of mfcc
// and the variance of frame-to-frame changes of the per-frame mean.
func ComputeFeatureStats(mfcc [][]float64) (FeatureStats, error) {
	if len(mfcc) == 0 || len(mfcc[0]) == 0 {
		return FeatureStats{}, ErrEmptyFeatures
	}
	frames := len(mfcc[0])
	all := make([]float64, 0, len(mfcc)*frames)
	for _, row := range mfcc {
		if len(row) != frames {
			return FeatureStats{}, ErrRaggedFeatures
		}
		all = append(all, row...)
	}

	frameMeans := make([]float64, frames)
	for j := 0; j < frames; j++ {
		var sum float64
		for i := range mfcc {
			sum += mfcc[i][j]
		}
		frameMeans[j] = sum / float64(len(mfcc))
	}
	var temporal float64
	if frames > 1 {
		diffs := make([]float64, frames-1)
		for j := 1; j < frames; j++ {
			diffs[j-1] = frameMeans[j] - frameMeans[j-1]
		}
		_, temporal = meanVar(diffs)
	}

	mean, variance := meanVar(all)
	return FeatureStats{
		Mean:        mean,
		Std:         math.Sqrt(variance),
		Variance:    variance,
		TemporalVar: temporal,
		Coeffs:      len(mfcc),
		Frames:      frames,
	}, nil
}

// ClassifyVoice is a fixed formula over FeatureStats, not a trained model. It
// stands in for a real acoustic classifier and should be replaced by one.
func ClassifyVoice(stats FeatureStats) VoiceClassification {
	energy := stats.Variance / 100.0
	variability := math.Min(stats.TemporalVar/50.0, 1.0)
	score := energy*0.4 + variability*0.3 + (stats.Std/30.0)*0.3
	score = math.Min(math.Max(score, 0), 1)

	out := VoiceClassification{StressScore: score}
	switch {
	case score > 0.7:
		out.StressLevel, out.Emotion = domain.RiskHigh, "stressed"
		out.Confidence = 0.75 + score*0.15
	case score > 0.45:
		out.StressLevel, out.Emotion = domain.RiskMedium, "anxious"
		out.Confidence = 0.70 + score*0.15
	case score > 0.25:
		out.StressLevel, out.Emotion = domain.RiskLow, "neutral"
		out.Confidence = 0.72 + score*0.10
	default:
		out.StressLevel, out.Emotion = domain.RiskLow, "calm"
		out.Confidence = 0.80 + (1-score)*0.15
	}
	out.Confidence = round2(out.Confidence)
	out.EmotionScores = voiceEmotionScores(score)
	return out
}

func voiceEmotionScores(s float64) map[string]float64 {
	pick := func(cond bool, a, b float64) float64 {
		if cond {
			return a
		}
		return b
	}
	neutral := 0.2 + pick(s > 0.3 && s < 0.6, 0.3, 0.1)
	scores := map[string]float64{
		"calm":        round2(math.Max(0.1, 1-s) * 0.7),
		"neutral":     round2(neutral),
		"anxious":     round2(pick(s > 0.4, s*0.5, 0.15)),
		"stressed":    round2(pick(s > 0.5, s*0.7, 0.10)),
		"overwhelmed": round2(pick(s > 0.7, s*0.9, 0.05)),
	}
	var total float64
	for _, v := range scores {
		total += v
	}
	if total > 0 {
		for k, v := range scores {
			scores[k] = round2(v / total)
		}
	}
	return scores
}

var voiceSuggestions = map[domain.RiskLevel][]string{
	domain.RiskLow: {
		"Your stress levels are healthy! Keep up your current coping strategies.",
		"Consider journaling to maintain your positive mental state.",
		"Regular exercise can help sustain your emotional well-being.",
	},
	domain.RiskMedium: {
		"Try some deep breathing exercises to help reduce stress.",
		"Consider taking short breaks throughout your day.",
		"Talking to a friend or loved one might help.",
		"Mindfulness meditation could be beneficial for you.",
	},
	domain.RiskHigh: {
		"Your stress levels seem elevated. Consider talking to a mental health professional.",
		"Practice progressive muscle relaxation to help manage tension.",
		"Limit caffeine intake and ensure you're getting enough sleep.",
		"Reach out to our support resources if you need someone to talk to.",
		"Physical activity like a short walk can help reduce stress hormones.",
	},
	domain.RiskVeryHigh: {
		"We strongly recommend speaking with a mental health professional.",
		"Contact our crisis support line if you need immediate help.",
		"Practice grounding techniques: focus on your breath and surroundings.",
		"Reach out to someone you trust - you don't have to face this alone.",
		"Consider emergency support services if you're in crisis.",
	},
}

// VoiceSuggestions returns the fixed suggestions for a stress level; unknown
// levels get the medium list.
func VoiceSuggestions(level domain.RiskLevel) []string {
	s, ok := voiceSuggestions[level]
	if !ok {
		s = voiceSuggestions[domain.RiskMedium]
	}
	return append([]string(nil), s...)
}

func meanVar(xs []float64) (mean, variance float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	for _, x := range xs {
		d := x - mean
		variance += d * d
	}
	variance /= float64(len(xs))
	return mean, variance
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
