// Package scoring computes a heuristic ATS-compatibility score for CV text.
// The score never depends on the generative model.
package scoring

import (
	"math"
	"regexp"
	"strings"
)

var (
	phonePattern  = regexp.MustCompile(`\d{3}[-.\s]?\d{3}[-.\s]?\d{4}`)
	bulletPattern = regexp.MustCompile(`•|·|-\s`)
)

// StandardSections are the headings an ATS expects to find.
var StandardSections = []string{
	"experience", "education", "skills", "summary", "objective",
	"work experience", "employment", "qualifications", "achievements",
}

// Factor weights
const (
	keywordWeight     = 40.0
	emailBonus        = 10.0
	phoneBonus        = 10.0
	sectionBonus      = 5.0
	longTextBonus     = 15.0
	shortTextBonus    = 10.0
	longTextThreshold = 500
	manyBulletsBonus  = 10.0
	fewBulletsBonus   = 5.0
	bulletThreshold   = 5
	maxScore          = 100
)

// ScoreBreakdown lists the value each factor contributed.
type ScoreBreakdown struct {
	KeywordsFound   int      `json:"keywordsFound"`
	KeywordsTotal   int      `json:"keywordsTotal"`
	MissingKeywords []string `json:"missingKeywords"`
	KeywordScore    float64  `json:"keywordScore"`
	EmailScore      float64  `json:"emailScore"`
	PhoneScore      float64  `json:"phoneScore"`
	Sections        []string `json:"sections"`
	SectionScore    float64  `json:"sectionScore"`
	LengthScore     float64  `json:"lengthScore"`
	BulletCount     int      `json:"bulletCount"`
	BulletScore     float64  `json:"bulletScore"`
	Total           int      `json:"total"`
}

// CalculateATSScore returns a score in [0,100] for cvText against keywords.
func CalculateATSScore(cvText string, keywords []string) int {
	return Breakdown(cvText, keywords).Total
}

// Breakdown computes every factor of the ATS score.
func Breakdown(cvText string, keywords []string) ScoreBreakdown {
	lower := strings.ToLower(cvText)
	b := ScoreBreakdown{
		KeywordsTotal:   len(keywords),
		MissingKeywords: []string{},
		Sections:        []string{},
	}

	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			b.KeywordsFound++
		} else {
			b.MissingKeywords = append(b.MissingKeywords, kw)
		}
	}
	var density float64
	if len(keywords) > 0 {
		density = float64(b.KeywordsFound) / float64(len(keywords))
	}
	b.KeywordScore = density * keywordWeight

	if strings.Contains(cvText, "@") {
		b.EmailScore = emailBonus
	}
	if phonePattern.MatchString(cvText) {
		b.PhoneScore = phoneBonus
	}

	for _, section := range StandardSections {
		if strings.Contains(lower, section) {
			b.Sections = append(b.Sections, section)
		}
	}
	b.SectionScore = float64(len(b.Sections)) * sectionBonus

	// Length is counted in characters, not bytes.
	if len([]rune(cvText)) > longTextThreshold {
		b.LengthScore = longTextBonus
	} else {
		b.LengthScore = shortTextBonus
	}

	b.BulletCount = len(bulletPattern.FindAllStringIndex(cvText, -1))
	if b.BulletCount > bulletThreshold {
		b.BulletScore = manyBulletsBonus
	} else {
		b.BulletScore = fewBulletsBonus
	}

	sum := b.KeywordScore + b.EmailScore + b.PhoneScore + b.SectionScore + b.LengthScore + b.BulletScore
	b.Total = int(math.Min(maxScore, math.Round(sum)))
	return b
}
