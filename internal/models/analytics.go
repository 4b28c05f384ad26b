package models

import "time"

// Subjects in the order reports list them.
var Subjects = []string{FieldMath, FieldLiterature, FieldEnglish}

// SubjectStats summarises one subject's scores. Records without a score are
// counted as Missing and take no part in the figures. StdDev is the sample
// standard deviation and stays nil below two scores.
type SubjectStats struct {
	Subject string   `json:"subject"`
	Count   int      `json:"count"`
	Missing int      `json:"missing"`
	Mean    *float64 `json:"mean"`
	Min     *float64 `json:"min"`
	Max     *float64 `json:"max"`
	StdDev  *float64 `json:"stddev"`
}

// SubjectComparison counts, over records scored in both subjects, how often
// each side scored higher.
type SubjectComparison struct {
	Left        string `json:"left"`
	Right       string `json:"right"`
	Compared    int    `json:"compared"`
	LeftHigher  int    `json:"left_higher"`
	RightHigher int    `json:"right_higher"`
	Equal       int    `json:"equal"`
}

// HometownStats aggregates scores of the students sharing a hometown.
type HometownStats struct {
	Hometown       string   `json:"hometown"`
	Students       int      `json:"students"`
	MathMean       *float64 `json:"math_mean"`
	LiteratureMean *float64 `json:"literature_mean"`
	EnglishMean    *float64 `json:"english_mean"`
}

// ScoreReport is the score analysis over the whole student list.
type ScoreReport struct {
	Total       int                 `json:"total"`
	Subjects    []SubjectStats      `json:"subjects"`
	Comparisons []SubjectComparison `json:"comparisons"`
	Hometowns   []HometownStats     `json:"hometowns"`
	GeneratedAt time.Time           `json:"generated_at"`
}
