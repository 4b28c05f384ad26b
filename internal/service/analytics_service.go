package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/student-console/internal/models"
	appErrors "github.com/noah-isme/student-console/pkg/errors"
	"github.com/noah-isme/student-console/pkg/export"
)

const reportTitle = "Score analysis"

var reportColumns = []export.Column{
	{Key: "metric", Title: "Metric"},
	{Key: "value", Title: "Value"},
}

var subjectTitles = map[string]string{
	models.FieldMath:       "Math",
	models.FieldLiterature: "Literature",
	models.FieldEnglish:    "English",
}

// compared subject pairs, left against right
var comparedSubjects = [][2]string{
	{models.FieldMath, models.FieldEnglish},
	{models.FieldLiterature, models.FieldEnglish},
}

// AnalyticsService computes score statistics over the current student list.
type AnalyticsService struct {
	students studentLister
	exports  *ExportService
	logger   *zap.Logger
	now      func() time.Time
}

// NewAnalyticsService constructs an analytics service. exports may be nil when
// report downloads are not needed.
func NewAnalyticsService(students studentLister, exports *ExportService, logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{students: students, exports: exports, logger: logger, now: time.Now}
}

// Report fetches the list and analyses it.
func (s *AnalyticsService) Report(ctx context.Context) (*models.ScoreReport, error) {
	records, err := s.students.List(ctx)
	if err != nil {
		return nil, err
	}
	report := BuildScoreReport(records, s.now().UTC())
	s.logger.Debug("score report built", zap.Int("students", report.Total), zap.Int("hometowns", len(report.Hometowns)))
	return &report, nil
}

// Export renders the report in format.
func (s *AnalyticsService) Export(ctx context.Context, format string) (*ExportResult, error) {
	if s.exports == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "report export unavailable")
	}
	if !s.exports.Supports(format) {
		return nil, unsupportedFormat(format)
	}
	report, err := s.Report(ctx)
	if err != nil {
		return nil, err
	}
	return s.exports.Render(ReportDataset(*report), "report", format)
}

// BuildScoreReport analyses records. Absent scores are skipped, never read as
// zero.
func BuildScoreReport(records []models.Student, generatedAt time.Time) models.ScoreReport {
	report := models.ScoreReport{
		Total:       len(records),
		Subjects:    make([]models.SubjectStats, 0, len(models.Subjects)),
		Comparisons: make([]models.SubjectComparison, 0, len(comparedSubjects)),
		Hometowns:   []models.HometownStats{},
		GeneratedAt: generatedAt,
	}

	for _, subject := range models.Subjects {
		values := make([]float64, 0, len(records))
		for _, record := range records {
			if v := subjectScore(record, subject).Ptr(); v != nil {
				values = append(values, *v)
			}
		}
		stats := summarize(values)
		stats.Subject = subject
		stats.Missing = len(records) - len(values)
		report.Subjects = append(report.Subjects, stats)
	}

	for _, pair := range comparedSubjects {
		cmp := models.SubjectComparison{Left: pair[0], Right: pair[1]}
		for _, record := range records {
			left, right := subjectScore(record, pair[0]).Ptr(), subjectScore(record, pair[1]).Ptr()
			if left == nil || right == nil {
				continue
			}
			cmp.Compared++
			switch {
			case *left > *right:
				cmp.LeftHigher++
			case *left < *right:
				cmp.RightHigher++
			default:
				cmp.Equal++
			}
		}
		report.Comparisons = append(report.Comparisons, cmp)
	}

	report.Hometowns = hometownStats(records)
	return report
}

func hometownStats(records []models.Student) []models.HometownStats {
	groups := map[string][]models.Student{}
	var order []string
	for _, record := range records {
		town := strings.TrimSpace(record.Hometown)
		if town == "" {
			continue
		}
		if _, seen := groups[town]; !seen {
			order = append(order, town)
		}
		groups[town] = append(groups[town], record)
	}

	out := make([]models.HometownStats, 0, len(order))
	for _, town := range order {
		members := groups[town]
		out = append(out, models.HometownStats{
			Hometown:       town,
			Students:       len(members),
			MathMean:       meanOf(members, models.FieldMath),
			LiteratureMean: meanOf(members, models.FieldLiterature),
			EnglishMean:    meanOf(members, models.FieldEnglish),
		})
	}
	// best english first; towns with no english score last
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].EnglishMean, out[j].EnglishMean
		switch {
		case a != nil && b != nil && *a != *b:
			return *a > *b
		case (a == nil) != (b == nil):
			return a != nil
		}
		return out[i].Hometown < out[j].Hometown
	})
	return out
}

func meanOf(records []models.Student, subject string) *float64 {
	values := make([]float64, 0, len(records))
	for _, record := range records {
		if v := subjectScore(record, subject).Ptr(); v != nil {
			values = append(values, *v)
		}
	}
	return summarize(values).Mean
}

func summarize(values []float64) models.SubjectStats {
	stats := models.SubjectStats{Count: len(values)}
	if len(values) == 0 {
		return stats
	}
	sum, lo, hi := 0.0, values[0], values[0]
	for _, v := range values {
		sum += v
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	mean := sum / float64(len(values))
	stats.Mean, stats.Min, stats.Max = &mean, &lo, &hi
	if len(values) < 2 {
		return stats
	}
	var squares float64
	for _, v := range values {
		squares += (v - mean) * (v - mean)
	}
	stddev := math.Sqrt(squares / float64(len(values)-1))
	stats.StdDev = &stddev
	return stats
}

func subjectScore(record models.Student, subject string) models.Score {
	switch subject {
	case models.FieldMath:
		return record.Math
	case models.FieldLiterature:
		return record.Literature
	case models.FieldEnglish:
		return record.English
	}
	return models.Score{}
}

// ReportDataset flattens a report into metric/value rows.
func ReportDataset(report models.ScoreReport) export.Dataset {
	var rows []map[string]string
	add := func(metric, value string) {
		rows = append(rows, map[string]string{"metric": metric, "value": value})
	}

	add("Total students", strconv.Itoa(report.Total))
	for _, stats := range report.Subjects {
		title := subjectTitles[stats.Subject]
		add(title+" - Mean", formatStat(stats.Mean))
		add(title+" - Min", formatStat(stats.Min))
		add(title+" - Max", formatStat(stats.Max))
		add(title+" - Std dev", formatStat(stats.StdDev))
		add(title+" - Missing", strconv.Itoa(stats.Missing))
	}
	for _, cmp := range report.Comparisons {
		left, right := subjectTitles[cmp.Left], subjectTitles[cmp.Right]
		prefix := left + " vs " + right
		add(prefix+" - "+left+" higher", strconv.Itoa(cmp.LeftHigher))
		add(prefix+" - "+right+" higher", strconv.Itoa(cmp.RightHigher))
		add(prefix+" - Equal", strconv.Itoa(cmp.Equal))
	}
	for _, town := range report.Hometowns {
		prefix := "Hometown " + town.Hometown
		add(prefix+" - Students", strconv.Itoa(town.Students))
		add(prefix+" - Math mean", formatStat(town.MathMean))
		add(prefix+" - Literature mean", formatStat(town.LiteratureMean))
		add(prefix+" - English mean", formatStat(town.EnglishMean))
	}
	return export.Dataset{Title: reportTitle, Columns: reportColumns, Rows: rows, GeneratedAt: report.GeneratedAt}
}

func formatStat(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}
