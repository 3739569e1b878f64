// Package report renders the candidate ranking of a job as an Excel workbook.
package report

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"candidate-evaluator/internal/common/config"
	"candidate-evaluator/internal/common/logger"
	"candidate-evaluator/internal/evaluation/aggregate"
	"candidate-evaluator/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	SummarySheet = "Summary"
	RankedSheet  = "Ranked Candidates"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var rankedHeaders = []interface{}{
	"Rank", "Candidate", "Resume", "Confidence", "Communication", "Knowledge",
	"Overall", "Percentile", "HR Decision",
}

// Source loads what a report is built from; *store.Repository satisfies it.
type Source interface {
	GetJob(ctx context.Context, id int64) (*models.Job, error)
	RankedCandidates(ctx context.Context, jobID int64) ([]models.RankedCandidate, error)
}

// Uploader stores a finished report remotely; *storage.Storage satisfies it.
type Uploader interface {
	Put(ctx context.Context, localPath, bucket, key, contentType string) (string, error)
}

// Report describes an exported workbook.
type Report struct {
	JobID      int64  `json:"jobId"`
	FileName   string `json:"fileName"`
	LocalPath  string `json:"localPath"`
	Location   string `json:"location"`
	Candidates int    `json:"candidates"`
}

type Exporter struct {
	source   Source
	uploader Uploader
	cfg      config.ReportConfig
	logger   logger.Logger
	now      func() time.Time
}

// NewExporter returns an Exporter. uploader may be nil; reports then stay on disk.
func NewExporter(source Source, uploader Uploader, cfg config.ReportConfig, log logger.Logger) *Exporter {
	if cfg.OutputDir == "" {
		cfg.OutputDir = filepath.Join(os.TempDir(), "reports")
	}
	return &Exporter{
		source:   source,
		uploader: uploader,
		cfg:      cfg,
		logger:   log.WithFields(map[string]interface{}{"component": "report"}),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Export writes the ranking workbook of a job and uploads it when a report
// bucket is configured.
func (e *Exporter) Export(ctx context.Context, jobID int64) (*Report, error) {
	job, err := e.source.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	rows, err := e.source.RankedCandidates(ctx, jobID)
	if err != nil {
		return nil, err
	}

	generated := e.now()
	f, err := Build(job, rows, generated)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := os.MkdirAll(e.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	name := fmt.Sprintf("ranking-job-%d-%s.xlsx", jobID, generated.Format("20060102-150405"))
	out := &Report{
		JobID:      jobID,
		FileName:   name,
		LocalPath:  filepath.Join(e.cfg.OutputDir, name),
		Candidates: len(rows),
	}
	if err := f.SaveAs(out.LocalPath); err != nil {
		return nil, fmt.Errorf("save workbook: %w", err)
	}
	out.Location = out.LocalPath

	if e.uploader != nil && e.cfg.Bucket != "" {
		key := path.Join(e.cfg.Prefix, name)
		loc, err := e.uploader.Put(ctx, out.LocalPath, e.cfg.Bucket, key, xlsxContentType)
		if err != nil {
			return nil, fmt.Errorf("upload report: %w", err)
		}
		out.Location = loc
	}

	e.logger.Info("ranking report exported", map[string]interface{}{
		"jobId":      jobID,
		"candidates": len(rows),
		"location":   out.Location,
	})
	return out, nil
}

// Build renders the workbook. Rows are ranked by overall score, highest first.
func Build(job *models.Job, rows []models.RankedCandidate, generated time.Time) (*excelize.File, error) {
	ranked := make([]models.RankedCandidate, len(rows))
	copy(ranked, rows)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].OverallScore > ranked[j].OverallScore
	})

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(RankedSheet); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeSummary(f, job, ranked, generated); err != nil {
		f.Close()
		return nil, fmt.Errorf("summary sheet: %w", err)
	}
	if err := writeRanked(f, ranked); err != nil {
		f.Close()
		return nil, fmt.Errorf("ranked sheet: %w", err)
	}
	return f, nil
}

func writeSummary(f *excelize.File, job *models.Job, ranked []models.RankedCandidate, generated time.Time) error {
	sheet := SummarySheet
	f.SetColWidth(sheet, "A", "A", 28)
	f.SetColWidth(sheet, "B", "B", 40)

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	labelStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	f.SetCellValue(sheet, "A1", "Candidate Ranking Report")
	f.MergeCell(sheet, "A1", "B1")
	f.SetCellStyle(sheet, "A1", "B1", titleStyle)

	lines := [][2]interface{}{
		{"Job Title:", job.Title},
		{"Job ID:", job.ID},
		{"Generated:", generated.Format("2006-01-02 15:04:05")},
		{"Candidates Evaluated:", len(ranked)},
	}

	if len(ranked) > 0 {
		var total float64
		high, low := ranked[0].OverallScore, ranked[0].OverallScore
		for _, r := range ranked {
			total += r.OverallScore
			if r.OverallScore > high {
				high = r.OverallScore
			}
			if r.OverallScore < low {
				low = r.OverallScore
			}
		}
		lines = append(lines,
			[2]interface{}{"Average Overall:", fmt.Sprintf("%.2f", total/float64(len(ranked)))},
			[2]interface{}{"Highest Overall:", high},
			[2]interface{}{"Lowest Overall:", low},
			[2]interface{}{"", ""},
		)

		bands := map[string]int{}
		for _, r := range ranked {
			bands[aggregate.Recommendation(r.OverallScore)]++
		}
		for _, b := range []string{aggregate.StrongHire, aggregate.Hire, aggregate.Consider, aggregate.OnHold} {
			lines = append(lines, [2]interface{}{b + ":", bands[b]})
		}
		lines = append(lines, [2]interface{}{"", ""})

		decisions := map[string]int{}
		for _, r := range ranked {
			decisions[r.HRDecision]++
		}
		for _, d := range []string{models.DecisionPending, models.DecisionSelected, models.DecisionRejected, models.DecisionOnHold} {
			lines = append(lines, [2]interface{}{"Decision " + d + ":", decisions[d]})
		}
	}

	for i, l := range lines {
		row := i + 3
		a, b := fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row)
		f.SetCellValue(sheet, a, l[0])
		f.SetCellValue(sheet, b, l[1])
		if l[0] != "" {
			f.SetCellStyle(sheet, a, a, labelStyle)
		}
	}
	return nil
}

func writeRanked(f *excelize.File, ranked []models.RankedCandidate) error {
	sheet := RankedSheet
	f.SetColWidth(sheet, "A", "A", 8)
	f.SetColWidth(sheet, "B", "B", 30)
	f.SetColWidth(sheet, "C", "H", 15)
	f.SetColWidth(sheet, "I", "I", 14)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}

	if err := f.SetSheetRow(sheet, "A1", &rankedHeaders); err != nil {
		return err
	}
	f.SetCellStyle(sheet, "A1", "I1", headerStyle)

	for i, r := range ranked {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			i + 1, r.CandidateName,
			r.ResumeScore, r.ConfidenceScore, r.CommunicationScore, r.KnowledgeScore,
			r.OverallScore, r.Percentile, r.HRDecision,
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}
	if len(ranked) > 0 {
		return f.AutoFilter(sheet, fmt.Sprintf("A1:I%d", len(ranked)+1), nil)
	}
	return nil
}
