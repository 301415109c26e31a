package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cvmatch/internal/common"
	"cvmatch/internal/export"
	"cvmatch/internal/skills"
	"cvmatch/internal/store"
	"cvmatch/internal/types"
)

var skillGapsCmd = &cobra.Command{
	Use:   "skill-gaps",
	Short: "List the required skills a CV is missing",
	Long: `Compare a CV's skills with the skills a job requires and list the gaps,
each with a category, a priority and certification suggestions.

Skills are given with --cv-skills and --required, or loaded by id with
--cv-id and --job-id when a database is configured. --xlsx also writes the
report as an Excel workbook.`,
	Args:    cobra.NoArgs,
	PreRunE: resolveFormat(&skillGapsConfig),
	RunE:    runSkillGaps,
}

var (
	skillGapsConfig common.CommandConfig
	cvSkillsFlag    []string
	requiredFlag    []string
	cvIDFlag        string
	jobIDFlag       string
	xlsxFlag        string
)

func init() {
	addOutputFlags(skillGapsCmd, &skillGapsConfig, false)
	skillGapsCmd.Flags().StringSliceVar(&cvSkillsFlag, "cv-skills", nil, "Skills listed in the CV (comma separated or repeated)")
	skillGapsCmd.Flags().StringSliceVar(&requiredFlag, "required", nil, "Skills the job requires (comma separated or repeated)")
	skillGapsCmd.Flags().StringVar(&cvIDFlag, "cv-id", "", "Load CV skills from the database")
	skillGapsCmd.Flags().StringVar(&jobIDFlag, "job-id", "", "Load required skills from the database")
	skillGapsCmd.Flags().StringVar(&xlsxFlag, "xlsx", "", "Also write the report to this Excel file")
	skillGapsCmd.MarkFlagsRequiredTogether("cv-id", "job-id")
	skillGapsCmd.MarkFlagsMutuallyExclusive("cv-id", "cv-skills")
	skillGapsCmd.MarkFlagsMutuallyExclusive("job-id", "required")
}

func runSkillGaps(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	cvSkills, requiredSkills := cvSkillsFlag, requiredFlag
	if cvIDFlag != "" {
		if !cfg.Database.Enabled() {
			return fmt.Errorf("--cv-id and --job-id need database.url to be configured")
		}
		db, err := store.Connect(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		cvSkills, requiredSkills, err = store.ResolveSkills(ctx, db, cvIDFlag, jobIDFlag)
		if err != nil {
			return err
		}
	}

	gaps := skills.IdentifySkillGaps(cvSkills, requiredSkills)
	report := types.SkillGapReport{SkillGaps: gaps, Summary: skills.Summarize(gaps)}
	logger.Info("Skill gaps identified",
		"cv_skills", len(cvSkills),
		"required_skills", len(requiredSkills),
		"gaps", report.Summary.TotalGaps,
		"high_priority", report.Summary.HighPriorityGaps)

	if xlsxFlag != "" {
		path, err := export.WriteSkillGapWorkbook(xlsxFlag, gaps, report.Summary, time.Now())
		if err != nil {
			return fmt.Errorf("failed to write workbook: %w", err)
		}
		logger.Info("Skill gap workbook written", "file", path)
	}

	return common.NewOutputHandler(logger).HandleOutput(report, skillGapsConfig)
}
