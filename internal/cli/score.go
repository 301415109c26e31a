package cli

import (
	"github.com/spf13/cobra"

	"cvmatch/internal/common"
	"cvmatch/internal/scoring"
)

var scoreCmd = &cobra.Command{
	Use:   "score [cv-file]",
	Short: "Print the local ATS score breakdown of a CV",
	Long: `Score a CV for ATS compatibility without calling the model. The score
combines keyword coverage, contact details, standard sections, length and
bullet points.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: resolveFormat(&scoreConfig),
	RunE:    runScore,
}

var (
	scoreConfig  common.CommandConfig
	keywordsFlag []string
)

func init() {
	addOutputFlags(scoreCmd, &scoreConfig, false)
	scoreCmd.Flags().StringSliceVar(&keywordsFlag, "keywords", nil, "Keywords the CV should contain (comma separated or repeated)")
}

func runScore(cmd *cobra.Command, args []string) error {
	logger := getLoggerFromContext(cmd.Context())

	cvText, err := common.NewFileProcessor(logger, scoreConfig.MaxFileSize).ReadFile(args[0])
	if err != nil {
		return err
	}

	breakdown := scoring.Breakdown(cvText, keywordsFlag)
	logger.Debug("ATS score computed", "total", breakdown.Total, "keywords", len(keywordsFlag))
	return common.NewOutputHandler(logger).HandleOutput(breakdown, scoreConfig)
}
