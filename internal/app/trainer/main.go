package trainer

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"atae/internal/pkg/absa"
	"atae/internal/pkg/cmdapp"
	"atae/internal/pkg/metrics"
)

var appName = "ATAE aspect sentiment trainer"

var rootCmd = &cobra.Command{
	Use:   "ataeTrainer",
	Short: appName,
	Long:  `Trains the attention-based aspect sentiment model on the debug batch or on synthetic batches`,
	Run:   run,
}

func init() {
	cmdapp.InitApplication(rootCmd)
	rootCmd.Flags().Bool("debug", false, "train on the fixed debug batch")
	rootCmd.Flags().String("cell", "", "recurrent cell: lstm or gru")
	cmdapp.Config.BindPFlag("model.debug", rootCmd.Flags().Lookup("debug"))
	cmdapp.Config.BindPFlag("model.cell", rootCmd.Flags().Lookup("cell"))
}

//Execute starts the trainer
func Execute() {
	cmdapp.Execute(rootCmd)
}

func run(cmd *cobra.Command, args []string) {
	cmdapp.Log.Info("Starting " + appName)
	p, err := readParams(cmdapp.Config)
	cmdapp.CheckOrPanic(err, "can't read params")

	m, err := metrics.NewTraining(prometheus.DefaultRegisterer)
	cmdapp.CheckOrPanic(err, "can't init metrics")

	res, err := Run(context.Background(), p, m)
	cmdapp.CheckOrPanic(err, "training failed")

	for _, pr := range res.Predictions[len(res.Predictions)-1:] {
		for i, probs := range pr.Probabilities {
			cmdapp.Log.Infof("Example %d: class %d (%s), probs %.3f", i, pr.Classes[i], className(pr.Classes[i]), probs)
		}
	}
	cmdapp.Log.Infof("Done: loss %f -> %f, accuracy %.3f", res.FirstLoss, res.LastLoss, res.Accuracy)
}

func className(c int) string {
	names := [absa.NumClasses]string{"negative", "neutral", "positive"}
	if c < 0 || c >= len(names) {
		return "?"
	}
	return names[c]
}
