package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/shunkawai/amesboost/boosting"
	"github.com/shunkawai/amesboost/pipeline"
	"github.com/shunkawai/amesboost/pkg/log"
	"github.com/shunkawai/amesboost/report"
	"github.com/shunkawai/amesboost/store"
)

var (
	version = "v0.1.0-dev"

	debugFlag = &cli.BoolFlag{
		Name:  "debug",
		Usage: "Prints verbose logs (optional, default: false)",
	}
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "Path to the YAML config file (optional, defaults built in)",
	}
	trainFlag = &cli.StringFlag{
		Name:  "train",
		Usage: "Path to the training split CSV",
	}
	testFlag = &cli.StringFlag{
		Name:  "test",
		Usage: "Path to the test split CSV",
	}
	outFlag = &cli.StringFlag{
		Name:  "out",
		Usage: "Path for the submission CSV (train command)",
	}
	dbFlag = &cli.StringFlag{
		Name:  "db",
		Usage: "Path to the sqlite experiment log (optional)",
	}
	nameFlag = &cli.StringFlag{
		Name:  "name",
		Usage: "Run name recorded in the experiment log",
		Value: "run",
	}
	topFlag = &cli.IntFlag{
		Name:  "top",
		Usage: "Number of features to show/chart",
		Value: 20,
	}
)

func main() {
	app := &cli.App{
		Name:     "amesboost",
		Version:  version,
		Compiled: time.Now(),
		Usage:    "house-price feature engineering and boosted-tree scoring",
		Flags: []cli.Flag{
			debugFlag,
			configFlag,
			trainFlag,
			testFlag,
		},
		Before: func(c *cli.Context) error {
			if c.Bool(debugFlag.Name) {
				log.SetLevel(log.LevelDebug)
			}
			return nil
		},
		Commands: []*cli.Command{
			cvCmd,
			trainCmd,
			miCmd,
			reportCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.GetLogger().Error("fatal error", "error", err)
		os.Exit(1)
	}
}

// loadConfig merges the optional YAML file with command-line overrides.
func loadConfig(c *cli.Context) (pipeline.Config, error) {
	cfg := pipeline.DefaultConfig()
	if path := c.String(configFlag.Name); path != "" {
		var err error
		if cfg, err = pipeline.LoadConfig(path); err != nil {
			return cfg, err
		}
	}
	if v := c.String(trainFlag.Name); v != "" {
		cfg.Data.TrainPath = v
	}
	if v := c.String(testFlag.Name); v != "" {
		cfg.Data.TestPath = v
	}
	if v := c.String(outFlag.Name); v != "" {
		cfg.Output.SubmissionPath = v
	}
	if v := c.String(dbFlag.Name); v != "" {
		cfg.Output.DBPath = v
	}
	return cfg, nil
}

// preparedPipeline runs every step up to (but excluding) scoring.
func preparedPipeline(cfg pipeline.Config) (*pipeline.Pipeline, error) {
	p := pipeline.New(cfg)
	if err := p.Load(); err != nil {
		return nil, err
	}
	if err := p.Preprocess(); err != nil {
		return nil, err
	}
	if err := p.DeriveFeatures(); err != nil {
		return nil, err
	}
	if err := p.TargetEncode(); err != nil {
		return nil, err
	}
	return p, nil
}

var cvCmd = &cli.Command{
	Name:  "cv",
	Usage: "Cross-validate the tuned parameters and report RMSLE",
	Flags: []cli.Flag{dbFlag, nameFlag},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}

		p := pipeline.New(cfg)
		if err := p.Load(); err != nil {
			return err
		}
		if err := p.Preprocess(); err != nil {
			return err
		}

		baseline, err := p.BaselineScore()
		if err != nil {
			return err
		}
		fmt.Printf("baseline RMSLE: %.5f (+/- %.5f)\n", baseline.MeanScore(), baseline.StdScore())

		if err := p.DeriveFeatures(); err != nil {
			return err
		}
		if err := p.TargetEncode(); err != nil {
			return err
		}

		tuned, err := p.Score()
		if err != nil {
			return err
		}
		fmt.Printf("tuned RMSLE:    %.5f (+/- %.5f)\n", tuned.MeanScore(), tuned.StdScore())

		if cfg.Output.DBPath != "" {
			if err := saveRun(c.Context, cfg, c.String(nameFlag.Name), cfg.Boosting, tuned.MeanScore(), tuned.TestScores); err != nil {
				return err
			}
		}
		return nil
	},
}

var trainCmd = &cli.Command{
	Name:  "train",
	Usage: "Fit the final model and write the submission CSV",
	Flags: []cli.Flag{outFlag},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}

		p, err := preparedPipeline(cfg)
		if err != nil {
			return err
		}

		preds, err := p.FitPredict()
		if err != nil {
			return err
		}
		if err := p.WriteSubmission(cfg.Output.SubmissionPath, preds); err != nil {
			return err
		}
		fmt.Printf("submission written to %s (%d rows)\n", cfg.Output.SubmissionPath, preds.Len())
		return nil
	},
}

var miCmd = &cli.Command{
	Name:  "mi",
	Usage: "Print the mutual information ranking of all features",
	Flags: []cli.Flag{topFlag},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}

		p := pipeline.New(cfg)
		if err := p.Load(); err != nil {
			return err
		}
		if err := p.Preprocess(); err != nil {
			return err
		}

		scores, err := p.RankFeatures()
		if err != nil {
			return err
		}

		top := c.Int(topFlag.Name)
		if top <= 0 || top > len(scores) {
			top = len(scores)
		}
		for _, s := range scores[:top] {
			fmt.Printf("%-24s %.5f\n", s.Name, s.MI)
		}
		return nil
	},
}

var reportCmd = &cli.Command{
	Name:  "report",
	Usage: "Render the MI bar chart and predicted-vs-actual scatter",
	Flags: []cli.Flag{topFlag},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		if cfg.Output.MIChartPath == "" {
			cfg.Output.MIChartPath = "mi.png"
		}
		if cfg.Output.ScatterPath == "" {
			cfg.Output.ScatterPath = "scatter.png"
		}

		p, err := preparedPipeline(cfg)
		if err != nil {
			return err
		}

		scores, err := p.RankFeatures()
		if err != nil {
			return err
		}
		if err := report.SaveMIChart(scores, c.Int(topFlag.Name), cfg.Output.MIChartPath); err != nil {
			return err
		}

		yTrue, yPred, err := p.TrainingFitCurve()
		if err != nil {
			return err
		}
		if err := report.SavePredictionScatter(yTrue, yPred, cfg.Output.ScatterPath); err != nil {
			return err
		}

		fmt.Printf("charts written: %s, %s\n", cfg.Output.MIChartPath, cfg.Output.ScatterPath)
		return nil
	},
}

func saveRun(ctx context.Context, cfg pipeline.Config, name string, params boosting.Params, rmsle float64, foldScores []float64) error {
	s, err := store.Open(cfg.Output.DBPath)
	if err != nil {
		return err
	}
	defer s.Close()

	id, err := s.SaveRun(ctx, store.Run{
		Name:       name,
		Params:     params,
		RMSLE:      rmsle,
		FoldScores: foldScores,
	})
	if err != nil {
		return err
	}
	fmt.Printf("run %d recorded in %s\n", id, cfg.Output.DBPath)
	return nil
}
