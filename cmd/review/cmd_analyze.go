package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"clausewise.app/review/common/id"
	"clausewise.app/review/common/logger"
	"clausewise.app/review/core/config"
	"clausewise.app/review/internal/model"
	"clausewise.app/review/internal/service"
)

var analyzeFlags struct {
	email       string
	draft       bool
	createTask  bool
	jsonOut     bool
	dueDate     string
	assignee    string
	priority    string
	effortLevel string
	taskTypes   []string
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze a plain-text contract",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&analyzeFlags.email, "email", "", "Requester email, used to sign the negotiation draft")
	f.BoolVar(&analyzeFlags.draft, "draft", false, "Generate a renegotiation email draft")
	f.BoolVar(&analyzeFlags.createTask, "create-task", false, "Create a follow-up task in the configured tracker")
	f.BoolVar(&analyzeFlags.jsonOut, "json", false, "Print the full result as JSON")
	f.StringVar(&analyzeFlags.dueDate, "due-date", "", "Task due date (YYYY-MM-DD, default today)")
	f.StringVar(&analyzeFlags.assignee, "assignee", "", "Task assignee email")
	f.StringVar(&analyzeFlags.priority, "priority", "", "Task priority (High, Medium, Low)")
	f.StringVar(&analyzeFlags.effortLevel, "effort", "", "Task effort level (Small, Medium, Large)")
	f.StringSliceVar(&analyzeFlags.taskTypes, "task-type", nil, "Task type, repeatable")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read contract: %w", err)
	}

	cfg, err := config.Load(config.ServiceTypeCLI)
	if err != nil {
		return err
	}
	logger.SetupWithWriter(cfg, os.Stderr)
	if err := id.Init(cfg.NodeID); err != nil {
		return fmt.Errorf("init id generator: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	services, cleanup, err := service.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := services.Review().Submit(ctx, service.Submission{
		Text:       string(data),
		Email:      analyzeFlags.email,
		CreateTask: analyzeFlags.createTask,
		Task: model.TaskConfigInput{
			DueDate:       analyzeFlags.dueDate,
			AssigneeEmail: analyzeFlags.assignee,
			Priority:      analyzeFlags.priority,
			TaskTypes:     analyzeFlags.taskTypes,
			EffortLevel:   analyzeFlags.effortLevel,
			IncludeDraft:  analyzeFlags.draft,
		},
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if analyzeFlags.jsonOut {
		if err := writeJSON(out, result); err != nil {
			return err
		}
	} else {
		writeResult(out, result)
	}

	if result.AnalysisError != nil {
		return fmt.Errorf("analysis failed: %s", result.Analysis.Message())
	}
	return nil
}
