package main

import (
	"encoding/json"
	"os"

	"cafeteria-meals/internal/logger"
	"cafeteria-meals/internal/queue"

	"github.com/spf13/cobra"
)

var (
	dlqQueue string
	dlqLimit int

	dlqCmd = &cobra.Command{
		Use:   "dlq",
		Short: "Inspect or replay dead-lettered queue messages",
	}

	dlqListCmd = &cobra.Command{
		Use:   "list",
		Short: "Print dead letters as JSON, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := logger.Get()

			redisClient, err := queue.NewRedisClient(cfg)
			if err != nil {
				return err
			}
			defer redisClient.Close()

			name, err := redisClient.Queues().Resolve(dlqQueue)
			if err != nil {
				return err
			}

			depth, err := redisClient.Depth(cmd.Context(), redisClient.Queues().DeadLetter(name))
			if err != nil {
				return err
			}
			log.Info().Str("queue", name).Int64("depth", depth).Msg("Dead letter queue")

			letters, err := queue.NewDeadLetters(redisClient).List(cmd.Context(), name, int64(dlqLimit))
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(letters)
		},
	}

	dlqReplayCmd = &cobra.Command{
		Use:   "replay",
		Short: "Move dead letters back onto their source queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := logger.Get()

			redisClient, err := queue.NewRedisClient(cfg)
			if err != nil {
				return err
			}
			defer redisClient.Close()

			name, err := redisClient.Queues().Resolve(dlqQueue)
			if err != nil {
				return err
			}

			moved, err := queue.NewDeadLetters(redisClient).Replay(cmd.Context(), name, dlqLimit)
			log.Info().Str("queue", name).Int("moved", moved).Msg("Dead letters replayed")
			return err
		},
	}
)

func init() {
	dlqCmd.PersistentFlags().StringVar(&dlqQueue, "queue", "claims", "queue to act on: claims or rosters")
	dlqCmd.PersistentFlags().IntVar(&dlqLimit, "limit", 50, "maximum number of messages")

	dlqCmd.AddCommand(dlqListCmd)
	dlqCmd.AddCommand(dlqReplayCmd)
}
