package cli

import (
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/egannguyen/printshop-backend/internal/messaging"
	"github.com/egannguyen/printshop-backend/internal/messaging/kafka"
	"github.com/egannguyen/printshop-backend/internal/service"
)

func newConsumeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "consume",
		Short: "Consume order events and notify staff",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if len(cfg.Kafka.Brokers) == 0 {
				return errors.New("no kafka brokers configured")
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			broker := kafka.NewKafkaBroker(cfg.Kafka.Brokers)
			defer broker.Close()

			var subscriber messaging.Subscriber = broker
			notifications := service.NewNotificationService()

			slog.Info("Kafka consumer started", "topic", messaging.TopicOrderEvents, "group", cfg.Kafka.GroupID)
			subscriber.Consume(ctx, messaging.TopicOrderEvents, cfg.Kafka.GroupID, notifications.HandleEvent)

			slog.Info("Consumer stopped", "handled", notifications.Counts())
			return nil
		},
	}
}
