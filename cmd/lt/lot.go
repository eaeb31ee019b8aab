package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/lots/internal/events"
	"github.com/alfredjeanlab/lots/internal/model"
)

var lotCmd = &cobra.Command{
	Use:     "lot",
	Short:   "Show, watch and bid on a lot",
	GroupID: "act",
}

var lotShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show lot details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseLotID(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(30 * time.Second)
		defer cancel()

		lot, err := lotClient.Lot(ctx, id)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), lot)
		}
		printLot(cmd.OutOrStdout(), lot)
		return nil
	},
}

func watchCommand(use, short string, watched bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseLotID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(30 * time.Second)
			defer cancel()

			lot, err := lotClient.SetWatched(ctx, id, watched)
			if err != nil {
				return err
			}
			pub := newPublisher()
			defer pub.Close()
			publishLot(ctx, pub, *lot, "watched")
			if err := pub.Publish(ctx, events.TopicLotWatched, events.LotWatched{
				LotID:   id,
				UserID:  lotClient.Session().UserID,
				Watched: watched,
			}); err != nil {
				logger.Warn("publishing watch event failed", "error", err)
			}

			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), lot)
			}
			verb := "watching"
			if !watched {
				verb = "stopped watching"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s lot %d: %s\n", verb, lot.ID, lot.Title)
			return nil
		},
	}
}

var lotBidCmd = &cobra.Command{
	Use:   "bid <id> <amount>",
	Short: "Place a bid",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseLotID(args[0])
		if err != nil {
			return err
		}
		amount, err := strconv.ParseFloat(args[1], 64)
		if err != nil || amount <= 0 {
			return fmt.Errorf("invalid amount %q", args[1])
		}
		ctx, cancel := commandContext(30 * time.Second)
		defer cancel()

		res, err := lotClient.PlaceBid(ctx, id, amount)
		if err != nil {
			return err
		}

		pub := newPublisher()
		defer pub.Close()
		if err := pub.Publish(ctx, events.TopicBidPlaced, events.BidPlaced{
			LotID:  id,
			UserID: lotClient.Session().UserID,
			Amount: amount,
		}); err != nil {
			logger.Warn("publishing bid event failed", "error", err)
		}
		// Refetch so followers patch the confirmed price and bid count.
		if lot, err := lotClient.Lot(ctx, id); err == nil {
			publishLot(ctx, pub, *lot, "price", "bid_count")
		} else {
			logger.Warn("refetching lot after bid failed", "id", id, "error", err)
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), res)
		}
		msg := res.Message
		if msg == "" {
			msg = "bid placed"
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	},
}

func publishLot(ctx context.Context, pub events.Publisher, lot model.Lot, changes ...string) {
	if err := pub.Publish(ctx, events.TopicLotUpdated, events.LotUpdated{Lot: lot, Changes: changes}); err != nil {
		logger.Warn("publishing lot update failed", "id", lot.ID, "error", err)
	}
}

func parseLotID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid lot id %q", s)
	}
	return id, nil
}

func init() {
	lotCmd.AddCommand(lotShowCmd)
	lotCmd.AddCommand(watchCommand("watch", "Add a lot to the watch list", true))
	lotCmd.AddCommand(watchCommand("unwatch", "Remove a lot from the watch list", false))
	lotCmd.AddCommand(lotBidCmd)
}
