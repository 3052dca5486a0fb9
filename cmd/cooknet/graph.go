package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/cooknet/internal/presentation/graph"
	redisAdapter "github.com/aretw0/cooknet/pkg/adapters/redis"
	"github.com/aretw0/cooknet/pkg/domain"
	"github.com/aretw0/cooknet/pkg/fsm"
	"github.com/aretw0/cooknet/pkg/session"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the submission flow as a Mermaid diagram",
	Long: `Outputs a Mermaid diagram (graph TD) of the submission state machine.
With --live and a configured redis_url, phases are annotated with the number of
conversations currently in them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		live, _ := cmd.Flags().GetBool("live")

		var overlay *graph.Overlay
		if live {
			if cfg.RedisURL == "" {
				return fmt.Errorf("--live needs redis_url")
			}
			overlay, err = liveOverlay(cmd.Context(), cfg.RedisURL, cfg.StateTimeout)
			if err != nil {
				return err
			}
		}

		out := graph.GenerateMermaid(fsm.Phases(), fsm.Transitions(), graph.Options{Timeout: cfg.StateTimeout}, overlay)
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func liveOverlay(ctx context.Context, url string, timeout time.Duration) (*graph.Overlay, error) {
	client, err := redisAdapter.Dial(ctx, url)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	mgr := session.NewManager(redisAdapter.NewFromClient(client), session.WithTimeout(timeout))
	ids, err := mgr.List(ctx)
	if err != nil {
		return nil, err
	}

	overlay := &graph.Overlay{Active: map[domain.Phase]int{}}
	for _, id := range ids {
		conv, err := mgr.Peek(ctx, id)
		if err != nil {
			return nil, err
		}
		overlay.Active[conv.Phase]++
	}
	return overlay, nil
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().Bool("live", false, "Overlay live conversation counts from redis")
}
