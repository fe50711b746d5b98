package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"

	"github.com/itzenzy2/PersonalChatBot/internal/chaterr"
	"github.com/itzenzy2/PersonalChatBot/internal/conversation"
	"github.com/itzenzy2/PersonalChatBot/internal/dispatch"
	"github.com/itzenzy2/PersonalChatBot/internal/provider"
)

var (
	pingGeminiModel string
	pingGitHubModel string
	pingMessage     string
	pingRetries     uint64
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Send a test message to each configured provider",
	Long: `Send one short message to every provider family that has credentials
and print the reply. Transport failures are retried with exponential
backoff; rejections are reported immediately.`,
	RunE: runPing,
}

func init() {
	pingCmd.Flags().StringVar(&pingGeminiModel, "gemini-model", "", "Gemini model (default: table default)")
	pingCmd.Flags().StringVar(&pingGitHubModel, "github-model", "microsoft/phi-4-mini-instruct", "GitHub Models model")
	pingCmd.Flags().StringVarP(&pingMessage, "message", "m", "Hello! Can you tell me what model you are?", "Message to send")
	pingCmd.Flags().Uint64Var(&pingRetries, "retries", 2, "Retries on transport failure")
}

func runPing(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	table, err := cfg.CapabilityTable()
	if err != nil {
		return err
	}
	d := dispatch.New(ctx, dispatch.Options{
		Capabilities: table,
		Gemini:       cfg.GeminiAdapter(),
		GitHub:       cfg.GitHubAdapter(),
	})

	targets := []struct {
		name       string
		configured bool
		model      string
	}{
		{"Gemini", cfg.Gemini.APIKey != "", pingGeminiModel},
		{"GitHub Models", cfg.GitHub.Token != "", pingGitHubModel},
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, t := range targets {
		if !t.configured {
			fmt.Fprintf(out, "%s: skipped, no credential configured\n", t.name)
			continue
		}

		entry := table.Resolve(t.model)
		start := time.Now()
		result, err := pingOnce(ctx, d, dispatch.ChatRequest{
			History: conversation.Conversation{conversation.NewText(conversation.RoleUser, pingMessage)},
			Model:   t.model,
		}, pingRetries)
		if err != nil {
			failed++
			fmt.Fprintf(out, "%s (%s): FAILED: %v\n", t.name, entry.Model, err)
			continue
		}
		fmt.Fprintf(out, "%s (%s): ok in %s\n  %s\n", t.name, entry.Model, time.Since(start).Round(time.Millisecond), result.Reply)
	}

	if failed > 0 {
		return fmt.Errorf("%d provider(s) failed", failed)
	}
	return nil
}

// pingOnce retries transport failures only. Anything the provider answered
// is final.
func pingOnce(ctx context.Context, d *dispatch.Dispatcher, req dispatch.ChatRequest, retries uint64) (*provider.Result, error) {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), retries), ctx)

	return backoff.RetryWithData(func() (*provider.Result, error) {
		result, err := d.HandleChatRequest(ctx, req)
		if err == nil {
			return result, nil
		}
		var cerr *chaterr.Error
		if errors.As(err, &cerr) && cerr.Kind == chaterr.KindTransport {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}, policy)
}
