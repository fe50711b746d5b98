package provider

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/itzenzy2/PersonalChatBot/internal/capability"
	"github.com/itzenzy2/PersonalChatBot/internal/chaterr"
	"github.com/itzenzy2/PersonalChatBot/internal/conversation"
)

const (
	githubName = "GitHub Models API"

	// DefaultGitHubBaseURL is the GitHub Models inference endpoint.
	DefaultGitHubBaseURL = "https://models.inference.ai.azure.com"
	// DefaultGitHubAPIVersion is sent as X-GitHub-Api-Version.
	DefaultGitHubAPIVersion = "2024-07-01-preview"

	githubTemperature = 0.7
	githubMaxTokens   = 4096
)

// GitHubConfig holds configuration for the GitHub Models family.
type GitHubConfig struct {
	Token      string
	BaseURL    string
	APIVersion string
	HTTP       HTTPOptions
}

// GitHubRequest is one chat completion call. The model is chosen per call,
// so one chat model serves every GitHub Models identifier.
type GitHubRequest struct {
	Model    string
	Messages []*schema.Message
}

func (r *GitHubRequest) options() []model.Option {
	return []model.Option{
		model.WithModel(r.Model),
		model.WithMaxTokens(githubMaxTokens),
		model.WithTemperature(githubTemperature),
	}
}

// GitHubAdapter talks to GitHub Models through its OpenAI-compatible
// chat completions API.
type GitHubAdapter struct {
	chatModel *openai.ChatModel
}

var _ Adapter[*GitHubRequest, *schema.Message] = (*GitHubAdapter)(nil)

// NewGitHubAdapter creates a GitHub Models adapter.
func NewGitHubAdapter(ctx context.Context, cfg GitHubConfig) (*GitHubAdapter, error) {
	if cfg.Token == "" {
		return nil, chaterr.MissingCredential("GitHub token not configured")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultGitHubBaseURL
	}
	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = DefaultGitHubAPIVersion
	}

	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  cfg.Token,
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: newHTTPClient(cfg.HTTP, http.Header{
			"X-Github-Api-Version": []string{apiVersion},
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub Models chat model: %w", err)
	}

	return &GitHubAdapter{chatModel: chatModel}, nil
}

// Family returns capability.GitHubModels.
func (a *GitHubAdapter) Family() capability.Provider { return capability.GitHubModels }

// BuildRequest flattens the conversation into chat messages. Each message
// carries its first text part; other parts are dropped unless the family
// allows file parts, in which case inline images become image_url parts.
// Prior turns left with nothing to send are skipped; an empty latest turn
// is an invalid message.
func (a *GitHubAdapter) BuildRequest(in Input) (*GitHubRequest, error) {
	fileParts := in.Capability.SupportsFileParts

	msgs := make([]*schema.Message, 0, len(in.Prior)+2)
	if prompt := conversation.NormalizePrompt(in.SystemPrompt); prompt != "" {
		msgs = append(msgs, schema.SystemMessage(prompt))
	}

	for _, m := range in.Prior {
		role, ok := githubRole(m.Role)
		if !ok {
			continue
		}
		if msg, ok := githubMessage(role, m, fileParts); ok {
			msgs = append(msgs, msg)
		}
	}

	latest, ok := githubMessage(schema.User, in.Latest, fileParts)
	if !ok {
		return nil, fmt.Errorf("%w: latest message has no parts the model accepts", conversation.ErrInvalidMessage)
	}
	msgs = append(msgs, latest)

	return &GitHubRequest{Model: in.Capability.Model, Messages: msgs}, nil
}

func githubRole(r conversation.Role) (schema.RoleType, bool) {
	switch {
	case r == conversation.RoleUser:
		return schema.User, true
	case r.IsAssistant():
		return schema.Assistant, true
	default:
		return "", false
	}
}

// githubMessage reports false when m has neither text nor a part the
// family accepts.
func githubMessage(role schema.RoleType, m conversation.Message, fileParts bool) (*schema.Message, bool) {
	text, hasText := m.FirstText()
	msg := &schema.Message{Role: role}

	var images []schema.ChatMessagePart
	if fileParts {
		for _, p := range m.Parts {
			if p.File.Inline() && strings.HasPrefix(p.File.MIMEType, "image/") {
				images = append(images, schema.ChatMessagePart{
					Type: schema.ChatMessagePartTypeImageURL,
					ImageURL: &schema.ChatMessageImageURL{
						URL:    "data:" + p.File.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(p.File.Data),
						Detail: schema.ImageURLDetailAuto,
					},
				})
			}
		}
	}

	switch {
	case len(images) > 0:
		if hasText {
			msg.MultiContent = append(msg.MultiContent, schema.ChatMessagePart{
				Type: schema.ChatMessagePartTypeText,
				Text: text,
			})
		}
		msg.MultiContent = append(msg.MultiContent, images...)
	case hasText:
		msg.Content = text
	default:
		return nil, false
	}
	return msg, true
}

// Invoke sends a non-streaming chat completion.
func (a *GitHubAdapter) Invoke(ctx context.Context, req *GitHubRequest) (*schema.Message, error) {
	ctx, ex := withExchange(ctx)
	resp, err := a.chatModel.Generate(ctx, req.Messages, req.options()...)
	if err != nil {
		return nil, callError(githubName, ex, err)
	}
	return resp, nil
}

// ParseResponse returns the reply text. Grounding is never available.
func (a *GitHubAdapter) ParseResponse(resp *schema.Message) (*Result, error) {
	if resp == nil {
		return nil, fmt.Errorf("%s: %w: empty response", githubName, chaterr.ErrMalformedResponse)
	}
	return &Result{Reply: resp.Content}, nil
}

// Stream sends a streaming chat completion.
func (a *GitHubAdapter) Stream(ctx context.Context, req *GitHubRequest) (*schema.StreamReader[string], error) {
	ctx, cancel := context.WithCancel(ctx)
	ctx, ex := withExchange(ctx)

	stream, err := a.chatModel.Stream(ctx, req.Messages, req.options()...)
	if err != nil {
		cancel()
		return nil, callError(githubName, ex, err)
	}

	return pump(func() (string, error) {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		if err != nil {
			return "", &chaterr.TransportError{Provider: githubName, Err: err}
		}
		if chunk == nil {
			return "", nil
		}
		return chunk.Content, nil
	}, func() {
		stream.Close()
		cancel()
	}), nil
}
