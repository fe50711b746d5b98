package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/itzenzy2/PersonalChatBot/internal/capability"
	"github.com/itzenzy2/PersonalChatBot/internal/chaterr"
	"github.com/itzenzy2/PersonalChatBot/internal/conversation"
)

const geminiName = "Gemini API"

// GeminiConfig holds configuration for the Gemini family.
type GeminiConfig struct {
	APIKey string
	// BaseURL overrides the Gemini API endpoint, mainly for tests and proxies.
	BaseURL string
	HTTP    HTTPOptions
}

// GeminiRequest is a fully built generateContent call.
type GeminiRequest struct {
	Model    string
	Contents []*genai.Content
	Config   *genai.GenerateContentConfig
}

// GeminiAdapter talks to Gemini models through the genai SDK. Every call is
// stateless: history travels with the request instead of living in a chat
// session.
type GeminiAdapter struct {
	client *genai.Client
}

var _ Adapter[*GeminiRequest, *genai.GenerateContentResponse] = (*GeminiAdapter)(nil)

// NewGeminiAdapter creates a Gemini adapter.
func NewGeminiAdapter(ctx context.Context, cfg GeminiConfig) (*GeminiAdapter, error) {
	if cfg.APIKey == "" {
		return nil, chaterr.MissingCredential("API key not configured")
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: newHTTPClient(cfg.HTTP, nil),
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiAdapter{client: client}, nil
}

// Family returns capability.Gemini.
func (a *GeminiAdapter) Family() capability.Provider { return capability.Gemini }

// BuildRequest maps the history onto user/model contents and attaches the
// web-search tool when the model supports the requested shape. A system
// prompt in the input becomes the system instruction.
func (a *GeminiAdapter) BuildRequest(in Input) (*GeminiRequest, error) {
	fileParts := in.Capability.SupportsFileParts

	contents := make([]*genai.Content, 0, len(in.Prior)+1)
	for _, m := range in.Prior {
		role, ok := geminiRole(m.Role)
		if !ok {
			continue
		}
		parts := geminiParts(m.Parts, fileParts)
		if len(parts) == 0 {
			continue
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}

	latest := geminiParts(in.Latest.Parts, fileParts)
	if len(latest) == 0 {
		return nil, fmt.Errorf("%w: latest message has no parts the model accepts", conversation.ErrInvalidMessage)
	}
	contents = append(contents, &genai.Content{Role: "user", Parts: latest})

	config := &genai.GenerateContentConfig{Tools: searchTools(in.Capability, in.WebSearch)}
	if prompt := conversation.NormalizePrompt(in.SystemPrompt); prompt != "" {
		config.SystemInstruction = genai.NewContentFromText(prompt, "")
	}

	return &GeminiRequest{
		Model:    in.Capability.Model,
		Contents: contents,
		Config:   config,
	}, nil
}

// searchTools returns the grounding tool for the entry's shape, or nil.
func searchTools(entry capability.Entry, requested bool) []*genai.Tool {
	if !requested || !entry.SupportsWebSearch {
		return nil
	}
	switch entry.ToolShape {
	case capability.ToolLegacy:
		return []*genai.Tool{{GoogleSearchRetrieval: &genai.GoogleSearchRetrieval{}}}
	case capability.ToolCurrent:
		return []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	default:
		return nil
	}
}

func geminiRole(r conversation.Role) (string, bool) {
	switch {
	case r == conversation.RoleUser:
		return "user", true
	case r.IsAssistant():
		return "model", true
	default:
		return "", false
	}
}

func geminiParts(parts []conversation.Part, fileParts bool) []*genai.Part {
	out := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		switch {
		case p.IsText():
			out = append(out, &genai.Part{Text: p.Text})
		case !fileParts:
			// dropped
		case p.File.Inline():
			out = append(out, &genai.Part{InlineData: &genai.Blob{MIMEType: p.File.MIMEType, Data: p.File.Data}})
		default:
			out = append(out, &genai.Part{FileData: &genai.FileData{MIMEType: p.File.MIMEType, FileURI: p.File.URI}})
		}
	}
	return out
}

// Invoke calls generateContent.
func (a *GeminiAdapter) Invoke(ctx context.Context, req *GeminiRequest) (*genai.GenerateContentResponse, error) {
	ctx, ex := withExchange(ctx)
	resp, err := a.client.Models.GenerateContent(ctx, req.Model, req.Contents, req.Config)
	if err != nil {
		return nil, callError(geminiName, ex, err)
	}
	return resp, nil
}

// ParseResponse reads the first candidate. A missing candidate or missing
// grounding data yields an empty field, not an error.
func (a *GeminiAdapter) ParseResponse(resp *genai.GenerateContentResponse) (*Result, error) {
	if resp == nil {
		return nil, fmt.Errorf("%s: %w: empty response", geminiName, chaterr.ErrMalformedResponse)
	}

	result := &Result{Reply: responseText(resp)}
	if len(resp.Candidates) > 0 && resp.Candidates[0].GroundingMetadata != nil {
		data, err := json.Marshal(resp.Candidates[0].GroundingMetadata)
		if err != nil {
			return nil, fmt.Errorf("%s: encoding grounding metadata: %w", geminiName, err)
		}
		result.GroundingMetadata = data
	}
	return result, nil
}

// responseText concatenates the non-thought text of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// Stream calls streamGenerateContent. The first chunk is read before
// returning so that rejected calls fail here instead of inside the stream.
func (a *GeminiAdapter) Stream(ctx context.Context, req *GeminiRequest) (*schema.StreamReader[string], error) {
	ctx, cancel := context.WithCancel(ctx)
	ctx, ex := withExchange(ctx)

	next, stop := iter.Pull2(a.client.Models.GenerateContentStream(ctx, req.Model, req.Contents, req.Config))
	release := func() {
		stop()
		cancel()
	}

	first, err, ok := next()
	if ok && err != nil {
		release()
		return nil, callError(geminiName, ex, err)
	}

	pending := ok
	return pump(func() (string, error) {
		if pending {
			pending = false
			return responseText(first), nil
		}
		resp, err, ok := next()
		if !ok {
			return "", io.EOF
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", io.EOF
			}
			return "", &chaterr.TransportError{Provider: geminiName, Err: err}
		}
		return responseText(resp), nil
	}, release), nil
}
