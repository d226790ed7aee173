// Package nlu canonicalizes free-form speech into one of the known command
// phrases with a chat model. It is only consulted when no verb matched.
package nlu

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/openai/openai-go/v3"
)

type Result struct {
	Command string `json:"command"`
	Arg     string `json:"arg"`
}

const systemPrompt = `
You are the command normalizer of a voice-controlled desktop.
Your ONLY job is to map the user's utterance to one of the known commands.

GENERAL RULES:
1. Do NOT converse.
2. Do NOT answer the question.
3. Output ONLY JSON. No markdown.
4. Never invent commands that are not listed.

OUTPUT FORMAT:
{"command": "<one of the commands or empty>", "arg": "<argument or empty>"}

KNOWN COMMANDS:
%s

RULES:
- "open" takes the application name as arg, lowercase, without articles.
- Other commands take no arg.
- If the utterance is not a request for one of the commands, output an empty command.
`

type Config struct {
	Client   openai.Client
	Model    string
	Commands []string
	Logger   *slog.Logger
}

type Rewriter struct {
	client openai.Client
	model  string
	prompt string
	known  map[string]bool
	log    *slog.Logger
}

func NewRewriter(cfg Config) *Rewriter {
	if cfg.Model == "" {
		cfg.Model = openai.ChatModelGPT5Nano
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	known := make(map[string]bool, len(cfg.Commands))
	var list strings.Builder
	for _, c := range cfg.Commands {
		known[c] = true
		fmt.Fprintf(&list, "- %q\n", c)
	}

	return &Rewriter{
		client: cfg.Client,
		model:  cfg.Model,
		prompt: fmt.Sprintf(systemPrompt, list.String()),
		known:  known,
		log:    cfg.Logger,
	}
}

// Rewrite returns a canonical command phrase such as "open firefox", or ""
// when the utterance is not a command.
func (r *Rewriter) Rewrite(ctx context.Context, text string) (string, error) {
	resp, err := r.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(r.prompt),
			openai.UserMessage(text),
		},
		Model: r.model,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("empty message content")
	}

	r.log.Debug("Normalized", "data", content)

	return r.parse(content)
}

func (r *Rewriter) parse(content string) (string, error) {
	var out Result
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &out); err != nil {
		return "", fmt.Errorf("unmarshal NLU result: %w (raw: %s)", err, content)
	}

	cmd := strings.ToLower(strings.TrimSpace(out.Command))
	if cmd == "" {
		return "", nil
	}
	if !r.known[cmd] {
		return "", fmt.Errorf("model returned unknown command %q", out.Command)
	}

	if arg := strings.TrimSpace(out.Arg); arg != "" {
		return cmd + " " + arg, nil
	}
	return cmd, nil
}
