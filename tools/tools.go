package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/deemkeen/dodo/engine"
	mcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type summaryArgs struct{}

type fullArgs struct {
	Limit  int `json:"limit,omitempty" jsonschema:"Maximum conversations per page (default: 10)"`
	Offset int `json:"offset,omitempty" jsonschema:"Number of conversations to skip"`
}

type dismissArgs struct {
	TweetId    string `json:"tweet_id" jsonschema:"ID of the mention to dismiss"`
	ReplyCount int    `json:"reply_count,omitempty" jsonschema:"Reply count observed at dismissal time (default: 0)"`
}

type undismissArgs struct {
	TweetId string `json:"tweet_id" jsonschema:"ID of the mention to restore"`
}

type postArgs struct {
	Text         string `json:"text" jsonschema:"Text of the post"`
	ReplyToId    string `json:"reply_to_id,omitempty" jsonschema:"ID of the post to reply to"`
	QuoteTweetId string `json:"quote_tweet_id,omitempty" jsonschema:"ID of the post to quote"`
}

// RegisterTools registers the dodo tool surface on an MCP server.
func RegisterTools(server *mcp.Server, eng *engine.Engine) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "dodo_conversations",
		Description: "Check how many mentions are waiting for a reply. Returns a count and a one-line summary.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ summaryArgs) (*mcp.CallToolResult, any, error) {
		return handleSummary(ctx, eng), nil, nil
	})

	// The widget consumes this one; agents should prefer the summary
	// form above instead of pulling the whole payload.
	mcp.AddTool(server, &mcp.Tool{
		Name:        "dodo_conversations_full",
		Description: "Full paginated conversation payload for the conversations widget. Prefer dodo_conversations for a quick check.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args fullArgs) (*mcp.CallToolResult, any, error) {
		return handleFull(ctx, eng, args.Limit, args.Offset), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "dodo_dismiss",
		Description: "Dismiss a mention so it stops appearing until it gets new replies.",
	}, func(_ context.Context, _ *mcp.CallToolRequest, args dismissArgs) (*mcp.CallToolResult, any, error) {
		return handleDismiss(eng, args), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "dodo_undismiss",
		Description: "Bring a dismissed mention back into the conversation list.",
	}, func(_ context.Context, _ *mcp.CallToolRequest, args undismissArgs) (*mcp.CallToolResult, any, error) {
		return handleUndismiss(eng, args), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "dodo_post",
		Description: "Publish a post, optionally as a reply or quote.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args postArgs) (*mcp.CallToolResult, any, error) {
		return handlePost(ctx, eng, args), nil, nil
	})
}

func handleSummary(ctx context.Context, eng *engine.Engine) *mcp.CallToolResult {
	result := eng.Summary(ctx)

	switch result.State {
	case engine.StateOk:
		return toolResult(result.Message, false)
	case engine.StateNoIdentity:
		return toolResult(result.Message, false)
	case engine.StateAuthRequired:
		return toolResult(authText(result), false)
	default:
		return toolError(result.Message)
	}
}

func handleFull(ctx context.Context, eng *engine.Engine, limit, offset int) *mcp.CallToolResult {
	result := eng.Full(ctx, limit, offset)

	if result.State == engine.StateFailed {
		return toolError(result.Message)
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return toolError(fmt.Sprintf("Failed to encode conversations: %v", err))
	}
	return toolResult(string(payload), false)
}

func handleDismiss(eng *engine.Engine, args dismissArgs) *mcp.CallToolResult {
	if args.TweetId == "" {
		return toolError("Error: tweet_id is required")
	}

	eng.Dismiss(args.TweetId, args.ReplyCount)
	return toolResult(fmt.Sprintf("Dismissed conversation %s", args.TweetId), false)
}

func handleUndismiss(eng *engine.Engine, args undismissArgs) *mcp.CallToolResult {
	if args.TweetId == "" {
		return toolError("Error: tweet_id is required")
	}

	eng.Undismiss(args.TweetId)
	return toolResult(fmt.Sprintf("Restored conversation %s", args.TweetId), false)
}

func handlePost(ctx context.Context, eng *engine.Engine, args postArgs) *mcp.CallToolResult {
	if args.Text == "" {
		return toolError("Error: text is required")
	}

	receipt, prompt, err := eng.Post(ctx, args.Text, args.ReplyToId, args.QuoteTweetId)
	if err != nil {
		return toolError(fmt.Sprintf("Post failed: %v", err))
	}
	if prompt != nil {
		return toolResult(fmt.Sprintf("%s\nAuthorize here: %s", prompt.Message, prompt.AuthorizeUrl), false)
	}

	return toolResult(fmt.Sprintf("Posted %s: %s", receipt.Id, receipt.Url), false)
}

func authText(result engine.Result) string {
	if result.Auth == nil {
		return result.Message
	}
	return fmt.Sprintf("%s\nAuthorize here: %s", result.Auth.Message, result.Auth.AuthorizeUrl)
}

func toolResult(text string, isError bool) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: isError,
	}
}

func toolError(text string) *mcp.CallToolResult {
	return toolResult(text, true)
}
