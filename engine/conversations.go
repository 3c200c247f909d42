package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/deemkeen/dodo/broker"
	"github.com/deemkeen/dodo/domain"
	"github.com/deemkeen/dodo/store"
	"github.com/deemkeen/dodo/util"
)

const (
	MentionSearchLimit  = 50
	OwnPostsSearchLimit = 100
	DefaultPageLimit    = 10
)

// ErrNoIdentity signals that no authenticated handle is known yet. Not
// a failure: the caller is expected to trigger authentication.
var ErrNoIdentity = errors.New("no authenticated identity")

// Gateway is the broker contract the engine consumes. The concrete
// implementation lives in the broker package; tests substitute a fake.
type Gateway interface {
	SearchByKeywords(ctx context.Context, phrases []string, maxResults int) (*domain.KeywordSearchResult, error)
	SearchByAuthor(ctx context.Context, handle string, maxResults int) (*domain.AuthorSearchResult, error)
	LookupById(ctx context.Context, id string) (*domain.PostLookup, error)
	CreatePost(ctx context.Context, text string, replyToId string, quoteId string) (*domain.PostReceipt, error)
}

// State classifies a reconciliation outcome for callers.
type State string

const (
	StateOk           State = "ok"
	StateNoIdentity   State = "no_identity"
	StateAuthRequired State = "auth_required"
	StateFailed       State = "failed"
)

// Result is what both presentation adapters (MCP tools and the widget
// HTTP endpoints) receive. The engine is the error boundary: failures
// below it always end up here as structured state, never as a panic or
// an unhandled error.
type Result struct {
	State         State                 `json:"state"`
	Message       string                `json:"message"`
	Auth          *domain.AuthPrompt    `json:"auth,omitempty"`
	Username      string                `json:"username,omitempty"`
	Conversations []domain.Conversation `json:"conversations,omitempty"`
	TotalCount    int                   `json:"total_count"`
	HasMore       bool                  `json:"has_more"`
}

// Engine cross-references mention search results against reply and
// dismissal history to compute the actionable subset.
type Engine struct {
	store   *store.Store
	avatars *store.AvatarCache
	gateway Gateway
}

func New(st *store.Store, avatars *store.AvatarCache, gateway Gateway) *Engine {
	return &Engine{store: st, avatars: avatars, gateway: gateway}
}

// Store exposes the underlying state store to presentation adapters.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Avatars exposes the avatar cache to presentation adapters.
func (e *Engine) Avatars() *store.AvatarCache {
	return e.avatars
}

// reconcile runs the full pipeline: two remote searches, cache
// cross-referencing, the filter chain and the final ordering.
func (e *Engine) reconcile(ctx context.Context) (string, []domain.Conversation, error) {
	username, ok := e.store.GetIdentity()
	if !ok {
		return "", nil, ErrNoIdentity
	}

	mentions, err := e.gateway.SearchByKeywords(ctx, []string{"@" + username}, MentionSearchLimit)
	if err != nil {
		return username, nil, err
	}

	if len(mentions.Posts) == 0 {
		e.store.RecordCheckTime()
		return username, nil, nil
	}

	own, err := e.gateway.SearchByAuthor(ctx, username, OwnPostsSearchLimit)
	if err != nil {
		return username, nil, err
	}

	// IDs the user demonstrably replied to, from their own recent posts.
	repliedIds := make(map[string]bool)
	for _, post := range own.Posts {
		if target := post.RepliedToId(); target != "" {
			repliedIds[target] = true
		}
	}

	// Housekeeping sweeps: reply tracking for mentions that vanished,
	// dismissals past retention.
	mentionIds := make(map[string]bool, len(mentions.Posts))
	for _, post := range mentions.Posts {
		mentionIds[post.Id] = true
	}
	if pruned := e.store.PruneStaleReplies(mentionIds); pruned > 0 {
		log.Printf("Pruned %d stale reply records", pruned)
	}
	if pruned := e.store.PruneExpiredDismissals(); pruned > 0 {
		log.Printf("Pruned %d expired dismissals", pruned)
	}

	// The included author list is authoritative; inline author fields on
	// mentions are unreliable and used only as fallback.
	authorsById := make(map[string]domain.Author, len(mentions.Authors))
	for _, author := range mentions.Authors {
		authorsById[author.Id] = author
	}

	var skippedReposts, skippedReplied, skippedSelf, skippedDismissed int
	conversations := make([]domain.Conversation, 0, len(mentions.Posts))
	activeHandles := make(map[string]bool)

	for _, post := range mentions.Posts {
		if post.IsRepost() {
			skippedReposts++
			continue
		}

		if repliedIds[post.Id] || e.store.IsRepliedTo(post.Id) {
			skippedReplied++
			continue
		}

		author := resolveAuthor(&post, authorsById)
		handle := util.NormalizeHandle(author.Username)

		if handle == username {
			skippedSelf++
			continue
		}

		if e.store.IsDismissed(post.Id, post.Metrics.ReplyCount) {
			skippedDismissed++
			continue
		}

		avatarUrl := author.AvatarUrl
		if avatarUrl == "" {
			avatarUrl = store.FallbackAvatarUrl(handle)
		}

		activeHandles[handle] = true
		conversations = append(conversations, domain.Conversation{
			Id:          post.Id,
			Author:      handle,
			AuthorName:  author.Name,
			AvatarUrl:   avatarUrl,
			Text:        post.Text,
			CreatedAt:   post.ResolveCreatedAt(),
			ReplyCount:  post.Metrics.ReplyCount,
			LikeCount:   post.Metrics.LikeCount,
			RepostCount: post.Metrics.RepostCount,
		})
	}

	// Most recent first; stable so ties keep the original result order.
	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].CreatedAt.After(conversations[j].CreatedAt)
	})

	// Cached avatars for handles no longer in play just bloat the file.
	if pruned := e.avatars.PruneNotIn(activeHandles); pruned > 0 {
		log.Printf("Pruned %d irrelevant avatars", pruned)
	}

	e.store.RecordCheckTime()

	log.Printf("Reconciled %d mentions for @%s: %d actionable, %d reposts, %d replied, %d self, %d dismissed",
		len(mentions.Posts), username, len(conversations), skippedReposts, skippedReplied, skippedSelf, skippedDismissed)

	return username, conversations, nil
}

// failureResult maps an error from the pipeline onto the result taxonomy.
func failureResult(err error) Result {
	if errors.Is(err, ErrNoIdentity) {
		return Result{
			State:   StateNoIdentity,
			Message: "No account connected yet. Please authenticate first.",
		}
	}
	if authErr, ok := broker.AsAuthRequired(err); ok {
		prompt := authErr.Prompt()
		return Result{
			State:   StateAuthRequired,
			Message: prompt.Message,
			Auth:    &prompt,
		}
	}
	if broker.LooksLikeAuthFailure(err) {
		log.Printf("Treating error as auth failure by message heuristic: %v", err)
		prompt := (&broker.AuthRequiredError{Service: "twitter", Message: err.Error()}).Prompt()
		return Result{
			State:   StateAuthRequired,
			Message: prompt.Message,
			Auth:    &prompt,
		}
	}
	log.Printf("Conversation check failed: %v", err)
	return Result{
		State:   StateFailed,
		Message: "Could not check conversations right now. Please try again later.",
	}
}

// Summary returns only a count and a one-line message, intended for the
// conversational agent.
func (e *Engine) Summary(ctx context.Context) Result {
	username, conversations, err := e.reconcile(ctx)
	if err != nil {
		return failureResult(err)
	}

	message := "No conversations are waiting for a reply."
	if len(conversations) == 1 {
		message = "1 conversation is waiting for a reply."
	} else if len(conversations) > 1 {
		message = fmt.Sprintf("%d conversations are waiting for a reply.", len(conversations))
	}

	return Result{
		State:      StateOk,
		Message:    message,
		Username:   username,
		TotalCount: len(conversations),
	}
}

// Full returns the complete paginated payload, intended for the widget.
func (e *Engine) Full(ctx context.Context, limit int, offset int) Result {
	username, conversations, err := e.reconcile(ctx)
	if err != nil {
		return failureResult(err)
	}

	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if offset < 0 {
		offset = 0
	}

	total := len(conversations)
	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return Result{
		State:         StateOk,
		Username:      username,
		Conversations: conversations[start:end],
		TotalCount:    total,
		HasMore:       end < total,
	}
}

// Dismiss hides a conversation until its reply count changes.
func (e *Engine) Dismiss(postId string, replyCount int) {
	e.store.Dismiss(postId, replyCount)
}

// Undismiss removes a dismissal unconditionally.
func (e *Engine) Undismiss(postId string) {
	e.store.Undismiss(postId)
}

// Post publishes via the broker and records reply tracking on success.
// An auth failure is returned as a prompt, other failures as the error.
func (e *Engine) Post(ctx context.Context, text string, replyToId string, quoteId string) (*domain.PostReceipt, *domain.AuthPrompt, error) {
	receipt, err := e.gateway.CreatePost(ctx, text, replyToId, quoteId)
	if err != nil {
		if authErr, ok := broker.AsAuthRequired(err); ok {
			prompt := authErr.Prompt()
			return nil, &prompt, nil
		}
		return nil, nil, err
	}

	if replyToId != "" {
		e.store.MarkReplied(replyToId)
	}
	return receipt, nil, nil
}

func resolveAuthor(post *domain.Post, authorsById map[string]domain.Author) domain.Author {
	if post.AuthorId != "" {
		if author, ok := authorsById[post.AuthorId]; ok {
			return author
		}
	}
	if post.Author != nil {
		return *post.Author
	}
	return domain.Author{}
}
