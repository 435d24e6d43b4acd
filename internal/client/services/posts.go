package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophfeed/internal/client/api"
	"github.com/dmitrijs2005/gophfeed/internal/client/session"
	"github.com/dmitrijs2005/gophfeed/internal/common"
	"github.com/dmitrijs2005/gophfeed/internal/logging"
)

// FeedRefresher reloads the feed after a successful mutation.
type FeedRefresher interface {
	Fetch(ctx context.Context) error
}

// PostService creates, edits and deletes the caller's posts. Each successful
// mutation is followed by a feed refresh whose failure is only logged.
type PostService interface {
	Create(ctx context.Context, content string) error
	Edit(ctx context.Context, id uint64, content string) error
	Delete(ctx context.Context, id uint64) error
}

type postService struct {
	client api.Client
	auth   *Authorizer
	feed   FeedRefresher
	log    logging.Logger
}

func NewPostService(client api.Client, auth *Authorizer, feed FeedRefresher, log logging.Logger) PostService {
	if log == nil {
		log = logging.Discard()
	}
	return &postService{client: client, auth: auth, feed: feed, log: log.With("component", "posts")}
}

func (p *postService) Create(ctx context.Context, content string) error {
	if err := common.ValidateContent(content); err != nil {
		return err
	}
	err := p.auth.Do(ctx, func(ctx context.Context, s session.Session) error {
		return p.client.CreatePost(ctx, s.Credential, content)
	})
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	p.refresh(ctx)
	return nil
}

func (p *postService) Edit(ctx context.Context, id uint64, content string) error {
	if err := common.ValidateContent(content); err != nil {
		return err
	}
	err := p.auth.Do(ctx, func(ctx context.Context, s session.Session) error {
		return p.client.UpdatePost(ctx, s.Credential, id, content)
	})
	if err != nil {
		return fmt.Errorf("edit post %d: %w", id, err)
	}
	p.refresh(ctx)
	return nil
}

func (p *postService) Delete(ctx context.Context, id uint64) error {
	err := p.auth.Do(ctx, func(ctx context.Context, s session.Session) error {
		return p.client.DeletePost(ctx, s.Credential, id)
	})
	if err != nil {
		return fmt.Errorf("delete post %d: %w", id, err)
	}
	p.refresh(ctx)
	return nil
}

func (p *postService) refresh(ctx context.Context) {
	if p.feed == nil {
		return
	}
	if err := p.feed.Fetch(ctx); err != nil {
		p.log.Warn(ctx, "feed refresh after mutation failed", "err", err)
	}
}
