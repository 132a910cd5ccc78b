package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	AccountKeyPrefix     = "account:%d"
	PostKeyPrefix        = "post:%d"
	HelpRequestKeyPrefix = "help_request:%d"
)

const (
	AccountTTL     = 5 * time.Minute
	PostTTL        = 30 * time.Minute
	HelpRequestTTL = 2 * time.Minute
)

func AccountKey(accountID uint) string {
	return fmt.Sprintf(AccountKeyPrefix, accountID)
}

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

func HelpRequestKey(requestID uint) string {
	return fmt.Sprintf(HelpRequestKeyPrefix, requestID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

// InvalidateAccount drops the cached account row. Sanction and role writes
// must call this so stale ban or role state never outlives a mutation.
func InvalidateAccount(ctx context.Context, accountID uint) {
	Invalidate(ctx, AccountKey(accountID))
}

func InvalidatePost(ctx context.Context, postID uint) {
	Invalidate(ctx, PostKey(postID))
}

func InvalidateHelpRequest(ctx context.Context, requestID uint) {
	Invalidate(ctx, HelpRequestKey(requestID))
}
