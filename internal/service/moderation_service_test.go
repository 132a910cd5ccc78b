package service

import (
	"context"
	"testing"
	"time"

	"peerhaven/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func moderationDeps() (*reportRepoStub, *postRepoStub, *accountRepoStub, *auditRepoStub) {
	accounts := noopAccountRepo()
	accounts.getByIDFreshFn = func(_ context.Context, id uint) (*models.Account, error) {
		return &models.Account{ID: id, Role: models.RoleModerator}, nil
	}
	return noopReportRepo(), noopPostRepo(), accounts, &auditRepoStub{}
}

func TestModerationService_FileReport(t *testing.T) {
	t.Parallel()

	t.Run("empty reason rejected", func(t *testing.T) {
		t.Parallel()
		reports, posts, accounts, audit := moderationDeps()
		svc := NewModerationService(reports, posts, accounts, audit)
		_, err := svc.FileReport(context.Background(), 5, 1, "  ")
		assertAppErrorCode(t, err, "VALIDATION_ERROR")
	})

	t.Run("unknown post rejected", func(t *testing.T) {
		t.Parallel()
		reports, posts, accounts, audit := moderationDeps()
		posts.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
			return nil, models.NewNotFoundError("Post", id)
		}
		svc := NewModerationService(reports, posts, accounts, audit)
		_, err := svc.FileReport(context.Background(), 5, 99, "Spam")
		assertAppErrorCode(t, err, "NOT_FOUND")
	})

	t.Run("reason trimmed and stored pending", func(t *testing.T) {
		t.Parallel()
		reports, posts, accounts, audit := moderationDeps()
		var created *models.Report
		reports.createFn = func(_ context.Context, r *models.Report) error {
			created = r
			return nil
		}
		svc := NewModerationService(reports, posts, accounts, audit)
		report, err := svc.FileReport(context.Background(), 5, 1, "  Spam  ")
		require.NoError(t, err)
		assert.Equal(t, "Spam", report.Reason)
		assert.Equal(t, models.ReportStatusPending, created.Status)
	})
}

func TestModerationService_ListQueue_Aggregation(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	post := &models.Post{ID: 1, Title: "late night thoughts", Content: "..."}

	reports, posts, accounts, audit := moderationDeps()
	reports.listPendingFn = func(context.Context) ([]models.Report, error) {
		return []models.Report{
			{ID: 10, PostID: 1, Post: post, Reason: "Spam", CreatedAt: base},
			{ID: 11, PostID: 1, Post: post, Reason: "spam", CreatedAt: base.Add(time.Hour)},
			{ID: 12, PostID: 1, Post: post, Reason: "Hate speech", CreatedAt: base.Add(2 * time.Hour)},
		}, nil
	}
	svc := NewModerationService(reports, posts, accounts, audit)

	queue, err := svc.ListQueue(context.Background(), 1, ListQueueInput{})
	require.NoError(t, err)
	require.Len(t, queue, 1, "three reports on one post collapse to one queue entry")

	entry := queue[0]
	assert.Equal(t, 3, entry.ReportCount)
	assert.Equal(t, []string{"Spam", "Hate speech"}, entry.Reasons, "reasons are a case-insensitive set union in first-seen order")
	assert.True(t, entry.IsHighRisk, "three pending reports reach the high-risk threshold")
	assert.Equal(t, base, entry.OldestAt)
	assert.Equal(t, base.Add(2*time.Hour), entry.NewestAt)
}

func TestModerationService_ListQueue_BelowThresholdNotHighRisk(t *testing.T) {
	t.Parallel()

	reports, posts, accounts, audit := moderationDeps()
	reports.listPendingFn = func(context.Context) ([]models.Report, error) {
		return []models.Report{
			{ID: 10, PostID: 1, Post: &models.Post{ID: 1}, Reason: "Spam"},
			{ID: 11, PostID: 1, Post: &models.Post{ID: 1}, Reason: "Spam"},
		}, nil
	}
	svc := NewModerationService(reports, posts, accounts, audit)

	queue, err := svc.ListQueue(context.Background(), 1, ListQueueInput{})
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.False(t, queue[0].IsHighRisk)
}

func TestModerationService_ListQueue_DeletedPostPlaceholder(t *testing.T) {
	t.Parallel()

	deleted := &models.Post{ID: 3, Title: "gone"}
	deleted.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}

	reports, posts, accounts, audit := moderationDeps()
	reports.listPendingFn = func(context.Context) ([]models.Report, error) {
		return []models.Report{
			{ID: 20, PostID: 3, Post: deleted, Reason: "Harassment"},
		}, nil
	}
	svc := NewModerationService(reports, posts, accounts, audit)

	queue, err := svc.ListQueue(context.Background(), 1, ListQueueInput{})
	require.NoError(t, err)
	require.Len(t, queue, 1, "reports on deleted posts stay in the queue")
	assert.True(t, queue[0].ContentUnavailable)
	assert.Nil(t, queue[0].Post)
}

func TestModerationService_ListQueue_SortAndSearch(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	mk := func(postID uint, title string, n int, at time.Time) []models.Report {
		var out []models.Report
		for i := 0; i < n; i++ {
			out = append(out, models.Report{
				PostID:    postID,
				Post:      &models.Post{ID: postID, Title: title},
				Reason:    "Spam",
				CreatedAt: at.Add(time.Duration(i) * time.Minute),
			})
		}
		return out
	}

	pending := append(mk(1, "alpha post", 1, base), mk(2, "beta post", 3, base.Add(time.Hour))...)
	pending = append(pending, mk(3, "gamma post", 2, base.Add(2*time.Hour))...)

	reports, posts, accounts, audit := moderationDeps()
	reports.listPendingFn = func(context.Context) ([]models.Report, error) { return pending, nil }
	svc := NewModerationService(reports, posts, accounts, audit)

	t.Run("most reported first", func(t *testing.T) {
		queue, err := svc.ListQueue(context.Background(), 1, ListQueueInput{Sort: QueueSortMostReported})
		require.NoError(t, err)
		require.Len(t, queue, 3)
		assert.Equal(t, uint(2), queue[0].PostID)
		assert.Equal(t, uint(3), queue[1].PostID)
		assert.Equal(t, uint(1), queue[2].PostID)
	})

	t.Run("oldest first", func(t *testing.T) {
		queue, err := svc.ListQueue(context.Background(), 1, ListQueueInput{Sort: QueueSortOldest})
		require.NoError(t, err)
		assert.Equal(t, uint(1), queue[0].PostID)
	})

	t.Run("search filters by title", func(t *testing.T) {
		queue, err := svc.ListQueue(context.Background(), 1, ListQueueInput{Search: "BETA"})
		require.NoError(t, err)
		require.Len(t, queue, 1)
		assert.Equal(t, uint(2), queue[0].PostID)
	})
}

func TestModerationService_ListQueue_NonModeratorForbidden(t *testing.T) {
	t.Parallel()

	reports, posts, _, audit := moderationDeps()
	accounts := noopAccountRepo()
	accounts.getByIDFreshFn = func(_ context.Context, id uint) (*models.Account, error) {
		return &models.Account{ID: id, Role: models.RoleCounselor}, nil
	}
	svc := NewModerationService(reports, posts, accounts, audit)

	_, err := svc.ListQueue(context.Background(), 1, ListQueueInput{})
	assertAppErrorCode(t, err, "FORBIDDEN")
}

func TestModerationService_HidePost(t *testing.T) {
	t.Parallel()

	t.Run("resolves reports then hides", func(t *testing.T) {
		t.Parallel()
		reports, posts, accounts, audit := moderationDeps()

		var orderOfWrites []string
		reports.resolveAllPendingFn = func(_ context.Context, postID uint, to models.ReportStatus) (int64, error) {
			orderOfWrites = append(orderOfWrites, "reports")
			assert.Equal(t, models.ReportStatusResolvedHidden, to)
			return 3, nil
		}
		posts.setHiddenWhereFn = func(_ context.Context, _ uint, hidden bool) (bool, error) {
			orderOfWrites = append(orderOfWrites, "post")
			assert.True(t, hidden)
			return true, nil
		}

		svc := NewModerationService(reports, posts, accounts, audit)
		require.NoError(t, svc.HidePost(context.Background(), 1, 7))
		assert.Equal(t, []string{"reports", "post"}, orderOfWrites)
		require.Len(t, audit.entries, 1)
		assert.Equal(t, models.AuditActionPostHidden, audit.entries[0].Action)
	})

	t.Run("fully applied hide is benign no-op", func(t *testing.T) {
		t.Parallel()
		reports, posts, accounts, audit := moderationDeps()
		reports.resolveAllPendingFn = func(context.Context, uint, models.ReportStatus) (int64, error) { return 0, nil }
		posts.setHiddenWhereFn = func(context.Context, uint, bool) (bool, error) { return false, nil }

		svc := NewModerationService(reports, posts, accounts, audit)
		require.NoError(t, svc.HidePost(context.Background(), 1, 7))
		assert.Empty(t, audit.entries)
	})
}

func TestModerationService_IgnoreAll_NeverTouchesPost(t *testing.T) {
	t.Parallel()

	reports, posts, accounts, audit := moderationDeps()
	posts.setHiddenWhereFn = func(context.Context, uint, bool) (bool, error) {
		t.Fatal("ignore must not write the post")
		return false, nil
	}
	reports.resolveAllPendingFn = func(_ context.Context, _ uint, to models.ReportStatus) (int64, error) {
		assert.Equal(t, models.ReportStatusResolvedIgnored, to)
		return 2, nil
	}

	svc := NewModerationService(reports, posts, accounts, audit)
	require.NoError(t, svc.IgnoreAll(context.Background(), 1, 7))
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionReportsIgnored, audit.entries[0].Action)
}

func TestModerationService_Dismiss(t *testing.T) {
	t.Parallel()

	t.Run("dismisses a single pending report", func(t *testing.T) {
		t.Parallel()
		reports, posts, accounts, audit := moderationDeps()
		svc := NewModerationService(reports, posts, accounts, audit)
		require.NoError(t, svc.Dismiss(context.Background(), 1, 10))
		require.Len(t, audit.entries, 1)
		assert.Equal(t, models.AuditActionReportDismissed, audit.entries[0].Action)
	})

	t.Run("already resolved is benign no-op", func(t *testing.T) {
		t.Parallel()
		reports, posts, accounts, audit := moderationDeps()
		reports.resolveWhereFn = func(context.Context, uint, models.ReportStatus) (bool, error) { return false, nil }
		svc := NewModerationService(reports, posts, accounts, audit)
		require.NoError(t, svc.Dismiss(context.Background(), 1, 10))
		assert.Empty(t, audit.entries)
	})
}
