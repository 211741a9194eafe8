package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// CourseKey is the cache key of one course document
func CourseKey(courseID string) string {
	return fmt.Sprintf("id:%s", courseID)
}

// UserKey is the cache key of one user profile
func UserKey(userID string) string {
	return fmt.Sprintf("id:%s", userID)
}

// InvalidateCourseCache drops the cached course documents. Call after the write has committed.
func InvalidateCourseCache(ctx context.Context, cm *CacheManager, courseIDs ...string) {
	if len(courseIDs) == 0 {
		return
	}
	keys := make([]string, len(courseIDs))
	for i, id := range courseIDs {
		keys[i] = CourseKey(id)
	}
	SafeDelete(ctx, cm.Course, keys...)
}

// InvalidateUserCache drops the cached user profile
func InvalidateUserCache(ctx context.Context, cm *CacheManager, userID string) {
	SafeDelete(ctx, cm.User, UserKey(userID))
}
