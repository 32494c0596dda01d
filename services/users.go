// services/users.go
package services

import (
	"context"
	"strconv"
	"strings"

	"task-points-market/models"
)

// SearchAccounts finds accounts by username or display name (case-insensitive),
// or by exact user id when the query is numeric. Admin only.
func (s *ReviewService) SearchAccounts(ctx context.Context, callerID int64, query string, limit int) ([]models.Account, error) {
	if err := s.authorize(callerID, "search accounts"); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	db := s.DB.WithContext(ctx).Model(&models.Account{}).Order("user_id ASC").Limit(limit)

	query = strings.TrimSpace(query)
	if query != "" {
		searchTerm := "%" + strings.ToLower(strings.TrimPrefix(query, "@")) + "%"
		if id, err := strconv.ParseInt(query, 10, 64); err == nil {
			db = db.Where("user_id = ? OR LOWER(username) LIKE ? OR LOWER(name) LIKE ?", id, searchTerm, searchTerm)
		} else {
			db = db.Where("LOWER(username) LIKE ? OR LOWER(name) LIKE ?", searchTerm, searchTerm)
		}
	}

	var accounts []models.Account
	if err := db.Find(&accounts).Error; err != nil {
		return nil, storageError("search accounts", err)
	}
	return accounts, nil
}
