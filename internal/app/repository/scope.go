package repository

import (
	"github.com/xingxinag/onebooknav/internal/app/model"
	"gorm.io/gorm"
)

// scoped pushes the visibility rule into the query so pagination counts stay
// correct. Admins get no predicate at all.
func scoped(q *gorm.DB, scope model.Scope) *gorm.DB {
	if scope.Admin {
		return q
	}
	if scope.Authenticated {
		return q.Where("is_public = ? OR user_id = ?", true, scope.UserID)
	}
	return q.Where("is_public = ?", true)
}
