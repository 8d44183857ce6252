package repo

import (
	"errors"

	"github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	cacheutil "finsight-api/internal/cache"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = sqlx.ErrNotFound

// Dependencies bundles the shared infrastructure required by repository
// implementations.
type Dependencies struct {
	DBConn sqlx.SqlConn
	Cache  cache.Cache
	TTL    cacheutil.TTLSet
}

// Set exposes strongly typed repositories to application logic.
type Set struct {
	Chats ChatRepo
}

// New constructs the repository set, validating required dependencies.
func New(deps Dependencies) (*Set, error) {
	if deps.DBConn == nil {
		return nil, errors.New("repo: missing DBConn dependency")
	}

	return &Set{
		Chats: newChatRepo(deps),
	}, nil
}
