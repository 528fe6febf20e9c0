package repository

import (
	"testing"

	"videotube/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// seedGraph builds two channels with a little content:
//
//	alice: videos v1 (views 10), v2 (views 20, unpublished); tweet t1
//	bob:   video v3 (views 30); comment c1 on v1
func seedGraph(t *testing.T) (*gorm.DB, *testutil.Fixture) {
	db := testutil.NewSQLiteDB(t)
	f := testutil.NewFixture(t, db)
	f.User("alice", "alice")
	f.User("bob", "bob")
	f.User("carol", "carol")
	f.Video("v1", "alice", 10)
	f.Video("v2", "alice", 20)
	f.Unpublish("v2")
	f.Video("v3", "bob", 30)
	f.Tweet("t1", "alice")
	f.Comment("c1", "bob", "v1", "video")
	return db, f
}
