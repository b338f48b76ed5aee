// Package testutil holds helpers shared by package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"postboard/internal/db"
	"postboard/internal/models"
)

var dbSeq atomic.Int64

// NewSQLite returns a migrated, private in-memory SQLite database.
func NewSQLite(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared&_foreign_keys=on", dbSeq.Add(1))
	gdb, err := db.Open("sqlite", dsn, false)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(gdb))

	t.Cleanup(func() { _ = db.Close(gdb) })
	return gdb
}

// CreateUser inserts a user with a placeholder password hash.
func CreateUser(t *testing.T, gdb *gorm.DB, name, email string) *models.User {
	t.Helper()

	u := &models.User{Name: name, Email: email, Password: "$2a$04$placeholderplaceholderplaceholderplaceholderplac"}
	require.NoError(t, gdb.Create(u).Error)
	return u
}
