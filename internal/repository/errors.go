// Package repository is the MySQL data access layer for accounts and trips.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	// ErrNotFound is returned when no row matches the requested id or email.
	ErrNotFound = errors.New("record not found")

	// ErrEmailExists is returned when the unique email index rejects a write.
	ErrEmailExists = errors.New("email already exists")
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
