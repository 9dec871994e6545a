package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestIsDuplicate(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry '7-2024-03-10' for key 'uq_room_night'"}
	assert.True(t, isDuplicate(dup))
	assert.True(t, isDuplicate(fmt.Errorf("create booking: %w", dup)))

	other := &mysql.MySQLError{Number: 1452, Message: "foreign key constraint fails"}
	assert.False(t, isDuplicate(other))
	assert.False(t, isDuplicate(errors.New("duplicate entry")))
	assert.False(t, isDuplicate(nil))
}
