package sql

import (
	"fmt"
)

const (
	DbConnectionFailedMsg = "db connection failed"
	RollbackFailedMsg     = "unable to roll back the transaction"
)

func ErrDBConnectionFailed(connectErr error) error {
	return formatError(DbConnectionFailedMsg, connectErr.Error())
}

func ErrRollbackFailed(rollbackErr error) error {
	return formatError(RollbackFailedMsg, rollbackErr.Error())
}

func formatError(msg, err string) error {
	return fmt.Errorf("%s: %s", msg, err)
}
