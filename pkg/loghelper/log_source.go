package loghelper

import (
	log "github.com/sirupsen/logrus"
)

// A simple helper function that will help wrap source chain related messages.
func LogSourceChain(chainID uint16) *log.Entry {
	return log.WithFields(log.Fields{
		"sourceChainId": chainID,
	})
}

// A simple helper function that will help wrap source chain related error messages.
func LogSourceChainError(chainID uint16, err error) *log.Entry {
	return log.WithFields(log.Fields{
		"sourceChainId": chainID,
		"err":           err,
	})
}
