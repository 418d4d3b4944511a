package redisstore

import "errors"

var (
	ErrCounter = errors.New("redisstore: usage counter failed")
	ErrLock    = errors.New("redisstore: event lock failed")
)
