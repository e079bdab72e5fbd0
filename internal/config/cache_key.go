package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// StudentResultChannel returns the Redis PubSub channel a student's published results are sent on
func (r *CacheKeyStruct) StudentResultChannel(studentID int) string {
	return fmt.Sprintf("student:%d:results", studentID)
}

// AttemptLockKey returns the advisory lock key serializing attempt creation for a (student, exam) pair
func (r *CacheKeyStruct) AttemptLockKey(examID string, studentID int) string {
	return fmt.Sprintf("student:%d:exam:%s:attempt", studentID, examID)
}

// RevokedTokenKey returns the Redis key marking a logged-out token
func (r *CacheKeyStruct) RevokedTokenKey(jti string) string {
	return fmt.Sprintf("auth:revoked:%s", jti)
}

var CacheKey = NewCacheKeyStruct()
