package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ExamPayloadKey returns the cache key for an exam's definition
func (r *CacheKeyStruct) ExamPayloadKey(examID string) string {
	return fmt.Sprintf("exam:%s:payload", examID)
}

// ExamMonitorChannel returns the Redis PubSub channel name for an exam monitor
func (r *CacheKeyStruct) ExamMonitorChannel(examID string) string {
	return fmt.Sprintf("exam:%s:monitor", examID)
}

// ClassSuggestionsKey caches the last suggestion pass for one category of a
// class. Each category expires on its own.
func (r *CacheKeyStruct) ClassSuggestionsKey(classID, category string) string {
	return fmt.Sprintf("class:%s:intervention_suggestions:%s", classID, category)
}

var CacheKey = NewCacheKeyStruct()
