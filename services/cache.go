package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/vnkhanh/survey-collector/models"
)

// RedisQuestionCache keeps each survey's question list in redis. Redis
// failures are logged and fall through to the wrapped store.
type RedisQuestionCache struct {
	next   QuestionStore
	client *redis.Client
	ttl    time.Duration
	log    logrus.FieldLogger
}

func NewRedisQuestionCache(next QuestionStore, client *redis.Client, ttl time.Duration, log logrus.FieldLogger) *RedisQuestionCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisQuestionCache{next: next, client: client, ttl: ttl, log: log}
}

func (c *RedisQuestionCache) key(surveyID uint) string {
	return fmt.Sprintf("survey:%d:questions", surveyID)
}

func (c *RedisQuestionCache) ListQuestions(ctx context.Context, surveyID uint) ([]models.Question, error) {
	data, err := c.client.Get(ctx, c.key(surveyID)).Bytes()
	switch {
	case err == nil:
		var questions []models.Question
		jerr := json.Unmarshal(data, &questions)
		if jerr == nil {
			return questions, nil
		}
		c.log.WithField("survey_id", surveyID).WithError(jerr).Warn("discarding corrupt cached questions")
	case err != redis.Nil:
		c.log.WithField("survey_id", surveyID).WithError(err).Warn("question cache read failed")
	}

	questions, err := c.next.ListQuestions(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(questions); err == nil {
		if err := c.client.Set(ctx, c.key(surveyID), data, c.ttl).Err(); err != nil {
			c.log.WithField("survey_id", surveyID).WithError(err).Warn("question cache write failed")
		}
	}
	return questions, nil
}

func (c *RedisQuestionCache) Invalidate(ctx context.Context, surveyID uint) error {
	return c.client.Del(ctx, c.key(surveyID)).Err()
}
