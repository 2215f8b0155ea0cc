package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/akolanti/GoRAG/internal/data/redisStore"
	"github.com/akolanti/GoRAG/internal/domain/ragModel"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"github.com/redis/go-redis/v9"
)

const (
	querySeqKey    = "rag:query:seq"
	queryKeyPrefix = "rag:query:"
	queryStatsKey  = "rag:query:stats"

	statTotal         = "total"
	statConfidenceSum = "confidence_sum"
	statResponseSum   = "response_ms_sum"
	statLastQueryAt   = "last_query_at"
)

// attachFeedbackScript swaps the feedback of one record and moves the
// counters in the same step. Returns -1 when the record does not exist.
var attachFeedbackScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
local prev = redis.call('HGET', KEYS[1], 'feedback')
if prev == ARGV[1] then
	return 0
end
if prev and prev ~= '' then
	redis.call('HINCRBY', KEYS[2], prev, -1)
end
redis.call('HSET', KEYS[1], 'feedback', ARGV[1])
redis.call('HINCRBY', KEYS[2], ARGV[1], 1)
return 1
`)

// lastQueryScript only moves last_query_at forward.
var lastQueryScript = redis.NewScript(`
local cur = tonumber(redis.call('HGET', KEYS[1], 'last_query_at') or '0')
if tonumber(ARGV[1]) > cur then
	redis.call('HSET', KEYS[1], 'last_query_at', ARGV[1])
end
return 0
`)

type RedisQueryLog struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func NewRedisQueryLog(store *redisStore.Store) *RedisQueryLog {
	return &RedisQueryLog{
		store:  store,
		logger: logger_i.NewLogger("QueryLog"),
	}
}

func queryKey(id int64) string {
	return queryKeyPrefix + strconv.FormatInt(id, 10)
}

func (q *RedisQueryLog) Record(ctx context.Context, query ragModel.RAGQuery) (int64, error) {
	sources, err := json.Marshal(query.Sources)
	if err != nil {
		return 0, fmt.Errorf("query log: encode sources: %w", err)
	}

	id, err := q.store.Incr(ctx, querySeqKey)
	if err != nil {
		return 0, fmt.Errorf("%w: query log: %w", ragModel.ErrStoreUnavailable, err)
	}

	createdMs := query.CreatedAt.UnixMilli()
	err = q.store.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, queryKey(id),
			"question", query.Question,
			"language", query.Language,
			"answer", query.Answer,
			"confidence", strconv.FormatFloat(query.Confidence, 'f', -1, 64),
			"confidence_level", string(query.ConfidenceLevel),
			"sources", string(sources),
			"response_time_ms", query.ResponseTimeMs,
			"created_at", createdMs,
			"outcome", string(query.Outcome),
		)
		pipe.HIncrBy(ctx, queryStatsKey, statTotal, 1)
		pipe.HIncrByFloat(ctx, queryStatsKey, statConfidenceSum, query.Confidence)
		pipe.HIncrBy(ctx, queryStatsKey, statResponseSum, query.ResponseTimeMs)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: query log: %w", ragModel.ErrStoreUnavailable, err)
	}
	if _, err = q.store.RunScript(ctx, lastQueryScript, []string{queryStatsKey}, createdMs); err != nil {
		q.logger.WithContext(ctx).Warn("failed to move last query time", "queryId", id, "error", err)
	}

	q.logger.WithContext(ctx).Debug("query recorded", "queryId", id, "outcome", query.Outcome)
	return id, nil
}

func (q *RedisQueryLog) AttachFeedback(ctx context.Context, queryId int64, feedback ragModel.Feedback) error {
	res, err := q.store.RunScript(ctx, attachFeedbackScript, []string{queryKey(queryId), queryStatsKey}, string(feedback))
	if err != nil {
		return fmt.Errorf("%w: attach feedback: %w", ragModel.ErrStoreUnavailable, err)
	}
	if res < 0 {
		return fmt.Errorf("query %d: %w", queryId, ragModel.ErrNotFound)
	}
	q.logger.WithContext(ctx).Debug("feedback attached", "queryId", queryId, "feedback", feedback, "changed", res == 1)
	return nil
}

func (q *RedisQueryLog) Get(ctx context.Context, queryId int64) (ragModel.RAGQuery, error) {
	fields, err := q.store.HGetAll(ctx, queryKey(queryId))
	if err != nil {
		return ragModel.RAGQuery{}, fmt.Errorf("%w: query log: %w", ragModel.ErrStoreUnavailable, err)
	}
	if len(fields) == 0 {
		return ragModel.RAGQuery{}, fmt.Errorf("query %d: %w", queryId, ragModel.ErrNotFound)
	}
	return decodeQuery(queryId, fields)
}

func decodeQuery(id int64, fields map[string]string) (ragModel.RAGQuery, error) {
	query := ragModel.RAGQuery{
		Id:              id,
		Question:        fields["question"],
		Language:        fields["language"],
		Answer:          fields["answer"],
		ConfidenceLevel: ragModel.ConfidenceLevel(fields["confidence_level"]),
		Outcome:         ragModel.Outcome(fields["outcome"]),
		Sources:         []ragModel.SourceRef{},
	}
	query.Confidence, _ = strconv.ParseFloat(fields["confidence"], 64)
	query.ResponseTimeMs, _ = strconv.ParseInt(fields["response_time_ms"], 10, 64)
	if ms, err := strconv.ParseInt(fields["created_at"], 10, 64); err == nil {
		query.CreatedAt = time.UnixMilli(ms).UTC()
	}
	if raw := fields["sources"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &query.Sources); err != nil {
			return ragModel.RAGQuery{}, fmt.Errorf("query %d: decode sources: %w", id, err)
		}
	}
	if fb := fields["feedback"]; fb != "" {
		feedback := ragModel.Feedback(fb)
		query.Feedback = &feedback
	}
	return query, nil
}

func (q *RedisQueryLog) Analytics(ctx context.Context) (ragModel.Analytics, error) {
	stats, err := q.store.HGetAll(ctx, queryStatsKey)
	if err != nil {
		return ragModel.Analytics{}, fmt.Errorf("%w: query analytics: %w", ragModel.ErrStoreUnavailable, err)
	}
	total, _ := strconv.ParseInt(stats[statTotal], 10, 64)
	confidenceSum, _ := strconv.ParseFloat(stats[statConfidenceSum], 64)
	responseSum, _ := strconv.ParseInt(stats[statResponseSum], 10, 64)
	helpful, _ := strconv.ParseInt(stats[string(ragModel.FeedbackHelpful)], 10, 64)
	notHelpful, _ := strconv.ParseInt(stats[string(ragModel.FeedbackNotHelpful)], 10, 64)
	return buildAnalytics(total, confidenceSum, float64(responseSum), helpful, notHelpful), nil
}

func (q *RedisQueryLog) LastQueryAt(ctx context.Context) (*time.Time, error) {
	val, err := q.store.HGet(ctx, queryStatsKey, statLastQueryAt)
	if q.store.IsNil(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: query log: %w", ragModel.ErrStoreUnavailable, err)
	}
	ms, err := strconv.ParseInt(val, 10, 64)
	if err != nil || ms == 0 {
		return nil, nil
	}
	at := time.UnixMilli(ms).UTC()
	return &at, nil
}

func buildAnalytics(total int64, confidenceSum, responseSum float64, helpful, notHelpful int64) ragModel.Analytics {
	out := ragModel.Analytics{
		TotalQueries: total,
		FeedbackSummary: ragModel.FeedbackSummary{
			Helpful:    helpful,
			NotHelpful: notHelpful,
			None:       max(total-helpful-notHelpful, 0),
		},
	}
	if total > 0 {
		out.AverageConfidence = confidenceSum / float64(total)
		out.AverageResponseTimeMs = responseSum / float64(total)
	}
	return out
}
