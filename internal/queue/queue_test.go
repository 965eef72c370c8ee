package queue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"cafeteria-meals/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testQueues() Queues {
	return QueuesFrom(config.RedisConfig{ClaimQueue: "meal_claims", IngestionQueue: "roster_ingestion", DLQSuffix: ":dlq"})
}

func TestQueues(t *testing.T) {
	q := testQueues()
	assert.Equal(t, "meal_claims:dlq", q.DeadLetter(q.Claims))

	name, err := q.Resolve("claims")
	require.NoError(t, err)
	assert.Equal(t, "meal_claims", name)

	name, err = q.Resolve("roster_ingestion")
	require.NoError(t, err)
	assert.Equal(t, "roster_ingestion", name)

	_, err = q.Resolve("payments")
	assert.Error(t, err)
}

func TestDeadLetterKeepsOriginalBytes(t *testing.T) {
	at := time.Date(2026, 10, 14, 16, 30, 0, 0, time.UTC)
	payload := []byte("{not json")

	data, err := encodeDeadLetter("meal_claims", payload, fmt.Errorf("store unavailable"), at)
	require.NoError(t, err)

	dl, err := decodeDeadLetter(data)
	require.NoError(t, err)
	assert.Equal(t, DeadLetter{
		Queue:    "meal_claims",
		Reason:   "store unavailable",
		FailedAt: at,
		Payload:  "{not json",
	}, dl)
}

func TestDecodeDeadLetterRejectsForeignMessages(t *testing.T) {
	_, err := decodeDeadLetter([]byte(`{"student_code":"A1"}`))
	assert.Error(t, err)

	_, err = decodeDeadLetter([]byte(`nope`))
	assert.Error(t, err)
}

func TestNextBackoff(t *testing.T) {
	assert.Equal(t, 2*time.Second, nextBackoff(time.Second))
	assert.Equal(t, maxBackoff, nextBackoff(20*time.Second))
}

func TestSleepStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleep(ctx, time.Hour))
	assert.True(t, sleep(context.Background(), time.Millisecond))
}

type memoryLists struct {
	lists       map[string][]string // index 0 is the head (LPUSH side)
	failRequeue bool
}

func (m *memoryLists) oldest(_ context.Context, dlq string) ([]byte, error) {
	l := m.lists[dlq]
	if len(l) == 0 {
		return nil, nil
	}
	return []byte(l[len(l)-1]), nil
}

func (m *memoryLists) requeue(_ context.Context, dlq string, raw []byte, queueName, payload string) error {
	if m.failRequeue {
		return fmt.Errorf("connection reset")
	}
	m.lists[queueName] = append([]string{payload}, m.lists[queueName]...)
	l := m.lists[dlq]
	for i := len(l) - 1; i >= 0; i-- {
		if l[i] == string(raw) {
			m.lists[dlq] = append(l[:i:i], l[i+1:]...)
			break
		}
	}
	return nil
}

func letter(t *testing.T, payload string) string {
	t.Helper()
	data, err := encodeDeadLetter("meal_claims", []byte(payload), fmt.Errorf("store unavailable"), time.Now())
	require.NoError(t, err)
	return string(data)
}

func TestReplayMovesOldestFirst(t *testing.T) {
	lists := &memoryLists{lists: map[string][]string{
		"meal_claims:dlq": {letter(t, "newer"), letter(t, "older")},
	}}
	d := &DeadLetters{lists: lists, queues: testQueues()}

	moved, err := d.Replay(context.Background(), "meal_claims", 10)
	require.NoError(t, err)
	assert.Equal(t, 2, moved)
	assert.Empty(t, lists.lists["meal_claims:dlq"])
	// Consumers pop from the tail, so the older payload is served first.
	assert.Equal(t, []string{"newer", "older"}, lists.lists["meal_claims"])
}

func TestReplayKeepsLetterWhenRequeueFails(t *testing.T) {
	original := letter(t, "claim")
	lists := &memoryLists{lists: map[string][]string{"meal_claims:dlq": {original}}, failRequeue: true}
	d := &DeadLetters{lists: lists, queues: testQueues()}

	moved, err := d.Replay(context.Background(), "meal_claims", 10)
	assert.Error(t, err)
	assert.Equal(t, 0, moved)
	assert.Equal(t, []string{original}, lists.lists["meal_claims:dlq"])
	assert.Empty(t, lists.lists["meal_claims"])
}

func TestReplayStopsOnForeignLetter(t *testing.T) {
	lists := &memoryLists{lists: map[string][]string{"meal_claims:dlq": {"garbage"}}}
	d := &DeadLetters{lists: lists, queues: testQueues()}

	_, err := d.Replay(context.Background(), "meal_claims", 10)
	assert.Error(t, err)
	assert.Equal(t, []string{"garbage"}, lists.lists["meal_claims:dlq"])
}

func TestReplayHonoursLimit(t *testing.T) {
	lists := &memoryLists{lists: map[string][]string{
		"meal_claims:dlq": {letter(t, "c"), letter(t, "b"), letter(t, "a")},
	}}
	d := &DeadLetters{lists: lists, queues: testQueues()}

	moved, err := d.Replay(context.Background(), "meal_claims", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, moved)
	assert.Len(t, lists.lists["meal_claims:dlq"], 1)
}
